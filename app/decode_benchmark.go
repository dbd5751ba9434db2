/*
Copyright 2011-2024 Frederic Langlet
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
you may obtain a copy of the License at

                http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kafemoka/GST/container"
	"github.com/kafemoka/GST/device"
	"github.com/kafemoka/GST/gtc"
)

// decodeBenchmark loads every container file found at inputName (a single
// file or a directory of them) and runs them through one gtc.Decoder batch,
// reporting wall-clock throughput.
type decodeBenchmark struct {
	verbosity uint
	jobs      uint
	inputName string
	cpuProf   string
}

func newDecodeBenchmark(argsMap map[string]any) (*decodeBenchmark, error) {
	b := &decodeBenchmark{
		inputName: argsMap["inputName"].(string),
		verbosity: argsMap["verbosity"].(uint),
		jobs:      argsMap["jobs"].(uint),
		cpuProf:   argsMap["cpuProf"].(string),
	}

	if b.inputName == "" {
		return nil, fmt.Errorf("missing --input")
	}

	return b, nil
}

func (b *decodeBenchmark) run() int {
	paths, err := collectContainerFiles(b.inputName)

	if err != nil {
		fmt.Printf("Failed to list input: %v\n", err)
		return 1
	}

	if len(paths) == 0 {
		fmt.Printf("No input files found at %s\n", b.inputName)
		return 1
	}

	var hdrs []container.Header
	var payload []byte
	var totalBytes int64

	for _, p := range paths {
		raw, err := os.ReadFile(p)

		if err != nil {
			fmt.Printf("Failed to read %s: %v\n", p, err)
			return 1
		}

		c, err := container.Decode(raw)

		if err != nil {
			log.Println(fmt.Sprintf("Warning: skipping malformed container %s: %v", p, err), b.verbosity > 0)
			continue
		}

		hdrs = append(hdrs, c.Header)
		payload = append(payload, raw...)
		totalBytes += int64(len(raw))
	}

	if len(hdrs) == 0 {
		fmt.Printf("No valid container files to decode\n")
		return 1
	}

	outSize := 0

	for _, h := range hdrs {
		outSize += h.NumBlocks() * device.BlockBytes
	}

	out := &memPixelBuffer{buf: make([]byte, outSize)}

	opts := []gtc.Option{gtc.WithAsync(b.jobs > 1)}

	if b.cpuProf != "" {
		opts = append(opts, gtc.WithProfiling(true))
	}

	dec := gtc.NewDecoder(device.CPUQueue{}, opts...)
	start := time.Now()

	evt, err := dec.LoadCompressedDXTs(hdrs, nil, payload, out, nil)

	if err != nil {
		fmt.Printf("Decode failed: %v\n", err)
		return 1
	}

	if err := evt.Wait(); err != nil {
		fmt.Printf("Decode failed: %v\n", err)
		return 1
	}

	elapsed := time.Since(start)

	log.Println(fmt.Sprintf("Decoded %d container(s), %d bytes, in %v", len(hdrs), totalBytes, elapsed), b.verbosity > 0)

	if elapsed > 0 {
		mbps := float64(totalBytes) / elapsed.Seconds() / (1024 * 1024)
		log.Println(fmt.Sprintf("Throughput: %.2f MB/s", mbps), b.verbosity > 0)
	}

	return 0
}

func collectContainerFiles(target string) ([]string, error) {
	fi, err := os.Stat(target)

	if err != nil {
		return nil, err
	}

	if !fi.IsDir() {
		return []string{target}, nil
	}

	var paths []string

	entries, err := os.ReadDir(target)

	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		if e.Type().IsRegular() {
			paths = append(paths, filepath.Join(target, e.Name()))
		}
	}

	return paths, nil
}

// memPixelBuffer is an in-process stand-in for a graphics-API-shared pixel
// store, for benchmarking without a real interop target.
type memPixelBuffer struct {
	buf []byte
}

func (p *memPixelBuffer) Acquire() error { return nil }
func (p *memPixelBuffer) Release() error { return nil }
func (p *memPixelBuffer) Bytes() []byte  { return p.buf }
