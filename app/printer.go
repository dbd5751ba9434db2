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
	"bufio"
	"os"
	"sync"
)

// Printer is a buffered, concurrency-safe stdout writer: the batch decode
// benchmark runs pages across several goroutines, so plain fmt.Println
// from more than one of them would interleave mid-line.
type Printer struct {
	os *bufio.Writer
	mu sync.Mutex
}

func newPrinter() *Printer {
	return &Printer{os: bufio.NewWriter(os.Stdout)}
}

// Println writes msg followed by a newline when printFlag is true, gated by
// the caller's verbosity check.
func (p *Printer) Println(msg string, printFlag bool) {
	if !printFlag {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if w, _ := p.os.Write([]byte(msg + "\n")); w > 0 {
		_ = p.os.Flush()
	}
}
