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

// Command gtc-bench is a batch decode benchmark harness over the gtc
// package: it reads one or more encoded container files and reports
// decode throughput. It is not a general image viewer or CLI codec tool;
// those are out of scope.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	_ARG_INPUT   = "--input="
	_ARG_JOBS    = "--jobs="
	_ARG_VERBOSE = "--verbose="
	_ARG_CPUPROF = "--cpuProf="
	_APP_HEADER  = "gtc-bench (c) Frederic Langlet"
)

var log = newPrinter()

func main() {
	argsMap, status := processCommandLine(os.Args)

	if status != 0 {
		os.Exit(status)
	}

	if argsMap == nil {
		os.Exit(0)
	}

	bench, err := newDecodeBenchmark(argsMap)

	if err != nil {
		fmt.Printf("Failed to create decode benchmark: %v\n", err)
		os.Exit(1)
	}

	os.Exit(bench.run())
}

func processCommandLine(args []string) (map[string]any, int) {
	argsMap := make(map[string]any)
	inputName := ""
	verbose := 1
	jobs := 0
	cpuProf := ""

	for i, arg := range args {
		if i == 0 {
			continue
		}

		arg = strings.TrimSpace(arg)

		if arg == "--help" || arg == "-h" {
			printHelp()
			return nil, 0
		}

		if strings.HasPrefix(arg, _ARG_INPUT) {
			inputName = strings.TrimPrefix(arg, _ARG_INPUT)
			continue
		}

		if strings.HasPrefix(arg, _ARG_JOBS) {
			n, err := strconv.Atoi(strings.TrimPrefix(arg, _ARG_JOBS))

			if err != nil || n < 0 {
				fmt.Printf("Invalid jobs count provided on command line: %v\n", arg)
				return nil, 1
			}

			jobs = n
			continue
		}

		if strings.HasPrefix(arg, _ARG_VERBOSE) {
			n, err := strconv.Atoi(strings.TrimPrefix(arg, _ARG_VERBOSE))

			if err != nil || n < 0 || n > 5 {
				fmt.Printf("Invalid verbosity level provided on command line: %v\n", arg)
				return nil, 1
			}

			verbose = n
			continue
		}

		if strings.HasPrefix(arg, _ARG_CPUPROF) {
			cpuProf = strings.TrimPrefix(arg, _ARG_CPUPROF)
			continue
		}

		log.Println("Warning: ignoring unknown option ["+arg+"]", verbose > 0)
	}

	if inputName == "" {
		printHelp()
		return nil, 0
	}

	if verbose >= 1 {
		log.Println("\n"+_APP_HEADER+"\n", true)
	}

	argsMap["inputName"] = inputName
	argsMap["verbosity"] = uint(verbose)
	argsMap["jobs"] = uint(jobs)
	argsMap["cpuProf"] = cpuProf
	return argsMap, 0
}

func printHelp() {
	log.Println("", true)
	log.Println(_APP_HEADER, true)
	log.Println("", true)
	log.Println("   -h, --help", true)
	log.Println("        Display this message\n", true)
	log.Println("   --input=<path>", true)
	log.Println("        Mandatory: an encoded container file, or a directory of them.\n", true)
	log.Println("   --jobs=<n>", true)
	log.Println("        Above 1 enables the worker pool (sized to GOMAXPROCS); 0 or 1 runs synchronously (default 0).\n", true)
	log.Println("   --verbose=<level>", true)
	log.Println("        Verbosity [0..5] (default 1).\n", true)
	log.Println("   --cpuProf=<path>", true)
	log.Println("        Any non-empty value enables a CPU profile of the decode batch; path is not used as the output location.\n", true)
}
