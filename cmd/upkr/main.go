// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Command upkr compresses and decompresses files in the upkr format.
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/dsnet/upkr"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

const usage = `Usage:
  upkr [compress] [-0 .. -9] <file> [<out-file>]
  upkr [uncompress] <file> [<out-file>]
`

func run(args []string) error {
	if len(args) < 1 {
		fmt.Print(usage)
		os.Exit(1)
	}

	uncompress := false
	level := upkr.DefaultLevel

	switch args[0] {
	case "compress":
		args = args[1:]
	case "uncompress":
		uncompress = true
		args = args[1:]
	}

	if len(args) > 0 && strings.HasPrefix(args[0], "-") {
		n, err := strconv.Atoi(args[0][1:])
		if err != nil {
			return fmt.Errorf("invalid compression level %q: %v", args[0], err)
		}
		level = n
		args = args[1:]
	}

	if len(args) == 0 {
		return fmt.Errorf("input filename missing")
	}
	inputName := args[0]

	var outputName string
	if len(args) > 1 {
		outputName = args[1]
	} else if uncompress {
		outputName = inputName + ".unp"
	} else {
		outputName = inputName + ".upk"
	}

	input, err := os.ReadFile(inputName)
	if err != nil {
		return fmt.Errorf("failed to open input file %q: %v", inputName, err)
	}

	var output []byte
	if uncompress {
		output, err = upkr.UncompressBytes(input)
	} else {
		output, err = upkr.CompressBytes(input, level)
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(outputName, output, 0664); err != nil {
		return fmt.Errorf("failed to write output file %q: %v", outputName, err)
	}
	return nil
}
