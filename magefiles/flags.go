// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
)

// targetArgs holds the arguments after the mage target name. Mage itself only
// accepts positional parameters, so they are cut from os.Args before its
// parser runs and targets read them with parseTargetFlags.
var targetArgs []string

func init() {
	os.Args, targetArgs = splitTargetArgs(os.Args)
}

// splitTargetArgs splits [binary mage-flags... target rest...] after the
// target, the first argument not starting with a dash. A "--" stops the
// search.
func splitTargetArgs(args []string) (head, rest []string) {
	for i := 1; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			break
		}
		if a != "" && a[0] != '-' {
			return args[:i+1], args[i+1:]
		}
	}
	return args, nil
}

// parseTargetFlags parses targetArgs into fs, exiting on --help or bad flags.
func parseTargetFlags(fs *flag.FlagSet) {
	err := fs.Parse(targetArgs)
	switch {
	case err == nil:
	case errors.Is(err, flag.ErrHelp):
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
