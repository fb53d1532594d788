// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Test groups the test targets.
type Test mg.Namespace

// testArgs parses --run and --pkg from the arguments after the target name.
//
//	mage test:all --run TestDriverScenario --pkg ./internal/people/...
func testArgs(extra ...string) []string {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	run := fs.String("run", "", "run only tests matching this pattern")
	pkg := fs.String("pkg", "./...", "packages to test")
	parseTargetFlags(fs)

	args := append([]string{"test", "-v"}, extra...)
	if *run != "" {
		args = append(args, "-run", *run)
	}
	return append(args, *pkg)
}

// All runs every test.
func (Test) All() error {
	return sh.RunV(binGo, testArgs()...)
}

// Race runs every test with the race detector, which the concurrent attach
// tests rely on.
func (Test) Race() error {
	return sh.RunV(binGo, testArgs("-race")...)
}

// Cover writes a coverage profile to bin/cover.out and prints the summary.
func (Test) Cover() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	profile := filepath.Join(binaryDir, "cover.out")
	if err := sh.RunV(binGo, testArgs("-coverprofile", profile)...); err != nil {
		return err
	}
	return sh.RunV(binGo, "tool", "cover", "-func", profile)
}
