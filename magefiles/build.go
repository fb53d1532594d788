// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main holds the mage targets for the facets module.
//
//	mage build        Compile the facets CLI to bin/
//	mage test:all     Run every test
//	mage test:race    Run every test under the race detector
//	mage test:cover   Write a coverage profile to bin/cover.out
//	mage lint         Run go vet, gofmt and golangci-lint
//	mage install      Install facets to GOPATH/bin
//	mage stats        Print Go line counts as JSON
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo       = "go"
	binaryName  = "facets"
	binaryDir   = "bin"
	cmdDir      = "./cmd/facets"
	versionVar  = "github.com/mesh-intelligence/facets/internal/cli.Version"
	envVersion  = "FACETS_VERSION"
)

// ldflags stamps the CLI version when FACETS_VERSION is set.
func ldflags() []string {
	v := os.Getenv(envVersion)
	if v == "" {
		return nil
	}
	return []string{"-ldflags", fmt.Sprintf("-X %s=%s", versionVar, v)}
}

// Build compiles the facets binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	args := append([]string{"build", "-v"}, ldflags()...)
	args = append(args, "-o", filepath.Join(binaryDir, binaryName), cmdDir)
	return sh.RunV(binGo, args...)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
