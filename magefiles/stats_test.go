// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCollectStats(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pkg", "a.go"), "package a\n\nfunc A() {}\n")
	writeFile(t, filepath.Join(root, "pkg", "a_test.go"), "package a\n")
	writeFile(t, filepath.Join(root, "_scratch", "b.go"), "package b\n")
	writeFile(t, filepath.Join(root, ".cache", "c.go"), "package c\n")
	writeFile(t, filepath.Join(root, "vendor", "d.go"), "package d\n")
	writeFile(t, filepath.Join(root, "README.md"), "facet composition engine\n")
	writeFile(t, filepath.Join(root, "NOTES.md"), "not counted at all\n")

	record, err := collectStats(root)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		"go_loc_prod": 3,
		"go_loc_test": 1,
		"go_loc":      4,
		"doc_words":   3,
	}, record)
}

func TestSkipStatsDir(t *testing.T) {
	for name, skip := range map[string]bool{
		"internal":  false,
		"vendor":    true,
		"magefiles": true,
		"_build":    true,
		".git":      true,
	} {
		assert.Equal(t, skip, skipStatsDir(name), name)
	}
}
