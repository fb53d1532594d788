// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// statsSkip lists directories that are not project code. Directories whose
// names start with "_" or "." are skipped too, as the go tool ignores them.
var statsSkip = map[string]bool{
	"vendor":    true,
	"magefiles": true,
	binaryDir:   true,
}

// statsDoc is the document whose words Stats counts.
const statsDoc = "README.md"

// Stats prints Go line counts per package kind and documentation word counts
// as one JSON object.
func Stats() error {
	record, err := collectStats(".")
	if err != nil {
		return err
	}
	line, err := json.Marshal(record)
	if err != nil {
		return err
	}
	fmt.Println(string(line))
	return nil
}

func skipStatsDir(name string) bool {
	return statsSkip[name] || strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")
}

func collectStats(root string) (map[string]int, error) {
	record := map[string]int{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && skipStatsDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		kind := "go_loc_prod"
		if strings.HasSuffix(path, "_test.go") {
			kind = "go_loc_test"
		}
		lines := bytes.Count(data, []byte("\n"))
		record[kind] += lines
		record["go_loc"] += lines
		return nil
	})
	if err != nil {
		return nil, err
	}

	if data, err := os.ReadFile(filepath.Join(root, statsDoc)); err == nil {
		record["doc_words"] = len(strings.Fields(string(data)))
	}
	return record, nil
}
