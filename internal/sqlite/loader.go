package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// loadAllJSONL fills the tables from the JSONL files in dataDir inside one
// transaction: either every file loads or the database stays empty.
// Malformed records and unknown fields are skipped.
func loadAllJSONL(db *sql.DB, dataDir string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	for _, m := range tableMappings {
		records, err := readJSONL(filepath.Join(dataDir, m.file))
		if err != nil {
			return fmt.Errorf("reading %s: %w", m.file, err)
		}
		if len(records) == 0 {
			continue
		}
		if err := insertRecords(tx, m, records); err != nil {
			return fmt.Errorf("loading %s into %s: %w", m.file, m.table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}
	return nil
}

// insertRecords inserts JSONL records into m's table. A record with a missing
// or mistyped column is skipped; a later record with the same key replaces
// an earlier one.
func insertRecords(tx *sql.Tx, m tableMapping, records []json.RawMessage) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(m.columns)), ", ")
	stmt, err := tx.Prepare(fmt.Sprintf(
		"INSERT OR REPLACE INTO %s (%s) VALUES (%s)",
		m.table, strings.Join(m.columnNames(), ", "), placeholders,
	))
	if err != nil {
		return fmt.Errorf("preparing insert for %s: %w", m.table, err)
	}
	defer stmt.Close()

	for _, rec := range records {
		args, ok := recordArgs(m, rec)
		if !ok {
			continue
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("inserting into %s: %w", m.table, err)
		}
	}
	return nil
}

// recordArgs extracts m's columns from a JSONL record. JSON columns keep
// their raw text; the rest must be JSON strings.
func recordArgs(m tableMapping, rec json.RawMessage) ([]any, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(rec, &obj); err != nil {
		return nil, false
	}
	args := make([]any, len(m.columns))
	for i, c := range m.columns {
		raw, ok := obj[c.name]
		if !ok || string(raw) == "null" {
			return nil, false
		}
		if c.json {
			args[i] = string(raw)
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, false
		}
		args[i] = s
	}
	return args, true
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

// dumpTable reads every row of m's table as JSONL records.
func dumpTable(q queryer, m tableMapping) ([]json.RawMessage, error) {
	rows, err := q.Query(fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		strings.Join(m.columnNames(), ", "), m.table, m.orderBy))
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", m.table, err)
	}
	defer rows.Close()

	var records []json.RawMessage
	vals := make([]string, len(m.columns))
	dest := make([]any, len(m.columns))
	for i := range vals {
		dest[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", m.table, err)
		}
		obj := make(map[string]json.RawMessage, len(m.columns))
		for i, c := range m.columns {
			if c.json {
				obj[c.name] = json.RawMessage(vals[i])
				continue
			}
			s, err := json.Marshal(vals[i])
			if err != nil {
				return nil, err
			}
			obj[c.name] = s
		}
		rec, err := json.Marshal(obj)
		if err != nil {
			return nil, fmt.Errorf("encoding %s row: %w", m.table, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", m.table, err)
	}
	return records, nil
}
