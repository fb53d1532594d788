package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mesh-intelligence/facets/pkg/types"
)

const (
	sqlHasFacet    = `SELECT 1 FROM facets WHERE owner_id = ? AND facet_type = ? AND facet_id = ?`
	sqlGetFacet    = `SELECT data FROM facets WHERE owner_id = ? AND facet_type = ? AND facet_id = ?`
	sqlInsertFacet = `INSERT INTO facets (owner_id, facet_type, facet_id, data, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (owner_id, facet_type, facet_id) DO NOTHING`
	sqlUpdateFacet = `UPDATE facets SET data = ?, updated_at = ?
WHERE owner_id = ? AND facet_type = ? AND facet_id = ?`
	sqlDeleteFacet = `DELETE FROM facets WHERE owner_id = ? AND facet_type = ? AND facet_id = ?`
	sqlFacetKeys   = `SELECT facet_type, facet_id FROM facets WHERE owner_id = ? ORDER BY facet_type, facet_id`

	sqlSaveSubject = `INSERT INTO subjects (subject_id, attrs, created_at, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (subject_id) DO UPDATE SET attrs = excluded.attrs, updated_at = excluded.updated_at`
	sqlLoadSubject = `SELECT attrs FROM subjects WHERE subject_id = ?`
	sqlSubjects    = `SELECT subject_id FROM subjects ORDER BY subject_id`
)

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func validJSON(raw []byte) error {
	if !json.Valid(raw) {
		return fmt.Errorf("%w: stored data must be JSON", types.ErrInvalidData)
	}
	return nil
}

// write runs a mutation and, when it changed a row, brings table's JSONL
// file up to date according to the sync strategy.
func (s *Store[D]) write(table, operation, query string, args ...any) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached {
		return false, types.ErrStoreDetached
	}
	if s.syncStrategy == types.SyncImmediate {
		return s.writeThrough(table, operation, query, args...)
	}

	n, err := execAffected(s.db, query, args...)
	if err != nil {
		return false, fmt.Errorf("%s %s: %w", operation, table, err)
	}
	if n == 0 {
		return false, nil
	}
	// The row is committed and the rewrite stays queued, so a failed flush
	// is retried by the next one.
	if err := s.queueWrite(table, operation); err != nil {
		s.logger.Warn("batch flush failed", "table", table, "operation", operation, "error", err)
	}
	return true, nil
}

// writeThrough runs a mutation and rewrites table's JSONL file inside one
// transaction. The row change is rolled back when the file cannot be
// written.
func (s *Store[D]) writeThrough(table, operation, query string, args ...any) (changed bool, err error) {
	m, ok := mappingFor(table)
	if !ok {
		return false, fmt.Errorf("no JSONL mapping for %s", table)
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("%s %s: %w", operation, table, err)
	}
	defer func() {
		if !changed {
			_ = tx.Rollback()
		}
	}()

	n, err := execAffected(tx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%s %s: %w", operation, table, err)
	}
	if n == 0 {
		return false, nil
	}
	records, err := dumpTable(tx, m)
	if err != nil {
		return false, err
	}
	if err := writeJSONL(filepath.Join(s.config.DataDir, m.file), records); err != nil {
		return false, fmt.Errorf("%s %s: persist: %w", operation, table, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("%s %s: %w", operation, table, err)
	}
	return true, nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func execAffected(e execer, query string, args ...any) (int64, error) {
	res, err := e.Exec(query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// queryRow reads a single text value. The boolean is false when no row
// matches.
func (s *Store[D]) queryRow(query string, args ...any) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached {
		return "", false, types.ErrStoreDetached
	}

	var v string
	err := s.db.QueryRow(query, args...).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *Store[D]) SaveSubject(id string, attrs D) error {
	if id == "" {
		return types.ErrInvalidOwner
	}
	raw, err := s.codec.Encode(attrs)
	if err != nil {
		return err
	}
	if err := validJSON(raw); err != nil {
		return err
	}
	ts := now()
	_, err = s.write(subjectsTable, "save", sqlSaveSubject, id, string(raw), ts, ts)
	return err
}

func (s *Store[D]) LoadSubject(id string) (D, error) {
	var zero D
	raw, ok, err := s.queryRow(sqlLoadSubject, id)
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, types.ErrSubjectNotFound
	}
	return s.codec.Decode([]byte(raw))
}

func (s *Store[D]) Subjects() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached {
		return nil, types.ErrStoreDetached
	}

	rows, err := s.db.Query(sqlSubjects)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list subjects: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// rawFacets exposes the facets table to scoped.Backend.
type rawFacets[D any] struct {
	s *Store[D]
}

func (r rawFacets[D]) Has(owner, facetType, facetID string) (bool, error) {
	_, ok, err := r.s.queryRow(sqlHasFacet, owner, facetType, facetID)
	return ok, err
}

func (r rawFacets[D]) Get(owner, facetType, facetID string) ([]byte, bool, error) {
	v, ok, err := r.s.queryRow(sqlGetFacet, owner, facetType, facetID)
	if err != nil || !ok {
		return nil, ok, err
	}
	return []byte(v), true, nil
}

func (r rawFacets[D]) Insert(owner, facetType, facetID string, raw []byte) (bool, error) {
	if err := validJSON(raw); err != nil {
		return false, err
	}
	ts := now()
	return r.s.write(facetsTable, "insert", sqlInsertFacet, owner, facetType, facetID, string(raw), ts, ts)
}

func (r rawFacets[D]) Update(owner, facetType, facetID string, raw []byte) (bool, error) {
	if err := validJSON(raw); err != nil {
		return false, err
	}
	return r.s.write(facetsTable, "update", sqlUpdateFacet, string(raw), now(), owner, facetType, facetID)
}

func (r rawFacets[D]) Delete(owner, facetType, facetID string) (bool, error) {
	return r.s.write(facetsTable, "delete", sqlDeleteFacet, owner, facetType, facetID)
}

func (r rawFacets[D]) Keys(owner string) ([]types.Key, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if !r.s.attached {
		return nil, types.ErrStoreDetached
	}

	rows, err := r.s.db.Query(sqlFacetKeys, owner)
	if err != nil {
		return nil, fmt.Errorf("list facets: %w", err)
	}
	defer rows.Close()

	var keys []types.Key
	for rows.Next() {
		var k types.Key
		if err := rows.Scan(&k.FacetType, &k.FacetID); err != nil {
			return nil, fmt.Errorf("list facets: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
