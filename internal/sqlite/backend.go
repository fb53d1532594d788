// Package sqlite implements the SQLite store. JSONL files in the data
// directory are the source of truth; SQLite is rebuilt from them on attach and
// serves every query. Writes go to SQLite first and reach the JSONL files
// according to the configured sync strategy.
package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/facets/internal/scoped"
	"github.com/mesh-intelligence/facets/pkg/types"
)

// dbFile is the SQLite cache file inside the data directory.
const dbFile = "facets.db"

// Store is a types.Store backed by SQLite and JSONL files.
type Store[D any] struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	codec    types.Codec[D]
	logger   *slog.Logger

	// persistMu orders table dumps so the last file written is the newest.
	persistMu sync.Mutex

	syncStrategy  string
	batchSize     int
	batchInterval time.Duration
	pendingWrites []pendingWrite
	batchTimer    *time.Timer
	batchMu       sync.Mutex // protects pendingWrites and batchTimer
}

var _ types.Store[any] = (*Store[any])(nil)

// pendingWrite is a deferred JSONL rewrite queued by the on_close and batch
// strategies.
type pendingWrite struct {
	table     string
	operation string
}

// NewStore returns a detached store. A nil codec means types.JSONCodec and a
// nil logger discards. The codec must produce JSON.
func NewStore[D any](codec types.Codec[D], logger *slog.Logger) *Store[D] {
	if codec == nil {
		codec = types.JSONCodec[D]{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store[D]{codec: codec, logger: logger}
}

// Attach creates DataDir if needed, builds a fresh SQLite database and loads
// the JSONL files into it.
// Returns ErrAlreadyAttached if already attached.
func (s *Store[D]) Attach(config types.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// The database is a cache of the JSONL files; start from scratch.
	dbPath := filepath.Join(dataDir, dbFile)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("create schema: %w", err)
		}
	}
	if err := initJSONLFiles(dataDir); err != nil {
		db.Close()
		return err
	}
	if err := loadAllJSONL(db, dataDir); err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	config.DataDir = dataDir
	s.db = db
	s.config = config
	s.syncStrategy = config.SQLite.GetSyncStrategy()
	s.batchSize = config.SQLite.GetBatchSize()
	s.batchInterval = time.Duration(config.SQLite.GetBatchInterval()) * time.Second
	s.pendingWrites = nil
	s.attached = true

	if s.syncStrategy == types.SyncBatch {
		s.startBatchTimer()
	}

	s.logger.Info("store attached",
		"backend", types.BackendSQLite, "data_dir", dataDir, "sync", s.syncStrategy)
	return nil
}

// Detach flushes pending JSONL writes and closes the database. Idempotent.
// After Detach, operations return ErrStoreDetached.
func (s *Store[D]) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return nil
	}

	s.stopBatchTimer()
	if err := s.flushPendingWrites(); err != nil {
		return fmt.Errorf("flush pending writes: %w", err)
	}
	if err := s.db.Close(); err != nil {
		return err
	}
	s.db = nil
	s.attached = false
	s.logger.Info("store detached", "backend", types.BackendSQLite, "data_dir", s.config.DataDir)
	return nil
}

// Backend returns owner's facet backend.
func (s *Store[D]) Backend(owner string) (types.Backend[D], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached {
		return nil, types.ErrStoreDetached
	}
	b, err := scoped.New(rawFacets[D]{s}, s.codec, owner)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// persistTable rewrites one table's JSONL file from SQLite.
func (s *Store[D]) persistTable(table string) error {
	m, ok := mappingFor(table)
	if !ok {
		return fmt.Errorf("no JSONL mapping for %s", table)
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	records, err := dumpTable(s.db, m)
	if err != nil {
		return err
	}
	return writeJSONL(filepath.Join(s.config.DataDir, m.file), records)
}

// queueWrite records a deferred rewrite. A batch strategy flushes once the
// queue reaches the batch size.
func (s *Store[D]) queueWrite(table, operation string) error {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()

	s.pendingWrites = append(s.pendingWrites, pendingWrite{table: table, operation: operation})
	if s.syncStrategy == types.SyncBatch && len(s.pendingWrites) >= s.batchSize {
		return s.flushPendingWritesLocked()
	}
	return nil
}

// flushPendingWrites runs the queued rewrites.
func (s *Store[D]) flushPendingWrites() error {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return s.flushPendingWritesLocked()
}

// flushPendingWritesLocked rewrites each table named in the queue once.
// The queue is kept on failure so a later flush retries. The caller must
// hold s.batchMu.
func (s *Store[D]) flushPendingWritesLocked() error {
	if len(s.pendingWrites) == 0 {
		return nil
	}
	done := make(map[string]bool)
	for _, pw := range s.pendingWrites {
		if done[pw.table] {
			continue
		}
		if err := s.persistTable(pw.table); err != nil {
			return fmt.Errorf("flush %s %s: %w", pw.table, pw.operation, err)
		}
		done[pw.table] = true
	}
	s.logger.Debug("flushed pending writes", "count", len(s.pendingWrites))
	s.pendingWrites = nil
	return nil
}

// startBatchTimer flushes the queue every batch interval until detach.
func (s *Store[D]) startBatchTimer() {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()

	if s.batchTimer != nil {
		return
	}
	s.batchTimer = time.AfterFunc(s.batchInterval, func() {
		s.mu.RLock()
		defer s.mu.RUnlock()
		if !s.attached {
			return
		}
		if err := s.flushPendingWrites(); err != nil {
			s.logger.Warn("batch flush failed", "error", err)
		}

		s.batchMu.Lock()
		if s.batchTimer != nil {
			s.batchTimer.Reset(s.batchInterval)
		}
		s.batchMu.Unlock()
	})
}

func (s *Store[D]) stopBatchTimer() {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()

	if s.batchTimer != nil {
		s.batchTimer.Stop()
		s.batchTimer = nil
	}
}
