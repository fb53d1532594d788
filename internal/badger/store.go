// Package badger implements a store on BadgerDB. Facets and subjects share
// one keyspace:
//
//	f\x00<owner>\x00<type>\x00<id>  facet data
//	s\x00<id>                       subject record
package badger

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/mesh-intelligence/facets/internal/scoped"
	"github.com/mesh-intelligence/facets/pkg/types"
)

// dirName is the Badger directory inside the data directory.
const dirName = "badger"

// maxConflictRetries bounds retries of transactions that lose a write race.
const maxConflictRetries = 8

const sep = "\x00"

// Store is a types.Store on BadgerDB.
type Store[D any] struct {
	mu       sync.RWMutex
	attached bool
	db       *badger.DB
	codec    types.Codec[D]
	logger   *slog.Logger
}

var _ types.Store[any] = (*Store[any])(nil)

// NewStore returns a detached store. A nil codec means types.JSONCodec and a
// nil logger discards.
func NewStore[D any](codec types.Codec[D], logger *slog.Logger) *Store[D] {
	if codec == nil {
		codec = types.JSONCodec[D]{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store[D]{codec: codec, logger: logger}
}

// badgerLogger adapts slog.Logger to Badger's Logger interface. Badger's info
// output is reported at debug level.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// Attach opens the database under DataDir, or in memory when
// Badger.InMemory is set.
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

	var opts badger.Options
	if config.Badger.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		dataDir := config.DataDir
		if dataDir == "" {
			dataDir = "."
		}
		path := filepath.Join(dataDir, dirName)
		if err := os.MkdirAll(path, 0o750); err != nil {
			return fmt.Errorf("create database directory %s: %w", path, err)
		}
		opts = badger.DefaultOptions(path)
	}
	opts = opts.
		WithSyncWrites(config.Badger.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(&badgerLogger{logger: s.logger})

	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("open badger database: %w", err)
	}
	s.db = db
	s.attached = true
	s.logger.Info("store attached",
		"backend", types.BackendBadger, "in_memory", config.Badger.InMemory, "data_dir", config.DataDir)
	return nil
}

// Detach closes the database. Idempotent.
func (s *Store[D]) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.attached = false
	if err != nil {
		return fmt.Errorf("close badger database: %w", err)
	}
	s.logger.Info("store detached", "backend", types.BackendBadger)
	return nil
}

// Backend returns owner's facet backend.
func (s *Store[D]) Backend(owner string) (types.Backend[D], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached {
		return nil, types.ErrStoreDetached
	}
	if strings.Contains(owner, sep) {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidOwner, owner)
	}
	b, err := scoped.New(rawFacets[D]{s}, s.codec, owner)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// view runs fn in a read transaction.
func (s *Store[D]) view(fn func(txn *badger.Txn) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached {
		return types.ErrStoreDetached
	}
	return s.db.View(fn)
}

// update runs fn in a read-write transaction, retrying when a concurrent
// transaction wins a conflict.
func (s *Store[D]) update(fn func(txn *badger.Txn) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached {
		return types.ErrStoreDetached
	}
	var err error
	for range maxConflictRetries {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func subjectKey(id string) []byte {
	return []byte("s" + sep + id)
}

func facetKey(owner, facetType, facetID string) []byte {
	return []byte("f" + sep + owner + sep + facetType + sep + facetID)
}

func facetPrefix(owner string) []byte {
	return []byte("f" + sep + owner + sep)
}

func checkPart(part string) error {
	if strings.Contains(part, sep) {
		return fmt.Errorf("%w: %q contains NUL", types.ErrInvalidKey, part)
	}
	return nil
}

// exists reports whether key is present in txn.
func exists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	default:
		return false, err
	}
}

// get copies the value of key out of txn.
func get(txn *badger.Txn, key []byte) ([]byte, bool, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	v, err := item.ValueCopy(nil)
	if err != nil {
		return nil, false, err
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
	return s.update(func(txn *badger.Txn) error {
		return txn.Set(subjectKey(id), raw)
	})
}

func (s *Store[D]) LoadSubject(id string) (D, error) {
	var zero D
	var raw []byte
	var ok bool
	err := s.view(func(txn *badger.Txn) error {
		var err error
		raw, ok, err = get(txn, subjectKey(id))
		return err
	})
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, types.ErrSubjectNotFound
	}
	return s.codec.Decode(raw)
}

func (s *Store[D]) Subjects() ([]string, error) {
	prefix := subjectKey("")
	ids := []string{}
	err := s.view(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			ids = append(ids, string(bytes.TrimPrefix(it.Item().Key(), prefix)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// rawFacets exposes the facet keyspace to scoped.Backend.
type rawFacets[D any] struct {
	s *Store[D]
}

func (r rawFacets[D]) Has(owner, facetType, facetID string) (found bool, err error) {
	err = r.s.view(func(txn *badger.Txn) error {
		found, err = exists(txn, facetKey(owner, facetType, facetID))
		return err
	})
	return found, err
}

func (r rawFacets[D]) Get(owner, facetType, facetID string) (raw []byte, found bool, err error) {
	err = r.s.view(func(txn *badger.Txn) error {
		raw, found, err = get(txn, facetKey(owner, facetType, facetID))
		return err
	})
	return raw, found, err
}

// Insert writes raw unless the key exists. Badger aborts one of two racing
// inserts with ErrConflict; the retry then finds the key.
func (r rawFacets[D]) Insert(owner, facetType, facetID string, raw []byte) (inserted bool, err error) {
	if err := errors.Join(checkPart(facetType), checkPart(facetID)); err != nil {
		return false, err
	}
	key := facetKey(owner, facetType, facetID)
	err = r.s.update(func(txn *badger.Txn) error {
		found, err := exists(txn, key)
		if err != nil {
			return err
		}
		inserted = !found
		if found {
			return nil
		}
		return txn.Set(key, raw)
	})
	return inserted, err
}

func (r rawFacets[D]) Update(owner, facetType, facetID string, raw []byte) (updated bool, err error) {
	key := facetKey(owner, facetType, facetID)
	err = r.s.update(func(txn *badger.Txn) error {
		found, err := exists(txn, key)
		if err != nil {
			return err
		}
		updated = found
		if !found {
			return nil
		}
		return txn.Set(key, raw)
	})
	return updated, err
}

func (r rawFacets[D]) Delete(owner, facetType, facetID string) (removed bool, err error) {
	key := facetKey(owner, facetType, facetID)
	err = r.s.update(func(txn *badger.Txn) error {
		found, err := exists(txn, key)
		if err != nil {
			return err
		}
		removed = found
		if !found {
			return nil
		}
		return txn.Delete(key)
	})
	return removed, err
}

// Keys lists owner's facets. Badger iterates in byte order; NUL sorts below
// every other byte, so that is type then identifier order.
func (r rawFacets[D]) Keys(owner string) ([]types.Key, error) {
	prefix := facetPrefix(owner)
	var keys []types.Key
	err := r.s.view(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			rest := string(bytes.TrimPrefix(it.Item().Key(), prefix))
			facetType, facetID, ok := strings.Cut(rest, sep)
			if !ok {
				continue
			}
			keys = append(keys, types.NewKey(facetType, facetID))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}
