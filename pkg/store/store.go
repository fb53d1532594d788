// Package store creates types.Store implementations by backend name while
// keeping the implementations internal.
//
//	s, err := store.Open[document.Document](types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".facets-db",
//	}, nil, logger)
//	defer s.Detach()
package store

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/facets/internal/badger"
	"github.com/mesh-intelligence/facets/internal/memory"
	"github.com/mesh-intelligence/facets/internal/sqlite"
	"github.com/mesh-intelligence/facets/pkg/types"
)

// New returns a detached store for the named backend. A nil codec means
// types.JSONCodec; a nil logger discards.
func New[D any](backend string, codec types.Codec[D], logger *slog.Logger) (types.Store[D], error) {
	switch backend {
	case types.BackendMemory:
		return memory.NewStore(codec, logger), nil
	case types.BackendSQLite:
		return sqlite.NewStore(codec, logger), nil
	case types.BackendBadger:
		return badger.NewStore(codec, logger), nil
	case "":
		return nil, types.ErrBackendEmpty
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrBackendUnknown, backend)
	}
}

// Open creates the store named by cfg.Backend and attaches it.
func Open[D any](cfg types.Config, codec types.Codec[D], logger *slog.Logger) (types.Store[D], error) {
	s, err := New(cfg.Backend, codec, logger)
	if err != nil {
		return nil, err
	}
	if err := s.Attach(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// NewSubjectID returns a time-ordered identifier for a new subject.
func NewSubjectID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fall back to a random UUID if v7 generation fails.
		return uuid.New().String()
	}
	return id.String()
}
