// Package memory implements an in-process store. Values are held encoded, so
// readers never share state with writers and nothing outlives the process.
package memory

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/mesh-intelligence/facets/internal/scoped"
	"github.com/mesh-intelligence/facets/pkg/types"
)

type facetKey struct {
	owner     string
	facetType string
	facetID   string
}

// Store is a types.Store kept in maps.
type Store[D any] struct {
	mu       sync.RWMutex
	attached bool
	codec    types.Codec[D]
	logger   *slog.Logger
	facets   map[facetKey][]byte
	subjects map[string][]byte
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

// Attach starts an empty store. Only Backend and Cache in config matter.
func (s *Store[D]) Attach(config types.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	s.facets = make(map[facetKey][]byte)
	s.subjects = make(map[string][]byte)
	s.attached = true
	s.logger.Info("store attached", "backend", types.BackendMemory)
	return nil
}

// Detach drops all data. Idempotent.
func (s *Store[D]) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return nil
	}
	s.facets, s.subjects = nil, nil
	s.attached = false
	s.logger.Info("store detached", "backend", types.BackendMemory)
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

func (s *Store[D]) SaveSubject(id string, attrs D) error {
	if id == "" {
		return types.ErrInvalidOwner
	}
	raw, err := s.codec.Encode(attrs)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return types.ErrStoreDetached
	}
	s.subjects[id] = raw
	return nil
}

func (s *Store[D]) LoadSubject(id string) (D, error) {
	var zero D
	s.mu.RLock()
	raw, ok := s.subjects[id]
	attached := s.attached
	s.mu.RUnlock()
	if !attached {
		return zero, types.ErrStoreDetached
	}
	if !ok {
		return zero, types.ErrSubjectNotFound
	}
	return s.codec.Decode(raw)
}

func (s *Store[D]) Subjects() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached {
		return nil, types.ErrStoreDetached
	}
	ids := make([]string, 0, len(s.subjects))
	for id := range s.subjects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// rawFacets exposes the facet map to scoped.Backend.
type rawFacets[D any] struct {
	s *Store[D]
}

func (r rawFacets[D]) Has(owner, facetType, facetID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if !r.s.attached {
		return false, types.ErrStoreDetached
	}
	_, ok := r.s.facets[facetKey{owner, facetType, facetID}]
	return ok, nil
}

func (r rawFacets[D]) Get(owner, facetType, facetID string) ([]byte, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if !r.s.attached {
		return nil, false, types.ErrStoreDetached
	}
	raw, ok := r.s.facets[facetKey{owner, facetType, facetID}]
	return raw, ok, nil
}

func (r rawFacets[D]) Insert(owner, facetType, facetID string, raw []byte) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.attached {
		return false, types.ErrStoreDetached
	}
	k := facetKey{owner, facetType, facetID}
	if _, ok := r.s.facets[k]; ok {
		return false, nil
	}
	r.s.facets[k] = raw
	return true, nil
}

func (r rawFacets[D]) Update(owner, facetType, facetID string, raw []byte) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.attached {
		return false, types.ErrStoreDetached
	}
	k := facetKey{owner, facetType, facetID}
	if _, ok := r.s.facets[k]; !ok {
		return false, nil
	}
	r.s.facets[k] = raw
	return true, nil
}

func (r rawFacets[D]) Delete(owner, facetType, facetID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.attached {
		return false, types.ErrStoreDetached
	}
	k := facetKey{owner, facetType, facetID}
	_, ok := r.s.facets[k]
	delete(r.s.facets, k)
	return ok, nil
}

func (r rawFacets[D]) Keys(owner string) ([]types.Key, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if !r.s.attached {
		return nil, types.ErrStoreDetached
	}
	var keys []types.Key
	for k := range r.s.facets {
		if k.owner == owner {
			keys = append(keys, types.NewKey(k.facetType, k.facetID))
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].FacetType != keys[j].FacetType {
			return keys[i].FacetType < keys[j].FacetType
		}
		return keys[i].FacetID < keys[j].FacetID
	})
	return keys, nil
}
