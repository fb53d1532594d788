package facet

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/mesh-intelligence/facets/pkg/types"
)

// Initializer produces the initial data of a facet being attached.
type Initializer[D any] func() (D, error)

// Value returns an Initializer that yields data.
func Value[D any](data D) Initializer[D] {
	return func() (D, error) { return data, nil }
}

// Faceted is the facet container of one base object. Embed a *Faceted in the
// base type and construct it with New, handing it the base object so
// forwarded operations reach the base's own methods.
//
// Reads may run concurrently. Attach and remove are serialized per container
// unless the backend implements types.InsertIfAbsent, in which case attach
// relies on the backend's atomic insert.
type Faceted[D any] struct {
	base    any
	backend types.Backend[D]
	cache   viewCache[D]
	logger  *slog.Logger

	// mu serializes check-then-commit sequences against the backend.
	mu sync.Mutex
}

// New creates the container for base, storing facet data in backend.
func New[D any](base any, backend types.Backend[D], opts ...Option) *Faceted[D] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	f := &Faceted[D]{
		base:    base,
		backend: backend,
		logger:  o.logger,
	}
	switch o.cache {
	case cacheBounded:
		f.cache = newScopedCache[D](o.bounded)
	case cacheNone:
		f.cache = noCache[D]{}
	default:
		f.cache = newWeakCache[D]()
	}
	return f
}

// Base returns the object forwarded operations are served by.
func (f *Faceted[D]) Base() any { return f.base }

// Backend returns the backend holding this container's facet data.
func (f *Faceted[D]) Backend() types.Backend[D] { return f.backend }

// AddFacet attaches a new facet of capability c. The initializer runs first,
// then SetupFacet; the identity is computed on a setup view over the result,
// so it may depend on the data. If the key is already taken AddFacet fails
// with ErrDuplicateFacet and nothing is written. The returned view is not
// cached; GetFacet builds and caches its own.
func (f *Faceted[D]) AddFacet(c *Capability[D], init Initializer[D]) (*View[D], error) {
	return f.addFacet(c, init, "")
}

// AddFacetByID attaches a facet under a caller-chosen identifier, skipping
// identity computation. For unique capabilities id must be the capability
// name.
func (f *Faceted[D]) AddFacetByID(c *Capability[D], id string, init Initializer[D]) (*View[D], error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty facet identifier", types.ErrInvalidKey)
	}
	return f.addFacet(c, init, id)
}

func (f *Faceted[D]) addFacet(c *Capability[D], init Initializer[D], id string) (*View[D], error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil capability", types.ErrInvalidCapability)
	}
	if init == nil {
		return nil, fmt.Errorf("%w: nil initializer for %s", types.ErrInvalidData, c.name)
	}

	initial, err := init()
	if err != nil {
		return nil, fmt.Errorf("initialize %s: %w", c.name, err)
	}
	data, err := c.setupFacet(initial)
	if err != nil {
		return nil, err
	}

	if id == "" {
		id, err = newSetupView(c, data).FacetIdentifier()
		if err != nil {
			return nil, err
		}
	}
	key := types.NewKey(c.name, id)
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if c.unique && !key.IsUnique() {
		return nil, fmt.Errorf("%w: unique capability %s cannot use identifier %q", types.ErrInvalidKey, c.name, id)
	}

	view := newOperationalView(f, c, key)
	if err := f.commit(key, data); err != nil {
		return nil, err
	}
	f.logger.Debug("facet attached", "facet_type", key.FacetType, "facet_id", key.FacetID)
	return view, nil
}

// commit writes the initial data of a new facet, never overwriting.
func (f *Faceted[D]) commit(key types.Key, data D) error {
	if ins, ok := f.backend.(types.InsertIfAbsent[D]); ok {
		inserted, err := ins.InsertFacetData(key.FacetType, key.FacetID, data)
		if err != nil {
			return fmt.Errorf("attach %s: %w", key, err)
		}
		if !inserted {
			return f.duplicate(key)
		}
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	exists, err := f.backend.HasFacetData(key.FacetType, key.FacetID)
	if err != nil {
		return fmt.Errorf("attach %s: %w", key, err)
	}
	if exists {
		return f.duplicate(key)
	}
	if err := f.backend.AddFacetData(key.FacetType, key.FacetID, data); err != nil {
		return fmt.Errorf("attach %s: %w", key, err)
	}
	return nil
}

func (f *Faceted[D]) duplicate(key types.Key) error {
	f.logger.Debug("facet attach rejected", "facet_type", key.FacetType, "facet_id", key.FacetID)
	return fmt.Errorf("%w: %s", types.ErrDuplicateFacet, key)
}

// GetFacet returns the view of the unique capability c. It fails with
// ErrInvalidCapability for general capabilities, which need GetFacetByID.
func (f *Faceted[D]) GetFacet(c *Capability[D]) (*View[D], error) {
	if err := requireUnique(c); err != nil {
		return nil, err
	}
	return f.getFacet(c, types.UniqueKey(c.name))
}

// GetFacetByID returns the view of the facet of c identified by id.
func (f *Faceted[D]) GetFacetByID(c *Capability[D], id string) (*View[D], error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil capability", types.ErrInvalidCapability)
	}
	return f.getFacet(c, types.NewKey(c.name, id))
}

// getFacet serves a cached view when one is alive. Otherwise it checks the
// backend, returning ErrFacetNotFound when there is no data, and builds and
// caches a new view.
func (f *Faceted[D]) getFacet(c *Capability[D], key types.Key) (*View[D], error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if v, ok := f.cache.get(key); ok {
		return v, nil
	}

	exists, err := f.backend.HasFacetData(key.FacetType, key.FacetID)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", key, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", types.ErrFacetNotFound, key)
	}

	v := newOperationalView(f, c, key)
	f.cache.put(key, v)
	f.logger.Debug("facet view built", "facet_type", key.FacetType, "facet_id", key.FacetID)
	return v, nil
}

// HasFacet reports whether the unique capability c is attached.
func (f *Faceted[D]) HasFacet(c *Capability[D]) (bool, error) {
	if err := requireUnique(c); err != nil {
		return false, err
	}
	return f.hasFacet(types.UniqueKey(c.name))
}

// HasFacetByID reports whether the facet of c identified by id is attached.
func (f *Faceted[D]) HasFacetByID(c *Capability[D], id string) (bool, error) {
	if c == nil {
		return false, fmt.Errorf("%w: nil capability", types.ErrInvalidCapability)
	}
	return f.hasFacet(types.NewKey(c.name, id))
}

// hasFacet answers from a live cache entry when there is one, otherwise from
// the backend.
func (f *Faceted[D]) hasFacet(key types.Key) (bool, error) {
	if _, ok := f.cache.get(key); ok {
		return true, nil
	}
	exists, err := f.backend.HasFacetData(key.FacetType, key.FacetID)
	if err != nil {
		return false, fmt.Errorf("check %s: %w", key, err)
	}
	return exists, nil
}

// RemoveFacet detaches the unique capability c and reports whether it was
// attached. The backend must implement types.Remover.
func (f *Faceted[D]) RemoveFacet(c *Capability[D]) (bool, error) {
	if err := requireUnique(c); err != nil {
		return false, err
	}
	return f.removeFacet(types.UniqueKey(c.name))
}

// RemoveFacetByID detaches the facet of c identified by id.
func (f *Faceted[D]) RemoveFacetByID(c *Capability[D], id string) (bool, error) {
	if c == nil {
		return false, fmt.Errorf("%w: nil capability", types.ErrInvalidCapability)
	}
	return f.removeFacet(types.NewKey(c.name, id))
}

func (f *Faceted[D]) removeFacet(key types.Key) (bool, error) {
	r, ok := f.backend.(types.Remover)
	if !ok {
		return false, fmt.Errorf("%w: remove %s", types.ErrNotSupported, key)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	removed, err := r.RemoveFacetData(key.FacetType, key.FacetID)
	f.cache.remove(key)
	if err != nil {
		return false, fmt.Errorf("remove %s: %w", key, err)
	}
	if removed {
		f.logger.Debug("facet removed", "facet_type", key.FacetType, "facet_id", key.FacetID)
	}
	return removed, nil
}

// Facets lists the keys of every attached facet. The backend must implement
// types.Lister.
func (f *Faceted[D]) Facets() ([]types.Key, error) {
	l, ok := f.backend.(types.Lister)
	if !ok {
		return nil, fmt.Errorf("%w: list facets", types.ErrNotSupported)
	}
	keys, err := l.FacetKeys()
	if err != nil {
		return nil, fmt.Errorf("list facets: %w", err)
	}
	return keys, nil
}

func requireUnique[D any](c *Capability[D]) error {
	if c == nil {
		return fmt.Errorf("%w: nil capability", types.ErrInvalidCapability)
	}
	if !c.unique {
		return fmt.Errorf("%w: %s is not unique; address it by identifier", types.ErrInvalidCapability, c.name)
	}
	return nil
}
