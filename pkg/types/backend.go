package types

// Backend is the durable home of facet data for one base object. Entries are
// keyed by (facet type, facet identifier).
type Backend[D any] interface {
	// HasFacetData reports whether data exists for the key.
	HasFacetData(facetType, facetID string) (bool, error)

	// GetFacetData returns the data stored for the key. The boolean is false
	// when no entry exists.
	GetFacetData(facetType, facetID string) (D, bool, error)

	// AddFacetData stores data under a new key. It returns ErrDuplicateFacet
	// rather than overwriting an existing entry.
	AddFacetData(facetType, facetID string, data D) error
}

// InsertIfAbsent is implemented by backends that can insert atomically. The
// container uses it instead of its own check-then-commit locking.
type InsertIfAbsent[D any] interface {
	// InsertFacetData stores data when the key is free and reports whether
	// the insert happened. An occupied key is not an error.
	InsertFacetData(facetType, facetID string, data D) (bool, error)
}

// Updater is implemented by backends that can replace existing facet data.
// Concurrent updates are last-writer-wins.
type Updater[D any] interface {
	// SetFacetData replaces the data of an existing key. Returns
	// ErrFacetNotFound if the key has no entry.
	SetFacetData(facetType, facetID string, data D) error
}

// Remover is implemented by backends that can drop a facet.
type Remover interface {
	// RemoveFacetData deletes the entry and reports whether one existed.
	RemoveFacetData(facetType, facetID string) (bool, error)
}

// Lister is implemented by backends that can enumerate their keys.
type Lister interface {
	// FacetKeys returns every stored key, ordered by type then identifier.
	FacetKeys() ([]Key, error)
}
