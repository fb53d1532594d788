// Package scoped adapts a multi-subject raw store to the per-subject
// types.Backend the facet container works with.
package scoped

import (
	"fmt"

	"github.com/mesh-intelligence/facets/pkg/types"
)

// Facets is the owner-addressed byte storage a store exposes. Insert must be
// atomic.
type Facets interface {
	Has(owner, facetType, facetID string) (bool, error)
	Get(owner, facetType, facetID string) ([]byte, bool, error)
	Insert(owner, facetType, facetID string, raw []byte) (bool, error)
	Update(owner, facetType, facetID string, raw []byte) (bool, error)
	Delete(owner, facetType, facetID string) (bool, error)
	Keys(owner string) ([]types.Key, error)
}

// Backend is the view of one subject's facets inside a store.
type Backend[D any] struct {
	raw   Facets
	codec types.Codec[D]
	owner string
}

var (
	_ types.Backend[any]        = (*Backend[any])(nil)
	_ types.InsertIfAbsent[any] = (*Backend[any])(nil)
	_ types.Updater[any]        = (*Backend[any])(nil)
	_ types.Remover             = (*Backend[any])(nil)
	_ types.Lister              = (*Backend[any])(nil)
)

// New returns the backend of owner's facets.
// Returns ErrInvalidOwner if owner is empty.
func New[D any](raw Facets, codec types.Codec[D], owner string) (*Backend[D], error) {
	if owner == "" {
		return nil, types.ErrInvalidOwner
	}
	if codec == nil {
		codec = types.JSONCodec[D]{}
	}
	return &Backend[D]{raw: raw, codec: codec, owner: owner}, nil
}

// Owner returns the subject the backend is scoped to.
func (b *Backend[D]) Owner() string { return b.owner }

func (b *Backend[D]) HasFacetData(facetType, facetID string) (bool, error) {
	return b.raw.Has(b.owner, facetType, facetID)
}

// GetFacetData decodes a fresh copy of the stored data. Changes to it are
// kept only through SetFacetData.
func (b *Backend[D]) GetFacetData(facetType, facetID string) (D, bool, error) {
	var zero D
	raw, ok, err := b.raw.Get(b.owner, facetType, facetID)
	if err != nil || !ok {
		return zero, ok, err
	}
	data, err := b.codec.Decode(raw)
	if err != nil {
		return zero, false, fmt.Errorf("decode %s: %w", types.NewKey(facetType, facetID), err)
	}
	return data, true, nil
}

func (b *Backend[D]) AddFacetData(facetType, facetID string, data D) error {
	inserted, err := b.InsertFacetData(facetType, facetID, data)
	if err != nil {
		return err
	}
	if !inserted {
		return fmt.Errorf("%w: %s", types.ErrDuplicateFacet, types.NewKey(facetType, facetID))
	}
	return nil
}

func (b *Backend[D]) InsertFacetData(facetType, facetID string, data D) (bool, error) {
	raw, err := b.codec.Encode(data)
	if err != nil {
		return false, err
	}
	return b.raw.Insert(b.owner, facetType, facetID, raw)
}

func (b *Backend[D]) SetFacetData(facetType, facetID string, data D) error {
	raw, err := b.codec.Encode(data)
	if err != nil {
		return err
	}
	updated, err := b.raw.Update(b.owner, facetType, facetID, raw)
	if err != nil {
		return err
	}
	if !updated {
		return fmt.Errorf("%w: %s", types.ErrFacetNotFound, types.NewKey(facetType, facetID))
	}
	return nil
}

func (b *Backend[D]) RemoveFacetData(facetType, facetID string) (bool, error) {
	return b.raw.Delete(b.owner, facetType, facetID)
}

func (b *Backend[D]) FacetKeys() ([]types.Key, error) {
	return b.raw.Keys(b.owner)
}
