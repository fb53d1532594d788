package document

import (
	"fmt"
	"sort"

	"github.com/mesh-intelligence/facets/pkg/types"
)

// FacetsNode is the root field under which a Backend keeps facet data, laid
// out as {FacetsNode: {facetType: {facetID: data}}}.
const FacetsNode = "$facets$"

// Backend stores facets inside a base object's document. Facet data is held
// by reference: GetFacetData returns the live document, so in-place changes
// are stored immediately.
//
// Backend is not safe for concurrent writes and has no atomic insert; the
// facet container serializes attaches on top of it.
type Backend struct {
	root Document
}

// NewBackend returns a backend over root. A nil root starts a new document.
func NewBackend(root Document) *Backend {
	if root == nil {
		root = Document{}
	}
	return &Backend{root: root}
}

var (
	_ types.Backend[Document] = (*Backend)(nil)
	_ types.Updater[Document] = (*Backend)(nil)
	_ types.Remover           = (*Backend)(nil)
	_ types.Lister            = (*Backend)(nil)
)

// Root returns the whole document, facets included.
func (b *Backend) Root() Document { return b.root }

// facets returns the FacetsNode object, creating it when create is set.
// Facet types and identifiers are plain map keys, never parsed as paths.
func (b *Backend) facets(create bool) (map[string]any, bool) {
	if m, ok := asObject(b.root[FacetsNode]); ok {
		return m, true
	}
	if !create {
		return nil, false
	}
	m := Document{}
	b.root[FacetsNode] = m
	return m, true
}

// byType returns the object holding facetType's instances.
func (b *Backend) byType(facetType string, create bool) (map[string]any, bool) {
	facets, ok := b.facets(create)
	if !ok {
		return nil, false
	}
	if m, ok := asObject(facets[facetType]); ok {
		return m, true
	}
	if !create {
		return nil, false
	}
	m := Document{}
	facets[facetType] = m
	return m, true
}

// node returns the facet data object for the key.
func (b *Backend) node(facetType, facetID string) (Document, bool) {
	byType, ok := b.byType(facetType, false)
	if !ok {
		return nil, false
	}
	m, ok := asObject(byType[facetID])
	return Document(m), ok
}

// HasFacetData reports whether the key holds an object.
func (b *Backend) HasFacetData(facetType, facetID string) (bool, error) {
	_, ok := b.node(facetType, facetID)
	return ok, nil
}

// GetFacetData returns the live facet document.
func (b *Backend) GetFacetData(facetType, facetID string) (Document, bool, error) {
	d, ok := b.node(facetType, facetID)
	return d, ok, nil
}

// AddFacetData stores data under a new key.
func (b *Backend) AddFacetData(facetType, facetID string, data Document) error {
	if _, ok := b.node(facetType, facetID); ok {
		return fmt.Errorf("%w: %s", types.ErrDuplicateFacet, types.NewKey(facetType, facetID))
	}
	return b.put(facetType, facetID, data)
}

// SetFacetData replaces the data of an existing key.
func (b *Backend) SetFacetData(facetType, facetID string, data Document) error {
	if _, ok := b.node(facetType, facetID); !ok {
		return fmt.Errorf("%w: %s", types.ErrFacetNotFound, types.NewKey(facetType, facetID))
	}
	return b.put(facetType, facetID, data)
}

func (b *Backend) put(facetType, facetID string, data Document) error {
	if data == nil {
		return fmt.Errorf("%w: nil document for %s", types.ErrInvalidData, types.NewKey(facetType, facetID))
	}
	byType, _ := b.byType(facetType, true)
	byType[facetID] = data
	return nil
}

// RemoveFacetData deletes the key, pruning the type node once it is empty.
func (b *Backend) RemoveFacetData(facetType, facetID string) (bool, error) {
	byType, ok := b.byType(facetType, false)
	if !ok {
		return false, nil
	}
	if _, ok := byType[facetID]; !ok {
		return false, nil
	}
	delete(byType, facetID)
	if len(byType) == 0 {
		facets, _ := b.facets(false)
		delete(facets, facetType)
	}
	return true, nil
}

// FacetKeys lists every stored key ordered by type then identifier.
func (b *Backend) FacetKeys() ([]types.Key, error) {
	facets, ok := b.facets(false)
	if !ok {
		return nil, nil
	}
	var keys []types.Key
	for facetType, v := range facets {
		byType, ok := asObject(v)
		if !ok {
			continue
		}
		for facetID := range byType {
			keys = append(keys, types.NewKey(facetType, facetID))
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
