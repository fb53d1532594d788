package types

import "fmt"

// Key identifies one facet instance on one base object: the capability type
// name and the instance identifier. Keys compare by value, so two keys built
// at different times for the same facet are equal and usable as map keys.
type Key struct {
	FacetType string
	FacetID   string
}

// UniqueKey returns the key of a uniqueness-specialized capability, whose
// identifier is the capability type name itself.
func UniqueKey(facetType string) Key {
	return Key{FacetType: facetType, FacetID: facetType}
}

// NewKey returns the key of a general capability instance.
func NewKey(facetType, facetID string) Key {
	return Key{FacetType: facetType, FacetID: facetID}
}

// IsUnique reports whether the key follows the uniqueness convention.
func (k Key) IsUnique() bool {
	return k.FacetType == k.FacetID
}

// Validate returns ErrInvalidKey if either component is empty.
func (k Key) Validate() error {
	if k.FacetType == "" {
		return fmt.Errorf("%w: empty facet type", ErrInvalidKey)
	}
	if k.FacetID == "" {
		return fmt.Errorf("%w: empty facet identifier for %s", ErrInvalidKey, k.FacetType)
	}
	return nil
}

// String renders the key for logs and error messages. Do not parse it or use
// it as a storage key; stores address facets by the two fields directly.
func (k Key) String() string {
	if k.IsUnique() {
		return fmt.Sprintf("Key{type=%q, unique}", k.FacetType)
	}
	return fmt.Sprintf("Key{type=%q, id=%q}", k.FacetType, k.FacetID)
}
