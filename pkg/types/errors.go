package types

import "errors"

// Facet engine errors.
var (
	ErrDuplicateFacet        = errors.New("facet already exists")
	ErrUnsupportedInvocation = errors.New("unsupported capability invocation")
	ErrMissingFacetData      = errors.New("facet data missing from backend")
	ErrFacetNotFound         = errors.New("facet not found")
	ErrInvalidCapability     = errors.New("invalid capability")
	ErrInvalidKey            = errors.New("invalid facet key")
	ErrNotSupported          = errors.New("backend does not support this operation")
	ErrInvalidArgument       = errors.New("invalid operation argument")
)

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
	ErrInvalidOwner    = errors.New("invalid owner ID")
	ErrSubjectNotFound = errors.New("subject not found")
	ErrInvalidData     = errors.New("invalid facet data")
)
