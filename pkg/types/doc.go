// Package types defines the facet identity key, the Backend and Store
// contracts, configuration, and the standard errors shared by the facet
// engine and its storage backends.
package types
