package document

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/facets/pkg/facet"
	"github.com/mesh-intelligence/facets/pkg/types"
)

// FieldIdentifier returns an identity function for facet.Builder.Identify
// that reads the facet identifier from a string field of the facet's data.
func FieldIdentifier(path ...string) func(v *facet.View[Document]) (string, error) {
	return func(v *facet.View[Document]) (string, error) {
		data, err := v.FacetData()
		if err != nil {
			return "", err
		}
		id, ok := data.GetString(path...)
		if !ok || id == "" {
			return "", fmt.Errorf("%w: no identifier at %s", types.ErrInvalidData, strings.Join(path, "."))
		}
		return id, nil
	}
}
