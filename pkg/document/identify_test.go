package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/facets/pkg/facet"
	"github.com/mesh-intelligence/facets/pkg/types"
)

var membership = facet.General[Document]("test.Membership").
	Identify(FieldIdentifier("team", "name")).
	MustBuild()

func TestFieldIdentifier(t *testing.T) {
	b := NewBackend(Document{"name": "John"})
	f := facet.New[Document](nil, b)

	v, err := f.AddFacet(membership, facet.Value(Document{"team": Document{"name": "red"}}))
	require.NoError(t, err)
	assert.Equal(t, types.NewKey("test.Membership", "red"), v.Key())

	_, ok := b.Root().Get(FacetsNode, "test.Membership", "red")
	assert.True(t, ok)

	_, err = f.AddFacet(membership, facet.Value(Document{"team": Document{"name": "red"}}))
	assert.ErrorIs(t, err, types.ErrDuplicateFacet)

	for _, bad := range []Document{{}, {"team": Document{"name": ""}}, {"team": Document{"name": 7}}} {
		_, err = f.AddFacet(membership, facet.Value(bad))
		assert.ErrorIs(t, err, types.ErrInvalidData)
	}
}
