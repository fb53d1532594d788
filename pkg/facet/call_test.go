package facet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/facets/pkg/types"
)

type named struct{}

type generic[T any] struct{ v T }

type iface interface{ M() }

func TestNameOf(t *testing.T) {
	const pkg = "github.com/mesh-intelligence/facets/pkg/facet"

	assert.Equal(t, pkg+".named", NameOf[named]())
	assert.Equal(t, pkg+".named", NameOf[*named](), "pointers unwrap")
	assert.Equal(t, pkg+".generic", NameOf[generic[int]](), "instantiation is stripped")
	assert.Equal(t, pkg+".iface", NameOf[iface]())
	assert.Equal(t, "[]string", NameOf[[]string]())
	assert.Equal(t, NameOf[named](), NameOf[named](), "memoized result is stable")
}

func TestShortName(t *testing.T) {
	assert.Equal(t, "facet.named", ShortName(NameOf[named]()))
	assert.Equal(t, "plain", ShortName("plain"))
}

func TestArg(t *testing.T) {
	args := []any{"x", 2}

	s, err := Arg[string](args, 0)
	require.NoError(t, err)
	assert.Equal(t, "x", s)

	n, err := Arg[int](args, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = Arg[int](args, 0)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
	_, err = Arg[string](args, 5)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
	_, err = Arg[string](args, -1)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}
