package facet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/facets/pkg/types"
)

func TestMode_String(t *testing.T) {
	assert.Equal(t, "setup", SetupMode.String())
	assert.Equal(t, "operational", OperationalMode.String())
	assert.Equal(t, "Mode(7)", Mode(7).String())
}

func TestSetupView(t *testing.T) {
	initial := doc{"number": "ABCDEF"}
	v := newSetupView(driverCap, initial)

	assert.Equal(t, SetupMode, v.Mode())
	assert.Same(t, driverCap, v.Capability())
	assert.Equal(t, "", v.Key().FacetID)

	t.Run("serves initial data", func(t *testing.T) {
		d, err := v.FacetData()
		require.NoError(t, err)
		assert.Equal(t, initial, d)
	})

	t.Run("runs defaults", func(t *testing.T) {
		got, err := Call[string](v, "LicenceNumber")
		require.NoError(t, err)
		assert.Equal(t, "ABCDEF", got)
	})

	t.Run("refuses forwards", func(t *testing.T) {
		_, err := v.Invoke("Name")
		assert.ErrorIs(t, err, types.ErrUnsupportedInvocation)
	})

	t.Run("refuses defaults that reach forwards", func(t *testing.T) {
		_, err := v.Invoke("Driving")
		assert.ErrorIs(t, err, types.ErrUnsupportedInvocation)
	})

	t.Run("refuses store", func(t *testing.T) {
		assert.ErrorIs(t, v.StoreFacetData(doc{}), types.ErrUnsupportedInvocation)
	})

	t.Run("unique identity is the name", func(t *testing.T) {
		id, err := v.FacetIdentifier()
		require.NoError(t, err)
		assert.Equal(t, "test.Driver", id)
	})
}

func TestSetupView_Identity(t *testing.T) {
	t.Run("computed from data", func(t *testing.T) {
		id, err := newSetupView(teamCap, doc{"team": "red"}).FacetIdentifier()
		require.NoError(t, err)
		assert.Equal(t, "red", id)
	})

	t.Run("empty computed id", func(t *testing.T) {
		_, err := newSetupView(teamCap, doc{}).FacetIdentifier()
		assert.ErrorIs(t, err, types.ErrInvalidKey)
	})

	t.Run("identity error is wrapped", func(t *testing.T) {
		c := General[doc]("x").Identify(func(*View[doc]) (string, error) { return "", errBoom }).MustBuild()
		_, err := newSetupView(c, doc{}).FacetIdentifier()
		assert.ErrorIs(t, err, errBoom)
	})

	t.Run("no default", func(t *testing.T) {
		c := General[doc]("x").MustBuild()
		_, err := newSetupView(c, doc{}).FacetIdentifier()
		assert.ErrorIs(t, err, types.ErrUnsupportedInvocation)
	})
}

func TestOperationalView(t *testing.T) {
	b := newMemBackend()
	p := &person{name: "John"}
	f := New[doc](p, b)

	_, err := f.AddFacet(driverCap, licence("ABCDEF"))
	require.NoError(t, err)
	v, err := f.GetFacet(driverCap)
	require.NoError(t, err)

	assert.Equal(t, OperationalMode, v.Mode())
	assert.Equal(t, types.UniqueKey("test.Driver"), v.Key())
	assert.Equal(t, `View{Key{type="test.Driver", unique}, operational}`, v.String())

	t.Run("reserved operations through Invoke", func(t *testing.T) {
		d, err := v.Invoke(OpFacetData)
		require.NoError(t, err)
		assert.Equal(t, doc{"number": "ABCDEF"}, d)

		id, err := v.Invoke(OpFacetIdentifier)
		require.NoError(t, err)
		assert.Equal(t, "test.Driver", id)
	})

	t.Run("undeclared operation", func(t *testing.T) {
		_, err := v.Invoke("Fly")
		assert.ErrorIs(t, err, types.ErrUnsupportedInvocation)
	})

	t.Run("default reaching a forward", func(t *testing.T) {
		got, err := Call[string](v, "Driving")
		require.NoError(t, err)
		assert.Equal(t, "John drives with ABCDEF", got)
	})

	t.Run("store replaces data", func(t *testing.T) {
		require.NoError(t, v.StoreFacetData(doc{"number": "XYZ"}))
		got, err := Call[string](v, "LicenceNumber")
		require.NoError(t, err)
		assert.Equal(t, "XYZ", got)
	})

	t.Run("missing data", func(t *testing.T) {
		delete(b.data, types.UniqueKey("test.Driver"))
		_, err := v.FacetData()
		assert.ErrorIs(t, err, types.ErrMissingFacetData)
		_, err = v.Invoke("LicenceNumber")
		assert.ErrorIs(t, err, types.ErrMissingFacetData)
	})
}

func TestOperationalView_IdentityIsBoundKey(t *testing.T) {
	f := New[doc](&person{}, newMemBackend())
	_, err := f.AddFacet(teamCap, membership("red", "goal"))
	require.NoError(t, err)

	v, err := f.GetFacetByID(teamCap, "red")
	require.NoError(t, err)
	d, err := v.FacetData()
	require.NoError(t, err)
	d["team"] = "blue"

	id, err := v.FacetIdentifier()
	require.NoError(t, err)
	assert.Equal(t, "red", id)
}

func TestOperationalView_StoreNeedsUpdater(t *testing.T) {
	f := New[doc](&person{}, coreBackend{newMemBackend()})
	v, err := f.AddFacet(driverCap, licence("A"))
	require.NoError(t, err)
	assert.ErrorIs(t, v.StoreFacetData(doc{}), types.ErrNotSupported)
}

func TestViews_Equivalent(t *testing.T) {
	b := newMemBackend()
	p := &person{name: "John"}
	f := New[doc](p, b, WithoutCache())
	_, err := f.AddFacet(driverCap, licence("ABCDEF"))
	require.NoError(t, err)

	v1, err := f.GetFacet(driverCap)
	require.NoError(t, err)
	v2, err := f.GetFacet(driverCap)
	require.NoError(t, err)
	assert.NotSame(t, v1, v2)

	require.NoError(t, Do(v1, "SetLicenceNumber", "CHANGED"))
	got, err := Call[string](v2, "LicenceNumber")
	require.NoError(t, err)
	assert.Equal(t, "CHANGED", got)
}

func TestInvoke_SetupFacet(t *testing.T) {
	tagged := Unique[doc]("test.Tagged").Setup(func(initial doc) (doc, error) {
		out := doc{"tagged": true}
		for k, v := range initial {
			out[k] = v
		}
		return out, nil
	}).MustBuild()
	require.True(t, tagged.Declares(OpSetupFacet))

	t.Run("setup view over its data", func(t *testing.T) {
		got, err := newSetupView(tagged, doc{"n": 1}).Invoke(OpSetupFacet)
		require.NoError(t, err)
		assert.Equal(t, doc{"n": 1, "tagged": true}, got)
	})

	t.Run("explicit argument", func(t *testing.T) {
		got, err := Call[doc](newSetupView(tagged, doc{}), OpSetupFacet, doc{"n": 2})
		require.NoError(t, err)
		assert.Equal(t, doc{"n": 2, "tagged": true}, got)
	})

	t.Run("argument of the wrong type", func(t *testing.T) {
		_, err := newSetupView(tagged, doc{}).Invoke(OpSetupFacet, "x")
		assert.ErrorIs(t, err, types.ErrInvalidArgument)
	})

	t.Run("operational view does not store the result", func(t *testing.T) {
		b := newMemBackend()
		f := New[doc](&person{name: "John"}, b)
		_, err := f.AddFacet(driverCap, licence("ABCDEF"))
		require.NoError(t, err)
		v, err := f.GetFacet(driverCap)
		require.NoError(t, err)

		got, err := v.Invoke(OpSetupFacet)
		require.NoError(t, err)
		assert.Equal(t, doc{"number": "ABCDEF"}, got, "no setup means identity")

		delete(b.data, types.UniqueKey("test.Driver"))
		_, err = v.Invoke(OpSetupFacet)
		assert.ErrorIs(t, err, types.ErrMissingFacetData)
	})

	t.Run("setup error", func(t *testing.T) {
		failing := Unique[doc]("test.Failing").Setup(func(doc) (doc, error) { return nil, errBoom }).MustBuild()
		_, err := newSetupView(failing, doc{}).Invoke(OpSetupFacet)
		assert.ErrorIs(t, err, errBoom)
	})
}
