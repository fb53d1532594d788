package facet

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/facets/pkg/types"
)

func TestWeakCache_KeepsLiveViews(t *testing.T) {
	f := New[doc](&person{}, newMemBackend())
	_, err := f.AddFacet(driverCap, licence("A"))
	require.NoError(t, err)

	v1, err := f.GetFacet(driverCap)
	require.NoError(t, err)
	runtime.GC()
	v2, err := f.GetFacet(driverCap)
	require.NoError(t, err)

	assert.Same(t, v1, v2)
	runtime.KeepAlive(v1)
}

func TestWeakCache_DropsCollectedViews(t *testing.T) {
	c := newWeakCache[doc]()
	key := types.UniqueKey("test.Driver")

	func() {
		c.put(key, newSetupView(driverCap, doc{}))
	}()

	assert.Eventually(t, func() bool {
		runtime.GC()
		c.mu.Lock()
		defer c.mu.Unlock()
		return len(c.entries) == 0
	}, 2*time.Second, 10*time.Millisecond)

	_, ok := c.get(key)
	assert.False(t, ok)
}

func TestWeakCache_Remove(t *testing.T) {
	c := newWeakCache[doc]()
	key := types.UniqueKey("test.Driver")
	v := newSetupView(driverCap, doc{})
	c.put(key, v)

	got, ok := c.get(key)
	require.True(t, ok)
	assert.Same(t, v, got)

	c.remove(key)
	_, ok = c.get(key)
	assert.False(t, ok)
	runtime.KeepAlive(v)
}

func TestNoCache(t *testing.T) {
	f := New[doc](&person{}, newMemBackend(), WithoutCache())
	_, err := f.AddFacet(driverCap, licence("A"))
	require.NoError(t, err)

	v1, err := f.GetFacet(driverCap)
	require.NoError(t, err)
	v2, err := f.GetFacet(driverCap)
	require.NoError(t, err)
	assert.NotSame(t, v1, v2)
}

func TestBoundedCache(t *testing.T) {
	_, err := NewBoundedCache(0)
	assert.ErrorIs(t, err, types.ErrCacheCapacityInvalid)

	shared, err := NewBoundedCache(16)
	require.NoError(t, err)
	defer shared.Close()

	a := New[doc](&person{name: "Ann"}, newMemBackend(), WithBoundedCache(shared))
	b := New[doc](&person{name: "Bob"}, newMemBackend(), WithBoundedCache(shared))
	for _, f := range []*Faceted[doc]{a, b} {
		_, err := f.AddFacet(driverCap, licence("A"))
		require.NoError(t, err)
	}

	va, err := a.GetFacet(driverCap)
	require.NoError(t, err)
	vb, err := b.GetFacet(driverCap)
	require.NoError(t, err)
	shared.Wait()

	got, err := a.GetFacet(driverCap)
	require.NoError(t, err)
	assert.Same(t, va, got)

	got, err = b.GetFacet(driverCap)
	require.NoError(t, err)
	assert.Same(t, vb, got, "containers sharing a cache must not see each other's views")

	name, err := Call[string](got, "Name")
	require.NoError(t, err)
	assert.Equal(t, "Bob", name)
}

func TestBoundedCache_Remove(t *testing.T) {
	shared, err := NewBoundedCache(16)
	require.NoError(t, err)
	defer shared.Close()

	c := newScopedCache[doc](shared)
	key := types.NewKey("test.Team", "red")
	c.put(key, newSetupView(teamCap, doc{}))
	shared.Wait()

	_, ok := c.get(key)
	require.True(t, ok)

	c.remove(key)
	shared.Wait()
	_, ok = c.get(key)
	assert.False(t, ok)
}

func TestCacheOption(t *testing.T) {
	tests := []struct {
		name    string
		cfg     types.CacheConfig
		wantErr error
	}{
		{"default weak", types.CacheConfig{}, nil},
		{"none", types.CacheConfig{Strategy: types.CacheNone}, nil},
		{"bounded", types.CacheConfig{Strategy: types.CacheBounded, Capacity: 8}, nil},
		{"unknown", types.CacheConfig{Strategy: "lru"}, types.ErrCacheStrategyUnknown},
		{"negative capacity", types.CacheConfig{Strategy: types.CacheBounded, Capacity: -1}, types.ErrCacheCapacityInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt, closeFn, err := CacheOption(tt.cfg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer closeFn()

			o := defaultOptions()
			opt(&o)
			switch tt.cfg.GetStrategy() {
			case types.CacheNone:
				assert.Equal(t, cacheNone, o.cache)
			case types.CacheBounded:
				assert.Equal(t, cacheBounded, o.cache)
				assert.NotNil(t, o.bounded)
			default:
				assert.Equal(t, cacheWeak, o.cache)
			}
		})
	}
}
