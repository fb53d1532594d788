package facet

import (
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"weak"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/mesh-intelligence/facets/pkg/types"
)

// viewCache holds operational views by key. Implementations may drop entries
// at any time; a miss only costs a rebuild.
type viewCache[D any] interface {
	get(key types.Key) (*View[D], bool)
	put(key types.Key, v *View[D])
	remove(key types.Key)
}

// weakEntry is the cleanup argument of a weakly cached view.
type weakEntry[D any] struct {
	key types.Key
	ptr weak.Pointer[View[D]]
}

// weakCache keeps views only while something else references them. Entries
// are deleted by a runtime cleanup once their view is collected.
type weakCache[D any] struct {
	mu      sync.Mutex
	entries map[types.Key]weak.Pointer[View[D]]
}

func newWeakCache[D any]() *weakCache[D] {
	return &weakCache[D]{entries: make(map[types.Key]weak.Pointer[View[D]])}
}

func (c *weakCache[D]) get(key types.Key) (*View[D], bool) {
	c.mu.Lock()
	wp, ok := c.entries[key]
	c.mu.Unlock()
	if !ok {
		return nil, false
	}
	v := wp.Value()
	return v, v != nil
}

func (c *weakCache[D]) put(key types.Key, v *View[D]) {
	wp := weak.Make(v)
	c.mu.Lock()
	c.entries[key] = wp
	c.mu.Unlock()
	runtime.AddCleanup(v, c.evict, weakEntry[D]{key: key, ptr: wp})
}

func (c *weakCache[D]) remove(key types.Key) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// evict drops the entry of a collected view unless it was replaced since.
func (c *weakCache[D]) evict(e weakEntry[D]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.entries[e.key]; ok && cur == e.ptr {
		delete(c.entries, e.key)
	}
}

// noCache never retains a view.
type noCache[D any] struct{}

func (noCache[D]) get(types.Key) (*View[D], bool) { return nil, false }
func (noCache[D]) put(types.Key, *View[D])        {}
func (noCache[D]) remove(types.Key)               {}

// BoundedCache is a size-bounded view cache that many containers can share,
// whatever their data type. Admission and eviction follow ristretto's
// TinyLFU policy, so a Put may be dropped.
type BoundedCache struct {
	cache *ristretto.Cache[string, any]
}

// NewBoundedCache returns a cache that retains about capacity views.
func NewBoundedCache(capacity int64) (*BoundedCache, error) {
	if capacity <= 0 {
		return nil, types.ErrCacheCapacityInvalid
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, any]{
		NumCounters: capacity * 10,
		MaxCost:     capacity,
		BufferItems: 64,
		// Cost counts views, not bytes.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create view cache: %w", err)
	}
	return &BoundedCache{cache: c}, nil
}

// Wait blocks until buffered writes are applied.
func (b *BoundedCache) Wait() { b.cache.Wait() }

// Close stops the cache's background goroutines. Containers using it fall
// back to rebuilding every view.
func (b *BoundedCache) Close() { b.cache.Close() }

// scopes hands out container scopes so keys of different containers never
// collide inside a shared BoundedCache.
var scopes atomic.Uint64

// scopedCache is one container's window onto a BoundedCache.
type scopedCache[D any] struct {
	shared *BoundedCache
	prefix string
}

func newScopedCache[D any](shared *BoundedCache) *scopedCache[D] {
	return &scopedCache[D]{
		shared: shared,
		prefix: strconv.FormatUint(scopes.Add(1), 36) + "\x00",
	}
}

func (c *scopedCache[D]) id(key types.Key) string {
	return c.prefix + key.FacetType + "\x00" + key.FacetID
}

func (c *scopedCache[D]) get(key types.Key) (*View[D], bool) {
	val, ok := c.shared.cache.Get(c.id(key))
	if !ok {
		return nil, false
	}
	v, ok := val.(*View[D])
	return v, ok
}

func (c *scopedCache[D]) put(key types.Key, v *View[D]) {
	c.shared.cache.Set(c.id(key), v, 1)
}

func (c *scopedCache[D]) remove(key types.Key) {
	c.shared.cache.Del(c.id(key))
}
