package facet

import (
	"log/slog"

	"github.com/mesh-intelligence/facets/pkg/types"
)

// Option configures a Faceted container.
type Option func(*options)

type cacheKind int

const (
	cacheWeak cacheKind = iota
	cacheBounded
	cacheNone
)

type options struct {
	logger  *slog.Logger
	cache   cacheKind
	bounded *BoundedCache
}

func defaultOptions() options {
	return options{logger: slog.New(slog.DiscardHandler)}
}

// WithLogger sets the logger the container reports attach, fetch and remove
// events to. Events are logged at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithBoundedCache caches views in a shared BoundedCache instead of the
// default per-container weak cache.
func WithBoundedCache(c *BoundedCache) Option {
	return func(o *options) {
		if c != nil {
			o.cache, o.bounded = cacheBounded, c
		}
	}
}

// WithoutCache disables view caching; every fetch builds a new view.
func WithoutCache() Option {
	return func(o *options) {
		o.cache, o.bounded = cacheNone, nil
	}
}

// CacheOption translates cfg into an Option. For the bounded strategy it
// creates a BoundedCache, which the caller should share across containers
// and release with the returned close function.
func CacheOption(cfg types.CacheConfig) (Option, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	switch cfg.GetStrategy() {
	case types.CacheNone:
		return WithoutCache(), func() {}, nil
	case types.CacheBounded:
		c, err := NewBoundedCache(cfg.GetCapacity())
		if err != nil {
			return nil, nil, err
		}
		return WithBoundedCache(c), c.Close, nil
	default:
		return func(*options) {}, func() {}, nil
	}
}
