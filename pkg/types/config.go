package types

import "errors"

// Config holds store selection and parameters for Store.Attach.
type Config struct {
	Backend string       `json:"backend" yaml:"backend" mapstructure:"backend"`
	DataDir string       `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	SQLite  SQLiteConfig `json:"sqlite" yaml:"sqlite" mapstructure:"sqlite"`
	Badger  BadgerConfig `json:"badger" yaml:"badger" mapstructure:"badger"`
	Cache   CacheConfig  `json:"cache" yaml:"cache" mapstructure:"cache"`
}

// Supported store backend names.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// SQLite sync strategies control when JSONL files are rewritten.
const (
	SyncImmediate = "immediate"
	SyncOnClose   = "on_close"
	SyncBatch     = "batch"
)

// Defaults applied when the corresponding SQLiteConfig field is zero.
const (
	DefaultBatchSize     = 100
	DefaultBatchInterval = 5 // seconds
)

// SQLiteConfig tunes the SQLite store.
type SQLiteConfig struct {
	SyncStrategy  string `json:"sync_strategy" yaml:"sync_strategy" mapstructure:"sync_strategy"`
	BatchSize     int    `json:"batch_size" yaml:"batch_size" mapstructure:"batch_size"`
	BatchInterval int    `json:"batch_interval" yaml:"batch_interval" mapstructure:"batch_interval"`
}

// GetSyncStrategy returns the configured strategy, defaulting to immediate.
func (c SQLiteConfig) GetSyncStrategy() string {
	if c.SyncStrategy == "" {
		return SyncImmediate
	}
	return c.SyncStrategy
}

// GetBatchSize returns the configured batch size or DefaultBatchSize.
func (c SQLiteConfig) GetBatchSize() int {
	if c.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return c.BatchSize
}

// GetBatchInterval returns the configured batch interval in seconds or
// DefaultBatchInterval.
func (c SQLiteConfig) GetBatchInterval() int {
	if c.BatchInterval <= 0 {
		return DefaultBatchInterval
	}
	return c.BatchInterval
}

// BadgerConfig tunes the Badger store.
type BadgerConfig struct {
	InMemory   bool `json:"in_memory" yaml:"in_memory" mapstructure:"in_memory"`
	SyncWrites bool `json:"sync_writes" yaml:"sync_writes" mapstructure:"sync_writes"`
}

// View cache strategies.
const (
	CacheWeak    = "weak"
	CacheBounded = "bounded"
	CacheNone    = "none"
)

// DefaultCacheCapacity is the bounded cache size when Capacity is zero.
const DefaultCacheCapacity = 1024

// CacheConfig selects how facet views are cached.
type CacheConfig struct {
	Strategy string `json:"strategy" yaml:"strategy" mapstructure:"strategy"`
	Capacity int64  `json:"capacity" yaml:"capacity" mapstructure:"capacity"`
}

// GetStrategy returns the configured strategy, defaulting to weak.
func (c CacheConfig) GetStrategy() string {
	if c.Strategy == "" {
		return CacheWeak
	}
	return c.Strategy
}

// GetCapacity returns the configured capacity or DefaultCacheCapacity.
func (c CacheConfig) GetCapacity() int64 {
	if c.Capacity <= 0 {
		return DefaultCacheCapacity
	}
	return c.Capacity
}

// Config validation errors.
var (
	ErrBackendEmpty         = errors.New("backend must not be empty")
	ErrBackendUnknown       = errors.New("unknown backend")
	ErrSyncStrategyUnknown  = errors.New("unknown sync strategy")
	ErrBatchSizeInvalid     = errors.New("batch size must be positive")
	ErrBatchIntervalInvalid = errors.New("batch interval must be positive")
	ErrCacheStrategyUnknown = errors.New("unknown cache strategy")
	ErrCacheCapacityInvalid = errors.New("cache capacity must be positive")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendMemory: true,
	BackendSQLite: true,
	BackendBadger: true,
}

var knownSyncStrategies = map[string]bool{
	SyncImmediate: true,
	SyncOnClose:   true,
	SyncBatch:     true,
}

var knownCacheStrategies = map[string]bool{
	CacheWeak:    true,
	CacheBounded: true,
	CacheNone:    true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Backend == BackendSQLite {
		if err := c.SQLite.Validate(); err != nil {
			return err
		}
	}
	return c.Cache.Validate()
}

// Validate checks the SQLite options. Zero values are accepted and replaced
// by defaults at attach time.
func (c SQLiteConfig) Validate() error {
	if !knownSyncStrategies[c.GetSyncStrategy()] {
		return ErrSyncStrategyUnknown
	}
	if c.BatchSize < 0 {
		return ErrBatchSizeInvalid
	}
	if c.BatchInterval < 0 {
		return ErrBatchIntervalInvalid
	}
	return nil
}

// Validate checks the cache options.
func (c CacheConfig) Validate() error {
	if !knownCacheStrategies[c.GetStrategy()] {
		return ErrCacheStrategyUnknown
	}
	if c.Capacity < 0 {
		return ErrCacheCapacityInvalid
	}
	return nil
}
