package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/facets/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	envPrefix      = "FACETS"
	defaultBackend = types.BackendSQLite
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# facets CLI configuration

# Store backend: sqlite, badger or memory
backend: sqlite

# Data directory (optional; overridable by --data-dir)
# data_dir:

# sqlite:
#   sync_strategy: immediate   # immediate, on_close or batch
#   batch_size: 100
#   batch_interval: 5          # seconds

# badger:
#   sync_writes: false

# View cache: weak, bounded or none
# cache:
#   strategy: weak
#   capacity: 1024
`

// loadConfig reads config.yaml from configDir, creating the directory and a
// default file when they are missing. FACETS_BACKEND and the nested
// FACETS_SQLITE_SYNC_STRATEGY style variables override the file.
func loadConfig(configDir string) (types.Config, error) {
	var cfg types.Config
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return cfg, fmt.Errorf("create config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return cfg, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault("backend", defaultBackend)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range []string{
		"backend",
		"sqlite.sync_strategy", "sqlite.batch_size", "sqlite.batch_interval",
		"badger.in_memory", "badger.sync_writes",
		"cache.strategy", "cache.capacity",
	} {
		if err := v.BindEnv(key); err != nil {
			return cfg, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ensureDefaultConfigFile writes defaultConfigYAML unless config.yaml exists.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
