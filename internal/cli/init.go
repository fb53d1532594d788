package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/facets/internal/paths"
	"github.com/mesh-intelligence/facets/pkg/document"
	"github.com/mesh-intelligence/facets/pkg/facet"
	"github.com/mesh-intelligence/facets/pkg/types"
)

// configFile is the subset of config.yaml that init records.
type configFile struct {
	Backend string `yaml:"backend"`
	DataDir string `yaml:"data_dir,omitempty"`
}

func (a *app) newInitCmd() *cobra.Command {
	var backend string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize facets storage",
		Long: "Create the configuration and data directories, then initialize the store.\n" +
			"With --backend the choice is recorded in config.yaml.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if backend != "" {
				a.cfg.Backend = backend
				if err := a.cfg.Validate(); err != nil {
					return err
				}
				if err := a.recordConfig(); err != nil {
					return sysError("write config: %w", err)
				}
			}
			err := a.withStore(func(types.Store[document.Document], []facet.Option) error { return nil })
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "facets initialized (%s store in %s)\n", a.cfg.Backend, a.cfg.DataDir)
			return nil
		},
	}
	cmd.Flags().StringVar(&backend, "backend", "", "store backend to record: sqlite, badger or memory")
	return cmd
}

// recordConfig rewrites config.yaml with the selected backend and, when given
// by flag, the data directory.
func (a *app) recordConfig() error {
	configDir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return err
	}
	cfg := configFile{Backend: a.cfg.Backend}
	if a.dataDir != "" {
		cfg.DataDir = a.cfg.DataDir
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(configDir, configFileExt), data, 0o644)
}
