// Package cli implements the facets command-line interface: it stores people
// and attaches Driver and Membership facets to them.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/facets/internal/paths"
	"github.com/mesh-intelligence/facets/internal/people"
	"github.com/mesh-intelligence/facets/pkg/document"
	"github.com/mesh-intelligence/facets/pkg/facet"
	"github.com/mesh-intelligence/facets/pkg/store"
	"github.com/mesh-intelligence/facets/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// exitError carries the exit code a failure maps to.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// sysError marks a failure of the environment rather than of the request.
func sysError(format string, args ...any) error {
	return &exitError{code: exitSysError, err: fmt.Errorf(format, args...)}
}

func exitCode(err error) int {
	var e *exitError
	if errors.As(err, &e) {
		return e.code
	}
	return exitUserError
}

// app holds the global flags and the state PersistentPreRunE derives from
// them.
type app struct {
	configDir string
	dataDir   string
	jsonMode  bool
	verbose   bool

	stderr io.Writer
	cfg    types.Config
	logger *slog.Logger
}

// NewRootCmd creates the top-level "facets" command with its global flags and
// subcommands.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stderr: stderr, logger: slog.New(slog.DiscardHandler)}

	root := &cobra.Command{
		Use:   "facets",
		Short: "Attach capabilities to people at runtime",
		Long: "facets stores people and extends them with Driver and Membership facets.\n" +
			"Each facet keeps its own data next to the person it belongs to.",
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "data directory (default: $(CWD)/.facets-db)")
	root.PersistentFlags().BoolVar(&a.jsonMode, "json", false, "output as JSON")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(newVersionCmd())
	root.AddCommand(a.newInitCmd())
	root.AddCommand(a.newPersonCmd())
	root.AddCommand(a.newDriverCmd())
	root.AddCommand(a.newMembershipCmd())
	root.AddCommand(a.newFacetsCmd())
	return root
}

// Run executes the CLI with args and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// Execute runs the CLI on the process arguments and exits.
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}

// setup installs the logger and loads the configuration.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))

	if cmd.Name() == "version" {
		return nil
	}

	configDir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return sysError("resolve config dir: %w", err)
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return sysError("load config: %w", err)
	}
	dataDir, err := paths.ResolveDataDir(a.dataDir, cfg.DataDir)
	if err != nil {
		return sysError("resolve data dir: %w", err)
	}
	cfg.DataDir = dataDir
	a.cfg = cfg

	a.logger.Debug("configuration loaded",
		"config_dir", configDir,
		"backend", cfg.Backend,
		"data_dir", cfg.DataDir,
		"cache", cfg.Cache.GetStrategy())
	return nil
}

// withStore opens the configured store for the duration of fn. The options
// carry the configured view cache and the logger for facet containers.
func (a *app) withStore(fn func(s types.Store[document.Document], opts []facet.Option) error) (err error) {
	cacheOpt, closeCache, err := facet.CacheOption(a.cfg.Cache)
	if err != nil {
		return err
	}
	defer closeCache()

	s, err := store.Open[document.Document](a.cfg, nil, a.logger)
	if err != nil {
		return sysError("open %s store: %w", a.cfg.Backend, err)
	}
	defer func() {
		if derr := s.Detach(); derr != nil && err == nil {
			err = sysError("close store: %w", derr)
		}
	}()

	return fn(s, []facet.Option{cacheOpt, facet.WithLogger(a.logger)})
}

// withPerson loads person id and runs fn on it inside withStore.
func (a *app) withPerson(id string, fn func(p *people.Person) error) error {
	return a.withStore(func(s types.Store[document.Document], opts []facet.Option) error {
		p, err := people.Load(s, id, opts...)
		if err != nil {
			return err
		}
		return fn(p)
	})
}
