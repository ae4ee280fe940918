package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/fakebook/internal/config"
	"github.com/lehigh-university-libraries/fakebook/internal/engine"
	"github.com/lehigh-university-libraries/fakebook/internal/storage"
)

// rootOptions holds the persistent flags shared by every subcommand
type rootOptions struct {
	configFile string
	database   string
	verbose    bool
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "fakebook",
		Short: "Find tunes across your fake books",
		Long: `Fakebook indexes the titles of your fake books (jazz lead-sheet collections)
and tells you which book and PDF page to open for a tune.

Several independent indexes usually cover the same physical book; fakebook
collapses duplicate hits by configurable source and book priorities and
translates printed sheet numbers to PDF pages with per-book offset tables.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			logLevel := slog.LevelInfo
			if opts.verbose {
				logLevel = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
			slog.SetDefault(logger)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Config file (default ./fakebook.yaml or $HOME/.fakebook/fakebook.yaml)")
	cmd.PersistentFlags().StringVar(&opts.database, "db", "", "SQLite database path (overrides config)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging")

	cmd.AddCommand(newImportCmd(opts))
	cmd.AddCommand(newSheetCmd(opts))
	cmd.AddCommand(newPageCmd(opts))
	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newPagesCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// loadConfig reads the configuration named by --config
func (o *rootOptions) loadConfig() (*config.Manager, error) {
	mgr, err := config.NewManager(o.configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if path := mgr.ConfigFile(); path != "" {
		slog.Debug("Loaded config", "path", path)
	} else {
		slog.Debug("No config file found, using defaults")
	}
	return mgr, nil
}

// openStore opens the database from --db or the configuration
func (o *rootOptions) openStore(cfg *config.Config) (*storage.Store, error) {
	path := o.database
	if path == "" {
		path = cfg.DatabasePath()
	}

	slog.Debug("Opening database", "path", path)
	store, err := storage.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	return store, nil
}

// setup loads the configuration, opens the store and builds an engine over both
func (o *rootOptions) setup(ctx context.Context) (*config.Manager, *storage.Store, *engine.Engine, error) {
	mgr, err := o.loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	store, err := o.openStore(mgr.Get())
	if err != nil {
		return nil, nil, nil, err
	}

	eng, err := buildEngine(ctx, store, mgr.Get())
	if err != nil {
		store.Close()
		return nil, nil, nil, err
	}

	return mgr, store, eng, nil
}

// buildEngine creates a fresh engine from the stored offsets and configured priorities
func buildEngine(ctx context.Context, store *storage.Store, cfg *config.Config) (*engine.Engine, error) {
	offsetTable, err := store.OffsetTable(ctx)
	if err != nil {
		return nil, err
	}

	priorities, err := cfg.PriorityTable()
	if err != nil {
		return nil, fmt.Errorf("invalid priorities: %w", err)
	}

	slog.Debug("Engine ready",
		"books_with_offsets", offsetTable.Len(),
		"sources", len(cfg.Sources),
		"canonicals", len(cfg.Canonicals))

	return engine.New(offsetTable, priorities), nil
}
