package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/fakebook/internal/dataset"
)

func newImportCmd(opts *rootOptions) *cobra.Command {
	var titlesPath, offsetsPath, booksPath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import index builder output into the database",
		Long: `Loads titles, offset rules and local book mappings from JSONL or Parquet
files and appends them to the database. Sources and canonical books are
synchronized from the configuration first.

Offset rules are sequenced in file order: a rule imported later supersedes
earlier rules for the same book.`,
		Example: `  # Import everything
  fakebook import --books books.jsonl --offsets offsets.jsonl --titles titles.parquet

  # Add a correction to an existing book
  fakebook import --offsets corrections.jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if titlesPath == "" && offsetsPath == "" && booksPath == "" {
				return fmt.Errorf("nothing to import: pass --titles, --offsets or --books")
			}

			ctx := cmd.Context()

			mgr, err := opts.loadConfig()
			if err != nil {
				return err
			}
			cfg := mgr.Get()

			store, err := opts.openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.SyncCatalog(ctx, cfg.Sources, cfg.Canonicals); err != nil {
				return fmt.Errorf("failed to sync catalog: %w", err)
			}
			slog.Info("Catalog synchronized", "sources", len(cfg.Sources), "canonicals", len(cfg.Canonicals))

			if booksPath != "" {
				books, err := dataset.NewLoader(booksPath).LoadBooks()
				if err != nil {
					return fmt.Errorf("failed to load books: %w", err)
				}
				if err := store.AddBooks(ctx, books); err != nil {
					return err
				}
				slog.Info("Books imported", "path", booksPath, "records", len(books))
			}

			if offsetsPath != "" {
				rules, err := dataset.NewLoader(offsetsPath).LoadOffsets()
				if err != nil {
					return fmt.Errorf("failed to load offsets: %w", err)
				}
				if err := store.AddOffsets(ctx, rules); err != nil {
					return err
				}
				slog.Info("Offsets imported", "path", offsetsPath, "records", len(rules))
			}

			if titlesPath != "" {
				titles, err := dataset.NewLoader(titlesPath).LoadTitles()
				if err != nil {
					return fmt.Errorf("failed to load titles: %w", err)
				}
				if err := store.AddTitles(ctx, titles); err != nil {
					return err
				}
				slog.Info("Titles imported", "path", titlesPath, "records", len(titles))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&titlesPath, "titles", "", "Titles file (.jsonl or .parquet)")
	cmd.Flags().StringVar(&offsetsPath, "offsets", "", "Offset rules file (.jsonl or .parquet)")
	cmd.Flags().StringVar(&booksPath, "books", "", "Local books file (.jsonl or .parquet)")

	return cmd
}
