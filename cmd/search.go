package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/fakebook/internal/engine"
	"github.com/lehigh-university-libraries/fakebook/internal/models"
	"github.com/lehigh-university-libraries/fakebook/internal/report"
)

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		title    string
		composer string
		dedup    string
		limit    int
		format   string
		native   bool
	)

	cmd := &cobra.Command{
		Use:   "search [TITLE WORDS...]",
		Short: "Search titles across every indexed book",
		Long: `Finds tunes whose title (and optionally composer) contain every query word.
Quote the query ('Take Five' or "Take Five") to require the whole title to match
exactly, ignoring case.

Hits are deduplicated by priority:
  titles      one hit per title, from the preferred source
  canonicals  one hit per title and physical book, from the preferred source
  srcs        one hit per title and source, from the preferred book
  none        every hit`,
		Example: `  # Words in any order
  fakebook search love tender

  # Exact title, every book that has it
  fakebook search --title "'Autumn Leaves'" --dedup canonicals

  # Export
  fakebook search --composer monk --format csv > monk.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if title == "" && len(args) > 0 {
				title = strings.Join(args, " ")
			}

			mgr, store, eng, err := opts.setup(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			cfg := mgr.Get()
			req := engine.SearchRequest{
				Filter: models.Filter{Title: title, Composer: composer},
				Dedup:  cfg.Search.Dedup,
				Limit:  cfg.Search.Limit,
				Native: native,
			}
			if cmd.Flags().Changed("dedup") {
				req.Dedup = dedup
			}
			if cmd.Flags().Changed("limit") {
				req.Limit = limit
			}

			slog.Debug("Searching", "title", req.Title, "composer", req.Composer, "dedup", req.Dedup, "native", req.Native)

			result, err := eng.Search(cmd.Context(), store, req)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			return report.Write(cmd.OutOrStdout(), format, result)
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Title query")
	cmd.Flags().StringVarP(&composer, "composer", "c", "", "Composer query")
	cmd.Flags().StringVarP(&dedup, "dedup", "d", "titles", "Dedup mode: titles, canonicals, srcs or none (default from config)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum hits to show, 0 for all (default from config)")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: "+strings.Join(report.Formats, ", "))
	cmd.Flags().BoolVar(&native, "native", false, "Match in Go instead of in the database")

	return cmd
}
