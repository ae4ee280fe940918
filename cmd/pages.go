package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/fakebook/internal/pdf"
)

func newPagesCmd(opts *rootOptions) *cobra.Command {
	var (
		flags  bookFlags
		file   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "pages",
		Short: "Print the page to sheet map of a book's PDF",
		Long: `Counts the pages of the PDF linked to the book's canonical (or --file) and
prints the printed sheet shown on each page. Useful for checking an offset
table against the scan.`,
		Example: `  fakebook pages --src Skr --book "Real Book 1"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			mgr, store, eng, err := opts.setup(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if file == "" {
				book, err := store.Book(ctx, flags.source, flags.book)
				if err != nil {
					return err
				}
				file, err = store.CanonicalFile(ctx, book.Canonical)
				if err != nil {
					return err
				}
				if file == "" {
					return fmt.Errorf("canonical %q has no file; pass --file", book.Canonical)
				}
			}
			path := pdf.ResolveFile(mgr.Get().MusicPath(), file)

			count, err := pdf.PageCount(path)
			if err != nil {
				return err
			}
			slog.Debug("Counted pages", "path", path, "pages", count)

			entries := pdf.PageMap(count, eng.Rules(flags.source, flags.book))

			out := cmd.OutOrStdout()
			if asJSON {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(entries)
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PAGE\tSHEET")
			for _, e := range entries {
				sheet := "-"
				if e.Resolved {
					sheet = fmt.Sprint(e.Sheet)
				}
				fmt.Fprintf(w, "%d\t%s\n", e.Page, sheet)
			}
			return w.Flush()
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&file, "file", "", "PDF file (default: the canonical's file)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")

	return cmd
}
