package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/fakebook/internal/models"
)

type bookFlags struct {
	source string
	book   string
}

func (b *bookFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&b.source, "src", "", "Index source code")
	cmd.Flags().StringVar(&b.book, "book", "", "Book name as the source catalogues it")
	_ = cmd.MarkFlagRequired("src")
	_ = cmd.MarkFlagRequired("book")
}

func newSheetCmd(opts *rootOptions) *cobra.Command {
	var flags bookFlags

	cmd := &cobra.Command{
		Use:     "sheet PAGE",
		Short:   "Show the printed sheet on a PDF page",
		Example: `  fakebook sheet --src Skr --book "Real Book 1" 60`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid page %q: %w", args[0], err)
			}

			_, store, eng, err := opts.setup(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			sheet, ok := eng.ResolveSheet(page, flags.source, flags.book)
			if !ok {
				fmt.Fprintf(out, "no sheet for page %d of %s/%s\n", page, flags.source, flags.book)
				return nil
			}
			fmt.Fprintln(out, sheet)
			return nil
		},
	}
	flags.register(cmd)

	return cmd
}

func newPageCmd(opts *rootOptions) *cobra.Command {
	var flags bookFlags

	cmd := &cobra.Command{
		Use:     "page SHEET",
		Short:   "Show the PDF page of a printed sheet",
		Example: `  fakebook page --src Skr --book "Real Book 1" 56`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, eng, err := opts.setup(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			sheet := models.ParseSheet(args[0])
			page, ok := eng.ResolvePageForSheet(sheet, flags.source, flags.book)
			if !ok {
				fmt.Fprintf(out, "no page for sheet %s of %s/%s\n", sheet, flags.source, flags.book)
				return nil
			}
			fmt.Fprintln(out, page)
			return nil
		},
	}
	flags.register(cmd)

	return cmd
}
