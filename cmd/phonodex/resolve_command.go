package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"phonodex/internal/catalog"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "resolve <artist> <album>",
		Short: "Look up the catalog number for one artist/album pair",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			meta, snap, err := rt.resolver.Resolve(cmd.Context(), catalog.Request{
				Artist: args[0],
				Album:  args[1],
				Title:  title,
			})
			if errors.Is(err, catalog.ErrNoMatch) {
				fmt.Fprintf(cmd.OutOrStdout(), "No release found for %s - %s\n", args[0], args[1])
				return nil
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Field", "Value"},
				[][]string{
					{"Catalog number", meta.CatalogNumber},
					{"Year", meta.Year},
					{"Release", meta.Album},
					{"Cover image", meta.CoverImage},
				},
			))
			if snap != nil {
				fmt.Fprintf(out, "API budget: %d/%d used, %d remaining\n", snap.Used, snap.Total, snap.Remaining)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Track title used for the broadest fallback search")
	return cmd
}
