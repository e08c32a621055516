package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"phonodex/internal/artwork"
	"phonodex/internal/organizer"
	"phonodex/internal/process"
	"phonodex/internal/tags"
)

func newTagCommand(ctx *commandContext) *cobra.Command {
	var (
		noCatalog bool
		noYear    bool
		noArt     bool
		organize  bool
		workers   int
	)

	cmd := &cobra.Command{
		Use:   "tag <path>...",
		Short: "Resolve and write catalog metadata for audio files",
		Long: "Reads artist and album tags from the given files or directories, " +
			"resolves each album against Discogs, and writes the catalog number, " +
			"release year, and cover art back to the files.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			files, err := process.CollectFiles(args)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No audio files found")
				return nil
			}

			opts := process.Options{
				Workers:      rt.cfg.Pipeline.Workers,
				WriteCatalog: rt.cfg.Tagging.Catalog && !noCatalog,
				WriteYear:    rt.cfg.Tagging.Year && !noYear,
				WriteArt:     rt.cfg.Tagging.Art && !noArt,
			}
			if workers > 0 {
				opts.Workers = workers
			}

			var pipelineOpts []process.PipelineOption
			if opts.WriteArt {
				fetcher := artwork.NewFetcher(
					rt.cfg.Artwork.MaxWidth,
					rt.cfg.Artwork.MaxHeight,
					rt.cfg.Artwork.RequestsPerSecond,
					time.Duration(rt.cfg.Artwork.TimeoutSeconds)*time.Second,
					rt.logger,
				)
				pipelineOpts = append(pipelineOpts, process.WithArtworkFetcher(fetcher))
			}
			if organize || rt.cfg.Organizer.Enabled {
				org, err := organizer.New(rt.cfg.Organizer.Library, rt.cfg.Organizer.Format, rt.logger)
				if err != nil {
					return err
				}
				pipelineOpts = append(pipelineOpts, process.WithOrganizer(org))
			}

			pipeline, err := process.New(rt.resolver, tags.NewWriter(rt.logger), opts, rt.logger, pipelineOpts...)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			summary, err := pipeline.Run(runCtx, files, func(result process.FileResult) {
				name := filepath.Base(result.Path)
				switch result.Outcome {
				case process.OutcomeUpdated:
					fmt.Fprintf(out, "updated   %s [%s]\n", name, result.Metadata.CatalogNumber)
				case process.OutcomeUnchanged:
					fmt.Fprintf(out, "unchanged %s\n", name)
				case process.OutcomeNoMatch:
					fmt.Fprintf(out, "no match  %s\n", name)
				case process.OutcomeError:
					fmt.Fprintf(out, "error     %s: %v\n", name, result.Err)
				}
				if result.MovedTo != "" {
					fmt.Fprintf(out, "moved     %s -> %s\n", name, result.MovedTo)
				}
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "\nProcessed %d files: %d updated, %d without a match, %d errors\n",
				summary.Processed, summary.Updated, summary.NoMatch, summary.Errors)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noCatalog, "no-catalog", false, "Skip writing catalog numbers")
	cmd.Flags().BoolVar(&noYear, "no-year", false, "Skip writing release years")
	cmd.Flags().BoolVar(&noArt, "no-art", false, "Skip embedding cover art")
	cmd.Flags().BoolVar(&organize, "organize", false, "Move tagged files into the configured library")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent file workers (defaults to pipeline.workers)")
	return cmd
}
