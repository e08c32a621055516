package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"phonodex/internal/organizer"
	"phonodex/internal/process"
	"phonodex/internal/tags"
)

// newOrganizeCommand moves already-tagged files into the library without
// touching Discogs; the catalog number is read from the files themselves.
func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "organize <path>...",
		Short: "Move tagged files into the configured library layout",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			org, err := organizer.New(cfg.Organizer.Library, cfg.Organizer.Format, logger)
			if err != nil {
				return err
			}

			files, err := process.CollectFiles(args)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No audio files found")
				return nil
			}

			out := cmd.OutOrStdout()
			moved, skipped := 0, 0
			for _, path := range files {
				fields, err := organizeFields(path)
				if err != nil {
					fmt.Fprintf(out, "skipped %s: %v\n", filepath.Base(path), err)
					skipped++
					continue
				}

				if dryRun {
					dest, err := org.Plan(path, fields)
					if err != nil {
						fmt.Fprintf(out, "skipped %s: %v\n", filepath.Base(path), err)
						skipped++
						continue
					}
					fmt.Fprintf(out, "would move %s -> %s\n", path, dest)
					continue
				}

				dest, didMove, err := org.Move(path, fields)
				switch {
				case err != nil:
					fmt.Fprintf(out, "skipped %s: %v\n", filepath.Base(path), err)
					skipped++
				case didMove:
					fmt.Fprintf(out, "moved %s -> %s\n", filepath.Base(path), dest)
					moved++
				default:
					fmt.Fprintf(out, "in place %s\n", filepath.Base(path))
				}
			}

			if !dryRun {
				fmt.Fprintf(out, "\nMoved %d files, skipped %d\n", moved, skipped)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show planned moves without touching files")
	return cmd
}

// organizeFields reads everything the layout format may need from the file,
// including the previously written catalog number frame.
func organizeFields(path string) (organizer.Fields, error) {
	fileTags, err := tags.ReadFile(path)
	if err != nil {
		return organizer.Fields{}, err
	}

	fields := organizer.Fields{
		Genre:       fileTags.Genre,
		Year:        tags.YearString(fileTags.Year),
		AlbumArtist: fileTags.AlbumArtist,
		Album:       fileTags.Album,
		Artist:      fileTags.Artist,
		Title:       fileTags.Title,
	}
	if fields.AlbumArtist == "" {
		fields.AlbumArtist = fileTags.Artist
	}

	if tags.IsMP3(path) {
		catno, err := tags.ReadCatalogNumber(path)
		if err != nil {
			return organizer.Fields{}, err
		}
		fields.CatalogNumber = catno
	}
	return fields, nil
}
