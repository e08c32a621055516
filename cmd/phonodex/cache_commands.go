package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"phonodex/internal/cachestore"
	"phonodex/internal/catalog"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the verdict cache",
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

// openStore opens the persistent verdict store, failing clearly when
// persistence is disabled.
func openStore(ctx *commandContext) (*cachestore.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Cache.Path == "" {
		return nil, errors.New("verdict persistence is disabled; set cache.path in the configuration")
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return nil, err
	}
	return cachestore.Open(cfg.Cache.Path, logger)
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached verdicts",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			cache := catalog.NewCache()
			if _, err := store.Load(cache); err != nil {
				return err
			}

			entries := cache.Entries()
			sort.Slice(entries, func(i, j int) bool {
				return entries[i].Key < entries[j].Key
			})

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				if entry.Failed {
					rows = append(rows, []string{entry.Key.String(), "no match", "", ""})
					continue
				}
				rows = append(rows, []string{
					entry.Key.String(),
					"resolved",
					entry.Metadata.CatalogNumber,
					entry.Metadata.Year,
				})
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "Verdict cache is empty")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Lookup", "Verdict", "Catalog", "Year"},
				rows,
				3,
			))
			return nil
		},
	}
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show verdict cache counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			cache := catalog.NewCache()
			if _, err := store.Load(cache); err != nil {
				return err
			}
			resolved, failed := cache.Len()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Verdict", "Count"},
				[][]string{
					{"resolved", strconv.Itoa(resolved)},
					{"no match", strconv.Itoa(failed)},
				},
				1,
			))
			fmt.Fprintf(out, "Database: %s\n", store.Path())
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all cached verdicts",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Clear()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached verdicts\n", removed)
			return nil
		},
	}
}
