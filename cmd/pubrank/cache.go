// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pubrank/internal/rankcache"
	"github.com/pdiddy/pubrank/pkg/types"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and prune the rank caches",
	Long: `Cache works on the persisted rank caches (one per catalog) configured
under cache.backend and cache.dir.`,
}

// --- list subcommand ---

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached ranks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCacheStores(cmd, func(ctx context.Context, name string, store rankcache.Store) error {
			records, err := store.Load(ctx)
			if err != nil {
				return err
			}
			c := rankcache.New()
			c.LoadFrom(records)
			formatCache(os.Stdout, name, c)
			return nil
		})
	},
}

// --- prune subcommand ---

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop stale unknown records",
	Long: `Prune drops "unknown" records older than cache.unknown_ttl so the next
run asks the catalog again. --all-unknown drops every unknown record.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all-unknown")
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		return withCacheStores(cmd, func(ctx context.Context, name string, store rankcache.Store) error {
			n, err := pruneCache(ctx, store, cfg.Cache.UnknownTTL, all)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "%s: pruned %d records\n", name, n)
			return nil
		})
	},
}

func init() {
	cacheCmd.PersistentFlags().String("catalog", "", "only this catalog: core or scimago")
	cachePruneCmd.Flags().Bool("all-unknown", false, "drop every unknown record regardless of age")

	cacheCmd.AddCommand(cacheListCmd, cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}

// withCacheStores opens the configured stores and calls fn for each
// selected catalog in order.
func withCacheStores(cmd *cobra.Command, fn func(context.Context, string, rankcache.Store) error) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	only, _ := cmd.Flags().GetString("catalog")
	names := []string{rankcache.CatalogCore, rankcache.CatalogScimago}
	if only != "" {
		if only != rankcache.CatalogCore && only != rankcache.CatalogScimago {
			return fmt.Errorf("unknown catalog %q (want core or scimago)", only)
		}
		names = []string{only}
	}

	stores, closer, err := rankcache.Stores(cfg.Cache)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx := context.Background()
	for _, name := range names {
		if err := fn(ctx, name, stores[name]); err != nil {
			return err
		}
	}
	return nil
}

// pruneCache rewrites store without its expired unknown records, or
// without any unknown record when all is set.
func pruneCache(ctx context.Context, store rankcache.Store, ttl time.Duration, all bool) (int, error) {
	c, expired, err := rankcache.Open(ctx, store, rankcache.Options{UnknownTTL: ttl})
	if err != nil {
		return 0, err
	}
	pruned := expired
	if all {
		pruned += c.Prune(func(_ string, rec types.RankRecord) bool { return !rec.Known() })
	}
	if err := rankcache.Save(ctx, store, c); err != nil {
		return 0, err
	}
	return pruned, nil
}

func formatCache(w io.Writer, name string, c *rankcache.Cache) {
	fmt.Fprintf(w, "%s (%d records)\n", name, c.Len())
	if c.Len() == 0 {
		return
	}
	fmt.Fprintf(w, "%-50s  %-8s  %-8s  %s\n", "Key", "Rank", "Year", "Checked")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	for _, key := range c.Keys() {
		rec, _ := c.Get(key)
		checked := ""
		if !rec.CheckedAt.IsZero() {
			checked = rec.CheckedAt.Format(time.DateOnly)
		}
		fmt.Fprintf(w, "%-50s  %-8s  %-8s  %s\n", key, rec.Rank, rec.Year, checked)
	}
}
