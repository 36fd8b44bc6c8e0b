// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/pdiddy/pubrank/internal/metrics"
	"github.com/pdiddy/pubrank/internal/rankcache"
	"github.com/pdiddy/pubrank/pkg/types"
)

// Caches holds the rank cache of each catalog and, when persistence is
// enabled, the stores they load from and save to.
type Caches struct {
	byCatalog map[string]*rankcache.Cache
	stores    map[string]rankcache.Store
	closer    io.Closer
}

// Get returns the cache of a catalog, creating an empty one if needed.
func (c *Caches) Get(catalog string) *rankcache.Cache {
	if c.byCatalog == nil {
		c.byCatalog = map[string]*rankcache.Cache{}
	}
	cache, ok := c.byCatalog[catalog]
	if !ok {
		cache = rankcache.New()
		c.byCatalog[catalog] = cache
	}
	return cache
}

// Catalogs returns the catalog names in sorted order.
func (c *Caches) Catalogs() []string {
	names := make([]string, 0, len(c.byCatalog))
	for name := range c.byCatalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OpenCaches loads the caches described by cfg. With persistence disabled
// the caches start empty and are never saved. A store that cannot be opened
// or read yields empty caches and a warning; only an unknown backend is an
// error.
func OpenCaches(ctx context.Context, cfg types.CacheConfig, m *metrics.Metrics) (*Caches, []types.Warning, error) {
	c := &Caches{}
	c.Get(rankcache.CatalogCore)
	c.Get(rankcache.CatalogScimago)
	if !cfg.Enabled {
		return c, nil, nil
	}

	stores, closer, err := rankcache.Stores(cfg)
	if errors.Is(err, rankcache.ErrUnknownBackend) {
		return nil, nil, err
	}
	if err != nil {
		return c, []types.Warning{{
			Level: types.LevelWarn,
			Msg:   fmt.Sprintf("opening rank cache: %v; running without a persisted cache", err),
		}}, nil
	}
	c.stores, c.closer = stores, closer

	var warnings []types.Warning
	for _, name := range []string{rankcache.CatalogCore, rankcache.CatalogScimago} {
		cache, expired, err := rankcache.Open(ctx, stores[name], rankcache.Options{UnknownTTL: cfg.UnknownTTL})
		if err != nil {
			warnings = append(warnings, types.Warning{Level: types.LevelWarn, Msg: fmt.Sprintf("%v; starting with an empty cache", err)})
		}
		m.AddExpired(name, expired)
		c.byCatalog[name] = cache
	}
	return c, warnings, nil
}

// Save flushes every persisted cache. It returns one warning per store
// that could not be written.
func (c *Caches) Save(ctx context.Context) []types.Warning {
	var warnings []types.Warning
	for _, name := range c.Catalogs() {
		store, ok := c.stores[name]
		if !ok {
			continue
		}
		if err := rankcache.Save(ctx, store, c.byCatalog[name]); err != nil {
			warnings = append(warnings, types.Warning{Level: types.LevelError, Msg: err.Error()})
		}
	}
	return warnings
}

// Close releases the stores.
func (c *Caches) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}
