// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rankcache memoizes resolved venue ranks per catalog. A Cache is
// an in-memory map that is hydrated from and flushed to a Store at process
// boundaries. Within a run every key is written at most once.
package rankcache

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/pdiddy/pubrank/pkg/types"
)

// Key builds the cache key for a normalized query and a publication year.
func Key(query string, year int) string {
	return query + strconv.Itoa(year)
}

// Cache maps keys to resolved ranks. It is safe for concurrent use; Put
// never overwrites an existing key.
type Cache struct {
	mu      sync.Mutex
	records map[string]types.RankRecord
	now     func() time.Time
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{records: make(map[string]types.RankRecord), now: time.Now}
}

// Get returns the record stored under key.
func (c *Cache) Get(key string) (types.RankRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.records[key]
	return rec, ok
}

// Put stores rec under key unless the key is already present. It reports
// whether rec was stored. A zero CheckedAt is set to the current time.
func (c *Cache) Put(key string, rec types.RankRecord) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.records[key]; ok {
		return false
	}
	if rec.CheckedAt.IsZero() {
		rec.CheckedAt = c.now().UTC()
	}
	c.records[key] = rec
	return true
}

// LoadFrom adds persisted records whose keys are not yet present.
func (c *Cache) LoadFrom(persisted map[string]types.RankRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range persisted {
		if _, ok := c.records[k]; !ok {
			c.records[k] = v
		}
	}
}

// Serialize returns a copy of the cache contents.
func (c *Cache) Serialize() map[string]types.RankRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]types.RankRecord, len(c.records))
	for k, v := range c.records {
		out[k] = v
	}
	return out
}

// Len returns the number of records.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// Keys returns the cache keys in sorted order.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.records))
	for k := range c.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Prune removes every record for which drop returns true and returns the
// number removed. It is meant for maintenance between runs, not during
// resolution.
func (c *Cache) Prune(drop func(key string, rec types.RankRecord) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, v := range c.records {
		if drop(k, v) {
			delete(c.records, k)
			n++
		}
	}
	return n
}

// Expired reports whether rec is an unknown record older than ttl. Known
// ranks never expire, and a zero ttl keeps unknown records forever.
// Unknown records without a timestamp count as expired.
func Expired(rec types.RankRecord, ttl time.Duration, now time.Time) bool {
	if rec.Known() || ttl <= 0 {
		return false
	}
	if rec.CheckedAt.IsZero() {
		return true
	}
	return now.Sub(rec.CheckedAt) > ttl
}

// Options controls Open.
type Options struct {
	// UnknownTTL drops stale unknown records at load so they are queried again.
	UnknownTTL time.Duration

	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// Open loads store into a new cache and drops expired unknown records. The
// cache is always usable: on a load error it is empty and the error is
// returned for the caller to report. The int result counts dropped records.
func Open(ctx context.Context, store Store, opts Options) (*Cache, int, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	c := New()
	c.now = now

	persisted, err := store.Load(ctx)
	if err != nil {
		return c, 0, fmt.Errorf("loading rank cache %s: %w", store, err)
	}

	expired := 0
	at := now()
	for k, v := range persisted {
		if Expired(v, opts.UnknownTTL, at) {
			delete(persisted, k)
			expired++
		}
	}
	c.LoadFrom(persisted)
	return c, expired, nil
}

// Save flushes c to store.
func Save(ctx context.Context, store Store, c *Cache) error {
	if err := store.Save(ctx, c.Serialize()); err != nil {
		return fmt.Errorf("saving rank cache %s: %w", store, err)
	}
	return nil
}
