// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rankcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdiddy/pubrank/pkg/types"
)

// Catalog names, also used as cache names.
const (
	CatalogCore    = "core"
	CatalogScimago = "scimago"
)

// ErrUnknownBackend is returned by Stores for a backend name it does not
// know.
var ErrUnknownBackend = errors.New("unknown cache backend")

// Store is the durable side of a cache.
type Store interface {
	Load(ctx context.Context) (map[string]types.RankRecord, error)
	Save(ctx context.Context, records map[string]types.RankRecord) error
	String() string
}

// JSONFile stores a cache as one flat JSON object mapping keys to
// {rank, year} records.
type JSONFile struct {
	Path string
}

// String implements fmt.Stringer.
func (f JSONFile) String() string { return f.Path }

// Load reads the file. A missing file is an empty cache.
func (f JSONFile) Load(_ context.Context) (map[string]types.RankRecord, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]types.RankRecord{}, nil
		}
		return nil, err
	}
	records := map[string]types.RankRecord{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", f.Path, err)
	}
	return records, nil
}

// Save writes the file atomically: a temp file in the same directory is
// renamed over the target.
func (f JSONFile) Save(_ context.Context, records map[string]types.RankRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshaling cache: %w", err)
	}
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.Path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.Path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Stores opens the per-catalog stores for cfg. The returned closer must be
// called once the stores are no longer needed.
func Stores(cfg types.CacheConfig) (map[string]Store, io.Closer, error) {
	switch cfg.Backend {
	case "", types.CacheJSON:
		return map[string]Store{
			CatalogCore:    JSONFile{Path: filepath.Join(cfg.Dir, "core.cache")},
			CatalogScimago: JSONFile{Path: filepath.Join(cfg.Dir, "scimago.cache")},
		}, io.NopCloser(nil), nil
	case types.CacheSQLite:
		db, err := OpenSQLite(filepath.Join(cfg.Dir, "rank-cache.db"))
		if err != nil {
			return nil, nil, err
		}
		return map[string]Store{
			CatalogCore:    db.Store(CatalogCore),
			CatalogScimago: db.Store(CatalogScimago),
		}, db, nil
	default:
		return nil, nil, fmt.Errorf("%w %q (want json or sqlite)", ErrUnknownBackend, cfg.Backend)
	}
}
