// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rankcache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pubrank/pkg/types"
)

// DB holds the caches of every catalog in one SQLite database.
type DB struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the cache database at path and creates the
// schema if it does not exist.
func OpenSQLite(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	d := &DB{db: db, path: path}
	if err := d.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return d, nil
}

// Close releases the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS rank_cache (
			catalog TEXT NOT NULL,
			key TEXT NOT NULL,
			rank TEXT NOT NULL,
			year TEXT NOT NULL,
			checked_at TEXT,
			PRIMARY KEY (catalog, key)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rank_cache_rank ON rank_cache(catalog, rank)`,
	}
	for _, stmt := range statements {
		if _, err := d.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Store returns the Store for one catalog's rows.
func (d *DB) Store(catalog string) Store {
	return sqliteStore{db: d, catalog: catalog}
}

type sqliteStore struct {
	db      *DB
	catalog string
}

func (s sqliteStore) String() string {
	return s.db.path + "#" + s.catalog
}

func (s sqliteStore) Load(ctx context.Context) (map[string]types.RankRecord, error) {
	rows, err := s.db.db.QueryContext(ctx,
		`SELECT key, rank, year, checked_at FROM rank_cache WHERE catalog = ?`, s.catalog)
	if err != nil {
		return nil, fmt.Errorf("querying cache: %w", err)
	}
	defer rows.Close()

	records := map[string]types.RankRecord{}
	for rows.Next() {
		var (
			key, rank, year string
			checked         sql.NullString
		)
		if err := rows.Scan(&key, &rank, &year, &checked); err != nil {
			return nil, fmt.Errorf("scanning cache row: %w", err)
		}
		rec := types.RankRecord{Rank: rank, Year: types.Label(year)}
		if checked.Valid && checked.String != "" {
			if t, err := time.Parse(time.RFC3339, checked.String); err == nil {
				rec.CheckedAt = t
			}
		}
		records[key] = rec
	}
	return records, rows.Err()
}

// Save replaces the catalog's rows with records in one transaction.
func (s sqliteStore) Save(ctx context.Context, records map[string]types.RankRecord) error {
	tx, err := s.db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rank_cache WHERE catalog = ?`, s.catalog); err != nil {
		return fmt.Errorf("clearing cache rows: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO rank_cache (catalog, key, rank, year, checked_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for key, rec := range records {
		var checked any
		if !rec.CheckedAt.IsZero() {
			checked = rec.CheckedAt.UTC().Format(time.RFC3339)
		}
		if _, err := stmt.ExecContext(ctx, s.catalog, key, rec.Rank, rec.Year.String(), checked); err != nil {
			return fmt.Errorf("inserting %q: %w", key, err)
		}
	}
	return tx.Commit()
}
