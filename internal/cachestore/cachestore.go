// Package cachestore persists resolution verdicts in SQLite so repeat runs
// over the same library skip the network entirely. The store is a
// write-through companion to the in-memory verdict cache: resolutions land
// in both, and Load seeds the memory cache at startup.
package cachestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"phonodex/internal/catalog"
	"phonodex/internal/logging"
)

// Store is the SQLite-backed verdict store. A sidecar flock guards against
// a second phonodex process writing the same database file.
type Store struct {
	db     *sql.DB
	path   string
	lock   *flock.Flock
	logger *slog.Logger
}

var _ catalog.Store = (*Store)(nil)

var migrations = []struct {
	version string
	sql     string
}{
	{
		version: "0001_verdicts",
		sql: `CREATE TABLE verdicts (
    lookup_key     TEXT PRIMARY KEY,
    failed         INTEGER NOT NULL DEFAULT 0,
    catalog_number TEXT NOT NULL DEFAULT '',
    release_year   TEXT NOT NULL DEFAULT '',
    album          TEXT NOT NULL DEFAULT '',
    cover_image    TEXT NOT NULL DEFAULT '',
    thumb          TEXT NOT NULL DEFAULT '',
    updated_at     TEXT NOT NULL
)`,
	},
}

// Open connects to the verdict database at path, creating parent
// directories, applying migrations, and taking the process lock.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("cache store path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire cache lock: %w", err)
	}
	if !locked {
		return nil, errors.New("verdict cache is locked by another phonodex process")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{
		db:     db,
		path:   path,
		lock:   lock,
		logger: logging.NewComponentLogger(logger, "cachestore"),
	}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}
	return store, nil
}

func (s *Store) applyMigrations(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)"); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}
	for _, migration := range migrations {
		var count int
		row := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM schema_migrations WHERE version = ?", migration.version)
		if err := row.Scan(&count); err != nil {
			return fmt.Errorf("scan migration version: %w", err)
		}
		if count > 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, migration.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", migration.version, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", migration.version); err != nil {
			return fmt.Errorf("record migration %s: %w", migration.version, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}
	return nil
}

// Close releases the database and the process lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var firstErr error
	if s.db != nil {
		firstErr = s.db.Close()
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// SaveResolved upserts a successful verdict.
func (s *Store) SaveResolved(key catalog.Key, meta catalog.Metadata) error {
	_, err := s.db.Exec(
		`INSERT INTO verdicts (lookup_key, failed, catalog_number, release_year, album, cover_image, thumb, updated_at)
         VALUES (?, 0, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(lookup_key) DO UPDATE SET
             failed = 0,
             catalog_number = excluded.catalog_number,
             release_year = excluded.release_year,
             album = excluded.album,
             cover_image = excluded.cover_image,
             thumb = excluded.thumb,
             updated_at = excluded.updated_at`,
		key.String(), meta.CatalogNumber, meta.Year, meta.Album, meta.CoverImage, meta.Thumb,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save resolved verdict: %w", err)
	}
	return nil
}

// SaveFailed upserts a definitive no-match verdict.
func (s *Store) SaveFailed(key catalog.Key) error {
	_, err := s.db.Exec(
		`INSERT INTO verdicts (lookup_key, failed, updated_at)
         VALUES (?, 1, ?)
         ON CONFLICT(lookup_key) DO UPDATE SET
             failed = 1,
             catalog_number = '',
             release_year = '',
             album = '',
             cover_image = '',
             thumb = '',
             updated_at = excluded.updated_at`,
		key.String(), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save failed verdict: %w", err)
	}
	return nil
}

// Load seeds the in-memory cache with every persisted verdict and returns
// how many were loaded.
func (s *Store) Load(cache *catalog.Cache) (int, error) {
	rows, err := s.db.Query(
		"SELECT lookup_key, failed, catalog_number, release_year, album, cover_image, thumb FROM verdicts")
	if err != nil {
		return 0, fmt.Errorf("load verdicts: %w", err)
	}
	defer rows.Close()

	loaded := 0
	for rows.Next() {
		var key string
		var failed int
		var meta catalog.Metadata
		if err := rows.Scan(&key, &failed, &meta.CatalogNumber, &meta.Year, &meta.Album, &meta.CoverImage, &meta.Thumb); err != nil {
			return loaded, fmt.Errorf("scan verdict: %w", err)
		}
		if failed != 0 {
			cache.StoreFailed(catalog.Key(key))
		} else {
			cache.StoreResolved(catalog.Key(key), meta)
		}
		loaded++
	}
	if err := rows.Err(); err != nil {
		return loaded, fmt.Errorf("iterate verdicts: %w", err)
	}
	s.logger.Debug("verdict cache loaded", logging.Int("entries", loaded))
	return loaded, nil
}

// Clear deletes every persisted verdict and reports how many were removed.
func (s *Store) Clear() (int64, error) {
	res, err := s.db.Exec("DELETE FROM verdicts")
	if err != nil {
		return 0, fmt.Errorf("clear verdicts: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count cleared verdicts: %w", err)
	}
	return removed, nil
}
