// Package store caches parsed bibliography entries in a SQLite database so
// unchanged files skip re-parsing on every invocation.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/folio-bib/folio/internal/bib"
	"github.com/folio-bib/folio/internal/record"
	"github.com/folio-bib/folio/internal/sqlutil"
)

const (
	schemaVersion = 1
	databaseName  = "records.db"
)

// Store is the parse-cache database handle.
type Store struct {
	db *sql.DB
}

// FileStamp identifies one version of a file. Two stats with equal stamps
// are assumed to have equal contents.
type FileStamp struct {
	MtimeNs int64
	Size    int64
}

// Stamp stats path and returns its current stamp.
func Stamp(path string) (FileStamp, error) {
	st, err := os.Stat(path)
	if err != nil {
		return FileStamp{}, err
	}
	return FileStamp{MtimeNs: st.ModTime().UnixNano(), Size: st.Size()}, nil
}

// Open opens or creates the cache database inside dir. A database written
// by a different schema version is deleted and recreated; the cache holds
// nothing that cannot be re-parsed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	dbPath := filepath.Join(dir, databaseName)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	version, err := userVersion(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	if version != 0 && version != schemaVersion {
		db.Close()
		if err := removeDatabaseFiles(dbPath); err != nil {
			return nil, err
		}
		db, err = sql.Open("sqlite", dbPath)
		if err != nil {
			return nil, fmt.Errorf("open cache database: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func userVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("read cache schema version: %w", err)
	}
	return version, nil
}

func removeDatabaseFiles(dbPath string) error {
	for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove stale cache file %s: %w", p, err)
		}
	}
	return nil
}

func (s *Store) initialize() error {
	schema := `
	PRAGMA journal_mode = WAL;
	PRAGMA synchronous = NORMAL;

	CREATE TABLE IF NOT EXISTS files (
		path     TEXT PRIMARY KEY,
		mtime_ns INTEGER NOT NULL,
		size     INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS entries (
		path     TEXT NOT NULL,
		position INTEGER NOT NULL,
		key      TEXT NOT NULL,
		fields   TEXT NOT NULL,
		PRIMARY KEY (path, position)
	);
	CREATE INDEX IF NOT EXISTS idx_entries_key ON entries(key);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("initialize cache schema: %w", err)
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("set cache schema version: %w", err)
	}
	return nil
}

// Lookup returns the cached entries for path at stamp. ok is false when the
// path is unknown or was cached at a different stamp.
func (s *Store) Lookup(path string, stamp FileStamp) ([]bib.Entry, bool, error) {
	path = normalizePath(path)

	var cached FileStamp
	err := s.db.QueryRow("SELECT mtime_ns, size FROM files WHERE path = ?", path).
		Scan(&cached.MtimeNs, &cached.Size)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query cached file: %w", err)
	}
	if cached != stamp {
		return nil, false, nil
	}

	rows, err := s.db.Query(
		"SELECT key, fields FROM entries WHERE path = ? ORDER BY position", path)
	if err != nil {
		return nil, false, fmt.Errorf("query cached entries: %w", err)
	}
	entries, err := sqlutil.ScanRows(rows, func(rows *sql.Rows) (bib.Entry, error) {
		var key, fieldsJSON string
		if err := rows.Scan(&key, &fieldsJSON); err != nil {
			return bib.Entry{}, err
		}
		var fields map[string]string
		if err := json.Unmarshal([]byte(fieldsJSON), &fields); err != nil {
			return bib.Entry{}, fmt.Errorf("decode cached entry %q: %w", key, err)
		}
		return bib.Entry{Key: key, Record: record.New(fields)}, nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("read cached entries: %w", err)
	}
	return entries, true, nil
}

// Put replaces the cached entries for path.
func (s *Store) Put(path string, stamp FileStamp, entries []bib.Entry) error {
	path = normalizePath(path)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin cache write: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM entries WHERE path = ?", path); err != nil {
		return fmt.Errorf("clear cached entries: %w", err)
	}
	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO files (path, mtime_ns, size) VALUES (?, ?, ?)",
		path, stamp.MtimeNs, stamp.Size); err != nil {
		return fmt.Errorf("store cached file: %w", err)
	}

	stmt, err := tx.Prepare(
		"INSERT INTO entries (path, position, key, fields) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare entry insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		fieldsJSON, err := json.Marshal(e.Record.Map())
		if err != nil {
			return fmt.Errorf("encode entry %q: %w", e.Key, err)
		}
		if _, err := stmt.Exec(path, i, e.Key, string(fieldsJSON)); err != nil {
			return fmt.Errorf("store entry %q: %w", e.Key, err)
		}
	}
	return tx.Commit()
}

// Prune drops cached rows for files not in keep.
func (s *Store) Prune(keep []string) error {
	set := make(map[string]bool, len(keep))
	for _, p := range keep {
		set[normalizePath(p)] = true
	}

	rows, err := s.db.Query("SELECT path FROM files")
	if err != nil {
		return fmt.Errorf("list cached files: %w", err)
	}
	cached, err := sqlutil.ScanRows(rows, func(rows *sql.Rows) (string, error) {
		var path string
		err := rows.Scan(&path)
		return path, err
	})
	if err != nil {
		return fmt.Errorf("read cached paths: %w", err)
	}

	var stale []string
	for _, path := range cached {
		if !set[path] {
			stale = append(stale, path)
		}
	}
	if len(stale) == 0 {
		return nil
	}

	inClause, args := sqlutil.InClauseArgs(stale)
	if _, err := s.db.Exec(
		fmt.Sprintf("DELETE FROM entries WHERE path IN (%s)", inClause), args...); err != nil {
		return fmt.Errorf("prune cached entries: %w", err)
	}
	if _, err := s.db.Exec(
		fmt.Sprintf("DELETE FROM files WHERE path IN (%s)", inClause), args...); err != nil {
		return fmt.Errorf("prune cached files: %w", err)
	}
	return nil
}

func normalizePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// CachedPaths returns the normalized paths currently held by the cache, for
// diagnostics.
func (s *Store) CachedPaths() ([]string, error) {
	rows, err := s.db.Query("SELECT path FROM files ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("list cached files: %w", err)
	}
	paths, err := sqlutil.ScanRows(rows, func(rows *sql.Rows) (string, error) {
		var path string
		err := rows.Scan(&path)
		return path, err
	})
	if err != nil {
		return nil, fmt.Errorf("read cached paths: %w", err)
	}
	return paths, nil
}
