package folio

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	_ "modernc.org/sqlite"
)

// CacheState is what a Store persists: the entries and whether the
// aggregate pages still have to be regenerated from them.
type CacheState struct {
	Entries           map[string]CacheEntry
	AggregatesPending bool
}

// Store persists the cache state between runs.
type Store interface {
	// Load returns the stored state. A store that was never saved yields
	// an empty state. Undecodable content is reported as ErrCorruptCache.
	Load() (CacheState, error)
	// Save replaces the stored state.
	Save(state CacheState) error
	Close() error
}

// OpenStore picks the backend from the file extension: ".db", ".sqlite" and
// ".sqlite3" select SQLite, anything else a single codec-encoded file on fsys.
func OpenStore(fsys afero.Fs, path string, codec Codec) (Store, error) {
	if codec == nil {
		codec = NewCBORCodec()
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return NewSQLiteStore(path, codec)
	}
	return NewFileStore(fsys, path, codec), nil
}

// FileStore keeps the whole cache in one blob.
type FileStore struct {
	fs    afero.Fs
	path  string
	codec Codec
}

// NewFileStore creates a store for the blob at path.
func NewFileStore(fsys afero.Fs, path string, codec Codec) *FileStore {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &FileStore{fs: fsys, path: path, codec: codec}
}

func (s *FileStore) Load() (CacheState, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return CacheState{Entries: map[string]CacheEntry{}}, nil
		}
		return CacheState{}, fmt.Errorf("read cache %s: %w", s.path, err)
	}

	var file cacheFile
	if err := s.codec.Unmarshal(data, &file); err != nil {
		return CacheState{}, fmt.Errorf("%w: %s: %v", ErrCorruptCache, s.path, err)
	}
	if file.Version != cacheFormatVersion {
		return CacheState{}, fmt.Errorf("%w: %s: unsupported version %d", ErrCorruptCache, s.path, file.Version)
	}
	entries := make(map[string]CacheEntry, len(file.Entries))
	for input, rec := range file.Entries {
		e, err := fromRecord(rec)
		if err != nil {
			return CacheState{}, fmt.Errorf("%w: %s: %v", ErrCorruptCache, s.path, err)
		}
		entries[input] = e
	}
	return CacheState{Entries: entries, AggregatesPending: file.AggregatesPending}, nil
}

// Save writes to a temporary file next to the target and renames it over
// the target, so an interrupted save leaves the previous cache intact.
func (s *FileStore) Save(state CacheState) error {
	file := cacheFile{
		Version:           cacheFormatVersion,
		Entries:           make(map[string]entryRecord, len(state.Entries)),
		AggregatesPending: state.AggregatesPending,
	}
	for input, e := range state.Entries {
		file.Entries[input] = toRecord(e)
	}
	data, err := s.codec.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := afero.TempFile(s.fs, dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp cache: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return fmt.Errorf("write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("write cache: %w", err)
	}
	if err := s.fs.Rename(tmpName, s.path); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("replace cache: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

// SQLiteStore keeps one row per document, each holding the codec-encoded
// entry.
type SQLiteStore struct {
	db    *sql.DB
	path  string
	codec Codec
}

// NewSQLiteStore opens (or creates) the SQLite database at path, ensures the
// directory exists, and creates the schema.
func NewSQLiteStore(path string, codec Codec) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// The cache is written once per pass by a single process.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptCache, path, err)
	}
	db.SetMaxOpenConns(1)
	s := &SQLiteStore{db: db, path: path, codec: codec}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS cache_meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS cache_entries (
    input TEXT PRIMARY KEY,
    entry BLOB NOT NULL
);
`)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorruptCache, s.path, err)
	}
	return nil
}

func (s *SQLiteStore) meta(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM cache_meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func (s *SQLiteStore) Load() (CacheState, error) {
	meta := make(map[string]string, 3)
	for _, key := range []string{"version", "codec", "aggregates_pending"} {
		value, err := s.meta(key)
		if err != nil {
			return CacheState{}, fmt.Errorf("read cache meta: %w", err)
		}
		meta[key] = value
	}
	state := CacheState{Entries: map[string]CacheEntry{}}
	version, codec := meta["version"], meta["codec"]
	if version == "" {
		return state, nil
	}
	if version != strconv.Itoa(cacheFormatVersion) || codec != s.codec.Name() {
		return CacheState{}, fmt.Errorf("%w: %s: written as version %s with %s", ErrCorruptCache, s.path, version, codec)
	}
	state.AggregatesPending = meta["aggregates_pending"] == "true"

	rows, err := s.db.Query(`SELECT input, entry FROM cache_entries ORDER BY input`)
	if err != nil {
		return CacheState{}, fmt.Errorf("read cache entries: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var input string
		var blob []byte
		if err := rows.Scan(&input, &blob); err != nil {
			return CacheState{}, err
		}
		var rec entryRecord
		if err := s.codec.Unmarshal(blob, &rec); err != nil {
			return CacheState{}, fmt.Errorf("%w: %s: entry %s: %v", ErrCorruptCache, s.path, input, err)
		}
		e, err := fromRecord(rec)
		if err != nil {
			return CacheState{}, fmt.Errorf("%w: %s: %v", ErrCorruptCache, s.path, err)
		}
		state.Entries[input] = e
	}
	if err := rows.Err(); err != nil {
		return CacheState{}, err
	}
	return state, nil
}

// Save replaces all rows in one transaction.
func (s *SQLiteStore) Save(state CacheState) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM cache_entries`); err != nil {
		return fmt.Errorf("clear cache entries: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO cache_entries (input, entry) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for input, e := range state.Entries {
		blob, err := s.codec.Marshal(toRecord(e))
		if err != nil {
			return fmt.Errorf("encode cache entry %s: %w", input, err)
		}
		if _, err := stmt.Exec(input, blob); err != nil {
			return fmt.Errorf("store cache entry %s: %w", input, err)
		}
	}
	for key, value := range map[string]string{
		"version":            strconv.Itoa(cacheFormatVersion),
		"codec":              s.codec.Name(),
		"aggregates_pending": strconv.FormatBool(state.AggregatesPending),
	} {
		if _, err := tx.Exec(`INSERT INTO cache_meta (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
			return fmt.Errorf("store cache meta: %w", err)
		}
	}
	return tx.Commit()
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
