package database

import (
	"database/sql"
	"fmt"
	"time"

	"imagecluster/logging"
	"imagecluster/types"

	_ "github.com/mattn/go-sqlite3"
)

// InitDatabase opens the fingerprint cache and creates its schema
func InitDatabase(dbPath string) (*sql.DB, error) {
	db, err := OpenDatabase(dbPath)
	if err != nil {
		return nil, err
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS fingerprints (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL,
		file_name TEXT,
		format TEXT,
		width INTEGER,
		height INTEGER,
		created_at TEXT,
		modified_at TEXT,
		size INTEGER,
		algorithm TEXT NOT NULL,
		bits INTEGER NOT NULL,
		fingerprint TEXT NOT NULL,
		UNIQUE(path, algorithm)
	);
	CREATE INDEX IF NOT EXISTS idx_path ON fingerprints(path);
	CREATE INDEX IF NOT EXISTS idx_fingerprint ON fingerprints(algorithm, fingerprint);`

	if _, err = db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot create fingerprint schema: %w", err)
	}

	return db, nil
}

// OpenDatabase opens a cache connection. Workers share it, so writes are
// funnelled through a single connection to avoid SQLITE_BUSY.
func OpenDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// LookupFingerprint returns the cached record for path under the given
// algorithm. The record only counts as a hit when the file has not been
// modified since it was stored and the bit width is the expected one.
func LookupFingerprint(db *sql.DB, path, algorithm string, bits int, modTime time.Time) (types.ImageInfo, bool, error) {
	var info types.ImageInfo
	var fileName, format sql.NullString

	err := db.QueryRow(`
		SELECT id, path, file_name, format, width, height, created_at, modified_at, size, algorithm, bits, fingerprint
		FROM fingerprints WHERE path = ? AND algorithm = ?`, path, algorithm).Scan(
		&info.ID, &info.Path, &fileName, &format, &info.Width, &info.Height,
		&info.CreatedAt, &info.ModifiedAt, &info.Size, &info.Algorithm, &info.Bits, &info.Fingerprint,
	)
	if err == sql.ErrNoRows {
		return info, false, nil
	}
	if err != nil {
		return info, false, fmt.Errorf("database error for %s: %w", path, err)
	}
	info.FileName = fileName.String
	info.Format = format.String

	storedTime, err := time.Parse(time.RFC3339Nano, info.ModifiedAt)
	if err != nil {
		return info, false, fmt.Errorf("cannot parse stored time for %s: %w", path, err)
	}

	if modTime.After(storedTime) {
		logging.DebugLog("Cached fingerprint is stale: %s", path)
		return info, false, nil
	}
	if info.Bits != bits {
		logging.DebugLog("Cached fingerprint has %d bits, want %d: %s", info.Bits, bits, path)
		return info, false, nil
	}

	return info, true, nil
}

// StoreFingerprint inserts or replaces the cached record for an image
func StoreFingerprint(db *sql.DB, info types.ImageInfo) error {
	now := time.Now().Format(time.RFC3339)

	stmt, err := db.Prepare(`
		INSERT OR REPLACE INTO fingerprints (
			path, file_name, format, width, height, created_at, modified_at, size, algorithm, bits, fingerprint
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("cannot prepare statement for %s: %w", info.Path, err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(
		info.Path,
		info.FileName,
		info.Format,
		info.Width,
		info.Height,
		now,
		info.ModifiedAt,
		info.Size,
		info.Algorithm,
		info.Bits,
		info.Fingerprint,
	)
	if err != nil {
		return fmt.Errorf("cannot insert data for %s: %w", info.Path, err)
	}

	return nil
}

// CacheStats contains statistics about the fingerprint cache
type CacheStats struct {
	TotalEntries       int
	UniqueFingerprints int
}

// GetCacheStats counts cached fingerprints for one algorithm
func GetCacheStats(db *sql.DB, algorithm string) (*CacheStats, error) {
	var stats CacheStats

	err := db.QueryRow("SELECT COUNT(*) FROM fingerprints WHERE algorithm = ?", algorithm).Scan(&stats.TotalEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to count cache entries: %w", err)
	}

	err = db.QueryRow("SELECT COUNT(DISTINCT fingerprint) FROM fingerprints WHERE algorithm = ?", algorithm).Scan(&stats.UniqueFingerprints)
	if err != nil {
		return nil, fmt.Errorf("failed to count unique fingerprints: %w", err)
	}

	return &stats, nil
}
