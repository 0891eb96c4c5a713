package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Register driver
)

// DB wraps the sql.DB connection.
type DB struct {
	*sql.DB
}

// Init opens the database and runs migrations.
func Init(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=30000;"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	d := &DB{db}
	// Single connection; concurrent writers otherwise hit SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return d, nil
}

// TimeLayout matches the layout of DEFAULT CURRENT_TIMESTAMP.
const TimeLayout = "2006-01-02 15:04:05"

// Timestamp formats t the way SQLite stores CURRENT_TIMESTAMP so that string
// comparisons order correctly.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTimestamp is the inverse of Timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(TimeLayout, s, time.UTC)
}

// PruneCache removes cache entries older than the specified duration.
func (d *DB) PruneCache(olderThan time.Duration) (int64, error) {
	deadline := Timestamp(time.Now().Add(-olderThan))
	res, err := d.Exec("DELETE FROM cache WHERE created_at < ?", deadline)
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache: %w", err)
	}
	return res.RowsAffected()
}

// PruneAssetChecks removes asset check results older than the specified duration.
func (d *DB) PruneAssetChecks(olderThan time.Duration) (int64, error) {
	deadline := Timestamp(time.Now().Add(-olderThan))
	res, err := d.Exec("DELETE FROM asset_checks WHERE checked_at < ?", deadline)
	if err != nil {
		return 0, fmt.Errorf("failed to prune asset checks: %w", err)
	}
	return res.RowsAffected()
}

func (d *DB) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS persistent_state (
			key TEXT PRIMARY KEY,
			value TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS cache (
			key TEXT PRIMARY KEY,
			value BLOB,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS asset_checks (
			url TEXT PRIMARY KEY,
			status INTEGER,
			content_length INTEGER DEFAULT -1,
			checked_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS build_manifest (
			path TEXT PRIMARY KEY,
			story TEXT,
			primary_token TEXT,
			secondary_token TEXT,
			audio_url TEXT,
			built_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
	}

	for _, q := range queries {
		if _, err := d.Exec(q); err != nil {
			return fmt.Errorf("exec error: %w query: %s", err, q)
		}
	}

	// Older databases predate the content_length column.
	var colCount int
	err := d.QueryRow("SELECT count(*) FROM pragma_table_info('asset_checks') WHERE name='content_length'").Scan(&colCount)
	if err == nil && colCount == 0 {
		if _, err := d.Exec("ALTER TABLE asset_checks ADD COLUMN content_length INTEGER DEFAULT -1"); err != nil {
			return fmt.Errorf("failed to add content_length column: %w", err)
		}
	}

	return nil
}
