package store

import (
	"bytes"
	"compress/gzip"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"poppybuddy/pkg/db"
)

// Store composes all sub-interfaces for full store access.
// Consumers should depend on specific sub-interfaces when possible.
type Store interface {
	CacheStore
	StateStore
	AssetStore
	ManifestStore

	// Close closes the store connection.
	Close() error
}

// SQLiteStore implements Store.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a new store.
func NewSQLiteStore(d *db.DB) *SQLiteStore {
	return &SQLiteStore{db: d}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Cache ---

func (s *SQLiteStore) GetCache(ctx context.Context, key string) ([]byte, bool) {
	var val []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM cache WHERE key = ?", key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		slog.Warn("Cache read failed", "key", key, "error", err)
		return nil, false
	}

	// Transparent decompression; raw values pass through.
	if len(val) > 2 && val[0] == 0x1f && val[1] == 0x8b {
		if decompressed, err := decompress(val); err == nil {
			return decompressed, true
		}
	}
	return val, true
}

var (
	gzipWriterPool = sync.Pool{
		New: func() interface{} {
			return gzip.NewWriter(io.Discard)
		},
	}
	bufferPool = sync.Pool{
		New: func() interface{} {
			return new(bytes.Buffer)
		},
	}
)

func compress(data []byte) ([]byte, error) {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufferPool.Put(buf)

	w := gzipWriterPool.Get().(*gzip.Writer)
	defer gzipWriterPool.Put(w)
	w.Reset(buf)

	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	// buf goes back to the pool
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

func decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (s *SQLiteStore) SetCache(ctx context.Context, key string, val []byte) error {
	if compressed, err := compress(val); err == nil {
		val = compressed
	}

	query := `INSERT OR REPLACE INTO cache (key, value, created_at) VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, key, val, db.Timestamp(time.Now()))
	return err
}

// --- State ---

func (s *SQLiteStore) GetState(ctx context.Context, key string) (string, bool) {
	var val string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM persistent_state WHERE key = ?", key).Scan(&val)
	if err != nil {
		return "", false
	}
	return val, true
}

func (s *SQLiteStore) SetState(ctx context.Context, key, val string) error {
	query := `INSERT OR REPLACE INTO persistent_state (key, value, created_at) VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, key, val, db.Timestamp(time.Now()))
	return err
}

func (s *SQLiteStore) DeleteState(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM persistent_state WHERE key = ?", key)
	return err
}

// --- Asset checks ---

func (s *SQLiteStore) GetAssetCheck(ctx context.Context, url string) (*AssetCheck, bool) {
	c := &AssetCheck{URL: url}
	var checkedAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT status, content_length, CAST(checked_at AS TEXT) FROM asset_checks WHERE url = ?", url).
		Scan(&c.Status, &c.ContentLength, &checkedAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Warn("Asset check read failed", "url", url, "error", err)
		}
		return nil, false
	}
	if t, err := db.ParseTimestamp(checkedAt); err == nil {
		c.CheckedAt = t
	}
	return c, true
}

func (s *SQLiteStore) SaveAssetCheck(ctx context.Context, c *AssetCheck) error {
	checked := c.CheckedAt
	if checked.IsZero() {
		checked = time.Now()
	}
	query := `INSERT OR REPLACE INTO asset_checks (url, status, content_length, checked_at) VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, c.URL, c.Status, c.ContentLength, db.Timestamp(checked)); err != nil {
		return fmt.Errorf("failed to save asset check: %w", err)
	}
	return nil
}

// --- Build manifest ---

// ReplaceManifest swaps the whole manifest in one transaction.
func (s *SQLiteStore) ReplaceManifest(ctx context.Context, entries []ManifestEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM build_manifest"); err != nil {
		return fmt.Errorf("failed to clear manifest: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO build_manifest
		(path, story, primary_token, secondary_token, audio_url, built_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare manifest insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for i := range entries {
		e := &entries[i]
		built := e.BuiltAt
		if built.IsZero() {
			built = now
		}
		if _, err := stmt.ExecContext(ctx, e.Path, e.Story, e.PrimaryToken, e.SecondaryToken, e.AudioURL, db.Timestamp(built)); err != nil {
			return fmt.Errorf("failed to insert manifest entry %s: %w", e.Path, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) ListManifest(ctx context.Context) ([]ManifestEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, story, primary_token, secondary_token, audio_url, CAST(built_at AS TEXT)
		FROM build_manifest ORDER BY path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ManifestEntry
	for rows.Next() {
		var e ManifestEntry
		var built string
		if err := rows.Scan(&e.Path, &e.Story, &e.PrimaryToken, &e.SecondaryToken, &e.AudioURL, &built); err != nil {
			return nil, err
		}
		if t, err := db.ParseTimestamp(built); err == nil {
			e.BuiltAt = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
