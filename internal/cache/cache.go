// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache persists derived full-text content keyed by publication
// identifier, with TTL-based staleness and lazy payload normalization.
// Backed by SQLite; one row per key, last write wins.
package cache

import (
	"bytes"
	"compress/gzip"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

const dbFile = "fulltext-cache.db"

const defaultTTLDays = 30

// Normalizer transforms a stored payload into its normalized form and
// returns the version tag to record with it. Injected; the cache never
// interprets payloads itself.
type Normalizer func(payload []byte) (normalized []byte, versionTag string, err error)

// Store is the content cache. Safe for concurrent use: SQLite serializes
// row writes, so concurrent saves of one key are last-write-wins without
// interleaving.
type Store struct {
	db        *sql.DB
	cfg       types.CacheConfig
	normalize Normalizer

	// now is swapped by tests to script staleness.
	now func() time.Time
}

// NewStore opens or creates the cache database at cfg.Dir/fulltext-cache.db
// and creates the schema if it does not exist. normalize may be nil, in
// which case GetNormalized behaves like Get.
func NewStore(cfg types.CacheConfig, normalize Normalizer) (*Store, error) {
	if cfg.TTLDays <= 0 {
		cfg.TTLDays = defaultTTLDays
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	s := &Store{db: db, cfg: cfg, normalize: normalize, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS entries (
		key TEXT PRIMARY KEY,
		cached_at TEXT NOT NULL,
		ttl_days INTEGER NOT NULL,
		source_file TEXT,
		source_type TEXT,
		parse_duration_ms INTEGER,
		quality_score REAL,
		normalized_tag TEXT,
		compressed INTEGER NOT NULL DEFAULT 0,
		content BLOB NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// Get reads the entry for key. A missing, stale, or corrupt entry is a miss
// (ok=false); stale entries are deleted when DeleteStaleOnRead is set, and
// corrupt entries are always deleted so the next parse self-heals them.
// err is reserved for real storage failures.
func (s *Store) Get(ctx context.Context, key string) (*types.CacheEntry, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT cached_at, ttl_days, source_file, source_type, parse_duration_ms,
			quality_score, normalized_tag, compressed, content
		 FROM entries WHERE key = ?`, key)

	var (
		cachedAt   string
		entry      = types.CacheEntry{Key: key}
		normalized sql.NullString
		compressed bool
		content    []byte
	)
	err := row.Scan(&cachedAt, &entry.TTLDays, &entry.SourceFile, &entry.SourceType,
		&entry.ParseDurationMs, &entry.QualityScore, &normalized, &compressed, &content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry %s: %w", key, err)
	}

	entry.CachedAt, err = time.Parse(time.RFC3339Nano, cachedAt)
	if err != nil {
		// Unreadable timestamp: corrupt entry, delete and miss.
		s.delete(ctx, key)
		return nil, false, nil
	}

	if entry.Stale(s.now()) {
		if s.cfg.DeleteStaleOnRead {
			s.delete(ctx, key)
		}
		return nil, false, nil
	}

	entry.Content, err = decodePayload(content, compressed)
	if err != nil {
		s.delete(ctx, key)
		return nil, false, nil
	}
	entry.NormalizedVersionTag = normalized.String

	return &entry, true, nil
}

// Save atomically overwrites the entry for key. The payload is stored
// verbatim (gzipped when compression is on; the encoding round-trips
// exactly).
func (s *Store) Save(ctx context.Context, key string, payload []byte, sourceFile, sourceType string, parseDuration time.Duration, qualityScore float64) error {
	return s.save(ctx, key, payload, sourceFile, sourceType, parseDuration.Milliseconds(), qualityScore, "")
}

func (s *Store) save(ctx context.Context, key string, payload []byte, sourceFile, sourceType string, parseDurationMs int64, qualityScore float64, normalizedTag string) error {
	content, compressed, err := encodePayload(payload, s.cfg.Compression)
	if err != nil {
		return fmt.Errorf("encoding payload for %s: %w", key, err)
	}

	var tag sql.NullString
	if normalizedTag != "" {
		tag = sql.NullString{String: normalizedTag, Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO entries (key, cached_at, ttl_days, source_file, source_type,
			parse_duration_ms, quality_score, normalized_tag, compressed, content)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
			cached_at=excluded.cached_at, ttl_days=excluded.ttl_days,
			source_file=excluded.source_file, source_type=excluded.source_type,
			parse_duration_ms=excluded.parse_duration_ms,
			quality_score=excluded.quality_score,
			normalized_tag=excluded.normalized_tag,
			compressed=excluded.compressed, content=excluded.content`,
		key, s.now().UTC().Format(time.RFC3339Nano), s.cfg.TTLDays, sourceFile, sourceType,
		parseDurationMs, qualityScore, tag, compressed, content)
	if err != nil {
		return fmt.Errorf("saving cache entry %s: %w", key, err)
	}
	return nil
}

// GetNormalized reads the entry for key and guarantees the returned payload
// is normalized. An untagged payload is normalized on the spot, re-saved
// under the same key, and returned: normalization is lazy and memoized, not
// a write-time obligation.
func (s *Store) GetNormalized(ctx context.Context, key string) (*types.CacheEntry, bool, error) {
	entry, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}
	if entry.NormalizedVersionTag != "" || s.normalize == nil {
		return entry, true, nil
	}

	normalized, tag, err := s.normalize(entry.Content)
	if err != nil {
		return nil, false, fmt.Errorf("normalizing cache entry %s: %w", key, err)
	}

	if err := s.save(ctx, key, normalized, entry.SourceFile, entry.SourceType,
		entry.ParseDurationMs, entry.QualityScore, tag); err != nil {
		return nil, false, err
	}

	entry.Content = normalized
	entry.NormalizedVersionTag = tag
	return entry, true, nil
}

// ClearStale deletes every entry past its TTL and returns the count. This
// is the only sweep; reads never trigger one.
func (s *Store) ClearStale(ctx context.Context) (int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, cached_at, ttl_days FROM entries`)
	if err != nil {
		return 0, fmt.Errorf("listing cache entries: %w", err)
	}
	defer rows.Close()

	now := s.now()
	var stale []string
	for rows.Next() {
		var key, cachedAt string
		var ttlDays int
		if err := rows.Scan(&key, &cachedAt, &ttlDays); err != nil {
			return 0, fmt.Errorf("scanning cache entry: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, cachedAt)
		if err != nil {
			// Unreadable rows are corrupt; sweep them too.
			stale = append(stale, key)
			continue
		}
		if now.Sub(t) > time.Duration(ttlDays)*24*time.Hour {
			stale = append(stale, key)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterating cache entries: %w", err)
	}

	for _, key := range stale {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE key = ?`, key); err != nil {
			return 0, fmt.Errorf("deleting stale entry %s: %w", key, err)
		}
	}
	return len(stale), nil
}

// Len returns the number of stored entries, stale ones included.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	return n, nil
}

func (s *Store) delete(ctx context.Context, key string) {
	s.db.ExecContext(ctx, `DELETE FROM entries WHERE key = ?`, key)
}

func encodePayload(payload []byte, compress bool) ([]byte, bool, error) {
	if !compress {
		return payload, false, nil
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(payload); err != nil {
		return nil, false, err
	}
	if err := zw.Close(); err != nil {
		return nil, false, err
	}
	return buf.Bytes(), true, nil
}

func decodePayload(content []byte, compressed bool) ([]byte, error) {
	if !compressed {
		return content, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
