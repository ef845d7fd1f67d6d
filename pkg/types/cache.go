// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// CacheEntry is one persisted derived-content record, keyed by publication
// identifier. One entry per key; last write wins.
type CacheEntry struct {
	// Key is the publication identifier.
	Key string `json:"key" yaml:"key"`

	// CachedAt is the write timestamp; staleness is evaluated against it
	// on every read.
	CachedAt time.Time `json:"cached_at" yaml:"cached_at"`

	// TTLDays is the entry's time-to-live in days.
	TTLDays int `json:"ttl_days" yaml:"ttl_days"`

	// SourceFile is the local artifact the content was derived from.
	SourceFile string `json:"source_file" yaml:"source_file"`

	// SourceType describes the artifact format, e.g. "pdf".
	SourceType string `json:"source_type" yaml:"source_type"`

	// ParseDurationMs records how long the external extractor took.
	ParseDurationMs int64 `json:"parse_duration_ms" yaml:"parse_duration_ms"`

	// QualityScore is the extractor's quality estimate for the content.
	QualityScore float64 `json:"quality_score" yaml:"quality_score"`

	// Content is the derived payload. Opaque to the cache beyond
	// compression, which round-trips exactly.
	Content []byte `json:"content" yaml:"content"`

	// NormalizedVersionTag is set once the payload has passed through the
	// normalization transform. Untagged payloads are normalized lazily on
	// read.
	NormalizedVersionTag string `json:"normalized_version_tag,omitempty" yaml:"normalized_version_tag,omitempty"`
}

// Stale reports whether the entry has outlived its TTL at the given time.
func (e CacheEntry) Stale(now time.Time) bool {
	return now.Sub(e.CachedAt) > time.Duration(e.TTLDays)*24*time.Hour
}
