// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ErrorKind is the closed taxonomy of retrieval and download failures.
type ErrorKind string

const (
	// ErrNone means no error.
	ErrNone ErrorKind = ""

	// ErrNotFound means no provider had a candidate.
	ErrNotFound ErrorKind = "not_found"

	// ErrTimeout means an operation exceeded its deadline.
	ErrTimeout ErrorKind = "timeout"

	// ErrInvalidArtifact means fetched bytes failed signature validation
	// and no landing-page extraction succeeded.
	ErrInvalidArtifact ErrorKind = "invalid_artifact"

	// ErrTransport is a network-level failure; retryable.
	ErrTransport ErrorKind = "transport_error"

	// ErrAllSourcesExhausted means download fallback across the full
	// ranked list failed.
	ErrAllSourcesExhausted ErrorKind = "all_sources_exhausted"

	// ErrCacheCorrupt means a stored cache entry was unreadable. Treated
	// as a miss; the entry is deleted.
	ErrCacheCorrupt ErrorKind = "cache_corrupt"

	// ErrConfiguration means the engine configuration is unusable, e.g. a
	// required credential is missing for an enabled provider. Fatal at
	// startup, never per-request.
	ErrConfiguration ErrorKind = "configuration_error"
)

// RetrievalSource records where a resolution answer came from.
type RetrievalSource string

const (
	SourceCache    RetrievalSource = "cache"
	SourceProvider RetrievalSource = "provider"
	SourceNone     RetrievalSource = "none"
)

// RetrievalOutcome is the result of one orchestration call. Success=false is
// an expected outcome (the artifact may not exist anywhere), not an error.
type RetrievalOutcome struct {
	Success bool `json:"success" yaml:"success"`

	// Best is the highest-ranked candidate, nil when none was found.
	Best *CandidateURL `json:"best,omitempty" yaml:"best,omitempty"`

	// Candidates lists every usable candidate, ascending by effective
	// priority. Waterfall resolution stops at the first hit, so it holds
	// at most one entry in that mode.
	Candidates []CandidateURL `json:"candidates,omitempty" yaml:"candidates,omitempty"`

	// Source reports whether the answer came from the cache, a provider,
	// or nowhere.
	Source RetrievalSource `json:"source" yaml:"source"`

	ErrorKind   ErrorKind `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	ErrorDetail string    `json:"error_detail,omitempty" yaml:"error_detail,omitempty"`
}

// DownloadAttempt is one entry in a download attempts log.
type DownloadAttempt struct {
	ProviderID string `json:"provider_id" yaml:"provider_id"`
	URL        string `json:"url" yaml:"url"`

	// Attempt is the 1-based retry counter for this URL.
	Attempt int `json:"attempt" yaml:"attempt"`

	// Outcome is "success" or the ErrorKind that ended the attempt.
	Outcome string `json:"outcome" yaml:"outcome"`

	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// DownloadOutcome is the result of fetching a ranked candidate list.
type DownloadOutcome struct {
	Success bool `json:"success" yaml:"success"`

	// ArtifactPath is the local path of the validated artifact.
	ArtifactPath string `json:"artifact_path,omitempty" yaml:"artifact_path,omitempty"`

	// SourceUsed is the provider whose URL produced the artifact.
	SourceUsed string `json:"source_used,omitempty" yaml:"source_used,omitempty"`

	ByteSize int64 `json:"byte_size" yaml:"byte_size"`

	// Attempts logs every URL attempt in order.
	Attempts []DownloadAttempt `json:"attempts,omitempty" yaml:"attempts,omitempty"`

	ErrorKind   ErrorKind `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	ErrorDetail string    `json:"error_detail,omitempty" yaml:"error_detail,omitempty"`
}
