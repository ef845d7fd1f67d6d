package types

import (
	"fmt"
	"time"
)

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "fulltext-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ProvidersConfig enables individual source providers and carries their
// credentials. Some providers refuse anonymous use: an enabled provider with
// a missing required credential is a configuration error at startup.
type ProvidersConfig struct {
	HTTPConfig `yaml:",inline"`

	EnableArxiv           bool `json:"enable_arxiv" yaml:"enable_arxiv"`
	EnableOpenAlex        bool `json:"enable_openalex" yaml:"enable_openalex"`
	EnableUnpaywall       bool `json:"enable_unpaywall" yaml:"enable_unpaywall"`
	EnableCrossref        bool `json:"enable_crossref" yaml:"enable_crossref"`
	EnableSemanticScholar bool `json:"enable_semantic_scholar" yaml:"enable_semantic_scholar"`
	EnableCORE            bool `json:"enable_core" yaml:"enable_core"`
	EnableEuropePMC       bool `json:"enable_europepmc" yaml:"enable_europepmc"`
	EnableDOAJ            bool `json:"enable_doaj" yaml:"enable_doaj"`

	// UnpaywallEmail is required by the Unpaywall API terms.
	UnpaywallEmail string `json:"unpaywall_email,omitempty" yaml:"unpaywall_email,omitempty"`

	// COREAPIKey is required for the CORE v3 API.
	COREAPIKey string `json:"core_api_key,omitempty" yaml:"core_api_key,omitempty"`

	// SemanticScholarAPIKey is optional; it raises rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// MinRequestInterval is the minimum spacing between requests to any
	// one provider (default 1s). Each provider throttles independently.
	MinRequestInterval time.Duration `json:"min_request_interval" yaml:"min_request_interval"`
}

// ResolverConfig holds settings for the retrieval orchestrator.
type ResolverConfig struct {
	// MaxConcurrentProviders bounds concurrent provider queries in
	// parallel collect-all mode (default 4).
	MaxConcurrentProviders int `json:"max_concurrent_providers" yaml:"max_concurrent_providers"`

	// PerSourceTimeout bounds each individual provider query (default 15s).
	PerSourceTimeout time.Duration `json:"per_source_timeout" yaml:"per_source_timeout"`
}

// DownloadConfig holds settings for the download manager.
type DownloadConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxConcurrentDownloads bounds simultaneous download attempts across
	// all Fetch calls sharing the manager (default 3).
	MaxConcurrentDownloads int `json:"max_concurrent_downloads" yaml:"max_concurrent_downloads"`

	// MaxRetriesPerURL is the number of attempts per candidate URL before
	// falling back to the next one (default 2).
	MaxRetriesPerURL int `json:"max_retries_per_url" yaml:"max_retries_per_url"`

	// RetryDelay is the fixed wait between attempts on the same URL (default 2s).
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay"`

	// MaxRedirects bounds redirect hops per fetch (default 10).
	MaxRedirects int `json:"max_redirects" yaml:"max_redirects"`

	// MinValidSize is the smallest byte count accepted as a plausible
	// artifact (default 1024). Also the threshold for the skip-if-exists
	// check.
	MinValidSize int64 `json:"min_valid_size" yaml:"min_valid_size"`

	// SkipExisting short-circuits a fetch when the destination file
	// already exists and meets MinValidSize. Opt-in; this is a filesystem
	// presence check, not content caching.
	SkipExisting bool `json:"skip_existing" yaml:"skip_existing"`

	// StrictValidation runs a full structural PDF validation after the
	// magic-byte check.
	StrictValidation bool `json:"strict_validation" yaml:"strict_validation"`

	// OutputDir is the directory artifacts are written to.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// CacheConfig holds settings for the content cache.
type CacheConfig struct {
	// Dir is the directory holding the cache database.
	Dir string `json:"dir" yaml:"dir"`

	// TTLDays is the time-to-live applied to new entries (default 30).
	TTLDays int `json:"ttl_days" yaml:"ttl_days"`

	// Compression gzips stored payloads. An encoding detail: reads
	// round-trip exactly either way.
	Compression bool `json:"compression" yaml:"compression"`

	// DeleteStaleOnRead physically removes a stale entry when a read
	// detects it (default true). Either way the read reports a miss.
	DeleteStaleOnRead bool `json:"delete_stale_on_read" yaml:"delete_stale_on_read"`
}

// EngineConfig groups all component configurations.
type EngineConfig struct {
	Providers ProvidersConfig `json:"providers" yaml:"providers"`
	Resolver  ResolverConfig  `json:"resolver" yaml:"resolver"`
	Download  DownloadConfig  `json:"download" yaml:"download"`
	Cache     CacheConfig     `json:"cache" yaml:"cache"`
}

// Validate checks constraints that must fail fast at startup rather than
// surface per-request.
func (c EngineConfig) Validate() error {
	if c.Providers.EnableUnpaywall && c.Providers.UnpaywallEmail == "" {
		return fmt.Errorf("%s: unpaywall enabled but unpaywall_email is not set", ErrConfiguration)
	}
	if c.Providers.EnableCORE && c.Providers.COREAPIKey == "" {
		return fmt.Errorf("%s: core enabled but core_api_key is not set", ErrConfiguration)
	}
	if c.Cache.TTLDays < 0 {
		return fmt.Errorf("%s: cache ttl_days must not be negative", ErrConfiguration)
	}
	return nil
}
