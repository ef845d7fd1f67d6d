// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package download fetches ranked candidate URLs and produces one validated
// local artifact. Attempts run under a shared concurrency bound with
// per-URL retries and across-URL fallback; payloads are validated by magic
// bytes, with one nested landing-page extraction when the body turns out to
// be markup.
package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// pdfMagic is the PDF file signature.
var pdfMagic = []byte("%PDF-")

// maxArtifactBytes caps a single download so a misbehaving server cannot
// exhaust memory.
const maxArtifactBytes = 256 << 20

// Manager downloads artifacts for publication references. One manager is
// shared by all callers; its permit pool bounds simultaneous network
// attempts across every Fetch call.
type Manager struct {
	client  *http.Client
	cfg     types.DownloadConfig
	permits chan struct{}
	log     io.Writer

	// sleep is swapped by tests to avoid real retry delays.
	sleep func(time.Duration)
}

// NewManager builds a download manager. log may be nil.
func NewManager(cfg types.DownloadConfig, log io.Writer) *Manager {
	if cfg.MaxConcurrentDownloads <= 0 {
		cfg.MaxConcurrentDownloads = 3
	}
	if cfg.MaxRetriesPerURL <= 0 {
		cfg.MaxRetriesPerURL = 2
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = 10
	}
	if cfg.MinValidSize <= 0 {
		cfg.MinValidSize = 1024
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if log == nil {
		log = io.Discard
	}

	maxRedirects := cfg.MaxRedirects
	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}

	return &Manager{
		client:  client,
		cfg:     cfg,
		permits: make(chan struct{}, cfg.MaxConcurrentDownloads),
		log:     log,
		sleep:   time.Sleep,
	}
}

// attemptError classifies a failed URL attempt.
type attemptError struct {
	kind      types.ErrorKind
	detail    string
	transient bool
}

func (e *attemptError) Error() string { return e.detail }

// Fetch walks the ranked candidate list and returns the first validated
// artifact. candidates must already be sorted by effective priority; Fetch
// does not reorder them. Per-URL and per-attempt failures are recovered
// locally and logged in the outcome's attempts list; only the aggregate
// result crosses the boundary.
func (m *Manager) Fetch(ctx context.Context, ref types.PublicationRef, candidates []types.CandidateURL, outputDir string) types.DownloadOutcome {
	if outputDir == "" {
		outputDir = m.cfg.OutputDir
	}
	destPath := filepath.Join(outputDir, ref.Slug()+".pdf")

	// Opt-in short-circuit: a plausible artifact already on disk wins.
	// This is a filesystem presence check, distinct from the content cache.
	if m.cfg.SkipExisting {
		if info, err := os.Stat(destPath); err == nil && info.Size() >= m.cfg.MinValidSize {
			fmt.Fprintf(m.log, "skipped: %s (already exists)\n", destPath)
			return types.DownloadOutcome{
				Success:      true,
				ArtifactPath: destPath,
				ByteSize:     info.Size(),
			}
		}
	}

	if len(candidates) == 0 {
		return types.DownloadOutcome{
			ErrorKind:   types.ErrNotFound,
			ErrorDetail: "no candidate URLs to fetch",
		}
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return types.DownloadOutcome{
			ErrorKind:   types.ErrTransport,
			ErrorDetail: fmt.Sprintf("creating output directory: %v", err),
		}
	}

	var attempts []types.DownloadAttempt

	for _, cand := range candidates {
		for attempt := 1; attempt <= m.cfg.MaxRetriesPerURL; attempt++ {
			if ctx.Err() != nil {
				return types.DownloadOutcome{
					Attempts:    attempts,
					ErrorKind:   types.ErrTimeout,
					ErrorDetail: "download deadline exceeded",
				}
			}

			size, aerr := m.attemptURL(ctx, cand, destPath)
			if aerr == nil {
				attempts = append(attempts, types.DownloadAttempt{
					ProviderID: cand.ProviderID,
					URL:        cand.URL,
					Attempt:    attempt,
					Outcome:    "success",
				})
				return types.DownloadOutcome{
					Success:      true,
					ArtifactPath: destPath,
					SourceUsed:   cand.ProviderID,
					ByteSize:     size,
					Attempts:     attempts,
				}
			}

			attempts = append(attempts, types.DownloadAttempt{
				ProviderID: cand.ProviderID,
				URL:        cand.URL,
				Attempt:    attempt,
				Outcome:    string(aerr.kind),
				Detail:     aerr.detail,
			})
			fmt.Fprintf(m.log, "attempt %d for %s failed: %s\n", attempt, cand.URL, aerr.detail)

			// Definitive failures move straight to the next URL;
			// transient ones retry after a fixed delay.
			if !aerr.transient || attempt == m.cfg.MaxRetriesPerURL {
				break
			}
			m.sleep(m.cfg.RetryDelay)
		}
	}

	return types.DownloadOutcome{
		Attempts:    attempts,
		ErrorKind:   types.ErrAllSourcesExhausted,
		ErrorDetail: fmt.Sprintf("all %d candidate URLs exhausted", len(candidates)),
	}
}

// attemptURL performs one bounded attempt against a single candidate:
// permit, fetch, validate, optional nested landing-page extraction, persist.
func (m *Manager) attemptURL(ctx context.Context, cand types.CandidateURL, destPath string) (int64, *attemptError) {
	select {
	case m.permits <- struct{}{}:
	case <-ctx.Done():
		return 0, &attemptError{kind: types.ErrTimeout, detail: "cancelled waiting for a download permit"}
	}
	defer func() { <-m.permits }()

	actx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	body, aerr := m.fetchBody(actx, cand.URL)
	if aerr != nil {
		return 0, aerr
	}

	if !bytes.HasPrefix(body, pdfMagic) {
		if !looksLikeMarkup(body) {
			return 0, &attemptError{
				kind:   types.ErrInvalidArtifact,
				detail: fmt.Sprintf("payload from %s is not a PDF", cand.URL),
			}
		}

		// Exactly one nested extraction: find an embedded content link
		// in the landing page and re-fetch it within the same attempt.
		link, ok := extractContentLink(body, cand.URL)
		if !ok {
			return 0, &attemptError{
				kind:   types.ErrInvalidArtifact,
				detail: fmt.Sprintf("landing page %s has no extractable content link", cand.URL),
			}
		}
		fmt.Fprintf(m.log, "landing page %s -> %s\n", cand.URL, link)

		body, aerr = m.fetchBody(actx, link)
		if aerr != nil {
			return 0, aerr
		}
		if !bytes.HasPrefix(body, pdfMagic) {
			return 0, &attemptError{
				kind:   types.ErrInvalidArtifact,
				detail: fmt.Sprintf("extracted link %s did not yield a PDF", link),
			}
		}
	}

	if int64(len(body)) < m.cfg.MinValidSize {
		return 0, &attemptError{
			kind:   types.ErrInvalidArtifact,
			detail: fmt.Sprintf("artifact is %d bytes, below the %d byte minimum", len(body), m.cfg.MinValidSize),
		}
	}

	if err := writeAtomic(destPath, body); err != nil {
		return 0, &attemptError{kind: types.ErrTransport, detail: err.Error()}
	}

	if m.cfg.StrictValidation {
		if err := api.ValidateFile(destPath, nil); err != nil {
			os.Remove(destPath)
			return 0, &attemptError{
				kind:   types.ErrInvalidArtifact,
				detail: fmt.Sprintf("structural validation failed: %v", err),
			}
		}
	}

	return int64(len(body)), nil
}

// fetchBody performs one HTTP GET and reads the full body.
func (m *Manager) fetchBody(ctx context.Context, url string) ([]byte, *attemptError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &attemptError{kind: types.ErrTransport, detail: fmt.Sprintf("creating request: %v", err)}
	}
	req.Header.Set("User-Agent", m.cfg.UserAgent)
	req.Header.Set("Accept", "application/pdf, text/html;q=0.5, */*;q=0.1")

	resp, err := m.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, &attemptError{kind: types.ErrTimeout, detail: fmt.Sprintf("fetching %s: %v", url, err), transient: true}
		}
		return nil, &attemptError{kind: types.ErrTransport, detail: fmt.Sprintf("fetching %s: %v", url, err), transient: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// 429/503 signal a transient condition worth a retry; any other
		// non-2xx is definitive for this URL.
		transient := resp.StatusCode == http.StatusTooManyRequests ||
			resp.StatusCode == http.StatusServiceUnavailable
		return nil, &attemptError{
			kind:      types.ErrTransport,
			detail:    fmt.Sprintf("HTTP %d from %s", resp.StatusCode, url),
			transient: transient,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactBytes))
	if err != nil {
		return nil, &attemptError{kind: types.ErrTransport, detail: fmt.Sprintf("reading %s: %v", url, err), transient: true}
	}
	return body, nil
}

// writeAtomic persists bytes via a temp file and rename so a concurrent
// reader never observes a partial artifact.
func writeAtomic(destPath string, data []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".fetch-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
