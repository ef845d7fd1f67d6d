// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolver orchestrates source providers to locate a full-text
// artifact for a publication reference. It supports two reconciliation
// strategies: a sequential waterfall that stops at the first usable
// candidate, and a parallel collect-all that ranks every answer by
// classifier-adjusted priority.
package resolver

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/fulltext-engine/internal/classify"
	"github.com/pdiddy/fulltext-engine/internal/provider"
	"github.com/pdiddy/fulltext-engine/pkg/types"
)

const defaultPerSourceTimeout = 15 * time.Second

// ContentCache is the slice of the cache the resolver needs: a read check
// keyed by publication identifier. A hit short-circuits provider querying.
type ContentCache interface {
	Get(ctx context.Context, key string) (*types.CacheEntry, bool, error)
}

// Resolver coordinates providers, the URL classifier, and the content cache
// for one engine instance. Safe for concurrent use.
type Resolver struct {
	providers []provider.Provider
	cache     ContentCache
	cfg       types.ResolverConfig
	stats     *Stats
	log       io.Writer
}

// New builds a Resolver over an ordered provider list. cache may be nil
// (no short-circuit), and stats may be nil (the resolver owns a private
// aggregator); pass a shared Stats to aggregate across resolvers.
func New(providers []provider.Provider, cache ContentCache, cfg types.ResolverConfig, stats *Stats, log io.Writer) *Resolver {
	if cfg.PerSourceTimeout <= 0 {
		cfg.PerSourceTimeout = defaultPerSourceTimeout
	}
	if cfg.MaxConcurrentProviders <= 0 {
		cfg.MaxConcurrentProviders = 4
	}
	if stats == nil {
		stats = NewStats()
	}
	if log == nil {
		log = io.Discard
	}
	return &Resolver{providers: providers, cache: cache, cfg: cfg, stats: stats, log: log}
}

// Resolve runs the waterfall strategy: cache first, then providers in base
// priority order, sequentially, stopping at the first usable candidate.
// Providers named in skip are not queried; callers pass the set of providers
// already exhausted by a failed download so a retry does not re-query them.
func (r *Resolver) Resolve(ctx context.Context, ref types.PublicationRef, skip map[string]bool) types.RetrievalOutcome {
	if out, ok := r.cacheLookup(ctx, ref); ok {
		return out
	}

	for _, p := range r.providers {
		if skip[p.ID()] {
			continue
		}
		if ctx.Err() != nil {
			return r.finish(types.RetrievalOutcome{
				Source:      types.SourceNone,
				ErrorKind:   types.ErrTimeout,
				ErrorDetail: "orchestration deadline exceeded",
			})
		}

		cand := r.queryOne(ctx, p, ref)
		if cand == nil {
			continue
		}

		r.stats.recordSuccess(cand.ProviderID)
		return r.finish(types.RetrievalOutcome{
			Success:    true,
			Best:       cand,
			Candidates: []types.CandidateURL{*cand},
			Source:     types.SourceProvider,
		})
	}

	if ctx.Err() != nil {
		return r.finish(types.RetrievalOutcome{
			Source:      types.SourceNone,
			ErrorKind:   types.ErrTimeout,
			ErrorDetail: "orchestration deadline exceeded",
		})
	}
	return r.finish(types.RetrievalOutcome{
		Source:      types.SourceNone,
		ErrorKind:   types.ErrNotFound,
		ErrorDetail: "no provider returned a usable candidate",
	})
}

// queryOne queries a single provider under the per-source timeout and
// annotates any answer. Errors and timeouts are recovered locally: they
// count as "no candidate" and the walk continues.
func (r *Resolver) queryOne(ctx context.Context, p provider.Provider, ref types.PublicationRef) *types.CandidateURL {
	qctx, cancel := context.WithTimeout(ctx, r.cfg.PerSourceTimeout)
	defer cancel()

	cand, err := p.Query(qctx, ref)
	if err != nil {
		fmt.Fprintf(r.log, "warning: provider %s failed: %v\n", p.ID(), err)
		return nil
	}
	if cand == nil || cand.URL == "" {
		return nil
	}
	if classify.ShouldSkip(cand.URL) {
		fmt.Fprintf(r.log, "warning: provider %s returned a skipped URL: %s\n", p.ID(), cand.URL)
		return nil
	}

	if cand.ProviderID == "" {
		cand.ProviderID = p.ID()
	}
	if cand.BasePriority == 0 {
		cand.BasePriority = p.BasePriority()
	}
	classify.Annotate(cand)
	return cand
}

// cacheLookup checks the content cache. A hit is a complete outcome; a miss
// or a cache error (logged) lets provider querying proceed.
func (r *Resolver) cacheLookup(ctx context.Context, ref types.PublicationRef) (types.RetrievalOutcome, bool) {
	r.stats.recordAttempt()

	if r.cache == nil {
		return types.RetrievalOutcome{}, false
	}

	entry, ok, err := r.cache.Get(ctx, ref.ID)
	if err != nil {
		fmt.Fprintf(r.log, "warning: cache read for %s failed: %v\n", ref.ID, err)
		return types.RetrievalOutcome{}, false
	}
	if !ok {
		return types.RetrievalOutcome{}, false
	}

	r.stats.recordSuccess("cache")
	best := &types.CandidateURL{
		URL:        entry.SourceFile,
		ProviderID: "cache",
		Confidence: 1,
		Metadata:   map[string]string{"source_type": entry.SourceType},
	}
	return types.RetrievalOutcome{
		Success: true,
		Best:    best,
		Source:  types.SourceCache,
	}, true
}

// finish records a failure for unsuccessful outcomes. Successes are counted
// where the winning provider is known.
func (r *Resolver) finish(out types.RetrievalOutcome) types.RetrievalOutcome {
	if !out.Success {
		r.stats.recordFailure()
	}
	return out
}
