// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolver

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// ResolveAll runs the parallel collect-all strategy: every provider is
// queried concurrently under the per-provider concurrency bound, each with
// its own timeout, and the full candidate list is returned sorted ascending
// by effective priority. Preferred for fallback-heavy callers because the
// provider round-trips amortize into one pass.
//
// There is no ordering guarantee between provider queries; only the output
// order is deterministic: (effective priority, base priority, provider id).
func (r *Resolver) ResolveAll(ctx context.Context, ref types.PublicationRef) types.RetrievalOutcome {
	if out, ok := r.cacheLookup(ctx, ref); ok {
		return out
	}

	results := make([]*types.CandidateURL, len(r.providers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.MaxConcurrentProviders)
	for i, p := range r.providers {
		i, p := i, p
		g.Go(func() error {
			// Failures are recovered inside queryOne; a slot stays
			// nil and never fails the group.
			results[i] = r.queryOne(gctx, p, ref)
			return nil
		})
	}
	g.Wait()

	var candidates []types.CandidateURL
	for _, c := range results {
		if c != nil {
			candidates = append(candidates, *c)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.EffectivePriority != b.EffectivePriority {
			return a.EffectivePriority < b.EffectivePriority
		}
		if a.BasePriority != b.BasePriority {
			return a.BasePriority < b.BasePriority
		}
		return a.ProviderID < b.ProviderID
	})

	if len(candidates) == 0 {
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

	r.stats.recordSuccess(candidates[0].ProviderID)
	return types.RetrievalOutcome{
		Success:    true,
		Best:       &candidates[0],
		Candidates: candidates,
		Source:     types.SourceProvider,
	}
}
