// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/pdiddy/fulltext-engine/internal/provider"
	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// fakeProvider scripts one provider's answer and records whether it was
// queried.
type fakeProvider struct {
	id       string
	priority int
	cand     *types.CandidateURL
	err      error
	delay    time.Duration

	mu      sync.Mutex
	queried int
}

func (f *fakeProvider) ID() string        { return f.id }
func (f *fakeProvider) BasePriority() int { return f.priority }

func (f *fakeProvider) Query(ctx context.Context, ref types.PublicationRef) (*types.CandidateURL, error) {
	f.mu.Lock()
	f.queried++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.cand == nil {
		return nil, nil
	}
	c := *f.cand
	c.ProviderID = f.id
	c.BasePriority = f.priority
	return &c, nil
}

func (f *fakeProvider) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queried
}

// fakeCache scripts the content cache lookup.
type fakeCache struct {
	entries map[string]*types.CacheEntry
}

func (f *fakeCache) Get(ctx context.Context, key string) (*types.CacheEntry, bool, error) {
	e, ok := f.entries[key]
	return e, ok, nil
}

func testResolver(cache ContentCache, stats *Stats, ps ...*fakeProvider) (*Resolver, []*fakeProvider) {
	list := make([]provider.Provider, len(ps))
	for i, p := range ps {
		list[i] = p
	}
	r := New(list, cache, types.ResolverConfig{
		PerSourceTimeout:       100 * time.Millisecond,
		MaxConcurrentProviders: 4,
	}, stats, nil)
	return r, ps
}

func TestResolveWaterfallStopRule(t *testing.T) {
	empty := &fakeProvider{id: "a", priority: 1}
	hit := &fakeProvider{id: "b", priority: 2, cand: &types.CandidateURL{URL: "https://x.org/pdf/1.pdf"}}
	never := &fakeProvider{id: "c", priority: 3, cand: &types.CandidateURL{URL: "https://y.org/pdf/2.pdf"}}

	r, _ := testResolver(nil, nil, empty, hit, never)

	out := r.Resolve(context.Background(), types.PublicationRef{ID: "p1"}, nil)
	if !out.Success {
		t.Fatalf("Resolve failed: %+v", out)
	}
	if out.Best == nil || out.Best.ProviderID != "b" {
		t.Errorf("best candidate from %v, want provider b", out.Best)
	}
	if out.Source != types.SourceProvider {
		t.Errorf("source = %v, want provider", out.Source)
	}
	if empty.queryCount() != 1 || hit.queryCount() != 1 {
		t.Errorf("providers a and b must each be queried once, got %d and %d",
			empty.queryCount(), hit.queryCount())
	}
	if never.queryCount() != 0 {
		t.Errorf("provider c queried %d times after the walk stopped, want 0", never.queryCount())
	}
}

func TestResolveSkipSet(t *testing.T) {
	a := &fakeProvider{id: "a", priority: 1, cand: &types.CandidateURL{URL: "https://a.org/1.pdf"}}
	b := &fakeProvider{id: "b", priority: 2, cand: &types.CandidateURL{URL: "https://b.org/2.pdf"}}

	r, _ := testResolver(nil, nil, a, b)

	out := r.Resolve(context.Background(), types.PublicationRef{ID: "p1"}, map[string]bool{"a": true})
	if !out.Success || out.Best.ProviderID != "b" {
		t.Fatalf("skip set ignored: %+v", out)
	}
	if a.queryCount() != 0 {
		t.Errorf("skipped provider a queried %d times, want 0", a.queryCount())
	}
}

func TestResolveProviderErrorContinuesWalk(t *testing.T) {
	failing := &fakeProvider{id: "a", priority: 1, err: errors.New("connection refused")}
	hit := &fakeProvider{id: "b", priority: 2, cand: &types.CandidateURL{URL: "https://b.org/2.pdf"}}

	r, _ := testResolver(nil, nil, failing, hit)

	out := r.Resolve(context.Background(), types.PublicationRef{ID: "p1"}, nil)
	if !out.Success || out.Best.ProviderID != "b" {
		t.Fatalf("provider error must not end the walk: %+v", out)
	}
}

func TestResolveProviderTimeoutContinuesWalk(t *testing.T) {
	slow := &fakeProvider{
		id: "a", priority: 1, delay: time.Second,
		cand: &types.CandidateURL{URL: "https://a.org/1.pdf"},
	}
	hit := &fakeProvider{id: "b", priority: 2, cand: &types.CandidateURL{URL: "https://b.org/2.pdf"}}

	r, _ := testResolver(nil, nil, slow, hit)

	start := time.Now()
	out := r.Resolve(context.Background(), types.PublicationRef{ID: "p1"}, nil)
	elapsed := time.Since(start)

	if !out.Success || out.Best.ProviderID != "b" {
		t.Fatalf("timed-out provider must contribute no candidate: %+v", out)
	}
	// The slow provider is bounded by its 100ms per-source timeout, not its
	// full 1s delay.
	if elapsed > 500*time.Millisecond {
		t.Errorf("resolution took %v, the timed-out provider delayed the walk", elapsed)
	}
}

func TestResolveSkippedHostRejected(t *testing.T) {
	bad := &fakeProvider{id: "a", priority: 1, cand: &types.CandidateURL{URL: "https://scholar.google.com/scholar?q=x"}}

	r, _ := testResolver(nil, nil, bad)

	out := r.Resolve(context.Background(), types.PublicationRef{ID: "p1"}, nil)
	if out.Success {
		t.Fatalf("a skip-listed URL must not be a usable candidate: %+v", out)
	}
	if out.ErrorKind != types.ErrNotFound {
		t.Errorf("error kind = %v, want not_found", out.ErrorKind)
	}
}

func TestResolveCacheHitShortCircuits(t *testing.T) {
	p := &fakeProvider{id: "a", priority: 1, cand: &types.CandidateURL{URL: "https://a.org/1.pdf"}}
	cache := &fakeCache{entries: map[string]*types.CacheEntry{
		"p1": {Key: "p1", SourceFile: "/artifacts/p1.pdf", SourceType: "pdf"},
	}}

	r, _ := testResolver(cache, nil, p)

	out := r.Resolve(context.Background(), types.PublicationRef{ID: "p1"}, nil)
	if !out.Success {
		t.Fatalf("cache hit must succeed: %+v", out)
	}
	if out.Source != types.SourceCache {
		t.Errorf("source = %v, want cache", out.Source)
	}
	if p.queryCount() != 0 {
		t.Errorf("cache hit must short-circuit providers, provider queried %d times", p.queryCount())
	}
}

func TestResolveCacheMissIsNotAnError(t *testing.T) {
	p := &fakeProvider{id: "a", priority: 1, cand: &types.CandidateURL{URL: "https://a.org/1.pdf"}}
	cache := &fakeCache{entries: map[string]*types.CacheEntry{}}

	r, _ := testResolver(cache, nil, p)

	out := r.Resolve(context.Background(), types.PublicationRef{ID: "p1"}, nil)
	if !out.Success || out.Source != types.SourceProvider {
		t.Fatalf("cache miss must fall through to providers: %+v", out)
	}
}

func TestResolveAllCompletenessAndOrder(t *testing.T) {
	// Worse base priority but PDF-direct: effective 5-2=3.
	pdf := &fakeProvider{id: "pdfrepo", priority: 5, cand: &types.CandidateURL{URL: "https://x.org/pdf/1.pdf"}}
	// Better base priority but a resolver link: effective 1+3=4.
	doi := &fakeProvider{id: "doisrc", priority: 1, cand: &types.CandidateURL{URL: "https://doi.org/10.1/abc"}}
	empty := &fakeProvider{id: "empty", priority: 2}
	failing := &fakeProvider{id: "broken", priority: 3, err: errors.New("boom")}

	r, _ := testResolver(nil, nil, pdf, doi, empty, failing)

	out := r.ResolveAll(context.Background(), types.PublicationRef{ID: "p1"})
	if !out.Success {
		t.Fatalf("ResolveAll failed: %+v", out)
	}

	want := []types.CandidateURL{
		{
			URL: "https://x.org/pdf/1.pdf", ProviderID: "pdfrepo", BasePriority: 5,
			Type: types.PDFDirect, EffectivePriority: 3,
		},
		{
			URL: "https://doi.org/10.1/abc", ProviderID: "doisrc", BasePriority: 1,
			Type: types.DOIResolver, EffectivePriority: 4,
		},
	}
	if diff := cmp.Diff(want, out.Candidates); diff != "" {
		t.Errorf("candidate list mismatch (-want +got):\n%s", diff)
	}
	if out.Best == nil || out.Best.ProviderID != "pdfrepo" {
		t.Errorf("best = %+v, want the pdf-direct candidate despite its worse base priority", out.Best)
	}
}

func TestResolveAllSlowProviderBoundedByOwnTimeout(t *testing.T) {
	slow := &fakeProvider{id: "slow", priority: 1, delay: time.Second, cand: &types.CandidateURL{URL: "https://s.org/1.pdf"}}
	fast := &fakeProvider{id: "fast", priority: 2, cand: &types.CandidateURL{URL: "https://f.org/2.pdf"}}

	r, _ := testResolver(nil, nil, slow, fast)

	start := time.Now()
	out := r.ResolveAll(context.Background(), types.PublicationRef{ID: "p1"})
	elapsed := time.Since(start)

	if !out.Success || len(out.Candidates) != 1 {
		t.Fatalf("only the fast provider should contribute: %+v", out)
	}
	if out.Candidates[0].ProviderID != "fast" {
		t.Errorf("candidate from %s, want fast", out.Candidates[0].ProviderID)
	}
	if elapsed > 500*time.Millisecond {
		t.Errorf("ResolveAll took %v, the straggler must be bounded by its own timeout", elapsed)
	}
}

func TestResolveAllEmpty(t *testing.T) {
	empty := &fakeProvider{id: "a", priority: 1}

	r, _ := testResolver(nil, nil, empty)

	out := r.ResolveAll(context.Background(), types.PublicationRef{ID: "p1"})
	if out.Success {
		t.Fatalf("no candidates must mean failure: %+v", out)
	}
	if out.ErrorKind != types.ErrNotFound {
		t.Errorf("error kind = %v, want not_found", out.ErrorKind)
	}
}

func TestStatisticsCounters(t *testing.T) {
	hit := &fakeProvider{id: "a", priority: 1, cand: &types.CandidateURL{URL: "https://a.org/1.pdf"}}
	stats := NewStats()

	r, _ := testResolver(nil, stats, hit)

	ref := types.PublicationRef{ID: "p1"}
	r.Resolve(context.Background(), ref, nil)
	r.Resolve(context.Background(), ref, map[string]bool{"a": true}) // forced failure

	snap := r.Statistics()
	if snap.TotalAttempts != 2 {
		t.Errorf("total attempts = %d, want 2", snap.TotalAttempts)
	}
	if snap.Successes != 1 || snap.Failures != 1 {
		t.Errorf("successes/failures = %d/%d, want 1/1", snap.Successes, snap.Failures)
	}
	if snap.SuccessesByProvider["a"] != 1 {
		t.Errorf("successes by provider a = %d, want 1", snap.SuccessesByProvider["a"])
	}

	r.ResetStatistics()
	snap = r.Statistics()
	if snap.TotalAttempts != 0 || snap.Successes != 0 || snap.Failures != 0 {
		t.Errorf("counters not zeroed after reset: %+v", snap)
	}
}

func TestResolveDeadlineExpiry(t *testing.T) {
	slow := &fakeProvider{id: "a", priority: 1, delay: time.Second, cand: &types.CandidateURL{URL: "https://a.org/1.pdf"}}
	alsoSlow := &fakeProvider{id: "b", priority: 2, delay: time.Second, cand: &types.CandidateURL{URL: "https://b.org/2.pdf"}}

	r, _ := testResolver(nil, nil, slow, alsoSlow)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	out := r.Resolve(ctx, types.PublicationRef{ID: "p1"}, nil)
	if out.Success {
		t.Fatalf("expired deadline must fail the call: %+v", out)
	}
	if out.ErrorKind != types.ErrTimeout {
		t.Errorf("error kind = %v, want timeout", out.ErrorKind)
	}
}
