// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package provider implements the source-provider contract: each provider
// queries one external catalog and returns at most one candidate URL for a
// publication reference. Providers throttle themselves; the orchestrator
// only supplies the timeout.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// Provider is the uniform capability the orchestrator queries.
type Provider interface {
	// ID returns the stable provider identifier.
	ID() string

	// BasePriority is the provider-assigned rank; 1 is best.
	BasePriority() int

	// Query returns at most one candidate URL for the reference. A nil
	// candidate with a nil error means "no candidate"; errors are
	// reserved for true transport failure. Query must respect ctx and
	// never block past its deadline.
	Query(ctx context.Context, ref types.PublicationRef) (*types.CandidateURL, error)
}

// queryRetries bounds 429/503 retries inside a single provider query. Kept
// low so a rate-limited provider fails within its per-source timeout instead
// of stalling the waterfall.
const queryRetries = 2

// newLimiter builds the per-provider throttle enforcing the minimum
// inter-request interval.
func newLimiter(cfg types.ProvidersConfig) *rate.Limiter {
	interval := cfg.MinRequestInterval
	if interval <= 0 {
		interval = time.Second
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// Build constructs every enabled provider, sorted by base priority. An
// enabled provider with a missing required credential is a configuration
// error; Build fails fast rather than letting the provider fail per-request.
func Build(cfg types.ProvidersConfig, client *http.Client) ([]Provider, error) {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	var providers []Provider

	if cfg.EnableArxiv {
		providers = append(providers, NewArxiv(cfg))
	}
	if cfg.EnableOpenAlex {
		providers = append(providers, NewOpenAlex(client, cfg))
	}
	if cfg.EnableUnpaywall {
		if cfg.UnpaywallEmail == "" {
			return nil, fmt.Errorf("%s: unpaywall enabled but unpaywall_email is not set", types.ErrConfiguration)
		}
		providers = append(providers, NewUnpaywall(client, cfg))
	}
	if cfg.EnableSemanticScholar {
		providers = append(providers, NewSemanticScholar(client, cfg))
	}
	if cfg.EnableEuropePMC {
		providers = append(providers, NewEuropePMC(client, cfg))
	}
	if cfg.EnableCrossref {
		providers = append(providers, NewCrossref(client, cfg))
	}
	if cfg.EnableCORE {
		if cfg.COREAPIKey == "" {
			return nil, fmt.Errorf("%s: core enabled but core_api_key is not set", types.ErrConfiguration)
		}
		providers = append(providers, NewCORE(client, cfg))
	}
	if cfg.EnableDOAJ {
		providers = append(providers, NewDOAJ(client, cfg))
	}

	sort.SliceStable(providers, func(i, j int) bool {
		if providers[i].BasePriority() != providers[j].BasePriority() {
			return providers[i].BasePriority() < providers[j].BasePriority()
		}
		return providers[i].ID() < providers[j].ID()
	})

	return providers, nil
}
