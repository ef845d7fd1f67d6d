// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"

	"github.com/pdiddy/fulltext-engine/internal/httputil"
	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// coreAPIBase is the CORE v3 works search endpoint. Declared as a var so
// tests can substitute an httptest server.
var coreAPIBase = "https://api.core.ac.uk/v3/search/works"

// CORE searches the CORE aggregator for a repository-hosted copy. Requires
// an API key.
type CORE struct {
	client  *http.Client
	cfg     types.ProvidersConfig
	limiter *rate.Limiter
}

// NewCORE builds the CORE provider.
func NewCORE(client *http.Client, cfg types.ProvidersConfig) *CORE {
	return &CORE{client: client, cfg: cfg, limiter: newLimiter(cfg)}
}

func (p *CORE) ID() string { return "core" }

func (p *CORE) BasePriority() int { return 7 }

type coreResponse struct {
	Results []coreWork `json:"results"`
}

type coreWork struct {
	DownloadURL string `json:"downloadUrl"`
}

// Query searches CORE by DOI and returns the download URL of the first hit.
func (p *CORE) Query(ctx context.Context, ref types.PublicationRef) (*types.CandidateURL, error) {
	if ref.DOI == "" {
		return nil, nil
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"q":     {`doi:"` + ref.DOI + `"`},
		"limit": {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, coreAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating CORE request: %w", err)
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)
	req.Header.Set("Authorization", "Bearer "+p.cfg.COREAPIKey)

	resp, err := httputil.DoWithRetry(ctx, p.client, req, queryRetries)
	if err != nil {
		return nil, fmt.Errorf("CORE API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("CORE API returned HTTP %d", resp.StatusCode)
	}

	var cr coreResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("parsing CORE response: %w", err)
	}

	if len(cr.Results) == 0 || cr.Results[0].DownloadURL == "" {
		return nil, nil
	}

	return &types.CandidateURL{
		URL:          cr.Results[0].DownloadURL,
		ProviderID:   p.ID(),
		BasePriority: p.BasePriority(),
		Confidence:   0.7,
	}, nil
}
