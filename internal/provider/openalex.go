// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/pdiddy/fulltext-engine/internal/httputil"
	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// openAlexAPIBase is the OpenAlex works endpoint. Declared as a var so tests
// can substitute an httptest server.
var openAlexAPIBase = "https://api.openalex.org/works/"

// OpenAlex queries the OpenAlex works API for the best open-access location
// of a DOI.
type OpenAlex struct {
	client  *http.Client
	cfg     types.ProvidersConfig
	limiter *rate.Limiter
}

// NewOpenAlex builds the OpenAlex provider.
func NewOpenAlex(client *http.Client, cfg types.ProvidersConfig) *OpenAlex {
	return &OpenAlex{client: client, cfg: cfg, limiter: newLimiter(cfg)}
}

func (p *OpenAlex) ID() string { return "openalex" }

func (p *OpenAlex) BasePriority() int { return 2 }

// openAlexResponse captures the fields we need from an OpenAlex work record.
type openAlexResponse struct {
	BestOALocation *openAlexLocation `json:"best_oa_location"`
}

type openAlexLocation struct {
	PDFURL     string `json:"pdf_url"`
	LandingURL string `json:"landing_page_url"`
	Version    string `json:"version"`
	License    string `json:"license"`
}

// Query looks up the DOI and returns the open-access PDF URL if one exists,
// falling back to the landing page URL.
func (p *OpenAlex) Query(ctx context.Context, ref types.PublicationRef) (*types.CandidateURL, error) {
	if ref.DOI == "" {
		return nil, nil
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	apiURL := openAlexAPIBase + "https://doi.org/" + ref.DOI

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAlex request: %w", err)
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, p.client, req, queryRetries)
	if err != nil {
		return nil, fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}

	var oa openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oa); err != nil {
		return nil, fmt.Errorf("parsing OpenAlex response: %w", err)
	}

	if oa.BestOALocation == nil {
		return nil, nil
	}

	loc := oa.BestOALocation
	c := &types.CandidateURL{
		ProviderID:   p.ID(),
		BasePriority: p.BasePriority(),
		Metadata:     map[string]string{},
	}
	if loc.Version != "" {
		c.Metadata["version"] = loc.Version
	}
	if loc.License != "" {
		c.Metadata["license"] = loc.License
	}

	switch {
	case loc.PDFURL != "":
		c.URL = loc.PDFURL
		c.Confidence = 0.9
		if loc.LandingURL != "" {
			c.Metadata["landing_url"] = loc.LandingURL
		}
	case loc.LandingURL != "":
		c.URL = loc.LandingURL
		c.Confidence = 0.5
	default:
		return nil, nil
	}

	return c, nil
}
