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

// unpaywallAPIBase is the Unpaywall DOI endpoint. Declared as a var so tests
// can substitute an httptest server.
var unpaywallAPIBase = "https://api.unpaywall.org/v2/"

// Unpaywall queries the Unpaywall API for the best open-access location of a
// DOI. The API requires a contact email on every request.
type Unpaywall struct {
	client  *http.Client
	cfg     types.ProvidersConfig
	limiter *rate.Limiter
}

// NewUnpaywall builds the Unpaywall provider.
func NewUnpaywall(client *http.Client, cfg types.ProvidersConfig) *Unpaywall {
	return &Unpaywall{client: client, cfg: cfg, limiter: newLimiter(cfg)}
}

func (p *Unpaywall) ID() string { return "unpaywall" }

func (p *Unpaywall) BasePriority() int { return 3 }

type unpaywallResponse struct {
	BestOALocation *unpaywallLocation `json:"best_oa_location"`
	IsOA           bool               `json:"is_oa"`
}

type unpaywallLocation struct {
	URLForPDF string `json:"url_for_pdf"`
	URL       string `json:"url"`
	Version   string `json:"version"`
	License   string `json:"license"`
}

// Query looks up the DOI and returns the best open-access URL, preferring
// the direct PDF link over the location URL.
func (p *Unpaywall) Query(ctx context.Context, ref types.PublicationRef) (*types.CandidateURL, error) {
	if ref.DOI == "" {
		return nil, nil
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	apiURL := unpaywallAPIBase + ref.DOI + "?email=" + url.QueryEscape(p.cfg.UnpaywallEmail)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating Unpaywall request: %w", err)
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, p.client, req, queryRetries)
	if err != nil {
		return nil, fmt.Errorf("Unpaywall API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Unpaywall API returned HTTP %d", resp.StatusCode)
	}

	var up unpaywallResponse
	if err := json.NewDecoder(resp.Body).Decode(&up); err != nil {
		return nil, fmt.Errorf("parsing Unpaywall response: %w", err)
	}

	if !up.IsOA || up.BestOALocation == nil {
		return nil, nil
	}

	loc := up.BestOALocation
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
	case loc.URLForPDF != "":
		c.URL = loc.URLForPDF
		c.Confidence = 0.9
	case loc.URL != "":
		c.URL = loc.URL
		c.Confidence = 0.6
	default:
		return nil, nil
	}

	return c, nil
}
