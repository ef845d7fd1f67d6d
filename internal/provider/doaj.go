// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/pdiddy/fulltext-engine/internal/httputil"
	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// doajAPIBase is the DOAJ article search endpoint. Declared as a var so
// tests can substitute an httptest server.
var doajAPIBase = "https://doaj.org/api/search/articles/"

// DOAJ searches the Directory of Open Access Journals by DOI and returns
// the article's fulltext link.
type DOAJ struct {
	client  *http.Client
	cfg     types.ProvidersConfig
	limiter *rate.Limiter
}

// NewDOAJ builds the DOAJ provider.
func NewDOAJ(client *http.Client, cfg types.ProvidersConfig) *DOAJ {
	return &DOAJ{client: client, cfg: cfg, limiter: newLimiter(cfg)}
}

func (p *DOAJ) ID() string { return "doaj" }

func (p *DOAJ) BasePriority() int { return 8 }

type doajResponse struct {
	Results []struct {
		Bibjson struct {
			Link []doajLink `json:"link"`
		} `json:"bibjson"`
	} `json:"results"`
}

type doajLink struct {
	URL         string `json:"url"`
	Type        string `json:"type"`
	ContentType string `json:"content_type"`
}

// Query searches DOAJ and returns the first fulltext link, preferring PDF
// content types.
func (p *DOAJ) Query(ctx context.Context, ref types.PublicationRef) (*types.CandidateURL, error) {
	if ref.DOI == "" {
		return nil, nil
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	apiURL := doajAPIBase + url.PathEscape(`doi:"`+ref.DOI+`"`)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating DOAJ request: %w", err)
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, p.client, req, queryRetries)
	if err != nil {
		return nil, fmt.Errorf("DOAJ API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("DOAJ API returned HTTP %d", resp.StatusCode)
	}

	var dr doajResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("parsing DOAJ response: %w", err)
	}

	if len(dr.Results) == 0 {
		return nil, nil
	}

	links := dr.Results[0].Bibjson.Link
	best := doajLink{}
	for _, l := range links {
		if l.Type != "fulltext" || l.URL == "" {
			continue
		}
		if strings.EqualFold(l.ContentType, "application/pdf") || strings.EqualFold(l.ContentType, "pdf") {
			best = l
			break
		}
		if best.URL == "" {
			best = l
		}
	}
	if best.URL == "" {
		return nil, nil
	}

	return &types.CandidateURL{
		URL:          best.URL,
		ProviderID:   p.ID(),
		BasePriority: p.BasePriority(),
		Confidence:   0.6,
		Metadata:     map[string]string{"content_type": best.ContentType},
	}, nil
}
