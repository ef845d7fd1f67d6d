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

// semanticAPIBase is the Semantic Scholar graph API endpoint. Declared as a
// var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/"

const semanticFields = "openAccessPdf,externalIds"

// SemanticScholar queries the Semantic Scholar graph API for an open-access
// PDF link. Works with DOI or arXiv identifiers.
type SemanticScholar struct {
	client  *http.Client
	cfg     types.ProvidersConfig
	limiter *rate.Limiter
}

// NewSemanticScholar builds the Semantic Scholar provider.
func NewSemanticScholar(client *http.Client, cfg types.ProvidersConfig) *SemanticScholar {
	return &SemanticScholar{client: client, cfg: cfg, limiter: newLimiter(cfg)}
}

func (p *SemanticScholar) ID() string { return "semantic_scholar" }

func (p *SemanticScholar) BasePriority() int { return 4 }

type semanticPaperResponse struct {
	OpenAccessPDF *struct {
		URL    string `json:"url"`
		Status string `json:"status"`
	} `json:"openAccessPdf"`
}

// Query looks the paper up by DOI (or arXiv ID) and returns its open-access
// PDF URL if Semantic Scholar knows one.
func (p *SemanticScholar) Query(ctx context.Context, ref types.PublicationRef) (*types.CandidateURL, error) {
	var paperID string
	switch {
	case ref.DOI != "":
		paperID = "DOI:" + ref.DOI
	case ref.ArxivID != "":
		paperID = "ARXIV:" + ref.ArxivID
	default:
		return nil, nil
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	apiURL := semanticAPIBase + paperID + "?fields=" + semanticFields

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating Semantic Scholar request: %w", err)
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)
	if p.cfg.SemanticScholarAPIKey != "" {
		req.Header.Set("x-api-key", p.cfg.SemanticScholarAPIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, p.client, req, queryRetries)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var sr semanticPaperResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	if sr.OpenAccessPDF == nil || sr.OpenAccessPDF.URL == "" {
		return nil, nil
	}

	c := &types.CandidateURL{
		URL:          sr.OpenAccessPDF.URL,
		ProviderID:   p.ID(),
		BasePriority: p.BasePriority(),
		Confidence:   0.8,
	}
	if sr.OpenAccessPDF.Status != "" {
		c.Metadata = map[string]string{"oa_status": sr.OpenAccessPDF.Status}
	}
	return c, nil
}
