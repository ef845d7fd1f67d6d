// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/pdiddy/fulltext-engine/internal/httputil"
	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// Crossref endpoints. Declared as vars so tests can substitute httptest
// servers.
var (
	crossrefAPIBase = "https://api.crossref.org/works/"
	doiResolverBase = "https://doi.org/"
)

// Crossref queries the Crossref works API for publisher full-text links.
// When the record has none, it falls back to the doi.org resolver URL, which
// the classifier deprioritizes but the download manager can still follow.
type Crossref struct {
	client  *http.Client
	cfg     types.ProvidersConfig
	limiter *rate.Limiter
}

// NewCrossref builds the Crossref provider.
func NewCrossref(client *http.Client, cfg types.ProvidersConfig) *Crossref {
	return &Crossref{client: client, cfg: cfg, limiter: newLimiter(cfg)}
}

func (p *Crossref) ID() string { return "crossref" }

func (p *Crossref) BasePriority() int { return 6 }

type crossrefResponse struct {
	Message struct {
		Link []crossrefLink `json:"link"`
	} `json:"message"`
}

type crossrefLink struct {
	URL         string `json:"URL"`
	ContentType string `json:"content-type"`
	Application string `json:"intended-application"`
}

// Query returns the record's application/pdf link when present, otherwise
// the resolver URL.
func (p *Crossref) Query(ctx context.Context, ref types.PublicationRef) (*types.CandidateURL, error) {
	if ref.DOI == "" {
		return nil, nil
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, crossrefAPIBase+ref.DOI, nil)
	if err != nil {
		return nil, fmt.Errorf("creating Crossref request: %w", err)
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, p.client, req, queryRetries)
	if err != nil {
		return nil, fmt.Errorf("Crossref API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Crossref API returned HTTP %d", resp.StatusCode)
	}

	var cr crossrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("parsing Crossref response: %w", err)
	}

	for _, link := range cr.Message.Link {
		if link.URL == "" {
			continue
		}
		if strings.EqualFold(link.ContentType, "application/pdf") {
			return &types.CandidateURL{
				URL:          link.URL,
				ProviderID:   p.ID(),
				BasePriority: p.BasePriority(),
				Confidence:   0.7,
				// Publisher links often sit behind institutional access.
				RequiresAuth: link.Application == "text-mining",
				Metadata:     map[string]string{"content_type": link.ContentType},
			}, nil
		}
	}

	// No typed link: hand back the resolver and let the download manager
	// follow redirects and extract from whatever lands.
	return &types.CandidateURL{
		URL:          doiResolverBase + ref.DOI,
		ProviderID:   p.ID(),
		BasePriority: p.BasePriority(),
		Confidence:   0.3,
	}, nil
}
