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

// europePMCAPIBase is the Europe PMC REST search endpoint. Declared as a var
// so tests can substitute an httptest server.
var europePMCAPIBase = "https://www.ebi.ac.uk/europepmc/webservices/rest/search"

// EuropePMC searches Europe PMC by DOI or PMID and returns a full-text URL
// from the record's fullTextUrlList.
type EuropePMC struct {
	client  *http.Client
	cfg     types.ProvidersConfig
	limiter *rate.Limiter
}

// NewEuropePMC builds the Europe PMC provider.
func NewEuropePMC(client *http.Client, cfg types.ProvidersConfig) *EuropePMC {
	return &EuropePMC{client: client, cfg: cfg, limiter: newLimiter(cfg)}
}

func (p *EuropePMC) ID() string { return "europepmc" }

func (p *EuropePMC) BasePriority() int { return 5 }

type europePMCResponse struct {
	ResultList struct {
		Result []europePMCResult `json:"result"`
	} `json:"resultList"`
}

type europePMCResult struct {
	FullTextURLList struct {
		FullTextURL []europePMCURL `json:"fullTextUrl"`
	} `json:"fullTextUrlList"`
}

type europePMCURL struct {
	URL            string `json:"url"`
	DocumentStyle  string `json:"documentStyle"`
	Availability   string `json:"availability"`
	AvailabilityID string `json:"availabilityCode"`
}

// Query searches by DOI or PMID and returns the first full-text URL,
// preferring the "pdf" document style over "html".
func (p *EuropePMC) Query(ctx context.Context, ref types.PublicationRef) (*types.CandidateURL, error) {
	var query string
	switch {
	case ref.DOI != "":
		query = `DOI:"` + ref.DOI + `"`
	case ref.PMID != "":
		query = "EXT_ID:" + ref.PMID + " AND SRC:MED"
	default:
		return nil, nil
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"query":      {query},
		"format":     {"json"},
		"resultType": {"core"},
		"pageSize":   {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, europePMCAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating Europe PMC request: %w", err)
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, p.client, req, queryRetries)
	if err != nil {
		return nil, fmt.Errorf("Europe PMC API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Europe PMC API returned HTTP %d", resp.StatusCode)
	}

	var er europePMCResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("parsing Europe PMC response: %w", err)
	}

	if len(er.ResultList.Result) == 0 {
		return nil, nil
	}

	urls := er.ResultList.Result[0].FullTextURLList.FullTextURL
	best := ""
	style := ""
	for _, u := range urls {
		if u.URL == "" {
			continue
		}
		if u.DocumentStyle == "pdf" {
			best, style = u.URL, u.DocumentStyle
			break
		}
		if best == "" {
			best, style = u.URL, u.DocumentStyle
		}
	}
	if best == "" {
		return nil, nil
	}

	confidence := 0.6
	if style == "pdf" {
		confidence = 0.85
	}
	return &types.CandidateURL{
		URL:          best,
		ProviderID:   p.ID(),
		BasePriority: p.BasePriority(),
		Confidence:   confidence,
		Metadata:     map[string]string{"document_style": style},
	}, nil
}
