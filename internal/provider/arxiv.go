// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// arxivPDFBase is the arXiv PDF endpoint. Declared as a var so tests can
// substitute an httptest server.
var arxivPDFBase = "https://arxiv.org/pdf/"

// Arxiv resolves arXiv identifiers to the arxiv.org PDF endpoint. The URL
// is deterministic, so no network round-trip is needed at query time; the
// download manager discovers a withdrawn paper when the fetch 404s.
type Arxiv struct {
	cfg types.ProvidersConfig
}

// NewArxiv builds the arXiv provider.
func NewArxiv(cfg types.ProvidersConfig) *Arxiv {
	return &Arxiv{cfg: cfg}
}

func (p *Arxiv) ID() string { return "arxiv" }

func (p *Arxiv) BasePriority() int { return 1 }

// Query returns the arXiv PDF URL when the reference carries an arXiv ID.
func (p *Arxiv) Query(ctx context.Context, ref types.PublicationRef) (*types.CandidateURL, error) {
	if ref.ArxivID == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &types.CandidateURL{
		URL:          arxivPDFBase + ref.ArxivID,
		ProviderID:   p.ID(),
		BasePriority: p.BasePriority(),
		Confidence:   0.95,
		Metadata:     map[string]string{"arxiv_id": ref.ArxivID},
	}, nil
}
