// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// URLType classifies a candidate URL by what it points at. Assigned by the
// classifier, never by the provider that produced the URL.
type URLType string

const (
	// PDFDirect is a URL that serves the artifact bytes directly.
	PDFDirect URLType = "pdf_direct"

	// HTMLFulltext is a URL serving the full text as an HTML page.
	HTMLFulltext URLType = "html_fulltext"

	// LandingPage is a publisher page describing the publication; it may
	// embed a link to the actual artifact.
	LandingPage URLType = "landing_page"

	// DOIResolver is a doi.org-style redirect whose destination is unknown
	// until followed.
	DOIResolver URLType = "doi_resolver"

	// UnknownURL is anything the classifier rules did not match.
	UnknownURL URLType = "unknown"
)

// CandidateURL is one provider's proposed location for the full text.
type CandidateURL struct {
	// URL is the proposed location. Always http, https, or ftp.
	URL string `json:"url" yaml:"url"`

	// ProviderID identifies the provider that produced the candidate.
	ProviderID string `json:"provider_id" yaml:"provider_id"`

	// BasePriority is the provider-assigned rank; 1 is best.
	BasePriority int `json:"base_priority" yaml:"base_priority"`

	// Type is the classifier-assigned URL type.
	Type URLType `json:"url_type" yaml:"url_type"`

	// EffectivePriority is BasePriority plus the classifier adjustment for
	// Type. Computed once after classification and immutable thereafter;
	// ascending order is the fallback order.
	EffectivePriority int `json:"effective_priority" yaml:"effective_priority"`

	// RequiresAuth marks URLs behind institutional or paywalled access.
	RequiresAuth bool `json:"requires_auth,omitempty" yaml:"requires_auth,omitempty"`

	// Confidence is the provider's confidence in the candidate, in [0,1].
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Metadata carries provider-specific passthrough data (license,
	// version, landing URL). Opaque to the retrieval core.
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}
