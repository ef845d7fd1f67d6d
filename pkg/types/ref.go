// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"
)

// PublicationRef identifies one bibliographic record. Callers supply a
// stable ID; the identifier fields are hints for individual providers, which
// use whichever they understand.
type PublicationRef struct {
	// ID is the caller-supplied stable identifier, used as the cache key
	// and artifact filename stem.
	ID string `json:"id" yaml:"id"`

	// DOI is the bare DOI, e.g. "10.1145/1234567.1234568".
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// ArxivID is the bare arXiv identifier, e.g. "2301.07041".
	ArxivID string `json:"arxiv_id,omitempty" yaml:"arxiv_id,omitempty"`

	// PMID is the PubMed identifier, when known.
	PMID string `json:"pmid,omitempty" yaml:"pmid,omitempty"`

	// Title is used by providers that only support text search.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
}

// arxivPattern matches arXiv IDs: "2301.07041", "arXiv:2301.07041", "2301.07041v2".
var arxivPattern = regexp.MustCompile(`^(?:arXiv:)?(\d{4}\.\d{4,5}(?:v\d+)?)$`)

// doiPattern matches DOIs: "10.1145/1234567.1234568".
var doiPattern = regexp.MustCompile(`^10\.\d{4,9}/[^\s]+$`)

// pmidPattern matches PubMed IDs: "31772327", "PMID:31772327".
var pmidPattern = regexp.MustCompile(`^(?:PMID:\s*)?(\d{1,9})$`)

// ParseRef builds a PublicationRef from a raw identifier string. It
// recognizes arXiv IDs, DOIs, and PMIDs; anything else is rejected.
func ParseRef(identifier string) (PublicationRef, error) {
	identifier = strings.TrimSpace(identifier)

	if m := arxivPattern.FindStringSubmatch(identifier); m != nil {
		return PublicationRef{ID: m[1], ArxivID: m[1]}, nil
	}

	if doiPattern.MatchString(identifier) {
		return PublicationRef{ID: identifier, DOI: identifier}, nil
	}

	if m := pmidPattern.FindStringSubmatch(identifier); m != nil {
		return PublicationRef{ID: "pmid-" + m[1], PMID: m[1]}, nil
	}

	return PublicationRef{}, fmt.Errorf("unrecognized identifier format: %q", identifier)
}

// Slug returns a filesystem-safe filename stem for the reference. The same
// ID always yields the same slug, so artifact paths are stable across runs.
func (r PublicationRef) Slug() string {
	if r.ID == "" {
		h := sha256.Sum256([]byte(r.DOI + "|" + r.ArxivID + "|" + r.Title))
		return fmt.Sprintf("ref-%x", h[:8])
	}
	return strings.NewReplacer("/", "-", ":", "-", " ", "-").Replace(r.ID)
}
