// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify assigns a URL type to candidate full-text URLs and
// derives the priority bias used to order download fallback. Classification
// is a pure function of the URL string: no network calls, no provider
// context.
package classify

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

// pdfPathPattern matches paths that serve PDF bytes directly: a trailing
// .pdf, a /pdf/ segment, or known preprint-server PDF endpoints.
var pdfPathPattern = regexp.MustCompile(`(?i)(\.pdf($|\?)|/pdf(/|$)|/epdf(/|$)|/pdfdirect(/|$)|/ftp/arxiv/papers/)`)

// fulltextPathPattern matches HTML full-text paths.
var fulltextPathPattern = regexp.MustCompile(`(?i)(/fulltext(/|$|\.)|/full(/|$)|/html(/|$)|\.html?($|\?))`)

// landingPathPattern matches publisher landing and abstract pages.
var landingPathPattern = regexp.MustCompile(`(?i)(/article(s)?(/|$)|/abstract(/|$)|/abs(/|$)|/record(/|$)|/content(/|$)|/doi(/|$))`)

// doiResolverHosts are hosts whose responses are redirects to an unknown
// destination.
var doiResolverHosts = map[string]bool{
	"doi.org":       true,
	"dx.doi.org":    true,
	"hdl.handle.net": true,
}

// skipHosts are known non-content hosts: search-engine result pages and
// login-gated platforms that never serve the artifact.
var skipHosts = map[string]bool{
	"google.com":         true,
	"www.google.com":     true,
	"scholar.google.com": true,
	"www.bing.com":       true,
	"duckduckgo.com":     true,
	"facebook.com":       true,
	"www.facebook.com":   true,
	"twitter.com":        true,
	"x.com":              true,
	"linkedin.com":       true,
	"www.linkedin.com":   true,
	"researchgate.net":     true,
	"www.researchgate.net": true,
	"academia.edu":       true,
	"www.academia.edu":   true,
}

// Classify applies the ordered rule set and returns the URL type. PDF-direct
// patterns take precedence over full-text patterns, which take precedence
// over landing-page patterns and DOI-resolver hosts.
func Classify(rawURL string) types.URLType {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return types.UnknownURL
	}

	pathAndQuery := u.Path
	if u.RawQuery != "" {
		pathAndQuery += "?" + u.RawQuery
	}

	if pdfPathPattern.MatchString(pathAndQuery) {
		return types.PDFDirect
	}

	if fulltextPathPattern.MatchString(pathAndQuery) {
		return types.HTMLFulltext
	}

	if doiResolverHosts[strings.ToLower(u.Host)] {
		return types.DOIResolver
	}

	if landingPathPattern.MatchString(pathAndQuery) {
		return types.LandingPage
	}

	return types.UnknownURL
}

// PriorityAdjustment returns the fixed integer bias added to a candidate's
// base priority for the given URL type. Lower effective priority is tried
// earlier. The exact constants are a tunable; the contract is the relative
// ordering (PDF-direct before full text before landing pages before
// resolvers).
func PriorityAdjustment(t types.URLType) int {
	switch t {
	case types.PDFDirect:
		return -2
	case types.HTMLFulltext:
		return 1
	case types.LandingPage:
		return 2
	case types.DOIResolver:
		return 3
	default:
		return 0
	}
}

// ShouldSkip rejects URLs that can never yield the artifact: non-http(s)/ftp
// schemes and known non-content hosts. Runs before classification.
func ShouldSkip(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return true
	}

	switch u.Scheme {
	case "http", "https", "ftp":
	default:
		return true
	}

	if u.Host == "" {
		return true
	}

	return skipHosts[strings.ToLower(u.Hostname())]
}

// Annotate classifies the candidate and computes its effective priority in
// place. Called exactly once per candidate, immediately after the provider
// returns it; the effective priority is immutable afterwards.
func Annotate(c *types.CandidateURL) {
	c.Type = Classify(c.URL)
	c.EffectivePriority = c.BasePriority + PriorityAdjustment(c.Type)
}
