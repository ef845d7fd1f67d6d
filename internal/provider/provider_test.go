// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

func TestBuildSortsByBasePriority(t *testing.T) {
	cfg := fastProviderCfg()
	cfg.EnableDOAJ = true
	cfg.EnableArxiv = true
	cfg.EnableCrossref = true
	cfg.EnableOpenAlex = true

	providers, err := Build(cfg, http.DefaultClient)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	var ids []string
	for _, p := range providers {
		ids = append(ids, p.ID())
	}
	want := []string{"arxiv", "openalex", "crossref", "doaj"}
	if strings.Join(ids, ",") != strings.Join(want, ",") {
		t.Errorf("provider order = %v, want %v", ids, want)
	}
}

func TestBuildMissingCredentialFailsFast(t *testing.T) {
	tests := []struct {
		name string
		cfg  func(*types.ProvidersConfig)
	}{
		{"unpaywall without email", func(c *types.ProvidersConfig) { c.EnableUnpaywall = true }},
		{"core without api key", func(c *types.ProvidersConfig) { c.EnableCORE = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fastProviderCfg()
			tt.cfg(&cfg)
			if _, err := Build(cfg, http.DefaultClient); err == nil {
				t.Fatal("Build should fail for a missing required credential")
			} else if !strings.Contains(err.Error(), string(types.ErrConfiguration)) {
				t.Errorf("error %q should carry the configuration-error kind", err)
			}
		})
	}
}

func TestBuildDisabledProvidersOmitted(t *testing.T) {
	providers, err := Build(fastProviderCfg(), http.DefaultClient)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if len(providers) != 0 {
		t.Errorf("no providers enabled, got %d", len(providers))
	}
}

func TestArxivQueryIsDeterministic(t *testing.T) {
	p := NewArxiv(fastProviderCfg())

	c, err := p.Query(context.Background(), types.PublicationRef{ID: "2301.07041", ArxivID: "2301.07041"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if c == nil {
		t.Fatal("Query returned no candidate")
	}
	if c.URL != arxivPDFBase+"2301.07041" {
		t.Errorf("URL = %q, want %q", c.URL, arxivPDFBase+"2301.07041")
	}

	c2, _ := p.Query(context.Background(), types.PublicationRef{DOI: "10.1/abc"})
	if c2 != nil {
		t.Errorf("ref without arXiv ID must yield no candidate, got %+v", c2)
	}
}

func TestUnpaywallQueryPrefersPDFLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("email") == "" {
			t.Error("request is missing the required email parameter")
		}
		w.Write([]byte(`{
			"is_oa": true,
			"best_oa_location": {
				"url_for_pdf": "https://journal.example.org/1.pdf",
				"url": "https://journal.example.org/article/1",
				"version": "submittedVersion"
			}
		}`))
	}))
	defer srv.Close()

	orig := unpaywallAPIBase
	unpaywallAPIBase = srv.URL + "/"
	defer func() { unpaywallAPIBase = orig }()

	cfg := fastProviderCfg()
	cfg.UnpaywallEmail = "dev@example.org"
	p := NewUnpaywall(srv.Client(), cfg)

	c, err := p.Query(context.Background(), types.PublicationRef{DOI: "10.1/abc"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if c == nil {
		t.Fatal("Query returned no candidate")
	}
	if c.URL != "https://journal.example.org/1.pdf" {
		t.Errorf("URL = %q, want the url_for_pdf link", c.URL)
	}
	if c.Metadata["version"] != "submittedVersion" {
		t.Errorf("version metadata = %q, want submittedVersion", c.Metadata["version"])
	}
}

func TestUnpaywallQueryClosedAccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"is_oa": false, "best_oa_location": null}`))
	}))
	defer srv.Close()

	orig := unpaywallAPIBase
	unpaywallAPIBase = srv.URL + "/"
	defer func() { unpaywallAPIBase = orig }()

	cfg := fastProviderCfg()
	cfg.UnpaywallEmail = "dev@example.org"
	p := NewUnpaywall(srv.Client(), cfg)

	c, err := p.Query(context.Background(), types.PublicationRef{DOI: "10.1/closed"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if c != nil {
		t.Errorf("closed-access work must yield no candidate, got %+v", c)
	}
}

func TestCrossrefQueryResolverFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message": {"link": []}}`))
	}))
	defer srv.Close()

	orig := crossrefAPIBase
	crossrefAPIBase = srv.URL + "/"
	defer func() { crossrefAPIBase = orig }()

	p := NewCrossref(srv.Client(), fastProviderCfg())
	c, err := p.Query(context.Background(), types.PublicationRef{DOI: "10.1/abc"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if c == nil {
		t.Fatal("Query returned no candidate")
	}
	if c.URL != doiResolverBase+"10.1/abc" {
		t.Errorf("URL = %q, want the doi.org resolver fallback", c.URL)
	}
}

func TestProviderThrottleSpacesRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"best_oa_location": {"pdf_url": "https://x.org/a.pdf"}}`))
	}))
	defer srv.Close()

	orig := openAlexAPIBase
	openAlexAPIBase = srv.URL + "/"
	defer func() { openAlexAPIBase = orig }()

	cfg := fastProviderCfg()
	cfg.MinRequestInterval = 50 * time.Millisecond
	p := NewOpenAlex(srv.Client(), cfg)

	ref := types.PublicationRef{DOI: "10.1/abc"}
	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := p.Query(context.Background(), ref); err != nil {
			t.Fatalf("Query %d returned error: %v", i, err)
		}
	}
	// Burst of 1 plus two waits: at least two full intervals must elapse.
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("three queries took %v, throttle should enforce ~100ms minimum", elapsed)
	}
}
