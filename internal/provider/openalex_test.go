// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pdiddy/fulltext-engine/pkg/types"
)

func fastProviderCfg() types.ProvidersConfig {
	return types.ProvidersConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   5 * time.Second,
			UserAgent: "fulltext-engine-test/0.1",
		},
		MinRequestInterval: time.Millisecond,
	}
}

func TestOpenAlexQueryPDFURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"best_oa_location": {
				"pdf_url": "https://repo.example.org/files/paper.pdf",
				"landing_page_url": "https://repo.example.org/record/1",
				"version": "publishedVersion",
				"license": "cc-by"
			}
		}`))
	}))
	defer srv.Close()

	orig := openAlexAPIBase
	openAlexAPIBase = srv.URL + "/"
	defer func() { openAlexAPIBase = orig }()

	p := NewOpenAlex(srv.Client(), fastProviderCfg())
	c, err := p.Query(context.Background(), types.PublicationRef{ID: "10.1/abc", DOI: "10.1/abc"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if c == nil {
		t.Fatal("Query returned no candidate")
	}
	if c.URL != "https://repo.example.org/files/paper.pdf" {
		t.Errorf("URL = %q, want the pdf_url", c.URL)
	}
	if c.ProviderID != "openalex" {
		t.Errorf("ProviderID = %q, want openalex", c.ProviderID)
	}
	if c.BasePriority != p.BasePriority() {
		t.Errorf("BasePriority = %d, want %d", c.BasePriority, p.BasePriority())
	}
	if c.Metadata["license"] != "cc-by" {
		t.Errorf("license metadata = %q, want cc-by", c.Metadata["license"])
	}
}

func TestOpenAlexQueryLandingFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"best_oa_location": {"landing_page_url": "https://repo.example.org/record/1"}}`))
	}))
	defer srv.Close()

	orig := openAlexAPIBase
	openAlexAPIBase = srv.URL + "/"
	defer func() { openAlexAPIBase = orig }()

	p := NewOpenAlex(srv.Client(), fastProviderCfg())
	c, err := p.Query(context.Background(), types.PublicationRef{DOI: "10.1/abc"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if c == nil {
		t.Fatal("Query returned no candidate")
	}
	if c.URL != "https://repo.example.org/record/1" {
		t.Errorf("URL = %q, want the landing page", c.URL)
	}
	if c.Confidence >= 0.9 {
		t.Errorf("landing-page confidence %v should be below pdf confidence", c.Confidence)
	}
}

func TestOpenAlexQueryNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	orig := openAlexAPIBase
	openAlexAPIBase = srv.URL + "/"
	defer func() { openAlexAPIBase = orig }()

	p := NewOpenAlex(srv.Client(), fastProviderCfg())
	c, err := p.Query(context.Background(), types.PublicationRef{DOI: "10.1/missing"})
	if err != nil {
		t.Fatalf("404 must not be an error, got: %v", err)
	}
	if c != nil {
		t.Errorf("404 must yield no candidate, got %+v", c)
	}
}

func TestOpenAlexQueryNoOALocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"best_oa_location": null}`))
	}))
	defer srv.Close()

	orig := openAlexAPIBase
	openAlexAPIBase = srv.URL + "/"
	defer func() { openAlexAPIBase = orig }()

	p := NewOpenAlex(srv.Client(), fastProviderCfg())
	c, err := p.Query(context.Background(), types.PublicationRef{DOI: "10.1/closed"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if c != nil {
		t.Errorf("closed-access work must yield no candidate, got %+v", c)
	}
}

func TestOpenAlexQueryNoDOI(t *testing.T) {
	p := NewOpenAlex(http.DefaultClient, fastProviderCfg())
	c, err := p.Query(context.Background(), types.PublicationRef{ArxivID: "2301.07041"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if c != nil {
		t.Errorf("ref without DOI must yield no candidate, got %+v", c)
	}
}
