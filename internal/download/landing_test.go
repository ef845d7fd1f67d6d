// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package download

import "testing"

func TestLooksLikeMarkup(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"doctype", "<!DOCTYPE html><html></html>", true},
		{"html tag", "<html><body></body></html>", true},
		{"leading whitespace", "\n\n  <html>", true},
		{"head only", "<head><title>x</title></head>", true},
		{"pdf bytes", "%PDF-1.4 binary", false},
		{"plain text", "just some text", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := looksLikeMarkup([]byte(tt.body)); got != tt.want {
				t.Errorf("looksLikeMarkup(%q) = %v, want %v", tt.body, got, tt.want)
			}
		})
	}
}

func TestExtractContentLink(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		pageURL string
		want    string
		wantOK  bool
	}{
		{
			name: "citation meta wins",
			body: `<html><head><meta name="citation_pdf_url" content="https://pub.org/1.pdf"></head>
				<body><a href="/other.pdf">x</a></body></html>`,
			pageURL: "https://pub.org/article/1",
			want:    "https://pub.org/1.pdf",
			wantOK:  true,
		},
		{
			name:    "relative citation meta resolved",
			body:    `<html><head><meta name="citation_pdf_url" content="/files/1.pdf"></head></html>`,
			pageURL: "https://pub.org/article/1",
			want:    "https://pub.org/files/1.pdf",
			wantOK:  true,
		},
		{
			name:    "typed link element",
			body:    `<html><head><link type="application/pdf" href="/dl/1.pdf"></head></html>`,
			pageURL: "https://pub.org/article/1",
			want:    "https://pub.org/dl/1.pdf",
			wantOK:  true,
		},
		{
			name:    "pdf anchor by suffix",
			body:    `<html><body><a href="paper.pdf">PDF</a></body></html>`,
			pageURL: "https://pub.org/article/1",
			want:    "https://pub.org/article/paper.pdf",
			wantOK:  true,
		},
		{
			name:    "pdf anchor by path segment",
			body:    `<html><body><a href="https://pub.org/pdf/10.1/abc">Full text</a></body></html>`,
			pageURL: "https://pub.org/article/1",
			want:    "https://pub.org/pdf/10.1/abc",
			wantOK:  true,
		},
		{
			name:    "anchor with query string",
			body:    `<html><body><a href="/dl/1.pdf?download=true">PDF</a></body></html>`,
			pageURL: "https://pub.org/article/1",
			want:    "https://pub.org/dl/1.pdf?download=true",
			wantOK:  true,
		},
		{
			name:    "no content link",
			body:    `<html><body><a href="/about">About</a></body></html>`,
			pageURL: "https://pub.org/article/1",
			wantOK:  false,
		},
		{
			name:    "javascript link rejected",
			body:    `<html><head><meta name="citation_pdf_url" content="javascript:open()"></head></html>`,
			pageURL: "https://pub.org/article/1",
			wantOK:  false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractContentLink([]byte(tt.body), tt.pageURL)
			if ok != tt.wantOK {
				t.Fatalf("extractContentLink ok = %v, want %v (got %q)", ok, tt.wantOK, got)
			}
			if ok && got != tt.want {
				t.Errorf("extractContentLink = %q, want %q", got, tt.want)
			}
		})
	}
}
