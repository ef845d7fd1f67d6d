// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package download

import (
	"bytes"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// looksLikeMarkup reports whether a payload is plausibly an HTML page
// rather than binary content.
func looksLikeMarkup(body []byte) bool {
	head := body
	if len(head) > 1024 {
		head = head[:1024]
	}
	lower := bytes.ToLower(bytes.TrimSpace(head))
	return bytes.HasPrefix(lower, []byte("<!doctype html")) ||
		bytes.HasPrefix(lower, []byte("<html")) ||
		bytes.Contains(lower, []byte("<head")) ||
		bytes.Contains(lower, []byte("<body"))
}

// extractContentLink parses a landing page and returns the most plausible
// embedded content link, resolved against the page URL. Search order:
// citation_pdf_url meta tags (the scholarly convention), then link elements
// typed application/pdf, then anchors whose target looks like a PDF.
func extractContentLink(body []byte, pageURL string) (string, bool) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", false
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	if link := findMetaPDFURL(doc); link != "" {
		return resolveLink(base, link)
	}
	if link := findTypedPDFLink(doc); link != "" {
		return resolveLink(base, link)
	}
	if link := findPDFAnchor(doc); link != "" {
		return resolveLink(base, link)
	}
	return "", false
}

// findMetaPDFURL looks for <meta name="citation_pdf_url" content="...">.
func findMetaPDFURL(doc *html.Node) string {
	var found string
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.DataAtom != atom.Meta {
			return true
		}
		var name, content string
		for _, a := range n.Attr {
			switch strings.ToLower(a.Key) {
			case "name":
				name = strings.ToLower(a.Val)
			case "content":
				content = a.Val
			}
		}
		if name == "citation_pdf_url" && content != "" {
			found = content
			return false
		}
		return true
	})
	return found
}

// findTypedPDFLink looks for <link type="application/pdf" href="...">  or
// <a type="application/pdf" href="...">.
func findTypedPDFLink(doc *html.Node) string {
	var found string
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || (n.DataAtom != atom.Link && n.DataAtom != atom.A) {
			return true
		}
		var typ, href string
		for _, a := range n.Attr {
			switch strings.ToLower(a.Key) {
			case "type":
				typ = strings.ToLower(a.Val)
			case "href":
				href = a.Val
			}
		}
		if typ == "application/pdf" && href != "" {
			found = href
			return false
		}
		return true
	})
	return found
}

// findPDFAnchor returns the first anchor whose href ends in .pdf or carries
// a /pdf/ path segment.
func findPDFAnchor(doc *html.Node) string {
	var found string
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.DataAtom != atom.A {
			return true
		}
		for _, a := range n.Attr {
			if strings.ToLower(a.Key) != "href" {
				continue
			}
			href := a.Val
			lower := strings.ToLower(href)
			trimmed := lower
			if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
				trimmed = trimmed[:i]
			}
			if strings.HasSuffix(trimmed, ".pdf") || strings.Contains(trimmed, "/pdf/") {
				found = href
				return false
			}
		}
		return true
	})
	return found
}

// walk visits nodes depth-first until fn returns false.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

// resolveLink makes a possibly-relative link absolute against the page URL.
func resolveLink(base *url.URL, link string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return "", false
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" && u.Scheme != "ftp" {
		return "", false
	}
	return u.String(), true
}
