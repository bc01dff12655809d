// Package strategy picks how a URL should be extracted.
package strategy

import (
	nurl "net/url"
	"strings"
)

type Strategy int

const (
	Generic Strategy = iota
	GoogleDocs
)

const (
	googleDocsHost   = "docs.google.com"
	documentPrefix   = "/document/d/"
	exportPathSuffix = "/export/html"
)

func (s Strategy) String() string {
	switch s {
	case GoogleDocs:
		return "google_docs"
	default:
		return "generic"
	}
}

// ProviderSpecific reports whether the strategy rewrites the URL before fetching.
func (s Strategy) ProviderSpecific() bool {
	return s != Generic
}

// Select returns GoogleDocs for any URL on the Google Docs host and Generic
// for everything else, including URLs that do not parse. Only the host is
// inspected; ToExportURL decides whether the path can be rewritten.
func Select(rawURL string) Strategy {
	u, err := nurl.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return Generic
	}
	if !strings.EqualFold(u.Hostname(), googleDocsHost) {
		return Generic
	}
	return GoogleDocs
}

// ToExportURL turns a document URL into its HTML export URL:
//
//	https://docs.google.com/document/d/ID/edit -> https://docs.google.com/document/d/ID/export/html
//
// Anything after the document ID is replaced, so the function is idempotent.
// URLs without a document ID are returned unchanged.
func ToExportURL(rawURL string) string {
	u, err := nurl.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return rawURL
	}

	id := documentID(u.Path)
	if id == "" {
		return rawURL
	}

	u.Path = documentPrefix + id + exportPathSuffix
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// documentID returns the path segment following /document/d/.
func documentID(path string) string {
	if !strings.HasPrefix(path, documentPrefix) {
		return ""
	}
	rest := strings.TrimPrefix(path, documentPrefix)
	id, _, _ := strings.Cut(rest, "/")
	return id
}
