// Package authwall decides whether a saved HTML snapshot was captured behind
// a login wall by comparing it with what an anonymous visitor gets today.
//
// The decision is a heuristic. False positives and negatives are expected.
package authwall

import (
	"context"
	"log/slog"

	"github.com/lysyi3m/card-preview/app/website"
)

const (
	ContentThreshold        = 80.0
	RelaxedContentThreshold = 65.0
	// TitleMatchThreshold is the title similarity above which the relaxed
	// content threshold applies.
	TitleMatchThreshold = 90.0
)

type Fetcher interface {
	Simple(ctx context.Context, url string) (string, error)
}

type Parser interface {
	Run(rawHTML, pageURL string) (*website.Fields, error)
}

type Detector struct {
	fetcher Fetcher
	parser  Parser
}

func NewDetector(fetcher Fetcher, parser Parser) *Detector {
	return &Detector{fetcher: fetcher, parser: parser}
}

// IsAuthWalled reports whether snapshotHTML looks like it was captured while
// logged in. A URL that cannot be fetched or parsed anonymously counts as
// auth-walled.
func (d *Detector) IsAuthWalled(ctx context.Context, url, snapshotHTML string) bool {
	html, err := d.fetcher.Simple(ctx, url)
	if err != nil {
		slog.Debug("Live fetch failed, assuming auth wall", "url", url, "error", err)
		return true
	}

	live, err := d.parser.Run(html, url)
	if err != nil {
		slog.Debug("Live parse failed, assuming auth wall", "url", url, "error", err)
		return true
	}

	snapshot, err := d.parser.Run(snapshotHTML, url)
	if err != nil {
		slog.Debug("Snapshot parse failed", "url", url, "error", err)
		snapshot = &website.Fields{}
	}

	titleSim := Similarity(live.Title, snapshot.Title)
	contentSim := Similarity(live.Text, snapshot.Text)
	walled := Decide(titleSim, contentSim)

	slog.Debug("Auth wall check",
		"url", url,
		"title_similarity", titleSim,
		"content_similarity", contentSim,
		"auth_walled", walled)

	return walled
}

// Decide applies the thresholds to precomputed similarity percentages.
func Decide(titleSim, contentSim float64) bool {
	threshold := ContentThreshold
	if titleSim > TitleMatchThreshold {
		threshold = RelaxedContentThreshold
	}
	return contentSim < threshold
}
