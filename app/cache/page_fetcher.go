package cache

import (
	"context"
	"log/slog"
	"time"
)

type Fetcher interface {
	Simple(ctx context.Context, url string) (string, error)
}

// PageFetcher serves simple fetches from the store when possible. Only
// successful, non-empty responses are stored. Store failures fall through to
// the wrapped fetcher.
type PageFetcher struct {
	next  Fetcher
	store Store
	ttl   time.Duration
}

func NewPageFetcher(next Fetcher, store Store, ttl time.Duration) *PageFetcher {
	return &PageFetcher{next: next, store: store, ttl: ttl}
}

func (f *PageFetcher) Simple(ctx context.Context, url string) (string, error) {
	key := PageKey(url)

	html, ok, err := f.store.Get(ctx, key)
	if err != nil {
		slog.Warn("Page cache read failed", "url", url, "error", err)
	} else if ok {
		slog.Debug("Page cache hit", "url", url)
		return html, nil
	}

	html, err = f.next.Simple(ctx, url)
	if err != nil {
		return "", err
	}

	if html != "" {
		if err := f.store.Set(ctx, key, html, f.ttl); err != nil {
			slog.Warn("Page cache write failed", "url", url, "error", err)
		}
	}

	return html, nil
}
