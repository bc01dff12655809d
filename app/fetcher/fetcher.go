// Package fetcher retrieves raw page HTML, either with a single HTTP GET or
// through a headless browser render that also captures a screenshot.
// It never retries; retry policy belongs to the caller.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"
)

var (
	ErrNotFound      = errors.New("page not found")
	ErrRenderTimeout = errors.New("render timed out")
	ErrNoBrowser     = errors.New("no headless browser configured")
)

const (
	defaultTimeout       = 30 * time.Second
	defaultRenderTimeout = 30 * time.Second
	defaultMaxBodySize   = 10 << 20
)

type Config struct {
	UserAgents    []string
	Timeout       time.Duration // simple fetch
	RenderTimeout time.Duration // full fetch, when the caller passes none
	ScreenshotDir string
	MaxBodySize   int64
}

func (c *Config) defaults() {
	if len(c.UserAgents) == 0 {
		c.UserAgents = DefaultUserAgents
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.RenderTimeout <= 0 {
		c.RenderTimeout = defaultRenderTimeout
	}
	if c.MaxBodySize <= 0 {
		c.MaxBodySize = defaultMaxBodySize
	}
}

type Fetcher struct {
	cfg        Config
	httpClient *http.Client
	browser    Browser
}

// New creates a Fetcher. httpClient may be nil; browser may be nil, in which
// case Full always fails with ErrNoBrowser.
func New(cfg Config, httpClient *http.Client, browser Browser) *Fetcher {
	cfg.defaults()
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Fetcher{
		cfg:        cfg,
		httpClient: httpClient,
		browser:    browser,
	}
}

// Simple issues one GET with a randomly chosen user agent.
func (f *Fetcher) Simple(ctx context.Context, url string) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("%w: HTTP %d", ErrNotFound, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodySize))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	slog.Debug("Page fetched", "url", url, "status", resp.StatusCode, "size", len(data))

	return string(data), nil
}

func (f *Fetcher) userAgent() string {
	return f.cfg.UserAgents[rand.IntN(len(f.cfg.UserAgents))]
}
