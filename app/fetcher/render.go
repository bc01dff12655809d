package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Viewport used for every full render.
var Viewport = ViewportSize{Width: 1440, Height: 900, Scale: 2}

type ViewportSize struct {
	Width  int
	Height int
	Scale  float64
}

// Browser opens headless pages.
type Browser interface {
	Open(ctx context.Context, vp ViewportSize) (Page, error)
}

// Page is a single headless browser tab.
type Page interface {
	// Navigate loads url and returns the HTTP status of the main document.
	Navigate(ctx context.Context, url string) (int, error)
	HTML() (string, error)
	// Screenshot writes a full-page PNG to path.
	Screenshot(path string) error
	Close() error
}

// Full renders url in the headless browser and returns the page HTML and the
// path of a full-page screenshot. The screenshot file belongs to the caller.
func (f *Fetcher) Full(ctx context.Context, url string, timeout time.Duration) (string, string, error) {
	if f.browser == nil {
		return "", "", ErrNoBrowser
	}
	if timeout <= 0 {
		timeout = f.cfg.RenderTimeout
	}

	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	page, err := f.browser.Open(navCtx, Viewport)
	if err != nil {
		return "", "", fmt.Errorf("failed to open page: %w", err)
	}
	defer closePage(page, url)

	status, err := page.Navigate(navCtx, url)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(navCtx.Err(), context.DeadlineExceeded) {
			return "", "", fmt.Errorf("%w after %s: %s", ErrRenderTimeout, timeout, url)
		}
		return "", "", fmt.Errorf("failed to navigate: %w", err)
	}
	if status >= 400 {
		return "", "", fmt.Errorf("%w: HTTP %d", ErrNotFound, status)
	}

	html, err := page.HTML()
	if err != nil {
		return "", "", fmt.Errorf("failed to read page HTML: %w", err)
	}

	path, err := f.screenshotPath()
	if err != nil {
		return "", "", err
	}
	if err := page.Screenshot(path); err != nil {
		return "", "", fmt.Errorf("failed to capture screenshot: %w", err)
	}

	slog.Debug("Page rendered", "url", url, "status", status, "size", len(html), "screenshot", path)

	return html, path, nil
}

func (f *Fetcher) screenshotPath() (string, error) {
	dir := f.cfg.ScreenshotDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create screenshot dir: %w", err)
	}
	return filepath.Join(dir, uuid.NewString()+".png"), nil
}

// closePage closes p, logging any failure.
func closePage(p interface{ Close() error }, url string) {
	if err := p.Close(); err != nil {
		slog.Warn("Failed to close browser page", "url", url, "error", err)
	}
}
