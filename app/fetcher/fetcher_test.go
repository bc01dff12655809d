package fetcher

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestFetcher_Simple_Success(t *testing.T) {
	var gotUA, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer server.Close()

	f := New(Config{}, nil, nil)

	html, err := f.Simple(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if html != "<html><body>hello</body></html>" {
		t.Errorf("Unexpected body: %s", html)
	}
	if !slices.Contains(DefaultUserAgents, gotUA) {
		t.Errorf("Expected a user agent from the default pool, got '%s'", gotUA)
	}
	if !strings.Contains(gotAccept, "text/html") {
		t.Errorf("Expected HTML accept header, got '%s'", gotAccept)
	}
}

func TestFetcher_Simple_CustomUserAgents(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	f := New(Config{UserAgents: []string{"Custom/1.0"}}, nil, nil)
	if _, err := f.Simple(context.Background(), server.URL); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if gotUA != "Custom/1.0" {
		t.Errorf("Expected 'Custom/1.0', got '%s'", gotUA)
	}
}

func TestFetcher_Simple_NotFound(t *testing.T) {
	for _, status := range []int{400, 401, 403, 404, 500, 503} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		f := New(Config{}, nil, nil)
		_, err := f.Simple(context.Background(), server.URL)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound for status %d, got: %v", status, err)
		}
		server.Close()
	}
}

func TestFetcher_Simple_MaxBodySize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("a", 100)))
	}))
	defer server.Close()

	f := New(Config{MaxBodySize: 10}, nil, nil)
	html, err := f.Simple(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(html) != 10 {
		t.Errorf("Expected body capped at 10 bytes, got %d", len(html))
	}
}

type fakePage struct {
	status      int
	navErr      error
	html        string
	navDelay    time.Duration
	closed      bool
	closeErr    error
	shotPath    string
	gotViewport ViewportSize
}

func (p *fakePage) Navigate(ctx context.Context, url string) (int, error) {
	if p.navDelay > 0 {
		select {
		case <-time.After(p.navDelay):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	return p.status, p.navErr
}

func (p *fakePage) HTML() (string, error) {
	return p.html, nil
}

func (p *fakePage) Screenshot(path string) error {
	p.shotPath = path
	return os.WriteFile(path, []byte("png"), 0o644)
}

func (p *fakePage) Close() error {
	p.closed = true
	return p.closeErr
}

type fakeBrowser struct {
	page *fakePage
}

func (b *fakeBrowser) Open(ctx context.Context, vp ViewportSize) (Page, error) {
	b.page.gotViewport = vp
	return b.page, nil
}

func TestFetcher_Full_Success(t *testing.T) {
	dir := t.TempDir()
	page := &fakePage{status: 200, html: "<html>rendered</html>"}
	f := New(Config{ScreenshotDir: dir}, nil, &fakeBrowser{page: page})

	html, shot, err := f.Full(context.Background(), "https://example.com", time.Second)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if html != "<html>rendered</html>" {
		t.Errorf("Unexpected HTML: %s", html)
	}
	if filepath.Dir(shot) != dir {
		t.Errorf("Expected screenshot in %s, got %s", dir, shot)
	}
	if _, err := os.Stat(shot); err != nil {
		t.Errorf("Expected screenshot file to be left for the caller: %v", err)
	}
	if !page.closed {
		t.Errorf("Expected page to be closed")
	}
	if page.gotViewport != (ViewportSize{Width: 1440, Height: 900, Scale: 2}) {
		t.Errorf("Unexpected viewport: %+v", page.gotViewport)
	}
}

func TestFetcher_Full_NotFound(t *testing.T) {
	page := &fakePage{status: 404, html: "<html>missing</html>"}
	f := New(Config{ScreenshotDir: t.TempDir()}, nil, &fakeBrowser{page: page})

	_, _, err := f.Full(context.Background(), "https://example.com", time.Second)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got: %v", err)
	}
	if !page.closed {
		t.Errorf("Expected page to be closed on failure")
	}
}

func TestFetcher_Full_Timeout(t *testing.T) {
	page := &fakePage{status: 200, navDelay: time.Second}
	f := New(Config{ScreenshotDir: t.TempDir()}, nil, &fakeBrowser{page: page})

	_, _, err := f.Full(context.Background(), "https://example.com", 20*time.Millisecond)
	if !errors.Is(err, ErrRenderTimeout) {
		t.Errorf("Expected ErrRenderTimeout, got: %v", err)
	}
	if !page.closed {
		t.Errorf("Expected page to be closed on timeout")
	}
}

func TestFetcher_Full_NavigationError(t *testing.T) {
	page := &fakePage{navErr: errors.New("net::ERR_NAME_NOT_RESOLVED")}
	f := New(Config{ScreenshotDir: t.TempDir()}, nil, &fakeBrowser{page: page})

	_, _, err := f.Full(context.Background(), "https://example.invalid", time.Second)
	if err == nil || errors.Is(err, ErrRenderTimeout) || errors.Is(err, ErrNotFound) {
		t.Errorf("Expected plain navigation error, got: %v", err)
	}
	if !page.closed {
		t.Errorf("Expected page to be closed on error")
	}
}

func TestFetcher_Full_NoBrowser(t *testing.T) {
	f := New(Config{}, nil, nil)

	_, _, err := f.Full(context.Background(), "https://example.com", time.Second)
	if !errors.Is(err, ErrNoBrowser) {
		t.Errorf("Expected ErrNoBrowser, got: %v", err)
	}
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestClosePage_LogsError(t *testing.T) {
	logs := captureLogs(t)
	page := &fakePage{closeErr: errors.New("target closed")}

	closePage(page, "https://example.com")

	if !page.closed {
		t.Error("Expected page to be closed")
	}
	if !strings.Contains(logs.String(), "Failed to close browser page") || !strings.Contains(logs.String(), "target closed") {
		t.Errorf("Expected close error to be logged, got %q", logs.String())
	}
}

func TestFetcher_Full_CloseErrorLogged(t *testing.T) {
	logs := captureLogs(t)
	page := &fakePage{status: 200, html: "<html>rendered</html>", closeErr: errors.New("target closed")}
	f := New(Config{ScreenshotDir: t.TempDir()}, nil, &fakeBrowser{page: page})

	html, _, err := f.Full(context.Background(), "https://example.com", time.Second)
	if err != nil {
		t.Fatalf("Full() error = %v", err)
	}
	if html != "<html>rendered</html>" {
		t.Errorf("Unexpected HTML: %q", html)
	}
	if !strings.Contains(logs.String(), "target closed") {
		t.Errorf("Expected close error to be logged, got %q", logs.String())
	}
}

func TestLoadUserAgents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agents.yml")
	content := `
user_agents:
  - "Agent/1"
  - ""
  - "Agent/2"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	agents, err := LoadUserAgents(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(agents) != 2 || agents[0] != "Agent/1" || agents[1] != "Agent/2" {
		t.Errorf("Unexpected agents: %v", agents)
	}
}

func TestLoadUserAgents_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agents.yml")
	if err := os.WriteFile(path, []byte("user_agents: []\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadUserAgents(path); err == nil {
		t.Errorf("Expected error for empty user agent list")
	}
}

func TestLoadUserAgents_MissingFile(t *testing.T) {
	if _, err := LoadUserAgents(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Errorf("Expected error for missing file")
	}
}
