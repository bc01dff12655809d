package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

type BrowserConfig struct {
	// RemoteURL is the DevTools WebSocket URL of an external Chrome.
	// Empty launches a local headless Chrome on first use.
	RemoteURL string
	// Bin overrides the Chrome binary used by the launcher.
	Bin string
	// Stealth applies the go-rod stealth evasions to each page.
	Stealth bool
}

// RodBrowser is a Browser backed by Chrome through go-rod. The Chrome
// process is started lazily and shared by all pages.
type RodBrowser struct {
	cfg     BrowserConfig
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
}

func NewRodBrowser(cfg BrowserConfig) *RodBrowser {
	return &RodBrowser{cfg: cfg}
}

func (b *RodBrowser) Open(ctx context.Context, vp ViewportSize) (Page, error) {
	br, err := b.connect()
	if err != nil {
		return nil, err
	}

	var page *rod.Page
	if b.cfg.Stealth {
		page, err = stealth.Page(br)
	} else {
		page, err = br.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("browser: create page: %w", err)
	}

	err = page.Context(ctx).SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             vp.Width,
		Height:            vp.Height,
		DeviceScaleFactor: vp.Scale,
	})
	if err != nil {
		closePage(page, "")
		return nil, fmt.Errorf("browser: set viewport: %w", err)
	}

	return &rodPage{page: page}, nil
}

// Close shuts down Chrome if it was launched by this browser.
func (b *RodBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var err error
	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
	}
	if b.lnch != nil {
		b.lnch.Cleanup()
		b.lnch = nil
	}
	return err
}

func (b *RodBrowser) connect() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser != nil {
		return b.browser, nil
	}

	wsURL := b.cfg.RemoteURL
	if wsURL == "" {
		l := launcher.New().Headless(true).
			Set("disable-blink-features", "AutomationControlled")
		if b.cfg.Bin != "" {
			l = l.Bin(b.cfg.Bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		b.lnch = l
		slog.Info("Launched local chrome", "url", wsURL)
	}

	br := rod.New().ControlURL(wsURL)
	if err := br.Connect(); err != nil {
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	b.browser = br
	return br, nil
}

type rodPage struct {
	page *rod.Page
}

func (p *rodPage) Navigate(ctx context.Context, url string) (int, error) {
	page := p.page.Context(ctx)

	status := 0
	wait := page.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type == proto.NetworkResourceTypeDocument {
			status = e.Response.Status
			return true
		}
		return false
	})

	if err := page.Navigate(url); err != nil {
		return 0, err
	}
	wait()

	if err := page.WaitLoad(); err != nil {
		return status, err
	}
	return status, nil
}

func (p *rodPage) HTML() (string, error) {
	return p.page.HTML()
}

func (p *rodPage) Screenshot(path string) error {
	data, err := p.page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (p *rodPage) Close() error {
	return p.page.Close()
}
