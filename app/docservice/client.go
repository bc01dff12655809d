// Package docservice is a client for a third-party article extraction API
// (Diffbot article API shape). It is the terminal fallback of extraction.
package docservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	nurl "net/url"
	"strings"
	"time"
)

const (
	DefaultEndpoint = "https://api.diffbot.com/v3/article"
	excerptLength   = 200
)

var ErrNoObjects = errors.New("document service returned no objects")

// Document is the authoritative result of the service.
type Document struct {
	Title   string
	Content string
	Excerpt string
	Author  string
}

type Config struct {
	Endpoint string
	Token    string
	Timeout  time.Duration
}

type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config, httpClient *http.Client) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{cfg: cfg, httpClient: httpClient}
}

type apiResponse struct {
	Error     string      `json:"error"`
	ErrorCode int         `json:"errorCode"`
	Objects   []apiObject `json:"objects"`
}

type apiObject struct {
	Title  string `json:"title"`
	HTML   string `json:"html"`
	Text   string `json:"text"`
	Author string `json:"author"`
}

// Extract asks the service to extract the article at pageURL.
func (c *Client) Extract(ctx context.Context, pageURL string) (*Document, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	endpoint, err := nurl.Parse(c.cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid document service endpoint: %w", err)
	}
	q := endpoint.Query()
	q.Set("token", c.cfg.Token)
	q.Set("url", pageURL)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call document service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("document service HTTP error: %d %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode document service response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("document service error %d: %s", parsed.ErrorCode, parsed.Error)
	}
	if len(parsed.Objects) == 0 {
		return nil, ErrNoObjects
	}

	obj := parsed.Objects[0]
	doc := &Document{
		Title:   obj.Title,
		Content: obj.HTML,
		Excerpt: excerpt(obj.Text),
		Author:  obj.Author,
	}

	slog.Debug("Document service extraction", "url", pageURL, "title", doc.Title, "content_length", len(doc.Content))

	return doc, nil
}

func excerpt(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= excerptLength {
		return text
	}
	return strings.TrimSpace(string(runes[:excerptLength])) + "…"
}
