package docservice

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClient_Extract(t *testing.T) {
	var gotToken, gotURL string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.URL.Query().Get("token")
		gotURL = r.URL.Query().Get("url")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"objects":[{"title":"Doc Title","html":"<p>Body</p>","text":"Body text","author":"Ann"}]}`))
	}))
	defer server.Close()

	c := NewClient(Config{Endpoint: server.URL, Token: "secret"}, nil)

	doc, err := c.Extract(context.Background(), "https://example.com/a?b=c")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if gotToken != "secret" {
		t.Errorf("Expected token 'secret', got '%s'", gotToken)
	}
	if gotURL != "https://example.com/a?b=c" {
		t.Errorf("Expected url to be passed through, got '%s'", gotURL)
	}
	if doc.Title != "Doc Title" || doc.Content != "<p>Body</p>" || doc.Author != "Ann" || doc.Excerpt != "Body text" {
		t.Errorf("Unexpected document: %+v", doc)
	}
}

func TestClient_Extract_LongExcerpt(t *testing.T) {
	long := strings.Repeat("word ", 100)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"objects":[{"title":"T","html":"<p>x</p>","text":"` + long + `"}]}`))
	}))
	defer server.Close()

	doc, err := NewClient(Config{Endpoint: server.URL}, nil).Extract(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !strings.HasSuffix(doc.Excerpt, "…") {
		t.Errorf("Expected truncated excerpt, got '%s'", doc.Excerpt)
	}
	if len([]rune(doc.Excerpt)) > excerptLength+1 {
		t.Errorf("Expected excerpt of at most %d runes, got %d", excerptLength+1, len([]rune(doc.Excerpt)))
	}
}

func TestClient_Extract_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		target error
	}{
		{"http error", http.StatusInternalServerError, `oops`, nil},
		{"api error", http.StatusOK, `{"errorCode":401,"error":"Not authorized API token."}`, nil},
		{"bad json", http.StatusOK, `{`, nil},
		{"no objects", http.StatusOK, `{"objects":[]}`, ErrNoObjects},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(Config{Endpoint: server.URL}, nil).Extract(context.Background(), "https://example.com")
			if err == nil {
				t.Fatalf("Expected error")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("Expected %v, got: %v", tt.target, err)
			}
		})
	}
}
