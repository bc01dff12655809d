package extraction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lysyi3m/card-preview/app/docservice"
	"github.com/lysyi3m/card-preview/app/fetcher"
	"github.com/lysyi3m/card-preview/app/parser"
	"github.com/lysyi3m/card-preview/app/website"
)

type fakeFetcher struct {
	simpleHTML string
	simpleErr  error
	fullHTML   string
	fullShot   string
	fullErr    error

	simpleCalls []string
	fullCalls   []string
}

func (f *fakeFetcher) Simple(ctx context.Context, url string) (string, error) {
	f.simpleCalls = append(f.simpleCalls, url)
	return f.simpleHTML, f.simpleErr
}

func (f *fakeFetcher) Full(ctx context.Context, url string, timeout time.Duration) (string, string, error) {
	f.fullCalls = append(f.fullCalls, url)
	if f.fullErr != nil {
		return "", "", f.fullErr
	}
	return f.fullHTML, f.fullShot, nil
}

// fakeParser succeeds for "good" HTML and fails with ErrParse otherwise.
type fakeParser struct {
	calls int
}

func (p *fakeParser) Run(rawHTML, pageURL string) (*website.Fields, error) {
	p.calls++
	switch rawHTML {
	case "":
		return nil, parser.ErrEmptyHTML
	case "good":
		return &website.Fields{Title: "Parsed", HTML: "<p>content</p>"}, nil
	default:
		return nil, parser.ErrParse
	}
}

type fakeDocs struct {
	doc   *docservice.Document
	err   error
	calls []string
}

func (d *fakeDocs) Extract(ctx context.Context, url string) (*docservice.Document, error) {
	d.calls = append(d.calls, url)
	return d.doc, d.err
}

func newDocs() *fakeDocs {
	return &fakeDocs{doc: &docservice.Document{Title: "Service", Content: "<p>service</p>", Excerpt: "service", Author: "Bot"}}
}

func TestModeFor(t *testing.T) {
	tests := []struct {
		attempt int
		want    Mode
	}{
		{-1, ModeFull},
		{0, ModeFull},
		{1, ModeFull},
		{2, ModeFull},
		{3, ModeSimple},
		{4, ModeDocumentService},
		{9, ModeDocumentService},
	}

	for _, tt := range tests {
		if got := ModeFor(tt.attempt); got != tt.want {
			t.Errorf("ModeFor(%d) = %s, want %s", tt.attempt, got, tt.want)
		}
	}
}

func TestNext(t *testing.T) {
	tests := []struct {
		hasURL  bool
		outcome Outcome
		want    Action
	}{
		{true, OutcomeSuccess, ActionReturn},
		{false, OutcomeSuccess, ActionReturn},
		{true, OutcomeEmpty, ActionRetry},
		{false, OutcomeEmpty, ActionReturnEmpty},
		{true, OutcomeEscalate, ActionDocumentService},
		{false, OutcomeEscalate, ActionReturnEmpty},
	}

	for _, tt := range tests {
		if got := Next(tt.hasURL, tt.outcome); got != tt.want {
			t.Errorf("Next(%v, %s) = %s, want %s", tt.hasURL, tt.outcome, got, tt.want)
		}
	}
}

func TestRun_FullFetchSuccess(t *testing.T) {
	for _, attempt := range []int{0, 1, 2} {
		f := &fakeFetcher{fullHTML: "good", fullShot: "/tmp/shot.png"}
		docs := newDocs()
		o := NewOrchestrator(Config{}, f, &fakeParser{}, docs)

		res, err := o.Run(context.Background(), Request{URL: "https://example.com", Attempt: attempt})
		if err != nil {
			t.Fatalf("attempt %d: expected no error, got: %v", attempt, err)
		}
		if res.Status != StatusDone || res.Source != SourceFullFetch {
			t.Errorf("attempt %d: unexpected result %s/%s", attempt, res.Status, res.Source)
		}
		if res.Website.Title != "Parsed" || res.Website.RawHTML != "good" {
			t.Errorf("attempt %d: unexpected website %+v", attempt, res.Website)
		}
		if res.Website.ScreenshotPath != "/tmp/shot.png" {
			t.Errorf("attempt %d: expected screenshot path, got '%s'", attempt, res.Website.ScreenshotPath)
		}
		if len(f.fullCalls) != 1 || len(f.simpleCalls) != 0 {
			t.Errorf("attempt %d: expected one full fetch, got full=%d simple=%d", attempt, len(f.fullCalls), len(f.simpleCalls))
		}
		if len(docs.calls) != 0 {
			t.Errorf("attempt %d: expected no document service call", attempt)
		}
	}
}

func TestRun_FullFetchFailureAsksForRetry(t *testing.T) {
	for _, fetchErr := range []error{fetcher.ErrRenderTimeout, fetcher.ErrNotFound, errors.New("boom")} {
		f := &fakeFetcher{fullErr: fetchErr}
		docs := newDocs()
		o := NewOrchestrator(Config{}, f, &fakeParser{}, docs)

		res, err := o.Run(context.Background(), Request{URL: "https://example.com", Attempt: 0})
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if res.Status != StatusRetry {
			t.Errorf("Expected retry after %v, got %s", fetchErr, res.Status)
		}
		if len(docs.calls) != 0 {
			t.Errorf("Expected no escalation after a fetch failure")
		}
	}
}

func TestRun_SimpleFetchAtAttemptThree(t *testing.T) {
	f := &fakeFetcher{simpleHTML: "good", fullHTML: "good"}
	o := NewOrchestrator(Config{}, f, &fakeParser{}, newDocs())

	res, err := o.Run(context.Background(), Request{URL: "https://example.com", Attempt: 3})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if res.Status != StatusDone || res.Source != SourceSimpleFetch {
		t.Errorf("Unexpected result %s/%s", res.Status, res.Source)
	}
	if len(f.simpleCalls) != 1 || len(f.fullCalls) != 0 {
		t.Errorf("Expected one simple fetch, got full=%d simple=%d", len(f.fullCalls), len(f.simpleCalls))
	}
}

func TestRun_ParseFailureEscalates(t *testing.T) {
	for _, attempt := range []int{0, 2, 3} {
		f := &fakeFetcher{simpleHTML: "<html>login</html>", fullHTML: "<html>login</html>"}
		docs := newDocs()
		o := NewOrchestrator(Config{}, f, &fakeParser{}, docs)

		res, err := o.Run(context.Background(), Request{URL: "https://example.com/x", Attempt: attempt})
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if res.Status != StatusDone || res.Source != SourceDocumentService {
			t.Errorf("attempt %d: expected escalation to document service, got %s/%s", attempt, res.Status, res.Source)
		}
		if len(docs.calls) != 1 || docs.calls[0] != "https://example.com/x" {
			t.Errorf("attempt %d: unexpected document service calls %v", attempt, docs.calls)
		}
	}
}

func TestRun_DocumentServiceIsTerminal(t *testing.T) {
	f := &fakeFetcher{simpleHTML: "good", fullHTML: "good"}
	p := &fakeParser{}
	docs := newDocs()
	o := NewOrchestrator(Config{}, f, p, docs)

	res, err := o.Run(context.Background(), Request{URL: "https://example.com", Attempt: 4, HTML: "good"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if res.Document != docs.doc {
		t.Errorf("Expected the service document verbatim")
	}
	if res.Website.Title != "Service" || res.Website.HTML != "<p>service</p>" || res.Website.Author != "Bot" || res.Website.Excerpt != "service" {
		t.Errorf("Unexpected website %+v", res.Website)
	}
	if len(f.fullCalls)+len(f.simpleCalls) != 0 || p.calls != 0 {
		t.Errorf("Expected no fetch or parse at the terminal attempt")
	}
}

func TestRun_DocumentServiceError(t *testing.T) {
	docs := &fakeDocs{err: errors.New("quota exceeded")}
	o := NewOrchestrator(Config{}, &fakeFetcher{}, &fakeParser{}, docs)

	if _, err := o.Run(context.Background(), Request{URL: "https://example.com", Attempt: 4}); err == nil {
		t.Errorf("Expected error from document service")
	}
}

func TestRun_NoDocumentService(t *testing.T) {
	o := NewOrchestrator(Config{}, &fakeFetcher{}, &fakeParser{}, nil)

	if _, err := o.Run(context.Background(), Request{URL: "https://example.com", Attempt: 4}); err == nil {
		t.Errorf("Expected error without document service")
	}
}

func TestRun_SnapshotWithoutURL(t *testing.T) {
	docs := newDocs()
	o := NewOrchestrator(Config{}, &fakeFetcher{}, &fakeParser{}, docs)

	res, err := o.Run(context.Background(), Request{HTML: "good"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if res.Status != StatusDone || res.Source != SourceSnapshot {
		t.Errorf("Unexpected result %s/%s", res.Status, res.Source)
	}

	res, err = o.Run(context.Background(), Request{HTML: "<html>nothing</html>"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if res.Status != StatusEmpty || res.Website != nil {
		t.Errorf("Expected empty result for unparseable snapshot without URL, got %s", res.Status)
	}
	if len(docs.calls) != 0 {
		t.Errorf("Expected no escalation without URL")
	}
}

func TestRun_SnapshotWithURLEscalates(t *testing.T) {
	f := &fakeFetcher{}
	docs := newDocs()
	o := NewOrchestrator(Config{}, f, &fakeParser{}, docs)

	res, err := o.Run(context.Background(), Request{URL: "https://example.com", HTML: "<html>nothing</html>"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if res.Source != SourceDocumentService {
		t.Errorf("Expected escalation, got %s", res.Source)
	}
	if len(f.fullCalls)+len(f.simpleCalls) != 0 {
		t.Errorf("Expected no fetch when a snapshot is given")
	}
}

func TestRun_NoInput(t *testing.T) {
	o := NewOrchestrator(Config{}, &fakeFetcher{}, &fakeParser{}, newDocs())

	res, err := o.Run(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if res.Status != StatusEmpty {
		t.Errorf("Expected empty result, got %s", res.Status)
	}
}

func TestRun_GoogleDocsUsesExportURL(t *testing.T) {
	f := &fakeFetcher{simpleHTML: "good"}
	o := NewOrchestrator(Config{}, f, &fakeParser{}, newDocs())

	res, err := o.Run(context.Background(), Request{URL: "https://docs.google.com/document/d/ID/edit", Attempt: 0})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if res.Status != StatusDone {
		t.Errorf("Expected done, got %s", res.Status)
	}
	if len(f.simpleCalls) != 1 || f.simpleCalls[0] != "https://docs.google.com/document/d/ID/export/html" {
		t.Errorf("Expected export URL fetch, got %v", f.simpleCalls)
	}
	if len(f.fullCalls) != 0 {
		t.Errorf("Expected no full render for documents")
	}
	if res.Website.URL != "https://docs.google.com/document/d/ID/edit" {
		t.Errorf("Expected original URL kept on website, got '%s'", res.Website.URL)
	}
}
