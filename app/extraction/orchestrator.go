// Package extraction turns a URL or an HTML snapshot into a parsed website.
//
// Run performs exactly one attempt. The caller owns the attempt counter and
// re-invokes Run with attempt+1 when the result asks for a retry.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/card-preview/app/docservice"
	"github.com/lysyi3m/card-preview/app/parser"
	"github.com/lysyi3m/card-preview/app/strategy"
	"github.com/lysyi3m/card-preview/app/website"
)

type Fetcher interface {
	Simple(ctx context.Context, url string) (string, error)
	Full(ctx context.Context, url string, timeout time.Duration) (string, string, error)
}

type Parser interface {
	Run(rawHTML, pageURL string) (*website.Fields, error)
}

type DocumentService interface {
	Extract(ctx context.Context, url string) (*docservice.Document, error)
}

type Status int

const (
	// StatusDone means Website holds a usable result.
	StatusDone Status = iota
	// StatusRetry asks the caller to run again with the next attempt index.
	StatusRetry
	// StatusEmpty means nothing could be extracted and there is no URL to fall back on.
	StatusEmpty
)

func (s Status) String() string {
	switch s {
	case StatusDone:
		return "done"
	case StatusRetry:
		return "retry"
	default:
		return "empty"
	}
}

type Source string

const (
	SourceSnapshot        Source = "snapshot"
	SourceFullFetch       Source = "full_fetch"
	SourceSimpleFetch     Source = "simple_fetch"
	SourceDocumentService Source = "document_service"
)

type Request struct {
	URL     string
	HTML    string // optional snapshot; skips fetching when set
	Attempt int
}

type Result struct {
	Status   Status
	Source   Source
	Strategy strategy.Strategy
	Website  *website.Website
	// Document is the verbatim service response when Source is SourceDocumentService.
	Document *docservice.Document
}

type Config struct {
	RenderTimeout time.Duration
}

type Orchestrator struct {
	cfg     Config
	fetcher Fetcher
	parser  Parser
	docs    DocumentService
}

func NewOrchestrator(cfg Config, fetcher Fetcher, parser Parser, docs DocumentService) *Orchestrator {
	return &Orchestrator{
		cfg:     cfg,
		fetcher: fetcher,
		parser:  parser,
		docs:    docs,
	}
}

// step is the tagged result of one fetch+parse.
type step struct {
	outcome Outcome
	site    *website.Website
	source  Source
	err     error
}

// Run performs one attempt. An error is returned only when the document
// service fails; every fetch or parse failure is reported through Result.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Result, error) {
	strat := strategy.Select(req.URL)
	hasURL := req.URL != ""

	if hasURL && ModeFor(req.Attempt) == ModeDocumentService {
		return o.fromDocumentService(ctx, req.URL, strat)
	}

	var s step
	switch {
	case req.HTML != "":
		s = o.parse(website.New(req.URL), req.HTML, req.URL, SourceSnapshot)
	case hasURL:
		s = o.fetchAndParse(ctx, req, strat)
	default:
		s = step{outcome: OutcomeEmpty}
	}

	action := Next(hasURL, s.outcome)

	slog.Debug("Extraction step finished",
		"url", req.URL,
		"attempt", req.Attempt,
		"strategy", strat.String(),
		"source", string(s.source),
		"outcome", s.outcome.String(),
		"action", action.String(),
		"error", s.err)

	switch action {
	case ActionReturn:
		return Result{Status: StatusDone, Source: s.source, Strategy: strat, Website: s.site}, nil
	case ActionRetry:
		return Result{Status: StatusRetry, Source: s.source, Strategy: strat, Website: s.site}, nil
	case ActionDocumentService:
		return o.fromDocumentService(ctx, req.URL, strat)
	default:
		return Result{Status: StatusEmpty, Source: s.source, Strategy: strat}, nil
	}
}

func (o *Orchestrator) fetchAndParse(ctx context.Context, req Request, strat strategy.Strategy) step {
	site := website.New(req.URL)

	if strat.ProviderSpecific() {
		exportURL := strategy.ToExportURL(req.URL)
		html, err := o.fetcher.Simple(ctx, exportURL)
		if err != nil {
			slog.Warn("Export fetch failed", "url", exportURL, "attempt", req.Attempt, "error", err)
			html = ""
		}
		return o.parse(site, html, exportURL, SourceSimpleFetch)
	}

	switch ModeFor(req.Attempt) {
	case ModeSimple:
		html, err := o.fetcher.Simple(ctx, req.URL)
		if err != nil {
			slog.Warn("Simple fetch failed", "url", req.URL, "attempt", req.Attempt, "error", err)
			html = ""
		}
		return o.parse(site, html, req.URL, SourceSimpleFetch)
	default:
		html, screenshot, err := o.fetcher.Full(ctx, req.URL, o.cfg.RenderTimeout)
		if err != nil {
			slog.Warn("Full fetch failed", "url", req.URL, "attempt", req.Attempt, "error", err)
			html = ""
		}
		site.ScreenshotPath = screenshot
		return o.parse(site, html, req.URL, SourceFullFetch)
	}
}

func (o *Orchestrator) parse(site *website.Website, html, pageURL string, source Source) step {
	if html == "" {
		return step{outcome: OutcomeEmpty, site: site, source: source, err: parser.ErrEmptyHTML}
	}
	if err := site.AttachHTML(html); err != nil {
		return step{outcome: OutcomeEscalate, site: site, source: source, err: err}
	}

	fields, err := o.parser.Run(html, pageURL)
	if err != nil {
		outcome := OutcomeEscalate
		if errors.Is(err, parser.ErrEmptyHTML) {
			outcome = OutcomeEmpty
		}
		return step{outcome: outcome, site: site, source: source, err: err}
	}

	site.ApplyFields(*fields)
	return step{outcome: OutcomeSuccess, site: site, source: source}
}

func (o *Orchestrator) fromDocumentService(ctx context.Context, url string, strat strategy.Strategy) (Result, error) {
	if o.docs == nil {
		return Result{}, fmt.Errorf("no document service configured for %s", url)
	}

	doc, err := o.docs.Extract(ctx, url)
	if err != nil {
		return Result{}, fmt.Errorf("failed to extract with document service: %w", err)
	}

	site := website.New(url)
	site.ApplyFields(website.Fields{
		Title:   doc.Title,
		Author:  doc.Author,
		Excerpt: doc.Excerpt,
		HTML:    doc.Content,
	})

	return Result{
		Status:   StatusDone,
		Source:   SourceDocumentService,
		Strategy: strat,
		Website:  site,
		Document: doc,
	}, nil
}
