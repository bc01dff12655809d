package parser

import (
	"errors"
	"fmt"
	"log/slog"
	nurl "net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"

	"github.com/lysyi3m/card-preview/app/website"
)

// DefaultMinTextLength is the smallest amount of main-content text (in
// characters) accepted as a successful parse.
const DefaultMinTextLength = 25

var (
	ErrEmptyHTML = errors.New("HTML data is empty")
	ErrParse     = errors.New("no readable content")
)

// Parser runs readability over raw HTML and sanitizes its output.
type Parser struct {
	policy        *bluemonday.Policy
	markdown      *converter.Converter
	minTextLength int
}

func NewParser() *Parser {
	return &Parser{
		policy: newPolicy(),
		markdown: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
		minTextLength: DefaultMinTextLength,
	}
}

// WithMinTextLength returns a copy of the parser using a different threshold.
func (p *Parser) WithMinTextLength(n int) *Parser {
	cp := *p
	cp.minTextLength = n
	return &cp
}

// Run extracts the main article of rawHTML. pageURL may be empty; when set it
// is used to resolve relative links and images.
func (p *Parser) Run(rawHTML, pageURL string) (*website.Fields, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, ErrEmptyHTML
	}

	var base *nurl.URL
	if pageURL != "" {
		if u, err := nurl.Parse(pageURL); err == nil {
			base = u
		}
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), base)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	text := strings.TrimSpace(article.TextContent)
	if article.Content == "" || len([]rune(text)) < p.minTextLength {
		return nil, fmt.Errorf("%w: content below threshold (%d chars)", ErrParse, len([]rune(text)))
	}

	clean := p.policy.Sanitize(article.Content)
	if strings.TrimSpace(clean) == "" {
		return nil, fmt.Errorf("%w: content empty after sanitizing", ErrParse)
	}

	fields := &website.Fields{
		Title:    strings.TrimSpace(article.Title),
		Author:   strings.TrimSpace(article.Byline),
		Excerpt:  strings.TrimSpace(article.Excerpt),
		HTML:     clean,
		Image:    article.Image,
		Text:     text,
		Markdown: p.toMarkdown(clean, pageURL),
	}

	slog.Debug("Content extracted successfully",
		"title", fields.Title,
		"content_length", len(fields.HTML))

	return fields, nil
}

func (p *Parser) toMarkdown(html, pageURL string) string {
	var (
		md  string
		err error
	)
	if pageURL != "" {
		md, err = p.markdown.ConvertString(html, converter.WithDomain(pageURL))
	} else {
		md, err = p.markdown.ConvertString(html)
	}
	if err != nil {
		slog.Debug("Markdown conversion failed", "error", err)
		return ""
	}
	return strings.TrimSpace(md)
}
