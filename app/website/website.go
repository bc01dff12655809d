package website

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrHTMLAlreadySet = errors.New("website HTML is already set")

// Fields are the values produced by one parse of a page.
type Fields struct {
	Title    string
	Author   string
	Excerpt  string
	HTML     string // sanitized main content
	Image    string
	Text     string // plain text of the main content
	Markdown string
}

type Website struct {
	ID             string
	URL            string
	RawHTML        string
	ScreenshotPath string

	Title    string
	Author   string
	Excerpt  string
	HTML     string
	Image    string
	Text     string
	Markdown string

	CreatedAt time.Time
}

func New(url string) *Website {
	return &Website{
		ID:        uuid.NewString(),
		URL:       url,
		CreatedAt: time.Now().UTC(),
	}
}

// AttachHTML sets the raw payload. It can only be done once per record.
func (w *Website) AttachHTML(rawHTML string) error {
	if w.RawHTML != "" {
		return ErrHTMLAlreadySet
	}
	w.RawHTML = rawHTML
	return nil
}

// ApplyFields replaces every parsed field with the given values.
func (w *Website) ApplyFields(f Fields) {
	w.Title = f.Title
	w.Author = f.Author
	w.Excerpt = f.Excerpt
	w.HTML = f.HTML
	w.Image = f.Image
	w.Text = f.Text
	w.Markdown = f.Markdown
}

// Parsed reports whether a parse produced main content. An empty HTML field
// means the parse failed, not that the page was empty.
func (w *Website) Parsed() bool {
	return w.HTML != ""
}

func (w *Website) Fields() Fields {
	return Fields{
		Title:    w.Title,
		Author:   w.Author,
		Excerpt:  w.Excerpt,
		HTML:     w.HTML,
		Image:    w.Image,
		Text:     w.Text,
		Markdown: w.Markdown,
	}
}
