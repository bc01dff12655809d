// Package social turns a saved Twitter/X bookmarks page into tweet records.
//
// The page has no stable schema: every field is found by a fixed position
// relative to a few data-testid markers. When the platform changes its markup
// the accessors in nodes.go are the only place that needs updating. A missing
// node is a StructuralError for the whole call.
package social

import "fmt"

type Tweet struct {
	Name    string    `json:"name"`
	Handle  string    `json:"handle"`
	Created string    `json:"created"`
	Avatar  string    `json:"avatar"`
	Body    string    `json:"body"`
	Images  []string  `json:"images"`
	Reply   *Reply    `json:"reply,omitempty"`
	Link    *LinkCard `json:"link,omitempty"`
}

// Reply is a quoted tweet shown inside a post.
type Reply struct {
	Name       string `json:"name"`
	Handle     string `json:"handle"`
	Created    string `json:"created"`
	Avatar     string `json:"avatar"`
	ReplyingTo string `json:"replying_to"`
	Body       string `json:"body"`
}

// LinkCard is the preview card of a link attached to a post.
type LinkCard struct {
	Href        string `json:"href"`
	ImageSrc    string `json:"image_src"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Key identifies a tweet across re-scrapes of the same page.
func Key(handle, created string) string {
	return handle + "_" + created
}

func (t Tweet) Key() string {
	return Key(t.Handle, t.Created)
}

// StructuralError reports a node missing at its expected position.
type StructuralError struct {
	Post  int // zero-based index of the post in the page
	Field string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("post %d: missing %s node", e.Post, e.Field)
}
