package parser

import "github.com/microcosm-cc/bluemonday"

// newPolicy allows ordinary article markup and drops scripts, styles,
// inline handlers and presentational attributes.
func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("loading").OnElements("img")
	p.AllowAttrs("datetime").OnElements("time")
	p.AllowElements("figure", "figcaption", "time")
	return p
}
