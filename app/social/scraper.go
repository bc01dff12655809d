package social

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractPosts parses every post of a bookmarks page. Posts sharing a handle
// and timestamp collapse to the last one in document order. The first
// structural failure aborts the whole call.
func ExtractPosts(rawHTML string) (map[string]Tweet, error) {
	doc, err := load(rawHTML)
	if err != nil {
		return nil, err
	}

	tweets := make(map[string]Tweet)
	var firstErr error
	doc.Find(postSelector).EachWithBreak(func(i int, s *goquery.Selection) bool {
		t, err := extractPost(postNode{sel: s, index: i})
		if err != nil {
			firstErr = err
			return false
		}
		tweets[t.Key()] = t
		return true
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return tweets, nil
}

// ExtractPostsEach calls fn for every post in document order, passing either
// the tweet or the error that post produced. Failing posts do not stop the walk.
func ExtractPostsEach(rawHTML string, fn func(index int, t Tweet, err error)) error {
	doc, err := load(rawHTML)
	if err != nil {
		return err
	}
	doc.Find(postSelector).Each(func(i int, s *goquery.Selection) {
		t, err := extractPost(postNode{sel: s, index: i})
		fn(i, t, err)
	})
	return nil
}

func load(rawHTML string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse bookmarks page: %w", err)
	}
	return doc, nil
}

func extractPost(p postNode) (Tweet, error) {
	var (
		t   Tweet
		err error
	)
	if t.Name, err = p.displayName(); err != nil {
		return Tweet{}, err
	}
	if t.Handle, err = p.handle(); err != nil {
		return Tweet{}, err
	}
	if t.Created, err = p.created(); err != nil {
		return Tweet{}, err
	}
	if t.Avatar, err = p.avatar(); err != nil {
		return Tweet{}, err
	}
	if t.Body, err = p.body(); err != nil {
		return Tweet{}, err
	}
	t.Images = p.images()
	if t.Reply, err = p.reply(); err != nil {
		return Tweet{}, err
	}
	if t.Link, err = p.linkCard(); err != nil {
		return Tweet{}, err
	}
	return t, nil
}
