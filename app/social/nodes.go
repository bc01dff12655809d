package social

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	postSelector     = `[data-testid="tweet"]`
	avatarSelector   = `[data-testid="Tweet-User-Avatar"]`
	userNameSelector = `[data-testid="User-Name"]`
	bodySelector     = `[data-testid="tweetText"]`
	imageSelector    = `img[alt="Image"]`
	quoteSelector    = `[role="link"]`
	cardSelector     = `[data-testid="card.wrapper"]`
	replyingToPrefix = "Replying to"
)

// postNode wraps one post element. Each accessor owns exactly one path.
type postNode struct {
	sel   *goquery.Selection
	index int
}

func (p postNode) missing(field string) error {
	return &StructuralError{Post: p.index, Field: field}
}

// userName is the first User-Name block: <div><name/></div><div><a>@handle</a>…<time/></div>
func (p postNode) userName() (*goquery.Selection, error) {
	return required(p.sel.Find(userNameSelector).First(), p.missing("user name"))
}

func (p postNode) displayName() (string, error) {
	un, err := p.userName()
	if err != nil {
		return "", err
	}
	return nameOf(un, p.missing("display name"))
}

func (p postNode) handle() (string, error) {
	un, err := p.userName()
	if err != nil {
		return "", err
	}
	return handleOf(un, p.missing("handle"))
}

func (p postNode) created() (string, error) {
	un, err := p.userName()
	if err != nil {
		return "", err
	}
	return createdOf(un, p.missing("time"))
}

// avatar: Tweet-User-Avatar > … > img
func (p postNode) avatar() (string, error) {
	return srcOf(p.sel.Find(avatarSelector).First().Find("img").First(), p.missing("avatar"))
}

func (p postNode) bodyNode() (*goquery.Selection, error) {
	return required(p.sel.Find(bodySelector).First(), p.missing("body"))
}

func (p postNode) body() (string, error) {
	b, err := p.bodyNode()
	if err != nil {
		return "", err
	}
	return renderBody(b), nil
}

// images are the attached photos of the post itself, in document order.
// Photos inside the quoted post belong to the reply and are skipped.
func (p postNode) images() []string {
	imgs := p.sel.Find(imageSelector)
	if q := p.quoteNode(); q != nil {
		imgs = imgs.NotSelection(q.Find(imageSelector))
	}

	var urls []string
	imgs.Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok && src != "" {
			urls = append(urls, src)
		}
	})
	return urls
}

// quoteNode is the first role=link sibling following the body.
func (p postNode) quoteNode() *goquery.Selection {
	b, err := p.bodyNode()
	if err != nil {
		return nil
	}
	q := b.NextAllFiltered(quoteSelector).First()
	if q.Length() == 0 {
		return nil
	}
	return q
}

// reply parses a quoted block laid out as
//
//	<div role=link>
//	  <div><avatar/><User-Name/></div>
//	  <div>Replying to <a>@handle</a></div>   (optional)
//	  <tweetText/>
//	</div>
func (p postNode) reply() (*Reply, error) {
	q := p.quoteNode()
	if q == nil {
		return nil, nil
	}

	header, err := required(q.Children().Eq(0), p.missing("reply header"))
	if err != nil {
		return nil, err
	}
	avatar, err := srcOf(header.Children().Eq(0).Find("img").First(), p.missing("reply avatar"))
	if err != nil {
		return nil, err
	}
	un, err := required(header.Children().Eq(1), p.missing("reply user name"))
	if err != nil {
		return nil, err
	}

	r := &Reply{Avatar: avatar}
	if r.Name, err = nameOf(un, p.missing("reply display name")); err != nil {
		return nil, err
	}
	if r.Handle, err = handleOf(un, p.missing("reply handle")); err != nil {
		return nil, err
	}
	if r.Created, err = createdOf(un, p.missing("reply time")); err != nil {
		return nil, err
	}

	replying := q.Children().Eq(1)
	if strings.HasPrefix(strings.TrimSpace(replying.Text()), replyingToPrefix) {
		r.ReplyingTo = strings.TrimPrefix(strings.TrimSpace(replying.Find("a").First().Text()), "@")
	}

	b, err := required(q.Find(bodySelector).First(), p.missing("reply body"))
	if err != nil {
		return nil, err
	}
	r.Body = renderBody(b)

	return r, nil
}

// linkCard parses
//
//	<div card.wrapper><a href><div><img/></div><div><span>url</span><span>title</span><span>description</span></div></a></div>
func (p postNode) linkCard() (*LinkCard, error) {
	card := p.sel.Find(cardSelector).First()
	if card.Length() == 0 {
		return nil, nil
	}

	a, err := required(card.Children().Eq(0), p.missing("card link"))
	if err != nil {
		return nil, err
	}
	img, err := srcOf(a.Children().Eq(0).Find("img").First(), p.missing("card image"))
	if err != nil {
		return nil, err
	}
	meta, err := required(a.Children().Eq(1), p.missing("card details"))
	if err != nil {
		return nil, err
	}
	url, err := required(meta.Children().Eq(0), p.missing("card url"))
	if err != nil {
		return nil, err
	}
	title, err := required(meta.Children().Eq(1), p.missing("card title"))
	if err != nil {
		return nil, err
	}

	href, _ := a.Attr("href")
	return &LinkCard{
		Href:        href,
		ImageSrc:    img,
		URL:         strings.TrimSpace(url.Text()),
		Title:       strings.TrimSpace(title.Text()),
		Description: strings.TrimSpace(meta.Children().Eq(2).Text()),
	}, nil
}

func required(s *goquery.Selection, err error) (*goquery.Selection, error) {
	if s.Length() == 0 {
		return nil, err
	}
	return s, nil
}

func nameOf(userName *goquery.Selection, err error) (string, error) {
	n, e := required(userName.Children().Eq(0), err)
	if e != nil {
		return "", e
	}
	return strings.TrimSpace(n.Text()), nil
}

func handleOf(userName *goquery.Selection, err error) (string, error) {
	h, e := required(userName.Children().Eq(1).Children().Eq(0), err)
	if e != nil {
		return "", e
	}
	return strings.TrimPrefix(strings.TrimSpace(h.Text()), "@"), nil
}

func createdOf(userName *goquery.Selection, err error) (string, error) {
	t, e := required(userName.Children().Eq(1).Find("time").First(), err)
	if e != nil {
		return "", e
	}
	dt, ok := t.Attr("datetime")
	if !ok || dt == "" {
		return "", err
	}
	return dt, nil
}

func srcOf(img *goquery.Selection, err error) (string, error) {
	src, ok := img.Attr("src")
	if !ok || src == "" {
		return "", err
	}
	return src, nil
}

// renderBody concatenates, in document order, text, emoji images re-serialized
// as <img src alt>, and the display text of mention links.
func renderBody(body *goquery.Selection) string {
	var sb strings.Builder
	for _, n := range body.Nodes {
		writeBody(&sb, n)
	}
	return strings.TrimSpace(sb.String())
}

func writeBody(sb *strings.Builder, n *xhtml.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == xhtml.TextNode:
			sb.WriteString(html.EscapeString(c.Data))
		case c.Type != xhtml.ElementNode:
		case c.DataAtom == atom.Img:
			sb.WriteString(`<img src="`)
			sb.WriteString(html.EscapeString(attr(c, "src")))
			sb.WriteString(`" alt="`)
			sb.WriteString(html.EscapeString(attr(c, "alt")))
			sb.WriteString(`">`)
		case c.DataAtom == atom.A:
			sb.WriteString(html.EscapeString(goquery.NewDocumentFromNode(c).Text()))
		default:
			writeBody(sb, c)
		}
	}
}

func attr(n *xhtml.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
