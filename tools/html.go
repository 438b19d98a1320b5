package tools

import (
	"io"
	"sort"
	"strings"

	"github.com/Comcast/treetags/core"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// IdAttr carries a component's id in the rendered HTML.
var IdAttr = "data-id"

// HTMLNode converts a component tree to an HTML tree.
//
// Text components become text nodes.  Every other component becomes
// an element named by its tag with its attributes in order and its id
// in IdAttr.  Components with an unusable tag name become divs.
func HTMLNode(c *core.Component) *html.Node {
	if c.Tag == core.TextTag {
		return &html.Node{
			Type: html.TextNode,
			Data: c.Text,
		}
	}

	tag := strings.ToLower(c.Tag)
	if !validTag(tag) {
		tag = "div"
	}
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	if c.Id != "" {
		n.Attr = append(n.Attr, html.Attribute{Key: IdAttr, Val: c.Id})
	}
	names := make([]string, 0, len(c.Attrs))
	for name := range c.Attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		n.Attr = append(n.Attr, html.Attribute{
			Key: name,
			Val: core.Stringify(c.Attrs[name]),
		})
	}
	for _, child := range c.Children {
		n.AppendChild(HTMLNode(child))
	}
	return n
}

func validTag(tag string) bool {
	if tag == "" {
		return false
	}
	for i, r := range tag {
		switch {
		case 'a' <= r && r <= 'z':
		case 0 < i && ('0' <= r && r <= '9' || r == '-'):
		default:
			return false
		}
	}
	return true
}

// RenderHTML writes the component tree as HTML.
func RenderHTML(c *core.Component, w io.Writer) error {
	return html.Render(w, HTMLNode(c))
}

// ParseIds returns the IdAttr values in a rendered document in
// document order.
func ParseIds(r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	var ids []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if a.Key == IdAttr {
					ids = append(ids, a.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return ids, nil
}
