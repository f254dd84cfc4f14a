package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseFragment parses markup into detached top-level nodes. The fragment is
// parsed as the content of a <body> element; use ParseFragmentIn when the
// surrounding element matters (table rows, options, ...).
//
// Comments and doctypes are dropped. Malformed input is repaired by the HTML5
// parsing algorithm on a best-effort basis.
func ParseFragment(markup string) ([]*Node, error) {
	return ParseFragmentIn(nil, markup)
}

// ParseFragmentIn parses markup as if it were assigned to the inner HTML of
// context. A nil or document context behaves like <body>.
func ParseFragmentIn(context *Node, markup string) ([]*Node, error) {
	if markup == "" {
		return nil, nil
	}
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	if context != nil && context.Type == ElementNode && !context.document {
		ctx = &html.Node{Type: html.ElementNode, Data: context.Tag, DataAtom: atom.Lookup([]byte(context.Tag))}
	}
	parsed, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Node, 0, len(parsed))
	for _, p := range parsed {
		if n := convert(p); n != nil {
			out = append(out, n)
		}
	}
	return out, nil
}

// convert maps an x/net/html node onto a detached Node.
func convert(h *html.Node) *Node {
	switch h.Type {
	case html.TextNode:
		return NewText(h.Data)
	case html.ElementNode:
		n := &Node{Type: ElementNode, Tag: strings.ToLower(h.Data)}
		for _, a := range h.Attr {
			key := a.Key
			if a.Namespace != "" {
				key = a.Namespace + ":" + a.Key
			}
			n.SetAttr(key, a.Val)
		}
		for c := h.FirstChild; c != nil; c = c.NextSibling {
			if cn := convert(c); cn != nil {
				cn.parent = n
				n.children = append(n.children, cn)
			}
		}
		return n
	default:
		return nil
	}
}
