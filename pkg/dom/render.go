package dom

import (
	"io"
	"strings"
)

// voidElements have no closing tag and never have children.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// rawTextElements hold unescaped character data.
var rawTextElements = map[string]bool{
	"script": true,
	"style":  true,
}

// Render returns the outer markup of n. For a document root it returns the
// markup of its children.
func Render(n *Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	if n.document {
		writeChildren(&b, n)
	} else {
		writeNode(&b, n, false)
	}
	return b.String()
}

// InnerHTML returns the markup of n's children.
func InnerHTML(n *Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	writeChildren(&b, n)
	return b.String()
}

// RenderTo streams the outer markup of n to w.
func RenderTo(w io.Writer, n *Node) error {
	_, err := io.WriteString(w, Render(n))
	return err
}

func writeChildren(b *strings.Builder, n *Node) {
	raw := rawTextElements[n.Tag]
	for _, c := range n.children {
		writeNode(b, c, raw)
	}
}

func writeNode(b *strings.Builder, n *Node, raw bool) {
	if n.Type == TextNode {
		if raw {
			b.WriteString(n.data)
		} else {
			b.WriteString(escapeHTML(n.data))
		}
		return
	}

	b.WriteByte('<')
	b.WriteString(n.Tag)
	for _, a := range n.attrs {
		b.WriteByte(' ')
		b.WriteString(a.Key)
		if a.Value != "" {
			b.WriteString(`="`)
			b.WriteString(escapeAttr(a.Value))
			b.WriteByte('"')
		}
	}
	b.WriteByte('>')

	if voidElements[n.Tag] {
		return
	}
	writeChildren(b, n)
	b.WriteString("</")
	b.WriteString(n.Tag)
	b.WriteByte('>')
}
