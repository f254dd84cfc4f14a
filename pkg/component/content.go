package component

import (
	"html"
	"strings"

	"github.com/vango-dev/morph/pkg/dom"
)

// Content is child content passed to a component: text, raw markup, a
// node, a child invocation, deferred content or a list of any of these.
// Resolve turns every variant into markup.
type Content interface {
	resolve(i *Instance) string
}

// Text is escaped text content.
type Text string

// HTML is trusted markup inserted as is.
type HTML string

// NodeContent renders a detached node.
type NodeContent struct {
	Node *dom.Node
}

// ChildContent invokes a definition as a child of the resolving instance.
type ChildContent struct {
	Definition *Definition
	Props      Props
}

// Lazy defers content construction until it is resolved.
type Lazy func() Content

// List concatenates its items.
type List []Content

func (t Text) resolve(*Instance) string { return html.EscapeString(string(t)) }

func (h HTML) resolve(*Instance) string { return string(h) }

func (n NodeContent) resolve(*Instance) string {
	if n.Node == nil {
		return ""
	}
	return dom.Render(n.Node)
}

func (c ChildContent) resolve(i *Instance) string {
	if c.Definition == nil || i == nil {
		return ""
	}
	return i.Child(c.Definition, c.Props)
}

func (l Lazy) resolve(i *Instance) string {
	if l == nil {
		return ""
	}
	c := l()
	if c == nil {
		return ""
	}
	return c.resolve(i)
}

func (l List) resolve(i *Instance) string {
	var b strings.Builder
	for _, c := range l {
		if c != nil {
			b.WriteString(c.resolve(i))
		}
	}
	return b.String()
}

// Resolve normalises c into markup. Child invocations are made on behalf of
// i and must happen during i's render pass.
func (i *Instance) Resolve(c Content) string {
	if c == nil {
		return ""
	}
	return c.resolve(i)
}

// Slot resolves the definition's named slot binding.
func (i *Instance) Slot(name string) string {
	return i.Resolve(i.def.config.Slots[name])
}
