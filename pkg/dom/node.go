package dom

import "strings"

// NodeType is the node category discriminator.
type NodeType uint8

const (
	ElementNode NodeType = iota + 1 // <div>, <li>, ...
	TextNode                        // character data
)

// String returns the string representation of the NodeType.
func (t NodeType) String() string {
	switch t {
	case ElementNode:
		return "Element"
	case TextNode:
		return "Text"
	default:
		return "Unknown"
	}
}

// DocumentTag is the tag of the synthetic root returned by NewDocument.
const DocumentTag = "#document"

// Attr is a single element attribute.
type Attr struct {
	Key   string
	Value string
}

// Node is a live tree node.
type Node struct {
	Type NodeType
	Tag  string // lower-case element name; empty for text nodes

	data      string
	attrs     []Attr
	parent    *Node
	children  []*Node
	listeners []*listener
	document  bool
}

// NewDocument creates a connected root node.
func NewDocument() *Node {
	return &Node{Type: ElementNode, Tag: DocumentTag, document: true}
}

// NewElement creates a detached element.
func NewElement(tag string, attrs ...Attr) *Node {
	n := &Node{Type: ElementNode, Tag: strings.ToLower(tag)}
	for _, a := range attrs {
		n.SetAttr(a.Key, a.Value)
	}
	return n
}

// NewText creates a detached text node.
func NewText(data string) *Node {
	return &Node{Type: TextNode, data: data}
}

// IsElement reports whether n is an element.
func (n *Node) IsElement() bool {
	return n != nil && n.Type == ElementNode
}

// IsText reports whether n is a text node.
func (n *Node) IsText() bool {
	return n != nil && n.Type == TextNode
}

// IsDocument reports whether n is a document root.
func (n *Node) IsDocument() bool {
	return n != nil && n.document
}

// Data returns the character data of a text node.
func (n *Node) Data() string {
	return n.data
}

// SetData overwrites the character data of a text node.
func (n *Node) SetData(data string) {
	n.data = data
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(key string) (string, bool) {
	for _, a := range n.attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// AttrOr returns the named attribute or def when it is absent.
func (n *Node) AttrOr(key, def string) string {
	if v, ok := n.Attr(key); ok {
		return v
	}
	return def
}

// HasAttr reports whether the named attribute is present.
func (n *Node) HasAttr(key string) bool {
	_, ok := n.Attr(key)
	return ok
}

// SetAttr adds or updates an attribute, keeping insertion order.
func (n *Node) SetAttr(key, value string) {
	for i := range n.attrs {
		if n.attrs[i].Key == key {
			n.attrs[i].Value = value
			return
		}
	}
	n.attrs = append(n.attrs, Attr{Key: key, Value: value})
}

// RemoveAttr deletes an attribute. It reports whether one was removed.
func (n *Node) RemoveAttr(key string) bool {
	for i := range n.attrs {
		if n.attrs[i].Key == key {
			n.attrs = append(n.attrs[:i], n.attrs[i+1:]...)
			return true
		}
	}
	return false
}

// Attrs returns a copy of the attribute list.
func (n *Node) Attrs() []Attr {
	out := make([]Attr, len(n.attrs))
	copy(out, n.attrs)
	return out
}

// Parent returns the parent node, or nil when detached.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns a snapshot of the child list.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// ChildCount returns the number of children.
func (n *Node) ChildCount() int {
	return len(n.children)
}

// ChildAt returns the child at index i, or nil when out of range.
func (n *Node) ChildAt(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// FirstChild returns the first child, or nil.
func (n *Node) FirstChild() *Node {
	return n.ChildAt(0)
}

// IndexOf returns the position of child in n, or -1.
func (n *Node) IndexOf(child *Node) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}

// Root returns the top-most ancestor of n (n itself when detached).
func (n *Node) Root() *Node {
	r := n
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// IsConnected reports whether n is attached to a document.
func (n *Node) IsConnected() bool {
	if n == nil {
		return false
	}
	return n.Root().document
}

// Contains reports whether other is n or a descendant of n.
func (n *Node) Contains(other *Node) bool {
	for p := other; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// TextContent concatenates the data of all descendant text nodes.
func (n *Node) TextContent() string {
	if n.Type == TextNode {
		return n.data
	}
	var b strings.Builder
	n.Walk(func(d *Node) bool {
		if d.Type == TextNode {
			b.WriteString(d.data)
		}
		return true
	})
	return b.String()
}
