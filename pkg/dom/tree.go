package dom

// AppendChild adds child as the last child of n, detaching it from any
// previous parent first.
func (n *Node) AppendChild(child *Node) {
	n.InsertBefore(child, nil)
}

// InsertBefore inserts child immediately before ref. A nil ref appends.
// When child is already in the tree it is relocated, not copied.
func (n *Node) InsertBefore(child, ref *Node) {
	if child == nil || child == ref {
		return
	}
	if child.parent != nil {
		child.parent.detach(child)
	}
	idx := len(n.children)
	if ref != nil {
		if i := n.IndexOf(ref); i >= 0 {
			idx = i
		}
	}
	n.children = append(n.children, nil)
	copy(n.children[idx+1:], n.children[idx:])
	n.children[idx] = child
	child.parent = n
}

// InsertAt inserts child at position idx, clamped to the child range.
func (n *Node) InsertAt(child *Node, idx int) {
	n.InsertBefore(child, n.ChildAt(idx))
}

// RemoveChild detaches child from n. It reports whether child was present.
func (n *Node) RemoveChild(child *Node) bool {
	if child == nil || child.parent != n {
		return false
	}
	n.detach(child)
	return true
}

// ReplaceChild puts replacement where old was and detaches old.
func (n *Node) ReplaceChild(replacement, old *Node) bool {
	if old == nil || old.parent != n {
		return false
	}
	if replacement == old {
		return true
	}
	n.InsertBefore(replacement, old)
	n.detach(old)
	return true
}

// Remove detaches n from its parent, if any.
func (n *Node) Remove() {
	if n.parent != nil {
		n.parent.detach(n)
	}
}

// RemoveChildren detaches every child and returns them in order.
func (n *Node) RemoveChildren() []*Node {
	out := n.children
	n.children = nil
	for _, c := range out {
		c.parent = nil
	}
	return out
}

func (n *Node) detach(child *Node) {
	if i := n.IndexOf(child); i >= 0 {
		n.children = append(n.children[:i], n.children[i+1:]...)
	}
	child.parent = nil
}

// Clone returns a detached copy of n. Deep clones copy the whole subtree.
// Event listeners are never copied.
func (n *Node) Clone(deep bool) *Node {
	c := &Node{
		Type: n.Type,
		Tag:  n.Tag,
		data: n.data,
	}
	if len(n.attrs) > 0 {
		c.attrs = make([]Attr, len(n.attrs))
		copy(c.attrs, n.attrs)
	}
	if deep {
		for _, child := range n.children {
			cc := child.Clone(true)
			cc.parent = c
			c.children = append(c.children, cc)
		}
	}
	return c
}

// Walk visits n and its descendants depth-first in document order. Returning
// false from fn skips the visited node's subtree.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children() {
		c.Walk(fn)
	}
}

// Equal reports whether a and b are structurally identical: same category,
// tag, text, attributes in order, and recursively equal children.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type != b.Type || a.Tag != b.Tag || a.data != b.data {
		return false
	}
	if len(a.attrs) != len(b.attrs) || len(a.children) != len(b.children) {
		return false
	}
	for i := range a.attrs {
		if a.attrs[i] != b.attrs[i] {
			return false
		}
	}
	for i := range a.children {
		if !Equal(a.children[i], b.children[i]) {
			return false
		}
	}
	return true
}

// EqualChildren compares two child lists with Equal.
func EqualChildren(a, b []*Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
