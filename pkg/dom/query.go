package dom

// QueryAttr returns every descendant of n (excluding n) carrying the named
// attribute, in document order.
func (n *Node) QueryAttr(key string) []*Node {
	var out []*Node
	for _, c := range n.children {
		c.Walk(func(d *Node) bool {
			if d.Type == ElementNode && d.HasAttr(key) {
				out = append(out, d)
			}
			return true
		})
	}
	return out
}

// FindAttr returns the first descendant of n whose attribute key equals
// value, or nil.
func (n *Node) FindAttr(key, value string) *Node {
	var found *Node
	for _, c := range n.children {
		c.Walk(func(d *Node) bool {
			if found != nil {
				return false
			}
			if d.Type == ElementNode {
				if v, ok := d.Attr(key); ok && v == value {
					found = d
					return false
				}
			}
			return true
		})
		if found != nil {
			break
		}
	}
	return found
}
