package component

import "github.com/vango-dev/morph/pkg/dom"

// Snapshot holds deep copies of a root's children outside the live tree.
type Snapshot struct {
	nodes []*dom.Node
}

// Len returns the number of top-level nodes held.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.nodes)
}

// Nodes returns the held nodes. They are not attached to any tree.
func (s *Snapshot) Nodes() []*dom.Node {
	if s == nil {
		return nil
	}
	return append([]*dom.Node(nil), s.nodes...)
}

// Detach copies root's children into a new snapshot and empties root.
func Detach(root *dom.Node) *Snapshot {
	if root == nil {
		return nil
	}
	return snapshotOf(root.RemoveChildren())
}

func snapshotOf(nodes []*dom.Node) *Snapshot {
	s := &Snapshot{}
	for _, c := range nodes {
		s.nodes = append(s.nodes, c.Clone(true))
	}
	return s
}

// detach is Detach with the removals reported to the patch observers.
func (rt *Runtime) detach(root *dom.Node) *Snapshot {
	if root == nil {
		return nil
	}
	return snapshotOf(rt.patcher.Clear(root))
}

// restore is Restore with the insertions reported to the patch observers.
func (rt *Runtime) restore(root *dom.Node, s *Snapshot) {
	if root == nil || s == nil {
		return
	}
	for _, n := range s.nodes {
		rt.patcher.Append(root, n.Clone(true))
	}
}

// Restore appends copies of the snapshot's nodes to root. The snapshot can
// be restored more than once; each call inserts fresh copies.
func Restore(root *dom.Node, s *Snapshot) {
	if root == nil || s == nil {
		return
	}
	for _, n := range s.nodes {
		root.AppendChild(n.Clone(true))
	}
}
