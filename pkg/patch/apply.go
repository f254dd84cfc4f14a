package patch

import (
	"errors"
	"fmt"

	"github.com/vango-dev/morph/pkg/dom"
)

// Apply replays ms in order against container, a copy of the tree the
// mutations were recorded on. Paths are resolved against the tree as it
// stands when each mutation is applied, the same way a browser client
// replays a patch. Mutations are assumed to share one container; the Root
// field is not consulted.
func Apply(container *dom.Node, ms []Mutation) error {
	for i, m := range ms {
		if err := apply(container, m); err != nil {
			return fmt.Errorf("patch: mutation %d (%s): %w", i, m.Op, err)
		}
	}
	return nil
}

func apply(container *dom.Node, m Mutation) error {
	if len(m.Path) == 0 {
		return errors.New("empty path")
	}
	if m.Op == OpInsertNode {
		parent, err := resolve(container, m.Path[:len(m.Path)-1])
		if err != nil {
			return err
		}
		nodes, err := dom.ParseFragmentIn(parent, m.HTML)
		if err != nil {
			return err
		}
		ref := parent.ChildAt(m.Path[len(m.Path)-1])
		for _, n := range nodes {
			parent.InsertBefore(n, ref)
		}
		return nil
	}

	n, err := resolve(container, m.Path)
	if err != nil {
		return err
	}
	switch m.Op {
	case OpSetText:
		n.SetData(m.Value)
	case OpSetAttr:
		n.SetAttr(m.Key, m.Value)
	case OpRemoveAttr:
		n.RemoveAttr(m.Key)
	case OpRemoveNode:
		n.Parent().RemoveChild(n)
	case OpMoveNode:
		parent := n.Parent()
		parent.RemoveChild(n)
		parent.InsertAt(n, m.Index)
	case OpReplaceNode:
		parent := n.Parent()
		nodes, err := dom.ParseFragmentIn(parent, m.HTML)
		if err != nil {
			return err
		}
		for _, r := range nodes {
			parent.InsertBefore(r, n)
		}
		parent.RemoveChild(n)
	default:
		return errors.New("unknown op")
	}
	return nil
}

func resolve(container *dom.Node, path []int) (*dom.Node, error) {
	n := container
	for _, idx := range path {
		c := n.ChildAt(idx)
		if c == nil {
			return nil, fmt.Errorf("no child %d in path %v", idx, path)
		}
		n = c
	}
	return n, nil
}
