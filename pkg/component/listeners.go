package component

import "github.com/vango-dev/morph/pkg/dom"

// Event is a dispatched tree event.
type Event = dom.Event

// bindListeners attaches every configured and added listener to the matching
// ref nodes in the instance's own subtree.
func (i *Instance) bindListeners() {
	if i.root == nil {
		return
	}
	all := append(append([]Listener(nil), i.def.config.Listeners...), i.listeners...)
	if len(all) == 0 {
		return
	}
	refAttr := i.rt.markers.Ref
	nodes := i.root.QueryAttr(refAttr)
	for _, l := range all {
		if l.Handler == nil {
			continue
		}
		for _, n := range nodes {
			if v, _ := n.Attr(refAttr); v != l.Ref || !i.owns(n) {
				continue
			}
			l := l
			i.bindings = append(i.bindings, n.AddEventListener(l.Event, func(e *dom.Event) {
				l.Handler(i, e)
			}))
		}
	}
}

func (i *Instance) unbindListeners() {
	for _, remove := range i.bindings {
		remove()
	}
	i.bindings = nil
}

// owns reports whether n belongs to the instance's own subtree and not to a
// nested instance.
func (i *Instance) owns(n *dom.Node) bool {
	if i.root == nil || n == nil {
		return false
	}
	boundary := i.rt.markers.Boundary
	for cur := n; cur != nil; cur = cur.Parent() {
		if cur == i.root {
			return true
		}
		if cur.IsElement() && cur.HasAttr(boundary) {
			return false
		}
	}
	return false
}
