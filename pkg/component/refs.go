package component

import "github.com/vango-dev/morph/pkg/dom"

// Ref returns the first node in the instance's own subtree whose ref
// attribute equals name, or nil.
//
// Lookups are cached per top-level instance. A cached node is only returned
// while it is still in the same tree as the instance and inside its scope;
// otherwise the entry is discarded and the lookup runs again.
func (i *Instance) Ref(name string) *dom.Node {
	if i.root == nil {
		return nil
	}
	top := i.top()
	key := i.idAttr() + "/" + name

	if n, ok := top.refs[key]; ok {
		if n.Root() == i.root.Root() && i.owns(n) && n.AttrOr(i.rt.markers.Ref, "") == name {
			return n
		}
		i.rt.logger.Debug("ref cache entry stale",
			"code", "E104",
			"instance", i.id,
			"ref", name,
		)
		delete(top.refs, key)
	}

	var found *dom.Node
	for _, n := range i.root.QueryAttr(i.rt.markers.Ref) {
		if v, _ := n.Attr(i.rt.markers.Ref); v == name && i.owns(n) {
			found = n
			break
		}
	}
	if found == nil {
		return nil
	}
	if top.refs == nil {
		top.refs = make(map[string]*dom.Node)
	}
	top.refs[key] = found
	return found
}
