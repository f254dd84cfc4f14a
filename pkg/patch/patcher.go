package patch

import (
	"log/slog"

	"github.com/vango-dev/morph/pkg/dom"
)

const (
	// DefaultKeyAttr marks a node as participating in keyed reconciliation.
	DefaultKeyAttr = "data-key"

	// DefaultBoundaryAttr marks the root of an independently-owned instance.
	DefaultBoundaryAttr = "data-component-root"
)

// Markers names the attributes the patcher reads.
type Markers struct {
	Key      string
	Boundary string
}

// DefaultMarkers returns the default marker attribute names.
func DefaultMarkers() Markers {
	return Markers{Key: DefaultKeyAttr, Boundary: DefaultBoundaryAttr}
}

// Option configures a Patcher.
type Option func(*Patcher)

// WithMarkers overrides the marker attribute names. Empty fields keep their
// defaults.
func WithMarkers(m Markers) Option {
	return func(p *Patcher) {
		if m.Key != "" {
			p.markers.Key = m.Key
		}
		if m.Boundary != "" {
			p.markers.Boundary = m.Boundary
		}
	}
}

// WithObserver adds an observer that receives every mutation.
func WithObserver(o Observer) Option {
	return func(p *Patcher) {
		if o != nil {
			p.observers = append(p.observers, o)
		}
	}
}

// WithLogger sets the logger used for parse failures.
func WithLogger(l *slog.Logger) Option {
	return func(p *Patcher) {
		if l != nil {
			p.logger = l
		}
	}
}

// Patcher reconciles live containers against markup. A Patcher holds no
// per-call state and may be shared.
type Patcher struct {
	markers   Markers
	observers multi
	logger    *slog.Logger
}

// New creates a Patcher.
func New(opts ...Option) *Patcher {
	p := &Patcher{
		markers: DefaultMarkers(),
		logger:  slog.Default().With("component", "patch"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Markers returns the marker attribute names in use.
func (p *Patcher) Markers() Markers {
	return p.markers
}

// Patch mutates container's children to match markup. It returns false only
// when container is nil.
func (p *Patcher) Patch(container *dom.Node, markup string) bool {
	return p.PatchObserved(container, markup, nil)
}

// PatchObserved is Patch with an additional observer for this call only.
func (p *Patcher) PatchObserved(container *dom.Node, markup string, obs Observer) bool {
	if container == nil {
		return false
	}
	next, err := dom.ParseFragmentIn(container, markup)
	if err != nil {
		// x/net/html only fails on reader errors; keep the tree as it is.
		p.logger.Warn("markup parse failed", "error", err)
		return true
	}
	ps := p.pass(container, obs)
	ps.children(container, next)
	return true
}

// PatchNode reconciles a single matched pair. old must be attached to a
// parent unless next is nil and old is detached. It returns the node that
// now occupies old's position (old itself, a replacement clone, or nil when
// old was removed).
func (p *Patcher) PatchNode(old, next *dom.Node) *dom.Node {
	var root *dom.Node
	if old != nil {
		root = old.Parent()
	}
	ps := p.pass(root, nil)
	return ps.node(root, old, next)
}

// Remove detaches n, a descendant of container, and reports the removal
// with a path relative to container. Unlike a patch it removes boundary
// nodes too; owners use it to drop the nodes of retired instances.
func (p *Patcher) Remove(container, n *dom.Node) bool {
	if container == nil || n == nil || n == container || !container.Contains(n) {
		return false
	}
	ps := p.pass(container, nil)
	path := ps.path(n)
	n.Parent().RemoveChild(n)
	ps.emit(Mutation{Op: OpRemoveNode, Path: path, Node: n})
	return true
}

// Clear removes every child of container, last first, reporting each
// removal. It returns the removed nodes in document order.
func (p *Patcher) Clear(container *dom.Node) []*dom.Node {
	if container == nil {
		return nil
	}
	ps := p.pass(container, nil)
	out := container.Children()
	for i := len(out) - 1; i >= 0; i-- {
		path := ps.path(out[i])
		container.RemoveChild(out[i])
		ps.emit(Mutation{Op: OpRemoveNode, Path: path, Node: out[i]})
	}
	return out
}

// Append adds n as container's last child and reports the insertion.
func (p *Patcher) Append(container, n *dom.Node) {
	if container == nil || n == nil {
		return
	}
	ps := p.pass(container, nil)
	container.AppendChild(n)
	ps.emit(Mutation{Op: OpInsertNode, Path: ps.path(n), HTML: dom.Render(n), Node: n})
}

func (p *Patcher) pass(root *dom.Node, extra Observer) *pass {
	ps := &pass{markers: p.markers, root: root}
	if ps.isBoundary(root) {
		ps.rootID, _ = root.Attr(p.markers.Boundary)
	}
	switch {
	case extra != nil && len(p.observers) > 0:
		ps.obs = append(multi{extra}, p.observers...)
	case extra != nil:
		ps.obs = extra
	case len(p.observers) > 0:
		ps.obs = p.observers
	}
	return ps
}

// pass carries the state of one Patch call.
type pass struct {
	markers Markers
	root    *dom.Node
	rootID  string
	obs     Observer
}

func (ps *pass) keyOf(n *dom.Node) string {
	if n == nil || !n.IsElement() {
		return ""
	}
	k, _ := n.Attr(ps.markers.Key)
	return k
}

func (ps *pass) isBoundary(n *dom.Node) bool {
	return n != nil && n.IsElement() && n.HasAttr(ps.markers.Boundary)
}

// claims reports whether next may be matched positionally against old. A
// boundary node only matches a new node naming the same boundary.
func (ps *pass) claims(old, next *dom.Node) bool {
	if !ps.isBoundary(old) {
		return true
	}
	ov, _ := old.Attr(ps.markers.Boundary)
	nv, ok := next.Attr(ps.markers.Boundary)
	return ok && ov == nv
}

func sameKind(a, b *dom.Node) bool {
	if a.Type != b.Type {
		return false
	}
	return a.Type != dom.ElementNode || a.Tag == b.Tag
}

// children reconciles parent's live children against next.
func (ps *pass) children(parent *dom.Node, next []*dom.Node) {
	oldKeyed := make(map[string][]*dom.Node)
	for _, c := range parent.Children() {
		if k := ps.keyOf(c); k != "" {
			oldKeyed[k] = append(oldKeyed[k], c)
		}
	}

	cursor := 0
	for _, nn := range next {
		key := ps.keyOf(nn)

		// A keyed boundary only follows its key when the new node names the
		// same boundary. Otherwise the new node is inserted and the old
		// boundary is left for its owner to sweep.
		if old := ps.takeKeyed(oldKeyed, key, nn); old != nil {
			placed := ps.node(parent, old, nn)
			if at := parent.ChildAt(cursor); at != placed {
				from := ps.path(placed)
				parent.InsertBefore(placed, at)
				ps.emit(Mutation{Op: OpMoveNode, Path: from, Index: cursor, Node: placed})
			}
			cursor++
			continue
		}

		at := parent.ChildAt(cursor)
		if at != nil && key == "" && ps.keyOf(at) == "" && sameKind(at, nn) && ps.claims(at, nn) {
			ps.node(parent, at, nn)
			cursor++
			continue
		}

		clone := nn.Clone(true)
		parent.InsertBefore(clone, at)
		ps.emit(Mutation{Op: OpInsertNode, Path: ps.path(clone), HTML: dom.Render(clone), Node: clone})
		cursor++
	}

	if len(oldKeyed) > 0 {
		stale := make(map[*dom.Node]bool, len(oldKeyed))
		for _, ns := range oldKeyed {
			for _, n := range ns {
				stale[n] = true
			}
		}
		for _, c := range parent.Children() {
			if stale[c] {
				ps.remove(parent, c)
			}
		}
	}

	for i := parent.ChildCount() - 1; i >= cursor; i-- {
		ps.remove(parent, parent.ChildAt(i))
	}
}

// takeKeyed removes and returns the first unmatched old node under key that
// nn may claim, or nil.
func (ps *pass) takeKeyed(oldKeyed map[string][]*dom.Node, key string, nn *dom.Node) *dom.Node {
	if key == "" {
		return nil
	}
	cands := oldKeyed[key]
	for j, old := range cands {
		if !ps.claims(old, nn) {
			continue
		}
		if len(cands) == 1 {
			delete(oldKeyed, key)
		} else {
			oldKeyed[key] = append(cands[:j:j], cands[j+1:]...)
		}
		return old
	}
	return nil
}

// node implements the subtree patch for a matched pair.
func (ps *pass) node(parent, old, next *dom.Node) *dom.Node {
	switch {
	case old == nil && next == nil:
		return nil
	case next == nil:
		if !ps.remove(parent, old) {
			return old
		}
		return nil
	case old == nil:
		if parent == nil {
			return nil
		}
		clone := next.Clone(true)
		parent.AppendChild(clone)
		ps.emit(Mutation{Op: OpInsertNode, Path: ps.path(clone), HTML: dom.Render(clone), Node: clone})
		return clone
	case ps.isBoundary(old):
		return old
	case !sameKind(old, next):
		if parent == nil {
			return old
		}
		clone := next.Clone(true)
		path := ps.path(old)
		parent.ReplaceChild(clone, old)
		ps.emit(Mutation{Op: OpReplaceNode, Path: path, HTML: dom.Render(clone), Node: clone})
		return clone
	case old.IsText():
		if old.Data() != next.Data() {
			old.SetData(next.Data())
			ps.emit(Mutation{Op: OpSetText, Path: ps.path(old), Value: next.Data(), Node: old})
		}
		return old
	default:
		ps.attrs(old, next)
		ps.children(old, next.Children())
		return old
	}
}

// attrs synchronises old's attributes with next's.
func (ps *pass) attrs(old, next *dom.Node) {
	for _, a := range next.Attrs() {
		if v, ok := old.Attr(a.Key); !ok || v != a.Value {
			old.SetAttr(a.Key, a.Value)
			ps.emit(Mutation{Op: OpSetAttr, Path: ps.path(old), Key: a.Key, Value: a.Value, Node: old})
		}
	}
	for _, a := range old.Attrs() {
		if !next.HasAttr(a.Key) {
			old.RemoveAttr(a.Key)
			ps.emit(Mutation{Op: OpRemoveAttr, Path: ps.path(old), Key: a.Key, Node: old})
		}
	}
}

// remove detaches n unless it is a component boundary. It reports whether
// the node was removed.
func (ps *pass) remove(parent, n *dom.Node) bool {
	if n == nil || ps.isBoundary(n) {
		return false
	}
	if parent == nil {
		parent = n.Parent()
	}
	if parent == nil {
		return false
	}
	path := ps.path(n)
	if parent.RemoveChild(n) {
		ps.emit(Mutation{Op: OpRemoveNode, Path: path, Node: n})
	}
	return true
}

func (ps *pass) emit(m Mutation) {
	if ps.obs != nil {
		m.Root = ps.rootID
		ps.obs.Mutated(m)
	}
}

// path returns n's child-index path from the pass root. It is only computed
// when someone is listening.
func (ps *pass) path(n *dom.Node) []int {
	if ps.obs == nil || n == nil {
		return nil
	}
	var rev []int
	for cur := n; cur != nil && cur != ps.root; cur = cur.Parent() {
		p := cur.Parent()
		if p == nil {
			break
		}
		rev = append(rev, p.IndexOf(cur))
	}
	out := make([]int, len(rev))
	for i := range rev {
		out[i] = rev[len(rev)-1-i]
	}
	return out
}
