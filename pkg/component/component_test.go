package component

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/vango-dev/morph/pkg/dom"
	"github.com/vango-dev/morph/pkg/patch"
)

// recorder collects observer events.
type recorder struct {
	mu       sync.Mutex
	renders  []RenderEvent
	failures []HookFailure
	evicted  []string
}

func (r *recorder) Rendered(ev RenderEvent) {
	r.mu.Lock()
	r.renders = append(r.renders, ev)
	r.mu.Unlock()
}

func (r *recorder) HookFailed(f HookFailure) {
	r.mu.Lock()
	r.failures = append(r.failures, f)
	r.mu.Unlock()
}

func (r *recorder) Evicted(definition, scope string) {
	r.mu.Lock()
	r.evicted = append(r.evicted, definition+"/"+scope)
	r.mu.Unlock()
}

func newTestRuntime(opts ...Option) *Runtime {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(append([]Option{WithLogger(quiet)}, opts...)...)
}

func newRoot() *dom.Node {
	doc := dom.NewDocument()
	root := dom.NewElement("main")
	doc.AppendChild(root)
	return root
}

func stateInt(i *Instance, name string) int {
	s, _ := i.State().(State)
	n, _ := s[name].(int)
	return n
}

func stateItems(i *Instance) []string {
	s, _ := i.State().(State)
	items, _ := s["items"].([]string)
	return items
}

// listDefs defines an item component and a list that renders one item per
// entry of its "items" state, keyed or not.
func listDefs(rt *Runtime, keyed bool) (list, item *Definition) {
	item = rt.Define("item", func(i *Instance) string {
		return fmt.Sprintf(`<span data-ref="label">%s</span><b>%d</b>`, i.Props().String("label"), stateInt(i, "n"))
	}, Config{State: func() any { return State{"n": 0} }, Tag: "li"})

	list = rt.Define("list", func(i *Instance) string {
		var b strings.Builder
		b.WriteString("<ul>")
		for _, it := range stateItems(i) {
			props := Props{"label": it}
			if keyed {
				props[KeyProp] = it
			}
			b.WriteString(i.Child(item, props))
		}
		b.WriteString("</ul>")
		return b.String()
	}, Config{})
	return list, item
}

func childByLabel(p *Instance, label string) *Instance {
	for _, c := range p.Children() {
		if c.Props().String("label") == label {
			return c
		}
	}
	return nil
}

func TestKeyedChildrenKeepIdentity(t *testing.T) {
	rt := newTestRuntime()
	list, _ := listDefs(rt, true)
	root := newRoot()

	inst := rt.Invoke(list, nil)
	inst.state = State{"items": []string{"1", "2", "3"}}
	if err := inst.Mount(root, nil); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	ul := root.FirstChild()
	if ul == nil || ul.ChildCount() != 3 {
		t.Fatalf("expected 3 items, got %q", dom.InnerHTML(root))
	}

	two, three := childByLabel(inst, "2"), childByLabel(inst, "3")
	if two == nil || three == nil {
		t.Fatal("children 2 and 3 should be cached")
	}
	two.SetState(State{"n": 7})
	rt.Flush()
	nodeTwo, nodeThree := two.Root(), three.Root()

	inst.SetState(State{"items": []string{"2", "3"}})
	rt.Flush()

	if got := ul.ChildCount(); got != 2 {
		t.Fatalf("ChildCount = %d, want 2: %q", got, dom.InnerHTML(root))
	}
	if ul.ChildAt(0) != nodeTwo || ul.ChildAt(1) != nodeThree {
		t.Error("surviving keyed items should keep their nodes in order")
	}
	if childByLabel(inst, "2") != two || childByLabel(inst, "3") != three {
		t.Error("surviving keyed items should keep their instances")
	}
	if stateInt(two, "n") != 7 {
		t.Errorf("state of item 2 = %d, want 7", stateInt(two, "n"))
	}
	if got := nodeTwo.TextContent(); got != "27" {
		t.Errorf("item 2 text = %q, want %q", got, "27")
	}
	if ul.FindAttr(DefaultMarkers().Key, "1") != nil {
		t.Error("item 1 should have been removed")
	}
}

func TestUnkeyedChildrenStateFollowsPosition(t *testing.T) {
	rt := newTestRuntime()
	list, _ := listDefs(rt, false)
	root := newRoot()

	inst := rt.Invoke(list, nil)
	inst.state = State{"items": []string{"a", "b", "c"}}
	if err := inst.Mount(root, nil); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	first := inst.Children()[0]
	first.SetState(State{"n": 5})
	rt.Flush()

	inst.SetState(State{"items": []string{"b", "c"}})
	rt.Flush()

	children := inst.Children()
	if len(children) != 2 {
		t.Fatalf("len(Children) = %d, want 2", len(children))
	}
	if children[0] != first {
		t.Fatal("position 0 should resolve to the same instance")
	}
	if got := children[0].Props().String("label"); got != "b" {
		t.Errorf("position 0 label = %q, want b", got)
	}
	if stateInt(children[0], "n") != 5 {
		t.Error("state should follow position, not data")
	}
	ul := root.FirstChild()
	if ul.ChildCount() != 2 {
		t.Fatalf("ChildCount = %d, want 2: %q", ul.ChildCount(), dom.InnerHTML(root))
	}
	if got := ul.ChildAt(0).TextContent(); got != "b5" {
		t.Errorf("first item text = %q, want b5", got)
	}
}

func TestChildDefinitionMismatchReplacesInstance(t *testing.T) {
	rt := newTestRuntime()
	a := rt.Define("a", Static("<i>a</i>"), Config{})
	b := rt.Define("b", Static("<i>b</i>"), Config{})

	var unmounted int
	a.config.Hooks = map[Phase][]Hook{PhaseUnmount: {Sync(func(*Instance) { unmounted++ })}}

	parent := rt.Define("parent", func(i *Instance) string {
		if stateInt(i, "which") == 0 {
			return i.Child(a, nil)
		}
		return i.Child(b, nil)
	}, Config{State: State{"which": 0}})

	root := newRoot()
	inst, err := rt.Mount(root, parent, nil)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	old := inst.Children()[0]

	inst.SetState(State{"which": 1})
	rt.Flush()

	now := inst.Children()[0]
	if now == old || now.Definition() != b {
		t.Fatal("a definition mismatch should clone a new instance")
	}
	if unmounted != 1 {
		t.Errorf("unmount hooks ran %d times, want 1", unmounted)
	}
	if got := root.TextContent(); got != "b" {
		t.Errorf("TextContent = %q, want b", got)
	}
}

func TestCallCounterSharedAcrossDefinitions(t *testing.T) {
	rt := newTestRuntime()
	a := rt.Define("a", Static("<i>a</i>"), Config{})
	b := rt.Define("b", Static("<i>b</i>"), Config{})
	parent := rt.Define("parent", func(i *Instance) string {
		return i.Child(a, nil) + i.Child(b, nil) + i.Child(a, nil)
	}, Config{})

	inst, err := rt.Mount(newRoot(), parent, nil)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	before := inst.Children()
	inst.Update(nil)
	after := inst.Children()

	if len(before) != 3 || len(after) != 3 {
		t.Fatalf("expected 3 children, got %d and %d", len(before), len(after))
	}
	for n := range before {
		if before[n] != after[n] {
			t.Errorf("child %d changed identity across renders", n)
		}
	}
	if before[0] == before[2] {
		t.Error("two calls of the same definition must not share an instance")
	}
}

// swapDefs defines two static definitions and a parent that renders one of
// them under key "x", chosen by its "which" state.
func swapDefs(rt *Runtime) (parent, a, b *Definition) {
	a = rt.Define("a", Static("<i>A</i>"), Config{})
	b = rt.Define("b", Static("<i>B</i>"), Config{})
	parent = rt.Define("parent", func(i *Instance) string {
		if stateInt(i, "which") == 0 {
			return i.Child(a, Props{KeyProp: "x"})
		}
		return i.Child(b, Props{KeyProp: "x"})
	}, Config{State: State{"which": 0}})
	return parent, a, b
}

func TestKeyedChildDefinitionChange(t *testing.T) {
	rt := newTestRuntime()
	parent, a, b := swapDefs(rt)
	root := newRoot()

	inst, err := rt.Mount(root, parent, nil)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	first := inst.Children()[0]

	inst.SetState(State{"which": 1})
	rt.Flush()

	now := inst.Children()[0]
	if now == first || now.Definition() != b {
		t.Fatal("a keyed definition change should clone a new instance")
	}
	if got := root.TextContent(); got != "B" {
		t.Errorf("TextContent = %q, want B", got)
	}
	if root.FindAttr(DefaultMarkers().Boundary, first.idAttr()) != nil {
		t.Error("the replaced instance's boundary node should be swept")
	}
	if first.Status() != StatusIdle {
		t.Errorf("replaced instance status = %v, want idle", first.Status())
	}

	inst.SetState(State{"which": 0})
	rt.Flush()

	if back := inst.Children()[0]; back != first || back.Definition() != a {
		t.Error("switching back should reuse the instance cached for (x, a)")
	}
	if got := root.TextContent(); got != "A" {
		t.Errorf("TextContent = %q, want A", got)
	}
	if n := len(root.QueryAttr(DefaultMarkers().Definition)); n != 1 {
		t.Errorf("%d component nodes in tree, want 1: %q", n, dom.InnerHTML(root))
	}
}

func TestSharedKeyAcrossDefinitions(t *testing.T) {
	rt := newTestRuntime()
	a := rt.Define("a", Static("<i>A</i>"), Config{})
	b := rt.Define("b", Static("<i>B</i>"), Config{})
	parent := rt.Define("parent", func(i *Instance) string {
		return i.Child(a, Props{KeyProp: "k"}) + i.Child(b, Props{KeyProp: "k"})
	}, Config{})
	root := newRoot()

	inst, err := rt.Mount(root, parent, nil)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	before := inst.Children()

	for n := 0; n < 3; n++ {
		inst.Update(nil)
		rt.Flush()
	}
	after := inst.Children()

	if len(before) != 2 || len(after) != 2 {
		t.Fatalf("expected 2 children, got %d and %d", len(before), len(after))
	}
	for n := range before {
		if before[n] != after[n] {
			t.Errorf("child %d changed identity across renders", n)
		}
	}
	if before[0].Definition() != a || before[1].Definition() != b {
		t.Error("each definition should own its instance under the shared key")
	}
	if got := root.TextContent(); got != "AB" {
		t.Errorf("TextContent = %q, want AB", got)
	}
	if n := len(root.QueryAttr(DefaultMarkers().Boundary)); n != 2 {
		t.Errorf("%d boundary nodes in tree, want 2: %q", n, dom.InnerHTML(root))
	}
}

// replay applies a runtime's mutation log to replica the way a browser
// client does, resolving each mutation's container by its boundary value.
func replay(t *testing.T, replica *dom.Node, rootID string, log *patch.Log) {
	t.Helper()
	for _, m := range log.Mutations {
		target := replica
		if m.Root != "" && m.Root != rootID {
			target = replica.FindAttr(DefaultMarkers().Boundary, m.Root)
			if target == nil {
				t.Fatalf("%s: no container %q in %q", m.Op, m.Root, dom.InnerHTML(replica))
			}
		}
		if err := patch.Apply(target, []patch.Mutation{m}); err != nil {
			t.Fatalf("Apply: %v", err)
		}
	}
	log.Reset()
}

func TestMutationLogReplaysRenders(t *testing.T) {
	tests := []struct {
		name  string
		steps []func(rt *Runtime, inst *Instance)
		setup func(rt *Runtime) *Definition
	}{
		{
			name: "keyed list",
			setup: func(rt *Runtime) *Definition {
				list, _ := listDefs(rt, true)
				return list
			},
			steps: []func(rt *Runtime, inst *Instance){
				func(_ *Runtime, inst *Instance) { inst.SetState(State{"items": []string{"1", "2", "3"}}) },
				func(_ *Runtime, inst *Instance) { childByLabel(inst, "2").SetState(State{"n": 7}) },
				func(_ *Runtime, inst *Instance) { inst.SetState(State{"items": []string{"3", "2"}}) },
				func(_ *Runtime, inst *Instance) { inst.SetState(State{"items": []string{"2", "4", "3", "1"}}) },
				func(_ *Runtime, inst *Instance) { inst.SetState(State{"items": []string{}}) },
			},
		},
		{
			name: "keyed definition change",
			setup: func(rt *Runtime) *Definition {
				parent, _, _ := swapDefs(rt)
				return parent
			},
			steps: []func(rt *Runtime, inst *Instance){
				func(_ *Runtime, inst *Instance) { inst.SetState(State{"which": 1}) },
				func(_ *Runtime, inst *Instance) { inst.SetState(State{"which": 0}) },
			},
		},
		{
			name: "null render and restore",
			setup: func(rt *Runtime) *Definition {
				var mounts, unmounts int
				return toggleDef(rt, &mounts, &unmounts)
			},
			steps: []func(rt *Runtime, inst *Instance){
				func(_ *Runtime, inst *Instance) { inst.SetState(State{"show": false}) },
				func(_ *Runtime, inst *Instance) { inst.SetState(State{"show": true}) },
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &patch.Log{}
			rt := newTestRuntime(WithPatchObserver(log))
			root := newRoot()
			inst, err := rt.Mount(root, tt.setup(rt), nil)
			if err != nil {
				t.Fatalf("Mount: %v", err)
			}
			rootID := root.AttrOr(DefaultMarkers().Boundary, "")
			replica := newRoot()

			replay(t, replica, rootID, log)
			for n, step := range tt.steps {
				step(rt, inst)
				rt.Flush()
				replay(t, replica, rootID, log)
				if got, want := dom.InnerHTML(replica), dom.InnerHTML(root); got != want {
					t.Fatalf("step %d: replica = %q, want %q", n, got, want)
				}
			}
		})
	}
}

func TestTopLevelSingletons(t *testing.T) {
	rt := newTestRuntime()
	def := rt.Define("card", Static("<p>card</p>"), Config{})

	a1 := rt.Invoke(def, Props{"key": "a"})
	a2 := rt.Invoke(def, Props{"key": "a", "title": "x"})
	if a1 != a2 {
		t.Fatal("keyed top-level invocations should return the singleton")
	}
	if !a1.KeyBound() {
		t.Error("singleton should be key-bound")
	}
	if got := a1.Props().String("title"); got != "x" {
		t.Errorf("props not pushed: title = %q", got)
	}
	if rt.Invoke(def, nil) == rt.Invoke(def, nil) {
		t.Error("unkeyed top-level invocations should clone")
	}

	other := rt.Define("other", Static("<p/>"), Config{})
	if rt.Invoke(other, Props{"key": "a"}) == a1 {
		t.Error("singleton registries are per definition")
	}
}

func TestSingletonPushUpdatesMounted(t *testing.T) {
	rt := newTestRuntime()
	def := rt.Define("title", func(i *Instance) string {
		return "<h1>" + i.Props().String("text") + "</h1>"
	}, Config{})

	root := newRoot()
	inst, err := rt.Mount(root, def, Props{"key": "t", "text": "one"})
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	rt.Invoke(def, Props{"key": "t", "text": "two"})

	if inst.Props().String("text") != "two" {
		t.Fatal("props should be pushed to the singleton")
	}
	if got := root.TextContent(); got != "two" {
		t.Errorf("TextContent = %q, want two", got)
	}
}

func TestSingletonEviction(t *testing.T) {
	rec := &recorder{}
	rt := newTestRuntime(WithLimits(Limits{MaxSingletons: 2}), WithObserver(rec))
	def := rt.Define("row", Static("<p>row</p>"), Config{})

	a := rt.Invoke(def, Props{"key": "a"})
	if err := a.Mount(newRoot(), nil); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	rt.Invoke(def, Props{"key": "b"})
	rt.Invoke(def, Props{"key": "c"})

	if _, ok := rt.Singleton(def, "a"); !ok {
		t.Error("mounted singleton must never be evicted")
	}
	if _, ok := rt.Singleton(def, "b"); ok {
		t.Error("least recently used unbound singleton should be evicted")
	}
	if _, ok := rt.Singleton(def, "c"); !ok {
		t.Error("newest singleton should be kept")
	}
	if len(rec.evicted) != 1 || rec.evicted[0] != "row/singletons" {
		t.Errorf("evicted = %v", rec.evicted)
	}
}

func TestRenderDoesNotTouchTree(t *testing.T) {
	rt := newTestRuntime()
	def := rt.Define("hello", func(i *Instance) string {
		return "<p>" + i.Props().String("name") + "</p>"
	}, Config{})

	inst := rt.Invoke(def, nil)
	m := inst.Render(Props{"name": "morph"})
	if m.HTML != "<p>morph</p>" {
		t.Errorf("HTML = %q", m.HTML)
	}
	if m.Definition != def.ID() {
		t.Errorf("Definition = %d, want %d", m.Definition, def.ID())
	}
	if m.Empty() {
		t.Error("Empty() = true")
	}
	if inst.Root() != nil || inst.Status() != StatusIdle {
		t.Error("Render should not bind the instance")
	}
}

func TestContentResolve(t *testing.T) {
	rt := newTestRuntime()
	leaf := rt.Define("leaf", Static("<em>leaf</em>"), Config{Tag: "span"})
	node := dom.NewElement("hr")

	var got string
	def := rt.Define("page", func(i *Instance) string {
		got = i.Resolve(List{
			Text("a<b"),
			HTML("<br>"),
			NodeContent{Node: node},
			Lazy(func() Content { return Text("!") }),
			ChildContent{Definition: leaf},
		})
		return "<div>" + got + "</div>"
	}, Config{})

	root := newRoot()
	inst, err := rt.Mount(root, def, nil)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if !strings.HasPrefix(got, "a&lt;b<br><hr>!<span ") {
		t.Errorf("resolved = %q", got)
	}
	if len(inst.Children()) != 1 || !inst.Children()[0].Mounted() {
		t.Error("child content should mount a child instance")
	}
}

func TestSlot(t *testing.T) {
	rt := newTestRuntime()
	def := rt.Define("panel", func(i *Instance) string {
		return "<section>" + i.Slot("body") + i.Slot("missing") + "</section>"
	}, Config{Slots: map[string]Content{"body": Text("x & y")}})

	root := newRoot()
	if _, err := rt.Mount(root, def, nil); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if got := dom.InnerHTML(root); got != "<section>x &amp; y</section>" {
		t.Errorf("InnerHTML = %q", got)
	}
}
