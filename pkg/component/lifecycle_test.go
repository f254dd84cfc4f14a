package component

import (
	"errors"
	"testing"

	merrors "github.com/vango-dev/morph/internal/errors"
	"github.com/vango-dev/morph/pkg/dom"
)

// toggleDef renders <p>hi</p> while state "show" is true and nothing
// otherwise, counting mount and unmount hooks.
func toggleDef(rt *Runtime, mounts, unmounts *int) *Definition {
	return rt.Define("toggle", func(i *Instance) string {
		s, _ := i.State().(State)
		if show, _ := s["show"].(bool); !show {
			return ""
		}
		return "<p>hi</p>"
	}, Config{
		State: State{"show": true},
		Hooks: map[Phase][]Hook{
			PhaseMount:   {Sync(func(*Instance) { *mounts++ })},
			PhaseUnmount: {Sync(func(*Instance) { *unmounts++ })},
		},
	})
}

func TestMountNilTarget(t *testing.T) {
	rt := newTestRuntime()
	inst := rt.Invoke(rt.Define("x", Static("<p/>"), Config{}), nil)

	err := inst.Mount(nil, nil)
	if !errors.Is(err, ErrMountTargetMissing) {
		t.Fatalf("err = %v, want ErrMountTargetMissing", err)
	}
	if code := merrors.Code(err); code != "E101" {
		t.Errorf("Code = %q, want E101", code)
	}
	if inst.Status() != StatusIdle {
		t.Errorf("Status = %v, want idle", inst.Status())
	}
}

func TestMountSetsBoundaryAndRenders(t *testing.T) {
	rt := newTestRuntime()
	var mounts, unmounts int
	root := newRoot()

	inst, err := rt.Mount(root, toggleDef(rt, &mounts, &unmounts), nil)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if !inst.Mounted() {
		t.Fatalf("Status = %v, want mounted", inst.Status())
	}
	if got := dom.InnerHTML(root); got != "<p>hi</p>" {
		t.Errorf("InnerHTML = %q", got)
	}
	if v, _ := root.Attr(DefaultMarkers().Boundary); v != "1" {
		t.Errorf("boundary attr = %q, want 1", v)
	}
	if mounts != 1 {
		t.Errorf("mount hooks ran %d times, want 1", mounts)
	}

	// Mounting again is a no-op.
	if err := inst.Mount(root, nil); err != nil {
		t.Fatalf("second Mount: %v", err)
	}
	if mounts != 1 {
		t.Errorf("second Mount ran mount hooks")
	}
}

func TestNullRenderAndRestore(t *testing.T) {
	rt := newTestRuntime()
	var mounts, unmounts int
	root := newRoot()

	inst, err := rt.Mount(root, toggleDef(rt, &mounts, &unmounts), nil)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	original := root.FirstChild()

	inst.SetState(State{"show": false})
	rt.Flush()

	if inst.Status() != StatusNullRendered {
		t.Fatalf("Status = %v, want null-rendered", inst.Status())
	}
	if root.ChildCount() != 0 {
		t.Errorf("root should be empty, got %q", dom.InnerHTML(root))
	}
	if !inst.HasSnapshot() {
		t.Error("null render should keep a snapshot")
	}
	if unmounts != 1 {
		t.Errorf("unmount hooks ran %d times, want 1", unmounts)
	}

	inst.SetState(State{"show": true})
	rt.Flush()

	if !inst.Mounted() {
		t.Fatalf("Status = %v, want mounted", inst.Status())
	}
	if got := dom.InnerHTML(root); got != "<p>hi</p>" {
		t.Errorf("InnerHTML = %q", got)
	}
	if root.FirstChild() == original {
		t.Error("restored content should be a copy, not the original node")
	}
	if mounts != 2 {
		t.Errorf("mount hooks ran %d times, want 2", mounts)
	}
}

func TestFirstRenderEmpty(t *testing.T) {
	rt := newTestRuntime()
	var mounts, unmounts int
	def := toggleDef(rt, &mounts, &unmounts)
	inst := rt.Clone(def, nil)
	inst.state = State{"show": false}

	if err := inst.Mount(newRoot(), nil); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if inst.Status() != StatusNullRendered {
		t.Errorf("Status = %v, want null-rendered", inst.Status())
	}
	if mounts != 0 {
		t.Errorf("mount hooks ran %d times, want 0", mounts)
	}
}

func TestSetStateCoalesces(t *testing.T) {
	rt := newTestRuntime()
	renders := 0
	def := rt.Define("counter", func(i *Instance) string {
		renders++
		return "<span>" + i.Props().String("x") + "</span>"
	}, Config{State: State{"n": 0}})

	inst, err := rt.Mount(newRoot(), def, nil)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	renders = 0

	inst.SetState(State{"n": 1})
	inst.SetState(func(s any) any {
		next := State{}
		for k, v := range s.(State) {
			next[k] = v
		}
		next["n"] = next["n"].(int) + 1
		return next
	})
	inst.SetState(State{"m": true})

	if renders != 0 {
		t.Fatal("SetState must not render synchronously")
	}
	if got := rt.Pending(); got != 1 {
		t.Fatalf("Pending = %d, want 1", got)
	}
	rt.Flush()
	if renders != 1 {
		t.Errorf("renders = %d, want 1", renders)
	}
	if stateInt(inst, "n") != 2 {
		t.Errorf("n = %d, want 2", stateInt(inst, "n"))
	}

	inst.SetState(State{"n": 2})
	if rt.Pending() != 0 {
		t.Error("an equal state should not schedule a render")
	}
}

func TestSetStateReplace(t *testing.T) {
	rt := newTestRuntime()
	def := rt.Define("v", func(i *Instance) string {
		v, _ := i.State().(string)
		return "<p>" + v + "</p>"
	}, Config{State: "a"})

	root := newRoot()
	inst, err := rt.Mount(root, def, nil)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	inst.SetState("b")
	rt.Flush()
	if got := root.TextContent(); got != "b" {
		t.Errorf("TextContent = %q, want b", got)
	}
}

func TestSetStateWhileIdleDoesNotRender(t *testing.T) {
	rt := newTestRuntime()
	renders := 0
	def := rt.Define("idle", func(*Instance) string { renders++; return "<p/>" }, Config{})
	inst := rt.Clone(def, nil)

	inst.SetState(State{"x": 1})
	rt.Flush()
	if renders != 0 {
		t.Errorf("renders = %d, want 0", renders)
	}
	if stateInt(inst, "x") != 1 {
		t.Error("state should still be updated")
	}
}

func TestUnmountRemountRoundTrip(t *testing.T) {
	rt := newTestRuntime()
	var mounts, unmounts int
	def := toggleDef(rt, &mounts, &unmounts)
	root := newRoot()

	var seen []int
	inst := rt.Clone(def, nil)
	inst.OnBeforeRender(Sync(func(i *Instance) { seen = append(seen, i.Root().ChildCount()) }))

	if err := inst.Mount(root, nil); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	inst.Unmount()

	if inst.Status() != StatusIdle || inst.Root() != nil {
		t.Fatal("Unmount should return the instance to idle")
	}
	if root.ChildCount() != 0 {
		t.Error("Unmount should detach the live content")
	}
	if root.HasAttr(DefaultMarkers().Boundary) {
		t.Error("Unmount should remove the boundary marker it added")
	}
	if unmounts != 1 {
		t.Errorf("unmount hooks ran %d times, want 1", unmounts)
	}

	if err := inst.Mount(root, nil); err != nil {
		t.Fatalf("remount: %v", err)
	}
	if len(seen) != 2 || seen[1] != 1 {
		t.Errorf("snapshot should be restored before rendering, saw %v", seen)
	}
	if got := dom.InnerHTML(root); got != "<p>hi</p>" {
		t.Errorf("InnerHTML = %q", got)
	}
	if mounts != 2 {
		t.Errorf("mount hooks ran %d times, want 2", mounts)
	}

	// Unmounting an idle instance is a no-op.
	inst.Unmount()
	inst.Unmount()
	if unmounts != 2 {
		t.Errorf("unmount hooks ran %d times, want 2", unmounts)
	}
}

func TestUpdateHookSeesPrevProps(t *testing.T) {
	rt := newTestRuntime()
	def := rt.Define("label", func(i *Instance) string {
		return "<p>" + i.Props().String("text") + "</p>"
	}, Config{})

	var prev, cur string
	inst := rt.Clone(def, Props{"text": "one"})
	inst.OnUpdate(Sync(func(i *Instance) {
		prev, cur = i.PrevProps().String("text"), i.Props().String("text")
	}))
	if err := inst.Mount(newRoot(), nil); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	inst.Update(Props{"text": "two"})

	if prev != "one" || cur != "two" {
		t.Errorf("update hook saw prev=%q cur=%q", prev, cur)
	}
}

func TestUpdateIgnoredUnlessBound(t *testing.T) {
	rt := newTestRuntime()
	renders := 0
	inst := rt.Clone(rt.Define("u", func(*Instance) string { renders++; return "<p/>" }, Config{}), nil)
	inst.Update(Props{"a": 1})
	if renders != 0 {
		t.Errorf("renders = %d, want 0", renders)
	}
}

func TestRenderPanicKeepsTree(t *testing.T) {
	rt := newTestRuntime()
	def := rt.Define("fragile", func(i *Instance) string {
		if i.Props().String("boom") != "" {
			panic("boom")
		}
		return "<p>ok</p>"
	}, Config{})

	root := newRoot()
	inst, err := rt.Mount(root, def, nil)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	inst.Update(Props{"boom": "yes"})

	if got := dom.InnerHTML(root); got != "<p>ok</p>" {
		t.Errorf("InnerHTML = %q", got)
	}
	if !inst.Mounted() {
		t.Error("instance should stay mounted")
	}
	if len(rt.stack) != 0 {
		t.Error("render stack should be unwound")
	}
}

func TestChildNullRenderInsideParent(t *testing.T) {
	rt := newTestRuntime()
	var mounts, unmounts int
	child := toggleDef(rt, &mounts, &unmounts)
	parent := rt.Define("shell", func(i *Instance) string {
		return "<header>h</header>" + i.Child(child, nil)
	}, Config{})

	root := newRoot()
	inst, err := rt.Mount(root, parent, nil)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	c := inst.Children()[0]
	if !c.Mounted() || mounts != 1 {
		t.Fatalf("child should be mounted once, status %v mounts %d", c.Status(), mounts)
	}

	c.SetState(State{"show": false})
	rt.Flush()
	if c.Status() != StatusNullRendered || c.Root().ChildCount() != 0 {
		t.Fatal("child should null-render in place")
	}

	inst.Update(nil)
	if c.Status() != StatusNullRendered {
		t.Errorf("parent update changed child status to %v", c.Status())
	}

	c.SetState(State{"show": true})
	rt.Flush()
	if got := c.Root().TextContent(); got != "hi" {
		t.Errorf("child content = %q, want hi", got)
	}
	if mounts != 2 {
		t.Errorf("mount hooks ran %d times, want 2", mounts)
	}
}

func TestParentUnmountUnmountsChildren(t *testing.T) {
	rt := newTestRuntime()
	var mounts, unmounts int
	child := toggleDef(rt, &mounts, &unmounts)
	parent := rt.Define("shell", func(i *Instance) string {
		return i.Child(child, nil) + i.Child(child, nil)
	}, Config{})

	root := newRoot()
	inst, err := rt.Mount(root, parent, nil)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	inst.Unmount()
	if unmounts != 2 {
		t.Errorf("child unmount hooks ran %d times, want 2", unmounts)
	}

	if err := inst.Mount(root, nil); err != nil {
		t.Fatalf("remount: %v", err)
	}
	if got := len(root.QueryAttr(DefaultMarkers().Boundary)); got != 2 {
		t.Errorf("expected 2 child roots after remount, got %d: %q", got, dom.InnerHTML(root))
	}
	if mounts != 4 {
		t.Errorf("child mount hooks ran %d times, want 4", mounts)
	}
}

func TestStatusString(t *testing.T) {
	tests := []struct {
		s    Status
		want string
	}{
		{StatusIdle, "idle"},
		{StatusMounting, "mounting"},
		{StatusMounted, "mounted"},
		{StatusNullRendered, "null-rendered"},
		{StatusUnmounting, "unmounting"},
		{Status(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}

func TestDetachRestoreRoundTrip(t *testing.T) {
	root := newRoot()
	nodes, err := dom.ParseFragmentIn(root, `<p>a</p><p>b</p>`)
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}

	s := Detach(root)
	if root.ChildCount() != 0 || s.Len() != 2 {
		t.Fatalf("Detach left %d children, snapshot holds %d", root.ChildCount(), s.Len())
	}
	Restore(root, s)
	Restore(root, s)
	if got := dom.InnerHTML(root); got != "<p>a</p><p>b</p><p>a</p><p>b</p>" {
		t.Errorf("InnerHTML = %q", got)
	}
	if Detach(nil) != nil {
		t.Error("Detach(nil) should return nil")
	}
}
