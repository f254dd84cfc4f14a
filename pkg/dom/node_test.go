package dom

import "testing"

func TestNewElementLowercasesTag(t *testing.T) {
	n := NewElement("DIV", Attr{Key: "id", Value: "main"})
	if n.Tag != "div" {
		t.Errorf("Tag = %q, want div", n.Tag)
	}
	if v, ok := n.Attr("id"); !ok || v != "main" {
		t.Errorf("Attr(id) = %q, %v; want main, true", v, ok)
	}
}

func TestAttrOrderPreserved(t *testing.T) {
	n := NewElement("div")
	n.SetAttr("b", "1")
	n.SetAttr("a", "2")
	n.SetAttr("b", "3")

	attrs := n.Attrs()
	if len(attrs) != 2 {
		t.Fatalf("len(Attrs) = %d, want 2", len(attrs))
	}
	if attrs[0] != (Attr{Key: "b", Value: "3"}) || attrs[1] != (Attr{Key: "a", Value: "2"}) {
		t.Errorf("Attrs = %v", attrs)
	}

	if !n.RemoveAttr("b") {
		t.Error("RemoveAttr(b) = false")
	}
	if n.RemoveAttr("b") {
		t.Error("second RemoveAttr(b) = true")
	}
	if n.AttrOr("b", "x") != "x" {
		t.Error("AttrOr should fall back to default")
	}
}

func TestInsertBeforeRelocates(t *testing.T) {
	p := NewElement("ul")
	a, b, c := NewElement("li"), NewElement("li"), NewElement("li")
	p.AppendChild(a)
	p.AppendChild(b)
	p.AppendChild(c)

	p.InsertBefore(c, a)

	if p.ChildCount() != 3 {
		t.Fatalf("ChildCount = %d, want 3", p.ChildCount())
	}
	if p.ChildAt(0) != c || p.ChildAt(1) != a || p.ChildAt(2) != b {
		t.Error("c should have moved to the front")
	}
	if c.Parent() != p {
		t.Error("parent link lost on relocation")
	}
}

func TestInsertBeforeAcrossParents(t *testing.T) {
	p1, p2 := NewElement("div"), NewElement("div")
	x := NewText("x")
	p1.AppendChild(x)
	p2.AppendChild(x)

	if p1.ChildCount() != 0 {
		t.Errorf("old parent still has %d children", p1.ChildCount())
	}
	if x.Parent() != p2 {
		t.Error("x not reparented")
	}
}

func TestReplaceAndRemove(t *testing.T) {
	p := NewElement("div")
	a, b := NewElement("span"), NewElement("em")
	p.AppendChild(a)

	if !p.ReplaceChild(b, a) {
		t.Fatal("ReplaceChild returned false")
	}
	if p.FirstChild() != b || a.Parent() != nil {
		t.Error("replacement not applied")
	}
	if p.RemoveChild(a) {
		t.Error("RemoveChild of detached node should be false")
	}
	b.Remove()
	if p.ChildCount() != 0 {
		t.Error("Remove did not detach")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	src := NewElement("div", Attr{Key: "class", Value: "card"})
	src.AppendChild(NewText("hello"))
	src.AddEventListener("click", func(*Event) {})

	c := src.Clone(true)
	if !Equal(src, c) {
		t.Fatal("deep clone not equal to source")
	}
	if c.FirstChild() == src.FirstChild() {
		t.Error("deep clone shares children")
	}
	if c.ListenerCount() != 0 {
		t.Error("listeners must not be cloned")
	}

	c.SetAttr("class", "other")
	if v, _ := src.Attr("class"); v != "card" {
		t.Error("clone attribute write leaked into source")
	}

	shallow := src.Clone(false)
	if shallow.ChildCount() != 0 {
		t.Error("shallow clone copied children")
	}
}

func TestConnectivity(t *testing.T) {
	doc := NewDocument()
	div := NewElement("div")
	span := NewElement("span")
	div.AppendChild(span)

	if span.IsConnected() {
		t.Error("detached subtree reported connected")
	}
	doc.AppendChild(div)
	if !span.IsConnected() {
		t.Error("attached subtree reported disconnected")
	}
	if !div.Contains(span) || span.Contains(div) {
		t.Error("Contains wrong")
	}
	div.Remove()
	if span.IsConnected() {
		t.Error("removed subtree still connected")
	}
}

func TestQueryAttr(t *testing.T) {
	root := mustParseInto(t, `<div data-ref="a"><span data-ref="b"></span></div><p data-ref="c"></p>`)

	got := root.QueryAttr("data-ref")
	if len(got) != 3 {
		t.Fatalf("QueryAttr found %d nodes, want 3", len(got))
	}
	if v, _ := got[1].Attr("data-ref"); v != "b" {
		t.Errorf("document order broken: second = %q", v)
	}
	if n := root.FindAttr("data-ref", "c"); n == nil || n.Tag != "p" {
		t.Errorf("FindAttr(c) = %v", n)
	}
	if root.FindAttr("data-ref", "zzz") != nil {
		t.Error("FindAttr should return nil for a missing value")
	}
}

func TestTextContent(t *testing.T) {
	root := mustParseInto(t, `<p>Hello <b>World</b></p>`)
	if got := root.TextContent(); got != "Hello World" {
		t.Errorf("TextContent = %q", got)
	}
}

func TestDispatchBubbles(t *testing.T) {
	root := mustParseInto(t, `<div><button>go</button></div>`)
	div := root.FirstChild()
	btn := div.FirstChild()

	var order []string
	div.AddEventListener("click", func(e *Event) {
		order = append(order, "div")
		if e.Target != btn {
			t.Error("Target should stay the origin node")
		}
	})
	remove := btn.AddEventListener("click", func(*Event) { order = append(order, "btn") })

	if n := btn.Dispatch(&Event{Type: "click"}); n != 2 {
		t.Errorf("Dispatch invoked %d handlers, want 2", n)
	}
	if len(order) != 2 || order[0] != "btn" || order[1] != "div" {
		t.Errorf("order = %v", order)
	}

	remove()
	order = nil
	btn.Dispatch(&Event{Type: "click"})
	if len(order) != 1 {
		t.Errorf("removed listener still fired: %v", order)
	}
}

func TestStopPropagation(t *testing.T) {
	root := mustParseInto(t, `<div><button></button></div>`)
	div := root.FirstChild()
	btn := div.FirstChild()

	fired := false
	div.AddEventListener("click", func(*Event) { fired = true })
	btn.AddEventListener("click", func(e *Event) { e.StopPropagation() })

	btn.Dispatch(&Event{Type: "click"})
	if fired {
		t.Error("ancestor handler ran after StopPropagation")
	}
}

func mustParseInto(t *testing.T, markup string) *Node {
	t.Helper()
	nodes, err := ParseFragment(markup)
	if err != nil {
		t.Fatalf("ParseFragment: %v", err)
	}
	root := NewDocument()
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root
}
