package morphtest

import (
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/vango-dev/morph/pkg/component"
	"github.com/vango-dev/morph/pkg/dom"
	"github.com/vango-dev/morph/pkg/patch"
)

// Recorder collects everything a runtime reports.
type Recorder struct {
	mu        sync.Mutex
	Renders   []component.RenderEvent
	Failures  []component.HookFailure
	Evictions []string // "definition/scope"
}

// Rendered implements component.Observer.
func (r *Recorder) Rendered(ev component.RenderEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Renders = append(r.Renders, ev)
}

// HookFailed implements component.Observer.
func (r *Recorder) HookFailed(f component.HookFailure) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Failures = append(r.Failures, f)
}

// Evicted implements component.Observer.
func (r *Recorder) Evicted(definition, scope string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Evictions = append(r.Evictions, definition+"/"+scope)
}

// Transitions returns the transitions recorded for the named definition,
// in order.
func (r *Recorder) Transitions(definition string) []component.Transition {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []component.Transition
	for _, ev := range r.Renders {
		if ev.Definition == definition {
			out = append(out, ev.Transition)
		}
	}
	return out
}

// Harness mounts a component into a fresh document and drives it.
type Harness struct {
	t *testing.T

	Runtime  *component.Runtime
	Recorder *Recorder
	Log      *patch.Log
	Document *dom.Node
	Body     *dom.Node
	Root     *component.Instance
}

// New creates a harness. The runtime logs nowhere unless opts set a logger.
func New(t *testing.T, opts ...component.Option) *Harness {
	t.Helper()
	h := &Harness{
		t:        t,
		Recorder: &Recorder{},
		Log:      &patch.Log{},
		Document: dom.NewDocument(),
		Body:     dom.NewElement("body"),
	}
	h.Document.AppendChild(h.Body)
	base := []component.Option{
		component.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		component.WithObserver(h.Recorder),
		component.WithPatchObserver(h.Log),
	}
	h.Runtime = component.New(append(base, opts...)...)
	return h
}

// Mount mounts def into the document body and fails the test on error.
func (h *Harness) Mount(def *component.Definition, props ...component.Props) *component.Instance {
	h.t.Helper()
	var p component.Props
	if len(props) > 0 {
		p = props[0]
	}
	inst, err := h.Runtime.Mount(h.Body, def, p)
	if err != nil {
		h.t.Fatalf("Mount(%s): %v", def.Name(), err)
	}
	h.Root = inst
	return inst
}

// HTML returns the body's current markup.
func (h *Harness) HTML() string {
	return dom.InnerHTML(h.Body)
}

// Find returns the first element in the body whose ref attribute is ref.
func (h *Harness) Find(ref string) *dom.Node {
	return h.Body.FindAttr(h.Runtime.Markers().Ref, ref)
}

// FindKey returns the first element whose key attribute is key.
func (h *Harness) FindKey(key string) *dom.Node {
	return h.Body.FindAttr(h.Runtime.Markers().Key, key)
}

// Click fires a click on ref.
func (h *Harness) Click(ref string) {
	h.t.Helper()
	h.Fire(ref, "click")
}

// Fire dispatches event on ref and flushes the runtime.
func (h *Harness) Fire(ref, event string) {
	h.t.Helper()
	h.fire(h.Body, ref, event)
}

// FireIn dispatches event on ref inside the element keyed key.
func (h *Harness) FireIn(key, ref, event string) {
	h.t.Helper()
	scope := h.FindKey(key)
	if scope == nil {
		h.t.Fatalf("no element keyed %q in:\n%s", key, truncate(h.HTML(), 500))
	}
	h.fire(scope, ref, event)
}

func (h *Harness) fire(scope *dom.Node, ref, event string) {
	h.t.Helper()
	n := scope.FindAttr(h.Runtime.Markers().Ref, ref)
	if n == nil {
		h.t.Fatalf("no element with ref %q in:\n%s", ref, truncate(dom.InnerHTML(scope), 500))
	}
	n.Dispatch(&dom.Event{Type: event})
	h.Runtime.Flush()
}

// ExpectContains asserts that the body markup contains expected.
func (h *Harness) ExpectContains(expected string) {
	h.t.Helper()
	html := h.HTML()
	if !strings.Contains(html, expected) {
		h.t.Errorf("expected markup to contain %q, got:\n%s", expected, truncate(html, 500))
	}
}

// ExpectNotContains asserts that the body markup does not contain
// unexpected.
func (h *Harness) ExpectNotContains(unexpected string) {
	h.t.Helper()
	html := h.HTML()
	if strings.Contains(html, unexpected) {
		h.t.Errorf("expected markup to NOT contain %q, got:\n%s", unexpected, truncate(html, 500))
	}
}

// ExpectElement asserts that the body markup contains a tag.
func (h *Harness) ExpectElement(tag string) {
	h.t.Helper()
	html := h.HTML()
	if !strings.Contains(html, "<"+tag) {
		h.t.Errorf("expected markup to contain <%s> element, got:\n%s", tag, truncate(html, 500))
	}
}

// ExpectAttribute asserts that the body markup contains attr="value".
func (h *Harness) ExpectAttribute(attr, value string) {
	h.t.Helper()
	html := h.HTML()
	needle := attr + `="` + value + `"`
	if !strings.Contains(html, needle) {
		h.t.Errorf("expected attribute %s=%q not found, got:\n%s", attr, value, truncate(html, 500))
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
