package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vango-dev/morph/pkg/component"
	"github.com/vango-dev/morph/pkg/dom"
	"github.com/vango-dev/morph/pkg/patch"
)

func newTestCollector(t *testing.T) (*Collector, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return New(WithRegistry(reg), WithNamespace("test")), reg
}

func TestCollectorObservesRuntime(t *testing.T) {
	c, _ := newTestCollector(t)

	c.Rendered(component.RenderEvent{Definition: "counter", Transition: component.TransitionMount, Duration: time.Millisecond})
	c.Rendered(component.RenderEvent{Definition: "counter", Transition: component.TransitionUpdate})
	c.Rendered(component.RenderEvent{Definition: "counter", Transition: component.TransitionUpdate})
	c.HookFailed(component.HookFailure{Definition: "counter", Phase: component.PhaseMount})
	c.Evicted("row", "singletons")

	if got := testutil.ToFloat64(c.rendersTotal.WithLabelValues("counter", "update")); got != 2 {
		t.Errorf("renders_total{update} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.rendersTotal.WithLabelValues("counter", "mount")); got != 1 {
		t.Errorf("renders_total{mount} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.hookFailures.WithLabelValues("counter", "mount")); got != 1 {
		t.Errorf("hook_failures_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.evictionsTotal.WithLabelValues("singletons")); got != 1 {
		t.Errorf("evictions_total = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(c.renderDuration); got != 1 {
		t.Errorf("render_duration_seconds series = %d, want 1", got)
	}
}

func TestCollectorCountsMutations(t *testing.T) {
	c, _ := newTestCollector(t)
	p := patch.New(patch.WithObserver(c))

	root := dom.NewElement("div")
	p.Patch(root, `<p>a</p><p>b</p>`)
	p.Patch(root, `<p>a</p><p>c</p>`)

	if got := testutil.ToFloat64(c.mutationsTotal.WithLabelValues(patch.OpInsertNode.String())); got != 2 {
		t.Errorf("insert mutations = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.mutationsTotal.WithLabelValues(patch.OpSetText.String())); got != 1 {
		t.Errorf("set-text mutations = %v, want 1", got)
	}
}

func TestCollectorWithRuntime(t *testing.T) {
	c, _ := newTestCollector(t)
	rt := component.New(component.WithObserver(c), component.WithPatchObserver(c))
	def := rt.Define("hello", component.Static("<p>hi</p>"), component.Config{})

	if _, err := rt.Mount(dom.NewElement("main"), def, nil); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if got := testutil.ToFloat64(c.rendersTotal.WithLabelValues("hello", "mount")); got != 1 {
		t.Errorf("renders_total{mount} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.mutationsTotal.WithLabelValues(patch.OpInsertNode.String())); got != 1 {
		t.Errorf("insert mutations = %v, want 1", got)
	}
}

func TestSessionMetrics(t *testing.T) {
	c, _ := newTestCollector(t)

	c.RecordSessionOpen()
	c.RecordSessionOpen()
	c.RecordSessionClose()
	c.RecordEvent("click", true)
	c.RecordEvent("click", false)
	c.RecordWebSocketError("read")

	if got := testutil.ToFloat64(c.activeSessions); got != 1 {
		t.Errorf("active_sessions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.eventsTotal.WithLabelValues("click", "unhandled")); got != 1 {
		t.Errorf("events_total{unhandled} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.wsErrors.WithLabelValues("read")); got != 1 {
		t.Errorf("websocket_errors_total = %v, want 1", got)
	}
}

func TestHandlerExposesRegistry(t *testing.T) {
	c, _ := newTestCollector(t)
	c.RecordSessionOpen()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "test_active_sessions 1") {
		t.Errorf("body missing gauge:\n%s", rec.Body.String())
	}
}
