package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/morph/pkg/component"
	"github.com/vango-dev/morph/pkg/patch"
)

// Config configures the collector.
type Config struct {
	// Namespace is the metrics namespace (default: "morph").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for render duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "morph",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector holds the Prometheus metrics for a morph process.
type Collector struct {
	registry prometheus.Registerer

	rendersTotal   *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	mutationsTotal *prometheus.CounterVec
	hookFailures   *prometheus.CounterVec
	evictionsTotal *prometheus.CounterVec
	activeSessions prometheus.Gauge
	eventsTotal    *prometheus.CounterVec
	wsErrors       *prometheus.CounterVec
}

var (
	_ component.Observer = (*Collector)(nil)
	_ patch.Observer     = (*Collector)(nil)
)

// New creates a Collector and registers its metrics.
//
// Metrics collected:
//   - morph_renders_total: committed render passes by definition and transition
//   - morph_render_duration_seconds: render pass duration by definition
//   - morph_mutations_total: tree mutations by op
//   - morph_hook_failures_total: failed or timed-out hooks by definition and phase
//   - morph_evictions_total: registry evictions by scope
//   - morph_active_sessions: open live sessions
//   - morph_events_total: client events by type and status
//   - morph_websocket_errors_total: websocket errors by type
func New(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Collector{
		registry: config.Registry,

		rendersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "renders_total",
			Help:        "Total number of committed render passes",
			ConstLabels: config.ConstLabels,
		}, []string{"definition", "transition"}),

		renderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_duration_seconds",
			Help:        "Render pass duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"definition"}),

		mutationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "mutations_total",
			Help:        "Total number of live tree mutations",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		hookFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "hook_failures_total",
			Help:        "Total number of lifecycle hooks that failed or timed out",
			ConstLabels: config.ConstLabels,
		}, []string{"definition", "phase"}),

		evictionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "evictions_total",
			Help:        "Total number of identity registry evictions",
			ConstLabels: config.ConstLabels,
		}, []string{"scope"}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of open live sessions",
			ConstLabels: config.ConstLabels,
		}),

		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "events_total",
			Help:        "Total number of client events dispatched",
			ConstLabels: config.ConstLabels,
		}, []string{"event", "status"}),

		wsErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "websocket_errors_total",
			Help:        "Total WebSocket errors by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),
	}
}

// Rendered implements component.Observer.
func (c *Collector) Rendered(ev component.RenderEvent) {
	c.rendersTotal.WithLabelValues(ev.Definition, ev.Transition.String()).Inc()
	c.renderDuration.WithLabelValues(ev.Definition).Observe(ev.Duration.Seconds())
}

// HookFailed implements component.Observer.
func (c *Collector) HookFailed(f component.HookFailure) {
	c.hookFailures.WithLabelValues(f.Definition, f.Phase.String()).Inc()
}

// Evicted implements component.Observer.
func (c *Collector) Evicted(_ string, scope string) {
	c.evictionsTotal.WithLabelValues(scope).Inc()
}

// Mutated implements patch.Observer.
func (c *Collector) Mutated(m patch.Mutation) {
	c.mutationsTotal.WithLabelValues(m.Op.String()).Inc()
}

// RecordSessionOpen records a new live session.
func (c *Collector) RecordSessionOpen() {
	c.activeSessions.Inc()
}

// RecordSessionClose records a closed live session.
func (c *Collector) RecordSessionClose() {
	c.activeSessions.Dec()
}

// RecordEvent records a dispatched client event. handled is false when no
// listener matched.
func (c *Collector) RecordEvent(event string, handled bool) {
	status := "handled"
	if !handled {
		status = "unhandled"
	}
	c.eventsTotal.WithLabelValues(event, status).Inc()
}

// RecordWebSocketError records a WebSocket error.
func (c *Collector) RecordWebSocketError(errorType string) {
	c.wsErrors.WithLabelValues(errorType).Inc()
}

// Handler returns an HTTP handler exposing the collector's registry.
func (c *Collector) Handler() http.Handler {
	if g, ok := c.registry.(prometheus.Gatherer); ok {
		return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	}
	return promhttp.Handler()
}
