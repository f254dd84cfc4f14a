package component

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/morph/pkg/dom"
	"github.com/vango-dev/morph/pkg/patch"
)

const (
	// DefaultRefAttr names the attribute used by Ref and Listener lookups.
	DefaultRefAttr = "data-ref"

	// DefaultDefinitionAttr tags child wrappers with their definition id.
	DefaultDefinitionAttr = "data-component"

	// DefaultHookTimeout bounds continuation and promise hooks.
	DefaultHookTimeout = 5 * time.Second

	// DefaultMaxEntries is the default capacity of each identity registry.
	DefaultMaxEntries = 1024

	tracerName = "github.com/vango-dev/morph/pkg/component"
)

// Markers names the attributes the runtime reads and writes.
type Markers struct {
	Key        string
	Boundary   string
	Ref        string
	Definition string
}

// DefaultMarkers returns the default marker names.
func DefaultMarkers() Markers {
	return Markers{
		Key:        patch.DefaultKeyAttr,
		Boundary:   patch.DefaultBoundaryAttr,
		Ref:        DefaultRefAttr,
		Definition: DefaultDefinitionAttr,
	}
}

// Limits bounds the identity registries. When a registry is over capacity the
// least recently resolved entry that is not bound to a live node is evicted.
// Bound entries are never evicted. Zero means unbounded.
type Limits struct {
	MaxSingletons int // per definition
	MaxChildren   int // per parent call-order cache
}

// Hydrator is an external collaborator run after every committed render that
// left content in the tree (slot and action hydration).
type Hydrator interface {
	Hydrate(i *Instance, root *dom.Node)
}

// HydratorFunc adapts a function to Hydrator.
type HydratorFunc func(i *Instance, root *dom.Node)

// Hydrate implements Hydrator.
func (f HydratorFunc) Hydrate(i *Instance, root *dom.Node) { f(i, root) }

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the runtime logger.
func WithLogger(l *slog.Logger) Option {
	return func(rt *Runtime) {
		if l != nil {
			rt.logger = l
		}
	}
}

// WithMarkers overrides marker names. Empty fields keep their defaults.
func WithMarkers(m Markers) Option {
	return func(rt *Runtime) {
		if m.Key != "" {
			rt.markers.Key = m.Key
		}
		if m.Boundary != "" {
			rt.markers.Boundary = m.Boundary
		}
		if m.Ref != "" {
			rt.markers.Ref = m.Ref
		}
		if m.Definition != "" {
			rt.markers.Definition = m.Definition
		}
	}
}

// WithLimits sets registry capacities.
func WithLimits(l Limits) Option {
	return func(rt *Runtime) { rt.limits = l }
}

// WithHookTimeout bounds how long a continuation or promise hook may take
// to settle. Zero disables the bound.
func WithHookTimeout(d time.Duration) Option {
	return func(rt *Runtime) { rt.hookTimeout = d }
}

// WithScheduler replaces the microtask queue used for batched renders.
func WithScheduler(s Scheduler) Option {
	return func(rt *Runtime) {
		if s != nil {
			rt.scheduler = s
		}
	}
}

// WithObserver sets the runtime observer.
func WithObserver(o Observer) Option {
	return func(rt *Runtime) {
		if o != nil {
			rt.observer = o
		}
	}
}

// WithPatchObserver adds an observer for every tree mutation the runtime's
// patcher performs.
func WithPatchObserver(o patch.Observer) Option {
	return func(rt *Runtime) {
		if o != nil {
			rt.patchOpts = append(rt.patchOpts, patch.WithObserver(o))
		}
	}
}

// WithTracer sets the tracer used for render spans.
func WithTracer(t trace.Tracer) Option {
	return func(rt *Runtime) {
		if t != nil {
			rt.tracer = t
		}
	}
}

// WithSlotHydrator sets the slot hydration collaborator.
func WithSlotHydrator(h Hydrator) Option {
	return func(rt *Runtime) { rt.slotHydrator = h }
}

// WithActionHydrator sets the action hydration collaborator.
func WithActionHydrator(h Hydrator) Option {
	return func(rt *Runtime) { rt.actionHydrator = h }
}

// Runtime owns definitions, identity registries, the patcher and the
// microtask queue.
type Runtime struct {
	logger      *slog.Logger
	markers     Markers
	limits      Limits
	hookTimeout time.Duration
	scheduler   Scheduler
	observer    Observer
	tracer      trace.Tracer
	patcher     *patch.Patcher
	patchOpts   []patch.Option

	slotHydrator   Hydrator
	actionHydrator Hydrator

	nextDefID  uint64
	nextInstID uint64
	tick       uint64

	// singletons is the per-definition keyed registry for top-level calls.
	singletons map[uint64]map[string]*Instance

	// stack holds the instances currently executing their render function.
	stack []*Instance
}

// New creates a Runtime.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		logger:      slog.Default().With("component", "morph"),
		markers:     DefaultMarkers(),
		limits:      Limits{MaxSingletons: DefaultMaxEntries, MaxChildren: DefaultMaxEntries},
		hookTimeout: DefaultHookTimeout,
		scheduler:   NewMicrotasks(),
		observer:    nopObserver{},
		tracer:      otel.Tracer(tracerName),
		singletons:  make(map[uint64]map[string]*Instance),
	}
	for _, opt := range opts {
		opt(rt)
	}
	popts := append([]patch.Option{
		patch.WithMarkers(patch.Markers{Key: rt.markers.Key, Boundary: rt.markers.Boundary}),
		patch.WithLogger(rt.logger),
	}, rt.patchOpts...)
	rt.patcher = patch.New(popts...)
	return rt
}

// Define registers an immutable definition.
func (rt *Runtime) Define(name string, render RenderFunc, cfg Config) *Definition {
	rt.nextDefID++
	if render == nil {
		render = Static("")
	}
	return &Definition{
		id:     rt.nextDefID,
		name:   name,
		render: render,
		config: freeze(cfg),
	}
}

// Markers returns the marker names in use.
func (rt *Runtime) Markers() Markers {
	return rt.markers
}

// Patcher returns the runtime's patcher.
func (rt *Runtime) Patcher() *patch.Patcher {
	return rt.patcher
}

// Logger returns the runtime logger.
func (rt *Runtime) Logger() *slog.Logger {
	return rt.logger
}

// Flush drains the microtask queue when the runtime uses the built-in one.
// It returns the number of tasks that ran.
func (rt *Runtime) Flush() int {
	if m, ok := rt.scheduler.(*Microtasks); ok {
		return m.Flush()
	}
	return 0
}

// Pending returns the number of queued microtasks.
func (rt *Runtime) Pending() int {
	if m, ok := rt.scheduler.(*Microtasks); ok {
		return m.Pending()
	}
	return 0
}

// Mount resolves an instance for def at top level and mounts it on target.
func (rt *Runtime) Mount(target *dom.Node, def *Definition, props Props) (*Instance, error) {
	inst := rt.Invoke(def, props)
	if err := inst.Mount(target, nil); err != nil {
		return nil, err
	}
	return inst, nil
}

// current returns the instance whose render function is executing.
func (rt *Runtime) current() *Instance {
	if len(rt.stack) == 0 {
		return nil
	}
	return rt.stack[len(rt.stack)-1]
}

func (rt *Runtime) push(i *Instance) { rt.stack = append(rt.stack, i) }

func (rt *Runtime) pop() { rt.stack = rt.stack[:len(rt.stack)-1] }

func (rt *Runtime) hookContext(parent context.Context) (context.Context, context.CancelFunc) {
	if rt.hookTimeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, rt.hookTimeout)
}
