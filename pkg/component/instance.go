package component

import (
	"context"
	"maps"
	"reflect"
	"strings"

	"github.com/vango-dev/morph/pkg/dom"
)

// Status is the lifecycle state of an instance.
type Status uint8

const (
	StatusIdle Status = iota
	StatusMounting
	StatusMounted
	StatusNullRendered
	StatusUnmounting
)

// String returns the string representation of the Status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusMounting:
		return "mounting"
	case StatusMounted:
		return "mounted"
	case StatusNullRendered:
		return "null-rendered"
	case StatusUnmounting:
		return "unmounting"
	default:
		return "unknown"
	}
}

// Instance is a live (or parked) component created from a Definition.
//
// An instance is owned by the goroutine that owns its Runtime. None of its
// methods are safe for concurrent use.
type Instance struct {
	id     uint64
	rt     *Runtime
	def    *Definition
	parent *Instance

	state     any
	props     Props
	prevProps Props

	root         *dom.Node
	ownsRootAttr bool
	status       Status
	lastMarkup   string
	snapshot     *Snapshot

	hooks     hookQueues
	listeners []Listener
	bindings  []func()

	keyBound bool
	lastUsed uint64

	// children is the call-order cache; invoked lists the children called
	// during the current pass, in call order.
	children    map[childSlot]*Instance
	invoked     []*Instance
	orphans     map[uint64]bool
	callCounter int

	renderScheduled bool

	// refs is only populated on top-level instances.
	refs map[string]*dom.Node
}

// ID returns the runtime-unique instance id.
func (i *Instance) ID() uint64 { return i.id }

// Definition returns the definition the instance was cloned from.
func (i *Instance) Definition() *Definition { return i.def }

// Runtime returns the owning runtime.
func (i *Instance) Runtime() *Runtime { return i.rt }

// Parent returns the instance whose render pass created this one, or nil for
// top-level instances.
func (i *Instance) Parent() *Instance { return i.parent }

// State returns the current state.
func (i *Instance) State() any { return i.state }

// Props returns the current properties.
func (i *Instance) Props() Props { return i.props }

// PrevProps returns the properties from before the last render pass.
func (i *Instance) PrevProps() Props { return i.prevProps }

// Root returns the bound root node, or nil when idle.
func (i *Instance) Root() *dom.Node { return i.root }

// Status returns the lifecycle state.
func (i *Instance) Status() Status { return i.status }

// Mounted reports whether the instance has live content in the tree.
func (i *Instance) Mounted() bool { return i.status == StatusMounted }

// KeyBound reports whether the instance is a keyed singleton.
func (i *Instance) KeyBound() bool { return i.keyBound }

// LastMarkup returns the markup produced by the last successful render.
func (i *Instance) LastMarkup() string { return i.lastMarkup }

// HasSnapshot reports whether detached content is held for the instance.
func (i *Instance) HasSnapshot() bool { return i.snapshot != nil }

// Children returns the cached child instances, in the order they were
// called during the last pass.
func (i *Instance) Children() []*Instance {
	return append([]*Instance(nil), i.invoked...)
}

// Listen adds a listener that is bound after every committed render, in
// addition to the definition's configured listeners.
func (i *Instance) Listen(ref, event string, h func(i *Instance, e *Event)) {
	i.listeners = append(i.listeners, Listener{Ref: ref, Event: event, Handler: h})
	if i.status == StatusMounted {
		i.unbindListeners()
		i.bindListeners()
	}
}

// SetState computes the next state and, if it differs from the current one,
// schedules a single deferred render on the runtime's microtask queue.
//
// next may be a func(any) any updater, a State merged onto a State-shaped
// current state, or any other value that replaces the state.
func (i *Instance) SetState(next any) {
	var computed any
	switch v := next.(type) {
	case func(any) any:
		computed = v(i.state)
	case State:
		if cur, ok := i.state.(State); ok {
			merged := maps.Clone(cur)
			if merged == nil {
				merged = make(State, len(v))
			}
			maps.Copy(merged, v)
			computed = merged
		} else {
			computed = maps.Clone(v)
		}
	default:
		computed = next
	}

	if reflect.DeepEqual(computed, i.state) {
		return
	}
	i.state = computed

	if i.renderScheduled {
		return
	}
	i.renderScheduled = true
	i.rt.scheduler.Schedule(func() {
		i.renderScheduled = false
		if !i.bound() {
			return
		}
		i.prevProps = i.props
		i.renderPass(context.Background())
	})
}

// bound reports whether the instance is attached to a root node.
func (i *Instance) bound() bool {
	return i.root != nil && (i.status == StatusMounted || i.status == StatusNullRendered)
}

// live reports whether the instance is bound inside its parent's current
// tree, so that it can re-render in place.
func (i *Instance) live() bool {
	if !i.bound() {
		return false
	}
	if i.parent == nil {
		return true
	}
	return i.parent.root != nil && i.parent.root.Contains(i.root)
}

// push applies props from a repeated invocation.
func (i *Instance) push(props Props) {
	if i.bound() {
		i.Update(props)
		return
	}
	i.props = i.props.merged(props)
}

// top returns the outermost ancestor.
func (i *Instance) top() *Instance {
	for i.parent != nil {
		i = i.parent
	}
	return i
}

func isEmpty(markup string) bool {
	return strings.TrimSpace(markup) == ""
}
