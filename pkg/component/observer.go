package component

import "time"

// Transition classifies what a committed render did to the live tree.
type Transition uint8

const (
	TransitionMount   Transition = iota + 1 // first content after mount
	TransitionUpdate                        // content -> content, patched
	TransitionNull                          // content -> empty, snapshotted
	TransitionRestore                       // empty -> content, restored
	TransitionEmpty                         // empty -> empty
	TransitionAdopt                         // child bound to a node its parent produced
)

// String returns the string representation of the Transition.
func (t Transition) String() string {
	switch t {
	case TransitionMount:
		return "mount"
	case TransitionUpdate:
		return "update"
	case TransitionNull:
		return "null"
	case TransitionRestore:
		return "restore"
	case TransitionEmpty:
		return "empty"
	case TransitionAdopt:
		return "adopt"
	default:
		return "unknown"
	}
}

// RenderEvent describes one committed render pass.
type RenderEvent struct {
	Definition string
	Instance   uint64
	Transition Transition
	Mutations  int
	Duration   time.Duration
}

// HookFailure describes a hook that failed or timed out.
type HookFailure struct {
	Definition string
	Instance   uint64
	Phase      Phase
	Err        error
}

// Observer receives runtime events. Implementations must be cheap; they run
// inline with the render pass.
type Observer interface {
	Rendered(ev RenderEvent)
	HookFailed(f HookFailure)
	Evicted(definition string, scope string)
}

type nopObserver struct{}

func (nopObserver) Rendered(RenderEvent)   {}
func (nopObserver) HookFailed(HookFailure) {}
func (nopObserver) Evicted(string, string) {}
