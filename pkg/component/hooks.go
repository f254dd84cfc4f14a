package component

import (
	"context"
	"fmt"
	"sync"
	"time"

	merrors "github.com/vango-dev/morph/internal/errors"
)

// Phase identifies a lifecycle hook queue.
type Phase uint8

const (
	PhaseBeforeMount Phase = iota + 1
	PhaseMount
	PhaseBeforeUnmount
	PhaseUnmount
	PhaseUpdate
	PhaseBeforeRender
)

// String returns the string representation of the Phase.
func (p Phase) String() string {
	switch p {
	case PhaseBeforeMount:
		return "before-mount"
	case PhaseMount:
		return "mount"
	case PhaseBeforeUnmount:
		return "before-unmount"
	case PhaseUnmount:
		return "unmount"
	case PhaseUpdate:
		return "update"
	case PhaseBeforeRender:
		return "before-render"
	default:
		return "unknown"
	}
}

// oneShot reports whether the phase's queue is drained after it runs.
func (p Phase) oneShot() bool {
	return p == PhaseBeforeMount || p == PhaseBeforeUnmount
}

// phases lists every phase in declaration order.
var phases = []Phase{
	PhaseBeforeMount,
	PhaseMount,
	PhaseBeforeUnmount,
	PhaseUnmount,
	PhaseUpdate,
	PhaseBeforeRender,
}

// Hook is a normalized lifecycle callback. Build one with Sync, SyncErr,
// Continuation or Promise.
type Hook struct {
	run func(ctx context.Context, i *Instance) error
}

// Sync wraps a plain synchronous hook.
func Sync(fn func(i *Instance)) Hook {
	return Hook{run: func(_ context.Context, i *Instance) error {
		fn(i)
		return nil
	}}
}

// SyncErr wraps a synchronous hook that can fail.
func SyncErr(fn func(i *Instance) error) Hook {
	return Hook{run: func(_ context.Context, i *Instance) error {
		return fn(i)
	}}
}

// Continuation wraps a hook that signals completion by calling next, possibly
// from another goroutine. Only the first call to next counts.
func Continuation(fn func(i *Instance, next func(error))) Hook {
	return Hook{run: func(ctx context.Context, i *Instance) error {
		done := make(chan error, 1)
		var once sync.Once
		fn(i, func(err error) {
			once.Do(func() { done <- err })
		})
		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			return errHookTimeout
		}
	}}
}

// Promise wraps a hook that returns a channel which yields (or is closed)
// when it settles. A nil channel counts as already settled.
func Promise(fn func(i *Instance) <-chan error) Hook {
	return Hook{run: func(ctx context.Context, i *Instance) error {
		ch := fn(i)
		if ch == nil {
			return nil
		}
		select {
		case err := <-ch:
			return err
		case <-ctx.Done():
			return errHookTimeout
		}
	}}
}

// call runs the hook, converting panics into errors.
func (h Hook) call(ctx context.Context, i *Instance) (err error) {
	if h.run == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h.run(ctx, i)
}

// hookQueues holds the per-phase queues of an instance.
type hookQueues map[Phase][]Hook

func (q hookQueues) add(p Phase, h Hook) {
	q[p] = append(q[p], h)
}

// runHooks executes the phase queue in order. Failures are reported and the
// queue always advances. One-shot queues drop the hooks that ran.
func (i *Instance) runHooks(ctx context.Context, phase Phase) {
	queue := i.hooks[phase]
	if len(queue) == 0 {
		return
	}
	ran := len(queue)
	queue = append([]Hook(nil), queue...)

	for _, h := range queue {
		hctx, cancel := i.rt.hookContext(ctx)
		start := time.Now()
		err := h.call(hctx, i)
		cancel()
		if err != nil {
			i.reportHookFailure(phase, err, time.Since(start))
		}
	}

	if phase.oneShot() {
		i.hooks[phase] = i.hooks[phase][ran:]
	}
}

func (i *Instance) reportHookFailure(phase Phase, err error, took time.Duration) {
	code := "E102"
	if err == errHookTimeout {
		code = "E103"
	}
	me := merrors.New(code).Wrap(err)
	i.rt.logger.Error(me.Message,
		"code", code,
		"phase", phase.String(),
		"definition", i.def.name,
		"instance", i.id,
		"duration", took,
		"error", err,
	)
	i.rt.observer.HookFailed(HookFailure{
		Definition: i.def.name,
		Instance:   i.id,
		Phase:      phase,
		Err:        me,
	})
}

// OnBeforeMount appends a one-shot hook that runs before the next mount.
func (i *Instance) OnBeforeMount(h Hook) { i.hooks.add(PhaseBeforeMount, h) }

// OnMount appends a hook that runs on every transition to mounted content.
func (i *Instance) OnMount(h Hook) { i.hooks.add(PhaseMount, h) }

// OnBeforeUnmount appends a one-shot hook that runs before the next unmount
// or null render.
func (i *Instance) OnBeforeUnmount(h Hook) { i.hooks.add(PhaseBeforeUnmount, h) }

// OnUnmount appends a hook that runs after every unmount or null render.
func (i *Instance) OnUnmount(h Hook) { i.hooks.add(PhaseUnmount, h) }

// OnUpdate appends a hook that runs after every content-to-content render.
// PrevProps holds the properties from before the render.
func (i *Instance) OnUpdate(h Hook) { i.hooks.add(PhaseUpdate, h) }

// OnBeforeRender appends a hook that runs before every render pass.
func (i *Instance) OnBeforeRender(h Hook) { i.hooks.add(PhaseBeforeRender, h) }
