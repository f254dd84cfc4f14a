// Package component implements morph's instance-identity and lifecycle layer.
//
// A Definition is an immutable template: a render function, its Config and a
// runtime-unique id. An Instance is the mutable unit bound to a live root
// node. The Runtime owns every registry and decides, for each invocation,
// which Instance it denotes.
//
// # Identity
//
// Invoke resolves identity in one of two independent key spaces:
//
//   - Top-level calls (no instance is rendering) with a "key" prop look up a
//     per-definition singleton registry. Without a key a fresh instance is
//     cloned.
//   - Child calls (made while a parent renders, via Instance.Child) are keyed
//     by the explicit key or by the parent's running call counter, which is
//     shared across all child definitions and reset at the start of every
//     pass. Without keys, state follows position, not data.
//
// # Lifecycle
//
//	idle -> mounting -> mounted <-> null-rendered
//	mounted | null-rendered -> unmounting -> idle
//
// Render output is handed to the patch package. A transition to empty output
// snapshots the subtree into the instance's detach store; a later non-empty
// render restores it and runs the mount hooks again.
//
// # Batching
//
// SetState coalesces into a single render scheduled on the runtime's
// microtask queue. Update renders synchronously. The goroutine that owns the
// Runtime drains the queue with Flush after handling each event.
//
// # Hooks
//
// Sync, Continuation and Promise normalize the three hook calling
// conventions into a single Hook value. Queues run strictly in order, and a
// failing or stuck hook is logged and skipped, never fatal.
//
// A Runtime is not safe for concurrent use.
package component
