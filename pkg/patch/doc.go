// Package patch reconciles a live dom tree against new markup.
//
// Patch parses the markup into detached nodes and mutates the container's
// children in place until they match, preserving node identity wherever it
// is legitimate to do so:
//
//	p := patch.New()
//	p.Patch(list, `<li data-key="2">Two</li><li data-key="1">One</li>`)
//
// # Matching
//
// Children carrying the key marker (data-key by default) are matched by key
// regardless of position and relocated with a single move. Everything else
// is matched purely by position: an unkeyed old node at the cursor is
// patched in place when category and tag agree, otherwise a clone of the new
// node is inserted at the cursor and the old node is displaced forward.
// There is no longest-common-subsequence pass and no move detection for
// unkeyed nodes.
//
// # Boundaries
//
// Nodes carrying the component-root marker (data-component-root by default)
// belong to a nested, independently-owned instance. An ancestor's patch never
// removes, replaces, or descends into them. A keyed boundary only follows
// its key when the new node names the same boundary; the owner drops stale
// boundaries itself with Remove.
//
// # Mutation Log
//
// Every mutation is reported to an optional Observer as a Mutation record,
// with the target addressed by its child-index path from the container at
// the time the mutation happened. Root carries the container's boundary
// value when it has one. Apply replays a log against a copy of the tree.
package patch
