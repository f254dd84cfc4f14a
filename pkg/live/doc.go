// Package live hosts morph components behind a WebSocket.
//
// Every connection gets its own Runtime and document. The root definition
// is mounted into the document's body, the initial markup is pushed to the
// browser, and then the session loops: a client event names a ref and an
// event type, the event is dispatched on the live tree, the runtime's
// microtask queue is flushed, and the resulting markup and mutation log are
// pushed back. The client script replays the mutations and only replaces
// the body when one no longer resolves.
//
//	srv := live.New(app, live.WithMetrics(m), live.WithArchive(store))
//	http.ListenAndServe(":3000", srv.Handler())
package live
