// Package archive stores rendered snapshots in S3 or any S3-compatible
// object store.
//
// An Entry is the serialized outcome of a render: the live markup, the
// mutations that produced it and the instance that owned the root. The CLI
// writes one with `morph render --archive`, and the live server writes one
// when a session closes.
package archive
