// Package dom provides the live element tree that morph reconciles against.
//
// A Node is either an element (tag, ordered attributes, children) or a text
// node. Nodes form a mutable tree with parent links; every structural change
// goes through methods on Node so the links stay consistent.
//
// # Host Capability
//
// The reconciler only relies on a narrow set of operations:
//
//   - create nodes (NewElement, NewText, Clone)
//   - read and write attributes (Attr, SetAttr, RemoveAttr)
//   - read and write text (Data, SetData)
//   - insert and remove children (InsertBefore, AppendChild, RemoveChild)
//   - query descendants by a marker attribute (QueryAttr, FindAttr)
//
// # Markup
//
// ParseFragment turns a markup string into detached nodes using the HTML5
// parsing algorithm from golang.org/x/net/html. Render and InnerHTML turn a
// tree back into markup.
//
// # Connectivity
//
// A node is connected when its root is a document created with NewDocument.
// Caches that hold on to nodes across renders use IsConnected and Contains to
// detect entries that went stale.
package dom
