// Package syntax maintains the incremental parse forest of a document.
//
// A Mode owns one root layer for the document's language and a tree of
// child layers for injected languages, such as a script element inside
// markup. Every layer wraps its own tree-sitter parser and tree. Layers
// live in an arena keyed by LayerID; a child records its parent's ID and
// the parent lists its children in document order.
//
// Edits are applied with ApplyEdit after the text has changed. Each layer
// whose range the edit touches is edited and reparsed incrementally.
// Layers entirely after the edit are left alone and layers entirely before
// it are shifted without reparsing. Injections are then recomputed from the
// parent's injection query: a child whose language and range still match
// a capture survives, anything else is rebuilt. ApplyEdit reports the rows
// whose syntax may have changed.
//
// A Mode is not safe for concurrent use. Snapshot returns an immutable copy
// of the forest that may be read by one other goroutine, typically a
// highlight worker.
package syntax
