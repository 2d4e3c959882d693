// Package engine is the document facade of textcore. It keeps three
// structures in step for one document: the raw text buffer, the line index
// and the syntax forest of the document's language and any embedded
// languages.
//
// # Architecture
//
// The engine is built on several sub-packages:
//
//   - buffer: gap buffer holding the UTF-8 text
//   - rbtree: augmented red-black tree, the storage of the line index
//   - lines: line index answering position and height queries in O(log n)
//   - syntax: incremental parse trees with injected language layers
//   - syntax/highlight: capture classification and the background worker
//
// # Edits
//
// Locations and lengths are in characters, counted as UTF-16 code units.
// Every edit updates the buffer and the line index in two phases (removal,
// then insertion), converts the edit to byte offsets and tree points, and
// applies it to the syntax forest. The result lists the lines that were
// inserted, removed or edited and the rows whose highlighting may differ:
//
//	e, _ := engine.New(
//		engine.WithContent("package main\n"),
//		engine.WithLanguage(language.Go()),
//	)
//	defer e.Close()
//
//	res, _ := e.InsertText(ctx, "\nfunc main() {}\n", 13)
//	for _, row := range res.ChangedRows {
//		// re-highlight row
//	}
//
// An insertion that makes up a large share of the document (see
// config.Settings RebuildRatio and RebuildMinBytes) rebuilds the index and
// the forest from scratch instead; the change set is then marked Rebuilt.
//
// # Syntax Queries
//
// Captures and Tokens return highlight captures for a byte range,
// NodeAt finds the innermost node at a row and column, and
// SuggestedIndentLevel computes the indentation a row should have. Without
// a language these report syntax.ErrUnavailable.
//
// # Background Highlighting
//
// SubmitHighlight hands a snapshot of the forest to a worker goroutine.
// Every edit makes running requests stale, and stale results are never
// delivered on HighlightResults.
//
// # Thread Safety
//
// All Engine methods are safe for concurrent use. Text and line reads
// share a read lock; edits and syntax reads are serialized.
package engine
