// Package lines maintains the logical line table of a document.
//
// The table is an augmented red-black tree (package rbtree) with one node
// per line. A node's value is the line's total length in UTF-16 code units,
// delimiter included, and its payload caches the line's byte count and pixel
// height. Because only lengths are stored, an edit touches O(log n) nodes
// instead of renumbering every following line.
//
// # Edits
//
// InsertText and RemoveText are the only mutators. Both are called after the
// backing Source already holds the new text; the index reads bytes back out
// of it to measure lines and to classify delimiters. Each returns a
// ChangeSet naming the lines that were inserted, removed or edited.
//
// Line delimiters are LF, CR and CRLF. A CRLF pair is always kept in a single
// line: inserting between CR and LF splits the pair across two lines, and an
// LF that ends up directly after a line ending in CR is folded back into
// that line.
//
// # Queries
//
// Lines can be located by character offset, byte offset, vertical pixel
// offset or row, all in O(log n). Character offsets are UTF-16 code units so
// that they agree with LSP positions.
package lines
