// Package rbtree provides an augmented red-black tree used as the ordered
// index behind the document line table.
//
// Each node carries a scalar value (for example a line length) and the tree
// caches, for every subtree, the sum of those values and the number of nodes.
// This makes it possible to answer "which node contains offset X" and
// "where does node N start" in O(log n) while still supporting insertion and
// removal anywhere in the sequence.
//
// Nodes are linked to each other by pointers and addressed from outside by
// NodeID handles, which the tree resolves through a map. Handles are
// allocated from a monotonically increasing counter and are never reused, so
// a handle held by a caller either resolves to the node it was issued for or
// is reported as unknown. Removing a node with two children relinks its in-order successor
// into its position instead of swapping payloads, which keeps every other
// handle pointing at the same logical entry.
//
// Payload types may carry additional aggregates (byte totals, pixel heights).
// An Aggregator recomputes those after every structural change, and the
// Find/Offset functions answer containment queries over any such field
// through a Metric.
//
// Basic usage:
//
//	t := rbtree.New[int, line](5, line{}, nil)
//	second := t.InsertAfter(t.First(), 3, line{})
//	id := t.NodeContaining(6) // second
//	loc := t.Location(second) // 5
//
// The tree is not safe for concurrent mutation. Violating a precondition,
// such as querying an offset outside [0, TotalValue()] or passing an unknown
// handle, is a programming error and panics.
package rbtree
