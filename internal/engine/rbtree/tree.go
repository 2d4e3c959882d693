package rbtree

import (
	"fmt"
	"iter"
)

// NodeID is a stable handle to a node. The zero value never refers to a node.
type NodeID uint64

// Value is the scalar type summed across subtrees.
type Value interface {
	~int | ~int32 | ~int64 | ~uint32 | ~float64
}

// Aggregator recomputes payload-level aggregates for a node from its own
// payload and the payloads of its children. left and right are nil when the
// child is absent.
type Aggregator[D any] interface {
	Aggregate(self, left, right *D)
}

// AggregatorFunc adapts a function to the Aggregator interface.
type AggregatorFunc[D any] func(self, left, right *D)

// Aggregate calls f(self, left, right).
func (f AggregatorFunc[D]) Aggregate(self, left, right *D) {
	f(self, left, right)
}

type node[V Value, D any] struct {
	id         NodeID
	value      V
	totalValue V
	totalCount int
	red        bool

	parent *node[V, D]
	left   *node[V, D]
	right  *node[V, D]

	data D
}

// Entry is a value/payload pair used to build a tree in one pass.
type Entry[V Value, D any] struct {
	Value V
	Data  D
}

// Tree is an augmented red-black tree. It always contains at least one node.
type Tree[V Value, D any] struct {
	root   *node[V, D]
	nodes  map[NodeID]*node[V, D]
	nextID NodeID
	agg    Aggregator[D]
}

// New creates a tree holding a single node with the given value and payload.
// agg may be nil when the payload carries no aggregates.
func New[V Value, D any](value V, data D, agg Aggregator[D]) *Tree[V, D] {
	t := &Tree[V, D]{
		nodes: make(map[NodeID]*node[V, D]),
		agg:   agg,
	}
	n := t.newNode(value, data)
	n.red = false
	t.update(n)
	t.root = n
	return t
}

func (t *Tree[V, D]) newNode(value V, data D) *node[V, D] {
	t.nextID++
	n := &node[V, D]{
		id:    t.nextID,
		value: value,
		data:  data,
		red:   true,
	}
	t.nodes[n.id] = n
	return n
}

func (t *Tree[V, D]) node(id NodeID) *node[V, D] {
	n, ok := t.nodes[id]
	if !ok {
		panic(fmt.Sprintf("rbtree: unknown node %d", id))
	}
	return n
}

// Has reports whether id refers to a node currently in the tree.
func (t *Tree[V, D]) Has(id NodeID) bool {
	_, ok := t.nodes[id]
	return ok
}

// Count returns the number of nodes.
func (t *Tree[V, D]) Count() int {
	return t.root.totalCount
}

// TotalValue returns the sum of all node values.
func (t *Tree[V, D]) TotalValue() V {
	return t.root.totalValue
}

// Root returns the handle of the root node.
func (t *Tree[V, D]) Root() NodeID {
	return t.root.id
}

// Value returns the node's own value.
func (t *Tree[V, D]) Value(id NodeID) V {
	return t.node(id).value
}

// Data returns a pointer to the node's payload. After changing fields that
// feed an aggregate, call Update.
func (t *Tree[V, D]) Data(id NodeID) *D {
	return &t.node(id).data
}

// SetValue changes the node's value and refreshes the totals above it.
func (t *Tree[V, D]) SetValue(id NodeID, value V) {
	n := t.node(id)
	n.value = value
	t.updateToRoot(n)
}

// Update recomputes the aggregates of the node and all of its ancestors.
func (t *Tree[V, D]) Update(id NodeID) {
	t.updateToRoot(t.node(id))
}

// First returns the leftmost node.
func (t *Tree[V, D]) First() NodeID {
	return leftmost(t.root).id
}

// Last returns the rightmost node.
func (t *Tree[V, D]) Last() NodeID {
	return rightmost(t.root).id
}

// Next returns the in-order successor of id, or 0 if id is the last node.
func (t *Tree[V, D]) Next(id NodeID) NodeID {
	if n := successor(t.node(id)); n != nil {
		return n.id
	}
	return 0
}

// Previous returns the in-order predecessor of id, or 0 if id is the first node.
func (t *Tree[V, D]) Previous(id NodeID) NodeID {
	if n := predecessor(t.node(id)); n != nil {
		return n.id
	}
	return 0
}

// Walk calls fn for each node in order until fn returns false.
func (t *Tree[V, D]) Walk(fn func(id NodeID, value V, data *D) bool) {
	for n := leftmost(t.root); n != nil; n = successor(n) {
		if !fn(n.id, n.value, &n.data) {
			return
		}
	}
}

// All returns an in-order iterator over node handles and values.
func (t *Tree[V, D]) All() iter.Seq2[NodeID, V] {
	return func(yield func(NodeID, V) bool) {
		t.Walk(func(id NodeID, value V, _ *D) bool {
			return yield(id, value)
		})
	}
}

func leftmost[V Value, D any](n *node[V, D]) *node[V, D] {
	for n.left != nil {
		n = n.left
	}
	return n
}

func rightmost[V Value, D any](n *node[V, D]) *node[V, D] {
	for n.right != nil {
		n = n.right
	}
	return n
}

func successor[V Value, D any](n *node[V, D]) *node[V, D] {
	if n.right != nil {
		return leftmost(n.right)
	}
	for n.parent != nil && n == n.parent.right {
		n = n.parent
	}
	return n.parent
}

func predecessor[V Value, D any](n *node[V, D]) *node[V, D] {
	if n.left != nil {
		return rightmost(n.left)
	}
	for n.parent != nil && n == n.parent.left {
		n = n.parent
	}
	return n.parent
}

// update recomputes the cached totals of n from its children.
func (t *Tree[V, D]) update(n *node[V, D]) {
	n.totalValue = n.value
	n.totalCount = 1
	var left, right *D
	if n.left != nil {
		n.totalValue += n.left.totalValue
		n.totalCount += n.left.totalCount
		left = &n.left.data
	}
	if n.right != nil {
		n.totalValue += n.right.totalValue
		n.totalCount += n.right.totalCount
		right = &n.right.data
	}
	if t.agg != nil {
		t.agg.Aggregate(&n.data, left, right)
	}
}

func (t *Tree[V, D]) updateToRoot(n *node[V, D]) {
	for ; n != nil; n = n.parent {
		t.update(n)
	}
}

// UpdateAll recomputes every cached aggregate in O(n). Use it after changing
// the payload of many nodes at once.
func (t *Tree[V, D]) UpdateAll() {
	t.updateSubtree(t.root)
}

func (t *Tree[V, D]) updateSubtree(n *node[V, D]) {
	if n == nil {
		return
	}
	t.updateSubtree(n.left)
	t.updateSubtree(n.right)
	t.update(n)
}
