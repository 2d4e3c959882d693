package rbtree

import "fmt"

// NodeContaining returns the node whose value span contains offset.
// An offset equal to the end of a node belongs to the following node; an
// offset equal to TotalValue() returns the last node.
func (t *Tree[V, D]) NodeContaining(offset V) NodeID {
	if offset < 0 || offset > t.root.totalValue {
		panic(fmt.Sprintf("rbtree: offset %v outside [0, %v]", offset, t.root.totalValue))
	}
	n := t.root
	for {
		if n.left != nil {
			if offset < n.left.totalValue {
				n = n.left
				continue
			}
			offset -= n.left.totalValue
		}
		if offset < n.value || n.right == nil {
			return n.id
		}
		offset -= n.value
		n = n.right
	}
}

// Location returns the sum of the values of all nodes before id.
func (t *Tree[V, D]) Location(id NodeID) V {
	n := t.node(id)
	var loc V
	if n.left != nil {
		loc = n.left.totalValue
	}
	for ; n.parent != nil; n = n.parent {
		if n == n.parent.right {
			loc += n.parent.value
			if n.parent.left != nil {
				loc += n.parent.left.totalValue
			}
		}
	}
	return loc
}

// Index returns the zero-based in-order position of id.
func (t *Tree[V, D]) Index(id NodeID) int {
	n := t.node(id)
	idx := 0
	if n.left != nil {
		idx = n.left.totalCount
	}
	for ; n.parent != nil; n = n.parent {
		if n == n.parent.right {
			idx++
			if n.parent.left != nil {
				idx += n.parent.left.totalCount
			}
		}
	}
	return idx
}

// NodeAtIndex returns the node at zero-based in-order position i.
func (t *Tree[V, D]) NodeAtIndex(i int) NodeID {
	if i < 0 || i >= t.root.totalCount {
		panic(fmt.Sprintf("rbtree: index %d outside [0, %d)", i, t.root.totalCount))
	}
	n := t.root
	for {
		if n.left != nil {
			if i < n.left.totalCount {
				n = n.left
				continue
			}
			i -= n.left.totalCount
		}
		if i == 0 {
			return n.id
		}
		i--
		n = n.right
	}
}

// Metric exposes a payload aggregate to the generic Find and Offset queries.
// Own is the node's contribution and Total the cached sum over its subtree.
type Metric[D any, S Value] interface {
	Own(d *D) S
	Total(d *D) S
}

// Find is NodeContaining over the aggregate described by m.
func Find[V Value, D any, S Value](t *Tree[V, D], offset S, m Metric[D, S]) NodeID {
	total := m.Total(&t.root.data)
	if offset < 0 || offset > total {
		panic(fmt.Sprintf("rbtree: metric offset %v outside [0, %v]", offset, total))
	}
	n := t.root
	for {
		if n.left != nil {
			lt := m.Total(&n.left.data)
			if offset < lt {
				n = n.left
				continue
			}
			offset -= lt
		}
		own := m.Own(&n.data)
		if offset < own || n.right == nil {
			return n.id
		}
		offset -= own
		n = n.right
	}
}

// Offset is Location over the aggregate described by m.
func Offset[V Value, D any, S Value](t *Tree[V, D], id NodeID, m Metric[D, S]) S {
	n := t.node(id)
	var off S
	if n.left != nil {
		off = m.Total(&n.left.data)
	}
	for ; n.parent != nil; n = n.parent {
		if n == n.parent.right {
			off += m.Own(&n.parent.data)
			if n.parent.left != nil {
				off += m.Total(&n.parent.left.data)
			}
		}
	}
	return off
}

// Total returns the aggregate of m over the whole tree.
func Total[V Value, D any, S Value](t *Tree[V, D], m Metric[D, S]) S {
	return m.Total(&t.root.data)
}
