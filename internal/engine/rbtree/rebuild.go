package rbtree

// Rebuild discards every node and builds a balanced tree from entries in
// O(n). Handles issued before the call become invalid. The returned handles
// are in entry order. entries must not be empty.
func (t *Tree[V, D]) Rebuild(entries []Entry[V, D]) []NodeID {
	if len(entries) == 0 {
		panic("rbtree: rebuild with no entries")
	}
	clear(t.nodes)
	nodes := make([]*node[V, D], len(entries))
	ids := make([]NodeID, len(entries))
	for i, e := range entries {
		n := t.newNode(e.Value, e.Data)
		n.red = false
		nodes[i] = n
		ids[i] = n.id
	}
	t.root = t.build(nodes, 0, len(nodes), treeHeight(len(nodes)))
	t.root.parent = nil
	t.root.red = false
	return ids
}

// treeHeight is the height of a perfectly bisected tree of the given size.
func treeHeight(size int) int {
	if size == 0 {
		return 0
	}
	return treeHeight(size/2) + 1
}

// build links nodes[start:end] by bisection. Nodes on the deepest level are
// coloured red so that every root-to-nil path has the same black count.
func (t *Tree[V, D]) build(nodes []*node[V, D], start, end, height int) *node[V, D] {
	if start == end {
		return nil
	}
	mid := (start + end) / 2
	n := nodes[mid]
	n.left = t.build(nodes, start, mid, height-1)
	n.right = t.build(nodes, mid+1, end, height-1)
	if n.left != nil {
		n.left.parent = n
	}
	if n.right != nil {
		n.right.parent = n
	}
	if height == 1 {
		n.red = true
	}
	t.update(n)
	return n
}
