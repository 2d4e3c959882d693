package rbtree

// InsertAfter inserts a new node immediately after existing in order and
// returns its handle.
func (t *Tree[V, D]) InsertAfter(existing NodeID, value V, data D) NodeID {
	at := t.node(existing)
	n := t.newNode(value, data)
	if at.right == nil {
		t.attachRight(at, n)
	} else {
		t.attachLeft(leftmost(at.right), n)
	}
	return n.id
}

// InsertBefore inserts a new node immediately before existing in order and
// returns its handle.
func (t *Tree[V, D]) InsertBefore(existing NodeID, value V, data D) NodeID {
	at := t.node(existing)
	n := t.newNode(value, data)
	if at.left == nil {
		t.attachLeft(at, n)
	} else {
		t.attachRight(rightmost(at.left), n)
	}
	return n.id
}

func (t *Tree[V, D]) attachLeft(parent, n *node[V, D]) {
	parent.left = n
	n.parent = parent
	t.updateToRoot(n)
	t.fixInsert(n)
}

func (t *Tree[V, D]) attachRight(parent, n *node[V, D]) {
	parent.right = n
	n.parent = parent
	t.updateToRoot(n)
	t.fixInsert(n)
}

// Remove deletes the node. The last remaining node cannot be removed.
func (t *Tree[V, D]) Remove(id NodeID) {
	n := t.node(id)
	if t.root == n && n.left == nil && n.right == nil {
		panic("rbtree: cannot remove the only node")
	}
	t.remove(n)
	delete(t.nodes, id)
	n.parent, n.left, n.right = nil, nil, nil
}

func (t *Tree[V, D]) remove(n *node[V, D]) {
	if n.left != nil && n.right != nil {
		// Unlink the successor first, then move it into n's slot so that
		// no payload changes owner.
		succ := leftmost(n.right)
		t.remove(succ)
		t.replace(n, succ)
		succ.left = n.left
		if succ.left != nil {
			succ.left.parent = succ
		}
		succ.right = n.right
		if succ.right != nil {
			succ.right.parent = succ
		}
		succ.red = n.red
		t.updateToRoot(succ)
		return
	}

	parent := n.parent
	child := n.left
	if child == nil {
		child = n.right
	}
	t.replace(n, child)
	if parent != nil {
		t.updateToRoot(parent)
	}
	if !n.red {
		if isRed(child) {
			child.red = false
		} else {
			t.fixRemove(child, parent)
		}
	}
}

// replace puts with in old's position under old's parent.
func (t *Tree[V, D]) replace(old, with *node[V, D]) {
	switch {
	case old.parent == nil:
		t.root = with
	case old.parent.left == old:
		old.parent.left = with
	default:
		old.parent.right = with
	}
	if with != nil {
		with.parent = old.parent
	}
	old.parent = nil
}

func isRed[V Value, D any](n *node[V, D]) bool {
	return n != nil && n.red
}

func sibling[V Value, D any](n, parent *node[V, D]) *node[V, D] {
	if n == parent.left {
		return parent.right
	}
	return parent.left
}

func (t *Tree[V, D]) fixInsert(n *node[V, D]) {
	parent := n.parent
	if parent == nil {
		n.red = false
		return
	}
	if !parent.red {
		return
	}
	grand := parent.parent
	if grand == nil {
		parent.red = false
		return
	}
	uncle := sibling(parent, grand)
	if isRed(uncle) {
		parent.red = false
		uncle.red = false
		grand.red = true
		t.fixInsert(grand)
		return
	}
	if n == parent.right && parent == grand.left {
		t.rotateLeft(parent)
		n = n.left
	} else if n == parent.left && parent == grand.right {
		t.rotateRight(parent)
		n = n.right
	}
	parent = n.parent
	grand = parent.parent
	parent.red = false
	grand.red = true
	if n == parent.left && parent == grand.left {
		t.rotateRight(grand)
	} else {
		t.rotateLeft(grand)
	}
}

// fixRemove restores the black height after a black node was unlinked.
// n may be nil; parent is the node that lost a black descendant.
func (t *Tree[V, D]) fixRemove(n, parent *node[V, D]) {
	if parent == nil {
		return
	}
	sib := sibling(n, parent)
	if sib.red {
		parent.red = true
		sib.red = false
		if n == parent.left {
			t.rotateLeft(parent)
		} else {
			t.rotateRight(parent)
		}
		sib = sibling(n, parent)
	}
	if !parent.red && !sib.red && !isRed(sib.left) && !isRed(sib.right) {
		sib.red = true
		t.fixRemove(parent, parent.parent)
		return
	}
	if parent.red && !sib.red && !isRed(sib.left) && !isRed(sib.right) {
		sib.red = true
		parent.red = false
		return
	}
	if n == parent.left && !sib.red && isRed(sib.left) && !isRed(sib.right) {
		sib.red = true
		sib.left.red = false
		t.rotateRight(sib)
	} else if n == parent.right && !sib.red && isRed(sib.right) && !isRed(sib.left) {
		sib.red = true
		sib.right.red = false
		t.rotateLeft(sib)
	}
	sib = sibling(n, parent)
	sib.red = parent.red
	parent.red = false
	if n == parent.left {
		if sib.right != nil {
			sib.right.red = false
		}
		t.rotateLeft(parent)
	} else {
		if sib.left != nil {
			sib.left.red = false
		}
		t.rotateRight(parent)
	}
}

//	  p              q
//	 / \            / \
//	a   q    =>    p   c
//	   / \        / \
//	  b   c      a   b
func (t *Tree[V, D]) rotateLeft(p *node[V, D]) {
	q := p.right
	t.replace(p, q)
	p.right = q.left
	if p.right != nil {
		p.right.parent = p
	}
	q.left = p
	p.parent = q
	t.update(p)
	t.update(q)
}

func (t *Tree[V, D]) rotateRight(p *node[V, D]) {
	q := p.left
	t.replace(p, q)
	p.left = q.right
	if p.left != nil {
		p.left.parent = p
	}
	q.right = p
	p.parent = q
	t.update(p)
	t.update(q)
}
