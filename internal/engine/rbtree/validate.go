package rbtree

import (
	"errors"
	"fmt"
)

// Validate checks the red-black properties, parent links, cached totals and
// handle registry. Each check is additionally called for every node with its
// payload and its children's payloads so callers can verify their own
// aggregates.
func (t *Tree[V, D]) Validate(checks ...func(self, left, right *D) error) error {
	if t.root == nil {
		return errors.New("rbtree: nil root")
	}
	if t.root.parent != nil {
		return errors.New("rbtree: root has a parent")
	}
	if t.root.red {
		return errors.New("rbtree: root is red")
	}
	if _, err := t.validate(t.root, checks); err != nil {
		return err
	}
	if len(t.nodes) != t.root.totalCount {
		return fmt.Errorf("rbtree: registry holds %d nodes, tree holds %d", len(t.nodes), t.root.totalCount)
	}
	return nil
}

// validate returns the black height of the subtree rooted at n.
func (t *Tree[V, D]) validate(n *node[V, D], checks []func(self, left, right *D) error) (int, error) {
	if n == nil {
		return 1, nil
	}
	if t.nodes[n.id] != n {
		return 0, fmt.Errorf("rbtree: node %d missing from registry", n.id)
	}
	if n.left != nil && n.left.parent != n {
		return 0, fmt.Errorf("rbtree: node %d has a broken left parent link", n.id)
	}
	if n.right != nil && n.right.parent != n {
		return 0, fmt.Errorf("rbtree: node %d has a broken right parent link", n.id)
	}
	if n.red && (isRed(n.left) || isRed(n.right)) {
		return 0, fmt.Errorf("rbtree: red node %d has a red child", n.id)
	}

	lh, err := t.validate(n.left, checks)
	if err != nil {
		return 0, err
	}
	rh, err := t.validate(n.right, checks)
	if err != nil {
		return 0, err
	}
	if lh != rh {
		return 0, fmt.Errorf("rbtree: node %d has black heights %d and %d", n.id, lh, rh)
	}

	value, count := n.value, 1
	var left, right *D
	if n.left != nil {
		value += n.left.totalValue
		count += n.left.totalCount
		left = &n.left.data
	}
	if n.right != nil {
		value += n.right.totalValue
		count += n.right.totalCount
		right = &n.right.data
	}
	if value != n.totalValue {
		return 0, fmt.Errorf("rbtree: node %d total value %v, want %v", n.id, n.totalValue, value)
	}
	if count != n.totalCount {
		return 0, fmt.Errorf("rbtree: node %d total count %d, want %d", n.id, n.totalCount, count)
	}
	for _, check := range checks {
		if err := check(&n.data, left, right); err != nil {
			return 0, fmt.Errorf("rbtree: node %d: %w", n.id, err)
		}
	}

	if n.red {
		return lh, nil
	}
	return lh + 1, nil
}
