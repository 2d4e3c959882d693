package syntax

import sitter "github.com/smacker/go-tree-sitter"

// diff adds the rows of every subtree that differs between the edited old
// tree and the reparsed one. Children are paired by position; once a pair
// differs in type, span or arity both sides are reported whole.
func (m *Mode) diff(a, b *sitter.Node, rows rowSet) {
	limit := uint32(len(m.src))
	switch {
	case a == nil && b == nil:
		return
	case a == nil:
		rows.addSpan(m.rowOf, b.StartByte(), b.EndByte(), limit)
		return
	case b == nil:
		rows.addSpan(m.rowOf, a.StartByte(), a.EndByte(), limit)
		return
	}

	if a.Type() != b.Type() ||
		a.StartByte() != b.StartByte() || a.EndByte() != b.EndByte() ||
		a.ChildCount() != b.ChildCount() {
		rows.addSpan(m.rowOf, a.StartByte(), a.EndByte(), limit)
		rows.addSpan(m.rowOf, b.StartByte(), b.EndByte(), limit)
		return
	}
	if !a.HasChanges() {
		return
	}
	n := int(a.ChildCount())
	if n == 0 {
		rows.addSpan(m.rowOf, b.StartByte(), b.EndByte(), limit)
		return
	}
	for i := 0; i < n; i++ {
		m.diff(a.Child(i), b.Child(i), rows)
	}
}
