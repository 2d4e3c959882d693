package syntax

// Snapshot is an immutable copy of a Mode's layers and text. It shares
// compiled queries with the Mode but owns its trees, so it can be read on
// another goroutine while the Mode keeps changing. A single Snapshot must
// not be read by several goroutines at once; use Copy for that.
type Snapshot struct {
	forest
}

// Copy returns an independent copy of s.
func (s *Snapshot) Copy() *Snapshot {
	return &Snapshot{forest: *s.clone()}
}

// Len is the length of the snapshot text in bytes.
func (s *Snapshot) Len() int {
	return len(s.src)
}

// Close releases the copied trees.
func (s *Snapshot) Close() {
	for id, l := range s.layers {
		l.close()
		delete(s.layers, id)
	}
}
