package buffer

// Snapshot is a read-only copy of a buffer at a specific revision. It is
// safe for concurrent access and does not change when the buffer does.
type Snapshot struct {
	data       []byte
	revisionID RevisionID
}

// Bytes returns the snapshot content. The slice must not be modified.
func (s *Snapshot) Bytes() []byte {
	return s.data
}

// Text returns the snapshot content as a string.
func (s *Snapshot) Text() string {
	return string(s.data)
}

// TextRange returns the text in [start, end), clamped to the snapshot.
func (s *Snapshot) TextRange(start, end ByteOffset) string {
	start = max(0, min(start, len(s.data)))
	end = max(start, min(end, len(s.data)))
	return string(s.data[start:end])
}

// Len returns the total byte length of the snapshot.
func (s *Snapshot) Len() int {
	return len(s.data)
}

// ByteAt returns the byte at the given offset.
func (s *Snapshot) ByteAt(offset ByteOffset) byte {
	return s.data[offset]
}

// RevisionID returns the revision ID of this snapshot.
func (s *Snapshot) RevisionID() RevisionID {
	return s.revisionID
}
