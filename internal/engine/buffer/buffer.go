package buffer

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// ByteOffset is a byte position in the buffer.
type ByteOffset = int

// Errors returned by buffer operations.
var (
	ErrOffsetOutOfRange = errors.New("offset out of range")
	ErrRangeInvalid     = errors.New("invalid range")
)

const minGap = 64

// Buffer is a gap buffer of UTF-8 bytes.
type Buffer struct {
	mu         sync.RWMutex
	data       []byte
	gapStart   int
	gapEnd     int
	revisionID RevisionID
	lineEnding LineEnding
}

// NewBuffer creates a new empty buffer.
func NewBuffer(opts ...Option) *Buffer {
	b := &Buffer{
		data:       make([]byte, minGap),
		gapEnd:     minGap,
		revisionID: NewRevisionID(),
		lineEnding: LineEndingLF,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewBufferFromString creates a buffer with initial content. The line ending
// style is detected from the content unless an option overrides it.
func NewBufferFromString(s string, opts ...Option) *Buffer {
	b := NewBuffer(append([]Option{WithDetectedLineEnding(s)}, opts...)...)
	b.data = make([]byte, len(s)+minGap)
	copy(b.data, s)
	b.gapStart = len(s)
	b.gapEnd = len(b.data)
	return b
}

// NewBufferFromReader creates a buffer from an io.Reader.
func NewBufferFromReader(r io.Reader, opts ...Option) (*Buffer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read buffer content: %w", err)
	}
	return NewBufferFromString(string(data), opts...), nil
}

func (b *Buffer) gapLen() int {
	return b.gapEnd - b.gapStart
}

func (b *Buffer) length() int {
	return len(b.data) - b.gapLen()
}

// moveGap places the gap so that it starts at logical offset pos.
func (b *Buffer) moveGap(pos int) {
	switch {
	case pos < b.gapStart:
		n := b.gapStart - pos
		copy(b.data[b.gapEnd-n:b.gapEnd], b.data[pos:b.gapStart])
		b.gapStart -= n
		b.gapEnd -= n
	case pos > b.gapStart:
		n := pos - b.gapStart
		copy(b.data[b.gapStart:b.gapStart+n], b.data[b.gapEnd:b.gapEnd+n])
		b.gapStart += n
		b.gapEnd += n
	}
}

// ensureGap grows the backing array so the gap holds at least n bytes.
func (b *Buffer) ensureGap(n int) {
	if b.gapLen() >= n {
		return
	}
	newCap := 2*len(b.data) + n
	if newCap < minGap {
		newCap = minGap
	}
	data := make([]byte, newCap)
	copy(data, b.data[:b.gapStart])
	tail := len(b.data) - b.gapEnd
	copy(data[newCap-tail:], b.data[b.gapEnd:])
	b.gapEnd = newCap - tail
	b.data = data
}

func (b *Buffer) at(i int) byte {
	if i < b.gapStart {
		return b.data[i]
	}
	return b.data[i+b.gapLen()]
}

// appendRange appends the logical bytes [start, end) to dst.
func (b *Buffer) appendRange(dst []byte, start, end int) []byte {
	if start < b.gapStart {
		dst = append(dst, b.data[start:min(end, b.gapStart)]...)
	}
	if end > b.gapStart {
		gl := b.gapLen()
		dst = append(dst, b.data[max(start, b.gapStart)+gl:end+gl]...)
	}
	return dst
}

// Read Operations

// Len returns the total byte length of the buffer.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.length()
}

// IsEmpty returns true if the buffer is empty.
func (b *Buffer) IsEmpty() bool {
	return b.Len() == 0
}

// ByteAt returns the byte at the given offset. It panics if offset is
// outside [0, Len()).
func (b *Buffer) ByteAt(offset ByteOffset) byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if offset < 0 || offset >= b.length() {
		panic(fmt.Sprintf("buffer: byte offset %d outside [0, %d)", offset, b.length()))
	}
	return b.at(offset)
}

// Slice returns a copy of the bytes in [start, end).
func (b *Buffer) Slice(start, end ByteOffset) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if start < 0 || start > end || end > b.length() {
		return nil, ErrRangeInvalid
	}
	return b.appendRange(make([]byte, 0, end-start), start, end), nil
}

// TextRange returns the text in [start, end), or "" for an invalid range.
func (b *Buffer) TextRange(start, end ByteOffset) string {
	s, err := b.Slice(start, end)
	if err != nil {
		return ""
	}
	return string(s)
}

// Bytes returns a copy of the full buffer content.
func (b *Buffer) Bytes() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.appendRange(make([]byte, 0, b.length()), 0, b.length())
}

// Text returns the full buffer content as a string.
func (b *Buffer) Text() string {
	return string(b.Bytes())
}

// Write Operations

// Insert inserts text at the given offset and returns the end offset of the
// inserted text.
func (b *Buffer) Insert(offset ByteOffset, text string) (ByteOffset, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if offset < 0 || offset > b.length() {
		return 0, ErrOffsetOutOfRange
	}
	b.insert(offset, text)
	b.revisionID = NewRevisionID()
	return offset + len(text), nil
}

func (b *Buffer) insert(offset int, text string) {
	if text == "" {
		return
	}
	b.ensureGap(len(text))
	b.moveGap(offset)
	copy(b.data[b.gapStart:], text)
	b.gapStart += len(text)
}

// Delete removes the bytes in [start, end).
func (b *Buffer) Delete(start, end ByteOffset) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if start < 0 || start > end || end > b.length() {
		return ErrRangeInvalid
	}
	b.delete(start, end)
	b.revisionID = NewRevisionID()
	return nil
}

func (b *Buffer) delete(start, end int) {
	if start == end {
		return
	}
	b.moveGap(start)
	b.gapEnd += end - start
}

// Replace replaces [start, end) with text and returns the end offset of the
// replacement.
func (b *Buffer) Replace(start, end ByteOffset, text string) (ByteOffset, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if start < 0 || start > end || end > b.length() {
		return 0, ErrRangeInvalid
	}
	b.delete(start, end)
	b.insert(start, text)
	b.revisionID = NewRevisionID()
	return start + len(text), nil
}

// Buffer State

// RevisionID returns the current revision ID.
func (b *Buffer) RevisionID() RevisionID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.revisionID
}

// LineEnding returns the buffer's preferred line ending style.
func (b *Buffer) LineEnding() LineEnding {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lineEnding
}

// Snapshot returns an immutable copy of the current content.
func (b *Buffer) Snapshot() *Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return &Snapshot{
		data:       b.appendRange(make([]byte, 0, b.length()), 0, b.length()),
		revisionID: b.revisionID,
	}
}
