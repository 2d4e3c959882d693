package lines

import (
	"fmt"

	"github.com/dshills/textcore/internal/engine/buffer"
	"github.com/dshills/textcore/internal/engine/rbtree"
)

// InsertText updates the index for text that has been inserted into the
// source at character location. It panics if location is outside
// [0, Length()].
func (x *Index) InsertText(text string, location int) *ChangeSet {
	cs := NewChangeSet()
	if text == "" {
		return cs
	}

	id := x.tree.NodeContaining(location)
	lineLoc := x.tree.Location(id)
	if location > lineLoc+x.tree.Value(id)-x.tree.Data(id).delimiterLength {
		// Inserting between CR and LF: the CR stays, the LF starts a line.
		id = x.setLength(id, x.tree.Value(id)-1, cs)
		id = x.insertLineAfter(id, 1, cs)
		id = x.setLength(id, 1, cs)
	}

	textLen := buffer.UTF16Len(text)
	lastEnd := 0
	for _, brk := range lineBreaks(text) {
		lineBreak := location + brk
		lineLoc = x.tree.Location(id)
		rest := lineLoc + x.tree.Value(id) - (location + lastEnd)
		id = x.setLength(id, lineBreak-lineLoc, cs)
		id = x.insertLineAfter(id, rest, cs)
		id = x.setLength(id, rest, cs)
		lastEnd = brk
	}
	if lastEnd != textLen {
		x.setLength(id, x.tree.Value(id)+textLen-lastEnd, cs)
	}
	return cs
}

// RemoveText updates the index for length characters that have been removed
// from the source at location. It panics if the range is outside
// [0, Length()].
func (x *Index) RemoveText(location, length int) *ChangeSet {
	if length < 0 || location+length > x.Length() {
		panic(fmt.Sprintf("lines: remove [%d, %d) outside [0, %d]", location, location+length, x.Length()))
	}
	cs := NewChangeSet()
	x.remove(location, length, cs)
	return cs
}

func (x *Index) remove(location, length int, cs *ChangeSet) {
	if length == 0 {
		return
	}
	start := x.tree.NodeContaining(location)
	startLoc := x.tree.Location(start)
	startTotal := x.tree.Value(start)

	if location > startLoc+startTotal-x.tree.Data(start).delimiterLength {
		// Starting between CR and LF: the LF is gone, keep the CR.
		x.setLength(start, startTotal-1, cs)
		x.remove(location, length-1, cs)
		x.joinLoneLF(start, cs)
		return
	}
	if location+length < startLoc+startTotal {
		x.setLength(start, startTotal-length, cs)
		return
	}

	// The start line's delimiter is removed, so it absorbs whatever is left
	// of the line holding the end of the range.
	removedInStart := startLoc + startTotal - location
	end := x.tree.NodeContaining(location + length)
	if end == start {
		x.setLength(start, startTotal-length, cs)
		return
	}
	leftInEnd := x.tree.Location(end) + x.tree.Value(end) - (location + length)
	for next := x.tree.Next(start); ; {
		victim := next
		next = x.tree.Next(victim)
		x.tree.Remove(victim)
		cs.MarkRemoved(victim)
		if victim == end {
			break
		}
	}
	x.setLength(start, startTotal-removedInStart+leftInEnd, cs)
}

// joinLoneLF merges the line after id into it when that line is a lone LF
// and id ends in CR.
func (x *Index) joinLoneLF(id LineID, cs *ChangeSet) {
	next := x.tree.Next(id)
	if next == 0 || x.tree.Value(next) != 1 {
		return
	}
	if x.src.ByteAt(rbtree.Offset(x.tree, next, byteMetric{})) == '\n' {
		x.setLength(next, 1, cs)
	}
}

func (x *Index) insertLineAfter(id LineID, total int, cs *ChangeSet) LineID {
	nid := x.tree.InsertAfter(id, total, lineData{height: x.defaultHeight})
	cs.MarkInserted(nid)
	return nid
}

// setLength gives a line a new total length, re-measures its bytes and
// delimiter from the source and returns the line that now holds the text.
// That is id itself unless the line turned out to be a lone LF following a
// CR, in which case it is merged into the previous line.
func (x *Index) setLength(id LineID, total int, cs *ChangeSet) LineID {
	byteStart := rbtree.Offset(x.tree, id, byteMetric{})
	m := x.measure(byteStart, total)

	delim := 0
	switch {
	case total == 0:
	case m.last == '\r':
		delim = 1
	case m.last == '\n':
		switch {
		case total >= 2 && m.prev == '\r':
			delim = 2
		case total == 1 && byteStart > 0 && x.src.ByteAt(byteStart-1) == '\r':
			prev := x.tree.Previous(id)
			x.tree.Remove(id)
			cs.MarkRemoved(id)
			return x.setLength(prev, x.tree.Value(prev)+1, cs)
		default:
			delim = 1
		}
	}

	d := x.tree.Data(id)
	d.delimiterLength = delim
	d.byteCount = m.bytes
	x.tree.SetValue(id, total)
	cs.MarkEdited(id)
	return id
}
