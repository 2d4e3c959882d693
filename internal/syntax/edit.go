package syntax

import (
	"fmt"
	"slices"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
)

// Point is a zero-based row and byte column. Rows are separated by LF.
type Point struct {
	Row    uint32
	Column uint32
}

// String returns a human-readable representation of the point.
func (p Point) String() string {
	return fmt.Sprintf("(%d:%d)", p.Row, p.Column)
}

func (p Point) sitter() sitter.Point {
	return sitter.Point{Row: p.Row, Column: p.Column}
}

// Advance returns the point reached after text is written at p.
func (p Point) Advance(text []byte) Point {
	for _, b := range text {
		if b == '\n' {
			p.Row++
			p.Column = 0
		} else {
			p.Column++
		}
	}
	return p
}

// ByteRange is a half-open byte span. The zero value selects the whole
// document.
type ByteRange struct {
	Start uint32
	End   uint32
}

// IsZero reports whether r is the zero value.
func (r ByteRange) IsZero() bool {
	return r.Start == 0 && r.End == 0
}

// Intersects reports whether r and o overlap. An empty range intersects a
// range that contains its position.
func (r ByteRange) Intersects(o ByteRange) bool {
	if r.Start == r.End {
		return r.Start >= o.Start && r.Start <= o.End
	}
	if o.Start == o.End {
		return o.Start >= r.Start && o.Start <= r.End
	}
	return r.Start < o.End && o.Start < r.End
}

// InputEdit describes one contiguous replacement in byte and point terms.
// Old positions refer to the text before the edit, new ones to the text
// after it.
type InputEdit struct {
	StartByte   uint32
	OldEndByte  uint32
	NewEndByte  uint32
	StartPoint  Point
	OldEndPoint Point
	NewEndPoint Point
}

// NewInputEdit builds the edit that replaces [start, oldEnd) with inserted.
// pointAt must resolve offsets against the text before the edit.
func NewInputEdit(start, oldEnd uint32, inserted []byte, pointAt func(uint32) Point) InputEdit {
	sp := pointAt(start)
	return InputEdit{
		StartByte:   start,
		OldEndByte:  oldEnd,
		NewEndByte:  start + uint32(len(inserted)),
		StartPoint:  sp,
		OldEndPoint: pointAt(oldEnd),
		NewEndPoint: sp.Advance(inserted),
	}
}

func (e InputEdit) sitter() sitter.EditInput {
	return sitter.EditInput{
		StartIndex:  e.StartByte,
		OldEndIndex: e.OldEndByte,
		NewEndIndex: e.NewEndByte,
		StartPoint:  e.StartPoint.sitter(),
		OldEndPoint: e.OldEndPoint.sitter(),
		NewEndPoint: e.NewEndPoint.sitter(),
	}
}

func (e InputEdit) validate(newLen int) error {
	if e.OldEndByte < e.StartByte || e.NewEndByte < e.StartByte || int(e.NewEndByte) > newLen {
		return fmt.Errorf("%w: [%d,%d) -> [%d,%d) over %d bytes",
			ErrInvalidEdit, e.StartByte, e.OldEndByte, e.StartByte, e.NewEndByte, newLen)
	}
	return nil
}

// shiftPoint moves a position at or after the old end of e to its place
// after e.
func shiftPoint(p sitter.Point, e sitter.EditInput) sitter.Point {
	if p.Row == e.OldEndPoint.Row {
		return sitter.Point{Row: e.NewEndPoint.Row, Column: e.NewEndPoint.Column + p.Column - e.OldEndPoint.Column}
	}
	return sitter.Point{Row: p.Row - e.OldEndPoint.Row + e.NewEndPoint.Row, Column: p.Column}
}

func shiftByte(b uint32, e sitter.EditInput) uint32 {
	return b - e.OldEndIndex + e.NewEndIndex
}

func shiftRange(r sitter.Range, e sitter.EditInput) sitter.Range {
	return sitter.Range{
		StartByte:  shiftByte(r.StartByte, e),
		EndByte:    shiftByte(r.EndByte, e),
		StartPoint: shiftPoint(r.StartPoint, e),
		EndPoint:   shiftPoint(r.EndPoint, e),
	}
}

// lineStarts returns the offset of every LF-separated row.
func lineStarts(src []byte) []uint32 {
	starts := []uint32{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, uint32(i+1))
		}
	}
	return starts
}

func pointIn(starts []uint32, offset uint32) Point {
	row := sort.Search(len(starts), func(i int) bool { return starts[i] > offset }) - 1
	if row < 0 {
		row = 0
	}
	return Point{Row: uint32(row), Column: offset - starts[row]}
}

// rowSet collects changed rows.
type rowSet map[int]struct{}

func (s rowSet) addSpan(rowOf func(uint32) int, start, end, limit uint32) {
	if s == nil {
		return
	}
	start = min(start, limit)
	end = min(end, limit)
	last := start
	if end > start {
		last = end - 1
	}
	for r, to := rowOf(start), rowOf(last); r <= to; r++ {
		s[r] = struct{}{}
	}
}

func (s rowSet) sorted() []int {
	out := make([]int, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}
