package lines

import (
	"fmt"

	"github.com/dshills/textcore/internal/engine/rbtree"
)

// DefaultLineHeight is the height given to lines when no option sets one.
const DefaultLineHeight = 16.0

// Source is the byte store the index measures lines against.
// *buffer.Buffer satisfies it.
type Source interface {
	Len() int
	ByteAt(offset int) byte
}

// Index is the line table of a document. It is not safe for concurrent
// mutation.
type Index struct {
	src           Source
	tree          *rbtree.Tree[int, lineData]
	defaultHeight float64
}

// Option configures an Index.
type Option func(*Index)

// WithDefaultHeight sets the height of lines that have no explicit height.
func WithDefaultHeight(h float64) Option {
	return func(x *Index) {
		if h >= 0 {
			x.defaultHeight = h
		}
	}
}

// New builds an index over the current content of src.
func New(src Source, opts ...Option) *Index {
	x := &Index{
		src:           src,
		defaultHeight: DefaultLineHeight,
	}
	for _, opt := range opts {
		opt(x)
	}
	x.tree = rbtree.New[int, lineData](0, lineData{height: x.defaultHeight}, aggregator{})
	x.Rebuild()
	return x
}

// Rebuild discards the current table and rescans the whole source in O(n).
// Every previous line is reported removed and every new line inserted.
func (x *Index) Rebuild() *ChangeSet {
	cs := NewChangeSet()
	x.tree.Walk(func(id LineID, _ int, _ *lineData) bool {
		cs.MarkRemoved(id)
		return true
	})
	ids := x.tree.Rebuild(scanLines(sourceBytes(x.src), x.defaultHeight))
	for _, id := range ids {
		cs.MarkInserted(id)
	}
	cs.Rebuilt = true
	return cs
}

func sourceBytes(src Source) []byte {
	if b, ok := src.(interface{ Bytes() []byte }); ok {
		return b.Bytes()
	}
	data := make([]byte, src.Len())
	for i := range data {
		data[i] = src.ByteAt(i)
	}
	return data
}

// LineCount returns the number of lines. It is always at least 1.
func (x *Index) LineCount() int {
	return x.tree.Count()
}

// Length returns the document length in characters.
func (x *Index) Length() int {
	return x.tree.TotalValue()
}

// ByteLength returns the document length in bytes.
func (x *Index) ByteLength() int {
	return rbtree.Total(x.tree, byteMetric{})
}

// ContentHeight returns the sum of all line heights.
func (x *Index) ContentHeight() float64 {
	return rbtree.Total(x.tree, heightMetric{})
}

// Has reports whether id names a current line.
func (x *Index) Has(id LineID) bool {
	return x.tree.Has(id)
}

// Line returns the current description of a line. It panics if id is not a
// current line.
func (x *Index) Line(id LineID) Line {
	d := x.tree.Data(id)
	return Line{
		ID:              id,
		Row:             x.tree.Index(id),
		Location:        x.tree.Location(id),
		TotalLength:     x.tree.Value(id),
		DelimiterLength: d.delimiterLength,
		ByteLocation:    rbtree.Offset(x.tree, id, byteMetric{}),
		ByteCount:       d.byteCount,
		YOffset:         rbtree.Offset(x.tree, id, heightMetric{}),
		Height:          d.height,
	}
}

// LineContainingCharacterAt returns the line containing the character at
// location. A location at the very end of a line's delimiter belongs to the
// next line; Length() itself maps to the last line. It panics if location
// is outside [0, Length()].
func (x *Index) LineContainingCharacterAt(location int) Line {
	return x.Line(x.tree.NodeContaining(location))
}

// LineAtByteOffset returns the line containing the byte at offset. It panics
// if offset is outside [0, ByteLength()].
func (x *Index) LineAtByteOffset(offset int) Line {
	return x.Line(rbtree.Find(x.tree, offset, byteMetric{}))
}

// LineAtYOffset returns the line displayed at vertical offset y. Offsets
// outside the content are clamped to the first or last line.
func (x *Index) LineAtYOffset(y float64) Line {
	total := x.ContentHeight()
	y = max(0, min(y, total))
	return x.Line(rbtree.Find(x.tree, y, heightMetric{}))
}

// LineAtRow returns the line at zero-based row. It panics if row is outside
// [0, LineCount()).
func (x *Index) LineAtRow(row int) Line {
	return x.Line(x.tree.NodeAtIndex(row))
}

// FirstLine returns the first line.
func (x *Index) FirstLine() Line {
	return x.Line(x.tree.First())
}

// LastLine returns the last line.
func (x *Index) LastLine() Line {
	return x.Line(x.tree.Last())
}

// Walk calls fn for each line in order until fn returns false.
func (x *Index) Walk(fn func(Line) bool) {
	var prev Line
	row := 0
	x.tree.Walk(func(id LineID, value int, d *lineData) bool {
		l := Line{
			ID:              id,
			Row:             row,
			Location:        prev.Location + prev.TotalLength,
			TotalLength:     value,
			DelimiterLength: d.delimiterLength,
			ByteLocation:    prev.ByteLocation + prev.ByteCount,
			ByteCount:       d.byteCount,
			YOffset:         prev.YOffset + prev.Height,
			Height:          d.height,
		}
		row++
		prev = l
		return fn(l)
	})
}

// SetLineHeight sets an explicit height for a line. Explicit heights are
// kept when the default height changes.
func (x *Index) SetLineHeight(id LineID, h float64) {
	if h < 0 {
		panic(fmt.Sprintf("lines: negative height %v", h))
	}
	d := x.tree.Data(id)
	d.height = h
	d.explicitHeight = true
	x.tree.Update(id)
}

// DefaultHeight returns the height of lines without an explicit height.
func (x *Index) DefaultHeight() float64 {
	return x.defaultHeight
}

// SetDefaultHeight changes the height of every line that has no explicit
// height.
func (x *Index) SetDefaultHeight(h float64) {
	if h < 0 {
		panic(fmt.Sprintf("lines: negative height %v", h))
	}
	x.defaultHeight = h
	x.tree.Walk(func(_ LineID, _ int, d *lineData) bool {
		if !d.explicitHeight {
			d.height = h
		}
		return true
	})
	x.tree.UpdateAll()
}
