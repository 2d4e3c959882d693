package lines

import (
	"errors"
	"fmt"

	"github.com/sourcegraph/go-lsp"

	"github.com/dshills/textcore/internal/engine/rbtree"
)

// ErrPositionOutOfRange is returned when an external position does not lie
// inside the document.
var ErrPositionOutOfRange = errors.New("position out of range")

// Point is a row and a byte column, the coordinate system used by syntax
// trees.
type Point struct {
	Row    int
	Column int
}

// String returns a human-readable representation of the point.
func (p Point) String() string {
	return fmt.Sprintf("(%d:%d)", p.Row, p.Column)
}

// ByteOffset converts a character location to a byte offset. It panics if
// location is outside [0, Length()].
func (x *Index) ByteOffset(location int) int {
	id := x.tree.NodeContaining(location)
	lineByte := rbtree.Offset(x.tree, id, byteMetric{})
	return lineByte + x.measure(lineByte, location-x.tree.Location(id)).bytes
}

// Location converts a byte offset to a character location. It panics if
// offset is outside [0, ByteLength()].
func (x *Index) Location(offset int) int {
	id := rbtree.Find(x.tree, offset, byteMetric{})
	lineByte := rbtree.Offset(x.tree, id, byteMetric{})
	return x.tree.Location(id) + x.unitsBetween(lineByte, offset)
}

// PointAt returns the row and byte column of a byte offset. It panics if
// offset is outside [0, ByteLength()].
func (x *Index) PointAt(offset int) Point {
	id := rbtree.Find(x.tree, offset, byteMetric{})
	return Point{
		Row:    x.tree.Index(id),
		Column: offset - rbtree.Offset(x.tree, id, byteMetric{}),
	}
}

// LSPPosition converts a character location to an LSP position. LSP
// character offsets are UTF-16 code units, the same unit the index uses.
func (x *Index) LSPPosition(location int) lsp.Position {
	id := x.tree.NodeContaining(location)
	return lsp.Position{
		Line:      x.tree.Index(id),
		Character: location - x.tree.Location(id),
	}
}

// LSPRange converts a character range to an LSP range.
func (x *Index) LSPRange(location, length int) lsp.Range {
	return lsp.Range{
		Start: x.LSPPosition(location),
		End:   x.LSPPosition(location + length),
	}
}

// LocationForLSP converts an LSP position to a character location. A
// character offset past the end of the line clamps to the line's end, as
// LSP requires.
func (x *Index) LocationForLSP(pos lsp.Position) (int, error) {
	if pos.Line < 0 || pos.Line >= x.LineCount() || pos.Character < 0 {
		return 0, fmt.Errorf("%w: %d:%d", ErrPositionOutOfRange, pos.Line, pos.Character)
	}
	l := x.LineAtRow(pos.Line)
	return l.Location + min(pos.Character, l.Length()), nil
}
