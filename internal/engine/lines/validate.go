package lines

import (
	"errors"
	"fmt"
	"math"

	"github.com/dshills/textcore/internal/engine/rbtree"
)

// Validate checks the tree invariants and compares every line against a
// fresh scan of the source.
func (x *Index) Validate() error {
	err := x.tree.Validate(func(self, left, right *lineData) error {
		bytes, height := self.byteCount, self.height
		if left != nil {
			bytes += left.totalByteCount
			height += left.totalHeight
		}
		if right != nil {
			bytes += right.totalByteCount
			height += right.totalHeight
		}
		if bytes != self.totalByteCount {
			return fmt.Errorf("byte total %d, want %d", self.totalByteCount, bytes)
		}
		if math.Abs(height-self.totalHeight) > 1e-6 {
			return fmt.Errorf("height total %v, want %v", self.totalHeight, height)
		}
		return nil
	})
	if err != nil {
		return err
	}

	want := scanLines(sourceBytes(x.src), 0)
	if len(want) != x.LineCount() {
		return fmt.Errorf("lines: index has %d lines, source has %d", x.LineCount(), len(want))
	}
	var mismatch error
	x.Walk(func(l Line) bool {
		w := want[l.Row]
		if l.TotalLength != w.Value || l.DelimiterLength != w.Data.delimiterLength || l.ByteCount != w.Data.byteCount {
			mismatch = fmt.Errorf("lines: row %d is (len %d, delim %d, bytes %d), want (len %d, delim %d, bytes %d)",
				l.Row, l.TotalLength, l.DelimiterLength, l.ByteCount,
				w.Value, w.Data.delimiterLength, w.Data.byteCount)
			return false
		}
		return true
	})
	if mismatch != nil {
		return mismatch
	}
	if rbtree.Total(x.tree, byteMetric{}) != x.src.Len() {
		return errors.New("lines: byte total differs from source length")
	}
	return nil
}
