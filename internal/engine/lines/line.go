package lines

import "github.com/dshills/textcore/internal/engine/rbtree"

// LineID identifies a line for as long as it exists. IDs are never reused.
type LineID = rbtree.NodeID

// lineData is the tree payload of a line.
type lineData struct {
	delimiterLength int
	byteCount       int
	height          float64
	explicitHeight  bool

	totalByteCount int
	totalHeight    float64
}

type aggregator struct{}

func (aggregator) Aggregate(self, left, right *lineData) {
	self.totalByteCount = self.byteCount
	self.totalHeight = self.height
	if left != nil {
		self.totalByteCount += left.totalByteCount
		self.totalHeight += left.totalHeight
	}
	if right != nil {
		self.totalByteCount += right.totalByteCount
		self.totalHeight += right.totalHeight
	}
}

type byteMetric struct{}

func (byteMetric) Own(d *lineData) int   { return d.byteCount }
func (byteMetric) Total(d *lineData) int { return d.totalByteCount }

type heightMetric struct{}

func (heightMetric) Own(d *lineData) float64   { return d.height }
func (heightMetric) Total(d *lineData) float64 { return d.totalHeight }

// Line describes one logical line at the time it was read.
type Line struct {
	ID  LineID
	Row int

	// Location is the character offset of the first character.
	Location int
	// TotalLength counts characters including the delimiter.
	TotalLength int
	// DelimiterLength is 0 for the last line, 2 for CRLF and 1 otherwise.
	DelimiterLength int

	ByteLocation int
	ByteCount    int

	YOffset float64
	Height  float64
}

// Length returns the number of characters excluding the delimiter.
func (l Line) Length() int {
	return l.TotalLength - l.DelimiterLength
}

// End returns the character offset just past the delimiter.
func (l Line) End() int {
	return l.Location + l.TotalLength
}

// ByteLength returns the number of bytes excluding the delimiter. Delimiter
// characters are ASCII, so they occupy one byte each.
func (l Line) ByteLength() int {
	return l.ByteCount - l.DelimiterLength
}
