package lines

import (
	"math/rand"
	"strings"
	"testing"
	"testing/quick"
	"unicode/utf8"

	"github.com/sourcegraph/go-lsp"

	"github.com/dshills/textcore/internal/engine/buffer"
)

// doc keeps a buffer and its index in step the way the engine does: the
// buffer is edited first, then the index is told about it.
type doc struct {
	buf *buffer.Buffer
	idx *Index
}

func newDoc(text string, opts ...Option) *doc {
	buf := buffer.NewBufferFromString(text)
	return &doc{buf: buf, idx: New(buf, opts...)}
}

func (d *doc) insert(t *testing.T, location int, text string) *ChangeSet {
	t.Helper()
	if _, err := d.buf.Insert(d.idx.ByteOffset(location), text); err != nil {
		t.Fatalf("buffer insert: %v", err)
	}
	return d.idx.InsertText(text, location)
}

func (d *doc) remove(t *testing.T, location, length int) *ChangeSet {
	t.Helper()
	start := d.idx.ByteOffset(location)
	end := d.idx.ByteOffset(location + length)
	if err := d.buf.Delete(start, end); err != nil {
		t.Fatalf("buffer delete: %v", err)
	}
	return d.idx.RemoveText(location, length)
}

func (d *doc) validate(t *testing.T) {
	t.Helper()
	if err := d.idx.Validate(); err != nil {
		t.Fatalf("text %q: %v", d.buf.Text(), err)
	}
}

type lineShape struct {
	total, delim int
}

func shapes(x *Index) []lineShape {
	var out []lineShape
	x.Walk(func(l Line) bool {
		out = append(out, lineShape{l.TotalLength, l.DelimiterLength})
		return true
	})
	return out
}

func assertShapes(t *testing.T, x *Index, want ...lineShape) {
	t.Helper()
	got := shapes(x)
	if len(got) != len(want) {
		t.Fatalf("got %d lines %v, want %d lines %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d: got %v, want %v (all: %v)", i, got[i], want[i], got)
		}
	}
}

func terminatorCount(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\r':
			n++
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
		case '\n':
			n++
		}
	}
	return n
}

func TestNewIndex(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []lineShape
	}{
		{"empty", "", []lineShape{{0, 0}}},
		{"single", "abc", []lineShape{{3, 0}}},
		{"trailing lf", "abc\n", []lineShape{{4, 1}, {0, 0}}},
		{"crlf", "a\r\nb", []lineShape{{3, 2}, {1, 0}}},
		{"mixed", "a\rb\nc\r\n", []lineShape{{2, 1}, {2, 1}, {3, 2}, {0, 0}}},
		{"blank lines", "\n\n", []lineShape{{1, 1}, {1, 1}, {0, 0}}},
		{"cr cr lf", "\r\r\n", []lineShape{{1, 1}, {2, 2}, {0, 0}}},
		{"surrogates", "🎉\n日", []lineShape{{3, 1}, {1, 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDoc(tt.text)
			d.validate(t)
			assertShapes(t, d.idx, tt.want...)
			if d.idx.LineCount() != 1+terminatorCount(tt.text) {
				t.Errorf("line count: got %d, want %d", d.idx.LineCount(), 1+terminatorCount(tt.text))
			}
		})
	}
}

func TestInsertLFAfterCRMerges(t *testing.T) {
	d := newDoc("a\r")
	before := d.idx.LineCount()

	d.insert(t, 2, "\n")
	d.validate(t)

	assertShapes(t, d.idx, lineShape{3, 2}, lineShape{0, 0})
	if d.idx.LineCount() != before {
		t.Errorf("line count changed: got %d, want %d", d.idx.LineCount(), before)
	}
}

func TestInsertBetweenCRAndLF(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []lineShape
	}{
		{"plain", "X", []lineShape{{2, 1}, {2, 1}, {1, 0}}},
		{"lf", "\n", []lineShape{{3, 2}, {1, 1}, {1, 0}}},
		{"cr", "\r", []lineShape{{2, 1}, {2, 2}, {1, 0}}},
		{"multi", "x\ny", []lineShape{{2, 1}, {2, 1}, {2, 1}, {1, 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDoc("a\r\nb")
			d.insert(t, 2, tt.text)
			d.validate(t)
			assertShapes(t, d.idx, tt.want...)
		})
	}
}

func TestRemoveInsideCRLF(t *testing.T) {
	d := newDoc("a\r\nb")
	cs := d.remove(t, 2, 1)
	d.validate(t)

	assertShapes(t, d.idx, lineShape{2, 1}, lineShape{1, 0})
	if len(cs.Removed()) != 0 || len(cs.Inserted()) != 0 {
		t.Errorf("unexpected structural change: removed %v inserted %v", cs.Removed(), cs.Inserted())
	}
}

func TestRemoveInsideCRLFJoinsFollowingLF(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		location int
		length   int
		want     []lineShape
	}{
		{"lone LF after", "\r\n\n", 1, 1, []lineShape{{2, 2}, {0, 0}}},
		{"text before", "a\r\n\nb", 2, 1, []lineShape{{3, 2}, {1, 0}}},
		{"into next line", "\r\nx\n", 1, 2, []lineShape{{2, 2}, {0, 0}}},
		{"across lines", "\r\nab\n\n", 1, 4, []lineShape{{2, 2}, {0, 0}}},
		{"next line kept", "\r\n\r\n", 1, 1, []lineShape{{1, 1}, {2, 2}, {0, 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDoc(tt.text)
			second := d.idx.LineAtRow(1).ID
			cs := d.remove(t, tt.location, tt.length)
			d.validate(t)

			assertShapes(t, d.idx, tt.want...)
			if d.idx.LineCount() != 1+terminatorCount(d.buf.Text()) {
				t.Errorf("line count %d for %q", d.idx.LineCount(), d.buf.Text())
			}
			if len(tt.want) < 3 && !cs.IsRemoved(second) {
				t.Errorf("line %d should be reported removed", second)
			}
		})
	}
}

func TestRemoveJoinsCRAndLF(t *testing.T) {
	d := newDoc("a\rX\nb")
	first := d.idx.FirstLine().ID
	second := d.idx.LineAtRow(1).ID

	cs := d.remove(t, 2, 1)
	d.validate(t)

	assertShapes(t, d.idx, lineShape{3, 2}, lineShape{1, 0})
	if !cs.IsRemoved(second) {
		t.Error("lone LF line should be reported removed")
	}
	if !cs.IsEdited(first) {
		t.Error("CR line should be reported edited")
	}
}

func TestInsertMultipleLines(t *testing.T) {
	d := newDoc("hello world")
	first := d.idx.FirstLine().ID

	cs := d.insert(t, 5, "\none\ntwo\n")
	d.validate(t)

	assertShapes(t, d.idx, lineShape{6, 1}, lineShape{4, 1}, lineShape{4, 1}, lineShape{6, 0})
	if got := len(cs.Inserted()); got != 3 {
		t.Errorf("inserted: got %d, want 3", got)
	}
	if !cs.IsEdited(first) {
		t.Error("first line should be edited")
	}
	for _, id := range cs.Inserted() {
		if cs.IsEdited(id) {
			t.Errorf("inserted line %d also reported edited", id)
		}
	}
}

func TestRemoveAcrossLines(t *testing.T) {
	d := newDoc("one\ntwo\nthree\nfour")
	rows := []LineID{
		d.idx.LineAtRow(0).ID,
		d.idx.LineAtRow(1).ID,
		d.idx.LineAtRow(2).ID,
		d.idx.LineAtRow(3).ID,
	}

	// "e\ntwo\nt" -> "onhree\nfour"
	cs := d.remove(t, 2, 7)
	d.validate(t)

	if d.buf.Text() != "onhree\nfour" {
		t.Fatalf("buffer: got %q", d.buf.Text())
	}
	assertShapes(t, d.idx, lineShape{7, 1}, lineShape{4, 0})
	if got := cs.Removed(); len(got) != 2 || got[0] != rows[1] || got[1] != rows[2] {
		t.Errorf("removed: got %v, want %v", got, rows[1:3])
	}
	if !cs.IsEdited(rows[0]) || cs.IsEdited(rows[3]) {
		t.Errorf("edited: got %v, want [%d]", cs.Edited(), rows[0])
	}
}

func TestRemoveToEndOfDocument(t *testing.T) {
	d := newDoc("abc\ndef")
	d.remove(t, 2, 5)
	d.validate(t)
	assertShapes(t, d.idx, lineShape{2, 0})
}

func TestSplitThenUndoIsIdentity(t *testing.T) {
	texts := []string{"", "abc", "a\r\nb\rc\n", "🎉x\n日本\r", "\r\n\n", "\r\r\n\n\r"}
	inserts := []string{"x", "\n", "\r\n", "a\rb\nc", "\r", "🎉\n", "\n\r"}
	for _, text := range texts {
		for _, s := range inserts {
			length := buffer.UTF16Len(text)
			for loc := 0; loc <= length; loc++ {
				d := newDoc(text)
				if !onBoundary(text, loc) {
					continue
				}
				before := shapes(d.idx)
				d.insert(t, loc, s)
				d.validate(t)
				d.remove(t, loc, buffer.UTF16Len(s))
				d.validate(t)

				after := shapes(d.idx)
				if len(after) != len(before) {
					t.Fatalf("text %q insert %q at %d: got %v, want %v", text, s, loc, after, before)
				}
				for i := range before {
					if after[i] != before[i] {
						t.Fatalf("text %q insert %q at %d: got %v, want %v", text, s, loc, after, before)
					}
				}
			}
		}
	}
}

// onBoundary reports whether the UTF-16 location does not split a
// surrogate pair.
func onBoundary(s string, loc int) bool {
	units := 0
	for _, r := range s {
		if units == loc {
			return true
		}
		if r >= 0x10000 {
			units += 2
		} else {
			units++
		}
	}
	return units == loc
}

var pieces = []string{"a", "bc", "\r", "\n", "\r\n", "日", "🎉", "x\ny", "\r\r\n", "\n\r", "\r\n\n"}

func TestRandomEdits(t *testing.T) {
	f := func(seed int64) bool {
		rng := rand.New(rand.NewSource(seed))
		d := newDoc("")
		model := ""

		for step := 0; step < 120; step++ {
			if len(model) > 0 && rng.Intn(2) == 0 {
				b1 := runeBoundary(model, rng.Intn(len(model)+1))
				if crlf := strings.Index(model, "\r\n"); crlf >= 0 && rng.Intn(3) == 0 {
					// Start the removal between a CR and its LF.
					b1 = crlf + 1
				}
				b2 := runeBoundary(model, b1+rng.Intn(len(model)-b1+1))
				loc := buffer.UTF16Len(model[:b1])
				d.remove(t, loc, buffer.UTF16Len(model[b1:b2]))
				model = model[:b1] + model[b2:]
			} else {
				b := runeBoundary(model, rng.Intn(len(model)+1))
				text := pieces[rng.Intn(len(pieces))]
				d.insert(t, buffer.UTF16Len(model[:b]), text)
				model = model[:b] + text + model[b:]
			}
			if d.buf.Text() != model {
				t.Logf("seed %d step %d: buffer diverged from model", seed, step)
				return false
			}
			if err := d.idx.Validate(); err != nil {
				t.Logf("seed %d step %d text %q: %v", seed, step, model, err)
				return false
			}
			if d.idx.LineCount() != 1+terminatorCount(model) {
				t.Logf("seed %d step %d: line count %d", seed, step, d.idx.LineCount())
				return false
			}
		}
		return true
	}
	if err := quick.Check(f, &quick.Config{MaxCount: 500}); err != nil {
		t.Error(err)
	}
}

// runeBoundary moves b back to the start of the rune containing it.
func runeBoundary(s string, b int) int {
	for b > 0 && b < len(s) && !utf8.RuneStart(s[b]) {
		b--
	}
	return b
}

func TestOffsetConsistency(t *testing.T) {
	text := "first\r\nsecond\rthird\n🎉 fourth\n\nlast"
	d := newDoc(text)
	for loc := 0; loc <= d.idx.Length(); loc++ {
		l := d.idx.LineContainingCharacterAt(loc)
		if loc < l.Location || loc > l.End() {
			t.Fatalf("location %d outside line %+v", loc, l)
		}
		if loc == l.End() && l.Row != d.idx.LineCount()-1 {
			t.Fatalf("location %d at end of non-final line %+v", loc, l)
		}
	}
}

func TestRebuildMatchesIncremental(t *testing.T) {
	d := newDoc("")
	rng := rand.New(rand.NewSource(3))
	model := ""
	for i := 0; i < 300; i++ {
		b := runeBoundary(model, rng.Intn(len(model)+1))
		text := pieces[rng.Intn(len(pieces))]
		d.insert(t, buffer.UTF16Len(model[:b]), text)
		model = model[:b] + text + model[b:]
	}
	incremental := shapes(d.idx)

	cs := d.idx.Rebuild()
	if !cs.Rebuilt {
		t.Error("rebuild change set should be flagged")
	}
	d.validate(t)
	rebuilt := shapes(d.idx)
	if len(rebuilt) != len(incremental) {
		t.Fatalf("line count: rebuilt %d, incremental %d", len(rebuilt), len(incremental))
	}
	for i := range rebuilt {
		if rebuilt[i] != incremental[i] {
			t.Fatalf("line %d: rebuilt %v, incremental %v", i, rebuilt[i], incremental[i])
		}
	}
}

func TestLineQueries(t *testing.T) {
	d := newDoc("ab\n日本\r\n🎉z")
	// bytes: "ab\n" 3, "日本\r\n" 8, "🎉z" 5

	tests := []struct {
		byteOffset int
		row        int
	}{
		{0, 0}, {2, 0}, {3, 1}, {10, 1}, {11, 2}, {16, 2},
	}
	for _, tt := range tests {
		if got := d.idx.LineAtByteOffset(tt.byteOffset).Row; got != tt.row {
			t.Errorf("LineAtByteOffset(%d): got row %d, want %d", tt.byteOffset, got, tt.row)
		}
	}

	l := d.idx.LineAtRow(1)
	if l.Location != 3 || l.TotalLength != 4 || l.ByteLocation != 3 || l.ByteCount != 8 {
		t.Errorf("row 1: got %+v", l)
	}
	if l.Length() != 2 || l.ByteLength() != 6 {
		t.Errorf("row 1 lengths: got %d chars %d bytes", l.Length(), l.ByteLength())
	}

	conversions := []struct {
		location, byteOffset int
	}{
		{0, 0}, {3, 3}, {4, 6}, {5, 9}, {7, 11}, {9, 15}, {10, 16},
	}
	for _, tt := range conversions {
		if got := d.idx.ByteOffset(tt.location); got != tt.byteOffset {
			t.Errorf("ByteOffset(%d): got %d, want %d", tt.location, got, tt.byteOffset)
		}
		if got := d.idx.Location(tt.byteOffset); got != tt.location {
			t.Errorf("Location(%d): got %d, want %d", tt.byteOffset, got, tt.location)
		}
	}

	if got := d.idx.PointAt(9); got != (Point{Row: 1, Column: 6}) {
		t.Errorf("PointAt(9): got %s", got)
	}
	if got := d.idx.PointAt(16); got != (Point{Row: 2, Column: 5}) {
		t.Errorf("PointAt(16): got %s", got)
	}
}

func TestLineAtYOffset(t *testing.T) {
	d := newDoc("a\nb\nc", WithDefaultHeight(10))
	if got := d.idx.ContentHeight(); got != 30 {
		t.Fatalf("content height: got %v, want 30", got)
	}

	tests := []struct {
		y   float64
		row int
	}{
		{-5, 0}, {0, 0}, {9.9, 0}, {10, 1}, {25, 2}, {30, 2}, {100, 2},
	}
	for _, tt := range tests {
		if got := d.idx.LineAtYOffset(tt.y).Row; got != tt.row {
			t.Errorf("LineAtYOffset(%v): got row %d, want %d", tt.y, got, tt.row)
		}
	}

	mid := d.idx.LineAtRow(1).ID
	d.idx.SetLineHeight(mid, 40)
	if got := d.idx.ContentHeight(); got != 60 {
		t.Errorf("content height after SetLineHeight: got %v, want 60", got)
	}
	if got := d.idx.LineAtYOffset(45).Row; got != 1 {
		t.Errorf("LineAtYOffset(45): got row %d, want 1", got)
	}
	if got := d.idx.LineAtRow(2).YOffset; got != 50 {
		t.Errorf("row 2 y offset: got %v, want 50", got)
	}

	d.idx.SetDefaultHeight(20)
	if got := d.idx.ContentHeight(); got != 80 {
		t.Errorf("content height after SetDefaultHeight: got %v, want 80", got)
	}
	d.validate(t)

	d.insert(t, 0, "new\n")
	if got := d.idx.FirstLine().Height; got != 20 {
		t.Errorf("new line height: got %v, want 20", got)
	}
}

func TestLSPPositions(t *testing.T) {
	d := newDoc("x🎉y\nsecond")

	if got := d.idx.LSPPosition(3); got != (lsp.Position{Line: 0, Character: 3}) {
		t.Errorf("LSPPosition(3): got %+v", got)
	}
	if got := d.idx.LSPPosition(7); got != (lsp.Position{Line: 1, Character: 2}) {
		t.Errorf("LSPPosition(7): got %+v", got)
	}
	r := d.idx.LSPRange(1, 5)
	if r.Start != (lsp.Position{Line: 0, Character: 1}) || r.End != (lsp.Position{Line: 1, Character: 1}) {
		t.Errorf("LSPRange: got %+v", r)
	}

	loc, err := d.idx.LocationForLSP(lsp.Position{Line: 0, Character: 99})
	if err != nil || loc != 4 {
		t.Errorf("LocationForLSP clamp: got %d, %v", loc, err)
	}
	if _, err := d.idx.LocationForLSP(lsp.Position{Line: 5}); err == nil {
		t.Error("expected error for row past the end")
	}
}

func TestQueriesPanicOutOfRange(t *testing.T) {
	d := newDoc("abc")
	calls := map[string]func(){
		"character": func() { d.idx.LineContainingCharacterAt(4) },
		"byte":      func() { d.idx.LineAtByteOffset(-1) },
		"row":       func() { d.idx.LineAtRow(1) },
		"remove":    func() { d.idx.RemoveText(2, 5) },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			call()
		})
	}
}

func TestLargeDocument(t *testing.T) {
	text := strings.Repeat("line of text\r\n", 5000)
	d := newDoc(text)
	if d.idx.LineCount() != 5001 {
		t.Fatalf("line count: got %d", d.idx.LineCount())
	}
	d.insert(t, d.idx.LineAtRow(2500).Location, "inserted\n")
	d.validate(t)
	if got := d.idx.LineAtRow(2500).TotalLength; got != 9 {
		t.Errorf("inserted line length: got %d, want 9", got)
	}
}
