package lines

import (
	"testing"
	"unicode/utf8"

	"github.com/dshills/textcore/internal/engine/buffer"
)

// FuzzInsertRemove inserts text into a document, checks the index against a
// fresh scan, then removes the text again.
func FuzzInsertRemove(f *testing.F) {
	f.Add("hello\r\nworld", 3, "\n")
	f.Add("a\r", 2, "\n")
	f.Add("a\r\nb", 2, "x\r")
	f.Add("", 0, "🎉\r\n")

	f.Fuzz(func(t *testing.T, initial string, offset int, insert string) {
		if !utf8.ValidString(initial) || !utf8.ValidString(insert) {
			return
		}
		if offset < 0 {
			offset = -offset
		}
		b := runeBoundary(initial, offset%(len(initial)+1))

		d := newDoc(initial)
		loc := buffer.UTF16Len(initial[:b])
		d.insert(t, loc, insert)
		d.validate(t)
		d.remove(t, loc, buffer.UTF16Len(insert))
		d.validate(t)
		if d.buf.Text() != initial {
			t.Fatalf("got %q, want %q", d.buf.Text(), initial)
		}
	})
}
