package lines

import (
	"unicode/utf8"

	"github.com/dshills/textcore/internal/engine/buffer"
	"github.com/dshills/textcore/internal/engine/rbtree"
)

// scanLines splits data into line entries.
func scanLines(data []byte, height float64) []rbtree.Entry[int, lineData] {
	entries := make([]rbtree.Entry[int, lineData], 0, len(data)/32+1)
	emit := func(units, bytes, delim int) {
		entries = append(entries, rbtree.Entry[int, lineData]{
			Value: units,
			Data:  lineData{delimiterLength: delim, byteCount: bytes, height: height},
		})
	}

	start, units := 0, 0
	for i := 0; i < len(data); {
		switch data[i] {
		case '\r':
			if i+1 < len(data) && data[i+1] == '\n' {
				i += 2
				emit(units+2, i-start, 2)
			} else {
				i++
				emit(units+1, i-start, 1)
			}
			start, units = i, 0
		case '\n':
			i++
			emit(units+1, i-start, 1)
			start, units = i, 0
		default:
			size, u := buffer.DecodeUnits(data[i:])
			i += size
			units += u
		}
	}
	emit(units, len(data)-start, 0)
	return entries
}

// lineBreaks returns the UTF-16 offset just past each delimiter in text.
// CRLF counts as a single delimiter.
func lineBreaks(text string) []int {
	var breaks []int
	units := 0
	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case c == '\r' && i+1 < len(text) && text[i+1] == '\n':
			i += 2
			units += 2
			breaks = append(breaks, units)
		case c == '\r' || c == '\n':
			i++
			units++
			breaks = append(breaks, units)
		case c < utf8.RuneSelf:
			i++
			units++
		default:
			r, size := utf8.DecodeRuneInString(text[i:])
			i += size
			if r >= 0x10000 {
				units += 2
			} else {
				units++
			}
		}
	}
	return breaks
}

// measurement is the result of reading a span of characters from the source.
type measurement struct {
	bytes int
	// last and prev are the lead bytes of the final two characters.
	last, prev byte
}

// measure reads units UTF-16 code units from the source starting at byte
// offset start, stopping early at the end of the source.
func (x *Index) measure(start, units int) measurement {
	var m measurement
	n := x.src.Len()
	pos := start
	var buf [utf8.UTFMax]byte
	for count := 0; count < units && pos < n; {
		lead := x.src.ByteAt(pos)
		size, u := 1, 1
		if lead >= utf8.RuneSelf {
			buf[0] = lead
			k := 1
			for ; k < len(buf) && pos+k < n; k++ {
				buf[k] = x.src.ByteAt(pos + k)
			}
			size, u = buffer.DecodeUnits(buf[:k])
		}
		m.prev, m.last = m.last, lead
		pos += size
		count += u
	}
	m.bytes = pos - start
	return m
}

// unitsBetween counts the UTF-16 code units in the source bytes [start, end).
func (x *Index) unitsBetween(start, end int) int {
	units := 0
	var buf [utf8.UTFMax]byte
	for pos := start; pos < end; {
		lead := x.src.ByteAt(pos)
		if lead < utf8.RuneSelf {
			pos++
			units++
			continue
		}
		buf[0] = lead
		k := 1
		for ; k < len(buf) && pos+k < end; k++ {
			buf[k] = x.src.ByteAt(pos + k)
		}
		size, u := buffer.DecodeUnits(buf[:k])
		pos += size
		units += u
	}
	return units
}
