// Package buffer provides the raw, byte-addressed text store that backs a
// document. Text is kept as UTF-8 in a gap buffer so that runs of edits near
// the same position (typing, deleting) only move the bytes between the old
// and new edit positions.
//
// The buffer knows nothing about lines. The line index in package lines
// reads bytes back out of it to measure lines after every edit, and the
// syntax layer parses the byte slice returned by Bytes or Snapshot.
//
// Basic usage:
//
//	buf := buffer.NewBufferFromString("Hello, World!")
//	buf.Insert(7, "Beautiful ")  // "Hello, Beautiful World!"
//	buf.Delete(0, 7)             // "Beautiful World!"
//
//	snap := buf.Snapshot()
//	go func() {
//	    parse(snap.Bytes())
//	}()
//
// Line endings are stored exactly as given. CR, LF and CRLF all survive
// untouched because the line index distinguishes them.
//
// All Buffer methods are safe for concurrent use. A Snapshot is an
// immutable copy and can be handed to another goroutine.
package buffer
