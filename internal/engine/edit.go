package engine

import (
	"context"
	"fmt"

	"github.com/dshills/textcore/internal/engine/lines"
	"github.com/dshills/textcore/internal/syntax"
)

// EditResult describes the effect of one edit.
type EditResult struct {
	// ChangeSet lists the line IDs inserted, removed and edited.
	ChangeSet *lines.ChangeSet
	// Edit is the edit in tree-sitter coordinates.
	Edit syntax.InputEdit
	// ChangedRows are the sorted rows whose highlighting may have changed.
	// Without a language they are the rows spanned by the new text.
	ChangedRows []int
	// Rebuilt is set when the index and syntax were rebuilt from scratch
	// instead of updated in place.
	Rebuilt bool
}

// InsertText inserts text at character location.
func (e *Engine) InsertText(ctx context.Context, text string, location int) (*EditResult, error) {
	return e.Replace(ctx, location, 0, text)
}

// RemoveText removes length characters at location.
func (e *Engine) RemoveText(ctx context.Context, location, length int) (*EditResult, error) {
	return e.Replace(ctx, location, length, "")
}

// Replace replaces length characters at location with text. Locations
// and lengths are in characters (UTF-16 code units).
//
// The buffer and line index are updated in two phases, removal then
// insertion, so the index always measures against the text it describes.
// The syntax forest is then edited and reparsed incrementally. A syntax
// failure is returned after the text has been changed; the forest is
// marked stale and rebuilt on the next syntax access.
func (e *Engine) Replace(ctx context.Context, location, length int, text string) (*EditResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrClosed
	}
	n := e.idx.Length()
	if location < 0 || location > n {
		return nil, fmt.Errorf("%w: location %d of %d", ErrOffsetOutOfRange, location, n)
	}
	if length < 0 || location+length > n {
		return nil, fmt.Errorf("%w: [%d, %d) of %d", ErrRangeInvalid, location, location+length, n)
	}
	if length == 0 && text == "" {
		return &EditResult{ChangeSet: lines.NewChangeSet()}, nil
	}

	start := e.idx.ByteOffset(location)
	oldEnd := e.idx.ByteOffset(location + length)
	ie := syntax.NewInputEdit(uint32(start), uint32(oldEnd), []byte(text), e.pointAtLocked)

	if e.worker != nil {
		e.worker.Cancel()
	}

	newLen := e.buf.Len() - (oldEnd - start) + len(text)
	if e.shouldRebuild(len(text), newLen) {
		return e.rebuildLocked(ctx, start, oldEnd, text, ie)
	}

	res := &EditResult{ChangeSet: lines.NewChangeSet(), Edit: ie}
	if length > 0 {
		if err := e.buf.Delete(start, oldEnd); err != nil {
			return nil, err
		}
		res.ChangeSet.Union(e.idx.RemoveText(location, length))
	}
	if text != "" {
		if _, err := e.buf.Insert(start, text); err != nil {
			return nil, err
		}
		res.ChangeSet.Union(e.idx.InsertText(text, location))
	}

	if e.mode == nil {
		res.ChangedRows = e.spannedRows(start, start+len(text))
		return res, nil
	}
	if e.stale {
		if err := e.mode.Parse(ctx, e.buf.Bytes()); err != nil {
			return res, fmt.Errorf("reparse: %w", err)
		}
		e.stale = false
		res.ChangedRows = e.allRows()
		return res, nil
	}
	rows, err := e.mode.ApplyEdit(ctx, ie, e.buf.Bytes())
	if err != nil {
		e.stale = true
		e.log.Warn("incremental reparse failed, forest marked stale: %v", err)
		return res, fmt.Errorf("apply edit: %w", err)
	}
	res.ChangedRows = rows
	return res, nil
}

func (e *Engine) shouldRebuild(inserted, newLen int) bool {
	s := e.settings
	return inserted > 0 && inserted >= s.RebuildMinBytes && float64(inserted) >= s.RebuildRatio*float64(newLen)
}

// rebuildLocked applies a large insertion by rescanning the whole buffer
// and reparsing from scratch.
func (e *Engine) rebuildLocked(ctx context.Context, start, oldEnd int, text string, ie syntax.InputEdit) (*EditResult, error) {
	if _, err := e.buf.Replace(start, oldEnd, text); err != nil {
		return nil, err
	}
	res := &EditResult{ChangeSet: e.idx.Rebuild(), Edit: ie, Rebuilt: true}
	e.log.Debug("rebuilt index for %d inserted bytes (%d lines)", len(text), e.idx.LineCount())
	res.ChangedRows = e.allRows()
	if e.mode == nil {
		return res, nil
	}
	if err := e.mode.Parse(ctx, e.buf.Bytes()); err != nil {
		e.stale = true
		return res, fmt.Errorf("reparse: %w", err)
	}
	e.stale = false
	return res, nil
}

// pointAtLocked resolves a byte offset of the current text to a tree
// position, before the text changes.
func (e *Engine) pointAtLocked(offset uint32) syntax.Point {
	if e.mode != nil && !e.stale {
		return e.mode.PointAt(offset)
	}
	p := e.idx.PointAt(int(offset))
	return syntax.Point{Row: uint32(p.Row), Column: uint32(p.Column)}
}

func (e *Engine) spannedRows(start, end int) []int {
	first := e.idx.PointAt(start).Row
	last := e.idx.PointAt(end).Row
	rows := make([]int, 0, last-first+1)
	for r := first; r <= last; r++ {
		rows = append(rows, r)
	}
	return rows
}

func (e *Engine) allRows() []int {
	rows := make([]int, e.idx.LineCount())
	for i := range rows {
		rows[i] = i
	}
	return rows
}
