package engine

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/sourcegraph/go-lsp"

	"github.com/dshills/textcore/internal/config"
	"github.com/dshills/textcore/internal/config/notify"
	"github.com/dshills/textcore/internal/engine/buffer"
	"github.com/dshills/textcore/internal/engine/lines"
	"github.com/dshills/textcore/internal/logging"
	"github.com/dshills/textcore/internal/syntax"
	"github.com/dshills/textcore/internal/syntax/highlight"
	"github.com/dshills/textcore/internal/syntax/indent"
	"github.com/dshills/textcore/internal/syntax/language"
	"github.com/dshills/textcore/internal/syntax/query"
)

// Engine keeps a text buffer, its line index and its syntax forest in step.
//
// All methods are safe for concurrent use. Text and line reads share a read
// lock; edits and syntax reads take the write lock because parse trees are
// not safe to read from several goroutines at once.
type Engine struct {
	mu sync.RWMutex

	id   uuid.UUID
	buf  *buffer.Buffer
	idx  *lines.Index
	mode *syntax.Mode

	// stale is set when the last incremental reparse failed; the next
	// syntax access reparses from scratch.
	stale bool

	worker *highlight.Worker
	closed bool

	// Configuration
	lang        *language.Language
	registry    *language.Registry
	settings    config.Settings
	log         *logging.Logger
	initContent string
}

func newEngine(opts []Option) *Engine {
	e := &Engine{
		id:       uuid.New(),
		registry: language.DefaultRegistry(),
		settings: config.Default(),
		log:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.WithComponent("engine").WithField("doc", e.id.String()[:8])
	return e
}

// New creates an Engine with the given options.
func New(opts ...Option) (*Engine, error) {
	e := newEngine(opts)
	return e, e.init(buffer.NewBufferFromString(e.initContent))
}

// NewFromReader creates an Engine holding everything read from r.
// WithContent is ignored.
func NewFromReader(r io.Reader, opts ...Option) (*Engine, error) {
	e := newEngine(opts)
	buf, err := buffer.NewBufferFromReader(r)
	if err != nil {
		return nil, err
	}
	return e, e.init(buf)
}

func (e *Engine) init(buf *buffer.Buffer) error {
	if err := e.settings.Validate(); err != nil {
		return err
	}
	e.buf = buf
	e.idx = lines.New(buf, lines.WithDefaultHeight(e.settings.EffectiveLineHeight()))
	if e.lang == nil {
		return nil
	}
	return e.setLanguage(context.Background(), e.lang)
}

// rowOf is the row function handed to the syntax mode. It always reads the
// index after the index has been updated for an edit.
func (e *Engine) rowOf(offset uint32) int {
	return e.idx.PointAt(min(int(offset), e.idx.ByteLength())).Row
}

func (e *Engine) setLanguage(ctx context.Context, lang *language.Language) error {
	m, err := syntax.New(lang,
		syntax.WithRegistry(e.registry),
		syntax.WithLogger(e.log),
		syntax.WithRowFunc(e.rowOf),
	)
	if err != nil {
		return err
	}
	if err := m.Parse(ctx, e.buf.Bytes()); err != nil {
		m.Close()
		return fmt.Errorf("parse %s: %w", lang.Name, err)
	}
	if e.mode != nil {
		e.mode.Close()
	}
	e.mode, e.lang, e.stale = m, lang, false
	e.log.Debug("language %s attached", lang.Name)
	return nil
}

// SetLanguage replaces the syntax forest with a fresh parse in lang. A nil
// lang detaches syntax support.
func (e *Engine) SetLanguage(ctx context.Context, lang *language.Language) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if e.worker != nil {
		e.worker.Cancel()
	}
	if lang == nil {
		if e.mode != nil {
			e.mode.Close()
		}
		e.mode, e.lang, e.stale = nil, nil, false
		return nil
	}
	return e.setLanguage(ctx, lang)
}

// Language returns the attached language, or nil.
func (e *Engine) Language() *language.Language {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lang
}

// Close stops the highlight worker and releases the parse trees.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	if e.worker != nil {
		e.worker.Close()
	}
	if e.mode != nil {
		e.mode.Close()
		e.mode = nil
	}
}

// ============================================================================
// Read Operations
// ============================================================================

// ID identifies the document for log correlation.
func (e *Engine) ID() uuid.UUID {
	return e.id
}

// Text returns the full content.
func (e *Engine) Text() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.Text()
}

// RevisionID returns the buffer revision.
func (e *Engine) RevisionID() buffer.RevisionID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.RevisionID()
}

// LineEnding returns the line ending style detected when the document was
// loaded.
func (e *Engine) LineEnding() buffer.LineEnding {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.LineEnding()
}

// Length returns the document length in characters (UTF-16 code units).
func (e *Engine) Length() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.idx.Length()
}

// ByteLength returns the document length in bytes.
func (e *Engine) ByteLength() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.idx.ByteLength()
}

// LineCount returns the number of lines, at least 1.
func (e *Engine) LineCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.idx.LineCount()
}

// ContentHeight returns the summed height of all lines.
func (e *Engine) ContentHeight() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.idx.ContentHeight()
}

// LineAtRow returns the line at row.
func (e *Engine) LineAtRow(row int) (lines.Line, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.checkRow(row); err != nil {
		return lines.Line{}, err
	}
	return e.idx.LineAtRow(row), nil
}

// LineContainingCharacterAt returns the line holding the character at
// location.
func (e *Engine) LineContainingCharacterAt(location int) (lines.Line, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if location < 0 || location > e.idx.Length() {
		return lines.Line{}, fmt.Errorf("%w: location %d of %d", ErrOffsetOutOfRange, location, e.idx.Length())
	}
	return e.idx.LineContainingCharacterAt(location), nil
}

// LineAtByteOffset returns the line holding the byte at offset.
func (e *Engine) LineAtByteOffset(offset int) (lines.Line, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if offset < 0 || offset > e.idx.ByteLength() {
		return lines.Line{}, fmt.Errorf("%w: byte %d of %d", ErrOffsetOutOfRange, offset, e.idx.ByteLength())
	}
	return e.idx.LineAtByteOffset(offset), nil
}

// LineAtYOffset returns the line displayed at y, clamped to the content.
func (e *Engine) LineAtYOffset(y float64) lines.Line {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.idx.LineAtYOffset(y)
}

// LineText returns the text of row without its delimiter.
func (e *Engine) LineText(row int) (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.checkRow(row); err != nil {
		return "", err
	}
	l := e.idx.LineAtRow(row)
	return e.buf.TextRange(l.ByteLocation, l.ByteLocation+l.ByteLength()), nil
}

// Lines calls fn for each line in order until fn returns false.
func (e *Engine) Lines(fn func(lines.Line) bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	e.idx.Walk(fn)
}

// SetLineHeight gives row an explicit height.
func (e *Engine) SetLineHeight(row int, h float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkRow(row); err != nil {
		return err
	}
	if h < 0 {
		return fmt.Errorf("%w: height %v", ErrRangeInvalid, h)
	}
	e.idx.SetLineHeight(e.idx.LineAtRow(row).ID, h)
	return nil
}

// LSPPosition converts a character location to an LSP position.
func (e *Engine) LSPPosition(location int) (lsp.Position, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if location < 0 || location > e.idx.Length() {
		return lsp.Position{}, fmt.Errorf("%w: location %d of %d", ErrOffsetOutOfRange, location, e.idx.Length())
	}
	return e.idx.LSPPosition(location), nil
}

// LocationForLSP converts an LSP position to a character location.
func (e *Engine) LocationForLSP(pos lsp.Position) (int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.idx.LocationForLSP(pos)
}

func (e *Engine) checkRow(row int) error {
	if row < 0 || row >= e.idx.LineCount() {
		return fmt.Errorf("%w: row %d of %d", ErrRowOutOfRange, row, e.idx.LineCount())
	}
	return nil
}

// ============================================================================
// Settings
// ============================================================================

// Settings returns the settings in effect.
func (e *Engine) Settings() config.Settings {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.settings
}

// ApplySettings validates s and puts it into effect. Lines without an
// explicit height take the new default height.
func (e *Engine) ApplySettings(s config.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	old := e.settings
	e.settings = s
	if h := s.EffectiveLineHeight(); h != old.EffectiveLineHeight() {
		e.idx.SetDefaultHeight(h)
	}
	e.log.Debug("settings applied (tab width %d, line height %v)", s.TabWidth, s.EffectiveLineHeight())
	return nil
}

// Watch applies the store's settings now and after every change published
// on its notifier. Unsubscribe the returned subscription to stop.
func (e *Engine) Watch(store *config.Store) (*notify.Subscription, error) {
	if err := e.ApplySettings(store.Settings()); err != nil {
		return nil, err
	}
	return store.Notifier().Subscribe(func(c notify.Change) {
		if err := e.ApplySettings(store.Settings()); err != nil {
			e.log.Warn("settings version %d from %s: %v", c.Version, c.Source, err)
		}
	}), nil
}

// ============================================================================
// Syntax
// ============================================================================

// syntaxLocked returns the forest, reparsing it if an earlier incremental
// update failed. The caller holds the write lock.
func (e *Engine) syntaxLocked(ctx context.Context) (*syntax.Mode, error) {
	if e.closed {
		return nil, ErrClosed
	}
	if e.mode == nil {
		return nil, syntax.ErrNoLanguage
	}
	if e.stale {
		if err := e.mode.Parse(ctx, e.buf.Bytes()); err != nil {
			return nil, err
		}
		e.stale = false
		e.log.Info("syntax reparsed after failed update")
	}
	return e.mode, nil
}

// Captures returns the ordered highlight captures intersecting r. The zero
// range selects the whole document.
func (e *Engine) Captures(ctx context.Context, r syntax.ByteRange) ([]query.Capture, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, err := e.syntaxLocked(ctx)
	if err != nil {
		return nil, err
	}
	return m.SortedCaptures(r)
}

// Tokens returns the classified highlight tokens intersecting r.
func (e *Engine) Tokens(ctx context.Context, r syntax.ByteRange) ([]highlight.Token, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, err := e.syntaxLocked(ctx)
	if err != nil {
		return nil, err
	}
	return highlight.Highlight(m, r)
}

// NodeAt returns the innermost node at row and character column, searching
// injected layers first.
func (e *Engine) NodeAt(ctx context.Context, row, column int) (syntax.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, err := e.syntaxLocked(ctx)
	if err != nil {
		return syntax.Node{}, err
	}
	if err := e.checkRow(row); err != nil {
		return syntax.Node{}, err
	}
	if column < 0 {
		return syntax.Node{}, fmt.Errorf("%w: column %d", ErrOffsetOutOfRange, column)
	}
	l := e.idx.LineAtRow(row)
	off := e.idx.ByteOffset(l.Location + min(column, l.Length()))
	return m.NodeAtByte(uint32(off))
}

// SuggestedIndentLevel returns the indentation level row should have,
// measured at its first non-blank byte.
func (e *Engine) SuggestedIndentLevel(ctx context.Context, row int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, err := e.syntaxLocked(ctx)
	if err != nil {
		return 0, err
	}
	if err := e.checkRow(row); err != nil {
		return 0, err
	}
	l := e.idx.LineAtRow(row)
	off, end := l.ByteLocation, l.ByteLocation+l.ByteLength()
	for off < end {
		if c := e.buf.ByteAt(off); c != ' ' && c != '\t' {
			break
		}
		off++
	}
	return m.SuggestedIndentLevel(uint32(off))
}

// IndentString renders the suggested indentation of row using the tab
// settings in effect.
func (e *Engine) IndentString(ctx context.Context, row int) (string, error) {
	level, err := e.SuggestedIndentLevel(ctx, row)
	if err != nil {
		return "", err
	}
	s := e.Settings()
	return indent.String(level, s.TabWidth, s.UseTabs), nil
}

// Layers describes the layers of the syntax forest.
func (e *Engine) Layers(ctx context.Context) ([]syntax.LayerInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, err := e.syntaxLocked(ctx)
	if err != nil {
		return nil, err
	}
	return m.Layers(), nil
}

// ============================================================================
// Snapshots and background highlighting
// ============================================================================

// Snapshot is a consistent copy of the text and, when a language is
// attached, the syntax forest.
type Snapshot struct {
	Text   *buffer.Snapshot
	Syntax *syntax.Snapshot
}

// Close releases the copied parse trees.
func (s *Snapshot) Close() {
	if s.Syntax != nil {
		s.Syntax.Close()
	}
}

// Snapshot copies the current state.
func (e *Engine) Snapshot(ctx context.Context) (*Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}
	s := &Snapshot{Text: e.buf.Snapshot()}
	if e.mode == nil {
		return s, nil
	}
	m, err := e.syntaxLocked(ctx)
	if err != nil {
		return nil, err
	}
	s.Syntax = m.Snapshot()
	return s, nil
}

// HighlightRanges highlights several ranges of the current state in
// parallel without holding the engine lock.
func (e *Engine) HighlightRanges(ctx context.Context, ranges []syntax.ByteRange) ([][]highlight.Token, error) {
	e.mu.Lock()
	m, err := e.syntaxLocked(ctx)
	if err != nil {
		e.mu.Unlock()
		return nil, err
	}
	snap := m.Snapshot()
	e.mu.Unlock()

	defer snap.Close()
	return highlight.HighlightRanges(ctx, snap, ranges)
}

func (e *Engine) workerLocked() *highlight.Worker {
	if e.worker == nil {
		e.worker = highlight.NewWorker(highlight.WithWorkerLogger(e.log))
	}
	return e.worker
}

// SubmitHighlight queues a background highlight of r over a snapshot of
// the current state and returns its generation. Any edit makes pending
// and running requests stale.
func (e *Engine) SubmitHighlight(ctx context.Context, r syntax.ByteRange) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, err := e.syntaxLocked(ctx)
	if err != nil {
		return 0, err
	}
	return e.workerLocked().Submit(m.Snapshot(), r), nil
}

// HighlightResults delivers background highlight results. The channel is
// closed by Close.
func (e *Engine) HighlightResults() <-chan highlight.Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed && e.worker == nil {
		ch := make(chan highlight.Result)
		close(ch)
		return ch
	}
	return e.workerLocked().Results()
}
