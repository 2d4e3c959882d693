package syntax

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/dshills/textcore/internal/logging"
	"github.com/dshills/textcore/internal/syntax/language"
)

// Mode is the parse forest of one document.
type Mode struct {
	forest

	registry *language.Registry
	log      *logging.Logger
	rowOf    func(offset uint32) int
}

// Option configures a Mode.
type Option func(*Mode)

// WithRegistry sets the registry that resolves injected language names.
func WithRegistry(r *language.Registry) Option {
	return func(m *Mode) {
		if r != nil {
			m.registry = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(m *Mode) {
		if l != nil {
			m.log = l
		}
	}
}

// WithRowFunc sets how changed rows are numbered. fn receives byte offsets
// into the text passed to the latest Parse or ApplyEdit. The default counts
// LF-separated rows.
func WithRowFunc(fn func(offset uint32) int) Option {
	return func(m *Mode) {
		m.rowOf = fn
	}
}

// New creates a mode for lang. Nothing is parsed until Parse is called.
// A highlight or injection query that fails to compile is logged and
// disables that capability for the language only.
func New(lang *language.Language, opts ...Option) (*Mode, error) {
	if lang == nil || lang.Grammar == nil {
		return nil, ErrNoLanguage
	}
	m := &Mode{
		forest: forest{
			layers: make(map[LayerID]*Layer),
			starts: []uint32{0},
			langs:  make(map[*language.Language]*compiled),
		},
		registry: language.DefaultRegistry(),
		log:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.WithComponent("syntax")
	if m.rowOf == nil {
		m.rowOf = func(offset uint32) int { return int(m.PointAt(offset).Row) }
	}

	root := m.newLayer(lang, NoLayer, sitter.Range{})
	m.root = root.id
	return m, nil
}

// Language returns the root language.
func (m *Mode) Language() *language.Language {
	return m.layers[m.root].lang
}

// Root returns the ID of the root layer.
func (m *Mode) Root() LayerID {
	return m.root
}

func (m *Mode) newLayer(lang *language.Language, parent LayerID, rng sitter.Range) *Layer {
	if _, ok := m.langs[lang]; !ok {
		c := compile(lang)
		if c.err != nil {
			m.log.Warn("language %s: %v", lang.Name, c.err)
		}
		m.langs[lang] = c
	}
	p := sitter.NewParser()
	p.SetLanguage(lang.Grammar)
	l := &Layer{
		id:     newLayerID(),
		lang:   lang,
		parser: p,
		rng:    rng,
		parent: parent,
	}
	m.layers[l.id] = l
	return l
}

func (m *Mode) setSource(src []byte) {
	m.src = src
	m.starts = lineStarts(src)
}

// Parse parses src from scratch, rebuilding every injected layer. The mode
// keeps src until the next Parse or ApplyEdit; callers must not modify it.
func (m *Mode) Parse(ctx context.Context, src []byte) error {
	m.setSource(src)
	root := m.layers[m.root]
	for _, id := range root.children {
		m.discard(id, nil)
	}
	root.children = nil
	if root.tree != nil {
		root.tree.Close()
		root.tree = nil
	}
	return m.parse(ctx, root, nil)
}

// parse parses l without an old tree, then builds its injections.
func (m *Mode) parse(ctx context.Context, l *Layer, rows rowSet) error {
	if !l.isRoot() {
		l.parser.SetIncludedRanges([]sitter.Range{l.rng})
	}
	tree, err := l.parser.ParseCtx(ctx, nil, m.src)
	if err != nil {
		return fmt.Errorf("parse %s: %w", l.lang.Name, err)
	}
	l.tree = tree
	l.parses++
	return m.inject(ctx, l, rows)
}

// ApplyEdit applies e to the forest. src is the text after the edit. It
// returns the sorted rows whose syntax may have changed: the rows the edit
// spans and the rows of every subtree that differs after reparsing, in any
// layer.
func (m *Mode) ApplyEdit(ctx context.Context, e InputEdit, src []byte) ([]int, error) {
	root := m.layers[m.root]
	if root.tree == nil {
		return nil, ErrNotParsed
	}
	if err := e.validate(len(src)); err != nil {
		return nil, err
	}
	m.setSource(src)

	rows := make(rowSet)
	if err := m.edit(ctx, root, e.sitter(), rows); err != nil {
		return nil, err
	}
	rows.addSpan(m.rowOf, e.StartByte, e.NewEndByte, uint32(len(src)))
	return rows.sorted(), nil
}

// edit reparses l incrementally and routes the edit to its children.
func (m *Mode) edit(ctx context.Context, l *Layer, e sitter.EditInput, rows rowSet) error {
	old := l.tree
	old.Edit(e)
	if !l.isRoot() {
		l.parser.SetIncludedRanges([]sitter.Range{l.rng})
	}
	tree, err := l.parser.ParseCtx(ctx, old, m.src)
	if err != nil {
		return fmt.Errorf("reparse %s: %w", l.lang.Name, err)
	}
	m.diff(old.RootNode(), tree.RootNode(), rows)
	old.Close()
	l.tree = tree
	l.parses++

	for _, id := range l.children {
		c := m.layers[id]
		switch {
		case e.OldEndIndex < c.rng.StartByte:
			m.shift(c, e)
		case e.StartIndex > c.rng.EndByte:
			// After the child.
		default:
			if e.StartIndex < c.rng.StartByte {
				c.rng.StartByte = e.StartIndex
				c.rng.StartPoint = e.StartPoint
			}
			if c.rng.EndByte >= e.OldEndIndex {
				c.rng.EndByte = shiftByte(c.rng.EndByte, e)
				c.rng.EndPoint = shiftPoint(c.rng.EndPoint, e)
			} else {
				c.rng.EndByte = e.NewEndIndex
				c.rng.EndPoint = e.NewEndPoint
			}
			if err := m.edit(ctx, c, e, rows); err != nil {
				return err
			}
		}
	}
	return m.inject(ctx, l, rows)
}

// shift moves an untouched layer and its descendants without reparsing.
func (m *Mode) shift(l *Layer, e sitter.EditInput) {
	l.rng = shiftRange(l.rng, e)
	l.tree.Edit(e)
	for _, id := range l.children {
		m.shift(m.layers[id], e)
	}
}

// discard removes a layer and its descendants, adding the rows they
// covered to rows.
func (m *Mode) discard(id LayerID, rows rowSet) {
	l, ok := m.layers[id]
	if !ok {
		return
	}
	for _, c := range l.children {
		m.discard(c, rows)
	}
	rows.addSpan(m.rowOf, l.rng.StartByte, l.rng.EndByte, uint32(len(m.src)))
	l.close()
	delete(m.layers, id)
}

// Snapshot returns an immutable copy of the forest and its text.
func (m *Mode) Snapshot() *Snapshot {
	return &Snapshot{forest: *m.clone()}
}

// Close releases every parser and tree. The mode must not be used
// afterwards.
func (m *Mode) Close() {
	for id, l := range m.layers {
		l.close()
		delete(m.layers, id)
	}
}
