package syntax

import (
	"bytes"
	"fmt"
	"maps"
	"slices"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/dshills/textcore/internal/syntax/language"
	"github.com/dshills/textcore/internal/syntax/query"
)

// forest is the read side shared by Mode and Snapshot.
type forest struct {
	root   LayerID
	layers map[LayerID]*Layer
	src    []byte
	starts []uint32
	langs  map[*language.Language]*compiled
}

func (f *forest) rootLayer() (*Layer, error) {
	l, ok := f.layers[f.root]
	if !ok || l.lang == nil {
		return nil, ErrNoLanguage
	}
	if l.tree == nil {
		return nil, ErrNotParsed
	}
	return l, nil
}

// PointAt returns the tree position of a byte offset. Offsets past the
// end clamp to the end.
func (f *forest) PointAt(offset uint32) Point {
	return pointIn(f.starts, min(offset, uint32(len(f.src))))
}

func (f *forest) offsetOf(p Point) (uint32, error) {
	if int(p.Row) >= len(f.starts) {
		return 0, fmt.Errorf("%w: row %d of %d", ErrOutOfRange, p.Row, len(f.starts))
	}
	off := f.starts[p.Row] + p.Column
	if int(off) > len(f.src) {
		return 0, fmt.Errorf("%w: %v", ErrOutOfRange, p)
	}
	return off, nil
}

func (f *forest) text(start, end uint32) string {
	n := uint32(len(f.src))
	start, end = min(start, n), min(end, n)
	return string(f.src[start:end])
}

// Captures returns the highlight captures of every layer intersecting r,
// parents before children, each layer in query order. The zero range
// selects the whole document.
func (f *forest) Captures(r ByteRange) ([]query.Capture, error) {
	root, err := f.rootLayer()
	if err != nil {
		return nil, err
	}
	if c := f.langs[root.lang]; c.highlights == nil {
		if c.err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoQuery, c.err)
		}
		return nil, ErrNoQuery
	}

	n := uint32(len(f.src))
	if r.IsZero() {
		r.End = n
	}
	r.End = min(r.End, n)
	r.Start = min(r.Start, r.End)

	var out []query.Capture
	f.collect(root, r, &out)
	return out, nil
}

// SortedCaptures returns Captures in painting order.
func (f *forest) SortedCaptures(r ByteRange) ([]query.Capture, error) {
	caps, err := f.Captures(r)
	if err != nil {
		return nil, err
	}
	query.Sort(caps)
	return caps, nil
}

func (f *forest) collect(l *Layer, r ByteRange, out *[]query.Capture) {
	if c := f.langs[l.lang]; c.highlights != nil && l.tree != nil {
		qr := query.Range{
			StartByte:  r.Start,
			EndByte:    r.End,
			StartPoint: f.PointAt(r.Start).sitter(),
			EndPoint:   f.PointAt(r.End).sitter(),
		}
		*out = append(*out, query.Captures(query.Exec(c.highlights, l.root(), qr), f.text)...)
	}
	for _, id := range l.children {
		child := f.layers[id]
		if child.byteRange().Intersects(r) {
			f.collect(child, r, out)
		}
	}
}

// path lists the layers covering offset from the root down.
func (f *forest) path(offset uint32) []*Layer {
	l := f.layers[f.root]
	out := []*Layer{l}
	for {
		var next *Layer
		for _, id := range l.children {
			if c := f.layers[id]; c.covers(offset) && c.tree != nil {
				next = c
				break
			}
		}
		if next == nil {
			return out
		}
		out = append(out, next)
		l = next
	}
}

// deepest returns the innermost node of root whose span contains offset,
// named or not.
func deepest(root *sitter.Node, offset uint32) *sitter.Node {
	n := root
	for n != nil {
		var next *sitter.Node
		for i := 0; i < int(n.ChildCount()); i++ {
			c := n.Child(i)
			if c != nil && c.StartByte() <= offset && offset < c.EndByte() {
				next = c
				break
			}
		}
		if next == nil {
			return n
		}
		n = next
	}
	return n
}

// Node is a syntax node with the layer it belongs to.
type Node struct {
	*sitter.Node
	Layer    LayerID
	Language string
}

// NodeAtByte returns the innermost node at offset in the deepest layer
// covering it.
func (f *forest) NodeAtByte(offset uint32) (Node, error) {
	if _, err := f.rootLayer(); err != nil {
		return Node{}, err
	}
	if int(offset) > len(f.src) {
		return Node{}, fmt.Errorf("%w: offset %d of %d", ErrOutOfRange, offset, len(f.src))
	}
	p := f.path(offset)
	l := p[len(p)-1]
	return Node{Node: deepest(l.root(), offset), Layer: l.id, Language: l.lang.Name}, nil
}

// NodeAt returns the node at a row and byte column.
func (f *forest) NodeAt(p Point) (Node, error) {
	if _, err := f.rootLayer(); err != nil {
		return Node{}, err
	}
	off, err := f.offsetOf(p)
	if err != nil {
		return Node{}, err
	}
	return f.NodeAtByte(off)
}

// SuggestedIndentLevel returns the indentation level for a line whose
// first non-whitespace byte is at offset. Each layer covering the offset
// contributes the level of its own ancestor chain, so injected code is
// indented relative to its host.
func (f *forest) SuggestedIndentLevel(offset uint32) (int, error) {
	if _, err := f.rootLayer(); err != nil {
		return 0, err
	}
	if int(offset) > len(f.src) {
		return 0, fmt.Errorf("%w: offset %d of %d", ErrOutOfRange, offset, len(f.src))
	}
	level := 0
	for _, l := range f.path(offset) {
		level += f.langs[l.lang].resolver.Level(deepest(l.root(), offset))
	}
	return max(level, 0), nil
}

// Layers lists every layer depth first, parents before children.
func (f *forest) Layers() []LayerInfo {
	var out []LayerInfo
	var walk func(id LayerID, depth int)
	walk = func(id LayerID, depth int) {
		l, ok := f.layers[id]
		if !ok {
			return
		}
		info := LayerInfo{ID: l.id, Parent: l.parent, Range: l.byteRange(), Depth: depth, Parses: l.parses}
		if l.lang != nil {
			info.Language = l.lang.Name
		}
		out = append(out, info)
		for _, c := range l.children {
			walk(c, depth+1)
		}
	}
	walk(f.root, 0)
	return out
}

// Tree returns the tree of a layer, or nil.
func (f *forest) Tree(id LayerID) *sitter.Tree {
	if l, ok := f.layers[id]; ok {
		return l.tree
	}
	return nil
}

// Text returns the source the forest was parsed from.
func (f *forest) Text() []byte {
	return f.src
}

func (f *forest) clone() *forest {
	g := &forest{
		root:   f.root,
		layers: make(map[LayerID]*Layer, len(f.layers)),
		src:    bytes.Clone(f.src),
		starts: slices.Clone(f.starts),
		langs:  maps.Clone(f.langs),
	}
	for id, l := range f.layers {
		c := &Layer{
			id:       l.id,
			lang:     l.lang,
			rng:      l.rng,
			parent:   l.parent,
			children: slices.Clone(l.children),
			parses:   l.parses,
		}
		if l.tree != nil {
			c.tree = l.tree.Copy()
		}
		g.layers[id] = c
	}
	return g
}
