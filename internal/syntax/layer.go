package syntax

import (
	"github.com/google/uuid"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/dshills/textcore/internal/syntax/indent"
	"github.com/dshills/textcore/internal/syntax/language"
	"github.com/dshills/textcore/internal/syntax/query"
)

// LayerID identifies a layer for the lifetime of its Mode. IDs are never
// reused.
type LayerID uuid.UUID

// NoLayer is the parent of the root layer.
var NoLayer = LayerID(uuid.Nil)

func newLayerID() LayerID {
	return LayerID(uuid.New())
}

// String returns the canonical UUID form.
func (id LayerID) String() string {
	return uuid.UUID(id).String()
}

// Layer is one parsed language region.
type Layer struct {
	id       LayerID
	lang     *language.Language
	parser   *sitter.Parser
	tree     *sitter.Tree
	rng      sitter.Range // zero for the root layer
	parent   LayerID
	children []LayerID
	parses   int
}

func (l *Layer) isRoot() bool {
	return l.parent == NoLayer
}

func (l *Layer) byteRange() ByteRange {
	return ByteRange{Start: l.rng.StartByte, End: l.rng.EndByte}
}

// covers reports whether offset lies in the layer. The end of a child's
// range still belongs to it.
func (l *Layer) covers(offset uint32) bool {
	if l.isRoot() {
		return true
	}
	return offset >= l.rng.StartByte && offset <= l.rng.EndByte
}

func (l *Layer) root() *sitter.Node {
	if l.tree == nil {
		return nil
	}
	return l.tree.RootNode()
}

func (l *Layer) close() {
	if l.tree != nil {
		l.tree.Close()
		l.tree = nil
	}
	if l.parser != nil {
		l.parser.Close()
		l.parser = nil
	}
}

// LayerInfo describes a layer for inspection.
type LayerInfo struct {
	ID       LayerID
	Parent   LayerID
	Language string
	// Range is zero for the root layer.
	Range  ByteRange
	Depth  int
	Parses int
}

// compiled holds the per-language state shared by a Mode and its
// snapshots. Queries are read-only once compiled.
type compiled struct {
	highlights *query.Query
	injections *query.Query
	resolver   *indent.Resolver
	err        error
}

func compile(l *language.Language) *compiled {
	c := &compiled{resolver: indent.NewResolver(l.Indent)}
	if l.HighlightsQuery != "" {
		q, err := query.Compile(l.Grammar, []byte(l.HighlightsQuery))
		if err != nil {
			c.err = err
		} else {
			c.highlights = q
		}
	}
	if l.InjectionsQuery != "" {
		q, err := query.Compile(l.Grammar, []byte(l.InjectionsQuery))
		if err != nil && c.err == nil {
			c.err = err
		} else if err == nil {
			c.injections = q
		}
	}
	return c
}
