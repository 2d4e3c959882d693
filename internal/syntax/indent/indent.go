// Package indent computes suggested indentation levels from syntax trees.
//
// A language declares which node types open an indentation scope and which
// close one. The level for a line is a fold over the ancestor chain of the
// node at the line's first non-whitespace column: +1 for every indent
// type, -1 for every outdent type. Sibling position is not considered, so
// a node type that indents its body also indents its first child.
package indent

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Scopes is a language's indentation table.
type Scopes struct {
	Indent  []string `toml:"indent" yaml:"indent"`
	Outdent []string `toml:"outdent" yaml:"outdent"`
}

// IsZero reports whether the table is empty.
func (s Scopes) IsZero() bool {
	return len(s.Indent) == 0 && len(s.Outdent) == 0
}

// Resolver evaluates one Scopes table.
type Resolver struct {
	indent  map[string]bool
	outdent map[string]bool
}

// NewResolver builds a resolver for s.
func NewResolver(s Scopes) *Resolver {
	r := &Resolver{
		indent:  make(map[string]bool, len(s.Indent)),
		outdent: make(map[string]bool, len(s.Outdent)),
	}
	for _, t := range s.Indent {
		r.indent[t] = true
	}
	for _, t := range s.Outdent {
		r.outdent[t] = true
	}
	return r
}

// Delta is the contribution of a single node type.
func (r *Resolver) Delta(nodeType string) int {
	d := 0
	if r.indent[nodeType] {
		d++
	}
	if r.outdent[nodeType] {
		d--
	}
	return d
}

// LevelOf folds Delta over a chain of node types, innermost first.
func (r *Resolver) LevelOf(chain []string) int {
	level := 0
	for _, t := range chain {
		level += r.Delta(t)
	}
	return level
}

// Level returns the level contributed by n and all of its ancestors.
// A nil node has level 0.
func (r *Resolver) Level(n *sitter.Node) int {
	return r.LevelOf(Chain(n))
}

// Chain lists the types of n and its ancestors, innermost first.
func Chain(n *sitter.Node) []string {
	var chain []string
	for ; n != nil; n = n.Parent() {
		chain = append(chain, n.Type())
	}
	return chain
}

// String renders level indentation units, never less than zero.
func String(level, tabWidth int, useTabs bool) string {
	if level <= 0 {
		return ""
	}
	if useTabs {
		return strings.Repeat("\t", level)
	}
	if tabWidth < 1 {
		tabWidth = 1
	}
	return strings.Repeat(" ", level*tabWidth)
}

// Columns is the display width of level indentation units.
func Columns(level, tabWidth int) int {
	if level <= 0 {
		return 0
	}
	return level * tabWidth
}
