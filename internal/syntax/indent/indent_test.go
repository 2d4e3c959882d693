package indent

import (
	"context"
	"strings"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

var goScopes = Scopes{
	Indent:  []string{"block", "literal_value", "field_declaration_list", "parameter_list"},
	Outdent: []string{"}", ")"},
}

func TestDelta(t *testing.T) {
	r := NewResolver(Scopes{Indent: []string{"block", "both"}, Outdent: []string{"}", "both"}})
	tests := []struct {
		typ  string
		want int
	}{
		{"block", 1},
		{"}", -1},
		{"both", 0},
		{"identifier", 0},
	}
	for _, tt := range tests {
		if got := r.Delta(tt.typ); got != tt.want {
			t.Errorf("Delta(%q) = %d, want %d", tt.typ, got, tt.want)
		}
	}
}

func TestLevelOf(t *testing.T) {
	r := NewResolver(goScopes)
	tests := []struct {
		chain []string
		want  int
	}{
		{nil, 0},
		{[]string{"identifier", "block", "function_declaration", "source_file"}, 1},
		{[]string{"identifier", "block", "if_statement", "block", "source_file"}, 2},
		{[]string{"}", "block", "function_declaration"}, 0},
		// Every ancestor counts, first child or not.
		{[]string{"{", "block", "block"}, 2},
	}
	for _, tt := range tests {
		if got := r.LevelOf(tt.chain); got != tt.want {
			t.Errorf("LevelOf(%v) = %d, want %d", tt.chain, got, tt.want)
		}
	}
}

func nodeAtLineStart(t *testing.T, root *sitter.Node, src []byte, row int) *sitter.Node {
	t.Helper()
	lines := strings.Split(string(src), "\n")
	col := len(lines[row]) - len(strings.TrimLeft(lines[row], " \t"))
	p := sitter.Point{Row: uint32(row), Column: uint32(col)}
	n := root.NamedDescendantForPointRange(p, p)
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if !c.IsNamed() && c.StartPoint() == p {
			return c
		}
	}
	return n
}

func TestLevelGo(t *testing.T) {
	src := []byte("package main\n\nfunc main() {\n\tif ok {\n\t\tx := 1\n\t}\n}\n")
	parser := sitter.NewParser()
	parser.SetLanguage(golang.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	root := tree.RootNode()
	r := NewResolver(goScopes)

	tests := []struct {
		row  int
		want int
	}{
		{0, 0}, // package
		{3, 1}, // if
		{4, 2}, // x := 1
		{5, 1}, // inner }
		{6, 0}, // outer }
	}
	for _, tt := range tests {
		n := nodeAtLineStart(t, root, src, tt.row)
		if got := r.Level(n); got != tt.want {
			t.Errorf("row %d (%s): level = %d, want %d; chain %v", tt.row, n.Type(), got, tt.want, Chain(n))
		}
	}
}

func TestLevelNil(t *testing.T) {
	if got := NewResolver(goScopes).Level(nil); got != 0 {
		t.Errorf("Level(nil) = %d, want 0", got)
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		level, width int
		tabs         bool
		want         string
	}{
		{0, 4, false, ""},
		{-2, 4, false, ""},
		{2, 4, false, "        "},
		{2, 4, true, "\t\t"},
		{1, 0, false, " "},
	}
	for _, tt := range tests {
		if got := String(tt.level, tt.width, tt.tabs); got != tt.want {
			t.Errorf("String(%d, %d, %v) = %q, want %q", tt.level, tt.width, tt.tabs, got, tt.want)
		}
	}
	if got := Columns(3, 2); got != 6 {
		t.Errorf("Columns(3, 2) = %d, want 6", got)
	}
}
