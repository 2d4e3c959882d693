package query

import (
	"cmp"
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Range restricts execution. Points narrow the cursor; bytes decide which
// captures are kept. A zero EndByte means no restriction.
type Range struct {
	StartByte, EndByte   uint32
	StartPoint, EndPoint sitter.Point
}

// intersects reports whether [start, end) overlaps the range. Empty spans
// count when they sit inside or at the start of the range.
func (r Range) intersects(start, end uint32) bool {
	if r.EndByte == 0 && r.StartByte == 0 {
		return true
	}
	if start == end {
		return start >= r.StartByte && start < r.EndByte
	}
	return start < r.EndByte && end > r.StartByte
}

// MatchCapture is one captured node of a match.
type MatchCapture struct {
	Name string
	Node *sitter.Node
}

// Match is an unfiltered query match. Its predicates are evaluated only
// when Accept is called.
type Match struct {
	Pattern  int
	Captures []MatchCapture

	q   *Query
	rng Range
}

// Exec runs q over node and collects every match touching r.
func Exec(q *Query, node *sitter.Node, r Range) []Match {
	if q == nil || node == nil {
		return nil
	}
	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	if r.EndPoint != (sitter.Point{}) {
		cursor.SetPointRange(r.StartPoint, r.EndPoint)
	}
	cursor.Exec(q.q, node)

	var out []Match
	for {
		m, ok := cursor.NextMatch()
		if !ok {
			break
		}
		match := Match{Pattern: int(m.PatternIndex), q: q, rng: r}
		keep := false
		for _, c := range m.Captures {
			match.Captures = append(match.Captures, MatchCapture{Name: q.names[c.Index], Node: c.Node})
			if r.intersects(c.Node.StartByte(), c.Node.EndByte()) {
				keep = true
			}
		}
		if keep {
			out = append(out, match)
		}
	}
	return out
}

// Properties returns the #set! properties of the match's pattern.
func (m Match) Properties() map[string]string {
	return m.q.properties[m.Pattern]
}

// Accept evaluates every predicate of the match's pattern. Capture text
// is fetched through text only when a predicate needs it, and at most once
// per capture name.
func (m Match) Accept(text TextFunc) bool {
	preds := m.q.predicates[m.Pattern]
	if len(preds) == 0 {
		return true
	}
	cache := make(map[string]string, 2)
	lookup := func(name string) (string, bool) {
		if s, ok := cache[name]; ok {
			return s, true
		}
		for _, c := range m.Captures {
			if c.Name == name {
				s := text(c.Node.StartByte(), c.Node.EndByte())
				cache[name] = s
				return s, true
			}
		}
		return "", false
	}
	for _, p := range preds {
		if !p.eval(lookup) {
			return false
		}
	}
	return true
}

// Capture is a named node produced by an accepted match.
type Capture struct {
	Name       string
	Node       *sitter.Node
	StartByte  uint32
	EndByte    uint32
	Pattern    int
	Properties map[string]string
	Predicates []Predicate
}

// Len is the byte length of the captured span.
func (c Capture) Len() uint32 {
	return c.EndByte - c.StartByte
}

// Depth is the number of dotted segments in the capture name.
func (c Capture) Depth() int {
	if c.Name == "" {
		return 0
	}
	return strings.Count(c.Name, ".") + 1
}

// Captures flattens the accepted matches into captures that touch each
// match's range. Names starting with an underscore are helper captures
// used only by predicates and are dropped.
func Captures(matches []Match, text TextFunc) []Capture {
	var out []Capture
	for _, m := range matches {
		if !m.Accept(text) {
			continue
		}
		for _, c := range m.Captures {
			if strings.HasPrefix(c.Name, "_") {
				continue
			}
			start, end := c.Node.StartByte(), c.Node.EndByte()
			if !m.rng.intersects(start, end) {
				continue
			}
			out = append(out, Capture{
				Name:       c.Name,
				Node:       c.Node,
				StartByte:  start,
				EndByte:    end,
				Pattern:    m.Pattern,
				Properties: m.Properties(),
				Predicates: m.q.predicates[m.Pattern],
			})
		}
	}
	return out
}

// Compare orders captures for painting: ascending start, then longer
// spans first, then fewer name segments first.
func Compare(a, b Capture) int {
	if c := cmp.Compare(a.StartByte, b.StartByte); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Len(), a.Len()); c != 0 {
		return c
	}
	return cmp.Compare(a.Depth(), b.Depth())
}

// Sort orders caps in place by Compare. Ties keep their query order.
func Sort(caps []Capture) {
	slices.SortStableFunc(caps, Compare)
}
