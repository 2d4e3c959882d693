package syntax

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/dshills/textcore/internal/syntax/language"
	"github.com/dshills/textcore/internal/syntax/query"
)

// Injection query conventions. The language comes from a #set! property
// or from the text of a capture.
const (
	captureContent  = "injection.content"
	captureLanguage = "injection.language"
	propLanguage    = "injection.language"
)

type injection struct {
	lang *language.Language
	rng  sitter.Range
}

// injections runs l's injection query. Captures overlapping an earlier
// one are dropped.
func (m *Mode) injections(l *Layer) []injection {
	c := m.langs[l.lang]
	if c.injections == nil || l.tree == nil {
		return nil
	}
	var out []injection
	for _, match := range query.Exec(c.injections, l.root(), query.Range{}) {
		if !match.Accept(m.text) {
			continue
		}
		name := match.Properties()[propLanguage]
		var content *sitter.Node
		for _, mc := range match.Captures {
			switch mc.Name {
			case captureContent:
				if content == nil {
					content = mc.Node
				}
			case captureLanguage:
				if name == "" {
					name = m.text(mc.Node.StartByte(), mc.Node.EndByte())
				}
			}
		}
		if content == nil || name == "" || content.StartByte() == content.EndByte() {
			continue
		}
		lang, ok := m.registry.Lookup(strings.TrimSpace(name))
		if !ok {
			m.log.Debug("injection: unknown language %q", name)
			continue
		}
		rng := sitter.Range{
			StartByte:  content.StartByte(),
			EndByte:    content.EndByte(),
			StartPoint: content.StartPoint(),
			EndPoint:   content.EndPoint(),
		}
		if overlapsAny(out, rng) {
			continue
		}
		out = append(out, injection{lang: lang, rng: rng})
	}
	return out
}

func overlapsAny(list []injection, r sitter.Range) bool {
	for _, in := range list {
		if r.StartByte < in.rng.EndByte && in.rng.StartByte < r.EndByte {
			return true
		}
	}
	return false
}

// inject reconciles l's children with its current injection captures.
// A child whose language and range match a capture is kept. Other children
// are discarded and unmatched captures get a freshly parsed layer; the rows
// of both are added to rows.
func (m *Mode) inject(ctx context.Context, l *Layer, rows rowSet) error {
	found := m.injections(l)
	old := l.children
	kept := make(map[LayerID]bool, len(old))
	children := make([]LayerID, 0, len(found))

	for _, in := range found {
		if id, ok := m.matchChild(old, kept, in); ok {
			kept[id] = true
			children = append(children, id)
			continue
		}
		c := m.newLayer(in.lang, l.id, in.rng)
		if err := m.parse(ctx, c, rows); err != nil {
			m.discard(c.id, nil)
			for _, id := range old {
				if !kept[id] {
					children = append(children, id)
				}
			}
			l.children = children
			return err
		}
		rows.addSpan(m.rowOf, in.rng.StartByte, in.rng.EndByte, uint32(len(m.src)))
		children = append(children, c.id)
	}

	for _, id := range old {
		if !kept[id] {
			m.discard(id, rows)
		}
	}
	l.children = children
	return nil
}

func (m *Mode) matchChild(old []LayerID, kept map[LayerID]bool, in injection) (LayerID, bool) {
	for _, id := range old {
		if kept[id] {
			continue
		}
		c := m.layers[id]
		if c.lang == in.lang && c.rng.StartByte == in.rng.StartByte && c.rng.EndByte == in.rng.EndByte {
			c.rng = in.rng
			return id, true
		}
	}
	return NoLayer, false
}
