// Package language describes grammar bundles: a tree-sitter grammar with
// its highlight and injection queries and its indentation table.
package language

import (
	"errors"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/css"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/html"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/dshills/textcore/internal/syntax/indent"
)

var (
	// ErrUnknownGrammar indicates a grammar name with no compiled grammar.
	ErrUnknownGrammar = errors.New("unknown grammar")

	// ErrInvalidLanguage indicates a language without a name or grammar.
	ErrInvalidLanguage = errors.New("invalid language")
)

// Language is one grammar bundle.
type Language struct {
	Name       string
	Aliases    []string
	Extensions []string
	Grammar    *sitter.Language
	// GrammarName is the key of Grammar in the compiled grammar table.
	GrammarName string

	HighlightsQuery string
	InjectionsQuery string
	Indent          indent.Scopes
}

// Clone returns a copy that shares only the grammar.
func (l *Language) Clone() *Language {
	c := *l
	c.Aliases = slices.Clone(l.Aliases)
	c.Extensions = slices.Clone(l.Extensions)
	c.Indent = indent.Scopes{
		Indent:  slices.Clone(l.Indent.Indent),
		Outdent: slices.Clone(l.Indent.Outdent),
	}
	return &c
}

var grammars = map[string]func() *sitter.Language{
	"css":        css.GetLanguage,
	"go":         golang.GetLanguage,
	"html":       html.GetLanguage,
	"javascript": javascript.GetLanguage,
}

// Grammar returns a compiled grammar by name.
func Grammar(name string) (*sitter.Language, bool) {
	f, ok := grammars[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return f(), true
}

// GrammarNames lists the compiled grammars.
func GrammarNames() []string {
	names := make([]string, 0, len(grammars))
	for n := range grammars {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Registry resolves languages by name, alias or file extension.
type Registry struct {
	mu    sync.RWMutex
	langs map[string]*Language
	names map[string]string // lower-cased name or alias -> name
	exts  map[string]string // extension with dot -> name
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		langs: make(map[string]*Language),
		names: make(map[string]string),
		exts:  make(map[string]string),
	}
}

// DefaultRegistry creates a registry holding the built-in languages.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, l := range Builtins() {
		_ = r.Register(l)
	}
	return r
}

// Register adds l, replacing any language with the same name.
func (r *Registry) Register(l *Language) error {
	if l == nil || l.Name == "" || l.Grammar == nil {
		return ErrInvalidLanguage
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.langs[l.Name]; ok {
		r.forget(old)
	}
	r.langs[l.Name] = l
	r.names[strings.ToLower(l.Name)] = l.Name
	for _, a := range l.Aliases {
		r.names[strings.ToLower(a)] = l.Name
	}
	for _, e := range l.Extensions {
		r.exts[normalizeExt(e)] = l.Name
	}
	return nil
}

func (r *Registry) forget(l *Language) {
	for k, v := range r.names {
		if v == l.Name {
			delete(r.names, k)
		}
	}
	for k, v := range r.exts {
		if v == l.Name {
			delete(r.exts, k)
		}
	}
}

// Lookup finds a language by name or alias, ignoring case.
func (r *Registry) Lookup(name string) (*Language, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.names[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return r.langs[n], true
}

// ForPath finds a language by the extension of path.
func (r *Registry) ForPath(path string) (*Language, bool) {
	ext := filepath.Ext(path)
	if ext == "" {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.exts[normalizeExt(ext)]
	if !ok {
		return nil, false
	}
	return r.langs[n], true
}

// Names lists the registered language names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.langs))
	for n := range r.langs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func normalizeExt(e string) string {
	e = strings.ToLower(e)
	if !strings.HasPrefix(e, ".") {
		e = "." + e
	}
	return e
}
