package language

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dshills/textcore/internal/syntax/indent"
)

// BundleError reports a manifest that could not be loaded.
type BundleError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *BundleError) Error() string {
	return fmt.Sprintf("bundle %s: %v", e.Path, e.Err)
}

// Unwrap returns the cause.
func (e *BundleError) Unwrap() error {
	return e.Err
}

// Manifest is the on-disk form of a bundle. Query file paths are relative
// to the manifest. When Grammar names a built-in language, unset fields
// inherit that language's values.
//
//	name = "go-strict"
//	grammar = "go"
//	extensions = [".go"]
//	highlights = "queries/go/highlights.scm"
//
//	[indent]
//	indent = ["block"]
//	outdent = ["}"]
type Manifest struct {
	Name            string         `toml:"name" yaml:"name"`
	Grammar         string         `toml:"grammar" yaml:"grammar"`
	Aliases         []string       `toml:"aliases" yaml:"aliases"`
	Extensions      []string       `toml:"extensions" yaml:"extensions"`
	Highlights      string         `toml:"highlights" yaml:"highlights"`
	Injections      string         `toml:"injections" yaml:"injections"`
	HighlightsQuery string         `toml:"highlights_query" yaml:"highlights_query"`
	InjectionsQuery string         `toml:"injections_query" yaml:"injections_query"`
	Indent          *indent.Scopes `toml:"indent" yaml:"indent"`
}

// IsManifest reports whether path has a manifest extension.
func IsManifest(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", ".yaml", ".yml":
		return true
	}
	return false
}

// ParseManifest decodes data by the extension of name.
func ParseManifest(name string, data []byte) (*Manifest, error) {
	var m Manifest
	switch strings.ToLower(filepath.Ext(name)) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&m); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported manifest format %q", filepath.Ext(name))
	}
	return &m, nil
}

// LoadBundle reads the manifest at path and builds its language.
func LoadBundle(path string) (*Language, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &BundleError{Path: path, Err: err}
	}
	m, err := ParseManifest(path, data)
	if err != nil {
		return nil, &BundleError{Path: path, Err: err}
	}
	l, err := m.build(filepath.Dir(path))
	if err != nil {
		return nil, &BundleError{Path: path, Err: err}
	}
	return l, nil
}

func (m *Manifest) build(dir string) (*Language, error) {
	if m.Grammar == "" {
		return nil, fmt.Errorf("%w: grammar not set", ErrInvalidLanguage)
	}
	grammar, ok := Grammar(m.Grammar)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGrammar, m.Grammar)
	}

	l := &Language{Grammar: grammar, GrammarName: strings.ToLower(m.Grammar)}
	for _, b := range Builtins() {
		if b.GrammarName == l.GrammarName {
			l = b
			break
		}
	}

	if m.Name != "" {
		l.Name = m.Name
	}
	if l.Name == "" {
		l.Name = l.GrammarName
	}
	if m.Aliases != nil {
		l.Aliases = m.Aliases
	}
	if m.Extensions != nil {
		l.Extensions = m.Extensions
	}
	if m.Indent != nil {
		l.Indent = *m.Indent
	}

	var err error
	if l.HighlightsQuery, err = pickQuery(dir, m.Highlights, m.HighlightsQuery, l.HighlightsQuery); err != nil {
		return nil, err
	}
	if l.InjectionsQuery, err = pickQuery(dir, m.Injections, m.InjectionsQuery, l.InjectionsQuery); err != nil {
		return nil, err
	}
	return l, nil
}

// pickQuery prefers a query file, then inline source, then the fallback.
func pickQuery(dir, file, inline, fallback string) (string, error) {
	if file != "" {
		if !filepath.IsAbs(file) {
			file = filepath.Join(dir, file)
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	if inline != "" {
		return inline, nil
	}
	return fallback, nil
}

// LoadDir loads every manifest directly inside dir, in name order. Broken
// manifests are skipped and reported together in the returned error.
func LoadDir(dir string) ([]*Language, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var (
		out  []*Language
		errs []error
	)
	for _, e := range entries {
		if e.IsDir() || !IsManifest(e.Name()) {
			continue
		}
		l, err := LoadBundle(filepath.Join(dir, e.Name()))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, l)
	}
	return out, errors.Join(errs...)
}

// LoadDir registers every loadable manifest in dir and returns the names
// registered.
func (r *Registry) LoadDir(dir string) ([]string, error) {
	langs, err := LoadDir(dir)
	names := make([]string, 0, len(langs))
	for _, l := range langs {
		if rerr := r.Register(l); rerr != nil {
			err = errors.Join(err, rerr)
			continue
		}
		names = append(names, l.Name)
	}
	return names, err
}
