package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/dshills/textcore/internal/config/loader"
	"github.com/dshills/textcore/internal/logging"
)

// Settings are the values the text index and syntax layers read.
type Settings struct {
	// TabWidth is the number of columns one indentation level occupies.
	TabWidth int
	// UseTabs indents with tab characters instead of spaces.
	UseTabs bool
	// WrapLines is carried for hosts that lay out wrapped lines; it
	// changes nothing in the index itself.
	WrapLines bool

	// LineHeight is the default pixel height of a line.
	LineHeight float64
	// LineHeightMultiplier scales LineHeight.
	LineHeightMultiplier float64

	// RebuildRatio is the fraction of the document an insertion must
	// reach before the index is rebuilt instead of edited in place.
	RebuildRatio float64
	// RebuildMinBytes is the smallest insertion that may trigger a rebuild.
	RebuildMinBytes int

	// GrammarDir holds grammar bundle manifests; empty means built-ins only.
	GrammarDir string

	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		TabWidth:             4,
		UseTabs:              false,
		LineHeight:           16,
		LineHeightMultiplier: 1,
		RebuildRatio:         0.5,
		RebuildMinBytes:      64 * 1024,
		LogLevel:             "info",
	}
}

// EffectiveLineHeight is LineHeight scaled by the multiplier.
func (s Settings) EffectiveLineHeight() float64 {
	return s.LineHeight * s.LineHeightMultiplier
}

// Validate reports the first out-of-range value.
func (s Settings) Validate() error {
	switch {
	case s.TabWidth < 1 || s.TabWidth > 16:
		return invalid("editor.tab_width", s.TabWidth, "must be between 1 and 16")
	case !(s.LineHeight > 0) || math.IsInf(s.LineHeight, 0):
		return invalid("display.line_height", s.LineHeight, "must be positive")
	case !(s.LineHeightMultiplier > 0) || math.IsInf(s.LineHeightMultiplier, 0):
		return invalid("display.line_height_multiplier", s.LineHeightMultiplier, "must be positive")
	case !(s.RebuildRatio > 0):
		return invalid("engine.rebuild_ratio", s.RebuildRatio, "must be positive")
	case s.RebuildMinBytes < 0:
		return invalid("engine.rebuild_min_bytes", s.RebuildMinBytes, "must not be negative")
	}
	if _, err := logging.ParseLevel(s.LogLevel); err != nil {
		return invalid("logging.level", s.LogLevel, err.Error())
	}
	return nil
}

// field binds a dotted settings path to a struct member.
type field struct {
	path string
	get  func(*Settings) any
	set  func(*Settings, any) error
}

var fields = []field{
	{"editor.tab_width", func(s *Settings) any { return s.TabWidth }, func(s *Settings, v any) (err error) {
		s.TabWidth, err = asInt(v)
		return
	}},
	{"editor.use_tabs", func(s *Settings) any { return s.UseTabs }, func(s *Settings, v any) (err error) {
		s.UseTabs, err = asBool(v)
		return
	}},
	{"editor.wrap_lines", func(s *Settings) any { return s.WrapLines }, func(s *Settings, v any) (err error) {
		s.WrapLines, err = asBool(v)
		return
	}},
	{"display.line_height", func(s *Settings) any { return s.LineHeight }, func(s *Settings, v any) (err error) {
		s.LineHeight, err = asFloat(v)
		return
	}},
	{"display.line_height_multiplier", func(s *Settings) any { return s.LineHeightMultiplier }, func(s *Settings, v any) (err error) {
		s.LineHeightMultiplier, err = asFloat(v)
		return
	}},
	{"engine.rebuild_ratio", func(s *Settings) any { return s.RebuildRatio }, func(s *Settings, v any) (err error) {
		s.RebuildRatio, err = asFloat(v)
		return
	}},
	{"engine.rebuild_min_bytes", func(s *Settings) any { return s.RebuildMinBytes }, func(s *Settings, v any) (err error) {
		s.RebuildMinBytes, err = asInt(v)
		return
	}},
	{"syntax.grammar_dir", func(s *Settings) any { return s.GrammarDir }, func(s *Settings, v any) (err error) {
		s.GrammarDir, err = asString(v)
		return
	}},
	{"logging.level", func(s *Settings) any { return s.LogLevel }, func(s *Settings, v any) (err error) {
		s.LogLevel, err = asString(v)
		return
	}},
}

// Paths lists every recognized settings path.
func Paths() []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.path
	}
	return out
}

// Get returns the value at a dotted path.
func (s Settings) Get(path string) (any, error) {
	for _, f := range fields {
		if f.path == path {
			return f.get(&s), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownSetting, path)
}

// FromMap overlays a nested settings map onto the defaults. Unknown keys
// are returned so callers can warn about them.
func FromMap(m map[string]any) (Settings, []string, error) {
	s := Default()
	unknown, err := s.apply(m)
	if err != nil {
		return Settings{}, nil, err
	}
	return s, unknown, s.Validate()
}

func (s *Settings) apply(m map[string]any) ([]string, error) {
	flat := make(map[string]any)
	flatten("", m, flat)

	known := make(map[string]bool, len(fields))
	for _, f := range fields {
		known[f.path] = true
		v, ok := flat[f.path]
		if !ok {
			continue
		}
		if err := f.set(s, v); err != nil {
			return nil, fmt.Errorf("%s: %w", f.path, err)
		}
	}

	var unknown []string
	for p := range flat {
		if !known[p] {
			unknown = append(unknown, p)
		}
	}
	return unknown, nil
}

func flatten(prefix string, m map[string]any, out map[string]any) {
	for k, v := range m {
		p := k
		if prefix != "" {
			p = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			flatten(p, sub, out)
			continue
		}
		out[p] = v
	}
}

// Load reads the TOML file at path (optional; empty or missing means
// defaults) and then applies TEXTCORE_* environment overrides.
func Load(path string) (Settings, error) {
	s, _, err := LoadWith(loader.NewTOMLLoader(path), loader.NewEnvLoader(loader.DefaultEnvPrefix))
	return s, err
}

// LoadWith merges the loaders in order over the defaults.
func LoadWith(loaders ...loader.Loader) (Settings, []string, error) {
	m, err := loader.Chain(loaders...)
	if err != nil {
		return Settings{}, nil, err
	}
	return FromMap(m)
}

func asInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n == math.Trunc(n) {
			return int(n), nil
		}
	}
	return 0, mismatch("integer", v)
}

func asFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	}
	return 0, mismatch("number", v)
}

func asBool(v any) (bool, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	return false, mismatch("boolean", v)
}

func asString(v any) (string, error) {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s), nil
	}
	return "", mismatch("string", v)
}
