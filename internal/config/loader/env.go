package loader

import (
	"os"
	"strconv"
	"strings"
)

// DefaultEnvPrefix is the prefix of recognized environment variables.
const DefaultEnvPrefix = "TEXTCORE_"

// EnvLoader turns prefixed environment variables into settings.
//
// Mapped variables go to their configured path. Any other prefixed
// variable is split at the first underscore after the prefix: the head
// names the section and the rest, lower-cased, names the key, so
// TEXTCORE_ENGINE_REBUILD_RATIO sets engine.rebuild_ratio.
type EnvLoader struct {
	prefix  string
	mapping map[string]string
	environ func() []string
}

// NewEnvLoader creates a loader with the default short-name mapping.
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: defaultEnvMapping(prefix),
		environ: os.Environ,
	}
}

// NewEnvLoaderFrom reads variables from environ instead of the process
// environment.
func NewEnvLoaderFrom(prefix string, environ []string) *EnvLoader {
	l := NewEnvLoader(prefix)
	l.environ = func() []string { return environ }
	return l
}

func defaultEnvMapping(prefix string) map[string]string {
	return map[string]string{
		prefix + "TAB_WIDTH":   "editor.tab_width",
		prefix + "USE_TABS":    "editor.use_tabs",
		prefix + "WRAP_LINES":  "editor.wrap_lines",
		prefix + "LINE_HEIGHT": "display.line_height",
		prefix + "GRAMMAR_DIR": "syntax.grammar_dir",
		prefix + "LOG_LEVEL":   "logging.level",
	}
}

// AddMapping routes envVar to a dotted settings path.
func (l *EnvLoader) AddMapping(envVar, path string) {
	l.mapping[envVar] = path
}

// Load implements Loader.
func (l *EnvLoader) Load() (map[string]any, error) {
	out := make(map[string]any)
	for _, kv := range l.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) {
			continue
		}
		path, mapped := l.mapping[name]
		if !mapped {
			path = l.envToPath(name)
			if path == "" {
				continue
			}
		}
		setByPath(out, path, parseValue(value))
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func (l *EnvLoader) envToPath(name string) string {
	rest := strings.TrimPrefix(name, l.prefix)
	section, key, ok := strings.Cut(rest, "_")
	if !ok || section == "" || key == "" {
		return ""
	}
	return strings.ToLower(section) + "." + strings.ToLower(key)
}

// parseValue picks the narrowest type the string parses as.
func parseValue(s string) any {
	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if strings.ContainsAny(s, ".eE") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return s
}

func setByPath(m map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	cur := m
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[p] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
}
