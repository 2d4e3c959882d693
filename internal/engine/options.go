package engine

import (
	"github.com/dshills/textcore/internal/config"
	"github.com/dshills/textcore/internal/logging"
	"github.com/dshills/textcore/internal/syntax/language"
)

// Option configures an Engine during creation.
type Option func(*Engine)

// WithContent sets the initial content of the engine.
func WithContent(content string) Option {
	return func(e *Engine) {
		e.initContent = content
	}
}

// WithLanguage attaches a grammar bundle. Without one the engine indexes
// lines only and syntax requests report syntax.ErrUnavailable.
func WithLanguage(lang *language.Language) Option {
	return func(e *Engine) {
		e.lang = lang
	}
}

// WithRegistry sets the registry used to resolve injected languages.
func WithRegistry(r *language.Registry) Option {
	return func(e *Engine) {
		if r != nil {
			e.registry = r
		}
	}
}

// WithSettings sets the initial settings. Invalid settings are rejected by
// New.
func WithSettings(s config.Settings) Option {
	return func(e *Engine) {
		e.settings = s
	}
}

// WithLogger sets the engine's logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}
