// Package config loads and publishes textcore settings.
//
// Settings come from three layers, lowest first:
//
//  1. built-in defaults (Default)
//  2. a TOML file (loader.TOMLLoader)
//  3. TEXTCORE_* environment variables (loader.EnvLoader)
//
// A settings file looks like:
//
//	[editor]
//	tab_width = 4
//	use_tabs = false
//
//	[display]
//	line_height = 16
//	line_height_multiplier = 1.0
//
//	[engine]
//	rebuild_ratio = 0.5
//	rebuild_min_bytes = 65536
//
//	[syntax]
//	grammar_dir = "/usr/share/textcore/grammars"
//
//	[logging]
//	level = "info"
//
// A Store holds the active value and a version counter. Each change is
// published through a notify.Notifier; Store.Watch reloads the file when
// the watcher reports that it changed.
package config
