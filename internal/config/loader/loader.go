// Package loader reads raw settings maps from TOML files and the
// environment.
//
// Loaders produce nested map[string]any values keyed by section name.
// Decoding into typed settings happens in the config package so that
// every source goes through the same validation.
package loader

import (
	"io/fs"
	"os"
)

// Loader produces a settings map from one source.
// A source that does not exist yields nil, nil.
type Loader interface {
	Load() (map[string]any, error)
}

// FileSystem is the subset of file operations the loaders need.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	Stat(path string) (fs.FileInfo, error)
}

// OSFS reads from the host file system.
type OSFS struct{}

// ReadFile implements FileSystem.
func (OSFS) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

// Stat implements FileSystem.
func (OSFS) Stat(path string) (fs.FileInfo, error) { return os.Stat(path) }

// DefaultFS returns the host file system.
func DefaultFS() FileSystem {
	return OSFS{}
}

// Chain runs loaders in order and deep-merges their output; later loaders
// override earlier ones.
func Chain(loaders ...Loader) (map[string]any, error) {
	out := make(map[string]any)
	for _, l := range loaders {
		m, err := l.Load()
		if err != nil {
			return nil, err
		}
		if m != nil {
			out = DeepMerge(out, m)
		}
	}
	return out, nil
}

// DeepMerge merges src into dst and returns dst. Nested maps merge
// recursively; any other value in src replaces the one in dst.
func DeepMerge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for k, v := range src {
		sm, srcIsMap := v.(map[string]any)
		dm, dstIsMap := dst[k].(map[string]any)
		if srcIsMap && dstIsMap {
			dst[k] = DeepMerge(dm, sm)
			continue
		}
		if srcIsMap {
			dst[k] = DeepMerge(nil, sm)
			continue
		}
		dst[k] = v
	}
	return dst
}
