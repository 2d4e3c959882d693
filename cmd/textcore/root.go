package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/dshills/textcore/internal/config"
	"github.com/dshills/textcore/internal/engine"
	"github.com/dshills/textcore/internal/logging"
	"github.com/dshills/textcore/internal/syntax/language"
)

// app holds what every subcommand shares once flags are parsed.
type app struct {
	configPath string
	langName   string
	logLevel   string

	settings config.Settings
	log      *logging.Logger
	registry *language.Registry
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "textcore",
		Short: "Inspect documents with the textcore line index and syntax forest",
		Long: `textcore loads documents into the incremental text engine and reports
what it sees: the line table, highlight captures, suggested indentation and
the layers of the syntax forest, including injected languages.`,
		Version:           fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return a.setup(cmd.ErrOrStderr()) },
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "path to a TOML settings file")
	flags.StringVarP(&a.langName, "lang", "l", "", "language name or alias (default: by file extension)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides settings)")

	root.AddCommand(
		newLinesCmd(a),
		newCapturesCmd(a),
		newIndentCmd(a),
		newTreeCmd(a),
		newWatchCmd(a),
	)
	return root
}

func (a *app) setup(stderr io.Writer) error {
	s, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if a.logLevel != "" {
		s.LogLevel = a.logLevel
	}
	if err := s.Validate(); err != nil {
		return err
	}
	level, err := logging.ParseLevel(s.LogLevel)
	if err != nil {
		return err
	}
	cfg := logging.DefaultConfig()
	cfg.Level = level
	cfg.Output = stderr
	a.settings = s
	a.log = logging.New(cfg)

	a.registry = language.DefaultRegistry()
	if s.GrammarDir != "" {
		names, err := a.registry.LoadDir(s.GrammarDir)
		if err != nil {
			a.log.Warn("grammar bundles in %s: %v", s.GrammarDir, err)
		}
		if len(names) > 0 {
			a.log.Info("loaded grammars %v from %s", names, s.GrammarDir)
		}
	}
	return nil
}

// language picks the language for path: the --lang flag first, then the
// file extension. It returns nil when neither resolves.
func (a *app) language(path string) (*language.Language, error) {
	if a.langName != "" {
		l, ok := a.registry.Lookup(a.langName)
		if !ok {
			return nil, fmt.Errorf("unknown language %q (have %v)", a.langName, a.registry.Names())
		}
		return l, nil
	}
	l, _ := a.registry.ForPath(path)
	return l, nil
}

// open loads path into a new engine. A UTF-8 byte order mark is dropped
// and UTF-16 files with a byte order mark are transcoded to UTF-8.
func (a *app) open(path string) (*engine.Engine, error) {
	lang, err := a.language(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	opts := []engine.Option{
		engine.WithSettings(a.settings),
		engine.WithLogger(a.log.WithField("file", path)),
		engine.WithRegistry(a.registry),
	}
	if lang != nil {
		opts = append(opts, engine.WithLanguage(lang))
	}
	r := transform.NewReader(f, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	e, err := engine.NewFromReader(r, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return e, nil
}

// report is the per-file body of a subcommand.
type report func(ctx context.Context, e *engine.Engine, w io.Writer) error

// forEachFile runs fn over every file concurrently and prints the reports
// in argument order, each under a header when there is more than one.
func (a *app) forEachFile(cmd *cobra.Command, files []string, fn report) error {
	out := make([]bytes.Buffer, len(files))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range files {
		g.Go(func() error {
			e, err := a.open(path)
			if err != nil {
				return err
			}
			defer e.Close()
			if err := fn(ctx, e, &out[i]); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for i, path := range files {
		if len(files) > 1 {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "==> %s <==\n", path)
		}
		if _, err := out[i].WriteTo(w); err != nil {
			return err
		}
	}
	return nil
}
