package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/textcore/internal/config"
	"github.com/dshills/textcore/internal/config/watcher"
	"github.com/dshills/textcore/internal/engine"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch FILE",
		Short: "Follow a file and report what each change does to the engine",
		Long: `Load FILE and keep it in sync with the file on disk. Each save is applied
as one replacement and reported with its changed rows. The settings file
(--config) and the grammar bundle directory (syntax.grammar_dir) are reloaded
when they change. Stop with Ctrl-C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.watch(cmd.Context(), args[0], cmd.OutOrStdout())
		},
	}
}

type follower struct {
	a    *app
	path string
	e    *engine.Engine

	mu sync.Mutex
	w  io.Writer
}

func (f *follower) printf(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fmt.Fprintf(f.w, format, args...)
}

func (a *app) watch(ctx context.Context, path string, w io.Writer) error {
	e, err := a.open(path)
	if err != nil {
		return err
	}
	defer e.Close()

	f := &follower{a: a, path: path, e: e, w: w}
	f.printf("%s: %d lines, %d bytes\n", path, e.LineCount(), e.ByteLength())

	store := config.NewStore(a.settings, config.WithStoreLogger(a.log))
	sub, err := e.Watch(store)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	fileWatcher, err := watcher.New(func([]watcher.Event) { f.reloadFile(ctx) }, watcher.WithLogger(a.log))
	if err != nil {
		return err
	}
	defer fileWatcher.Close()
	if err := fileWatcher.Add(path); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return fileWatcher.Run(ctx) })
	if a.configPath != "" {
		g.Go(func() error { return store.Watch(ctx, a.configPath) })
	}
	if dir := a.settings.GrammarDir; dir != "" {
		grammarWatcher, err := watcher.New(func([]watcher.Event) { f.reloadGrammars(ctx, dir) },
			watcher.WithLogger(a.log), watcher.WithExtensions(".toml", ".yaml", ".yml", ".scm"))
		if err != nil {
			return err
		}
		defer grammarWatcher.Close()
		if err := grammarWatcher.Add(dir); err != nil {
			return err
		}
		g.Go(func() error { return grammarWatcher.Run(ctx) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// reloadFile applies the file's new content as a single replacement.
func (f *follower) reloadFile(ctx context.Context) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		f.a.log.Warn("read %s: %v", f.path, err)
		return
	}
	res, err := f.e.Replace(ctx, 0, f.e.Length(), string(data))
	if err != nil {
		f.a.log.Warn("apply %s: %v", f.path, err)
		return
	}
	f.printf("rev %d: %d lines, %d changed rows, rebuilt=%t\n",
		f.e.RevisionID(), f.e.LineCount(), len(res.ChangedRows), res.Rebuilt)
}

// reloadGrammars reloads the bundle directory and reattaches the file's
// language when its bundle was among those reloaded.
func (f *follower) reloadGrammars(ctx context.Context, dir string) {
	names, err := f.a.registry.LoadDir(dir)
	if err != nil {
		f.a.log.Warn("grammar bundles in %s: %v", dir, err)
	}
	cur := f.e.Language()
	if cur == nil || !slices.Contains(names, cur.Name) {
		return
	}
	lang, ok := f.a.registry.Lookup(cur.Name)
	if !ok {
		return
	}
	if err := f.e.SetLanguage(ctx, lang); err != nil {
		f.a.log.Warn("reattach %s: %v", cur.Name, err)
		return
	}
	f.printf("grammar %s reloaded\n", cur.Name)
}
