package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/textcore/internal/engine"
)

func newTreeCmd(a *app) *cobra.Command {
	var sexp bool
	cmd := &cobra.Command{
		Use:   "tree FILE...",
		Short: "Print the layers of the syntax forest",
		Long: `Print the root layer and every injected layer with its language and
byte range. With --sexp each layer's syntax tree is printed as an
S-expression.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.forEachFile(cmd, args, func(ctx context.Context, e *engine.Engine, w io.Writer) error {
				return printTree(ctx, e, w, sexp)
			})
		},
	}
	cmd.Flags().BoolVarP(&sexp, "sexp", "s", false, "print each layer's tree")
	return cmd
}

func printTree(ctx context.Context, e *engine.Engine, w io.Writer, sexp bool) error {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return err
	}
	defer snap.Close()
	if snap.Syntax == nil {
		return fmt.Errorf("no language for this file; use --lang")
	}

	for _, l := range snap.Syntax.Layers() {
		pad := strings.Repeat("  ", l.Depth)
		rng := "whole document"
		if !l.Range.IsZero() {
			rng = fmt.Sprintf("[%d, %d)", l.Range.Start, l.Range.End)
		}
		if _, err := fmt.Fprintf(w, "%s%s %s parses=%d id=%s\n", pad, l.Language, rng, l.Parses, l.ID); err != nil {
			return err
		}
		if !sexp {
			continue
		}
		if t := snap.Syntax.Tree(l.ID); t != nil {
			if _, err := fmt.Fprintf(w, "%s  %s\n", pad, t.RootNode().String()); err != nil {
				return err
			}
		}
	}
	return nil
}
