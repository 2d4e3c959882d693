package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/textcore/internal/engine"
)

func newIndentCmd(a *app) *cobra.Command {
	var onlyDiff bool
	cmd := &cobra.Command{
		Use:   "indent FILE...",
		Short: "Print the suggested indentation of every line",
		Long: `Print the suggested indentation level of every non-blank line, computed
from the syntax tree of each layer covering the line's first character. Rows
whose current indentation differs are marked with '*'.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.forEachFile(cmd, args, func(ctx context.Context, e *engine.Engine, w io.Writer) error {
				return printIndent(ctx, e, w, onlyDiff)
			})
		},
	}
	cmd.Flags().BoolVarP(&onlyDiff, "diff", "d", false, "only print lines whose indentation differs")
	return cmd
}

func printIndent(ctx context.Context, e *engine.Engine, w io.Writer, onlyDiff bool) error {
	differ := 0
	for row := range e.LineCount() {
		line, err := e.LineText(row)
		if err != nil {
			return err
		}
		body := strings.TrimLeft(line, " \t")
		if body == "" {
			continue
		}
		level, err := e.SuggestedIndentLevel(ctx, row)
		if err != nil {
			return err
		}
		want, err := e.IndentString(ctx, row)
		if err != nil {
			return err
		}
		mark := " "
		if line[:len(line)-len(body)] != want {
			mark = "*"
			differ++
		} else if onlyDiff {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s%5d %3d  %s\n", mark, row, level, body); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d of %d lines differ\n", differ, e.LineCount())
	return err
}
