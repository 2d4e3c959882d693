package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/textcore/internal/engine"
	"github.com/dshills/textcore/internal/syntax"
	"github.com/dshills/textcore/internal/syntax/highlight"
)

func newCapturesCmd(a *app) *cobra.Command {
	var (
		rangeFlag string
		tokens    bool
	)
	cmd := &cobra.Command{
		Use:   "captures FILE...",
		Short: "Print highlight captures in highlighting order",
		Long: `Print the highlight captures of every syntax layer, ordered by start
byte, then longest first, then least specific name first. With --tokens the
captures are classified and flattened into non-overlapping tokens.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := parseByteRange(rangeFlag)
			if err != nil {
				return err
			}
			return a.forEachFile(cmd, args, func(ctx context.Context, e *engine.Engine, w io.Writer) error {
				if tokens {
					return printTokens(ctx, e, r, w)
				}
				return printCaptures(ctx, e, r, w)
			})
		},
	}
	cmd.Flags().StringVarP(&rangeFlag, "range", "r", "", "byte range START:END (default: whole file)")
	cmd.Flags().BoolVar(&tokens, "tokens", false, "print flattened token types instead of captures")
	return cmd
}

// parseByteRange parses "START:END". Either side may be empty.
func parseByteRange(s string) (syntax.ByteRange, error) {
	if s == "" {
		return syntax.ByteRange{}, nil
	}
	lo, hi, ok := strings.Cut(s, ":")
	if !ok {
		return syntax.ByteRange{}, fmt.Errorf("range %q: want START:END", s)
	}
	var r syntax.ByteRange
	if lo != "" {
		v, err := strconv.ParseUint(lo, 10, 32)
		if err != nil {
			return r, fmt.Errorf("range start: %w", err)
		}
		r.Start = uint32(v)
	}
	r.End = ^uint32(0)
	if hi != "" {
		v, err := strconv.ParseUint(hi, 10, 32)
		if err != nil {
			return r, fmt.Errorf("range end: %w", err)
		}
		r.End = uint32(v)
	}
	if r.End < r.Start {
		return r, fmt.Errorf("range %q: end before start", s)
	}
	return r, nil
}

func printCaptures(ctx context.Context, e *engine.Engine, r syntax.ByteRange, w io.Writer) error {
	caps, err := e.Captures(ctx, r)
	if err != nil {
		return err
	}
	text := e.Text()
	for _, c := range caps {
		tt := highlight.TokenTypeFromCapture(c.Name)
		if _, err := fmt.Fprintf(w, "%6d %6d  %-28s %-24s %s\n",
			c.StartByte, c.EndByte, c.Name, tt, snippet(text, c.StartByte, c.EndByte)); err != nil {
			return err
		}
	}
	return nil
}

func printTokens(ctx context.Context, e *engine.Engine, r syntax.ByteRange, w io.Writer) error {
	toks, err := e.Tokens(ctx, r)
	if err != nil {
		return err
	}
	text := e.Text()
	for _, t := range highlight.Flatten(toks) {
		if _, err := fmt.Fprintf(w, "%6d %6d  %-24s %s\n",
			t.StartByte, t.EndByte, t.Type, snippet(text, t.StartByte, t.EndByte)); err != nil {
			return err
		}
	}
	return nil
}

const maxSnippet = 40

func snippet(text string, start, end uint32) string {
	end = min(end, uint32(len(text)))
	s := text[min(start, end):end]
	if len(s) > maxSnippet {
		s = s[:maxSnippet] + "..."
	}
	return strconv.Quote(s)
}
