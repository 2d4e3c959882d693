package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rivo/uniseg"
	"github.com/spf13/cobra"

	"github.com/dshills/textcore/internal/engine"
	"github.com/dshills/textcore/internal/engine/lines"
)

func newLinesCmd(a *app) *cobra.Command {
	var showText bool
	cmd := &cobra.Command{
		Use:   "lines FILE...",
		Short: "Print the line table",
		Long: `Print one row per line: row, character location, length, byte count,
delimiter, display width, vertical offset and height. Locations and lengths
count UTF-16 code units; the display width counts terminal cells with tabs
expanded to the configured tab width.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.forEachFile(cmd, args, func(_ context.Context, e *engine.Engine, w io.Writer) error {
				return printLines(e, w, a.settings.TabWidth, showText)
			})
		},
	}
	cmd.Flags().BoolVarP(&showText, "text", "t", false, "include each line's text")
	return cmd
}

func printLines(e *engine.Engine, w io.Writer, tabWidth int, showText bool) error {
	text := e.Text()
	fmt.Fprintf(w, "lines %d  chars %d  bytes %d  ending %s  height %g\n",
		e.LineCount(), e.Length(), e.ByteLength(), e.LineEnding(), e.ContentHeight())
	fmt.Fprintf(w, "%6s %8s %6s %6s %5s %5s %9s %6s\n", "row", "loc", "len", "bytes", "delim", "cols", "y", "height")

	var err error
	e.Lines(func(l lines.Line) bool {
		body := text[l.ByteLocation : l.ByteLocation+l.ByteLength()]
		_, err = fmt.Fprintf(w, "%6d %8d %6d %6d %5s %5d %9g %6g", l.Row, l.Location, l.Length(), l.ByteCount,
			delimiterName(text, l), displayWidth(body, tabWidth), l.YOffset, l.Height)
		if err == nil && showText {
			_, err = fmt.Fprintf(w, " %q", body)
		}
		if err == nil {
			_, err = fmt.Fprintln(w)
		}
		return err == nil
	})
	return err
}

func delimiterName(text string, l lines.Line) string {
	switch l.DelimiterLength {
	case 0:
		return "-"
	case 2:
		return `\r\n`
	}
	if text[l.ByteLocation+l.ByteLength()] == '\r' {
		return `\r`
	}
	return `\n`
}

// displayWidth is the number of terminal cells s occupies, with tabs
// advancing to the next multiple of tabWidth.
func displayWidth(s string, tabWidth int) int {
	cols := 0
	state := -1
	for s != "" {
		var cluster string
		var width int
		cluster, s, width, state = uniseg.FirstGraphemeClusterInString(s, state)
		if cluster == "\t" {
			cols += tabWidth - cols%tabWidth
			continue
		}
		cols += width
	}
	return cols
}
