package engine

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dshills/textcore/internal/config"
	"github.com/dshills/textcore/internal/engine/buffer"
	"github.com/dshills/textcore/internal/engine/lines"
	"github.com/dshills/textcore/internal/syntax"
	"github.com/dshills/textcore/internal/syntax/highlight"
	"github.com/dshills/textcore/internal/syntax/language"
)

func mustNew(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

// ============================================================================
// Basic Operations
// ============================================================================

func TestNew(t *testing.T) {
	e := mustNew(t)
	if e.Length() != 0 {
		t.Errorf("expected empty engine, got length %d", e.Length())
	}
	if e.LineCount() != 1 {
		t.Errorf("expected 1 line, got %d", e.LineCount())
	}
	if e.Text() != "" {
		t.Errorf("expected empty text, got %q", e.Text())
	}
}

func TestNewFromReader(t *testing.T) {
	content := "one\ntwo\n"
	e, err := NewFromReader(strings.NewReader(content))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer e.Close()

	if e.Text() != content {
		t.Errorf("expected %q, got %q", content, e.Text())
	}
	if e.LineCount() != 3 {
		t.Errorf("expected 3 lines, got %d", e.LineCount())
	}
}

func TestLineEndingDetectedOnLoad(t *testing.T) {
	tests := []struct {
		content string
		want    buffer.LineEnding
	}{
		{"", buffer.LineEndingLF},
		{"a\nb\n", buffer.LineEndingLF},
		{"a\r\nb\r\nc\n", buffer.LineEndingCRLF},
		{"a\rb\r", buffer.LineEndingCR},
	}
	for _, tt := range tests {
		e := mustNew(t, WithContent(tt.content))
		if got := e.LineEnding(); got != tt.want {
			t.Errorf("%q: expected %s, got %s", tt.content, tt.want, got)
		}
	}
}

func TestNewRejectsInvalidSettings(t *testing.T) {
	s := config.Default()
	s.TabWidth = 0
	_, err := New(WithSettings(s))
	if !errors.Is(err, config.ErrInvalidSetting) {
		t.Fatalf("expected ErrInvalidSetting, got %v", err)
	}
}

func TestInsertLFAfterCR(t *testing.T) {
	ctx := context.Background()
	e := mustNew(t, WithContent("a\r"))
	if e.LineCount() != 2 {
		t.Fatalf("expected 2 lines, got %d", e.LineCount())
	}

	if _, err := e.InsertText(ctx, "\n", 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.LineCount() != 2 {
		t.Fatalf("expected 2 lines after merge, got %d", e.LineCount())
	}
	l, err := e.LineAtRow(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.DelimiterLength != 2 {
		t.Errorf("expected CRLF delimiter, got %d", l.DelimiterLength)
	}
	if got, _ := e.LineText(0); got != "a" {
		t.Errorf("expected %q, got %q", "a", got)
	}
}

func TestRemoveTextJoinsLines(t *testing.T) {
	ctx := context.Background()
	e := mustNew(t, WithContent("one\ntwo\nthree"))

	res, err := e.RemoveText(ctx, 3, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Text() != "one\nthree" {
		t.Errorf("got %q", e.Text())
	}
	if e.LineCount() != 2 {
		t.Errorf("expected 2 lines, got %d", e.LineCount())
	}
	if len(res.ChangeSet.Removed()) != 1 {
		t.Errorf("expected one removed line, got %v", res.ChangeSet.Removed())
	}
	if res.Rebuilt {
		t.Error("small edit must not rebuild")
	}
}

func TestRemoveLFOfCRLFBeforeEmptyLine(t *testing.T) {
	ctx := context.Background()
	e := mustNew(t, WithContent("\r\n\n"))

	if _, err := e.RemoveText(ctx, 1, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Text() != "\r\n" {
		t.Fatalf("got %q", e.Text())
	}
	if e.LineCount() != 2 {
		t.Errorf("expected 2 lines, got %d", e.LineCount())
	}
	line, err := e.LineAtRow(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line.DelimiterLength != 2 {
		t.Errorf("expected CRLF delimiter, got length %d", line.DelimiterLength)
	}
}

func TestReplaceUTF16(t *testing.T) {
	ctx := context.Background()
	e := mustNew(t, WithContent("é😀x"))

	if e.Length() != 4 {
		t.Fatalf("expected 4 characters, got %d", e.Length())
	}
	if e.ByteLength() != 7 {
		t.Fatalf("expected 7 bytes, got %d", e.ByteLength())
	}
	res, err := e.InsertText(ctx, "y", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Text() != "é😀yx" {
		t.Errorf("got %q", e.Text())
	}
	if res.Edit.StartByte != 6 || res.Edit.NewEndByte != 7 {
		t.Errorf("unexpected edit %+v", res.Edit)
	}
}

func TestEditErrors(t *testing.T) {
	ctx := context.Background()
	e := mustNew(t, WithContent("hello"))

	tests := []struct {
		name     string
		location int
		length   int
		want     error
	}{
		{"negative location", -1, 0, ErrOffsetOutOfRange},
		{"location past end", 6, 0, ErrOffsetOutOfRange},
		{"negative length", 0, -1, ErrRangeInvalid},
		{"range past end", 2, 10, ErrRangeInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Replace(ctx, tt.location, tt.length, "x")
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
	if e.Text() != "hello" {
		t.Errorf("failed edits changed the text: %q", e.Text())
	}

	if _, err := e.LineAtRow(1); !errors.Is(err, ErrRowOutOfRange) {
		t.Errorf("expected ErrRowOutOfRange, got %v", err)
	}
	if _, err := e.LineContainingCharacterAt(6); !errors.Is(err, ErrOffsetOutOfRange) {
		t.Errorf("expected ErrOffsetOutOfRange, got %v", err)
	}
	if _, err := e.LineAtByteOffset(-1); !errors.Is(err, ErrOffsetOutOfRange) {
		t.Errorf("expected ErrOffsetOutOfRange, got %v", err)
	}
}

func TestNoopEdit(t *testing.T) {
	e := mustNew(t, WithContent("abc"))
	rev := e.RevisionID()
	res, err := e.Replace(context.Background(), 1, 0, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.ChangeSet.IsEmpty() || e.RevisionID() != rev {
		t.Error("empty replace changed the document")
	}
}

func TestClosed(t *testing.T) {
	e, err := New(WithContent("x"), WithLanguage(language.Go()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e.Close()
	e.Close()

	if _, err := e.InsertText(context.Background(), "y", 0); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if _, err := e.Captures(context.Background(), syntax.ByteRange{}); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if _, ok := <-e.HighlightResults(); ok {
		t.Error("results channel should be closed")
	}
}

// ============================================================================
// Line Queries
// ============================================================================

func TestLineQueries(t *testing.T) {
	e := mustNew(t, WithContent("ab\r\ncd\nef"))

	l, err := e.LineContainingCharacterAt(5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Row != 1 || l.Location != 4 {
		t.Errorf("unexpected line %+v", l)
	}

	l, err = e.LineAtByteOffset(7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Row != 2 {
		t.Errorf("expected row 2, got %d", l.Row)
	}

	if got := e.LineAtYOffset(-5).Row; got != 0 {
		t.Errorf("expected clamp to row 0, got %d", got)
	}
	if got := e.LineAtYOffset(1e9).Row; got != 2 {
		t.Errorf("expected clamp to row 2, got %d", got)
	}

	var texts []string
	e.Lines(func(l lines.Line) bool {
		s, _ := e.buf.Slice(l.ByteLocation, l.ByteLocation+l.ByteLength())
		texts = append(texts, string(s))
		return true
	})
	if !slices.Equal(texts, []string{"ab", "cd", "ef"}) {
		t.Errorf("unexpected lines %q", texts)
	}
}

func TestLSPPosition(t *testing.T) {
	e := mustNew(t, WithContent("ab\n😀c"))

	pos, err := e.LSPPosition(5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pos.Line != 1 || pos.Character != 2 {
		t.Errorf("unexpected position %+v", pos)
	}
	loc, err := e.LocationForLSP(pos)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc != 5 {
		t.Errorf("expected 5, got %d", loc)
	}
	if _, err := e.LSPPosition(9); !errors.Is(err, ErrOffsetOutOfRange) {
		t.Errorf("expected ErrOffsetOutOfRange, got %v", err)
	}
}

// ============================================================================
// Settings
// ============================================================================

func TestApplySettings(t *testing.T) {
	e := mustNew(t, WithContent("a\nb\nc"))
	if e.ContentHeight() != 48 {
		t.Fatalf("expected 48, got %v", e.ContentHeight())
	}
	if err := e.SetLineHeight(0, 30); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := config.Default()
	s.LineHeight = 20
	if err := e.ApplySettings(s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ContentHeight() != 70 {
		t.Errorf("expected 70, got %v", e.ContentHeight())
	}

	s.LineHeight = -1
	if err := e.ApplySettings(s); !errors.Is(err, config.ErrInvalidSetting) {
		t.Errorf("expected ErrInvalidSetting, got %v", err)
	}
	if e.Settings().LineHeight != 20 {
		t.Error("invalid settings were applied")
	}
}

func TestWatchStore(t *testing.T) {
	e := mustNew(t, WithContent("a\nb"))
	store := config.NewStore(config.Default())

	sub, err := e.Watch(store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Update("display.line_height", 10.0, "test"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ContentHeight() != 20 {
		t.Errorf("expected 20, got %v", e.ContentHeight())
	}
	if _, err := store.Update("editor.tab_width", 2, "test"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Settings().TabWidth != 2 {
		t.Errorf("expected tab width 2, got %d", e.Settings().TabWidth)
	}

	sub.Unsubscribe()
	if _, err := store.Update("display.line_height", 12.0, "test"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ContentHeight() != 20 {
		t.Errorf("unsubscribed engine changed height to %v", e.ContentHeight())
	}
}

func TestRebuildPath(t *testing.T) {
	s := config.Default()
	s.RebuildMinBytes = 16
	s.RebuildRatio = 0.5
	ctx := context.Background()
	e := mustNew(t, WithContent("package main\n"), WithLanguage(language.Go()), WithSettings(s))

	text := strings.Repeat("func a() {}\n", 4)
	res, err := e.InsertText(ctx, text, 13)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Rebuilt || !res.ChangeSet.Rebuilt {
		t.Fatal("expected the rebuild path")
	}
	if len(res.ChangedRows) != e.LineCount() {
		t.Errorf("expected every row changed, got %v", res.ChangedRows)
	}
	if e.LineCount() != 6 {
		t.Errorf("expected 6 lines, got %d", e.LineCount())
	}
	n, err := e.NodeAt(ctx, 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Type() != "func" {
		t.Errorf("expected func, got %q", n.Type())
	}

	// A small edit afterwards is incremental again.
	res, err = e.InsertText(ctx, "b", 19)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Rebuilt {
		t.Error("small edit must not rebuild")
	}
}

// ============================================================================
// Syntax
// ============================================================================

func TestChangedRows(t *testing.T) {
	ctx := context.Background()
	src := "package main\n\nfunc a() {\n\tx := 1\n}\n"
	e := mustNew(t, WithContent(src), WithLanguage(language.Go()))

	at := strings.Index(src, "x :=")
	res, err := e.Replace(ctx, at, 1, "y")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Contains(res.ChangedRows, 3) {
		t.Errorf("expected row 3 in %v", res.ChangedRows)
	}
	if slices.Contains(res.ChangedRows, 0) {
		t.Errorf("row 0 did not change: %v", res.ChangedRows)
	}
	if res.Edit.StartPoint != (syntax.Point{Row: 3, Column: 1}) {
		t.Errorf("unexpected start point %v", res.Edit.StartPoint)
	}
}

func TestChangedRowsWithoutLanguage(t *testing.T) {
	e := mustNew(t, WithContent("abc\ndef"))
	res, err := e.InsertText(context.Background(), "x\ny", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(res.ChangedRows, []int{0, 1}) {
		t.Errorf("expected [0 1], got %v", res.ChangedRows)
	}
	if _, err := e.Captures(context.Background(), syntax.ByteRange{}); !errors.Is(err, syntax.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestCapturesAndTokens(t *testing.T) {
	ctx := context.Background()
	src := "package main\n\nfunc main() {}\n"
	e := mustNew(t, WithContent(src), WithLanguage(language.Go()))

	caps, err := e.Captures(ctx, syntax.ByteRange{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	at := uint32(strings.Index(src, "func"))
	found := false
	for _, c := range caps {
		if c.StartByte == at && c.EndByte == at+4 {
			found = true
		}
	}
	if !found {
		t.Errorf("no capture for func in %v", caps)
	}

	toks, err := e.Tokens(ctx, syntax.ByteRange{Start: at, End: at + 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.ContainsFunc(toks, func(tok highlight.Token) bool {
		return tok.StartByte == at && tok.Type.IsKeyword()
	}) {
		t.Errorf("expected a keyword token, got %v", toks)
	}
}

func TestNodeAt(t *testing.T) {
	ctx := context.Background()
	e := mustNew(t, WithContent("package main\n"), WithLanguage(language.Go()))

	n, err := e.NodeAt(ctx, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Type() != "package" {
		t.Errorf("expected package, got %q", n.Type())
	}
	n, err = e.NodeAt(ctx, 0, 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Type() != "package_identifier" {
		t.Errorf("expected package_identifier, got %q", n.Type())
	}
	if _, err := e.NodeAt(ctx, 5, 0); !errors.Is(err, ErrRowOutOfRange) {
		t.Errorf("expected ErrRowOutOfRange, got %v", err)
	}
}

func TestSuggestedIndent(t *testing.T) {
	ctx := context.Background()
	src := "package main\n\nfunc main() {\n\tif ok {\n\t\tx := 1\n\t}\n}\n"
	e := mustNew(t, WithContent(src), WithLanguage(language.Go()))

	want := map[int]int{0: 0, 3: 1, 4: 2, 5: 1, 6: 0}
	for row, level := range want {
		got, err := e.SuggestedIndentLevel(ctx, row)
		if err != nil {
			t.Fatalf("row %d: %v", row, err)
		}
		if got != level {
			t.Errorf("row %d: expected %d, got %d", row, level, got)
		}
	}

	s, err := e.IndentString(ctx, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != "        " {
		t.Errorf("expected 8 spaces, got %q", s)
	}
	settings := config.Default()
	settings.UseTabs = true
	if err := e.ApplySettings(settings); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s, _ := e.IndentString(ctx, 4); s != "\t\t" {
		t.Errorf("expected two tabs, got %q", s)
	}
}

func TestInjectedLayers(t *testing.T) {
	ctx := context.Background()
	src := "<script>let x=1</script>\n<p>hi</p>\n"
	e := mustNew(t, WithContent(src), WithLanguage(language.HTML()))

	layers, err := e.Layers(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(layers) != 2 || layers[1].Language != "javascript" {
		t.Fatalf("unexpected layers %+v", layers)
	}

	at := strings.Index(src, "hi")
	res, err := e.Replace(ctx, at, 2, "yo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(res.ChangedRows, []int{1}) {
		t.Errorf("expected [1], got %v", res.ChangedRows)
	}
	layers, _ = e.Layers(ctx)
	if layers[1].Parses != 1 {
		t.Errorf("script layer reparsed %d times", layers[1].Parses)
	}

	ranges := []syntax.ByteRange{{Start: 0, End: uint32(strings.Index(src, "\n"))}}
	toks, err := e.HighlightRanges(ctx, ranges)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, tok := range toks[0] {
		if tok.Type == highlight.TokenKeywordDeclaration {
			found = true
		}
	}
	if !found {
		t.Errorf("no let keyword in %v", toks[0])
	}
}

func TestSetLanguage(t *testing.T) {
	ctx := context.Background()
	e := mustNew(t, WithContent("package main\n"))

	if _, err := e.NodeAt(ctx, 0, 0); !errors.Is(err, syntax.ErrNoLanguage) {
		t.Fatalf("expected ErrNoLanguage, got %v", err)
	}
	if err := e.SetLanguage(ctx, language.Go()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Language().Name != "go" {
		t.Errorf("expected go, got %q", e.Language().Name)
	}
	if _, err := e.NodeAt(ctx, 0, 0); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := e.SetLanguage(ctx, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := e.NodeAt(ctx, 0, 0); !errors.Is(err, syntax.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

// ============================================================================
// Snapshots and Background Highlighting
// ============================================================================

func TestSnapshotIsolation(t *testing.T) {
	ctx := context.Background()
	src := "package main\n"
	e := mustNew(t, WithContent(src), WithLanguage(language.Go()))

	snap, err := e.Snapshot(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer snap.Close()

	if _, err := e.InsertText(ctx, "// x\n", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Text.Text() != src {
		t.Errorf("snapshot text changed to %q", snap.Text.Text())
	}
	if string(snap.Syntax.Text()) != src {
		t.Errorf("snapshot syntax text changed to %q", snap.Syntax.Text())
	}
	n, err := snap.Syntax.NodeAtByte(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Type() != "package" {
		t.Errorf("expected package, got %q", n.Type())
	}
}

func TestSubmitHighlight(t *testing.T) {
	ctx := context.Background()
	e := mustNew(t, WithContent("package main\n"), WithLanguage(language.Go()))

	gen, err := e.SubmitHighlight(ctx, syntax.ByteRange{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	select {
	case r := <-e.HighlightResults():
		if r.Generation != gen {
			t.Errorf("expected generation %d, got %d", gen, r.Generation)
		}
		if r.Err != nil || len(r.Tokens) == 0 {
			t.Errorf("unexpected result %+v", r)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for highlight")
	}

	if _, err := e.InsertText(ctx, "\n", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.worker.Generation() <= gen {
		t.Error("edit did not invalidate the submitted request")
	}
}

// ============================================================================
// Concurrency
// ============================================================================

func TestConcurrentReadsAndEdits(t *testing.T) {
	ctx := context.Background()
	e := mustNew(t, WithContent("package main\n"), WithLanguage(language.Go()))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = e.Text()
				_ = e.LineCount()
				_, _ = e.Captures(ctx, syntax.ByteRange{})
			}
		}()
	}
	for j := 0; j < 50; j++ {
		if _, err := e.InsertText(ctx, "// c\n", e.Length()); err != nil {
			t.Errorf("insert %d: %v", j, err)
		}
	}
	wg.Wait()

	if e.LineCount() != 52 {
		t.Errorf("expected 52 lines, got %d", e.LineCount())
	}
}
