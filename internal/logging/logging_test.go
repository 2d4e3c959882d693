package logging

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"DEBUG", LevelDebug, false},
		{" info ", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"Error", LevelError, false},
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestLoggerFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelWarn, Output: &buf, Prefix: "test"})

	log.Debug("debug")
	log.Info("info")
	log.Warn("warn %d", 1)
	log.Error("error")

	out := buf.String()
	if strings.Contains(out, "[DEBUG]") || strings.Contains(out, "[INFO]") {
		t.Errorf("expected debug and info to be filtered, got %q", out)
	}
	if !strings.Contains(out, "[WARN] test: warn 1") {
		t.Errorf("expected formatted warning, got %q", out)
	}
	if !strings.Contains(out, "[ERROR]") {
		t.Errorf("expected error line, got %q", out)
	}
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelDebug, Output: &buf})

	log.WithComponent("syntax").WithFields(map[string]any{"lang": "html", "bytes": 12}).Info("parsed")

	out := buf.String()
	if !strings.Contains(out, "[INFO] parsed {") {
		t.Fatalf("expected message followed by fields, got %q", out)
	}
	for _, field := range []string{`"component": "syntax"`, `"bytes": 12`, `"lang": "html"`} {
		if !strings.Contains(out, field) {
			t.Errorf("missing %s in %q", field, out)
		}
	}
	if strings.Index(out, `"bytes"`) > strings.Index(out, `"lang"`) {
		t.Errorf("fields of one call should be in key order: %q", out)
	}
}

func TestSetOutputRedirectsDerivedLoggers(t *testing.T) {
	var first, second bytes.Buffer
	parent := New(Config{Level: LevelInfo, Output: &first})
	child := parent.WithComponent("engine")

	child.Info("one")
	parent.SetOutput(&second)
	child.Info("two %s", "%d")

	if !strings.Contains(first.String(), "one") || strings.Contains(first.String(), "two") {
		t.Errorf("unexpected first output %q", first.String())
	}
	if !strings.Contains(second.String(), "two %d") {
		t.Errorf("unexpected second output %q", second.String())
	}
	if err := child.Sync(); err != nil {
		t.Errorf("sync: %v", err)
	}
}

func TestLiteralPercentWithoutArgs(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelInfo, Output: &buf})
	log.Info("100% parsed")
	if !strings.Contains(buf.String(), "100% parsed") {
		t.Errorf("message was reformatted: %q", buf.String())
	}
}

func TestDerivedLoggerSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	parent := New(Config{Level: LevelInfo, Output: &buf})
	child := parent.WithField("k", "v")

	parent.SetLevel(LevelError)
	child.Warn("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected child to follow parent level, got %q", buf.String())
	}
	if child.Enabled(LevelWarn) {
		t.Error("warn should be disabled")
	}
}

func TestNop(t *testing.T) {
	log := Nop()
	log.WithField("k", "v").Error("nothing")
	log.SetLevel(LevelDebug)
	if log.Enabled(LevelError) {
		t.Error("nop logger should not be enabled")
	}
}

func TestLevelRoundTrip(t *testing.T) {
	for _, level := range []Level{LevelDebug, LevelInfo, LevelWarn, LevelError} {
		log := New(Config{Level: LevelInfo, Output: io.Discard})
		log.SetLevel(level)
		if got := log.Level(); got != level {
			t.Errorf("SetLevel(%s): Level() = %s", level, got)
		}
	}
}
