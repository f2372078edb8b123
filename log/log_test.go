package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"trace", LevelTrace},
		{"TRACE", LevelTrace},
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"bogus", DefaultLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevelsAndFormats(t *testing.T) {
	if got := slices.Collect(Levels()); !slices.Equal(got, []string{"trace", "debug", "info", "warn", "error"}) {
		t.Errorf("Levels() = %v", got)
	}

	if got := slices.Collect(Formats()); !slices.Equal(got, []string{"json", "text"}) {
		t.Errorf("Formats() = %v", got)
	}

	if ParseFormat("TEXT") != FormatText || ParseFormat("?") != DefaultFormat {
		t.Error("ParseFormat did not honor names or default")
	}
}

func TestZeroLoggerIsNoop(t *testing.T) {
	var l Logger

	l.Info("ignored", slog.Int("n", 1))
	l.With(slog.String("k", "v")).Error("ignored")

	if l.Level() != DefaultLevel {
		t.Errorf("zero Level() = %v, want %v", l.Level(), DefaultLevel)
	}
}

func TestJSONRecord(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf,
		WithPretty(false),
		WithFormat(FormatJSON),
		WithTimeLayout("none"),
		WithLevel(LevelTrace),
	)

	l.Trace("flush", slog.Int("blocks", 3))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}

	if rec["level"] != "TRACE" {
		t.Errorf("level = %v, want TRACE", rec["level"])
	}

	if rec["msg"] != "flush" || rec["blocks"] != float64(3) {
		t.Errorf("unexpected record %v", rec)
	}

	if _, ok := rec["time"]; ok {
		t.Error("time present with layout none")
	}
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf, WithPretty(false), WithFormat(FormatText), WithLevel(LevelWarn))

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("records below level were written: %q", buf.String())
	}

	if !strings.Contains(buf.String(), "msg=shown") {
		t.Errorf("warn record missing: %q", buf.String())
	}
}

func TestWrapKeepsOutput(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf, WithPretty(false), WithFormat(FormatText), WithLevel(LevelError))
	l = l.Wrap(WithLevel(LevelDebug))

	l.Debug("now visible")

	if !strings.Contains(buf.String(), "now visible") {
		t.Errorf("wrapped logger lost output or level: %q", buf.String())
	}
}

func TestPrettyText(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf, WithFormat(FormatText), WithTimeLayout(""))
	l.With(slog.String("file", "a.dna")).Info("translate", slog.Bool("ok", true))

	out := buf.String()
	for _, want := range []string{"translate", "a.dna", "true", "INFO"} {
		if !strings.Contains(out, want) {
			t.Errorf("pretty output %q missing %q", out, want)
		}
	}
}
