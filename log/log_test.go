package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestMake_Defaults(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf)

	if l.Level() != DefaultLevel {
		t.Errorf("Level() = %v, want %v", l.Level(), DefaultLevel)
	}

	if l.Format() != DefaultFormat {
		t.Errorf("Format() = %v, want %v", l.Format(), DefaultFormat)
	}

	l.Debug("hidden")

	if buf.Len() != 0 {
		t.Errorf("debug message written at default level: %q", buf.String())
	}

	l.Info("shown", slog.String("k", "v"))

	if !strings.Contains(buf.String(), "msg=shown") ||
		!strings.Contains(buf.String(), "k=v") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestZeroLogger_Discards(t *testing.T) {
	var l Logger

	l.Error("nothing happens")
	l.With(slog.Int("n", 1)).Info("still nothing")

	if l.Enabled(t.Context(), LevelError) {
		t.Error("zero Logger reports enabled")
	}
}

func TestLogger_TraceLevelName(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf, WithLevel(LevelTrace), WithFormat(FormatJSON))
	l.TraceContext(t.Context(), "tok", slog.Int("offset", 3))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}

	if rec["level"] != "TRACE" {
		t.Errorf("level = %v, want TRACE", rec["level"])
	}

	if rec["offset"] != float64(3) {
		t.Errorf("offset = %v, want 3", rec["offset"])
	}
}

func TestLogger_WrapAndWith(t *testing.T) {
	var buf bytes.Buffer

	base := Make(&buf, WithLevel(LevelError))
	child := base.Wrap(WithLevel(LevelDebug)).With(slog.String("component", "cache"))

	base.Info("dropped")
	child.Debug("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("parent level changed by Wrap: %q", out)
	}

	if !strings.Contains(out, "kept") || !strings.Contains(out, "component=cache") {
		t.Errorf("child output missing fields: %q", out)
	}
}

func TestWithTimeLayout(t *testing.T) {
	tests := []struct {
		layout string
		want   func(string) bool
	}{
		{"none", func(s string) bool { return !strings.Contains(s, "time=") }},
		{"", func(s string) bool { return !strings.Contains(s, "time=") }},
		{"RFC-3339", func(s string) bool { return strings.Contains(s, "time=") }},
		{"2006", func(s string) bool { return strings.Contains(s, "time=2") }},
	}

	for _, tt := range tests {
		t.Run(tt.layout, func(t *testing.T) {
			var buf bytes.Buffer

			Make(&buf, WithTimeLayout(tt.layout)).Info("x")

			if !tt.want(buf.String()) {
				t.Errorf("layout %q produced %q", tt.layout, buf.String())
			}
		})
	}
}

func TestWithCaller(t *testing.T) {
	var buf bytes.Buffer

	Make(&buf, WithCaller(true)).Info("where")

	if !strings.Contains(buf.String(), "log_test.go") {
		t.Errorf("caller missing from %q", buf.String())
	}
}

func TestPretty(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer

		l := Make(&buf, WithPretty(true), WithTimeLayout("none"))
		l.With(slog.String("path", "a b")).Warn("slow", slog.Bool("hit", true))

		out := buf.String()
		for _, want := range []string{"WARN", "slow", `"a b"`, "true"} {
			if !strings.Contains(out, want) {
				t.Errorf("missing %q in %q", want, out)
			}
		}
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer

		Make(&buf, WithPretty(true), WithFormat(FormatJSON)).Info("x")

		if !strings.Contains(buf.String(), "\n  \"msg\": \"x\"") {
			t.Errorf("not indented: %q", buf.String())
		}
	})
}

func TestParse(t *testing.T) {
	levels := map[string]Level{
		"trace":  LevelTrace,
		"DEBUG":  LevelDebug,
		" warn ": LevelWarn,
		"error":  LevelError,
		"bogus":  DefaultLevel,
	}

	for in, want := range levels {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}

	if ParseFormat("JSON") != FormatJSON || ParseFormat("nope") != DefaultFormat {
		t.Error("ParseFormat mismatch")
	}

	var names []string
	for s := range Levels() {
		names = append(names, s)
	}

	if strings.Join(names, ",") != "trace,debug,info,warn,error" {
		t.Errorf("Levels() = %v", names)
	}
}

func TestPackageDefault(t *testing.T) {
	saved := Default()
	t.Cleanup(func() { SetDefault(saved) })

	var buf bytes.Buffer

	SetDefault(Make(&buf, WithLevel(LevelDebug)))

	Debug("d")
	Info("i")
	Warn("w")
	Error("e")

	for _, want := range []string{"msg=d", "msg=i", "msg=w", "msg=e"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("missing %q in %q", want, buf.String())
		}
	}

	Config(WithLevel(LevelError))
	buf.Reset()
	Info("quiet")

	if buf.Len() != 0 {
		t.Errorf("Config did not raise level: %q", buf.String())
	}
}
