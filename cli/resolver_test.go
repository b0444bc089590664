package cli

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		flag string
		want any
	}{
		{"hyphenated", "log-level: debug\n", "log-level", "debug"},
		{"underscored", "log_level: warn\n", "log-level", "warn"},
		{"bool", "dev: true\n", "dev", true},
		{"number", "repeat: 3\n", "repeat", "3"},
		{"list", "path:\n  - a\n  - b\n", "path", []any{"a", "b"}},
		{"missing", "dev: true\n", "key", nil},
		{"malformed", "{{{", "dev", nil},
		{"empty", "", "dev", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := resolve(strings.NewReader(tt.doc))
			if err != nil {
				t.Fatalf("resolve() error = %v", err)
			}

			got, err := r.Resolve(nil, nil, &kong.Flag{Value: &kong.Value{Name: tt.flag}})
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}

			if l, ok := tt.want.([]any); ok {
				if g, _ := got.([]any); !slices.Equal(g, l) {
					t.Errorf("Resolve(%s) = %#v, want %#v", tt.flag, got, tt.want)
				}

				return
			}

			if got != tt.want {
				t.Errorf("Resolve(%s) = %#v, want %#v", tt.flag, got, tt.want)
			}
		})
	}
}

func TestRun_Check(t *testing.T) {
	tmpl := filepath.Join(t.TempDir(), "hello.etpl")
	if err := os.WriteFile(tmpl, []byte("<%= 1 + 1 %>"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	exited := -1

	err := Run(t.Context(), func(code int) { exited = code }, "check", tmpl)
	if err != nil {
		t.Fatalf("Run(check) error = %v", err)
	}

	if exited != -1 {
		t.Errorf("exit called with %d", exited)
	}
}

func TestSearchPath(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	missing := filepath.Join(a, "missing")

	t.Setenv(pathEnv(), b+string(os.PathListSeparator)+missing)

	got := searchPath(a)

	if !slices.Contains(got, a) || !slices.Contains(got, b) {
		t.Errorf("searchPath() = %v, want both %s and %s", got, a, b)
	}

	if slices.Contains(got, missing) {
		t.Errorf("searchPath() = %v keeps a missing directory", got)
	}

	if i, j := slices.Index(got, a), slices.Index(got, b); i > j {
		t.Errorf("searchPath() = %v, want command-line directories first", got)
	}
}
