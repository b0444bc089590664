package snippet

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		src  string
		want Set
	}{
		{
			name: "yaml",
			ext:  ".yaml",
			src:  "head: '<meta charset=\"utf-8\">'\ncss:\n  main: <link href=\"/m.css\">\n  print: <link href=\"/p.css\">\n",
			want: Set{
				"head":      `<meta charset="utf-8">`,
				"css.main":  `<link href="/m.css">`,
				"css.print": `<link href="/p.css">`,
			},
		},
		{
			name: "toml",
			ext:  ".toml",
			src:  "version = 3\n[js]\napp = '<script src=\"/app.js\"></script>'\n",
			want: Set{
				"version": "3",
				"js.app":  `<script src="/app.js"></script>`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.src), tt.ext)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}

			if len(got) != len(tt.want) {
				t.Fatalf("Decode() = %v, want %v", got, tt.want)
			}

			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	if _, err := Decode([]byte("a = [1, 2]"), ".toml"); !errors.Is(err, ErrDecode) {
		t.Errorf("list value: error = %v", err)
	}

	if _, err := Decode([]byte("a = "), ".toml"); !errors.Is(err, ErrDecode) {
		t.Errorf("bad toml: error = %v", err)
	}
}

func TestSet(t *testing.T) {
	s := Set{"a": "1", "b": "2"}

	if v, err := s.Snippet("a"); err != nil || v != "1" {
		t.Errorf("Snippet(a) = %q, %v", v, err)
	}

	_, err := s.Snippet("zzz")
	if !errors.Is(err, ErrNotFound) || !strings.Contains(err.Error(), `"zzz"`) {
		t.Errorf("Snippet(zzz) error = %v", err)
	}

	m := s.Merge(Set{"b": "two", "c": "3"})
	if strings.Join(m.Names(), ",") != "a,b,c" || m["b"] != "two" {
		t.Errorf("Merge() = %v", m)
	}

	if s["b"] != "2" {
		t.Error("Merge modified its receiver")
	}
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "base.yml")
	second := filepath.Join(dir, "site.toml")

	if err := os.WriteFile(first, []byte("title: base\nfooter: f\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(second, []byte("title = 'site'\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := LoadAll(first, second)
	if err != nil {
		t.Fatal(err)
	}

	if s["title"] != "site" || s["footer"] != "f" {
		t.Errorf("LoadAll() = %v", s)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Load(missing) succeeded")
	}
}
