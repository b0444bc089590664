package cmd

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/ardnew/etpl/lang"
)

// writeFile creates dir/name holding content and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

const testKey = "000102030405060708090a0b0c0d0e0f"

func settingsContext(t *testing.T, s Settings) context.Context {
	t.Helper()

	return WithSettings(t.Context(), s)
}

func TestUniquePaths(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.yaml", "a: 1\n")
	b := writeFile(t, dir, "b.yaml", "b: 1\n")
	link := filepath.Join(dir, "link.yaml")

	if err := os.Symlink(a, link); err != nil {
		t.Skip("symlinks unsupported:", err)
	}

	rel, err := filepath.Rel(".", a)
	if err != nil {
		rel = a
	}

	missing := filepath.Join(dir, "missing.yaml")

	got := uniquePaths([]string{a, b, link, rel, missing, missing})
	want := []string{a, b, missing, missing}

	if !slices.Equal(got, want) {
		t.Errorf("uniquePaths() = %v, want %v", got, want)
	}
}

func TestSettings_Resolve(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "page.etpl", "x")

	s := Settings{Path: []string{t.TempDir(), dir}}

	got, err := s.resolve("page.etpl")
	if err != nil || got != filepath.Join(dir, "page.etpl") {
		t.Errorf("resolve(page.etpl) = %q, %v", got, err)
	}

	if got, _ := s.resolve(stdinSource); got != stdinSource {
		t.Errorf("resolve(-) = %q", got)
	}

	_, err = s.resolve("nowhere.etpl")
	if !errors.Is(err, ErrReadInput) || !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("resolve(nowhere) error = %v", err)
	}
}

func TestSettings_LoadTemplate(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "page.etpl", "<%= name %>")

	s := Settings{}
	cache := lang.NewCache()

	tmpl, err := s.loadTemplate(t.Context(), cache, path, nil)
	if err != nil {
		t.Fatal(err)
	}

	if tmpl.Origin != path {
		t.Errorf("Origin = %q, want %q", tmpl.Origin, path)
	}

	if _, err := s.loadTemplate(t.Context(), cache, path, nil); err != nil {
		t.Fatal(err)
	}

	if st := cache.Stats(); st.Compiles != 1 || st.Hits != 1 {
		t.Errorf("Stats() = %+v, want one compile and one hit", st)
	}

	tmpl, err = s.loadTemplate(t.Context(), cache, stdinSource, strings.NewReader("<%= 1 %>"))
	if err != nil {
		t.Fatal(err)
	}

	if tmpl.Origin != lang.Inline || cache.Len() != 1 {
		t.Errorf("stdin template origin %q, cache entries %d", tmpl.Origin, cache.Len())
	}
}

func TestSettings_Globals(t *testing.T) {
	snippets := writeFile(t, t.TempDir(), "snippets.toml", "[css]\nmain = '<link>'\n")

	s := Settings{Key: testKey, Snippets: []string{snippets}}

	g, err := s.globals()
	if err != nil {
		t.Fatal(err)
	}

	v, err := g.Call(t.Context(), "snippet", []lang.Value{lang.Str("css.main")})
	if err != nil || v.String() != "<link>" {
		t.Errorf("snippet(css.main) = %v, %v", v, err)
	}

	id, err := g.Call(t.Context(), "encrypt_number", []lang.Value{lang.Int(7)})
	if err != nil {
		t.Fatal(err)
	}

	n, err := g.Call(t.Context(), "decrypt_number", []lang.Value{id})
	if err != nil || !n.Equal(lang.Int(7)) {
		t.Errorf("decrypt_number(encrypt_number(7)) = %v, %v", n, err)
	}

	if _, err := (Settings{Key: "zz"}).globals(); err == nil {
		t.Error("globals() with a malformed key succeeded")
	}
}
