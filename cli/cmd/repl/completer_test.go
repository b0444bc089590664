package repl

import (
	"context"
	"slices"
	"testing"

	"github.com/ardnew/etpl/lang"
)

func TestWordBounds_ExprOperators(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		cursor    int
		wantWord  string
		wantStart int
		wantEnd   int
	}{
		{"simple", "foo", 3, "foo", 0, 3},
		{"dot_separated", "bar.baz", 7, "baz", 4, 7},
		{"after_plus", "a + fo", 6, "fo", 4, 6},
		{"after_paren", "snippet(fo", 10, "fo", 8, 10},
		{"after_comma", "x.join(a, fo", 12, "fo", 10, 12},
		{"after_comparison", "a > fo", 6, "fo", 4, 6},
		{"after_minus", "total-fo", 8, "fo", 6, 8},
		{"after_bang", "!ok", 3, "ok", 1, 3},
		{"in_list", "[a, fo", 6, "fo", 4, 6},
		{"empty_at_boundary", "a + ", 4, "", 4, 4},
		{"mid_word", "foobar", 3, "foobar", 0, 6},
		{"at_start", "foo", 0, "foo", 0, 3},
		{"between_operators", "a+b", 2, "b", 2, 3},
		{"underscore", "encrypt_num", 11, "encrypt_num", 0, 11},
		// After dot is an empty word (for triggering child completions).
		{"empty_after_dot", "site.", 5, "", 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, start, end := wordBounds(tt.input, tt.cursor)
			if word != tt.wantWord || start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("wordBounds(%q, %d) = (%q, %d, %d), want (%q, %d, %d)",
					tt.input, tt.cursor, word, start, end,
					tt.wantWord, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestParentPath_WithOperators(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wordStart int
		want      string
	}{
		{"top_level", "fo", 0, ""},
		{"simple_chain", "bar.baz.", 8, "bar.baz"},
		{"after_operator", "foo + bar.baz.", 14, "bar.baz"},
		{"after_paren", "(bar.baz.", 9, "bar.baz"},
		{"no_chain", "a + ", 4, ""},
		{"deep_chain", "a.b.c.", 6, "a.b.c"},
		{"after_equals", "x == a.b.", 9, "a.b"},
		{"partial_word", "site.ow", 5, "site"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parentPath(tt.input, tt.wordStart)
			if got != tt.want {
				t.Errorf("parentPath(%q, %d) = %q, want %q",
					tt.input, tt.wordStart, got, tt.want)
			}
		})
	}
}

func testModel(t *testing.T) model {
	t.Helper()

	site := lang.NewMapping().Set("title", lang.Str("blog")).Set("owner", lang.Str("ann"))

	var vars lang.Context

	vars.Set("site", lang.Map(site))
	vars.Set("posts", lang.List(lang.Int(1), lang.Int(2)))

	globals := lang.NewGlobals(nil, nil)

	return model{
		ctxFunc: func() context.Context { return t.Context() },
		vars:    vars,
		globals: globals,
		opts:    []lang.Option{lang.WithGlobals(globals)},
	}
}

func TestChildCandidates(t *testing.T) {
	m := testModel(t)

	top := m.childCandidates("")
	for _, want := range []string{"site", "posts", "snippet", "encrypt_number", "true"} {
		if !slices.Contains(top, want) {
			t.Errorf("top level candidates %v lack %q", top, want)
		}
	}

	site := m.childCandidates("site")
	if len(site) < 2 || site[0] != "title" || site[1] != "owner" {
		t.Errorf("site candidates = %v, want keys first in order", site)
	}

	if !slices.Contains(site, "keys") {
		t.Errorf("site candidates %v lack mapping operations", site)
	}

	if posts := m.childCandidates("posts"); !slices.Contains(posts, "join") {
		t.Errorf("posts candidates = %v", posts)
	}

	if got := m.childCandidates("missing"); got != nil {
		t.Errorf("undefined parent candidates = %v, want nil", got)
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		v     lang.Value
		width int
		want  string
	}{
		{lang.Int(42), 20, "42  Integer"},
		{lang.Str("hi"), 20, `"hi"  String`},
		{lang.Str("abcdefghijklmnopqrstuvwxyz"), 10, `"abcdef...  String`},
		{lang.List(lang.Int(1)), 20, "[1]  List"},
	}

	for _, tt := range tests {
		if got := preview(tt.v, tt.width); got != tt.want {
			t.Errorf("preview(%v, %d) = %q, want %q", tt.v, tt.width, got, tt.want)
		}
	}
}
