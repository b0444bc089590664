package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardnew/etpl/lang"
	"github.com/ardnew/etpl/store"
)

func TestRender_Run(t *testing.T) {
	dir := t.TempDir()
	page := writeFile(t, dir, "page.etpl",
		"<h1><%= site.title %></h1><% for p in posts %><%= p %>;<% end %>")
	site := writeFile(t, dir, "site.yaml", "site:\n  title: A & B\nposts: [x]\n")

	tests := []struct {
		name  string
		r     Render
		stdin string
		want  string
	}{
		{
			name: "file",
			r:    Render{Template: page, Vars: Vars{Data: []string{site}}},
			want: "<h1>A &amp; B</h1>x;",
		},
		{
			name: "set overrides data",
			r:    Render{Template: page, Vars: Vars{Data: []string{site}, Set: []string{`posts=["y", "z"]`}}},
			want: "<h1>A &amp; B</h1>y;z;",
		},
		{
			name:  "stdin repeated",
			r:     Render{Template: stdinSource, Repeat: 3, Vars: Vars{Set: []string{"n=2"}}},
			stdin: "<%= n * 21 %>",
			want:  "42",
		},
		{
			name: "cached repeat",
			r:    Render{Template: "page.etpl", Repeat: 2, Vars: Vars{Data: []string{site}}},
			want: "<h1>A &amp; B</h1>x;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder

			tt.r.stdin = strings.NewReader(tt.stdin)
			tt.r.stdout = &out

			ctx := settingsContext(t, Settings{Path: []string{dir}})

			if err := tt.r.Run(ctx); err != nil {
				t.Fatalf("Render.Run() error = %v", err)
			}

			if out.String() != tt.want {
				t.Errorf("output = %q, want %q", out.String(), tt.want)
			}
		})
	}
}

func TestRender_Output(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.html")

	r := Render{Template: stdinSource, Output: out, stdin: strings.NewReader("<%- '<b>' %>")}

	if err := r.Run(settingsContext(t, Settings{})); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(out)
	if err != nil || string(got) != "<b>" {
		t.Errorf("output file = %q, %v", got, err)
	}
}

func TestRender_Query(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "blog.db")

	db, err := store.Open(t.Context(), dsn)
	if err != nil {
		t.Fatal(err)
	}

	for _, q := range []string{
		"CREATE TABLE posts (id INTEGER, title TEXT)",
		"INSERT INTO posts VALUES (1, 'One'), (2, 'Two')",
	} {
		if err := db.Exec(t.Context(), q); err != nil {
			t.Fatal(err)
		}
	}

	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	var out strings.Builder

	r := Render{
		Template: stdinSource,
		stdin:    strings.NewReader("<% for p in posts %><%= p.id %>:<%= p.title %> <% end %>"),
		stdout:   &out,
		Vars:     Vars{DB: dsn, Query: []string{"posts=SELECT id, title FROM posts ORDER BY id"}},
	}

	if err := r.Run(settingsContext(t, Settings{})); err != nil {
		t.Fatal(err)
	}

	if out.String() != "1:One 2:Two " {
		t.Errorf("output = %q", out.String())
	}
}

func TestRender_Errors(t *testing.T) {
	tests := []struct {
		name  string
		r     Render
		stdin string
		want  error
	}{
		{"query without db", Render{Vars: Vars{Query: []string{"x=SELECT 1"}}}, "", ErrInvalidArg},
		{"missing template", Render{Template: "nowhere.etpl"}, "", ErrReadInput},
		{"render error", Render{}, "<%= missing %>", lang.ErrUndefinedVariable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.r.stdin = strings.NewReader(tt.stdin)
			tt.r.stdout = &strings.Builder{}

			if tt.r.Template == "" {
				tt.r.Template = stdinSource
			}

			if err := tt.r.Run(settingsContext(t, Settings{})); !errors.Is(err, tt.want) {
				t.Errorf("Render.Run() error = %v, want %v", err, tt.want)
			}
		})
	}

	r := Render{Template: stdinSource, stdin: strings.NewReader("<% if %>"), stdout: &strings.Builder{}}
	if err := r.Run(settingsContext(t, Settings{})); !lang.IsParseError(err) {
		t.Errorf("Render.Run(<%% if %%>) error = %v, want a parse error", err)
	}
}
