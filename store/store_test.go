package store

import (
	"errors"
	"testing"

	"github.com/ardnew/etpl/lang"
)

func memory(t *testing.T) *DB {
	t.Helper()

	db, err := Open(t.Context(), ":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	for _, stmt := range []string{
		`CREATE TABLE posts (id INTEGER PRIMARY KEY, title TEXT, score REAL, body BLOB, note TEXT)`,
		`INSERT INTO posts (id, title, score, body, note) VALUES (1, 'First <post>', 4.5, x'6869', NULL)`,
		`INSERT INTO posts (id, title, score, body, note) VALUES (2, 'Second', 3, NULL, 'n')`,
	} {
		if err := db.Exec(t.Context(), stmt); err != nil {
			t.Fatalf("Exec(%q) error = %v", stmt, err)
		}
	}

	return db
}

func TestQuery(t *testing.T) {
	db := memory(t)

	rows, err := db.Query(t.Context(), `SELECT id, title, score, body, note FROM posts ORDER BY id`)
	if err != nil {
		t.Fatal(err)
	}

	items, ok := rows.Items()
	if !ok || len(items) != 2 {
		t.Fatalf("Query() = %v (%v)", rows, rows.Kind())
	}

	rec, ok := items[0].Record()
	if !ok {
		t.Fatalf("row kind = %v", items[0].Kind())
	}

	tests := []struct {
		field string
		want  lang.Value
	}{
		{"id", lang.Int(1)},
		{"title", lang.Str("First <post>")},
		{"score", lang.Float(4.5)},
		{"body", lang.Str("hi")},
		{"note", lang.Str("")},
	}

	for _, tt := range tests {
		got, ok := rec.Field(tt.field)
		if !ok || got.Kind() != tt.want.Kind() || !got.Equal(tt.want) {
			t.Errorf("%s = %v (%v), want %v", tt.field, got, got.Kind(), tt.want)
		}
	}

	if _, ok := rec.Field("missing"); ok {
		t.Error("Field(missing) found")
	}
}

func TestBind(t *testing.T) {
	db := memory(t)

	var c lang.Context

	c.Set("site", lang.Str("blog"))

	got, err := db.Bind(t.Context(), c, "posts=SELECT id, title FROM posts ORDER BY id")
	if err != nil {
		t.Fatal(err)
	}

	tmpl, err := lang.FromSource(`<%= site %>:<% for p in posts %> <%= p.id %>=<%= p.title %><% end %>`)
	if err != nil {
		t.Fatal(err)
	}

	out, err := tmpl.Render(t.Context(), got)
	if err != nil {
		t.Fatal(err)
	}

	if want := "blog: 1=First &lt;post&gt; 2=Second"; out != want {
		t.Errorf("Render() = %q, want %q", out, want)
	}

	if _, ok := c.Get("posts"); ok {
		t.Error("Bind modified its input context")
	}
}

func TestBind_Errors(t *testing.T) {
	db := memory(t)

	tests := []struct {
		spec string
		want error
	}{
		{"nosql", ErrBind},
		{"x=", ErrBind},
		{"x=SELECT * FROM nowhere", ErrQuery},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			if _, err := db.Bind(t.Context(), lang.Context{}, tt.spec); !errors.Is(err, tt.want) {
				t.Errorf("Bind(%q) error = %v, want %v", tt.spec, err, tt.want)
			}
		})
	}
}

func TestQuery_ShadowedColumn(t *testing.T) {
	db := memory(t)

	var c lang.Context

	got, err := db.Bind(t.Context(), c, `rows=SELECT 'hidden' AS "values", 7 AS n`)
	if err != nil {
		t.Fatal(err)
	}

	// "values" names an operation on records, so the column is only
	// reachable by iterating the record's fields.
	tmpl, err := lang.FromSource(
		`<% for r in rows %><%= r.values.len %> <%= r.n %>` +
			`<% for f in r.iter %><% if f.0 == "values" %> <%= f.1 %><% end %><% end %><% end %>`)
	if err != nil {
		t.Fatal(err)
	}

	out, err := tmpl.Render(t.Context(), got)
	if err != nil {
		t.Fatal(err)
	}

	if want := "2 7 hidden"; out != want {
		t.Errorf("Render() = %q, want %q", out, want)
	}
}
