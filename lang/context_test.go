package lang

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-yaml"
)

type account struct {
	UserID   int
	FullName string
	Email    string `etpl:"mail"`
	Password string `etpl:"-"`
	Tags     []string
	Manager  *account
	internal int
}

type point struct{ x, y int64 }

func (p point) Field(name string) (Value, bool) {
	switch name {
	case "x":
		return Int(p.x), true
	case "y":
		return Int(p.y), true
	}

	return Value{}, false
}

func (point) FieldNames() []string { return []string{"x", "y"} }

func TestFromNative(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
		kind Kind
	}{
		{"nil", nil, "", KindString},
		{"int", 42, "42", KindInteger},
		{"uint8", uint8(7), "7", KindInteger},
		{"float32", float32(1.5), "1.5", KindFloat},
		{"bool", true, "true", KindBoolean},
		{"bytes", []byte("raw"), "raw", KindString},
		{"nil slice", []int(nil), "[]", KindList},
		{"array", [2]string{"a", "b"}, `["a", "b"]`, KindList},
		{"sorted map", map[string]int{"b": 2, "a": 1}, "{a: 1, b: 2}", KindMapping},
		{"nil pointer", (*account)(nil), "", KindString},
		{"time", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), "2024-05-01T12:00:00Z", KindString},
		{"map slice", yaml.MapSlice{{Key: "z", Value: 1}, {Key: "a", Value: "x"}}, `{z: 1, a: "x"}`, KindMapping},
		{"value", Float(2), "2", KindFloat},
		{"fielder", point{1, 2}, "{x: 1, y: 2}", KindRecord},
		{"any slice", []any{1, "two", nil}, `[1, "two", ""]`, KindList},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := FromNative(tt.in)
			if err != nil {
				t.Fatalf("FromNative() error = %v", err)
			}

			if v.Kind() != tt.kind {
				t.Errorf("kind = %v, want %v", v.Kind(), tt.kind)
			}

			if got := v.String(); got != tt.want {
				t.Errorf("FromNative() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFromNative_Struct(t *testing.T) {
	in := account{
		UserID:   3,
		FullName: "Ada L",
		Email:    "ada@example.com",
		Password: "secret",
		Tags:     []string{"admin"},
		Manager:  &account{UserID: 1},
	}

	v, err := FromNative(in)
	if err != nil {
		t.Fatal(err)
	}

	m, ok := v.Mapping()
	if !ok {
		t.Fatalf("kind = %v, want Mapping", v.Kind())
	}

	want := "user_id,full_name,mail,tags,manager"
	if got := strings.Join(m.Keys(), ","); got != want {
		t.Errorf("keys = %s, want %s", got, want)
	}

	mgr, _ := m.Get("manager")
	mm, _ := mgr.Mapping()

	if id, _ := mm.Get("user_id"); !id.Equal(Int(1)) {
		t.Errorf("manager.user_id = %v", id)
	}
}

func TestFromNative_Unsupported(t *testing.T) {
	for _, in := range []any{make(chan int), map[int]string{1: "x"}, func() {}} {
		if _, err := FromNative(in); !errors.Is(err, ErrTypeMismatch) {
			t.Errorf("FromNative(%T) error = %v, want %v", in, err, ErrTypeMismatch)
		}
	}
}

func TestSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Name":      "name",
		"UserID":    "user_id",
		"HTTPProxy": "http_proxy",
		"FullName":  "full_name",
		"A":         "a",
		"Has_Under": "has_under",
	}

	for in, want := range tests {
		if got := snakeCase(in); got != want {
			t.Errorf("snakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}

type hostPage struct{ title string }

func (h hostPage) TemplateContext() (Context, error) {
	var c Context

	c.Set("title", Str(h.title))

	return c, nil
}

func TestContextOf(t *testing.T) {
	c, err := ContextOf(map[string]any{"n": 1, "s": "x"})
	if err != nil {
		t.Fatal(err)
	}

	if got := strings.Join(c.Names(), ","); got != "n,s" {
		t.Errorf("Names() = %s", got)
	}

	c, err = ContextOf(hostPage{title: "home"})
	if err != nil {
		t.Fatal(err)
	}

	if v, ok := c.Get("title"); !ok || !v.Equal(Str("home")) {
		t.Errorf("title = %v, %v", v, ok)
	}

	c, err = ContextOf(point{4, 5})
	if err != nil || c.Len() != 2 {
		t.Errorf("ContextOf(record) = %d names, %v", c.Len(), err)
	}

	if c, err := ContextOf(nil); err != nil || c.Len() != 0 {
		t.Errorf("ContextOf(nil) = %d names, %v", c.Len(), err)
	}

	if _, err := ContextOf([]int{1}); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("ContextOf(list) error = %v", err)
	}
}

func TestContext_Merge(t *testing.T) {
	var a, b Context

	a.Set("x", Int(1)).Set("y", Int(2))
	b.Set("y", Int(20)).Set("z", Int(30))

	m := a.Merge(b)

	if got := strings.Join(m.Names(), ","); got != "x,y,z" {
		t.Errorf("Names() = %s", got)
	}

	if v, _ := m.Get("y"); !v.Equal(Int(20)) {
		t.Errorf("y = %v, want 20", v)
	}

	if v, _ := a.Get("y"); !v.Equal(Int(2)) {
		t.Errorf("Merge modified receiver: y = %v", v)
	}

	var zero Context
	if _, ok := zero.Get("x"); ok || zero.Len() != 0 {
		t.Error("zero Context is not empty")
	}
}
