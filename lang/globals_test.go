package lang

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
)

type prefixCipher struct{}

func (prefixCipher) EncryptNumber(n int64) (string, error) {
	return "id-" + strconv.FormatInt(n, 10), nil
}

func (prefixCipher) DecryptNumber(s string) (int64, error) {
	rest, ok := strings.CutPrefix(s, "id-")
	if !ok {
		return 0, errors.New("bad prefix")
	}

	return strconv.ParseInt(rest, 10, 64)
}

type snippetMap map[string]string

func (m snippetMap) Snippet(name string) (string, error) {
	s, ok := m[name]
	if !ok {
		return "", errors.New("no snippet " + name)
	}

	return s, nil
}

func TestGlobals(t *testing.T) {
	g := NewGlobals(prefixCipher{}, snippetMap{"head": `<link rel="stylesheet">`})

	g.Define("double", func(_ context.Context, args []Value) (Value, error) {
		return Binary("*", args[0], Int(2))
	})

	var vars Context

	vars.Set("user", Map(NewMapping().Set("id", Int(9))))

	tests := []struct {
		src  string
		want string
	}{
		{"<%= encrypt_number(user.id) %>", "id-9"},
		{"<%= decrypt_number(encrypt_number(user.id)) %>", "9"},
		{"<%= decrypt_number('id-12') + 1 %>", "13"},
		{"<%- snippet('head') %>", `<link rel="stylesheet">`},
		{"<%= double(21) %>", "42"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := render(t, tt.src, vars, WithGlobals(g))
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}

			if got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}

	if names := strings.Join(g.Names(), ","); names != "decrypt_number,double,encrypt_number,snippet" {
		t.Errorf("Names() = %s", names)
	}
}

func TestGlobals_Errors(t *testing.T) {
	g := NewGlobals(prefixCipher{}, snippetMap{})

	tests := []struct {
		src  string
		kind *Error
	}{
		{"<%= decrypt_number('tampered') %>", ErrDecryption},
		{"<%= decrypt_number(1) %>", ErrTypeMismatch},
		{"<%= encrypt_number('1') %>", ErrTypeMismatch},
		{"<%= encrypt_number(1, 2) %>", ErrArgumentCount},
		{"<%= snippet() %>", ErrArgumentCount},
		{"<%= undefined_fn() %>", ErrUndefinedOperation},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := render(t, tt.src, Context{}, WithGlobals(g))
			if !errors.Is(err, tt.kind) {
				t.Errorf("Render() error = %v, want %v", err, tt.kind)
			}
		})
	}

	_, err := render(t, "<%= snippet('nope') %>", Context{}, WithGlobals(g))
	if err == nil || !strings.Contains(err.Error(), "no snippet nope") {
		t.Errorf("snippet error = %v", err)
	}
}

func TestRender_GlobalsOverride(t *testing.T) {
	tmpl, err := FromSource("<%= encrypt_number(5) %>")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := tmpl.Render(t.Context(), Context{}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("default globals: error = %v", err)
	}

	out, err := tmpl.Render(t.Context(), Context{}, WithGlobals(NewGlobals(prefixCipher{}, nil)))
	if err != nil || out != "id-5" {
		t.Errorf("Render() = %q, %v", out, err)
	}
}
