package lang

import (
	"errors"
	"strings"
	"testing"
)

func TestFromSource_Tree(t *testing.T) {
	tmpl, err := FromSource("<ul><% for u in users %><li><%= u.name %></li><% end %></ul>")
	if err != nil {
		t.Fatalf("FromSource() error = %v", err)
	}

	if tmpl.Origin != Inline {
		t.Errorf("Origin = %q, want %q", tmpl.Origin, Inline)
	}

	if len(tmpl.Root) != 3 {
		t.Fatalf("root has %d nodes, want 3", len(tmpl.Root))
	}

	loop, ok := tmpl.Root[1].(*ForNode)
	if !ok {
		t.Fatalf("root[1] = %T, want *ForNode", tmpl.Root[1])
	}

	if loop.Var != "u" || loop.Source.String() != "users" {
		t.Errorf("loop = for %s in %s", loop.Var, loop.Source)
	}

	if len(loop.Body) != 3 {
		t.Fatalf("loop body has %d nodes, want 3", len(loop.Body))
	}

	out, ok := loop.Body[1].(*OutputNode)
	if !ok || out.Raw || out.Expr.String() != "u.name" {
		t.Errorf("loop body[1] = %#v", loop.Body[1])
	}
}

func TestFromSource_IfChain(t *testing.T) {
	tmpl, err := FromSource("<% if a %>A<% elsif b %>B<% elsif c %>C<% else %>D<% end %>")
	if err != nil {
		t.Fatalf("FromSource() error = %v", err)
	}

	ifn := tmpl.Root[0].(*IfNode)

	if len(ifn.Branches) != 3 || !ifn.HasElse || len(ifn.Else) != 1 {
		t.Errorf("if node = %+v", ifn)
	}
}

func TestParse_Precedence(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		{"a || b && c", "(a || (b && c))"},
		{"a == b + 1", "(a == (b + 1))"},
		{"1 - 2 - 3", "((1 - 2) - 3)"},
		{"!a && b", "(!a && b)"},
		{"-x.abs", "-x.abs"},
		{"-25", "-25"},
		{"(-25).abs", "(-25).abs"},
		{"25.5.floor", "(25.5).floor"},
		{"list.0.1", "list.0.1"},
		{"[1, 'a', x]", `[1, "a", x]`},
		{"a.join(', ')", `a.join(", ")`},
		{"encrypt_number(user.id)", "encrypt_number(user.id)"},
		{"true != false", "(true != false)"},
		{"a <= b", "(a <= b)"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			tmpl, err := FromSource("<%= " + tt.src + " %>")
			if err != nil {
				t.Fatalf("FromSource() error = %v", err)
			}

			got := tmpl.Root[0].(*OutputNode).Expr.String()
			if got != tt.want {
				t.Errorf("parsed %q as %q, want %q", tt.src, got, tt.want)
			}
		})
	}
}

func TestFromSource_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind *Error
	}{
		{"unclosed if", "<% if true %>x", ErrUnclosedBlock},
		{"unclosed nested", "<% for x in y %><% if x %><% end %>", ErrUnclosedBlock},
		{"bare end", "a <% end %>", ErrUnmatchedEnd},
		{"extra end", "<% if a %><% end %><% end %>", ErrUnmatchedEnd},
		{"bare else", "<% else %>", ErrUnexpectedToken},
		{"bare elsif", "<% elsif a %>", ErrUnexpectedToken},
		{"else in for", "<% for x in y %><% else %><% end %>", ErrUnexpectedToken},
		{"elsif after else", "<% if a %><% else %><% elsif b %><% end %>", ErrUnexpectedToken},
		{"double else", "<% if a %><% else %><% else %><% end %>", ErrUnexpectedToken},
		{"trailing operator", "<%= 1 + %>", ErrInvalidExpression},
		{"empty output", "<%= %>", ErrInvalidExpression},
		{"empty statement", "<% %>", ErrInvalidStatement},
		{"unknown statement", "<% while x %>", ErrInvalidStatement},
		{"if without condition", "<% if %><% end %>", ErrInvalidStatement},
		{"for keyword variable", "<% for if in x %><% end %>", ErrInvalidStatement},
		{"for without in", "<% for x of y %><% end %>", ErrInvalidStatement},
		{"adjacent operands", "<%= 1 2 %>", ErrUnexpectedToken},
		{"bad member", "<%= x.( %>", ErrUnexpectedToken},
		{"keyword operand", "<%= end %>", ErrUnexpectedToken},
		{"unclosed paren", "<%= (1 + 2 %>", ErrUnexpectedToken},
		{"unclosed list", "<%= [1, 2 %>", ErrUnexpectedToken},
		{"bad character", "<%= a # b %>", ErrInvalidExpression},
		{"int overflow", "<%= 99999999999999999999 %>", ErrInvalidExpression},
		{"unterminated", "<%= x", ErrUnterminatedTag},
		{"junk after end", "<% if a %><% end a %>", ErrUnexpectedToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromSource(tt.src)
			if err == nil {
				t.Fatalf("FromSource(%q) succeeded", tt.src)
			}

			if !IsParseError(err) {
				t.Errorf("error %v is not a *ParseError", err)
			}

			if !errors.Is(err, tt.kind) {
				t.Errorf("FromSource(%q) error = %v, want kind %q", tt.src, err, tt.kind)
			}
		})
	}
}

func TestParseError_Position(t *testing.T) {
	_, err := FromSource("line one\n  <% end %>")

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *ParseError", err)
	}

	if pe.Pos.Line != 2 || pe.Pos.Column != 6 {
		t.Errorf("position = %s, want 2:6", pe.Pos)
	}

	msg := err.Error()
	for _, want := range []string{
		"line 2, column 6",
		"  2 |   <% end %>",
		"\n" + strings.Repeat(" ", 6+5) + "^",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestParseError_UnclosedNamesInnermost(t *testing.T) {
	_, err := FromSource("<% if a %>\n<% for x in xs %>")

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *ParseError", err)
	}

	if pe.Pos.Line != 2 || !strings.Contains(pe.Reason, `"for"`) {
		t.Errorf("got %s: %s, want the for block on line 2", pe.Pos, pe.Reason)
	}
}

func TestFromSource_NestingLimit(t *testing.T) {
	deep := strings.Repeat("<% if true %>", 300) + strings.Repeat("<% end %>", 300)

	if _, err := FromSource(deep); !errors.Is(err, ErrNestingTooDeep) {
		t.Errorf("300 nested blocks: error = %v, want %v", err, ErrNestingTooDeep)
	}

	parens := strings.Repeat("(", 300) + "1" + strings.Repeat(")", 300)

	if _, err := FromSource("<%= " + parens + " %>"); !errors.Is(err, ErrNestingTooDeep) {
		t.Errorf("300 nested parens: error = %v, want %v", err, ErrNestingTooDeep)
	}

	shallow := "<% for a in x %><% for b in a %><% end %><% end %>"

	if _, err := FromSource(shallow, WithMaxDepth(1)); !errors.Is(err, ErrNestingTooDeep) {
		t.Errorf("depth 2 with limit 1: error = %v", err)
	}

	if _, err := FromSource(shallow, WithMaxDepth(2)); err != nil {
		t.Errorf("depth 2 with limit 2: error = %v", err)
	}
}
