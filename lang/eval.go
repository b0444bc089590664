package lang

import (
	"context"
	"log/slog"
	"strings"
)

// scope is an immutable chain of loop bindings, innermost first.
type scope struct {
	next *scope
	name string
	val  Value
}

func (s *scope) lookup(name string) (Value, bool) {
	for ; s != nil; s = s.next {
		if s.name == name {
			return s.val, true
		}
	}

	return Value{}, false
}

// evaluator holds the state of a single render. It is never shared between
// goroutines.
type evaluator struct {
	ctx      context.Context
	vars     Context
	globals  *Globals
	out      *strings.Builder
	maxDepth int
	depth    int
}

func (ev *evaluator) render(nodes []Node, sc *scope) error {
	for _, n := range nodes {
		if err := ev.node(n, sc); err != nil {
			return err
		}
	}

	return nil
}

func (ev *evaluator) enter() error {
	ev.depth++
	if ev.depth > ev.maxDepth {
		return ErrNestingTooDeep.With(slog.Int("limit", ev.maxDepth))
	}

	return nil
}

func (ev *evaluator) node(n Node, sc *scope) error {
	switch n := n.(type) {
	case *TextNode:
		ev.out.WriteString(n.Text)

	case *OutputNode:
		v, err := ev.eval(n.Expr, sc)
		if err != nil {
			return err
		}

		if n.Raw {
			ev.out.WriteString(v.String())
		} else {
			writeEscaped(ev.out, v.String())
		}

	case *IfNode:
		if err := ev.enter(); err != nil {
			return err
		}
		defer func() { ev.depth-- }()

		for _, br := range n.Branches {
			cond, err := ev.eval(br.Cond, sc)
			if err != nil {
				return err
			}

			if cond.Truthy() {
				return ev.render(br.Body, sc)
			}
		}

		return ev.render(n.Else, sc)

	case *ForNode:
		if err := ev.enter(); err != nil {
			return err
		}
		defer func() { ev.depth-- }()

		src, err := ev.eval(n.Source, sc)
		if err != nil {
			return err
		}

		items, ok := src.Items()
		if !ok {
			return mismatch("List", src, "for "+n.Var+" in "+n.Source.String())
		}

		for _, item := range items {
			if err := ev.render(n.Body, &scope{next: sc, name: n.Var, val: item}); err != nil {
				return err
			}
		}
	}

	return nil
}

func (ev *evaluator) eval(x Expr, sc *scope) (Value, error) {
	switch x := x.(type) {
	case *Literal:
		return x.Value, nil

	case *Ident:
		if v, ok := sc.lookup(x.Name); ok {
			return v, nil
		}

		if v, ok := ev.vars.Get(x.Name); ok {
			return v, nil
		}

		return Value{}, ErrUndefinedVariable.With(slog.String("name", x.Name))

	case *ListExpr:
		items := make([]Value, len(x.Elems))

		for i, e := range x.Elems {
			v, err := ev.eval(e, sc)
			if err != nil {
				return Value{}, err
			}

			items[i] = v
		}

		return List(items...), nil

	case *UnaryExpr:
		v, err := ev.eval(x.X, sc)
		if err != nil {
			return Value{}, err
		}

		return Unary(x.Op, v)

	case *BinaryExpr:
		return ev.binary(x, sc)

	case *MemberExpr:
		return ev.member(x, sc)

	case *CallExpr:
		args, err := ev.args(x.Args, sc)
		if err != nil {
			return Value{}, err
		}

		return ev.globals.Call(ev.ctx, x.Name, args)
	}

	return Value{}, ErrInvalidExpression
}

func (ev *evaluator) binary(x *BinaryExpr, sc *scope) (Value, error) {
	a, err := ev.eval(x.X, sc)
	if err != nil {
		return Value{}, err
	}

	switch x.Op {
	case "&&":
		if !a.Truthy() {
			return Bool(false), nil
		}
	case "||":
		if a.Truthy() {
			return Bool(true), nil
		}
	}

	b, err := ev.eval(x.Y, sc)
	if err != nil {
		return Value{}, err
	}

	return Binary(x.Op, a, b)
}

func (ev *evaluator) args(xs []Expr, sc *scope) ([]Value, error) {
	if len(xs) == 0 {
		return nil, nil
	}

	args := make([]Value, len(xs))

	for i, e := range xs {
		v, err := ev.eval(e, sc)
		if err != nil {
			return nil, err
		}

		args[i] = v
	}

	return args, nil
}

// member resolves x.N, x.name and x.name(args). Registered operations take
// precedence over Mapping keys and Record fields of the same name.
func (ev *evaluator) member(x *MemberExpr, sc *scope) (Value, error) {
	recv, err := ev.eval(x.X, sc)
	if err != nil {
		return Value{}, err
	}

	if x.IsIndex {
		return Index(recv, x.Index)
	}

	if !x.Call && !HasOperation(recv.kind, x.Name) {
		switch recv.kind {
		case KindMapping:
			if v, ok := recv.m.Get(x.Name); ok {
				return v, nil
			}

			return Value{}, ErrUndefinedVariable.With(slog.String("key", x.Name))

		case KindRecord:
			if v, ok := recv.rec.Field(x.Name); ok {
				return v, nil
			}

			return Value{}, ErrUndefinedVariable.With(slog.String("key", x.Name))
		}
	}

	args, err := ev.args(x.Args, sc)
	if err != nil {
		return Value{}, err
	}

	return Call(recv, x.Name, args)
}

// writeEscaped writes s with the HTML metacharacters & < > " ' replaced by
// entities, copying unescaped runs in one write.
func writeEscaped(b *strings.Builder, s string) {
	last := 0

	for i := 0; i < len(s); i++ {
		var esc string

		switch s[i] {
		case '&':
			esc = "&amp;"
		case '<':
			esc = "&lt;"
		case '>':
			esc = "&gt;"
		case '"':
			esc = "&#34;"
		case '\'':
			esc = "&#39;"
		default:
			continue
		}

		b.WriteString(s[last:i])
		b.WriteString(esc)
		last = i + 1
	}

	b.WriteString(s[last:])
}

// Escape returns s with HTML metacharacters replaced by entities, exactly
// as escaped output tags do.
func Escape(s string) string {
	var b strings.Builder

	b.Grow(len(s) + len(s)/8)
	writeEscaped(&b, s)

	return b.String()
}
