package lang

import (
	"encoding/json"
)

// MarshalJSON implements json.Marshaler for Template.
func (t *Template) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.ToMap())
}

// ToMap converts the template tree to native Go maps and slices.
func (t *Template) ToMap() map[string]any {
	return map[string]any{
		"origin": t.Origin,
		"sum":    t.Sum,
		"nodes":  nodesToNative(t.Root),
	}
}

func nodesToNative(nodes []Node) []any {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		out[i] = nodeToNative(n)
	}

	return out
}

func nodeToNative(n Node) map[string]any {
	switch n := n.(type) {
	case *TextNode:
		return map[string]any{"text": n.Text, "offset": n.Pos}

	case *OutputNode:
		kind := "escaped"
		if n.Raw {
			kind = "raw"
		}

		return map[string]any{
			"output": kind,
			"expr":   exprToNative(n.Expr),
			"offset": n.Pos,
		}

	case *IfNode:
		branches := make([]any, len(n.Branches))
		for i, br := range n.Branches {
			branches[i] = map[string]any{
				"cond": exprToNative(br.Cond),
				"body": nodesToNative(br.Body),
			}
		}

		m := map[string]any{"if": branches, "offset": n.Pos}
		if n.HasElse {
			m["else"] = nodesToNative(n.Else)
		}

		return m

	case *ForNode:
		return map[string]any{
			"for":    n.Var,
			"in":     exprToNative(n.Source),
			"body":   nodesToNative(n.Body),
			"offset": n.Pos,
		}
	}

	return nil
}

func exprsToNative(xs []Expr) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = exprToNative(x)
	}

	return out
}

func exprToNative(x Expr) map[string]any {
	switch x := x.(type) {
	case *Literal:
		return map[string]any{
			"literal": x.Value.ToNative(),
			"kind":    x.Value.Kind().String(),
		}

	case *Ident:
		return map[string]any{"ident": x.Name}

	case *ListExpr:
		return map[string]any{"list": exprsToNative(x.Elems)}

	case *UnaryExpr:
		return map[string]any{"unary": x.Op, "x": exprToNative(x.X)}

	case *BinaryExpr:
		return map[string]any{
			"binary": x.Op,
			"x":      exprToNative(x.X),
			"y":      exprToNative(x.Y),
		}

	case *MemberExpr:
		m := map[string]any{"recv": exprToNative(x.X)}

		switch {
		case x.IsIndex:
			m["index"] = x.Index
		case x.Call:
			m["call"] = x.Name
			m["args"] = exprsToNative(x.Args)
		default:
			m["member"] = x.Name
		}

		return m

	case *CallExpr:
		return map[string]any{"global": x.Name, "args": exprsToNative(x.Args)}
	}

	return nil
}

// ToNative converts v to plain Go values: int64, float64, string, bool,
// []any, map[string]any and, for Pairs, a two-element []any. Records that
// list their fields become maps; other Records become their text.
func (v Value) ToNative() any {
	switch v.kind {
	case KindInteger:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindBoolean:
		return v.i != 0
	case KindList:
		out := make([]any, len(v.list))
		for i, x := range v.list {
			out[i] = x.ToNative()
		}

		return out
	case KindMapping:
		out := make(map[string]any, v.m.Len())
		for k, x := range v.m.All() {
			out[k] = x.ToNative()
		}

		return out
	case KindPair:
		return []any{v.pair[0].ToNative(), v.pair[1].ToNative()}
	case KindRecord:
		keys, get, err := fields(v)
		if err != nil {
			return v.String()
		}

		out := make(map[string]any, len(keys))

		for _, k := range keys {
			if x, ok := get(k); ok {
				out[k] = x.ToNative()
			}
		}

		return out
	default:
		return nil
	}
}

// MarshalJSON implements json.Marshaler for Value.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.ToNative())
}
