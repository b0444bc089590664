package lang

import "context"

// ParseExpr parses src as the code of a single output tag.
func ParseExpr(src string, opts ...Option) (Expr, error) {
	o := makeOptions(opts...)

	items, err := scanCode(src, src, 0)
	if err != nil {
		return nil, err
	}

	p := &parser{src: src, maxDepth: o.maxDepth}

	return p.expression(items)
}

// EvalExpr parses and evaluates one expression against vars, as the
// interactive shell does. The result is not escaped.
func EvalExpr(ctx context.Context, src string, vars Context, opts ...Option) (Value, error) {
	o := makeOptions(opts...)

	x, err := ParseExpr(src, WithMaxDepth(o.maxDepth))
	if err != nil {
		return Value{}, err
	}

	globals := o.globals
	if globals == nil {
		globals = defaultGlobals
	}

	ev := &evaluator{
		ctx:      ctx,
		vars:     vars,
		globals:  globals,
		maxDepth: o.maxDepth,
	}

	return ev.eval(x, nil)
}
