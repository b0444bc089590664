package lang

import (
	"strconv"
)

// Binary operator precedence, loosest first. All levels are
// left-associative.
var precedence = [][]string{
	{"||"},
	{"&&"},
	{"==", "!=", "<", "<=", ">", ">="},
	{"+", "-"},
	{"*", "/", "%"},
}

// exprParser is a precedence-climbing parser over the items of one tag.
type exprParser struct {
	p     *parser
	items []item
	pos   int
	depth int
}

func (p *parser) expression(items []item) (Expr, error) {
	e := &exprParser{p: p, items: items}

	x, err := e.binary(0)
	if err != nil {
		return nil, err
	}

	if tok := e.peek(); tok.typ != itemEOF {
		return nil, e.unexpected(tok)
	}

	return x, nil
}

func (e *exprParser) peek() item { return e.items[e.pos] }

func (e *exprParser) advance() item {
	it := e.items[e.pos]
	if it.typ != itemEOF {
		e.pos++
	}

	return it
}

func (e *exprParser) unexpected(it item) error {
	return e.p.errorf(ErrUnexpectedToken, it.off, "unexpected "+it.describe())
}

func (e *exprParser) expect(punct string) (item, error) {
	it := e.peek()
	if !it.is(punct) {
		return it, e.p.errorf(ErrUnexpectedToken, it.off,
			"expected \""+punct+"\", found "+it.describe())
	}

	return e.advance(), nil
}

func (e *exprParser) enter(off int) error {
	e.depth++
	if e.depth > e.p.maxDepth {
		return e.p.errorf(ErrNestingTooDeep, off,
			"expression nested deeper than "+strconv.Itoa(e.p.maxDepth))
	}

	return nil
}

func (e *exprParser) leave() { e.depth-- }

func (e *exprParser) binary(level int) (Expr, error) {
	if level >= len(precedence) {
		return e.unary()
	}

	x, err := e.binary(level + 1)
	if err != nil {
		return nil, err
	}

	for {
		op, ok := e.operator(level)
		if !ok {
			return x, nil
		}

		tok := e.advance()

		y, err := e.binary(level + 1)
		if err != nil {
			return nil, err
		}

		x = &BinaryExpr{X: x, Y: y, Op: op, Pos: tok.off}
	}
}

func (e *exprParser) operator(level int) (string, bool) {
	it := e.peek()
	if it.typ != itemPunct {
		return "", false
	}

	for _, op := range precedence[level] {
		if it.text == op {
			return op, true
		}
	}

	return "", false
}

func (e *exprParser) unary() (Expr, error) {
	it := e.peek()
	if it.is("!") || it.is("-") || it.is("+") {
		e.advance()

		if err := e.enter(it.off); err != nil {
			return nil, err
		}
		defer e.leave()

		x, err := e.unary()
		if err != nil {
			return nil, err
		}

		return foldSign(it, x), nil
	}

	return e.postfix()
}

// foldSign turns a minus applied to a numeric literal into a negative
// literal, so -25 is a single constant.
func foldSign(op item, x Expr) Expr {
	if lit, ok := x.(*Literal); ok && op.text == "-" {
		switch lit.Value.Kind() {
		case KindInteger:
			return &Literal{Value: Int(-lit.Value.i), Pos: op.off}
		case KindFloat:
			return &Literal{Value: Float(-lit.Value.f), Pos: op.off}
		}
	}

	return &UnaryExpr{X: x, Op: op.text, Pos: op.off}
}

func (e *exprParser) postfix() (Expr, error) {
	x, err := e.primary()
	if err != nil {
		return nil, err
	}

	for e.peek().is(".") {
		dot := e.advance()
		it := e.advance()

		switch it.typ {
		case itemInt:
			n, err := strconv.Atoi(it.text)
			if err != nil {
				return nil, e.p.errorf(ErrInvalidExpression, it.off, "index out of range: "+it.text)
			}

			x = &MemberExpr{X: x, Index: n, IsIndex: true, Pos: dot.off}

		case itemIdent:
			m := &MemberExpr{X: x, Name: it.text, Pos: dot.off}

			if e.peek().is("(") {
				args, err := e.arguments()
				if err != nil {
					return nil, err
				}

				m.Args = args
				m.Call = true
			}

			x = m

		default:
			return nil, e.p.errorf(ErrUnexpectedToken, it.off,
				"expected operation name or index after \".\", found "+it.describe())
		}
	}

	return x, nil
}

// arguments parses "(" [expr {"," expr}] ")".
func (e *exprParser) arguments() ([]Expr, error) {
	open := e.advance()

	return e.sequence(open, ")")
}

// sequence parses comma-separated expressions up to close, allowing a
// trailing comma. The opening item has already been consumed.
func (e *exprParser) sequence(open item, closing string) ([]Expr, error) {
	if err := e.enter(open.off); err != nil {
		return nil, err
	}
	defer e.leave()

	xs := []Expr{}

	for !e.peek().is(closing) {
		x, err := e.binary(0)
		if err != nil {
			return nil, err
		}

		xs = append(xs, x)

		if !e.peek().is(",") {
			break
		}

		e.advance()
	}

	if _, err := e.expect(closing); err != nil {
		return nil, err
	}

	return xs, nil
}

func (e *exprParser) primary() (Expr, error) {
	it := e.advance()

	switch it.typ {
	case itemInt:
		n, err := strconv.ParseInt(it.text, 10, 64)
		if err != nil {
			return nil, e.p.errorf(ErrInvalidExpression, it.off, "integer literal out of range: "+it.text)
		}

		return &Literal{Value: Int(n), Pos: it.off}, nil

	case itemFloat:
		f, err := strconv.ParseFloat(it.text, 64)
		if err != nil {
			return nil, e.p.errorf(ErrInvalidExpression, it.off, "invalid float literal: "+it.text)
		}

		return &Literal{Value: Float(f), Pos: it.off}, nil

	case itemString:
		return &Literal{Value: Str(it.text), Pos: it.off}, nil

	case itemIdent:
		return e.name(it)

	case itemPunct:
		switch it.text {
		case "(":
			if err := e.enter(it.off); err != nil {
				return nil, err
			}
			defer e.leave()

			x, err := e.binary(0)
			if err != nil {
				return nil, err
			}

			if _, err := e.expect(")"); err != nil {
				return nil, err
			}

			return x, nil

		case "[":
			elems, err := e.sequence(it, "]")
			if err != nil {
				return nil, err
			}

			return &ListExpr{Elems: elems, Pos: it.off}, nil
		}
	}

	if it.typ == itemEOF {
		return nil, e.p.errorf(ErrInvalidExpression, it.off, "expression ends unexpectedly")
	}

	return nil, e.unexpected(it)
}

func (e *exprParser) name(it item) (Expr, error) {
	switch it.text {
	case "true":
		return &Literal{Value: Bool(true), Pos: it.off}, nil
	case "false":
		return &Literal{Value: Bool(false), Pos: it.off}, nil
	}

	if keywords[it.text] {
		return nil, e.p.errorf(ErrUnexpectedToken, it.off,
			"keyword \""+it.text+"\" cannot be used in an expression")
	}

	if e.peek().is("(") {
		args, err := e.arguments()
		if err != nil {
			return nil, err
		}

		return &CallExpr{Name: it.text, Args: args, Pos: it.off}, nil
	}

	return &Ident{Name: it.text, Pos: it.off}, nil
}
