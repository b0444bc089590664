package lang

import (
	"context"
	"log/slog"
	"strconv"
)

var keywords = map[string]bool{
	"if": true, "elsif": true, "else": true, "for": true, "in": true,
	"end": true, "true": true, "false": true,
}

// Parse builds the node tree of a lexed template. src must be the text the
// tokens were produced from; it is used for error positions.
func Parse(ctx context.Context, toks []Token, src string, opts ...Option) ([]Node, error) {
	o := makeOptions(opts...)

	p := &parser{src: src, toks: toks, maxDepth: o.maxDepth}

	root, err := p.parse()
	if err != nil {
		return nil, err
	}

	o.logger.TraceContext(ctx, "parse complete",
		slog.Int("tokens", len(toks)),
		slog.Int("nodes", len(root)))

	return root, nil
}

// frame is an open block. For an If, inElse reports whether the else arm
// has started.
type frame struct {
	ifn    *IfNode
	forn   *ForNode
	offset int
	inElse bool
}

func (f *frame) name() string {
	if f.forn != nil {
		return "for"
	}

	return "if"
}

func (f *frame) body() *[]Node {
	switch {
	case f.forn != nil:
		return &f.forn.Body
	case f.inElse:
		return &f.ifn.Else
	default:
		return &f.ifn.Branches[len(f.ifn.Branches)-1].Body
	}
}

type parser struct {
	src      string
	toks     []Token
	stack    []*frame
	root     []Node
	maxDepth int
}

func (p *parser) errorf(kind *Error, offset int, reason string) *ParseError {
	return newParseError(kind, p.src, offset, reason)
}

func (p *parser) append(n Node) {
	if len(p.stack) == 0 {
		p.root = append(p.root, n)

		return
	}

	body := p.stack[len(p.stack)-1].body()
	*body = append(*body, n)
}

func (p *parser) parse() ([]Node, error) {
	for i := 0; i < len(p.toks); i++ {
		tok := p.toks[i]

		switch tok.Kind {
		case TokenText:
			p.append(&TextNode{Text: tok.Text, Pos: tok.Offset})

		case TokenOpen:
			if i+2 >= len(p.toks) || p.toks[i+1].Kind != TokenCode ||
				p.toks[i+2].Kind != TokenClose {
				return nil, p.errorf(ErrUnterminatedTag, tok.Offset, "malformed tag")
			}

			code := p.toks[i+1]
			i += 2

			var err error
			if tok.Tag == TagCode {
				err = p.statement(tok, code)
			} else {
				err = p.output(tok, code)
			}

			if err != nil {
				return nil, err
			}

		default:
			return nil, p.errorf(ErrUnexpectedToken, tok.Offset,
				"stray "+tok.Kind.String()+" token")
		}
	}

	if n := len(p.stack); n > 0 {
		f := p.stack[n-1]

		return nil, p.errorf(ErrUnclosedBlock, f.offset,
			"\""+f.name()+"\" block opened at "+positionAt(p.src, f.offset).String()+
				" is missing \"end\"")
	}

	if p.root == nil {
		p.root = []Node{}
	}

	return p.root, nil
}

func (p *parser) output(open, code Token) error {
	items, err := scanCode(p.src, code.Text, code.Offset)
	if err != nil {
		return err
	}

	if items[0].typ == itemEOF {
		return p.errorf(ErrInvalidExpression, open.Offset, "empty output tag")
	}

	x, err := p.expression(items)
	if err != nil {
		return err
	}

	p.append(&OutputNode{Expr: x, Raw: open.Tag == TagRaw, Pos: open.Offset})

	return nil
}

func (p *parser) statement(open, code Token) error {
	items, err := scanCode(p.src, code.Text, code.Offset)
	if err != nil {
		return err
	}

	head := items[0]
	if head.typ != itemIdent {
		if head.typ == itemEOF {
			return p.errorf(ErrInvalidStatement, open.Offset, "empty statement")
		}

		return p.errorf(ErrInvalidStatement, head.off,
			"expected if, elsif, else, for or end, found "+head.describe())
	}

	rest := items[1:]

	switch head.text {
	case "if":
		return p.openIf(open.Offset, rest)
	case "elsif":
		return p.elsif(head, rest)
	case "else":
		return p.elseArm(head, rest)
	case "for":
		return p.openFor(open.Offset, rest)
	case "end":
		return p.end(head, rest)
	default:
		return p.errorf(ErrInvalidStatement, head.off,
			"unknown statement \""+head.text+"\"")
	}
}

func (p *parser) push(f *frame) error {
	if len(p.stack) >= p.maxDepth {
		return p.errorf(ErrNestingTooDeep, f.offset,
			"blocks nested deeper than "+strconv.Itoa(p.maxDepth))
	}

	if f.forn != nil {
		p.append(f.forn)
	} else {
		p.append(f.ifn)
	}

	p.stack = append(p.stack, f)

	return nil
}

func (p *parser) requireEnd(kw item, rest []item) error {
	if rest[0].typ != itemEOF {
		return p.errorf(ErrUnexpectedToken, rest[0].off,
			"unexpected "+rest[0].describe()+" after \""+kw.text+"\"")
	}

	return nil
}

func (p *parser) openIf(offset int, rest []item) error {
	cond, err := p.condition(offset, "if", rest)
	if err != nil {
		return err
	}

	ifn := &IfNode{Pos: offset, Branches: []Branch{{Cond: cond, Pos: offset, Body: []Node{}}}}

	return p.push(&frame{ifn: ifn, offset: offset})
}

func (p *parser) condition(offset int, kw string, rest []item) (Expr, error) {
	if rest[0].typ == itemEOF {
		return nil, p.errorf(ErrInvalidStatement, offset, "\""+kw+"\" requires an expression")
	}

	return p.expression(rest)
}

// innermostIf returns the top frame when it is an If that still accepts
// elsif and else arms.
func (p *parser) innermostIf(kw item) (*frame, error) {
	if len(p.stack) == 0 {
		return nil, p.errorf(ErrUnexpectedToken, kw.off, "\""+kw.text+"\" outside of an if block")
	}

	f := p.stack[len(p.stack)-1]
	if f.ifn == nil {
		return nil, p.errorf(ErrUnexpectedToken, kw.off,
			"\""+kw.text+"\" inside a for block")
	}

	if f.inElse {
		return nil, p.errorf(ErrUnexpectedToken, kw.off, "\""+kw.text+"\" after else")
	}

	return f, nil
}

func (p *parser) elsif(kw item, rest []item) error {
	f, err := p.innermostIf(kw)
	if err != nil {
		return err
	}

	cond, err := p.condition(kw.off, "elsif", rest)
	if err != nil {
		return err
	}

	f.ifn.Branches = append(f.ifn.Branches, Branch{Cond: cond, Pos: kw.off, Body: []Node{}})

	return nil
}

func (p *parser) elseArm(kw item, rest []item) error {
	f, err := p.innermostIf(kw)
	if err != nil {
		return err
	}

	if err := p.requireEnd(kw, rest); err != nil {
		return err
	}

	f.inElse = true
	f.ifn.HasElse = true
	f.ifn.Else = []Node{}

	return nil
}

func (p *parser) openFor(offset int, rest []item) error {
	name := rest[0]
	if name.typ != itemIdent || keywords[name.text] {
		return p.errorf(ErrInvalidStatement, name.off,
			"expected loop variable name after \"for\", found "+name.describe())
	}

	if rest[1].typ != itemIdent || rest[1].text != "in" {
		return p.errorf(ErrInvalidStatement, rest[1].off,
			"expected \"in\" after loop variable, found "+rest[1].describe())
	}

	src, err := p.condition(rest[1].off, "for", rest[2:])
	if err != nil {
		return err
	}

	forn := &ForNode{Var: name.text, Source: src, Pos: offset, Body: []Node{}}

	return p.push(&frame{forn: forn, offset: offset})
}

func (p *parser) end(kw item, rest []item) error {
	if len(p.stack) == 0 {
		return p.errorf(ErrUnmatchedEnd, kw.off, "\"end\" without an open block")
	}

	if err := p.requireEnd(kw, rest); err != nil {
		return err
	}

	p.stack = p.stack[:len(p.stack)-1]

	return nil
}
