package lang

import (
	"strconv"
	"strings"
)

// Node is a template statement. Offsets are byte offsets into the source.
type Node interface {
	Offset() int
	node()
}

// TextNode is literal text copied to the output verbatim.
type TextNode struct {
	Text string
	Pos  int
}

// OutputNode writes the textual form of Expr, HTML-escaped unless Raw.
type OutputNode struct {
	Expr Expr
	Pos  int
	Raw  bool
}

// Branch is one conditional arm of an [IfNode].
type Branch struct {
	Cond Expr
	Body []Node
	Pos  int
}

// IfNode renders the body of the first branch whose condition is truthy,
// otherwise Else.
type IfNode struct {
	Branches []Branch
	Else     []Node
	Pos      int
	HasElse  bool
}

// ForNode renders Body once per element of Source with Var bound to it.
type ForNode struct {
	Var    string
	Source Expr
	Body   []Node
	Pos    int
}

func (n *TextNode) Offset() int   { return n.Pos }
func (n *OutputNode) Offset() int { return n.Pos }
func (n *IfNode) Offset() int     { return n.Pos }
func (n *ForNode) Offset() int    { return n.Pos }

func (*TextNode) node()   {}
func (*OutputNode) node() {}
func (*IfNode) node()     {}
func (*ForNode) node()    {}

// Expr is an expression. String returns normalized source text that parses
// back to an equivalent expression.
type Expr interface {
	Offset() int
	String() string
	expr()
}

// Literal is a constant Integer, Float, String or Boolean.
type Literal struct {
	Value Value
	Pos   int
}

// Ident references a loop variable or context name.
type Ident struct {
	Name string
	Pos  int
}

// ListExpr is a list literal.
type ListExpr struct {
	Elems []Expr
	Pos   int
}

// UnaryExpr applies a prefix operator: "!", "-" or "+".
type UnaryExpr struct {
	X   Expr
	Op  string
	Pos int
}

// BinaryExpr applies an infix operator.
type BinaryExpr struct {
	X, Y Expr
	Op   string
	Pos  int
}

// MemberExpr is a postfix access on X: a named operation or key
// (x.name, x.name(args)) or a positional index (x.0).
type MemberExpr struct {
	X       Expr
	Name    string
	Args    []Expr
	Index   int
	Pos     int
	IsIndex bool
	Call    bool
}

// CallExpr invokes a global function.
type CallExpr struct {
	Name string
	Args []Expr
	Pos  int
}

func (e *Literal) Offset() int    { return e.Pos }
func (e *Ident) Offset() int      { return e.Pos }
func (e *ListExpr) Offset() int   { return e.Pos }
func (e *UnaryExpr) Offset() int  { return e.Pos }
func (e *BinaryExpr) Offset() int { return e.Pos }
func (e *MemberExpr) Offset() int { return e.Pos }
func (e *CallExpr) Offset() int   { return e.Pos }

func (*Literal) expr()    {}
func (*Ident) expr()      {}
func (*ListExpr) expr()   {}
func (*UnaryExpr) expr()  {}
func (*BinaryExpr) expr() {}
func (*MemberExpr) expr() {}
func (*CallExpr) expr()   {}

func (e *Literal) String() string {
	switch e.Value.Kind() {
	case KindString:
		return strconv.Quote(e.Value.s)
	case KindFloat:
		s := e.Value.String()
		if !strings.ContainsAny(s, ".eEIN") {
			s += ".0"
		}

		return s
	default:
		return e.Value.String()
	}
}

func (e *Ident) String() string { return e.Name }

func (e *ListExpr) String() string { return "[" + joinExprs(e.Elems) + "]" }

func (e *UnaryExpr) String() string { return e.Op + wrapOperand(e.X) }

func (e *BinaryExpr) String() string {
	return "(" + e.X.String() + " " + e.Op + " " + e.Y.String() + ")"
}

func (e *MemberExpr) String() string {
	recv := wrapOperand(e.X)

	// "1.abs" would scan as a float followed by an identifier.
	if lit, ok := e.X.(*Literal); ok && lit.Value.Kind() == KindFloat {
		recv = "(" + recv + ")"
	}

	if e.IsIndex {
		return recv + "." + strconv.Itoa(e.Index)
	}

	if e.Call {
		return recv + "." + e.Name + "(" + joinExprs(e.Args) + ")"
	}

	return recv + "." + e.Name
}

func (e *CallExpr) String() string {
	return e.Name + "(" + joinExprs(e.Args) + ")"
}

// wrapOperand parenthesizes expressions that would bind differently as a
// prefix or postfix operand.
func wrapOperand(x Expr) string {
	switch v := x.(type) {
	case *UnaryExpr:
		return "(" + v.String() + ")"
	case *Literal:
		if n, ok := v.Value.Int64(); ok && n < 0 {
			return "(" + v.String() + ")"
		}

		if f, ok := v.Value.Float64(); ok && f < 0 {
			return "(" + v.String() + ")"
		}
	}

	return x.String()
}

func joinExprs(xs []Expr) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = x.String()
	}

	return strings.Join(parts, ", ")
}
