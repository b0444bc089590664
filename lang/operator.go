package lang

import (
	"log/slog"
	"math"
	"strings"
)

// maxRepeatBytes bounds the size of a String produced by repetition.
const maxRepeatBytes = 1 << 26

// Unary applies a prefix operator.
func Unary(op string, x Value) (Value, error) {
	switch op {
	case "!":
		return Bool(!x.Truthy()), nil
	case "-":
		switch x.kind {
		case KindInteger:
			if x.i == math.MinInt64 {
				return Value{}, mismatch("Integer with representable negation", x, "unary -")
			}

			return Int(-x.i), nil
		case KindFloat:
			return Float(-x.f), nil
		}
	case "+":
		if x.kind == KindInteger || x.kind == KindFloat {
			return x, nil
		}
	default:
		return Value{}, ErrUndefinedOperation.With(
			slog.String("receiver", x.kind.String()),
			slog.String("name", op))
	}

	return Value{}, mismatch("Integer or Float", x, "unary "+op)
}

// Binary applies an infix operator other than the short-circuiting
// "&&" and "||", which the evaluator handles.
func Binary(op string, x, y Value) (Value, error) {
	switch op {
	case "==":
		return Bool(x.Equal(y)), nil
	case "!=":
		return Bool(!x.Equal(y)), nil
	case "<", "<=", ">", ">=":
		return compare(op, x, y)
	case "+":
		return add(x, y)
	case "-":
		return subtract(x, y)
	case "*":
		return multiply(x, y)
	case "/", "%":
		return divide(op, x, y)
	case "&&":
		return Bool(x.Truthy() && y.Truthy()), nil
	case "||":
		return Bool(x.Truthy() || y.Truthy()), nil
	}

	return Value{}, ErrUndefinedOperation.With(
		slog.String("receiver", x.kind.String()),
		slog.String("name", op))
}

func operandMismatch(op string, x, y Value) *Error {
	return ErrTypeMismatch.With(
		slog.String("expected", "compatible operands"),
		slog.String("found", x.kind.String()+" "+op+" "+y.kind.String()),
		slog.String("context", "operator "+op))
}

// arith applies integer or float arithmetic. Mixed operands are widened to
// Float; Integer overflow wraps.
func arith(
	op string,
	x, y Value,
	ints func(a, b int64) int64,
	floats func(a, b float64) float64,
) (Value, error) {
	if x.kind == KindInteger && y.kind == KindInteger {
		return Int(ints(x.i, y.i)), nil
	}

	a, aok := x.number()
	b, bok := y.number()

	if !aok || !bok {
		return Value{}, operandMismatch(op, x, y)
	}

	return Float(floats(a, b)), nil
}

func add(x, y Value) (Value, error) {
	switch {
	case x.kind == KindString && y.kind == KindString:
		return Str(x.s + y.s), nil
	case x.kind == KindList && y.kind == KindList:
		items := make([]Value, 0, len(x.list)+len(y.list))

		return List(append(append(items, x.list...), y.list...)...), nil
	}

	return arith("+", x, y,
		func(a, b int64) int64 { return a + b },
		func(a, b float64) float64 { return a + b })
}

func subtract(x, y Value) (Value, error) {
	if x.kind == KindString && y.kind == KindString {
		if y.s == "" {
			return x, nil
		}

		return Str(strings.ReplaceAll(x.s, y.s, "")), nil
	}

	return arith("-", x, y,
		func(a, b int64) int64 { return a - b },
		func(a, b float64) float64 { return a - b })
}

func multiply(x, y Value) (Value, error) {
	switch {
	case x.kind == KindString && y.kind == KindInteger:
		return repeatString(x, y)
	case x.kind == KindInteger && y.kind == KindString:
		return repeatString(y, x)
	case x.kind == KindList && y.kind == KindInteger:
		return repeatList(x, y)
	case x.kind == KindInteger && y.kind == KindList:
		return repeatList(y, x)
	}

	return arith("*", x, y,
		func(a, b int64) int64 { return a * b },
		func(a, b float64) float64 { return a * b })
}

func repeatString(s, n Value) (Value, error) {
	if n.i < 0 || (len(s.s) > 0 && n.i > int64(maxRepeatBytes/len(s.s))) {
		return Value{}, mismatch("repeat count in range", n, "string repetition")
	}

	return Str(strings.Repeat(s.s, int(n.i))), nil
}

func repeatList(l, n Value) (Value, error) {
	if n.i < 0 {
		return Value{}, mismatch("repeat count in range", n, "list repetition")
	}

	if len(l.list) == 0 || n.i == 0 {
		return List(), nil
	}

	if n.i > int64(maxSequence/len(l.list)) {
		return Value{}, mismatch("repeat count in range", n, "list repetition")
	}

	items := make([]Value, 0, len(l.list)*int(n.i))
	for range n.i {
		items = append(items, l.list...)
	}

	return List(items...), nil
}

func divide(op string, x, y Value) (Value, error) {
	b, ok := y.number()
	if ok && b == 0 {
		if _, xok := x.number(); xok {
			return Value{}, ErrDivisionByZero.With(slog.String("operator", op))
		}
	}

	if op == "/" {
		return arith(op, x, y,
			func(a, b int64) int64 { return a / b },
			func(a, b float64) float64 { return a / b })
	}

	return arith(op, x, y,
		func(a, b int64) int64 { return a % b },
		math.Mod)
}

func compare(op string, x, y Value) (Value, error) {
	var c int

	switch {
	case x.kind == KindString && y.kind == KindString:
		c = strings.Compare(x.s, y.s)

	case x.kind == KindInteger && y.kind == KindInteger:
		switch {
		case x.i < y.i:
			c = -1
		case x.i > y.i:
			c = 1
		}

	default:
		a, aok := x.number()
		b, bok := y.number()

		if !aok || !bok {
			return Value{}, operandMismatch(op, x, y)
		}

		switch {
		case a < b:
			c = -1
		case a > b:
			c = 1
		case a != b: // NaN
			return Bool(false), nil
		}
	}

	switch op {
	case "<":
		return Bool(c < 0), nil
	case "<=":
		return Bool(c <= 0), nil
	case ">":
		return Bool(c > 0), nil
	default:
		return Bool(c >= 0), nil
	}
}
