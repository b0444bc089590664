package lang

import (
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Operation is a built-in method invoked as recv.name or recv.name(args).
// Arity has already been checked when it runs.
type Operation func(recv Value, args []Value) (Value, error)

type operation struct {
	fn       Operation
	min, max int
}

// registry maps a receiver kind and operation name to its implementation.
// It is populated once at init and read-only afterwards.
//
//nolint:gochecknoglobals
var registry = map[Kind]map[string]operation{}

func register(name string, minArgs, maxArgs int, fn Operation, kinds ...Kind) {
	for _, k := range kinds {
		if registry[k] == nil {
			registry[k] = map[string]operation{}
		}

		registry[k][name] = operation{fn: fn, min: minArgs, max: maxArgs}
	}
}

func alias(from, to string, kinds ...Kind) {
	for _, k := range kinds {
		registry[k][from] = registry[k][to]
	}
}

// Operations returns the sorted names of the operations defined on kind.
func Operations(kind Kind) []string {
	names := make([]string, 0, len(registry[kind]))
	for name := range registry[kind] {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// HasOperation reports whether name is defined on kind.
func HasOperation(kind Kind, name string) bool {
	_, ok := registry[kind][name]

	return ok
}

// Call invokes the operation name on recv. Resolution depends only on the
// receiver's kind.
func Call(recv Value, name string, args []Value) (Value, error) {
	op, ok := registry[recv.kind][name]
	if !ok {
		return Value{}, ErrUndefinedOperation.With(
			slog.String("receiver", recv.kind.String()),
			slog.String("name", name))
	}

	if len(args) < op.min || len(args) > op.max {
		return Value{}, ErrArgumentCount.With(
			slog.String("receiver", recv.kind.String()),
			slog.String("name", name),
			slog.Int("min", op.min),
			slog.Int("max", op.max),
			slog.Int("found", len(args)))
	}

	return op.fn(recv, args)
}

// Index returns element n of a List or Pair.
func Index(recv Value, n int) (Value, error) {
	var items []Value

	switch recv.kind {
	case KindList:
		items = recv.list
	case KindPair:
		items = recv.pair[:]
	case KindMapping:
		if v, ok := recv.m.Get(strconv.Itoa(n)); ok {
			return v, nil
		}

		return Value{}, ErrUndefinedVariable.With(slog.String("key", strconv.Itoa(n)))
	default:
		return Value{}, ErrUndefinedOperation.With(
			slog.String("receiver", recv.kind.String()),
			slog.String("name", "."+strconv.Itoa(n)))
	}

	if n < 0 || n >= len(items) {
		return Value{}, ErrIndexOutOfBounds.With(
			slog.Int("index", n),
			slog.Int("length", len(items)))
	}

	return items[n], nil
}

func mismatch(expected string, found Value, context string) *Error {
	return ErrTypeMismatch.With(
		slog.String("expected", expected),
		slog.String("found", found.kind.String()),
		slog.String("context", context))
}

func init() {
	numeric := []Kind{KindInteger, KindFloat}
	all := []Kind{
		KindInteger, KindFloat, KindString, KindBoolean,
		KindList, KindMapping, KindPair, KindRecord,
	}
	sized := []Kind{KindString, KindList, KindMapping}

	register("to_string", 0, 0, func(v Value, _ []Value) (Value, error) {
		return Str(v.String()), nil
	}, all...)
	alias("to_s", "to_string", all...)

	register("abs", 0, 0, opAbs, numeric...)
	register("to_f", 0, 0, opToFloat, KindInteger, KindFloat, KindString)
	alias("to_float", "to_f", KindInteger, KindFloat, KindString)
	register("to_i", 0, 0, opToInt, KindInteger, KindFloat, KindString)
	alias("to_integer", "to_i", KindInteger, KindFloat, KindString)
	register("times", 0, 0, opTimes, KindInteger)

	register("ceil", 0, 0, rounding(math.Ceil, "ceil"), KindFloat)
	register("floor", 0, 0, rounding(math.Floor, "floor"), KindFloat)
	register("round", 0, 0, rounding(math.Round, "round"), KindFloat)

	register("upcase", 0, 0, stringOp(strings.ToUpper), KindString)
	alias("to_uppercase", "upcase", KindString)
	register("downcase", 0, 0, stringOp(strings.ToLower), KindString)
	alias("to_lowercase", "downcase", KindString)
	register("trim", 0, 0, stringOp(strings.TrimSpace), KindString)

	register("len", 0, 0, opLen, sized...)
	alias("length", "len", sized...)
	register("empty", 0, 0, func(v Value, args []Value) (Value, error) {
		n, err := opLen(v, args)

		return Bool(n.i == 0), err
	}, sized...)

	register("enumerate", 0, 0, opEnumerate, KindList)
	register("reverse", 0, 0, opReverse, KindList)
	alias("rev", "reverse", KindList)
	register("first", 0, 0, func(v Value, _ []Value) (Value, error) {
		return Index(v, 0)
	}, KindList)
	register("last", 0, 0, func(v Value, _ []Value) (Value, error) {
		return Index(v, len(v.list)-1)
	}, KindList)
	register("join", 0, 1, opJoin, KindList)

	register("keys", 0, 0, opKeys, KindMapping, KindRecord)
	register("values", 0, 0, opValues, KindMapping, KindRecord)
	register("iter", 0, 0, opIter, KindMapping, KindRecord)
}

func opAbs(v Value, _ []Value) (Value, error) {
	if v.kind == KindFloat {
		return Float(math.Abs(v.f)), nil
	}

	if v.i == math.MinInt64 {
		return Value{}, mismatch("Integer with representable magnitude", v, "abs")
	}

	if v.i < 0 {
		return Int(-v.i), nil
	}

	return v, nil
}

func opToFloat(v Value, _ []Value) (Value, error) {
	switch v.kind {
	case KindInteger:
		return Float(float64(v.i)), nil
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return Value{}, mismatch("numeric String", v, "to_f").Wrap(err)
		}

		return Float(f), nil
	default:
		return v, nil
	}
}

func opToInt(v Value, _ []Value) (Value, error) {
	switch v.kind {
	case KindFloat:
		return floatToInt(math.Trunc(v.f), v, "to_i")
	case KindString:
		n, err := strconv.ParseInt(strings.TrimSpace(v.s), 10, 64)
		if err != nil {
			return Value{}, mismatch("integer String", v, "to_i").Wrap(err)
		}

		return Int(n), nil
	default:
		return v, nil
	}
}

func floatToInt(f float64, v Value, context string) (Value, error) {
	if math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return Value{}, mismatch("Float within Integer range", v, context)
	}

	return Int(int64(f)), nil
}

func rounding(fn func(float64) float64, name string) Operation {
	return func(v Value, _ []Value) (Value, error) {
		return floatToInt(fn(v.f), v, name)
	}
}

func opTimes(v Value, _ []Value) (Value, error) {
	if v.i < 0 {
		return Value{}, mismatch("non-negative Integer", v, "times")
	}

	if v.i > maxSequence {
		return Value{}, mismatch("Integer at most "+strconv.Itoa(maxSequence), v, "times")
	}

	items := make([]Value, v.i)
	for i := range items {
		items[i] = Int(int64(i))
	}

	return List(items...), nil
}

// maxSequence bounds lists produced by times and repetition.
const maxSequence = 1 << 24

func stringOp(fn func(string) string) Operation {
	return func(v Value, _ []Value) (Value, error) {
		return Str(fn(v.s)), nil
	}
}

func opLen(v Value, _ []Value) (Value, error) {
	switch v.kind {
	case KindString:
		return Int(int64(utf8.RuneCountInString(v.s))), nil
	case KindList:
		return Int(int64(len(v.list))), nil
	default:
		return Int(int64(v.m.Len())), nil
	}
}

func opEnumerate(v Value, _ []Value) (Value, error) {
	items := make([]Value, len(v.list))
	for i, x := range v.list {
		items[i] = PairOf(Int(int64(i)), x)
	}

	return List(items...), nil
}

func opReverse(v Value, _ []Value) (Value, error) {
	items := slices.Clone(v.list)
	slices.Reverse(items)

	return List(items...), nil
}

func opJoin(v Value, args []Value) (Value, error) {
	sep := ""

	if len(args) == 1 {
		s, ok := args[0].Str()
		if !ok {
			return Value{}, mismatch("String", args[0], "join separator")
		}

		sep = s
	}

	parts := make([]string, len(v.list))
	for i, x := range v.list {
		parts[i] = x.String()
	}

	return Str(strings.Join(parts, sep)), nil
}

// fields returns the ordered keys and a lookup function for a Mapping or
// a listing Record.
func fields(v Value) ([]string, func(string) (Value, bool), error) {
	if v.kind == KindMapping {
		return v.m.Keys(), v.m.Get, nil
	}

	l, ok := v.rec.(FieldLister)
	if !ok {
		return nil, nil, mismatch("Record listing its fields", v, "field iteration")
	}

	return l.FieldNames(), v.rec.Field, nil
}

func opKeys(v Value, _ []Value) (Value, error) {
	keys, _, err := fields(v)
	if err != nil {
		return Value{}, err
	}

	items := make([]Value, len(keys))
	for i, k := range keys {
		items[i] = Str(k)
	}

	return List(items...), nil
}

func opValues(v Value, _ []Value) (Value, error) {
	keys, get, err := fields(v)
	if err != nil {
		return Value{}, err
	}

	items := make([]Value, 0, len(keys))

	for _, k := range keys {
		if x, ok := get(k); ok {
			items = append(items, x)
		}
	}

	return List(items...), nil
}

func opIter(v Value, _ []Value) (Value, error) {
	keys, get, err := fields(v)
	if err != nil {
		return Value{}, err
	}

	items := make([]Value, 0, len(keys))

	for _, k := range keys {
		if x, ok := get(k); ok {
			items = append(items, PairOf(Str(k), x))
		}
	}

	return List(items...), nil
}
