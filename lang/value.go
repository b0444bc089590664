package lang

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a [Value].
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInteger
	KindFloat
	KindString
	KindBoolean
	KindList
	KindMapping
	KindPair
	KindRecord
)

var kindName = [...]string{
	KindInvalid: "Invalid",
	KindInteger: "Integer",
	KindFloat:   "Float",
	KindString:  "String",
	KindBoolean: "Boolean",
	KindList:    "List",
	KindMapping: "Mapping",
	KindPair:    "Pair",
	KindRecord:  "Record",
}

// String returns the kind's name as reported in errors.
func (k Kind) String() string {
	if int(k) < len(kindName) {
		return kindName[k]
	}

	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is an immutable template value. The zero Value is invalid and is
// never produced by evaluation.
type Value struct {
	s    string
	list []Value
	m    *Mapping
	pair *[2]Value
	rec  Fielder
	i    int64
	f    float64
	kind Kind
}

// Fielder is implemented by host records that expose named fields to
// templates. Field reports false for unknown names.
type Fielder interface {
	Field(name string) (Value, bool)
}

// FieldLister is optionally implemented by a [Fielder] to enumerate its
// fields in a stable order.
type FieldLister interface {
	FieldNames() []string
}

// Int returns an Integer value.
func Int(n int64) Value { return Value{kind: KindInteger, i: n} }

// Float returns a Float value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Str returns a String value.
func Str(s string) Value { return Value{kind: KindString, s: s} }

// Bool returns a Boolean value.
func Bool(b bool) Value {
	v := Value{kind: KindBoolean}
	if b {
		v.i = 1
	}

	return v
}

// List returns a List value. The slice is not copied; callers must not
// modify it afterwards.
func List(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}

	return Value{kind: KindList, list: items}
}

// Map returns a Mapping value. A nil mapping is treated as empty.
func Map(m *Mapping) Value {
	if m == nil {
		m = NewMapping()
	}

	return Value{kind: KindMapping, m: m}
}

// PairOf returns a Pair value.
func PairOf(a, b Value) Value { return Value{kind: KindPair, pair: &[2]Value{a, b}} }

// RecordOf returns a Record value backed by f.
func RecordOf(f Fielder) Value { return Value{kind: KindRecord, rec: f} }

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// Int64 returns the integer held by an Integer value.
func (v Value) Int64() (int64, bool) { return v.i, v.kind == KindInteger }

// Float64 returns the float held by a Float value.
func (v Value) Float64() (float64, bool) { return v.f, v.kind == KindFloat }

// Str returns the text held by a String value.
func (v Value) Str() (string, bool) { return v.s, v.kind == KindString }

// Bool returns the truth held by a Boolean value. Use [Value.Truthy] for
// the conditional interpretation of other kinds.
func (v Value) Bool() (bool, bool) { return v.i != 0, v.kind == KindBoolean }

// Items returns the elements of a List. Callers must not modify them.
func (v Value) Items() ([]Value, bool) { return v.list, v.kind == KindList }

// Mapping returns the entries of a Mapping value.
func (v Value) Mapping() (*Mapping, bool) {
	return v.m, v.kind == KindMapping
}

// Record returns the host record behind a Record value.
func (v Value) Record() (Fielder, bool) { return v.rec, v.kind == KindRecord }

// Pair returns both elements of a Pair.
func (v Value) Pair() (Value, Value, bool) {
	if v.kind != KindPair {
		return Value{}, Value{}, false
	}

	return v.pair[0], v.pair[1], true
}

// number returns v as a float64 for Integer and Float values.
func (v Value) number() (float64, bool) {
	switch v.kind {
	case KindInteger:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// Truthy reports whether v selects a conditional branch. Booleans are
// themselves, numbers are true when non-zero, Strings, Lists and Mappings
// when non-empty. Pairs and Records are always true.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBoolean:
		return v.i != 0
	case KindInteger:
		return v.i != 0
	case KindFloat:
		return v.f != 0 && !math.IsNaN(v.f)
	case KindString:
		return v.s != ""
	case KindList:
		return len(v.list) > 0
	case KindMapping:
		return v.m.Len() > 0
	case KindPair, KindRecord:
		return true
	default:
		return false
	}
}

// Equal reports structural equality. Integers and Floats compare
// numerically; values of other differing kinds are never equal.
func (v Value) Equal(w Value) bool {
	if a, ok := v.number(); ok {
		b, ok := w.number()

		if v.kind == KindInteger && w.kind == KindInteger {
			return v.i == w.i
		}

		return ok && a == b
	}

	if v.kind != w.kind {
		return false
	}

	switch v.kind {
	case KindString:
		return v.s == w.s
	case KindBoolean:
		return v.i == w.i
	case KindList:
		if len(v.list) != len(w.list) {
			return false
		}

		for i := range v.list {
			if !v.list[i].Equal(w.list[i]) {
				return false
			}
		}

		return true
	case KindMapping:
		if v.m.Len() != w.m.Len() {
			return false
		}

		for k, x := range v.m.All() {
			if y, ok := w.m.Get(k); !ok || !x.Equal(y) {
				return false
			}
		}

		return true
	case KindPair:
		return v.pair[0].Equal(w.pair[0]) && v.pair[1].Equal(w.pair[1])
	case KindRecord:
		if v.rec == nil || w.rec == nil {
			return v.rec == nil && w.rec == nil
		}

		t := reflect.TypeOf(v.rec)

		return t == reflect.TypeOf(w.rec) && t.Comparable() && v.rec == w.rec
	default:
		return false
	}
}

// String returns the textual form used by output tags and to_string.
// Strings nested in containers are quoted.
func (v Value) String() string {
	var buf strings.Builder

	v.write(&buf, false)

	return buf.String()
}

func (v Value) write(buf *strings.Builder, nested bool) {
	switch v.kind {
	case KindInteger:
		buf.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		buf.WriteString(formatFloat(v.f))
	case KindString:
		if nested {
			buf.WriteString(strconv.Quote(v.s))
		} else {
			buf.WriteString(v.s)
		}
	case KindBoolean:
		buf.WriteString(strconv.FormatBool(v.i != 0))
	case KindList:
		buf.WriteByte('[')

		for i, x := range v.list {
			if i > 0 {
				buf.WriteString(", ")
			}

			x.write(buf, true)
		}

		buf.WriteByte(']')
	case KindMapping:
		writeFields(buf, v.m.Keys(), v.m.Get)
	case KindPair:
		buf.WriteByte('(')
		v.pair[0].write(buf, true)
		buf.WriteString(", ")
		v.pair[1].write(buf, true)
		buf.WriteByte(')')
	case KindRecord:
		writeRecord(buf, v.rec)
	default:
		buf.WriteString("<invalid>")
	}
}

func writeRecord(buf *strings.Builder, rec Fielder) {
	if s, ok := rec.(fmt.Stringer); ok {
		buf.WriteString(s.String())

		return
	}

	if l, ok := rec.(FieldLister); ok {
		writeFields(buf, l.FieldNames(), rec.Field)

		return
	}

	buf.WriteString("<record>")
}

func writeFields(buf *strings.Builder, keys []string, get func(string) (Value, bool)) {
	buf.WriteByte('{')

	for i, k := range keys {
		if i > 0 {
			buf.WriteString(", ")
		}

		buf.WriteString(k)
		buf.WriteString(": ")

		if x, ok := get(k); ok {
			x.write(buf, true)
		}
	}

	buf.WriteByte('}')
}

// formatFloat renders the shortest decimal that round-trips, without an
// exponent for ordinary magnitudes: 10.0 is "10" and 54.5 is "54.5".
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	case math.IsNaN(f):
		return "NaN"
	}

	if a := math.Abs(f); a != 0 && (a < 1e-6 || a >= 1e21) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}

	return strconv.FormatFloat(f, 'f', -1, 64)
}
