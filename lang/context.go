package lang

import (
	"encoding"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/goccy/go-yaml"
)

// Context holds the top-level names visible to a template. The zero Context
// is empty and usable. A Context must not be modified during a render.
type Context struct {
	vars *Mapping
}

// Contexter is implemented by host objects that know how to present
// themselves to templates.
type Contexter interface {
	TemplateContext() (Context, error)
}

// NewContext returns a Context over m. A nil m yields an empty Context.
func NewContext(m *Mapping) Context {
	if m == nil {
		m = NewMapping()
	}

	return Context{vars: m}
}

// ContextOf converts host data into a Context. data may be a [Contexter],
// a *[Mapping], a [yaml.MapSlice], or any Go map with string keys or struct,
// converted by [FromNative].
func ContextOf(data any) (Context, error) {
	switch d := data.(type) {
	case nil:
		return Context{}, nil
	case Context:
		return d, nil
	case Contexter:
		return d.TemplateContext()
	}

	v, err := FromNative(data)
	if err != nil {
		return Context{}, err
	}

	switch v.kind {
	case KindMapping:
		return Context{vars: v.m}, nil

	case KindRecord:
		l, ok := v.rec.(FieldLister)
		if !ok {
			break
		}

		m := NewMapping()

		for _, name := range l.FieldNames() {
			if x, ok := v.rec.Field(name); ok {
				m.Set(name, x)
			}
		}

		return Context{vars: m}, nil
	}

	return Context{}, mismatch("Mapping", v, "template context")
}

// Set binds name to v, allocating the underlying Mapping if needed.
func (c *Context) Set(name string, v Value) *Context {
	if c.vars == nil {
		c.vars = NewMapping()
	}

	c.vars.Set(name, v)

	return c
}

// Get returns the value bound to name.
func (c Context) Get(name string) (Value, bool) { return c.vars.Get(name) }

// Names returns the bound names in insertion order.
func (c Context) Names() []string { return c.vars.Keys() }

// Len returns the number of bound names.
func (c Context) Len() int { return c.vars.Len() }

// Merge returns a Context holding c's bindings overridden by other's.
func (c Context) Merge(other Context) Context {
	m := NewMapping()

	for k, v := range c.vars.All() {
		m.Set(k, v)
	}

	for k, v := range other.vars.All() {
		m.Set(k, v)
	}

	return Context{vars: m}
}

// FromNative converts a Go value into a template [Value].
//
// Integers, floats, strings, booleans, byte slices, slices and arrays,
// maps with string keys, [yaml.MapSlice] (order preserved) and structs are
// supported, as are [Value], *[Mapping] and [Fielder]. Go maps are ordered
// by key. A nil interface, pointer or map becomes the empty String.
// [time.Time] becomes an RFC 3339 String and [encoding.TextMarshaler]
// its text.
func FromNative(x any) (Value, error) {
	return fromNative(reflect.ValueOf(x), 0)
}

func fromNative(rv reflect.Value, depth int) (Value, error) {
	if depth > DefaultMaxDepth {
		return Value{}, ErrNestingTooDeep.With(slog.Int("limit", DefaultMaxDepth))
	}

	if !rv.IsValid() {
		return Str(""), nil
	}

	if rv.CanInterface() {
		switch x := rv.Interface().(type) {
		case Value:
			return x, nil
		case *Mapping:
			return Map(x), nil
		case Context:
			return Map(x.vars), nil
		case yaml.MapSlice:
			return fromMapSlice(x, depth)
		case time.Time:
			return Str(x.Format(time.RFC3339)), nil
		case []byte:
			return Str(string(x)), nil
		case Fielder:
			if rv.Kind() != reflect.Pointer || !rv.IsNil() {
				return RecordOf(x), nil
			}
		case encoding.TextMarshaler:
			if rv.Kind() != reflect.Pointer || !rv.IsNil() {
				b, err := x.MarshalText()
				if err != nil {
					return Value{}, WrapError(err)
				}

				return Str(string(b)), nil
			}
		}
	}

	switch rv.Kind() {
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Int(int64(rv.Uint())), nil //nolint:gosec
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil
	case reflect.String:
		return Str(rv.String()), nil

	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Str(""), nil
		}

		return fromNative(rv.Elem(), depth+1)

	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return List(), nil
		}

		items := make([]Value, rv.Len())

		for i := range items {
			v, err := fromNative(rv.Index(i), depth+1)
			if err != nil {
				return Value{}, err
			}

			items[i] = v
		}

		return List(items...), nil

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}

		keys := rv.MapKeys()
		slices.SortFunc(keys, func(a, b reflect.Value) int {
			return strings.Compare(a.String(), b.String())
		})

		m := NewMapping()

		for _, k := range keys {
			v, err := fromNative(rv.MapIndex(k), depth+1)
			if err != nil {
				return Value{}, err
			}

			m.Set(k.String(), v)
		}

		return Map(m), nil

	case reflect.Struct:
		return fromStruct(rv, depth)
	}

	return Value{}, ErrTypeMismatch.With(
		slog.String("expected", "convertible host value"),
		slog.String("found", rv.Type().String()),
		slog.String("context", "host conversion"))
}

func fromMapSlice(ms yaml.MapSlice, depth int) (Value, error) {
	m := NewMapping()

	for _, item := range ms {
		v, err := fromNative(reflect.ValueOf(item.Value), depth+1)
		if err != nil {
			return Value{}, err
		}

		m.Set(fmt.Sprint(item.Key), v)
	}

	return Map(m), nil
}

// fromStruct converts the exported fields of a struct into a Mapping keyed
// by the field's "etpl" tag, or its snake_case name.
func fromStruct(rv reflect.Value, depth int) (Value, error) {
	m := NewMapping()
	t := rv.Type()

	for i := range t.NumField() {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		name := snakeCase(sf.Name)

		if tag, ok := sf.Tag.Lookup("etpl"); ok {
			if tag == "-" {
				continue
			}

			if tag != "" {
				name = tag
			}
		}

		v, err := fromNative(rv.Field(i), depth+1)
		if err != nil {
			return Value{}, err
		}

		m.Set(name, v)
	}

	return Map(m), nil
}

// snakeCase converts an exported Go identifier such as "UserID" into
// "user_id".
func snakeCase(s string) string {
	rs := []rune(s)

	var b strings.Builder

	for i, r := range rs {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && !unicode.IsUpper(rs[i-1])
			nextLower := i > 0 && i+1 < len(rs) && unicode.IsLower(rs[i+1])

			if i > 0 && rs[i-1] != '_' && (prevLower || nextLower) {
				b.WriteByte('_')
			}

			b.WriteRune(unicode.ToLower(r))

			continue
		}

		b.WriteRune(r)
	}

	return b.String()
}
