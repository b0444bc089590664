package lang

import (
	"iter"
	"slices"
)

// Mapping is a string-keyed collection that preserves insertion order.
// Setting an existing key replaces its value in place.
//
// A Mapping is built by the host before rendering and must not be modified
// while any template reads it.
type Mapping struct {
	vals map[string]Value
	keys []string
}

// NewMapping returns an empty Mapping.
func NewMapping() *Mapping {
	return &Mapping{vals: map[string]Value{}}
}

// Set binds key to v and returns m.
func (m *Mapping) Set(key string, v Value) *Mapping {
	if m.vals == nil {
		m.vals = map[string]Value{}
	}

	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}

	m.vals[key] = v

	return m
}

// Get returns the value bound to key.
func (m *Mapping) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}

	v, ok := m.vals[key]

	return v, ok
}

// Len returns the number of keys.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}

	return len(m.keys)
}

// Keys returns a copy of the keys in insertion order.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}

	return slices.Clone(m.keys)
}

// All iterates over key/value bindings in insertion order.
func (m *Mapping) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if m == nil {
			return
		}

		for _, k := range m.keys {
			if !yield(k, m.vals[k]) {
				return
			}
		}
	}
}
