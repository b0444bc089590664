// Package snippet resolves the named static fragments that templates insert
// with the snippet global, such as stylesheet and script tags.
//
// Snippets are read from YAML or TOML files. Nested tables are flattened
// with dotted names, so
//
//	[css]
//	main = '<link rel="stylesheet" href="/main.css">'
//
// defines the snippet "css.main".
package snippet

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/etpl/pkg"
)

var (
	ErrNotFound = pkg.MakeErrorf("snippet not found")
	ErrDecode   = pkg.MakeErrorf("invalid snippet file")
)

// Set maps snippet names to their text. It implements the template
// engine's snippet source and is safe for concurrent reads.
type Set map[string]string

// Snippet returns the text of the named snippet.
func (s Set) Snippet(name string) (string, error) {
	text, ok := s[name]
	if !ok {
		return "", ErrNotFound.Wrapf("%q", name)
	}

	return text, nil
}

// Names returns the sorted snippet names.
func (s Set) Names() []string {
	return slices.Sorted(maps.Keys(s))
}

// Merge returns a new Set holding s overridden by each of others in order.
func (s Set) Merge(others ...Set) Set {
	out := maps.Clone(s)
	if out == nil {
		out = Set{}
	}

	for _, o := range others {
		maps.Copy(out, o)
	}

	return out
}

// Load reads the snippet file at path. The format is chosen by extension:
// .toml for TOML and anything else for YAML.
func Load(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkg.ErrReadInput.Wrap(err)
	}

	return Decode(data, strings.ToLower(filepath.Ext(path)))
}

// LoadAll reads and merges the snippet files at paths. Later files override
// earlier ones.
func LoadAll(paths ...string) (Set, error) {
	out := Set{}

	for _, p := range paths {
		s, err := Load(p)
		if err != nil {
			return nil, err
		}

		out = out.Merge(s)
	}

	return out, nil
}

// Decode parses snippet definitions in the format named by ext.
func Decode(data []byte, ext string) (Set, error) {
	var raw map[string]any

	switch ext {
	case ".toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, ErrDecode.Wrap(err)
		}
	default:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, ErrDecode.Wrap(err)
		}
	}

	out := Set{}

	if err := flatten(out, "", raw); err != nil {
		return nil, err
	}

	return out, nil
}

func flatten(out Set, prefix string, m map[string]any) error {
	for k, v := range m {
		name := k
		if prefix != "" {
			name = prefix + "." + k
		}

		switch v := v.(type) {
		case string:
			out[name] = v
		case map[string]any:
			if err := flatten(out, name, v); err != nil {
				return err
			}
		case nil:
			out[name] = ""
		case bool, int, int64, uint64, float64:
			out[name] = fmt.Sprint(v)
		default:
			return ErrDecode.Wrapf("snippet %q: unsupported value of type %T", name, v)
		}
	}

	return nil
}
