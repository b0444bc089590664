// Package data loads host data into template contexts.
//
// Data files may be YAML, JSON or TOML. Their top level must be a mapping;
// each key becomes a name visible to templates. YAML and JSON keep the key
// order of the file; TOML tables are ordered by key.
//
// [Assign] binds additional names from expr-lang expressions evaluated
// against the data already loaded, as in
//
//	etpl render -d site.yaml --set 'count=len(posts)' page.html
package data

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/etpl/lang"
	"github.com/ardnew/etpl/pkg"
)

var (
	ErrDecode     = pkg.MakeErrorf("invalid data file")
	ErrNotMapping = pkg.MakeErrorf("data must be a mapping at the top level")
)

// Format identifies a data file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// FormatOf returns the format implied by the extension of path. Unknown
// extensions are read as YAML, which also accepts JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".json":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// File is a data file path. It implements [lang.Contexter], loading the file
// each time a context is requested.
type File string

// TemplateContext implements [lang.Contexter].
func (f File) TemplateContext() (lang.Context, error) {
	return Load(string(f))
}

// Load reads the data file at path.
func Load(path string) (lang.Context, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return lang.Context{}, pkg.ErrReadInput.Wrap(err)
	}

	c, err := Decode(buf, FormatOf(path))
	if err != nil {
		return lang.Context{}, fmt.Errorf("%s: %w", path, err)
	}

	return c, nil
}

// LoadAll reads each data file in order and merges them. Names in later
// files replace those in earlier ones.
func LoadAll(paths ...string) (lang.Context, error) {
	var out lang.Context

	for _, p := range paths {
		c, err := lang.ContextOf(File(p))
		if err != nil {
			return lang.Context{}, err
		}

		out = out.Merge(c)
	}

	return out, nil
}

// Decode parses buf in the given format.
func Decode(buf []byte, format Format) (lang.Context, error) {
	var doc any

	switch format {
	case FormatTOML:
		var m map[string]any
		if err := toml.Unmarshal(buf, &m); err != nil {
			return lang.Context{}, ErrDecode.Wrap(err)
		}

		doc = m

	default:
		// JSON is read by the YAML decoder so that key order survives.
		if err := yaml.UnmarshalWithOptions(buf, &doc, yaml.UseOrderedMap()); err != nil {
			return lang.Context{}, ErrDecode.Wrap(err)
		}
	}

	switch doc.(type) {
	case nil:
		return lang.Context{}, nil
	case yaml.MapSlice, map[string]any:
	default:
		return lang.Context{}, ErrNotMapping.Wrapf("found %T", doc)
	}

	c, err := lang.ContextOf(doc)
	if err != nil {
		return lang.Context{}, ErrDecode.Wrap(err)
	}

	return c, nil
}
