package data

import (
	"os"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/ardnew/etpl/lang"
	"github.com/ardnew/etpl/pkg"
)

var ErrAssign = pkg.MakeErrorf("invalid assignment")

// Assign evaluates each "NAME=EXPR" spec with expr-lang and binds the result
// to NAME in a copy of c. Specs are applied in order, so later expressions
// see earlier results. The environment also provides getenv(key) for
// process environment variables.
func Assign(c lang.Context, specs ...string) (lang.Context, error) {
	out := c.Merge(lang.Context{})

	for _, spec := range specs {
		name, src, ok := strings.Cut(spec, "=")
		name, src = strings.TrimSpace(name), strings.TrimSpace(src)

		if !ok || !isName(name) || src == "" {
			return lang.Context{}, ErrAssign.Wrapf("%q: want NAME=EXPR", spec)
		}

		v, err := Eval(out, src)
		if err != nil {
			return lang.Context{}, ErrAssign.Wrapf("%s", name).Wrap(err)
		}

		out.Set(name, v)
	}

	return out, nil
}

// Eval evaluates one expr-lang expression against the names in c.
func Eval(c lang.Context, src string) (lang.Value, error) {
	env := Env(c)

	program, err := expr.Compile(src, expr.Env(env))
	if err != nil {
		return lang.Value{}, err
	}

	result, err := expr.Run(program, env)
	if err != nil {
		return lang.Value{}, err
	}

	return lang.FromNative(result)
}

// Env converts c into an expr-lang environment of plain Go values.
func Env(c lang.Context) map[string]any {
	env := make(map[string]any, c.Len()+1)
	env["getenv"] = os.Getenv

	for _, name := range c.Names() {
		v, _ := c.Get(name)
		env[name] = v.ToNative()
	}

	return env
}

func isName(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}

	return s != ""
}
