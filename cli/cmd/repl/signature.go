package repl

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/etpl/lang"
)

// parameters names the arguments of the globals and operations that take
// any. Bracketed names are optional.
var parameters = map[string][]string{
	"encrypt_number": {"n"},
	"decrypt_number": {"id"},
	"snippet":        {"name"},
	"join":           {"[separator]"},
}

// kinds lists every value kind, for looking up operations by name alone.
var kinds = []lang.Kind{
	lang.KindInteger, lang.KindFloat, lang.KindString, lang.KindBoolean,
	lang.KindList, lang.KindMapping, lang.KindPair, lang.KindRecord,
}

func isOperation(name string) bool {
	for _, k := range kinds {
		if lang.HasOperation(k, name) {
			return true
		}
	}

	return false
}

var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
	signatureSeparatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// functionCall represents a detected function call in the input.
type functionCall struct {
	name     string // callee as written, e.g. "snippet" or "posts.join"
	argIndex int    // current argument index (0-based)
	inCall   bool   // true if cursor is inside parameter list
}

// detectFunctionCall reports whether the cursor sits inside the argument
// list of a call, and if so which call and which argument.
func detectFunctionCall(input string, cursor int) functionCall {
	if cursor > len(input) {
		cursor = len(input)
	}

	// Find the unmatched '(' nearest the cursor.
	depth := 0
	open := -1

scan:
	for i := cursor - 1; i >= 0; i-- {
		switch input[i] {
		case ')':
			depth++
		case '(':
			if depth == 0 {
				open = i

				break scan
			}

			depth--
		}
	}

	if open == -1 {
		return functionCall{}
	}

	start := open

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if r != '.' && r != '_' && !isAlnum(r) {
			break
		}

		start -= size
	}

	name := strings.TrimSpace(input[start:open])
	if name == "" {
		return functionCall{}
	}

	// Commas at depth 0 separate arguments; strings are not special-cased.
	arg := 0
	depth = 0

	for i := open + 1; i < cursor; i++ {
		switch input[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',':
			if depth == 0 {
				arg++
			}
		}
	}

	return functionCall{name: name, argIndex: arg, inCall: true}
}

func isAlnum(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}

// signatureOf returns the signature of a global function, or of an
// operation when name is a member call such as "posts.join". It returns ""
// for unknown names.
func signatureOf(globals *lang.Globals, name string) (signature string, params []string) {
	callee, member := name, false
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		callee, member = name[i+1:], true
	}

	switch {
	case member && isOperation(callee):
	case !member && isGlobal(globals, callee):
	default:
		return "", nil
	}

	params, ok := parameters[callee]
	if !ok && !member {
		// Globals added with Define have no recorded parameters.
		params = []string{"...args"}
	}

	return callee + "(" + strings.Join(params, ", ") + ")", params
}

func isGlobal(globals *lang.Globals, name string) bool {
	for _, g := range globals.Names() {
		if g == name {
			return true
		}
	}

	return false
}

// renderSignatureHint renders the function signature with the current
// parameter highlighted.
func renderSignatureHint(
	signature string,
	params []string,
	currentArgIdx int,
) string {
	open := strings.IndexByte(signature, '(')
	if open == -1 {
		return signatureStyle.Render(signature)
	}

	funcName := signature[:open]

	if len(params) == 0 {
		return signatureNameStyle.Render(funcName) +
			signatureStyle.Render("()")
	}

	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(funcName))
	b.WriteString(signatureStyle.Render("("))

	for i, param := range params {
		if i > 0 {
			b.WriteString(signatureSeparatorStyle.Render(", "))
		}

		// A variadic parameter stays highlighted for every later argument.
		variadic := strings.HasPrefix(param, "...")

		if (variadic && currentArgIdx >= i) || (!variadic && currentArgIdx == i) {
			b.WriteString(currentParamStyle.Render(param))
		} else {
			b.WriteString(signatureStyle.Render(param))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}
