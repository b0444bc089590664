package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
)

// Parse error kinds.
var (
	ErrUnterminatedTag   = NewError("unterminated tag")
	ErrUnexpectedToken   = NewError("unexpected token")
	ErrUnmatchedEnd      = NewError("unmatched block terminator")
	ErrUnclosedBlock     = NewError("unclosed block")
	ErrInvalidExpression = NewError("invalid expression")
	ErrInvalidStatement  = NewError("invalid statement")
)

// Render and load errors.
var (
	ErrUndefinedVariable  = NewError("undefined variable")
	ErrUndefinedOperation = NewError("undefined operation")
	ErrTypeMismatch       = NewError("type mismatch")
	ErrIndexOutOfBounds   = NewError("index out of bounds")
	ErrDivisionByZero     = NewError("division by zero")
	ErrArgumentCount      = NewError("wrong number of arguments")
	ErrDecryption         = NewError("decryption failed")
	ErrUnavailable        = NewError("function unavailable")
	ErrReadSource         = NewError("failed to read template source")
	ErrNestingTooDeep     = NewError("maximum nesting depth exceeded")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
//
// Errors derived from a sentinel with [Error.With] or [Error.Wrap] still
// match that sentinel under [errors.Is].
type Error struct {
	msg   string
	err   error
	attrs []slog.Attr
	root  *Error
}

// NewError creates a new sentinel Error with a message.
func NewError(msg string) *Error {
	e := &Error{msg: msg}
	e.root = e

	return e
}

// WrapError wraps a standard error into an Error. An error that already is
// (or wraps) an *Error is returned as that *Error.
func WrapError(err error) *Error {
	var ee *Error
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface. The message has the form
// "<msg>: <cause>" with either part omitted when empty.
func (e *Error) Error() string {
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && e.root != nil && e.root == t.root
}

// Attr returns the value of the first attribute named key.
func (e *Error) Attr(key string) (slog.Value, bool) {
	for _, a := range e.attrs {
		if a.Key == key {
			return a.Value, true
		}
	}

	return slog.Value{}, false
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{msg: e.msg, err: err, attrs: e.attrs, root: e.root}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	merged := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(merged, e.attrs)
	copy(merged[len(e.attrs):], attrs)

	return &Error{msg: e.msg, err: e.err, attrs: merged, root: e.root}
}

// Position identifies a location in template source.
// Line and Column are 1-based; Column counts runes.
type Position struct {
	Offset int `json:"offset" yaml:"offset"`
	Line   int `json:"line"   yaml:"line"`
	Column int `json:"column" yaml:"column"`
}

func positionAt(src string, offset int) Position {
	offset = max(0, min(offset, len(src)))
	pos := Position{Offset: offset, Line: 1, Column: 1}

	for _, r := range src[:offset] {
		if r == '\n' {
			pos.Line++
			pos.Column = 1
		} else {
			pos.Column++
		}
	}

	return pos
}

// String returns "line:column".
func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// ParseError reports a template that could not be lexed or parsed.
// Kind is one of the parse error sentinels and is matched by [errors.Is].
type ParseError struct {
	Kind   *Error
	Reason string
	Origin string
	Source string
	Pos    Position
}

func newParseError(kind *Error, src string, offset int, reason string) *ParseError {
	return &ParseError{
		Kind:   kind,
		Reason: reason,
		Source: src,
		Pos:    positionAt(src, offset),
	}
}

// IsParseError reports whether err is, or wraps, a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError

	return errors.As(err, &pe)
}

// Error implements the error interface. When the source is known the
// offending line is appended with a caret under the error column.
func (e *ParseError) Error() string {
	var buf strings.Builder

	buf.WriteString("parse error")

	if e.Origin != "" {
		buf.WriteString(" in ")
		buf.WriteString(e.Origin)
	}

	buf.WriteString(" at line ")
	buf.WriteString(strconv.Itoa(e.Pos.Line))
	buf.WriteString(", column ")
	buf.WriteString(strconv.Itoa(e.Pos.Column))
	buf.WriteString(": ")

	if e.Kind != nil {
		buf.WriteString(e.Kind.msg)
	}

	if e.Reason != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Reason)
	}

	buf.WriteString(e.snippet())

	return buf.String()
}

// snippet formats the offending source line with a caret marker.
func (e *ParseError) snippet() string {
	lines := strings.Split(e.Source, "\n")
	if e.Pos.Line < 1 || e.Pos.Line > len(lines) {
		return ""
	}

	num := strconv.Itoa(e.Pos.Line)

	var src strings.Builder

	src.WriteString("\n  ")
	src.WriteString(num)
	src.WriteString(" | ")
	src.WriteString(lines[e.Pos.Line-1])
	src.WriteByte('\n')
	// 2 leading spaces + " | "
	src.WriteString(strings.Repeat(" ", len(num)+5+max(0, e.Pos.Column-1)))
	src.WriteByte('^')

	return src.String()
}

// Unwrap returns the error kind.
func (e *ParseError) Unwrap() error {
	if e.Kind == nil {
		return nil
	}

	return e.Kind
}

// LogValue implements slog.LogValuer.
func (e *ParseError) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("error", "parse error"),
		slog.Int("line", e.Pos.Line),
		slog.Int("column", e.Pos.Column),
		slog.Int("offset", e.Pos.Offset),
	}

	if e.Kind != nil {
		attrs = append(attrs, slog.String("kind", e.Kind.msg))
	}

	if e.Reason != "" {
		attrs = append(attrs, slog.String("reason", e.Reason))
	}

	if e.Origin != "" {
		attrs = append(attrs, slog.String("origin", e.Origin))
	}

	return slog.GroupValue(attrs...)
}
