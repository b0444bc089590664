package lang

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type itemType uint8

const (
	itemEOF itemType = iota
	itemIdent
	itemInt
	itemFloat
	itemString
	itemPunct
)

// item is one lexeme of the code inside a tag. For itemString, text holds
// the decoded value. off is an absolute offset into the template source.
type item struct {
	text string
	off  int
	typ  itemType
}

func (it item) is(punct string) bool {
	return it.typ == itemPunct && it.text == punct
}

func (it item) describe() string {
	switch it.typ {
	case itemEOF:
		return "end of tag"
	case itemString:
		return strconv.Quote(it.text)
	default:
		return "\"" + it.text + "\""
	}
}

// scanner tokenizes code. It is line/column agnostic: positions are byte
// offsets resolved against the full source only when an error is reported.
type scanner struct {
	src   string // full template source
	code  string
	base  int
	pos   int
	items []item
}

var punctuation = []string{
	"==", "!=", "<=", ">=", "&&", "||",
	"+", "-", "*", "/", "%", "<", ">", "!",
	".", ",", "(", ")", "[", "]",
}

func scanCode(src, code string, base int) ([]item, error) {
	s := &scanner{src: src, code: code, base: base}

	for {
		s.skipSpace()

		if s.pos >= len(s.code) {
			s.items = append(s.items, item{typ: itemEOF, off: s.base + s.pos})

			return s.items, nil
		}

		if err := s.next(); err != nil {
			return nil, err
		}
	}
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.code) {
		r, n := utf8.DecodeRuneInString(s.code[s.pos:])
		if !unicode.IsSpace(r) {
			return
		}

		s.pos += n
	}
}

func (s *scanner) emit(typ itemType, text string, start int) {
	s.items = append(s.items, item{typ: typ, text: text, off: s.base + start})
}

// afterDot reports whether the previous item is the member operator, in
// which case a number is an index and never a float.
func (s *scanner) afterDot() bool {
	n := len(s.items)

	return n > 0 && s.items[n-1].is(".")
}

func (s *scanner) errorf(start int, reason string) error {
	return newParseError(ErrInvalidExpression, s.src, s.base+start, reason)
}

func (s *scanner) next() error {
	start := s.pos
	c := s.code[s.pos]

	switch {
	case c >= '0' && c <= '9':
		return s.number(start)

	case c == '"' || c == '\'':
		return s.str(start, c)
	}

	r, _ := utf8.DecodeRuneInString(s.code[s.pos:])
	if isIdentStart(r) {
		s.ident(start)

		return nil
	}

	for _, p := range punctuation {
		if strings.HasPrefix(s.code[s.pos:], p) {
			s.pos += len(p)
			s.emit(itemPunct, p, start)

			return nil
		}
	}

	return s.errorf(start, "unexpected character "+strconv.QuoteRune(r))
}

func (s *scanner) ident(start int) {
	for s.pos < len(s.code) {
		r, n := utf8.DecodeRuneInString(s.code[s.pos:])
		if !isIdentContinue(r) {
			break
		}

		s.pos += n
	}

	s.emit(itemIdent, s.code[start:s.pos], start)
}

func (s *scanner) digits() {
	for s.pos < len(s.code) && s.code[s.pos] >= '0' && s.code[s.pos] <= '9' {
		s.pos++
	}
}

func (s *scanner) number(start int) error {
	s.digits()

	typ := itemInt

	if !s.afterDot() && s.pos+1 < len(s.code) && s.code[s.pos] == '.' &&
		s.code[s.pos+1] >= '0' && s.code[s.pos+1] <= '9' {
		s.pos++
		s.digits()

		typ = itemFloat
	}

	text := s.code[start:s.pos]

	if typ == itemInt {
		if _, err := strconv.ParseInt(text, 10, 64); err != nil {
			return s.errorf(start, "integer literal out of range: "+text)
		}
	}

	s.emit(typ, text, start)

	return nil
}

func (s *scanner) str(start int, quote byte) error {
	var buf strings.Builder

	s.pos++

	for s.pos < len(s.code) {
		c := s.code[s.pos]

		switch c {
		case quote:
			s.pos++
			s.emit(itemString, buf.String(), start)

			return nil

		case '\\':
			s.pos++
			if s.pos >= len(s.code) {
				return s.errorf(start, "unterminated string literal")
			}

			buf.WriteByte(unescape(s.code[s.pos]))
			s.pos++

		default:
			buf.WriteByte(c)
			s.pos++
		}
	}

	return s.errorf(start, "unterminated string literal")
}

func unescape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	default:
		return c
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentContinue(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
