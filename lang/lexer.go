package lang

import "strings"

// TokenKind classifies a lexer token.
type TokenKind uint8

const (
	TokenText  TokenKind = iota // literal text outside tags
	TokenOpen                   // "<%", "<%=" or "<%-"
	TokenCode                   // raw code between delimiters
	TokenClose                  // "%>"
)

func (k TokenKind) String() string {
	switch k {
	case TokenText:
		return "text"
	case TokenOpen:
		return "open"
	case TokenCode:
		return "code"
	case TokenClose:
		return "close"
	default:
		return "invalid"
	}
}

// TagKind distinguishes the three opening delimiters.
type TagKind uint8

const (
	TagCode TagKind = iota // <%  statement
	TagEcho                // <%= escaped output
	TagRaw                 // <%- unescaped output
)

func (k TagKind) String() string {
	switch k {
	case TagCode:
		return "<%"
	case TagEcho:
		return "<%="
	case TagRaw:
		return "<%-"
	default:
		return "<%?"
	}
}

const (
	openDelim  = "<%"
	closeDelim = "%>"
)

// Token is a span of template source.
// Tag is meaningful only for TokenOpen.
type Token struct {
	Text   string
	Offset int
	Kind   TokenKind
	Tag    TagKind
}

// Lex splits src into text and tag tokens. Every TokenOpen is followed by
// exactly one TokenCode (possibly empty) and one TokenClose.
//
// The search for a closing delimiter skips quoted string literals, so a
// "%>" inside quotes does not end the tag.
func Lex(src string) ([]Token, error) {
	toks := make([]Token, 0, 8)

	for i := 0; i < len(src); {
		j := strings.Index(src[i:], openDelim)
		if j < 0 {
			toks = append(toks, Token{Kind: TokenText, Text: src[i:], Offset: i})

			break
		}

		if j > 0 {
			toks = append(toks, Token{Kind: TokenText, Text: src[i : i+j], Offset: i})
		}

		open := i + j
		code := open + len(openDelim)
		tag := TagCode

		if code < len(src) {
			switch src[code] {
			case '=':
				tag = TagEcho
				code++
			case '-':
				tag = TagRaw
				code++
			}
		}

		end := findClose(src, code)
		if end < 0 {
			return nil, newParseError(ErrUnterminatedTag, src, open,
				"no matching \""+closeDelim+"\" for \""+tag.String()+"\"")
		}

		toks = append(toks,
			Token{Kind: TokenOpen, Tag: tag, Text: src[open:code], Offset: open},
			Token{Kind: TokenCode, Text: src[code:end], Offset: code},
			Token{Kind: TokenClose, Text: closeDelim, Offset: end},
		)

		i = end + len(closeDelim)
	}

	return toks, nil
}

// findClose returns the offset of the first "%>" at or after i that is not
// inside a quoted string, or -1.
func findClose(src string, i int) int {
	for i < len(src) {
		switch c := src[i]; c {
		case '"', '\'':
			i++
			for i < len(src) && src[i] != c {
				if src[i] == '\\' {
					i++
				}

				i++
			}

			if i >= len(src) {
				return -1
			}

			i++

		case '%':
			if strings.HasPrefix(src[i:], closeDelim) {
				return i
			}

			i++

		default:
			i++
		}
	}

	return -1
}
