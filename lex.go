package beek

import (
	"strconv"
	"strings"
	"unicode"
)

type lexToken struct {
	text string
	kind tokenKind
	pos  int
}

func (t lexToken) String() string {
	return t.kind.String() + ":" + t.text + "@" + strconv.Itoa(t.pos)
}

// end returns the column just past the token.
func (t lexToken) end() int {
	return t.pos + len([]rune(t.text))
}

type tokenKind int

const (
	tokenNone tokenKind = iota
	// tokenEOF indicates the end of the input.
	tokenEOF
	// tokenNum is a number literal.
	tokenNum
	// tokenIdent is a variable or function name.
	tokenIdent
	// tokenOp is an operator.
	tokenOp
	// tokenOpen is an open bracket, e.g. (.
	tokenOpen
	// tokenClose is a close bracket, e.g. ).
	tokenClose
	// tokenComma separates function arguments and parameters.
	tokenComma
	// tokenSemi separates statements.
	tokenSemi
	// tokenAssign is the lazy assignment =.
	tokenAssign
	// tokenAssignNow is the immediate assignment :=.
	tokenAssignNow
)

func (k tokenKind) String() string {
	switch k {
	case tokenNone:
		return "None"
	case tokenEOF:
		return "EOF"
	case tokenNum:
		return "Num"
	case tokenIdent:
		return "Ident"
	case tokenOp:
		return "Op"
	case tokenOpen:
		return "Open"
	case tokenClose:
		return "Close"
	case tokenComma:
		return "Comma"
	case tokenSemi:
		return "Semi"
	case tokenAssign:
		return "Assign"
	case tokenAssignNow:
		return "AssignNow"
	default:
		return "tokenKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Operators contains the runes which are considered to be operators. The
// two-rune operator ** is scanned from *.
const Operators = "+-*/^×÷·%!"

// OpenBrackets and CloseBrackets contain the runes which group expressions.
// The parser checks that a bracket in rune position k in OpenBrackets is
// matched with the bracket in rune position k in CloseBrackets.
const (
	OpenBrackets  = "([{"
	CloseBrackets = ")]}"
)

// Comment starts a comment which extends to the end of the input.
const Comment = '#'

type lexer struct {
	src []rune
	i   int
	// col is the column of src[0].
	col int
	buf strings.Builder
	eof bool
}

func lex(src string, col int) *lexer {
	if col < 1 {
		col = 1
	}
	return &lexer{
		src: []rune(src),
		col: col,
	}
}

// tokenize scans all tokens of src, ending with an EOF token. col is the
// column of the first rune of src, for error positions.
func tokenize(src string, col int) ([]lexToken, error) {
	l := lex(src, col)
	var toks []lexToken
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.kind == tokenEOF {
			return toks, nil
		}
	}
}

// peek returns the rune k positions ahead of the cursor, or -1 past the end.
func (l *lexer) peek(k int) rune {
	if l.i+k >= len(l.src) {
		return -1
	}
	return l.src[l.i+k]
}

// next scans the next token from the input. Once the input is exhausted,
// the result is an EOF token positioned just after the last rune.
func (l *lexer) next() (lexToken, error) {
	defer l.buf.Reset()
	for l.i < len(l.src) && unicode.IsSpace(l.src[l.i]) {
		l.i++
	}
	tok := lexToken{pos: l.col + l.i}
	if l.eof || l.i >= len(l.src) {
		tok.kind = tokenEOF
		l.eof = true
		return tok, nil
	}
	r := l.src[l.i]
	switch {
	case '0' <= r && r <= '9', r == '.':
		if err := l.scanNum(); err != nil {
			return tok, err
		}
		tok.text = l.buf.String()
		tok.kind = tokenNum
		return tok, nil
	case r == '_', unicode.IsLetter(r):
		l.scanIdent()
		tok.text = l.buf.String()
		// inf looks like an identifier, so check for it here.
		switch tok.text {
		case "inf", "Inf":
			tok.kind = tokenNum
		default:
			tok.kind = tokenIdent
		}
		return tok, nil
	case r == Comment:
		l.i = len(l.src)
		tok.kind = tokenEOF
		l.eof = true
		return tok, nil
	}
	l.i++
	switch {
	case r == ',':
		tok.text = ","
		tok.kind = tokenComma
	case r == ';':
		tok.text = ";"
		tok.kind = tokenSemi
	case r == '=':
		tok.text = "="
		tok.kind = tokenAssign
	case r == ':':
		if l.peek(0) != '=' {
			l.buf.WriteRune(r)
			return tok, l.error("operator")
		}
		l.i++
		tok.text = ":="
		tok.kind = tokenAssignNow
	case r == '∞':
		tok.text = "∞"
		tok.kind = tokenNum
	case r == '*' && l.peek(0) == '*':
		l.i++
		tok.text = "**"
		tok.kind = tokenOp
	case strings.ContainsRune(Operators, r):
		tok.text = string(r)
		tok.kind = tokenOp
	case strings.ContainsRune(OpenBrackets, r):
		tok.text = string(r)
		tok.kind = tokenOpen
	case strings.ContainsRune(CloseBrackets, r):
		tok.text = string(r)
		tok.kind = tokenClose
	default:
		// Write the rune so that it shows up in the error message.
		l.buf.WriteRune(r)
		return tok, l.error("")
	}
	return tok, nil
}

func isdigit(r rune) bool {
	return '0' <= r && r <= '9'
}

// scanNum scans a decimal literal with an optional fraction and exponent. A
// letter following the digits ends the number, so 5x lexes as 5 and x. An e
// is only an exponent marker when digits follow it.
func (l *lexer) scanNum() error {
	var dig bool
	for isdigit(l.peek(0)) {
		l.buf.WriteRune(l.peek(0))
		l.i++
		dig = true
	}
	if l.peek(0) == '.' {
		l.buf.WriteRune('.')
		l.i++
		for isdigit(l.peek(0)) {
			l.buf.WriteRune(l.peek(0))
			l.i++
			dig = true
		}
	}
	if !dig {
		return l.error("number")
	}
	if r := l.peek(0); r == 'e' || r == 'E' {
		k := 1
		if s := l.peek(1); s == '+' || s == '-' {
			k = 2
		}
		if isdigit(l.peek(k)) {
			for j := 0; j < k; j++ {
				l.buf.WriteRune(l.peek(0))
				l.i++
			}
			for isdigit(l.peek(0)) {
				l.buf.WriteRune(l.peek(0))
				l.i++
			}
		}
	}
	if l.peek(0) == '.' {
		l.buf.WriteRune('.')
		l.i++
		return l.error("number")
	}
	return nil
}

func (l *lexer) scanIdent() {
	for l.i < len(l.src) {
		r := l.src[l.i]
		switch {
		case r == '_', unicode.IsLetter(r), unicode.IsDigit(r):
			l.buf.WriteRune(r)
			l.i++
		default:
			return
		}
	}
}

func (l *lexer) error(kind string) error {
	return &LexError{
		Text: l.buf.String(),
		Kind: kind,
		Col:  l.col + l.i - 1,
	}
}

// isIdent reports whether s would lex as exactly one identifier.
func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return s != "inf" && s != "Inf"
}

// LexError indicates an invalid token. It implements InputError.
type LexError struct {
	// Text is the token the lexer was scanning when the invalid rune was
	// encountered, plus the invalid rune.
	Text string
	// Kind is the type of token the lexer was scanning. This may be "number",
	// "operator", or the empty string (if a token kind hadn't been decided).
	Kind string
	// Col is the column of the invalid rune.
	Col int
}

func (err *LexError) Error() string {
	pos := "column " + strconv.Itoa(err.Col)
	if err.Kind == "" {
		return "invalid token at " + pos + ": " + err.Text
	}
	return "invalid " + err.Kind + " token at " + pos + ": " + err.Text
}

func (err *LexError) Pos() int {
	return err.Col
}
