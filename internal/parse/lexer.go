package parse

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/phobologic/plautoload/internal/term"
)

type tokenKind int

const (
	tkEOF tokenKind = iota
	tkAtom
	tkVar
	tkInt
	tkFloat
	tkString
	tkBackquote
	tkPunct // ( ) [ ] { } , |
	tkEnd   // clause-terminating full stop
	tkError
)

type token struct {
	kind   tokenKind
	text   string
	ival   int64
	fval   float64
	quoted bool
	// layout is true when whitespace or a comment precedes the token.
	layout bool
	line   int
	col    int
}

type lexer struct {
	src  []rune
	pos  int
	line int
	col  int
}

func newLexer(src []byte) *lexer {
	return &lexer{src: []rune(string(src)), line: 1, col: 1}
}

func (l *lexer) peekAt(off int) rune {
	if l.pos+off >= len(l.src) {
		return -1
	}
	return l.src[l.pos+off]
}

func (l *lexer) advance() rune {
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

// skipLayout consumes whitespace and comments and reports whether any was
// consumed. An unterminated block comment is reported as an error.
func (l *lexer) skipLayout() (bool, error) {
	skipped := false
	for l.pos < len(l.src) {
		r := l.peekAt(0)
		switch {
		case unicode.IsSpace(r):
			l.advance()
		case r == '%':
			for l.pos < len(l.src) && l.peekAt(0) != '\n' {
				l.advance()
			}
		case r == '/' && l.peekAt(1) == '*':
			l.advance()
			l.advance()
			closed := false
			for l.pos < len(l.src) {
				if l.peekAt(0) == '*' && l.peekAt(1) == '/' {
					l.advance()
					l.advance()
					closed = true
					break
				}
				l.advance()
			}
			if !closed {
				return true, fmt.Errorf("unterminated block comment")
			}
		default:
			return skipped, nil
		}
		skipped = true
	}
	return skipped, nil
}

func isSymbolChar(r rune) bool {
	return r >= 0 && strings.ContainsRune(term.SymbolChars, r)
}

func isAlnum(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (l *lexer) next() token {
	layout, err := l.skipLayout()
	tok := token{layout: layout, line: l.line, col: l.col}
	if err != nil {
		tok.kind = tkError
		tok.text = err.Error()
		return tok
	}
	if l.pos >= len(l.src) {
		tok.kind = tkEOF
		return tok
	}

	r := l.peekAt(0)
	switch {
	case unicode.IsDigit(r):
		return l.number(tok)
	case r == '_' || unicode.IsUpper(r):
		tok.kind = tkVar
		tok.text = l.takeWhile(isAlnum)
		return tok
	case unicode.IsLetter(r):
		tok.kind = tkAtom
		tok.text = l.takeWhile(isAlnum)
		return tok
	case r == '\'':
		l.advance()
		s, err := l.quoted('\'')
		if err != nil {
			tok.kind = tkError
			tok.text = err.Error()
			return tok
		}
		tok.kind = tkAtom
		tok.text = s
		tok.quoted = true
		return tok
	case r == '"' || r == '`':
		l.advance()
		s, err := l.quoted(r)
		if err != nil {
			tok.kind = tkError
			tok.text = err.Error()
			return tok
		}
		tok.kind = tkString
		if r == '`' {
			tok.kind = tkBackquote
		}
		tok.text = s
		return tok
	case r == '(' || r == ')' || r == '[' || r == ']' || r == '{' || r == '}' || r == ',' || r == '|':
		l.advance()
		if r == '|' && l.peekAt(0) == '|' {
			l.advance()
			tok.kind = tkAtom
			tok.text = "||"
			return tok
		}
		tok.kind = tkPunct
		tok.text = string(r)
		return tok
	case r == '!' || r == ';':
		l.advance()
		tok.kind = tkAtom
		tok.text = string(r)
		return tok
	case r == '.':
		nxt := l.peekAt(1)
		if nxt == -1 || nxt == '%' || unicode.IsSpace(nxt) {
			l.advance()
			tok.kind = tkEnd
			return tok
		}
		tok.kind = tkAtom
		tok.text = l.takeWhile(isSymbolChar)
		return tok
	case isSymbolChar(r):
		tok.kind = tkAtom
		tok.text = l.takeWhile(isSymbolChar)
		return tok
	}

	l.advance()
	tok.kind = tkError
	tok.text = fmt.Sprintf("illegal character %q", r)
	return tok
}

func (l *lexer) takeWhile(pred func(rune) bool) string {
	start := l.pos
	for l.pos < len(l.src) && pred(l.peekAt(0)) {
		l.advance()
	}
	return string(l.src[start:l.pos])
}

func (l *lexer) number(tok token) token {
	if l.peekAt(0) == '0' && l.peekAt(1) == '\'' {
		l.advance()
		l.advance()
		c, err := l.charCode()
		if err != nil {
			tok.kind = tkError
			tok.text = err.Error()
			return tok
		}
		tok.kind = tkInt
		tok.ival = int64(c)
		return tok
	}
	if l.peekAt(0) == '0' {
		base := 0
		var digit func(rune) bool
		switch l.peekAt(1) {
		case 'x':
			base, digit = 16, isHexDigit
		case 'o':
			base, digit = 8, func(r rune) bool { return r >= '0' && r <= '7' }
		case 'b':
			base, digit = 2, func(r rune) bool { return r == '0' || r == '1' }
		}
		if base != 0 && digit(l.peekAt(2)) {
			l.advance()
			l.advance()
			digits := l.takeWhile(digit)
			v, err := strconv.ParseInt(digits, base, 64)
			if err != nil {
				tok.kind = tkError
				tok.text = fmt.Sprintf("bad number: %v", err)
				return tok
			}
			tok.kind = tkInt
			tok.ival = v
			return tok
		}
	}

	text := l.takeWhile(unicode.IsDigit)
	isFloat := false
	if l.peekAt(0) == '.' && unicode.IsDigit(l.peekAt(1)) {
		isFloat = true
		l.advance()
		text += "." + l.takeWhile(unicode.IsDigit)
	}
	if e := l.peekAt(0); e == 'e' || e == 'E' {
		sign := l.peekAt(1)
		if unicode.IsDigit(sign) || ((sign == '+' || sign == '-') && unicode.IsDigit(l.peekAt(2))) {
			isFloat = true
			text += string(l.advance())
			if sign == '+' || sign == '-' {
				text += string(l.advance())
			}
			text += l.takeWhile(unicode.IsDigit)
		}
	}

	if isFloat {
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			tok.kind = tkError
			tok.text = fmt.Sprintf("bad float: %v", err)
			return tok
		}
		tok.kind = tkFloat
		tok.fval = v
		return tok
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		tok.kind = tkError
		tok.text = fmt.Sprintf("bad integer: %v", err)
		return tok
	}
	tok.kind = tkInt
	tok.ival = v
	return tok
}

func isHexDigit(r rune) bool {
	return unicode.IsDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// charCode reads the character after 0'.
func (l *lexer) charCode() (rune, error) {
	if l.pos >= len(l.src) {
		return 0, fmt.Errorf("unexpected end of file in character code")
	}
	r := l.advance()
	switch r {
	case '\\':
		return l.escape()
	case '\'':
		// 0'' and 0''' both denote the quote character.
		if l.peekAt(0) == '\'' {
			l.advance()
		}
		return '\'', nil
	}
	return r, nil
}

// quoted reads up to the closing quote q. Doubled quotes stand for one.
func (l *lexer) quoted(q rune) (string, error) {
	var b strings.Builder
	for {
		if l.pos >= len(l.src) {
			return "", fmt.Errorf("unterminated quoted")
		}
		r := l.advance()
		switch r {
		case q:
			if l.peekAt(0) == q {
				l.advance()
				b.WriteRune(q)
				continue
			}
			return b.String(), nil
		case '\\':
			if l.peekAt(0) == '\n' {
				l.advance()
				continue
			}
			c, err := l.escape()
			if err != nil {
				return "", err
			}
			b.WriteRune(c)
		default:
			b.WriteRune(r)
		}
	}
}

var escapes = map[rune]rune{
	'n':  '\n',
	't':  '\t',
	'r':  '\r',
	'a':  '\a',
	'b':  '\b',
	'f':  '\f',
	'v':  '\v',
	'0':  0,
	'e':  0x1b,
	's':  ' ',
	'\\': '\\',
	'\'': '\'',
	'"':  '"',
	'`':  '`',
}

func (l *lexer) escape() (rune, error) {
	if l.pos >= len(l.src) {
		return 0, fmt.Errorf("unexpected end of file in escape")
	}
	r := l.advance()
	if r == 'x' {
		digits := l.takeWhile(isHexDigit)
		if l.peekAt(0) == '\\' {
			l.advance()
		}
		v, err := strconv.ParseInt(digits, 16, 32)
		if err != nil {
			return 0, fmt.Errorf("bad hex escape")
		}
		return rune(v), nil
	}
	if c, ok := escapes[r]; ok {
		return c, nil
	}
	return 0, fmt.Errorf("undefined escape sequence \\%c", r)
}
