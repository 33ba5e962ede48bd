package term

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Format renders t in writeq-like notation. Variables print by name,
// operators as canonical compounds except for the few shown infix below.
func Format(t Term) string {
	var b strings.Builder
	write(&b, t)
	return b.String()
}

var infixShown = map[Atom]struct{}{
	":":  {},
	",":  {},
	";":  {},
	"->": {},
	"=":  {},
	"/":  {},
}

func write(b *strings.Builder, t Term) {
	switch t := t.(type) {
	case Atom:
		b.WriteString(formatAtom(t))
	case Int:
		b.WriteString(formatInt(t))
	case Float:
		s := strconv.FormatFloat(float64(t), 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEnI") {
			s += ".0"
		}
		b.WriteString(s)
	case String:
		b.WriteString(strconv.Quote(string(t)))
	case *Var:
		if t.Name == "" {
			b.WriteString("_")
		} else {
			b.WriteString(t.Name)
		}
	case *Compound:
		if elems, ok := ListSlice(t); ok {
			b.WriteByte('[')
			for i, e := range elems {
				if i > 0 {
					b.WriteByte(',')
				}
				write(b, e)
			}
			b.WriteByte(']')
			return
		}
		if _, ok := infixShown[t.Functor]; ok && len(t.Args) == 2 {
			b.WriteByte('(')
			write(b, t.Args[0])
			if t.Functor == "," {
				b.WriteString(",")
			} else {
				b.WriteString(string(t.Functor))
			}
			write(b, t.Args[1])
			b.WriteByte(')')
			return
		}
		b.WriteString(formatAtom(t.Functor))
		b.WriteByte('(')
		for i, a := range t.Args {
			if i > 0 {
				b.WriteByte(',')
			}
			write(b, a)
		}
		b.WriteByte(')')
	default:
		fmt.Fprintf(b, "%v", t)
	}
}

func formatAtom(a Atom) string {
	s := string(a)
	switch {
	case s == "[]" || s == "!" || s == ";" || s == "{}" || s == ",":
		if s == "," {
			return "','"
		}
		return s
	case s == "" || s == ".":
		return "'" + s + "'"
	}
	if isLowerIdent(s) || isSymbolic(s) {
		return s
	}
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'':
			b.WriteString(`\'`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

func isLowerIdent(s string) bool {
	for i, r := range s {
		if i == 0 {
			if !unicode.IsLower(r) {
				return false
			}
			continue
		}
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// SymbolChars lists the characters that form symbolic atoms.
const SymbolChars = `+-*/\^<>=~:.?@#&$`

func isSymbolic(s string) bool {
	for _, r := range s {
		if !strings.ContainsRune(SymbolChars, r) {
			return false
		}
	}
	return true
}
