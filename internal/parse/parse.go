// Package parse reads Prolog clauses from source text.
package parse

import (
	"errors"
	"fmt"
	"io"

	"github.com/phobologic/plautoload/internal/term"
)

// Clause is one clause or directive read from a source file.
type Clause struct {
	Term term.Term
	Line int
	// Vars maps the source names of named variables to their terms.
	Vars map[string]*term.Var
}

// SyntaxError describes a clause that could not be read.
type SyntaxError struct {
	File   string
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: syntax error: %s", e.File, e.Line, e.Column, e.Msg)
}

// Reader reads clauses one at a time.
type Reader struct {
	lex  *lexer
	file string
	cur  token
	vars map[string]*term.Var
	// inArg is set while reading a compound argument, where "," separates
	// arguments instead of acting as an operator.
	inArg bool
}

// NewReader returns a Reader over src. file is used only in error messages.
func NewReader(src []byte, file string) *Reader {
	return &Reader{lex: newLexer(src), file: file}
}

// Next returns the next clause. It returns io.EOF when the input is
// exhausted. After a *SyntaxError the reader has skipped to the end of the
// offending clause and Next may be called again.
func (r *Reader) Next() (Clause, error) {
	r.vars = make(map[string]*term.Var)
	r.advance()
	if r.cur.kind == tkEOF {
		return Clause{}, io.EOF
	}

	line := r.cur.line
	t, err := r.parse(1200)
	if err == nil && r.cur.kind != tkEnd {
		err = r.errorf("operator expected")
	}
	if err != nil {
		r.skipClause()
		return Clause{}, err
	}
	return Clause{Term: t, Line: line, Vars: r.vars}, nil
}

// ReadAll reads every clause in src. Clauses with syntax errors are skipped
// and their errors joined into the returned error.
func ReadAll(src []byte, file string) ([]Clause, error) {
	r := NewReader(src, file)
	var (
		clauses []Clause
		errs    []error
	)
	for {
		c, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		clauses = append(clauses, c)
	}
	return clauses, errors.Join(errs...)
}

func (r *Reader) advance() {
	r.cur = r.lex.next()
}

func (r *Reader) skipClause() {
	for r.cur.kind != tkEnd && r.cur.kind != tkEOF {
		r.advance()
	}
}

func (r *Reader) errorf(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if r.cur.kind == tkError {
		msg = r.cur.text
	}
	return &SyntaxError{File: r.file, Line: r.cur.line, Column: r.cur.col, Msg: msg}
}

func (r *Reader) isPunct(s string) bool {
	return r.cur.kind == tkPunct && r.cur.text == s
}

func (r *Reader) expect(s string) error {
	if !r.isPunct(s) {
		return r.errorf("expected %q", s)
	}
	r.advance()
	return nil
}

// parse reads a term whose precedence is at most maxPrec.
func (r *Reader) parse(maxPrec int) (term.Term, error) {
	left, leftPrec, err := r.primary(maxPrec)
	if err != nil {
		return nil, err
	}

	for {
		name, ok := r.infixName()
		if !ok {
			break
		}
		if name == "," && r.inArg {
			break
		}
		def := infixOps[name]
		lmax, rmax := def.argMax()
		if def.prec > maxPrec || leftPrec > lmax {
			break
		}
		r.advance()
		right, err := r.parse(rmax)
		if err != nil {
			return nil, err
		}
		if name == "|" {
			name = ";"
		}
		left = &term.Compound{Functor: term.Atom(name), Args: []term.Term{left, right}}
		leftPrec = def.prec
	}
	return left, nil
}

func (r *Reader) infixName() (string, bool) {
	var name string
	switch {
	case r.cur.kind == tkPunct && (r.cur.text == "," || r.cur.text == "|"):
		name = r.cur.text
	case r.cur.kind == tkAtom && !r.cur.quoted:
		name = r.cur.text
	default:
		return "", false
	}
	_, ok := infixOps[name]
	return name, ok
}

// startsTerm reports whether the current token can begin an operand.
func (r *Reader) startsTerm() bool {
	switch r.cur.kind {
	case tkEOF, tkEnd, tkError:
		return false
	case tkPunct:
		return r.cur.text == "(" || r.cur.text == "[" || r.cur.text == "{"
	case tkAtom:
		if r.cur.quoted {
			return true
		}
		_, infix := infixOps[r.cur.text]
		_, prefix := prefixOps[r.cur.text]
		return !infix || prefix
	}
	return true
}

func (r *Reader) primary(maxPrec int) (term.Term, int, error) {
	tok := r.cur
	switch tok.kind {
	case tkInt:
		r.advance()
		return term.Int(tok.ival), 0, nil
	case tkFloat:
		r.advance()
		return term.Float(tok.fval), 0, nil
	case tkString, tkBackquote:
		r.advance()
		return term.String(tok.text), 0, nil
	case tkVar:
		r.advance()
		return r.variable(tok.text), 0, nil
	case tkPunct:
		return r.punct(tok)
	case tkAtom:
		r.advance()
		return r.atom(tok, maxPrec)
	case tkEnd:
		return nil, 0, r.errorf("unexpected end of clause")
	case tkEOF:
		return nil, 0, r.errorf("unexpected end of file")
	}
	return nil, 0, r.errorf("unexpected token")
}

func (r *Reader) variable(name string) term.Term {
	if name == "_" {
		return term.NewVar()
	}
	if v, ok := r.vars[name]; ok {
		return v
	}
	v := &term.Var{Name: name}
	r.vars[name] = v
	return v
}

func (r *Reader) punct(tok token) (term.Term, int, error) {
	switch tok.text {
	case "(":
		r.advance()
		saved := r.inArg
		r.inArg = false
		t, err := r.parse(1200)
		r.inArg = saved
		if err != nil {
			return nil, 0, err
		}
		if err := r.expect(")"); err != nil {
			return nil, 0, err
		}
		return t, 0, nil
	case "[":
		r.advance()
		if r.isPunct("]") {
			r.advance()
			return r.atom(token{kind: tkAtom, text: "[]"}, 0)
		}
		t, err := r.list()
		return t, 0, err
	case "{":
		r.advance()
		if r.isPunct("}") {
			r.advance()
			return r.atom(token{kind: tkAtom, text: "{}"}, 0)
		}
		saved := r.inArg
		r.inArg = false
		t, err := r.parse(1200)
		r.inArg = saved
		if err != nil {
			return nil, 0, err
		}
		if err := r.expect("}"); err != nil {
			return nil, 0, err
		}
		return term.New("{}", t), 0, nil
	}
	return nil, 0, r.errorf("unexpected %q", tok.text)
}

func (r *Reader) list() (term.Term, error) {
	var elems []term.Term
	for {
		e, err := r.parse(999)
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		if r.isPunct(",") {
			r.advance()
			continue
		}
		break
	}

	var tail term.Term = term.Nil
	if r.isPunct("|") {
		r.advance()
		t, err := r.parse(999)
		if err != nil {
			return nil, err
		}
		tail = t
	}
	if err := r.expect("]"); err != nil {
		return nil, err
	}

	for i := len(elems) - 1; i >= 0; i-- {
		tail = term.Cons(elems[i], tail)
	}
	return tail, nil
}

func (r *Reader) atom(tok token, maxPrec int) (term.Term, int, error) {
	name := term.Atom(tok.text)

	// Functional notation: no layout between the name and "(".
	if r.isPunct("(") && !r.cur.layout {
		r.advance()
		args, err := r.arguments()
		if err != nil {
			return nil, 0, err
		}
		return &term.Compound{Functor: name, Args: args}, 0, nil
	}

	if tok.quoted {
		return name, 0, nil
	}

	// Signed numeric literal.
	if (name == "-" || name == "+") && !r.cur.layout {
		switch r.cur.kind {
		case tkInt:
			v := r.cur.ival
			r.advance()
			if name == "-" {
				v = -v
			}
			return term.Int(v), 0, nil
		case tkFloat:
			v := r.cur.fval
			r.advance()
			if name == "-" {
				v = -v
			}
			return term.Float(v), 0, nil
		}
	}

	if def, ok := prefixOps[tok.text]; ok && r.startsTerm() {
		prec := def.prec
		_, argMax := def.argMax()
		if prec > maxPrec {
			prec = maxPrec
			if argMax > maxPrec {
				argMax = maxPrec
			}
		}
		arg, err := r.parse(argMax)
		if err != nil {
			return nil, 0, err
		}
		return &term.Compound{Functor: name, Args: []term.Term{arg}}, prec, nil
	}

	return name, 0, nil
}

// arguments reads the arguments of a compound. Like SWI-Prolog, an
// argument may be an operator term above 999, such as f(a:-b) or f(a;b).
func (r *Reader) arguments() ([]term.Term, error) {
	saved := r.inArg
	r.inArg = true
	defer func() { r.inArg = saved }()

	var args []term.Term
	for {
		a, err := r.parse(1200)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if r.isPunct(",") {
			r.advance()
			continue
		}
		if err := r.expect(")"); err != nil {
			return nil, err
		}
		return args, nil
	}
}
