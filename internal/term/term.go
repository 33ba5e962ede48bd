// Package term defines the Prolog term model shared by the reader, the
// program image and the autoload analysis.
package term

import (
	"fmt"
	"strconv"
)

// Term is a Prolog term. The set of implementations is closed.
type Term interface {
	isTerm()
}

// Atom is a Prolog atom.
type Atom string

// Int is an integer literal.
type Int int64

// Float is a floating point literal.
type Float float64

// String is a double-quoted string literal.
type String string

// Var is a logic variable. Two variables are the same variable only if they
// are the same pointer; Name is kept for diagnostics.
type Var struct {
	Name string
}

// Compound is a structure with a functor and at least one argument.
type Compound struct {
	Functor Atom
	Args    []Term
}

func (Atom) isTerm()      {}
func (Int) isTerm()       {}
func (Float) isTerm()     {}
func (String) isTerm()    {}
func (*Var) isTerm()      {}
func (*Compound) isTerm() {}

// Common atoms.
const (
	Nil   Atom = "[]"
	True  Atom = "true"
	Comma Atom = ","
	Semi  Atom = ";"
	Colon Atom = ":"
)

// Indicator identifies a predicate by name and arity.
type Indicator struct {
	Name  Atom
	Arity int
}

func (pi Indicator) String() string {
	return fmt.Sprintf("%s/%d", formatAtom(pi.Name), pi.Arity)
}

// NewVar returns a fresh anonymous variable.
func NewVar() *Var {
	return &Var{Name: "_"}
}

// New builds a compound, or returns the bare atom when args is empty.
func New(name Atom, args ...Term) Term {
	if len(args) == 0 {
		return name
	}
	return &Compound{Functor: name, Args: args}
}

// Arity returns the number of arguments of a compound.
func (c *Compound) Arity() int {
	return len(c.Args)
}

// Indicator returns name/arity of the compound.
func (c *Compound) Indicator() Indicator {
	return Indicator{Name: c.Functor, Arity: len(c.Args)}
}

// Is reports whether t is a compound with the given name and arity.
func Is(t Term, name Atom, arity int) bool {
	c, ok := t.(*Compound)
	return ok && c.Functor == name && len(c.Args) == arity
}

// IsCallable reports whether t is an atom or a compound.
func IsCallable(t Term) bool {
	switch t.(type) {
	case Atom, *Compound:
		return true
	}
	return false
}

// Functor returns the name and arity of a callable term.
func Functor(t Term) (Atom, int, bool) {
	switch t := t.(type) {
	case Atom:
		return t, 0, true
	case *Compound:
		return t.Functor, len(t.Args), true
	}
	return "", 0, false
}

// Args returns the arguments of a compound, or nil for anything else.
func Args(t Term) []Term {
	if c, ok := t.(*Compound); ok {
		return c.Args
	}
	return nil
}

// Strip removes M: qualifications from t. It returns the innermost term and
// the innermost module that is an atom, or ctx if there is none. A variable
// module stops stripping.
func Strip(t Term, ctx Atom) (Term, Atom) {
	for {
		c, ok := t.(*Compound)
		if !ok || c.Functor != Colon || len(c.Args) != 2 {
			return t, ctx
		}
		m, ok := c.Args[0].(Atom)
		if !ok {
			return t, ctx
		}
		ctx = m
		t = c.Args[1]
	}
}

// Extend appends n fresh variables to the callable term t. Qualified goals
// are extended in place of their innermost goal. It fails if the goal is not
// a fully instantiated callable (a variable, a number, or a variable module).
func Extend(t Term, n int) (Term, bool) {
	if n == 0 {
		return t, IsCallable(t)
	}
	switch t := t.(type) {
	case Atom:
		args := make([]Term, n)
		for i := range args {
			args[i] = NewVar()
		}
		return &Compound{Functor: t, Args: args}, true
	case *Compound:
		if t.Functor == Colon && len(t.Args) == 2 {
			if _, ok := t.Args[0].(Atom); !ok {
				return nil, false
			}
			inner, ok := Extend(t.Args[1], n)
			if !ok {
				return nil, false
			}
			return &Compound{Functor: Colon, Args: []Term{t.Args[0], inner}}, true
		}
		args := make([]Term, len(t.Args), len(t.Args)+n)
		copy(args, t.Args)
		for i := 0; i < n; i++ {
			args = append(args, NewVar())
		}
		return &Compound{Functor: t.Functor, Args: args}, true
	}
	return nil, false
}

// Cons builds a list cell.
func Cons(head, tail Term) Term {
	return &Compound{Functor: ".", Args: []Term{head, tail}}
}

// ListSlice returns the elements of a proper list.
func ListSlice(t Term) ([]Term, bool) {
	var elems []Term
	for {
		switch l := t.(type) {
		case Atom:
			if l != Nil {
				return nil, false
			}
			return elems, true
		case *Compound:
			if l.Functor != "." || len(l.Args) != 2 {
				return nil, false
			}
			elems = append(elems, l.Args[0])
			t = l.Args[1]
		default:
			return nil, false
		}
	}
}

// Conj splits a comma-separated sequence (a, b, c) into its elements.
func Conj(t Term) []Term {
	var out []Term
	for {
		c, ok := t.(*Compound)
		if !ok || c.Functor != Comma || len(c.Args) != 2 {
			return append(out, t)
		}
		out = append(out, c.Args[0])
		t = c.Args[1]
	}
}

// ParseIndicator decodes name/arity, also accepting M:name/arity.
func ParseIndicator(t Term) (Indicator, bool) {
	t, _ = Strip(t, "")
	c, ok := t.(*Compound)
	if !ok || len(c.Args) != 2 || (c.Functor != "/" && c.Functor != "//") {
		return Indicator{}, false
	}
	name, ok := c.Args[0].(Atom)
	if !ok {
		return Indicator{}, false
	}
	arity, ok := c.Args[1].(Int)
	if !ok || arity < 0 {
		return Indicator{}, false
	}
	if c.Functor == "//" {
		arity += 2
	}
	return Indicator{Name: name, Arity: int(arity)}, true
}

func formatInt(i Int) string {
	return strconv.FormatInt(int64(i), 10)
}
