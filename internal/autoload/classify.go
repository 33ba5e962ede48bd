package autoload

import (
	"github.com/phobologic/plautoload/internal/term"
)

// Goal is the shape of one goal term. The set of implementations is closed.
type Goal interface {
	goal()
}

// Unbound is a goal that cannot be analyzed: an unbound variable, a
// qualification with a variable module, or a non-callable term.
type Unbound struct {
	Term term.Term
}

// Qualified is Module:Goal.
type Qualified struct {
	Module term.Atom
	Goal   term.Term
}

// Conjunction is (Left, Right). If-then and soft-cut conditionals classify
// as conjunctions too, since both parts can run.
type Conjunction struct {
	Left, Right term.Term
}

// Disjunction is (Left ; Right).
type Disjunction struct {
	Left, Right term.Term
}

// UnificationTest is Left = Right.
type UnificationTest struct {
	Left, Right term.Term
}

// PlainCall is a call to Name/len(Args) in Module.
type PlainCall struct {
	Module term.Atom
	Name   term.Atom
	Args   []term.Term
	Term   term.Term
}

func (Unbound) goal()         {}
func (Qualified) goal()       {}
func (Conjunction) goal()     {}
func (Disjunction) goal()     {}
func (UnificationTest) goal() {}
func (PlainCall) goal()       {}

// Arity returns the number of arguments of the call.
func (c PlainCall) Arity() int {
	return len(c.Args)
}

// Classify decides the shape of t as a goal called in module. It never
// fails: any callable term that is not a control construct is a PlainCall.
func Classify(t term.Term, module term.Atom) Goal {
	switch t := t.(type) {
	case term.Atom:
		return PlainCall{Module: module, Name: t, Term: t}
	case *term.Compound:
		if len(t.Args) == 2 {
			l, r := t.Args[0], t.Args[1]
			switch t.Functor {
			case term.Colon:
				if m, ok := l.(term.Atom); ok {
					return Qualified{Module: m, Goal: r}
				}
				return Unbound{Term: t}
			case term.Comma, "->", "*->":
				return Conjunction{Left: l, Right: r}
			case term.Semi, "|":
				return Disjunction{Left: l, Right: r}
			case "=":
				return UnificationTest{Left: l, Right: r}
			}
		}
		return PlainCall{Module: module, Name: t.Functor, Args: t.Args, Term: t}
	}
	return Unbound{Term: t}
}
