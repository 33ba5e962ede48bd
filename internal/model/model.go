// Package model defines core data structures for plautoload.
package model

import (
	"fmt"
	"time"

	"github.com/phobologic/plautoload/internal/term"
)

// UserModule is the top-level module. Initialization goals are analyzed in
// its context.
const UserModule term.Atom = "user"

// SystemModule holds the built-in predicates.
const SystemModule term.Atom = "system"

// ProcRef identifies a procedure within a module.
type ProcRef struct {
	Module term.Atom
	Name   term.Atom
	Arity  int
}

func (p ProcRef) String() string {
	return fmt.Sprintf("%s:%s", term.Format(p.Module), term.Indicator{Name: p.Name, Arity: p.Arity})
}

// Indicator drops the module.
func (p ProcRef) Indicator() term.Indicator {
	return term.Indicator{Name: p.Name, Arity: p.Arity}
}

// MetaArgKind classifies one argument position of a meta specification.
type MetaArgKind int

const (
	// NotGoal marks a position that is not called.
	NotGoal MetaArgKind = iota
	// Goal marks a position called after appending Extra arguments.
	Goal
	// Existential marks a bagof/setof style position whose V^ prefixes
	// are stripped before the goal is called.
	Existential
)

// MetaArg annotates one argument position.
type MetaArg struct {
	Kind  MetaArgKind
	Extra int
}

// MetaSpec is the per-argument annotation of a meta predicate.
type MetaSpec []MetaArg

// ParseMetaSpec decodes a meta_predicate head such as maplist(2, ?, ?).
func ParseMetaSpec(head term.Term) (term.Indicator, MetaSpec, bool) {
	name, arity, ok := term.Functor(head)
	if !ok {
		return term.Indicator{}, nil, false
	}
	spec := make(MetaSpec, arity)
	for i, a := range term.Args(head) {
		switch a := a.(type) {
		case term.Int:
			if a >= 0 {
				spec[i] = MetaArg{Kind: Goal, Extra: int(a)}
			}
		case term.Atom:
			if a == "^" {
				spec[i] = MetaArg{Kind: Existential}
			}
		}
	}
	return term.Indicator{Name: name, Arity: arity}, spec, true
}

// Called is one entry of a called-symbol multiset: a goal that a
// combinator invokes after appending Extra arguments.
type Called struct {
	Goal  term.Term
	Extra int
}

// InitGoal is an initialization goal recorded while loading a source.
type InitGoal struct {
	Goal    term.Term
	Context term.Atom
	File    string
}

// InitializationCaller is the Request.Caller of initialization goals.
const InitializationCaller = "<initialization>"

// Request is one autoload request emitted by the walker.
type Request struct {
	Caller string
	Module term.Atom
	Name   term.Atom
	Arity  int
}

// Resolution reports that a requested predicate became defined.
type Resolution struct {
	Module  term.Atom
	Name    term.Atom
	Arity   int
	Library term.Atom
	File    string
}

// PassStats summarizes one fixpoint iteration.
type PassStats struct {
	Pass     int
	NewFiles int
	Resolved int
	Elapsed  time.Duration
}

// Summary is the outcome of one run to fixpoint.
type Summary struct {
	RunID       string
	Passes      []PassStats
	NewFiles    int
	Resolved    int
	Elapsed     time.Duration
	Requests    []Request
	Resolutions []Resolution
}

// Iterations returns the number of passes run.
func (s *Summary) Iterations() int {
	return len(s.Passes)
}

// Dependency represents an edge in the load graph: Source had predicates
// autoloaded from library Target.
type Dependency struct {
	Source  string
	Target  string
	Symbols []string
}

// CallSite is one autoload request with the procedure that made it.
type CallSite struct {
	Caller string
	Callee string
}

// Report is a complete run report, ready for serialization.
type Report struct {
	Program      string
	Summary      *Summary
	Dependencies []Dependency
	CallSites    []CallSite
	Unresolved   []string
}
