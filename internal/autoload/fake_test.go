package autoload

import (
	"errors"
	"sort"

	"github.com/phobologic/plautoload/internal/model"
	"github.com/phobologic/plautoload/internal/term"
)

type key struct {
	module term.Atom
	name   term.Atom
	arity  int
}

// fakeProgram is an in-memory Program. Predicates are global across
// modules unless noted.
type fakeProgram struct {
	files    int
	modules  []term.Atom
	procs    map[term.Atom][]model.ProcRef
	bodies   map[model.ProcRef][]term.Term
	bodyErr  map[model.ProcRef]error
	inits    []model.InitGoal
	defined  map[term.Indicator]bool
	metas    map[term.Indicator]model.MetaSpec
	libs     map[term.Indicator]term.Atom
	libProcs map[term.Atom]map[model.ProcRef][]term.Term
	loaded   map[term.Atom]bool
	flags    map[string]bool

	definedErr  map[term.Indicator]error
	dupEvents   bool
	alwaysGrows bool

	requests  []key
	flagTrace []map[string]bool
}

func newFake() *fakeProgram {
	return &fakeProgram{
		files:      1,
		modules:    []term.Atom{model.UserModule},
		procs:      make(map[term.Atom][]model.ProcRef),
		bodies:     make(map[model.ProcRef][]term.Term),
		bodyErr:    make(map[model.ProcRef]error),
		defined:    make(map[term.Indicator]bool),
		metas:      make(map[term.Indicator]model.MetaSpec),
		libs:       make(map[term.Indicator]term.Atom),
		libProcs:   make(map[term.Atom]map[model.ProcRef][]term.Term),
		loaded:     make(map[term.Atom]bool),
		flags:      map[string]bool{FlagAutoload: false, FlagVerboseAutoload: false},
		definedErr: make(map[term.Indicator]error),
	}
}

func (f *fakeProgram) addClause(module, name term.Atom, arity int, body term.Term) {
	ref := model.ProcRef{Module: module, Name: name, Arity: arity}
	if _, ok := f.bodies[ref]; !ok {
		f.procs[module] = append(f.procs[module], ref)
	}
	f.bodies[ref] = append(f.bodies[ref], body)
	f.defined[ref.Indicator()] = true
}

func (f *fakeProgram) define(name term.Atom, arity int) {
	f.defined[term.Indicator{Name: name, Arity: arity}] = true
}

// addLibrary registers library lib defining name/arity with the given
// clause bodies.
func (f *fakeProgram) addLibrary(lib, name term.Atom, arity int, bodies ...term.Term) {
	f.libs[term.Indicator{Name: name, Arity: arity}] = lib
	if f.libProcs[lib] == nil {
		f.libProcs[lib] = make(map[model.ProcRef][]term.Term)
	}
	if len(bodies) == 0 {
		bodies = []term.Term{term.True}
	}
	f.libProcs[lib][model.ProcRef{Module: lib, Name: name, Arity: arity}] = bodies
}

func (f *fakeProgram) LoadedFileCount() int { return f.files }

func (f *fakeProgram) Modules() []term.Atom {
	return append([]term.Atom(nil), f.modules...)
}

func (f *fakeProgram) LocalProcedures(m term.Atom) []model.ProcRef {
	return append([]model.ProcRef(nil), f.procs[m]...)
}

func (f *fakeProgram) ClauseBodies(p model.ProcRef) ([]term.Term, error) {
	if err := f.bodyErr[p]; err != nil {
		return nil, err
	}
	return f.bodies[p], nil
}

func (f *fakeProgram) InitializationGoals() []model.InitGoal { return f.inits }

func (f *fakeProgram) IsDefined(_, name term.Atom, arity int) (bool, error) {
	pi := term.Indicator{Name: name, Arity: arity}
	if err := f.definedErr[pi]; err != nil {
		return false, err
	}
	return f.defined[pi], nil
}

func (f *fakeProgram) MetaSpec(_, name term.Atom, arity int) (model.MetaSpec, bool, error) {
	spec, ok := f.metas[term.Indicator{Name: name, Arity: arity}]
	return spec, ok, nil
}

func (f *fakeProgram) CalledBy(_ term.Atom, goal term.Term) []model.Called {
	name, arity, _ := term.Functor(goal)
	if name == "maplist" && arity >= 2 {
		return []model.Called{{Goal: term.Args(goal)[0], Extra: arity - 1}}
	}
	return nil
}

func (f *fakeProgram) RequestAutoload(_, name term.Atom, arity int, resolved func(model.Resolution)) {
	f.requests = append(f.requests, key{name: name, arity: arity})
	if !f.flags[FlagAutoload] {
		return
	}
	if f.alwaysGrows {
		f.files++
		return
	}
	pi := term.Indicator{Name: name, Arity: arity}
	lib, ok := f.libs[pi]
	if !ok {
		return
	}
	if !f.loaded[lib] {
		f.loaded[lib] = true
		f.files++
		f.modules = append(f.modules, lib)
		refs := make([]model.ProcRef, 0, len(f.libProcs[lib]))
		for ref, bodies := range f.libProcs[lib] {
			refs = append(refs, ref)
			f.bodies[ref] = bodies
			f.defined[ref.Indicator()] = true
		}
		sort.Slice(refs, func(i, j int) bool { return refs[i].String() < refs[j].String() })
		f.procs[lib] = refs
	}
	ev := model.Resolution{Name: name, Arity: arity, Library: lib}
	resolved(ev)
	if f.dupEvents {
		resolved(ev)
	}
}

func (f *fakeProgram) SetFlag(name string, value bool) bool {
	old := f.flags[name]
	f.flags[name] = value
	snapshot := make(map[string]bool, len(f.flags))
	for k, v := range f.flags {
		snapshot[k] = v
	}
	f.flagTrace = append(f.flagTrace, snapshot)
	return old
}

func (f *fakeProgram) requested(name term.Atom, arity int) int {
	n := 0
	for _, r := range f.requests {
		if r.name == name && r.arity == arity {
			n++
		}
	}
	return n
}

var errBroken = errors.New("broken collaborator")
