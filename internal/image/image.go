// Package image holds a loaded Prolog program: its modules, procedures,
// clauses and flags. It implements autoload.Program.
package image

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/phobologic/plautoload/internal/autoload"
	"github.com/phobologic/plautoload/internal/library"
	"github.com/phobologic/plautoload/internal/model"
	"github.com/phobologic/plautoload/internal/term"
)

var _ autoload.Program = (*Image)(nil)

// ErrUnknownProcedure is returned for a procedure the image does not hold.
var ErrUnknownProcedure = errors.New("unknown procedure")

// maxImportHops bounds re-export chains followed during lookup.
const maxImportHops = 8

// Index locates library predicates and files.
type Index interface {
	Lookup(name term.Atom, arity int) (library.Entry, bool)
	ResolveLibrary(name string) (string, bool)
}

// Procedure is a predicate held by a module.
type Procedure struct {
	Ref     model.ProcRef
	Bodies  []term.Term
	Meta    model.MetaSpec
	Dynamic bool
	Builtin bool
}

// Defined reports whether calling the procedure would find a definition.
func (p *Procedure) Defined() bool {
	return p.Builtin || p.Dynamic || len(p.Bodies) > 0
}

// Module is a named set of procedures.
type Module struct {
	Name    term.Atom
	File    string
	Library bool

	exports map[term.Indicator]struct{}
	procs   map[term.Indicator]*Procedure
	order   []term.Indicator
	imports map[term.Indicator]term.Atom
}

func newModule(name term.Atom) *Module {
	return &Module{
		Name:    name,
		exports: make(map[term.Indicator]struct{}),
		procs:   make(map[term.Indicator]*Procedure),
		imports: make(map[term.Indicator]term.Atom),
	}
}

func (m *Module) proc(pi term.Indicator) *Procedure {
	if p, ok := m.procs[pi]; ok {
		return p
	}
	p := &Procedure{Ref: model.ProcRef{Module: m.Name, Name: pi.Name, Arity: pi.Arity}}
	m.procs[pi] = p
	m.order = append(m.order, pi)
	return p
}

// CalledByFunc derives the goals a combinator call invokes.
type CalledByFunc func(goal term.Term) []model.Called

// Image is a loaded program. It is not safe for concurrent use.
type Image struct {
	modules  map[term.Atom]*Module
	order    []term.Atom
	files    map[string]term.Atom
	index    Index
	flags    map[string]bool
	inits    []model.InitGoal
	calledBy map[term.Indicator]CalledByFunc
	log      *zap.Logger
}

// Option configures an Image.
type Option func(*Image)

// WithIndex sets the library index used for autoloading and library(...)
// paths.
func WithIndex(ix Index) Option {
	return func(img *Image) { img.index = ix }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(img *Image) {
		if log != nil {
			img.log = log
		}
	}
}

// New returns an image holding only the system and user modules.
func New(opts ...Option) *Image {
	img := &Image{
		modules: make(map[term.Atom]*Module),
		files:   make(map[string]term.Atom),
		flags: map[string]bool{
			autoload.FlagAutoload:        true,
			autoload.FlagVerboseAutoload: false,
		},
		calledBy: make(map[term.Indicator]CalledByFunc),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(img)
	}
	img.installBuiltins()
	img.module(model.UserModule)
	return img
}

func (img *Image) module(name term.Atom) *Module {
	if m, ok := img.modules[name]; ok {
		return m
	}
	m := newModule(name)
	img.modules[name] = m
	img.order = append(img.order, name)
	return m
}

// Module returns the named module, if it exists.
func (img *Image) Module(name term.Atom) (*Module, bool) {
	m, ok := img.modules[name]
	return m, ok
}

// Flag returns the value of a boolean flag.
func (img *Image) Flag(name string) bool {
	return img.flags[name]
}

// SetFlag sets a boolean flag and returns its previous value.
func (img *Image) SetFlag(name string, value bool) bool {
	old := img.flags[name]
	img.flags[name] = value
	return old
}

// RegisterCalledBy adds a rule deriving the goals that calls to pi invoke.
func (img *Image) RegisterCalledBy(pi term.Indicator, fn CalledByFunc) {
	img.calledBy[pi] = fn
}

// LoadedFileCount returns the number of distinct sources loaded.
func (img *Image) LoadedFileCount() int {
	return len(img.files)
}

// Modules lists all modules except system, in creation order.
func (img *Image) Modules() []term.Atom {
	out := make([]term.Atom, 0, len(img.order))
	for _, name := range img.order {
		if name != model.SystemModule {
			out = append(out, name)
		}
	}
	return out
}

// LocalProcedures lists the procedures with clauses or a dynamic
// declaration in module, in definition order.
func (img *Image) LocalProcedures(module term.Atom) []model.ProcRef {
	m, ok := img.modules[module]
	if !ok {
		return nil
	}
	var out []model.ProcRef
	for _, pi := range m.order {
		p := m.procs[pi]
		if !p.Builtin && p.Defined() {
			out = append(out, p.Ref)
		}
	}
	return out
}

// ClauseBodies returns the clause bodies of p.
func (img *Image) ClauseBodies(p model.ProcRef) ([]term.Term, error) {
	m, ok := img.modules[p.Module]
	if !ok {
		return nil, fmt.Errorf("%s: %w", p, ErrUnknownProcedure)
	}
	proc, ok := m.procs[p.Indicator()]
	if !ok {
		return nil, fmt.Errorf("%s: %w", p, ErrUnknownProcedure)
	}
	return append([]term.Term(nil), proc.Bodies...), nil
}

// InitializationGoals returns the recorded initialization goals.
func (img *Image) InitializationGoals() []model.InitGoal {
	return append([]model.InitGoal(nil), img.inits...)
}

// IsDefined reports whether name/arity is visible from module.
func (img *Image) IsDefined(module, name term.Atom, arity int) (bool, error) {
	p, ok := img.lookup(module, term.Indicator{Name: name, Arity: arity})
	return ok && p.Defined(), nil
}

// MetaSpec returns the meta specification of name/arity as seen from module.
func (img *Image) MetaSpec(module, name term.Atom, arity int) (model.MetaSpec, bool, error) {
	p, ok := img.lookup(module, term.Indicator{Name: name, Arity: arity})
	if !ok || p.Meta == nil {
		return nil, false, nil
	}
	return p.Meta, true, nil
}

// CalledBy applies the registered combinator rule for goal, if any.
func (img *Image) CalledBy(_ term.Atom, goal term.Term) []model.Called {
	name, arity, ok := term.Functor(goal)
	if !ok {
		return nil
	}
	fn, ok := img.calledBy[term.Indicator{Name: name, Arity: arity}]
	if !ok {
		return nil
	}
	return fn(goal)
}

// lookup returns the procedure name/arity resolves to from module.
func (img *Image) lookup(module term.Atom, pi term.Indicator) (*Procedure, bool) {
	p := img.resolve(module, pi)
	return p, p != nil
}

// resolve searches module, then user, then system. A declared but
// undefined procedure is returned only if nothing later defines pi.
func (img *Image) resolve(module term.Atom, pi term.Indicator) *Procedure {
	path := []term.Atom{module}
	if module != model.UserModule && module != model.SystemModule {
		path = append(path, model.UserModule)
	}
	if module != model.SystemModule {
		path = append(path, model.SystemModule)
	}

	var declared *Procedure
	for _, name := range path {
		m, ok := img.modules[name]
		if !ok {
			continue
		}
		p := img.lookupIn(m, pi, 0)
		if p == nil {
			continue
		}
		if p.Defined() {
			return p
		}
		if declared == nil {
			declared = p
		}
	}
	return declared
}

func (img *Image) lookupIn(m *Module, pi term.Indicator, hops int) *Procedure {
	if p, ok := m.procs[pi]; ok && (p.Defined() || p.Meta != nil) {
		return p
	}
	if hops >= maxImportHops {
		return nil
	}
	if src, ok := m.imports[pi]; ok {
		if sm, ok := img.modules[src]; ok {
			return img.lookupIn(sm, pi, hops+1)
		}
	}
	return nil
}

// importPred makes pi from src visible in dst. A local definition in dst
// wins and the import is skipped.
func (img *Image) importPred(dst *Module, src term.Atom, pi term.Indicator) {
	if dst.Name == src {
		return
	}
	if p, ok := dst.procs[pi]; ok && p.Defined() {
		img.log.Debug("local definition overrides import",
			zap.String("module", string(dst.Name)),
			zap.Stringer("predicate", pi),
			zap.String("from", string(src)))
		return
	}
	dst.imports[pi] = src
}
