// Package autoload finds calls to undefined predicates in a loaded program
// and asks the program to autoload the libraries that define them, repeating
// until no new library files get loaded.
//
// The analysis is a static, under-approximating walk over clause bodies and
// initialization goals. Goals that are constructed at runtime cannot be seen
// and are skipped; the walk never claims that no undefined call remains.
package autoload

import (
	"github.com/phobologic/plautoload/internal/model"
	"github.com/phobologic/plautoload/internal/term"
)

// Flags held for the duration of a pass.
const (
	FlagAutoload        = "autoload"
	FlagVerboseAutoload = "verbose_autoload"
)

// Program is the loaded program the analysis runs against. Implementations
// need not be safe for concurrent use; a run calls them from one goroutine.
type Program interface {
	// LoadedFileCount returns the number of source files loaded so far.
	LoadedFileCount() int
	// Modules lists the modules whose procedures are scanned.
	Modules() []term.Atom
	// LocalProcedures lists the procedures defined (not imported) in module.
	LocalProcedures(module term.Atom) []model.ProcRef
	// ClauseBodies returns the body of every clause of p.
	ClauseBodies(p model.ProcRef) ([]term.Term, error)
	// InitializationGoals returns the recorded initialization goals.
	InitializationGoals() []model.InitGoal

	// IsDefined reports whether name/arity is visible from module.
	IsDefined(module, name term.Atom, arity int) (bool, error)
	// MetaSpec returns the meta specification of name/arity as seen from
	// module, if it has one.
	MetaSpec(module, name term.Atom, arity int) (model.MetaSpec, bool, error)
	// CalledBy returns the goals a combinator call invokes, if they can be
	// derived from its arguments. It may return nil.
	CalledBy(module term.Atom, goal term.Term) []model.Called

	// RequestAutoload asks for name/arity to be made available in module.
	// resolved is called once for each resolution event the request causes,
	// before RequestAutoload returns.
	RequestAutoload(module, name term.Atom, arity int, resolved func(model.Resolution))

	// SetFlag sets a boolean flag and returns its previous value.
	SetFlag(name string, value bool) bool
}
