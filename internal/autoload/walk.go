package autoload

import (
	"errors"
	"fmt"

	"github.com/phobologic/plautoload/internal/model"
	"github.com/phobologic/plautoload/internal/term"
)

// MaxDepth bounds goal nesting during a walk. Clause bodies are finite, so
// only cyclic or absurdly deep terms hit it.
const MaxDepth = 10000

// ErrDepthExceeded is returned when a walk nests deeper than MaxDepth.
var ErrDepthExceeded = errors.New("goal nesting exceeds walk depth limit")

// walker finds undefined calls in the goals of one clause or
// initialization goal.
type walker struct {
	pass   *pass
	caller string
	depth  int
}

// walk visits every call site reachable from t when called in module.
// Both branches of a disjunction and both conjuncts are visited whatever
// the outcome of the first.
func (w *walker) walk(t term.Term, module term.Atom) error {
	w.depth++
	defer func() { w.depth-- }()
	if w.depth > MaxDepth {
		return ErrDepthExceeded
	}

	switch g := Classify(t, module).(type) {
	case Unbound:
		return nil
	case Qualified:
		return w.walk(g.Goal, g.Module)
	case Conjunction:
		if err := w.walk(g.Left, module); err != nil {
			return err
		}
		return w.walk(g.Right, module)
	case Disjunction:
		if err := w.walk(g.Left, module); err != nil {
			return err
		}
		return w.walk(g.Right, module)
	case UnificationTest:
		if term.Unify(g.Left, g.Right) {
			return nil
		}
		return w.call(PlainCall{Module: module, Name: "=", Args: []term.Term{g.Left, g.Right}, Term: t})
	case PlainCall:
		return w.call(g)
	}
	return nil
}

func (w *walker) call(g PlainCall) error {
	prog := w.pass.prog
	arity := g.Arity()

	defined, err := prog.IsDefined(g.Module, g.Name, arity)
	if err != nil {
		return fmt.Errorf("checking %s:%s: %w", g.Module, term.Indicator{Name: g.Name, Arity: arity}, err)
	}
	if !defined {
		w.pass.request(w.caller, g.Module, g.Name, arity)
	}

	if called := prog.CalledBy(g.Module, g.Term); len(called) > 0 {
		return w.walkCalled(called, g.Module)
	}

	spec, ok, err := prog.MetaSpec(g.Module, g.Name, arity)
	if err != nil {
		return fmt.Errorf("meta spec of %s:%s: %w", g.Module, term.Indicator{Name: g.Name, Arity: arity}, err)
	}
	if !ok {
		return nil
	}

	goals, partial := Expand(g, spec)
	for _, sub := range goals {
		if err := w.walk(sub, g.Module); err != nil {
			return err
		}
	}
	return w.walkCalled(partial, g.Module)
}

// walkCalled completes each called goal with its extra arguments and walks
// it. Entries that are not fully instantiated callables are skipped.
func (w *walker) walkCalled(called []model.Called, module term.Atom) error {
	for _, c := range called {
		goal, ok := term.Extend(c.Goal, c.Extra)
		if !ok {
			continue
		}
		if err := w.walk(goal, module); err != nil {
			return err
		}
	}
	return nil
}
