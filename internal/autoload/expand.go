package autoload

import (
	"github.com/phobologic/plautoload/internal/model"
	"github.com/phobologic/plautoload/internal/term"
)

// Expand returns the sub-goals of a meta call. Arguments in positions
// declared as goals with extra arity 0 (or as ^-annotated goals) are returned
// as goals to classify. Positions with extra arity N > 0 are returned as
// partial goals; the caller completes them only when they turn out to be
// fully instantiated callables. Other positions are ignored, and a nil spec
// yields nothing.
func Expand(call PlainCall, spec model.MetaSpec) (goals []term.Term, partial []model.Called) {
	for i, arg := range call.Args {
		if i >= len(spec) {
			break
		}
		switch spec[i].Kind {
		case model.Goal:
			if spec[i].Extra == 0 {
				goals = append(goals, arg)
			} else {
				partial = append(partial, model.Called{Goal: arg, Extra: spec[i].Extra})
			}
		case model.Existential:
			goals = append(goals, stripExistential(arg))
		}
	}
	return goals, partial
}

// stripExistential removes V^ prefixes from a bagof/setof goal.
func stripExistential(t term.Term) term.Term {
	for term.Is(t, "^", 2) {
		t = term.Args(t)[1]
	}
	return t
}
