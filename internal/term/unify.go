package term

// maxUnifySteps bounds the work a single Unify call may do.
const maxUnifySteps = 1 << 16

type unifier struct {
	bindings map[*Var]Term
	steps    int
}

// Unify reports whether a and b unify with the occurs check. Bindings are
// kept in a private map, so neither term is modified and the outcome has no
// effect on later analysis. Unification that exceeds the step budget fails.
func Unify(a, b Term) bool {
	u := unifier{bindings: make(map[*Var]Term)}
	return u.unify(a, b)
}

func (u *unifier) deref(t Term) Term {
	for {
		v, ok := t.(*Var)
		if !ok {
			return t
		}
		bound, ok := u.bindings[v]
		if !ok {
			return v
		}
		t = bound
	}
}

func (u *unifier) unify(a, b Term) bool {
	u.steps++
	if u.steps > maxUnifySteps {
		return false
	}

	a, b = u.deref(a), u.deref(b)

	if va, ok := a.(*Var); ok {
		if vb, ok := b.(*Var); ok && va == vb {
			return true
		}
		return u.bind(va, b)
	}
	if vb, ok := b.(*Var); ok {
		return u.bind(vb, a)
	}

	switch a := a.(type) {
	case *Compound:
		cb, ok := b.(*Compound)
		if !ok || a.Functor != cb.Functor || len(a.Args) != len(cb.Args) {
			return false
		}
		for i := range a.Args {
			if !u.unify(a.Args[i], cb.Args[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

func (u *unifier) bind(v *Var, t Term) bool {
	if u.occurs(v, t) {
		return false
	}
	u.bindings[v] = t
	return true
}

func (u *unifier) occurs(v *Var, t Term) bool {
	u.steps++
	if u.steps > maxUnifySteps {
		return true
	}
	switch t := u.deref(t).(type) {
	case *Var:
		return t == v
	case *Compound:
		for _, arg := range t.Args {
			if u.occurs(v, arg) {
				return true
			}
		}
	}
	return false
}
