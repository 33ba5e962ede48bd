package image

import (
	"fmt"

	"github.com/phobologic/plautoload/internal/model"
	"github.com/phobologic/plautoload/internal/term"
)

// translateGrammarRule turns Head --> Body into a clause head and body over
// two list arguments. A pushback Head, PB --> Body unifies the remaining
// input with PB prepended.
func translateGrammarRule(head, body term.Term) (term.Term, term.Term, error) {
	var pushback term.Term
	if term.Is(head, ",", 2) {
		args := term.Args(head)
		head, pushback = args[0], args[1]
	}

	s0, s := term.NewVar(), term.NewVar()
	nt, ok := nonTerminal(head, s0, s)
	if !ok {
		return nil, nil, fmt.Errorf("grammar rule head %s is not callable", term.Format(head))
	}

	if pushback == nil {
		g, err := grammarBody(body, s0, s)
		if err != nil {
			return nil, nil, err
		}
		return nt, g, nil
	}

	mid := term.NewVar()
	g, err := grammarBody(body, s0, mid)
	if err != nil {
		return nil, nil, err
	}
	pb, err := terminals(pushback, s, mid)
	if err != nil {
		return nil, nil, err
	}
	return nt, term.New(term.Comma, g, pb), nil
}

// grammarBody translates a grammar body that consumes the list s0 and
// leaves s.
func grammarBody(b, s0, s term.Term) (term.Term, error) {
	switch b := b.(type) {
	case *term.Var:
		return term.New("phrase", b, s0, s), nil
	case term.String:
		return terminals(b, s0, s)
	case term.Atom:
		switch b {
		case term.Nil, "{}":
			return unify(s0, s), nil
		case "!":
			return term.New(term.Comma, term.Atom("!"), unify(s0, s)), nil
		}
		return term.New(b, s0, s), nil
	case *term.Compound:
		args := b.Args
		switch {
		case b.Functor == term.Comma && len(args) == 2:
			mid := term.NewVar()
			l, err := grammarBody(args[0], s0, mid)
			if err != nil {
				return nil, err
			}
			r, err := grammarBody(args[1], mid, s)
			if err != nil {
				return nil, err
			}
			return term.New(term.Comma, l, r), nil
		case b.Functor == term.Semi && len(args) == 2:
			l, err := grammarBody(args[0], s0, s)
			if err != nil {
				return nil, err
			}
			r, err := grammarBody(args[1], s0, s)
			if err != nil {
				return nil, err
			}
			return term.New(term.Semi, l, r), nil
		case b.Functor == "->" && len(args) == 2:
			mid := term.NewVar()
			c, err := grammarBody(args[0], s0, mid)
			if err != nil {
				return nil, err
			}
			t, err := grammarBody(args[1], mid, s)
			if err != nil {
				return nil, err
			}
			return term.New("->", c, t), nil
		case b.Functor == "\\+" && len(args) == 1:
			g, err := grammarBody(args[0], s0, term.NewVar())
			if err != nil {
				return nil, err
			}
			return term.New(term.Comma, term.New("\\+", g), unify(s0, s)), nil
		case b.Functor == "{}" && len(args) == 1:
			return term.New(term.Comma, args[0], unify(s0, s)), nil
		case b.Functor == "." && len(args) == 2:
			return terminals(b, s0, s)
		case b.Functor == "call" && len(args) >= 1:
			return term.New("call", append(append([]term.Term{}, args...), s0, s)...), nil
		case b.Functor == term.Colon && len(args) == 2:
			if _, ok := args[0].(term.Atom); ok {
				inner, err := grammarBody(args[1], s0, s)
				if err != nil {
					return nil, err
				}
				return term.New(term.Colon, args[0], inner), nil
			}
		}
		nt, _ := nonTerminal(b, s0, s)
		return nt, nil
	}
	return nil, fmt.Errorf("invalid grammar body %s", term.Format(b))
}

// terminals translates a terminal list or string into s0 = [T1, ..., Tn|s].
func terminals(t, s0, s term.Term) (term.Term, error) {
	var elems []term.Term
	switch t := t.(type) {
	case term.String:
		for _, r := range string(t) {
			elems = append(elems, term.Int(r))
		}
	default:
		var ok bool
		elems, ok = term.ListSlice(t)
		if !ok {
			return nil, fmt.Errorf("terminals %s are not a proper list", term.Format(t))
		}
	}
	list := s
	for i := len(elems) - 1; i >= 0; i-- {
		list = term.Cons(elems[i], list)
	}
	return unify(s0, list), nil
}

// nonTerminal appends the two list arguments to a callable, keeping any
// module qualification outside.
func nonTerminal(t, s0, s term.Term) (term.Term, bool) {
	switch t := t.(type) {
	case term.Atom:
		return term.New(t, s0, s), true
	case *term.Compound:
		if t.Functor == term.Colon && len(t.Args) == 2 {
			inner, ok := nonTerminal(t.Args[1], s0, s)
			if !ok {
				return nil, false
			}
			return term.New(term.Colon, t.Args[0], inner), true
		}
		args := make([]term.Term, 0, len(t.Args)+2)
		args = append(args, t.Args...)
		return term.New(t.Functor, append(args, s0, s)...), true
	}
	return nil, false
}

func unify(a, b term.Term) term.Term {
	return term.New("=", a, b)
}

// phraseCalls is the called_by rule of phrase/2,3: the grammar body is
// translated and called as a plain goal.
func phraseCalls(goal term.Term) []model.Called {
	args := term.Args(goal)
	if len(args) < 2 {
		return nil
	}
	if _, ok := args[0].(*term.Var); ok {
		return nil
	}
	g, err := grammarBody(args[0], term.NewVar(), term.NewVar())
	if err != nil {
		return nil
	}
	return []model.Called{{Goal: g}}
}
