package image

import (
	"github.com/phobologic/plautoload/internal/model"
	"github.com/phobologic/plautoload/internal/parse"
	"github.com/phobologic/plautoload/internal/term"
)

// builtinPreds are the non-meta predicates of the system module.
var builtinPreds = []term.Indicator{
	{Name: "true", Arity: 0}, {Name: "fail", Arity: 0}, {Name: "false", Arity: 0},
	{Name: "!", Arity: 0}, {Name: "halt", Arity: 0}, {Name: "halt", Arity: 1},
	{Name: "nl", Arity: 0}, {Name: "nl", Arity: 1}, {Name: "throw", Arity: 1},
	{Name: "=", Arity: 2}, {Name: "\\=", Arity: 2}, {Name: "==", Arity: 2},
	{Name: "\\==", Arity: 2}, {Name: "@<", Arity: 2}, {Name: "@>", Arity: 2},
	{Name: "@=<", Arity: 2}, {Name: "@>=", Arity: 2}, {Name: "compare", Arity: 3},
	{Name: "is", Arity: 2}, {Name: "=:=", Arity: 2}, {Name: "=\\=", Arity: 2},
	{Name: "<", Arity: 2}, {Name: ">", Arity: 2}, {Name: "=<", Arity: 2},
	{Name: ">=", Arity: 2}, {Name: "succ", Arity: 2}, {Name: "plus", Arity: 3},
	{Name: "between", Arity: 3},
	{Name: "var", Arity: 1}, {Name: "nonvar", Arity: 1}, {Name: "atom", Arity: 1},
	{Name: "number", Arity: 1}, {Name: "integer", Arity: 1}, {Name: "float", Arity: 1},
	{Name: "atomic", Arity: 1}, {Name: "compound", Arity: 1}, {Name: "callable", Arity: 1},
	{Name: "is_list", Arity: 1}, {Name: "string", Arity: 1}, {Name: "ground", Arity: 1},
	{Name: "functor", Arity: 3}, {Name: "arg", Arity: 3}, {Name: "=..", Arity: 2},
	{Name: "copy_term", Arity: 2}, {Name: "term_variables", Arity: 2},
	{Name: "atom_codes", Arity: 2}, {Name: "atom_chars", Arity: 2},
	{Name: "atom_length", Arity: 2}, {Name: "atom_concat", Arity: 3},
	{Name: "sub_atom", Arity: 5}, {Name: "atom_number", Arity: 2},
	{Name: "atom_string", Arity: 2}, {Name: "number_codes", Arity: 2},
	{Name: "char_code", Arity: 2}, {Name: "string_concat", Arity: 3},
	{Name: "string_chars", Arity: 2}, {Name: "string_codes", Arity: 2},
	{Name: "split_string", Arity: 4}, {Name: "atomic_list_concat", Arity: 2},
	{Name: "atomic_list_concat", Arity: 3}, {Name: "length", Arity: 2},
	{Name: "msort", Arity: 2}, {Name: "sort", Arity: 2}, {Name: "sort", Arity: 4},
	{Name: "keysort", Arity: 2},
	{Name: "write", Arity: 1}, {Name: "write", Arity: 2}, {Name: "writeln", Arity: 1},
	{Name: "writeq", Arity: 1}, {Name: "print", Arity: 1}, {Name: "print_message", Arity: 2},
	{Name: "format", Arity: 1}, {Name: "format", Arity: 2}, {Name: "format", Arity: 3},
	{Name: "tab", Arity: 1}, {Name: "read", Arity: 1}, {Name: "read_term", Arity: 2},
	{Name: "op", Arity: 3}, {Name: "current_op", Arity: 3},
	{Name: "nb_getval", Arity: 2}, {Name: "nb_setval", Arity: 2},
	{Name: "b_getval", Arity: 2}, {Name: "b_setval", Arity: 2},
	{Name: "current_prolog_flag", Arity: 2}, {Name: "set_prolog_flag", Arity: 2},
	{Name: "tab", Arity: 2}, {Name: "writeq", Arity: 2}, {Name: "print", Arity: 2},
	{Name: "read_term", Arity: 3}, {Name: "nb_current", Arity: 2},
	{Name: "sub_string", Arity: 5}, {Name: "string_code", Arity: 3},
	{Name: "string_length", Arity: 2}, {Name: "string_lower", Arity: 2},
	{Name: "string_upper", Arity: 2}, {Name: "string_to_atom", Arity: 2},
	{Name: "number_string", Arity: 2}, {Name: "number_chars", Arity: 2},
	{Name: "term_to_atom", Arity: 2}, {Name: "term_string", Arity: 2},
	{Name: "atom_to_term", Arity: 3}, {Name: "upcase_atom", Arity: 2},
	{Name: "downcase_atom", Arity: 2}, {Name: "char_type", Arity: 2},
	{Name: "code_type", Arity: 2},
}

// builtinMeta declares the meta predicates of the system module.
const builtinMeta = `
call(0). call(1, ?). call(2, ?, ?). call(3, ?, ?, ?). call(4, ?, ?, ?, ?).
call(5, ?, ?, ?, ?, ?). call(6, ?, ?, ?, ?, ?, ?). call(7, ?, ?, ?, ?, ?, ?, ?).
\+(0). not(0). once(0). ignore(0). forall(0, 0).
findall(?, 0, -). findall(?, 0, -, ?). bagof(?, ^, -). setof(?, ^, -).
aggregate_all(?, 0, -). catch(0, ?, 0). call_cleanup(0, 0).
setup_call_cleanup(0, 0, 0). time(0). with_output_to(?, 0).
assert(:). asserta(:). assertz(:). retract(:). retractall(:).
maplist(1, ?). maplist(2, ?, ?). maplist(3, ?, ?, ?). maplist(4, ?, ?, ?, ?).
maplist(5, ?, ?, ?, ?, ?). maplist(6, ?, ?, ?, ?, ?, ?).
foldl(3, ?, +, -). foldl(4, ?, ?, +, -). foldl(5, ?, ?, ?, +, -).
foldl(6, ?, ?, ?, ?, +, -).
include(1, +, -). exclude(1, +, -). partition(1, +, -, -).
phrase(//, ?). phrase(//, ?, ?).
`

// installBuiltins creates the system module and the combinator rules.
func (img *Image) installBuiltins() {
	sys := img.module(model.SystemModule)
	for _, pi := range builtinPreds {
		sys.proc(pi).Builtin = true
	}

	heads, err := parse.ReadAll([]byte(builtinMeta), "<builtin>")
	if err != nil {
		panic("image: bad builtin meta table: " + err.Error())
	}
	for _, h := range heads {
		pi, spec, ok := model.ParseMetaSpec(h.Term)
		if !ok {
			continue
		}
		p := sys.proc(pi)
		p.Builtin = true
		p.Meta = spec
	}

	for arity := 2; arity <= 7; arity++ {
		img.RegisterCalledBy(term.Indicator{Name: "maplist", Arity: arity}, firstArgPlus(arity-1))
	}
	for arity := 4; arity <= 7; arity++ {
		img.RegisterCalledBy(term.Indicator{Name: "foldl", Arity: arity}, firstArgPlus(arity-1))
	}
	for arity := 2; arity <= 8; arity++ {
		img.RegisterCalledBy(term.Indicator{Name: "call", Arity: arity}, firstArgPlus(arity-1))
	}
	img.RegisterCalledBy(term.Indicator{Name: "include", Arity: 3}, firstArgPlus(1))
	img.RegisterCalledBy(term.Indicator{Name: "exclude", Arity: 3}, firstArgPlus(1))
	img.RegisterCalledBy(term.Indicator{Name: "partition", Arity: 4}, firstArgPlus(1))
	img.RegisterCalledBy(term.Indicator{Name: "phrase", Arity: 2}, phraseCalls)
	img.RegisterCalledBy(term.Indicator{Name: "phrase", Arity: 3}, phraseCalls)
}

// firstArgPlus is the rule for combinators that call their first argument
// with extra more arguments.
func firstArgPlus(extra int) CalledByFunc {
	return func(goal term.Term) []model.Called {
		args := term.Args(goal)
		if len(args) == 0 {
			return nil
		}
		return []model.Called{{Goal: args[0], Extra: extra}}
	}
}
