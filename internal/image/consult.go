package image

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/phobologic/plautoload/internal/model"
	"github.com/phobologic/plautoload/internal/parse"
	"github.com/phobologic/plautoload/internal/term"
)

// sourceExts are tried in order when a file reference has no extension.
var sourceExts = []string{".pl", ".pro", ".prolog"}

// Consult loads the file at path into the user module.
func (img *Image) Consult(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}
	_, err = img.loadFile(abs, model.UserModule, nil)
	return err
}

// ConsultString loads text as a source called name into the user module.
// Loading the same name twice is a no-op.
func (img *Image) ConsultString(name, text string) error {
	_, err := img.load(name, []byte(text), model.UserModule, nil)
	return err
}

// loadFile reads and loads path. See load for into and only.
func (img *Image) loadFile(path string, into term.Atom, only []term.Indicator) (term.Atom, error) {
	if m, ok := img.files[path]; ok {
		img.importModule(into, m, only)
		return m, nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading source: %w", err)
	}
	return img.load(path, src, into, only)
}

// load adds the clauses of src to the image. If src is a module file its
// exports, or only the indicators in only, are imported into into; an empty
// into imports nothing. It returns the module the clauses were added to.
// Syntax errors and failed directives are joined into the error after
// everything else has been loaded.
func (img *Image) load(file string, src []byte, into term.Atom, only []term.Indicator) (term.Atom, error) {
	if m, ok := img.files[file]; ok {
		img.importModule(into, m, only)
		return m, nil
	}

	clauses, readErr := parse.ReadAll(src, file)
	errs := []error{readErr}

	ctx := into
	if ctx == "" {
		ctx = model.UserModule
	}
	isModule := false
	if len(clauses) > 0 {
		if name, exports, ok := moduleDecl(clauses[0].Term); ok {
			m := img.module(name)
			m.File = file
			for _, pi := range exports {
				m.exports[pi] = struct{}{}
			}
			ctx = name
			isModule = true
			clauses = clauses[1:]
		}
	}
	img.files[file] = ctx

	for _, c := range clauses {
		if err := img.addClause(ctx, file, c); err != nil {
			errs = append(errs, err)
		}
	}

	if isModule {
		img.importModule(into, ctx, only)
	}
	img.log.Debug("loaded source",
		zap.String("file", file),
		zap.String("module", string(ctx)),
		zap.Int("clauses", len(clauses)))
	return ctx, errors.Join(errs...)
}

// importModule imports the exports of src into dst. A non-nil only limits
// the import to those indicators.
func (img *Image) importModule(dst, src term.Atom, only []term.Indicator) {
	if dst == "" || dst == src {
		return
	}
	sm, ok := img.modules[src]
	if !ok || sm.File == "" {
		return
	}
	d := img.module(dst)
	if only != nil {
		for _, pi := range only {
			img.importPred(d, src, pi)
		}
		return
	}
	for pi := range sm.exports {
		img.importPred(d, src, pi)
	}
}

// moduleDecl matches :- module(Name, Exports).
func moduleDecl(t term.Term) (term.Atom, []term.Indicator, bool) {
	if !term.Is(t, ":-", 1) {
		return "", nil, false
	}
	d := term.Args(t)[0]
	if !term.Is(d, "module", 2) {
		return "", nil, false
	}
	args := term.Args(d)
	name, ok := args[0].(term.Atom)
	if !ok {
		return "", nil, false
	}
	return name, indicators(args[1]), true
}

// indicators collects the predicate indicators of a list or comma
// sequence, skipping anything else (operator exports, for instance).
func indicators(t term.Term) []term.Indicator {
	items, ok := term.ListSlice(t)
	if !ok {
		items = term.Conj(t)
	}
	var out []term.Indicator
	for _, it := range items {
		if pi, ok := term.ParseIndicator(it); ok {
			out = append(out, pi)
		}
	}
	return out
}

func (img *Image) addClause(ctx term.Atom, file string, c parse.Clause) error {
	t := c.Term
	head, body := t, term.Term(term.True)
	switch {
	case term.Is(t, ":-", 1):
		return img.directive(ctx, file, c.Line, term.Args(t)[0])
	case term.Is(t, ":-", 2):
		args := term.Args(t)
		head, body = args[0], args[1]
	case term.Is(t, "-->", 2):
		args := term.Args(t)
		h, b, err := translateGrammarRule(args[0], args[1])
		if err != nil {
			img.log.Warn("skipping grammar rule",
				zap.String("file", file),
				zap.Int("line", c.Line),
				zap.Error(err))
			return nil
		}
		head, body = h, b
	case term.Is(t, "=>", 2):
		// Head, Guard => Body runs the guard before the body.
		args := term.Args(t)
		head, body = args[0], args[1]
		if term.Is(head, ",", 2) {
			hg := term.Args(head)
			head, body = hg[0], term.New(term.Comma, hg[1], body)
		}
	}

	head, m := term.Strip(head, ctx)
	name, arity, ok := term.Functor(head)
	if !ok {
		img.log.Warn("skipping clause with non-callable head",
			zap.String("file", file),
			zap.Int("line", c.Line),
			zap.String("head", term.Format(head)))
		return nil
	}
	p := img.module(m).proc(term.Indicator{Name: name, Arity: arity})
	p.Bodies = append(p.Bodies, body)
	return nil
}

func (img *Image) directive(ctx term.Atom, file string, line int, d term.Term) error {
	if term.Is(d, ",", 2) {
		var errs []error
		for _, sub := range term.Conj(d) {
			errs = append(errs, img.directive(ctx, file, line, sub))
		}
		return errors.Join(errs...)
	}

	name, arity, _ := term.Functor(d)
	args := term.Args(d)
	switch {
	case name == "use_module" && (arity == 1 || arity == 2),
		name == "ensure_loaded" && arity == 1,
		name == "consult" && arity == 1:
		var only []term.Indicator
		if arity == 2 {
			if _, ok := term.ListSlice(args[1]); ok {
				only = append([]term.Indicator{}, indicators(args[1])...)
			}
		}
		return img.useModule(ctx, file, args[0], only)

	case name == "meta_predicate" && arity == 1:
		for _, h := range declItems(args[0]) {
			h, m := term.Strip(h, ctx)
			pi, spec, ok := model.ParseMetaSpec(h)
			if !ok {
				continue
			}
			img.module(m).proc(pi).Meta = spec
		}
		return nil

	case name == "dynamic" && arity == 1:
		for _, it := range declItems(args[0]) {
			_, m := term.Strip(it, ctx)
			if pi, ok := term.ParseIndicator(it); ok {
				img.module(m).proc(pi).Dynamic = true
			}
		}
		return nil

	case name == "initialization" && (arity == 1 || arity == 2):
		img.inits = append(img.inits, model.InitGoal{Goal: args[0], Context: ctx, File: file})
		return nil

	case name == "module" && arity == 2:
		img.log.Warn("module/2 is only valid as the first clause",
			zap.String("file", file), zap.Int("line", line))
		return nil

	case arity == 1 && (name == "discontiguous" || name == "multifile" ||
		name == "public" || name == "module_transparent" || name == "table"):
		return nil
	}

	img.log.Debug("ignoring directive",
		zap.String("file", file),
		zap.Int("line", line),
		zap.String("directive", term.Format(d)))
	return nil
}

// declItems splits the argument of a declaration directive, which may be a
// list or a comma sequence.
func declItems(t term.Term) []term.Term {
	if items, ok := term.ListSlice(t); ok {
		return items
	}
	return term.Conj(t)
}

func (img *Image) useModule(ctx term.Atom, from string, spec term.Term, only []term.Indicator) error {
	if items, ok := term.ListSlice(spec); ok {
		var errs []error
		for _, it := range items {
			errs = append(errs, img.useModule(ctx, from, it, only))
		}
		return errors.Join(errs...)
	}

	path, err := img.resolveSource(spec, from)
	if err != nil {
		return fmt.Errorf("%s: loading %s: %w", from, term.Format(spec), err)
	}
	if _, err := img.loadFile(path, ctx, only); err != nil {
		return fmt.Errorf("%s: loading %s: %w", from, term.Format(spec), err)
	}
	return nil
}

// resolveSource turns a file reference into an absolute path. library(Name)
// goes through the index; other references are relative to the loading
// file.
func (img *Image) resolveSource(spec term.Term, from string) (string, error) {
	if term.Is(spec, "library", 1) {
		name, ok := pathName(term.Args(spec)[0])
		if !ok {
			return "", fmt.Errorf("bad library name %s", term.Format(spec))
		}
		if img.index == nil {
			return "", errors.New("no library index")
		}
		path, ok := img.index.ResolveLibrary(name)
		if !ok {
			return "", fmt.Errorf("library %s not found", name)
		}
		return path, nil
	}

	name, ok := pathName(spec)
	if !ok {
		return "", fmt.Errorf("bad source reference %s", term.Format(spec))
	}
	if !filepath.IsAbs(name) {
		name = filepath.Join(filepath.Dir(from), name)
	}
	candidates := []string{name}
	if filepath.Ext(name) == "" {
		for _, ext := range sourceExts {
			candidates = append(candidates, name+ext)
		}
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return filepath.Abs(c)
		}
	}
	return "", fmt.Errorf("%s: %w", name, os.ErrNotExist)
}

// pathName renders an atom, string or a/b/c path term as a slash-separated
// path.
func pathName(t term.Term) (string, bool) {
	switch t := t.(type) {
	case term.Atom:
		return string(t), true
	case term.String:
		return string(t), true
	case *term.Compound:
		if t.Functor != "/" || len(t.Args) != 2 {
			return "", false
		}
		l, ok := pathName(t.Args[0])
		if !ok {
			return "", false
		}
		r, ok := pathName(t.Args[1])
		if !ok {
			return "", false
		}
		return strings.Join([]string{l, r}, "/"), true
	}
	return "", false
}
