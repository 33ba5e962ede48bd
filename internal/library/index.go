// Package library indexes the predicates exported by autoload libraries.
package library

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/phobologic/plautoload/internal/discover"
	"github.com/phobologic/plautoload/internal/parse"
	"github.com/phobologic/plautoload/internal/term"
)

// Entry records which library file exports a predicate.
type Entry struct {
	Name   term.Atom `yaml:"name"`
	Arity  int       `yaml:"arity"`
	Module term.Atom `yaml:"module"`
	File   string    `yaml:"file"`
}

// Indicator returns the entry's name/arity.
func (e Entry) Indicator() term.Indicator {
	return term.Indicator{Name: e.Name, Arity: e.Arity}
}

// Index maps exported predicates and library names to files. It is
// read-only once built.
type Index struct {
	dirs    []string
	entries map[term.Indicator]Entry
	files   map[string]string
	order   []Entry
}

func newIndex(dirs []string) *Index {
	return &Index{
		dirs:    dirs,
		entries: make(map[term.Indicator]Entry),
		files:   make(map[string]string),
	}
}

// header is what the index needs from one library file.
type header struct {
	path    string
	name    string
	module  term.Atom
	exports []term.Indicator
}

// Build scans dirs for library files and indexes their module exports.
// Earlier directories win when two libraries export the same predicate or
// share a name. Files without a module declaration can still be loaded by
// name but export nothing.
func Build(dirs []string, log *zap.Logger) (*Index, error) {
	if log == nil {
		log = zap.NewNop()
	}
	abs := make([]string, 0, len(dirs))
	for _, d := range dirs {
		a, err := filepath.Abs(d)
		if err != nil {
			return nil, fmt.Errorf("resolving library dir %s: %w", d, err)
		}
		abs = append(abs, a)
	}

	ix := newIndex(abs)
	for _, dir := range abs {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("library dir: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s: not a directory", dir)
		}

		headers, err := scanDir(dir, log)
		if err != nil {
			return nil, err
		}
		for _, h := range headers {
			ix.add(h)
		}
	}
	log.Debug("built library index",
		zap.Strings("dirs", abs),
		zap.Int("predicates", len(ix.entries)))
	return ix, nil
}

// scanDir reads the headers of every library file in dir concurrently.
// The result is in sorted path order.
func scanDir(dir string, log *zap.Logger) ([]header, error) {
	kept, err := libraryFiles(dir)
	if err != nil {
		return nil, err
	}

	headers := make([]header, len(kept))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, f := range kept {
		g.Go(func() error {
			path := filepath.Join(dir, f.Path)
			h, err := readHeader(path)
			if err != nil {
				return fmt.Errorf("reading library %s: %w", path, err)
			}
			h.name = f.Name()
			headers[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, h := range headers {
		if h.module == "" {
			log.Debug("library file has no module declaration", zap.String("file", h.path))
		}
	}
	return headers, nil
}

// libraryFiles lists the Prolog files of dir, leaving out test code.
func libraryFiles(dir string) ([]discover.FileEntry, error) {
	files, err := discover.Files(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("discovering libraries in %s: %w", dir, err)
	}
	var kept []discover.FileEntry
	for _, f := range files {
		if !discover.IsTestFile(f.Path) {
			kept = append(kept, f)
		}
	}
	return kept, nil
}

// readHeader reads the module declaration of the file at path, which must
// be its first clause. Syntax errors in the first clause leave the module
// empty.
func readHeader(path string) (header, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return header{}, err
	}
	h := header{path: path}

	c, err := parse.NewReader(src, path).Next()
	var syntaxErr *parse.SyntaxError
	switch {
	case errors.Is(err, io.EOF), errors.As(err, &syntaxErr):
		return h, nil
	case err != nil:
		return header{}, err
	}

	if !term.Is(c.Term, ":-", 1) {
		return h, nil
	}
	d := term.Args(c.Term)[0]
	if !term.Is(d, "module", 2) {
		return h, nil
	}
	name, ok := term.Args(d)[0].(term.Atom)
	if !ok {
		return h, nil
	}
	h.module = name

	exports, ok := term.ListSlice(term.Args(d)[1])
	if !ok {
		return h, nil
	}
	for _, e := range exports {
		if pi, ok := term.ParseIndicator(e); ok {
			h.exports = append(h.exports, pi)
		}
	}
	return h, nil
}

func (ix *Index) add(h header) {
	if _, ok := ix.files[h.name]; !ok {
		ix.files[h.name] = h.path
	}
	for _, pi := range h.exports {
		if _, ok := ix.entries[pi]; ok {
			continue
		}
		e := Entry{Name: pi.Name, Arity: pi.Arity, Module: h.module, File: h.path}
		ix.entries[pi] = e
		ix.order = append(ix.order, e)
	}
}

// Lookup returns the library exporting name/arity.
func (ix *Index) Lookup(name term.Atom, arity int) (Entry, bool) {
	e, ok := ix.entries[term.Indicator{Name: name, Arity: arity}]
	return e, ok
}

// ResolveLibrary returns the file for a library(Name) reference. Name uses
// forward slashes for subdirectories.
func (ix *Index) ResolveLibrary(name string) (string, bool) {
	p, ok := ix.files[name]
	return p, ok
}

// Len returns the number of indexed predicates.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Dirs returns the absolute library directories in search order.
func (ix *Index) Dirs() []string {
	return append([]string(nil), ix.dirs...)
}
