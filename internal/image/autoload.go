package image

import (
	"go.uber.org/zap"

	"github.com/phobologic/plautoload/internal/autoload"
	"github.com/phobologic/plautoload/internal/model"
	"github.com/phobologic/plautoload/internal/term"
)

// RequestAutoload loads the library defining name/arity, imports the
// predicate into module and reports the outcome through resolved. Nothing
// happens while the autoload flag is off. Misses and load failures are
// logged.
func (img *Image) RequestAutoload(module, name term.Atom, arity int, resolved func(model.Resolution)) {
	if !img.flags[autoload.FlagAutoload] || img.index == nil {
		return
	}
	pi := term.Indicator{Name: name, Arity: arity}
	entry, ok := img.index.Lookup(name, arity)
	if !ok {
		img.log.Debug("no library defines predicate",
			zap.String("module", string(module)),
			zap.Stringer("predicate", pi))
		return
	}

	_, loaded := img.files[entry.File]
	lib, err := img.loadFile(entry.File, "", nil)
	if err != nil {
		img.log.Warn("loading library",
			zap.String("library", string(entry.Module)),
			zap.String("file", entry.File),
			zap.Error(err))
		if lib == "" {
			return
		}
	}
	if !loaded {
		img.loadMessage("autoloaded library",
			zap.String("library", string(lib)),
			zap.String("file", entry.File))
	}

	img.importPred(img.module(module), lib, pi)
	if p := img.resolve(module, pi); p == nil || !p.Defined() {
		img.log.Debug("library does not define predicate",
			zap.String("library", string(lib)),
			zap.Stringer("predicate", pi))
		return
	}

	img.loadMessage("autoloaded predicate",
		zap.String("module", string(module)),
		zap.Stringer("predicate", pi),
		zap.String("library", string(lib)))
	resolved(model.Resolution{
		Module:  module,
		Name:    name,
		Arity:   arity,
		Library: lib,
		File:    entry.File,
	})
}

func (img *Image) loadMessage(msg string, fields ...zap.Field) {
	if img.flags[autoload.FlagVerboseAutoload] {
		img.log.Info(msg, fields...)
		return
	}
	img.log.Debug(msg, fields...)
}
