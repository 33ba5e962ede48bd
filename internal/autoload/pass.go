package autoload

import (
	"go.uber.org/zap"

	"github.com/phobologic/plautoload/internal/model"
	"github.com/phobologic/plautoload/internal/term"
)

// pass is the state of one scan over the whole program. Its resolution
// counter lives here rather than in shared state, so each pass owns its
// own count.
type pass struct {
	prog Program
	log  *zap.Logger

	resolved    int
	requests    []model.Request
	resolutions []model.Resolution
}

func newPass(prog Program, log *zap.Logger) *pass {
	return &pass{prog: prog, log: log}
}

// onResolved counts every resolution event. Duplicate events for one
// predicate are counted again.
func (p *pass) onResolved(r model.Resolution) {
	p.resolved++
	p.resolutions = append(p.resolutions, r)
}

func (p *pass) request(caller string, module, name term.Atom, arity int) {
	p.requests = append(p.requests, model.Request{
		Caller: caller,
		Module: module,
		Name:   name,
		Arity:  arity,
	})
	p.prog.RequestAutoload(module, name, arity, p.onResolved)
}

// run scans every local procedure of every module, then the
// initialization goals. Modules and procedures loaded during the pass are
// picked up by the next one.
func (p *pass) run() {
	for _, m := range p.prog.Modules() {
		for _, proc := range p.prog.LocalProcedures(m) {
			p.scanProcedure(proc)
		}
	}

	for _, ig := range p.prog.InitializationGoals() {
		w := walker{pass: p, caller: model.InitializationCaller}
		if err := w.walk(ig.Goal, model.UserModule); err != nil {
			p.log.Warn("skipping initialization goal",
				zap.String("goal", term.Format(ig.Goal)),
				zap.String("file", ig.File),
				zap.String("context", string(ig.Context)),
				zap.Error(err))
		}
	}
}

// scanProcedure walks each clause body of proc. A failure skips the
// procedure or clause it occurred in and nothing else.
func (p *pass) scanProcedure(proc model.ProcRef) {
	bodies, err := p.prog.ClauseBodies(proc)
	if err != nil {
		p.log.Warn("skipping procedure", zap.Stringer("procedure", proc), zap.Error(err))
		return
	}

	caller := proc.String()
	for i, body := range bodies {
		w := walker{pass: p, caller: caller}
		if err := w.walk(body, proc.Module); err != nil {
			p.log.Warn("skipping clause",
				zap.Stringer("procedure", proc),
				zap.Int("clause", i+1),
				zap.Error(err))
		}
	}
}
