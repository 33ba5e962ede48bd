package autoload

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/phobologic/plautoload/internal/model"
)

// DefaultMaxPasses caps the number of passes of one run.
const DefaultMaxPasses = 64

// ErrNoFixpoint is returned when a run is still loading new files after
// Options.MaxPasses passes.
var ErrNoFixpoint = errors.New("autoload did not reach a fixpoint")

// Options configures a run.
type Options struct {
	// Verbose enables the per-pass and summary reports.
	Verbose bool
	// MaxPasses caps the number of passes; zero means DefaultMaxPasses.
	MaxPasses int
	// Logger receives reports and warnings. Nil discards them.
	Logger *zap.Logger
}

// DefaultOptions returns verbose options with the default pass cap.
func DefaultOptions() Options {
	return Options{Verbose: true, MaxPasses: DefaultMaxPasses}
}

// Run runs RunWithOptions with DefaultOptions.
func Run(prog Program) (*model.Summary, error) {
	return RunWithOptions(prog, DefaultOptions())
}

// RunWithOptions scans prog and autoloads missing predicates until a pass
// loads no new file. Runs must not overlap on the same program.
//
// If the pass cap is hit, the summary of the passes run so far is returned
// together with an error wrapping ErrNoFixpoint.
func RunWithOptions(prog Program, opts Options) (*model.Summary, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	maxPasses := opts.MaxPasses
	if maxPasses <= 0 {
		maxPasses = DefaultMaxPasses
	}

	summary := &model.Summary{RunID: uuid.NewString()}
	log = log.With(zap.String("run", summary.RunID))
	report := log
	if !opts.Verbose {
		report = zap.NewNop()
	}

	start := time.Now()
	baseline := prog.LoadedFileCount()

	finish := func() {
		summary.Elapsed = time.Since(start)
		summary.NewFiles = prog.LoadedFileCount() - baseline
	}

	for {
		if len(summary.Passes) >= maxPasses {
			finish()
			return summary, fmt.Errorf("%w after %d passes (%d new files)", ErrNoFixpoint, len(summary.Passes), summary.NewFiles)
		}

		stats := runPass(prog, len(summary.Passes)+1, opts.Verbose, log, summary)
		report.Info("autoload pass",
			zap.Int("pass", stats.Pass),
			zap.Int("new_files", stats.NewFiles),
			zap.Int("resolved", stats.Resolved),
			zap.Duration("elapsed", stats.Elapsed))

		if stats.NewFiles == 0 {
			break
		}
	}

	finish()
	report.Info("autoload complete",
		zap.Int("passes", summary.Iterations()),
		zap.Int("new_files", summary.NewFiles),
		zap.Int("resolved", summary.Resolved),
		zap.Duration("elapsed", summary.Elapsed))
	return summary, nil
}

// runPass runs one pass with the autoload flags held, and appends its
// statistics and events to summary.
func runPass(prog Program, n int, verbose bool, log *zap.Logger, summary *model.Summary) model.PassStats {
	restore := holdFlags(prog, verbose)
	defer restore()

	before := prog.LoadedFileCount()
	begin := time.Now()

	p := newPass(prog, log)
	p.run()

	stats := model.PassStats{
		Pass:     n,
		NewFiles: prog.LoadedFileCount() - before,
		Resolved: p.resolved,
		Elapsed:  time.Since(begin),
	}
	summary.Passes = append(summary.Passes, stats)
	summary.Resolved += p.resolved
	summary.Requests = append(summary.Requests, p.requests...)
	summary.Resolutions = append(summary.Resolutions, p.resolutions...)
	return stats
}

// holdFlags enables autoloading and sets load verbosity, returning a func
// that restores the previous values.
func holdFlags(prog Program, verbose bool) func() {
	oldAutoload := prog.SetFlag(FlagAutoload, true)
	oldVerbose := prog.SetFlag(FlagVerboseAutoload, verbose)
	return func() {
		prog.SetFlag(FlagVerboseAutoload, oldVerbose)
		prog.SetFlag(FlagAutoload, oldAutoload)
	}
}
