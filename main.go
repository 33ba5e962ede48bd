// plautoload loads Prolog programs and autoloads the libraries their
// undefined calls need, reporting the result in TOON format.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/phobologic/plautoload/internal/autoload"
	"github.com/phobologic/plautoload/internal/config"
	"github.com/phobologic/plautoload/internal/graph"
	"github.com/phobologic/plautoload/internal/image"
	"github.com/phobologic/plautoload/internal/library"
	"github.com/phobologic/plautoload/internal/logging"
	"github.com/phobologic/plautoload/internal/toon"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// options are the root command flags.
type options struct {
	configPath  string
	libraries   []string
	quiet       bool
	maxPasses   int
	cachePath   string
	logLevel    string
	jsonLog     bool
	watch       bool
	showVersion bool
}

func run(args []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.Execute()
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "plautoload [flags] FILE...",
		Short: "Autoload the libraries a Prolog program needs",
		Long: `plautoload consults the given Prolog files, scans every clause body and
initialization goal for calls to undefined predicates, and loads the library
files that define them. It repeats until a pass loads no new file and prints a
report of the passes, the libraries loaded and the predicates that stayed
undefined.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				_, _ = fmt.Fprintf(stdout, "plautoload %s\n", version)
				return nil
			}
			if len(args) == 0 {
				return errors.New("no input files")
			}
			return runAutoload(cmd, args, &opts, stdout, stderr)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "config file (default "+config.DefaultPath+")")
	f.StringArrayVarP(&opts.libraries, "library", "L", nil, "library directory (repeatable, searched in order)")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress pass and summary reports")
	f.IntVar(&opts.maxPasses, "max-passes", autoload.DefaultMaxPasses, "give up after this many passes")
	f.StringVar(&opts.cachePath, "cache", "", "library index cache file")
	f.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	f.BoolVar(&opts.jsonLog, "json-log", false, "log in JSON")
	f.BoolVar(&opts.watch, "watch", false, "re-run when an input file changes")
	f.BoolVarP(&opts.showVersion, "version", "V", false, "show version and exit")

	cmd.AddCommand(newInitCmd(stdout, stderr))
	return cmd
}

// loadConfig reads the config file and applies the flags that were set.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	path := opts.configPath
	if path == "" {
		path = config.DefaultPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("library") {
		cfg.LibraryDirs = opts.libraries
	}
	if f.Changed("quiet") {
		cfg.Verbose = !opts.quiet
	}
	if f.Changed("max-passes") {
		cfg.MaxPasses = opts.maxPasses
	}
	if f.Changed("cache") {
		cfg.IndexCache = opts.cachePath
	}
	if f.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if f.Changed("json-log") {
		cfg.LogJSON = opts.jsonLog
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func runAutoload(cmd *cobra.Command, args []string, opts *options, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	log, err := logging.New(stderr, cfg.LogLevel, cfg.LogJSON)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	files := make([]string, 0, len(args))
	for _, a := range args {
		abs, err := filepath.Abs(a)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", a, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return fmt.Errorf("input file: %w", err)
		}
		if info.IsDir() {
			return fmt.Errorf("%s: is a directory", a)
		}
		files = append(files, abs)
	}

	analyze := func() error {
		return analyzeOnce(files, cfg, log, stdout)
	}

	if err := analyze(); err != nil && !opts.watch {
		return err
	} else if err != nil {
		log.Error("autoload run failed", zap.Error(err))
	}
	if !opts.watch {
		return nil
	}

	ctx, stop := signal.NotifyContext(contextOrBackground(cmd.Context()), os.Interrupt, syscall.SIGTERM)
	defer stop()
	w, err := newFileWatcher(files, log)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()
	return w.run(ctx, func() {
		if err := analyze(); err != nil {
			log.Error("autoload run failed", zap.Error(err))
		}
	})
}

// analyzeOnce consults files into a fresh image, runs autoloading to a
// fixpoint and prints the report. A run that hits the pass cap still prints
// its partial report before returning the error.
func analyzeOnce(files []string, cfg *config.Config, log *zap.Logger, stdout io.Writer) error {
	imgOpts := []image.Option{image.WithLogger(log)}
	if len(cfg.LibraryDirs) > 0 {
		ix, err := buildIndex(cfg, log)
		if err != nil {
			return err
		}
		imgOpts = append(imgOpts, image.WithIndex(ix))
	}
	img := image.New(imgOpts...)

	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, filepath.Base(f))
		if err := img.Consult(f); err != nil {
			log.Warn("consulting", zap.String("file", f), zap.Error(err))
		}
	}

	summary, runErr := autoload.RunWithOptions(img, autoload.Options{
		Verbose:   cfg.Verbose,
		MaxPasses: cfg.MaxPasses,
		Logger:    log,
	})
	if summary != nil {
		report := graph.NewReport(strings.Join(names, " "), summary)
		_, _ = fmt.Fprintln(stdout, toon.Encode(report))
	}
	return runErr
}

func buildIndex(cfg *config.Config, log *zap.Logger) (*library.Index, error) {
	var (
		ix  *library.Index
		err error
	)
	if cfg.IndexCache != "" {
		ix, err = library.LoadCached(cfg.IndexCache, cfg.LibraryDirs, log)
		if err != nil {
			return nil, fmt.Errorf("loading library index: %w", err)
		}
	} else {
		ix, err = library.Build(cfg.LibraryDirs, log)
		if err != nil {
			return nil, fmt.Errorf("building library index: %w", err)
		}
	}
	log.Debug("library index ready",
		zap.Strings("dirs", ix.Dirs()),
		zap.Int("predicates", ix.Len()))
	if ix.Len() == 0 {
		log.Warn("library directories export no predicates", zap.Strings("dirs", ix.Dirs()))
	}
	return ix, nil
}

// contextOrBackground is used when a command runs without a context.
func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
