package library

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// cacheFile is the on-disk form of an index.
type cacheFile struct {
	Dirs    []string          `yaml:"dirs"`
	Sources []string          `yaml:"sources"`
	Files   map[string]string `yaml:"files"`
	Entries []Entry           `yaml:"entries"`
}

// LoadCached returns the index for dirs, reading it from cachePath when the
// cache lists the same directories and sources and is newer than every
// source. Otherwise the index is rebuilt and the cache rewritten. A cache
// that cannot be written is logged and ignored.
func LoadCached(cachePath string, dirs []string, log *zap.Logger) (*Index, error) {
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

	sources, err := sourcePaths(abs)
	if err != nil {
		return nil, err
	}

	if cf, ok := readCache(cachePath); ok && slices.Equal(cf.Dirs, abs) &&
		slices.Equal(cf.Sources, sources) && cacheIsFresh(cachePath, sources) {
		log.Debug("using library index cache", zap.String("cache", cachePath))
		return cf.index(), nil
	}

	ix, err := Build(abs, log)
	if err != nil {
		return nil, err
	}
	if err := writeCache(cachePath, ix, sources); err != nil {
		log.Warn("writing library index cache", zap.String("cache", cachePath), zap.Error(err))
	}
	return ix, nil
}

func sourcePaths(dirs []string) ([]string, error) {
	var out []string
	for _, dir := range dirs {
		files, err := libraryFiles(dir)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			out = append(out, filepath.Join(dir, f.Path))
		}
	}
	return out, nil
}

func cacheIsFresh(cachePath string, sources []string) bool {
	cacheInfo, err := os.Stat(cachePath)
	if err != nil {
		return false
	}
	cacheMtime := cacheInfo.ModTime()

	for _, path := range sources {
		fi, err := os.Stat(path)
		if err != nil {
			return false
		}
		if !fi.ModTime().Before(cacheMtime) {
			return false
		}
	}
	return true
}

func readCache(path string) (*cacheFile, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var cf cacheFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, false
	}
	return &cf, true
}

func writeCache(path string, ix *Index, sources []string) error {
	cf := cacheFile{
		Dirs:    ix.dirs,
		Sources: sources,
		Files:   ix.files,
		Entries: ix.order,
	}
	data, err := yaml.Marshal(&cf)
	if err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating cache dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}

func (cf *cacheFile) index() *Index {
	ix := newIndex(cf.Dirs)
	for name, path := range cf.Files {
		ix.files[name] = path
	}
	for _, e := range cf.Entries {
		if _, ok := ix.entries[e.Indicator()]; ok {
			continue
		}
		ix.entries[e.Indicator()] = e
		ix.order = append(ix.order, e)
	}
	return ix
}
