// Package discover finds Prolog source files under a directory.
package discover

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"
)

// Extensions are the Prolog source extensions recognized by default.
var Extensions = []string{".pl", ".pro", ".prolog"}

// FileEntry represents a discovered source file.
type FileEntry struct {
	Path string // Relative to root
	Ext  string
}

// Name is the path without its extension, using forward slashes. It is the
// name used by library(Name) references.
func (f FileEntry) Name() string {
	return filepath.ToSlash(strings.TrimSuffix(f.Path, f.Ext))
}

var skipDirs = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	"node_modules": {},
	"build":        {},
	"dist":         {},
	"pack-cache":   {},
}

// Files discovers Prolog source files under root.
// If exts is empty, Extensions is used.
func Files(root string, exts []string) ([]FileEntry, error) {
	if len(exts) == 0 {
		exts = Extensions
	}
	extSet := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		extSet[e] = struct{}{}
	}
	gitFiles := gitLsFiles(root)
	var gi *ignore.GitIgnore
	if gitFiles == nil {
		gi = loadGitignore(root)
	}

	var results []FileEntry

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}

		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}

		// Skip symlinks
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}

		if gitFiles != nil {
			if _, ok := gitFiles[filepath.ToSlash(rel)]; !ok {
				return nil
			}
		} else if gi != nil && gi.MatchesPath(rel) {
			return nil
		}

		ext := filepath.Ext(name)
		if _, ok := extSet[ext]; !ok {
			return nil
		}

		results = append(results, FileEntry{Path: rel, Ext: ext})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	return results, nil
}

// testDirs are directory names whose contents are test code.
var testDirs = map[string]struct{}{
	"test":  {},
	"tests": {},
	"t":     {},
}

// IsTestFile reports whether path looks like a Prolog test file: a .plt
// unit test file, a test_*/*_test source, or anything under a test
// directory.
func IsTestFile(path string) bool {
	path = filepath.ToSlash(path)
	parts := strings.Split(path, "/")
	for _, dir := range parts[:len(parts)-1] {
		if _, ok := testDirs[dir]; ok {
			return true
		}
	}

	base := parts[len(parts)-1]
	ext := filepath.Ext(base)
	if ext == ".plt" {
		return true
	}
	stem := strings.TrimSuffix(base, ext)
	return strings.HasPrefix(stem, "test_") || strings.HasSuffix(stem, "_test")
}

func gitLsFiles(root string) map[string]struct{} {
	gitDir := filepath.Join(root, ".git")
	info, err := os.Stat(gitDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	files := make(map[string]struct{})
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line != "" {
			files[line] = struct{}{}
		}
	}
	return files
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
