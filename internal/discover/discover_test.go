package discover

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiscoverPrologFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "main.pl", "main :- true.")
	writeFile(t, dir, "lib/util.pro", "helper.")
	// Non-Prolog file should be ignored
	writeFile(t, dir, "readme.txt", "hello")
	// Hidden file should be ignored
	writeFile(t, dir, ".hidden.pl", "secret.")

	entries, err := Files(dir, nil)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %v", len(entries), paths)
	}

	// Should be sorted
	if entries[0].Path != filepath.Join("lib", "util.pro") {
		t.Errorf("entry 0: got %q", entries[0].Path)
	}
	if entries[1].Path != "main.pl" {
		t.Errorf("entry 1: got %q", entries[1].Path)
	}
	if got := entries[0].Name(); got != "lib/util" {
		t.Errorf("entry 0 name = %q, want lib/util", got)
	}
}

func TestDiscoverSkipDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "main.pl", "a.")
	writeFile(t, dir, "node_modules/pkg.pl", "a.")
	writeFile(t, dir, "build/gen.pl", "a.")
	writeFile(t, dir, ".hidden/secret.pl", "a.")

	entries, err := Files(dir, nil)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Path != "main.pl" {
		t.Errorf("expected main.pl, got %q", entries[0].Path)
	}
}

func TestDiscoverExtensionFilter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "main.pl", "a.")
	writeFile(t, dir, "lib.pl", "a.")
	writeFile(t, dir, "other.prolog", "a.")

	entries, err := Files(dir, []string{".pl"})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries for .pl filter, got %d", len(entries))
	}

	entries, err = Files(dir, []string{".P"})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected 0 entries for .P filter, got %d", len(entries))
	}
}

func TestDiscoverGitignore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", "skip.pl\n")
	writeFile(t, dir, "kept.pl", "a.")
	writeFile(t, dir, "skip.pl", "a.")

	entries, err := Files(dir, nil)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "kept.pl" {
		t.Fatalf("expected only kept.pl, got %v", entries)
	}
}

func TestDiscoverSymlinksSkipped(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "real.pl", "a.")

	// Create symlink
	err := os.Symlink(filepath.Join(dir, "real.pl"), filepath.Join(dir, "link.pl"))
	if err != nil {
		t.Skip("symlinks not supported")
	}

	entries, err := Files(dir, nil)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry (no symlink), got %d", len(entries))
	}
	if entries[0].Path != "real.pl" {
		t.Errorf("expected real.pl, got %q", entries[0].Path)
	}
}

func TestIsTestFile(t *testing.T) {
	t.Parallel()
	cases := []struct {
		path string
		want bool
	}{
		// Test directory components
		{"test/lists.pl", true},
		{"tests/helpers.pl", true},
		{"lib/t/apply.pl", true},
		// Filename patterns
		{"lists.plt", true},
		{"test_lists.pl", true},
		{"lib/lists_test.pl", true},
		// Production files
		{"lists.pl", false},
		{"lib/apply.pl", false},
		{"testing.pl", false},
		{"contest.pl", false},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			t.Parallel()
			got := IsTestFile(tc.path)
			if got != tc.want {
				t.Errorf("IsTestFile(%q) = %v, want %v", tc.path, got, tc.want)
			}
		})
	}
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
