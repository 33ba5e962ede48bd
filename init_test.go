package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phobologic/plautoload/internal/config"
)

// TestApplySectionCreate verifies that applySection on empty content wraps the
// section in sentinels with a trailing newline.
func TestApplySectionCreate(t *testing.T) {
	t.Parallel()
	section := sentinelStart + "\nbody\n" + sentinelEnd
	got := applySection("", section)
	if got != section+"\n" {
		t.Errorf("applySection on empty content = %q", got)
	}
}

// TestApplySectionAppend verifies that existing content without a sentinel block
// is preserved and the section is appended.
func TestApplySectionAppend(t *testing.T) {
	t.Parallel()
	existing := "# local overrides\nlog_level: debug"
	section := sentinelStart + "\nnew content\n" + sentinelEnd
	got := applySection(existing, section)

	if !strings.HasPrefix(got, existing+"\n\n") {
		t.Errorf("existing content should be preserved at start:\n%s", got)
	}
	if !strings.HasSuffix(got, sentinelEnd+"\n") {
		t.Errorf("section should be appended:\n%s", got)
	}
}

// TestApplySectionUpdate verifies that an existing sentinel block is replaced
// precisely, leaving surrounding content intact.
func TestApplySectionUpdate(t *testing.T) {
	t.Parallel()
	before := "# project settings\n\n"
	after := "\n\n# trailing notes\n"
	old := before + sentinelStart + "\nold content\n" + sentinelEnd + after

	section := sentinelStart + "\nnew content\n" + sentinelEnd
	got := applySection(old, section)

	if !strings.HasPrefix(got, before) {
		t.Errorf("content before sentinel should be preserved:\n%s", got)
	}
	if !strings.HasSuffix(got, after) {
		t.Errorf("content after sentinel should be preserved:\n%s", got)
	}
	if strings.Contains(got, "old content") {
		t.Error("old content should be replaced")
	}
	if !strings.Contains(got, "new content") {
		t.Error("new content missing")
	}
}

// TestInitCreatesFile verifies that runInit creates a config file that loads
// back to the defaults.
func TestInitCreatesFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "plautoload.yaml")

	var stdout, stderr bytes.Buffer
	if err := runInit([]string{path}, false, &stdout, &stderr); err != nil {
		t.Fatalf("runInit: %v", err)
	}
	if !strings.Contains(stderr.String(), path) {
		t.Errorf("stderr should name the written file: %q", stderr.String())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("file not created: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, sentinelStart) || !strings.Contains(content, sentinelEnd) {
		t.Errorf("sentinels missing from created file:\n%s", content)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	def := config.DefaultConfig()
	if cfg.MaxPasses != def.MaxPasses || cfg.Verbose != def.Verbose || cfg.LogLevel != def.LogLevel {
		t.Errorf("loaded config %+v, want defaults %+v", cfg, def)
	}
}

// TestInitDryRun verifies that --dry-run prints the full would-be file content
// to stdout and does not create or modify the target file.
func TestInitDryRun(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "plautoload.yaml")

	var stdout, stderr bytes.Buffer
	if err := runInit([]string{path}, true, &stdout, &stderr); err != nil {
		t.Fatalf("runInit: %v", err)
	}

	if _, err := os.Stat(path); err == nil {
		t.Error("--dry-run should not create the file")
	}
	out := stdout.String()
	if !strings.Contains(out, sentinelStart) || !strings.Contains(out, sentinelEnd) {
		t.Errorf("dry-run output missing sentinels:\n%s", out)
	}
}

// TestInitDryRunNoPath verifies that --dry-run without a path prints just the
// generated section.
func TestInitDryRunNoPath(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	if err := runInit(nil, true, &stdout, &stderr); err != nil {
		t.Fatalf("runInit: %v", err)
	}

	out := stdout.String()
	if !strings.HasPrefix(out, sentinelStart) {
		t.Errorf("output should start with the section:\n%s", out)
	}
	if !strings.HasSuffix(out, sentinelEnd+"\n") {
		t.Errorf("output should end with the section:\n%s", out)
	}
}

// TestInitDryRunShowsFullFile verifies that --dry-run on an existing file
// shows the complete would-be file content, including surrounding text.
func TestInitDryRunShowsFullFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "plautoload.yaml")

	existing := "# hand-written notes\n"
	if err := os.WriteFile(path, []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	if err := runInit([]string{path}, true, &stdout, &stderr); err != nil {
		t.Fatalf("runInit: %v", err)
	}

	out := stdout.String()
	if !strings.Contains(out, "# hand-written notes") {
		t.Error("dry-run output missing existing file content")
	}
	if !strings.Contains(out, sentinelStart) {
		t.Error("dry-run output missing sentinel start")
	}
	data, _ := os.ReadFile(path)
	if string(data) != existing {
		t.Error("--dry-run must not modify the file")
	}
}

// TestInitIdempotent verifies that running init twice produces identical output.
func TestInitIdempotent(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "plautoload.yaml")

	var buf bytes.Buffer
	if err := runInit([]string{path}, false, &buf, &buf); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first, _ := os.ReadFile(path)

	if err := runInit([]string{path}, false, &buf, &buf); err != nil {
		t.Fatalf("second run: %v", err)
	}
	second, _ := os.ReadFile(path)

	if string(first) != string(second) {
		t.Errorf("init is not idempotent:\nfirst:\n%s\nsecond:\n%s", first, second)
	}
}

// TestInitSubcommand runs init through the root command.
func TestInitSubcommand(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "plautoload.yaml")

	var stdout, stderr bytes.Buffer
	if err := run([]string{"init", "--dry-run", path}, &stdout, &stderr); err != nil {
		t.Fatalf("run init: %v", err)
	}
	if !strings.Contains(stdout.String(), "max_passes:") {
		t.Errorf("expected max_passes setting in output:\n%s", stdout.String())
	}
}

// TestInitSectionMentionsOverrides verifies the generated section names the
// environment overrides and points to --help.
func TestInitSectionMentionsOverrides(t *testing.T) {
	t.Parallel()
	section, err := generateSection()
	if err != nil {
		t.Fatalf("generateSection: %v", err)
	}
	for _, want := range []string{"--help", config.EnvLibraryPath, config.EnvMaxPasses} {
		if !strings.Contains(section, want) {
			t.Errorf("generated section should mention %s", want)
		}
	}
}
