package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/plautoload/internal/config"
)

const (
	sentinelStart = "# plautoload:start"
	sentinelEnd   = "# plautoload:end"
)

// newInitCmd implements `plautoload init`, which writes (or updates) the
// managed settings block of a config file.
func newInitCmd(stdout, stderr io.Writer) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default config file",
		Long: `Write the default plautoload settings to a config file. The settings are
wrapped in sentinel comments so they can be updated in place on subsequent
runs without touching surrounding content. Creates the file if it does not
exist.

path defaults to ./` + config.DefaultPath + `.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(args, dryRun, stdout, stderr)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying the file")
	return cmd
}

func runInit(args []string, dryRun bool, stdout, stderr io.Writer) error {
	section, err := generateSection()
	if err != nil {
		return err
	}

	// --dry-run with no path: just print the section itself.
	if dryRun && len(args) == 0 {
		_, _ = fmt.Fprintln(stdout, section)
		return nil
	}

	path := config.DefaultPath
	if len(args) > 0 {
		path = args[0]
	}

	existing, _ := os.ReadFile(path)
	updated := applySection(string(existing), section)

	if dryRun {
		_, _ = fmt.Fprint(stdout, updated)
		return nil
	}

	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	_, _ = fmt.Fprintf(stderr, "wrote plautoload settings to %s\n", path)
	return nil
}

// generateSection returns the sentinel-wrapped default settings.
func generateSection() (string, error) {
	data, err := config.DefaultConfig().Marshal()
	if err != nil {
		return "", err
	}
	header := `# Settings for plautoload. Flags override these values; the
# ` + config.EnvLibraryPath + ` and ` + config.EnvMaxPasses + ` environment
# variables override library_dirs and max_passes. See plautoload --help.
`
	body := header + strings.TrimRight(string(data), "\n")
	return sentinelStart + "\n" + body + "\n" + sentinelEnd, nil
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not. It is a pure function for easy testing.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	// Append, ensuring a blank line separator.
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if len(content) == 0 {
		return section + "\n"
	}
	return content + "\n" + section + "\n"
}
