// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/phobologic/plautoload/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts a run report into TOON format.
func Encode(r *model.Report) string {
	var parts []string

	s := r.Summary
	if s == nil {
		s = &model.Summary{}
	}
	parts = append(parts, fmt.Sprintf("program: %s", encodeValue(r.Program)))
	parts = append(parts, fmt.Sprintf("run: %s", encodeValue(s.RunID)))
	parts = append(parts, fmt.Sprintf("iterations: %d", s.Iterations()))
	parts = append(parts, fmt.Sprintf("new_files: %d", s.NewFiles))
	parts = append(parts, fmt.Sprintf("resolved: %d", s.Resolved))
	parts = append(parts, fmt.Sprintf("elapsed_ms: %s", millis(s.Elapsed)))

	var passRows [][]string
	for _, p := range s.Passes {
		passRows = append(passRows, []string{
			fmt.Sprintf("%d", p.Pass),
			fmt.Sprintf("%d", p.NewFiles),
			fmt.Sprintf("%d", p.Resolved),
			millis(p.Elapsed),
		})
	}
	parts = append(parts, formatTabular("passes", []string{"pass", "new_files", "resolved", "elapsed_ms"}, passRows))

	var loadRows [][]string
	for i := range r.Dependencies {
		d := &r.Dependencies[i]
		loadRows = append(loadRows, []string{
			d.Source,
			d.Target,
			strings.Join(d.Symbols, " "),
		})
	}
	parts = append(parts, formatTabular("loads", []string{"module", "library", "predicates"}, loadRows))

	var requestRows [][]string
	for i := range r.CallSites {
		cs := &r.CallSites[i]
		requestRows = append(requestRows, []string{cs.Caller, cs.Callee})
	}
	parts = append(parts, formatTabular("requests", []string{"caller", "callee"}, requestRows))

	if len(r.Unresolved) > 0 {
		var rows [][]string
		for _, u := range r.Unresolved {
			rows = append(rows, []string{u})
		}
		parts = append(parts, formatTabular("unresolved", []string{"predicate"}, rows))
	}

	return strings.Join(parts, "\n")
}

func millis(d time.Duration) string {
	return fmt.Sprintf("%.3f", float64(d)/float64(time.Millisecond))
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
