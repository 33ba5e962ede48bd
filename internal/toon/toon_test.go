package toon

import (
	"strings"
	"testing"
	"time"

	"github.com/phobologic/plautoload/internal/model"
)

func TestEncodeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", `""`},
		{"simple", "hello", "hello"},
		{"leading space", " hello", `" hello"`},
		{"trailing space", "hello ", `"hello "`},
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"carriage return", "a\rb", `"a\rb"`},
		{"true keyword", "true", `"true"`},
		{"True keyword", "True", `"True"`},
		{"false keyword", "false", `"false"`},
		{"null keyword", "null", `"null"`},
		{"integer", "42", "42"},
		{"negative integer", "-1", "-1"},
		{"float", "3.14", "3.14"},
		{"zero", "0", "0"},
		{"leading zero invalid", "01", "01"},
		{"comma", "a,b", `"a,b"`},
		{"colon", "a:b", `"a:b"`},
		{"quote", `a"b`, `"a\"b"`},
		{"backslash", `a\b`, `"a\\b"`},
		{"bracket", "a[b", `"a[b"`},
		{"brace", "a{b", `"a{b"`},
		{"dash prefix", "-foo", `"-foo"`},
		{"path", "lib/lists.pl", "lib/lists.pl"},
		{"indicator", "member/2", "member/2"},
		{"qualified indicator", "lists:member/2", `"lists:member/2"`},
		{"initialization caller", "<initialization>", "<initialization>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := encodeValue(tt.in)
			if got != tt.want {
				t.Errorf("encodeValue(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	r := &model.Report{
		Program: "main.pl",
		Summary: &model.Summary{
			RunID: "3f2a",
			Passes: []model.PassStats{
				{Pass: 1, NewFiles: 1, Resolved: 1, Elapsed: 1500 * time.Microsecond},
				{Pass: 2, Elapsed: 250 * time.Microsecond},
			},
			NewFiles: 1,
			Resolved: 1,
			Elapsed:  2 * time.Millisecond,
		},
		Dependencies: []model.Dependency{
			{Source: "user", Target: "lists", Symbols: []string{"member/2", "append/3"}},
		},
		CallSites: []model.CallSite{
			{Caller: "user:p/0", Callee: "user:member/2"},
		},
		Unresolved: []string{"user:nowhere/0"},
	}

	got := Encode(r)

	want := []string{
		"program: main.pl",
		"run: 3f2a",
		"iterations: 2",
		"new_files: 1",
		"resolved: 1",
		"elapsed_ms: 2.000",
		"passes[2]{pass,new_files,resolved,elapsed_ms}:",
		"  1,1,1,1.500",
		"  2,0,0,0.250",
		"loads[1]{module,library,predicates}:",
		"  user,lists,member/2 append/3",
		"requests[1]{caller,callee}:",
		`  "user:p/0","user:member/2"`,
		"unresolved[1]{predicate}:",
		`  "user:nowhere/0"`,
	}
	lines := strings.Split(got, "\n")
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), got)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestEncodeEmpty(t *testing.T) {
	t.Parallel()

	got := Encode(&model.Report{Program: "empty.pl"})
	if !strings.Contains(got, "passes[0]{pass,new_files,resolved,elapsed_ms}:") {
		t.Errorf("expected empty passes section, got:\n%s", got)
	}
	if !strings.Contains(got, "loads[0]{module,library,predicates}:") {
		t.Errorf("expected empty loads section, got:\n%s", got)
	}
	if !strings.Contains(got, `run: ""`) {
		t.Errorf("expected empty run id, got:\n%s", got)
	}
	if strings.Contains(got, "unresolved") {
		t.Errorf("unresolved section should be omitted when empty, got:\n%s", got)
	}
}
