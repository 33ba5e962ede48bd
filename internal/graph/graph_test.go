package graph

import (
	"testing"

	"github.com/phobologic/plautoload/internal/model"
)

func TestBuildLoadGraph(t *testing.T) {
	t.Parallel()

	resolutions := []model.Resolution{
		{Module: "user", Name: "member", Arity: 2, Library: "lists"},
		{Module: "user", Name: "append", Arity: 3, Library: "lists"},
		// Duplicate event for the same predicate
		{Module: "user", Name: "member", Arity: 2, Library: "lists"},
		{Module: "apply", Name: "foldl", Arity: 4, Library: "lists"},
	}

	deps := BuildLoadGraph(resolutions)
	if len(deps) != 2 {
		t.Fatalf("expected 2 deps, got %d: %+v", len(deps), deps)
	}
	// Sorted by source: apply before user
	if deps[0].Source != "apply" || deps[0].Target != "lists" {
		t.Errorf("dep 0: %+v", deps[0])
	}
	if deps[1].Source != "user" || deps[1].Target != "lists" {
		t.Errorf("dep 1: %+v", deps[1])
	}
	syms := deps[1].Symbols
	if len(syms) != 2 || syms[0] != "member/2" || syms[1] != "append/3" {
		t.Errorf("symbols: %v", syms)
	}
}

func TestBuildLoadGraphNoSelfEdge(t *testing.T) {
	t.Parallel()

	deps := BuildLoadGraph([]model.Resolution{
		{Module: "lists", Name: "member", Arity: 2, Library: "lists"},
	})
	if len(deps) != 0 {
		t.Errorf("expected 0 deps (no self-edges), got %d", len(deps))
	}
}

func TestBuildLoadGraphEmpty(t *testing.T) {
	t.Parallel()
	deps := BuildLoadGraph(nil)
	if deps != nil {
		t.Errorf("expected nil, got %v", deps)
	}
}

func TestBuildCallSites(t *testing.T) {
	t.Parallel()

	requests := []model.Request{
		{Caller: "user:p/0", Module: "user", Name: "zeta", Arity: 1},
		{Caller: "user:p/0", Module: "user", Name: "alpha", Arity: 0},
		// Same request from a later pass is kept
		{Caller: "user:p/0", Module: "user", Name: "alpha", Arity: 0},
		{Caller: model.InitializationCaller, Module: "user", Name: "main", Arity: 0},
	}

	sites := BuildCallSites(requests)
	if len(sites) != 4 {
		t.Fatalf("expected 4 call sites, got %d: %+v", len(sites), sites)
	}
	// <initialization> sorts before user:...
	if sites[0].Caller != model.InitializationCaller || sites[0].Callee != "user:main/0" {
		t.Errorf("expected sites[0] = <initialization> -> user:main/0, got %+v", sites[0])
	}
	if sites[1].Callee != "user:alpha/0" || sites[2].Callee != "user:alpha/0" {
		t.Errorf("expected alpha twice, got %+v", sites[1:3])
	}
	if sites[3].Callee != "user:zeta/1" {
		t.Errorf("expected sites[3] = user:zeta/1, got %+v", sites[3])
	}
}

func TestBuildCallSitesEmpty(t *testing.T) {
	t.Parallel()
	sites := BuildCallSites(nil)
	if sites != nil {
		t.Errorf("expected nil, got %v", sites)
	}
}

func TestUnresolved(t *testing.T) {
	t.Parallel()

	requests := []model.Request{
		{Caller: "user:p/0", Module: "user", Name: "member", Arity: 2},
		{Caller: "user:p/0", Module: "user", Name: "nowhere", Arity: 0},
		{Caller: "user:q/0", Module: "user", Name: "nowhere", Arity: 0},
		{Caller: "m:r/0", Module: "m", Name: "member", Arity: 2},
	}
	resolutions := []model.Resolution{
		{Module: "user", Name: "member", Arity: 2, Library: "lists"},
	}

	got := Unresolved(requests, resolutions)
	want := []string{"m:member/2", "user:nowhere/0"}
	if len(got) != len(want) {
		t.Fatalf("Unresolved = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Unresolved[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNewReport(t *testing.T) {
	t.Parallel()

	s := &model.Summary{
		RunID: "run-1",
		Requests: []model.Request{
			{Caller: "user:p/0", Module: "user", Name: "member", Arity: 2},
		},
		Resolutions: []model.Resolution{
			{Module: "user", Name: "member", Arity: 2, Library: "lists"},
		},
	}

	r := NewReport("main.pl", s)
	if r.Program != "main.pl" || r.Summary != s {
		t.Errorf("report header: %+v", r)
	}
	if len(r.Dependencies) != 1 || len(r.CallSites) != 1 {
		t.Errorf("report tables: deps=%d sites=%d", len(r.Dependencies), len(r.CallSites))
	}
	if len(r.Unresolved) != 0 {
		t.Errorf("expected nothing unresolved, got %v", r.Unresolved)
	}
}
