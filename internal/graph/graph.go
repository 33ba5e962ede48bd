// Package graph aggregates the events of an autoload run into load
// dependencies, call sites and unresolved predicates.
package graph

import (
	"sort"

	"github.com/phobologic/plautoload/internal/model"
	"github.com/phobologic/plautoload/internal/term"
)

// BuildLoadGraph creates one edge per (module, library) pair from the
// resolution events of a run. Each edge lists the predicates the module
// received from the library, without duplicates, in event order.
func BuildLoadGraph(resolutions []model.Resolution) []model.Dependency {
	type edgeKey struct{ src, tgt string }
	edgeSymbols := make(map[edgeKey][]string)

	for _, r := range resolutions {
		if r.Module == r.Library {
			continue // no self-edges
		}
		key := edgeKey{string(r.Module), string(r.Library)}
		sym := term.Indicator{Name: r.Name, Arity: r.Arity}.String()
		// Only add symbol if not already present
		if !contains(edgeSymbols[key], sym) {
			edgeSymbols[key] = append(edgeSymbols[key], sym)
		}
	}

	var deps []model.Dependency
	for key, syms := range edgeSymbols {
		deps = append(deps, model.Dependency{
			Source:  key.src,
			Target:  key.tgt,
			Symbols: syms,
		})
	}

	// Sort for deterministic output
	sort.Slice(deps, func(i, j int) bool {
		if deps[i].Source != deps[j].Source {
			return deps[i].Source < deps[j].Source
		}
		return deps[i].Target < deps[j].Target
	})

	return deps
}

// BuildCallSites returns one entry per autoload request. Unlike
// BuildLoadGraph it does not deduplicate: a predicate requested from three
// call sites, or in three passes, yields three entries.
func BuildCallSites(requests []model.Request) []model.CallSite {
	var sites []model.CallSite
	for _, r := range requests {
		sites = append(sites, model.CallSite{
			Caller: r.Caller,
			Callee: requested(r),
		})
	}

	sort.SliceStable(sites, func(i, j int) bool {
		if sites[i].Caller != sites[j].Caller {
			return sites[i].Caller < sites[j].Caller
		}
		return sites[i].Callee < sites[j].Callee
	})

	return sites
}

// Unresolved lists, sorted and without duplicates, the requested
// predicates that no resolution event made available in the requesting
// module.
func Unresolved(requests []model.Request, resolutions []model.Resolution) []string {
	done := make(map[string]struct{}, len(resolutions))
	for _, r := range resolutions {
		done[model.ProcRef{Module: r.Module, Name: r.Name, Arity: r.Arity}.String()] = struct{}{}
	}

	missing := make(map[string]struct{})
	for _, r := range requests {
		key := requested(r)
		if _, ok := done[key]; !ok {
			missing[key] = struct{}{}
		}
	}
	return sortedKeys(missing)
}

// NewReport assembles the report of one run.
func NewReport(program string, s *model.Summary) *model.Report {
	return &model.Report{
		Program:      program,
		Summary:      s,
		Dependencies: BuildLoadGraph(s.Resolutions),
		CallSites:    BuildCallSites(s.Requests),
		Unresolved:   Unresolved(s.Requests, s.Resolutions),
	}
}

func requested(r model.Request) string {
	return model.ProcRef{Module: r.Module, Name: r.Name, Arity: r.Arity}.String()
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
