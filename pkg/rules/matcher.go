package rules

import (
	"github.com/gitrdm/sift/pkg/triplet"
)

// Match runs the three-pass matcher for one rule against a structure:
//
//  1. enumerate every assignment satisfying the Must constraints;
//  2. for each, try to extend it over each NoMap group — a successful
//     extension kills the candidate;
//  3. for the survivors, try to extend over the Try constraints, keeping the
//     base match when no extension exists.
//
// Every pass compiles a fresh solver against the same structure; the
// structure must not be mutated until the returned bindings have been
// consumed. Bindings come out in the solver's deterministic order.
func Match(st *triplet.Structure, r *Rule) []Binding {
	var out []Binding
	for _, base := range matchMust(st, r) {
		if blockedByNoMap(st, r, base) {
			continue
		}
		if len(r.Try) == 0 {
			out = append(out, base)
			continue
		}
		if exts := extend(st, r, base, r.Try); len(exts) > 0 {
			out = append(out, exts...)
		} else {
			out = append(out, base)
		}
	}
	return out
}

// matchMust enumerates the base matches of pass one.
func matchMust(st *triplet.Structure, r *Rule) []Binding {
	if len(r.Must) == 0 {
		// A rule with no required pattern matches once, unconditionally.
		return []Binding{{}}
	}
	return extend(st, r, Binding{}, r.Must)
}

// blockedByNoMap reports whether any no-map group admits an extension of
// base.
func blockedByNoMap(st *triplet.Structure, r *Rule, base Binding) bool {
	for _, group := range r.NoMap {
		if len(extend(st, r, base, group)) > 0 {
			return true
		}
	}
	return false
}

// extend enumerates the ways base can be extended to satisfy pats. Variables
// already bound by base are substituted as ground nodes; the rest are solved
// for, distinct from each other and from the base values except where the
// rule's Equal pairs say otherwise. A fully ground pattern list degenerates
// to a conjunction check that either returns base itself or nothing.
func extend(st *triplet.Structure, r *Rule, base Binding, pats []Pattern) []Binding {
	q, _ := r.query(st, base, pats)

	var out []Binding
	for _, m := range q.All() {
		if clashesWithBase(r, base, m) {
			continue
		}
		merged := base.clone()
		for name, n := range m {
			merged[name] = n
		}
		out = append(out, merged)
	}
	return out
}

// clashesWithBase rejects an extension that reuses a node already bound by
// the base match for a variable pair not declared shareable.
func clashesWithBase(r *Rule, base Binding, ext map[string]triplet.Node) bool {
	for _, baseName := range sortedVars(base) {
		baseVal := base[baseName]
		for name, val := range ext {
			if val == baseVal && !r.mayEqual(name, baseName) {
				return true
			}
		}
	}
	return false
}
