package rules

import (
	"fmt"
	"sort"

	"github.com/gitrdm/sift/pkg/triplet"
)

// Atom is one position of a rule pattern: either a ground node or a named
// pattern variable.
type Atom struct {
	node triplet.Node
	name string
}

// N makes a ground atom.
func N(n triplet.Node) Atom {
	if !n.IsNode() {
		panic(fmt.Sprintf("rules: %d is not a node", n))
	}
	return Atom{node: n}
}

// V makes a variable atom.
func V(name string) Atom {
	if name == "" {
		panic("rules: variable atom needs a name")
	}
	return Atom{name: name}
}

// IsVar reports whether the atom is a pattern variable.
func (a Atom) IsVar() bool { return a.name != "" }

// Name returns the variable name; empty for ground atoms.
func (a Atom) Name() string { return a.name }

// Node returns the ground node; zero for variables.
func (a Atom) Node() triplet.Node { return a.node }

// Pattern is a 3-ary constraint or action template over atoms.
type Pattern struct {
	A, B, C Atom
}

// P is a convenience constructor.
func P(a, b, c Atom) Pattern {
	return Pattern{A: a, B: b, C: c}
}

// atoms returns the three positions in order.
func (p Pattern) atoms() [3]Atom {
	return [3]Atom{p.A, p.B, p.C}
}

// vars appends the pattern's variable names to dst, first-appearance order,
// skipping names already present.
func (p Pattern) vars(dst []string) []string {
	for _, a := range p.atoms() {
		if !a.IsVar() {
			continue
		}
		dup := false
		for _, seen := range dst {
			if seen == a.name {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, a.name)
		}
	}
	return dst
}

// Binding maps pattern variable names to the nodes a match chose for them.
type Binding map[string]triplet.Node

// Vars returns the binding's variable names in sorted order.
func (b Binding) Vars() []string {
	return sortedVars(b)
}

// clone copies a binding.
func (b Binding) clone() Binding {
	out := make(Binding, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// resolve substitutes a binding into a pattern. Unbound variables are handed
// to fresh, which may mint a node or report the pattern unresolvable by
// returning zero.
func (p Pattern) resolve(b Binding, fresh func(name string) triplet.Node) (triplet.Triplet, error) {
	var out [3]triplet.Node
	for i, a := range p.atoms() {
		if !a.IsVar() {
			out[i] = a.node
			continue
		}
		if n, ok := b[a.name]; ok {
			out[i] = n
			continue
		}
		var n triplet.Node
		if fresh != nil {
			n = fresh(a.name)
		}
		if !n.IsNode() {
			return triplet.Triplet{}, fmt.Errorf("rules: variable %q unbound in pattern", a.name)
		}
		out[i] = n
	}
	return triplet.T(out[0], out[1], out[2]), nil
}

// Rule is one analogy rule: pattern constraints split into the three matcher
// classes, plus the delta templates a firing applies.
//
// Must constraints define the base match. Each NoMap group is a negative
// condition: a base match that can be extended to satisfy the whole group is
// discarded. Try constraints are optional extensions: matched when possible,
// ignored when not. Insert and Remove are action templates; Remove variables
// must be bound by the match, Insert variables that stay unbound are minted
// as fresh nodes per firing.
//
// Pattern variables are pairwise distinct by default; Equal lists the pairs
// permitted to share a node.
type Rule struct {
	Name   string
	Must   []Pattern
	NoMap  [][]Pattern
	Try    []Pattern
	Insert []Pattern
	Remove []Pattern
	Equal  [][2]string
}

// Validate checks the rule's internal references: every Remove variable must
// be bound by Must or Try, and no NoMap group may be empty.
func (r *Rule) Validate() error {
	bound := map[string]bool{}
	for _, name := range r.matchVars() {
		bound[name] = true
	}
	for _, p := range r.Remove {
		for _, a := range p.atoms() {
			if a.IsVar() && !bound[a.name] {
				return fmt.Errorf("rule %q: remove template references unmatched variable %q", r.Name, a.name)
			}
		}
	}
	for k, group := range r.NoMap {
		if len(group) == 0 {
			return fmt.Errorf("rule %q: no-map group %d is empty", r.Name, k+1)
		}
	}
	return nil
}

// matchVars lists every variable bound by matching (must then try), in
// first-appearance order.
func (r *Rule) matchVars() []string {
	var names []string
	for _, p := range r.Must {
		names = p.vars(names)
	}
	for _, p := range r.Try {
		names = p.vars(names)
	}
	return names
}

// mayEqual reports whether the named variable pair is allowed to coincide.
func (r *Rule) mayEqual(x, y string) bool {
	for _, pair := range r.Equal {
		if (pair[0] == x && pair[1] == y) || (pair[0] == y && pair[1] == x) {
			return true
		}
	}
	return false
}

// query compiles a pattern list against the structure, grounding variables
// already fixed by base and declaring the rule's Equal pairs for the rest.
// The returned names are the variables the query leaves open.
func (r *Rule) query(st *triplet.Structure, base Binding, pats []Pattern) (*triplet.Query, []string) {
	q := triplet.NewQuery(st)
	var open []string
	for _, p := range pats {
		var args [3]any
		for i, a := range p.atoms() {
			switch {
			case !a.IsVar():
				args[i] = a.node
			default:
				if n, ok := base[a.name]; ok {
					args[i] = n
				} else {
					args[i] = a.name
					found := false
					for _, o := range open {
						if o == a.name {
							found = true
							break
						}
					}
					if !found {
						open = append(open, a.name)
					}
				}
			}
		}
		q.Where(args[0], args[1], args[2])
	}
	for i := 1; i < len(open); i++ {
		for j := 0; j < i; j++ {
			if r.mayEqual(open[i], open[j]) {
				q.AllowEqual(open[i], open[j])
			}
		}
	}
	return q, open
}

// String renders the rule name plus its shape for logs.
func (r *Rule) String() string {
	return fmt.Sprintf("%s{must:%d nomap:%d try:%d +%d -%d}",
		r.Name, len(r.Must), len(r.NoMap), len(r.Try), len(r.Insert), len(r.Remove))
}

// sortedVars is a helper for deterministic iteration over a binding.
func sortedVars(b Binding) []string {
	out := make([]string, 0, len(b))
	for name := range b {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
