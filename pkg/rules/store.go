package rules

import (
	"fmt"

	"github.com/gitrdm/sift/pkg/triplet"
)

// Rules are themselves facts: a rule is a node whose subgraph is annotated
// with sentinel facts, and the pattern facts of the rule sit in the structure
// alongside ordinary data. The encoding read and written here is:
//
//	(/RULE r r)        r is a rule
//	(r /MUST_MAP v)    v is a must-map pattern variable of r
//	(r /NO_MAP_k v)    v belongs to no-map group k (k = 1, 2, ...)
//	(r /TRY_MAP v)     v is a try-map pattern variable of r
//	(r /INSERT w)      facts mentioning w are insert templates; w itself is
//	                   re-minted fresh on every firing
//	(r /REMOVE w)      facts mentioning w are matched and removed on firing
//	(r /SUBTRACT v)    v is a must-map variable whose facts are matched and
//	                   then consumed by the firing
//
// Every other fact mentioning one of r's annotated nodes is a pattern fact
// of r; its class follows the nodes it mentions. The core never looks at any
// of this — sentinels are ordinary nodes to it.

// ToStructure writes a rule into the structure under the encoding above,
// minting one node per pattern variable, and returns the rule's node. The
// rule must validate. Equal declarations are not representable as facts and
// are dropped; callers that need them keep the Rule value.
func ToStructure(st *triplet.Structure, vocab *Vocab, r *Rule) (triplet.Node, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}

	ruleNode := vocab.Fresh(r.Name)
	st.AddFact(triplet.T(vocab.Node(SentinelRule), ruleNode, ruleNode))

	// One node per variable, shared across all of the rule's patterns.
	varNode := map[string]triplet.Node{}
	nodeFor := func(name string) triplet.Node {
		if n, ok := varNode[name]; ok {
			return n
		}
		n := vocab.Fresh(name)
		varNode[name] = n
		return n
	}
	annotate := func(sentinel triplet.Node, names []string) {
		for _, name := range names {
			st.AddFact(triplet.T(ruleNode, sentinel, nodeFor(name)))
		}
	}

	annotate(vocab.Node(SentinelMustMap), varsOf(r.Must))
	for k, group := range r.NoMap {
		own := newNames(varsOf(group), varNode)
		if len(own) == 0 {
			return 0, fmt.Errorf("rule %q: no-map group %d introduces no variable of its own; not representable as facts",
				r.Name, k+1)
		}
		annotate(vocab.NoMapGroup(k+1), own)
	}
	annotate(vocab.Node(SentinelTryMap), newNames(varsOf(r.Try), varNode))

	// Action anchors: remove templates are also constraints, so their
	// variables are already annotated; insert-only variables become fresh
	// anchors.
	removeOnly := newNames(varsOf(r.Remove), varNode)
	if len(removeOnly) > 0 {
		return 0, fmt.Errorf("rule %q: remove template variables %v not matched", r.Name, removeOnly)
	}
	insertOwn := newNames(varsOf(r.Insert), varNode)
	ownSet := map[string]bool{}
	for _, name := range insertOwn {
		ownSet[name] = true
	}
	for _, p := range r.Insert {
		anchored := false
		for _, a := range p.atoms() {
			if a.IsVar() && ownSet[a.name] {
				anchored = true
			}
		}
		if !anchored {
			return 0, fmt.Errorf("rule %q: insert template mentions no insert variable; not representable as facts", r.Name)
		}
	}
	annotate(vocab.Node(SentinelInsert), insertOwn)

	write := func(pats []Pattern) error {
		for _, p := range pats {
			f, err := p.resolve(nil, func(name string) triplet.Node { return nodeFor(name) })
			if err != nil {
				return err
			}
			if !st.IsTrue(f) {
				st.AddFact(f)
			}
		}
		return nil
	}
	for _, pats := range [][]Pattern{r.Must, r.Try, r.Insert, r.Remove} {
		if err := write(pats); err != nil {
			return 0, err
		}
	}
	for _, group := range r.NoMap {
		if err := write(group); err != nil {
			return 0, err
		}
	}

	// Removal intent for facts whose variables are all must-map: mark them
	// through the subtract sentinel so FromStructure can recover the class.
	subtract := vocab.Node(SentinelSubtract)
	for _, p := range r.Remove {
		hasVar := false
		for _, a := range p.atoms() {
			if a.IsVar() {
				hasVar = true
			}
		}
		if !hasVar {
			return 0, fmt.Errorf("rule %q: fully ground remove template has no variable to anchor it", r.Name)
		}
		for _, a := range p.atoms() {
			if a.IsVar() {
				f := triplet.T(ruleNode, subtract, varNode[a.name])
				if !st.IsTrue(f) {
					st.AddFact(f)
				}
			}
		}
	}

	return ruleNode, nil
}

// varsOf collects the variable names of a pattern list.
func varsOf(pats []Pattern) []string {
	var names []string
	for _, p := range pats {
		names = p.vars(names)
	}
	return names
}

// newNames keeps the names not yet present in seen.
func newNames(names []string, seen map[string]triplet.Node) []string {
	var out []string
	for _, n := range names {
		if _, ok := seen[n]; !ok {
			out = append(out, n)
		}
	}
	return out
}

// RulesIn lists the rule nodes declared in a structure, in insertion order.
func RulesIn(st *triplet.Structure, vocab *Vocab) []triplet.Node {
	var out []triplet.Node
	for _, f := range st.Lookup(triplet.T(vocab.Node(SentinelRule), 0, 0)) {
		out = append(out, f.B)
	}
	return out
}

// FromStructure reconstructs the rule rooted at ruleNode. Variable nodes
// turn back into named variables via the vocabulary; pattern facts are
// classified by the annotated nodes they mention.
func FromStructure(st *triplet.Structure, vocab *Vocab, ruleNode triplet.Node) (*Rule, error) {
	if !st.IsTrue(triplet.T(vocab.Node(SentinelRule), ruleNode, ruleNode)) {
		return nil, fmt.Errorf("rules: node %s is not a rule", vocab.Name(ruleNode))
	}

	r := &Rule{Name: vocab.Name(ruleNode)}

	const (
		classMust = iota
		classTry
		classInsert
		classRemove
	)
	type annotated struct {
		class int
		group int // 1-based no-map group, 0 otherwise
	}
	nodes := map[triplet.Node]annotated{}
	subtract := map[triplet.Node]bool{}
	sentinels := map[triplet.Node]bool{}

	read := func(sentinel triplet.Node, a annotated) {
		sentinels[sentinel] = true
		for _, f := range st.Lookup(triplet.T(ruleNode, sentinel, 0)) {
			nodes[f.C] = a
		}
	}
	read(vocab.Node(SentinelMustMap), annotated{class: classMust})
	read(vocab.Node(SentinelTryMap), annotated{class: classTry})
	read(vocab.Node(SentinelInsert), annotated{class: classInsert})
	read(vocab.Node(SentinelRemove), annotated{class: classRemove})
	for k := 1; ; k++ {
		sentinel := vocab.NoMapGroup(k)
		facts := st.Lookup(triplet.T(ruleNode, sentinel, 0))
		if len(facts) == 0 {
			break
		}
		sentinels[sentinel] = true
		for _, f := range facts {
			nodes[f.C] = annotated{class: classMust, group: k}
		}
	}
	for _, f := range st.Lookup(triplet.T(ruleNode, vocab.Node(SentinelSubtract), 0)) {
		subtract[f.C] = true
		if _, ok := nodes[f.C]; !ok {
			nodes[f.C] = annotated{class: classMust}
		}
	}
	sentinels[vocab.Node(SentinelSubtract)] = true

	if len(nodes) == 0 {
		return nil, fmt.Errorf("rules: rule %s annotates no nodes", r.Name)
	}

	// Walk each annotated node's adjacency once, collecting the rule's
	// pattern facts in insertion order without duplicates.
	seen := map[triplet.Triplet]bool{}
	var patternFacts []triplet.Triplet
	for _, f := range st.Facts() {
		if seen[f] {
			continue
		}
		if f.A == vocab.Node(SentinelRule) || (f.A == ruleNode && sentinels[f.B]) {
			continue
		}
		mentions := false
		for pos := 0; pos < 3; pos++ {
			if _, ok := nodes[f.At(pos)]; ok {
				mentions = true
				break
			}
		}
		if !mentions {
			continue
		}
		seen[f] = true
		patternFacts = append(patternFacts, f)
	}

	atomOf := func(n triplet.Node) Atom {
		if a, ok := nodes[n]; ok && a.class != classRemove {
			return V(vocab.Name(n))
		}
		return N(n)
	}
	groups := map[int][]Pattern{}
	maxGroup := 0
	for _, f := range patternFacts {
		p := P(atomOf(f.A), atomOf(f.B), atomOf(f.C))

		insert, remove, try := false, false, false
		group := 0
		for pos := 0; pos < 3; pos++ {
			a, ok := nodes[f.At(pos)]
			if !ok {
				continue
			}
			switch a.class {
			case classInsert:
				insert = true
			case classRemove:
				remove = true
			case classTry:
				try = true
			case classMust:
				if a.group > 0 {
					if group > 0 && group != a.group {
						return nil, fmt.Errorf("rules: rule %s: fact %s spans no-map groups %d and %d",
							r.Name, vocab.FormatFact(f), group, a.group)
					}
					group = a.group
				}
				if subtract[f.At(pos)] {
					remove = true
				}
			}
		}

		switch {
		case insert:
			r.Insert = append(r.Insert, p)
		case group > 0:
			groups[group] = append(groups[group], p)
			if group > maxGroup {
				maxGroup = group
			}
		case try:
			r.Try = append(r.Try, p)
		default:
			r.Must = append(r.Must, p)
			if remove {
				r.Remove = append(r.Remove, p)
			}
		}
	}
	for k := 1; k <= maxGroup; k++ {
		r.NoMap = append(r.NoMap, groups[k])
	}

	return r, r.Validate()
}
