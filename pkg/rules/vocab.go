// Package rules is the layer that turns sentinel-annotated subgraphs into
// solver programs and drives them: naming, rule compilation, the three-pass
// matcher, and the fixed-point runtime. The core structure and solver live in
// pkg/triplet and never interpret any of this; to them a sentinel is just
// another node.
package rules

import (
	"fmt"
	"sort"

	"github.com/gitrdm/sift/pkg/triplet"
)

// Sentinel names. Rules are encoded as ordinary facts in the structure that
// mention these nodes; only this package gives them meaning. No-map groups
// are numbered, so their sentinels are minted on demand ("/NO_MAP_1", ...).
const (
	SentinelRule     = "/RULE"
	SentinelMustMap  = "/MUST_MAP"
	SentinelNoMap    = "/NO_MAP"
	SentinelTryMap   = "/TRY_MAP"
	SentinelInsert   = "/INSERT"
	SentinelRemove   = "/REMOVE"
	SentinelSubtract = "/SUBTRACT"
)

// Vocab mints and remembers node identities for symbolic names. The core
// deliberately does not intern names, so every layer above it shares one
// Vocab per workspace. The zero value is not usable; call NewVocab.
type Vocab struct {
	nodes map[string]triplet.Node
	names map[triplet.Node]string
	next  triplet.Node
}

// NewVocab creates a vocabulary with the fixed sentinels pre-interned.
func NewVocab() *Vocab {
	v := &Vocab{
		nodes: map[string]triplet.Node{},
		names: map[triplet.Node]string{},
		next:  1,
	}
	for _, s := range []string{
		SentinelRule, SentinelMustMap, SentinelTryMap,
		SentinelInsert, SentinelRemove, SentinelSubtract,
	} {
		v.Node(s)
	}
	return v
}

// Node returns the node for a name, minting a fresh one on first use.
func (v *Vocab) Node(name string) triplet.Node {
	if n, ok := v.nodes[name]; ok {
		return n
	}
	n := v.next
	v.next++
	v.nodes[name] = n
	v.names[n] = name
	return n
}

// Fresh mints an anonymous node. The hint only affects the generated name.
func (v *Vocab) Fresh(hint string) triplet.Node {
	if hint == "" {
		hint = "node"
	}
	name := fmt.Sprintf("%s#%d", hint, v.next)
	for {
		if _, taken := v.nodes[name]; !taken {
			return v.Node(name)
		}
		name += "'"
	}
}

// NoMapGroup returns the sentinel node for no-map group k (1-based).
func (v *Vocab) NoMapGroup(k int) triplet.Node {
	if k <= 0 {
		panic(fmt.Sprintf("rules: no-map group %d out of range", k))
	}
	return v.Node(fmt.Sprintf("%s_%d", SentinelNoMap, k))
}

// Name returns the name a node was minted under, or its numeric form when
// the node never passed through this vocabulary.
func (v *Vocab) Name(n triplet.Node) string {
	if name, ok := v.names[n]; ok {
		return name
	}
	return fmt.Sprintf("#%d", n)
}

// Known reports whether a node was minted by this vocabulary.
func (v *Vocab) Known(n triplet.Node) bool {
	_, ok := v.names[n]
	return ok
}

// Names returns all interned names in sorted order.
func (v *Vocab) Names() []string {
	out := make([]string, 0, len(v.nodes))
	for name := range v.nodes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// FormatFact renders a fact with names where the vocabulary has them.
func (v *Vocab) FormatFact(f triplet.Triplet) string {
	return fmt.Sprintf("(%s %s %s)", v.Name(f.A), v.Name(f.B), v.Name(f.C))
}
