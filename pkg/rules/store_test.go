package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrdm/sift/pkg/triplet"
)

// pairRule groups every parent pair under a freshly minted node: the insert
// templates are anchored by the insert-only variable g.
func pairRule(v *Vocab) *Rule {
	parent := N(v.Node("parent"))
	member := N(v.Node("member"))
	return &Rule{
		Name:   "pair",
		Must:   []Pattern{P(V("x"), parent, V("y"))},
		NoMap:  [][]Pattern{{P(V("w"), member, V("x"))}},
		Insert: []Pattern{P(V("g"), member, V("x")), P(V("g"), member, V("y"))},
	}
}

func TestToStructure_WritesDeclarationAndAnnotations(t *testing.T) {
	v := NewVocab()
	st := triplet.New()

	node, err := ToStructure(st, v, pairRule(v))
	require.NoError(t, err)

	assert.True(t, st.IsTrue(triplet.T(v.Node(SentinelRule), node, node)))
	assert.Len(t, st.Lookup(triplet.T(node, v.Node(SentinelMustMap), 0)), 2, "x and y")
	assert.Len(t, st.Lookup(triplet.T(node, v.NoMapGroup(1), 0)), 1, "w")
	assert.Len(t, st.Lookup(triplet.T(node, v.Node(SentinelInsert), 0)), 1, "g")
	assert.Equal(t, []triplet.Node{node}, RulesIn(st, v))
}

func TestRuleRoundTripThroughStructure(t *testing.T) {
	v := NewVocab()
	ruleBase := triplet.New()

	original := pairRule(v)
	node, err := ToStructure(ruleBase, v, original)
	require.NoError(t, err)

	recovered, err := FromStructure(ruleBase, v, node)
	require.NoError(t, err)
	require.Len(t, recovered.Must, 1)
	require.Len(t, recovered.NoMap, 1)
	require.Len(t, recovered.NoMap[0], 1)
	require.Len(t, recovered.Insert, 2)
	require.Empty(t, recovered.Remove)

	// Variable nodes come back under minted names, so compare the rules
	// by behavior: both must draw the same conclusions from the same data.
	runOn := func(r *Rule) int {
		dv := NewVocab()
		data := triplet.New()
		parent := dv.Node("parent")
		data.AddFact(triplet.T(dv.Node("alice"), parent, dv.Node("bob")))
		remapped := remapRule(t, r, v, dv)
		total := 0
		for _, b := range Match(data, remapped) {
			d, err := remapped.Delta(b, dv)
			require.NoError(t, err)
			total += len(d.Insert)
		}
		return total
	}
	require.Equal(t, runOn(original), runOn(recovered))
	require.Equal(t, 2, runOn(recovered), "one match, two grouped member facts")
}

func TestRoundTrip_SubtractBecomesRemove(t *testing.T) {
	v := NewVocab()
	st := triplet.New()

	// Consume the location fact and wrap its subject under a fresh node.
	wrap := &Rule{
		Name:   "wrap",
		Must:   []Pattern{P(V("x"), N(v.Node("at")), V("p"))},
		Remove: []Pattern{P(V("x"), N(v.Node("at")), V("p"))},
		Insert: []Pattern{P(V("g"), N(v.Node("holds")), V("x"))},
	}
	node, err := ToStructure(st, v, wrap)
	require.NoError(t, err)

	recovered, err := FromStructure(st, v, node)
	require.NoError(t, err)
	require.Len(t, recovered.Must, 1)
	require.Len(t, recovered.Remove, 1, "subtract annotation recovers the consumed pattern")
	assert.Equal(t, recovered.Must[0], recovered.Remove[0])
	require.Len(t, recovered.Insert, 1)
}

func TestToStructure_RejectsUnrepresentableRules(t *testing.T) {
	v := NewVocab()
	parent := N(v.Node("parent"))
	grand := N(v.Node("grand"))

	cases := map[string]*Rule{
		"insert with no insert variable": {
			Name:   "conclude",
			Must:   []Pattern{P(V("x"), parent, V("y")), P(V("y"), parent, V("z"))},
			Insert: []Pattern{P(V("x"), grand, V("z"))},
		},
		"no-map group with no own variable": {
			Name:  "guarded",
			Must:  []Pattern{P(V("x"), parent, V("y"))},
			NoMap: [][]Pattern{{P(V("y"), parent, V("x"))}},
		},
		"fully ground remove": {
			Name:   "sweep",
			Must:   []Pattern{P(N(v.Node("a")), N(v.Node("b")), N(v.Node("c")))},
			Remove: []Pattern{P(N(v.Node("a")), N(v.Node("b")), N(v.Node("c")))},
		},
	}
	for name, r := range cases {
		_, err := ToStructure(triplet.New(), v, r)
		require.Error(t, err, name)
	}
}

func TestFromStructure_RejectsNonRules(t *testing.T) {
	v := NewVocab()
	st := triplet.New()
	st.AddFact(triplet.T(v.Node("alice"), v.Node("parent"), v.Node("bob")))

	_, err := FromStructure(st, v, v.Node("alice"))
	require.Error(t, err)
}

// remapRule rewrites the ground atoms of a rule from one vocabulary into
// another by name, so a rule read out of a rule base can run against a data
// structure with its own node numbering.
func remapRule(t *testing.T, r *Rule, from, to *Vocab) *Rule {
	t.Helper()
	mapAtom := func(a Atom) Atom {
		if a.IsVar() {
			return a
		}
		return N(to.Node(from.Name(a.Node())))
	}
	mapPats := func(pats []Pattern) []Pattern {
		var out []Pattern
		for _, p := range pats {
			out = append(out, P(mapAtom(p.A), mapAtom(p.B), mapAtom(p.C)))
		}
		return out
	}
	out := &Rule{
		Name:   r.Name,
		Must:   mapPats(r.Must),
		Try:    mapPats(r.Try),
		Insert: mapPats(r.Insert),
		Remove: mapPats(r.Remove),
		Equal:  r.Equal,
	}
	for _, g := range r.NoMap {
		out.NoMap = append(out.NoMap, mapPats(g))
	}
	return out
}
