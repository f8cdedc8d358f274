package triplet

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructure_RoundTrip(t *testing.T) {
	st := New()
	f := T(1, 2, 3)

	st.AddFact(f)
	require.True(t, st.IsTrue(f))
	require.Equal(t, 1, st.Len())

	// Every key shape that matches f must surface it.
	keys := []Triplet{
		T(0, 0, 0), T(1, 0, 0), T(0, 2, 0), T(0, 0, 3),
		T(1, 2, 0), T(1, 0, 3), T(0, 2, 3), T(1, 2, 3),
	}
	for _, k := range keys {
		assert.Contains(t, st.Lookup(k), f, "key %v", k)
	}

	st.RemoveFact(f)
	require.False(t, st.IsTrue(f))
	require.Equal(t, 0, st.Len())
	for _, k := range keys {
		assert.NotContains(t, st.Lookup(k), f, "key %v", k)
	}
}

func TestStructure_PartialKeyCompleteness(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	st := New()

	var facts []Triplet
	for len(facts) < 40 {
		f := T(Node(rng.Intn(5)+1), Node(rng.Intn(5)+1), Node(rng.Intn(5)+1))
		if st.IsTrue(f) {
			continue
		}
		st.AddFact(f)
		facts = append(facts, f)
	}

	// Exhaustive grid over every key with positions in {hole, 1..5}.
	for a := Node(0); a <= 5; a++ {
		for b := Node(0); b <= 5; b++ {
			for c := Node(0); c <= 5; c++ {
				key := T(a, b, c)
				var want []Triplet
				for _, f := range facts {
					if (a == 0 || a == f.A) && (b == 0 || b == f.B) && (c == 0 || c == f.C) {
						want = append(want, f)
					}
				}
				got := st.Lookup(key)
				assert.ElementsMatch(t, want, got, "key %v", key)
			}
		}
	}
}

func TestStructure_LookupOrderIsInsertionOrder(t *testing.T) {
	st := New()
	facts := []Triplet{T(1, 9, 9), T(2, 9, 9), T(3, 9, 9), T(4, 9, 9)}
	for _, f := range facts {
		st.AddFact(f)
	}

	if diff := cmp.Diff(facts, st.Lookup(T(0, 9, 9))); diff != "" {
		t.Errorf("lookup order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(facts, st.Facts()); diff != "" {
		t.Errorf("Facts order mismatch (-want +got):\n%s", diff)
	}

	// Removal keeps the relative order of the survivors.
	st.RemoveFact(T(2, 9, 9))
	want := []Triplet{T(1, 9, 9), T(3, 9, 9), T(4, 9, 9)}
	if diff := cmp.Diff(want, st.Lookup(T(0, 9, 9))); diff != "" {
		t.Errorf("order after removal (-want +got):\n%s", diff)
	}
}

func TestStructure_RemoveLastFactLeavesEmptyBucket(t *testing.T) {
	st := New()
	f := T(4, 5, 6)
	st.AddFact(f)
	st.RemoveFact(f)

	require.False(t, st.IsTrue(f))
	require.Empty(t, st.Lookup(T(4, 0, 0)))
	require.Empty(t, st.Lookup(T(0, 0, 0)))
	require.Equal(t, 0, st.Len())
}

func TestStructure_AllTrue(t *testing.T) {
	st := New()
	st.AddFact(T(1, 2, 3))
	st.AddFact(T(4, 5, 6))

	assert.True(t, st.AllTrue(nil))
	assert.True(t, st.AllTrue([]Triplet{T(1, 2, 3), T(4, 5, 6)}))
	assert.False(t, st.AllTrue([]Triplet{T(1, 2, 3), T(7, 8, 9)}))
}

func TestStructure_ContractViolationsPanic(t *testing.T) {
	st := New()
	st.AddFact(T(1, 2, 3))

	assert.Panics(t, func() { st.AddFact(T(1, 2, 3)) }, "duplicate add")
	assert.Panics(t, func() { st.AddFact(T(0, 2, 3)) }, "hole in fact")
	assert.Panics(t, func() { st.AddFact(T(1, -1, 3)) }, "variable token in fact")
	assert.Panics(t, func() { st.RemoveFact(T(9, 9, 9)) }, "remove of absent fact")
	assert.Panics(t, func() { st.RemoveFact(T(1, 0, 3)) }, "remove of non-ground fact")

	// The store is unchanged after the failed operations.
	require.Equal(t, 1, st.Len())
	require.True(t, st.IsTrue(T(1, 2, 3)))
}
