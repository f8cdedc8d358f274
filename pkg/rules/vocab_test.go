package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVocab_InternsStably(t *testing.T) {
	v := NewVocab()

	a := v.Node("alice")
	require.Equal(t, a, v.Node("alice"))
	require.NotEqual(t, a, v.Node("bob"))

	assert.Equal(t, "alice", v.Name(a))
	assert.True(t, v.Known(a))
	assert.Equal(t, "#9999", v.Name(9999))
	assert.False(t, v.Known(9999))
}

func TestVocab_SentinelsArePreInterned(t *testing.T) {
	v := NewVocab()
	for _, s := range []string{
		SentinelRule, SentinelMustMap, SentinelTryMap,
		SentinelInsert, SentinelRemove, SentinelSubtract,
	} {
		assert.Contains(t, v.Names(), s)
	}

	// Group sentinels are minted on demand and stay stable.
	g1 := v.NoMapGroup(1)
	assert.Equal(t, g1, v.NoMapGroup(1))
	assert.NotEqual(t, g1, v.NoMapGroup(2))
	assert.Panics(t, func() { v.NoMapGroup(0) })
}

func TestVocab_FreshNeverCollides(t *testing.T) {
	v := NewVocab()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		n := v.Fresh("x")
		name := v.Name(n)
		require.False(t, seen[name], "name %q minted twice", name)
		seen[name] = true
	}
}
