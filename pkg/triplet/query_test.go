package triplet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery_NamedVariables(t *testing.T) {
	const (
		on    = Node(10)
		table = Node(11)
		cup   = Node(12)
		book  = Node(13)
	)
	st := New()
	st.AddFact(T(cup, on, table))
	st.AddFact(T(book, on, table))

	got := NewQuery(st).
		Where("thing", on, table).
		All()

	require.Len(t, got, 2)
	assert.Equal(t, map[string]Node{"thing": cup}, got[0])
	assert.Equal(t, map[string]Node{"thing": book}, got[1])
}

func TestQuery_VariablesAreDistinctByDefault(t *testing.T) {
	st := New()
	st.AddFact(T(1, 3, 4))
	st.AddFact(T(2, 3, 4))

	q := NewQuery(st).
		Where("x", 3, 4).
		Where("y", 3, 4)
	require.Equal(t, []string{"x", "y"}, q.Vars())

	got := q.All()
	require.Len(t, got, 2)
	for _, m := range got {
		assert.NotEqual(t, m["x"], m["y"])
	}
}

func TestQuery_AllowEqual(t *testing.T) {
	st := New()
	st.AddFact(T(1, 3, 4))
	st.AddFact(T(2, 3, 4))

	got := NewQuery(st).
		Where("x", 3, 4).
		Where("y", 3, 4).
		AllowEqual("x", "y").
		All()

	require.Len(t, got, 4)
}

func TestQuery_GroundOnly(t *testing.T) {
	st := New()
	st.AddFact(T(1, 2, 3))

	require.Len(t, NewQuery(st).Where(1, 2, 3).All(), 1)
	require.Empty(t, NewQuery(st).Where(4, 5, 6).All())
}

func TestQuery_Misuse(t *testing.T) {
	st := New()
	assert.Panics(t, func() { NewQuery(st).AllowEqual("x", "y") }, "unknown variables")
	assert.Panics(t, func() { NewQuery(st).Where(0, 1, 2) }, "hole as ground position")
	assert.Panics(t, func() { NewQuery(st).Where(1.5, 1, 2) }, "unsupported position type")
}
