package triplet

import "testing"

// chainStructure builds a linear successor chain of n nodes plus a shared
// label fact per node.
func chainStructure(n int) *Structure {
	st := New()
	const (
		succ  = Node(100000)
		label = Node(100001)
		tag   = Node(100002)
	)
	for i := 1; i < n; i++ {
		st.AddFact(T(Node(i), succ, Node(i+1)))
	}
	for i := 1; i <= n; i++ {
		st.AddFact(T(Node(i), label, tag))
	}
	return st
}

func BenchmarkStructureLookup(b *testing.B) {
	st := chainStructure(1000)
	key := T(0, 100001, 100002)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if got := st.Lookup(key); len(got) != 1000 {
			b.Fatalf("want 1000 facts, got %d", len(got))
		}
	}
}

func BenchmarkStructureAddRemove(b *testing.B) {
	st := New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		f := T(Node(i%1000+1), 2000, 3000)
		st.AddFact(f)
		st.RemoveFact(f)
	}
}

func BenchmarkSolverThreeHopChain(b *testing.B) {
	st := chainStructure(1000)
	constraints := []Triplet{
		T(Var(0), 100000, Var(1)),
		T(Var(1), 100000, Var(2)),
		T(Var(2), 100000, Var(3)),
	}
	mayEqual := [][]int{{0}, {1}, {2}, {3}}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s := NewSolver(st, 4, constraints, mayEqual)
		count := 0
		for a := s.NextAssignment(); a != nil; a = s.NextAssignment() {
			count++
		}
		if count != 997 {
			b.Fatalf("want 997 chains, got %d", count)
		}
	}
}
