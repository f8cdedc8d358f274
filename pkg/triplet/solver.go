package triplet

import "fmt"

// Solver enumerates every assignment of nodes to variables that satisfies a
// list of 3-ary constraints against a structure. Constraints use the encoding
// of the Node type: positive positions are ground nodes, non-positive
// positions are variable tokens (variable i is Var(i), i.e. -i).
//
// The search is variable-first backtracking: variables are decided in index
// order, and the candidate set for each variable is the intersection, over the
// constraints mentioning it, of the values the structure can supply once every
// variable position is masked to a hole. Substituting each decision into the
// working constraint list keeps candidate generation uniform no matter how
// many variables a constraint still carries; the per-backtrack undo cost is
// linear in the constraints touched, which stays tiny for rule-sized programs.
//
// A solver is single-use. It borrows the structure read-only for its whole
// lifetime; mutating the structure while the solver is live is a contract
// violation and panics on the next call. Assignments come out in a
// deterministic order fixed by the structure's insertion order, so equal
// inputs always yield equal sequences.
type Solver struct {
	st  *Structure
	gen uint64
	n   int

	// working holds the constraints that still contain variables; ground
	// input constraints are verified once during construction and dropped.
	working []Triplet

	// adjacency[v] lists the indices into working whose constraints
	// mention variable v.
	adjacency [][]int

	// allowed[i][j] records whether variables i and j may share a value.
	// Only the j < i half is consulted.
	allowed [][]bool

	depth      int
	assignment []Node
	options    [][]Node
	cursor     []int
	undo       [][]undoEntry

	valid     bool
	started   bool
	exhausted bool
}

// undoEntry records one substitution made while assigning a variable, so the
// variable token can be restored on backtrack.
type undoEntry struct {
	constraint int
	pos        int
}

// NewSolver builds a solver over a borrowed structure.
//
// n is the variable count (> 0). Every non-positive constraint position must
// encode a variable index below n. mayEqual has one row per variable; row i
// lists the variable indices i may share a value with (at minimum its
// lower-indexed partners — only that half is read). Malformed programs are
// programming errors and panic.
//
// Fully ground constraints are checked immediately: if any is absent from the
// structure the solver is permanently invalid and yields no assignments.
func NewSolver(st *Structure, n int, constraints []Triplet, mayEqual [][]int) *Solver {
	if n <= 0 {
		panic(fmt.Sprintf("triplet: solver needs a positive variable count, got %d", n))
	}
	if len(mayEqual) != n {
		panic(fmt.Sprintf("triplet: mayEqual has %d rows for %d variables", len(mayEqual), n))
	}

	s := &Solver{
		st:         st,
		gen:        st.generation,
		n:          n,
		assignment: make([]Node, n),
		options:    make([][]Node, n),
		cursor:     make([]int, n),
		undo:       make([][]undoEntry, n),
		adjacency:  make([][]int, n),
		allowed:    make([][]bool, n),
		valid:      true,
	}

	for i, row := range mayEqual {
		s.allowed[i] = make([]bool, n)
		for _, j := range row {
			if j < 0 || j >= n {
				panic(fmt.Sprintf("triplet: mayEqual[%d] references variable %d of %d", i, j, n))
			}
			s.allowed[i][j] = true
		}
	}

	for _, c := range constraints {
		vars := [3]int{-1, -1, -1}
		hasVar := false
		for pos := 0; pos < 3; pos++ {
			v := c.At(pos)
			if v.IsNode() {
				continue
			}
			idx := v.VarIndex()
			if idx >= n {
				panic(fmt.Sprintf("triplet: constraint %v references variable %d of %d", c, idx, n))
			}
			vars[pos] = idx
			hasVar = true
		}
		if !hasVar {
			if !st.IsTrue(c) {
				s.valid = false
			}
			continue
		}
		ci := len(s.working)
		s.working = append(s.working, c)
		for _, idx := range vars {
			if idx < 0 {
				continue
			}
			adj := s.adjacency[idx]
			if len(adj) == 0 || adj[len(adj)-1] != ci {
				s.adjacency[idx] = append(adj, ci)
			}
		}
	}

	return s
}

// IsValid reports whether the solver survived its ground pre-pass. An invalid
// solver yields no assignments, ever; a valid one may still be exhausted
// immediately.
func (s *Solver) IsValid() bool {
	return s.valid
}

// NextAssignment returns the next satisfying assignment, one node per
// variable index, or nil when the search is exhausted or the solver invalid.
// The returned slice is owned by the caller. After the first nil, every
// further call returns nil with no side effects.
func (s *Solver) NextAssignment() []Node {
	s.checkBorrow()
	if !s.valid || s.exhausted {
		return nil
	}
	if !s.started {
		s.started = true
		s.depth = 0
		s.computeOptions(0)
	}

	for s.depth >= 0 {
		d := s.depth
		if s.cursor[d] >= len(s.options[d]) {
			// Candidates at this depth are spent; undo the previous
			// decision and resume its enumeration.
			s.depth--
			if s.depth >= 0 {
				s.unassign(s.depth)
			}
			continue
		}
		v := s.options[d][s.cursor[d]]
		s.cursor[d]++
		s.assign(d, v)
		if d == s.n-1 {
			out := make([]Node, s.n)
			copy(out, s.assignment)
			s.unassign(d)
			return out
		}
		s.depth = d + 1
		s.computeOptions(s.depth)
	}

	s.exhausted = true
	return nil
}

// assign substitutes node v for variable d in every working constraint that
// mentions it, recording each touched position for the matching unassign.
func (s *Solver) assign(d int, v Node) {
	token := Var(d)
	s.undo[d] = s.undo[d][:0]
	for _, ci := range s.adjacency[d] {
		for pos := 0; pos < 3; pos++ {
			if s.working[ci].At(pos) == token {
				s.working[ci] = s.working[ci].WithAt(pos, v)
				s.undo[d] = append(s.undo[d], undoEntry{constraint: ci, pos: pos})
			}
		}
	}
	s.assignment[d] = v
}

// unassign restores the variable token substituted away by assign(d, _).
func (s *Solver) unassign(d int) {
	token := Var(d)
	for _, u := range s.undo[d] {
		s.working[u.constraint] = s.working[u.constraint].WithAt(u.pos, token)
	}
	s.undo[d] = s.undo[d][:0]
	s.assignment[d] = 0
}

// computeOptions fills the candidate set for variable d from the current
// working constraints.
//
// For each constraint mentioning d, every variable position is masked to a
// hole and the structure is probed; each matching fact contributes the value
// it carries at d's positions — or nothing, when a constraint mentions d
// twice and the fact disagrees between those positions. The candidate set is
// the intersection of the contributions, in first-contribution order, minus
// the values already taken by earlier variables d is not allowed to equal.
// A variable mentioned by no constraint gets no candidates at all.
func (s *Solver) computeOptions(d int) {
	token := Var(d)
	var opts []Node
	constrained := false

	for _, ci := range s.adjacency[d] {
		c := s.working[ci]
		var varPos [3]bool
		emptied := c
		for pos := 0; pos < 3; pos++ {
			v := c.At(pos)
			if v.IsNode() {
				continue
			}
			if v == token {
				varPos[pos] = true
			}
			emptied = emptied.WithAt(pos, Hole)
		}

		var contrib []Node
		seen := make(map[Node]struct{})
		for _, f := range s.st.Lookup(emptied) {
			val := Hole
			ok := true
			for pos := 0; pos < 3; pos++ {
				if !varPos[pos] {
					continue
				}
				switch {
				case val == Hole:
					val = f.At(pos)
				case f.At(pos) != val:
					ok = false
				}
			}
			if !ok || val == Hole {
				continue
			}
			if _, dup := seen[val]; !dup {
				seen[val] = struct{}{}
				contrib = append(contrib, val)
			}
		}

		if !constrained {
			opts = contrib
			constrained = true
		} else {
			opts = intersect(opts, contrib)
		}
		if len(opts) == 0 {
			break
		}
	}

	if constrained {
		for j := 0; j < d; j++ {
			if !s.allowed[d][j] {
				opts = without(opts, s.assignment[j])
			}
		}
	}

	s.options[d] = opts
	s.cursor[d] = 0
}

// checkBorrow panics if the structure changed under a live solver.
func (s *Solver) checkBorrow() {
	if s.st.generation != s.gen {
		panic("triplet: structure mutated while borrowed by a live solver")
	}
}

// intersect keeps the elements of a that also occur in b, preserving a's
// order.
func intersect(a, b []Node) []Node {
	in := make(map[Node]struct{}, len(b))
	for _, v := range b {
		in[v] = struct{}{}
	}
	out := a[:0]
	for _, v := range a {
		if _, ok := in[v]; ok {
			out = append(out, v)
		}
	}
	return out
}

// without removes every occurrence of v from opts in place.
func without(opts []Node, v Node) []Node {
	out := opts[:0]
	for _, o := range opts {
		if o != v {
			out = append(out, o)
		}
	}
	return out
}
