package triplet

import "fmt"

// Query is the host bridge between the value-typed world of callers and the
// integer encoding the solver speaks. Constraint positions are written as
// either a Node (ground) or a string (a named variable); Query numbers the
// variables in first-appearance order, assembles the solver program, and
// hands assignments back as name-to-node maps.
//
// Variables are pairwise distinct by default; AllowEqual relaxes individual
// pairs. A Query carries no search logic of its own.
type Query struct {
	st          *Structure
	names       []string
	index       map[string]int
	constraints []Triplet
	shared      map[[2]int]bool
}

// NewQuery starts an empty query against st.
func NewQuery(st *Structure) *Query {
	return &Query{
		st:     st,
		index:  map[string]int{},
		shared: map[[2]int]bool{},
	}
}

// Where appends one constraint. Each of a, b, c is a Node (or untyped
// integer constant) for a ground position, or a string naming a variable.
// It returns the query for chaining.
func (q *Query) Where(a, b, c any) *Query {
	q.constraints = append(q.constraints, T(q.position(a), q.position(b), q.position(c)))
	return q
}

// AllowEqual permits the two named variables to share a node value. Both
// names must already appear in a constraint.
func (q *Query) AllowEqual(x, y string) *Query {
	i, ok := q.index[x]
	if !ok {
		panic(fmt.Sprintf("triplet: AllowEqual of unknown variable %q", x))
	}
	j, ok := q.index[y]
	if !ok {
		panic(fmt.Sprintf("triplet: AllowEqual of unknown variable %q", y))
	}
	q.shared[[2]int{i, j}] = true
	q.shared[[2]int{j, i}] = true
	return q
}

// position marshals one constraint position into solver encoding.
func (q *Query) position(v any) Node {
	switch x := v.(type) {
	case Node:
		if !x.IsNode() {
			panic(fmt.Sprintf("triplet: query position %d is not a node", x))
		}
		return x
	case int:
		n := Node(x)
		if !n.IsNode() {
			panic(fmt.Sprintf("triplet: query position %d is not a node", x))
		}
		return n
	case string:
		return Var(q.variable(x))
	}
	panic(fmt.Sprintf("triplet: query position %v is neither Node nor variable name", v))
}

// variable interns a variable name, numbering in first-appearance order.
func (q *Query) variable(name string) int {
	if i, ok := q.index[name]; ok {
		return i
	}
	i := len(q.names)
	q.index[name] = i
	q.names = append(q.names, name)
	return i
}

// Vars returns the variable names in solver order.
func (q *Query) Vars() []string {
	return q.names
}

// Solver compiles the query into a fresh solver. Useful when the caller
// wants the raw assignment vectors.
func (q *Query) Solver() *Solver {
	n := len(q.names)
	mayEqual := make([][]int, n)
	for i := range mayEqual {
		row := []int{i}
		for j := 0; j < i; j++ {
			if q.shared[[2]int{i, j}] {
				row = append(row, j)
			}
		}
		mayEqual[i] = row
	}
	return NewSolver(q.st, n, q.constraints, mayEqual)
}

// All runs the query to exhaustion and returns every binding as a
// name-to-node map, in solver order.
func (q *Query) All() []map[string]Node {
	if len(q.names) == 0 {
		// A fully ground query degenerates to a conjunction check.
		if q.st.AllTrue(q.constraints) {
			return []map[string]Node{{}}
		}
		return nil
	}
	s := q.Solver()
	var out []map[string]Node
	for a := s.NextAssignment(); a != nil; a = s.NextAssignment() {
		m := make(map[string]Node, len(q.names))
		for i, name := range q.names {
			m[name] = a[i]
		}
		out = append(out, m)
	}
	return out
}
