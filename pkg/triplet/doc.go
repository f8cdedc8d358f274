// Package triplet implements the workspace of an analogy-making engine: an
// indexed store of 3-ary facts over opaque integer nodes, and a backtracking
// solver that enumerates the assignments satisfying a list of 3-ary
// constraint templates against that store.
//
// The two halves share one integer namespace. Positive values are node
// identities minted by the caller; zero is the hole marker meaning "any
// value" in a lookup key; non-positive values are variable tokens inside
// solver constraints (variable i is -i). The store only ever holds positive
// values — the solver owns the step that masks variables to holes before
// probing it.
//
// Structure is a multiset of facts with a uniqueness invariant, indexed
// eight ways so that any partial-key lookup is a single hash probe. Solver
// is a single-use enumerator constructed against a read-only borrow of a
// structure; all rule matching and pattern search in the layers above reduce
// to solver programs. Query is the thin value-typed bridge those layers use
// to build programs with named variables.
//
// A structure must not be mutated while any solver or Lookup view is live;
// the engine's rule layer finishes or discards all in-flight solvers before
// applying a delta. Contract violations panic, data-level emptiness is just
// an empty result.
package triplet
