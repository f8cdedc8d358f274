package triplet

import "fmt"

// Node is an opaque identity in a structure. Positive values are real nodes,
// zero is the hole marker used in lookup keys to mean "any value", and
// negative values are variable tokens that exist only inside solver
// constraints. A structure never stores a non-positive value.
//
// Node identity is minted by the caller; the core does not intern names.
type Node int

// Hole is the in-band "any value" marker for lookup keys. It is also the
// token for variable 0 inside solver constraints; the solver keeps the two
// readings apart by substituting holes before every lookup.
const Hole Node = 0

// Var returns the constraint token for the i-th solver variable.
// Variable i is encoded as -i, so Var(0) coincides with Hole.
func Var(i int) Node {
	if i < 0 {
		panic(fmt.Sprintf("triplet: negative variable index %d", i))
	}
	return Node(-i)
}

// VarIndex returns the variable index encoded by a non-positive token.
func (n Node) VarIndex() int {
	if n > 0 {
		panic(fmt.Sprintf("triplet: %d is not a variable token", n))
	}
	return int(-n)
}

// IsVar reports whether n is a variable token in constraint space.
// Note that the zero value is both variable 0 and the hole; context decides.
func (n Node) IsVar() bool { return n <= 0 }

// IsHole reports whether n is the hole marker.
func (n Node) IsHole() bool { return n == 0 }

// IsNode reports whether n is a real node identity.
func (n Node) IsNode() bool { return n > 0 }
