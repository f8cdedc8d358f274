package triplet

import "fmt"

// Structure is the indexed fact store at the heart of the engine. It holds a
// set of ground triplets and answers partial-key lookups in a single hash
// probe.
//
// The store keeps eight indices, one per subset of the three positions. The
// index for subset S maps each fact masked onto S (positions outside S zeroed)
// to the list of facts agreeing with the key on S. The empty subset's sole
// bucket therefore lists every fact. The eight-fold layout is a deliberate
// space-for-time trade: any mix of fixed and hole positions resolves with one
// probe into the right index.
//
// A Structure is single-owner: it must not be mutated while any Lookup result
// or live Solver still refers to it. Contract violations — adding a duplicate,
// removing an absent fact, a non-positive value in a fact position — are
// programming errors and panic.
type Structure struct {
	// buckets[bits] indexes facts by their projection onto the position
	// subset encoded in bits (bit i set = position i fixed).
	buckets [8]map[Triplet][]Triplet

	// generation counts mutations so borrowers can detect misuse.
	generation uint64
}

// New creates an empty structure.
func New() *Structure {
	st := &Structure{}
	for bits := range st.buckets {
		st.buckets[bits] = make(map[Triplet][]Triplet)
	}
	return st
}

// AddFact stores f under all eight indices. The fact must be fully ground and
// must not already be present.
func (st *Structure) AddFact(f Triplet) {
	if !f.ground() {
		panic(fmt.Sprintf("triplet: AddFact of non-ground fact %v", f))
	}
	if st.IsTrue(f) {
		panic(fmt.Sprintf("triplet: duplicate AddFact %v", f))
	}
	for bits := 0; bits < 8; bits++ {
		key := f.Mask(bits)
		st.buckets[bits][key] = append(st.buckets[bits][key], f)
	}
	st.generation++
}

// RemoveFact erases f from all eight indices. The fact must be present.
func (st *Structure) RemoveFact(f Triplet) {
	if !f.ground() {
		panic(fmt.Sprintf("triplet: RemoveFact of non-ground fact %v", f))
	}
	if !st.IsTrue(f) {
		panic(fmt.Sprintf("triplet: RemoveFact of absent fact %v", f))
	}
	for bits := 0; bits < 8; bits++ {
		key := f.Mask(bits)
		bucket := st.buckets[bits][key]
		for i, g := range bucket {
			if g == f {
				bucket = append(bucket[:i], bucket[i+1:]...)
				break
			}
		}
		if len(bucket) == 0 {
			delete(st.buckets[bits], key)
		} else {
			st.buckets[bits][key] = bucket
		}
	}
	st.generation++
}

// IsTrue reports whether the fully ground fact f is stored. By the uniqueness
// invariant the fully-keyed bucket holds at most one entry.
func (st *Structure) IsTrue(f Triplet) bool {
	return len(st.buckets[7][f]) > 0
}

// AllTrue reports whether every fact in fs is stored.
func (st *Structure) AllTrue(fs []Triplet) bool {
	for _, f := range fs {
		if !st.IsTrue(f) {
			return false
		}
	}
	return true
}

// Lookup returns the facts matching a partial key: every stored fact agreeing
// with key at each non-hole position. The all-holes key returns every fact.
//
// The returned slice is a borrowed view of internal storage, in insertion
// order. Callers must not modify it and must not mutate the structure while
// iterating it.
func (st *Structure) Lookup(key Triplet) []Triplet {
	return st.buckets[key.keyBits()][key]
}

// Len returns the number of stored facts.
func (st *Structure) Len() int {
	return len(st.buckets[7])
}

// Facts returns all stored facts in insertion order. Same borrowing rules as
// Lookup.
func (st *Structure) Facts() []Triplet {
	return st.buckets[0][Triplet{}]
}
