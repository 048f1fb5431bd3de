package explain

import "github.com/ChrisMcGann/decharger/pkg/catalog"

// Enumerator produces every multiset of catalog entries whose charges add up
// to a target charge. Counts per entry are capped by maxRepeats, except for
// the entry set with Uncap, and the number of neutral instances by
// maxNeutrals. The search is an explicit
// depth-first walk: the counts slice is the stack, one level per catalog
// entry, so it can be paused after any result and restarted with Reset.
//
// Typical use:
//
//	en := NewEnumerator(cat, 2, 3, 1)
//	for en.Next() {
//		use(en.Counts())
//	}
type Enumerator struct {
	charges     []int
	target      int
	maxRepeats  int
	maxNeutrals int
	uncapped    int

	counts   []int
	charge   int
	neutrals int
	started  bool
	done     bool
}

// NewEnumerator creates an enumerator over cat for side compositions with
// the given net charge.
func NewEnumerator(cat *catalog.Catalog, charge, maxRepeats, maxNeutrals int) *Enumerator {
	charges := make([]int, cat.Len())
	for i := range charges {
		charges[i] = cat.Entry(i).Charge
	}
	return &Enumerator{
		charges:     charges,
		target:      charge,
		maxRepeats:  maxRepeats,
		maxNeutrals: maxNeutrals,
		uncapped:    -1,
		counts:      make([]int, 0, len(charges)),
	}
}

// Uncap lifts the repeat cap for entry i, so that the filler adduct can
// make up any charge. Its count stays bounded by the target charge.
func (e *Enumerator) Uncap(i int) {
	e.uncapped = i
}

// Reset rewinds the enumerator to its initial state.
func (e *Enumerator) Reset() {
	e.counts = e.counts[:0]
	e.charge = 0
	e.neutrals = 0
	e.started = false
	e.done = false
}

// Next advances to the next composition. It returns false when the sequence
// is exhausted.
func (e *Enumerator) Next() bool {
	for !e.done {
		if !e.started {
			e.started = true
		} else if !e.advance() {
			e.done = true
			break
		}
		for len(e.counts) < len(e.charges) {
			e.counts = append(e.counts, 0)
		}
		if e.charge == e.target {
			return true
		}
	}
	return false
}

// Counts returns a copy of the current per-entry counts.
func (e *Enumerator) Counts() []int {
	out := make([]int, len(e.counts))
	copy(out, e.counts)
	return out
}

// Terms returns the non-zero counts of the current composition.
func (e *Enumerator) Terms() []Term {
	return termsOf(e.counts)
}

// advance increments the deepest entry that can still grow and pops the
// exhausted entries above it.
func (e *Enumerator) advance() bool {
	for len(e.counts) > 0 {
		i := len(e.counts) - 1
		if e.canAdd(i) {
			e.counts[i]++
			e.charge += e.charges[i]
			if e.charges[i] == 0 {
				e.neutrals++
			}
			return true
		}
		e.charge -= e.counts[i] * e.charges[i]
		if e.charges[i] == 0 {
			e.neutrals -= e.counts[i]
		}
		e.counts = e.counts[:i]
	}
	return false
}

func (e *Enumerator) canAdd(i int) bool {
	if i != e.uncapped && e.counts[i] >= e.maxRepeats {
		return false
	}
	q := e.charges[i]
	if q == 0 {
		return e.neutrals < e.maxNeutrals
	}
	// charged entries all share one sign, so the partial charge only grows
	if q*e.target <= 0 {
		return false
	}
	return abs(e.charge+q) <= abs(e.target)
}

func termsOf(counts []int) []Term {
	var terms []Term
	for i, n := range counts {
		if n > 0 {
			terms = append(terms, Term{Entry: i, Count: n})
		}
	}
	return terms
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
