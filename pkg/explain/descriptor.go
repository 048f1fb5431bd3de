package explain

import (
	"fmt"
	"strings"

	"github.com/ChrisMcGann/decharger/pkg/catalog"
)

// Term is Count instances of the catalog entry at index Entry.
type Term struct {
	Entry int
	Count int
}

// Descriptor explains the mass difference between two features: SideA is
// the adduct composition of the first feature, SideB the one of the second.
type Descriptor struct {
	SideA   []Term
	SideB   []Term
	LabelA  string
	LabelB  string
	ChargeA int
	ChargeB int

	MassA float64 // summed ion mass of SideA
	MassB float64
	Mass  float64 // MassB - MassA

	// LogProb counts only the instances not shared by both sides.
	LogProb  float64
	LogProbA float64
	LogProbB float64

	Score     float64
	Instances int
	RTShift   float64 // expected RT(B) - RT(A)
	Identity  bool
}

// Label renders the descriptor as "A-side | B-side".
func (d Descriptor) Label() string {
	if d.Identity {
		return "identity"
	}
	return d.LabelA + " | " + d.LabelB
}

func (d Descriptor) key() string {
	return d.LabelA + "|" + d.LabelB
}

// SideLabel renders a composition such as "2xH+,Na+".
func SideLabel(cat *catalog.Catalog, terms []Term) string {
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		label := cat.Entry(t.Entry).Label
		if t.Count > 1 {
			label = fmt.Sprintf("%dx%s", t.Count, label)
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, ",")
}

// SameTerms reports whether two compositions are identical.
func SameTerms(a, b []Term) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func dense(terms []Term, n int) []int {
	counts := make([]int, n)
	for _, t := range terms {
		counts[t.Entry] += t.Count
	}
	return counts
}
