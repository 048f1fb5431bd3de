package filter

import (
	"github.com/ChrisMcGann/decharger/pkg/core"
	"github.com/ChrisMcGann/decharger/pkg/graph"
)

// Intensity rejects edges whose less plausible side is much more intense
// than the other. By default only edges between equal charges are tested.
type Intensity struct {
	Enabled       bool
	MaxRatio      float64 // allowed intensity ratio; 1 is the strict rule
	AcrossCharges bool
}

// Passes is a pure test of one edge against its two features.
func (f Intensity) Passes(e *graph.Edge, a, b core.Feature) bool {
	if !f.Enabled {
		return true
	}
	if e.ChargeA != e.ChargeB && !f.AcrossCharges {
		return true
	}

	ratio := f.MaxRatio
	if ratio < 1 {
		ratio = 1
	}

	lpA, lpB := e.Descriptor.LogProbA, e.Descriptor.LogProbB
	switch {
	case lpA < lpB:
		return a.Intensity <= ratio*b.Intensity
	case lpA > lpB:
		return b.Intensity <= ratio*a.Intensity
	}
	return true
}

// Filter deactivates every active edge failing Passes and returns how many
// edges it rejected. Inactive edges keep their rejection reason.
func (f Intensity) Filter(g *graph.Graph, features []core.Feature) int {
	rejected := 0
	for i := range g.Edges {
		e := &g.Edges[i]
		if !e.Active {
			continue
		}
		if !f.Passes(e, features[e.A], features[e.B]) {
			e.Active = false
			e.Rejection = graph.RejectIntensity
			rejected++
		}
	}
	return rejected
}
