package filter

import (
	"math"

	"github.com/ChrisMcGann/decharger/pkg/explain"
	"github.com/ChrisMcGann/decharger/pkg/graph"
)

// Infer re-examines edges rejected as too complex. When an endpoint is
// already assigned the same charge and composition by an active edge, that
// side is waived and the edge is rescored; if the rescored log probability
// reaches threshold the edge becomes active. Each pass sees the assignments
// known at its start. Edges are only ever activated, so n+1 passes activate
// a superset of what n passes do. Returns the number of inferred edges.
func Infer(g *graph.Graph, ex *explain.Explainer, passes int, threshold float64) int {
	total := 0
	for pass := 0; pass < passes; pass++ {
		known := knownAssignments(g)

		added := 0
		for i := range g.Edges {
			e := &g.Edges[i]
			if e.Active || e.Rejection != graph.RejectComplex {
				continue
			}

			_, waiveA := known[e.A][e.AssignmentOf(e.A)]
			_, waiveB := known[e.B][e.AssignmentOf(e.B)]
			if !waiveA && !waiveB {
				continue
			}

			d := ex.Rescore(e.Descriptor, waiveA, waiveB)
			if d.LogProb < threshold {
				continue
			}

			e.Descriptor = d
			e.Score = math.Exp(d.Score)
			e.Active = true
			e.Rejection = graph.RejectNone
			e.Inferred = true
			added++
		}

		total += added
		if added == 0 {
			break
		}
	}
	return total
}

// knownAssignments collects, per feature, the assignments implied by active
// edges.
func knownAssignments(g *graph.Graph) []map[graph.Assignment]struct{} {
	known := make([]map[graph.Assignment]struct{}, g.Nodes)
	for i := range g.Edges {
		e := &g.Edges[i]
		if !e.Active {
			continue
		}
		for _, v := range [2]int{e.A, e.B} {
			if known[v] == nil {
				known[v] = make(map[graph.Assignment]struct{})
			}
			known[v][e.AssignmentOf(v)] = struct{}{}
		}
	}
	return known
}
