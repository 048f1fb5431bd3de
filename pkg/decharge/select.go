package decharge

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ChrisMcGann/decharger/pkg/core"
	"github.com/ChrisMcGann/decharger/pkg/graph"
	"github.com/ChrisMcGann/decharger/pkg/solver"
)

// tieBreak is the total objective bonus spread over a component's edges,
// favouring lower edge indices among equal scores. Per edge it stays above
// the solver's improvement tolerance for any component the solver sees.
const tieBreak = 1e-6

// selectEdges marks a consistent subset of the active edges as selected,
// solving one program per connected component. Solver problems are
// reported as diagnostics and leave the component unselected.
func (d *Decharger) selectEdges(ctx context.Context, g *graph.Graph, features []core.Feature) (SelectionStats, []Diagnostic) {
	var stats SelectionStats
	var diags []Diagnostic

	if d.params.SolverTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.params.SolverTimeout)
		defer cancel()
	}

	degreeCap := d.params.degreeCap()

	for _, comp := range g.Components(graph.IsActive) {
		if len(comp) < 2 {
			continue
		}
		stats.Components++
		edges := componentEdges(g, comp)

		if limit := d.params.MaxComponentSize; limit > 0 && len(edges) > limit {
			stats.Selected += selectGreedy(g, edges, degreeCap)
			stats.NonOptimal++
			diags = append(diags, Diagnostic{
				Severity:   SeverityInfo,
				Code:       CodeLargeComponent,
				Message:    fmt.Sprintf("component with %d edges over %d features selected greedily", len(edges), len(comp)),
				FeatureIDs: featureIDs(features, comp),
			})
			continue
		}

		p := buildProblem(g, comp, edges, degreeCap)
		start := time.Now()
		sol, err := d.solver.Solve(ctx, p)
		if err == nil && (len(sol.X) != len(edges) || !p.Feasible(sol.X)) {
			err = fmt.Errorf("solver returned an invalid assignment")
		}
		if err != nil {
			status, code := "failed", CodeSolverFailed
			if errors.Is(err, solver.ErrInfeasible) {
				status, code = "infeasible", CodeInfeasible
			}
			solverDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
			stats.Failed++
			d.logger.Warn("component left unselected",
				"features", len(comp), "edges", len(edges), "error", err)
			diags = append(diags, Diagnostic{
				Severity:   SeverityWarning,
				Code:       code,
				Message:    fmt.Sprintf("no edges selected among %d features: %v", len(comp), err),
				FeatureIDs: featureIDs(features, comp),
			})
			continue
		}
		solverDuration.WithLabelValues(sol.Status.String()).Observe(time.Since(start).Seconds())

		switch sol.Status {
		case solver.StatusOptimal:
		case solver.StatusHeuristic:
			stats.NonOptimal++
		default:
			stats.NonOptimal++
			d.logger.Warn("selection stopped early",
				"status", sol.Status.String(), "nodes", sol.Nodes, "edges", len(edges))
			diags = append(diags, Diagnostic{
				Severity:   SeverityWarning,
				Code:       CodeNonOptimal,
				Message:    fmt.Sprintf("selection stopped early (%s after %d nodes); best found edges used", sol.Status, sol.Nodes),
				FeatureIDs: featureIDs(features, comp),
			})
		}

		for k, idx := range edges {
			if sol.X[k] > 0.5 {
				g.Edges[idx].Selected = true
				stats.Selected++
			}
		}
	}

	edgesSelected.Add(float64(stats.Selected))
	return stats, diags
}

// componentEdges returns the active edges inside a component in ascending
// index order.
func componentEdges(g *graph.Graph, comp []int) []int {
	var edges []int
	for _, v := range comp {
		for _, idx := range g.Adj[v] {
			if e := &g.Edges[idx]; e.Active && e.A == v {
				edges = append(edges, idx)
			}
		}
	}
	sort.Ints(edges)
	return edges
}

// buildProblem formulates edge selection for one component. Column k is
// edges[k]. Two edges that imply different charges or compositions for a
// shared feature exclude each other, and a feature with more active edges
// than the degree cap gets a cardinality row.
func buildProblem(g *graph.Graph, comp, edges []int, degreeCap int) *solver.Problem {
	n := len(edges)
	col := make(map[int]int, n)
	for k, idx := range edges {
		col[idx] = k
	}

	var rows [][]int
	var rhs []float64
	seen := make(map[[2]int]bool)

	for _, v := range comp {
		var inc []int
		for _, idx := range g.Adj[v] {
			if g.Edges[idx].Active {
				inc = append(inc, idx)
			}
		}

		for a := 0; a < len(inc); a++ {
			for b := a + 1; b < len(inc); b++ {
				if g.Edges[inc[a]].AssignmentOf(v) == g.Edges[inc[b]].AssignmentOf(v) {
					continue
				}
				key := [2]int{col[inc[a]], col[inc[b]]}
				if seen[key] {
					continue
				}
				seen[key] = true
				rows = append(rows, key[:])
				rhs = append(rhs, 1)
			}
		}

		if degreeCap > 0 && len(inc) > degreeCap {
			cols := make([]int, len(inc))
			for k, idx := range inc {
				cols[k] = col[idx]
			}
			rows = append(rows, cols)
			rhs = append(rhs, float64(degreeCap))
		}
	}

	obj := make([]float64, n)
	for k, idx := range edges {
		obj[k] = g.Edges[idx].Score + tieBreak*float64(n-k)/float64(n)
	}

	p := &solver.Problem{Objective: obj, RHS: rhs}
	if len(rows) > 0 {
		p.Constraints = mat.NewDense(len(rows), n, nil)
		for i, cols := range rows {
			for _, c := range cols {
				p.Constraints.Set(i, c, 1)
			}
		}
	}
	return p
}

// selectGreedy picks edges by descending score (lower index first) while
// they agree with the assignments already chosen and respect the degree
// cap. It works on the graph directly so that huge components need no
// constraint matrix. Returns the number of selected edges.
func selectGreedy(g *graph.Graph, edges []int, degreeCap int) int {
	order := append([]int(nil), edges...)
	sort.SliceStable(order, func(a, b int) bool {
		return g.Edges[order[a]].Score > g.Edges[order[b]].Score
	})

	assigned := make(map[int]graph.Assignment)
	degree := make(map[int]int)
	selected := 0

	for _, idx := range order {
		e := &g.Edges[idx]
		ok := true
		for _, v := range [2]int{e.A, e.B} {
			if a, has := assigned[v]; has && a != e.AssignmentOf(v) {
				ok = false
			}
			if degreeCap > 0 && degree[v] >= degreeCap {
				ok = false
			}
		}
		if !ok {
			continue
		}
		for _, v := range [2]int{e.A, e.B} {
			assigned[v] = e.AssignmentOf(v)
			degree[v]++
		}
		e.Selected = true
		selected++
	}
	return selected
}

func featureIDs(features []core.Feature, comp []int) []string {
	ids := make([]string, len(comp))
	for k, v := range comp {
		ids[k] = features[v].ID
	}
	return ids
}
