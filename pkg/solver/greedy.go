package solver

import (
	"context"
	"sort"
)

// Greedy picks variables by descending objective (lower index first on
// ties) as long as the constraints allow. It is fast but not optimal.
type Greedy struct{}

// Solve implements Solver.
func (Greedy) Solve(ctx context.Context, p *Problem) (Solution, error) {
	if err := p.Validate(); err != nil {
		return Solution{}, err
	}
	if !p.rootFeasible() {
		return Solution{}, ErrInfeasible
	}
	x := greedy(p)
	return Solution{X: x, Objective: p.Value(x), Status: StatusHeuristic}, nil
}

func greedy(p *Problem) []float64 {
	n := len(p.Objective)
	order := make([]int, n)
	for j := range order {
		order[j] = j
	}
	sort.SliceStable(order, func(a, b int) bool {
		return p.Objective[order[a]] > p.Objective[order[b]]
	})

	rows := p.rows()
	used := make([]float64, rows)
	x := make([]float64, n)
	for _, j := range order {
		if p.Objective[j] <= 0 {
			break
		}
		fits := true
		for i := 0; i < rows; i++ {
			if used[i]+p.Constraints.At(i, j) > p.RHS[i]+feasTol {
				fits = false
				break
			}
		}
		if !fits {
			continue
		}
		x[j] = 1
		for i := 0; i < rows; i++ {
			used[i] += p.Constraints.At(i, j)
		}
	}
	return x
}
