package solver

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// DefaultMaxNodes bounds the branch and bound search tree.
const DefaultMaxNodes = 10000

const intTol = 1e-6

// objTol is the smallest objective gain that counts as an improvement. It
// sits well below the tie-break bonuses callers add to the objective.
const objTol = 1e-12

// BranchAndBound solves the program exactly by depth-first branch and
// bound over LP relaxations. A greedy solution seeds the incumbent, so a
// feasible answer is always available when the node limit is hit or the
// context ends; such answers are reported with a non-optimal status.
type BranchAndBound struct {
	MaxNodes  int     // 0 means DefaultMaxNodes
	Tolerance float64 // simplex tolerance; 0 means 1e-10
}

type node struct {
	fixed []int8 // -1 free, 0 or 1
}

// Solve implements Solver.
func (s BranchAndBound) Solve(ctx context.Context, p *Problem) (Solution, error) {
	if err := p.Validate(); err != nil {
		return Solution{}, err
	}
	if !p.rootFeasible() {
		return Solution{}, ErrInfeasible
	}

	maxNodes := s.MaxNodes
	if maxNodes <= 0 {
		maxNodes = DefaultMaxNodes
	}
	tol := s.Tolerance
	if tol <= 0 {
		tol = 1e-10
	}

	n := len(p.Objective)
	best := greedy(p)
	bestObj := p.Value(best)
	status := StatusOptimal

	root := node{fixed: make([]int8, n)}
	for j := range root.fixed {
		root.fixed[j] = -1
	}
	stack := []node{root}
	nodes := 0

	for len(stack) > 0 {
		if ctx.Err() != nil {
			status = StatusInterrupted
			break
		}
		if nodes >= maxNodes {
			status = StatusNodeLimit
			break
		}
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		bound, x, err := relax(p, nd.fixed, tol)
		if errors.Is(err, ErrInfeasible) {
			continue
		}
		if err != nil {
			return Solution{X: best, Objective: bestObj, Status: StatusInterrupted, Nodes: nodes}, err
		}
		if bound <= bestObj+objTol {
			continue
		}

		branch := -1
		dist := 1.0
		for j, v := range x {
			if nd.fixed[j] >= 0 {
				continue
			}
			if d := math.Abs(v - 0.5); d < 0.5-intTol && d < dist {
				branch, dist = j, d
			}
		}

		if branch < 0 {
			cand := make([]float64, n)
			for j, v := range x {
				cand[j] = math.Round(v)
			}
			if p.Feasible(cand) {
				if obj := p.Value(cand); obj > bestObj+objTol {
					best, bestObj = cand, obj
				}
			}
			continue
		}

		zero := node{fixed: append([]int8(nil), nd.fixed...)}
		zero.fixed[branch] = 0
		one := node{fixed: append([]int8(nil), nd.fixed...)}
		one.fixed[branch] = 1
		stack = append(stack, zero, one)
	}

	return Solution{X: best, Objective: bestObj, Status: status, Nodes: nodes}, nil
}

// relax solves the LP relaxation with some variables fixed and returns its
// objective and a full-length solution. Fixed variables are substituted
// into the right-hand side, which stays non-negative unless the fixing is
// infeasible. The relaxation is put in equality form with one slack per
// row, and the slacks form the initial basis.
func relax(p *Problem, fixed []int8, tol float64) (float64, []float64, error) {
	n := len(p.Objective)
	rows := p.rows()

	x := make([]float64, n)
	b := make([]float64, rows)
	copy(b, p.RHS)
	base := 0.0
	var free []int
	for j := 0; j < n; j++ {
		switch fixed[j] {
		case 1:
			x[j] = 1
			base += p.Objective[j]
			for i := 0; i < rows; i++ {
				b[i] -= p.Constraints.At(i, j)
			}
		case 0:
		default:
			free = append(free, j)
		}
	}
	for _, v := range b {
		if v < -feasTol {
			return 0, nil, ErrInfeasible
		}
	}
	if len(free) == 0 {
		return base, x, nil
	}

	var keep []int
	for i := 0; i < rows; i++ {
		for _, j := range free {
			if p.Constraints.At(i, j) != 0 {
				keep = append(keep, i)
				break
			}
		}
	}

	k := len(free)
	m := len(keep) + k
	A := mat.NewDense(m, k+m, nil)
	rhs := make([]float64, m)
	c := make([]float64, k+m)
	for r, i := range keep {
		for col, j := range free {
			A.Set(r, col, p.Constraints.At(i, j))
		}
		rhs[r] = math.Max(b[i], 0)
	}
	for col, j := range free {
		r := len(keep) + col
		A.Set(r, col, 1)
		rhs[r] = 1
		c[col] = -p.Objective[j]
	}
	basic := make([]int, m)
	for r := 0; r < m; r++ {
		A.Set(r, k+r, 1)
		basic[r] = k + r
	}

	opt, sol, err := lp.Simplex(c, A, rhs, tol, basic)
	if err != nil {
		if errors.Is(err, lp.ErrInfeasible) {
			return 0, nil, ErrInfeasible
		}
		return 0, nil, fmt.Errorf("lp relaxation: %w", err)
	}
	for col, j := range free {
		x[j] = sol[col]
	}
	return base - opt, x, nil
}
