// Package solver solves the 0/1 programs produced by the edge selector:
// maximize c·x subject to A·x ≤ b with x binary and A non-negative.
package solver

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrInfeasible is returned when no 0/1 assignment satisfies the
	// constraints.
	ErrInfeasible = errors.New("solver: problem is infeasible")
	// ErrInvalidProblem is returned for malformed input.
	ErrInvalidProblem = errors.New("solver: invalid problem")
)

// Status describes how a solution was obtained.
type Status int

const (
	StatusOptimal Status = iota
	StatusNodeLimit
	StatusInterrupted
	StatusHeuristic
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusNodeLimit:
		return "node_limit"
	case StatusInterrupted:
		return "interrupted"
	case StatusHeuristic:
		return "heuristic"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Problem is a binary packing program. Row i of Constraints together with
// RHS[i] is one constraint; Constraints may be nil when there are none.
// Variables are implicitly bounded to {0, 1}.
type Problem struct {
	Objective   []float64
	Constraints *mat.Dense
	RHS         []float64
}

// Solution is a 0/1 assignment.
type Solution struct {
	X         []float64
	Objective float64
	Status    Status
	Nodes     int
}

// Optimal reports whether the solution is proven optimal.
func (s Solution) Optimal() bool {
	return s.Status == StatusOptimal
}

// Solver solves a Problem. Implementations must be deterministic.
type Solver interface {
	Solve(ctx context.Context, p *Problem) (Solution, error)
}

func (p *Problem) rows() int {
	if p.Constraints == nil {
		return 0
	}
	r, _ := p.Constraints.Dims()
	return r
}

// Validate checks dimensions and that every coefficient is a finite,
// non-negative number.
func (p *Problem) Validate() error {
	n := len(p.Objective)
	if p.Constraints != nil {
		r, c := p.Constraints.Dims()
		if c != n {
			return fmt.Errorf("%w: %d constraint columns for %d variables", ErrInvalidProblem, c, n)
		}
		if r != len(p.RHS) {
			return fmt.Errorf("%w: %d constraint rows but %d right-hand sides", ErrInvalidProblem, r, len(p.RHS))
		}
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				if v := p.Constraints.At(i, j); v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
					return fmt.Errorf("%w: coefficient (%d,%d) = %g", ErrInvalidProblem, i, j, v)
				}
			}
		}
	} else if len(p.RHS) != 0 {
		return fmt.Errorf("%w: right-hand sides without constraints", ErrInvalidProblem)
	}
	for j, v := range p.Objective {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: objective coefficient %d = %g", ErrInvalidProblem, j, v)
		}
	}
	for i, v := range p.RHS {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: right-hand side %d = %g", ErrInvalidProblem, i, v)
		}
	}
	return nil
}

// Feasible reports whether x satisfies every constraint.
func (p *Problem) Feasible(x []float64) bool {
	for i := 0; i < p.rows(); i++ {
		sum := 0.0
		for j, v := range x {
			sum += p.Constraints.At(i, j) * v
		}
		if sum > p.RHS[i]+feasTol {
			return false
		}
	}
	return true
}

// Value returns c·x.
func (p *Problem) Value(x []float64) float64 {
	sum := 0.0
	for j, v := range x {
		sum += p.Objective[j] * v
	}
	return sum
}

const feasTol = 1e-9

// rootFeasible reports whether the all-zero assignment is feasible, which
// for a packing program is equivalent to the program being feasible.
func (p *Problem) rootFeasible() bool {
	for _, v := range p.RHS {
		if v < -feasTol {
			return false
		}
	}
	return true
}
