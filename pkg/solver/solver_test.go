package solver

import (
	"context"
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// packing builds a problem from dense rows.
func packing(obj []float64, rows [][]float64, rhs []float64) *Problem {
	p := &Problem{Objective: obj, RHS: rhs}
	if len(rows) > 0 {
		data := make([]float64, 0, len(rows)*len(obj))
		for _, r := range rows {
			data = append(data, r...)
		}
		p.Constraints = mat.NewDense(len(rows), len(obj), data)
	}
	return p
}

// oddCycle has five variables where neighbours conflict; its LP relaxation
// is fractional at the root.
func oddCycle() *Problem {
	rows := make([][]float64, 5)
	for i := range rows {
		rows[i] = make([]float64, 5)
		rows[i][i] = 1
		rows[i][(i+1)%5] = 1
	}
	return packing([]float64{1, 1, 1, 1, 1}, rows, []float64{1, 1, 1, 1, 1})
}

func selected(x []float64) []int {
	var out []int
	for j, v := range x {
		if v > 0.5 {
			out = append(out, j)
		}
	}
	return out
}

func equalInts(a, b []int) bool {
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

func TestBranchAndBound(t *testing.T) {
	tests := []struct {
		name    string
		problem *Problem
		want    []int
		wantObj float64
	}{
		{
			name: "triangle with degree cap one",
			problem: packing(
				[]float64{0.9, 0.8, 0.7},
				[][]float64{{1, 1, 0}, {1, 0, 1}, {0, 1, 1}},
				[]float64{1, 1, 1},
			),
			want:    []int{0},
			wantObj: 0.9,
		},
		{
			name: "two compatible edges beat one strong edge",
			problem: packing(
				[]float64{1.0, 0.6, 0.6},
				[][]float64{{1, 1, 0}, {1, 0, 1}},
				[]float64{1, 1},
			),
			want:    []int{1, 2},
			wantObj: 1.2,
		},
		{
			name:    "unconstrained keeps positive objectives",
			problem: packing([]float64{0.5, -0.1, 0.2}, nil, nil),
			want:    []int{0, 2},
			wantObj: 0.7,
		},
		{
			name: "capacity two",
			problem: packing(
				[]float64{0.3, 0.5, 0.4},
				[][]float64{{1, 1, 1}},
				[]float64{2},
			),
			want:    []int{1, 2},
			wantObj: 0.9,
		},
		{
			name:    "odd cycle",
			problem: oddCycle(),
			wantObj: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sol, err := BranchAndBound{}.Solve(context.Background(), tt.problem)
			if err != nil {
				t.Fatalf("Solve() error = %v", err)
			}
			if !sol.Optimal() {
				t.Errorf("Status = %v, want optimal", sol.Status)
			}
			if tt.want != nil && !equalInts(selected(sol.X), tt.want) {
				t.Errorf("selected %v, want %v", selected(sol.X), tt.want)
			}
			if math.Abs(sol.Objective-tt.wantObj) > 1e-9 {
				t.Errorf("Objective = %v, want %v", sol.Objective, tt.wantObj)
			}
			if !tt.problem.Feasible(sol.X) {
				t.Error("solution violates constraints")
			}
			for j, v := range sol.X {
				if v != 0 && v != 1 {
					t.Errorf("x[%d] = %v is not binary", j, v)
				}
			}
		})
	}
}

func TestGreedyIsFeasibleButNotOptimal(t *testing.T) {
	p := packing(
		[]float64{1.0, 0.6, 0.6},
		[][]float64{{1, 1, 0}, {1, 0, 1}},
		[]float64{1, 1},
	)
	sol, err := Greedy{}.Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if sol.Status != StatusHeuristic {
		t.Errorf("Status = %v, want heuristic", sol.Status)
	}
	if got := selected(sol.X); !equalInts(got, []int{0}) {
		t.Errorf("selected %v, want [0]", got)
	}
	if !p.Feasible(sol.X) {
		t.Error("greedy solution violates constraints")
	}
}

func TestGreedyTieBreaksOnIndex(t *testing.T) {
	p := packing([]float64{0.5, 0.5}, [][]float64{{1, 1}}, []float64{1})
	sol, err := Greedy{}.Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if got := selected(sol.X); !equalInts(got, []int{0}) {
		t.Errorf("selected %v, want [0]", got)
	}
}

func TestBranchAndBoundHonoursTinyGains(t *testing.T) {
	// greedy takes x0; the pair x1,x2 is better by 8e-10 only
	p := packing(
		[]float64{2, 1 + 4e-10, 1 + 4e-10},
		[][]float64{{1, 1, 0}, {1, 0, 1}},
		[]float64{1, 1},
	)
	if got := selected(greedy(p)); !equalInts(got, []int{0}) {
		t.Fatalf("greedy picked %v, want [0]", got)
	}

	sol, err := BranchAndBound{}.Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if got := selected(sol.X); !equalInts(got, []int{1, 2}) {
		t.Errorf("selected %v, want [1 2]", got)
	}
	if !sol.Optimal() {
		t.Errorf("Status = %s, want optimal", sol.Status)
	}
}

func TestNodeLimitKeepsIncumbent(t *testing.T) {
	p := oddCycle()
	sol, err := BranchAndBound{MaxNodes: 1}.Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if sol.Status != StatusNodeLimit {
		t.Errorf("Status = %v, want node_limit", sol.Status)
	}
	if sol.Optimal() {
		t.Error("node-limited solution reported optimal")
	}
	if !p.Feasible(sol.X) {
		t.Error("incumbent violates constraints")
	}
	if sol.Objective < 2-1e-9 {
		t.Errorf("Objective = %v, want the greedy value 2", sol.Objective)
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := oddCycle()
	sol, err := BranchAndBound{}.Solve(ctx, p)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if sol.Status != StatusInterrupted {
		t.Errorf("Status = %v, want interrupted", sol.Status)
	}
	if !p.Feasible(sol.X) {
		t.Error("incumbent violates constraints")
	}
}

func TestSolveErrors(t *testing.T) {
	tests := []struct {
		name    string
		problem *Problem
		wantErr error
	}{
		{
			name:    "negative right-hand side",
			problem: packing([]float64{1}, [][]float64{{1}}, []float64{-1}),
			wantErr: ErrInfeasible,
		},
		{
			name:    "negative coefficient",
			problem: packing([]float64{1, 1}, [][]float64{{1, -1}}, []float64{1}),
			wantErr: ErrInvalidProblem,
		},
		{
			name:    "row count mismatch",
			problem: packing([]float64{1}, [][]float64{{1}}, []float64{1, 1}),
			wantErr: ErrInvalidProblem,
		},
		{
			name:    "NaN objective",
			problem: packing([]float64{math.NaN()}, nil, nil),
			wantErr: ErrInvalidProblem,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, s := range []Solver{BranchAndBound{}, Greedy{}} {
				if _, err := s.Solve(context.Background(), tt.problem); !errors.Is(err, tt.wantErr) {
					t.Errorf("%T: error = %v, want %v", s, err, tt.wantErr)
				}
			}
		})
	}
}
