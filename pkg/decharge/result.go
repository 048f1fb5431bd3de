package decharge

import (
	"github.com/ChrisMcGann/decharger/pkg/filter"
	"github.com/ChrisMcGann/decharger/pkg/graph"
)

// Confidence tells whether the members of a group agree on its neutral mass.
type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
)

// Member is one feature of a charge group.
type Member struct {
	FeatureID   string
	Charge      int
	Composition string
	NeutralMass float64
}

// ChargeGroup is a set of features explained as one neutral species.
type ChargeGroup struct {
	ID          string
	NeutralMass float64
	Members     []Member
	Confidence  Confidence
	Charges     []int
}

// Singleton is a feature that could not be grouped. Charge is the hint (0
// when unknown); NeutralMass assumes the catalog's default adduct and is 0
// without a hint.
type Singleton struct {
	FeatureID   string
	Charge      int
	NeutralMass float64
}

// EdgeRecord is the diagnostic view of one pair-graph edge.
type EdgeRecord struct {
	FeatureA    string
	FeatureB    string
	ChargeA     int
	ChargeB     int
	Composition string
	Score       float64
	MassError   float64
	Active      bool
	Rejection   string
	Inferred    bool
	Selected    bool
}

// Severity of a diagnostic.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Diagnostic codes.
const (
	CodeInfeasible       = "infeasible_component"
	CodeSolverFailed     = "solver_failed"
	CodeNonOptimal       = "non_optimal"
	CodeLargeComponent   = "large_component"
	CodeMassDisagreement = "mass_disagreement"
	CodeEvenLadders      = "even_charge_ladders"
	CodeDuplicateID      = "duplicate_feature_id"
)

// Diagnostic is a problem recovered during a run.
type Diagnostic struct {
	Severity   Severity
	Code       string
	Message    string
	FeatureIDs []string
}

// SelectionStats summarizes the edge selection stage.
type SelectionStats struct {
	Components int // components with at least one active edge
	Selected   int
	NonOptimal int
	Failed     int
}

// Stats collects per-stage counters of a run.
type Stats struct {
	Features  int
	Graph     graph.Stats
	Filter    filter.Stats
	Selection SelectionStats
}

// Result is the outcome of a run: a partition of the input features into
// groups and singletons, plus the full edge list for reporting.
type Result struct {
	Groups      []ChargeGroup
	Singletons  []Singleton
	Edges       []EdgeRecord
	Diagnostics []Diagnostic
	Stats       Stats
}

// SelectedEdges returns the edges chosen by the optimizer.
func (r *Result) SelectedEdges() []EdgeRecord {
	var out []EdgeRecord
	for _, e := range r.Edges {
		if e.Selected {
			out = append(out, e)
		}
	}
	return out
}
