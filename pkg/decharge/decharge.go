// Package decharge groups features that are different charge states or
// adducts of the same neutral species. A run builds the pair graph, filters
// and expands its edges, selects a consistent edge subset per connected
// component by integer programming and reports the resulting groups.
package decharge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ChrisMcGann/decharger/pkg/catalog"
	"github.com/ChrisMcGann/decharger/pkg/core"
	"github.com/ChrisMcGann/decharger/pkg/explain"
	"github.com/ChrisMcGann/decharger/pkg/filter"
	"github.com/ChrisMcGann/decharger/pkg/graph"
	"github.com/ChrisMcGann/decharger/pkg/solver"
)

// Decharger runs the pipeline for one catalog and parameter set. It holds
// no per-run state and may be used by several goroutines.
type Decharger struct {
	params    Params
	ex        *explain.Explainer
	threshold float64
	solver    solver.Solver
	logger    *slog.Logger
}

// Option configures a Decharger.
type Option func(*Decharger)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Decharger) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithSolver replaces the branch and bound solver.
func WithSolver(s solver.Solver) Option {
	return func(d *Decharger) {
		if s != nil {
			d.solver = s
		}
	}
}

// New validates the parameters against the catalog and precomputes the
// composition tables. Every error wraps ErrConfig.
func New(cat *catalog.Catalog, p Params, opts ...Option) (*Decharger, error) {
	if cat == nil {
		return nil, fmt.Errorf("%w: no adduct catalog", ErrConfig)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	mode, err := graph.ParseChargeMode(p.ChargeMode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	p.ChargeMode = string(mode)

	for _, e := range cat.Entries() {
		if p.NegativeMode && e.Charge > 0 {
			return nil, fmt.Errorf("%w: adduct %s is positive but negative mode is set", ErrConfig, e.Label)
		}
		if !p.NegativeMode && e.Charge < 0 {
			return nil, fmt.Errorf("%w: adduct %s is negative; enable negative mode", ErrConfig, e.Label)
		}
	}

	d := &Decharger{
		params: p,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.solver == nil {
		d.solver = solver.BranchAndBound{MaxNodes: p.SolverMaxNodes}
	}

	if !hasRTShifts(cat) && d.params.RTWindow != d.params.RTWindowLocal {
		w := min(d.params.RTWindow, d.params.RTWindowLocal)
		d.logger.Warn("no adduct has a retention time shift; using one retention time window",
			"rt_window", d.params.RTWindow, "rt_window_local", d.params.RTWindowLocal, "using", w)
		d.params.RTWindow, d.params.RTWindowLocal = w, w
	}

	d.ex, err = explain.NewExplainer(cat, explain.Config{
		ChargeMin:   p.ChargeMin,
		ChargeMax:   p.ChargeMax,
		MaxRepeats:  p.MaxRepeats,
		MaxNeutrals: p.MaxNeutrals,
		Penalty:     p.Penalty,
		Strategy:    explain.Strategy(p.Strategy),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	d.threshold = d.params.threshold(d.ex)

	d.logger.Debug("decharger ready",
		"adducts", cat.Len(),
		"charge_min", p.ChargeMin,
		"charge_max", p.ChargeMax,
		"log_prob_threshold", d.threshold)

	return d, nil
}

// Params returns the effective parameters.
func (d *Decharger) Params() Params {
	return d.params
}

func hasRTShifts(cat *catalog.Catalog) bool {
	for _, e := range cat.Entries() {
		if e.RTShift != 0 {
			return true
		}
	}
	return false
}

// Run decharges features. The input is not modified and may be in any
// order; every feature appears in the result exactly once, either in a
// group or as a singleton. Problems confined to one component are reported
// as diagnostics, while invalid features and cancellation fail the run.
func (d *Decharger) Run(ctx context.Context, features []core.Feature) (*Result, error) {
	ctx, span := tracer.Start(ctx, "decharge.Run",
		trace.WithAttributes(attribute.Int("decharge.features", len(features))))
	defer span.End()

	start := time.Now()
	res, err := d.run(ctx, features)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("decharge.groups", len(res.Groups)),
		attribute.Int("decharge.singletons", len(res.Singletons)),
		attribute.Int("decharge.diagnostics", len(res.Diagnostics)),
	)
	span.SetStatus(codes.Ok, "")

	d.logger.Info("decharging finished",
		"features", len(features),
		"edges", len(res.Edges),
		"selected", res.Stats.Selection.Selected,
		"groups", len(res.Groups),
		"singletons", len(res.Singletons),
		"diagnostics", len(res.Diagnostics),
		"elapsed", time.Since(start))

	return res, nil
}

func (d *Decharger) run(ctx context.Context, input []core.Feature) (*Result, error) {
	for i := range input {
		if err := input[i].Validate(); err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
	}

	order := core.SortOrder(input)
	features := make([]core.Feature, len(order))
	for k, i := range order {
		features[k] = input[i]
	}

	res := &Result{Stats: Stats{Features: len(features)}}
	res.Diagnostics = duplicateIDs(features)

	var g *graph.Graph
	err := d.stage(ctx, "build", func(ctx context.Context) error {
		var err error
		g, res.Stats.Graph, err = graph.Build(ctx, features, d.ex, d.params.graphParams(d.threshold))
		return err
	})
	if err != nil {
		return nil, err
	}
	edgesBuilt.Add(float64(res.Stats.Graph.Edges))
	edgesRejected.WithLabelValues(graph.RejectComplex.String()).Add(float64(res.Stats.Graph.Complex))
	d.logger.Debug("pair graph built",
		"pairs", res.Stats.Graph.Pairs,
		"hits", res.Stats.Graph.Hits,
		"edges", res.Stats.Graph.Edges,
		"complex", res.Stats.Graph.Complex)

	err = d.stage(ctx, "filter", func(ctx context.Context) error {
		cfg := filter.Config{
			Intensity: filter.Intensity{
				Enabled:       d.params.Intensity.Enabled,
				MaxRatio:      d.params.Intensity.MaxRatio,
				AcrossCharges: d.params.Intensity.AcrossCharges,
			},
			InferencePasses: d.params.InferencePasses,
			Threshold:       d.threshold,
		}
		res.Stats.Filter = cfg.Apply(g, features, d.ex)
		return nil
	})
	if err != nil {
		return nil, err
	}
	edgesRejected.WithLabelValues(graph.RejectIntensity.String()).Add(float64(res.Stats.Filter.IntensityRejected))
	edgesInferred.Add(float64(res.Stats.Filter.Inferred))
	d.logger.Debug("edges filtered",
		"intensity_rejected", res.Stats.Filter.IntensityRejected,
		"inferred", res.Stats.Filter.Inferred,
		"active", g.CountActive())

	err = d.stage(ctx, "select", func(ctx context.Context) error {
		var diags []Diagnostic
		res.Stats.Selection, diags = d.selectEdges(ctx, g, features)
		res.Diagnostics = append(res.Diagnostics, diags...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = d.stage(ctx, "group", func(ctx context.Context) error {
		var diags []Diagnostic
		res.Groups, res.Singletons, diags = d.group(g, features)
		res.Diagnostics = append(res.Diagnostics, diags...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	res.Edges = edgeRecords(g, features)
	return res, nil
}

// stage checks for cancellation, then runs fn inside a span and records its
// duration.
func (d *Decharger) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	ctx, span := tracer.Start(ctx, "decharge."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	stageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func duplicateIDs(features []core.Feature) []Diagnostic {
	count := make(map[string]int, len(features))
	for _, f := range features {
		count[f.ID]++
	}
	var diags []Diagnostic
	for _, f := range features {
		if n := count[f.ID]; n > 1 {
			diags = append(diags, Diagnostic{
				Severity:   SeverityWarning,
				Code:       CodeDuplicateID,
				Message:    fmt.Sprintf("feature id %q is used %d times", f.ID, n),
				FeatureIDs: []string{f.ID},
			})
			count[f.ID] = 0
		}
	}
	return diags
}

func edgeRecords(g *graph.Graph, features []core.Feature) []EdgeRecord {
	records := make([]EdgeRecord, len(g.Edges))
	for i := range g.Edges {
		e := &g.Edges[i]
		records[i] = EdgeRecord{
			FeatureA:    features[e.A].ID,
			FeatureB:    features[e.B].ID,
			ChargeA:     e.ChargeA,
			ChargeB:     e.ChargeB,
			Composition: e.Descriptor.Label(),
			Score:       e.Score,
			MassError:   e.MassError,
			Active:      e.Active,
			Rejection:   e.Rejection.String(),
			Inferred:    e.Inferred,
			Selected:    e.Selected,
		}
	}
	return records
}
