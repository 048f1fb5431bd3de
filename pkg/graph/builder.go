package graph

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ChrisMcGann/decharger/pkg/core"
	"github.com/ChrisMcGann/decharger/pkg/explain"
)

// Unit is the unit of the mass tolerance.
type Unit string

const (
	UnitDa  Unit = "Da"
	UnitPPM Unit = "ppm"
)

// Params controls edge construction. Charges are taken from the explainer
// configuration.
type Params struct {
	RTWindow      float64 // max RT difference of a pair
	RTWindowLocal float64 // max deviation from the adduct-induced RT shift
	MassWindow    float64 // max |mass difference|; 0 disables
	Tolerance     float64
	Unit          Unit
	ChargeSpan    int // max charge spread within a pair is ChargeSpan-1
	ChargeMode    ChargeMode
	NegativeMode  bool
	Threshold     float64 // descriptors below this log probability start inactive; use math.Inf(-1) to keep all
	Workers       int     // 0 means GOMAXPROCS
}

// Stats counts what the builder looked at.
type Stats struct {
	Pairs      int // feature pairs inside the RT window
	Candidates int // charge combinations tested
	Hits       int // descriptors returned by the explainer
	Identities int // identity descriptors skipped
	RTRejected int // descriptors failing the local RT check
	Edges      int
	Complex    int // edges created inactive as too complex
}

func (s *Stats) add(o Stats) {
	s.Pairs += o.Pairs
	s.Candidates += o.Candidates
	s.Hits += o.Hits
	s.Identities += o.Identities
	s.RTRejected += o.RTRejected
	s.Edges += o.Edges
	s.Complex += o.Complex
}

// tolerance returns the absolute mass tolerance for a pair of m/z values at
// their assumed charges.
func (p *Params) tolerance(mz1, mz2 float64, q1, q2 int) float64 {
	a1, a2 := math.Abs(float64(q1)), math.Abs(float64(q2))
	if p.Unit == UnitPPM {
		return mz1*p.Tolerance*1e-6*a1 + mz2*p.Tolerance*1e-6*a2
	}
	return p.Tolerance*a1 + p.Tolerance*a2
}

// Build creates one edge per explaining descriptor for every feature pair
// within the RT window. Features must be sorted by retention time; edge
// endpoints are positions in that slice. The feature range is split into
// chunks processed by a worker pool and merged in chunk order, so the
// result does not depend on the number of workers.
func Build(ctx context.Context, features []core.Feature, ex *explain.Explainer, p Params) (*Graph, Stats, error) {
	if !core.AreSortedByRT(features) {
		return nil, Stats{}, fmt.Errorf("features must be sorted by retention time")
	}

	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	n := len(features)
	chunkSize := max(1, n/(workers*4))
	numChunks := (n + chunkSize - 1) / chunkSize

	type chunkResult struct {
		edges []Edge
		stats Stats
	}
	results := make([]chunkResult, numChunks)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for c := 0; c < numChunks; c++ {
		c := c
		g.Go(func() error {
			lo := c * chunkSize
			hi := min(lo+chunkSize, n)
			res := &results[c]
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				res.edges = p.pairsFrom(features, i, ex, res.edges, &res.stats)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, Stats{}, fmt.Errorf("building pair graph: %w", err)
	}

	var stats Stats
	total := 0
	for _, r := range results {
		total += len(r.edges)
	}
	edges := make([]Edge, 0, total)
	for _, r := range results {
		edges = append(edges, r.edges...)
		stats.add(r.stats)
	}

	return New(n, edges), stats, nil
}

// pairsFrom appends the edges between feature i and every later feature
// inside the RT window.
func (p *Params) pairsFrom(features []core.Feature, i int, ex *explain.Explainer, edges []Edge, stats *Stats) []Edge {
	cfg := ex.Config()
	span := max(p.ChargeSpan, 1)
	f1 := features[i]

	for j := i + 1; j < len(features) && features[j].RT-f1.RT <= p.RTWindow; j++ {
		f2 := features[j]
		stats.Pairs++

		for q1 := cfg.ChargeMin; q1 <= cfg.ChargeMax; q1++ {
			if q1 == 0 || !p.ChargeMode.Testworthy(f1.Charge, q1, true, p.NegativeMode) {
				continue
			}
			m1 := f1.MZ * math.Abs(float64(q1))

			for q2 := max(cfg.ChargeMin, q1-span+1); q2 <= cfg.ChargeMax && q2 <= q1+span-1; q2++ {
				if q2 == 0 || !p.ChargeMode.Testworthy(f2.Charge, q2, abs(f1.Charge) == abs(q1), p.NegativeMode) {
					continue
				}
				stats.Candidates++

				diff := f2.MZ*math.Abs(float64(q2)) - m1
				if p.MassWindow > 0 && math.Abs(diff) > p.MassWindow {
					continue
				}

				for _, d := range ex.Explain(diff, q1, q2, p.tolerance(f1.MZ, f2.MZ, q1, q2), 0) {
					stats.Hits++
					if d.Identity {
						stats.Identities++
						continue
					}
					if math.Abs(f2.RT-f1.RT-d.RTShift) > p.RTWindowLocal {
						stats.RTRejected++
						continue
					}

					e := Edge{
						A:          i,
						B:          j,
						ChargeA:    q1,
						ChargeB:    q2,
						Descriptor: d,
						MassError:  diff - d.Mass,
						Score:      math.Exp(d.Score),
						Active:     true,
					}
					if d.LogProb < p.Threshold {
						e.Active = false
						e.Rejection = RejectComplex
						stats.Complex++
					}
					edges = append(edges, e)
					stats.Edges++
				}
			}
		}
	}
	return edges
}
