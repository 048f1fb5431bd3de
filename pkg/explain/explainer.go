// Package explain enumerates adduct compositions that explain the mass
// difference between two features at assumed charges.
package explain

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/ChrisMcGann/decharger/pkg/catalog"
)

// Config bounds the composition search.
type Config struct {
	ChargeMin   int
	ChargeMax   int
	MaxRepeats  int // instances of one entry per side, the default adduct excepted
	MaxNeutrals int // neutral instances per side
	Penalty     float64
	Strategy    Strategy
}

// Explainer answers Explain queries from precomputed side compositions. It
// is read-only after construction and safe for concurrent use.
type Explainer struct {
	cat      *catalog.Catalog
	cfg      Config
	logProbs []float64

	// sides[q-ChargeMin] holds every composition with net charge q
	sides  [][]side
	tables []pairTable
}

type side struct {
	terms   []Term
	counts  []int
	mass    float64
	logProb float64
	rtShift float64
	label   string
}

type pairTable struct {
	once  sync.Once
	pairs []pair
}

type pair struct {
	a, b int32
	mass float64
}

// NewExplainer validates cfg and precomputes the side compositions for every
// charge in [ChargeMin, ChargeMax].
func NewExplainer(cat *catalog.Catalog, cfg Config) (*Explainer, error) {
	if cat == nil {
		return nil, fmt.Errorf("explainer needs a catalog")
	}
	if cfg.ChargeMin > cfg.ChargeMax {
		return nil, fmt.Errorf("charge range [%d, %d] is empty", cfg.ChargeMin, cfg.ChargeMax)
	}
	if cfg.MaxRepeats < 1 {
		return nil, fmt.Errorf("max repeats must be at least 1, got %d", cfg.MaxRepeats)
	}
	if cfg.MaxNeutrals < 0 {
		return nil, fmt.Errorf("max neutrals must not be negative, got %d", cfg.MaxNeutrals)
	}
	if cfg.Penalty < 0 || math.IsNaN(cfg.Penalty) {
		return nil, fmt.Errorf("complexity penalty must be a non-negative number, got %g", cfg.Penalty)
	}
	strategy, err := ParseStrategy(string(cfg.Strategy))
	if err != nil {
		return nil, err
	}
	cfg.Strategy = strategy

	e := &Explainer{
		cat:      cat,
		cfg:      cfg,
		logProbs: make([]float64, cat.Len()),
	}
	for i := range e.logProbs {
		e.logProbs[i] = cat.Entry(i).LogProb
	}

	width := cfg.ChargeMax - cfg.ChargeMin + 1
	e.sides = make([][]side, width)
	e.tables = make([]pairTable, width*width)
	for k := range e.sides {
		e.sides[k] = e.enumerate(cfg.ChargeMin + k)
	}

	return e, nil
}

func (e *Explainer) enumerate(charge int) []side {
	var sides []side
	en := NewEnumerator(e.cat, charge, e.cfg.MaxRepeats, e.cfg.MaxNeutrals)
	// the default adduct fills whatever charge the other entries leave
	if def, ok := e.cat.Default(); ok {
		if i, ok := e.cat.Lookup(def.Label); ok && def.Charge*charge > 0 {
			en.Uncap(i)
		}
	}
	for en.Next() {
		s := side{counts: en.Counts(), terms: en.Terms()}
		for _, t := range s.terms {
			entry := e.cat.Entry(t.Entry)
			s.mass += float64(t.Count) * entry.Mass
			s.logProb += float64(t.Count) * entry.LogProb
			s.rtShift += float64(t.Count) * entry.RTShift
		}
		s.label = SideLabel(e.cat, s.terms)
		sides = append(sides, s)
	}
	return sides
}

// Catalog returns the catalog the explainer was built from.
func (e *Explainer) Catalog() *catalog.Catalog {
	return e.cat
}

// Config returns the effective configuration.
func (e *Explainer) Config() Config {
	return e.cfg
}

// Compositions returns the number of side compositions with net charge q.
func (e *Explainer) Compositions(q int) int {
	if q < e.cfg.ChargeMin || q > e.cfg.ChargeMax {
		return 0
	}
	return len(e.sides[q-e.cfg.ChargeMin])
}

// table returns the (lazily built) pair list for charges qA, qB sorted by
// mass difference, or nil when a charge is out of range.
func (e *Explainer) table(qA, qB int) []pair {
	if qA < e.cfg.ChargeMin || qA > e.cfg.ChargeMax || qB < e.cfg.ChargeMin || qB > e.cfg.ChargeMax {
		return nil
	}
	width := e.cfg.ChargeMax - e.cfg.ChargeMin + 1
	t := &e.tables[(qA-e.cfg.ChargeMin)*width+(qB-e.cfg.ChargeMin)]
	t.once.Do(func() {
		sa, sb := e.sides[qA-e.cfg.ChargeMin], e.sides[qB-e.cfg.ChargeMin]
		pairs := make([]pair, 0, len(sa)*len(sb))
		for i := range sa {
			for j := range sb {
				// equal sides are only expressed by the identity descriptor
				if qA == qB && i == j {
					continue
				}
				pairs = append(pairs, pair{a: int32(i), b: int32(j), mass: sb[j].mass - sa[i].mass})
			}
		}
		sort.SliceStable(pairs, func(i, j int) bool {
			return pairs[i].mass < pairs[j].mass
		})
		t.pairs = pairs
	})
	return t.pairs
}

// Explain returns every descriptor with side charges chargeA and chargeB
// whose mass is within max(tolAbs, tolPpm*|massDiff|/1e6) of massDiff.
// Descriptors are ordered by score, then by fewer instances, then by label.
// When massDiff is within tolerance of zero and both charges agree, the
// identity descriptor comes first. An empty result means no explanation.
func (e *Explainer) Explain(massDiff float64, chargeA, chargeB int, tolAbs, tolPpm float64) []Descriptor {
	tol := math.Max(tolAbs, tolPpm*1e-6*math.Abs(massDiff))

	var out []Descriptor
	if chargeA == chargeB && math.Abs(massDiff) <= tol {
		out = append(out, Descriptor{ChargeA: chargeA, ChargeB: chargeB, Identity: true})
	}

	pairs := e.table(chargeA, chargeB)
	lo := sort.Search(len(pairs), func(i int) bool {
		return pairs[i].mass >= massDiff-tol
	})
	var found []Descriptor
	for i := lo; i < len(pairs) && pairs[i].mass <= massDiff+tol; i++ {
		found = append(found, e.describe(chargeA, chargeB, pairs[i]))
	}
	sort.SliceStable(found, func(i, j int) bool {
		a, b := found[i], found[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Instances != b.Instances {
			return a.Instances < b.Instances
		}
		return a.key() < b.key()
	})

	return append(out, found...)
}

func (e *Explainer) describe(qA, qB int, p pair) Descriptor {
	sa := &e.sides[qA-e.cfg.ChargeMin][p.a]
	sb := &e.sides[qB-e.cfg.ChargeMin][p.b]

	d := Descriptor{
		SideA:    sa.terms,
		SideB:    sb.terms,
		LabelA:   sa.label,
		LabelB:   sb.label,
		ChargeA:  qA,
		ChargeB:  qB,
		MassA:    sa.mass,
		MassB:    sb.mass,
		Mass:     p.mass,
		LogProbA: sa.logProb,
		LogProbB: sb.logProb,
		RTShift:  sb.rtShift - sa.rtShift,
	}
	for _, t := range sa.terms {
		d.Instances += t.Count
	}
	for _, t := range sb.terms {
		d.Instances += t.Count
	}
	d.LogProb, d.Score = e.score(sa.counts, sb.counts)
	return d
}
