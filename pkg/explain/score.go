package explain

import (
	"fmt"
	"math"

	"github.com/ChrisMcGann/decharger/pkg/catalog"
)

// Strategy selects how constituent log probabilities are combined into a
// descriptor score.
type Strategy string

const (
	// StrategySum adds the log probabilities of every instance on both
	// sides (the product of the adduct probabilities).
	StrategySum Strategy = "sum"
	// StrategyMean averages the log probability per instance.
	StrategyMean Strategy = "mean"
	// StrategyDifferential only counts instances not shared by both sides.
	StrategyDifferential Strategy = "differential"
)

// ParseStrategy converts a name into a Strategy. The empty string selects
// StrategySum.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategySum:
		return StrategySum, nil
	case StrategyMean, StrategyDifferential:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("unknown score strategy %q (want sum, mean or differential)", s)
}

// score returns the differential log probability and the strategy score of
// a pair of dense count vectors.
func (e *Explainer) score(a, b []int) (logProb, score float64) {
	var total, diff float64
	var n, d int
	for i, lp := range e.logProbs {
		total += float64(a[i]+b[i]) * lp
		n += a[i] + b[i]
		k := a[i] - b[i]
		if k < 0 {
			k = -k
		}
		diff += float64(k) * lp
		d += k
	}

	switch e.cfg.Strategy {
	case StrategyMean:
		if n > 0 {
			score = total/float64(n) - e.cfg.Penalty*float64(n)
		}
	case StrategyDifferential:
		score = diff - e.cfg.Penalty*float64(d)
	default:
		score = total - e.cfg.Penalty*float64(n)
	}
	return diff, score
}

// Rescore recomputes the log probability and score of d when the
// composition of one or both sides is already established elsewhere. The
// waived side no longer contributes, and neither do the instances the other
// side shares with it.
func (e *Explainer) Rescore(d Descriptor, waiveA, waiveB bool) Descriptor {
	if d.Identity || (!waiveA && !waiveB) {
		return d
	}
	n := len(e.logProbs)
	a, b := dense(d.SideA, n), dense(d.SideB, n)
	ra, rb := make([]int, n), make([]int, n)
	for i := 0; i < n; i++ {
		if !waiveA {
			ra[i] = a[i]
			if waiveB {
				ra[i] = max(a[i]-b[i], 0)
			}
		}
		if !waiveB {
			rb[i] = b[i]
			if waiveA {
				rb[i] = max(b[i]-a[i], 0)
			}
		}
	}
	d.LogProb, d.Score = e.score(ra, rb)
	return d
}

// ComplexityThreshold is the lowest differential log probability a
// descriptor may have before it is considered over-fitted: bound instances
// of the least probable adduct and chargeMax-bound of the most probable.
func ComplexityThreshold(cat *catalog.Catalog, chargeMax, bound int) float64 {
	if cat.Len() == 0 {
		return math.Inf(-1)
	}
	lowest, highest := cat.LogProbRange()
	return lowest*float64(bound) + highest*float64(max(chargeMax-bound, 0))
}
