package graph

import "fmt"

// ChargeMode decides which putative charges are tried for a feature that
// carries a charge hint.
type ChargeMode string

const (
	// ChargeFromFeature only tries the hinted charge.
	ChargeFromFeature ChargeMode = "feature"
	// ChargeHeuristic tries charges within two of the hint and 2x/3x
	// multiples or fractions of it.
	ChargeHeuristic ChargeMode = "heuristic"
	// ChargeAll ignores hints.
	ChargeAll ChargeMode = "all"
)

// ParseChargeMode converts a name into a ChargeMode. The empty string
// selects ChargeHeuristic.
func ParseChargeMode(s string) (ChargeMode, error) {
	switch ChargeMode(s) {
	case "":
		return ChargeHeuristic, nil
	case ChargeFromFeature, ChargeHeuristic, ChargeAll:
		return ChargeMode(s), nil
	}
	return "", fmt.Errorf("unknown charge mode %q (want feature, heuristic or all)", s)
}

// Testworthy reports whether putative should be tried for a feature with the
// given hint. otherUnchanged tells whether the other feature of the pair
// keeps its hinted charge; the heuristic never changes both at once. Hints
// are compared by magnitude, but in positive mode a hint of the opposite
// sign never matches.
func (m ChargeMode) Testworthy(hint, putative int, otherUnchanged, negative bool) bool {
	if !negative && hint*putative < 0 {
		return false
	}

	h, p := abs(hint), abs(putative)
	if h == 0 || m == ChargeAll {
		return true
	}

	switch m {
	case ChargeFromFeature:
		return h == p
	case ChargeHeuristic:
		if !otherUnchanged && h != p {
			return false
		}
		if abs(h-p) <= 2 {
			return true
		}
		return h*2 == p || h*3 == p || h == p*2 || h == p*3
	}
	return false
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
