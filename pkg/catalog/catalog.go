// Package catalog holds the adduct building blocks used to explain mass
// differences between features.
package catalog

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ChrisMcGann/decharger/pkg/core"
)

// Entry is a single adduct: a chemical addition or loss with a known charge
// and mass contribution.
type Entry struct {
	Label    string  `yaml:"label" validate:"required"`
	Formula  string  `yaml:"formula" validate:"required"`
	Charge   int     `yaml:"charge"`
	Mass     float64 `yaml:"mass"`
	LogProb  float64 `yaml:"log_prob" validate:"lte=0"`
	RTShift  float64 `yaml:"rt_shift"`
	MapLabel string  `yaml:"map_label,omitempty"`
}

// Probability returns exp(LogProb).
func (e Entry) Probability() float64 {
	return math.Exp(e.LogProb)
}

// IsNeutral reports whether the entry carries no charge.
func (e Entry) IsNeutral() bool {
	return e.Charge == 0
}

// ConfigError collects every problem found while loading a catalog.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid adduct catalog: %s", strings.Join(e.Problems, "; "))
}

// Catalog is an immutable, validated list of entries. Entry indices are
// stable and used by composition descriptors.
type Catalog struct {
	entries []Entry
	byLabel map[string]int
	maxQ    int
}

var entryValidate = validator.New()

// massAgreement is how far an entry's mass may be from the mass implied by
// its formula and charge.
const massAgreement = 1e-6

// Load validates entries and builds a catalog. Malformed entries are never
// dropped: any problem fails the whole load.
func Load(entries []Entry) (*Catalog, error) {
	c := &Catalog{
		entries: make([]Entry, len(entries)),
		byLabel: make(map[string]int, len(entries)),
	}
	copy(c.entries, entries)

	var problems []string
	hasPos, hasNeg := false, false

	for i, e := range c.entries {
		where := fmt.Sprintf("entry %d (%s)", i, e.Label)

		if err := entryValidate.Struct(e); err != nil {
			if verrs, ok := err.(validator.ValidationErrors); ok {
				for _, fe := range verrs {
					problems = append(problems, fmt.Sprintf("%s: field %s failed '%s'", where, fe.Field(), fe.Tag()))
				}
			} else {
				problems = append(problems, fmt.Sprintf("%s: %v", where, err))
			}
		}

		formula := strings.TrimSpace(e.Formula)
		if math.IsNaN(e.Mass) || math.IsInf(e.Mass, 0) {
			problems = append(problems, fmt.Sprintf("%s: mass is not finite", where))
		} else if formula != "" {
			if f, err := core.ParseFormula(formula); err != nil {
				problems = append(problems, fmt.Sprintf("%s: %v", where, err))
			} else if want := ionMass(formula, f, e.Charge); math.Abs(e.Mass-want) > massAgreement {
				problems = append(problems, fmt.Sprintf("%s: mass %.6f does not match %s with charge %d (%.6f)",
					where, e.Mass, formula, e.Charge, want))
			}
		}
		if math.IsNaN(e.LogProb) || math.IsInf(e.LogProb, 0) {
			problems = append(problems, fmt.Sprintf("%s: log probability is not finite", where))
		}
		if e.Label != "" {
			if prev, dup := c.byLabel[e.Label]; dup {
				problems = append(problems, fmt.Sprintf("%s: duplicate label (first used by entry %d)", where, prev))
			} else {
				c.byLabel[e.Label] = i
			}
		}

		switch {
		case e.Charge > 0:
			hasPos = true
		case e.Charge < 0:
			hasNeg = true
		}
		if q := abs(e.Charge); q > c.maxQ {
			c.maxQ = q
		}
	}

	if hasPos && hasNeg {
		problems = append(problems, "entries mix positive and negative charges; use neutral complexes instead")
	}

	if len(problems) > 0 {
		return nil, &ConfigError{Problems: problems}
	}
	return c, nil
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entry returns the entry at index i.
func (c *Catalog) Entry(i int) Entry {
	return c.entries[i]
}

// Entries returns a copy of all entries in load order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Lookup returns the index of the entry with the given label.
func (c *Catalog) Lookup(label string) (int, bool) {
	i, ok := c.byLabel[label]
	return i, ok
}

// MaxAbsoluteCharge returns the largest single-entry charge magnitude.
func (c *Catalog) MaxAbsoluteCharge() int {
	return c.maxQ
}

// Default returns the most probable entry with a charge magnitude of one
// (usually H+ or H-1-). It is used to annotate features that could not be
// grouped.
func (c *Catalog) Default() (Entry, bool) {
	idx := -1
	for i, e := range c.entries {
		if abs(e.Charge) != 1 {
			continue
		}
		if idx < 0 || e.LogProb > c.entries[idx].LogProb ||
			(e.LogProb == c.entries[idx].LogProb && e.Label < c.entries[idx].Label) {
			idx = i
		}
	}
	if idx < 0 {
		return Entry{}, false
	}
	return c.entries[idx], true
}

// LogProbRange returns the lowest and highest log probability over all
// entries. Both are zero for an empty catalog.
func (c *Catalog) LogProbRange() (lowest, highest float64) {
	for i, e := range c.entries {
		if i == 0 || e.LogProb < lowest {
			lowest = e.LogProb
		}
		if i == 0 || e.LogProb > highest {
			highest = e.LogProb
		}
	}
	return lowest, highest
}

// Labels returns all labels in sorted order.
func (c *Catalog) Labels() []string {
	labels := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		labels = append(labels, e.Label)
	}
	sort.Strings(labels)
	return labels
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
