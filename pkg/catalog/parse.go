package catalog

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ChrisMcGann/decharger/pkg/core"
)

// probabilitySumTolerance is the allowed deviation of the summed charged
// adduct probabilities from 1.
const probabilitySumTolerance = 0.001

// NewEntry builds an entry from a formula, a signed charge and a probability
// in (0,1]. The mass is the ion contribution of one instance: electrons are
// removed for positive charges and added for negative ones, and "H-1" with a
// negative charge is a plain deprotonation.
func NewEntry(formula string, charge int, prob, rtShift float64, mapLabel string) (Entry, error) {
	formula = strings.TrimSpace(formula)
	f, err := core.ParseFormula(formula)
	if err != nil {
		return Entry{}, err
	}
	if math.IsNaN(prob) || prob <= 0 || prob > 1 {
		return Entry{}, fmt.Errorf("adduct %s: probability %g is not in (0,1]", formula, prob)
	}

	return Entry{
		Label:    formula + chargeSuffix(charge),
		Formula:  formula,
		Charge:   charge,
		Mass:     ionMass(formula, f, charge),
		LogProb:  math.Log(prob),
		RTShift:  rtShift,
		MapLabel: mapLabel,
	}, nil
}

// ionMass is the mass one instance of formula contributes to an ion of the
// given charge.
func ionMass(formula string, f core.Formula, charge int) float64 {
	switch {
	case charge > 0:
		return f.MonoMass() - float64(charge)*core.ElectronMass
	case charge < 0 && formula == "H-1":
		return -core.ProtonMass
	case charge < 0:
		return f.MonoMass() + float64(-charge)*core.ElectronMass
	}
	return f.MonoMass()
}

func chargeSuffix(q int) string {
	switch {
	case q > 0:
		return strings.Repeat("+", q)
	case q < 0:
		return strings.Repeat("-", -q)
	}
	return ""
}

// parseCharge reads "+", "++", "-", "--" or "0".
func parseCharge(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "0" {
		return 0, nil
	}
	pos := strings.Count(s, "+")
	neg := strings.Count(s, "-")
	switch {
	case pos > 0 && neg > 0:
		return 0, fmt.Errorf("charge %q mixes '+' and '-'", s)
	case pos+neg != len(s) || s == "":
		return 0, fmt.Errorf("charge %q must only contain '+', '-' or be '0'", s)
	case pos > 0:
		return pos, nil
	}
	return -neg, nil
}

// ParseAdduct parses one adduct in the form
// "Elements:Charge:Probability[:RTShift[:Label]]", e.g. "Na:+:0.25",
// "Ca:++:0.5" or "(2)H4H-4:0:1:-3:heavy".
func ParseAdduct(s string) (Entry, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 3 || len(parts) > 5 {
		return Entry{}, fmt.Errorf("adduct %q: expected 3 to 5 ':'-separated fields, got %d", s, len(parts))
	}

	charge, err := parseCharge(parts[1])
	if err != nil {
		return Entry{}, fmt.Errorf("adduct %q: %w", s, err)
	}

	prob, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return Entry{}, fmt.Errorf("adduct %q: invalid probability: %w", s, err)
	}

	var rtShift float64
	if len(parts) >= 4 && strings.TrimSpace(parts[3]) != "" {
		rtShift, err = strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil {
			return Entry{}, fmt.Errorf("adduct %q: invalid RT shift: %w", s, err)
		}
	}

	var mapLabel string
	if len(parts) == 5 {
		mapLabel = strings.TrimSpace(parts[4])
	}

	e, err := NewEntry(parts[0], charge, prob, rtShift, mapLabel)
	if err != nil {
		return Entry{}, fmt.Errorf("adduct %q: %w", s, err)
	}
	return e, nil
}

// ParseAdducts parses a list of adduct strings and loads them into a catalog.
// Blank items and items starting with '#' are skipped. The probabilities of
// the charged adducts must sum to one.
func ParseAdducts(specs []string) (*Catalog, error) {
	var entries []Entry
	var problems []string
	for _, s := range specs {
		s = strings.TrimSpace(s)
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		e, err := ParseAdduct(s)
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		entries = append(entries, e)
	}
	if len(problems) > 0 {
		return nil, &ConfigError{Problems: problems}
	}
	return loadChecked(entries)
}

// loadChecked verifies the charged probability sum and loads the catalog.
func loadChecked(entries []Entry) (*Catalog, error) {
	sum := 0.0
	charged := 0
	for _, e := range entries {
		if e.Charge != 0 {
			sum += e.Probability()
			charged++
		}
	}
	if charged > 0 && math.Abs(1-sum) > probabilitySumTolerance {
		return nil, &ConfigError{Problems: []string{
			fmt.Sprintf("charged adduct probabilities sum to %.4f, expected 1", sum),
		}}
	}
	return Load(entries)
}

// LoadFromCSV loads adducts from a CSV table with the header
// "label,formula,charge,probability,rt_shift". Columns may appear in any
// order; label and rt_shift are optional. The label column becomes the map
// label of the entry.
func LoadFromCSV(r io.Reader) (*Catalog, error) {
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		return nil, fmt.Errorf("empty adduct table")
	}
	columns := make(map[string]int)
	for i, name := range strings.Split(scanner.Text(), ",") {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"formula", "charge", "probability"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("adduct table header is missing column %q", required)
		}
	}

	field := func(parts []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(parts) {
			return ""
		}
		return strings.TrimSpace(parts[i])
	}

	var entries []Entry
	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 3 {
			return nil, fmt.Errorf("line %d: invalid format, expected at least 3 comma-separated fields", lineNum)
		}

		chargeStr := field(parts, "charge")
		charge, err := strconv.Atoi(chargeStr)
		if err != nil {
			if charge, err = parseCharge(chargeStr); err != nil {
				return nil, fmt.Errorf("line %d: invalid charge '%s': %w", lineNum, chargeStr, err)
			}
		}

		probStr := field(parts, "probability")
		prob, err := strconv.ParseFloat(probStr, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid probability '%s': %w", lineNum, probStr, err)
		}

		var rtShift float64
		if s := field(parts, "rt_shift"); s != "" {
			if rtShift, err = strconv.ParseFloat(s, 64); err != nil {
				return nil, fmt.Errorf("line %d: invalid RT shift '%s': %w", lineNum, s, err)
			}
		}

		e, err := NewEntry(field(parts, "formula"), charge, prob, rtShift, field(parts, "label"))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		entries = append(entries, e)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}

	return loadChecked(entries)
}

// catalogFile is the YAML layout accepted by LoadYAML. Both lists may be
// used in the same file.
type catalogFile struct {
	Adducts []string    `yaml:"adducts"`
	Entries []fileEntry `yaml:"entries"`
}

type fileEntry struct {
	Formula     string  `yaml:"formula"`
	Charge      int     `yaml:"charge"`
	Probability float64 `yaml:"probability"`
	RTShift     float64 `yaml:"rt_shift"`
	Label       string  `yaml:"label"`
}

// LoadYAML loads a catalog from a YAML document such as
//
//	adducts:
//	  - "H:+:0.6"
//	  - "Na:+:0.4"
//	entries:
//	  - {formula: "H-2O-1", charge: 0, probability: 0.05}
func LoadYAML(r io.Reader) (*Catalog, error) {
	var file catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse adduct YAML: %w", err)
	}

	var entries []Entry
	var problems []string
	for _, s := range file.Adducts {
		if strings.HasPrefix(strings.TrimSpace(s), "#") {
			continue
		}
		e, err := ParseAdduct(s)
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		entries = append(entries, e)
	}
	for i, fe := range file.Entries {
		e, err := NewEntry(fe.Formula, fe.Charge, fe.Probability, fe.RTShift, fe.Label)
		if err != nil {
			problems = append(problems, fmt.Sprintf("entries[%d]: %v", i, err))
			continue
		}
		entries = append(entries, e)
	}
	if len(problems) > 0 {
		return nil, &ConfigError{Problems: problems}
	}

	return loadChecked(entries)
}
