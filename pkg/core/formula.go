package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// Formula is an elemental composition. Counts may be negative to describe
// losses (e.g. "H-2O-1" is a water loss).
type Formula struct {
	counts map[string]int
}

// ParseFormula parses formulas such as "Na", "NH4", "H-2O-1" or "(2)H4H-4".
// An isotope is written as "(massnumber)Symbol".
func ParseFormula(s string) (Formula, error) {
	f := Formula{counts: make(map[string]int)}
	s = strings.TrimSpace(s)
	if s == "" {
		return f, fmt.Errorf("empty formula")
	}

	i := 0
	for i < len(s) {
		start := i
		isotope := ""

		// Optional isotope prefix
		if s[i] == '(' {
			end := strings.IndexByte(s[i:], ')')
			if end < 0 {
				return f, fmt.Errorf("formula %q: unterminated isotope prefix at %d", s, i)
			}
			isotope = s[i : i+end+1]
			i += end + 1
		}

		if i >= len(s) || !unicode.IsUpper(rune(s[i])) {
			return f, fmt.Errorf("formula %q: expected element symbol at %d", s, i)
		}
		j := i + 1
		for j < len(s) && unicode.IsLower(rune(s[j])) {
			j++
		}
		symbol := isotope + s[i:j]
		if _, ok := lookupMass(symbol); !ok {
			return f, fmt.Errorf("formula %q: unknown element %q", s, symbol)
		}
		i = j

		// Optional signed count
		k := i
		if k < len(s) && s[k] == '-' {
			k++
		}
		for k < len(s) && unicode.IsDigit(rune(s[k])) {
			k++
		}
		count := 1
		if k > i {
			n, err := strconv.Atoi(s[i:k])
			if err != nil {
				return f, fmt.Errorf("formula %q: invalid count %q after %s", s, s[i:k], s[start:i])
			}
			count = n
		}
		i = k

		f.counts[symbol] += count
		if f.counts[symbol] == 0 {
			delete(f.counts, symbol)
		}
	}

	return f, nil
}

func lookupMass(symbol string) (float64, bool) {
	if strings.HasPrefix(symbol, "(") {
		m, ok := isotopeMasses[symbol]
		return m, ok
	}
	m, ok := elementMasses[symbol]
	return m, ok
}

// MonoMass returns the monoisotopic mass of the formula.
func (f Formula) MonoMass() float64 {
	mass := 0.0
	for _, symbol := range f.symbols() {
		m, _ := lookupMass(symbol)
		mass += float64(f.counts[symbol]) * m
	}
	return mass
}

// symbols returns the element symbols in sorted order so that mass sums are
// reproducible.
func (f Formula) symbols() []string {
	symbols := make([]string, 0, len(f.counts))
	for s := range f.counts {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// Count returns the number of atoms of symbol (isotopes use "(N)X").
func (f Formula) Count(symbol string) int {
	return f.counts[symbol]
}

// IsEmpty reports whether all element counts cancel out.
func (f Formula) IsEmpty() bool {
	return len(f.counts) == 0
}

// String returns a canonical representation with symbols in sorted order.
func (f Formula) String() string {
	var b strings.Builder
	for _, s := range f.symbols() {
		b.WriteString(s)
		if n := f.counts[s]; n != 1 {
			b.WriteString(strconv.Itoa(n))
		}
	}
	return b.String()
}
