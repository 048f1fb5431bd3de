package cmd

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/ChrisMcGann/decharger/pkg/reader/features"
)

type span struct {
	lo, hi float64
}

func newSpan() span {
	return span{lo: math.Inf(1), hi: math.Inf(-1)}
}

func (s *span) add(v float64) {
	s.lo = math.Min(s.lo, v)
	s.hi = math.Max(s.hi, v)
}

// summarize prints counts, value ranges and the charge hint histogram of a
// feature table.
func summarize(r io.Reader, out io.Writer) error {
	reader := features.NewReader(r)

	count, invalid := 0, 0
	mz, rt, intensity := newSpan(), newSpan(), newSpan()
	charges := make(map[int]int)
	ids := make(map[string]bool)
	duplicates := 0

	for reader.Next() {
		f := reader.Feature()
		count++
		if err := f.Validate(); err != nil {
			invalid++
			continue
		}
		if ids[f.ID] {
			duplicates++
		}
		ids[f.ID] = true
		mz.add(f.MZ)
		rt.add(f.RT)
		intensity.add(f.Intensity)
		charges[f.Charge]++
	}
	if err := reader.Err(); err != nil {
		return fmt.Errorf("error reading input file: %w", err)
	}

	fmt.Fprintf(out, "Features: %d\n", count)
	if invalid > 0 {
		fmt.Fprintf(out, "Invalid: %d\n", invalid)
	}
	if duplicates > 0 {
		fmt.Fprintf(out, "Duplicate IDs: %d\n", duplicates)
	}
	if count == invalid {
		return nil
	}
	fmt.Fprintf(out, "m/z: %.4f - %.4f\n", mz.lo, mz.hi)
	fmt.Fprintf(out, "RT: %.3f - %.3f\n", rt.lo, rt.hi)
	fmt.Fprintf(out, "Intensity: %.4g - %.4g\n", intensity.lo, intensity.hi)

	keys := make([]int, 0, len(charges))
	for z := range charges {
		keys = append(keys, z)
	}
	sort.Ints(keys)
	fmt.Fprintf(out, "Charges:\n")
	for _, z := range keys {
		label := fmt.Sprintf("%d", z)
		if z == 0 {
			label = "unknown"
		}
		fmt.Fprintf(out, "  %-8s %d\n", label, charges[z])
	}

	return nil
}
