package core

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Feature is one detected ion signal: an isotope-pattern centroid with its
// position in m/z and retention time.
type Feature struct {
	ID        string
	MZ        float64
	RT        float64
	Intensity float64
	Charge    int // a-priori charge hint; 0 means unknown
}

// ValidationError represents an error found during feature validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}

// Validate checks that a feature can take part in decharging.
func (f *Feature) Validate() error {
	var errs []string

	if f.ID == "" {
		errs = append(errs, "id is required")
	}
	if math.IsNaN(f.MZ) || math.IsInf(f.MZ, 0) {
		errs = append(errs, "m/z is not finite")
	} else if f.MZ <= 0 {
		errs = append(errs, "m/z must be positive")
	}
	if math.IsNaN(f.RT) || math.IsInf(f.RT, 0) {
		errs = append(errs, "retention time is not finite")
	}
	if math.IsNaN(f.Intensity) || math.IsInf(f.Intensity, 0) {
		errs = append(errs, "intensity is not finite")
	} else if f.Intensity < 0 {
		errs = append(errs, "intensity must be non-negative")
	}

	if len(errs) > 0 {
		return &ValidationError{
			Field:   fmt.Sprintf("Feature %q", f.ID),
			Message: strings.Join(errs, "; "),
		}
	}

	return nil
}

// Name returns the feature name in format "ID@mz/charge"
func (f *Feature) Name() string {
	return fmt.Sprintf("%s@%.4f/%d", f.ID, f.MZ, f.Charge)
}

// SortOrder returns the indices of features ordered by retention time, then
// m/z, then input position. The input slice is not modified.
func SortOrder(features []Feature) []int {
	order := make([]int, len(features))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := features[order[i]], features[order[j]]
		if a.RT != b.RT {
			return a.RT < b.RT
		}
		return a.MZ < b.MZ
	})
	return order
}

// AreSortedByRT checks if features are sorted by retention time in ascending order.
func AreSortedByRT(features []Feature) bool {
	for i := 1; i < len(features); i++ {
		if features[i].RT < features[i-1].RT {
			return false
		}
	}
	return true
}
