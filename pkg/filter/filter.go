// Package filter marks pair-graph edges active or inactive: an intensity
// plausibility filter followed by inference expansion of complex edges.
package filter

import (
	"github.com/ChrisMcGann/decharger/pkg/core"
	"github.com/ChrisMcGann/decharger/pkg/explain"
	"github.com/ChrisMcGann/decharger/pkg/graph"
)

// Config holds filtering configuration
type Config struct {
	Intensity       Intensity
	InferencePasses int     // expansion passes (0 = no expansion)
	Threshold       float64 // log probability an inferred edge must reach
}

// Stats reports how many edges each step changed.
type Stats struct {
	IntensityRejected int
	Inferred          int
}

// Apply runs the intensity filter on every edge, then the inference
// expansion. Neither step fails; they only toggle edge activity.
func (c *Config) Apply(g *graph.Graph, features []core.Feature, ex *explain.Explainer) Stats {
	var stats Stats

	if c.Intensity.Enabled {
		stats.IntensityRejected = c.Intensity.Filter(g, features)
	}

	if c.InferencePasses > 0 {
		stats.Inferred = Infer(g, ex, c.InferencePasses, c.Threshold)
	}

	return stats
}
