package decharge

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ChrisMcGann/decharger/pkg/explain"
	"github.com/ChrisMcGann/decharger/pkg/graph"
)

// ErrConfig wraps every configuration problem reported before graph work
// starts.
var ErrConfig = errors.New("invalid configuration")

// IntensityParams configures the intensity plausibility filter.
type IntensityParams struct {
	Enabled       bool    `yaml:"enabled"`
	MaxRatio      float64 `yaml:"max_ratio" validate:"gte=1"`
	AcrossCharges bool    `yaml:"across_charges"`
}

// Params holds every tunable of a decharging run. Charges are signed; in
// negative mode the range must not contain positive charges.
type Params struct {
	RTWindow      float64 `yaml:"rt_window" validate:"gte=0"`
	RTWindowLocal float64 `yaml:"rt_window_local" validate:"gte=0"`
	MassWindow    float64 `yaml:"mass_window" validate:"gte=0"`
	MassTolerance float64 `yaml:"mass_tolerance" validate:"gte=0"`
	Unit          string  `yaml:"unit" validate:"oneof=Da ppm"`

	ChargeMin    int    `yaml:"charge_min"`
	ChargeMax    int    `yaml:"charge_max"`
	ChargeSpan   int    `yaml:"charge_span" validate:"gte=1"`
	ChargeMode   string `yaml:"charge_mode" validate:"omitempty,oneof=feature heuristic all"`
	NegativeMode bool   `yaml:"negative_mode"`

	MaxRepeats       int     `yaml:"max_repeats" validate:"gte=1"`
	MaxNeutrals      int     `yaml:"max_neutrals" validate:"gte=0"`
	Penalty          float64 `yaml:"complexity_penalty" validate:"gte=0"`
	Strategy         string  `yaml:"strategy" validate:"omitempty,oneof=sum mean differential"`
	UseMinorityBound bool    `yaml:"use_minority_bound"`
	MaxMinorityBound int     `yaml:"max_minority_bound" validate:"gte=0"`

	Intensity       IntensityParams `yaml:"intensity_filter"`
	InferencePasses int             `yaml:"inference_passes" validate:"gte=0"`

	DegreeCap        int           `yaml:"degree_cap" validate:"gte=0"`
	DegreeCapEnabled bool          `yaml:"degree_cap_enabled"`
	SolverTimeout    time.Duration `yaml:"solver_timeout" validate:"gte=0"`
	SolverMaxNodes   int           `yaml:"solver_max_nodes" validate:"gte=0"`
	MaxComponentSize int           `yaml:"max_component_edges" validate:"gte=0"`

	AgreementTolerance float64 `yaml:"agreement_tolerance" validate:"gte=0"`
	Workers            int     `yaml:"workers" validate:"gte=0"`
}

// DefaultParams returns the parameters used when nothing is configured.
func DefaultParams() Params {
	return Params{
		RTWindow:           1,
		RTWindowLocal:      1,
		MassWindow:         0,
		MassTolerance:      0.005,
		Unit:               string(graph.UnitDa),
		ChargeMin:          1,
		ChargeMax:          3,
		ChargeSpan:         3,
		ChargeMode:         string(graph.ChargeHeuristic),
		MaxRepeats:         3,
		MaxNeutrals:        1,
		Penalty:            0,
		Strategy:           string(explain.StrategySum),
		UseMinorityBound:   true,
		MaxMinorityBound:   3,
		Intensity:          IntensityParams{Enabled: true, MaxRatio: 1},
		InferencePasses:    2,
		SolverTimeout:      30 * time.Second,
		SolverMaxNodes:     10000,
		MaxComponentSize:   400,
		AgreementTolerance: 0.05,
	}
}

var paramsValidate = validator.New()

// Validate reports every problem with p in one ErrConfig-wrapped error.
func (p *Params) Validate() error {
	var problems []string

	if err := paramsValidate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				problems = append(problems, fmt.Sprintf("%s failed '%s=%s' (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
			}
		} else {
			problems = append(problems, err.Error())
		}
	}

	for _, f := range []struct {
		name  string
		value float64
	}{
		{"rt_window", p.RTWindow},
		{"rt_window_local", p.RTWindowLocal},
		{"mass_window", p.MassWindow},
		{"mass_tolerance", p.MassTolerance},
		{"complexity_penalty", p.Penalty},
		{"agreement_tolerance", p.AgreementTolerance},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			problems = append(problems, fmt.Sprintf("%s must be finite", f.name))
		}
	}

	if p.ChargeMin > p.ChargeMax {
		problems = append(problems, fmt.Sprintf("charge_min %d is greater than charge_max %d", p.ChargeMin, p.ChargeMax))
	}
	if p.ChargeMin < 0 && p.ChargeMax > 0 {
		problems = append(problems, fmt.Sprintf("charge range [%d, %d] mixes signs", p.ChargeMin, p.ChargeMax))
	}
	if p.NegativeMode && p.ChargeMax > 0 {
		problems = append(problems, "negative mode needs a charge range of zero or below")
	}
	if !p.NegativeMode && p.ChargeMin < 0 {
		problems = append(problems, "negative charges need negative_mode")
	}
	if p.DegreeCapEnabled && p.DegreeCap == 0 {
		problems = append(problems, "degree_cap of zero would forbid every edge")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrConfig, strings.Join(problems, "; "))
	}
	return nil
}

// LoadParams reads YAML parameters on top of DefaultParams. Unknown keys
// are rejected.
func LoadParams(r io.Reader) (Params, error) {
	p := DefaultParams()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Params{}, fmt.Errorf("%w: parsing parameters: %v", ErrConfig, err)
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// maxCharge is the largest charge magnitude of the configured range.
func (p *Params) maxCharge() int {
	return max(abs(p.ChargeMin), abs(p.ChargeMax))
}

// threshold is the lowest log probability a descriptor may have without
// being considered over-fitted.
func (p *Params) threshold(ex *explain.Explainer) float64 {
	bound := p.maxCharge()
	if p.UseMinorityBound {
		bound = p.MaxMinorityBound
	}
	return explain.ComplexityThreshold(ex.Catalog(), p.maxCharge(), bound)
}

// degreeCap returns the effective cap, 0 meaning none.
func (p *Params) degreeCap() int {
	if !p.DegreeCapEnabled {
		return 0
	}
	return p.DegreeCap
}

func (p *Params) graphParams(threshold float64) graph.Params {
	return graph.Params{
		RTWindow:      p.RTWindow,
		RTWindowLocal: p.RTWindowLocal,
		MassWindow:    p.MassWindow,
		Tolerance:     p.MassTolerance,
		Unit:          graph.Unit(p.Unit),
		ChargeSpan:    p.ChargeSpan,
		ChargeMode:    graph.ChargeMode(p.ChargeMode),
		NegativeMode:  p.NegativeMode,
		Threshold:     threshold,
		Workers:       p.Workers,
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
