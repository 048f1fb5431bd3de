package catalog

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/ChrisMcGann/decharger/pkg/core"
)

func TestParseAdduct(t *testing.T) {
	tests := []struct {
		name       string
		spec       string
		wantLabel  string
		wantCharge int
		wantMass   float64
		wantProb   float64
		wantShift  float64
		wantMap    string
		wantErr    bool
	}{
		{
			name:       "proton",
			spec:       "H:+:0.4",
			wantLabel:  "H+",
			wantCharge: 1,
			wantMass:   core.MassH - core.ElectronMass,
			wantProb:   0.4,
		},
		{
			name:       "doubly charged calcium",
			spec:       "Ca:++:0.5",
			wantLabel:  "Ca++",
			wantCharge: 2,
			wantMass:   core.MassCa - 2*core.ElectronMass,
			wantProb:   0.5,
		},
		{
			name:       "deprotonation",
			spec:       "H-1:-:1",
			wantLabel:  "H-1-",
			wantCharge: -1,
			wantMass:   -core.ProtonMass,
			wantProb:   1,
		},
		{
			name:       "chloride gains an electron",
			spec:       "Cl:-:0.1",
			wantLabel:  "Cl-",
			wantCharge: -1,
			wantMass:   core.MassCl + core.ElectronMass,
			wantProb:   0.1,
		},
		{
			name:       "neutral water loss",
			spec:       "H-2O-1:0:0.05",
			wantLabel:  "H-2O-1",
			wantCharge: 0,
			wantMass:   -2*core.MassH - core.MassO,
			wantProb:   0.05,
		},
		{
			name:       "label with RT shift and map label",
			spec:       "(2)H4H-4:0:1:-3:heavy",
			wantLabel:  "(2)H4H-4",
			wantCharge: 0,
			wantMass:   4*core.MassD - 4*core.MassH,
			wantProb:   1,
			wantShift:  -3,
			wantMap:    "heavy",
		},
		{name: "too few fields", spec: "H:+", wantErr: true},
		{name: "too many fields", spec: "H:+:0.4:0:x:y", wantErr: true},
		{name: "mixed charge signs", spec: "H:+-:0.4", wantErr: true},
		{name: "numeric charge", spec: "H:1:0.4", wantErr: true},
		{name: "zero probability", spec: "H:+:0", wantErr: true},
		{name: "probability above one", spec: "H:+:1.5", wantErr: true},
		{name: "bad formula", spec: "Xy:+:0.5", wantErr: true},
		{name: "bad RT shift", spec: "H:+:0.5:early", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := ParseAdduct(tt.spec)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAdduct(%q) error = %v, wantErr %v", tt.spec, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if e.Label != tt.wantLabel {
				t.Errorf("Label = %q, want %q", e.Label, tt.wantLabel)
			}
			if e.Charge != tt.wantCharge {
				t.Errorf("Charge = %d, want %d", e.Charge, tt.wantCharge)
			}
			if math.Abs(e.Mass-tt.wantMass) > 1e-9 {
				t.Errorf("Mass = %.9f, want %.9f", e.Mass, tt.wantMass)
			}
			if math.Abs(e.Probability()-tt.wantProb) > 1e-12 {
				t.Errorf("Probability() = %g, want %g", e.Probability(), tt.wantProb)
			}
			if e.RTShift != tt.wantShift {
				t.Errorf("RTShift = %g, want %g", e.RTShift, tt.wantShift)
			}
			if e.MapLabel != tt.wantMap {
				t.Errorf("MapLabel = %q, want %q", e.MapLabel, tt.wantMap)
			}
		})
	}
}

func TestParseAdductsProbabilitySum(t *testing.T) {
	tests := []struct {
		name    string
		specs   []string
		wantErr bool
	}{
		{name: "defaults", specs: DefaultPositiveAdducts},
		{name: "neutral entries are not counted", specs: []string{"H:+:1", "H-2O-1:0:0.5"}},
		{name: "comments and blanks skipped", specs: []string{"# positive mode", "", "H:+:0.7", "Na:+:0.3"}},
		{name: "within tolerance", specs: []string{"H:+:0.6", "Na:+:0.4005"}},
		{name: "sum too small", specs: []string{"H:+:0.5", "Na:+:0.2"}, wantErr: true},
		{name: "sum too large", specs: []string{"H:+:0.9", "Na:+:0.2"}, wantErr: true},
		{name: "duplicate adduct", specs: []string{"H:+:0.5", "H:+:0.5"}, wantErr: true},
		{name: "mixed polarity", specs: []string{"H:+:0.5", "Cl:-:0.5"}, wantErr: true},
		{name: "malformed item", specs: []string{"H:+:0.5", "Na:+"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAdducts(tt.specs)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAdducts() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var cfgErr *ConfigError
				if !errors.As(err, &cfgErr) {
					t.Errorf("expected *ConfigError, got %T", err)
				}
			}
		})
	}
}

func TestLoadRejectsMalformedEntries(t *testing.T) {
	naPlus := core.MassNa - core.ElectronMass
	tests := []struct {
		name    string
		entries []Entry
		wantErr bool
	}{
		{name: "empty catalog is valid", entries: nil},
		{
			name:    "valid entry",
			entries: []Entry{{Label: "Na+", Formula: "Na", Charge: 1, Mass: naPlus, LogProb: -1}},
		},
		{
			name:    "missing label",
			entries: []Entry{{Formula: "Na", Charge: 1, Mass: naPlus, LogProb: -1}},
			wantErr: true,
		},
		{
			name:    "missing formula",
			entries: []Entry{{Label: "Na+", Charge: 1, Mass: naPlus, LogProb: -1}},
			wantErr: true,
		},
		{
			name:    "unparsable formula",
			entries: []Entry{{Label: "x", Formula: "12", Charge: 1, Mass: 1, LogProb: -1}},
			wantErr: true,
		},
		{
			name:    "non-finite mass",
			entries: []Entry{{Label: "Na+", Formula: "Na", Charge: 1, Mass: math.Inf(1), LogProb: -1}},
			wantErr: true,
		},
		{
			name:    "mass disagrees with formula",
			entries: []Entry{{Label: "Na+", Formula: "Na", Charge: 1, Mass: 999, LogProb: -1}},
			wantErr: true,
		},
		{
			name:    "mass ignores the charge",
			entries: []Entry{{Label: "Na+", Formula: "Na", Charge: 1, Mass: core.MassNa, LogProb: -1}},
			wantErr: true,
		},
		{
			name:    "deprotonation",
			entries: []Entry{{Label: "H-1-", Formula: "H-1", Charge: -1, Mass: -core.ProtonMass, LogProb: 0}},
		},
		{
			name:    "positive log probability",
			entries: []Entry{{Label: "Na+", Formula: "Na", Charge: 1, Mass: naPlus, LogProb: 0.5}},
			wantErr: true,
		},
		{
			name: "duplicate label",
			entries: []Entry{
				{Label: "Na+", Formula: "Na", Charge: 1, Mass: naPlus, LogProb: -1},
				{Label: "Na+", Formula: "Na", Charge: 1, Mass: naPlus, LogProb: -2},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.entries)
			if (err != nil) != tt.wantErr {
				t.Errorf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadReportsEveryProblem(t *testing.T) {
	_, err := Load([]Entry{
		{Label: "a", Formula: "Qq", LogProb: -1},
		{Label: "b", Formula: "Na", LogProb: math.NaN()},
	})
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
	if len(cfgErr.Problems) < 2 {
		t.Errorf("expected both entries to be reported, got %v", cfgErr.Problems)
	}
}

func TestCatalogLookups(t *testing.T) {
	c := DefaultPositive()

	if c.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", c.Len())
	}
	if got := c.MaxAbsoluteCharge(); got != 1 {
		t.Errorf("MaxAbsoluteCharge() = %d, want 1", got)
	}

	def, ok := c.Default()
	if !ok || def.Label != "H+" {
		t.Errorf("Default() = %v, %v; want H+", def.Label, ok)
	}

	i, ok := c.Lookup("NH4+")
	if !ok {
		t.Fatal("NH4+ not found")
	}
	if want := core.MassN + 4*core.MassH - core.ElectronMass; math.Abs(c.Entry(i).Mass-want) > 1e-9 {
		t.Errorf("NH4+ mass = %.9f, want %.9f", c.Entry(i).Mass, want)
	}

	lo, hi := c.LogProbRange()
	if math.Abs(lo-math.Log(0.05)) > 1e-12 || math.Abs(hi-math.Log(0.4)) > 1e-12 {
		t.Errorf("LogProbRange() = %g, %g", lo, hi)
	}

	entries := c.Entries()
	entries[0].Label = "changed"
	if c.Entry(0).Label == "changed" {
		t.Error("Entries() must return a copy")
	}

	neg := DefaultNegative()
	if def, ok := neg.Default(); !ok || def.Charge != -1 || def.Label != "H-1-" {
		t.Errorf("negative Default() = %+v, %v", def, ok)
	}
}

func TestMaxAbsoluteCharge(t *testing.T) {
	c, err := ParseAdducts([]string{"H:+:0.5", "Ca:++:0.3", "Na:+:0.2"})
	if err != nil {
		t.Fatalf("ParseAdducts: %v", err)
	}
	if got := c.MaxAbsoluteCharge(); got != 2 {
		t.Errorf("MaxAbsoluteCharge() = %d, want 2", got)
	}

	empty, err := Load(nil)
	if err != nil {
		t.Fatalf("Load(nil): %v", err)
	}
	if empty.MaxAbsoluteCharge() != 0 {
		t.Error("empty catalog should have max charge 0")
	}
	if _, ok := empty.Default(); ok {
		t.Error("empty catalog has no default adduct")
	}
}

func TestLoadFromCSV(t *testing.T) {
	tests := []struct {
		name      string
		csv       string
		wantLen   int
		wantErr   bool
		checkFunc func(t *testing.T, c *Catalog)
	}{
		{
			name: "standard table",
			csv: `label,formula,charge,probability,rt_shift
,H,1,0.7,0
,Na,+,0.3,
heavy,(2)H4H-4,0,1,-3
`,
			wantLen: 3,
			checkFunc: func(t *testing.T, c *Catalog) {
				i, ok := c.Lookup("(2)H4H-4")
				if !ok {
					t.Fatal("label entry missing")
				}
				e := c.Entry(i)
				if e.MapLabel != "heavy" || e.RTShift != -3 {
					t.Errorf("unexpected label entry %+v", e)
				}
			},
		},
		{
			name: "reordered columns without optional fields",
			csv: `probability,charge,formula
1,-1,H-1
`,
			wantLen: 1,
			checkFunc: func(t *testing.T, c *Catalog) {
				if c.Entry(0).Mass != -core.ProtonMass {
					t.Errorf("deprotonation mass = %g", c.Entry(0).Mass)
				}
			},
		},
		{
			name:    "missing required column",
			csv:     "formula,probability\nH,1\n",
			wantErr: true,
		},
		{
			name:    "bad probability",
			csv:     "formula,charge,probability\nH,1,high\n",
			wantErr: true,
		},
		{
			name:    "probabilities do not sum to one",
			csv:     "formula,charge,probability\nH,1,0.5\n",
			wantErr: true,
		},
		{
			name:    "empty input",
			csv:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := LoadFromCSV(strings.NewReader(tt.csv))
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadFromCSV() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if c.Len() != tt.wantLen {
				t.Errorf("Len() = %d, want %d", c.Len(), tt.wantLen)
			}
			if tt.checkFunc != nil {
				tt.checkFunc(t, c)
			}
		})
	}
}

func TestLoadYAML(t *testing.T) {
	doc := `
adducts:
  - "H:+:0.6"
  - "# disabled"
  - "Na:+:0.4"
entries:
  - formula: H-2O-1
    charge: 0
    probability: 0.05
`
	c, err := LoadYAML(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadYAML: %v", err)
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
	if _, ok := c.Lookup("H-2O-1"); !ok {
		t.Error("structured entry missing")
	}

	if _, err := LoadYAML(strings.NewReader("adduct:\n  - H:+:1\n")); err == nil {
		t.Error("unknown field should be rejected")
	}
	if _, err := LoadYAML(strings.NewReader("entries:\n  - {formula: H, charge: 1, probability: 0}\n")); err == nil {
		t.Error("zero probability should be rejected")
	}
}
