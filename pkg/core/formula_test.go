package core

import (
	"math"
	"testing"
)

func TestParseFormula(t *testing.T) {
	tests := []struct {
		name     string
		formula  string
		wantMass float64
		wantStr  string
		wantErr  bool
	}{
		{name: "single element", formula: "Na", wantMass: MassNa, wantStr: "Na"},
		{name: "ammonium", formula: "NH4", wantMass: MassN + 4*MassH, wantStr: "H4N"},
		{name: "water loss", formula: "H-2O-1", wantMass: -2*MassH - MassO, wantStr: "H-2O-1"},
		{name: "repeated symbol sums", formula: "HH", wantMass: 2 * MassH, wantStr: "H2"},
		{name: "deuterium label", formula: "(2)H4H-4", wantMass: 4*MassD - 4*MassH, wantStr: "(2)H4H-4"},
		{name: "cancelling counts", formula: "H1H-1", wantMass: 0, wantStr: ""},
		{name: "empty", formula: "", wantErr: true},
		{name: "lowercase start", formula: "na", wantErr: true},
		{name: "unknown element", formula: "Xx", wantErr: true},
		{name: "unknown isotope", formula: "(99)H", wantErr: true},
		{name: "dangling minus", formula: "H-", wantErr: true},
		{name: "unterminated isotope", formula: "(2H", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseFormula(tt.formula)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormula(%q) error = %v, wantErr %v", tt.formula, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if math.Abs(f.MonoMass()-tt.wantMass) > 1e-9 {
				t.Errorf("MonoMass() = %.9f, want %.9f", f.MonoMass(), tt.wantMass)
			}
			if f.String() != tt.wantStr {
				t.Errorf("String() = %q, want %q", f.String(), tt.wantStr)
			}
		})
	}
}

func TestFormulaCount(t *testing.T) {
	f, err := ParseFormula("C6H12O6")
	if err != nil {
		t.Fatalf("ParseFormula: %v", err)
	}
	if f.Count("C") != 6 || f.Count("H") != 12 || f.Count("O") != 6 {
		t.Errorf("unexpected counts in %s", f)
	}
	if f.IsEmpty() {
		t.Error("glucose should not be empty")
	}
}
