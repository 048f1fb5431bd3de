package core

import (
	"math"
	"testing"
)

func TestNeutralMass(t *testing.T) {
	tests := []struct {
		name       string
		mz         float64
		charge     int
		adductMass float64
		want       float64
		tolerance  float64
	}{
		{
			name:       "protonated singly charged",
			mz:         181.070665,
			charge:     1,
			adductMass: ProtonMass,
			want:       180.063388,
			tolerance:  1e-5,
		},
		{
			name:       "doubly protonated",
			mz:         91.038971,
			charge:     2,
			adductMass: 2 * ProtonMass,
			want:       180.063388,
			tolerance:  1e-5,
		},
		{
			name:       "negative charge uses magnitude",
			mz:         179.056112,
			charge:     -1,
			adductMass: -ProtonMass,
			want:       180.063388,
			tolerance:  1e-5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NeutralMass(tt.mz, tt.charge, tt.adductMass)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("NeutralMass() = %.6f, want %.6f (within %g)", got, tt.want, tt.tolerance)
			}
		})
	}
}

func TestIonMZRoundTrip(t *testing.T) {
	for _, q := range []int{1, 2, 3, -2} {
		mz := IonMZ(500.25, q, float64(q)*ProtonMass)
		back := NeutralMass(mz, q, float64(q)*ProtonMass)
		if math.Abs(back-500.25) > 1e-9 {
			t.Errorf("charge %d: round trip gave %.9f", q, back)
		}
	}
}

func TestProtonFromHydrogen(t *testing.T) {
	if d := math.Abs((MassH - ElectronMass) - ProtonMass); d > 1e-6 {
		t.Errorf("H - e differs from proton mass by %g", d)
	}
}

func TestRoundFloat(t *testing.T) {
	tests := []struct {
		name      string
		val       float64
		precision int
		want      float64
	}{
		{"round to 2 decimals", 3.14159, 2, 3.14},
		{"round to 4 decimals", 3.14159, 4, 3.1416},
		{"round to 0 decimals", 3.6, 0, 4.0},
		{"round negative", -3.14159, 2, -3.14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundFloat(tt.val, tt.precision)
			if got != tt.want {
				t.Errorf("RoundFloat() = %v, want %v", got, tt.want)
			}
		})
	}
}
