package core

import (
	"math"
	"testing"
)

func TestFeatureValidation(t *testing.T) {
	tests := []struct {
		name    string
		feat    *Feature
		wantErr bool
	}{
		{
			name:    "valid feature",
			feat:    &Feature{ID: "f1", MZ: 400.5, RT: 120, Intensity: 1e5, Charge: 2},
			wantErr: false,
		},
		{
			name:    "zero intensity is allowed",
			feat:    &Feature{ID: "f1", MZ: 400.5, RT: 120},
			wantErr: false,
		},
		{
			name:    "missing id",
			feat:    &Feature{MZ: 400.5, RT: 120, Intensity: 1e5},
			wantErr: true,
		},
		{
			name:    "non-positive m/z",
			feat:    &Feature{ID: "f1", MZ: 0, RT: 120, Intensity: 1e5},
			wantErr: true,
		},
		{
			name:    "NaN m/z",
			feat:    &Feature{ID: "f1", MZ: math.NaN(), RT: 120, Intensity: 1e5},
			wantErr: true,
		},
		{
			name:    "infinite retention time",
			feat:    &Feature{ID: "f1", MZ: 400.5, RT: math.Inf(1), Intensity: 1e5},
			wantErr: true,
		},
		{
			name:    "negative intensity",
			feat:    &Feature{ID: "f1", MZ: 400.5, RT: 120, Intensity: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.feat.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if _, ok := err.(*ValidationError); !ok {
					t.Errorf("expected *ValidationError, got %T", err)
				}
			}
		})
	}
}

func TestSortOrder(t *testing.T) {
	features := []Feature{
		{ID: "c", MZ: 300, RT: 20},
		{ID: "a", MZ: 200, RT: 10},
		{ID: "b", MZ: 100, RT: 20},
		{ID: "d", MZ: 100, RT: 20},
	}

	order := SortOrder(features)
	want := []string{"a", "b", "d", "c"}
	for i, idx := range order {
		if features[idx].ID != want[i] {
			t.Errorf("position %d: got %s, want %s", i, features[idx].ID, want[i])
		}
	}

	if AreSortedByRT(features) {
		t.Error("input should not be reported as sorted")
	}
}

func TestFeatureName(t *testing.T) {
	f := &Feature{ID: "F7", MZ: 445.12, Charge: 2}
	if got, want := f.Name(), "F7@445.1200/2"; got != want {
		t.Errorf("Name() = %s, want %s", got, want)
	}
}
