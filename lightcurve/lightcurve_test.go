package lightcurve

import (
	"math"
	"testing"
)

func TestFiniteDropsBadSamples(t *testing.T) {
	nan := math.NaN()
	lc := LightCurve{
		Time:    []float64{0, 1, nan, 3, 4, 5},
		Flux:    []float64{1, nan, 1, 1, math.Inf(1), 1},
		FluxErr: []float64{0.1, 0.1, 0.1, 0, 0.1, 0.2},
	}

	got := lc.Finite()
	if got.Len() != 2 {
		t.Fatalf("Len=%d want=2 (%v)", got.Len(), got.Time)
	}
	if got.Time[0] != 0 || got.Time[1] != 5 {
		t.Fatalf("Time=%v want=[0 5]", got.Time)
	}
	if got.FluxErr[1] != 0.2 {
		t.Fatalf("FluxErr=%v", got.FluxErr)
	}
}

func TestFiniteWithoutErrors(t *testing.T) {
	lc := LightCurve{
		Time: []float64{0, 1, 2},
		Flux: []float64{1, math.NaN(), 3},
	}
	got := lc.Finite()
	if got.Len() != 2 || got.FluxErr != nil {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestNormalize(t *testing.T) {
	lc := LightCurve{
		Time:    []float64{0, 1, 2, 3},
		Flux:    []float64{100, 200, math.NaN(), 300},
		FluxErr: []float64{10, 10, 10, 10},
	}
	lc.Normalize()
	if lc.Flux[1] != 1 || lc.Flux[0] != 0.5 || lc.FluxErr[0] != 0.05 {
		t.Fatalf("normalised=%v err=%v", lc.Flux, lc.FluxErr)
	}

	neg := LightCurve{Time: []float64{0, 1}, Flux: []float64{-1, -1}}
	neg.Normalize()
	if neg.Flux[0] != -1 {
		t.Fatalf("negative median must leave flux untouched: %v", neg.Flux)
	}
}

func TestPair(t *testing.T) {
	curves := make([]LightCurve, 3)

	tests := []struct {
		name   string
		labels []string
		want   []string
	}{
		{"full", []string{"s1", "s2", "s3"}, []string{"s1", "s2", "s3"}},
		{"missing", nil, []string{UnknownSector, UnknownSector, UnknownSector}},
		{"short", []string{"s1"}, []string{"s1", UnknownSector, UnknownSector}},
		{"empty entry", []string{"s1", "", "s3"}, []string{"s1", UnknownSector, "s3"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			obs := Pair(curves, tc.labels)
			if len(obs) != len(curves) {
				t.Fatalf("len=%d want=%d", len(obs), len(curves))
			}
			for i, o := range obs {
				if o.Sector != tc.want[i] {
					t.Fatalf("obs[%d].Sector=%q want=%q", i, o.Sector, tc.want[i])
				}
			}
		})
	}
}
