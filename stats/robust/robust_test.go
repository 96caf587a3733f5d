package robust

import (
	"math"
	"testing"
)

func TestMedian(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want float64
	}{
		{"odd", []float64{3, 1, 2}, 2},
		{"even", []float64{4, 1, 3, 2}, 2.5},
		{"single", []float64{7}, 7},
		{"duplicates", []float64{4.05, 4.0, 8.1}, 4.05},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Median(tt.in); got != tt.want {
				t.Fatalf("Median(%v)=%v want=%v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMedianDoesNotModifyInput(t *testing.T) {
	in := []float64{3, 1, 2}
	_ = Median(in)
	if in[0] != 3 || in[1] != 1 || in[2] != 2 {
		t.Fatalf("input modified: %v", in)
	}
}

func TestMedianNaN(t *testing.T) {
	if !math.IsNaN(Median(nil)) {
		t.Fatal("Median(nil) should be NaN")
	}
	if !math.IsNaN(Median([]float64{1, math.NaN(), 3})) {
		t.Fatal("Median with NaN should be NaN")
	}
	if got := NanMedian([]float64{1, math.NaN(), 3}); got != 2 {
		t.Fatalf("NanMedian=%v want=2", got)
	}
	if !math.IsNaN(NanMedian([]float64{math.NaN()})) {
		t.Fatal("NanMedian of all-NaN should be NaN")
	}
}

func TestMean(t *testing.T) {
	if got := Mean([]float64{1, 2, 3, 4}); got != 2.5 {
		t.Fatalf("Mean=%v want=2.5", got)
	}
	if !math.IsNaN(Mean(nil)) {
		t.Fatal("Mean(nil) should be NaN")
	}
	if got := NanMean([]float64{1, math.Inf(1), 3, math.NaN()}); got != 2 {
		t.Fatalf("NanMean=%v want=2", got)
	}
}

func TestArgMax(t *testing.T) {
	if got := ArgMax([]float64{1, 5, math.NaN(), 5, 2}); got != 1 {
		t.Fatalf("ArgMax=%d want=1", got)
	}
	if got := ArgMax([]float64{math.NaN()}); got != -1 {
		t.Fatalf("ArgMax all-NaN=%d want=-1", got)
	}
}

func TestArgNearest(t *testing.T) {
	x := []float64{0.1, 0.2, 0.3, 0.4}
	if got := ArgNearest(x, 0.26); got != 2 {
		t.Fatalf("ArgNearest=%d want=2", got)
	}
	if got := ArgNearest(nil, 1); got != -1 {
		t.Fatalf("ArgNearest(nil)=%d want=-1", got)
	}
}
