package periodogram

import (
	"reflect"
	"testing"
)

func TestFindPeaks(t *testing.T) {
	tests := []struct {
		name   string
		x      []float64
		height float64
		want   []int
	}{
		{"simple", []float64{0, 1, 0, 2, 0}, 0, []int{1, 3}},
		{"height", []float64{0, 1, 0, 2, 0}, 1.5, []int{3}},
		{"height inclusive", []float64{0, 1, 0, 2, 0}, 1, []int{1, 3}},
		{"endpoints", []float64{3, 1, 2, 1, 3}, 0, []int{2}},
		{"plateau odd", []float64{0, 2, 2, 2, 0}, 0, []int{2}},
		{"plateau even", []float64{0, 2, 2, 0}, 0, []int{1}},
		{"plateau to edge", []float64{0, 1, 2, 2}, 0, nil},
		{"shoulder", []float64{0, 2, 2, 3, 0}, 0, []int{3}},
		{"empty", nil, 0, nil},
		{"short", []float64{1, 2}, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindPeaks(tt.x, tt.height)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("FindPeaks(%v)=%v want=%v", tt.x, got, tt.want)
			}
		})
	}
}
