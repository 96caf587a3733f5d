package periodogram_test

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-rotation/dsp/periodogram"
)

func ExampleGLS() {
	var tm, flux []float64
	for i := 0; i < 1000; i++ {
		t := float64(i) * 0.02
		tm = append(tm, t)
		flux = append(flux, 1+0.01*math.Sin(2*math.Pi*t/4))
	}
	spec, err := periodogram.GLS(tm, flux, nil, periodogram.DefaultGrid())
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("%.1f\n", spec.Period(spec.MaxIndex()))
	// Output:
	// 4.0
}

func ExampleFindPeaks() {
	fmt.Println(periodogram.FindPeaks([]float64{0, 1, 0, 0.4, 0, 0.8, 0}, 0.5))
	// Output:
	// [1 5]
}
