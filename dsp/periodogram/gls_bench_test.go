package periodogram

import (
	"strconv"
	"testing"

	"github.com/cwbudde/algo-rotation/internal/testutil"
)

func BenchmarkGLS(b *testing.B) {
	for _, span := range []float64{7, 27} {
		b.Run(strconv.FormatFloat(span, 'f', 0, 64)+"d", func(b *testing.B) {
			tm, fl, fe := testutil.SineLightCurve(5, 0.01, span, testutil.Cadence30Min, 0.001, 1)
			grid := DefaultGrid()
			b.ResetTimer()
			for range b.N {
				_, _ = GLS(tm, fl, fe, grid)
			}
		})
	}
}
