package acf

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-rotation/internal/testutil"
)

func TestAutoCorrelateKnown(t *testing.T) {
	got, err := AutoCorrelate([]float64{1, 2, 3})
	if err != nil {
		t.Fatalf("AutoCorrelate error: %v", err)
	}
	want := []float64{1, 8.0 / 14, 3.0 / 14}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("acf[%d]=%v want=%v", i, got[i], want[i])
		}
	}
}

func TestEstimateSine(t *testing.T) {
	for _, period := range []float64{1.5, 3, 6.2} {
		tm, fx, _ := testutil.SineLightCurve(period, 0.01, testutil.SectorSpan, testutil.Cadence30Min, 0.001, 11)

		res, err := Estimate(tm, fx)
		if err != nil {
			t.Fatalf("P=%v: Estimate error: %v", period, err)
		}
		if math.Abs(res.Period-period)/period > 0.03 {
			t.Fatalf("P=%v: got %v", period, res.Period)
		}
		if res.Height <= 0 || res.Height > 1 {
			t.Fatalf("P=%v: height=%v", period, res.Height)
		}
		testutil.RequireRelNear(t, "cadence", res.Cadence, testutil.Cadence30Min, 0.05)
	}
}

func TestEstimateErrors(t *testing.T) {
	if _, err := Estimate(make([]float64, 5), make([]float64, 5)); !errors.Is(err, ErrTooFewSamples) {
		t.Fatalf("err=%v want ErrTooFewSamples", err)
	}

	tm := make([]float64, 100)
	fx := make([]float64, 100)
	for i := range tm {
		tm[i] = float64(i) * 0.1
		fx[i] = 1
	}
	if _, err := Estimate(tm, fx); !errors.Is(err, ErrNoPeak) {
		t.Fatalf("err=%v want ErrNoPeak", err)
	}

	if _, err := Estimate(tm, fx[:10]); err == nil {
		t.Fatalf("expected error for length mismatch")
	}
}

func TestBoxcar(t *testing.T) {
	got := boxcar([]float64{0, 3, 0, 3, 0}, 3)
	want := []float64{1.5, 1, 2, 1, 1.5}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("boxcar[%d]=%v want=%v", i, got[i], want[i])
		}
	}
}
