package rotation

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-rotation/dsp/periodogram"
	"github.com/cwbudde/algo-rotation/internal/fit"
	"github.com/cwbudde/algo-rotation/stats/robust"
)

// Uncertainty defaults.
const (
	DefaultHalfWindow           = 30
	DefaultInitialWidthFraction = 0.1
)

// UncertaintyConfig controls the peak-width uncertainty estimate.
type UncertaintyConfig struct {
	// HalfWindow is the number of grid samples taken on each side of the
	// peak (the window is [i-HalfWindow, i+HalfWindow), clipped).
	HalfWindow int
	// InitialWidthFraction seeds the fitted width as a fraction of the peak
	// frequency.
	InitialWidthFraction float64
	Fit                  fit.Config
}

// DefaultUncertaintyConfig returns the standard settings.
func DefaultUncertaintyConfig() UncertaintyConfig {
	return UncertaintyConfig{
		HalfWindow:           DefaultHalfWindow,
		InitialWidthFraction: DefaultInitialWidthFraction,
		Fit:                  fit.DefaultConfig(),
	}
}

// PeakFit is the Gaussian fitted around a selected period.
type PeakFit struct {
	Frequency   []float64
	Model       []float64
	Gaussian    fit.Gaussian
	Uncertainty float64
}

// Uncertainty estimates the period uncertainty with default settings.
// It returns NaN together with the error on failure.
func Uncertainty(spec periodogram.Spectrum, period float64) (float64, error) {
	pf, err := DefaultUncertaintyConfig().Estimate(spec, period)
	if err != nil {
		return math.NaN(), err
	}
	return pf.Uncertainty, nil
}

// Estimate fits a Gaussian to the periodogram around 1/period and converts
// its width into a period uncertainty
//
//	max(1/(μ-σ) - 1/μ, 1/μ - 1/(μ+σ)).
//
// On failure Uncertainty is NaN and the error wraps ErrFitWindow,
// ErrFitDiverged or an internal/fit error.
func (cfg UncertaintyConfig) Estimate(spec periodogram.Spectrum, period float64) (PeakFit, error) {
	out := PeakFit{Uncertainty: math.NaN()}
	if !(period > 0) || math.IsInf(period, 0) {
		return out, fmt.Errorf("%w: %v", ErrInvalidPeriod, period)
	}
	n := spec.Len()
	if n == 0 || len(spec.Frequency) != n {
		return out, ErrEmptySpectrum
	}

	idp := robust.ArgNearest(spec.Frequency, 1/period)
	lo := max(idp-cfg.HalfWindow, 0)
	hi := min(idp+cfg.HalfWindow, n)
	if hi-lo < 4 {
		return out, fmt.Errorf("%w: %d samples", ErrFitWindow, hi-lo)
	}
	x := spec.Frequency[lo:hi]
	y := spec.Power[lo:hi]

	init := fit.Gaussian{
		Amplitude: spec.Power[idp],
		Mean:      spec.Frequency[idp],
		StdDev:    cfg.InitialWidthFraction * spec.Frequency[idp],
	}
	g, err := cfg.Fit.FitGaussian(x, y, init)
	if err != nil {
		return out, fmt.Errorf("rotation: peak fit at %.4g d: %w", period, err)
	}

	out.Frequency = x
	out.Gaussian = g
	out.Model = make([]float64, len(x))
	for i, v := range x {
		out.Model[i] = g.Eval(v)
	}

	mu, sigma := g.Mean, g.StdDev
	if !(mu > sigma) {
		return out, fmt.Errorf("%w: mean=%g stddev=%g", ErrFitDiverged, mu, sigma)
	}
	d1 := 1/(mu-sigma) - 1/mu
	d2 := 1/mu - 1/(mu+sigma)
	out.Uncertainty = max(d1, d2)
	return out, nil
}
