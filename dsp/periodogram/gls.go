package periodogram

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-rotation/stats/robust"
	"github.com/cwbudde/algo-vecmath"
)

// MinSamples is the minimum number of samples accepted by [GLS].
const MinSamples = 10

// reseedInterval bounds the drift of the angle-addition recurrence: every
// reseedInterval grid steps the trigonometric terms are recomputed exactly.
const reseedInterval = 128

// Spectrum holds a power spectrum on a frequency grid.
type Spectrum struct {
	Frequency []float64
	Power     []float64
}

// Len returns the number of spectral points.
func (s Spectrum) Len() int { return len(s.Power) }

// Period returns the period of the i-th frequency.
func (s Spectrum) Period(i int) float64 { return 1 / s.Frequency[i] }

// Periods returns 1/f for every frequency.
func (s Spectrum) Periods() []float64 {
	out := make([]float64, len(s.Frequency))
	for i, f := range s.Frequency {
		out[i] = 1 / f
	}
	return out
}

// MaxIndex returns the index of the global power maximum, or -1 for an empty
// spectrum.
func (s Spectrum) MaxIndex() int { return robust.ArgMax(s.Power) }

// MedianPower returns the median power over the whole spectrum.
func (s Spectrum) MedianPower() float64 { return robust.Median(s.Power) }

// GLS computes the generalized Lomb-Scargle periodogram of (time, flux) on
// grid.
//
// fluxErr supplies 1-sigma uncertainties used as 1/err² weights; pass nil for
// unit weights. Inputs must already be finite; see lightcurve.LightCurve.Finite.
// Time need not be sorted.
//
// Frequencies at which the fitted basis is singular get zero power. Errors are
// ErrLengthMismatch, ErrTooFewSamples and ErrDegenerate; GLS never panics on
// numerical input.
//
//nolint:funlen
func GLS(time, flux, fluxErr []float64, grid Grid) (Spectrum, error) {
	n := len(time)
	if len(flux) != n || (fluxErr != nil && len(fluxErr) != n) {
		return Spectrum{}, fmt.Errorf("%w: %d/%d/%d", ErrLengthMismatch, n, len(flux), len(fluxErr))
	}
	if n < MinSamples {
		return Spectrum{}, fmt.Errorf("%w: %d < %d", ErrTooFewSamples, n, MinSamples)
	}
	if grid.Len < 1 || !(grid.Step > 0) {
		return Spectrum{}, ErrInvalidGrid
	}

	// Normalised weights.
	w := make([]float64, n)
	var wSum float64
	for i := range w {
		if fluxErr == nil {
			w[i] = 1
		} else {
			w[i] = 1 / (fluxErr[i] * fluxErr[i])
		}
		wSum += w[i]
	}
	if !(wSum > 0) || math.IsInf(wSum, 0) {
		return Spectrum{}, fmt.Errorf("%w: weight sum %v", ErrDegenerate, wSum)
	}
	for i := range w {
		w[i] /= wSum
	}

	wy := make([]float64, n)
	vecmath.MulBlock(wy, w, flux)

	var yMean, yyHat float64
	for i := range wy {
		yMean += wy[i]
		yyHat += wy[i] * flux[i]
	}
	yy := yyHat - yMean*yMean
	if !(yy > 1e-12*yyHat) || math.IsInf(yy, 0) {
		return Spectrum{}, fmt.Errorf("%w: weighted variance %v", ErrDegenerate, yy)
	}

	// Shift the time origin to keep phases small; GLS power is invariant to it.
	t0 := time[0]
	for _, t := range time[1:] {
		if t < t0 {
			t0 = t
		}
	}
	tt := make([]float64, n)
	for i, t := range time {
		tt[i] = t - t0
	}

	// Per-sample rotation by one grid step.
	dOmega := 2 * math.Pi * grid.Step
	rotC := make([]float64, n)
	rotS := make([]float64, n)
	for i, t := range tt {
		rotS[i], rotC[i] = math.Sincos(dOmega * t)
	}

	cosT := make([]float64, n)
	sinT := make([]float64, n)
	freq := grid.Frequencies()
	power := make([]float64, grid.Len)

	for k := range power {
		if k%reseedInterval == 0 {
			omega := 2 * math.Pi * freq[k]
			for i, t := range tt {
				sinT[i], cosT[i] = math.Sincos(omega * t)
			}
		} else {
			for i := range cosT {
				c, s := cosT[i], sinT[i]
				cosT[i] = c*rotC[i] - s*rotS[i]
				sinT[i] = s*rotC[i] + c*rotS[i]
			}
		}

		var cSum, sSum, ycHat, ysHat, ccHat, csHat float64
		for i := range cosT {
			c, s, wi := cosT[i], sinT[i], w[i]
			wc := wi * c
			cSum += wc
			sSum += wi * s
			ycHat += wy[i] * c
			ysHat += wy[i] * s
			ccHat += wc * c
			csHat += wc * s
		}

		yc := ycHat - yMean*cSum
		ys := ysHat - yMean*sSum
		cc := ccHat - cSum*cSum
		ss := (1 - ccHat) - sSum*sSum
		cs := csHat - cSum*sSum
		d := cc*ss - cs*cs
		if !(d > 1e-15) {
			continue
		}
		power[k] = (ss*yc*yc + cc*ys*ys - 2*cs*yc*ys) / (yy * d)
	}

	for k, p := range power {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return Spectrum{}, fmt.Errorf("%w: non-finite power at %v", ErrDegenerate, freq[k])
		}
	}

	return Spectrum{Frequency: freq, Power: power}, nil
}
