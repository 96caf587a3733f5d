package testutil

import (
	"math"
	"math/rand"
)

// SectorSpan is the length of one synthetic observing sector in days.
const SectorSpan = 27.0

// Cadence30Min is a 30-minute cadence in days.
const Cadence30Min = 30.0 / 1440.0

// SineLightCurve generates a normalised light curve 1 + amplitude*sin(2πt/P)
// sampled at cadence over span days, with a two-day mid-sector gap, small
// timing jitter and Gaussian noise of the given standard deviation. The
// returned error column is constant noise (or 1e-3 when noise is zero).
func SineLightCurve(period, amplitude, span, cadence, noise float64, seed int64) (time, flux, fluxErr []float64) {
	rng := rand.New(rand.NewSource(seed))
	gapStart, gapEnd := span/2-1, span/2+1
	errVal := noise
	if errVal == 0 {
		errVal = 1e-3
	}
	for t := 0.0; t < span; t += cadence {
		if t >= gapStart && t < gapEnd {
			continue
		}
		ts := t + (rng.Float64()-0.5)*0.1*cadence
		f := 1 + amplitude*math.Sin(2*math.Pi*ts/period) + noise*rng.NormFloat64()
		time = append(time, ts)
		flux = append(flux, f)
		fluxErr = append(fluxErr, errVal)
	}
	return time, flux, fluxErr
}

// DeterministicNoise generates uniform noise in [-amplitude, amplitude) with a
// fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Bump describes one Gaussian peak of a synthetic power spectrum.
type Bump struct {
	Period float64
	Height float64
	Width  float64 // in frequency units; 0 means 0.004
}

// SyntheticSpectrum returns a uniform frequency grid starting at start with
// the given step and length, and a power spectrum made of a constant floor
// plus Gaussian bumps centred at 1/Period.
func SyntheticSpectrum(start, step float64, length int, floor float64, bumps ...Bump) (freq, power []float64) {
	freq = make([]float64, length)
	power = make([]float64, length)
	for i := range freq {
		f := start + float64(i)*step
		freq[i] = f
		p := floor
		for _, b := range bumps {
			width := b.Width
			if width == 0 {
				width = 0.004
			}
			d := (f - 1/b.Period) / width
			p += b.Height * math.Exp(-0.5*d*d)
		}
		power[i] = p
	}
	return freq, power
}
