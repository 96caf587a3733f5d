package acf

import (
	"errors"
	"fmt"
	"math"
	"sort"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-rotation/stats/robust"
)

var (
	// ErrTooFewSamples is returned for series shorter than MinSamples.
	ErrTooFewSamples = errors.New("acf: too few samples")
	// ErrNoPeak is returned when the autocorrelation has no usable maximum.
	ErrNoPeak = errors.New("acf: no autocorrelation peak")
)

// Config controls the estimate.
type Config struct {
	MinSamples int
	// Smooth is the boxcar width in lags; values below 2 disable smoothing.
	Smooth int
	// MaxLagFraction limits the search to this fraction of the series span.
	MaxLagFraction float64
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the standard settings.
func DefaultConfig() Config {
	return Config{MinSamples: 20, Smooth: 5, MaxLagFraction: 0.5}
}

// WithSmooth sets the boxcar width.
func WithSmooth(n int) Option {
	return func(cfg *Config) {
		if n >= 0 {
			cfg.Smooth = n
		}
	}
}

// WithMaxLagFraction sets the searched fraction of the span.
func WithMaxLagFraction(f float64) Option {
	return func(cfg *Config) {
		if f > 0 && f <= 1 {
			cfg.MaxLagFraction = f
		}
	}
}

// Result holds the autocorrelation and the period read from it.
type Result struct {
	Cadence float64
	// ACF[k] is the normalised autocorrelation at lag k*Cadence.
	ACF    []float64
	Period float64
	// Height is the autocorrelation at the selected lag.
	Height float64
}

// Estimate computes the ACF period of (time, flux).
func Estimate(time, flux []float64, opts ...Option) (Result, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg.Estimate(time, flux)
}

// Estimate computes the ACF period of (time, flux).
func (cfg Config) Estimate(time, flux []float64) (Result, error) {
	if len(time) != len(flux) {
		return Result{}, fmt.Errorf("acf: time/flux length mismatch: %d != %d", len(time), len(flux))
	}
	series, cadence, err := cfg.resample(time, flux)
	if err != nil {
		return Result{}, err
	}

	corr, err := AutoCorrelate(series)
	if err != nil {
		return Result{}, err
	}
	corr = boxcar(corr, cfg.Smooth)

	res := Result{Cadence: cadence, ACF: corr}
	maxLag := int(cfg.MaxLagFraction * float64(len(corr)))
	lag, height, ok := firstPeakAfterZero(corr, maxLag)
	if !ok {
		return res, ErrNoPeak
	}
	res.Period = lag * cadence
	res.Height = height
	return res, nil
}

// resample bins the finite samples onto a uniform grid at the median cadence
// and removes the mean. Empty bins are left at zero (the mean).
func (cfg Config) resample(time, flux []float64) ([]float64, float64, error) {
	type sample struct{ t, f float64 }
	pts := make([]sample, 0, len(time))
	for i, t := range time {
		if !math.IsNaN(t) && !math.IsInf(t, 0) && !math.IsNaN(flux[i]) && !math.IsInf(flux[i], 0) {
			pts = append(pts, sample{t, flux[i]})
		}
	}
	if len(pts) < cfg.MinSamples || len(pts) < 3 {
		return nil, 0, fmt.Errorf("%w: %d", ErrTooFewSamples, len(pts))
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].t < pts[j].t })

	diffs := make([]float64, 0, len(pts)-1)
	for i := 1; i < len(pts); i++ {
		if d := pts[i].t - pts[i-1].t; d > 0 {
			diffs = append(diffs, d)
		}
	}
	cadence := robust.Median(diffs)
	if !(cadence > 0) {
		return nil, 0, fmt.Errorf("%w: no time spread", ErrTooFewSamples)
	}

	t0 := pts[0].t
	n := int(math.Round((pts[len(pts)-1].t-t0)/cadence)) + 1
	sum := make([]float64, n)
	cnt := make([]int, n)
	var mean float64
	for _, p := range pts {
		j := min(int(math.Round((p.t-t0)/cadence)), n-1)
		sum[j] += p.f
		cnt[j]++
		mean += p.f
	}
	mean /= float64(len(pts))

	out := make([]float64, n)
	for j := range out {
		if cnt[j] > 0 {
			out[j] = sum[j]/float64(cnt[j]) - mean
		}
	}
	return out, cadence, nil
}

// AutoCorrelate returns the non-negative-lag autocorrelation of x, normalised
// to 1 at lag zero. It uses a zero-padded FFT of at least twice the input
// length, so the result is the linear (not circular) autocorrelation.
func AutoCorrelate(x []float64) ([]float64, error) {
	n := len(x)
	if n == 0 {
		return nil, ErrTooFewSamples
	}
	size := nextPowerOf2(2 * n)

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("acf: failed to create FFT plan: %w", err)
	}

	in := make([]complex128, size)
	for i, v := range x {
		in[i] = complex(v, 0)
	}
	freq := make([]complex128, size)
	if err := plan.Forward(freq, in); err != nil {
		return nil, fmt.Errorf("acf: forward FFT failed: %w", err)
	}

	re := make([]float64, size)
	im := make([]float64, size)
	for i, c := range freq {
		re[i], im[i] = real(c), imag(c)
	}
	pow := make([]float64, size)
	vecmath.Power(pow, re, im)
	for i, p := range pow {
		in[i] = complex(p, 0)
	}

	if err := plan.Inverse(freq, in); err != nil {
		return nil, fmt.Errorf("acf: inverse FFT failed: %w", err)
	}

	zero := real(freq[0])
	if !(zero > 0) {
		return nil, ErrNoPeak
	}
	out := make([]float64, n)
	for k := range out {
		out[k] = real(freq[k]) / zero
	}
	return out, nil
}

func boxcar(x []float64, width int) []float64 {
	if width < 2 || len(x) == 0 {
		return x
	}
	half := width / 2
	out := make([]float64, len(x))
	for i := range x {
		lo := max(i-half, 0)
		hi := min(i+half+1, len(x))
		var s float64
		for _, v := range x[lo:hi] {
			s += v
		}
		out[i] = s / float64(hi-lo)
	}
	return out
}

// firstPeakAfterZero returns the interpolated lag and height of the first
// local maximum after the first non-positive value, searching lags below
// maxLag.
func firstPeakAfterZero(c []float64, maxLag int) (float64, float64, bool) {
	maxLag = min(maxLag, len(c)-1)
	k := 1
	for k < maxLag && c[k] > 0 {
		k++
	}
	for k++; k < maxLag; k++ {
		if c[k] > c[k-1] && c[k] >= c[k+1] && c[k] > 0 {
			y0, y1, y2 := c[k-1], c[k], c[k+1]
			den := y0 - 2*y1 + y2
			if den == 0 {
				return float64(k), y1, true
			}
			delta := 0.5 * (y0 - y2) / den
			return float64(k) + delta, y1 - 0.25*(y0-y2)*delta, true
		}
	}
	return 0, 0, false
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
