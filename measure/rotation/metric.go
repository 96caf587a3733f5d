package rotation

import (
	"math"

	"github.com/cwbudde/algo-rotation/dsp/periodogram"
	"github.com/cwbudde/algo-rotation/lightcurve"
)

// SectorMetric is the rotation measurement of one sector. Absent values are
// NaN. A metric with Valid unset stands for a sector that was skipped
// entirely and carries no label.
type SectorMetric struct {
	Sector      string
	Period      float64
	Uncertainty float64
	Power       float64
	MedianPower float64
	AliasFlag   AliasFlag
	Valid       bool
}

// absentMetric returns a metric with every value NaN.
func absentMetric(label string) SectorMetric {
	nan := math.NaN()
	return SectorMetric{
		Sector:      label,
		Period:      nan,
		Uncertainty: nan,
		Power:       nan,
		MedianPower: nan,
		AliasFlag:   AliasNone,
		Valid:       label != "",
	}
}

// SNR returns Power/MedianPower.
func (m SectorMetric) SNR() float64 { return m.Power / m.MedianPower }

// FracUncertainty returns Uncertainty/Period.
func (m SectorMetric) FracUncertainty() float64 { return m.Uncertainty / m.Period }

// SectorResult is a SectorMetric plus the arrays used to plot it.
type SectorResult struct {
	SectorMetric

	Curve     lightcurve.LightCurve
	Spectrum  periodogram.Spectrum
	Selection Selection
	Fit       PeakFit
	// Err is the estimation error, if any. Skipped sectors carry ErrSkipped.
	Err error
}

// Snapshot converts r into its archived form.
func (r SectorResult) Snapshot() lightcurve.SectorSnapshot {
	s := lightcurve.SectorSnapshot{
		Sector:      r.Sector,
		Time:        r.Curve.Time,
		Flux:        r.Curve.Flux,
		FluxErr:     r.Curve.FluxErr,
		Frequency:   r.Spectrum.Frequency,
		Power:       r.Spectrum.Power,
		Peaks:       r.Selection.Peaks,
		Period:      lightcurve.Value(r.Period),
		Uncertainty: lightcurve.Value(r.Uncertainty),
		Flag:        lightcurve.Value(r.AliasFlag),
		FitFreq:     r.Fit.Frequency,
		FitModel:    r.Fit.Model,
	}
	if r.Err != nil {
		s.Err = r.Err.Error()
	}
	return s
}

// Metrics extracts the metrics from results.
func Metrics(results []SectorResult) []SectorMetric {
	out := make([]SectorMetric, len(results))
	for i, r := range results {
		out[i] = r.SectorMetric
	}
	return out
}
