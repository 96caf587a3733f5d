package reconcile

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-rotation/measure/rotation"
	"github.com/cwbudde/algo-rotation/stats/robust"
)

// Record is the reconciled result of one star.
type Record struct {
	StarID  string
	Sectors []rotation.SectorMetric

	FinalPeriod      float64
	FinalUncertainty float64
	// Detected is the number of detected sectors among the first MaxSectors.
	Detected int
	// Matches is the number of agreeing sectors, NaN unless Detected > 1.
	Matches float64
	// SectorCount is the number of analysed (labelled) sectors among the
	// first MaxSectors.
	SectorCount   int
	AutoValidated AutoVal

	// Means over all detected sectors; NaN without detections.
	SNR         float64
	Power       float64
	MedianPower float64
	FracUnc     float64

	// Warning is set when every detected sector was rejected.
	Warning string
}

// Reliable reports whether the star was automatically validated.
func (r Record) Reliable() bool { return r.AutoValidated == AutoValTrue }

// Detect reports whether m is a detection under the default thresholds.
func Detect(m rotation.SectorMetric) bool { return DefaultConfig().Detect(m) }

// Detect reports whether m has SNR of at least MinSNR and a fractional
// uncertainty of at most MaxFracUnc. Metrics with NaN values are never
// detections.
func (cfg Config) Detect(m rotation.SectorMetric) bool {
	return m.SNR() >= cfg.MinSNR && m.FracUncertainty() <= cfg.MaxFracUnc
}

// DetectAll applies Detect to every metric.
func (cfg Config) DetectAll(metrics []rotation.SectorMetric) []bool {
	out := make([]bool, len(metrics))
	for i, m := range metrics {
		out[i] = cfg.Detect(m)
	}
	return out
}

// Reconcile reconciles metrics with the default thresholds.
func Reconcile(starID string, metrics []rotation.SectorMetric) Record {
	return DefaultConfig().Reconcile(starID, metrics)
}

// Reconcile combines the sector metrics of one star into a Record.
//
//nolint:funlen
func (cfg Config) Reconcile(starID string, metrics []rotation.SectorMetric) Record {
	rec := Record{
		StarID:           starID,
		Sectors:          metrics,
		FinalPeriod:      math.NaN(),
		FinalUncertainty: math.NaN(),
		Matches:          math.NaN(),
	}

	var detPeriods, detUncs, allPeriods, allUncs []float64
	limit := min(len(metrics), cfg.MaxSectors)
	for _, m := range metrics[:limit] {
		if cfg.Detect(m) {
			detPeriods = append(detPeriods, m.Period)
			detUncs = append(detUncs, m.Uncertainty)
		}
		if m.Valid && m.Sector != "" {
			rec.SectorCount++
			allPeriods = append(allPeriods, m.Period)
			allUncs = append(allUncs, m.Uncertainty)
		}
	}
	rec.Detected = len(detPeriods)

	switch {
	case rec.Detected > 1:
		median := robust.Median(detPeriods)
		medianUnc := robust.Median(detUncs)
		matches := 0
		for i, p := range detPeriods {
			if cfg.matches(p, detUncs[i], median, medianUnc) {
				matches++
			}
		}
		rec.Matches = float64(matches)
		rec.AutoValidated = autoValOf(float64(matches) >= cfg.Quorum*float64(rec.Detected))
		if matches > 0 {
			// Every agreeing sector is assigned the median, so the largest
			// assigned value is the median itself.
			rec.FinalPeriod = median
			rec.FinalUncertainty = medianUnc
		} else {
			rec.Warning = fmt.Sprintf("all %d detected sectors rejected for TIC %s", rec.Detected, starID)
		}
	case rec.Detected == 1:
		rec.FinalPeriod = detPeriods[0]
		rec.FinalUncertainty = detUncs[0]
	default:
		rec.FinalPeriod = robust.NanMedian(allPeriods)
		rec.FinalUncertainty = robust.NanMedian(allUncs)
	}

	cfg.aggregate(&rec)
	return rec
}

// matches reports whether period agrees with the consensus median as the
// same period, its half or its double.
func (cfg Config) matches(period, unc, median, medianUnc float64) bool {
	frac := period / median
	unci := math.Hypot(unc/period, medianUnc/median)
	u := frac * unci
	lo, hi := frac-cfg.Sigma*u, frac+cfg.Sigma*u
	for _, h := range [...]float64{0.5, 2, 1} {
		if lo < h && h < hi {
			return true
		}
	}
	return math.RoundToEven(frac) == 1 && unci < cfg.TightUnc
}

// aggregate fills the mean features over every detected sector.
func (cfg Config) aggregate(rec *Record) {
	var snr, power, mpower, fracUnc []float64
	for _, m := range rec.Sectors {
		if !cfg.Detect(m) {
			continue
		}
		snr = append(snr, m.SNR())
		power = append(power, m.Power)
		mpower = append(mpower, m.MedianPower)
		fracUnc = append(fracUnc, m.FracUncertainty())
	}
	rec.SNR = robust.Mean(snr)
	rec.Power = robust.Mean(power)
	rec.MedianPower = robust.Mean(mpower)
	rec.FracUnc = robust.Mean(fracUnc)
}
