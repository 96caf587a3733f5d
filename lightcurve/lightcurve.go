// Package lightcurve holds light-curve types and the acquisition sources that
// produce them.
package lightcurve

import (
	"math"

	"github.com/cwbudde/algo-rotation/stats/robust"
)

// UnknownSector is substituted for missing sector labels.
const UnknownSector = "unknown"

// LightCurve is one sector's time series. FluxErr may be nil, meaning unit
// weights. Time need not be sorted.
type LightCurve struct {
	Time    []float64 `json:"time"`
	Flux    []float64 `json:"flux"`
	FluxErr []float64 `json:"flux_err,omitempty"`
}

// Len returns the number of samples.
func (lc LightCurve) Len() int { return len(lc.Time) }

// Finite returns a copy of lc keeping only samples with finite time and flux.
// When FluxErr is present, samples whose error is non-finite or not positive
// are dropped as well.
func (lc LightCurve) Finite() LightCurve {
	out := LightCurve{
		Time: make([]float64, 0, len(lc.Time)),
		Flux: make([]float64, 0, len(lc.Time)),
	}
	hasErr := len(lc.FluxErr) == len(lc.Time) && lc.FluxErr != nil
	if hasErr {
		out.FluxErr = make([]float64, 0, len(lc.Time))
	}
	for i, t := range lc.Time {
		if i >= len(lc.Flux) {
			break
		}
		f := lc.Flux[i]
		if !finite(t) || !finite(f) {
			continue
		}
		if hasErr {
			e := lc.FluxErr[i]
			if !finite(e) || e <= 0 {
				continue
			}
			out.FluxErr = append(out.FluxErr, e)
		}
		out.Time = append(out.Time, t)
		out.Flux = append(out.Flux, f)
	}
	return out
}

// Normalize divides flux and flux errors by the median finite flux in place.
// It is a no-op when the median is not a positive finite number.
func (lc LightCurve) Normalize() {
	med := robust.NanMedian(lc.Flux)
	if !finite(med) || med <= 0 {
		return
	}
	for i := range lc.Flux {
		lc.Flux[i] /= med
	}
	for i := range lc.FluxErr {
		lc.FluxErr[i] /= med
	}
}

// Observation pairs a light curve with the label of the sector it came from.
type Observation struct {
	Sector string     `json:"sector"`
	Curve  LightCurve `json:"curve"`
}

// Pair zips curves with labels. Missing, short or empty label lists are
// tolerated: any curve without a usable label gets [UnknownSector].
func Pair(curves []LightCurve, labels []string) []Observation {
	out := make([]Observation, len(curves))
	for i, c := range curves {
		label := UnknownSector
		if i < len(labels) && labels[i] != "" {
			label = labels[i]
		}
		out[i] = Observation{Sector: label, Curve: c}
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
