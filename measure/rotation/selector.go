package rotation

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-rotation/dsp/periodogram"
)

// Selector defaults.
const (
	DefaultPeakFraction = 0.5
	DefaultAliasLow     = 1.7
	DefaultAliasHigh    = 2.3
	DefaultLongPeriod   = 18.0
	DefaultVeryLong     = 28.0
)

// SelectorConfig holds the thresholds of the period selector.
type SelectorConfig struct {
	// PeakFraction is the minimum peak height relative to the global maximum.
	PeakFraction float64
	// AliasLow and AliasHigh bound the open interval, in multiples of the
	// global-maximum period, in which a peak counts as its alias.
	AliasLow  float64
	AliasHigh float64
	// LongPeriod (days) is the limit above which periods are distrusted.
	LongPeriod float64
	// VeryLong (days) makes the alias win over a very long global maximum.
	VeryLong float64
}

// DefaultSelectorConfig returns the standard selector thresholds.
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{
		PeakFraction: DefaultPeakFraction,
		AliasLow:     DefaultAliasLow,
		AliasHigh:    DefaultAliasHigh,
		LongPeriod:   DefaultLongPeriod,
		VeryLong:     DefaultVeryLong,
	}
}

// Selection is the outcome of period selection on one periodogram.
type Selection struct {
	Period      float64
	Power       float64
	Peaks       []int
	MaxIndex    int
	MedianPower float64
	Flag        AliasFlag
}

// Select runs the default selector on spec.
func Select(spec periodogram.Spectrum) (Selection, error) {
	return DefaultSelectorConfig().Select(spec)
}

// Select chooses a rotation period from spec.
//
// Peaks are the local maxima at least PeakFraction of the global maximum. If
// one of them (first in frequency order) lies strictly between AliasLow and
// AliasHigh times the global-maximum period, it is treated as the true period
// unless it exceeds LongPeriod. Finally a selection longer than LongPeriod is
// replaced by the longest peak shorter than LongPeriod, if any.
func (cfg SelectorConfig) Select(spec periodogram.Spectrum) (Selection, error) {
	if spec.Len() == 0 || len(spec.Frequency) != spec.Len() {
		return Selection{}, ErrEmptySpectrum
	}
	imax := spec.MaxIndex()
	if imax < 0 {
		return Selection{}, ErrEmptySpectrum
	}

	fmax := spec.Power[imax]
	sel := Selection{
		Peaks:       periodogram.FindPeaks(spec.Power, cfg.PeakFraction*fmax),
		MaxIndex:    imax,
		MedianPower: spec.MedianPower(),
	}

	pPer := spec.Period(imax)
	if !(pPer > 0) || math.IsInf(pPer, 0) {
		return Selection{}, fmt.Errorf("%w: %v at index %d", ErrInvalidPeriod, pPer, imax)
	}

	alias := -1
	for _, k := range sel.Peaks {
		p := spec.Period(k)
		if p > cfg.AliasLow*pPer && p < cfg.AliasHigh*pPer {
			alias = k
			break
		}
	}

	switch {
	case alias < 0:
		sel.Period, sel.Power, sel.Flag = pPer, fmax, FlagGlobalMax
	case spec.Period(alias) > cfg.LongPeriod:
		sel.Period, sel.Power, sel.Flag = pPer, fmax, FlagLongAlias
	case pPer > cfg.VeryLong:
		sel.Period, sel.Power, sel.Flag = spec.Period(alias), spec.Power[alias], FlagOverride
	default:
		sel.Period, sel.Power, sel.Flag = spec.Period(alias), spec.Power[alias], FlagAlias
	}

	if sel.Period > cfg.LongPeriod {
		best := -1
		for _, k := range sel.Peaks {
			p := spec.Period(k)
			if p < cfg.LongPeriod && (best < 0 || p > spec.Period(best)) {
				best = k
			}
		}
		if best >= 0 {
			sel.Period, sel.Power, sel.Flag = spec.Period(best), spec.Power[best], FlagOverride
		}
	}

	return sel, nil
}
