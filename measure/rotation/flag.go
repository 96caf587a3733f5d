package rotation

import (
	"math"
	"strconv"
)

// AliasFlag records which branch of the period selector produced a period.
type AliasFlag float64

const (
	// FlagOverride: a long-period choice was replaced by a shorter peak, or
	// the half-period alias won because the global maximum was very long.
	FlagOverride AliasFlag = 0
	// FlagAlias: the peak near twice the global maximum was taken.
	FlagAlias AliasFlag = 0.5
	// FlagGlobalMax: the global maximum had no alias and was taken as is.
	FlagGlobalMax AliasFlag = 1
	// FlagLongAlias: an alias existed but exceeded the long-period limit, so
	// the global maximum was kept.
	FlagLongAlias AliasFlag = 1.5
)

// AliasNone is the flag of a sector whose estimation failed.
var AliasNone = AliasFlag(math.NaN())

// Valid reports whether f is one of the four selector outcomes.
func (f AliasFlag) Valid() bool {
	switch f {
	case FlagOverride, FlagAlias, FlagGlobalMax, FlagLongAlias:
		return true
	}
	return false
}

func (f AliasFlag) String() string {
	if math.IsNaN(float64(f)) {
		return "none"
	}
	return strconv.FormatFloat(float64(f), 'g', -1, 64)
}
