package periodogram

import "errors"

var (
	// ErrTooFewSamples is returned when a series has fewer than MinSamples
	// usable samples.
	ErrTooFewSamples = errors.New("periodogram: too few samples")
	// ErrDegenerate is returned when the weighted variance of the series is
	// zero or the computation produced non-finite values.
	ErrDegenerate = errors.New("periodogram: degenerate series")
	// ErrLengthMismatch is returned when time, flux and error slices differ
	// in length.
	ErrLengthMismatch = errors.New("periodogram: time, flux and error length mismatch")
	// ErrInvalidGrid is returned for grids with non-positive step or bounds.
	ErrInvalidGrid = errors.New("periodogram: invalid frequency grid")
)
