package rotation

import "errors"

var (
	// ErrEmptySpectrum is returned when a periodogram has no finite power.
	ErrEmptySpectrum = errors.New("rotation: empty spectrum")
	// ErrInvalidPeriod is returned for a non-positive or non-finite period.
	ErrInvalidPeriod = errors.New("rotation: invalid period")
	// ErrFitWindow is returned when the peak window is too small to fit.
	ErrFitWindow = errors.New("rotation: peak window too small")
	// ErrFitDiverged is returned when the fitted peak is wider than its
	// centre frequency, which has no finite period interval.
	ErrFitDiverged = errors.New("rotation: peak fit diverged")
	// ErrSkipped marks a sector with too few finite samples to analyse.
	ErrSkipped = errors.New("rotation: too few finite samples")
)
