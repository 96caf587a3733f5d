package lightcurve

import (
	"context"
	"errors"
)

// ErrNoLightCurves is returned by a Source when a star has no usable light
// curves.
var ErrNoLightCurves = errors.New("lightcurve: no usable light curves")

// Source fetches every available sector of a star, in archive order.
// Implementations must be safe for concurrent use by multiple goroutines.
type Source interface {
	Fetch(ctx context.Context, starID string) ([]Observation, error)
}

// SourceFunc adapts a function to [Source].
type SourceFunc func(ctx context.Context, starID string) ([]Observation, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context, starID string) ([]Observation, error) {
	return f(ctx, starID)
}
