package periodogram

import (
	"fmt"
	"math"
)

const (
	// DefaultMinPeriod is the shortest trial period in days.
	DefaultMinPeriod = 0.097
	// DefaultMaxPeriod is the longest trial period in days.
	DefaultMaxPeriod = 50.0
	// DefaultStep is the frequency step in cycles/day.
	DefaultStep = 0.001
)

// GridConfig describes a uniform frequency grid by its period bounds.
type GridConfig struct {
	MinPeriod float64
	MaxPeriod float64
	Step      float64
}

// GridOption mutates a GridConfig.
type GridOption func(*GridConfig)

// DefaultGridConfig returns the survey grid: periods from ~0.097 to 50 days at
// a constant frequency step of 0.001 cycles/day.
func DefaultGridConfig() GridConfig {
	return GridConfig{
		MinPeriod: DefaultMinPeriod,
		MaxPeriod: DefaultMaxPeriod,
		Step:      DefaultStep,
	}
}

// WithMinPeriod sets the shortest trial period.
func WithMinPeriod(p float64) GridOption {
	return func(cfg *GridConfig) {
		if p > 0 {
			cfg.MinPeriod = p
		}
	}
}

// WithMaxPeriod sets the longest trial period.
func WithMaxPeriod(p float64) GridOption {
	return func(cfg *GridConfig) {
		if p > 0 {
			cfg.MaxPeriod = p
		}
	}
}

// WithStep sets the frequency step.
func WithStep(step float64) GridOption {
	return func(cfg *GridConfig) {
		if step > 0 {
			cfg.Step = step
		}
	}
}

// Grid is a uniform frequency grid: Start, Start+Step, ... (Len values).
type Grid struct {
	Start float64
	Step  float64
	Len   int
}

// NewGrid builds a grid from the default configuration and opts.
//
// The grid covers [1/MaxPeriod, 1/MinPeriod) with the half-open convention
// of a range with a fixed step.
func NewGrid(opts ...GridOption) (Grid, error) {
	cfg := DefaultGridConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg.Grid()
}

// Grid returns the grid described by cfg.
func (cfg GridConfig) Grid() (Grid, error) {
	if !(cfg.MinPeriod > 0) || !(cfg.MaxPeriod > cfg.MinPeriod) || !(cfg.Step > 0) {
		return Grid{}, fmt.Errorf("%w: periods [%v, %v] step %v", ErrInvalidGrid, cfg.MinPeriod, cfg.MaxPeriod, cfg.Step)
	}
	start := 1 / cfg.MaxPeriod
	stop := 1 / cfg.MinPeriod
	n := int(math.Ceil((stop - start) / cfg.Step))
	if n < 1 {
		return Grid{}, fmt.Errorf("%w: empty grid", ErrInvalidGrid)
	}
	return Grid{Start: start, Step: cfg.Step, Len: n}, nil
}

// DefaultGrid returns the survey grid. It cannot fail.
func DefaultGrid() Grid {
	g, _ := DefaultGridConfig().Grid()
	return g
}

// Frequency returns the i-th grid frequency.
func (g Grid) Frequency(i int) float64 {
	return g.Start + float64(i)*g.Step
}

// Frequencies returns all grid frequencies.
func (g Grid) Frequencies() []float64 {
	out := make([]float64, g.Len)
	for i := range out {
		out[i] = g.Frequency(i)
	}
	return out
}
