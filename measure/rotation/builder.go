package rotation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cwbudde/algo-rotation/dsp/periodogram"
	"github.com/cwbudde/algo-rotation/lightcurve"
)

// Sector outcomes reported to an Observer.
const (
	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// Observer receives one call per analysed sector.
type Observer interface {
	ObserveSector(outcome string, d time.Duration)
}

// Config holds the per-sector analysis settings.
type Config struct {
	Grid        periodogram.Grid
	Selector    SelectorConfig
	Uncertainty UncertaintyConfig
	// MinSamples is the minimum number of finite samples per sector.
	MinSamples int
	Logger     *slog.Logger
	Observer   Observer
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the standard analysis settings.
func DefaultConfig() Config {
	return Config{
		Grid:        periodogram.DefaultGrid(),
		Selector:    DefaultSelectorConfig(),
		Uncertainty: DefaultUncertaintyConfig(),
		MinSamples:  periodogram.MinSamples,
	}
}

// WithGrid sets the frequency grid.
func WithGrid(g periodogram.Grid) Option {
	return func(cfg *Config) {
		if g.Len > 0 && g.Step > 0 {
			cfg.Grid = g
		}
	}
}

// WithSelector sets the period selector thresholds.
func WithSelector(s SelectorConfig) Option {
	return func(cfg *Config) { cfg.Selector = s }
}

// WithUncertainty sets the peak fit settings.
func WithUncertainty(u UncertaintyConfig) Option {
	return func(cfg *Config) { cfg.Uncertainty = u }
}

// WithMinSamples sets the minimum number of finite samples per sector.
func WithMinSamples(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.MinSamples = n
		}
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *Config) { cfg.Logger = l }
}

// WithObserver sets the per-sector observer.
func WithObserver(o Observer) Option {
	return func(cfg *Config) { cfg.Observer = o }
}

// ApplyOptions applies zero or more options to the default config.
func ApplyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Builder computes sector metrics for stars. It is safe for concurrent use.
type Builder struct {
	cfg Config
	log *slog.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(opts ...Option) *Builder {
	cfg := ApplyOptions(opts...)
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Builder{cfg: cfg, log: log}
}

// Config returns the builder settings.
func (b *Builder) Config() Config { return b.cfg }

// Star analyses every observation of starID in order. The result has one
// entry per observation. Sector failures are recorded in the entry and never
// returned; the only error is ctx's.
func (b *Builder) Star(ctx context.Context, starID string, obs []lightcurve.Observation) ([]SectorResult, error) {
	out := make([]SectorResult, 0, len(obs))
	for i, o := range obs {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		start := time.Now()
		r := b.Sector(o)
		outcome := OutcomeOK
		switch {
		case errors.Is(r.Err, ErrSkipped):
			outcome = OutcomeSkipped
			b.log.Debug("sector skipped", "tic", starID, "index", i, "samples", r.Curve.Len())
		case r.Err != nil:
			outcome = OutcomeFailed
			b.log.Warn("sector failed", "tic", starID, "index", i, "sector", r.Sector, "err", r.Err)
		default:
			b.log.Debug("sector analysed", "tic", starID, "index", i, "sector", r.Sector,
				"period", r.Period, "unc", r.Uncertainty, "snr", r.SNR(), "flag", r.AliasFlag.String())
		}
		if b.cfg.Observer != nil {
			b.cfg.Observer.ObserveSector(outcome, time.Since(start))
		}
		out = append(out, r)
	}
	return out, nil
}

// Sector analyses a single observation.
func (b *Builder) Sector(o lightcurve.Observation) (res SectorResult) {
	label := o.Sector
	if label == "" {
		label = lightcurve.UnknownSector
	}
	curve := o.Curve.Finite()
	res.Curve = curve

	if curve.Len() < b.cfg.MinSamples {
		res.SectorMetric = absentMetric("")
		res.Err = fmt.Errorf("%w: %d < %d", ErrSkipped, curve.Len(), b.cfg.MinSamples)
		return res
	}
	res.SectorMetric = absentMetric(label)

	defer func() {
		if v := recover(); v != nil {
			res.SectorMetric = absentMetric(label)
			res.Err = fmt.Errorf("rotation: sector %s: panic: %v", label, v)
		}
	}()

	spec, err := periodogram.GLS(curve.Time, curve.Flux, curve.FluxErr, b.cfg.Grid)
	if err != nil {
		res.Err = fmt.Errorf("rotation: sector %s: %w", label, err)
		return res
	}
	res.Spectrum = spec

	sel, err := b.cfg.Selector.Select(spec)
	if err != nil {
		res.Err = fmt.Errorf("rotation: sector %s: %w", label, err)
		return res
	}
	res.Selection = sel

	res.SectorMetric = SectorMetric{
		Sector:      label,
		Period:      sel.Period,
		Uncertainty: math.NaN(),
		Power:       sel.Power,
		MedianPower: sel.MedianPower,
		AliasFlag:   sel.Flag,
		Valid:       true,
	}

	// A failed peak fit leaves the period in place with an unknown
	// uncertainty.
	pf, err := b.cfg.Uncertainty.Estimate(spec, sel.Period)
	res.Fit = pf
	if err != nil {
		res.Err = fmt.Errorf("rotation: sector %s: %w", label, err)
		return res
	}
	res.Uncertainty = pf.Uncertainty
	return res
}
