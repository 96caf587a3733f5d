package reconcile

// Defaults.
const (
	DefaultMinSNR     = 40.0
	DefaultMaxFracUnc = 0.25
	DefaultMaxSectors = 25
	DefaultQuorum     = 2.0 / 3.0
	DefaultSigma      = 2.0
	DefaultTightUnc   = 0.05
)

// Config holds detection and reconciliation thresholds.
type Config struct {
	// MinSNR is the minimum peak-to-median power ratio of a detection.
	MinSNR float64
	// MaxFracUnc is the largest fractional period uncertainty of a detection.
	MaxFracUnc float64
	// MaxSectors caps the number of sector positions considered when
	// reconciling.
	MaxSectors int
	// Quorum is the fraction of agreeing sectors needed for validation.
	Quorum float64
	// Sigma is the half width, in combined standard deviations, of the
	// harmonic matching window.
	Sigma float64
	// TightUnc accepts a sector whose ratio rounds to 1 when its combined
	// fractional uncertainty is below this value.
	TightUnc float64
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		MinSNR:     DefaultMinSNR,
		MaxFracUnc: DefaultMaxFracUnc,
		MaxSectors: DefaultMaxSectors,
		Quorum:     DefaultQuorum,
		Sigma:      DefaultSigma,
		TightUnc:   DefaultTightUnc,
	}
}

// WithMinSNR sets the detection SNR threshold.
func WithMinSNR(v float64) Option {
	return func(cfg *Config) {
		if v > 0 {
			cfg.MinSNR = v
		}
	}
}

// WithMaxFracUnc sets the detection fractional uncertainty limit.
func WithMaxFracUnc(v float64) Option {
	return func(cfg *Config) {
		if v > 0 {
			cfg.MaxFracUnc = v
		}
	}
}

// WithMaxSectors sets the sector position cap.
func WithMaxSectors(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.MaxSectors = n
		}
	}
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
