package classify

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Default forest settings.
const (
	DefaultTrees    = 450
	DefaultMaxDepth = 15
	DefaultSeed     = 42
)

// Config controls forest training.
type Config struct {
	Trees    int
	MaxDepth int
	// MinSplit is the smallest node that may be split.
	MinSplit int
	Seed     uint64
	// Workers bounds concurrent tree growth; zero means GOMAXPROCS.
	Workers int
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the forest settings used by the catalogue classifier.
func DefaultConfig() Config {
	return Config{Trees: DefaultTrees, MaxDepth: DefaultMaxDepth, MinSplit: 2, Seed: DefaultSeed}
}

// WithTrees sets the number of trees.
func WithTrees(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.Trees = n
		}
	}
}

// WithMaxDepth sets the depth limit.
func WithMaxDepth(d int) Option {
	return func(c *Config) {
		if d > 0 {
			c.MaxDepth = d
		}
	}
}

// WithSeed sets the random seed.
func WithSeed(seed uint64) Option {
	return func(c *Config) { c.Seed = seed }
}

// WithWorkers bounds concurrent tree growth.
func WithWorkers(n int) Option {
	return func(c *Config) { c.Workers = n }
}

// ApplyOptions applies opts on top of DefaultConfig.
func ApplyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Forest is a trained random forest over a fixed feature vector.
type Forest struct {
	features int
	trees    []*node
}

// Train grows a forest on samples x with labels y. Every sample must have
// the same number of finite features.
func Train(ctx context.Context, x [][]float64, y []bool, opts ...Option) (*Forest, error) {
	return ApplyOptions(opts...).Train(ctx, x, y)
}

// Train is like the package-level Train with explicit settings.
func (cfg Config) Train(ctx context.Context, x [][]float64, y []bool) (*Forest, error) {
	if len(x) == 0 {
		return nil, ErrNoTrainingData
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d samples, %d labels", ErrShape, len(x), len(y))
	}
	nf := len(x[0])
	if nf == 0 {
		return nil, fmt.Errorf("%w: no features", ErrShape)
	}
	for i, row := range x {
		if len(row) != nf {
			return nil, fmt.Errorf("%w: sample %d has %d features, want %d", ErrShape, i, len(row), nf)
		}
	}
	if cfg.Trees < 1 {
		cfg.Trees = 1
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	mtry := max(1, int(math.Sqrt(float64(nf))))

	f := &Forest{features: nf, trees: make([]*node, cfg.Trees)}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for t := range f.trees {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(cfg.Seed, uint64(t)))
			idx := make([]int, len(x))
			for i := range idx {
				idx[i] = rng.IntN(len(x))
			}
			gr := &grower{x: x, y: y, maxDepth: cfg.MaxDepth, minSplit: max(2, cfg.MinSplit), mtry: mtry, rng: rng}
			f.trees[t] = gr.grow(idx, 0)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return f, nil
}

// Features returns the feature vector length.
func (f *Forest) Features() int { return f.features }

// Probability returns the mean leaf rotator fraction over all trees.
func (f *Forest) Probability(x []float64) float64 {
	var sum float64
	for _, t := range f.trees {
		sum += t.predict(x)
	}
	return sum / float64(len(f.trees))
}

// Predict reports whether x is more likely a rotator than not.
func (f *Forest) Predict(x []float64) bool { return f.Probability(x) > 0.5 }
