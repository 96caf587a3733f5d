package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-rotation/checkpoint"
	"github.com/cwbudde/algo-rotation/internal/obs"
	"github.com/cwbudde/algo-rotation/lightcurve"
	"github.com/cwbudde/algo-rotation/measure/rotation"
	"github.com/cwbudde/algo-rotation/table"
)

// Config wires a Runner.
type Config struct {
	Source  lightcurve.Source
	Builder *rotation.Builder
	Raw     *table.RawWriter
	// Store defaults to a TableStore on the raw table.
	Store checkpoint.Store
	// Failures is optional.
	Failures *table.FailureLog
	// ArchiveDir enables light-curve snapshots when set.
	ArchiveDir string
	// Workers is the number of stars analysed concurrently (default 1).
	Workers int
	// FetchTimeout bounds each acquisition; zero means no limit.
	FetchTimeout time.Duration
	Logger       *slog.Logger
	Metrics      *obs.Metrics
	// RunID defaults to a random UUID.
	RunID uuid.UUID
}

// Stats counts the stars of a run.
type Stats struct {
	Done    int
	Failed  int
	Resumed int
}

// Runner processes star lists. A Runner is not safe for concurrent Run
// calls.
type Runner struct {
	cfg Config
	log *slog.Logger
}

// NewRunner validates cfg and returns a Runner.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Source == nil {
		return nil, errors.New("pipeline: no light-curve source")
	}
	if cfg.Raw == nil {
		return nil, errors.New("pipeline: no raw table")
	}
	if cfg.Builder == nil {
		cfg.Builder = rotation.NewBuilder()
	}
	if cfg.Store == nil {
		cfg.Store = checkpoint.TableStore{Path: cfg.Raw.Path()}
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.RunID == uuid.Nil {
		cfg.RunID = uuid.New()
	}
	log := cfg.Logger
	if log == nil {
		log = obs.Discard()
	}
	return &Runner{cfg: cfg, log: log.With("run", cfg.RunID.String())}, nil
}

// RunID returns the identifier of this runner's run.
func (r *Runner) RunID() uuid.UUID { return r.cfg.RunID }

type starResult struct {
	row     table.InputRow
	results []rotation.SectorResult
	err     error
	elapsed time.Duration
}

// Run processes every star of in that is neither checkpointed nor already in
// the raw table. Stars are analysed up to Workers at a time, written in input
// order and checkpointed once per batch. It returns
// early only on context cancellation or when the raw table or checkpoint
// cannot be written.
func (r *Runner) Run(ctx context.Context, in table.Input) (Stats, error) {
	var stats Stats
	done, err := r.cfg.Store.Load(ctx)
	if err != nil {
		return stats, fmt.Errorf("pipeline: load checkpoint: %w", err)
	}
	if done == nil {
		done = checkpoint.NewSet()
	}
	// Rows already in the raw table are done whatever the store says.
	written, err := table.ReadIDs(r.cfg.Raw.Path())
	if err != nil {
		return stats, fmt.Errorf("pipeline: load raw table: %w", err)
	}
	for _, id := range written {
		done.Add(id)
	}
	r.log.Info("run started", "stars", len(in.Rows), "completed", len(done), "workers", r.cfg.Workers)
	start := time.Now()

	queued := checkpoint.NewSet()
	pending := make([]table.InputRow, 0, len(in.Rows))
	for _, row := range in.Rows {
		if done.Has(row.ID) || queued.Has(row.ID) {
			stats.Resumed++
			r.cfg.Metrics.ObserveStar(obs.StarResumed, 0)
			r.log.Debug("already processed", "tic", row.ID)
			continue
		}
		queued.Add(row.ID)
		pending = append(pending, row)
	}

	for lo := 0; lo < len(pending); lo += r.cfg.Workers {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		batch := pending[lo:min(lo+r.cfg.Workers, len(pending))]
		results := r.analyseBatch(ctx, batch)

		committed := make([]string, 0, len(results))
		for _, res := range results {
			if errors.Is(res.err, context.Canceled) && ctx.Err() != nil {
				return stats, ctx.Err()
			}
			if res.err != nil {
				stats.Failed++
				r.fail(res.row.ID, res.err, res.elapsed)
				continue
			}
			if err := r.write(in, res); err != nil {
				return stats, errors.Join(err, r.checkpoint(ctx, committed))
			}
			committed = append(committed, res.row.ID)
			stats.Done++
		}
		if err := r.checkpoint(ctx, committed); err != nil {
			return stats, err
		}
	}

	r.log.Info("run finished", "done", stats.Done, "failed", stats.Failed, "resumed", stats.Resumed,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return stats, nil
}

func (r *Runner) analyseBatch(ctx context.Context, batch []table.InputRow) []starResult {
	out := make([]starResult, len(batch))
	if len(batch) == 1 {
		out[0] = r.analyse(ctx, batch[0])
		return out
	}
	var g errgroup.Group
	g.SetLimit(r.cfg.Workers)
	for i, row := range batch {
		g.Go(func() error {
			out[i] = r.analyse(ctx, row)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// analyse fetches and measures one star. Panics are turned into errors so
// one star cannot take down the run.
func (r *Runner) analyse(ctx context.Context, row table.InputRow) (res starResult) {
	res.row = row
	start := time.Now()
	defer func() {
		if v := recover(); v != nil {
			res.err = fmt.Errorf("pipeline: panic: %v", v)
		}
		res.elapsed = time.Since(start)
	}()

	if _, err := strconv.ParseInt(row.ID, 10, 64); err != nil {
		r.log.Warn("non-integer TIC", "tic", row.ID)
	}

	fetchCtx := ctx
	if r.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, r.cfg.FetchTimeout)
		defer cancel()
	}
	observations, err := r.cfg.Source.Fetch(fetchCtx, row.ID)
	if err != nil {
		res.err = err
		return res
	}
	if len(observations) == 0 {
		res.err = fmt.Errorf("%w for TIC %s", lightcurve.ErrNoLightCurves, row.ID)
		return res
	}

	res.results, res.err = r.cfg.Builder.Star(ctx, row.ID, observations)
	return res
}

// checkpoint commits the stars of one batch after their rows are written.
func (r *Runner) checkpoint(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if bs, ok := r.cfg.Store.(checkpoint.BatchStore); ok {
		if err := bs.CommitBatch(ctx, ids); err != nil {
			return fmt.Errorf("pipeline: checkpoint: %w", err)
		}
		return nil
	}
	for _, id := range ids {
		if err := r.cfg.Store.Commit(ctx, id); err != nil {
			return fmt.Errorf("pipeline: checkpoint TIC %s: %w", id, err)
		}
	}
	return nil
}

// write appends the star's row and its optional snapshot.
func (r *Runner) write(in table.Input, res starResult) error {
	row := table.RawRow{
		StarID:  res.row.ID,
		Extra:   in.ExtraMap(res.row),
		Sectors: rotation.Metrics(res.results),
	}
	if err := r.cfg.Raw.Append(row); err != nil {
		return fmt.Errorf("pipeline: write TIC %s: %w", res.row.ID, err)
	}

	if r.cfg.ArchiveDir != "" {
		snap := lightcurve.Snapshot{StarID: res.row.ID, RunID: r.cfg.RunID.String()}
		for _, sr := range res.results {
			snap.Sectors = append(snap.Sectors, sr.Snapshot())
		}
		if _, err := lightcurve.SaveSnapshot(r.cfg.ArchiveDir, snap); err != nil {
			r.log.Warn("snapshot not saved", "tic", res.row.ID, "err", err)
		}
	}

	r.cfg.Metrics.ObserveStar(obs.StarDone, res.elapsed)
	perSector := 0.0
	if n := len(res.results); n > 0 {
		perSector = res.elapsed.Seconds() / float64(n)
	}
	r.log.Info("star processed", "tic", res.row.ID, "sectors", len(res.results),
		"elapsed", res.elapsed.Round(time.Millisecond), "s_per_sector", strconv.FormatFloat(perSector, 'f', 2, 64))
	return nil
}

func (r *Runner) fail(id string, err error, elapsed time.Duration) {
	r.cfg.Metrics.ObserveStar(obs.StarFailed, elapsed)
	r.log.Warn("star failed", "tic", id, "err", err)
	if r.cfg.Failures == nil {
		return
	}
	if lerr := r.cfg.Failures.Record(id, err); lerr != nil {
		r.log.Error("failure log not written", "tic", id, "err", lerr)
	}
}
