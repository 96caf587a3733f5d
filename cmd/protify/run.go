package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/cwbudde/algo-rotation/checkpoint"
	"github.com/cwbudde/algo-rotation/internal/obs"
	"github.com/cwbudde/algo-rotation/measure/rotation"
	"github.com/cwbudde/algo-rotation/pipeline"
	"github.com/cwbudde/algo-rotation/table"
)

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func runCmd(ctx context.Context, e *env, args []string) error {
	fs := e.newFlagSet("run")
	input := fs.String("input", "", "CSV file with a TIC (or ID) column (required)")
	rawPath := fs.String("raw", "rotation_raw.csv", "output CSV for per-sector metrics")
	saveLC := fs.Bool("save-lc", false, "save light curves and periodograms as gzipped JSON")
	lcDir := fs.String("lc-dir", e.cfg.LCDir, "directory for saved light curves")
	workers := fs.Int("workers", e.cfg.Workers, "stars analysed concurrently")
	failures := fs.String("failures", "", "CSV log of failed stars (default: <raw>.failures.csv)")
	sourceDir := fs.String("source-dir", e.cfg.LCDir, "local light-curve root (<dir>/TIC<id>/*.csv)")
	sourceURL := fs.String("source-url", e.cfg.ArchiveURL, "light-curve archive base URL; overrides -source-dir")
	metricsAddr := fs.String("metrics-addr", "", "serve Prometheus metrics on this address")
	logLevel := fs.String("log-level", e.cfg.LogLevel, "debug, info, warn or error")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *input == "" {
		return usagef("run: -input is required")
	}
	if *workers < 1 {
		return usagef("run: -workers must be at least 1")
	}
	log, err := e.logger(*logLevel)
	if err != nil {
		return err
	}

	in, err := table.ReadInput(*input)
	if err != nil {
		return err
	}
	raw, err := table.OpenRaw(*rawPath, in.Extra)
	if err != nil {
		return err
	}
	if *failures == "" {
		*failures = *rawPath + ".failures.csv"
	}
	failLog, err := table.OpenFailureLog(*failures)
	if err != nil {
		return err
	}

	metrics := obs.NewMetrics()
	cfg := pipeline.Config{
		Source:       source(*sourceDir, *sourceURL, e.cfg.FetchTimeout),
		Builder:      rotation.NewBuilder(rotation.WithLogger(log), rotation.WithObserver(metrics)),
		Raw:          raw,
		Failures:     failLog,
		Workers:      *workers,
		FetchTimeout: e.cfg.FetchTimeout,
		Logger:       log,
		Metrics:      metrics,
	}
	if *saveLC {
		cfg.ArchiveDir = *lcDir
	}
	if e.cfg.DatabaseURL != "" {
		cfg.RunID = uuid.New()
		store, err := checkpoint.OpenPG(ctx, e.cfg.DatabaseURL, cfg.RunID)
		if err != nil {
			return err
		}
		defer store.Close()
		cfg.Store = store
		log.Info("using postgres checkpoint store", "run", cfg.RunID.String())
	}
	runner, err := pipeline.NewRunner(cfg)
	if err != nil {
		return err
	}

	if *metricsAddr != "" {
		metricsCtx, stopMetrics := context.WithCancel(context.Background())
		served := make(chan struct{})
		go func() {
			defer close(served)
			serveMetrics(metricsCtx, metrics, *metricsAddr, log)
		}()
		defer func() {
			stopMetrics()
			<-served
		}()
	}
	stats, err := runner.Run(ctx, in)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("run interrupted", "done", stats.Done, "failed", stats.Failed)
		}
		return err
	}
	log.Info("raw table written", "path", raw.Path(), "rows", raw.Rows(), "sectors", raw.Sectors(),
		"done", stats.Done, "failed", stats.Failed, "resumed", stats.Resumed)
	return nil
}

// serveMetrics exposes metrics until ctx is done. A failing endpoint is
// logged and does not stop the run.
func serveMetrics(ctx context.Context, m *obs.Metrics, addr string, log *slog.Logger) {
	if err := m.Serve(ctx, addr); err != nil {
		log.Error("metrics endpoint stopped", "addr", addr, "err", err)
	}
}
