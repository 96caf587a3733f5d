package main

import (
	"context"
	"fmt"
	"math"
	"text/tabwriter"

	"github.com/cwbudde/algo-rotation/dsp/acf"
	"github.com/cwbudde/algo-rotation/internal/obs"
	"github.com/cwbudde/algo-rotation/internal/server"
	"github.com/cwbudde/algo-rotation/measure/reconcile"
	"github.com/cwbudde/algo-rotation/measure/rotation"
)

func inspectCmd(ctx context.Context, e *env, args []string) error {
	fs := e.newFlagSet("inspect")
	tic := fs.String("tic", "", "TIC identifier (required)")
	sourceDir := fs.String("source-dir", e.cfg.LCDir, "local light-curve root (<dir>/TIC<id>/*.csv)")
	sourceURL := fs.String("source-url", e.cfg.ArchiveURL, "light-curve archive base URL; overrides -source-dir")
	logLevel := fs.String("log-level", "warn", "debug, info, warn or error")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *tic == "" {
		return usagef("inspect: -tic is required")
	}
	log, err := e.logger(*logLevel)
	if err != nil {
		return err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
	defer cancel()
	observations, err := source(*sourceDir, *sourceURL, e.cfg.FetchTimeout).Fetch(fetchCtx, *tic)
	if err != nil {
		return err
	}
	results, err := rotation.NewBuilder(rotation.WithLogger(log)).Star(ctx, *tic, observations)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(e.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Sector\tSamples\tProt [d]\tUnc [d]\tPower\tSNR\tFlag\tDetected\tACF [d]\n")
	fmt.Fprintf(tw, "------\t-------\t--------\t-------\t-----\t---\t----\t--------\t-------\n")
	for _, r := range results {
		acfPeriod := math.NaN()
		if res, err := acf.Estimate(r.Curve.Time, r.Curve.Flux); err == nil {
			acfPeriod = res.Period
		}
		fmt.Fprintf(tw, "%s\t%d\t%.3f\t%.3f\t%.4f\t%.1f\t%s\t%t\t%.3f\n",
			r.Sector,
			r.Curve.Len(),
			r.Period,
			r.Uncertainty,
			r.Power,
			r.SNR(),
			r.AliasFlag,
			reconcile.Detect(r.SectorMetric),
			acfPeriod,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	rec := reconcile.Reconcile(*tic, rotation.Metrics(results))
	fmt.Fprintf(e.stdout, "\nTIC %s: Prot %.3f ± %.3f d, detected %d/%d, AutoVal? %q\n",
		*tic, rec.FinalPeriod, rec.FinalUncertainty, rec.Detected, rec.SectorCount, rec.AutoValidated.String())
	if rec.Warning != "" {
		fmt.Fprintf(e.stdout, "warning: %s\n", rec.Warning)
	}
	return nil
}

func serveCmd(ctx context.Context, e *env, args []string) error {
	fs := e.newFlagSet("serve")
	rawPath := fs.String("raw", "rotation_raw.csv", "raw per-sector CSV")
	summaryPath := fs.String("summary", "rotation_summary.csv", "summary CSV")
	addr := fs.String("addr", e.cfg.HTTPAddr, "listen address")
	logLevel := fs.String("log-level", e.cfg.LogLevel, "debug, info, warn or error")
	if err := parse(fs, args); err != nil {
		return err
	}
	log, err := e.logger(*logLevel)
	if err != nil {
		return err
	}

	srv := server.New(server.Config{
		Addr:        *addr,
		RawPath:     *rawPath,
		SummaryPath: *summaryPath,
		Reconcile:   reconcile.DefaultConfig(),
	}, obs.NewMetrics())
	log.Info("serving results", "addr", *addr, "raw", *rawPath, "summary", *summaryPath)
	return srv.Run(ctx)
}
