package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/cwbudde/algo-rotation/classify"
	"github.com/cwbudde/algo-rotation/pipeline"
	"github.com/cwbudde/algo-rotation/table"
)

func summarizeCmd(_ context.Context, e *env, args []string) error {
	fs := e.newFlagSet("summarize")
	rawPath := fs.String("raw", "", "raw per-sector CSV (required)")
	summaryPath := fs.String("summary", "rotation_summary.csv", "output summary CSV")
	noAutoVal := fs.Bool("no-autoval", false, "include all stars regardless of AutoVal?")
	logLevel := fs.String("log-level", e.cfg.LogLevel, "debug, info, warn or error")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *rawPath == "" {
		return usagef("summarize: -raw is required")
	}
	log, err := e.logger(*logLevel)
	if err != nil {
		return err
	}

	opts := pipeline.DefaultSummarizeOptions()
	opts.AutoValOnly = !*noAutoVal
	opts.Logger = log
	rows, err := pipeline.Summarize(*rawPath, *summaryPath, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "wrote %d stars to %s\n", len(rows), *summaryPath)
	return nil
}

func classifyCmd(ctx context.Context, e *env, args []string) error {
	fs := e.newFlagSet("classify")
	rawPath := fs.String("raw", "", "raw per-sector CSV (required)")
	summaryPath := fs.String("summary", "", "summary CSV written before classification (required)")
	trainPath := fs.String("train", "", "labelled training CSV with a rotate? column (required)")
	output := fs.String("output", "rotation_classified.csv", "output CSV with rotate? and rotation_prob")
	noAutoVal := fs.Bool("no-autoval", false, "include all stars regardless of AutoVal?")
	trees := fs.Int("trees", classify.DefaultTrees, "number of trees")
	depth := fs.Int("depth", classify.DefaultMaxDepth, "maximum tree depth")
	seed := fs.Uint64("seed", classify.DefaultSeed, "random seed")
	logLevel := fs.String("log-level", e.cfg.LogLevel, "debug, info, warn or error")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *rawPath == "" || *summaryPath == "" || *trainPath == "" {
		return usagef("classify: -raw, -summary and -train are required")
	}
	if *trees < 1 || *depth < 1 {
		return usagef("classify: -trees and -depth must be positive")
	}
	log, err := e.logger(*logLevel)
	if err != nil {
		return err
	}

	opts := pipeline.DefaultSummarizeOptions()
	opts.AutoValOnly = !*noAutoVal
	opts.Logger = log
	if _, err := pipeline.Summarize(*rawPath, *summaryPath, opts); err != nil {
		return err
	}
	summary, err := table.ReadFrame(*summaryPath)
	if err != nil {
		return err
	}
	train, err := table.ReadFrame(*trainPath)
	if err != nil {
		return err
	}

	out, err := classify.Classify(ctx, train, summary, classify.Options{
		AutoValOnly: !*noAutoVal,
		Forest:      []classify.Option{classify.WithTrees(*trees), classify.WithMaxDepth(*depth), classify.WithSeed(*seed)},
		Logger:      log,
	})
	if err != nil {
		return err
	}
	if err := table.WriteFrame(*output, out); err != nil {
		return err
	}
	return printClassified(e, out)
}

func printClassified(e *env, fr table.Frame) error {
	tw := tabwriter.NewWriter(e.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "TIC\tProt [d]\trotate?\tProb\n")
	fmt.Fprintf(tw, "---\t--------\t-------\t----\n")
	for r := range fr.Records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			fr.Get(r, table.ColumnTIC),
			fr.Get(r, table.ColProt),
			fr.Get(r, classify.ColumnLabel),
			fr.Get(r, classify.ColumnProbability),
		)
	}
	return tw.Flush()
}
