// Command protify measures stellar rotation periods from light curves.
//
// Usage:
//
//	protify <command> [flags]
//
// Commands:
//
//	run        analyse every star of an input table into a raw table
//	summarize  reconcile the raw table into a per-star summary
//	classify   summarise and label rotators with a random forest
//	inspect    print per-sector metrics of one star
//	serve      serve raw and summary tables over HTTP
//
// Examples:
//
//	protify run -input stars.csv -raw rotation_raw.csv -workers 4
//	protify summarize -raw rotation_raw.csv -summary rotation_summary.csv
//	protify classify -raw rotation_raw.csv -summary rotation_summary.csv -train training.csv
//	protify inspect -tic 12345678 -source-dir lightcurves
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwbudde/algo-rotation/internal/config"
	"github.com/cwbudde/algo-rotation/internal/obs"
	"github.com/cwbudde/algo-rotation/lightcurve"
)

// Exit codes.
const (
	exitOK    = 0
	exitFatal = 1
	exitUsage = 2
)

type env struct {
	cfg    config.Config
	stdout io.Writer
	stderr io.Writer
}

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

var commands = []command{
	{"run", "analyse every star of an input table into a raw table", runCmd},
	{"summarize", "reconcile the raw table into a per-star summary", summarizeCmd},
	{"classify", "summarise and label rotators with a random forest", classifyCmd},
	{"inspect", "print per-sector metrics of one star", inspectCmd},
	{"serve", "serve raw and summary tables over HTTP", serveCmd},
}

// usageError marks errors caused by invalid invocation.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "-help" || args[0] == "help" {
		printUsage(stderr)
		if len(args) == 0 {
			return exitUsage
		}
		return exitOK
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFatal
	}
	e := &env{cfg: cfg, stdout: stdout, stderr: stderr}

	for _, c := range commands {
		if c.name != args[0] {
			continue
		}
		err := c.run(ctx, e, args[1:])
		var ue usageError
		switch {
		case err == nil:
			return exitOK
		case errors.Is(err, flag.ErrHelp):
			return exitOK
		case errors.As(err, &ue):
			fmt.Fprintf(stderr, "error: %v\n", err)
			return exitUsage
		default:
			fmt.Fprintf(stderr, "error: %v\n", err)
			return exitFatal
		}
	}
	fmt.Fprintf(stderr, "error: unknown command %q\n\n", args[0])
	printUsage(stderr)
	return exitUsage
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "Usage: protify <command> [flags]\n\n")
	fmt.Fprintf(w, "Measures stellar rotation periods from light curves.\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(w, "\nRun 'protify <command> -h' for command flags.\n")
}

// newFlagSet returns a flag set that reports errors instead of exiting.
func (e *env) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("protify "+name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}

// parse parses args and turns flag errors into usage errors.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return usageError{msg: err.Error()}
	}
	if fs.NArg() > 0 {
		return usagef("unexpected arguments: %v", fs.Args())
	}
	return nil
}

func (e *env) logger(level string) (*slog.Logger, error) {
	lvl, err := obs.ParseLevel(level)
	if err != nil {
		return nil, usageError{msg: err.Error()}
	}
	return obs.NewLogger(e.stderr, lvl), nil
}

// source picks the HTTP archive when url is set and the local directory
// otherwise.
func source(dir, url string, timeout time.Duration) lightcurve.Source {
	if url != "" {
		return lightcurve.HTTPSource{BaseURL: url, Client: newHTTPClient(timeout)}
	}
	return lightcurve.DirSource{Root: dir}
}
