package pipeline

import (
	"log/slog"

	"github.com/cwbudde/algo-rotation/internal/obs"
	"github.com/cwbudde/algo-rotation/measure/reconcile"
	"github.com/cwbudde/algo-rotation/table"
)

// SummarizeOptions controls Summarize.
type SummarizeOptions struct {
	// AutoValOnly keeps only automatically validated stars.
	AutoValOnly bool
	Reconcile   reconcile.Config
	Logger      *slog.Logger
}

// DefaultSummarizeOptions keeps validated stars only, as the classifier
// expects.
func DefaultSummarizeOptions() SummarizeOptions {
	return SummarizeOptions{AutoValOnly: true, Reconcile: reconcile.DefaultConfig()}
}

// Summarize reconciles every star of the raw table at rawPath and writes the
// summary table to summaryPath. Stars without the computed features are
// dropped; a missing magnitude is kept as an empty cell.
func Summarize(rawPath, summaryPath string, opts SummarizeOptions) ([]table.SummaryRow, error) {
	raw, err := table.ReadRaw(rawPath)
	if err != nil {
		return nil, err
	}
	rows := SummarizeTable(raw, opts)
	if err := table.WriteSummary(summaryPath, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// SummarizeTable is the in-memory part of Summarize.
func SummarizeTable(raw table.RawTable, opts SummarizeOptions) []table.SummaryRow {
	log := opts.Logger
	if log == nil {
		log = obs.Discard()
	}

	var (
		rows                        []table.SummaryRow
		validated, unknown, dropped int
	)
	for _, r := range raw.Rows {
		rec := opts.Reconcile.Reconcile(r.StarID, r.Sectors)
		if rec.Warning != "" {
			log.Warn(rec.Warning, "tic", r.StarID)
		}
		switch rec.AutoValidated {
		case reconcile.AutoValTrue:
			validated++
		case reconcile.AutoValUnknown:
			unknown++
		}
		if opts.AutoValOnly && !rec.Reliable() {
			continue
		}

		row := table.SummaryFromRecord(rec, table.Magnitude(r.Extra))
		if !row.HasFeatures() {
			dropped++
			continue
		}
		log.Debug("star summary", "tic", row.StarID, "prot", row.Prot, "snr", row.SNR,
			"power", row.Power, "mpower", row.MPower, "func", row.FracUnc)
		rows = append(rows, row)
	}

	log.Info("summary built", "stars", len(raw.Rows), "rows", len(rows),
		"validated", validated, "unknown", unknown, "incomplete", dropped)
	return rows
}
