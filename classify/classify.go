package classify

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"

	"github.com/cwbudde/algo-rotation/internal/obs"
	"github.com/cwbudde/algo-rotation/measure/reconcile"
	"github.com/cwbudde/algo-rotation/table"
)

// Columns written by Classify.
const (
	ColumnLabel       = "rotate?"
	ColumnProbability = "rotation_prob"
)

// Training columns that are never features.
var nonFeatures = []string{ColumnLabel, table.ColumnTIC, "provenance", "cluster", "source_id"}

// FeatureColumns returns the feature columns of a training header in order.
func FeatureColumns(header []string) []string {
	var out []string
	for _, h := range header {
		if !slices.Contains(nonFeatures, h) {
			out = append(out, h)
		}
	}
	return out
}

// Samples extracts the rows of fr that have every column in cols finite.
// rows holds the record index of each sample.
func Samples(fr table.Frame, cols []string) (x [][]float64, rows []int, err error) {
	idx := make([]int, len(cols))
	for i, c := range cols {
		if idx[i] = fr.Index(c); idx[i] < 0 {
			return nil, nil, fmt.Errorf("%w: %s", ErrMissingFeature, c)
		}
	}
	for r := range fr.Records {
		v := make([]float64, len(cols))
		ok := true
		for i, j := range idx {
			v[i] = fr.Float(r, j)
			if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
				ok = false
				break
			}
		}
		if ok {
			x = append(x, v)
			rows = append(rows, r)
		}
	}
	return x, rows, nil
}

// TrainFrame trains a forest on a labelled table. Rows missing a feature or
// the label are dropped.
func TrainFrame(ctx context.Context, train table.Frame, opts ...Option) (*Forest, []string, error) {
	if train.Index(ColumnLabel) < 0 {
		return nil, nil, ErrMissingLabel
	}
	features := FeatureColumns(train.Header)
	x, rows, err := Samples(train, append(slices.Clone(features), ColumnLabel))
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, ErrNoTrainingData
	}
	y := make([]bool, len(x))
	for i, v := range x {
		y[i] = v[len(features)] >= 0.5
		x[i] = v[:len(features)]
	}
	forest, err := ApplyOptions(opts...).Train(ctx, x, y)
	if err != nil {
		return nil, nil, err
	}
	return forest, features, nil
}

// Options controls Classify.
type Options struct {
	// AutoValOnly restricts inference to automatically validated stars.
	AutoValOnly bool
	Forest      []Option
	Logger      *slog.Logger
}

// FilterAutoVal keeps the rows whose AutoVal? column is 1. A table without
// the column is returned unchanged.
func FilterAutoVal(fr table.Frame) table.Frame {
	j := fr.Index(table.ColAutoVal)
	if j < 0 {
		return fr
	}
	out := table.Frame{Header: fr.Header}
	for _, rec := range fr.Records {
		if av, _ := reconcile.ParseAutoVal(rec[j]); av == reconcile.AutoValTrue {
			out.Records = append(out.Records, rec)
		}
	}
	return out
}

// Classify trains on train and labels the summary table summary. The result
// is summary with rotate? and rotation_prob columns added; rows with a
// missing feature keep those cells empty. A feature column absent from the
// summary is an error.
func Classify(ctx context.Context, train, summary table.Frame, opts Options) (table.Frame, error) {
	log := opts.Logger
	if log == nil {
		log = obs.Discard()
	}

	fr := table.Frame{Header: slices.Clone(summary.Header), Records: make([][]string, len(summary.Records))}
	for i, rec := range summary.Records {
		fr.Records[i] = slices.Clone(rec)
	}
	if opts.AutoValOnly {
		fr = FilterAutoVal(fr)
	}
	aliasColumn(&fr, table.ColProt, table.ColFinalProt)
	aliasColumn(&fr, table.ColFunc, table.ColFinalUnc)

	forest, features, err := TrainFrame(ctx, train, opts.Forest...)
	if err != nil {
		return table.Frame{}, err
	}
	x, rows, err := Samples(fr, features)
	if err != nil {
		return table.Frame{}, err
	}

	label := fr.AddColumn(ColumnLabel)
	prob := fr.AddColumn(ColumnProbability)
	if len(rows) == 0 {
		log.Warn("no valid rows to classify", "rows", fr.Len())
		return fr, nil
	}
	rotators := 0
	for k, r := range rows {
		p := forest.Probability(x[k])
		flag := "0"
		if p > 0.5 {
			flag = "1"
			rotators++
		}
		fr.Records[r][label] = flag
		fr.Records[r][prob] = strconv.FormatFloat(p, 'f', 4, 64)
		log.Debug("classified", "tic", fr.Get(r, table.ColumnTIC), "rotate", flag, "prob", p)
	}
	log.Info("classification done", "classified", len(rows), "rotators", rotators,
		"unlabelled", fr.Len()-len(rows), "features", len(features))
	return fr, nil
}

// aliasColumn copies src into dst when dst is missing.
func aliasColumn(fr *table.Frame, dst, src string) {
	s := fr.Index(src)
	if s < 0 || fr.Index(dst) >= 0 {
		return
	}
	d := fr.AddColumn(dst)
	for _, rec := range fr.Records {
		rec[d] = rec[s]
	}
}
