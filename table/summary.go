package table

import (
	"math"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-rotation/measure/reconcile"
)

// SummaryRow is one star of the summary table.
type SummaryRow struct {
	StarID    string
	FinalProt float64
	FinalUnc  float64
	AutoVal   reconcile.AutoVal
	Detect    int
	Matches   float64
	Sectors   int
	Reliable  bool
	GMag      float64
	Prot      float64
	SNR       float64
	Power     float64
	MPower    float64
	FracUnc   float64
}

// MagnitudeColumns are looked up in passthrough input columns, in order.
var MagnitudeColumns = []string{"gmag", "phot_g_mean_mag"}

// Magnitude returns the first non-empty magnitude column of extra, or NaN.
func Magnitude(extra map[string]string) float64 {
	for _, c := range MagnitudeColumns {
		if v, ok := extra[c]; ok && strings.TrimSpace(v) != "" {
			return ParseFloat(v)
		}
	}
	return math.NaN()
}

// SummaryFromRecord builds the summary row of a reconciled star.
func SummaryFromRecord(rec reconcile.Record, gmag float64) SummaryRow {
	return SummaryRow{
		StarID:    rec.StarID,
		FinalProt: rec.FinalPeriod,
		FinalUnc:  rec.FinalUncertainty,
		AutoVal:   rec.AutoValidated,
		Detect:    rec.Detected,
		Matches:   rec.Matches,
		Sectors:   rec.SectorCount,
		Reliable:  rec.Reliable(),
		GMag:      gmag,
		Prot:      rec.FinalPeriod,
		SNR:       rec.SNR,
		Power:     rec.Power,
		MPower:    rec.MedianPower,
		FracUnc:   rec.FracUnc,
	}
}

// HasFeatures reports whether the classifier features computed by the
// pipeline are all present. Magnitude is not required.
func (r SummaryRow) HasFeatures() bool {
	for _, v := range []float64{r.Prot, r.SNR, r.Power, r.MPower, r.FracUnc} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (r SummaryRow) record() []string {
	return []string{
		r.StarID,
		FormatFloat(r.FinalProt),
		FormatFloat(r.FinalUnc),
		r.AutoVal.String(),
		strconv.Itoa(r.Detect),
		FormatFloat(r.Matches),
		strconv.Itoa(r.Sectors),
		strconv.FormatBool(r.Reliable),
		FormatFloat(r.GMag),
		FormatFloat(r.Prot),
		FormatFloat(r.SNR),
		FormatFloat(r.Power),
		FormatFloat(r.MPower),
		FormatFloat(r.FracUnc),
	}
}

// SummaryFrame converts rows to a Frame with the summary header.
func SummaryFrame(rows []SummaryRow) Frame {
	fr := Frame{Header: append([]string(nil), SummaryColumns...), Records: make([][]string, len(rows))}
	for i, r := range rows {
		fr.Records[i] = r.record()
	}
	return fr
}

// WriteSummary writes the summary table to path atomically.
func WriteSummary(path string, rows []SummaryRow) error {
	return WriteFrame(path, SummaryFrame(rows))
}

// ReadSummary reads a summary table. Unknown columns are ignored and missing
// ones read as absent.
func ReadSummary(path string) ([]SummaryRow, error) {
	fr, err := ReadFrame(path)
	if err != nil {
		return nil, err
	}
	return SummaryRows(fr)
}

// SummaryRows parses the summary columns of fr.
func SummaryRows(fr Frame) ([]SummaryRow, error) {
	idx := make(map[string]int, len(SummaryColumns))
	for _, c := range SummaryColumns {
		idx[c] = fr.Index(c)
	}
	if idx[ColumnTIC] < 0 {
		return nil, ErrMissingColumn
	}

	rows := make([]SummaryRow, 0, fr.Len())
	for i, rec := range fr.Records {
		f := func(c string) float64 { return fr.Float(i, idx[c]) }
		av := reconcile.AutoValUnknown
		if j := idx[ColAutoVal]; j >= 0 {
			av, _ = reconcile.ParseAutoVal(rec[j])
		}
		r := SummaryRow{
			StarID:    strings.TrimSpace(rec[idx[ColumnTIC]]),
			FinalProt: f(ColFinalProt),
			FinalUnc:  f(ColFinalUnc),
			AutoVal:   av,
			Detect:    intOrZero(f(ColDetect)),
			Matches:   f(ColMatches),
			Sectors:   intOrZero(f(ColSectors)),
			Reliable:  f(ColReliable) == 1,
			GMag:      f(ColGMag),
			Prot:      f(ColProt),
			SNR:       f(ColSNR),
			Power:     f(ColPower),
			MPower:    f(ColMPower),
			FracUnc:   f(ColFunc),
		}
		rows = append(rows, r)
	}
	return rows, nil
}

func intOrZero(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(v)
}
