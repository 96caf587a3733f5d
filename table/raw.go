package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/cwbudde/algo-rotation/measure/rotation"
)

// RawRow is one star of the raw table.
type RawRow struct {
	StarID string
	// Extra holds passthrough input columns.
	Extra map[string]string
	// Sectors is indexed by sector position. Metrics that are not Valid
	// produce empty cells.
	Sectors []rotation.SectorMetric
}

// width returns the number of sector positions the row needs columns for.
func (r RawRow) width() int {
	for i := len(r.Sectors) - 1; i >= 0; i-- {
		if r.Sectors[i].Valid {
			return i + 1
		}
	}
	return 0
}

// cells returns the row keyed by column name. Absent values are omitted.
func (r RawRow) cells() map[string]string {
	m := make(map[string]string, 1+len(r.Extra)+len(r.Sectors)*len(SectorFields))
	for k, v := range r.Extra {
		m[k] = v
	}
	m[ColumnTIC] = r.StarID
	for i, s := range r.Sectors {
		if !s.Valid {
			continue
		}
		m[SectorColumn(i, FieldSector)] = s.Sector
		m[SectorColumn(i, FieldProt)] = FormatFloat(s.Period)
		m[SectorColumn(i, FieldUncSec)] = FormatFloat(s.Uncertainty)
		m[SectorColumn(i, FieldPower)] = FormatFloat(s.Power)
		m[SectorColumn(i, FieldMedPower)] = FormatFloat(s.MedianPower)
		m[SectorColumn(i, FieldPeakFlag)] = FormatFloat(float64(s.AliasFlag))
	}
	return m
}

// RawWriter appends rows to a raw table, widening its schema on demand.
// It is safe for concurrent use.
type RawWriter struct {
	mu      sync.Mutex
	path    string
	extra   []string
	sectors int
	rows    int
	exists  bool
}

// OpenRaw opens the raw table at path, reading the schema of an existing
// file. extra orders the passthrough columns of a new file; columns first
// seen in a row are appended in sorted order. The file is not created until
// the first Append.
func OpenRaw(path string, extra []string) (*RawWriter, error) {
	w := &RawWriter{path: path, extra: slices.Clone(extra)}
	fr, err := ReadFrame(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return w, nil
	case err != nil:
		return nil, err
	}
	if len(fr.Header) == 0 {
		return w, nil
	}
	if fr.Index(ColumnTIC) < 0 {
		return nil, fmt.Errorf("%w %s in %s", ErrMissingColumn, ColumnTIC, path)
	}
	// The existing header wins over extra; new passthrough columns are
	// added when a row carries them.
	w.extra, w.sectors = rawSchema(fr.Header)
	w.rows = fr.Len()
	w.exists = true
	return w, nil
}

// Path returns the table path.
func (w *RawWriter) Path() string { return w.path }

// Sectors returns the number of sector positions in the current schema.
func (w *RawWriter) Sectors() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sectors
}

// Rows returns the number of rows written so far, including existing ones.
func (w *RawWriter) Rows() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rows
}

// Append writes row. A row that fits the current schema is appended and
// synced; otherwise the file is rewritten with the wider schema and every
// earlier row padded with empty cells.
func (w *RawWriter) Append(row RawRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	extra := slices.Clone(w.extra)
	for _, k := range sortedKeys(row.Extra) {
		if k != ColumnTIC && !slices.Contains(extra, k) {
			extra = append(extra, k)
		}
	}
	sectors := max(w.sectors, row.width())

	if w.exists && len(extra) == len(w.extra) && sectors == w.sectors {
		if err := w.appendRecord(row); err != nil {
			return err
		}
		w.rows++
		return nil
	}
	if err := w.rewrite(extra, sectors, row); err != nil {
		return err
	}
	w.extra, w.sectors, w.exists = extra, sectors, true
	w.rows++
	return nil
}

func (w *RawWriter) appendRecord(row RawRow) error {
	f, err := os.OpenFile(w.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("table: %w", err)
	}
	cw := csv.NewWriter(f)
	if err := cw.Write(project(rawHeader(w.extra, w.sectors), row.cells())); err != nil {
		_ = f.Close()
		return fmt.Errorf("table: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("table: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("table: %w", err)
	}
	return f.Close()
}

func (w *RawWriter) rewrite(extra []string, sectors int, row RawRow) error {
	header := rawHeader(extra, sectors)
	var records [][]string
	if w.exists {
		fr, err := ReadFrame(w.path)
		if err != nil {
			return err
		}
		records = make([][]string, 0, fr.Len()+1)
		for _, rec := range fr.Records {
			m := make(map[string]string, len(fr.Header))
			for i, h := range fr.Header {
				m[h] = rec[i]
			}
			records = append(records, project(header, m))
		}
	}
	records = append(records, project(header, row.cells()))
	return writeCSVAtomic(w.path, header, records)
}

func project(header []string, cells map[string]string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = cells[h]
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// rawSchema splits a raw header into passthrough columns and sector count.
func rawSchema(header []string) ([]string, int) {
	var extra []string
	sectors := 0
	for _, h := range header {
		if h == ColumnTIC {
			continue
		}
		if i, _, ok := ParseSectorColumn(h); ok {
			sectors = max(sectors, i+1)
			continue
		}
		extra = append(extra, h)
	}
	return extra, sectors
}

// RawTable is a parsed raw table.
type RawTable struct {
	Extra   []string
	Sectors int
	Rows    []RawRow
}

// ReadRaw parses a raw table. Sector positions without a label are returned
// as metrics with Valid unset.
func ReadRaw(path string) (RawTable, error) {
	fr, err := ReadFrame(path)
	if err != nil {
		return RawTable{}, err
	}
	return rawFromFrame(fr)
}

func rawFromFrame(fr Frame) (RawTable, error) {
	tic := fr.Index(ColumnTIC)
	if tic < 0 {
		return RawTable{}, fmt.Errorf("%w %s", ErrMissingColumn, ColumnTIC)
	}
	extra, sectors := rawSchema(fr.Header)
	t := RawTable{Extra: extra, Sectors: sectors, Rows: make([]RawRow, 0, fr.Len())}

	cols := make(map[string]int, len(fr.Header))
	for i, h := range fr.Header {
		cols[h] = i
	}
	cell := func(rec []string, name string) (string, bool) {
		i, ok := cols[name]
		if !ok {
			return "", false
		}
		return rec[i], true
	}
	num := func(rec []string, name string) float64 {
		s, _ := cell(rec, name)
		return ParseFloat(s)
	}

	for _, rec := range fr.Records {
		row := RawRow{StarID: strings.TrimSpace(rec[tic]), Extra: make(map[string]string, len(extra))}
		for _, e := range extra {
			row.Extra[e], _ = cell(rec, e)
		}
		row.Sectors = make([]rotation.SectorMetric, sectors)
		for i := range sectors {
			label, _ := cell(rec, SectorColumn(i, FieldSector))
			if strings.TrimSpace(label) == "" {
				nan := math.NaN()
				row.Sectors[i] = rotation.SectorMetric{
					Period: nan, Uncertainty: nan, Power: nan, MedianPower: nan,
					AliasFlag: rotation.AliasNone,
				}
				continue
			}
			row.Sectors[i] = rotation.SectorMetric{
				Sector:      label,
				Period:      num(rec, SectorColumn(i, FieldProt)),
				Uncertainty: num(rec, SectorColumn(i, FieldUncSec)),
				Power:       num(rec, SectorColumn(i, FieldPower)),
				MedianPower: num(rec, SectorColumn(i, FieldMedPower)),
				AliasFlag:   rotation.AliasFlag(num(rec, SectorColumn(i, FieldPeakFlag))),
				Valid:       true,
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// ReadIDs returns the TIC column of the table at path. A missing file yields
// no identifiers and no error.
func ReadIDs(path string) ([]string, error) {
	fr, err := ReadFrame(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if fr.Len() == 0 && len(fr.Header) == 0 {
		return nil, nil
	}
	tic := fr.Index(ColumnTIC)
	if tic < 0 {
		return nil, fmt.Errorf("%w %s in %s", ErrMissingColumn, ColumnTIC, path)
	}
	ids := make([]string, 0, fr.Len())
	for _, rec := range fr.Records {
		if id := strings.TrimSpace(rec[tic]); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
