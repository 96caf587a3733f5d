package table

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cwbudde/algo-rotation/measure/rotation"
)

func sector(label string, period float64) rotation.SectorMetric {
	return rotation.SectorMetric{
		Sector: label, Period: period, Uncertainty: 0.1 * period,
		Power: 0.8, MedianPower: 0.01, AliasFlag: rotation.FlagGlobalMax, Valid: true,
	}
}

func skipped() rotation.SectorMetric {
	nan := math.NaN()
	return rotation.SectorMetric{Period: nan, Uncertainty: nan, Power: nan, MedianPower: nan, AliasFlag: rotation.AliasNone}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimRight(string(b), "\n"), "\n")
}

func TestRawWriterSchemaGrowth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.csv")
	w, err := OpenRaw(path, []string{"gmag"})
	if err != nil {
		t.Fatalf("OpenRaw error: %v", err)
	}

	rows := []RawRow{
		{StarID: "1", Extra: map[string]string{"gmag": "10.5"}, Sectors: []rotation.SectorMetric{sector("s1", 5)}},
		{StarID: "2", Extra: map[string]string{"gmag": "11"}, Sectors: []rotation.SectorMetric{skipped()}},
		{StarID: "3", Extra: map[string]string{"gmag": "12"}, Sectors: []rotation.SectorMetric{sector("a", 3), skipped(), sector("c", 4)}},
		{StarID: "4", Sectors: []rotation.SectorMetric{sector("x", 7), skipped(), skipped(), skipped()}},
	}
	for _, r := range rows {
		if err := w.Append(r); err != nil {
			t.Fatalf("Append(%s) error: %v", r.StarID, err)
		}
	}
	if w.Sectors() != 3 || w.Rows() != 4 {
		t.Fatalf("Sectors=%d Rows=%d want 3, 4", w.Sectors(), w.Rows())
	}

	lines := readLines(t, path)
	if len(lines) != 5 {
		t.Fatalf("lines=%d want=5:\n%s", len(lines), strings.Join(lines, "\n"))
	}
	wantHeader := "TIC,gmag,0_sector,0_prot,0_uncsec,0_power,0_medpower,0_peakflag," +
		"1_sector,1_prot,1_uncsec,1_power,1_medpower,1_peakflag," +
		"2_sector,2_prot,2_uncsec,2_power,2_medpower,2_peakflag"
	if lines[0] != wantHeader {
		t.Fatalf("header=%q", lines[0])
	}
	if want := "1,10.5,s1,5,0.5,0.8,0.01,1" + strings.Repeat(",", 12); lines[1] != want {
		t.Fatalf("row 1=%q want=%q", lines[1], want)
	}
	if want := "2,11" + strings.Repeat(",", 18); lines[2] != want {
		t.Fatalf("row 2=%q want=%q", lines[2], want)
	}

	tbl, err := ReadRaw(path)
	if err != nil {
		t.Fatalf("ReadRaw error: %v", err)
	}
	if len(tbl.Rows) != 4 || tbl.Sectors != 3 || len(tbl.Extra) != 1 {
		t.Fatalf("table shape rows=%d sectors=%d extra=%v", len(tbl.Rows), tbl.Sectors, tbl.Extra)
	}
	r3 := tbl.Rows[2]
	if r3.StarID != "3" || r3.Extra["gmag"] != "12" {
		t.Fatalf("row 3=%+v", r3)
	}
	if !r3.Sectors[0].Valid || r3.Sectors[1].Valid || r3.Sectors[2].Sector != "c" || r3.Sectors[2].Period != 4 {
		t.Fatalf("row 3 sectors=%+v", r3.Sectors)
	}
	if r3.Sectors[0].AliasFlag != rotation.FlagGlobalMax {
		t.Fatalf("flag=%v", r3.Sectors[0].AliasFlag)
	}
}

func TestRawWriterReopenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.csv")
	w, err := OpenRaw(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Append(RawRow{StarID: "1", Sectors: []rotation.SectorMetric{sector("s", 2), sector("t", 2)}}); err != nil {
		t.Fatal(err)
	}

	w2, err := OpenRaw(path, []string{"gmag"})
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	if w2.Sectors() != 2 || w2.Rows() != 1 {
		t.Fatalf("reopened Sectors=%d Rows=%d", w2.Sectors(), w2.Rows())
	}
	if err := w2.Append(RawRow{StarID: "2", Sectors: []rotation.SectorMetric{sector("u", 9)}}); err != nil {
		t.Fatal(err)
	}

	ids, err := ReadIDs(path)
	if err != nil {
		t.Fatalf("ReadIDs error: %v", err)
	}
	if len(ids) != 2 || ids[0] != "1" || ids[1] != "2" {
		t.Fatalf("ids=%v", ids)
	}
}

func TestReadIDsMissingFile(t *testing.T) {
	ids, err := ReadIDs(filepath.Join(t.TempDir(), "none.csv"))
	if err != nil || ids != nil {
		t.Fatalf("ids=%v err=%v", ids, err)
	}
}

func TestNaNSectorValuesWriteEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.csv")
	w, _ := OpenRaw(path, nil)
	failed := skipped()
	failed.Sector = "s9"
	failed.Valid = true
	if err := w.Append(RawRow{StarID: "5", Sectors: []rotation.SectorMetric{failed}}); err != nil {
		t.Fatal(err)
	}
	lines := readLines(t, path)
	if lines[1] != "5,s9,,,,," {
		t.Fatalf("row=%q", lines[1])
	}

	tbl, err := ReadRaw(path)
	if err != nil {
		t.Fatal(err)
	}
	m := tbl.Rows[0].Sectors[0]
	if !m.Valid || !math.IsNaN(m.Period) || !math.IsNaN(float64(m.AliasFlag)) {
		t.Fatalf("metric=%+v", m)
	}
}

func TestParseSectorColumn(t *testing.T) {
	tests := []struct {
		in    string
		idx   int
		field string
		ok    bool
	}{
		{"0_prot", 0, "prot", true},
		{"12_peakflag", 12, "peakflag", true},
		{"frac_0h", 0, "", false},
		{"3_detect", 0, "", false},
		{"TIC", 0, "", false},
	}
	for _, tc := range tests {
		i, f, ok := ParseSectorColumn(tc.in)
		if ok != tc.ok || i != tc.idx || f != tc.field {
			t.Fatalf("ParseSectorColumn(%q)=%d,%q,%v", tc.in, i, f, ok)
		}
	}
}
