package table

import (
	"strconv"
	"strings"
)

// ColumnTIC is the star identifier column of every table.
const ColumnTIC = "TIC"

// Per-sector fields of the raw table, in column order. Column names are
// "{index}_{field}".
const (
	FieldSector   = "sector"
	FieldProt     = "prot"
	FieldUncSec   = "uncsec"
	FieldPower    = "power"
	FieldMedPower = "medpower"
	FieldPeakFlag = "peakflag"
)

// SectorFields lists the per-sector fields in column order.
var SectorFields = []string{FieldSector, FieldProt, FieldUncSec, FieldPower, FieldMedPower, FieldPeakFlag}

// SectorColumn returns the raw column name of field for sector index i.
func SectorColumn(i int, field string) string {
	return strconv.Itoa(i) + "_" + field
}

// ParseSectorColumn splits a raw column name into sector index and field.
func ParseSectorColumn(name string) (int, string, bool) {
	idx, field, ok := strings.Cut(name, "_")
	if !ok {
		return 0, "", false
	}
	i, err := strconv.Atoi(idx)
	if err != nil || i < 0 {
		return 0, "", false
	}
	for _, f := range SectorFields {
		if f == field {
			return i, field, true
		}
	}
	return 0, "", false
}

// rawHeader returns the canonical raw header for the given passthrough
// columns and sector count.
func rawHeader(extra []string, sectors int) []string {
	h := make([]string, 0, 1+len(extra)+sectors*len(SectorFields))
	h = append(h, ColumnTIC)
	h = append(h, extra...)
	for i := range sectors {
		for _, f := range SectorFields {
			h = append(h, SectorColumn(i, f))
		}
	}
	return h
}

// Summary columns in order.
const (
	ColFinalProt = "FinalProt"
	ColFinalUnc  = "FinalUnc"
	ColAutoVal   = "AutoVal?"
	ColDetect    = "Detect"
	ColMatches   = "Matches"
	ColSectors   = "Sectors"
	ColReliable  = "ReliableDetection"
	ColGMag      = "gmag"
	ColProt      = "prot"
	ColSNR       = "snr"
	ColPower     = "power"
	ColMPower    = "mpower"
	ColFunc      = "func"
)

// SummaryColumns is the summary table header.
var SummaryColumns = []string{
	ColumnTIC, ColFinalProt, ColFinalUnc, ColAutoVal, ColDetect, ColMatches,
	ColSectors, ColReliable, ColGMag, ColProt, ColSNR, ColPower, ColMPower, ColFunc,
}
