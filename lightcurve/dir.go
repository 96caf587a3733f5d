package lightcurve

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// DirSource reads light curves from a local directory tree laid out as
//
//	<Root>/TIC<id>/<sector>.csv
//
// Each CSV file is one sector with a header naming at least the time and flux
// columns (flux_err is optional). Lines starting with '#' are ignored. Files
// are returned sorted by name and labelled with their base name without
// extension. Fluxes are normalised by their median.
type DirSource struct {
	Root string
}

// Fetch implements [Source].
func (s DirSource) Fetch(ctx context.Context, starID string) ([]Observation, error) {
	dir := filepath.Join(s.Root, "TIC"+starID)
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("lightcurve: list %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w for TIC %s in %s", ErrNoLightCurves, starID, dir)
	}
	sort.Strings(paths)

	var (
		out  []Observation
		errs []error
	)
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lc, err := ReadCSVFile(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		lc.Normalize()
		label := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		out = append(out, Observation{Sector: label, Curve: lc})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w for TIC %s after filtering: %w", ErrNoLightCurves, starID, errors.Join(errs...))
	}
	return out, nil
}

// ReadCSVFile reads one light curve from a CSV file.
func ReadCSVFile(path string) (LightCurve, error) {
	f, err := os.Open(path)
	if err != nil {
		return LightCurve{}, fmt.Errorf("lightcurve: %w", err)
	}
	defer f.Close()
	lc, err := ReadCSV(f)
	if err != nil {
		return LightCurve{}, fmt.Errorf("lightcurve: %s: %w", path, err)
	}
	return lc, nil
}

// ReadCSV reads a light curve from CSV with a header row. Recognised column
// names are time, flux and flux_err (case-insensitive); "pdcsap_flux" and
// "pdcsap_flux_err" are accepted as aliases. Empty or unparsable cells become
// NaN and are expected to be masked later.
func ReadCSV(r io.Reader) (LightCurve, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return LightCurve{}, fmt.Errorf("read header: %w", err)
	}
	tCol, fCol, eCol := -1, -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "time":
			tCol = i
		case "flux", "pdcsap_flux":
			if fCol < 0 {
				fCol = i
			}
		case "flux_err", "pdcsap_flux_err":
			if eCol < 0 {
				eCol = i
			}
		}
	}
	if tCol < 0 || fCol < 0 {
		return LightCurve{}, fmt.Errorf("header %v lacks time/flux columns", header)
	}

	var lc LightCurve
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return LightCurve{}, err
		}
		lc.Time = append(lc.Time, cell(rec, tCol))
		lc.Flux = append(lc.Flux, cell(rec, fCol))
		if eCol >= 0 {
			lc.FluxErr = append(lc.FluxErr, cell(rec, eCol))
		}
	}
	return lc, nil
}

func cell(rec []string, i int) float64 {
	if i >= len(rec) {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
