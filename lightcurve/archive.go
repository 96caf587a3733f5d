package lightcurve

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/klauspost/compress/gzip"
)

// Snapshot is the per-star plotting record written next to the raw table
// when light-curve saving is enabled: the curves that went into the
// periodogram plus everything needed to redraw the diagnostics.
type Snapshot struct {
	StarID  string           `json:"tic"`
	RunID   string           `json:"run_id,omitempty"`
	Sectors []SectorSnapshot `json:"sectors"`
}

// SectorSnapshot holds one sector of a [Snapshot].
type SectorSnapshot struct {
	Sector      string `json:"sector"`
	Time        Series `json:"time"`
	Flux        Series `json:"flux"`
	FluxErr     Series `json:"flux_err,omitempty"`
	Frequency   Series `json:"frequency,omitempty"`
	Power       Series `json:"power,omitempty"`
	Peaks       []int  `json:"peaks,omitempty"`
	Period      Value  `json:"period"`
	Uncertainty Value  `json:"uncertainty"`
	Flag        Value  `json:"flag"`
	FitFreq     Series `json:"fit_frequency,omitempty"`
	FitModel    Series `json:"fit_model,omitempty"`
	Err         string `json:"error,omitempty"`
}

// Series is a float slice whose non-finite entries encode as JSON null.
type Series []float64

// MarshalJSON implements json.Marshaler.
func (s Series) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	buf := make([]byte, 0, 2+len(s)*8)
	buf = append(buf, '[')
	for i, v := range s {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendValue(buf, v)
	}
	return append(buf, ']'), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Series) UnmarshalJSON(data []byte) error {
	var raw []*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*s = nil
		return nil
	}
	*s = unwrap(raw)
	return nil
}

// Value is a float64 whose non-finite values encode as JSON null.
type Value float64

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return appendValue(nil, float64(v)), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var p *float64
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p == nil {
		*v = Value(math.NaN())
		return nil
	}
	*v = Value(*p)
	return nil
}

func appendValue(buf []byte, v float64) []byte {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return append(buf, "null"...)
	}
	return strconv.AppendFloat(buf, v, 'g', -1, 64)
}

// ArchivePath returns the file a snapshot for starID is stored in.
func ArchivePath(dir, starID string) string {
	return filepath.Join(dir, "TIC"+starID+".json.gz")
}

// SaveSnapshot writes snap gzip-compressed to dir, replacing any previous
// snapshot of the same star. The file is written to a temporary name first
// and renamed into place.
func SaveSnapshot(dir string, snap Snapshot) (string, error) {
	if snap.StarID == "" {
		return "", errors.New("lightcurve: snapshot without star id")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("lightcurve: %w", err)
	}
	path := ArchivePath(dir, snap.StarID)

	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return "", fmt.Errorf("lightcurve: %w", err)
	}
	defer os.Remove(tmp.Name())

	zw := gzip.NewWriter(tmp)
	if err := json.NewEncoder(zw).Encode(snap); err != nil {
		tmp.Close()
		return "", fmt.Errorf("lightcurve: encode snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("lightcurve: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("lightcurve: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("lightcurve: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads the snapshot stored for starID in dir.
func LoadSnapshot(dir, starID string) (Snapshot, error) {
	f, err := os.Open(ArchivePath(dir, starID))
	if err != nil {
		return Snapshot{}, fmt.Errorf("lightcurve: %w", err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return Snapshot{}, fmt.Errorf("lightcurve: %w", err)
	}
	defer zr.Close()

	var snap Snapshot
	if err := json.NewDecoder(zr).Decode(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("lightcurve: decode snapshot: %w", err)
	}
	return snap, nil
}
