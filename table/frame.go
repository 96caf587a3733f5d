package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Frame is a CSV table held as strings.
type Frame struct {
	Header  []string
	Records [][]string
}

// ReadFrame reads a CSV file with a header row. Short records are padded
// with empty cells.
func ReadFrame(path string) (Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return Frame{}, fmt.Errorf("table: %w", err)
	}
	defer f.Close()
	fr, err := ParseFrame(f)
	if err != nil {
		return Frame{}, fmt.Errorf("table: %s: %w", path, err)
	}
	return fr, nil
}

// ParseFrame reads a CSV table from r.
func ParseFrame(r io.Reader) (Frame, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Frame{}, nil
	}
	if err != nil {
		return Frame{}, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	fr := Frame{Header: header}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Frame{}, err
		}
		if len(rec) < len(header) {
			rec = append(rec, make([]string, len(header)-len(rec))...)
		}
		fr.Records = append(fr.Records, rec[:len(header)])
	}
	return fr, nil
}

// WriteFrame writes fr to path atomically.
func WriteFrame(path string, fr Frame) error {
	return writeCSVAtomic(path, fr.Header, fr.Records)
}

// Index returns the position of column name, or -1.
func (fr Frame) Index(name string) int {
	for i, h := range fr.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Len returns the number of records.
func (fr Frame) Len() int { return len(fr.Records) }

// Get returns the cell of record row in column name, or "".
func (fr Frame) Get(row int, name string) string {
	i := fr.Index(name)
	if i < 0 {
		return ""
	}
	return fr.Records[row][i]
}

// Float returns the cell of record row in column col parsed as a number.
// Empty or unparsable cells are NaN.
func (fr Frame) Float(row, col int) float64 {
	if col < 0 || col >= len(fr.Records[row]) {
		return math.NaN()
	}
	return ParseFloat(fr.Records[row][col])
}

// AddColumn appends a column filled with empty cells if it does not exist
// and returns its index.
func (fr *Frame) AddColumn(name string) int {
	if i := fr.Index(name); i >= 0 {
		return i
	}
	fr.Header = append(fr.Header, name)
	for i := range fr.Records {
		fr.Records[i] = append(fr.Records[i], "")
	}
	return len(fr.Header) - 1
}

// ParseFloat parses a numeric cell; empty, "nan" or malformed cells are NaN.
// Boolean cells parse as 0 and 1.
func ParseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan":
		return math.NaN()
	case "true":
		return 1
	case "false":
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// FormatFloat formats a numeric cell; NaN and Inf become empty.
func FormatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
