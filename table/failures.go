package table

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
)

// Failure is one entry of the failure log.
type Failure struct {
	StarID string
	Err    string
}

// FailureLog is a TIC,error CSV that is rewritten atomically on every new
// entry. It is safe for concurrent use.
type FailureLog struct {
	mu      sync.Mutex
	path    string
	entries []Failure
}

// OpenFailureLog loads the failure log at path; a missing file is an empty
// log.
func OpenFailureLog(path string) (*FailureLog, error) {
	l := &FailureLog{path: path}
	fr, err := ReadFrame(path)
	if errors.Is(err, fs.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return nil, err
	}
	tic, msg := fr.Index(ColumnTIC), fr.Index("error")
	if len(fr.Header) > 0 && (tic < 0 || msg < 0) {
		return nil, fmt.Errorf("%w: failure log %s needs TIC and error", ErrMissingColumn, path)
	}
	for _, rec := range fr.Records {
		l.entries = append(l.entries, Failure{StarID: strings.TrimSpace(rec[tic]), Err: rec[msg]})
	}
	return l, nil
}

// Record appends a failure and rewrites the log.
func (l *FailureLog) Record(starID string, err error) error {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Failure{StarID: starID, Err: msg})

	records := make([][]string, len(l.entries))
	for i, e := range l.entries {
		records[i] = []string{e.StarID, e.Err}
	}
	return writeCSVAtomic(l.path, []string{ColumnTIC, "error"}, records)
}

// Entries returns a copy of the log entries.
func (l *FailureLog) Entries() []Failure {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Failure(nil), l.entries...)
}

// Len returns the number of entries.
func (l *FailureLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
