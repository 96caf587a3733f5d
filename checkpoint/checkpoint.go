// Package checkpoint records which stars a run has already completed so an
// interrupted run can resume without duplicating work.
//
// A Store is loaded once when a run starts; the returned Set is consulted
// read-only while stars are processed, and every completed star is committed
// right after its row is durably written.
package checkpoint

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-rotation/table"
)

// Store persists the set of completed stars.
type Store interface {
	// Load returns the stars completed so far.
	Load(ctx context.Context) (Set, error)
	// Commit marks starID completed. Committing a star twice is a no-op.
	Commit(ctx context.Context, starID string) error
}

// BatchStore is a Store that can commit several stars at once.
type BatchStore interface {
	Store
	CommitBatch(ctx context.Context, starIDs []string) error
}

// Set is a set of normalised star identifiers.
type Set map[string]struct{}

// NewSet returns a set holding ids.
func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id.
func (s Set) Add(id string) { s[NormalizeID(id)] = struct{}{} }

// Has reports whether id is in the set.
func (s Set) Has(id string) bool {
	_, ok := s[NormalizeID(id)]
	return ok
}

// NormalizeID trims id and writes integral numbers without a fraction, so
// "123", " 123 " and "123.0" are the same star.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	if v, err := strconv.ParseFloat(id, 64); err == nil && v == math.Trunc(v) && math.Abs(v) < 1<<53 {
		return strconv.FormatInt(int64(v), 10)
	}
	return id
}

// TableStore uses the TIC column of the raw table as the done-set. Rows are
// committed by the table writer itself, so Commit does nothing.
type TableStore struct {
	Path string
}

// Load implements Store.
func (s TableStore) Load(_ context.Context) (Set, error) {
	ids, err := table.ReadIDs(s.Path)
	if err != nil {
		return nil, err
	}
	return NewSet(ids...), nil
}

// Commit implements Store.
func (TableStore) Commit(context.Context, string) error { return nil }
