package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cwbudde/algo-rotation/checkpoint"
	"github.com/cwbudde/algo-rotation/internal/obs"
	"github.com/cwbudde/algo-rotation/internal/testutil"
	"github.com/cwbudde/algo-rotation/lightcurve"
	"github.com/cwbudde/algo-rotation/table"
)

// sineSource serves sinusoidal sectors per star and counts fetches.
type sineSource struct {
	periods map[string][]float64
	fetches atomic.Int64
}

func (s *sineSource) Fetch(_ context.Context, id string) ([]lightcurve.Observation, error) {
	s.fetches.Add(1)
	ps, ok := s.periods[id]
	if !ok {
		return nil, fmt.Errorf("%w for TIC %s", lightcurve.ErrNoLightCurves, id)
	}
	out := make([]lightcurve.Observation, len(ps))
	for i, p := range ps {
		tm, fx, fe := testutil.SineLightCurve(p, 0.01, testutil.SectorSpan, testutil.Cadence30Min, 0.001, int64(i+1))
		out[i] = lightcurve.Observation{
			Sector: fmt.Sprintf("s%02d", i+1),
			Curve:  lightcurve.LightCurve{Time: tm, Flux: fx, FluxErr: fe},
		}
	}
	return out, nil
}

func input(ids ...string) table.Input {
	in := table.Input{Extra: []string{"gmag"}}
	for i, id := range ids {
		in.Rows = append(in.Rows, table.InputRow{ID: id, Extra: []string{fmt.Sprintf("%d.5", 10+i)}})
	}
	return in
}

func newRunner(t *testing.T, dir string, src lightcurve.Source, workers int) *Runner {
	t.Helper()
	raw, err := table.OpenRaw(filepath.Join(dir, "raw.csv"), []string{"gmag"})
	if err != nil {
		t.Fatal(err)
	}
	failures, err := table.OpenFailureLog(filepath.Join(dir, "failures.csv"))
	if err != nil {
		t.Fatal(err)
	}
	r, err := NewRunner(Config{
		Source:     src,
		Raw:        raw,
		Failures:   failures,
		ArchiveDir: filepath.Join(dir, "lc"),
		Workers:    workers,
		Metrics:    obs.NewMetrics(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestRunnerRunAndResume(t *testing.T) {
	dir := t.TempDir()
	src := &sineSource{periods: map[string][]float64{
		"1": {6, 6.2},
		"3": {9},
		"4": {4, 4.1, 8.2},
		"5": {7},
	}}

	stats, err := newRunner(t, dir, src, 2).Run(context.Background(), input("1", "2", "3", "4"))
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if stats.Done != 3 || stats.Failed != 1 || stats.Resumed != 0 {
		t.Fatalf("stats=%+v", stats)
	}

	ids, err := table.ReadIDs(filepath.Join(dir, "raw.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(ids) != "[1 3 4]" {
		t.Fatalf("ids=%v want=[1 3 4]", ids)
	}

	failures, _ := table.OpenFailureLog(filepath.Join(dir, "failures.csv"))
	if got := failures.Entries(); len(got) != 1 || got[0].StarID != "2" {
		t.Fatalf("failures=%v", got)
	}

	snap, err := lightcurve.LoadSnapshot(filepath.Join(dir, "lc"), "4")
	if err != nil {
		t.Fatalf("LoadSnapshot error: %v", err)
	}
	if len(snap.Sectors) != 3 || snap.RunID == "" {
		t.Fatalf("snapshot sectors=%d run=%q", len(snap.Sectors), snap.RunID)
	}

	src.fetches.Store(0)
	stats, err = newRunner(t, dir, src, 1).Run(context.Background(), input("1", "2", "3", "4", "5", "5"))
	if err != nil {
		t.Fatalf("resume error: %v", err)
	}
	if stats.Resumed != 4 || stats.Done != 1 || stats.Failed != 1 {
		t.Fatalf("resume stats=%+v", stats)
	}
	if n := src.fetches.Load(); n != 2 {
		t.Fatalf("fetches=%d want=2 (star 2 retried, star 5 new)", n)
	}

	tbl, err := table.ReadRaw(filepath.Join(dir, "raw.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if len(tbl.Rows) != 4 || tbl.Sectors != 3 {
		t.Fatalf("rows=%d sectors=%d", len(tbl.Rows), tbl.Sectors)
	}
	if tbl.Rows[3].StarID != "5" || tbl.Rows[0].Extra["gmag"] != "10.5" {
		t.Fatalf("rows=%+v", tbl.Rows)
	}

	rows, err := Summarize(filepath.Join(dir, "raw.csv"), filepath.Join(dir, "summary.csv"), DefaultSummarizeOptions())
	if err != nil {
		t.Fatalf("Summarize error: %v", err)
	}
	if len(rows) != 2 || rows[0].StarID != "1" || rows[1].StarID != "4" {
		t.Fatalf("validated rows=%+v", rows)
	}
	testutil.RequireRelNear(t, "star 4 period", rows[1].Prot, 4.1, 0.05)
	if rows[0].GMag != 10.5 {
		t.Fatalf("gmag=%v want=10.5", rows[0].GMag)
	}
}

func TestRunnerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &sineSource{periods: map[string][]float64{"1": {5}}}
	_, err := newRunner(t, t.TempDir(), src, 1).Run(ctx, input("1"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v want context.Canceled", err)
	}
	if src.fetches.Load() != 0 {
		t.Fatalf("no star should be fetched after cancellation")
	}
}

func TestNewRunnerValidation(t *testing.T) {
	if _, err := NewRunner(Config{}); err == nil {
		t.Fatalf("expected error without source")
	}
	src := lightcurve.SourceFunc(func(context.Context, string) ([]lightcurve.Observation, error) { return nil, nil })
	if _, err := NewRunner(Config{Source: src}); err == nil {
		t.Fatalf("expected error without raw table")
	}
}

func TestRunnerEmptyFetchFails(t *testing.T) {
	dir := t.TempDir()
	src := lightcurve.SourceFunc(func(context.Context, string) ([]lightcurve.Observation, error) { return nil, nil })
	stats, err := newRunner(t, dir, src, 1).Run(context.Background(), input("9"))
	if err != nil {
		t.Fatal(err)
	}
	if stats.Failed != 1 {
		t.Fatalf("stats=%+v", stats)
	}
}

// setStore keeps checkpoints apart from the raw table, like PGStore.
type setStore struct {
	mu      sync.Mutex
	done    checkpoint.Set
	batches int
	fail    error
}

func newSetStore() *setStore { return &setStore{done: checkpoint.NewSet()} }

func (s *setStore) Load(context.Context) (checkpoint.Set, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := checkpoint.NewSet()
	for id := range s.done {
		out.Add(id)
	}
	return out, nil
}

func (s *setStore) Commit(_ context.Context, id string) error {
	return s.CommitBatch(context.Background(), []string{id})
}

func (s *setStore) CommitBatch(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.batches++
	for _, id := range ids {
		s.done.Add(id)
	}
	return nil
}

func runnerWithStore(t *testing.T, dir string, src lightcurve.Source, store checkpoint.Store, workers int) *Runner {
	t.Helper()
	raw, err := table.OpenRaw(filepath.Join(dir, "raw.csv"), []string{"gmag"})
	if err != nil {
		t.Fatal(err)
	}
	r, err := NewRunner(Config{Source: src, Raw: raw, Store: store, Workers: workers})
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func rawIDs(t *testing.T, dir string) string {
	t.Helper()
	ids, err := table.ReadIDs(filepath.Join(dir, "raw.csv"))
	if err != nil {
		t.Fatal(err)
	}
	return fmt.Sprint(ids)
}

func TestRunnerResumeWithSeparateStore(t *testing.T) {
	dir := t.TempDir()
	src := &sineSource{periods: map[string][]float64{"1": {6}}}

	if _, err := newRunner(t, dir, src, 1).Run(context.Background(), input("1")); err != nil {
		t.Fatal(err)
	}

	src.fetches.Store(0)
	stats, err := runnerWithStore(t, dir, src, newSetStore(), 1).Run(context.Background(), input("1"))
	if err != nil {
		t.Fatal(err)
	}
	if stats.Resumed != 1 || stats.Done != 0 || src.fetches.Load() != 0 {
		t.Fatalf("stats=%+v fetches=%d", stats, src.fetches.Load())
	}
	if got := rawIDs(t, dir); got != "[1]" {
		t.Fatalf("ids=%s want=[1]", got)
	}
}

func TestRunnerCheckpointFailureDoesNotDuplicate(t *testing.T) {
	dir := t.TempDir()
	src := &sineSource{periods: map[string][]float64{"1": {6}, "3": {9}}}

	broken := newSetStore()
	broken.fail = errors.New("connection reset")
	if _, err := runnerWithStore(t, dir, src, broken, 1).Run(context.Background(), input("1", "3")); err == nil {
		t.Fatalf("expected checkpoint error")
	}
	if got := rawIDs(t, dir); got != "[1]" {
		t.Fatalf("ids=%s want=[1]", got)
	}

	store := newSetStore()
	stats, err := runnerWithStore(t, dir, src, store, 1).Run(context.Background(), input("1", "3"))
	if err != nil {
		t.Fatal(err)
	}
	if stats.Resumed != 1 || stats.Done != 1 {
		t.Fatalf("stats=%+v", stats)
	}
	if got := rawIDs(t, dir); got != "[1 3]" {
		t.Fatalf("ids=%s want=[1 3]", got)
	}
	if !store.done.Has("3") || store.done.Has("1") {
		t.Fatalf("done=%v", store.done)
	}
}

func TestRunnerCommitsOncePerBatch(t *testing.T) {
	dir := t.TempDir()
	src := &sineSource{periods: map[string][]float64{"1": {6}, "3": {9}}}
	store := newSetStore()

	stats, err := runnerWithStore(t, dir, src, store, 2).Run(context.Background(), input("1", "2", "3"))
	if err != nil {
		t.Fatal(err)
	}
	if stats.Done != 2 || stats.Failed != 1 {
		t.Fatalf("stats=%+v", stats)
	}
	// Batches are [1 2] and [3].
	if store.batches != 2 || !store.done.Has("1") || !store.done.Has("3") || store.done.Has("2") {
		t.Fatalf("batches=%d done=%v", store.batches, store.done)
	}
}
