package server

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/cwbudde/algo-rotation/internal/obs"
	"github.com/cwbudde/algo-rotation/measure/reconcile"
	"github.com/cwbudde/algo-rotation/measure/rotation"
	"github.com/cwbudde/algo-rotation/table"
)

func metric(label string, period float64) rotation.SectorMetric {
	return rotation.SectorMetric{
		Sector: label, Period: period, Uncertainty: 0.02 * period,
		Power: 0.6, MedianPower: 0.01, AliasFlag: rotation.FlagGlobalMax, Valid: true,
	}
}

func newTestServer(t *testing.T) (*Server, *obs.Metrics) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	raw, err := table.OpenRaw(filepath.Join(dir, "raw.csv"), []string{"gmag"})
	if err != nil {
		t.Fatal(err)
	}
	rows := []table.RawRow{
		{StarID: "100", Extra: map[string]string{"gmag": "11"}, Sectors: []rotation.SectorMetric{metric("s1", 5), metric("s2", 5.1)}},
		{StarID: "200", Extra: map[string]string{"gmag": ""}, Sectors: []rotation.SectorMetric{{
			Sector: "s1", Period: math.NaN(), Uncertainty: math.NaN(), Power: math.NaN(), MedianPower: math.NaN(),
			AliasFlag: rotation.AliasNone, Valid: true,
		}}},
	}
	for _, r := range rows {
		if err := raw.Append(r); err != nil {
			t.Fatal(err)
		}
	}
	summary := []table.SummaryRow{
		table.SummaryFromRecord(reconcile.Reconcile("100", rows[0].Sectors), 11),
		table.SummaryFromRecord(reconcile.Reconcile("300", []rotation.SectorMetric{metric("s1", 7)}), math.NaN()),
	}
	if err := table.WriteSummary(filepath.Join(dir, "summary.csv"), summary); err != nil {
		t.Fatal(err)
	}

	m := obs.NewMetrics()
	return New(Config{RawPath: raw.Path(), SummaryPath: filepath.Join(dir, "summary.csv")}, m), m
}

func get(t *testing.T, s *Server, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: invalid JSON: %v\n%s", path, err, rec.Body.String())
		}
	}
	return rec, body
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)
	rec, body := get(t, s, "/healthz")
	if rec.Code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("code=%d body=%v", rec.Code, body)
	}
}

func TestListStars(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		path  string
		code  int
		count float64
	}{
		{"/stars", http.StatusOK, 2},
		{"/stars?autoval=true", http.StatusOK, 1},
		{"/stars?limit=1", http.StatusOK, 1},
		{"/stars?limit=0", http.StatusBadRequest, 0},
		{"/stars?autoval=maybe", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		rec, body := get(t, s, tt.path)
		if rec.Code != tt.code {
			t.Fatalf("%s code=%d want=%d", tt.path, rec.Code, tt.code)
		}
		if tt.code == http.StatusOK && body["count"] != tt.count {
			t.Fatalf("%s count=%v want=%v", tt.path, body["count"], tt.count)
		}
	}

	_, body := get(t, s, "/stars")
	stars := body["stars"].([]any)
	second := stars[1].(map[string]any)
	if second["tic"] != "300" || second["gmag"] != nil || second["autoval"] != "" {
		t.Fatalf("star=%v", second)
	}
}

func TestGetStar(t *testing.T) {
	s, _ := newTestServer(t)

	rec, body := get(t, s, "/stars/100.0")
	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d", rec.Code)
	}
	sectors := body["sectors"].([]any)
	if len(sectors) != 2 {
		t.Fatalf("sectors=%v", sectors)
	}
	first := sectors[0].(map[string]any)
	if first["period"] != 5.0 || first["detected"] != true {
		t.Fatalf("sector=%v", first)
	}
	summary := body["summary"].(map[string]any)
	if summary["autoval"] != "1" || summary["gmag"] != 11.0 {
		t.Fatalf("summary=%v", summary)
	}

	rec, body = get(t, s, "/stars/200")
	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d", rec.Code)
	}
	sector := body["sectors"].([]any)[0].(map[string]any)
	if sector["period"] != nil || sector["detected"] != false {
		t.Fatalf("sector=%v", sector)
	}

	rec, _ = get(t, s, "/stars/999")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("code=%d want=404", rec.Code)
	}
}

func TestMissingTables(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	s := New(Config{RawPath: filepath.Join(dir, "raw.csv"), SummaryPath: filepath.Join(dir, "summary.csv")}, nil)
	for _, p := range []string{"/stars", "/stars/1"} {
		if rec, _ := get(t, s, p); rec.Code != http.StatusNotFound {
			t.Fatalf("%s code=%d want=404", p, rec.Code)
		}
	}
	if rec, _ := get(t, s, "/metrics"); rec.Code != http.StatusNotFound {
		t.Fatalf("/metrics without registry code=%d", rec.Code)
	}
}

func TestMetricsRoute(t *testing.T) {
	s, _ := newTestServer(t)
	get(t, s, "/healthz")
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `protify_http_requests_total{route="/healthz",status="200"} 1`) {
		t.Fatalf("request metric missing:\n%s", rec.Body.String())
	}
}
