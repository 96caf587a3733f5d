package main

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cwbudde/algo-rotation/internal/testutil"
	"github.com/cwbudde/algo-rotation/table"
)

func execTest(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeSector(t *testing.T, root, tic, sector string, period float64) {
	t.Helper()
	dir := filepath.Join(root, "TIC"+tic)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	tm, fx, fe := testutil.SineLightCurve(period, 0.01, testutil.SectorSpan, testutil.Cadence30Min, 0.001, 1)
	var b strings.Builder
	b.WriteString("# synthetic\ntime,flux,flux_err\n")
	for i := range tm {
		fmt.Fprintf(&b, "%g,%g,%g\n", tm[i], fx[i], fe[i])
	}
	if err := os.WriteFile(filepath.Join(dir, sector+".csv"), []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestUsage(t *testing.T) {
	tests := []struct {
		args []string
		code int
	}{
		{nil, exitUsage},
		{[]string{"help"}, exitOK},
		{[]string{"bogus"}, exitUsage},
		{[]string{"run"}, exitUsage},
		{[]string{"run", "-input", "x.csv", "-workers", "0"}, exitUsage},
		{[]string{"summarize"}, exitUsage},
		{[]string{"summarize", "-raw", "x", "extra"}, exitUsage},
		{[]string{"classify", "-raw", "x"}, exitUsage},
		{[]string{"inspect"}, exitUsage},
		{[]string{"inspect", "-nope"}, exitUsage},
		{[]string{"serve", "-log-level", "loud"}, exitUsage},
		{[]string{"summarize", "-h"}, exitOK},
	}
	for _, tt := range tests {
		if code, _, stderr := execTest(t, tt.args...); code != tt.code {
			t.Fatalf("args=%v code=%d want=%d stderr=%s", tt.args, code, tt.code, stderr)
		}
	}
}

func TestMissingInputIsFatal(t *testing.T) {
	code, _, _ := execTest(t, "run", "-input", filepath.Join(t.TempDir(), "missing.csv"))
	if code != exitFatal {
		t.Fatalf("code=%d want=%d", code, exitFatal)
	}
}

func TestRunSummarizeInspect(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PROTIFY_ARCHIVE_URL", "")
	dir := t.TempDir()
	lc := filepath.Join(dir, "lc")
	writeSector(t, lc, "1", "s01", 6)
	writeSector(t, lc, "1", "s02", 6.1)

	input := filepath.Join(dir, "stars.csv")
	if err := os.WriteFile(input, []byte("TIC,gmag\n1,10.2\n2,11\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	raw := filepath.Join(dir, "raw.csv")

	code, _, stderr := execTest(t, "run", "-input", input, "-raw", raw, "-source-dir", lc, "-log-level", "error")
	if code != exitOK {
		t.Fatalf("run code=%d stderr=%s", code, stderr)
	}
	ids, err := table.ReadIDs(raw)
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(ids) != "[1]" {
		t.Fatalf("ids=%v want=[1]", ids)
	}
	failures, err := table.OpenFailureLog(raw + ".failures.csv")
	if err != nil {
		t.Fatal(err)
	}
	if failures.Len() != 1 {
		t.Fatalf("failures=%d want=1", failures.Len())
	}

	summary := filepath.Join(dir, "summary.csv")
	code, stdout, stderr := execTest(t, "summarize", "-raw", raw, "-summary", summary, "-log-level", "error")
	if code != exitOK || !strings.Contains(stdout, "wrote 1 stars") {
		t.Fatalf("summarize code=%d stdout=%s stderr=%s", code, stdout, stderr)
	}
	rows, err := table.ReadSummary(summary)
	if err != nil {
		t.Fatal(err)
	}
	testutil.RequireRelNear(t, "prot", rows[0].Prot, 6.05, 0.05)
	if rows[0].GMag != 10.2 {
		t.Fatalf("gmag=%v want=10.2", rows[0].GMag)
	}

	code, stdout, stderr = execTest(t, "inspect", "-tic", "1", "-source-dir", lc)
	if code != exitOK {
		t.Fatalf("inspect code=%d stderr=%s", code, stderr)
	}
	for _, want := range []string{"s01", "s02", "ACF [d]", "TIC 1: Prot"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("inspect output missing %q:\n%s", want, stdout)
		}
	}
}

func TestRunSurvivesBusyMetricsAddr(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PROTIFY_ARCHIVE_URL", "")
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen: %v", err)
	}
	defer ln.Close()

	dir := t.TempDir()
	lc := filepath.Join(dir, "lc")
	writeSector(t, lc, "7", "s01", 5)
	input := filepath.Join(dir, "stars.csv")
	if err := os.WriteFile(input, []byte("TIC\n7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	raw := filepath.Join(dir, "raw.csv")

	code, _, stderr := execTest(t, "run", "-input", input, "-raw", raw, "-source-dir", lc,
		"-metrics-addr", ln.Addr().String(), "-log-level", "error")
	if code != exitOK {
		t.Fatalf("code=%d stderr=%s", code, stderr)
	}
	ids, err := table.ReadIDs(raw)
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(ids) != "[7]" {
		t.Fatalf("ids=%v want=[7]", ids)
	}
}

func TestEverySubcommandHasHelp(t *testing.T) {
	for _, c := range commands {
		if code, _, stderr := execTest(t, c.name, "-h"); code != exitOK {
			t.Fatalf("%s -h code=%d stderr=%s", c.name, code, stderr)
		}
	}
}
