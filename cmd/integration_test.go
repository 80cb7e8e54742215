package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/plmview-cli/internal/report"
	"github.com/spf13/pflag"
)

// runCmd executes the root command with args and returns its stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// Reset sticky flags that may persist Changed state across invocations
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	cfgFile, debug = "", false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

// isolate points HOME at a temp dir so no user config leaks in.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestCLI_SampleThenAnalyzeJSON(t *testing.T) {
	home := isolate(t)
	wb := filepath.Join(home, "plm.xlsx")
	out := mustRun(t, "sample", "-o", wb)
	if !strings.Contains(out, "✓ Wrote sample workbook") {
		t.Fatalf("unexpected sample output: %q", out)
	}

	out = mustRun(t, "analyze", wb, "--format", "json")
	var rep report.JSONReport
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if rep.Rows != 6 || rep.Overlap != 1 {
		t.Fatalf("rows/overlap = %d/%d, want 6/1", rep.Rows, rep.Overlap)
	}
	want := map[string][4]int{ // size, analysed, solved, solved with CL
		"VOC":    {3, 1, 2, 2},
		"MR":     {2, 0, 2, 1},
		"Others": {2, 1, 0, 0},
	}
	if len(rep.Buckets) != 3 {
		t.Fatalf("buckets = %+v", rep.Buckets)
	}
	for _, b := range rep.Buckets {
		w := want[string(b.Category)]
		got := [4]int{b.Size, b.Analysed, b.Solved, b.SolvedWithReference}
		if got != w {
			t.Errorf("%s = %v, want %v", b.Category, got, w)
		}
	}
}

func TestCLI_AnalyzeMarkdownToFile(t *testing.T) {
	home := isolate(t)
	wb := filepath.Join(home, "plm.xlsx")
	mustRun(t, "sample", "-o", wb)

	dst := filepath.Join(home, "out", "report.md")
	out := mustRun(t, "analyze", wb, "--format", "markdown", "-o", dst, "--rows", "2")
	if !strings.Contains(out, "✓ Wrote markdown report") {
		t.Fatalf("unexpected output: %q", out)
	}
	b, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	md := string(b)
	for _, s := range []string{report.SuccessMessage, "### Summary Statistics", "### Analysis for VOC PLM's", "_showing 2 of 6 rows_"} {
		if !strings.Contains(md, s) {
			t.Errorf("report missing %q", s)
		}
	}
}

func TestCLI_AnalyzeTerminalToFile(t *testing.T) {
	home := isolate(t)
	wb := filepath.Join(home, "plm.xlsx")
	mustRun(t, "sample", "-o", wb)

	dst := filepath.Join(home, "report.txt")
	mustRun(t, "analyze", wb, "-o", dst)
	b, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(b), "Solved with CL Number") {
		t.Errorf("terminal report missing charts:\n%s", b)
	}
}

func TestCLI_AnalyzeErrors(t *testing.T) {
	home := isolate(t)
	if _, err := runCmd(t, "analyze", filepath.Join(home, "missing.xlsx")); err == nil || !strings.Contains(err.Error(), "error reading the Excel file") {
		t.Fatalf("want load error, got %v", err)
	}
	wb := filepath.Join(home, "plm.xlsx")
	mustRun(t, "sample", "-o", wb)
	if _, err := runCmd(t, "analyze", wb, "--format", "pdf"); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
	if _, err := runCmd(t, "analyze", wb, "--rows", "-1"); err == nil {
		t.Fatalf("expected error for negative rows")
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	home := isolate(t)
	cfgPath := filepath.Join(home, "plmview.yaml")

	mustRun(t, "config", "set", "table_rows", "25")
	if _, err := os.Stat(filepath.Join(home, ".plmview", "config.yaml")); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	out := mustRun(t, "config", "show")
	if !strings.Contains(out, "table_rows: 25") || !strings.Contains(out, "listen_addr: :8501") {
		t.Fatalf("unexpected config show:\n%s", out)
	}

	if err := os.WriteFile(cfgPath, []byte("output_format: markdown\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	out = mustRun(t, "--config", cfgPath, "config", "show")
	if !strings.Contains(out, "output_format: markdown") {
		t.Fatalf("explicit config not used:\n%s", out)
	}

	if _, err := runCmd(t, "config", "set", "output_format", "pdf"); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, err := runCmd(t, "config", "set", "nope", "1"); err == nil {
		t.Fatalf("expected unknown key error")
	}
	if _, err := runCmd(t, "--config", filepath.Join(home, "absent.yaml"), "config", "show"); err == nil {
		t.Fatalf("expected error for missing explicit config")
	}
}
