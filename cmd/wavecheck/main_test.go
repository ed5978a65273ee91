package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gogpu/wavecheck"
	"github.com/gogpu/wavecheck/backend"
	"github.com/gogpu/wavecheck/internal/wavesim"
	"gopkg.in/yaml.v3"
)

func runArgs(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errb bytes.Buffer
	code = run(context.Background(), append([]string{"wavecheck"}, args...), &out, &errb)
	return code, out.String(), errb.String()
}

// small keeps reference runs fast.
var small = []string{"--backend", "reference", "--num-waves", "2", "--iterations", "3", "--seed", "7"}

func TestRunReferencePasses(t *testing.T) {
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "report.json")
	metricsPath := filepath.Join(dir, "metrics.prom")

	code, out, stderr := runArgs(t, append(small, "--report", reportPath, "--metrics-file", metricsPath)...)
	if code != exitPass {
		t.Fatalf("exit code = %d, want %d\nstdout:\n%s\nstderr:\n%s", code, exitPass, out, stderr)
	}
	for _, want := range []string{"GetLaneCount PASS", "Integration PASS", "Overall Result: PASS", "seed=7"} {
		if !strings.Contains(out, want) {
			t.Errorf("stdout missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("verdicts colored when stdout is not a terminal")
	}
	if !strings.Contains(stderr, `warning: backend "reference" runs on the CPU reference device`) {
		t.Errorf("stderr missing the no-hardware warning:\n%s", stderr)
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var report wavecheck.Report
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if !report.Passed || report.Device != "reference" || report.Seed != 7 {
		t.Errorf("report = passed %v device %q seed %d", report.Passed, report.Device, report.Seed)
	}
	if len(report.Results) != len(wavecheck.DefaultCases()) {
		t.Errorf("report has %d results, want %d", len(report.Results), len(wavecheck.DefaultCases()))
	}

	metrics, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(metrics), "wavecheck_case_results_total") {
		t.Errorf("metrics file missing case counter:\n%s", metrics)
	}
}

func TestRunYAMLReport(t *testing.T) {
	reportPath := filepath.Join(t.TempDir(), "report.yaml")
	code, _, stderr := runArgs(t, append(small, "--only", "ActiveSum", "--report", reportPath, "--report-format", "yaml")...)
	if code != exitPass {
		t.Fatalf("exit code = %d, stderr:\n%s", code, stderr)
	}
	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatal(err)
	}
	var report map[string]any
	if err := yaml.Unmarshal(data, &report); err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if report["passed"] != true {
		t.Errorf("passed = %v, want true", report["passed"])
	}
}

func TestRunOnly(t *testing.T) {
	code, out, _ := runArgs(t, append(small, "--only", "ActiveSum", "--only", "ReadLaneAt")...)
	if code != exitPass {
		t.Fatalf("exit code = %d", code)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	// two cases, the aggregate and the summary line
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), out)
	}
	if lines[0] != "ReadLaneAt PASS" || lines[1] != "ActiveSum PASS" {
		t.Errorf("verdicts = %q, want registry order", lines[:2])
	}
}

func TestRunFailureExitsOne(t *testing.T) {
	backend.Register("faulty", func() (wavecheck.Device, error) {
		return wavesim.New(wavesim.WithFault(wavesim.Fault{Op: wavecheck.OpActiveMin, Index: 1, Xor: 0x10})), nil
	})
	defer backend.Unregister("faulty")

	code, out, _ := runArgs(t, "--backend", "faulty", "--num-waves", "2", "--iterations", "2", "--seed", "3")
	if code != exitFail {
		t.Fatalf("exit code = %d, want %d\n%s", code, exitFail, out)
	}
	if !strings.Contains(out, "ActiveMin FAIL") || !strings.Contains(out, "Overall Result: FAIL") {
		t.Errorf("stdout:\n%s", out)
	}
	// The suite continues after a failure.
	if !strings.Contains(out, "Integration PASS") {
		t.Errorf("cases after the failure did not run:\n%s", out)
	}
}

func TestRunFatal(t *testing.T) {
	backend.Register("narrow", func() (wavecheck.Device, error) {
		return wavesim.New(wavesim.WithNativeWaveSize(64)), nil
	})
	defer backend.Unregister("narrow")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"invalid wave size", append(small, "--wave-size", "3"), "invalid config"},
		{"wave size mismatch", []string{"--backend", "narrow", "--num-waves", "1"}, "wave size mismatch"},
		{"unknown backend", []string{"--backend", "nope"}, "not available"},
		{"unknown case", append(small, "--only", "Nope"), `unknown case "Nope"`},
		{"bad report format", append(small, "--report-format", "xml"), "unknown report format"},
		{"bad log level", append(small, "--log-level", "loud"), "unknown log level"},
		{"bad log format", append(small, "--log-format", "xml"), "unknown log format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, stderr := runArgs(t, tt.args...)
			if code != exitFatal {
				t.Errorf("exit code = %d, want %d", code, exitFatal)
			}
			if !strings.HasPrefix(stderr, "fatal: ") || !strings.Contains(stderr, tt.want) {
				t.Errorf("stderr = %q, want fatal message containing %q", stderr, tt.want)
			}
			if strings.Contains(out, "PASS") || strings.Contains(out, "FAIL") {
				t.Errorf("verdicts printed before a fatal error:\n%s", out)
			}
		})
	}
}

func TestList(t *testing.T) {
	code, out, _ := runArgs(t, "list")
	if code != exitPass {
		t.Fatalf("exit code = %d", code)
	}
	for _, want := range []string{"CASE", "ActiveBallot", "wave x4", "PrefixCountBits/Monotonic", "Backends:", "reference"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintVerdict(t *testing.T) {
	tests := []struct {
		passed, color bool
		want          string
	}{
		{true, false, "Sum PASS\n"},
		{false, false, "Sum FAIL\n"},
		{true, true, "Sum " + colorBold + colorGreen + "PASS" + colorReset + "\n"},
		{false, true, "Sum " + colorBold + colorRed + "FAIL" + colorReset + "\n"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		printVerdict(&buf, "Sum", tt.passed, tt.color)
		if buf.String() != tt.want {
			t.Errorf("printVerdict(%v, %v) = %q, want %q", tt.passed, tt.color, buf.String(), tt.want)
		}
	}
}

func TestUseColor(t *testing.T) {
	var buf bytes.Buffer
	if useColor(&buf, false) {
		t.Error("buffer should never be colored")
	}
	if useColor(os.Stdout, true) {
		t.Error("--no-color should disable color")
	}
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"debug", "info", "warn", "warning", "error", "INFO"} {
		if _, err := parseLevel(s); err != nil {
			t.Errorf("parseLevel(%q) error = %v", s, err)
		}
	}
	if _, err := parseLevel("trace"); err == nil {
		t.Error("parseLevel(trace) should fail")
	}
}

func TestOptionsConfig(t *testing.T) {
	o := &options{waveSize: 64, numWaves: 8, iterations: 5, seed: 11}
	cfg := o.config()
	want := wavecheck.Config{WaveSize: 64, NumWaves: 8, Iterations: 5, Seed: 11}
	if cfg != want {
		t.Errorf("config() = %+v, want %+v", cfg, want)
	}
}
