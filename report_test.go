package wavecheck

import (
	"bytes"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

func sampleReport() *Report {
	r := newReport("fake", Config{WaveSize: 32, NumWaves: 16, Iterations: 100, Seed: 9})
	r.add(CaseResult{Name: "ActiveSum", Op: "ActiveSum", Category: "reduction", Passed: true, Iterations: 100, FailedIteration: -1})
	r.add(CaseResult{Name: "ActiveBallot", Op: "ActiveBallot", Category: "vote", Iterations: 3, FailedIteration: 2,
		Mismatches: []Mismatch{{Index: 5, Emulated: 1, Native: 3}}, Reason: "emulated result differs from native"})
	return r
}

func TestReportAggregate(t *testing.T) {
	r := sampleReport()
	if r.Passed || r.Failed() != 1 {
		t.Errorf("Passed = %v, Failed() = %d", r.Passed, r.Failed())
	}
	if _, err := uuid.Parse(r.RunID); err != nil {
		t.Errorf("RunID %q is not a UUID: %v", r.RunID, err)
	}
	if _, ok := r.Result("missing"); ok {
		t.Error("Result(missing) found a case")
	}
}

func TestReportWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleReport().Write(&buf, ReportJSON); err != nil {
		t.Fatal(err)
	}
	var got Report
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Unmarshal() error = %v\n%s", err, buf.String())
	}
	if got.Device != "fake" || got.Seed != 9 || len(got.Results) != 2 {
		t.Errorf("decoded report = %+v", got)
	}
	if got.Results[1].Mismatches[0].Native != 3 {
		t.Errorf("mismatch not preserved: %+v", got.Results[1])
	}
}

func TestReportWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleReport().Write(&buf, ReportYAML); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "wave_size: 32") {
		t.Errorf("yaml output missing wave_size:\n%s", buf.String())
	}
	var got map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["passed"] != false {
		t.Errorf("passed = %v", got["passed"])
	}
}

func TestParseReportFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    ReportFormat
		wantErr bool
	}{
		{"json", ReportJSON, false},
		{"YAML", ReportYAML, false},
		{"yml", ReportYAML, false},
		{"xml", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseReportFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseReportFormat(%q) = %v, %v", tt.in, got, err)
		}
	}
}
