// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wavecheck

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Report aggregates the results of one suite run.
type Report struct {
	RunID      string        `json:"run_id" yaml:"run_id"`
	Device     string        `json:"device" yaml:"device"`
	WaveSize   int           `json:"wave_size" yaml:"wave_size"`
	NumWaves   int           `json:"num_waves" yaml:"num_waves"`
	Iterations int           `json:"iterations" yaml:"iterations"`
	Seed       uint64        `json:"seed" yaml:"seed"`
	Started    time.Time     `json:"started" yaml:"started"`
	Duration   time.Duration `json:"duration_ns" yaml:"duration"`
	Passed     bool          `json:"passed" yaml:"passed"`
	Results    []CaseResult  `json:"results" yaml:"results"`
}

func newReport(device string, cfg Config) *Report {
	return &Report{
		RunID:      uuid.NewString(),
		Device:     device,
		WaveSize:   cfg.WaveSize,
		NumWaves:   cfg.NumWaves,
		Iterations: cfg.Iterations,
		Seed:       cfg.Seed,
		Started:    time.Now().UTC(),
		Passed:     true,
	}
}

// add records res; the aggregate is the AND of every verdict.
func (r *Report) add(res CaseResult) {
	r.Results = append(r.Results, res)
	r.Passed = r.Passed && res.Passed
}

// Failed returns the number of failed cases.
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.Passed {
			n++
		}
	}
	return n
}

// Result returns the result of the named case.
func (r *Report) Result(name string) (CaseResult, bool) {
	for _, res := range r.Results {
		if res.Name == name {
			return res, true
		}
	}
	return CaseResult{}, false
}

// ReportFormat selects the encoding of a written report.
type ReportFormat uint8

const (
	ReportJSON ReportFormat = iota
	ReportYAML
)

// String returns the format name.
func (f ReportFormat) String() string {
	if f == ReportYAML {
		return "yaml"
	}
	return "json"
}

// ParseReportFormat parses "json", "yaml" or "yml".
func ParseReportFormat(s string) (ReportFormat, error) {
	switch strings.ToLower(s) {
	case "json":
		return ReportJSON, nil
	case "yaml", "yml":
		return ReportYAML, nil
	default:
		return 0, fmt.Errorf("wavecheck: unknown report format %q", s)
	}
}

// Write encodes the report to w.
func (r *Report) Write(w io.Writer, format ReportFormat) error {
	switch format {
	case ReportYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("wavecheck: encode yaml report: %w", err)
		}
		return enc.Close()
	default:
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("wavecheck: encode json report: %w", err)
		}
		data = append(data, '\n')
		_, err = w.Write(data)
		return err
	}
}
