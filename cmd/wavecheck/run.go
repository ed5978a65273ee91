package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/gogpu/wavecheck"
	"github.com/gogpu/wavecheck/backend"
	"github.com/prometheus/client_golang/prometheus"
)

// ANSI color codes
const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorBold  = "\033[1m"
)

// runSuite opens the device, runs the selected cases and writes verdicts,
// the report and metrics. Harness errors come back as fatalError.
func runSuite(ctx context.Context, o *options, stdout, stderr io.Writer) error {
	logger, err := newLogger(stderr, o.logLevel, o.logFormat)
	if err != nil {
		return fatal(err)
	}
	wavecheck.SetLogger(logger)
	defer wavecheck.SetLogger(nil)

	format, err := wavecheck.ParseReportFormat(o.reportFormat)
	if err != nil {
		return fatal(err)
	}

	dev, err := openDevice(o.backend)
	if err != nil {
		return fatal(err)
	}
	defer dev.Close()

	reg := prometheus.NewRegistry()
	suite, err := wavecheck.NewSuite(dev, o.config(), wavecheck.WithMetrics(wavecheck.NewMetrics(reg)))
	if err != nil {
		return fatal(err)
	}
	defer suite.Close()

	filter, err := caseFilter(suite.Cases(), o.only)
	if err != nil {
		return fatal(err)
	}

	if dev.Name() == backend.Reference {
		warnNoHardware(stderr, o.backend)
	}

	color := useColor(stdout, o.noColor)
	report, err := suite.Run(ctx, filter, func(res wavecheck.CaseResult) {
		printVerdict(stdout, res.Name, res.Passed, color)
	})
	if err != nil {
		return fatal(err)
	}
	printVerdict(stdout, "Overall Result:", report.Passed, color)
	_, _ = fmt.Fprintf(stdout, "device=%s wave_size=%d num_waves=%d seed=%d run_id=%s\n",
		report.Device, report.WaveSize, report.NumWaves, report.Seed, report.RunID)

	if o.report != "" {
		if err := writeReport(o.report, report, format); err != nil {
			return fatal(err)
		}
	}
	if o.metricsFile != "" {
		if err := prometheus.WriteToTextfile(o.metricsFile, reg); err != nil {
			return fatal(fmt.Errorf("write metrics: %w", err))
		}
	}

	if !report.Passed {
		return errSuiteFailed
	}
	return nil
}

// openDevice opens the named backend, or the best available one for "auto".
func openDevice(name string) (wavecheck.Device, error) {
	if name == "" || name == "auto" {
		return backend.Default()
	}
	return backend.Open(name)
}

// caseFilter accepts the cases named in only, or every case when only is
// empty. Unknown names are an error.
func caseFilter(cases []wavecheck.Case, only []string) (func(wavecheck.Case) bool, error) {
	if len(only) == 0 {
		return nil, nil
	}
	known := make([]string, len(cases))
	for i, c := range cases {
		known[i] = c.Name
	}
	for _, name := range only {
		if !slices.Contains(known, name) {
			return nil, fmt.Errorf("unknown case %q", name)
		}
	}
	return func(c wavecheck.Case) bool {
		return slices.Contains(only, c.Name)
	}, nil
}

// warnNoHardware reports that both paths run on the CPU reference device,
// so a PASS says nothing about the GPU's native intrinsics.
func warnNoHardware(w io.Writer, requested string) {
	wavecheck.Logger().Warn("wavecheck: running on the reference device, no GPU exercised",
		"backend", requested)
	_, _ = fmt.Fprintf(w, "warning: backend %q runs on the CPU reference device; no GPU hardware is exercised\n",
		requested)
}

func printVerdict(w io.Writer, name string, passed, color bool) {
	verdict := "FAIL"
	code := colorRed
	if passed {
		verdict = "PASS"
		code = colorGreen
	}
	if color {
		_, _ = fmt.Fprintf(w, "%s %s%s%s%s\n", name, colorBold, code, verdict, colorReset)
		return
	}
	_, _ = fmt.Fprintf(w, "%s %s\n", name, verdict)
}

func writeReport(path string, report *wavecheck.Report, format wavecheck.ReportFormat) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := report.Write(f, format); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
