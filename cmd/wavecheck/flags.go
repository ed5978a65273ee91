package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/gogpu/wavecheck"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
)

// options collects the flag values of one invocation.
type options struct {
	backend      string
	waveSize     int
	numWaves     int
	iterations   int
	seed         uint64
	only         []string
	report       string
	reportFormat string
	metricsFile  string
	logLevel     string
	logFormat    string
	noColor      bool
}

func runFlags(o *options) []cli.Flag {
	def := wavecheck.DefaultConfig()
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "backend",
			Aliases:     []string{"b"},
			Usage:       "device backend (auto, reference, vulkan)",
			Value:       "auto",
			Sources:     cli.EnvVars("WAVECHECK_BACKEND"),
			Destination: &o.backend,
		},
		&cli.IntFlag{
			Name:        "wave-size",
			Aliases:     []string{"w"},
			Usage:       "lanes per wave; must match the device",
			Value:       def.WaveSize,
			Destination: &o.waveSize,
		},
		&cli.IntFlag{
			Name:        "num-waves",
			Usage:       "waves per dispatch",
			Value:       def.NumWaves,
			Destination: &o.numWaves,
		},
		&cli.IntFlag{
			Name:        "iterations",
			Aliases:     []string{"n"},
			Usage:       "random invocations per case",
			Value:       def.Iterations,
			Destination: &o.iterations,
		},
		&cli.Uint64Flag{
			Name:        "seed",
			Usage:       "random seed (0 derives one from the clock)",
			Destination: &o.seed,
		},
		&cli.StringSliceFlag{
			Name:        "only",
			Usage:       "run only the named cases",
			Destination: &o.only,
		},
		&cli.StringFlag{
			Name:        "report",
			Usage:       "write the suite report to this file",
			Destination: &o.report,
		},
		&cli.StringFlag{
			Name:        "report-format",
			Usage:       "report encoding (json, yaml)",
			Value:       "json",
			Destination: &o.reportFormat,
		},
		&cli.StringFlag{
			Name:        "metrics-file",
			Usage:       "write Prometheus metrics in text format to this file",
			Destination: &o.metricsFile,
		},
		&cli.BoolFlag{
			Name:        "no-color",
			Usage:       "disable colored verdicts",
			Destination: &o.noColor,
		},
	}
}

func loggingFlags(o *options) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "warn",
			Destination: &o.logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (text, json)",
			Value:       "text",
			Destination: &o.logFormat,
		},
	}
}

// config builds the harness configuration from the flags.
func (o *options) config() wavecheck.Config {
	return wavecheck.Config{
		WaveSize:   o.waveSize,
		NumWaves:   o.numWaves,
		Iterations: o.iterations,
		Seed:       o.seed,
	}
}

// parseLevel converts a string level to slog.Level.
func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", level)
	}
}

// newLogger builds the logger installed with wavecheck.SetLogger.
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// useColor reports whether verdicts written to w should be colored.
func useColor(w io.Writer, disabled bool) bool {
	if disabled || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
