package wavecheck

import (
	"log/slog"
	"sync/atomic"
)

// harnessLogger is silent until SetLogger installs a handler.
var harnessLogger atomic.Pointer[slog.Logger]

func init() {
	harnessLogger.Store(silentLogger())
}

func silentLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

// SetLogger routes the harness logs to l. A nil l silences them again.
//
// Debug records cover buffer allocation and kernel builds, Info records the
// adapter choice and suite progress, Warn records failed cases and runs
// that never touch GPU hardware.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = silentLogger()
	}
	harnessLogger.Store(l)
}

// Logger returns the harness logger. Device packages log through it so a
// single SetLogger call configures the whole run.
func Logger() *slog.Logger {
	return harnessLogger.Load()
}
