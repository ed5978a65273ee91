//go:build !nogpu

package gpu

import (
	"log/slog"
	"sync/atomic"
)

var deviceLogger atomic.Pointer[slog.Logger]

func init() {
	deviceLogger.Store(slog.New(slog.DiscardHandler))
}

// slogger returns the logger used by the Vulkan device.
func slogger() *slog.Logger { return deviceLogger.Load() }

// SetLogger replaces the device logger; nil discards. The public gpu package
// passes wavecheck.Logger() when it opens a device.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	deviceLogger.Store(l)
}
