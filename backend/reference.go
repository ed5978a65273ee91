// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"runtime"

	"github.com/gogpu/wavecheck"
	"github.com/gogpu/wavecheck/internal/wavesim"
)

// init registers the reference backend on package import.
func init() {
	Register(Reference, func() (wavecheck.Device, error) {
		return NewReference(WithWorkers(runtime.GOMAXPROCS(0))), nil
	})
}

// ReferenceOption configures a reference device.
type ReferenceOption = wavesim.Option

// NewReference creates a CPU reference device. Its native wave size is
// unconstrained, so any valid Config passes the wave size probe.
func NewReference(opts ...ReferenceOption) wavecheck.Device {
	return wavesim.New(opts...)
}

// WithNativeWaveSize pins the lane count the reference device reports.
func WithNativeWaveSize(n int) ReferenceOption { return wavesim.WithNativeWaveSize(n) }

// WithMemoryLimit bounds the total words the reference device may allocate.
func WithMemoryLimit(words int) ReferenceOption { return wavesim.WithMemoryLimit(words) }

// WithWorkers spreads the waves of each dispatch over n goroutines.
func WithWorkers(n int) ReferenceOption { return wavesim.WithWorkers(n) }
