// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"errors"

	"github.com/gogpu/wavecheck"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not
	// registered, or when no registered backend could open a device.
	ErrBackendNotAvailable = errors.New("backend: not available")
)

// Backend name constants.
const (
	// Reference is the CPU device that executes kernels in lockstep
	// (internal/wavesim). It is always registered.
	Reference = "reference"
	// Vulkan is the GPU device on the wgpu Vulkan HAL. It is registered by
	// importing github.com/gogpu/wavecheck/gpu.
	Vulkan = "vulkan"
)

// DeviceFactory opens a new device. A factory may fail when the hardware
// or driver it needs is missing.
type DeviceFactory func() (wavecheck.Device, error)
