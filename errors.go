// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wavecheck

import "errors"

// Harness errors.
//
// ErrResourceAllocation, ErrKernelBuild and ErrWaveSizeMismatch are fatal:
// they are returned from NewSuite before any case runs and mean the harness
// itself cannot execute. A result mismatch is never an error; it is recorded
// as a failed CaseResult.
var (
	// ErrInvalidConfig is returned when a Config fails validation.
	ErrInvalidConfig = errors.New("wavecheck: invalid config")

	// ErrNilDevice is returned when a nil Device is passed to the harness.
	ErrNilDevice = errors.New("wavecheck: nil device")

	// ErrResourceAllocation is returned when the device cannot allocate a pool buffer.
	ErrResourceAllocation = errors.New("wavecheck: resource allocation failed")

	// ErrKernelBuild is returned when a kernel program fails to compile or link.
	ErrKernelBuild = errors.New("wavecheck: kernel build failed")

	// ErrWaveSizeMismatch is returned when the native wave size reported by the
	// device differs from the configured WaveSize.
	ErrWaveSizeMismatch = errors.New("wavecheck: native wave size mismatch")

	// ErrResetOutOfRange is returned when a reset covers more words than the
	// buffer holds.
	ErrResetOutOfRange = errors.New("wavecheck: reset length out of range")

	// ErrShapeMismatch is returned when a downloaded result does not have the
	// length declared by its kernel descriptor.
	ErrShapeMismatch = errors.New("wavecheck: result shape mismatch")

	// ErrUnknownOp is returned for an Op outside the registry.
	ErrUnknownOp = errors.New("wavecheck: unknown operation")

	// ErrKernelNotFound is returned when the catalog holds no kernel for an Op.
	ErrKernelNotFound = errors.New("wavecheck: kernel not in catalog")

	// ErrDuplicateCase is returned when a case name is registered twice.
	ErrDuplicateCase = errors.New("wavecheck: duplicate case name")

	// ErrSuiteClosed is returned when a closed Suite is used.
	ErrSuiteClosed = errors.New("wavecheck: suite closed")
)
