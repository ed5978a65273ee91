// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wavecheck

import (
	"fmt"
	"math/bits"
	"time"
)

// Wave size limits. Hardware subgroups range from 4 to 128 lanes and a
// ballot is always four 32-bit words.
const (
	MinWaveSize = 4
	MaxWaveSize = 128

	// DefaultIterations is the number of randomized invocations per case.
	DefaultIterations = 100
)

// Config fixes the dispatch geometry for the lifetime of a Suite.
// Kernels are specialized against WaveSize and NumWaves at construction and
// pool buffers are sized from them, so neither can change afterwards.
type Config struct {
	// WaveSize is the number of lanes per wave. It must match the device's
	// native wave size.
	WaveSize int

	// NumWaves is the number of waves per dispatch.
	NumWaves int

	// Iterations is the number of random (mask, input) pairs tried per case.
	Iterations int

	// Seed seeds every random source of the suite. Zero picks a seed from
	// the clock; the chosen value is reported so a run can be replayed.
	Seed uint64
}

// DefaultConfig returns the configuration used by the command-line harness:
// 16 waves of 32 lanes, 100 invocations per case.
func DefaultConfig() Config {
	return Config{
		WaveSize:   32,
		NumWaves:   16,
		Iterations: DefaultIterations,
	}
}

// Lanes returns the total number of lanes in one dispatch.
func (c Config) Lanes() int {
	return c.WaveSize * c.NumWaves
}

// Validate reports whether the configuration can drive a suite.
func (c Config) Validate() error {
	if c.WaveSize < MinWaveSize || c.WaveSize > MaxWaveSize || bits.OnesCount(uint(c.WaveSize)) != 1 {
		return fmt.Errorf("%w: wave size %d is not a power of two in [%d, %d]",
			ErrInvalidConfig, c.WaveSize, MinWaveSize, MaxWaveSize)
	}
	if c.NumWaves < 1 {
		return fmt.Errorf("%w: num waves %d < 1", ErrInvalidConfig, c.NumWaves)
	}
	if c.Iterations < 1 {
		return fmt.Errorf("%w: iterations %d < 1", ErrInvalidConfig, c.Iterations)
	}
	return nil
}

// withSeed returns c with a concrete seed, deriving one from the clock when
// Seed is zero.
func (c Config) withSeed() Config {
	if c.Seed == 0 {
		c.Seed = uint64(time.Now().UnixNano()) //nolint:gosec // clock value used only as a seed
		if c.Seed == 0 {
			c.Seed = 1
		}
	}
	return c
}
