// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wavecheck

import (
	"math"
	"math/rand/v2"
)

// ElementKind is the scalar type stored in a 32-bit buffer word.
type ElementKind uint8

const (
	// Int32 words hold two's complement signed integers.
	Int32 ElementKind = iota
	// Float32 words hold IEEE-754 single precision bits.
	Float32
)

// String returns the element kind name.
func (k ElementKind) String() string {
	if k == Float32 {
		return "f32"
	}
	return "i32"
}

// InputFunc fills an input buffer of n lanes.
type InputFunc func(rng *rand.Rand, n int) []uint32

// ConstantsFunc produces the constant words of one dispatch.
type ConstantsFunc func(rng *rand.Rand, cfg Config) []uint32

// UniformInt draws int32 values uniformly from [lo, hi).
func UniformInt(lo, hi int32) InputFunc {
	span := int64(hi) - int64(lo)
	return func(rng *rand.Rand, n int) []uint32 {
		out := make([]uint32, n)
		for i := range out {
			out[i] = uint32(int32(int64(lo) + rng.Int64N(span))) //nolint:gosec // value lies in [lo, hi)
		}
		return out
	}
}

// UniformBits draws every word uniformly from the full 32-bit range.
func UniformBits() InputFunc {
	return func(rng *rand.Rand, n int) []uint32 {
		out := make([]uint32, n)
		for i := range out {
			out[i] = rng.Uint32()
		}
		return out
	}
}

// UniformFloat draws float32 values uniformly from [lo, hi) and stores their bits.
func UniformFloat(lo, hi float32) InputFunc {
	return func(rng *rand.Rand, n int) []uint32 {
		out := make([]uint32, n)
		for i := range out {
			out[i] = math.Float32bits(lo + rng.Float32()*(hi-lo))
		}
		return out
	}
}

// ConstantInt repeats v on every lane.
func ConstantInt(v int32) InputFunc {
	return func(_ *rand.Rand, n int) []uint32 {
		out := make([]uint32, n)
		for i := range out {
			out[i] = uint32(v) //nolint:gosec // two's complement storage
		}
		return out
	}
}

// FixedConstants always returns vals.
func FixedConstants(vals ...int32) ConstantsFunc {
	return func(_ *rand.Rand, _ Config) []uint32 {
		out := make([]uint32, len(vals))
		for i, v := range vals {
			out[i] = uint32(v) //nolint:gosec // two's complement storage
		}
		return out
	}
}

// RandomThreshold draws one threshold uniformly from [lo, hi).
func RandomThreshold(lo, hi int32) ConstantsFunc {
	span := int64(hi) - int64(lo)
	return func(rng *rand.Rand, _ Config) []uint32 {
		return []uint32{uint32(int32(int64(lo) + rng.Int64N(span)))} //nolint:gosec // value lies in [lo, hi)
	}
}

// RandomLane draws one lane index uniformly from [0, WaveSize).
func RandomLane() ConstantsFunc {
	return func(rng *rand.Rand, cfg Config) []uint32 {
		return []uint32{uint32(rng.IntN(cfg.WaveSize))} //nolint:gosec // lane index < MaxWaveSize
	}
}
