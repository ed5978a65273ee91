// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wavecheck

import (
	"fmt"
	"math/rand/v2"
)

// MaskPolicy selects how the execution mask of an invocation is produced.
type MaskPolicy uint8

const (
	// MaskRandom draws every lane independently from a fair coin.
	MaskRandom MaskPolicy = iota
	// MaskAll activates every lane.
	MaskAll
	// MaskNone deactivates every lane.
	MaskNone
	// MaskSingle activates exactly one random lane per wave.
	MaskSingle
)

// String returns the policy name.
func (p MaskPolicy) String() string {
	switch p {
	case MaskRandom:
		return "random"
	case MaskAll:
		return "all"
	case MaskNone:
		return "none"
	case MaskSingle:
		return "single"
	default:
		return fmt.Sprintf("MaskPolicy(%d)", uint8(p))
	}
}

// MaskGenerator produces execution masks of NumWaves*WaveSize lanes.
// Every call returns a freshly allocated mask; nothing is cached.
type MaskGenerator struct {
	rng      *rand.Rand
	waveSize int
	numWaves int
}

// NewMaskGenerator returns a generator for cfg drawing from rng.
func NewMaskGenerator(cfg Config, rng *rand.Rand) *MaskGenerator {
	return &MaskGenerator{rng: rng, waveSize: cfg.WaveSize, numWaves: cfg.NumWaves}
}

// Next returns a uniformly random mask.
func (g *MaskGenerator) Next() []bool {
	return g.Generate(MaskRandom)
}

// Generate returns a mask following policy.
func (g *MaskGenerator) Generate(policy MaskPolicy) []bool {
	mask := make([]bool, g.waveSize*g.numWaves)
	switch policy {
	case MaskAll:
		for i := range mask {
			mask[i] = true
		}
	case MaskNone:
	case MaskSingle:
		for w := 0; w < g.numWaves; w++ {
			mask[w*g.waveSize+g.rng.IntN(g.waveSize)] = true
		}
	default:
		// One 64-bit draw covers 64 lanes.
		var word uint64
		for i := range mask {
			if i%64 == 0 {
				word = g.rng.Uint64()
			}
			mask[i] = word&1 != 0
			word >>= 1
		}
	}
	return mask
}

// EncodeMask converts a mask to the one-word-per-lane device layout.
func EncodeMask(mask []bool) []uint32 {
	out := make([]uint32, len(mask))
	for i, active := range mask {
		if active {
			out[i] = 1
		}
	}
	return out
}

// ActiveLanes returns the number of active lanes in wave w.
func ActiveLanes(mask []bool, waveSize, w int) int {
	n := 0
	for _, active := range mask[w*waveSize : (w+1)*waveSize] {
		if active {
			n++
		}
	}
	return n
}
