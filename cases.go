// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wavecheck

import (
	"fmt"
	"math/bits"
)

// Vote threshold used by the ballot and count cases: lanes whose input is
// below it vote true.
const defaultThreshold = 500

// AllEqualValue is the constant input of the uniform ActiveAllEqual case.
const AllEqualValue = 12425

// DefaultCases returns the full registry: one equivalence case per
// operation in selector order, followed by the property cases.
func DefaultCases() []Case {
	cases := EquivalenceCases()
	return append(cases, PropertyCases()...)
}

// EquivalenceCases returns one randomized emulated-vs-native case per
// operation.
func EquivalenceCases() []Case {
	return []Case{
		// query
		{Name: "GetLaneCount", Op: OpGetLaneCount},
		{Name: "GetLaneIndex", Op: OpGetLaneIndex},
		{Name: "IsFirstLane", Op: OpIsFirstLane},

		// vote
		{Name: "ActiveAnyTrue", Op: OpActiveAnyTrue, Input: UniformInt(0, 1000), Constants: RandomThreshold(0, 1000)},
		{Name: "ActiveAllTrue", Op: OpActiveAllTrue, Input: UniformInt(0, 1000), Constants: RandomThreshold(900, 1001)},
		{Name: "ActiveBallot", Op: OpActiveBallot, Input: UniformInt(0, 1000), Constants: FixedConstants(defaultThreshold), Check: checkBallot},

		// broadcast
		{Name: "ReadLaneAt", Op: OpReadLaneAt, Kind: Float32, Input: UniformFloat(-1000, 1000), Constants: RandomLane(), Check: checkReadLaneAt},
		{Name: "ReadLaneFirst", Op: OpReadLaneFirst, Kind: Float32, Input: UniformFloat(-1000, 1000)},

		// reduction
		{Name: "ActiveAllEqual", Op: OpActiveAllEqual, Input: UniformInt(0, 2)},
		{Name: "ActiveBitAnd", Op: OpActiveBitAnd, Input: UniformBits()},
		{Name: "ActiveBitOr", Op: OpActiveBitOr, Input: UniformBits()},
		{Name: "ActiveBitXor", Op: OpActiveBitXor, Input: UniformBits()},
		{Name: "ActiveCountBits", Op: OpActiveCountBits, Input: UniformInt(0, 1000), Constants: FixedConstants(defaultThreshold)},
		{Name: "ActiveMax", Op: OpActiveMax, Input: UniformInt(-100000, 100000)},
		{Name: "ActiveMin", Op: OpActiveMin, Input: UniformInt(-100000, 100000)},
		{Name: "ActiveProduct", Op: OpActiveProduct, Input: UniformInt(1, 8)},
		{Name: "ActiveSum", Op: OpActiveSum, Input: UniformInt(2, 510), Check: checkSum},

		// scan & prefix
		{Name: "PrefixCountBits", Op: OpPrefixCountBits, Input: UniformInt(0, 1000), Constants: FixedConstants(defaultThreshold)},
		{Name: "PrefixSum", Op: OpPrefixSum, Input: UniformInt(2, 510)},
		{Name: "PrefixProduct", Op: OpPrefixProduct, Input: UniformInt(1, 8)},

		// integration
		{Name: "Integration", Op: OpIntegration, Input: UniformInt(2, 510), Check: checkIntegration},
	}
}

// PropertyCases returns cases that check a known value or invariant in
// addition to emulated/native agreement.
func PropertyCases() []Case {
	return []Case{
		{Name: "GetLaneCount/Uniform", Op: OpGetLaneCount, Check: checkLaneCount},
		{Name: "ActiveAllTrue/NoActiveLanes", Op: OpActiveAllTrue, Mask: MaskNone,
			Input: UniformInt(0, 1000), Constants: FixedConstants(defaultThreshold), Check: checkIdentity},
		{Name: "ActiveAnyTrue/NoActiveLanes", Op: OpActiveAnyTrue, Mask: MaskNone,
			Input: UniformInt(0, 1000), Constants: FixedConstants(defaultThreshold), Check: checkIdentity},
		{Name: "ActiveAllEqual/UniformInput", Op: OpActiveAllEqual,
			Input: ConstantInt(AllEqualValue), Check: checkAllEqualTrue},
		{Name: "ActiveBitAnd/Identity", Op: OpActiveBitAnd, Mask: MaskNone, Input: UniformBits(), Check: checkIdentity},
		{Name: "ActiveBitOr/Identity", Op: OpActiveBitOr, Mask: MaskNone, Input: UniformBits(), Check: checkIdentity},
		{Name: "ActiveBitXor/Identity", Op: OpActiveBitXor, Mask: MaskNone, Input: UniformBits(), Check: checkIdentity},
		{Name: "ActiveSum/Identity", Op: OpActiveSum, Mask: MaskNone, Input: UniformInt(2, 510), Check: checkIdentity},
		{Name: "ActiveProduct/Identity", Op: OpActiveProduct, Mask: MaskNone, Input: UniformInt(1, 8), Check: checkIdentity},
		{Name: "ActiveMax/SingleLane", Op: OpActiveMax, Mask: MaskSingle, Input: UniformInt(-100000, 100000)},
		{Name: "IsFirstLane/FullWave", Op: OpIsFirstLane, Mask: MaskAll},
		{Name: "PrefixCountBits/Monotonic", Op: OpPrefixCountBits,
			Input: UniformInt(0, 1000), Constants: FixedConstants(defaultThreshold), Check: checkPrefixMonotonic},
		{Name: "PrefixSum/FullWave", Op: OpPrefixSum, Mask: MaskAll, Input: UniformInt(2, 510)},
	}
}

// waveValues returns the words of wave w of a per-wave result.
func waveValues(out []uint32, components, w int) []uint32 {
	return out[w*components : (w+1)*components]
}

func checkLaneCount(cfg Config, inv *Invocation) error {
	for i := range inv.Native {
		if int(inv.Native[i]) != cfg.WaveSize || int(inv.Emulated[i]) != cfg.WaveSize {
			return fmt.Errorf("lane %d: lane count emulated=%d native=%d, want %d",
				i, inv.Emulated[i], inv.Native[i], cfg.WaveSize)
		}
	}
	return nil
}

// checkIdentity requires every wave to hold the operation's identity. It is
// used with MaskNone.
func checkIdentity(cfg Config, inv *Invocation) error {
	want := Identity(inv.Op)
	for w := 0; w < cfg.NumWaves; w++ {
		got := waveValues(inv.Native, len(want), w)
		if !Equal(got, want) {
			return fmt.Errorf("wave %d: %s over no active lanes = %v, want %v", w, inv.Op, got, want)
		}
	}
	return nil
}

func checkAllEqualTrue(cfg Config, inv *Invocation) error {
	for w := 0; w < cfg.NumWaves; w++ {
		if inv.Native[w] != 1 {
			return fmt.Errorf("wave %d: uniform input %d not reported equal (%d active lanes)",
				w, AllEqualValue, ActiveLanes(inv.Mask, cfg.WaveSize, w))
		}
	}
	return nil
}

func checkPrefixMonotonic(cfg Config, inv *Invocation) error {
	for w := 0; w < cfg.NumWaves; w++ {
		prev := uint32(0)
		for l := 0; l < cfg.WaveSize; l++ {
			i := w*cfg.WaveSize + l
			if !inv.Mask[i] {
				continue
			}
			if inv.Native[i] < prev {
				return fmt.Errorf("wave %d lane %d: prefix count %d after %d", w, l, inv.Native[i], prev)
			}
			prev = inv.Native[i]
		}
	}
	return nil
}

func checkReadLaneAt(cfg Config, inv *Invocation) error {
	k := int(inv.Constants[0])
	for i, v := range inv.Native {
		src := (i/cfg.WaveSize)*cfg.WaveSize + k
		if v != inv.Input[src] {
			return fmt.Errorf("lane %d: read lane %d = %#x, want %#x", i, k, v, inv.Input[src])
		}
	}
	return nil
}

// hostSum is the wrapping int32 sum over the active lanes of wave w.
func hostSum(cfg Config, inv *Invocation, w int) int32 {
	var sum int32
	for l := 0; l < cfg.WaveSize; l++ {
		if i := w*cfg.WaveSize + l; inv.Mask[i] {
			sum += int32(inv.Input[i]) //nolint:gosec // two's complement storage
		}
	}
	return sum
}

// hostBallot sets bit l when lane l of wave w is active and pred holds.
func hostBallot(cfg Config, inv *Invocation, w int, pred func(int32) bool) [4]uint32 {
	var b [4]uint32
	for l := 0; l < cfg.WaveSize; l++ {
		i := w*cfg.WaveSize + l
		if inv.Mask[i] && pred(int32(inv.Input[i])) { //nolint:gosec // two's complement storage
			b[l/32] |= 1 << (l % 32)
		}
	}
	return b
}

func checkSum(cfg Config, inv *Invocation) error {
	for w := 0; w < cfg.NumWaves; w++ {
		if want := hostSum(cfg, inv, w); int32(inv.Native[w]) != want { //nolint:gosec // two's complement storage
			return fmt.Errorf("wave %d: sum %d, host computed %d", w, int32(inv.Native[w]), want) //nolint:gosec // two's complement storage
		}
	}
	return nil
}

func checkBallot(cfg Config, inv *Invocation) error {
	threshold := int32(inv.Constants[0]) //nolint:gosec // two's complement storage
	for w := 0; w < cfg.NumWaves; w++ {
		want := hostBallot(cfg, inv, w, func(v int32) bool { return v < threshold })
		if got := waveValues(inv.Native, 4, w); !Equal(got, want[:]) {
			return fmt.Errorf("wave %d: ballot %08x, host computed %08x", w, got, want)
		}
	}
	return nil
}

func checkIntegration(cfg Config, inv *Invocation) error {
	for w := 0; w < cfg.NumWaves; w++ {
		got := waveValues(inv.Native, MaxWaveComponents, w)
		n := ActiveLanes(inv.Mask, cfg.WaveSize, w)
		if n == 0 {
			if want := Identity(OpIntegration); !Equal(got, want) {
				return fmt.Errorf("wave %d: empty wave produced %v, want %v", w, got, want)
			}
			continue
		}
		sum := hostSum(cfg, inv, w)
		mean := sum / int32(n) //nolint:gosec // n <= MaxWaveSize
		ballot := hostBallot(cfg, inv, w, func(v int32) bool { return v < mean })
		if int32(got[0]) != sum || !Equal(got[2:], ballot[:]) { //nolint:gosec // two's complement storage
			return fmt.Errorf("wave %d: sum %d ballot %08x, host computed sum %d ballot %08x",
				w, int32(got[0]), got[2:], sum, ballot) //nolint:gosec // two's complement storage
		}
		if pop := bits.OnesCount32(got[2]) + bits.OnesCount32(got[3]) + bits.OnesCount32(got[4]) + bits.OnesCount32(got[5]); pop > n {
			return fmt.Errorf("wave %d: ballot has %d bits for %d active lanes", w, pop, n)
		}
	}
	return nil
}
