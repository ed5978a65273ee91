// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wavesim

import (
	"math/bits"

	"github.com/gogpu/wavecheck"
)

// ballot is a 128-lane bit set, one bit per lane.
type ballot [4]uint32

func (b *ballot) set(l int) { b[l/32] |= 1 << (l % 32) }

func (b ballot) has(l int) bool { return b[l/32]&(1<<(l%32)) != 0 }

func (b ballot) empty() bool { return b == ballot{} }

func (b ballot) and(o ballot) ballot {
	return ballot{b[0] & o[0], b[1] & o[1], b[2] & o[2], b[3] & o[3]}
}

func (b ballot) count() int {
	return bits.OnesCount32(b[0]) + bits.OnesCount32(b[1]) + bits.OnesCount32(b[2]) + bits.OnesCount32(b[3])
}

// lowest returns the index of the lowest set bit, or -1.
func (b ballot) lowest() int {
	for i, word := range b {
		if word != 0 {
			return i*32 + bits.TrailingZeros32(word)
		}
	}
	return -1
}

// below returns the bits of lanes with index lower than l.
func (b ballot) below(l int) ballot {
	var lt ballot
	for i := range lt {
		switch {
		case l >= (i+1)*32:
			lt[i] = ^uint32(0)
		case l > i*32:
			lt[i] = 1<<(l-i*32) - 1
		}
	}
	return b.and(lt)
}

// ballotOf returns the lanes of w that are active and satisfy f.
func ballotOf(w *wave, f func(l int) bool) ballot {
	var b ballot
	for l := 0; l < w.size; l++ {
		if w.active(l) && f(l) {
			b.set(l)
		}
	}
	return b
}

// treeReduce folds the active lanes with a butterfly of log2(size) steps.
// Inactive lanes contribute the identity.
func treeReduce(op wavecheck.Op, w *wave, active ballot) uint32 {
	v := make([]uint32, w.size)
	for l := range v {
		v[l] = identity(op)
		if active.has(l) {
			v[l] = w.input[l]
		}
	}
	for off := 1; off < w.size; off <<= 1 {
		next := make([]uint32, w.size)
		for l := range v {
			next[l] = combine(op, v[l], v[l^off])
		}
		v = next
	}
	return v[0]
}

// exclusiveScan is a Hillis-Steele scan over lanes, shifted by one lane.
func exclusiveScan(op wavecheck.Op, w *wave, active ballot) []uint32 {
	v := make([]uint32, w.size)
	for l := range v {
		v[l] = identity(op)
		if active.has(l) {
			v[l] = w.input[l]
		}
	}
	for off := 1; off < w.size; off <<= 1 {
		next := make([]uint32, w.size)
		for l := range v {
			next[l] = v[l]
			if l >= off {
				next[l] = combine(op, v[l-off], v[l])
			}
		}
		v = next
	}
	ex := make([]uint32, w.size)
	ex[0] = identity(op)
	copy(ex[1:], v[:w.size-1])
	return ex
}

// native computes the native result of one wave. Every collective is
// derived from the ballot of active lanes.
func native(op wavecheck.Op, w *wave, out []uint32, laneCount int) {
	active := ballotOf(w, func(int) bool { return true })
	first := active.lowest()

	switch op {
	case wavecheck.OpGetLaneCount:
		for l := range out {
			out[l] = uint32(laneCount) //nolint:gosec // lane count <= MaxWaveSize
		}

	case wavecheck.OpGetLaneIndex:
		for l := range out {
			out[l] = uint32(l) //nolint:gosec // lane < MaxWaveSize
		}

	case wavecheck.OpIsFirstLane:
		for l := range out {
			out[l] = boolWord(l == first)
		}

	case wavecheck.OpActiveAnyTrue:
		out[0] = boolWord(!ballotOf(w, w.pred).empty())

	case wavecheck.OpActiveAllTrue:
		out[0] = boolWord(ballotOf(w, w.pred) == active)

	case wavecheck.OpActiveBallot:
		b := ballotOf(w, w.pred)
		copy(out, b[:])

	case wavecheck.OpReadLaneAt:
		src := w.input[int(w.consts[0])%w.size]
		for l := range out {
			out[l] = src
		}

	case wavecheck.OpReadLaneFirst:
		for l := range out {
			out[l] = 0
			if active.has(l) {
				out[l] = w.input[first]
			}
		}

	case wavecheck.OpActiveAllEqual:
		if first < 0 {
			out[0] = 1
			break
		}
		v := w.input[first]
		out[0] = boolWord(ballotOf(w, func(l int) bool { return w.input[l] == v }) == active)

	case wavecheck.OpActiveCountBits:
		out[0] = uint32(ballotOf(w, w.pred).count()) //nolint:gosec // count <= MaxWaveSize

	case wavecheck.OpActiveBitAnd, wavecheck.OpActiveBitOr, wavecheck.OpActiveBitXor,
		wavecheck.OpActiveMax, wavecheck.OpActiveMin, wavecheck.OpActiveProduct, wavecheck.OpActiveSum:
		out[0] = treeReduce(op, w, active)

	case wavecheck.OpPrefixCountBits:
		votes := ballotOf(w, w.pred)
		for l := range out {
			out[l] = 0
			if active.has(l) {
				out[l] = uint32(votes.below(l).count()) //nolint:gosec // count <= MaxWaveSize
			}
		}

	case wavecheck.OpPrefixSum, wavecheck.OpPrefixProduct:
		scan := exclusiveScan(op, w, active)
		for l := range out {
			out[l] = 0
			if active.has(l) {
				out[l] = scan[l]
			}
		}

	case wavecheck.OpIntegration:
		sum := treeReduce(wavecheck.OpActiveSum, w, active)
		product := treeReduce(wavecheck.OpActiveProduct, w, active)
		t := mean(sum, active.count())
		b := ballotOf(w, func(l int) bool { return int32(w.input[l]) < t }) //nolint:gosec // two's complement storage
		out[0], out[1] = sum, product
		copy(out[2:], b[:])
	}
}
