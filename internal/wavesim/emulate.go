// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wavesim

import "github.com/gogpu/wavecheck"

// emulate computes the emulated result of one wave. It follows the shader
// emulation: lanes publish value and active flag to shared arrays, then
// walk the arrays in lane order.
func emulate(op wavecheck.Op, w *wave, out []uint32) {
	sharedVal := make([]uint32, w.size)
	sharedActive := make([]bool, w.size)
	for l := 0; l < w.size; l++ {
		sharedVal[l] = w.input[l]
		sharedActive[l] = w.active(l)
	}

	firstActive := func() int {
		for j := 0; j < w.size; j++ {
			if sharedActive[j] {
				return j
			}
		}
		return w.size
	}

	switch op {
	case wavecheck.OpGetLaneCount:
		for l := range out {
			out[l] = uint32(w.size) //nolint:gosec // wave size <= MaxWaveSize
		}

	case wavecheck.OpGetLaneIndex:
		for l := range out {
			out[l] = uint32(l) //nolint:gosec // lane < MaxWaveSize
		}

	case wavecheck.OpIsFirstLane:
		first := firstActive()
		for l := 0; l < w.size; l++ {
			out[l] = boolWord(sharedActive[l] && l == first)
		}

	case wavecheck.OpActiveAnyTrue:
		anyTrue := false
		for j := 0; j < w.size; j++ {
			if sharedActive[j] && w.pred(j) {
				anyTrue = true
			}
		}
		out[0] = boolWord(anyTrue)

	case wavecheck.OpActiveAllTrue:
		all := true
		for j := 0; j < w.size; j++ {
			if sharedActive[j] && !w.pred(j) {
				all = false
			}
		}
		out[0] = boolWord(all)

	case wavecheck.OpActiveBallot:
		for i := range out {
			out[i] = 0
		}
		for j := 0; j < w.size; j++ {
			if sharedActive[j] && w.pred(j) {
				out[j/32] |= 1 << (j % 32)
			}
		}

	case wavecheck.OpReadLaneAt:
		k := int(w.consts[0]) % w.size
		for l := 0; l < w.size; l++ {
			out[l] = sharedVal[k]
		}

	case wavecheck.OpReadLaneFirst:
		first := firstActive()
		for l := 0; l < w.size; l++ {
			if sharedActive[l] {
				out[l] = sharedVal[first]
			} else {
				out[l] = 0
			}
		}

	case wavecheck.OpActiveAllEqual:
		equal := true
		first := firstActive()
		for j := 0; j < w.size; j++ {
			if sharedActive[j] && sharedVal[j] != sharedVal[first] {
				equal = false
			}
		}
		out[0] = boolWord(equal)

	case wavecheck.OpActiveCountBits:
		n := uint32(0)
		for j := 0; j < w.size; j++ {
			if sharedActive[j] && w.pred(j) {
				n++
			}
		}
		out[0] = n

	case wavecheck.OpActiveBitAnd, wavecheck.OpActiveBitOr, wavecheck.OpActiveBitXor,
		wavecheck.OpActiveMax, wavecheck.OpActiveMin, wavecheck.OpActiveProduct, wavecheck.OpActiveSum:
		acc := identity(op)
		for j := 0; j < w.size; j++ {
			if sharedActive[j] {
				acc = combine(op, acc, sharedVal[j])
			}
		}
		out[0] = acc

	case wavecheck.OpPrefixCountBits:
		for l := 0; l < w.size; l++ {
			n := uint32(0)
			for j := 0; j < l; j++ {
				if sharedActive[j] && w.pred(j) {
					n++
				}
			}
			out[l] = n * boolWord(sharedActive[l])
		}

	case wavecheck.OpPrefixSum, wavecheck.OpPrefixProduct:
		for l := 0; l < w.size; l++ {
			if !sharedActive[l] {
				out[l] = 0
				continue
			}
			acc := identity(op)
			for j := 0; j < l; j++ {
				if sharedActive[j] {
					acc = combine(op, acc, sharedVal[j])
				}
			}
			out[l] = acc
		}

	case wavecheck.OpIntegration:
		sum, product, n := uint32(0), uint32(1), 0
		for j := 0; j < w.size; j++ {
			if sharedActive[j] {
				sum += sharedVal[j]
				product *= sharedVal[j]
				n++
			}
		}
		t := mean(sum, n)
		out[0], out[1] = sum, product
		for i := 2; i < len(out); i++ {
			out[i] = 0
		}
		for j := 0; j < w.size; j++ {
			if sharedActive[j] && int32(sharedVal[j]) < t { //nolint:gosec // two's complement storage
				out[2+j/32] |= 1 << (j % 32)
			}
		}
	}
}
