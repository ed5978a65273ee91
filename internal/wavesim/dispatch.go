// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wavesim

import (
	"fmt"

	"github.com/gogpu/wavecheck"
)

// wave is the view of one wave's bound data during a dispatch.
type wave struct {
	size   int
	mask   []uint32
	input  []uint32
	consts []uint32
}

func (w *wave) active(l int) bool { return w.mask[l] != 0 }

// pred is the vote predicate: the lane's value is below the threshold in
// constant word 0.
func (w *wave) pred(l int) bool {
	return int32(w.input[l]) < int32(w.consts[0]) //nolint:gosec // two's complement storage
}

func (d *Device) dispatch(cmd wavecheck.Command) error {
	k, ok := cmd.Kernel.(*kernel)
	if !ok {
		return ErrForeignResource
	}
	if _, live := d.kernels[k]; !live {
		return fmt.Errorf("%w: kernel %q", ErrForeignResource, k.src.Label)
	}
	desc, err := wavecheck.Describe(k.src.Op)
	if err != nil {
		return err
	}

	b := cmd.Bindings
	consts, err := d.lookup(b.Constants)
	if err != nil {
		return fmt.Errorf("binding 0: %w", err)
	}
	mask, err := d.lookup(b.Mask)
	if err != nil {
		return fmt.Errorf("binding 1: %w", err)
	}
	input, err := d.lookup(b.Input)
	if err != nil {
		return fmt.Errorf("binding 2: %w", err)
	}
	emu, err := d.lookup(b.Emulated)
	if err != nil {
		return fmt.Errorf("binding 3: %w", err)
	}
	nat, err := d.lookup(b.Native)
	if err != nil {
		return fmt.Errorf("binding 4: %w", err)
	}
	if len(consts.data) < wavecheck.ConstantWords {
		return fmt.Errorf("wavesim: constants buffer holds %d words", len(consts.data))
	}

	ws := k.src.WaveSize
	stride := desc.Shape.Stride(ws)
	nativeSize := ws
	if d.nativeWaveSize > 0 {
		nativeSize = d.nativeWaveSize
	}

	for g := 0; g < cmd.Groups; g++ {
		if hi := (g + 1) * ws; hi > len(mask.data) || hi > len(input.data) {
			return fmt.Errorf("wavesim: wave %d reads past lane %d", g, hi)
		}
		if out := (g + 1) * stride; out > len(emu.data) || out > len(nat.data) {
			return fmt.Errorf("wavesim: wave %d writes past word %d", g, out)
		}
	}

	run := func(g int) {
		lo, hi := g*ws, (g+1)*ws
		wv := &wave{
			size:   ws,
			mask:   mask.data[lo:hi],
			input:  input.data[lo:hi],
			consts: consts.data,
		}
		out := emu.data[g*stride : (g+1)*stride]
		emulate(k.src.Op, wv, out)
		native(k.src.Op, wv, nat.data[g*stride:(g+1)*stride], nativeSize)
	}
	if d.pool != nil {
		d.pool.run(cmd.Groups, run)
	} else {
		for g := 0; g < cmd.Groups; g++ {
			run(g)
		}
	}
	d.dispatches += cmd.Groups

	for _, f := range d.faults {
		if f.Op == k.src.Op && f.Index >= 0 && f.Index < len(emu.data) {
			emu.data[f.Index] ^= f.Xor
		}
	}
	return nil
}

// combine applies the binary operator of a reduction or scan.
func combine(op wavecheck.Op, a, b uint32) uint32 {
	switch op {
	case wavecheck.OpActiveBitAnd:
		return a & b
	case wavecheck.OpActiveBitOr:
		return a | b
	case wavecheck.OpActiveBitXor:
		return a ^ b
	case wavecheck.OpActiveMax:
		return uint32(max(int32(a), int32(b))) //nolint:gosec // two's complement storage
	case wavecheck.OpActiveMin:
		return uint32(min(int32(a), int32(b))) //nolint:gosec // two's complement storage
	case wavecheck.OpActiveProduct, wavecheck.OpPrefixProduct:
		return a * b
	default:
		return a + b
	}
}

// identity returns the neutral element of op's operator.
func identity(op wavecheck.Op) uint32 {
	switch op {
	case wavecheck.OpPrefixSum, wavecheck.OpPrefixCountBits:
		return 0
	case wavecheck.OpPrefixProduct:
		return 1
	}
	if id := wavecheck.Identity(op); len(id) > 0 {
		return id[0]
	}
	return 0
}

func boolWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// mean is the Integration threshold: the signed sum divided by the active
// lane count, truncated toward zero.
func mean(sum uint32, n int) int32 {
	return int32(sum) / int32(max(n, 1)) //nolint:gosec // n <= MaxWaveSize
}
