// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wavecheck

import "fmt"

// Slot names a persistent buffer of the ResourcePool.
type Slot uint8

const (
	SlotConstants Slot = iota
	SlotMask
	SlotInput
	SlotWaveEmulated
	SlotWaveNative
	SlotLaneEmulated
	SlotLaneNative

	slotCount
)

// String returns the slot label.
func (s Slot) String() string {
	switch s {
	case SlotConstants:
		return "constants"
	case SlotMask:
		return "mask"
	case SlotInput:
		return "input"
	case SlotWaveEmulated:
		return "wave_emulated"
	case SlotWaveNative:
		return "wave_native"
	case SlotLaneEmulated:
		return "lane_emulated"
	case SlotLaneNative:
		return "lane_native"
	default:
		return fmt.Sprintf("Slot(%d)", uint8(s))
	}
}

// ResourcePool owns the buffers shared by every case of a suite.
//
// Buffers are allocated once, sized to the suite's fixed geometry, and
// reused for every dispatch. Output buffers must be reset before each
// dispatch to the exact length the pending kernel declares, so a kernel
// that skips an index leaves a zero that cannot be a stale value from the
// previous case.
type ResourcePool struct {
	dev  Device
	bufs [slotCount]Buffer
}

// NewResourcePool allocates every pool buffer for cfg. On failure it
// releases whatever it had already allocated.
func NewResourcePool(dev Device, cfg Config) (*ResourcePool, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	lanes := cfg.Lanes()
	waveWords := cfg.NumWaves * MaxWaveComponents

	type bufSpec struct {
		slot  Slot
		words int
		usage BufferUsage
	}
	specs := []bufSpec{
		{SlotConstants, ConstantWords, BufferUsageUniform},
		{SlotMask, lanes, BufferUsageStorage},
		{SlotInput, lanes, BufferUsageStorage},
		{SlotWaveEmulated, waveWords, BufferUsageStorage},
		{SlotWaveNative, waveWords, BufferUsageStorage},
		{SlotLaneEmulated, lanes, BufferUsageStorage},
		{SlotLaneNative, lanes, BufferUsageStorage},
	}

	p := &ResourcePool{dev: dev}
	for _, s := range specs {
		buf, err := dev.NewBuffer(BufferDescriptor{Label: s.slot.String(), Words: s.words, Usage: s.usage})
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("%w: %s (%d words): %v", ErrResourceAllocation, s.slot, s.words, err)
		}
		p.bufs[s.slot] = buf
	}

	Logger().Debug("wavecheck: resource pool allocated",
		"device", dev.Name(),
		"lanes", lanes,
		"wave_words", waveWords)
	return p, nil
}

// Buffer returns the buffer in slot s.
func (p *ResourcePool) Buffer(s Slot) Buffer {
	if s >= slotCount {
		return nil
	}
	return p.bufs[s]
}

// Outputs returns the (emulated, native) buffer pair for a result scope.
func (p *ResourcePool) Outputs(scope Scope) (emulated, native Buffer) {
	if scope == PerWave {
		return p.bufs[SlotWaveEmulated], p.bufs[SlotWaveNative]
	}
	return p.bufs[SlotLaneEmulated], p.bufs[SlotLaneNative]
}

// Reset records a sentinel fill of the first length words of slot s.
func (p *ResourcePool) Reset(cmds *CommandList, s Slot, length int) error {
	buf := p.Buffer(s)
	if buf == nil {
		return fmt.Errorf("wavecheck: reset of unallocated slot %s", s)
	}
	if length < 0 || length > buf.Words() {
		return fmt.Errorf("%w: %s holds %d words, reset of %d", ErrResetOutOfRange, s, buf.Words(), length)
	}
	cmds.Clear(buf, length)
	return nil
}

// Bindings returns the bindings of a dispatch producing results of scope.
func (p *ResourcePool) Bindings(scope Scope) Bindings {
	emulated, native := p.Outputs(scope)
	return Bindings{
		Constants: p.bufs[SlotConstants],
		Mask:      p.bufs[SlotMask],
		Input:     p.bufs[SlotInput],
		Emulated:  emulated,
		Native:    native,
	}
}

// Close destroys every pool buffer. It is safe to call more than once.
func (p *ResourcePool) Close() {
	for i, buf := range p.bufs {
		if buf != nil {
			p.dev.DestroyBuffer(buf)
			p.bufs[i] = nil
		}
	}
}
