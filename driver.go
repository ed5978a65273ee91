// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wavecheck

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// OutputPair holds the two results of one dispatch. Both slices have the
// length declared by the kernel descriptor.
type OutputPair struct {
	Emulated []uint32
	Native   []uint32
}

// Invocation is one executed dispatch together with the host-side data that
// produced it.
type Invocation struct {
	Op        Op
	Mask      []bool
	Input     []uint32 // nil when the kernel takes no input
	Constants []uint32 // always ConstantWords long
	OutputPair
}

// Driver runs single test-case invocations against the pool and catalog.
//
// One Run records exactly one submission and blocks until its results are
// downloaded, so pool buffers are never shared by two dispatches in flight.
type Driver struct {
	dev     Device
	pool    *ResourcePool
	catalog *KernelCatalog
	cfg     Config
	rng     *rand.Rand
	masks   *MaskGenerator
	metrics *Metrics
	cmds    *CommandList
}

// NewDriver returns a driver drawing masks and inputs from rng.
func NewDriver(dev Device, pool *ResourcePool, catalog *KernelCatalog, cfg Config, rng *rand.Rand) *Driver {
	return &Driver{
		dev:     dev,
		pool:    pool,
		catalog: catalog,
		cfg:     cfg,
		rng:     rng,
		masks:   NewMaskGenerator(cfg, rng),
		cmds:    NewCommandList(),
	}
}

// SetMetrics attaches collectors observed on every dispatch. nil disables them.
func (d *Driver) SetMetrics(m *Metrics) {
	d.metrics = m
}

// Run executes one invocation of c:
//
//  1. generate the execution mask and upload it
//  2. generate and upload the input when the kernel reads one
//  3. reset both output buffers to the descriptor's shape
//  4. dispatch the kernel once
//  5. submit and wait for completion
//  6. download both outputs
func (d *Driver) Run(ctx context.Context, c Case) (*Invocation, error) {
	k, desc, err := d.catalog.Kernel(c.Op)
	if err != nil {
		return nil, err
	}
	inv := &Invocation{Op: c.Op}

	inv.Mask = d.masks.Generate(c.Mask)
	if err := d.dev.Write(d.pool.Buffer(SlotMask), EncodeMask(inv.Mask)); err != nil {
		return nil, fmt.Errorf("wavecheck: upload mask: %w", err)
	}

	if desc.NeedsInput {
		gen := c.Input
		if gen == nil {
			gen = UniformBits()
		}
		inv.Input = gen(d.rng, d.cfg.Lanes())
		if len(inv.Input) != d.cfg.Lanes() {
			return nil, fmt.Errorf("wavecheck: %s input has %d lanes, want %d", c.Name, len(inv.Input), d.cfg.Lanes())
		}
		if err := d.dev.Write(d.pool.Buffer(SlotInput), inv.Input); err != nil {
			return nil, fmt.Errorf("wavecheck: upload input: %w", err)
		}
	}

	// Constants are rewritten on every dispatch so a kernel never sees the
	// previous case's parameters.
	inv.Constants = make([]uint32, ConstantWords)
	if desc.Constants > 0 && c.Constants != nil {
		copy(inv.Constants, c.Constants(d.rng, d.cfg))
	}
	if err := d.dev.Write(d.pool.Buffer(SlotConstants), inv.Constants); err != nil {
		return nil, fmt.Errorf("wavecheck: upload constants: %w", err)
	}

	n := desc.OutputLen(d.cfg)
	emuSlot, natSlot := outputSlots(desc.Shape.Scope)
	d.cmds.Reset()
	if err := d.pool.Reset(d.cmds, emuSlot, n); err != nil {
		return nil, err
	}
	if err := d.pool.Reset(d.cmds, natSlot, n); err != nil {
		return nil, err
	}
	d.cmds.Dispatch(k, d.pool.Bindings(desc.Shape.Scope), d.cfg.NumWaves)

	start := time.Now()
	if err := d.dev.Submit(ctx, d.cmds); err != nil {
		return nil, fmt.Errorf("wavecheck: submit %s: %w", c.Op, err)
	}
	d.metrics.observeDispatch(c.Op, time.Since(start))

	inv.Emulated = make([]uint32, n)
	inv.Native = make([]uint32, n)
	if err := d.dev.Read(d.pool.Buffer(emuSlot), inv.Emulated); err != nil {
		return nil, fmt.Errorf("wavecheck: download emulated: %w", err)
	}
	if err := d.dev.Read(d.pool.Buffer(natSlot), inv.Native); err != nil {
		return nil, fmt.Errorf("wavecheck: download native: %w", err)
	}
	return inv, nil
}

func outputSlots(scope Scope) (emulated, native Slot) {
	if scope == PerWave {
		return SlotWaveEmulated, SlotWaveNative
	}
	return SlotLaneEmulated, SlotLaneNative
}
