// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wavecheck

import "fmt"

// KernelCatalog holds one compiled kernel per operation.
//
// It is built once per suite and owned by it; nothing is compiled at
// import time. Every kernel writes both the emulated and the native result
// of its operation in a single dispatch.
type KernelCatalog struct {
	dev     Device
	kernels [OpCount]Kernel
}

// NewKernelCatalog compiles a kernel for each op in ops against cfg.
// A nil ops compiles every registered operation. A build failure releases
// the kernels compiled so far and returns an error wrapping ErrKernelBuild.
func NewKernelCatalog(dev Device, cfg Config, ops []Op) (*KernelCatalog, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	if ops == nil {
		ops = make([]Op, 0, OpCount)
		for op := Op(0); op < OpCount; op++ {
			ops = append(ops, op)
		}
	}

	c := &KernelCatalog{dev: dev}
	for _, op := range ops {
		desc, err := Describe(op)
		if err != nil {
			c.Close()
			return nil, err
		}
		if c.kernels[op] != nil {
			continue
		}
		k, err := dev.NewKernel(KernelSource{
			Op:       op,
			Selector: desc.Selector(),
			WaveSize: cfg.WaveSize,
			NumWaves: cfg.NumWaves,
			Label:    "wave_" + op.String(),
		})
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("%w: %s: %v", ErrKernelBuild, op, err)
		}
		c.kernels[op] = k
		Logger().Debug("wavecheck: kernel compiled",
			"op", op.String(),
			"selector", desc.Selector(),
			"shape", desc.Shape.Scope.String(),
			"components", desc.Shape.Components)
	}
	return c, nil
}

// Kernel returns the kernel and descriptor bound to op.
func (c *KernelCatalog) Kernel(op Op) (Kernel, Descriptor, error) {
	desc, err := Describe(op)
	if err != nil {
		return nil, Descriptor{}, err
	}
	k := c.kernels[op]
	if k == nil {
		return nil, desc, fmt.Errorf("%w: %s", ErrKernelNotFound, op)
	}
	return k, desc, nil
}

// Len returns the number of compiled kernels.
func (c *KernelCatalog) Len() int {
	n := 0
	for _, k := range c.kernels {
		if k != nil {
			n++
		}
	}
	return n
}

// Close destroys every kernel.
func (c *KernelCatalog) Close() {
	for i, k := range c.kernels {
		if k != nil {
			c.dev.DestroyKernel(k)
			c.kernels[i] = nil
		}
	}
}
