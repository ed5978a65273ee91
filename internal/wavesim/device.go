// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wavesim

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/wavecheck"
)

// Name is the device name reported by the reference device.
const Name = "reference"

// Errors returned by the reference device.
var (
	// ErrOutOfMemory is returned when an allocation exceeds the memory limit.
	ErrOutOfMemory = errors.New("wavesim: out of device memory")

	// ErrCompile is returned for a kernel configured to fail its build.
	ErrCompile = errors.New("wavesim: kernel compilation failed")

	// ErrForeignResource is returned when a buffer or kernel was not created
	// by this device.
	ErrForeignResource = errors.New("wavesim: resource not owned by device")

	// ErrClosed is returned when a closed device is used.
	ErrClosed = errors.New("wavesim: device closed")
)

// Fault corrupts one word of an operation's emulated result after every
// dispatch of that operation.
type Fault struct {
	Op    wavecheck.Op
	Index int
	Xor   uint32
}

// Option configures a Device.
type Option func(*Device)

// WithNativeWaveSize makes the native path report n lanes per wave from
// GetLaneCount, as a device with a different subgroup size would.
func WithNativeWaveSize(n int) Option {
	return func(d *Device) {
		d.nativeWaveSize = n
	}
}

// WithMemoryLimit caps the total number of words the device can allocate.
func WithMemoryLimit(words int) Option {
	return func(d *Device) {
		d.memLimit = words
	}
}

// WithBrokenKernel makes NewKernel fail for op.
func WithBrokenKernel(op wavecheck.Op) Option {
	return func(d *Device) {
		d.broken[op] = true
	}
}

// WithWorkers runs the waves of a dispatch on n goroutines. Values below 2
// keep execution on the submitting goroutine.
func WithWorkers(n int) Option {
	return func(d *Device) {
		d.workers = n
	}
}

// WithFault installs f.
func WithFault(f Fault) Option {
	return func(d *Device) {
		d.faults = append(d.faults, f)
	}
}

// Device is a CPU implementation of wavecheck.Device.
// It is not safe for concurrent use.
type Device struct {
	nativeWaveSize int
	memLimit       int
	allocated      int
	broken         map[wavecheck.Op]bool
	faults         []Fault
	workers        int
	pool           *workgroupPool

	buffers map[*buffer]struct{}
	kernels map[*kernel]struct{}
	closed  bool

	dispatches int
}

var _ wavecheck.Device = (*Device)(nil)

// New returns a reference device.
func New(opts ...Option) *Device {
	d := &Device{
		broken:  make(map[wavecheck.Op]bool),
		buffers: make(map[*buffer]struct{}),
		kernels: make(map[*kernel]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.workers > 1 {
		d.pool = newWorkgroupPool(d.workers)
	}
	return d
}

// Name returns "reference".
func (d *Device) Name() string { return Name }

// Dispatches returns the number of waves executed so far.
func (d *Device) Dispatches() int { return d.dispatches }

// LiveBuffers returns the number of buffers not yet destroyed.
func (d *Device) LiveBuffers() int { return len(d.buffers) }

// LiveKernels returns the number of kernels not yet destroyed.
func (d *Device) LiveKernels() int { return len(d.kernels) }

type buffer struct {
	label string
	usage wavecheck.BufferUsage
	data  []uint32
}

func (b *buffer) Label() string { return b.label }
func (b *buffer) Words() int    { return len(b.data) }

type kernel struct {
	src wavecheck.KernelSource
}

func (k *kernel) Op() wavecheck.Op { return k.src.Op }

// NewBuffer allocates a zeroed buffer.
func (d *Device) NewBuffer(desc wavecheck.BufferDescriptor) (wavecheck.Buffer, error) {
	if d.closed {
		return nil, ErrClosed
	}
	if desc.Words <= 0 {
		return nil, fmt.Errorf("wavesim: buffer %q: invalid size %d", desc.Label, desc.Words)
	}
	if d.memLimit > 0 && d.allocated+desc.Words > d.memLimit {
		return nil, fmt.Errorf("%w: %q needs %d words, %d of %d in use",
			ErrOutOfMemory, desc.Label, desc.Words, d.allocated, d.memLimit)
	}
	b := &buffer{label: desc.Label, usage: desc.Usage, data: make([]uint32, desc.Words)}
	d.buffers[b] = struct{}{}
	d.allocated += desc.Words
	return b, nil
}

// DestroyBuffer releases buf.
func (d *Device) DestroyBuffer(buf wavecheck.Buffer) {
	b, ok := buf.(*buffer)
	if !ok {
		return
	}
	if _, live := d.buffers[b]; live {
		delete(d.buffers, b)
		d.allocated -= len(b.data)
	}
}

// NewKernel validates src and returns a kernel bound to its operation.
func (d *Device) NewKernel(src wavecheck.KernelSource) (wavecheck.Kernel, error) {
	if d.closed {
		return nil, ErrClosed
	}
	if !src.Op.Valid() || uint32(src.Op) != src.Selector {
		return nil, fmt.Errorf("%w: %s: selector %d", ErrCompile, src.Label, src.Selector)
	}
	if d.broken[src.Op] {
		return nil, fmt.Errorf("%w: %s", ErrCompile, src.Label)
	}
	if src.WaveSize < 1 || src.WaveSize > wavecheck.MaxWaveSize || src.WaveSize&(src.WaveSize-1) != 0 {
		return nil, fmt.Errorf("%w: %s: wave size %d", ErrCompile, src.Label, src.WaveSize)
	}
	k := &kernel{src: src}
	d.kernels[k] = struct{}{}
	return k, nil
}

// DestroyKernel releases k.
func (d *Device) DestroyKernel(k wavecheck.Kernel) {
	if kk, ok := k.(*kernel); ok {
		delete(d.kernels, kk)
	}
}

func (d *Device) lookup(buf wavecheck.Buffer) (*buffer, error) {
	if d.closed {
		return nil, ErrClosed
	}
	b, ok := buf.(*buffer)
	if !ok {
		return nil, ErrForeignResource
	}
	if _, live := d.buffers[b]; !live {
		return nil, fmt.Errorf("%w: buffer %q", ErrForeignResource, b.label)
	}
	return b, nil
}

// Write copies data to the start of buf.
func (d *Device) Write(buf wavecheck.Buffer, data []uint32) error {
	b, err := d.lookup(buf)
	if err != nil {
		return err
	}
	if len(data) > len(b.data) {
		return fmt.Errorf("wavesim: write of %d words to %q (%d words)", len(data), b.label, len(b.data))
	}
	copy(b.data, data)
	return nil
}

// Read copies the first len(dst) words of buf into dst.
func (d *Device) Read(buf wavecheck.Buffer, dst []uint32) error {
	b, err := d.lookup(buf)
	if err != nil {
		return err
	}
	if len(dst) > len(b.data) {
		return fmt.Errorf("wavesim: read of %d words from %q (%d words)", len(dst), b.label, len(b.data))
	}
	copy(dst, b.data)
	return nil
}

// Submit executes cmds in order. It returns after the last command.
func (d *Device) Submit(ctx context.Context, cmds *wavecheck.CommandList) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.closed {
		return ErrClosed
	}
	for i, cmd := range cmds.Commands() {
		var err error
		switch cmd.Kind {
		case wavecheck.CommandClear:
			err = d.clear(cmd.Buffer, cmd.Words)
		case wavecheck.CommandDispatch:
			err = d.dispatch(cmd)
		default:
			err = fmt.Errorf("wavesim: unknown command kind %d", cmd.Kind)
		}
		if err != nil {
			return fmt.Errorf("wavesim: command %d: %w", i, err)
		}
	}
	return nil
}

func (d *Device) clear(buf wavecheck.Buffer, words int) error {
	b, err := d.lookup(buf)
	if err != nil {
		return err
	}
	if words > len(b.data) {
		return fmt.Errorf("wavesim: clear of %d words on %q (%d words)", words, b.label, len(b.data))
	}
	clear(b.data[:words])
	return nil
}

// Close releases every resource. It is safe to call more than once.
func (d *Device) Close() {
	if d.closed {
		return
	}
	d.closed = true
	if d.pool != nil {
		d.pool.close()
	}
	clear(d.buffers)
	clear(d.kernels)
	d.allocated = 0
}
