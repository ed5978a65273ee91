// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wavecheck

import "context"

// Device is the command-submission and resource runtime the harness drives.
//
// Implementations live in internal/wavesim (a CPU device that executes
// kernels wave by wave in lockstep) and internal/gpu (gogpu/wgpu HAL). The
// harness never issues two submissions concurrently; implementations need
// no internal synchronization beyond what their own runtime requires.
type Device interface {
	// Name returns the device identifier used in reports.
	Name() string

	// NewBuffer allocates a device buffer of desc.Words 32-bit words.
	NewBuffer(desc BufferDescriptor) (Buffer, error)

	// DestroyBuffer releases a buffer created by NewBuffer.
	DestroyBuffer(buf Buffer)

	// NewKernel compiles the kernel program specialized for src.
	NewKernel(src KernelSource) (Kernel, error)

	// DestroyKernel releases a kernel created by NewKernel.
	DestroyKernel(k Kernel)

	// Write uploads data to the start of buf.
	Write(buf Buffer, data []uint32) error

	// Read downloads len(dst) words from the start of buf. It returns once
	// the words are host visible.
	Read(buf Buffer, dst []uint32) error

	// Submit executes cmds in order and blocks until the device signals
	// completion. ctx is checked before submission only; a submitted command
	// list always runs to completion.
	Submit(ctx context.Context, cmds *CommandList) error

	// Close releases the device.
	Close()
}

// Buffer is a device buffer of 32-bit words.
type Buffer interface {
	Label() string
	Words() int
}

// Kernel is a compiled kernel program bound to one operation.
type Kernel interface {
	Op() Op
}

// BufferUsage selects how a buffer is bound to a kernel.
type BufferUsage uint8

const (
	// BufferUsageStorage buffers hold mask, input and output data.
	BufferUsageStorage BufferUsage = iota
	// BufferUsageUniform buffers hold the dispatch constants.
	BufferUsageUniform
)

// BufferDescriptor describes a buffer allocation.
type BufferDescriptor struct {
	Label string
	Words int
	Usage BufferUsage
}

// KernelSource carries the compile-time parameters of one kernel variant.
type KernelSource struct {
	Op       Op
	Selector uint32
	WaveSize int
	NumWaves int
	Label    string
}

// ConstantWords is the size of the constants buffer. Every kernel binds it
// whether or not it reads constants.
const ConstantWords = 4

// Bindings are the resources bound to one dispatch. Binding order matches
// the kernel program: constants, mask, input, emulated output, native output.
type Bindings struct {
	Constants Buffer
	Mask      Buffer
	Input     Buffer
	Emulated  Buffer
	Native    Buffer
}

// CommandKind identifies a recorded command.
type CommandKind uint8

const (
	// CommandClear overwrites the first Words words of Buffer with zero.
	CommandClear CommandKind = iota
	// CommandDispatch runs Kernel over Groups waves with Bindings.
	CommandDispatch
)

// Command is one entry of a CommandList.
type Command struct {
	Kind     CommandKind
	Buffer   Buffer
	Words    int
	Kernel   Kernel
	Bindings Bindings
	Groups   int
}

// CommandList records clears and dispatches for a single submission.
type CommandList struct {
	cmds []Command
}

// NewCommandList returns an empty command list.
func NewCommandList() *CommandList {
	return &CommandList{}
}

// Clear records a sentinel fill of the first words words of buf.
func (c *CommandList) Clear(buf Buffer, words int) {
	c.cmds = append(c.cmds, Command{Kind: CommandClear, Buffer: buf, Words: words})
}

// Dispatch records one kernel dispatch of groups waves.
func (c *CommandList) Dispatch(k Kernel, b Bindings, groups int) {
	c.cmds = append(c.cmds, Command{Kind: CommandDispatch, Kernel: k, Bindings: b, Groups: groups})
}

// Commands returns the recorded commands in submission order.
func (c *CommandList) Commands() []Command {
	return c.cmds
}

// Len returns the number of recorded commands.
func (c *CommandList) Len() int {
	return len(c.cmds)
}

// Reset empties the list for reuse.
func (c *CommandList) Reset() {
	c.cmds = c.cmds[:0]
}
