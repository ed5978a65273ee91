//go:build !nogpu

package gpu

import (
	"context"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wavecheck"
	"github.com/gogpu/wgpu/hal"
)

// Submit records cmds into one command buffer, submits it and waits for the
// device to go idle. Clears become ClearBuffer commands; each dispatch gets
// its own compute pass after a barrier that makes cleared and uploaded
// buffers visible to the shader.
func (d *Device) Submit(ctx context.Context, cmds *wavecheck.CommandList) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.closed {
		return ErrClosed
	}

	enc, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "wavecheck_submit"})
	if err != nil {
		return fmt.Errorf("gpu: create command encoder: %w", err)
	}
	defer enc.Destroy()
	if err := enc.BeginEncoding("wavecheck_submit"); err != nil {
		return fmt.Errorf("gpu: begin encoding: %w", err)
	}

	for i, c := range cmds.Commands() {
		var err error
		switch c.Kind {
		case wavecheck.CommandClear:
			err = d.encodeClear(enc, c)
		case wavecheck.CommandDispatch:
			err = d.encodeDispatch(enc, c)
		default:
			err = fmt.Errorf("gpu: unknown command kind %d", c.Kind)
		}
		if err != nil {
			enc.DiscardEncoding()
			return fmt.Errorf("command %d: %w", i, err)
		}
	}

	cmd, err := enc.EndEncoding()
	if err != nil {
		return fmt.Errorf("gpu: end encoding: %w", err)
	}
	return d.execute(cmd)
}

func (d *Device) encodeClear(enc hal.CommandEncoder, c wavecheck.Command) error {
	b, err := d.lookupBuffer(c.Buffer)
	if err != nil {
		return err
	}
	if c.Words < 0 || c.Words > b.words {
		return fmt.Errorf("gpu: clear %d words of buffer %q of %d words", c.Words, b.label, b.words)
	}
	if c.Words > 0 {
		enc.ClearBuffer(b.buf, 0, uint64(c.Words)*wordSize)
	}
	return nil
}

func (d *Device) encodeDispatch(enc hal.CommandEncoder, c wavecheck.Command) error {
	k, err := d.lookupKernel(c.Kernel)
	if err != nil {
		return err
	}
	if c.Groups < 1 {
		return fmt.Errorf("gpu: dispatch of %d groups", c.Groups)
	}
	bg, storage, err := d.bindGroup(c.Bindings)
	if err != nil {
		return err
	}

	barriers := make([]hal.BufferBarrier, 0, len(storage))
	for _, b := range storage {
		barriers = append(barriers, hal.BufferBarrier{
			Buffer: b.buf,
			Usage: hal.BufferUsageTransition{
				OldUsage: gputypes.BufferUsageCopyDst,
				NewUsage: gputypes.BufferUsageStorage,
			},
		})
	}
	enc.TransitionBuffers(barriers)

	pass := enc.BeginComputePass(&hal.ComputePassDescriptor{Label: k.label})
	pass.SetPipeline(k.pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.Dispatch(uint32(c.Groups), 1, 1) //nolint:gosec // groups bounded by config
	pass.End()
	return nil
}

// bindGroup returns the cached bind group for b, creating it on first use,
// together with the storage buffers it binds.
func (d *Device) bindGroup(b wavecheck.Bindings) (hal.BindGroup, []*buffer, error) {
	bound := []wavecheck.Buffer{b.Constants, b.Mask, b.Input, b.Emulated, b.Native}
	resolved := make([]*buffer, len(bound))
	for i, buf := range bound {
		r, err := d.lookupBuffer(buf)
		if err != nil {
			return nil, nil, fmt.Errorf("binding %d: %w", i, err)
		}
		resolved[i] = r
	}
	if resolved[0].usage != wavecheck.BufferUsageUniform {
		return nil, nil, fmt.Errorf("gpu: binding 0: buffer %q is not a uniform buffer", resolved[0].label)
	}
	storage := resolved[1:]
	for i, r := range storage {
		if r.usage != wavecheck.BufferUsageStorage {
			return nil, nil, fmt.Errorf("gpu: binding %d: buffer %q is not a storage buffer", i+1, r.label)
		}
	}

	if bg, ok := d.bindGroups[b]; ok {
		return bg, storage, nil
	}
	entries := make([]gputypes.BindGroupEntry, len(resolved))
	for i, r := range resolved {
		entries[i] = gputypes.BindGroupEntry{
			Binding:  uint32(i), //nolint:gosec // five bindings
			Resource: gputypes.BufferBinding{Buffer: r.buf.NativeHandle(), Offset: 0, Size: r.size()},
		}
	}
	bg, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   "wavecheck_bind",
		Layout:  d.bindLayout,
		Entries: entries,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("gpu: create bind group: %w", err)
	}
	d.bindGroups[b] = bg
	return bg, storage, nil
}

// execute submits one command buffer and blocks until it completed.
func (d *Device) execute(cmd hal.CommandBuffer) error {
	defer d.device.FreeCommandBuffer(cmd)
	index, err := d.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		return fmt.Errorf("gpu: submit: %w", err)
	}
	if err := d.device.WaitIdle(); err != nil {
		return fmt.Errorf("gpu: wait idle: %w", err)
	}
	if done := d.queue.PollCompleted(); done < index {
		return fmt.Errorf("gpu: submission %d incomplete after idle wait (completed %d)", index, done)
	}
	return nil
}
