//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wavecheck"
	"github.com/gogpu/wgpu/hal"
)

// buffer is a device buffer of 32-bit words. Storage buffers carry a
// host-mappable staging twin used by Read.
type buffer struct {
	owner   *Device
	label   string
	words   int
	usage   wavecheck.BufferUsage
	buf     hal.Buffer
	staging hal.Buffer
}

func (b *buffer) Label() string { return b.label }
func (b *buffer) Words() int    { return b.words }

func (b *buffer) size() uint64 { return uint64(b.words) * wordSize }

func (b *buffer) destroy() {
	if b.staging != nil {
		b.owner.device.DestroyBuffer(b.staging)
	}
	b.owner.device.DestroyBuffer(b.buf)
}

// NewBuffer allocates a buffer of desc.Words words.
func (d *Device) NewBuffer(desc wavecheck.BufferDescriptor) (wavecheck.Buffer, error) {
	if d.closed {
		return nil, ErrClosed
	}
	if desc.Words <= 0 {
		return nil, fmt.Errorf("gpu: buffer %q: invalid size %d words", desc.Label, desc.Words)
	}
	b := &buffer{owner: d, label: desc.Label, words: desc.Words, usage: desc.Usage}

	usage := gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst | gputypes.BufferUsageCopySrc
	if desc.Usage == wavecheck.BufferUsageUniform {
		usage = gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst
	}
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  b.size(),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create buffer %q: %w", desc.Label, err)
	}
	b.buf = buf

	if desc.Usage == wavecheck.BufferUsageStorage {
		staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
			Label: desc.Label + "_staging",
			Size:  b.size(),
			Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			d.device.DestroyBuffer(buf)
			return nil, fmt.Errorf("gpu: create staging buffer %q: %w", desc.Label, err)
		}
		b.staging = staging
	}

	d.buffers[b] = struct{}{}
	slogger().Debug("gpu: buffer created", "label", desc.Label, "words", desc.Words)
	return b, nil
}

// DestroyBuffer releases buf and every cached bind group that references it.
func (d *Device) DestroyBuffer(buf wavecheck.Buffer) {
	b, err := d.lookupBuffer(buf)
	if err != nil {
		return
	}
	for key, bg := range d.bindGroups {
		if key.Constants == buf || key.Mask == buf || key.Input == buf ||
			key.Emulated == buf || key.Native == buf {
			d.device.DestroyBindGroup(bg)
			delete(d.bindGroups, key)
		}
	}
	b.destroy()
	delete(d.buffers, b)
}

func (d *Device) lookupBuffer(buf wavecheck.Buffer) (*buffer, error) {
	if d.closed {
		return nil, ErrClosed
	}
	b, ok := buf.(*buffer)
	if !ok || b == nil {
		return nil, fmt.Errorf("%w: buffer %T", ErrForeignResource, buf)
	}
	if _, live := d.buffers[b]; !live {
		return nil, fmt.Errorf("%w: buffer %q", ErrForeignResource, b.label)
	}
	return b, nil
}

// Write uploads data to the start of buf through the queue.
func (d *Device) Write(buf wavecheck.Buffer, data []uint32) error {
	b, err := d.lookupBuffer(buf)
	if err != nil {
		return err
	}
	if len(data) > b.words {
		return fmt.Errorf("gpu: write %d words to buffer %q of %d words", len(data), b.label, b.words)
	}
	if len(data) == 0 {
		return nil
	}
	bytes := make([]byte, len(data)*wordSize)
	for i, w := range data {
		binary.LittleEndian.PutUint32(bytes[i*wordSize:], w)
	}
	if err := d.queue.WriteBuffer(b.buf, 0, bytes); err != nil {
		return fmt.Errorf("gpu: write buffer %q: %w", b.label, err)
	}
	return nil
}

// Read copies the first len(dst) words of buf to its staging buffer, waits
// for the copy, and reads them from the mapped staging memory.
func (d *Device) Read(buf wavecheck.Buffer, dst []uint32) error {
	b, err := d.lookupBuffer(buf)
	if err != nil {
		return err
	}
	if b.staging == nil {
		return fmt.Errorf("gpu: buffer %q is not readable", b.label)
	}
	if len(dst) > b.words {
		return fmt.Errorf("gpu: read %d words from buffer %q of %d words", len(dst), b.label, b.words)
	}
	if len(dst) == 0 {
		return nil
	}
	size := uint64(len(dst)) * wordSize

	enc, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "wavecheck_readback"})
	if err != nil {
		return fmt.Errorf("gpu: create readback encoder: %w", err)
	}
	defer enc.Destroy()
	if err := enc.BeginEncoding("wavecheck_readback"); err != nil {
		return fmt.Errorf("gpu: begin readback: %w", err)
	}
	enc.TransitionBuffers([]hal.BufferBarrier{{
		Buffer: b.buf,
		Usage: hal.BufferUsageTransition{
			OldUsage: gputypes.BufferUsageStorage,
			NewUsage: gputypes.BufferUsageCopySrc,
		},
	}})
	enc.CopyBufferToBuffer(b.buf, b.staging, []hal.BufferCopy{{Size: size}})
	cmd, err := enc.EndEncoding()
	if err != nil {
		return fmt.Errorf("gpu: end readback: %w", err)
	}
	if err := d.execute(cmd); err != nil {
		return err
	}

	mapping, err := d.device.MapBuffer(b.staging, 0, size)
	if err != nil {
		return fmt.Errorf("gpu: map staging buffer %q: %w", b.label, err)
	}
	src := unsafe.Slice((*byte)(mapping.Ptr), size)
	for i := range dst {
		dst[i] = binary.LittleEndian.Uint32(src[i*wordSize:])
	}
	if err := d.device.UnmapBuffer(b.staging); err != nil {
		return fmt.Errorf("gpu: unmap staging buffer %q: %w", b.label, err)
	}
	return nil
}
