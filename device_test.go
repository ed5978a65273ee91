package wavecheck

import (
	"context"
	"errors"
	"testing"
)

var errFakeAlloc = errors.New("fake: allocation refused")

// fakeDevice is a minimal Device that records traffic. Dispatches write
// laneCount to every word of both outputs for GetLaneCount and leave the
// other outputs cleared.
type fakeDevice struct {
	laneCount  int
	allocLimit int // refuse allocations after this many buffers; 0 = unlimited
	badKernel  Op
	hasBad     bool

	live      map[*fakeBuffer]bool
	kernels   int
	submits   int
	lastCmds  []Command
	submitErr error
}

type fakeBuffer struct {
	label string
	data  []uint32
}

func (b *fakeBuffer) Label() string { return b.label }
func (b *fakeBuffer) Words() int    { return len(b.data) }

type fakeKernel struct{ op Op }

func (k fakeKernel) Op() Op { return k.op }

func newFakeDevice(t *testing.T, laneCount int) *fakeDevice {
	t.Helper()
	return &fakeDevice{laneCount: laneCount, live: make(map[*fakeBuffer]bool)}
}

func (d *fakeDevice) Name() string { return "fake" }

func (d *fakeDevice) NewBuffer(desc BufferDescriptor) (Buffer, error) {
	if d.allocLimit > 0 && len(d.live) >= d.allocLimit {
		return nil, errFakeAlloc
	}
	b := &fakeBuffer{label: desc.Label, data: make([]uint32, desc.Words)}
	d.live[b] = true
	return b, nil
}

func (d *fakeDevice) DestroyBuffer(buf Buffer) { delete(d.live, buf.(*fakeBuffer)) }

func (d *fakeDevice) NewKernel(src KernelSource) (Kernel, error) {
	if d.hasBad && src.Op == d.badKernel {
		return nil, errors.New("fake: syntax error")
	}
	d.kernels++
	return fakeKernel{op: src.Op}, nil
}

func (d *fakeDevice) DestroyKernel(Kernel) { d.kernels-- }

func (d *fakeDevice) Write(buf Buffer, data []uint32) error {
	copy(buf.(*fakeBuffer).data, data)
	return nil
}

func (d *fakeDevice) Read(buf Buffer, dst []uint32) error {
	copy(dst, buf.(*fakeBuffer).data)
	return nil
}

func (d *fakeDevice) Submit(_ context.Context, cmds *CommandList) error {
	if d.submitErr != nil {
		return d.submitErr
	}
	d.submits++
	d.lastCmds = append([]Command(nil), cmds.Commands()...)
	for _, c := range cmds.Commands() {
		switch c.Kind {
		case CommandClear:
			clear(c.Buffer.(*fakeBuffer).data[:c.Words])
		case CommandDispatch:
			if c.Kernel.Op() != OpGetLaneCount {
				continue
			}
			for _, out := range []Buffer{c.Bindings.Emulated, c.Bindings.Native} {
				data := out.(*fakeBuffer).data
				for i := range data {
					data[i] = uint32(d.laneCount) //nolint:gosec // test data
				}
			}
		}
	}
	return nil
}

func (d *fakeDevice) Close() {}

func TestCommandList(t *testing.T) {
	dev := newFakeDevice(t, 4)
	buf, _ := dev.NewBuffer(BufferDescriptor{Label: "x", Words: 8})

	cmds := NewCommandList()
	cmds.Clear(buf, 4)
	cmds.Dispatch(fakeKernel{op: OpActiveSum}, Bindings{Emulated: buf}, 3)
	if cmds.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", cmds.Len())
	}
	got := cmds.Commands()
	if got[0].Kind != CommandClear || got[0].Words != 4 || got[0].Buffer != buf {
		t.Errorf("command 0 = %+v", got[0])
	}
	if got[1].Kind != CommandDispatch || got[1].Groups != 3 || got[1].Kernel.Op() != OpActiveSum {
		t.Errorf("command 1 = %+v", got[1])
	}
	cmds.Reset()
	if cmds.Len() != 0 {
		t.Errorf("Len() after Reset = %d", cmds.Len())
	}
}
