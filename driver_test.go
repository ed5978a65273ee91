package wavecheck

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
)

func newTestDriver(t *testing.T, dev *fakeDevice, cfg Config) *Driver {
	t.Helper()
	pool, err := NewResourcePool(dev, cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(pool.Close)
	catalog, err := NewKernelCatalog(dev, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(catalog.Close)
	return NewDriver(dev, pool, catalog, cfg, testRand())
}

func TestDriverRecordsOneSubmission(t *testing.T) {
	dev := newFakeDevice(t, 8)
	cfg := Config{WaveSize: 8, NumWaves: 3, Iterations: 1}
	d := newTestDriver(t, dev, cfg)

	inv, err := d.Run(context.Background(), Case{Name: "ballot", Op: OpActiveBallot,
		Input: UniformInt(0, 1000), Constants: FixedConstants(500)})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if dev.submits != 1 {
		t.Errorf("submits = %d, want 1", dev.submits)
	}

	// clear emulated, clear native, dispatch
	cmds := dev.lastCmds
	if len(cmds) != 3 || cmds[0].Kind != CommandClear || cmds[1].Kind != CommandClear || cmds[2].Kind != CommandDispatch {
		t.Fatalf("recorded commands = %+v", cmds)
	}
	if cmds[0].Words != 12 || cmds[1].Words != 12 {
		t.Errorf("reset lengths %d/%d, want 12", cmds[0].Words, cmds[1].Words)
	}
	if cmds[2].Groups != 3 {
		t.Errorf("dispatch groups = %d, want 3", cmds[2].Groups)
	}

	if len(inv.Mask) != 24 || len(inv.Input) != 24 {
		t.Errorf("mask/input lengths %d/%d, want 24", len(inv.Mask), len(inv.Input))
	}
	if len(inv.Constants) != ConstantWords || inv.Constants[0] != 500 {
		t.Errorf("constants = %v", inv.Constants)
	}
	if len(inv.Emulated) != 12 || len(inv.Native) != 12 {
		t.Errorf("output lengths %d/%d, want 12", len(inv.Emulated), len(inv.Native))
	}
}

func TestDriverSkipsInputForQueries(t *testing.T) {
	dev := newFakeDevice(t, 8)
	d := newTestDriver(t, dev, Config{WaveSize: 8, NumWaves: 2, Iterations: 1})

	inv, err := d.Run(context.Background(), Case{Op: OpGetLaneCount, Mask: MaskAll})
	if err != nil {
		t.Fatal(err)
	}
	if inv.Input != nil {
		t.Error("query op generated an input")
	}
	for i, v := range inv.Native {
		if v != 8 {
			t.Fatalf("native lane %d = %d, want 8", i, v)
		}
	}
	if dev.lastCmds[2].Bindings.Emulated != d.pool.Buffer(SlotLaneEmulated) {
		t.Error("per-lane op was not bound to the lane buffers")
	}
}

func TestDriverConstantsNotCarriedOver(t *testing.T) {
	dev := newFakeDevice(t, 8)
	d := newTestDriver(t, dev, Config{WaveSize: 8, NumWaves: 1, Iterations: 1})

	if _, err := d.Run(context.Background(), Case{Op: OpActiveCountBits, Constants: FixedConstants(77)}); err != nil {
		t.Fatal(err)
	}
	inv, err := d.Run(context.Background(), Case{Op: OpActiveSum, Constants: FixedConstants(99)})
	if err != nil {
		t.Fatal(err)
	}
	// ActiveSum reads no constants, so the buffer is rewritten with zeros.
	if !Equal(inv.Constants, make([]uint32, ConstantWords)) {
		t.Errorf("constants = %v, want zeros", inv.Constants)
	}
	got := make([]uint32, ConstantWords)
	_ = dev.Read(d.pool.Buffer(SlotConstants), got)
	if got[0] != 0 {
		t.Errorf("device constants = %v, previous dispatch leaked", got)
	}
}

func TestDriverErrors(t *testing.T) {
	dev := newFakeDevice(t, 8)
	d := newTestDriver(t, dev, Config{WaveSize: 8, NumWaves: 1, Iterations: 1})

	short := func(_ *rand.Rand, n int) []uint32 { return make([]uint32, n-1) }
	if _, err := d.Run(context.Background(), Case{Op: OpActiveSum, Input: short}); err == nil {
		t.Error("short input should fail")
	}

	dev.submitErr = errors.New("device lost")
	if _, err := d.Run(context.Background(), Case{Op: OpActiveSum}); err == nil {
		t.Error("submit failure should be returned")
	}

	if _, err := d.Run(context.Background(), Case{Op: Op(40)}); !errors.Is(err, ErrUnknownOp) {
		t.Errorf("unknown op error = %v", err)
	}
}
