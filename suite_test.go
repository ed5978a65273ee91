package wavecheck

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func smallConfig() Config {
	return Config{WaveSize: 8, NumWaves: 2, Iterations: 5, Seed: 1}
}

func TestNewSuiteFatalErrors(t *testing.T) {
	tests := []struct {
		name    string
		dev     func(t *testing.T) *fakeDevice
		cfg     Config
		wantErr error
	}{
		{
			name:    "invalid config",
			dev:     func(t *testing.T) *fakeDevice { return newFakeDevice(t, 8) },
			cfg:     Config{WaveSize: 12, NumWaves: 1, Iterations: 1},
			wantErr: ErrInvalidConfig,
		},
		{
			name: "allocation",
			dev: func(t *testing.T) *fakeDevice {
				d := newFakeDevice(t, 8)
				d.allocLimit = 5
				return d
			},
			cfg:     smallConfig(),
			wantErr: ErrResourceAllocation,
		},
		{
			name: "kernel build",
			dev: func(t *testing.T) *fakeDevice {
				d := newFakeDevice(t, 8)
				d.badKernel, d.hasBad = OpIntegration, true
				return d
			},
			cfg:     smallConfig(),
			wantErr: ErrKernelBuild,
		},
		{
			name:    "wave size mismatch",
			dev:     func(t *testing.T) *fakeDevice { return newFakeDevice(t, 16) },
			cfg:     smallConfig(),
			wantErr: ErrWaveSizeMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := tt.dev(t)
			s, err := NewSuite(dev, tt.cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewSuite() error = %v, want %v", err, tt.wantErr)
			}
			if s != nil {
				t.Error("NewSuite() returned a suite with an error")
			}
			if len(dev.live) != 0 || dev.kernels != 0 {
				t.Errorf("leaked %d buffers and %d kernels", len(dev.live), dev.kernels)
			}
			if dev.submits > 1 {
				t.Errorf("%d submissions before failing", dev.submits)
			}
		})
	}

	if _, err := NewSuite(nil, DefaultConfig()); !errors.Is(err, ErrNilDevice) {
		t.Errorf("NewSuite(nil) error = %v, want ErrNilDevice", err)
	}
}

func TestSuiteRegister(t *testing.T) {
	s, err := NewSuite(newFakeDevice(t, 8), smallConfig(), WithCases())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if len(s.Cases()) != 0 {
		t.Fatalf("WithCases() registered %d cases", len(s.Cases()))
	}
	if err := s.Register(Case{Op: OpActiveSum}); err != nil {
		t.Fatal(err)
	}
	if got := s.Cases()[0].Name; got != "ActiveSum" {
		t.Errorf("default case name = %q", got)
	}
	if err := s.Register(Case{Name: "ActiveSum", Op: OpActiveMax}); !errors.Is(err, ErrDuplicateCase) {
		t.Errorf("duplicate Register() error = %v", err)
	}
	if err := s.Register(Case{Name: "bogus", Op: OpCount}); !errors.Is(err, ErrUnknownOp) {
		t.Errorf("unknown op Register() error = %v", err)
	}
	if s.Config().Seed != 1 {
		t.Errorf("Config().Seed = %d", s.Config().Seed)
	}
}

func TestSuiteDefaultCases(t *testing.T) {
	s, err := NewSuite(newFakeDevice(t, 8), smallConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	want := len(EquivalenceCases()) + len(PropertyCases())
	if got := len(s.Cases()); got != want {
		t.Errorf("registered %d cases, want %d", got, want)
	}
	for i, c := range s.Cases()[:OpCount] {
		if c.Op != Op(i) {
			t.Errorf("equivalence case %d is %s", i, c.Op)
		}
	}
}

func TestSuiteFailureContinues(t *testing.T) {
	errProperty := errors.New("property violated")
	calls := 0
	cases := []Case{
		{Name: "first", Op: OpGetLaneCount, Check: checkLaneCount},
		{Name: "broken", Op: OpGetLaneIndex, Check: func(Config, *Invocation) error {
			calls++
			return errProperty
		}},
		{Name: "last", Op: OpActiveSum},
	}
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	s, err := NewSuite(newFakeDevice(t, 8), smallConfig(), WithCases(cases...), WithMetrics(m))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var order []string
	report, err := s.RunAll(context.Background(), func(r CaseResult) { order = append(order, r.Name) })
	if err != nil {
		t.Fatalf("RunAll() error = %v", err)
	}
	if len(order) != 3 || order[0] != "first" || order[2] != "last" {
		t.Errorf("callback order = %v", order)
	}
	if report.Passed || report.Failed() != 1 {
		t.Errorf("Passed = %v, Failed() = %d", report.Passed, report.Failed())
	}

	broken, ok := report.Result("broken")
	if !ok || broken.Passed || broken.FailedIteration != 0 || broken.Reason != errProperty.Error() {
		t.Errorf("broken result = %+v", broken)
	}
	if calls != 1 {
		t.Errorf("check ran %d times after failing, want 1", calls)
	}
	if last, _ := report.Result("last"); !last.Passed || last.Iterations != 5 {
		t.Errorf("last result = %+v", last)
	}

	if got := testutil.ToFloat64(m.CaseResults.WithLabelValues("broken", "fail")); got != 1 {
		t.Errorf("fail counter = %v", got)
	}
	if got := testutil.ToFloat64(m.CaseResults.WithLabelValues("first", "pass")); got != 1 {
		t.Errorf("pass counter = %v", got)
	}
	if n := testutil.CollectAndCount(m.DispatchDuration); n != 3 {
		t.Errorf("dispatch histogram has %d series, want 3", n)
	}
}

func TestSuiteRunFilterAndCancel(t *testing.T) {
	s, err := NewSuite(newFakeDevice(t, 8), smallConfig(), WithCases(
		Case{Op: OpGetLaneCount}, Case{Op: OpGetLaneIndex}, Case{Op: OpActiveSum}))
	if err != nil {
		t.Fatal(err)
	}

	report, err := s.Run(context.Background(), func(c Case) bool { return c.Category() == CategoryQuery }, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Results) != 2 || !report.Passed {
		t.Errorf("filtered run = %+v", report.Results)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.RunAll(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("RunAll(canceled) error = %v", err)
	}

	s.Close()
	s.Close()
	if _, err := s.RunAll(context.Background(), nil); !errors.Is(err, ErrSuiteClosed) {
		t.Errorf("RunAll() after Close error = %v", err)
	}
	if _, err := s.RunCase(context.Background(), Case{Op: OpGetLaneCount}); !errors.Is(err, ErrSuiteClosed) {
		t.Errorf("RunCase() after Close error = %v", err)
	}
}

func TestSuiteDeviceFault(t *testing.T) {
	dev := newFakeDevice(t, 8)
	s, err := NewSuite(dev, smallConfig(), WithCases(Case{Op: OpActiveSum}, Case{Op: OpActiveMax}))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	dev.submitErr = errors.New("device lost")
	report, err := s.RunAll(context.Background(), nil)
	if err == nil {
		t.Fatal("RunAll() should return the device fault")
	}
	if len(report.Results) != 0 {
		t.Errorf("report holds %d results", len(report.Results))
	}
}

func TestSuiteDeviceFaultMidRun(t *testing.T) {
	dev := newFakeDevice(t, 8)
	s, err := NewSuite(dev, smallConfig(), WithCases(Case{Op: OpActiveSum}, Case{Op: OpActiveMax}))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	report, err := s.RunAll(context.Background(), func(CaseResult) {
		dev.submitErr = errors.New("device lost")
	})
	if err == nil {
		t.Fatal("RunAll() should return the device fault")
	}
	if len(report.Results) != 1 || !report.Results[0].Passed {
		t.Fatalf("report results = %+v, want the one finished case", report.Results)
	}
	if report.Passed {
		t.Error("partial report after a device fault is marked passed")
	}
}

func TestSuiteEmptyCaseList(t *testing.T) {
	s, err := NewSuite(newFakeDevice(t, 8), smallConfig(), WithCases())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	report, err := s.RunAll(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Results) != 0 || !report.Passed {
		t.Errorf("empty suite report = %+v", report)
	}
}
