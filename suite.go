// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wavecheck

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// Case is one named test case: an operation, the policies that generate its
// mask, input and constants, and an optional extra property check.
//
// A case passes when, for every invocation, the emulated and native results
// are identical word for word and Check (if set) returns nil.
type Case struct {
	Name string
	Op   Op
	// Kind is the element type of Input, used for reporting.
	Kind      ElementKind
	Mask      MaskPolicy
	Input     InputFunc
	Constants ConstantsFunc
	// Check verifies a property of an invocation whose results already matched.
	Check func(cfg Config, inv *Invocation) error
}

// Category returns the category of the case's operation.
func (c Case) Category() Category {
	if d, err := Describe(c.Op); err == nil {
		return d.Category
	}
	return CategoryQuery
}

// CaseResult is the verdict of one case.
type CaseResult struct {
	Name       string        `json:"name" yaml:"name"`
	Op         string        `json:"op" yaml:"op"`
	Category   string        `json:"category" yaml:"category"`
	Passed     bool          `json:"passed" yaml:"passed"`
	Iterations int           `json:"iterations" yaml:"iterations"`
	Duration   time.Duration `json:"duration_ns" yaml:"duration"`
	// FailedIteration is the index of the first failing invocation, or -1.
	FailedIteration int        `json:"failed_iteration" yaml:"failed_iteration"`
	Mismatches      []Mismatch `json:"mismatches,omitempty" yaml:"mismatches,omitempty"`
	Reason          string     `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// ResultFunc receives each case result as soon as the case finishes.
type ResultFunc func(CaseResult)

// maxReportedMismatches bounds the mismatches kept per failed case.
const maxReportedMismatches = 8

// SuiteOption configures a Suite during creation.
type SuiteOption func(*suiteOptions)

type suiteOptions struct {
	metrics  *Metrics
	cases    []Case
	casesSet bool
}

// WithMetrics attaches Prometheus collectors to the suite.
func WithMetrics(m *Metrics) SuiteOption {
	return func(o *suiteOptions) {
		o.metrics = m
	}
}

// WithCases replaces the default case list. With no arguments the suite
// starts empty and cases are added with Register.
func WithCases(cases ...Case) SuiteOption {
	return func(o *suiteOptions) {
		o.cases = cases
		o.casesSet = true
	}
}

// Suite owns the pool, catalog and driver of one harness run and executes
// its registered cases sequentially.
type Suite struct {
	cfg     Config
	dev     Device
	pool    *ResourcePool
	catalog *KernelCatalog
	driver  *Driver
	metrics *Metrics

	cases  []Case
	names  map[string]struct{}
	closed bool
}

// NewSuite builds a suite on dev: it allocates the resource pool, compiles
// every kernel, and checks that the device's native wave size matches
// cfg.WaveSize. Any failure is fatal and returned before a case can run.
//
// The suite does not take ownership of dev; Close releases only the pool
// and the catalog.
func NewSuite(dev Device, cfg Config, opts ...SuiteOption) (*Suite, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withSeed()

	o := suiteOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	pool, err := NewResourcePool(dev, cfg)
	if err != nil {
		return nil, err
	}
	catalog, err := NewKernelCatalog(dev, cfg, nil)
	if err != nil {
		pool.Close()
		return nil, err
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)) //nolint:gosec // test data, not security
	driver := NewDriver(dev, pool, catalog, cfg, rng)
	driver.SetMetrics(o.metrics)

	s := &Suite{
		cfg:     cfg,
		dev:     dev,
		pool:    pool,
		catalog: catalog,
		driver:  driver,
		metrics: o.metrics,
		names:   make(map[string]struct{}),
	}

	if err := s.probeWaveSize(context.Background()); err != nil {
		s.Close()
		return nil, err
	}

	cases := o.cases
	if !o.casesSet {
		cases = DefaultCases()
	}
	for _, c := range cases {
		if err := s.Register(c); err != nil {
			s.Close()
			return nil, err
		}
	}

	Logger().Info("wavecheck: suite ready",
		"device", dev.Name(),
		"wave_size", cfg.WaveSize,
		"num_waves", cfg.NumWaves,
		"iterations", cfg.Iterations,
		"seed", cfg.Seed,
		"cases", len(s.cases))
	return s, nil
}

// probeWaveSize dispatches GetLaneCount once over a full mask and compares
// the native lane count of every lane against the configured wave size.
func (s *Suite) probeWaveSize(ctx context.Context) error {
	inv, err := s.driver.Run(ctx, Case{Name: "probe", Op: OpGetLaneCount, Mask: MaskAll})
	if err != nil {
		return fmt.Errorf("wavecheck: wave size probe: %w", err)
	}
	for i, v := range inv.Native {
		if int(v) != s.cfg.WaveSize {
			return fmt.Errorf("%w: configured %d, device reports %d at lane %d",
				ErrWaveSizeMismatch, s.cfg.WaveSize, v, i)
		}
	}
	return nil
}

// Config returns the suite configuration with its effective seed.
func (s *Suite) Config() Config { return s.cfg }

// Device returns the device the suite runs on.
func (s *Suite) Device() Device { return s.dev }

// Register appends c to the suite. Names must be unique.
func (s *Suite) Register(c Case) error {
	if _, err := Describe(c.Op); err != nil {
		return fmt.Errorf("wavecheck: case %q: %w", c.Name, err)
	}
	if c.Name == "" {
		c.Name = c.Op.String()
	}
	if _, dup := s.names[c.Name]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicateCase, c.Name)
	}
	if _, _, err := s.catalog.Kernel(c.Op); err != nil {
		return fmt.Errorf("wavecheck: case %q: %w", c.Name, err)
	}
	s.names[c.Name] = struct{}{}
	s.cases = append(s.cases, c)
	return nil
}

// Cases returns the registered cases in run order.
func (s *Suite) Cases() []Case {
	out := make([]Case, len(s.cases))
	copy(out, s.cases)
	return out
}

// RunAll runs every registered case. See Run.
func (s *Suite) RunAll(ctx context.Context, fn ResultFunc) (*Report, error) {
	return s.Run(ctx, nil, fn)
}

// Run executes the cases accepted by filter (all when nil) one after another
// and returns the aggregated report. Mismatches are recorded as failed
// cases and the run continues. A returned error is a device fault or a
// cancellation; the report then holds the cases finished before it and is
// never marked passed.
func (s *Suite) Run(ctx context.Context, filter func(Case) bool, fn ResultFunc) (*Report, error) {
	if s.closed {
		return nil, ErrSuiteClosed
	}
	report := newReport(s.dev.Name(), s.cfg)
	start := time.Now()
	defer func() { report.Duration = time.Since(start) }()

	for _, c := range s.cases {
		if filter != nil && !filter(c) {
			continue
		}
		if err := ctx.Err(); err != nil {
			report.Passed = false
			return report, err
		}
		res, err := s.RunCase(ctx, c)
		if err != nil {
			report.Passed = false
			return report, err
		}
		report.add(res)
		if fn != nil {
			fn(res)
		}
	}

	Logger().Info("wavecheck: suite finished",
		"passed", report.Passed,
		"cases", len(report.Results),
		"failed", report.Failed())
	return report, nil
}

// RunCase runs cfg.Iterations invocations of c and stops at the first
// failing one.
func (s *Suite) RunCase(ctx context.Context, c Case) (CaseResult, error) {
	if s.closed {
		return CaseResult{}, ErrSuiteClosed
	}
	res := CaseResult{
		Name:            c.Name,
		Op:              c.Op.String(),
		Category:        c.Category().String(),
		Passed:          true,
		FailedIteration: -1,
	}
	start := time.Now()

	for i := 0; i < s.cfg.Iterations; i++ {
		inv, err := s.driver.Run(ctx, c)
		if err != nil {
			res.Duration = time.Since(start)
			return res, fmt.Errorf("wavecheck: case %q iteration %d: %w", c.Name, i, err)
		}
		res.Iterations++

		if !Equal(inv.Emulated, inv.Native) {
			res.Passed = false
			res.FailedIteration = i
			res.Mismatches = Diff(inv.Emulated, inv.Native, maxReportedMismatches)
			res.Reason = "emulated result differs from native"
			s.metrics.observeMismatch(c.Op)
			break
		}
		if c.Check != nil {
			if err := c.Check(s.cfg, inv); err != nil {
				res.Passed = false
				res.FailedIteration = i
				res.Reason = err.Error()
				break
			}
		}
	}

	res.Duration = time.Since(start)
	s.metrics.observeCase(c.Name, res.Passed)
	if !res.Passed {
		Logger().Warn("wavecheck: case failed",
			"case", c.Name,
			"iteration", res.FailedIteration,
			"reason", res.Reason)
	}
	return res, nil
}

// Close releases the catalog and the pool. It is safe to call more than once.
func (s *Suite) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.catalog.Close()
	s.pool.Close()
}
