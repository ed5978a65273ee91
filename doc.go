// Package wavecheck cross-validates a software emulation of GPU wave
// (subgroup) intrinsics against the hardware's native intrinsics.
//
// # Overview
//
// Every kernel computes an operation twice in the same dispatch: once with
// the emulation path and once with the native intrinsic, over the same
// execution mask and the same input. The harness compares the two result
// buffers word for word. Masks are random per invocation so the emulation's
// divergent paths (inactive lanes, partial waves, empty waves) are exercised.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/wavecheck"
//	    "github.com/gogpu/wavecheck/backend"
//	    _ "github.com/gogpu/wavecheck/gpu" // registers the Vulkan device
//	)
//
//	dev, err := backend.Open(backend.Vulkan)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Close()
//
//	suite, err := wavecheck.NewSuite(dev, wavecheck.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err) // resource, compile or wave size failure
//	}
//	defer suite.Close()
//
//	report, err := suite.RunAll(ctx, func(r wavecheck.CaseResult) {
//	    fmt.Println(r.Name, r.Passed)
//	})
//
// # Architecture
//
//   - MaskGenerator: random execution masks, one bit per lane
//   - ResourcePool: persistent input, mask, constants and output buffers
//   - KernelCatalog: one compiled kernel per Op, specialized by WaveSize/NumWaves
//   - Driver: upload, reset, dispatch, submit, download for one invocation
//   - Equal / Diff: exact word comparison of the OutputPair
//   - Suite: ordered case registry, sequential execution, aggregate Report
//
// Dispatches are strictly sequential: Device.Submit blocks until the device
// finishes, and the next invocation starts only after both outputs have been
// downloaded.
//
// # Errors
//
// Allocation failures, kernel build failures and a native wave size that
// differs from Config.WaveSize abort NewSuite. Result mismatches never
// produce an error; they mark the case as failed and the run continues.
package wavecheck
