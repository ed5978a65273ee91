// Package backend provides a registry of wave devices.
//
// A backend is a named DeviceFactory. The reference backend (a CPU device
// that executes kernels wave by wave) is registered on import; the Vulkan
// backend registers itself when the gpu package is imported:
//
//	import (
//		"github.com/gogpu/wavecheck/backend"
//		_ "github.com/gogpu/wavecheck/gpu" // register "vulkan"
//	)
//
// # Backend Selection
//
// Use Default() to open the best available device, or Open() to request a
// specific backend by name:
//
//	// Prefer a GPU, fall back to the reference device
//	dev, err := backend.Default()
//
//	// Or request a specific backend
//	dev, err := backend.Open(backend.Reference)
//
// # Available Backends
//
//   - "reference": CPU lockstep execution (always available)
//   - "vulkan": subgroup kernels on the wgpu Vulkan HAL
package backend
