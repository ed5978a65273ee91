//go:build !nogpu

// Package gpu registers the Vulkan wave device with the backend registry.
//
// Import this package to run the harness on real hardware. The device needs
// an adapter with subgroup operations; when none is present, opening the
// "vulkan" backend fails and backend.Default falls back to the reference
// device.
//
// Usage:
//
//	import _ "github.com/gogpu/wavecheck/gpu" // enable the vulkan backend
package gpu

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wavecheck"
	"github.com/gogpu/wavecheck/backend"
	gpuimpl "github.com/gogpu/wavecheck/internal/gpu"
	"github.com/gogpu/wgpu/hal"
)

// Errors returned when no usable GPU is found.
var (
	ErrBackendUnavailable   = gpuimpl.ErrBackendUnavailable
	ErrNoAdapter            = gpuimpl.ErrNoAdapter
	ErrSubgroupsUnsupported = gpuimpl.ErrSubgroupsUnsupported
)

func init() {
	backend.Register(backend.Vulkan, Open)
}

// Open creates a standalone device on the best adapter with subgroup
// support.
func Open() (wavecheck.Device, error) {
	gpuimpl.SetLogger(wavecheck.Logger())
	d, err := gpuimpl.Open()
	if err != nil {
		return nil, err
	}
	return d, nil
}

// halProvider is implemented by device providers that expose their HAL
// objects, such as a gogpu application.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// NewDeviceFromProvider runs the harness on a GPU device shared by an
// external provider (e.g., gogpu). This avoids creating a second GPU
// instance. The provider must also implement HalDevice() any and
// HalQueue() any returning hal.Device and hal.Queue, and its device must
// have subgroup operations enabled.
//
// Closing the returned device releases only harness resources.
func NewDeviceFromProvider(provider gpucontext.DeviceProvider) (wavecheck.Device, error) {
	gpuimpl.SetLogger(wavecheck.Logger())
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("gpu: provider %T does not expose HAL device and queue", provider)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok {
		return nil, fmt.Errorf("gpu: provider HalDevice() is %T, not hal.Device", hp.HalDevice())
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok {
		return nil, fmt.Errorf("gpu: provider HalQueue() is %T, not hal.Queue", hp.HalQueue())
	}

	name := provider.AdapterInfo().Name
	if name == "" {
		name = "shared"
	}
	d, err := gpuimpl.NewDeviceFromHAL(device, queue, name)
	if err != nil {
		return nil, err
	}
	return d, nil
}
