//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wavecheck"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/vulkan" // register the Vulkan HAL backend
)

// Device errors.
var (
	// ErrBackendUnavailable is returned when no Vulkan HAL backend is registered.
	ErrBackendUnavailable = errors.New("gpu: vulkan backend not available")

	// ErrNoAdapter is returned when the instance exposes no adapter.
	ErrNoAdapter = errors.New("gpu: no GPU adapters found")

	// ErrSubgroupsUnsupported is returned when no adapter supports subgroup
	// operations in compute shaders.
	ErrSubgroupsUnsupported = errors.New("gpu: adapter does not support subgroup operations")

	// ErrForeignResource is returned when a buffer or kernel was not created
	// by the device it is passed to, or was already destroyed.
	ErrForeignResource = errors.New("gpu: resource not owned by device")

	// ErrClosed is returned by every operation on a closed device.
	ErrClosed = errors.New("gpu: device closed")
)

const wordSize = 4

// Device runs wave kernels on a wgpu HAL device.
//
// Every kernel shares one bind group layout (uniform constants, read-only
// mask and input, read-write emulated and native outputs), so bind groups
// are cached per Bindings and reused across dispatches.
type Device struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	name     string
	info     gputypes.AdapterInfo

	// external devices are borrowed and survive Close.
	external bool

	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	bindGroups map[wavecheck.Bindings]hal.BindGroup

	buffers map[*buffer]struct{}
	kernels map[*kernel]struct{}
	closed  bool
}

var _ wavecheck.Device = (*Device)(nil)

// Open creates a standalone device on the first discrete or integrated GPU
// that supports subgroup operations, falling back to any such adapter.
func Open() (*Device, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, ErrBackendUnavailable
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("gpu: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	selected := selectAdapter(adapters)
	if selected == nil {
		instance.Destroy()
		return nil, ErrSubgroupsUnsupported
	}

	var features gputypes.Features
	features.Insert(gputypes.FeatureSubgroupOperations)
	openDev, err := selected.Adapter.Open(features, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("gpu: open device: %w", err)
	}

	d, err := newDevice(openDev.Device, openDev.Queue, selected.Info.Name)
	if err != nil {
		openDev.Device.Destroy()
		instance.Destroy()
		return nil, err
	}
	d.instance = instance
	d.info = selected.Info
	slogger().Info("gpu: device opened",
		"adapter", selected.Info.Name,
		"type", selected.Info.DeviceType)
	return d, nil
}

// selectAdapter returns the preferred adapter with subgroup support, or nil.
func selectAdapter(adapters []hal.ExposedAdapter) *hal.ExposedAdapter {
	var fallback *hal.ExposedAdapter
	for i := range adapters {
		a := &adapters[i]
		if !a.Features.Contains(gputypes.FeatureSubgroupOperations) {
			slogger().Debug("gpu: adapter skipped, no subgroup operations", "adapter", a.Info.Name)
			continue
		}
		if a.Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			a.Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			return a
		}
		if fallback == nil {
			fallback = a
		}
	}
	return fallback
}

// NewDeviceFromHAL wraps a device and queue owned by the caller. The caller
// must have enabled subgroup operations on the device. Close releases only
// the resources created through the returned Device.
func NewDeviceFromHAL(device hal.Device, queue hal.Queue, name string) (*Device, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("gpu: nil HAL device or queue")
	}
	d, err := newDevice(device, queue, name)
	if err != nil {
		return nil, err
	}
	d.external = true
	slogger().Debug("gpu: using shared device", "name", name)
	return d, nil
}

func newDevice(device hal.Device, queue hal.Queue, name string) (*Device, error) {
	d := &Device{
		device:     device,
		queue:      queue,
		name:       name,
		info:       gputypes.AdapterInfo{Name: name},
		bindGroups: make(map[wavecheck.Bindings]hal.BindGroup),
		buffers:    make(map[*buffer]struct{}),
		kernels:    make(map[*kernel]struct{}),
	}

	storage := func(binding uint32, t gputypes.BufferBindingType) gputypes.BindGroupLayoutEntry {
		return gputypes.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: gputypes.ShaderStageCompute,
			Buffer:     &gputypes.BufferBindingLayout{Type: t},
		}
	}
	layout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "wavecheck_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			storage(0, gputypes.BufferBindingTypeUniform),
			storage(1, gputypes.BufferBindingTypeReadOnlyStorage),
			storage(2, gputypes.BufferBindingTypeReadOnlyStorage),
			storage(3, gputypes.BufferBindingTypeStorage),
			storage(4, gputypes.BufferBindingTypeStorage),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create bind group layout: %w", err)
	}
	d.bindLayout = layout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "wavecheck_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{layout},
	})
	if err != nil {
		device.DestroyBindGroupLayout(layout)
		return nil, fmt.Errorf("gpu: create pipeline layout: %w", err)
	}
	d.pipeLayout = pipeLayout
	return d, nil
}

// Name returns the adapter name.
func (d *Device) Name() string { return d.name }

// AdapterInfo returns what is known about the adapter. Devices created by
// NewDeviceFromHAL only carry the name.
func (d *Device) AdapterInfo() gputypes.AdapterInfo { return d.info }

// Close destroys every buffer, kernel and bind group created through d, then
// the device and instance when d owns them. It is safe to call more than once.
func (d *Device) Close() {
	if d.closed {
		return
	}
	d.closed = true

	for key, bg := range d.bindGroups {
		d.device.DestroyBindGroup(bg)
		delete(d.bindGroups, key)
	}
	for k := range d.kernels {
		k.destroy()
	}
	for b := range d.buffers {
		b.destroy()
	}
	if len(d.kernels)+len(d.buffers) > 0 {
		slogger().Debug("gpu: released leftover resources",
			"kernels", len(d.kernels),
			"buffers", len(d.buffers))
	}
	clear(d.kernels)
	clear(d.buffers)

	d.device.DestroyPipelineLayout(d.pipeLayout)
	d.device.DestroyBindGroupLayout(d.bindLayout)

	if d.external {
		return
	}
	d.device.Destroy()
	if d.instance != nil {
		d.instance.Destroy()
	}
	slogger().Debug("gpu: device closed", "name", d.name)
}
