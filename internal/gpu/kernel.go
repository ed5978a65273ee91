//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/wavecheck"
	"github.com/gogpu/wgpu/hal"
)

// kernel is a compute pipeline specialized for one operation.
type kernel struct {
	owner    *Device
	op       wavecheck.Op
	label    string
	module   hal.ShaderModule
	pipeline hal.ComputePipeline
}

func (k *kernel) Op() wavecheck.Op { return k.op }

func (k *kernel) destroy() {
	k.owner.device.DestroyComputePipeline(k.pipeline)
	k.owner.device.DestroyShaderModule(k.module)
}

// NewKernel compiles the wave kernel for src to SPIR-V and builds its
// compute pipeline on the shared layout.
func (d *Device) NewKernel(src wavecheck.KernelSource) (wavecheck.Kernel, error) {
	if d.closed {
		return nil, ErrClosed
	}
	spirv, err := CompileKernel(src)
	if err != nil {
		return nil, fmt.Errorf("gpu: %w", err)
	}

	label := src.Label
	if label == "" {
		label = "wavecheck_" + src.Op.String()
	}
	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create shader module %s: %w", label, err)
	}
	pipeline, err := d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:   label,
		Layout:  d.pipeLayout,
		Compute: hal.ComputeState{Module: module, EntryPoint: EntryPoint},
	})
	if err != nil {
		d.device.DestroyShaderModule(module)
		return nil, fmt.Errorf("gpu: create compute pipeline %s: %w", label, err)
	}

	k := &kernel{owner: d, op: src.Op, label: label, module: module, pipeline: pipeline}
	d.kernels[k] = struct{}{}
	slogger().Debug("gpu: kernel compiled",
		"op", src.Op,
		"wave_size", src.WaveSize,
		"spirv_words", len(spirv))
	return k, nil
}

// DestroyKernel releases the pipeline and shader module of k.
func (d *Device) DestroyKernel(k wavecheck.Kernel) {
	kk, err := d.lookupKernel(k)
	if err != nil {
		return
	}
	kk.destroy()
	delete(d.kernels, kk)
}

func (d *Device) lookupKernel(k wavecheck.Kernel) (*kernel, error) {
	if d.closed {
		return nil, ErrClosed
	}
	kk, ok := k.(*kernel)
	if !ok || kk == nil {
		return nil, fmt.Errorf("%w: kernel %T", ErrForeignResource, k)
	}
	if _, live := d.kernels[kk]; !live {
		return nil, fmt.Errorf("%w: kernel %s", ErrForeignResource, kk.label)
	}
	return kk, nil
}
