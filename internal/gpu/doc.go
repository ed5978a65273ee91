//go:build !nogpu

// Package gpu runs wave kernels on a real GPU through the Pure Go wgpu HAL.
//
// Kernels are written once in WGSL (shaders/wave_ops.wgsl) and specialized
// per operation by a generated prelude that fixes WAVE_SIZE, NUM_WAVES and
// TEST_ID as constants. The program is translated to SPIR-V with naga and
// built into a compute pipeline on the Vulkan backend. The adapter must
// expose subgroup operations; one workgroup of WAVE_SIZE invocations maps to
// one hardware wave.
//
// # Kernel layout
//
//	@binding(0) uniform constants   c0..c3 (predicate threshold, lane index)
//	@binding(1) storage mask        per-lane active flag
//	@binding(2) storage input       per-lane value
//	@binding(3) storage emulated    result of the shared-memory emulation
//	@binding(4) storage native      result of the subgroup builtins
//
// # Synchronization
//
// Submit encodes one command buffer per CommandList and blocks on
// Device.WaitIdle, so results are host visible when it returns. Read copies
// a storage buffer to a MapRead staging buffer and maps it.
package gpu
