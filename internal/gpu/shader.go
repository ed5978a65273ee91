//go:build !nogpu

package gpu

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/gogpu/naga"
	"github.com/gogpu/wavecheck"
)

//go:embed shaders/wave_ops.wgsl
var waveOpsShaderSource string

// EntryPoint is the compute entry point of every wave kernel.
const EntryPoint = "main"

// Prelude returns the header that specializes the wave kernel source: the
// subgroups extension, the uniformity diagnostic for divergent subgroup
// calls, and the compile-time geometry and operation selector.
func Prelude(src wavecheck.KernelSource) string {
	var b strings.Builder
	b.WriteString("enable subgroups;\n")
	b.WriteString("diagnostic(off, subgroup_uniformity);\n\n")
	fmt.Fprintf(&b, "const WAVE_SIZE: u32 = %du;\n", src.WaveSize)
	fmt.Fprintf(&b, "const NUM_WAVES: u32 = %du;\n", src.NumWaves)
	fmt.Fprintf(&b, "const TEST_ID: u32 = %du; // %s\n\n", src.Selector, src.Op)
	return b.String()
}

// KernelWGSL returns the complete WGSL program for src.
func KernelWGSL(src wavecheck.KernelSource) string {
	return Prelude(src) + waveOpsShaderSource
}

// CompileKernel translates the WGSL program for src to SPIR-V words.
func CompileKernel(src wavecheck.KernelSource) ([]uint32, error) {
	spirv, err := naga.Compile(KernelWGSL(src))
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", src.Op, err)
	}
	if len(spirv)%4 != 0 {
		return nil, fmt.Errorf("compile %s: SPIR-V length %d is not word aligned", src.Op, len(spirv))
	}
	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirv)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirv[i*4:])
	}
	return words, nil
}
