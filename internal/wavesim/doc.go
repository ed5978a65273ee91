// Package wavesim provides a CPU device that executes wave kernels in
// lockstep, one wave at a time.
//
// Every kernel produces two results per dispatch, like the GPU kernel
// program does:
//
//   - The emulated result is computed the way the shader emulation does it:
//     each lane publishes its value and active flag to wave-shared memory,
//     then loops over the shared arrays.
//   - The native result is computed the way hardware does it: a ballot of
//     the active lanes is formed first and every collective is derived from
//     ballot bit operations (lowest set bit, masked popcount).
//
// The two algorithms are independent, so the reference device cross-checks
// the harness itself on machines without a GPU. Options inject faults
// (corrupted words, failed allocations, failed builds, a wrong native wave
// size) so that the harness's failure paths can be exercised.
package wavesim
