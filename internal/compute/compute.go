// Package compute abstracts the GPU-shaped compute back-end behind a
// small capability set: EnumerateDevices plus one call per kernel
// (RunChainWalk, RunFalseAlarmCheck), each of which covers building,
// launching and reading back that kernel's results. A real engine
// would bind this to OpenCL/CUDA/Vulkan; this repository ships one
// concrete backend, CPUBackend, that runs the same kernels on goroutines
// so the generator and lookup pipelines can be exercised and tested
// without a GPU driver.
package compute

import (
	"context"

	"github.com/tmto-labs/rainbowforge/internal/chain"
)

// Device is one compute device a Backend exposes.
type Device struct {
	ID   int
	Name string
}

// FalseAlarmTuple is one candidate produced by the binary-search phase:
// a chain start index, the position within the chain the candidate
// endpoint was found at, and the base reduction index the target hash
// maps to (hashBaseIndex = hash_to_index(targetHash, reductionOffset,
// total, 0), so the walk can verify the reduction at `Position` lands on
// hashBaseIndex+Position mod total).
type FalseAlarmTuple struct {
	StartIndex    uint64
	Position      uint32
	HashBaseIndex uint64
	HashID        int
}

// Backend is the capability set a compute device family must provide.
// Implementations must be safe for concurrent use by multiple goroutines
// each driving a different Device.
type Backend interface {
	// EnumerateDevices lists the devices this backend can dispatch work
	// to. Hosts with mixed Intel + NVIDIA/AMD GPUs should exclude Intel
	// devices before calling into the backend (spec.md §5); CPUBackend
	// always reports exactly one synthetic device.
	EnumerateDevices() []Device

	// RunChainWalk computes, for each start index, the index reached
	// after walking `steps` reduce(hash(·)) operations beginning at
	// chain position `posOffset`. This is the kernel the generator and
	// the lookup precompute phase both launch.
	RunChainWalk(ctx context.Context, dev Device, space *chain.Space, starts []uint64, posOffset uint64, steps uint64) ([]uint64, error)

	// RunFalseAlarmCheck walks a partial chain from each tuple's
	// StartIndex for Position steps, and at that position checks whether
	// the reduction equals HashBaseIndex+Position (mod total). On match
	// it returns the plaintext-space index that would have produced the
	// target hash; on mismatch it returns 0, mirroring the GPU kernel's
	// "emit 0" behavior on a false alarm.
	RunFalseAlarmCheck(ctx context.Context, dev Device, space *chain.Space, tuples []FalseAlarmTuple) ([]uint64, error)
}
