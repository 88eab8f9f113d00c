package compute

import (
	"context"
	"runtime"
	"sync"

	"github.com/tmto-labs/rainbowforge/internal/chain"
)

// CPUBackend is the reference Backend implementation: it runs the chain
// arithmetic kernels on goroutines instead of a GPU. It reports a single
// synthetic device, "cpu0", and fans work out across runtime.NumCPU()
// workers internally regardless of how many logical "devices" a caller
// enumerates.
type CPUBackend struct{}

var _ Backend = CPUBackend{}

// EnumerateDevices always returns exactly one synthetic device.
func (CPUBackend) EnumerateDevices() []Device {
	return []Device{{ID: 0, Name: "cpu0"}}
}

// RunChainWalk walks `steps` reduce(hash(·)) operations from each start,
// beginning at chain position posOffset, fanning the batch out across
// runtime.NumCPU() goroutines.
func (CPUBackend) RunChainWalk(ctx context.Context, dev Device, space *chain.Space, starts []uint64, posOffset uint64, steps uint64) ([]uint64, error) {
	out := make([]uint64, len(starts))
	total := space.Total()

	workers := runtime.NumCPU()
	if workers > len(starts) {
		workers = len(starts)
	}
	if workers < 1 {
		return out, nil
	}

	var wg sync.WaitGroup
	chunk := (len(starts) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if lo >= len(starts) {
			break
		}
		if hi > len(starts) {
			hi = len(starts)
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for idx := lo; idx < hi; idx++ {
				select {
				case <-ctx.Done():
					return
				default:
				}
				i := starts[idx]
				for k := uint64(0); k < steps; k++ {
					pt := space.IndexToPlaintext(i)
					h := chain.NTLMHash(pt)
					i = chain.HashToIndex(h, space.ReductionOffset, total, posOffset+k)
				}
				out[idx] = i
			}
		}(lo, hi)
	}
	wg.Wait()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return out, nil
}

// RunFalseAlarmCheck walks each tuple's partial chain and performs the
// cheap reduction-equality check described in spec.md §4.5 step 4. It
// returns a candidate plaintext-space index per tuple, or 0 on mismatch.
// Callers MUST still perform the CPU-side super-false-alarm check
// (recompute the NTLM hash of the candidate plaintext and compare full
// digests) before treating a nonzero result as a confirmed crack.
func (CPUBackend) RunFalseAlarmCheck(ctx context.Context, dev Device, space *chain.Space, tuples []FalseAlarmTuple) ([]uint64, error) {
	out := make([]uint64, len(tuples))
	total := space.Total()

	workers := runtime.NumCPU()
	if workers > len(tuples) {
		workers = len(tuples)
	}
	if workers < 1 {
		return out, nil
	}

	var wg sync.WaitGroup
	chunk := (len(tuples) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if lo >= len(tuples) {
			break
		}
		if hi > len(tuples) {
			hi = len(tuples)
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for idx := lo; idx < hi; idx++ {
				select {
				case <-ctx.Done():
					return
				default:
				}
				t := tuples[idx]
				i := t.StartIndex
				for p := uint32(0); p < t.Position; p++ {
					pt := space.IndexToPlaintext(i)
					h := chain.NTLMHash(pt)
					i = chain.HashToIndex(h, space.ReductionOffset, total, uint64(p))
				}
				pt := space.IndexToPlaintext(i)
				h := chain.NTLMHash(pt)
				reduced := chain.HashToIndex(h, space.ReductionOffset, total, uint64(t.Position))
				want := (t.HashBaseIndex + uint64(t.Position)) % total
				if reduced == want {
					out[idx] = i
				}
			}
		}(lo, hi)
	}
	wg.Wait()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return out, nil
}
