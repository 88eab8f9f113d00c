package lookup

import (
	"context"
	"sync"

	"github.com/tmto-labs/rainbowforge/internal/chain"
	"github.com/tmto-labs/rainbowforge/internal/compute"
)

// precomputeAll fills in each target's endpoints array, checking the
// on-disk cache first and falling back to the GPU-shaped per-position
// kernel described in spec.md §4.5 step 1.
func (e *Engine) precomputeAll(ctx context.Context, sp *chain.Space, charsetName string, chainLen uint64, ts []*target) error {
	var uncached []*target
	if e.Cache != nil {
		for _, t := range ts {
			if ep, ok := e.Cache.Load(sp, charsetName, chainLen, t.Hash); ok {
				t.endpoints = ep
				t.state = StatePrecomputed
				continue
			}
			uncached = append(uncached, t)
		}
	} else {
		uncached = ts
	}
	if len(uncached) == 0 {
		return nil
	}

	hashes := make([][16]byte, len(uncached))
	for i, t := range uncached {
		hashes[i] = t.Hash
	}

	endpoints, err := e.precomputeEndpoints(ctx, sp, hashes, chainLen)
	if err != nil {
		return err
	}

	for i, t := range uncached {
		t.endpoints = endpoints[i]
		t.state = StatePrecomputed
		if e.Cache != nil {
			e.Cache.Store(sp, charsetName, chainLen, t.Hash, t.endpoints)
		}
	}
	return nil
}

// precomputeEndpoints computes, for every hash and every chain position p
// in [0, chainLen-1), the truncated endpoint E(h, p): the index reached by
// starting at hash_to_index(h, reductionOffset, total, p) and walking
// chainLen-2-p more reduce/hash steps.
//
// Positions are assigned to devices round-robin, descending from
// chainLen-2, mirroring the original engine's per-device stride
// assignment. Unlike that engine, results are written directly into their
// position's slot as each device finishes, so no separate
// compute-then-reverse pass is needed to restore ascending order.
func (e *Engine) precomputeEndpoints(ctx context.Context, sp *chain.Space, hashes [][16]byte, chainLen uint64) ([][]uint64, error) {
	numPositions := int(chainLen - 1)
	results := make([][]uint64, len(hashes))
	for i := range results {
		results[i] = make([]uint64, numPositions)
	}
	if numPositions == 0 {
		return results, nil
	}

	devices := e.Backend.EnumerateDevices()
	jobsPerDevice := make([][]int, len(devices))
	for p := numPositions - 1; p >= 0; p-- {
		d := (numPositions - 1 - p) % len(devices)
		jobsPerDevice[d] = append(jobsPerDevice[d], p)
	}

	total := sp.Total()
	reductionOffset := sp.ReductionOffset

	var wg sync.WaitGroup
	errCh := make(chan error, len(devices))
	for d, dev := range devices {
		positions := jobsPerDevice[d]
		if len(positions) == 0 {
			continue
		}
		wg.Add(1)
		go func(dev compute.Device, positions []int) {
			defer wg.Done()
			for _, p := range positions {
				starts := make([]uint64, len(hashes))
				for i, h := range hashes {
					starts[i] = chain.HashToIndex(h, reductionOffset, total, uint64(p))
				}
				steps := uint64(numPositions - 1 - p)
				out, err := e.Backend.RunChainWalk(ctx, dev, sp, starts, uint64(p+1), steps)
				if err != nil {
					select {
					case errCh <- err:
					default:
					}
					return
				}
				for i := range hashes {
					results[i][p] = out[i]
				}
			}
		}(dev, positions)
	}
	wg.Wait()

	select {
	case err := <-errCh:
		return nil, err
	default:
	}
	return results, nil
}
