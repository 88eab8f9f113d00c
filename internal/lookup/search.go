package lookup

import (
	"context"
	"runtime"
	"sync"

	"github.com/tmto-labs/rainbowforge/internal/chain"
	"github.com/tmto-labs/rainbowforge/internal/compute"
	"github.com/tmto-labs/rainbowforge/internal/tablefile"
)

// potentialMatch is a binary-search hit: a chain start index paired with
// the chain position whose precomputed endpoint matched.
type potentialMatch struct {
	targetIdx int // index into the ts slice passed to searchOneTable
	start     uint64
	position  uint32
}

// searchOneTable runs steps 3 and 4 of the lookup pipeline against one
// preloaded table: binary search fanned out across CPU cores, then a
// false-alarm check via the compute backend, then a CPU-side
// super-false-alarm elimination pass before writing confirmed cracks to
// the pot file.
func (e *Engine) searchOneTable(ctx context.Context, sp *chain.Space, chainLen uint64, pt PreloadedTable, ts []*target) error {
	matches := e.binarySearchTable(pt, ts)
	if len(matches) == 0 {
		for _, t := range ts {
			if t.state == StatePrecomputed {
				t.state = StateSearched
			}
		}
		return nil
	}

	tuples := make([]compute.FalseAlarmTuple, len(matches))
	total := sp.Total()
	for i, m := range matches {
		hashBase := chain.HashToIndex(ts[m.targetIdx].Hash, sp.ReductionOffset, total, 0)
		tuples[i] = compute.FalseAlarmTuple{
			StartIndex:    m.start,
			Position:      m.position,
			HashBaseIndex: hashBase,
			HashID:        m.targetIdx,
		}
	}

	dev := e.Backend.EnumerateDevices()[0]
	candidates, err := e.Backend.RunFalseAlarmCheck(ctx, dev, sp, tuples)
	if err != nil {
		return err
	}

	for i, idx := range candidates {
		if idx == 0 {
			continue // false alarm, per Backend.RunFalseAlarmCheck's "emit 0" contract
		}
		t := ts[tuples[i].HashID]
		if t.state == StateCracked {
			continue
		}
		pt := sp.IndexToPlaintext(idx)
		h := chain.NTLMHash(pt)
		if h != t.Hash {
			continue // super false alarm: index collision, hash doesn't actually match
		}
		t.plaintext = pt
		t.state = StateCracked
		if e.Pot != nil {
			_ = e.Pot.Append(h, pt) // JTR/hashcat form chosen by the Pot's configured Format
		}
	}

	for _, t := range ts {
		if t.state == StatePrecomputed {
			t.state = StateSearched
		}
	}
	return nil
}

// binarySearchTable fans the chain positions 0..chainLen-2 out across CPU
// cores in a strided pattern; each worker binary-searches the table's end
// column for every not-yet-cracked hash's endpoint at its assigned
// positions.
func (e *Engine) binarySearchTable(pt PreloadedTable, ts []*target) []potentialMatch {
	numPositions := 0
	for _, t := range ts {
		if len(t.endpoints) > numPositions {
			numPositions = len(t.endpoints)
		}
	}
	if numPositions == 0 {
		return nil
	}

	workers := runtime.NumCPU()
	if workers > numPositions {
		workers = numPositions
	}
	if workers < 1 {
		return nil
	}

	var mu sync.Mutex
	var all []potentialMatch
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			var local []potentialMatch
			for p := w; p < numPositions; p += workers {
				for ti, t := range ts {
					if t.state == StateCracked || p >= len(t.endpoints) {
						continue
					}
					target := t.endpoints[p]
					for _, idx := range binarySearchEnds(pt.Table, target) {
						local = append(local, potentialMatch{
							targetIdx: ti,
							start:     pt.Table.At(idx).Start,
							position:  uint32(p),
						})
					}
				}
			}
			if len(local) > 0 {
				mu.Lock()
				all = append(all, local...)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return all
}

// binarySearchEnds returns the indices of every chain whose End equals
// target, using a standard binary descent that falls back to a linear
// scan once the window narrows to 8 entries or fewer. table may be backed
// by an in-memory slice or a live mmap; EndAt is the only column touched
// during the descent, so a mapped table never pays for a full record
// decode just to compare ends.
func binarySearchEnds(table tablefile.Table, target uint64) []int {
	n := table.Len()
	lo, hi := 0, n
	for hi-lo > 8 {
		mid := lo + (hi-lo)/2
		if table.EndAt(mid) < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	var out []int
	for i := lo; i < hi; i++ {
		if table.EndAt(i) == target {
			out = append(out, i)
		}
	}
	// The descent above lands on the first candidate >= target; scan
	// forward past it too in case of duplicate end values clustered at
	// the narrowed window's boundary.
	for i := hi; i < n && table.EndAt(i) == target; i++ {
		out = append(out, i)
	}
	return out
}
