// Package lookup implements the CPU/GPU-shaped hash-cracking pipeline:
// per-hash endpoint precomputation, background table preloading,
// binary-search fan-out, and GPU-assisted false-alarm checking.
package lookup

import (
	"context"
	"fmt"

	"github.com/tmto-labs/rainbowforge/internal/chain"
	"github.com/tmto-labs/rainbowforge/internal/compute"
	"github.com/tmto-labs/rainbowforge/internal/potfile"
)

// State is a target hash's position in the per-hash state machine named
// in spec.md §4.5: Loaded -> Precomputed -> {Cracked | Searched} ->
// Cracked_or_Unsolved.
type State int

const (
	StateLoaded State = iota
	StatePrecomputed
	StateCracked
	StateSearched
)

// Target is one hash digest the engine is trying to crack.
type Target struct {
	ID   int
	Hash [16]byte
}

// target tracks one Target's progress through the pipeline.
type target struct {
	Target
	state      State
	endpoints  []uint64 // E_i[0..chainLen-2], indexed by chain position
	plaintext  []byte
}

// Result reports the final disposition of one target hash.
type Result struct {
	TargetID  int
	Hash      [16]byte
	Plaintext []byte
	Cracked   bool
}

// Engine drives the lookup pipeline against one charset/length/chain-length
// table family. All tables fed to Run must share compatible chain
// parameters (reduction offset, chain length) for the precomputed
// endpoints to be meaningful against them.
type Engine struct {
	Backend compute.Backend
	Pot     *potfile.File
	Cache   *PrecalcCache // optional; nil disables the on-disk precompute cache
}

// Run precomputes endpoints for every target, then streams tables from
// tableDir (via Preload) through binary search and false-alarm checking
// until every hash is cracked or every table has been searched.
func (e *Engine) Run(ctx context.Context, sp *chain.Space, charsetName string, chainLen uint64, tableDir string, targets []Target, queueDepth int) ([]Result, error) {
	if len(targets) == 0 {
		return nil, nil
	}

	ts := make([]*target, len(targets))
	for i, t := range targets {
		ts[i] = &target{Target: t, state: StateLoaded}
	}

	if err := e.precomputeAll(ctx, sp, charsetName, chainLen, ts); err != nil {
		return nil, fmt.Errorf("lookup: precompute: %w", err)
	}

	tables, errs := Preload(ctx, tableDir, queueDepth)

	for pt := range tables {
		if allCracked(ts) {
			pt.Close()
			continue // drain the channel so the preloader goroutine can exit
		}
		err := e.searchOneTable(ctx, sp, chainLen, pt, ts)
		pt.Close()
		if err != nil {
			return nil, fmt.Errorf("lookup: searching %s: %w", pt.Path, err)
		}
	}
	if err := <-errs; err != nil {
		return nil, fmt.Errorf("lookup: preloading tables: %w", err)
	}

	out := make([]Result, len(ts))
	for i, t := range ts {
		out[i] = Result{
			TargetID:  t.ID,
			Hash:      t.Hash,
			Plaintext: t.plaintext,
			Cracked:   t.state == StateCracked,
		}
	}
	return out, nil
}

func allCracked(ts []*target) bool {
	for _, t := range ts {
		if t.state != StateCracked {
			return false
		}
	}
	return true
}
