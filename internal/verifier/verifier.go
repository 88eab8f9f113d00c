// Package verifier certifies the structural and cryptographic integrity
// of generated or sorted rainbow tables, per the three modes described in
// spec.md §4.4: Generated, Lookup, and Quick.
package verifier

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/tmto-labs/rainbowforge/internal/chain"
	"github.com/tmto-labs/rainbowforge/internal/tablefile"
	"github.com/tmto-labs/rainbowforge/internal/tableparams"
)

// Mode selects which structural contract a table must satisfy.
type Mode int

const (
	// ModeGenerated checks strictly sequential start indices and
	// non-zero ends; it is the only mode that may truncate.
	ModeGenerated Mode = iota
	// ModeLookup checks monotonically non-decreasing, non-zero ends;
	// truncation is never permitted.
	ModeLookup
	// ModeQuick skips all structural checks and recomputes 5 random
	// chains on the CPU as a short-circuit sanity check; it does not run
	// the post-structural K-random-chain pass the other two modes do.
	ModeQuick
)

// ErrChainMismatch is returned when a recomputed endpoint does not match
// the stored endpoint.
var ErrChainMismatch = errors.New("verifier: recomputed endpoint does not match stored endpoint")

// ErrStructural is returned for a structural violation (bad start/end
// ordering, zero end, or out-of-range index).
var ErrStructural = errors.New("verifier: structural check failed")

// Options configures a verification run.
type Options struct {
	Mode Mode
	// Truncate, in ModeGenerated only, rewrites the file up to (but not
	// including) the first structurally invalid chain.
	Truncate bool
	// NumRandomChains overrides the default post-structural sample size
	// (50 for NTLM9 tables, 100 otherwise). Zero means "use the default".
	NumRandomChains int
}

// Result reports what a verification run found.
type Result struct {
	OK              bool
	ChainsChecked   int
	TruncatedAt     int // -1 if the file was not truncated
	StructuralError error
	MismatchError   error
}

func defaultRandomChainCount(sp *chain.Space) int {
	if sp.IsNTLM9Fast() {
		return 50
	}
	return 100
}

// VerifyFile verifies the table at path against params, applying opts.
func VerifyFile(path string, params *tableparams.Params, opts Options) (*Result, error) {
	chains, err := loadChains(path, params)
	if err != nil {
		return nil, err
	}

	sp := chain.NewSpace(params.Charset, params.MinLen, params.MaxLen, params.TableIndex)

	if opts.Mode == ModeQuick {
		return verifyQuick(chains, sp, params)
	}

	res := &Result{TruncatedAt: -1}

	switch opts.Mode {
	case ModeGenerated:
		if err := verifyGeneratedStructure(chains, sp, params, opts, res); err != nil {
			if opts.Truncate && res.TruncatedAt >= 0 {
				if terr := truncateFile(path, res.TruncatedAt); terr != nil {
					return nil, fmt.Errorf("verifier: truncating after structural failure: %w", terr)
				}
			}
			res.StructuralError = err
			return res, nil
		}
	case ModeLookup:
		if err := verifyLookupStructure(chains, sp, res); err != nil {
			res.StructuralError = err
			return res, nil
		}
	default:
		return nil, fmt.Errorf("verifier: unknown mode %d", opts.Mode)
	}

	n := opts.NumRandomChains
	if n == 0 {
		n = defaultRandomChainCount(sp)
	}
	if err := verifyRandomSample(chains, sp, params, n); err != nil {
		res.MismatchError = err
		return res, nil
	}

	res.OK = true
	res.ChainsChecked = len(chains)
	return res, nil
}

func loadChains(path string, params *tableparams.Params) ([]tablefile.Chain, error) {
	if !params.Compressed {
		return tablefile.ReadFile(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("verifier: open: %w", err)
	}
	defer f.Close()
	return tablefile.ReadRTC(f, params.NumChains)
}

func verifyGeneratedStructure(chains []tablefile.Chain, sp *chain.Space, params *tableparams.Params, opts Options, res *Result) error {
	expectedStart := params.Part * params.NumChains
	total := sp.Total()
	for i, c := range chains {
		if c.Start != expectedStart+uint64(i) {
			res.TruncatedAt = i
			return fmt.Errorf("%w: chain %d: start=%d, want %d", ErrStructural, i, c.Start, expectedStart+uint64(i))
		}
		if c.End == 0 {
			res.TruncatedAt = i
			return fmt.Errorf("%w: chain %d: end is zero", ErrStructural, i)
		}
		if c.Start >= total || c.End >= total {
			res.TruncatedAt = i
			return fmt.Errorf("%w: chain %d: index out of range [0,%d)", ErrStructural, i, total)
		}
	}
	return nil
}

func verifyLookupStructure(chains []tablefile.Chain, sp *chain.Space, res *Result) error {
	total := sp.Total()
	var prevEnd uint64
	for i, c := range chains {
		if c.End == 0 {
			return fmt.Errorf("%w: chain %d: end is zero", ErrStructural, i)
		}
		if i > 0 && c.End < prevEnd {
			return fmt.Errorf("%w: chain %d: end=%d decreases from previous end=%d", ErrStructural, i, c.End, prevEnd)
		}
		if c.Start >= total || c.End >= total {
			return fmt.Errorf("%w: chain %d: index out of range [0,%d)", ErrStructural, i, total)
		}
		prevEnd = c.End
	}
	return nil
}

func verifyRandomSample(chains []tablefile.Chain, sp *chain.Space, params *tableparams.Params, n int) error {
	if len(chains) == 0 {
		return nil
	}
	if n > len(chains) {
		n = len(chains)
	}
	indices, err := randomIndices(len(chains), n)
	if err != nil {
		return err
	}
	for _, idx := range indices {
		c := chains[idx]
		got := sp.GenerateRainbowChain(c.Start, params.ChainLen)
		if got != c.End {
			return fmt.Errorf("%w: chain %d: recomputed end=%d, stored end=%d", ErrChainMismatch, idx, got, c.End)
		}
	}
	return nil
}

func verifyQuick(chains []tablefile.Chain, sp *chain.Space, params *tableparams.Params) (*Result, error) {
	res := &Result{TruncatedAt: -1}
	if len(chains) == 0 {
		res.OK = true
		return res, nil
	}
	if err := verifyRandomSample(chains, sp, params, 5); err != nil {
		res.MismatchError = err
		return res, nil
	}
	sampleSize := 5
	if len(chains) < sampleSize {
		sampleSize = len(chains)
	}
	res.OK = true
	res.ChainsChecked = sampleSize
	return res, nil
}

// randomIndices draws n distinct indices from [0,max) using a
// cryptographic RNG, per spec.md §4.4's "chains are selected with a
// cryptographic RNG" requirement.
func randomIndices(max, n int) ([]int, error) {
	seen := make(map[int]struct{}, n)
	out := make([]int, 0, n)
	bound := big.NewInt(int64(max))
	for len(out) < n {
		v, err := rand.Int(rand.Reader, bound)
		if err != nil {
			return nil, fmt.Errorf("verifier: reading random index: %w", err)
		}
		idx := int(v.Int64())
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}
	return out, nil
}

func truncateFile(path string, atChainIndex int) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Truncate(int64(atChainIndex) * tablefile.RecordSize)
}
