// Package generator drives multi-device-parallel rainbow chain
// generation: a resumable, lock-protected, ordered-append write loop
// around the compute.Backend chain-walk kernel.
package generator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tmto-labs/rainbowforge/internal/chain"
	"github.com/tmto-labs/rainbowforge/internal/compute"
	"github.com/tmto-labs/rainbowforge/internal/filelock"
	"github.com/tmto-labs/rainbowforge/internal/tableparams"
	"github.com/tmto-labs/rainbowforge/internal/tablefile"
	"github.com/tmto-labs/rainbowforge/internal/verifier"
)

// Manager coordinates one table-file generation run.
type Manager struct {
	Params             *tableparams.Params
	Backend            compute.Backend
	OutputDir          string
	LockTimeout        time.Duration
	MaxChainLenPerPass uint64
}

// Progress reports how far a run got, for a caller that wants to log or
// expose it through the status server.
type Progress struct {
	ChainsDone  uint64
	ChainsTotal uint64
}

// ProgressFunc is invoked once, when a run that generated chains
// completes.
type ProgressFunc func(Progress)

// Run generates (or resumes generating) the table file this Manager's
// Params describe. Every remaining chain is walked first; the records are
// then appended in one write, in ascending start order. Only NTLM tables
// are accepted.
func (m *Manager) Run(ctx context.Context, onProgress ProgressFunc) error {
	if m.Params.HashKind != tableparams.HashNTLM {
		return fmt.Errorf("generator: unsupported hash kind %s", m.Params.HashKind)
	}
	if m.LockTimeout == 0 {
		m.LockTimeout = 30 * time.Second
	}
	if m.MaxChainLenPerPass == 0 {
		m.MaxChainLenPerPass = 450000
	}

	path := filepath.Join(m.OutputDir, m.Params.Filename())
	logPath := path + ".log"

	lock := filelock.New(path)
	if err := lock.Acquire(m.LockTimeout); err != nil {
		return fmt.Errorf("generator: acquiring lock: %w", err)
	}
	defer lock.Release()

	done, err := m.resume(path)
	if err != nil {
		return err
	}

	if done >= m.Params.NumChains {
		return nil // already complete
	}

	sp := chain.NewSpace(m.Params.Charset, m.Params.MinLen, m.Params.MaxLen, m.Params.TableIndex)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("generator: opening %q: %w", path, err)
	}
	defer f.Close()

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("generator: opening log %q: %w", logPath, err)
	}
	defer logFile.Close()

	remaining := m.Params.NumChains - done
	starts := make([]uint64, remaining)
	base := m.Params.Part*m.Params.NumChains + done
	for i := range starts {
		starts[i] = base + uint64(i)
	}

	ends, err := m.walkAllDevices(ctx, sp, starts)
	if err != nil {
		return err
	}

	chains := make([]tablefile.Chain, len(starts))
	for i := range starts {
		chains[i] = tablefile.Chain{Start: starts[i], End: ends[i]}
	}
	if err := tablefile.WriteRecords(f, chains); err != nil {
		return fmt.Errorf("generator: writing records: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("generator: syncing table file: %w", err)
	}

	fmt.Fprintf(logFile, "completed %d..%d of %d chains at %s\n",
		done, m.Params.NumChains, m.Params.NumChains, time.Now().UTC().Format(time.RFC3339))

	if onProgress != nil {
		onProgress(Progress{ChainsDone: m.Params.NumChains, ChainsTotal: m.Params.NumChains})
	}
	return nil
}

// resume inspects an existing partial table file, truncating any
// structurally broken tail (an in-flight write interrupted by a crash)
// before reporting how many chains are already safely on disk.
func (m *Manager) resume(path string) (uint64, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("generator: stat %q: %w", path, err)
	}

	res, err := verifier.VerifyFile(path, m.Params, verifier.Options{
		Mode:     verifier.ModeGenerated,
		Truncate: true,
	})
	if err != nil {
		return 0, fmt.Errorf("generator: resuming %q: %w", path, err)
	}
	if res.OK {
		return uint64(res.ChainsChecked), nil
	}
	if res.TruncatedAt >= 0 {
		return uint64(res.TruncatedAt), nil
	}
	// A mismatch (not a structural break) means every recorded chain is
	// still in sequence; keep them and let the caller re-verify later.
	chains, err := tablefile.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("generator: re-reading %q after verify: %w", path, err)
	}
	return uint64(len(chains)), nil
}

// walkAllDevices fans starts out across every device the backend
// exposes, walking each device's slice through chainLen-1 reduce/hash
// steps in MaxChainLenPerPass-sized bursts, then collates the results
// back into the caller's original order so the write-out stays strictly
// sequential by start index regardless of which device finished first.
func (m *Manager) walkAllDevices(ctx context.Context, sp *chain.Space, starts []uint64) ([]uint64, error) {
	devices := m.Backend.EnumerateDevices()
	if len(devices) == 0 {
		return nil, fmt.Errorf("generator: backend reports no devices")
	}

	chainLen := m.Params.ChainLen
	if chainLen == 0 {
		return nil, fmt.Errorf("generator: chain length must be > 0")
	}
	totalSteps := chainLen - 1 // the first index in a chain costs no step

	slices := splitAcrossDevices(starts, len(devices))
	results := make([][]uint64, len(devices))

	type outcome struct {
		idx int
		out []uint64
		err error
	}
	outcomes := make(chan outcome, len(devices))

	for i, dev := range devices {
		slice := slices[i]
		go func(i int, dev compute.Device, slice []uint64) {
			out, err := m.walkOneDevice(ctx, dev, sp, slice, totalSteps)
			outcomes <- outcome{idx: i, out: out, err: err}
		}(i, dev, slice)
	}

	var firstErr error
	for range devices {
		o := <-outcomes
		if o.err != nil && firstErr == nil {
			firstErr = o.err
			continue
		}
		results[o.idx] = o.out
	}
	if firstErr != nil {
		return nil, firstErr
	}

	return mergeAcrossDevices(results, len(starts)), nil
}

// walkOneDevice runs the chain walk for one device in MaxChainLenPerPass
// bursts, so a single device never gets a single oversized kernel launch
// for very long chains.
func (m *Manager) walkOneDevice(ctx context.Context, dev compute.Device, sp *chain.Space, starts []uint64, totalSteps uint64) ([]uint64, error) {
	current := append([]uint64(nil), starts...)
	var offset uint64
	for offset < totalSteps {
		burst := m.MaxChainLenPerPass
		if remaining := totalSteps - offset; burst > remaining {
			burst = remaining
		}
		next, err := m.Backend.RunChainWalk(ctx, dev, sp, current, offset, burst)
		if err != nil {
			return nil, fmt.Errorf("generator: device %q: %w", dev.Name, err)
		}
		current = next
		offset += burst
	}
	return current, nil
}

// splitAcrossDevices divides starts into len(devices) contiguous,
// order-preserving slices.
func splitAcrossDevices(starts []uint64, numDevices int) [][]uint64 {
	out := make([][]uint64, numDevices)
	if len(starts) == 0 {
		for i := range out {
			out[i] = nil
		}
		return out
	}
	chunk := (len(starts) + numDevices - 1) / numDevices
	for i := 0; i < numDevices; i++ {
		lo := i * chunk
		if lo >= len(starts) {
			out[i] = nil
			continue
		}
		hi := lo + chunk
		if hi > len(starts) {
			hi = len(starts)
		}
		out[i] = starts[lo:hi]
	}
	return out
}

func mergeAcrossDevices(results [][]uint64, total int) []uint64 {
	out := make([]uint64, 0, total)
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}
