package lookup

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tmto-labs/rainbowforge/internal/chain"
)

// PrecalcCache is the on-disk cache for precomputed endpoint arrays
// (spec.md §7): each entry is a pair of files, "rcracki.precalc.<n>"
// holding the packed u64 endpoint array and "rcracki.precalc.<n>.index"
// holding the ASCII sidecar key. A cache hit requires the sidecar string
// to match exactly.
type PrecalcCache struct {
	Dir string

	mu sync.Mutex
}

// sidecarKey renders the parameter string the sidecar file holds:
// "<hash>_<charset>#<minL>-<maxL>_<tableIndex>_<chainLen>:<hashHex>".
func sidecarKey(sp *chain.Space, charsetName string, chainLen uint64, hash [16]byte) string {
	tableIndex := sp.ReductionOffset / 65536
	return fmt.Sprintf("ntlm_%s#%d-%d_%d_%d:%s",
		charsetName, sp.MinLen, sp.MaxLen, tableIndex, chainLen, hex.EncodeToString(hash[:]))
}

// Load returns the cached endpoint array for (sp, chainLen, hash), if any
// sidecar file in Dir matches the exact key string.
func (c *PrecalcCache) Load(sp *chain.Space, charsetName string, chainLen uint64, hash [16]byte) ([]uint64, bool) {
	key := sidecarKey(sp, charsetName, chainLen, hash)

	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		return nil, false
	}
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".index") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(c.Dir, name))
		if err != nil {
			continue
		}
		if strings.TrimRight(string(data), "\n") != key {
			continue
		}
		dataPath := filepath.Join(c.Dir, strings.TrimSuffix(name, ".index"))
		packed, err := os.ReadFile(dataPath)
		if err != nil {
			return nil, false
		}
		return unpackUint64s(packed), true
	}
	return nil, false
}

// Store claims the first free "rcracki.precalc.<n>" slot (n in [0,2^20))
// using an exclusive create, so concurrent lookup runs never clobber each
// other's cache entries.
func (c *PrecalcCache) Store(sp *chain.Space, charsetName string, chainLen uint64, hash [16]byte, endpoints []uint64) error {
	key := sidecarKey(sp, charsetName, chainLen, hash)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return fmt.Errorf("lookup: precalc cache dir: %w", err)
	}

	const maxSlot = 1 << 20
	for n := 0; n < maxSlot; n++ {
		dataPath := filepath.Join(c.Dir, fmt.Sprintf("rcracki.precalc.%d", n))
		f, err := os.OpenFile(dataPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err != nil {
			if os.IsExist(err) {
				continue
			}
			return fmt.Errorf("lookup: claiming precalc slot %d: %w", n, err)
		}
		_, werr := f.Write(packUint64s(endpoints))
		cerr := f.Close()
		if werr != nil {
			return fmt.Errorf("lookup: writing precalc data: %w", werr)
		}
		if cerr != nil {
			return fmt.Errorf("lookup: closing precalc data: %w", cerr)
		}
		indexPath := dataPath + ".index"
		if err := os.WriteFile(indexPath, []byte(key+"\n"), 0o644); err != nil {
			return fmt.Errorf("lookup: writing precalc sidecar: %w", err)
		}
		return nil
	}
	return fmt.Errorf("lookup: no free precalc cache slot under %d", maxSlot)
}

func packUint64s(vals []uint64) []byte {
	buf := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(buf[i*8:(i+1)*8], v)
	}
	return buf
}

func unpackUint64s(buf []byte) []uint64 {
	n := len(buf) / 8
	out := make([]uint64, n)
	for i := 0; i < n; i++ {
		out[i] = binary.LittleEndian.Uint64(buf[i*8 : (i+1)*8])
	}
	return out
}
