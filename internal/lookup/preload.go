package lookup

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/tmto-labs/rainbowforge/internal/tableparams"
	"github.com/tmto-labs/rainbowforge/internal/tablefile"
	"github.com/tmto-labs/rainbowforge/internal/verifier"
)

// PreloadedTable is one decompressed/loaded table, ready for binary
// search: chains are guaranteed sorted by End for the table's lifetime.
// Compressed tables are fully decompressed into memory; uncompressed
// tables are left memory-mapped so a large sorted table never costs a
// full heap copy just to be searched.
type PreloadedTable struct {
	Path   string
	Params *tableparams.Params
	Table  tablefile.Table
	mmap   *tablefile.MmapTable // non-nil when Table is backed by a live mmap
}

// Close releases any mmap backing this table. Safe to call on a table
// that was decompressed into memory (a no-op in that case).
func (pt PreloadedTable) Close() error {
	if pt.mmap != nil {
		return pt.mmap.Close()
	}
	return nil
}

// Preload walks dir recursively for .rt/.rtc table files, loading each one
// (decompressing .rtc, verifying .rt files in Lookup mode) onto a bounded
// channel of the given capacity. The background goroutine blocks on send
// when the channel is full and resumes once the consumer drains it, per
// spec.md §4.5 step 2. Malformed tables are logged and skipped rather than
// aborting the whole walk.
func Preload(ctx context.Context, dir string, queueDepth int) (<-chan PreloadedTable, <-chan error) {
	if queueDepth <= 0 {
		queueDepth = 2
	}
	out := make(chan PreloadedTable, queueDepth)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			params, perr := tableparams.Parse(path)
			if perr != nil {
				return nil // not a table file; skip silently
			}

			pt, lerr := loadTable(path, params)
			if lerr != nil {
				log.Printf("lookup: skipping malformed table %s: %v", path, lerr)
				return nil
			}

			select {
			case out <- *pt:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})
		errCh <- err
		close(errCh)
	}()

	return out, errCh
}

func loadTable(path string, params *tableparams.Params) (*PreloadedTable, error) {
	if params.Compressed {
		f, oerr := os.Open(path)
		if oerr != nil {
			return nil, oerr
		}
		defer f.Close()
		chains, err := tablefile.ReadRTC(f, params.NumChains)
		if err != nil {
			return nil, err
		}
		return &PreloadedTable{Path: path, Params: params, Table: tablefile.SliceTable(chains)}, nil
	}

	res, verr := verifier.VerifyFile(path, params, verifier.Options{Mode: verifier.ModeLookup})
	if verr != nil {
		return nil, verr
	}
	if !res.OK {
		return nil, fmt.Errorf("table failed Lookup-mode verification: %v / %v", res.StructuralError, res.MismatchError)
	}
	mm, err := tablefile.OpenMmapTable(path)
	if err != nil {
		return nil, err
	}
	return &PreloadedTable{Path: path, Params: params, Table: mm, mmap: mm}, nil
}
