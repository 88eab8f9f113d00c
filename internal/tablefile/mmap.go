package tablefile

import (
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

// MmapTable is a read-only view of an uncompressed .rt file mapped
// directly into the process address space, avoiding a full heap copy for
// large sorted tables the lookup preloader hands to the binary-search
// phase.
type MmapTable struct {
	file *os.File
	mm   mmap.MMap
}

// OpenMmapTable maps path read-only. Callers must call Close.
func OpenMmapTable(path string) (*MmapTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tablefile: open for mmap: %w", err)
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("tablefile: mmap: %w", err)
	}
	return &MmapTable{file: f, mm: m}, nil
}

// Len returns the number of complete chain records mapped.
func (t *MmapTable) Len() int {
	return len(t.mm) / RecordSize
}

// At returns the i-th chain record without copying the whole table.
func (t *MmapTable) At(i int) Chain {
	off := i * RecordSize
	return DecodeChain(t.mm[off : off+RecordSize])
}

// EndAt returns just the end index of the i-th record, the column the
// binary-search phase searches over.
func (t *MmapTable) EndAt(i int) uint64 {
	off := i*RecordSize + 8
	return decodeLE64(t.mm[off : off+8])
}

func decodeLE64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = (v << 8) | uint64(b[i])
	}
	return v
}

// Close unmaps and closes the underlying file.
func (t *MmapTable) Close() error {
	if err := t.mm.Unmap(); err != nil {
		t.file.Close()
		return fmt.Errorf("tablefile: unmap: %w", err)
	}
	return t.file.Close()
}
