// Package tablefile reads and writes rainbow table chain files: the
// uncompressed (start,end) record format (.rt) and the RTC v3 bit-packed
// compressed format (.rtc, read-only per spec).
package tablefile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// RecordSize is the on-disk size of one uncompressed (start,end) chain
// record: two little-endian u64 values.
const RecordSize = 16

// ErrBadFormat is returned for malformed table files.
var ErrBadFormat = errors.New("tablefile: malformed table data")

// Chain is a single (start,end) index pair bounding one rainbow chain.
type Chain struct {
	Start uint64
	End   uint64
}

// EncodeChain writes one chain's 16-byte record into buf, which must be
// at least RecordSize bytes.
func EncodeChain(buf []byte, c Chain) {
	binary.LittleEndian.PutUint64(buf[0:8], c.Start)
	binary.LittleEndian.PutUint64(buf[8:16], c.End)
}

// DecodeChain reads one chain's 16-byte record from buf.
func DecodeChain(buf []byte) Chain {
	return Chain{
		Start: binary.LittleEndian.Uint64(buf[0:8]),
		End:   binary.LittleEndian.Uint64(buf[8:16]),
	}
}

// ReadAll reads every complete 16-byte record from r as an uncompressed
// table. A trailing partial record (from an in-flight write) is ignored.
func ReadAll(r io.Reader) ([]Chain, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("tablefile: read: %w", err)
	}
	n := len(data) / RecordSize
	out := make([]Chain, n)
	for i := 0; i < n; i++ {
		out[i] = DecodeChain(data[i*RecordSize : (i+1)*RecordSize])
	}
	return out, nil
}

// ReadFile opens path and reads it as an uncompressed table.
func ReadFile(path string) ([]Chain, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tablefile: open: %w", err)
	}
	defer f.Close()
	return ReadAll(f)
}

// WriteRecords appends the given chains to w in order, 16 bytes each.
func WriteRecords(w io.Writer, chains []Chain) error {
	buf := make([]byte, RecordSize*len(chains))
	for i, c := range chains {
		EncodeChain(buf[i*RecordSize:(i+1)*RecordSize], c)
	}
	_, err := w.Write(buf)
	return err
}

// WriteZeroRecords writes n zero-valued (placeholder) records to w.
func WriteZeroRecords(w io.Writer, n int) error {
	if n <= 0 {
		return nil
	}
	buf := make([]byte, RecordSize*n)
	_, err := w.Write(buf)
	return err
}

// Table is a random-access view over a table's chain records, satisfied
// by both an in-memory SliceTable (decompressed .rtc data) and an
// MmapTable (uncompressed .rt data left in the kernel page cache), so the
// lookup binary-search phase can work against either without caring which
// one backs a given preloaded table.
type Table interface {
	Len() int
	At(i int) Chain
	EndAt(i int) uint64
}

// SliceTable adapts an in-memory []Chain to the Table interface.
type SliceTable []Chain

func (s SliceTable) Len() int          { return len(s) }
func (s SliceTable) At(i int) Chain    { return s[i] }
func (s SliceTable) EndAt(i int) uint64 { return s[i].End }
