// Package chain implements the deterministic chain arithmetic at the heart
// of the tradeoff engine: the index<->plaintext mapping, the NTLM digest,
// the reduction back into index space, and the iterated chain walk.
//
// Every function here is pure: same inputs always produce the same
// outputs, with no I/O and no shared state, so the package is safe to call
// from any number of goroutines without synchronization.
package chain

import (
	"encoding/binary"

	"golang.org/x/crypto/md4"
)

// maxPlaintextLen is the hard clamp the original engine applies before
// hashing; NTLM plaintexts longer than this are truncated.
const maxPlaintextLen = 27

// Space describes the plaintext space a table's chains walk over: a
// charset, a length range, and the reduction parameters that turn a hash
// back into an index.
type Space struct {
	Charset         []byte
	MinLen          int
	MaxLen          int
	ReductionOffset uint64
	// cumulative[i] holds the number of plaintexts of length <= i+MinLen,
	// i.e. cumulative[i] == S[i+MinLen] in the spec's S[0..maxL] notation,
	// shifted so index 0 corresponds to length MinLen.
	cumulative []uint64
	total      uint64
	ntlm9Fast  bool
}

// NewSpace builds the auxiliary cumulative-count table S[minLen..maxLen]
// used by IndexToPlaintext, and detects whether the NTLM9 fast path
// applies (minLen == maxLen == 9 and charset size <= 128).
func NewSpace(cs []byte, minLen, maxLen int, tableIndex uint64) *Space {
	n := maxLen - minLen + 1
	cum := make([]uint64, n)
	var running uint64
	clen := uint64(len(cs))
	for i := 0; i < n; i++ {
		running += ipow(clen, uint64(minLen+i))
		cum[i] = running
	}
	return &Space{
		Charset:         cs,
		MinLen:          minLen,
		MaxLen:          maxLen,
		ReductionOffset: tableIndex * 65536,
		cumulative:      cum,
		total:           running,
		ntlm9Fast:       minLen == 9 && maxLen == 9 && len(cs) <= 128,
	}
}

func ipow(base, exp uint64) uint64 {
	result := uint64(1)
	for ; exp > 0; exp-- {
		result *= base
	}
	return result
}

// Total returns the size of the plaintext space, i.e. plaintextSpaceTotal.
func (s *Space) Total() uint64 { return s.total }

// IsNTLM9Fast reports whether IndexToPlaintext uses the NTLM9 fast path
// for this space.
func (s *Space) IsNTLM9Fast() bool { return s.ntlm9Fast }

// IndexToPlaintext maps a plaintext-space index to its plaintext string.
// When the space qualifies for the NTLM9 fast path, it uses the original
// engine's deliberately overlapping 8-bit-mask/7-bit-shift bit layout
// instead of the generic algorithm; the two are NOT interchangeable and
// produce different strings for the same index, by design, so that
// existing NTLM9 tables stay binary compatible.
func (s *Space) IndexToPlaintext(idx uint64) []byte {
	if s.ntlm9Fast {
		return s.indexToPlaintextNTLM9(idx)
	}
	return s.indexToPlaintextGeneric(idx)
}

func (s *Space) indexToPlaintextGeneric(idx uint64) []byte {
	plen := s.MaxLen
	var prev uint64
	for i := 0; i < len(s.cumulative); i++ {
		if idx < s.cumulative[i] {
			plen = s.MinLen + i
			if i > 0 {
				prev = s.cumulative[i-1]
			}
			break
		}
	}
	r := idx - prev
	clen := uint64(len(s.Charset))
	out := make([]byte, plen)
	for j := plen - 1; j >= 0; j-- {
		out[j] = s.Charset[r%clen]
		r /= clen
	}
	return out
}

// indexToPlaintextNTLM9 replicates the original engine's nine-field
// bit-slice exactly: each of the nine characters is drawn from an 8-bit
// mask of the running index, but the index is only shifted by 7 bits
// between characters, so consecutive fields overlap by one bit.
func (s *Space) indexToPlaintextNTLM9(idx uint64) []byte {
	clen := uint64(len(s.Charset))
	out := make([]byte, 9)
	for i := 0; i < 9; i++ {
		out[i] = s.Charset[(idx&0xff)%clen]
		idx >>= 7
	}
	return out
}

// NTLMHash computes the NTLM digest of a plaintext: UTF-16LE-encode the
// (length-clamped) plaintext and run it through MD4. For the plaintext
// lengths this engine ever produces (<= maxPlaintextLen wide chars, i.e.
// well under MD4's 56-byte single-block threshold), this is exactly
// equivalent to the original engine's hand-rolled single-block MD4
// compression: the same padding byte, the same zero fill, and the same
// bit-length trailer fall out of the standard library's general-purpose
// padding for any message this short.
func NTLMHash(plaintext []byte) [16]byte {
	if len(plaintext) > maxPlaintextLen {
		plaintext = plaintext[:maxPlaintextLen]
	}
	h := md4.New()
	var wide [2 * maxPlaintextLen]byte
	n := 0
	for _, b := range plaintext {
		wide[n] = b
		wide[n+1] = 0
		n += 2
	}
	h.Write(wide[:n])
	var out [16]byte
	copy(out[:], h.Sum(nil))
	return out
}

// HashToIndex is the reduction: it folds the first 8 bytes of a digest,
// a per-table reduction offset, and a chain position back into the
// plaintext space.
func HashToIndex(h [16]byte, reductionOffset uint64, total uint64, position uint64) uint64 {
	v := binary.LittleEndian.Uint64(h[0:8])
	return (v + reductionOffset + position) % total
}

// GenerateRainbowChain walks a chain of chainLen indices starting at
// start, returning the final index (the chain's end). It performs
// chainLen-1 reduce(hash(plaintext)) steps.
func (s *Space) GenerateRainbowChain(start uint64, chainLen uint64) uint64 {
	i := start
	total := s.total
	for p := uint64(0); p < chainLen-1; p++ {
		pt := s.IndexToPlaintext(i)
		h := NTLMHash(pt)
		i = HashToIndex(h, s.ReductionOffset, total, p)
	}
	return i
}
