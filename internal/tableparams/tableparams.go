// Package tableparams parses the filename-encoded parameters that
// describe a rainbow table: hash kind, charset, plaintext length range,
// table index, chain length, chain count, and part number.
package tableparams

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tmto-labs/rainbowforge/internal/charset"
)

// HashKind enumerates the hash families a filename can name. Only NTLM is
// supported in the compute-critical paths; LM parses but is rejected by
// the generator and by the rtlookup command (see DESIGN.md, Open Question
// 3). The chain package has no notion of hash kind and always computes
// NTLM.
type HashKind int

const (
	HashUndefined HashKind = iota
	HashNTLM
	HashLM
)

func (k HashKind) String() string {
	switch k {
	case HashNTLM:
		return "ntlm"
	case HashLM:
		return "lm"
	default:
		return "undefined"
	}
}

// ErrParseParams is the sentinel wrapped by every parse failure.
var ErrParseParams = errors.New("tableparams: filename does not parse to valid parameters")

// Params is the immutable, fully-validated parse result.
type Params struct {
	HashKind    HashKind
	CharsetName string
	Charset     []byte
	MinLen      int
	MaxLen      int
	TableIndex  uint64
	ChainLen    uint64
	NumChains   uint64
	Part        uint64
	Compressed  bool
}

// ReductionOffset is tableIndex * 65536, mixed into every reduction.
func (p *Params) ReductionOffset() uint64 { return p.TableIndex * 65536 }

// Filename renders the canonical filename for these parameters.
func (p *Params) Filename() string {
	ext := "rt"
	if p.Compressed {
		ext = "rtc"
	}
	return fmt.Sprintf("%s_%s#%d-%d_%d_%dx%d_%d.%s",
		p.HashKind, p.CharsetName, p.MinLen, p.MaxLen, p.TableIndex,
		p.ChainLen, p.NumChains, p.Part, ext)
}

// Parse parses a table filename (a bare name or a full path; directory
// components are stripped) into Params.
func Parse(name string) (*Params, error) {
	base := filepath.Base(name)

	var compressed bool
	switch {
	case strings.HasSuffix(base, ".rtc"):
		compressed = true
		base = strings.TrimSuffix(base, ".rtc")
	case strings.HasSuffix(base, ".rt"):
		base = strings.TrimSuffix(base, ".rt")
	default:
		return nil, fmt.Errorf("%w: %q: missing .rt/.rtc extension", ErrParseParams, name)
	}

	hashAndCharset, rest, ok := strings.Cut(base, "#")
	if !ok {
		return nil, fmt.Errorf("%w: %q: missing '#' separator", ErrParseParams, name)
	}

	hashStr, charsetName, ok := strings.Cut(hashAndCharset, "_")
	if !ok {
		return nil, fmt.Errorf("%w: %q: missing hash/charset separator", ErrParseParams, name)
	}

	var kind HashKind
	switch hashStr {
	case "ntlm":
		kind = HashNTLM
	case "lm":
		kind = HashLM
	default:
		return nil, fmt.Errorf("%w: %q: unrecognized hash kind %q", ErrParseParams, name, hashStr)
	}

	cs, err := charset.Lookup(charsetName)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrParseParams, name, err)
	}

	fields := strings.Split(rest, "_")
	if len(fields) != 4 {
		return nil, fmt.Errorf("%w: %q: expected 4 '_'-separated fields after '#', got %d", ErrParseParams, name, len(fields))
	}
	lenRange, tableIdxStr, chainStr, partStr := fields[0], fields[1], fields[2], fields[3]

	minStr, maxStr, ok := strings.Cut(lenRange, "-")
	if !ok {
		return nil, fmt.Errorf("%w: %q: malformed length range %q", ErrParseParams, name, lenRange)
	}
	minLen, err := strconv.Atoi(minStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrParseParams, name, err)
	}
	maxLen, err := strconv.Atoi(maxStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrParseParams, name, err)
	}

	tableIdx, err := strconv.ParseUint(tableIdxStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrParseParams, name, err)
	}

	chainLenStr, numChainsStr, ok := strings.Cut(chainStr, "x")
	if !ok {
		return nil, fmt.Errorf("%w: %q: malformed chainLenxnumChains %q", ErrParseParams, name, chainStr)
	}
	chainLen, err := strconv.ParseUint(chainLenStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrParseParams, name, err)
	}
	numChains, err := strconv.ParseUint(numChainsStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrParseParams, name, err)
	}

	part, err := strconv.ParseUint(partStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrParseParams, name, err)
	}

	if minLen < 1 || minLen > maxLen || maxLen >= 16 {
		return nil, fmt.Errorf("%w: %q: length range %d-%d out of [1,15]", ErrParseParams, name, minLen, maxLen)
	}
	if chainLen < 1 {
		return nil, fmt.Errorf("%w: %q: chainLen must be >= 1", ErrParseParams, name)
	}
	if numChains < 1 {
		return nil, fmt.Errorf("%w: %q: numChains must be >= 1", ErrParseParams, name)
	}

	return &Params{
		HashKind:    kind,
		CharsetName: charsetName,
		Charset:     cs,
		MinLen:      minLen,
		MaxLen:      maxLen,
		TableIndex:  tableIdx,
		ChainLen:    chainLen,
		NumChains:   numChains,
		Part:        part,
		Compressed:  compressed,
	}, nil
}
