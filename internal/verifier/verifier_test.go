package verifier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tmto-labs/rainbowforge/internal/chain"
	"github.com/tmto-labs/rainbowforge/internal/charset"
	"github.com/tmto-labs/rainbowforge/internal/tableparams"
	"github.com/tmto-labs/rainbowforge/internal/tablefile"
)

func testParams(t *testing.T) *tableparams.Params {
	t.Helper()
	cs, err := charset.Lookup("ascii-32-95")
	if err != nil {
		t.Fatalf("charset.Lookup: %v", err)
	}
	return &tableparams.Params{
		HashKind:    tableparams.HashNTLM,
		CharsetName: "ascii-32-95",
		Charset:     cs,
		MinLen:      8,
		MaxLen:      8,
		TableIndex:  0,
		ChainLen:    100,
		NumChains:   10,
		Part:        0,
		Compressed:  false,
	}
}

func writeTable(t *testing.T, dir string, chains []tablefile.Chain) string {
	t.Helper()
	path := filepath.Join(dir, "table.rt")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := tablefile.WriteRecords(f, chains); err != nil {
		t.Fatalf("WriteRecords: %v", err)
	}
	return path
}

func genuineChains(params *tableparams.Params, n int) []tablefile.Chain {
	sp := chain.NewSpace(params.Charset, params.MinLen, params.MaxLen, params.TableIndex)
	out := make([]tablefile.Chain, n)
	for i := 0; i < n; i++ {
		start := params.Part*params.NumChains + uint64(i)
		out[i] = tablefile.Chain{Start: start, End: sp.GenerateRainbowChain(start, params.ChainLen)}
	}
	return out
}

func TestVerifyFile_Generated_AllValid(t *testing.T) {
	params := testParams(t)
	chains := genuineChains(params, 10)
	path := writeTable(t, t.TempDir(), chains)

	res, err := VerifyFile(path, params, Options{Mode: ModeGenerated})
	if err != nil {
		t.Fatalf("VerifyFile: %v", err)
	}
	if !res.OK {
		t.Fatalf("expected OK, got structural=%v mismatch=%v", res.StructuralError, res.MismatchError)
	}
	if res.ChainsChecked != 10 {
		t.Fatalf("ChainsChecked = %d, want 10", res.ChainsChecked)
	}
}

func TestVerifyFile_Generated_DetectsOutOfSequenceStart(t *testing.T) {
	params := testParams(t)
	chains := genuineChains(params, 10)
	chains[5].Start = 9999999

	path := writeTable(t, t.TempDir(), chains)

	res, err := VerifyFile(path, params, Options{Mode: ModeGenerated})
	if err != nil {
		t.Fatalf("VerifyFile: %v", err)
	}
	if res.OK {
		t.Fatalf("expected structural failure")
	}
	if res.StructuralError == nil {
		t.Fatalf("expected StructuralError to be set")
	}
	if res.TruncatedAt != 5 {
		t.Fatalf("TruncatedAt = %d, want 5", res.TruncatedAt)
	}
}

func TestVerifyFile_Generated_TruncatesOnRequest(t *testing.T) {
	params := testParams(t)
	chains := genuineChains(params, 10)
	chains[4].End = 0 // structural violation: zero end

	path := writeTable(t, t.TempDir(), chains)

	_, err := VerifyFile(path, params, Options{Mode: ModeGenerated, Truncate: true})
	if err != nil {
		t.Fatalf("VerifyFile: %v", err)
	}

	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	wantSize := int64(4) * tablefile.RecordSize
	if fi.Size() != wantSize {
		t.Fatalf("file size after truncation = %d, want %d", fi.Size(), wantSize)
	}
}

func TestVerifyFile_Generated_DetectsChainMismatch(t *testing.T) {
	params := testParams(t)
	chains := genuineChains(params, 10)
	chains[3].End ^= 0xdeadbeef // corrupt a stored endpoint

	path := writeTable(t, t.TempDir(), chains)

	res, err := VerifyFile(path, params, Options{Mode: ModeGenerated, NumRandomChains: 10})
	if err != nil {
		t.Fatalf("VerifyFile: %v", err)
	}
	if res.OK {
		t.Fatalf("expected mismatch failure")
	}
	if res.MismatchError == nil {
		t.Fatalf("expected MismatchError to be set")
	}
}

func TestVerifyFile_Lookup_RejectsDecreasingEnd(t *testing.T) {
	params := testParams(t)
	chains := genuineChains(params, 10)
	// Lookup mode only requires ends to be sorted, not starts sequential;
	// sort by end first (all non-zero), then corrupt one to violate
	// monotonicity.
	for i := range chains {
		chains[i].End = uint64(i+1) * 1000
	}
	chains[7].End = 1

	path := writeTable(t, t.TempDir(), chains)

	res, err := VerifyFile(path, params, Options{Mode: ModeLookup})
	if err != nil {
		t.Fatalf("VerifyFile: %v", err)
	}
	if res.OK {
		t.Fatalf("expected structural failure")
	}
}

func TestVerifyFile_Quick_ShortCircuitsOnFiveChains(t *testing.T) {
	params := testParams(t)
	chains := genuineChains(params, 10)
	path := writeTable(t, t.TempDir(), chains)

	res, err := VerifyFile(path, params, Options{Mode: ModeQuick})
	if err != nil {
		t.Fatalf("VerifyFile: %v", err)
	}
	if !res.OK {
		t.Fatalf("expected OK")
	}
	if res.ChainsChecked != 5 {
		t.Fatalf("ChainsChecked = %d, want 5", res.ChainsChecked)
	}
}

func TestVerifyFile_Quick_CatchesMismatch(t *testing.T) {
	params := testParams(t)
	chains := genuineChains(params, 10)
	for i := range chains {
		chains[i].End ^= 0x1 // corrupt every endpoint so Quick's 5-sample can't miss it
	}
	path := writeTable(t, t.TempDir(), chains)

	res, err := VerifyFile(path, params, Options{Mode: ModeQuick})
	if err != nil {
		t.Fatalf("VerifyFile: %v", err)
	}
	if res.OK {
		t.Fatalf("expected Quick mode to catch the corruption")
	}
}
