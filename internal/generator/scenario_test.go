package generator

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/tmto-labs/rainbowforge/internal/charset"
	"github.com/tmto-labs/rainbowforge/internal/compute"
	"github.com/tmto-labs/rainbowforge/internal/tableparams"
	"github.com/tmto-labs/rainbowforge/internal/tablehash"
)

// TestManager_Run_NTLM8KnownAnswerDigest generates the first 1024 chains
// of the canonical (ntlm, ascii-32-95, 8, 8, 0, 422000, 67108864, part=0)
// table and pins the first 16384 bytes of the output against the two
// known-answer digests from spec.md §8 #6. At chainLen=422000 this costs
// roughly 1024*421999 reduce/hash steps per part (~430M), so both cases
// are skipped in short mode.
func TestManager_Run_NTLM8KnownAnswerDigest(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping ~430M-step known-answer scenario in short mode")
	}

	cases := []struct {
		name string
		part uint64
		want string
	}{
		{"part0", 0, "9d6d6893d7b107477de7db828472cbe48f2780c42dba918aa6bdea796523a522"},
		{"part652", 652, "62a42e8de712ad84cdfe1ef50908e1f77b92faa18973c9eb65201ad55f618d11"},
	}

	cs, err := charset.Lookup("ascii-32-95")
	if err != nil {
		t.Fatalf("charset.Lookup: %v", err)
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			params := &tableparams.Params{
				HashKind:    tableparams.HashNTLM,
				CharsetName: "ascii-32-95",
				Charset:     cs,
				MinLen:      8,
				MaxLen:      8,
				TableIndex:  0,
				ChainLen:    422000,
				NumChains:   1024,
				Part:        tc.part,
			}

			m := &Manager{
				Params:    params,
				Backend:   compute.CPUBackend{},
				OutputDir: dir,
			}
			if err := m.Run(context.Background(), nil); err != nil {
				t.Fatalf("Run: %v", err)
			}

			path := filepath.Join(dir, params.Filename())
			got, err := tablehash.SHA256Prefix(path, 16384)
			if err != nil {
				t.Fatalf("SHA256Prefix: %v", err)
			}
			if got != tc.want {
				t.Errorf("SHA256Prefix = %s, want %s", got, tc.want)
			}
		})
	}
}
