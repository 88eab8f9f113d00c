package potfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAppend_JTRFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pot")
	f, err := Open(path, FormatJTR)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	var hash [16]byte
	hash[0] = 0xab
	if err := f.Append(hash, []byte("password1")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.HasPrefix(string(data), "[$NT$]ab000000000000000000000000000000:password1") {
		t.Fatalf("unexpected pot line: %q", data)
	}
}

func TestAppend_HashcatFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pot")
	f, err := Open(path, FormatHashcat)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	var hash [16]byte
	if err := f.Append(hash, []byte("hunter2")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := "00000000000000000000000000000000:hunter2\n"
	if string(data) != want {
		t.Fatalf("pot contents = %q, want %q", data, want)
	}
}

func TestAppend_DeduplicatesIdenticalLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pot")
	f, err := Open(path, FormatHashcat)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	var hash [16]byte
	for i := 0; i < 3; i++ {
		if err := f.Append(hash, []byte("same")); err != nil {
			t.Fatalf("Append #%d: %v", i, err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line after dedup, got %d: %v", len(lines), lines)
	}
}
