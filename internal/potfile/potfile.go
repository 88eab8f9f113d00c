// Package potfile appends cracked hash:plaintext pairs to a pot file,
// the flat audit trail a lookup run leaves behind. It supports the two
// line formats named in spec.md §4.5: John the Ripper's bracketed NTLM
// form and hashcat's bare form.
package potfile

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Format selects which line convention Append writes.
type Format int

const (
	// FormatJTR writes "[$NT$]<hex-hash>:<plaintext>" lines.
	FormatJTR Format = iota
	// FormatHashcat writes "<hex-hash>:<plaintext>" lines.
	FormatHashcat
)

// File is an append-only pot file guarded by a mutex, since a lookup run
// may have several worker goroutines reporting cracks concurrently.
type File struct {
	mu     sync.Mutex
	path   string
	format Format
	f      *os.File
}

// Open opens (creating if needed) the pot file at path for appending.
func Open(path string, format Format) (*File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("potfile: open %q: %w", path, err)
	}
	return &File{path: path, format: format, f: f}, nil
}

// Close closes the underlying file.
func (p *File) Close() error {
	return p.f.Close()
}

// Append writes one cracked hash:plaintext pair, skipping it if an
// identical line is already present (cheap re-run idempotency: a lookup
// resumed after a crash should not duplicate pot entries).
func (p *File) Append(hash [16]byte, plaintext []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	line := p.formatLine(hash, plaintext)

	dup, err := p.containsLocked(line)
	if err != nil {
		return err
	}
	if dup {
		return nil
	}

	if _, err := p.f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("potfile: write: %w", err)
	}
	return p.f.Sync()
}

func (p *File) formatLine(hash [16]byte, plaintext []byte) string {
	hexHash := hex.EncodeToString(hash[:])
	switch p.format {
	case FormatJTR:
		return fmt.Sprintf("[$NT$]%s:%s", hexHash, plaintext)
	default:
		return fmt.Sprintf("%s:%s", hexHash, plaintext)
	}
}

func (p *File) containsLocked(line string) (bool, error) {
	f, err := os.Open(p.path)
	if err != nil {
		return false, fmt.Errorf("potfile: reopen for dedup scan: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if strings.TrimRight(scanner.Text(), "\r\n") == line {
			return true, nil
		}
	}
	return false, scanner.Err()
}
