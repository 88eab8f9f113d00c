// Package tablehash computes a SHA-256 digest of a table file's bytes,
// used to tag an archived table for integrity checking and to pin the
// generator's known-answer test vectors to a single hex digest instead of
// a full byte-for-byte fixture.
package tablehash

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
)

// SHA256File returns the lowercase hex SHA-256 digest of the file at path.
func SHA256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("tablehash: opening %q: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("tablehash: hashing %q: %w", path, err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// SHA256Prefix returns the digest of just the first n bytes of path,
// matching the "truncate to N bytes then hash" form a few known-answer
// table vectors are pinned against.
func SHA256Prefix(path string, n int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("tablehash: opening %q: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.CopyN(h, f, n); err != nil && err != io.EOF {
		return "", fmt.Errorf("tablehash: hashing %q: %w", path, err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
