// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package digest

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/xorpad/lib/process"
)

// Hash is a 32-byte BLAKE3 digest.
type Hash [32]byte

// Domain is a 32-byte BLAKE3 key that separates hash domains. The
// values are ASCII names zero-padded to 32 bytes so they are readable
// in hex dumps. Changing them invalidates every stored digest.
type Domain [32]byte

var (
	// StreamDomain hashes the combined stream of a share set.
	StreamDomain = Domain{
		'x', 'o', 'r', 'p', 'a', 'd', '.', 's', 't', 'r', 'e', 'a', 'm', 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	// ShareDomain hashes one share file.
	ShareDomain = Domain{
		'x', 'o', 'r', 'p', 'a', 'd', '.', 's', 'h', 'a', 'r', 'e', 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	// BinaryDomain hashes the xorpad executable for `xorpad version`.
	BinaryDomain = Domain{
		'x', 'o', 'r', 'p', 'a', 'd', '.', 'b', 'i', 'n', 'a', 'r', 'y', 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

// String returns the lowercase hex encoding.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the zero value, which marks an absent
// digest.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// MarshalText implements encoding.TextMarshaler.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Parse parses a 64-character hex string.
func Parse(hexString string) (Hash, error) {
	var hash Hash
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return hash, fmt.Errorf("parsing digest: %w", err)
	}
	if len(decoded) != len(hash) {
		return hash, fmt.Errorf("digest is %d bytes, want %d", len(decoded), len(hash))
	}
	copy(hash[:], decoded)
	return hash, nil
}

// Sum returns the digest of data in domain.
func Sum(domain Domain, data []byte) Hash {
	hasher := newKeyed(domain)
	hasher.Write(data)
	return sum(hasher)
}

// File streams the file at path through the hash in domain, keeping
// memory use constant regardless of file size.
func File(domain Domain, path string) (Hash, error) {
	file, err := os.Open(path)
	if err != nil {
		return Hash{}, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	hasher := newKeyed(domain)
	if _, err := io.Copy(hasher, file); err != nil {
		return Hash{}, fmt.Errorf("hashing %s: %w", path, err)
	}
	return sum(hasher), nil
}

// Writer passes writes through to an underlying writer and hashes the
// bytes the underlying writer accepted. A nil underlying writer makes
// it a plain hasher.
type Writer struct {
	target  io.Writer
	hasher  *blake3.Hasher
	written int64
}

// NewWriter returns a Writer hashing in domain and forwarding to w.
func NewWriter(domain Domain, w io.Writer) *Writer {
	return &Writer{target: w, hasher: newKeyed(domain)}
}

func (w *Writer) Write(p []byte) (int, error) {
	n := len(p)
	var err error
	if w.target != nil {
		n, err = w.target.Write(p)
	}
	w.hasher.Write(p[:n])
	w.written += int64(n)
	return n, err
}

// Sum returns the digest of everything written so far.
func (w *Writer) Sum() Hash {
	return sum(w.hasher)
}

// Written returns the number of bytes hashed so far.
func (w *Writer) Written() int64 {
	return w.written
}

// MismatchError reports that data did not hash to the expected digest.
type MismatchError struct {
	Subject  string
	Expected Hash
	Actual   Hash
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s digest mismatch: expected %s, got %s", e.Subject, e.Expected, e.Actual)
}

// ExitCode implements process.ExitCoder.
func (e *MismatchError) ExitCode() int { return process.ExitDigestVerification }

// Verify returns a *MismatchError naming subject when actual differs
// from expected.
func Verify(subject string, expected, actual Hash) error {
	if expected != actual {
		return &MismatchError{Subject: subject, Expected: expected, Actual: actual}
	}
	return nil
}

func newKeyed(domain Domain) *blake3.Hasher {
	// NewKeyed only fails for keys that are not 32 bytes, which the
	// Domain type rules out.
	hasher, err := blake3.NewKeyed(domain[:])
	if err != nil {
		panic("digest: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	return hasher
}

func sum(hasher *blake3.Hasher) Hash {
	var hash Hash
	copy(hash[:], hasher.Sum(nil))
	return hash
}
