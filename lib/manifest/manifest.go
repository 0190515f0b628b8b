// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/xorpad/lib/codec"
	"github.com/bureau-foundation/xorpad/lib/digest"
	"github.com/bureau-foundation/xorpad/lib/process"
	"github.com/bureau-foundation/xorpad/lib/streamcodec"
)

// FormatVersion is the manifest format this package writes. Read
// rejects manifests with a newer version.
const FormatVersion = 1

// Extension is appended to the share prefix to form the manifest name.
const Extension = ".manifest"

// Share describes one share file.
type Share struct {
	// Name is the file name, relative to the manifest's directory.
	Name string `json:"name"`
	// Digest is the ShareDomain digest of the file.
	Digest digest.Hash `json:"digest"`
}

// Manifest describes a complete share set.
type Manifest struct {
	Version int `json:"version"`

	// Length is the size in bytes of every share, and of the combined
	// stream.
	Length int64 `json:"length"`

	// SecretLength is the size of the secret before compression.
	SecretLength int64 `json:"secret_length"`

	// Compression was applied to the secret before padding; combine
	// must decode the combined stream with it.
	Compression streamcodec.Codec `json:"compression"`

	// Digest is the StreamDomain digest of the combined stream.
	Digest digest.Hash `json:"digest"`

	Shares []Share `json:"shares"`
}

// Path returns the manifest path for a share set named prefix in
// directory.
func Path(directory, prefix string) string {
	return filepath.Join(directory, prefix+Extension)
}

// ShareName returns the file name of share number index (1-based).
func ShareName(prefix string, index int) string {
	return fmt.Sprintf("%s.%d", prefix, index)
}

// Validate checks the manifest for internal consistency.
func (m *Manifest) Validate() error {
	var errs []error

	if m.Version < 1 || m.Version > FormatVersion {
		errs = append(errs, fmt.Errorf("unsupported manifest version %d", m.Version))
	}
	if m.Length < 0 || m.SecretLength < 0 {
		errs = append(errs, fmt.Errorf("negative length"))
	}
	if _, err := streamcodec.Parse(string(m.Compression)); err != nil {
		errs = append(errs, err)
	}
	if len(m.Shares) == 0 {
		errs = append(errs, fmt.Errorf("manifest lists no shares"))
	}

	seen := make(map[string]bool, len(m.Shares))
	for index, share := range m.Shares {
		if share.Name == "" || filepath.Base(share.Name) != share.Name {
			errs = append(errs, fmt.Errorf("share %d: invalid name %q", index+1, share.Name))
		}
		if seen[share.Name] {
			errs = append(errs, fmt.Errorf("share %d: duplicate name %q", index+1, share.Name))
		}
		seen[share.Name] = true
	}

	return errors.Join(errs...)
}

// Read loads and validates the manifest at path.
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var manifest Manifest
	if err := codec.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("decoding manifest %s: %w", path, err)
	}
	if err := manifest.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	return &manifest, nil
}

// Write encodes m and replaces path atomically: the data is written to
// a temporary file, synced, then renamed over path.
func Write(path string, m *Manifest) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("refusing to write invalid manifest: %w", err)
	}
	data, err := codec.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	temporaryPath := path + ".tmp"
	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating temporary manifest: %w", err)
	}

	// Write, sync, close, in that order. On any failure remove the
	// temporary file and report the first error.
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary manifest: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary manifest: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary manifest: %w", err)
	}

	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming manifest into place: %w", err)
	}
	return nil
}

// SharePaths returns the paths of the shares, resolved against the
// directory containing the manifest at manifestPath.
func (m *Manifest) SharePaths(manifestPath string) []string {
	directory := filepath.Dir(manifestPath)
	paths := make([]string, len(m.Shares))
	for index, share := range m.Shares {
		paths[index] = filepath.Join(directory, share.Name)
	}
	return paths
}

// VerifyError reports share files that are missing, unreadable, the
// wrong size, or hash to the wrong digest. Err joins one error per
// failing share.
type VerifyError struct {
	Err error
}

func (e *VerifyError) Error() string { return e.Err.Error() }

func (e *VerifyError) Unwrap() error { return e.Err }

// ExitCode implements process.ExitCoder.
func (e *VerifyError) ExitCode() int { return process.ExitDigestVerification }

// VerifyShares hashes every share file next to manifestPath and checks
// its size and digest. Failures are collected into a *VerifyError.
func (m *Manifest) VerifyShares(manifestPath string) error {
	var errs []error
	for index, path := range m.SharePaths(manifestPath) {
		info, err := os.Stat(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("share %d: %w", index+1, err))
			continue
		}
		if info.Size() != m.Length {
			errs = append(errs, fmt.Errorf("share %d (%s): size %d, expected %d", index+1, path, info.Size(), m.Length))
			continue
		}
		hash, err := digest.File(digest.ShareDomain, path)
		if err != nil {
			errs = append(errs, fmt.Errorf("share %d: %w", index+1, err))
			continue
		}
		if err := digest.Verify(path, m.Shares[index].Digest, hash); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &VerifyError{Err: errors.Join(errs...)}
}
