// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes data to name inside directory and returns the full
// path. The file is created with mode 0600, as share files are.
func WriteFile(t *testing.T, directory, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(directory, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("writing fixture %s: %v", path, err)
	}
	return path
}

// Fixture writes data to a new file in a fresh temporary directory and
// returns its path. The directory is removed when the test completes.
func Fixture(t *testing.T, name string, data []byte) string {
	t.Helper()
	return WriteFile(t, t.TempDir(), name, data)
}

// ReadFile returns the contents of path or fails the test.
func ReadFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return data
}

// Pattern returns length deterministic pseudo-random bytes derived
// from seed. Different seeds give unrelated content.
func Pattern(seed uint64, length int) []byte {
	generator := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	data := make([]byte, length)
	for index := range data {
		data[index] = byte(generator.Uint32())
	}
	return data
}

// Xor returns the byte-wise XOR of equal-length inputs. It is the
// reference the pipeline's output is compared against.
func Xor(inputs ...[]byte) []byte {
	if len(inputs) == 0 {
		return nil
	}
	result := make([]byte, len(inputs[0]))
	for _, input := range inputs {
		if len(input) != len(result) {
			panic("testutil.Xor: inputs differ in length")
		}
		for index, value := range input {
			result[index] ^= value
		}
	}
	return result
}
