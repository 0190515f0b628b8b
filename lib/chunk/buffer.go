// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chunk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sys/unix"
)

// LaneSize is the width in bytes of one XOR lane. Buffer capacities
// must be a multiple of it.
const LaneSize = 8

// DefaultCapacity is the chunk size used when none is configured:
// 131072 lanes, 1 MiB.
const DefaultCapacity = 131072 * LaneSize

// ErrAllocation is wrapped by every error New returns when the backing
// memory could not be obtained.
var ErrAllocation = errors.New("chunk: allocation failed")

// ErrCapacity is returned by New for a capacity that is not a positive
// multiple of LaneSize.
var ErrCapacity = errors.New("chunk: capacity must be a positive multiple of 8")

// Options controls how a Buffer's storage is obtained.
type Options struct {
	// LockMemory locks the storage into physical RAM (mlock) so that
	// share material is never written to swap. Locking is subject to
	// RLIMIT_MEMLOCK; when the limit is too small New fails.
	LockMemory bool
}

// Buffer is a fixed-capacity byte region with a cursor counting the
// bytes currently held. The region is allocated with mmap outside the
// Go heap and excluded from core dumps, so chunk contents are never
// copied by the garbage collector and never outlive Close.
//
// A Buffer is owned by a single goroutine. It must not be copied after
// creation.
type Buffer struct {
	data   []byte
	filled int
	locked bool
	closed bool
}

// New allocates a zero-filled Buffer of the given capacity.
func New(capacity int, options Options) (*Buffer, error) {
	if capacity <= 0 || capacity%LaneSize != 0 {
		return nil, fmt.Errorf("%w, got %d", ErrCapacity, capacity)
	}

	data, err := unix.Mmap(-1, 0, capacity, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap %d bytes: %v", ErrAllocation, capacity, err)
	}

	if options.LockMemory {
		if err := unix.Mlock(data); err != nil {
			unix.Munmap(data)
			return nil, fmt.Errorf("%w: mlock %d bytes: %v", ErrAllocation, capacity, err)
		}
	}

	// Best effort: some kernels and sandboxes reject MADV_DONTDUMP.
	_ = unix.Madvise(data, unix.MADV_DONTDUMP)

	return &Buffer{data: data, locked: options.LockMemory}, nil
}

// Cap returns the fixed capacity in bytes.
func (b *Buffer) Cap() int {
	b.checkOpen()
	return len(b.data)
}

// Filled returns the number of valid bytes currently held.
func (b *Buffer) Filled() int {
	return b.filled
}

// Bytes returns the filled prefix of the storage. The slice points
// into the mmap region and must not be retained past Close.
func (b *Buffer) Bytes() []byte {
	b.checkOpen()
	return b.data[:b.filled]
}

// FillFrom reads up to Cap bytes from r and records how many arrived.
// Fewer than Cap bytes means r reached end of stream; io.EOF and
// io.ErrUnexpectedEOF are therefore not errors here. Any other read
// error is returned along with the byte count obtained before it.
//
// The buffer must be empty: calling FillFrom without an intervening
// Reset or Clear is a programming error and panics.
func (b *Buffer) FillFrom(r io.Reader) (int, error) {
	b.checkOpen()
	if b.filled != 0 {
		panic("chunk: FillFrom on a buffer holding data")
	}

	n, err := io.ReadFull(r, b.data)
	b.filled = n
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return n, nil
	}
	return n, err
}

// XorFrom accumulates other into b: every lane of b's storage becomes
// b XOR other. The whole capacity is processed, not just the filled
// prefix, so bytes beyond Filled must be zero in both buffers for the
// result to be meaningful (see Clear). The filled count of b is not
// changed.
//
// Both buffers must have the same capacity; anything else panics.
func (b *Buffer) XorFrom(other *Buffer) {
	b.checkOpen()
	other.checkOpen()
	if len(b.data) != len(other.data) {
		panic(fmt.Sprintf("chunk: XorFrom capacity mismatch: %d vs %d", len(b.data), len(other.data)))
	}

	left, right := b.data, other.data
	for offset := 0; offset < len(left); offset += LaneSize {
		lane := binary.NativeEndian.Uint64(left[offset:]) ^ binary.NativeEndian.Uint64(right[offset:])
		binary.NativeEndian.PutUint64(left[offset:], lane)
	}
}

// Clear zero-fills the entire storage and empties the buffer.
func (b *Buffer) Clear() {
	b.checkOpen()
	clear(b.data)
	b.filled = 0
}

// Reset empties the buffer without touching its storage.
func (b *Buffer) Reset() {
	b.filled = 0
}

// SetFilled marks the first n bytes as valid. Used for the output
// buffer, whose contents are produced by XorFrom rather than a read.
func (b *Buffer) SetFilled(n int) {
	b.checkOpen()
	if n < 0 || n > len(b.data) {
		panic(fmt.Sprintf("chunk: SetFilled(%d) outside capacity %d", n, len(b.data)))
	}
	b.filled = n
}

// DrainTo writes exactly the first length bytes of the storage to w.
// length must not exceed Filled. A writer that accepts fewer bytes
// without reporting an error yields io.ErrShortWrite.
func (b *Buffer) DrainTo(w io.Writer, length int) error {
	b.checkOpen()
	if length < 0 || length > b.filled {
		panic(fmt.Sprintf("chunk: DrainTo(%d) exceeds filled %d", length, b.filled))
	}
	if length == 0 {
		return nil
	}

	written, err := w.Write(b.data[:length])
	if err != nil {
		return err
	}
	if written != length {
		return io.ErrShortWrite
	}
	return nil
}

// Close zeros the storage, unlocks it if it was locked and unmaps it.
// Close is idempotent; every method except Filled, Reset and Closed
// panics afterwards.
func (b *Buffer) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true

	clear(b.data)

	var firstError error
	if b.locked {
		if err := unix.Munlock(b.data); err != nil {
			firstError = fmt.Errorf("chunk: munlock failed: %w", err)
		}
	}
	if err := unix.Munmap(b.data); err != nil && firstError == nil {
		firstError = fmt.Errorf("chunk: munmap failed: %w", err)
	}

	b.data = nil
	b.filled = 0
	return firstError
}

// Closed reports whether Close has been called.
func (b *Buffer) Closed() bool {
	return b.closed
}

func (b *Buffer) checkOpen() {
	if b.closed {
		panic("chunk: use of closed buffer")
	}
}
