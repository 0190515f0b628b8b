// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package chunk provides the fixed-capacity byte buffer the combine
// pipeline reads sources into and XORs together.
//
// A [Buffer] owns an anonymous mmap region of exactly its capacity,
// allocated outside the Go heap and excluded from core dumps. With
// [Options.LockMemory] the region is also mlock'ed. The region is never
// resized; [Buffer.Close] zeroes and unmaps it.
//
// Alongside the storage a Buffer tracks how many bytes are currently
// valid ([Buffer.Filled]). [Buffer.FillFrom] reads one chunk from a
// stream, [Buffer.XorFrom] accumulates another buffer lane by lane
// (8 bytes per lane, [LaneSize]), [Buffer.DrainTo] writes a prefix to a
// sink, and [Buffer.Clear] / [Buffer.Reset] prepare it for the next
// chunk.
//
// Depends on golang.org/x/sys/unix. No other xorpad dependencies.
package chunk
