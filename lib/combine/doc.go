// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package combine streams N equal-length sources, XORs corresponding
// bytes across all of them and writes the result to a single sink.
//
// A [Pipeline] owns one [chunk.Buffer] per [source.Handle] plus an
// output buffer. Each iteration of [Pipeline.Run] fills every source
// buffer in argument order, checks that all of them hold the same
// number of bytes, XORs them into the output buffer and drains it to
// the sink. The loop ends cleanly only when every source reaches end
// of stream on the same chunk.
//
// Unequal lengths are never padded or truncated: the first chunk on
// which sources disagree fails with [*LengthMismatchError], after the
// chunks already validated have been written. Read and write failures
// surface as [*SourceReadError] and [*SinkWriteError], allocation
// failures from [New] as [*AllocationError]. Every error type
// implements process.ExitCoder with its own exit code.
//
// [Run] is the scoped entry point: it constructs the pipeline, runs it
// and releases every buffer and source on every exit path.
//
// The pipeline is single-threaded; sources are read one after another
// in argument order so that error reporting is deterministic.
package combine
