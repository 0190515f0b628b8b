// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package combine

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/xorpad/lib/process"
)

// ErrNoSources is returned by New when no source handles are given.
var ErrNoSources = errors.New("at least one source is required")

// AllocationTarget identifies which allocation failed.
type AllocationTarget int

const (
	// AllocOutputBuffer is the output chunk buffer.
	AllocOutputBuffer AllocationTarget = iota
	// AllocSourceTable is the per-source bookkeeping table.
	AllocSourceTable
	// AllocSourceBuffer is one source's chunk buffer.
	AllocSourceBuffer
)

func (target AllocationTarget) String() string {
	switch target {
	case AllocOutputBuffer:
		return "output buffer"
	case AllocSourceTable:
		return "source table"
	case AllocSourceBuffer:
		return "source buffer"
	default:
		return fmt.Sprintf("unknown(%d)", int(target))
	}
}

// AllocationError reports that the pipeline could not obtain memory.
type AllocationError struct {
	Target AllocationTarget
	// Index and Source identify the source for AllocSourceBuffer.
	Index  int
	Source string
	// Size is the number of bytes (buffers) or entries (table) requested.
	Size int
	Err  error
}

func (e *AllocationError) Error() string {
	switch e.Target {
	case AllocSourceBuffer:
		return fmt.Sprintf("unable to allocate %d bytes for input buffer #%d (%q): %v", e.Size, e.Index, e.Source, e.Err)
	case AllocSourceTable:
		return fmt.Sprintf("unable to allocate structures for %d sources: %v", e.Size, e.Err)
	default:
		return fmt.Sprintf("unable to allocate %d bytes for %s: %v", e.Size, e.Target, e.Err)
	}
}

func (e *AllocationError) Unwrap() error { return e.Err }

// ExitCode implements process.ExitCoder.
func (e *AllocationError) ExitCode() int {
	switch e.Target {
	case AllocSourceTable:
		return process.ExitSourceTableAlloc
	case AllocSourceBuffer:
		return process.ExitSourceBufferAlloc
	default:
		return process.ExitOutputBufferAlloc
	}
}

// SourceReadError reports an I/O error, other than end of stream, on
// one source.
type SourceReadError struct {
	Source string
	Index  int
	// Offset is the position of the chunk being read.
	Offset int64
	Err    error
}

func (e *SourceReadError) Error() string {
	return fmt.Sprintf("error reading %q at offset %d: %v", e.Source, e.Offset, e.Err)
}

func (e *SourceReadError) Unwrap() error { return e.Err }

// ExitCode implements process.ExitCoder.
func (e *SourceReadError) ExitCode() int { return process.ExitSourceRead }

// LengthMismatchError reports that sources produced different byte
// counts for the same chunk, meaning they are not equal length.
type LengthMismatchError struct {
	Source string
	Index  int
	// Got is what Source produced; Expected is what the first source
	// produced for the same chunk.
	Got      int
	Expected int
	// Offset is the position of the chunk in every source.
	Offset int64
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("got %d bytes of data from %q at offset %d whereas other source(s) produced %d bytes: sources differ in length",
		e.Got, e.Source, e.Offset, e.Expected)
}

// ExitCode implements process.ExitCoder.
func (e *LengthMismatchError) ExitCode() int { return process.ExitLengthMismatch }

// SinkWriteError reports that the output stream rejected or truncated
// a chunk.
type SinkWriteError struct {
	Offset int64
	Length int
	Err    error
}

func (e *SinkWriteError) Error() string {
	return fmt.Sprintf("error writing %d bytes to output at offset %d: %v", e.Length, e.Offset, e.Err)
}

func (e *SinkWriteError) Unwrap() error { return e.Err }

// ExitCode implements process.ExitCoder.
func (e *SinkWriteError) ExitCode() int { return process.ExitSinkWrite }
