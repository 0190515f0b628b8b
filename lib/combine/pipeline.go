// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package combine

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/bureau-foundation/xorpad/lib/chunk"
	"github.com/bureau-foundation/xorpad/lib/source"
)

// MaxSources bounds the number of sources one pipeline accepts. A
// larger request fails as an allocation error of the source table.
const MaxSources = 1 << 16

var errTooManySources = fmt.Errorf("more than %d sources", MaxSources)

// State is the pipeline's position in its lifecycle.
type State int

const (
	// Priming: buffers allocated, nothing read yet.
	Priming State = iota
	// Streaming: Run is executing the read, combine, write loop.
	Streaming
	// Drained: every source ended on the same chunk; all output written.
	Drained
	// Failed: Run returned a fatal error. Output written before the
	// failure is not rolled back.
	Failed
)

func (s State) String() string {
	switch s {
	case Priming:
		return "priming"
	case Streaming:
		return "streaming"
	case Drained:
		return "drained"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Options configures a Pipeline.
type Options struct {
	// ChunkSize is the capacity of every buffer in bytes. It must be a
	// positive multiple of chunk.LaneSize. Zero selects
	// chunk.DefaultCapacity.
	ChunkSize int

	// LockMemory mlocks every buffer.
	LockMemory bool

	// Logger receives debug records about the pipeline's progress. Nil
	// discards them.
	Logger *slog.Logger

	// allocate replaces chunk.New in tests.
	allocate func(capacity int, options chunk.Options) (*chunk.Buffer, error)
}

// Stats summarizes a run.
type Stats struct {
	// Chunks is the number of chunks written to the sink.
	Chunks int
	// Bytes is the number of bytes written to the sink, which equals
	// the common length of the sources.
	Bytes int64
}

type pair struct {
	handle *source.Handle
	buffer *chunk.Buffer
}

// Pipeline XORs equal-length sources chunk by chunk into a sink. It
// owns its source handles and buffers from New until Close.
type Pipeline struct {
	pairs     []pair
	output    *chunk.Buffer
	sink      io.Writer
	chunkSize int
	logger    *slog.Logger
	state     State
	stats     Stats
	closed    bool
}

// Run builds a pipeline, runs it to completion and releases every
// buffer and handle before returning, whichever way it ends.
func Run(handles []*source.Handle, sink io.Writer, options Options) (Stats, error) {
	pipeline, err := New(handles, sink, options)
	if err != nil {
		return Stats{}, err
	}
	defer pipeline.Close()
	return pipeline.Run()
}

// New allocates the output buffer, the source table and one buffer per
// handle, in that order. The pipeline takes ownership of handles: if
// New fails, every handle has been closed and every buffer allocated
// so far released by the time it returns.
func New(handles []*source.Handle, sink io.Writer, options Options) (*Pipeline, error) {
	if len(handles) == 0 {
		return nil, ErrNoSources
	}

	chunkSize := options.ChunkSize
	if chunkSize == 0 {
		chunkSize = chunk.DefaultCapacity
	}
	if chunkSize < 0 || chunkSize%chunk.LaneSize != 0 {
		source.CloseAll(handles)
		return nil, fmt.Errorf("invalid chunk size %d: %w", chunkSize, chunk.ErrCapacity)
	}

	allocate := options.allocate
	if allocate == nil {
		allocate = chunk.New
	}
	bufferOptions := chunk.Options{LockMemory: options.LockMemory}

	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	pipeline := &Pipeline{
		sink:      sink,
		chunkSize: chunkSize,
		logger:    logger,
		state:     Priming,
	}

	output, err := allocate(chunkSize, bufferOptions)
	if err != nil {
		source.CloseAll(handles)
		return nil, &AllocationError{Target: AllocOutputBuffer, Size: chunkSize, Err: err}
	}
	pipeline.output = output

	if len(handles) > MaxSources {
		source.CloseAll(handles)
		pipeline.Close()
		return nil, &AllocationError{Target: AllocSourceTable, Size: len(handles), Err: errTooManySources}
	}
	pipeline.pairs = make([]pair, len(handles))
	for index, handle := range handles {
		pipeline.pairs[index].handle = handle
	}

	for index := range pipeline.pairs {
		buffer, err := allocate(chunkSize, bufferOptions)
		if err != nil {
			pipeline.Close()
			return nil, &AllocationError{
				Target: AllocSourceBuffer,
				Index:  index,
				Source: handles[index].Name,
				Size:   chunkSize,
				Err:    err,
			}
		}
		pipeline.pairs[index].buffer = buffer
	}

	return pipeline, nil
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	return p.state
}

// Stats returns what has been written so far.
func (p *Pipeline) Stats() Stats {
	return p.stats
}

// Run executes the read, validate, combine, write, reset loop until
// every source reaches end of stream on the same chunk, or until a
// fatal error. Run may be called once.
func (p *Pipeline) Run() (Stats, error) {
	if p.closed {
		return p.stats, errors.New("combine: Run on a closed pipeline")
	}
	if p.state != Priming {
		return p.stats, fmt.Errorf("combine: Run in state %s", p.state)
	}

	p.logger.Debug("combining sources",
		"sources", len(p.pairs),
		"chunk_size", p.chunkSize,
	)

	p.state = Streaming
	for p.state == Streaming {
		if err := p.step(); err != nil {
			p.state = Failed
			return p.stats, err
		}
	}

	p.logger.Debug("all sources drained",
		"chunks", p.stats.Chunks,
		"bytes", p.stats.Bytes,
	)
	return p.stats, nil
}

// step runs one iteration of the loop.
func (p *Pipeline) step() error {
	offset := p.stats.Bytes

	// Every input buffer is zeroed before its fill: XorFrom processes
	// whole lanes across the full capacity, so bytes past a short
	// read must not carry data from the previous chunk.
	for index := range p.pairs {
		current := &p.pairs[index]
		current.buffer.Clear()
		n, err := current.buffer.FillFrom(current.handle)
		if err != nil {
			return &SourceReadError{
				Source: current.handle.Name,
				Index:  index,
				Offset: offset,
				Err:    err,
			}
		}
		current.handle.Exhausted = n < current.buffer.Cap()
	}

	// Equality is transitive, so checking every pair against the first
	// catches a mismatch no matter which source ends early.
	reference := p.pairs[0].buffer.Filled()
	for index := 1; index < len(p.pairs); index++ {
		current := &p.pairs[index]
		if got := current.buffer.Filled(); got != reference {
			return &LengthMismatchError{
				Source:   current.handle.Name,
				Index:    index,
				Got:      got,
				Expected: reference,
				Offset:   offset,
			}
		}
	}

	if reference == 0 {
		p.state = Drained
		return nil
	}

	p.output.Clear()
	p.output.SetFilled(reference)
	for index := range p.pairs {
		p.output.XorFrom(p.pairs[index].buffer)
	}

	if err := p.output.DrainTo(p.sink, reference); err != nil {
		return &SinkWriteError{Offset: offset, Length: reference, Err: err}
	}
	p.stats.Chunks++
	p.stats.Bytes += int64(reference)

	allExhausted := true
	for index := range p.pairs {
		p.pairs[index].buffer.Reset()
		allExhausted = allExhausted && p.pairs[index].handle.Exhausted
	}
	p.output.Reset()

	// A short chunk on every source is the simultaneous end of stream.
	// Stopping here rather than reading once more keeps a terminal
	// stdin from being read past its EOF.
	if allExhausted {
		p.state = Drained
	}
	return nil
}

// Close releases every buffer and closes every source handle. It is
// idempotent and safe at any point after New succeeded.
func (p *Pipeline) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	for index := range p.pairs {
		current := &p.pairs[index]
		if current.buffer != nil {
			errs = append(errs, current.buffer.Close())
		}
		if current.handle != nil {
			errs = append(errs, current.handle.Close())
		}
	}
	if p.output != nil {
		errs = append(errs, p.output.Close())
	}

	err := errors.Join(errs...)
	if err != nil {
		p.logger.Warn("releasing pipeline resources", "error", err)
	}
	return err
}
