// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package combine

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/bureau-foundation/xorpad/lib/chunk"
	"github.com/bureau-foundation/xorpad/lib/process"
	"github.com/bureau-foundation/xorpad/lib/source"
	"github.com/bureau-foundation/xorpad/lib/testutil"
)

// testChunkSize keeps chunk boundaries cheap to reach in tests.
const testChunkSize = 16

func handlesFor(inputs ...[]byte) []*source.Handle {
	handles := make([]*source.Handle, len(inputs))
	for index, input := range inputs {
		handles[index] = source.New(fmt.Sprintf("source-%d", index), bytes.NewReader(input))
	}
	return handles
}

func combine(t *testing.T, chunkSize int, inputs ...[]byte) ([]byte, Stats) {
	t.Helper()
	var sink bytes.Buffer
	stats, err := Run(handlesFor(inputs...), &sink, Options{ChunkSize: chunkSize})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return sink.Bytes(), stats
}

func TestRun_ConcreteScenario(t *testing.T) {
	first := []byte{0x01, 0x02, 0x03}
	second := []byte{0xFF, 0x00, 0x0F}

	combined, _ := combine(t, testChunkSize, first, second)
	if want := []byte{0xFE, 0x02, 0x0C}; !bytes.Equal(combined, want) {
		t.Fatalf("expected %x, got %x", want, combined)
	}

	restored, _ := combine(t, testChunkSize, combined, second)
	if !bytes.Equal(restored, first) {
		t.Errorf("expected %x after recombining, got %x", first, restored)
	}
}

func TestRun_Identity(t *testing.T) {
	for _, length := range []int{0, 1, 7, 8, 16, 23, 100} {
		t.Run(fmt.Sprintf("length=%d", length), func(t *testing.T) {
			input := testutil.Pattern(uint64(length), length)
			output, _ := combine(t, testChunkSize, input)
			if !bytes.Equal(output, input) {
				t.Errorf("single source was not passed through unchanged")
			}
		})
	}
}

func TestRun_SelfInverse(t *testing.T) {
	for _, length := range []int{5, 16, 37, 64} {
		t.Run(fmt.Sprintf("length=%d", length), func(t *testing.T) {
			a := testutil.Pattern(100, length)
			b := testutil.Pattern(200, length)

			combined, _ := combine(t, testChunkSize, a, b)
			restored, _ := combine(t, testChunkSize, combined, b)
			if !bytes.Equal(restored, a) {
				t.Errorf("(A^B)^B differs from A")
			}
		})
	}
}

func TestRun_OrderIndependent(t *testing.T) {
	a := testutil.Pattern(1, 41)
	b := testutil.Pattern(2, 41)
	c := testutil.Pattern(3, 41)
	want := testutil.Xor(a, b, c)

	orders := [][][]byte{
		{a, b, c}, {a, c, b}, {b, a, c}, {b, c, a}, {c, a, b}, {c, b, a},
	}
	for index, order := range orders {
		output, _ := combine(t, testChunkSize, order...)
		if !bytes.Equal(output, want) {
			t.Errorf("order %d: output differs from A^B^C", index)
		}
	}

	// Associativity: (A^B)^C through two pipeline runs.
	ab, _ := combine(t, testChunkSize, a, b)
	abc, _ := combine(t, testChunkSize, ab, c)
	if !bytes.Equal(abc, want) {
		t.Error("(A^B)^C differs from A^B^C")
	}
}

func TestRun_ChunkBoundaries(t *testing.T) {
	tests := []struct {
		name   string
		length int
		chunks int
	}{
		{"empty", 0, 0},
		{"one byte", 1, 1},
		{"exactly one chunk", testChunkSize, 1},
		{"one and a half chunks", testChunkSize * 3 / 2, 2},
		{"exactly two chunks", testChunkSize * 2, 2},
		{"not a lane multiple", testChunkSize*2 + 3, 3},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			a := testutil.Pattern(10, test.length)
			b := testutil.Pattern(20, test.length)
			c := testutil.Pattern(30, test.length)

			output, stats := combine(t, testChunkSize, a, b, c)
			if len(output) != test.length {
				t.Fatalf("expected %d output bytes, got %d", test.length, len(output))
			}
			if !bytes.Equal(output, testutil.Xor(a, b, c)) {
				t.Error("output differs from byte-wise XOR")
			}
			if stats.Bytes != int64(test.length) || stats.Chunks != test.chunks {
				t.Errorf("expected %d bytes in %d chunks, got %+v", test.length, test.chunks, stats)
			}
		})
	}
}

func TestRun_DefaultChunkSize(t *testing.T) {
	length := chunk.DefaultCapacity + chunk.DefaultCapacity/2
	a := testutil.Pattern(7, length)
	b := testutil.Pattern(8, length)

	output, stats := combine(t, 0, a, b)
	if !bytes.Equal(output, testutil.Xor(a, b)) {
		t.Error("output differs from byte-wise XOR")
	}
	if stats.Chunks != 2 {
		t.Errorf("expected 2 chunks of the default size, got %d", stats.Chunks)
	}
}

func TestRun_LengthMismatch(t *testing.T) {
	tests := []struct {
		name         string
		lengths      []int
		source       int
		got          int
		expected     int
		offset       int64
		writtenBytes int
	}{
		{"second longer in last chunk", []int{40, 45}, 1, 13, 8, 32, 32},
		{"second shorter in last chunk", []int{45, 40}, 1, 8, 13, 32, 32},
		{"first ends on a chunk boundary", []int{32, 40}, 1, 8, 0, 32, 32},
		{"second ends on a chunk boundary", []int{48, 32}, 1, 0, 16, 32, 32},
		{"middle of three short", []int{20, 10, 20}, 1, 10, 16, 0, 0},
		{"last of three long", []int{5, 5, 6}, 2, 6, 5, 0, 0},
		{"empty against non-empty", []int{0, 3}, 1, 3, 0, 0, 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			inputs := make([][]byte, len(test.lengths))
			for index, length := range test.lengths {
				inputs[index] = testutil.Pattern(uint64(index+1), length)
			}

			var sink bytes.Buffer
			stats, err := Run(handlesFor(inputs...), &sink, Options{ChunkSize: testChunkSize})

			var mismatch *LengthMismatchError
			if !errors.As(err, &mismatch) {
				t.Fatalf("expected *LengthMismatchError, got %v", err)
			}
			if mismatch.Index != test.source || mismatch.Source != fmt.Sprintf("source-%d", test.source) {
				t.Errorf("expected mismatch on source %d, got %d (%q)", test.source, mismatch.Index, mismatch.Source)
			}
			if mismatch.Got != test.got || mismatch.Expected != test.expected {
				t.Errorf("expected got=%d expected=%d, got got=%d expected=%d",
					test.got, test.expected, mismatch.Got, mismatch.Expected)
			}
			if mismatch.Offset != test.offset {
				t.Errorf("expected offset %d, got %d", test.offset, mismatch.Offset)
			}
			if process.Code(err) != process.ExitLengthMismatch {
				t.Errorf("expected exit code %d, got %d", process.ExitLengthMismatch, process.Code(err))
			}

			// Only chunks validated before the mismatch reach the sink.
			if sink.Len() != test.writtenBytes || stats.Bytes != int64(test.writtenBytes) {
				t.Fatalf("expected %d bytes written, got %d (stats %d)", test.writtenBytes, sink.Len(), stats.Bytes)
			}
			truncated := make([][]byte, len(inputs))
			for index, input := range inputs {
				truncated[index] = input[:test.writtenBytes]
			}
			if !bytes.Equal(sink.Bytes(), testutil.Xor(truncated...)) {
				t.Error("flushed prefix differs from the XOR of the validated chunks")
			}
		})
	}
}

func TestRun_ReadFailureReleasesEverything(t *testing.T) {
	first := testutil.Track(bytes.NewReader(testutil.Pattern(1, 64)))
	second := testutil.Track(testutil.FailingReader(testutil.Pattern(2, 20)))
	third := testutil.Track(bytes.NewReader(testutil.Pattern(3, 64)))
	handles := []*source.Handle{
		source.New("first", first),
		source.New("second", second),
		source.New("third", third),
	}

	var allocated []*chunk.Buffer
	options := Options{
		ChunkSize: testChunkSize,
		allocate: func(capacity int, options chunk.Options) (*chunk.Buffer, error) {
			buffer, err := chunk.New(capacity, options)
			if err == nil {
				allocated = append(allocated, buffer)
			}
			return buffer, err
		},
	}

	var sink bytes.Buffer
	stats, err := Run(handles, &sink, options)

	var readError *SourceReadError
	if !errors.As(err, &readError) {
		t.Fatalf("expected *SourceReadError, got %v", err)
	}
	if readError.Source != "second" || readError.Index != 1 {
		t.Errorf("expected failure on \"second\" (#1), got %q (#%d)", readError.Source, readError.Index)
	}
	if readError.Offset != testChunkSize {
		t.Errorf("expected failure at offset %d, got %d", testChunkSize, readError.Offset)
	}
	if !errors.Is(err, testutil.ErrInjected) {
		t.Errorf("expected the read error to wrap the cause, got %v", err)
	}
	if process.Code(err) != process.ExitSourceRead {
		t.Errorf("expected exit code %d, got %d", process.ExitSourceRead, process.Code(err))
	}
	if stats.Chunks != 1 || sink.Len() != testChunkSize {
		t.Errorf("expected the first chunk to be flushed, got %d chunks, %d bytes", stats.Chunks, sink.Len())
	}

	for _, tracked := range []*testutil.TrackedReader{first, second, third} {
		if tracked.Closes() != 1 {
			t.Errorf("expected source closed exactly once, got %d", tracked.Closes())
		}
	}
	if len(allocated) != 4 {
		t.Fatalf("expected 4 buffers allocated, got %d", len(allocated))
	}
	for index, buffer := range allocated {
		if !buffer.Closed() {
			t.Errorf("buffer %d not released", index)
		}
	}
}

func TestRun_SinkFailures(t *testing.T) {
	input := testutil.Pattern(4, 40)

	t.Run("short write", func(t *testing.T) {
		sink := &testutil.ShortWriter{Limit: 10}
		_, err := Run(handlesFor(input), sink, Options{ChunkSize: testChunkSize})

		var writeError *SinkWriteError
		if !errors.As(err, &writeError) {
			t.Fatalf("expected *SinkWriteError, got %v", err)
		}
		if !errors.Is(err, io.ErrShortWrite) {
			t.Errorf("expected io.ErrShortWrite cause, got %v", writeError.Err)
		}
		if writeError.Offset != 0 || writeError.Length != testChunkSize {
			t.Errorf("unexpected offset/length: %d/%d", writeError.Offset, writeError.Length)
		}
		if process.Code(err) != process.ExitSinkWrite {
			t.Errorf("expected exit code %d, got %d", process.ExitSinkWrite, process.Code(err))
		}
	})

	t.Run("write error after first chunk", func(t *testing.T) {
		sink := &testutil.FailingWriter{Allow: testChunkSize}
		stats, err := Run(handlesFor(input), sink, Options{ChunkSize: testChunkSize})

		var writeError *SinkWriteError
		if !errors.As(err, &writeError) {
			t.Fatalf("expected *SinkWriteError, got %v", err)
		}
		if writeError.Offset != testChunkSize {
			t.Errorf("expected failure at offset %d, got %d", testChunkSize, writeError.Offset)
		}
		if stats.Chunks != 1 {
			t.Errorf("expected one chunk written before the failure, got %d", stats.Chunks)
		}
		if !bytes.Equal(sink.Bytes(), input[:testChunkSize]) {
			t.Error("partial output differs from the first chunk")
		}
	})
}

func TestNew_AllocationFailures(t *testing.T) {
	tests := []struct {
		name     string
		failCall int
		target   AllocationTarget
		index    int
		exitCode int
	}{
		{"output buffer", 0, AllocOutputBuffer, 0, process.ExitOutputBufferAlloc},
		{"first source buffer", 1, AllocSourceBuffer, 0, process.ExitSourceBufferAlloc},
		{"third source buffer", 3, AllocSourceBuffer, 2, process.ExitSourceBufferAlloc},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var allocated []*chunk.Buffer
			calls := 0
			options := Options{
				ChunkSize: testChunkSize,
				allocate: func(capacity int, options chunk.Options) (*chunk.Buffer, error) {
					defer func() { calls++ }()
					if calls == test.failCall {
						return nil, chunk.ErrAllocation
					}
					buffer, err := chunk.New(capacity, options)
					if err == nil {
						allocated = append(allocated, buffer)
					}
					return buffer, err
				},
			}

			tracked := []*testutil.TrackedReader{
				testutil.Track(bytes.NewReader(nil)),
				testutil.Track(bytes.NewReader(nil)),
				testutil.Track(bytes.NewReader(nil)),
			}
			handles := []*source.Handle{
				source.New("a", tracked[0]),
				source.New("b", tracked[1]),
				source.New("c", tracked[2]),
			}

			_, err := New(handles, io.Discard, options)

			var allocationError *AllocationError
			if !errors.As(err, &allocationError) {
				t.Fatalf("expected *AllocationError, got %v", err)
			}
			if allocationError.Target != test.target {
				t.Errorf("expected target %s, got %s", test.target, allocationError.Target)
			}
			if test.target == AllocSourceBuffer {
				if allocationError.Index != test.index || allocationError.Source != handles[test.index].Name {
					t.Errorf("expected source #%d, got #%d (%q)", test.index, allocationError.Index, allocationError.Source)
				}
			}
			if !errors.Is(err, chunk.ErrAllocation) {
				t.Errorf("expected chunk.ErrAllocation in the chain, got %v", err)
			}
			if process.Code(err) != test.exitCode {
				t.Errorf("expected exit code %d, got %d", test.exitCode, process.Code(err))
			}

			for index, reader := range tracked {
				if !reader.Closed() {
					t.Errorf("source %d not closed after allocation failure", index)
				}
			}
			for index, buffer := range allocated {
				if !buffer.Closed() {
					t.Errorf("buffer %d not released after allocation failure", index)
				}
			}
		})
	}
}

func TestNew_TooManySources(t *testing.T) {
	handles := make([]*source.Handle, MaxSources+1)
	tracked := make([]*testutil.TrackedReader, len(handles))
	for index := range handles {
		tracked[index] = testutil.Track(bytes.NewReader(nil))
		handles[index] = source.New("empty", tracked[index])
	}

	_, err := New(handles, io.Discard, Options{ChunkSize: testChunkSize})

	var allocationError *AllocationError
	if !errors.As(err, &allocationError) || allocationError.Target != AllocSourceTable {
		t.Fatalf("expected source table AllocationError, got %v", err)
	}
	if process.Code(err) != process.ExitSourceTableAlloc {
		t.Errorf("expected exit code %d, got %d", process.ExitSourceTableAlloc, process.Code(err))
	}
	for index, reader := range tracked {
		if reader.Closes() != 1 {
			t.Fatalf("source %d closed %d times, expected once", index, reader.Closes())
		}
	}
}

func TestNew_NoSources(t *testing.T) {
	_, err := New(nil, io.Discard, Options{})
	if !errors.Is(err, ErrNoSources) {
		t.Fatalf("expected ErrNoSources, got %v", err)
	}
	if process.Code(err) != process.ExitUsage {
		t.Errorf("expected usage exit code, got %d", process.Code(err))
	}
}

func TestNew_InvalidChunkSize(t *testing.T) {
	tracked := testutil.Track(bytes.NewReader(nil))
	_, err := New([]*source.Handle{source.New("a", tracked)}, io.Discard, Options{ChunkSize: 12})
	if !errors.Is(err, chunk.ErrCapacity) {
		t.Fatalf("expected chunk.ErrCapacity, got %v", err)
	}
	if !tracked.Closed() {
		t.Error("source not closed after rejected chunk size")
	}
}

func TestPipeline_States(t *testing.T) {
	pipeline, err := New(handlesFor([]byte{1, 2}, []byte{3, 4}), io.Discard, Options{ChunkSize: testChunkSize})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer pipeline.Close()

	if pipeline.State() != Priming {
		t.Errorf("expected priming before Run, got %s", pipeline.State())
	}
	if _, err := pipeline.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if pipeline.State() != Drained {
		t.Errorf("expected drained after Run, got %s", pipeline.State())
	}
	if _, err := pipeline.Run(); err == nil {
		t.Error("expected error when running a drained pipeline")
	}
	for index, current := range pipeline.pairs {
		if !current.handle.Exhausted {
			t.Errorf("source %d not marked exhausted", index)
		}
	}
}

func TestPipeline_FailedState(t *testing.T) {
	pipeline, err := New(handlesFor([]byte{1}, []byte{1, 2}), io.Discard, Options{ChunkSize: testChunkSize})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer pipeline.Close()

	if _, err := pipeline.Run(); err == nil {
		t.Fatal("expected length mismatch")
	}
	if pipeline.State() != Failed {
		t.Errorf("expected failed state, got %s", pipeline.State())
	}
}

func TestRun_DoesNotReadPastEndOfStream(t *testing.T) {
	for _, length := range []int{0, 10, testChunkSize, testChunkSize * 2} {
		t.Run(fmt.Sprintf("length=%d", length), func(t *testing.T) {
			a := &strictReader{data: testutil.Pattern(1, length)}
			b := &strictReader{data: testutil.Pattern(2, length)}
			handles := []*source.Handle{source.New("a", a), source.New("b", b)}

			var sink bytes.Buffer
			if _, err := Run(handles, &sink, Options{ChunkSize: testChunkSize}); err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if sink.Len() != length {
				t.Errorf("expected %d bytes, got %d", length, sink.Len())
			}
		})
	}
}

func TestPipeline_CloseIdempotent(t *testing.T) {
	pipeline, err := New(handlesFor([]byte{1}), io.Discard, Options{ChunkSize: testChunkSize})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := pipeline.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := pipeline.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if _, err := pipeline.Run(); err == nil {
		t.Error("expected error when running a closed pipeline")
	}
}

// strictReader behaves like a terminal: once it has reported io.EOF,
// any further Read is a failure.
type strictReader struct {
	data     []byte
	reported bool
}

func (r *strictReader) Read(p []byte) (int, error) {
	if r.reported {
		return 0, errors.New("read after end of stream")
	}
	if len(r.data) == 0 {
		r.reported = true
		return 0, io.EOF
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}
