// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chunk

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/bureau-foundation/xorpad/lib/testutil"
)

func newBuffer(t *testing.T, capacity int) *Buffer {
	t.Helper()
	buffer, err := New(capacity, Options{})
	if err != nil {
		t.Fatalf("New(%d) failed: %v", capacity, err)
	}
	t.Cleanup(func() { buffer.Close() })
	return buffer
}

func TestNew_ZeroFilled(t *testing.T) {
	buffer := newBuffer(t, 64)

	if buffer.Cap() != 64 {
		t.Errorf("expected capacity 64, got %d", buffer.Cap())
	}
	if buffer.Filled() != 0 {
		t.Errorf("expected filled 0, got %d", buffer.Filled())
	}
	for index, value := range buffer.data {
		if value != 0 {
			t.Fatalf("expected zero at index %d, got %d", index, value)
		}
	}
}

func TestNew_InvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -8, 7, 12, 1001} {
		_, err := New(capacity, Options{})
		if !errors.Is(err, ErrCapacity) {
			t.Errorf("New(%d): expected ErrCapacity, got %v", capacity, err)
		}
	}
}

func TestFillFrom_FullChunk(t *testing.T) {
	buffer := newBuffer(t, 16)
	source := bytes.NewReader(testutil.Pattern(1, 40))

	n, err := buffer.FillFrom(source)
	if err != nil {
		t.Fatalf("FillFrom failed: %v", err)
	}
	if n != 16 || buffer.Filled() != 16 {
		t.Errorf("expected 16 bytes, got n=%d filled=%d", n, buffer.Filled())
	}
	if !bytes.Equal(buffer.Bytes(), testutil.Pattern(1, 40)[:16]) {
		t.Error("buffer contents do not match the first chunk of the source")
	}
}

func TestFillFrom_ShortRead(t *testing.T) {
	buffer := newBuffer(t, 16)

	n, err := buffer.FillFrom(bytes.NewReader([]byte{1, 2, 3}))
	if err != nil {
		t.Fatalf("FillFrom failed: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 bytes, got %d", n)
	}

	buffer.Reset()
	n, err = buffer.FillFrom(bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("FillFrom at end of stream failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 bytes at end of stream, got %d", n)
	}
}

func TestFillFrom_ReadsAcrossSmallReads(t *testing.T) {
	buffer := newBuffer(t, 16)
	data := testutil.Pattern(2, 16)

	// oneByteReader returns a single byte per call; FillFrom must keep
	// reading until the chunk is full.
	n, err := buffer.FillFrom(oneByteReader{bytes.NewReader(data)})
	if err != nil {
		t.Fatalf("FillFrom failed: %v", err)
	}
	if n != 16 || !bytes.Equal(buffer.Bytes(), data) {
		t.Errorf("expected the full 16-byte chunk, got %d bytes", n)
	}
}

func TestFillFrom_ReadError(t *testing.T) {
	buffer := newBuffer(t, 16)

	n, err := buffer.FillFrom(testutil.FailingReader([]byte{9, 9}))
	if !errors.Is(err, testutil.ErrInjected) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 bytes before the error, got %d", n)
	}
}

func TestFillFrom_PanicsWhenNotReset(t *testing.T) {
	buffer := newBuffer(t, 8)
	if _, err := buffer.FillFrom(bytes.NewReader([]byte{1})); err != nil {
		t.Fatalf("FillFrom failed: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic on FillFrom without reset")
		}
	}()
	buffer.FillFrom(bytes.NewReader([]byte{2}))
}

func TestXorFrom(t *testing.T) {
	left := newBuffer(t, 24)
	right := newBuffer(t, 24)
	leftData := testutil.Pattern(3, 24)
	rightData := testutil.Pattern(4, 24)

	left.FillFrom(bytes.NewReader(leftData))
	right.FillFrom(bytes.NewReader(rightData))
	left.XorFrom(right)

	if !bytes.Equal(left.Bytes(), testutil.Xor(leftData, rightData)) {
		t.Error("XorFrom result differs from byte-wise XOR")
	}
	if !bytes.Equal(right.Bytes(), rightData) {
		t.Error("XorFrom modified its argument")
	}

	// Applying the same operand twice restores the original.
	left.XorFrom(right)
	if !bytes.Equal(left.Bytes(), leftData) {
		t.Error("XorFrom twice did not restore the original")
	}
}

func TestXorFrom_CoversFullCapacity(t *testing.T) {
	output := newBuffer(t, 16)
	input := newBuffer(t, 16)
	input.FillFrom(bytes.NewReader([]byte{1, 2, 3}))

	output.XorFrom(input)

	// Lanes beyond the filled prefix are processed too; they are zero
	// in a freshly filled buffer so the tail stays zero.
	want := append([]byte{1, 2, 3}, make([]byte, 13)...)
	if !bytes.Equal(output.data, want) {
		t.Errorf("unexpected storage after XorFrom: %v", output.data)
	}
	if output.Filled() != 0 {
		t.Errorf("XorFrom changed filled to %d", output.Filled())
	}
}

func TestXorFrom_CapacityMismatchPanics(t *testing.T) {
	left := newBuffer(t, 8)
	right := newBuffer(t, 16)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on capacity mismatch")
		}
	}()
	left.XorFrom(right)
}

func TestClear_ZerosStorage(t *testing.T) {
	buffer := newBuffer(t, 16)
	buffer.FillFrom(bytes.NewReader(testutil.Pattern(5, 16)))

	buffer.Clear()

	if buffer.Filled() != 0 {
		t.Errorf("expected filled 0 after Clear, got %d", buffer.Filled())
	}
	for index, value := range buffer.data {
		if value != 0 {
			t.Fatalf("expected zero at index %d after Clear, got %d", index, value)
		}
	}
}

func TestReset_KeepsStorage(t *testing.T) {
	buffer := newBuffer(t, 8)
	data := testutil.Pattern(6, 8)
	buffer.FillFrom(bytes.NewReader(data))

	buffer.Reset()

	if buffer.Filled() != 0 {
		t.Errorf("expected filled 0 after Reset, got %d", buffer.Filled())
	}
	if !bytes.Equal(buffer.data, data) {
		t.Error("Reset modified storage")
	}
}

func TestSetFilled_OutOfRangePanics(t *testing.T) {
	buffer := newBuffer(t, 8)

	defer func() {
		if recover() == nil {
			t.Error("expected panic for SetFilled beyond capacity")
		}
	}()
	buffer.SetFilled(9)
}

func TestDrainTo(t *testing.T) {
	buffer := newBuffer(t, 16)
	data := testutil.Pattern(7, 10)
	buffer.FillFrom(bytes.NewReader(data))

	var sink bytes.Buffer
	if err := buffer.DrainTo(&sink, 10); err != nil {
		t.Fatalf("DrainTo failed: %v", err)
	}
	if !bytes.Equal(sink.Bytes(), data) {
		t.Errorf("expected %v, got %v", data, sink.Bytes())
	}

	if err := buffer.DrainTo(&sink, 0); err != nil {
		t.Fatalf("DrainTo(0) failed: %v", err)
	}
	if sink.Len() != 10 {
		t.Errorf("DrainTo(0) wrote %d extra bytes", sink.Len()-10)
	}
}

func TestDrainTo_ShortWrite(t *testing.T) {
	buffer := newBuffer(t, 16)
	buffer.FillFrom(bytes.NewReader(testutil.Pattern(8, 16)))

	err := buffer.DrainTo(&testutil.ShortWriter{Limit: 4}, 16)
	if !errors.Is(err, io.ErrShortWrite) {
		t.Errorf("expected io.ErrShortWrite, got %v", err)
	}
}

func TestDrainTo_WriteError(t *testing.T) {
	buffer := newBuffer(t, 16)
	buffer.FillFrom(bytes.NewReader(testutil.Pattern(9, 16)))

	err := buffer.DrainTo(&testutil.FailingWriter{}, 16)
	if !errors.Is(err, testutil.ErrInjected) {
		t.Errorf("expected injected error, got %v", err)
	}
}

func TestDrainTo_BeyondFilledPanics(t *testing.T) {
	buffer := newBuffer(t, 16)
	buffer.FillFrom(bytes.NewReader([]byte{1, 2}))

	defer func() {
		if recover() == nil {
			t.Error("expected panic for DrainTo beyond filled")
		}
	}()
	buffer.DrainTo(io.Discard, 3)
}

func TestClose_Idempotent(t *testing.T) {
	buffer, err := New(16, Options{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	buffer.FillFrom(bytes.NewReader(testutil.Pattern(10, 16)))

	if err := buffer.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := buffer.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if buffer.data != nil {
		t.Error("expected data to be nil after Close")
	}
}

func TestClose_NeverFilled(t *testing.T) {
	buffer, err := New(8, Options{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := buffer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestBytes_AfterClosePanics(t *testing.T) {
	buffer, err := New(8, Options{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	buffer.Close()

	defer func() {
		if recover() == nil {
			t.Error("expected panic when reading a closed buffer")
		}
	}()
	buffer.Bytes()
}

type oneByteReader struct {
	reader io.Reader
}

func (r oneByteReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return r.reader.Read(p[:1])
}

func BenchmarkXorFrom(b *testing.B) {
	left, err := New(DefaultCapacity, Options{})
	if err != nil {
		b.Fatalf("New failed: %v", err)
	}
	defer left.Close()
	right, err := New(DefaultCapacity, Options{})
	if err != nil {
		b.Fatalf("New failed: %v", err)
	}
	defer right.Close()

	b.SetBytes(DefaultCapacity)
	for b.Loop() {
		left.XorFrom(right)
	}
}
