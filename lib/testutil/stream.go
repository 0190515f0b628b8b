// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"bytes"
	"errors"
	"io"
	"sync/atomic"
)

// ErrInjected is the error returned by the failing stream doubles.
var ErrInjected = errors.New("injected failure")

// FailingReader returns a reader that yields data and then fails with
// ErrInjected instead of io.EOF.
func FailingReader(data []byte) io.Reader {
	return io.MultiReader(bytes.NewReader(data), errorReader{})
}

type errorReader struct{}

func (errorReader) Read([]byte) (int, error) {
	return 0, ErrInjected
}

// ShortWriter accepts at most Limit bytes per Write and reports no
// error for the rest, the way a misbehaving sink truncates output.
type ShortWriter struct {
	Limit   int
	written bytes.Buffer
}

func (w *ShortWriter) Write(p []byte) (int, error) {
	if len(p) > w.Limit {
		p = p[:w.Limit]
	}
	return w.written.Write(p)
}

// Bytes returns everything the writer accepted.
func (w *ShortWriter) Bytes() []byte {
	return w.written.Bytes()
}

// FailingWriter accepts the first Allow bytes and then fails every
// write with ErrInjected.
type FailingWriter struct {
	Allow   int
	written bytes.Buffer
}

func (w *FailingWriter) Write(p []byte) (int, error) {
	remaining := w.Allow - w.written.Len()
	if remaining >= len(p) {
		return w.written.Write(p)
	}
	if remaining > 0 {
		w.written.Write(p[:remaining])
		return remaining, ErrInjected
	}
	return 0, ErrInjected
}

// Bytes returns everything the writer accepted.
func (w *FailingWriter) Bytes() []byte {
	return w.written.Bytes()
}

// TrackedReader wraps a reader and records Close calls.
type TrackedReader struct {
	io.Reader
	closes atomic.Int32
}

// Track wraps r in a TrackedReader.
func Track(r io.Reader) *TrackedReader {
	return &TrackedReader{Reader: r}
}

// Close records the call and closes the wrapped reader if it is an
// io.Closer.
func (r *TrackedReader) Close() error {
	r.closes.Add(1)
	if closer, ok := r.Reader.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Closed reports whether Close has been called at least once.
func (r *TrackedReader) Closed() bool {
	return r.closes.Load() > 0
}

// Closes returns the number of Close calls.
func (r *TrackedReader) Closes() int {
	return int(r.closes.Load())
}
