// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bureau-foundation/xorpad/lib/process"
)

// Stdin is the identifier that selects standard input.
const Stdin = "-"

// ErrDuplicateStdin is returned by OpenAll when "-" appears more than
// once. Two handles over one stream can never produce equal-length
// chunks, so the request is rejected up front as a usage error.
var ErrDuplicateStdin = errors.New("standard input (\"-\") may be given only once")

// OpenError reports that a named source could not be opened.
type OpenError struct {
	Name string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("unable to open source %q: %v", e.Name, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// ExitCode implements process.ExitCoder.
func (e *OpenError) ExitCode() int { return process.ExitSourceOpen }

// Handle is one named input stream.
type Handle struct {
	// Name is the identifier as the user gave it, used in diagnostics.
	Name string

	// Exhausted is set once a read attempt returned fewer bytes than
	// requested. It is maintained by the reader of the handle (the
	// combine pipeline), not by Handle itself.
	Exhausted bool

	reader io.Reader
	closer io.Closer
	closed bool

	// size is the length of a regular file at open time.
	size  int64
	sized bool
}

// New wraps an already-open reader. If r implements io.Closer it is
// closed by Handle.Close.
func New(name string, r io.Reader) *Handle {
	handle := &Handle{Name: name, reader: r}
	if closer, ok := r.(io.Closer); ok {
		handle.closer = closer
	}
	return handle
}

// Open resolves one identifier. stdin is the stream "-" refers to; it
// is wrapped without a closer.
func Open(name string, stdin io.Reader) (*Handle, error) {
	if name == Stdin {
		return &Handle{Name: name, reader: stdin}, nil
	}

	file, err := os.Open(name)
	if err != nil {
		return nil, &OpenError{Name: name, Err: err}
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, &OpenError{Name: name, Err: err}
	}
	if info.IsDir() {
		file.Close()
		return nil, &OpenError{Name: name, Err: errors.New("is a directory")}
	}
	handle := &Handle{Name: name, reader: file, closer: file}
	if info.Mode().IsRegular() {
		handle.size, handle.sized = info.Size(), true
	}
	return handle, nil
}

// OpenAll opens every identifier in order. On failure every handle
// opened so far is closed before the error is returned.
func OpenAll(names []string, stdin io.Reader) ([]*Handle, error) {
	stdinSeen := false
	for _, name := range names {
		if name != Stdin {
			continue
		}
		if stdinSeen {
			return nil, ErrDuplicateStdin
		}
		stdinSeen = true
	}

	handles := make([]*Handle, 0, len(names))
	for _, name := range names {
		handle, err := Open(name, stdin)
		if err != nil {
			CloseAll(handles)
			return nil, err
		}
		handles = append(handles, handle)
	}
	return handles, nil
}

// CloseAll closes every handle and returns the first error.
func CloseAll(handles []*Handle) error {
	var firstError error
	for _, handle := range handles {
		if err := handle.Close(); err != nil && firstError == nil {
			firstError = err
		}
	}
	return firstError
}

// Read reads from the underlying stream.
func (h *Handle) Read(p []byte) (int, error) {
	return h.reader.Read(p)
}

// Size returns the length of the source when it is a regular file.
// The second result is false for pipes, devices and standard input,
// whose length is unknown until they are read to the end.
func (h *Handle) Size() (int64, bool) {
	return h.size, h.sized
}

// IsStdin reports whether the handle reads standard input.
func (h *Handle) IsStdin() bool {
	return h.Name == Stdin && h.closer == nil
}

// Close releases the stream. It is idempotent and a no-op for
// standard input.
func (h *Handle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	if h.closer == nil {
		return nil
	}
	if err := h.closer.Close(); err != nil {
		return fmt.Errorf("closing source %q: %w", h.Name, err)
	}
	return nil
}
