// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package streamcodec

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec identifies a stream compression format. The string forms are
// stored in manifests and accepted on the command line; changing them
// breaks existing share sets.
type Codec string

const (
	// None passes data through unchanged.
	None Codec = "none"
	// LZ4 is the LZ4 frame format. Fast, modest ratio.
	LZ4 Codec = "lz4"
	// Zstd is the Zstandard frame format at the default level. Better
	// ratio for text-like secrets (keys, configs, archives of them).
	Zstd Codec = "zstd"
)

// Parse parses a codec name. The empty string means None.
func Parse(name string) (Codec, error) {
	switch Codec(name) {
	case "", None:
		return None, nil
	case LZ4:
		return LZ4, nil
	case Zstd:
		return Zstd, nil
	default:
		return "", fmt.Errorf("unknown compression %q (want none, lz4 or zstd)", name)
	}
}

// String returns the codec name.
func (c Codec) String() string {
	if c == "" {
		return string(None)
	}
	return string(c)
}

// MarshalText encodes the codec name, with "" written as "none".
func (c Codec) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses a codec name as Parse does.
func (c *Codec) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// NewWriter returns a writer that compresses into w. Close flushes the
// final frame; it does not close w.
func NewWriter(codec Codec, w io.Writer) (io.WriteCloser, error) {
	switch codec {
	case "", None:
		return nopWriteCloser{w}, nil
	case LZ4:
		return lz4.NewWriter(w), nil
	case Zstd:
		encoder, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("zstd encoder: %w", err)
		}
		return encoder, nil
	default:
		return nil, fmt.Errorf("unsupported compression %q", codec)
	}
}

// NewReader returns a reader that decompresses r. Close releases the
// decoder; it does not close r.
func NewReader(codec Codec, r io.Reader) (io.ReadCloser, error) {
	switch codec {
	case "", None:
		return io.NopCloser(r), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case Zstd:
		decoder, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("zstd decoder: %w", err)
		}
		return decoder.IOReadCloser(), nil
	default:
		return nil, fmt.Errorf("unsupported compression %q", codec)
	}
}

// NewDecodingWriter returns a writer that accepts compressed data and
// writes the decompressed stream to w. Close must be called: it waits
// for the decoder to finish and returns any decoding or write error,
// including a truncated final frame. A decoding failure also fails the
// Write calls that follow it.
func NewDecodingWriter(codec Codec, w io.Writer) (io.WriteCloser, error) {
	if codec == "" || codec == None {
		return nopWriteCloser{w}, nil
	}

	pipeReader, pipeWriter := io.Pipe()
	decoder, err := NewReader(codec, pipeReader)
	if err != nil {
		return nil, err
	}

	done := make(chan error, 1)
	go func() {
		_, err := io.Copy(w, decoder)
		decoder.Close()
		if err != nil {
			err = fmt.Errorf("decompressing %s stream: %w", codec, err)
		}
		pipeReader.CloseWithError(err)
		done <- err
	}()

	return &decodingWriter{pipe: pipeWriter, done: done}, nil
}

type decodingWriter struct {
	pipe   *io.PipeWriter
	done   chan error
	closed bool
	err    error
}

func (d *decodingWriter) Write(p []byte) (int, error) {
	return d.pipe.Write(p)
}

func (d *decodingWriter) Close() error {
	if d.closed {
		return d.err
	}
	d.closed = true
	d.pipe.Close()
	d.err = <-d.done
	return d.err
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
