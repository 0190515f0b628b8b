// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package streamcodec wraps streams in optional compression.
//
// XOR pads are incompressible, so compression happens on the
// plaintext side: "split" compresses the secret before padding it and
// "combine" decompresses the recombined stream on its way to stdout.
// The [Codec] recorded in a share manifest tells combine which decoder
// to use.
//
// [NewWriter] and [NewReader] are the plain streaming wrappers.
// [NewDecodingWriter] turns a decoder (a reader) into a writer so that
// it can sit behind the combine pipeline's sink; it runs the decoder
// on one goroutine connected by io.Pipe.
//
// Depends on github.com/klauspost/compress/zstd and
// github.com/pierrec/lz4/v4.
package streamcodec
