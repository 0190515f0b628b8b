// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package digest computes BLAKE3 keyed digests of share files and of
// combined streams.
//
// Two domains keep the hashes apart: [StreamDomain] for the combined
// output of a share set (what a manifest promises "combine" will
// produce) and [ShareDomain] for individual share files. The same bytes
// hash differently in each domain, so a share digest can never be
// mistaken for a stream digest.
//
// [Writer] hashes everything that passes through it to an underlying
// writer, which is how both "split" and "combine" compute digests
// without a second pass over the data. [Hash] formats as lowercase
// hex and implements encoding.TextMarshaler so it serializes as a
// string in manifests and logs.
//
// Depends on github.com/zeebo/blake3.
package digest
