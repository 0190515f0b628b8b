// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package manifest describes a share set produced by "xorpad split".
//
// A [Manifest] records the share files, their common length, a
// ShareDomain digest of each share, the StreamDomain digest of the
// combined stream (what "combine" must reproduce) and the compression
// applied to the secret before it was padded. It is stored as
// deterministic CBOR next to the shares ([Path]) and written
// atomically ([Write]).
//
// A manifest holds no secret material: digests of uniformly random
// shares, and of a stream that can only be recovered from all shares,
// reveal nothing about the secret beyond its length.
package manifest
