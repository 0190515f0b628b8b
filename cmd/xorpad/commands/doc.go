// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands assembles the xorpad command tree: combine, split,
// manifest and version. Every command reads and writes through
// [Streams] so tests can drive the full tree with in-memory buffers.
//
// combine writes nothing to stdout except the combined (optionally
// decompressed) stream; diagnostics go to the slog logger on stderr.
package commands
