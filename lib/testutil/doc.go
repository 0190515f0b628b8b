// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for xorpad packages.
//
// [WriteFile] and [Fixture] create source files in a per-test temporary
// directory. [Pattern] produces deterministic pseudo-random content so
// tests can compare combined output byte for byte without checking
// fixtures into the tree.
//
// The stream doubles simulate the failure modes the combine pipeline
// must survive: [FailingReader] delivers some bytes then a read error,
// [ShortWriter] silently accepts fewer bytes than offered,
// [FailingWriter] rejects writes, and [TrackedReader] records whether
// it was closed so tests can assert that every source is released on
// every exit path.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no xorpad-internal dependencies.
package testutil
