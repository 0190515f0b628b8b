// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package source opens the named input streams the combine pipeline
// consumes.
//
// A [Handle] pairs a display name with a readable stream and records
// whether that stream has reached its end ([Handle.Exhausted]). The
// identifier [Stdin] ("-") means the process's standard input; every
// other identifier is a file path. Standard input is never closed by
// [Handle.Close], files always are.
//
// [OpenAll] opens identifiers in order and closes everything it
// already opened when one fails, returning an [*OpenError] that names
// the failing source.
package source
