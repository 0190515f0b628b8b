// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process maps errors to the process exit codes xorpad
// promises to scripts, and provides the entrypoint error handler.
//
// Every fatal error type in lib/ implements [ExitCoder]. [Code] walks
// an error chain to the first ExitCoder; errors without one are usage
// or configuration errors ([ExitUsage]). [Report] prints the single
// "error: ..." diagnostic line and [Fatal] exits with the mapped code.
//
// This package has no xorpad-internal dependencies; it is imported by
// the packages that define fatal errors.
package process
