// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for xorpad.
//
// The central type is [Command]: a named node with optional
// [Command.Subcommands], a [pflag.FlagSet] factory and a Run function.
// [Command.Execute] handles flag parsing, subcommand routing and help
// output with examples. Unknown subcommands and flags get a "did you
// mean" suggestion when one is within edit distance 3.
//
// Flags are normally declared as tagged struct fields and bound with
// [FlagsFromParams]. [NewCommandLogger] builds the slog logger every
// command writes diagnostics to, and [ExitError] lets a command choose
// its exit code after printing its own output.
package cli
