// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for xorpad.
//
// Four package-level variables are injected at build time via
// -ldflags -X, for example:
//
//	go build -ldflags "-X github.com/bureau-foundation/xorpad/lib/version.GitCommit=$(git rev-parse --short HEAD)" ./cmd/xorpad
//
// They default to "unknown" / "0.1.0-dev" in development builds and
// test runs.
//
//   - [Info] -- "0.1.0-dev (abc1234, 2026-02-10T...)" for --version
//   - [Full] -- Info plus Go version and GOOS/GOARCH
//   - [Short] and [Commit] -- the bare version and SHA
//
// [SelfDigest] hashes the running executable so an operator can check
// that the xorpad recovering a secret is the build they audited.
package version
