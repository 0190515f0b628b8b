// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// xorpad XORs equal-length byte streams together and splits secrets
// into shares that XOR back to them.
package main

import (
	"os"

	"github.com/bureau-foundation/xorpad/cmd/xorpad/commands"
	"github.com/bureau-foundation/xorpad/lib/process"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	return commands.Root(commands.StandardStreams()).Execute(os.Args[1:])
}
