// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/xorpad/cmd/xorpad/cli"
	"github.com/bureau-foundation/xorpad/lib/version"
)

type versionParams struct {
	Full   bool `flag:"full" desc:"include Go version and platform"`
	Digest bool `flag:"digest" desc:"print the BLAKE3 digest of the running executable"`
}

func versionCommand(streams Streams) *cli.Command {
	var params versionParams

	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("version", &params)
		},
		Run: func(args []string) error {
			if params.Full {
				fmt.Fprintln(streams.Stdout, version.Full())
			} else {
				fmt.Fprintln(streams.Stdout, version.Info())
			}
			if params.Digest {
				hash, path, err := version.SelfDigest()
				if err != nil {
					return err
				}
				fmt.Fprintf(streams.Stdout, "%s  %s\n", hash, path)
			}
			return nil
		},
	}
}
