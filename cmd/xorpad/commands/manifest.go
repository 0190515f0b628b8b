// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/xorpad/cmd/xorpad/cli"
	"github.com/bureau-foundation/xorpad/lib/codec"
	"github.com/bureau-foundation/xorpad/lib/manifest"
)

type manifestParams struct {
	cli.JSONOutput
	Verify   bool `flag:"verify" desc:"hash every share and check it against the manifest"`
	Diagnose bool `flag:"diag" desc:"print the raw CBOR in diagnostic notation"`
}

func manifestCommand(streams Streams) *cli.Command {
	var params manifestParams

	command := &cli.Command{
		Name:    "manifest",
		Summary: "Show or verify a share manifest",
		Usage:   "xorpad manifest [flags] PATH",
		Examples: []cli.Example{
			{
				Description: "Check every share before a recovery",
				Command:     "xorpad manifest --verify key.manifest",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("manifest", &params)
		},
	}

	command.Run = func(args []string) error {
		if len(args) != 1 {
			command.PrintHelp(streams.Stderr)
			return fmt.Errorf("manifest takes exactly one PATH, got %d", len(args))
		}
		path := args[0]

		if params.Diagnose {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading manifest: %w", err)
			}
			notation, err := codec.Diagnose(data)
			if err != nil {
				return fmt.Errorf("decoding manifest %s: %w", path, err)
			}
			fmt.Fprintln(streams.Stdout, notation)
			return nil
		}

		shareSet, err := manifest.Read(path)
		if err != nil {
			return err
		}

		if params.Verify {
			if err := shareSet.VerifyShares(path); err != nil {
				return err
			}
		}

		if done, err := params.EmitJSON(streams.Stdout, shareSet); done {
			return err
		}

		w := tabwriter.NewWriter(streams.Stdout, 2, 0, 2, ' ', 0)
		fmt.Fprintf(w, "version:\t%d\n", shareSet.Version)
		fmt.Fprintf(w, "length:\t%d bytes\n", shareSet.Length)
		fmt.Fprintf(w, "secret length:\t%d bytes\n", shareSet.SecretLength)
		fmt.Fprintf(w, "compression:\t%s\n", shareSet.Compression)
		fmt.Fprintf(w, "digest:\t%s\n", shareSet.Digest)
		fmt.Fprintf(w, "shares:\t%d\n", len(shareSet.Shares))
		for _, entry := range shareSet.Shares {
			fmt.Fprintf(w, "  %s\t%s\n", entry.Name, entry.Digest)
		}
		if params.Verify {
			fmt.Fprintf(w, "verified:\tall shares match\n")
		}
		return w.Flush()
	}

	return command
}
