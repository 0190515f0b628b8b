// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/xorpad/cmd/xorpad/cli"
	"github.com/bureau-foundation/xorpad/lib/share"
	"github.com/bureau-foundation/xorpad/lib/source"
	"github.com/bureau-foundation/xorpad/lib/streamcodec"
)

type splitParams struct {
	globalParams
	cli.JSONOutput
	Shares     int               `flag:"shares,n" desc:"number of shares, at least 2 (default: config split.shares)"`
	OutputDir  string            `flag:"output-dir,o" desc:"directory for shares and manifest (default: config split.output_dir)"`
	Name       string            `flag:"name" desc:"share name prefix (default: input file name, or \"secret\" for stdin)"`
	Compress   streamcodec.Codec `flag:"compress" desc:"compress before padding: none, lz4 or zstd (default: config split.compression)"`
	ChunkSize  int               `flag:"chunk-size" desc:"buffer size in bytes, a multiple of 8 (default: config chunk_size)"`
	LockMemory bool              `flag:"lock-memory" desc:"mlock chunk buffers"`
	Force      bool              `flag:"force" desc:"overwrite existing shares and manifest"`
}

// splitResult is the --json output of split.
type splitResult struct {
	Manifest     string   `json:"manifest"`
	Shares       []string `json:"shares"`
	Length       int64    `json:"length"`
	SecretLength int64    `json:"secret_length"`
	Compression  string   `json:"compression"`
	Digest       string   `json:"digest"`
}

func splitCommand(streams Streams) *cli.Command {
	var params splitParams

	command := &cli.Command{
		Name:    "split",
		Summary: "Split a secret into shares that XOR back to it",
		Description: `Split INPUT ("-" for standard input) into N shares. Shares 1..N-1 are
random pads; share N is INPUT XOR every pad. All N shares combined
reproduce INPUT; fewer reveal nothing about it. A manifest recording
the length, compression and digests is written next to the shares.`,
		Usage: "xorpad split [flags] INPUT",
		Examples: []cli.Example{
			{
				Description: "Three shares of a key in the current directory",
				Command:     "xorpad split --shares 3 key.pem",
			},
			{
				Description: "Compress a tarball from stdin, then split it",
				Command:     "tar c secrets/ | xorpad split --name secrets --compress zstd -o /mnt/usb -",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("split", &params)
		},
	}

	command.Run = func(args []string) error {
		if len(args) != 1 {
			command.PrintHelp(streams.Stderr)
			return fmt.Errorf("split takes exactly one INPUT, got %d", len(args))
		}
		input := args[0]

		cfg, logger, err := params.setup(streams, "split")
		if err != nil {
			return err
		}

		shares := params.Shares
		if shares == 0 {
			shares = cfg.Split.Shares
		}
		outputDir := params.OutputDir
		if outputDir == "" {
			outputDir = cfg.Split.OutputDir
		}
		compression := params.Compress
		if compression == "" {
			compression, err = streamcodec.Parse(cfg.Split.Compression)
			if err != nil {
				return err
			}
		}
		chunkSize := params.ChunkSize
		if chunkSize == 0 {
			chunkSize = cfg.ChunkSize
		}
		prefix := params.Name
		if prefix == "" {
			prefix = defaultPrefix(input)
		}

		result, err := share.Split(input, streams.Stdin, share.Options{
			Shares:      shares,
			Directory:   outputDir,
			Prefix:      prefix,
			Compression: compression,
			ChunkSize:   chunkSize,
			LockMemory:  params.LockMemory || cfg.LockMemory,
			Force:       params.Force,
			Logger:      logger,
		})
		if err != nil {
			return err
		}

		summary := splitResult{
			Manifest:     result.ManifestPath,
			Shares:       result.SharePaths,
			Length:       result.Manifest.Length,
			SecretLength: result.Manifest.SecretLength,
			Compression:  result.Manifest.Compression.String(),
			Digest:       result.Manifest.Digest.String(),
		}
		if done, err := params.EmitJSON(streams.Stdout, summary); done {
			return err
		}

		for _, path := range summary.Shares {
			fmt.Fprintln(streams.Stdout, path)
		}
		fmt.Fprintln(streams.Stdout, summary.Manifest)
		return nil
	}

	return command
}

// defaultPrefix names a share set after its input file.
func defaultPrefix(input string) string {
	if input == source.Stdin {
		return "secret"
	}
	return filepath.Base(input)
}
