// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/xorpad/cmd/xorpad/cli"
	"github.com/bureau-foundation/xorpad/lib/combine"
	"github.com/bureau-foundation/xorpad/lib/digest"
	"github.com/bureau-foundation/xorpad/lib/manifest"
	"github.com/bureau-foundation/xorpad/lib/process"
	"github.com/bureau-foundation/xorpad/lib/source"
	"github.com/bureau-foundation/xorpad/lib/streamcodec"
)

// decodeError reports a decompression failure detected once the
// combined stream has ended, such as a truncated final frame. Nothing
// failed to write, so it carries the combined length rather than a
// write size. It exits with the output code.
type decodeError struct {
	codec    streamcodec.Codec
	combined int64
	err      error
}

func (e *decodeError) Error() string {
	return fmt.Sprintf("%s output invalid after %d combined bytes: %v", e.codec, e.combined, e.err)
}

func (e *decodeError) Unwrap() error { return e.err }

// ExitCode implements process.ExitCoder.
func (e *decodeError) ExitCode() int { return process.ExitSinkWrite }

type combineParams struct {
	globalParams
	ChunkSize    int               `flag:"chunk-size" desc:"buffer size in bytes, a multiple of 8 (default: config chunk_size, 1 MiB)"`
	LockMemory   bool              `flag:"lock-memory" desc:"mlock chunk buffers so share data never reaches swap"`
	Decompress   streamcodec.Codec `flag:"decompress" desc:"decode the combined stream: none, lz4 or zstd (default: the manifest's compression)"`
	Manifest     string            `flag:"manifest" desc:"share manifest; supplies the sources when none are given and the expected digest"`
	ExpectDigest digest.Hash       `flag:"expect-digest" desc:"fail with exit code 9 unless the combined stream has this digest"`
	PrintDigest  bool              `flag:"print-digest" desc:"log the combined stream's digest"`
}

func combineCommand(streams Streams) *cli.Command {
	var params combineParams

	command := &cli.Command{
		Name:    "combine",
		Summary: "XOR equal-length sources to stdout",
		Description: `Read every SOURCE chunk by chunk, XOR the bytes at each position and
write the result to standard output. SOURCE is a file path or "-" for
standard input, which may appear once. All sources must have the same
length; a source that ends early or runs long is an error.`,
		Usage: "xorpad combine [flags] SOURCE...",
		Examples: []cli.Example{
			{
				Description: "Recover a secret from three shares",
				Command:     "xorpad combine key.1 key.2 key.3 > key",
			},
			{
				Description: "Recover, decompress and verify using the share manifest",
				Command:     "xorpad combine --manifest key.manifest > key",
			},
			{
				Description: "One share arriving on standard input",
				Command:     "ssh vault cat key.2 | xorpad combine key.1 - key.3 > key",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("combine", &params)
		},
	}

	command.Run = func(args []string) error {
		cfg, logger, err := params.setup(streams, "combine")
		if err != nil {
			return err
		}

		chunkSize := params.ChunkSize
		if chunkSize == 0 {
			chunkSize = cfg.ChunkSize
		}
		codec := params.Decompress
		expected := params.ExpectDigest

		if params.Manifest != "" {
			shareSet, err := manifest.Read(params.Manifest)
			if err != nil {
				return err
			}
			switch {
			case len(args) == 0:
				args = shareSet.SharePaths(params.Manifest)
			case len(args) != len(shareSet.Shares):
				return fmt.Errorf("manifest %s lists %d shares, got %d sources", params.Manifest, len(shareSet.Shares), len(args))
			}
			if codec == "" {
				codec = shareSet.Compression
			}
			if expected.IsZero() {
				expected = shareSet.Digest
			} else if expected != shareSet.Digest {
				return fmt.Errorf("--expect-digest %s conflicts with manifest digest %s", expected, shareSet.Digest)
			}
		}

		if len(args) == 0 {
			command.PrintHelp(streams.Stderr)
			return combine.ErrNoSources
		}

		handles, err := source.OpenAll(args, streams.Stdin)
		if err != nil {
			return err
		}

		decoder, err := streamcodec.NewDecodingWriter(codec, streams.Stdout)
		if err != nil {
			source.CloseAll(handles)
			return err
		}
		sink := digest.NewWriter(digest.StreamDomain, decoder)

		stats, err := combine.Run(handles, sink, combine.Options{
			ChunkSize:  chunkSize,
			LockMemory: params.LockMemory || cfg.LockMemory,
			Logger:     logger,
		})
		closeErr := decoder.Close()
		if err != nil {
			return err
		}
		if closeErr != nil {
			return &decodeError{codec: codec, combined: stats.Bytes, err: closeErr}
		}

		sum := sink.Sum()
		logger.Debug("combined",
			"sources", len(args),
			"bytes", stats.Bytes,
			"chunks", stats.Chunks,
			"decompress", codec.String(),
		)
		if params.PrintDigest {
			logger.Info("combined stream digest", "digest", sum.String(), "bytes", stats.Bytes)
		}
		if !expected.IsZero() {
			return digest.Verify("combined stream", expected, sum)
		}
		return nil
	}

	return command
}
