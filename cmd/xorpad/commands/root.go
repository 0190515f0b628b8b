// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bureau-foundation/xorpad/cmd/xorpad/cli"
	"github.com/bureau-foundation/xorpad/lib/config"
)

// Streams are the standard streams a command reads and writes. Tests
// substitute buffers.
type Streams struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// StandardStreams returns the process's own stdin, stdout and stderr.
func StandardStreams() Streams {
	return Streams{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Root returns the xorpad command tree.
func Root(streams Streams) *cli.Command {
	return &cli.Command{
		Name:    "xorpad",
		Summary: "XOR equal-length streams together",
		Description: `xorpad combines equal-length byte streams by XOR. Splitting a secret
into N shares, N-1 random pads plus the secret XOR every pad, and
combining all N shares recovers it exactly. Any N-1 shares reveal
nothing about it.`,
		HelpOutput: streams.Stderr,
		Subcommands: []*cli.Command{
			combineCommand(streams),
			splitCommand(streams),
			manifestCommand(streams),
			versionCommand(streams),
		},
	}
}

// globalParams are the flags every command that does work accepts.
type globalParams struct {
	ConfigPath string `flag:"config" desc:"configuration file (default: $XORPAD_CONFIG, else built-in defaults)"`
	LogLevel   string `flag:"log-level" desc:"override log.level: debug, info, warn or error"`
}

// setup loads the configuration and builds the command logger.
func (p *globalParams) setup(streams Streams, command string) (*config.Config, *slog.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if p.ConfigPath != "" {
		cfg, err = config.LoadFile(p.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}

	options := cli.LogOptions{Format: cfg.Log.Format, Level: cfg.Log.Level}
	if p.LogLevel != "" {
		options.Level = p.LogLevel
	}
	logger, err := cli.NewCommandLogger(streams.Stderr, options)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.With("command", command), nil
}
