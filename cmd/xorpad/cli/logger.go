// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// LogOptions selects the command logger's format and level. The values
// are those of the config file's log section.
type LogOptions struct {
	// Format is "auto", "text" or "json". Auto picks text when the
	// destination is a terminal and JSON otherwise.
	Format string
	// Level is "debug", "info", "warn" or "error".
	Level string
}

// NewCommandLogger creates the structured logger commands write
// diagnostics to. Stdout is never used: it carries the combined
// stream.
//
// Callers scope it with command context:
//
//	logger = logger.With("command", "combine", "sources", len(args))
func NewCommandLogger(w io.Writer, options LogOptions) (*slog.Logger, error) {
	var level slog.Level
	if options.Level != "" {
		if err := level.UnmarshalText([]byte(options.Level)); err != nil {
			return nil, fmt.Errorf("log level %q: %w", options.Level, err)
		}
	}
	handlerOptions := &slog.HandlerOptions{Level: level}

	format := strings.ToLower(options.Format)
	if format == "" || format == "auto" {
		format = "json"
		if isTerminal(w) {
			format = "text"
		}
	}

	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(w, handlerOptions)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOptions)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want auto, text or json)", options.Format)
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}
