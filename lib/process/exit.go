// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Exit codes. Each fatal condition has its own stable code so scripts
// can tell them apart; 1 through 7 match the historical tool.
const (
	ExitSuccess            = 0
	ExitUsage              = 1
	ExitSourceOpen         = 2
	ExitSourceBufferAlloc  = 3
	ExitOutputBufferAlloc  = 4
	ExitSourceRead         = 5
	ExitLengthMismatch     = 6
	ExitSinkWrite          = 7
	ExitSourceTableAlloc   = 8
	ExitDigestVerification = 9
)

// ExitCoder is implemented by errors that map to a specific exit code.
type ExitCoder interface {
	ExitCode() int
}

// Code returns the exit code for err: ExitSuccess for nil, the code of
// the outermost ExitCoder in err's chain, or ExitUsage otherwise.
func Code(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var coder ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return ExitUsage
}

// Report writes "error: err" to w unless err is nil or marks itself as
// already reported (an ExitCoder that is also Silent). It returns the
// exit code for err.
func Report(w io.Writer, err error) int {
	if err == nil {
		return ExitSuccess
	}
	var silent interface{ Silent() bool }
	if !errors.As(err, &silent) || !silent.Silent() {
		fmt.Fprintf(w, "error: %v\n", err)
	}
	return Code(err)
}

// Fatal reports err on stderr and exits with its code. This is the
// entrypoint error handler for main(); it is safe to use before the
// structured logger exists.
func Fatal(err error) {
	os.Exit(Report(os.Stderr, err))
}
