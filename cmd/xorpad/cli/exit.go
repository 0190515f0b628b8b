// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ExitError signals a non-zero exit code for a condition the command
// has already reported in its own output. main exits with Code and
// prints nothing further.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode implements process.ExitCoder.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// Silent tells process.Report not to print an "error:" line.
func (e *ExitError) Silent() bool {
	return true
}
