// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0
package internal

import (
	"fmt"
	"time"
)

const logTimeFormat = "2006-01-02T15:04:05.000Z"

// FmtLog formats a progress line for a task output stream.
func FmtLog(format string, args ...any) string {
	return fmt.Sprintf("[taskimage %s] %s\r\n", time.Now().UTC().Format(logTimeFormat), fmt.Sprintf(format, args...))
}

// FmtErrorLog formats an error line for a task output stream.
func FmtErrorLog(format string, args ...any) string {
	return fmt.Sprintf("[taskimage:error] %s\r\n", fmt.Sprintf(format, args...))
}
