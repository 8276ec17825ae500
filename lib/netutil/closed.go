// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil classifies connection errors and bounds connection
// reads with idle deadlines.
//
// [IsExpectedCloseError] separates a peer hanging up (EOF, reset, broken
// pipe) from real failures so servers do not log routine disconnects as
// errors. [IsTimeout] recognises deadline expiry. [IdleConn] refreshes a
// connection's read and write deadlines before every call, so a transfer
// fails only when the peer stalls, not when a large file simply takes a
// long time.
package netutil

import (
	"errors"
	"io"
	"net"
	"os"
	"syscall"
)

// IsExpectedCloseError reports whether err is a normal connection termination:
// EOF, closed connection, broken pipe, or connection reset. A client that
// hangs up after reading its reply, or a storage node that closes right after
// its acknowledgement, produces these on the surviving side. They are expected
// and should not be logged as errors.
func IsExpectedCloseError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EPIPE || errno == syscall.ECONNRESET
	}
	return false
}

// IsTimeout reports whether err is a deadline expiry.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
