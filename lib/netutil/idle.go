// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"net"
	"time"
)

// IdleConn wraps a connection so that every Read and Write gets a fresh
// deadline. A zero timeout leaves that direction without a deadline.
type IdleConn struct {
	net.Conn
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewIdleConn wraps conn with per-call read and write deadlines.
func NewIdleConn(conn net.Conn, readTimeout, writeTimeout time.Duration) *IdleConn {
	return &IdleConn{Conn: conn, ReadTimeout: readTimeout, WriteTimeout: writeTimeout}
}

func (c *IdleConn) Read(p []byte) (int, error) {
	if c.ReadTimeout > 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.ReadTimeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Read(p)
}

func (c *IdleConn) Write(p []byte) (int, error) {
	if c.WriteTimeout > 0 {
		if err := c.Conn.SetWriteDeadline(time.Now().Add(c.WriteTimeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Write(p)
}
