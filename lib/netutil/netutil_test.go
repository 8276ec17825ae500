// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"testing"
	"time"
)

func TestIsExpectedCloseError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"eof", io.EOF, true},
		{"wrapped eof", fmt.Errorf("reading: %w", io.EOF), true},
		{"closed", net.ErrClosed, true},
		{"reset", &net.OpError{Op: "read", Err: syscall.ECONNRESET}, true},
		{"broken pipe", &net.OpError{Op: "write", Err: syscall.EPIPE}, true},
		{"refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, false},
		{"other", errors.New("disk full"), false},
	}
	for _, test := range tests {
		if got := IsExpectedCloseError(test.err); got != test.want {
			t.Errorf("%s: IsExpectedCloseError = %v, want %v", test.name, got, test.want)
		}
	}
}

func TestIdleConnTimesOutOnStall(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	idle := NewIdleConn(server, 50*time.Millisecond, 0)

	go client.Write([]byte("first"))
	buffer := make([]byte, 16)
	n, err := idle.Read(buffer)
	if err != nil || string(buffer[:n]) != "first" {
		t.Fatalf("first read = (%q, %v)", buffer[:n], err)
	}

	_, err = idle.Read(buffer)
	if !IsTimeout(err) {
		t.Fatalf("stalled read error = %v, want timeout", err)
	}
	if IsExpectedCloseError(err) {
		t.Error("timeout classified as expected close")
	}
}
