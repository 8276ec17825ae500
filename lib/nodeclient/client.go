// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package nodeclient is the router's side of the storage node protocol.
//
// Every call opens a fresh TCP connection, sends one command, reads the
// reply, and closes the connection. Dial failures wrap [ErrUnreachable].
// Upload failures after connecting wrap [ErrForwarding], refined by
// [ErrRejected] (the node answered ERR) or [ErrNoAcknowledgement] (the
// node went silent or hung up).
//
// Fetch and Archive relay a node's transfer frame verbatim: the size
// line is copied to the destination before it is interpreted, so a node
// error line reaches the client unchanged, and the body is streamed with
// [wire.CopyExactly] without buffering the whole file.
package nodeclient

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/bureau-foundation/shardfs/lib/namespace"
	"github.com/bureau-foundation/shardfs/lib/netutil"
	"github.com/bureau-foundation/shardfs/lib/wire"
)

var (
	// ErrUnreachable means the node could not be connected to.
	ErrUnreachable = errors.New("storage node unreachable")

	// ErrForwarding means an upload reached the node but was not
	// confirmed.
	ErrForwarding = errors.New("forwarding to storage node failed")

	// ErrRejected means the node answered an upload with ERR.
	ErrRejected = fmt.Errorf("%w: rejected", ErrForwarding)

	// ErrNoAcknowledgement means the node closed or stalled before
	// acknowledging an upload.
	ErrNoAcknowledgement = fmt.Errorf("%w: no acknowledgement", ErrForwarding)
)

// Client talks to one storage node.
type Client struct {
	// Type is the file type the node holds.
	Type namespace.FileType

	// Address is the node's TCP address.
	Address string

	// DialTimeout bounds connecting. Zero means no limit.
	DialTimeout time.Duration

	// ReadTimeout bounds each read from the node, including the
	// acknowledgement wait. Zero means no limit.
	ReadTimeout time.Duration
}

// New returns a client for the node holding fileType at address.
func New(fileType namespace.FileType, address string, dialTimeout, readTimeout time.Duration) *Client {
	return &Client{
		Type:        fileType,
		Address:     address,
		DialTimeout: dialTimeout,
		ReadTimeout: readTimeout,
	}
}

// session is one connection to the node.
type session struct {
	conn   net.Conn
	reader *bufio.Reader
}

func (c *Client) dial(ctx context.Context) (*session, error) {
	dialer := net.Dialer{Timeout: c.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: %s node at %s: %v", ErrUnreachable, c.Type.Name(), c.Address, err)
	}
	idle := netutil.NewIdleConn(conn, c.ReadTimeout, c.ReadTimeout)

	// Closing the connection is the only way to abort a blocked read.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	return &session{
		conn:   &stoppingConn{IdleConn: idle, stop: stop},
		reader: bufio.NewReader(idle),
	}, nil
}

// stoppingConn releases the context hook when the connection closes.
type stoppingConn struct {
	*netutil.IdleConn
	stop func() bool
}

func (c *stoppingConn) Close() error {
	c.stop()
	return c.IdleConn.Close()
}

// Upload sends size bytes from r to be stored as name under the
// relative directory, and waits for the node's acknowledgement. Only a
// nil return means the node holds the complete file.
func (c *Client) Upload(ctx context.Context, name, relativeDirectory string, r io.Reader, size int64) error {
	s, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer s.conn.Close()

	writer := bufio.NewWriterSize(s.conn, wire.ChunkSize)
	writeErr := wire.WriteCommand(writer, wire.VerbNodeUpload, name, relativeDirectory)
	if writeErr == nil {
		writeErr = wire.WriteSize(writer, size)
	}
	if writeErr == nil {
		_, writeErr = wire.CopyExactly(writer, r, size)
	}
	if writeErr == nil {
		writeErr = writer.Flush()
	}

	// A node that refuses early may close its read side while the body
	// is still in flight; its ERR is still worth reading.
	acknowledged, ackErr := wire.ReadAck(s.reader)
	switch {
	case ackErr == nil && acknowledged && writeErr == nil:
		return nil
	case ackErr == nil && !acknowledged:
		return fmt.Errorf("%w by %s node", ErrRejected, c.Type.Name())
	case writeErr != nil && !netutil.IsExpectedCloseError(writeErr):
		return fmt.Errorf("%w: sending to %s node: %v", ErrNoAcknowledgement, c.Type.Name(), writeErr)
	default:
		return fmt.Errorf("%w from %s node: %v", ErrNoAcknowledgement, c.Type.Name(), ackErr)
	}
}

// Fetch relays the transfer frame of the file at the logical path to
// dst and returns the number of body bytes relayed. A node error line
// is relayed and returned as *wire.RemoteError.
func (c *Client) Fetch(ctx context.Context, logical string, dst io.Writer) (int64, error) {
	return c.relay(ctx, dst, wire.VerbFetch, logical)
}

// Archive relays the node's archive frame to dst.
func (c *Client) Archive(ctx context.Context, dst io.Writer) (int64, error) {
	return c.relay(ctx, dst, wire.VerbNodeTar, c.Type.Tag())
}

// relay sends one command and copies the size line and body that come
// back to dst. Nothing is written to dst when the node is unreachable,
// so the caller can still answer with its own error line.
func (c *Client) relay(ctx context.Context, dst io.Writer, verb string, args ...string) (int64, error) {
	s, err := c.dial(ctx)
	if err != nil {
		return 0, err
	}
	defer s.conn.Close()

	if err := wire.WriteCommand(s.conn, verb, args...); err != nil {
		return 0, fmt.Errorf("%w: sending %s: %v", ErrUnreachable, verb, err)
	}
	line, err := wire.ReadLine(s.reader)
	if err != nil {
		return 0, fmt.Errorf("%w: reading %s reply: %v", ErrUnreachable, verb, err)
	}
	if _, err := io.WriteString(dst, line+"\n"); err != nil {
		return 0, fmt.Errorf("relaying size line: %w", err)
	}
	size, err := wire.ParseSize(line)
	if err != nil || size <= 0 {
		return 0, err
	}
	return wire.CopyExactly(dst, s.reader, size)
}

// Remove asks the node to delete the file at the logical path and
// reports whether it acknowledged.
func (c *Client) Remove(ctx context.Context, logical string) (bool, error) {
	s, err := c.dial(ctx)
	if err != nil {
		return false, err
	}
	defer s.conn.Close()

	if err := wire.WriteCommand(s.conn, wire.VerbNodeRemove, logical); err != nil {
		return false, fmt.Errorf("sending remove: %w", err)
	}
	return wire.ReadAck(s.reader)
}

// List returns the names of the node's files directly inside the
// logical directory. A node error line is returned as *wire.RemoteError.
func (c *Client) List(ctx context.Context, logical string) ([]string, error) {
	s, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer s.conn.Close()

	if err := wire.WriteCommand(s.conn, wire.VerbNodeList, logical); err != nil {
		return nil, fmt.Errorf("sending list: %w", err)
	}
	count, err := wire.ReadSize(s.reader)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, min(max(count, 0), 1024))
	for i := int64(0); i < count; i++ {
		name, err := wire.ReadLine(s.reader)
		if err != nil {
			return names, fmt.Errorf("reading entry %d of %d: %w", i+1, count, err)
		}
		names = append(names, name)
	}
	return names, nil
}
