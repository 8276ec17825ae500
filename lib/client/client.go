// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package client is the user side of the shardfs router protocol.
//
// Each operation validates its arguments locally with the same rules
// the router applies, opens one connection to the router, sends one
// command and reads the reply. Paths are rejected before any connection
// is made when they lack the "~S1/" marker or a supported extension.
//
// Downloads and archives are received into the download directory
// through a temporary file that is renamed into place only once every
// byte has arrived, so an interrupted transfer never leaves a truncated
// file under the final name. A saved archive is renamed with the suffix
// of whatever compression its magic bytes show.
package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/bureau-foundation/shardfs/lib/fstree"
	"github.com/bureau-foundation/shardfs/lib/netutil"
)

var (
	// ErrUnreachable means the router could not be connected to.
	ErrUnreachable = errors.New("cannot connect to router")

	// ErrNotRegular is returned when an upload source is not a regular
	// file.
	ErrNotRegular = errors.New("not a regular file")

	// ErrEmptyFile is returned for an upload source with no content;
	// the router refuses a zero size.
	ErrEmptyFile = errors.New("file is empty")

	// ErrNoFiles is returned by Archive when the store holds no files
	// of the requested type.
	ErrNoFiles = errors.New("no files of that type")
)

// Config configures a Client.
type Config struct {
	// Router is the router's TCP address.
	Router string

	// DialTimeout bounds connecting. Zero means no limit.
	DialTimeout time.Duration

	// ReadTimeout bounds each read from and write to the router. A
	// transfer that makes no progress for this long fails. Zero means
	// no limit.
	ReadTimeout time.Duration

	// DownloadDir receives downloaded files and archives. Empty means
	// the working directory.
	DownloadDir string

	// Progress receives transfer progress when non-nil.
	Progress io.Writer
}

// Client talks to a router.
type Client struct {
	config    Config
	downloads *fstree.Tree
	logger    *slog.Logger
}

// New creates a client. The download directory is created if missing.
func New(config Config, logger *slog.Logger) (*Client, error) {
	if config.Router == "" {
		return nil, errors.New("router address is required")
	}
	directory := config.DownloadDir
	if directory == "" {
		directory = "."
	}
	downloads, err := fstree.New(directory)
	if err != nil {
		return nil, fmt.Errorf("download directory: %w", err)
	}
	return &Client{config: config, downloads: downloads, logger: logger}, nil
}

// DownloadDir returns the absolute download directory.
func (c *Client) DownloadDir() string {
	return c.downloads.Root()
}

// session is one connection to the router.
type session struct {
	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer
}

func (c *Client) dial(ctx context.Context) (*session, error) {
	dialer := net.Dialer{Timeout: c.config.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.config.Router)
	if err != nil {
		return nil, fmt.Errorf("%w at %s: %v", ErrUnreachable, c.config.Router, err)
	}
	idle := netutil.NewIdleConn(conn, c.config.ReadTimeout, c.config.ReadTimeout)
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	return &session{
		conn:   &stoppingConn{IdleConn: idle, stop: stop},
		reader: bufio.NewReader(idle),
		writer: bufio.NewWriter(idle),
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

// send writes and flushes a command line.
func (s *session) send(write func(io.Writer) error) error {
	if err := write(s.writer); err != nil {
		return err
	}
	return s.writer.Flush()
}
