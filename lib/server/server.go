// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package server runs the TCP accept loop shared by the shardfs router
// and storage nodes.
//
// Each accepted connection carries exactly one command and is served on
// its own goroutine; the handler reads the command, replies, and the
// server closes the connection when the handler returns. Reads and
// writes go through [netutil.IdleConn], so a peer that stalls longer
// than the configured timeout fails the transfer instead of pinning the
// goroutine.
//
// Serve blocks until its context is cancelled, then stops accepting and
// waits for in-flight connections to finish.
package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bureau-foundation/shardfs/lib/metrics"
	"github.com/bureau-foundation/shardfs/lib/netutil"
)

// Handler serves one connection. The server closes the connection
// after ServeConn returns.
type Handler interface {
	ServeConn(ctx context.Context, conn *Conn)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, conn *Conn)

// ServeConn calls f.
func (f HandlerFunc) ServeConn(ctx context.Context, conn *Conn) {
	f(ctx, conn)
}

// Conn is an accepted connection. Command text and payload bytes must
// both be read through Reader; writes go straight to the connection.
type Conn struct {
	net.Conn

	// Reader buffers the connection's input.
	Reader *bufio.Reader

	// ID identifies the connection in logs.
	ID string

	// Logger carries the connection's request_id and remote attributes.
	Logger *slog.Logger
}

// NewConn wraps conn with idle deadlines and a request identifier.
func NewConn(conn net.Conn, readTimeout, writeTimeout time.Duration, logger *slog.Logger) *Conn {
	idle := netutil.NewIdleConn(conn, readTimeout, writeTimeout)
	id := uuid.NewString()
	remote := "unknown"
	if address := conn.RemoteAddr(); address != nil {
		remote = address.String()
	}
	return &Conn{
		Conn:   idle,
		Reader: bufio.NewReader(idle),
		ID:     id,
		Logger: logger.With("request_id", id, "remote", remote),
	}
}

// Options configures a Server.
type Options struct {
	// ReadTimeout bounds each read from a client. Zero disables it.
	ReadTimeout time.Duration

	// WriteTimeout bounds each write to a client. Zero disables it.
	WriteTimeout time.Duration

	// Metrics, when set, tracks active connections.
	Metrics *metrics.Metrics
}

// Server accepts connections and hands each to a Handler.
type Server struct {
	handler Handler
	logger  *slog.Logger
	options Options

	// activeConnections tracks in-flight handlers for graceful
	// shutdown.
	activeConnections sync.WaitGroup
}

// New creates a server dispatching to handler.
func New(handler Handler, logger *slog.Logger, options Options) *Server {
	return &Server{
		handler: handler,
		logger:  logger,
		options: options,
	}
}

// ListenAndServe listens on address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", address, err)
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is cancelled, then
// closes the listener and waits for active handlers to complete.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	defer listener.Close()

	// Unblock Accept when the context is cancelled.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("server listening", "address", listener.Addr().String())

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			if errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		s.activeConnections.Add(1)
		go func() {
			defer s.activeConnections.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.activeConnections.Wait()
	s.logger.Info("server stopped", "address", listener.Addr().String())
	return nil
}

func (s *Server) handleConnection(ctx context.Context, raw net.Conn) {
	defer raw.Close()

	if s.options.Metrics != nil {
		s.options.Metrics.Connections.Inc()
		defer s.options.Metrics.Connections.Dec()
	}

	conn := NewConn(raw, s.options.ReadTimeout, s.options.WriteTimeout, s.logger)
	defer func() {
		if recovered := recover(); recovered != nil {
			conn.Logger.Error("handler panicked", "panic", recovered)
		}
	}()
	s.handler.ServeConn(ctx, conn)
}
