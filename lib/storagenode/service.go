// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package storagenode implements the storage node: a server that holds
// every file of one type (pdf, text or zip) under its own root.
//
// Nodes speak only to the router. Upload destinations arrive as
// relative directories; fetch, delete and list requests carry the full
// logical path and the node strips the namespace marker itself. Each
// connection carries one command:
//
//	uploadf <name> <dir>  + size line + bytes   -> ACK | ERR
//	getf <logical>                              -> size line + bytes | ERR: line
//	removef <logical>                           -> ACK | ERR
//	gettar [<tag>]                              -> size line + tar bytes ("0" when empty)
//	listf <logical>                             -> count line + one name per line
//
// The long-form names upload, fetch, delete, archiveByType and
// listDirectory are accepted as aliases. A node refuses files of any
// type but its own.
package storagenode

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/shardfs/lib/archive"
	"github.com/bureau-foundation/shardfs/lib/fstree"
	"github.com/bureau-foundation/shardfs/lib/metrics"
	"github.com/bureau-foundation/shardfs/lib/namespace"
	"github.com/bureau-foundation/shardfs/lib/netutil"
	"github.com/bureau-foundation/shardfs/lib/server"
	"github.com/bureau-foundation/shardfs/lib/wire"
)

// Config configures a Service.
type Config struct {
	// Type is the file type the node holds. Must not be the router's
	// local type.
	Type namespace.FileType

	// Root is the node's store directory; created if missing.
	Root string

	// Compression wraps archive bundles.
	Compression archive.Compression

	// TempDir is where archive bundles are spooled. Empty uses the
	// system temporary directory.
	TempDir string
}

// Service serves one storage node's commands.
type Service struct {
	fileType    namespace.FileType
	tree        *fstree.Tree
	compression archive.Compression
	tempDir     string
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// New creates a node service. A nil m gets a private instrument set.
func New(config Config, logger *slog.Logger, m *metrics.Metrics) (*Service, error) {
	if !config.Type.Valid() {
		return nil, fmt.Errorf("storage node type: %w", namespace.ErrUnsupportedType)
	}
	tree, err := fstree.New(config.Root)
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = metrics.New(config.Type.Name())
	}
	return &Service{
		fileType:    config.Type,
		tree:        tree,
		compression: config.Compression,
		tempDir:     config.TempDir,
		logger:      logger.With("node", config.Type.Name()),
		metrics:     m,
	}, nil
}

// Type returns the file type the node holds.
func (s *Service) Type() namespace.FileType {
	return s.fileType
}

// Tree returns the node's store.
func (s *Service) Tree() *fstree.Tree {
	return s.tree
}

// ServeConn reads one command from conn and dispatches it.
func (s *Service) ServeConn(ctx context.Context, conn *server.Conn) {
	started := time.Now()
	logger := s.logger.With("request_id", conn.ID, "remote", conn.RemoteAddr().String())

	verb, args, err := wire.ReadCommand(conn.Reader)
	if err != nil {
		if !netutil.IsExpectedCloseError(err) {
			logger.Debug("reading command failed", "error", err)
		}
		return
	}

	canonical, known := wire.NodeVerbs[verb]
	if !known {
		logger.Info("unknown command", "verb", verb)
		wire.WriteError(conn, wire.ReasonUnknownCommand)
		s.metrics.ObserveRequest("unknown", fmt.Errorf("unknown verb %q", verb), started)
		return
	}
	logger = logger.With("verb", canonical)

	switch canonical {
	case wire.VerbNodeUpload:
		err = s.handleUpload(conn, logger, args)
	case wire.VerbFetch:
		err = s.handleFetch(conn, logger, args)
	case wire.VerbNodeRemove:
		err = s.handleRemove(conn, logger, args)
	case wire.VerbNodeTar:
		err = s.handleArchive(conn, logger, args)
	case wire.VerbNodeList:
		err = s.handleList(conn, logger, args)
	}

	s.metrics.ObserveRequest(canonical, err, started)
	if err != nil {
		logger.Warn("command failed", "error", err, "duration", time.Since(started))
		return
	}
	logger.Debug("command completed", "duration", time.Since(started))
}
