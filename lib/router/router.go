// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package router implements the client-facing node of shardfs.
//
// The router owns the logical namespace rooted at "~S1/". It stores C
// sources in its own tree and places every other supported type on the
// storage node named after it. Uploads are staged locally first and
// forwarded once the full payload has arrived; the staged copy is
// removed only after the node acknowledges. Downloads, archive bundles
// and listings of remote files are proxied without buffering whole
// payloads, and listings merge the router's own entries with every
// node's.
//
// Each connection carries one command:
//
//	uploadf <name> <~S1/dir>  + size line + bytes  -> OK:/ERR: line
//	downlf <~S1/path>                              -> size line + bytes | ERR: line
//	removef <~S1/path>                             -> OK:/ERR: line
//	downltar <c|p|t|z>                             -> size line + tar bytes ("0" when empty)
//	dispfnames <~S1/dir>                           -> count line + "<name> (<label>)" lines
//
// The long-form verbs upload, download, delete, archiveByType and
// listDirectory are accepted as aliases.
package router

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
	"github.com/bureau-foundation/shardfs/lib/nodeclient"
	"github.com/bureau-foundation/shardfs/lib/server"
	"github.com/bureau-foundation/shardfs/lib/wire"
)

// Config configures a Router.
type Config struct {
	// Root is the router's own store; created if missing.
	Root string

	// Policy decides which type stays local. The zero value selects
	// namespace.DefaultPolicy.
	Policy namespace.Policy

	// Nodes maps each remote type to its storage node address.
	Nodes map[namespace.FileType]string

	// DialTimeout bounds connecting to a node.
	DialTimeout time.Duration

	// ForwardTimeout bounds each read from a node, including the
	// acknowledgement wait after a forwarded upload.
	ForwardTimeout time.Duration

	// StrictRemoteDelete reports a node's failure to delete as an
	// error instead of answering success regardless.
	StrictRemoteDelete bool

	// Compression wraps archives of local files.
	Compression archive.Compression

	// TempDir is where local archives are spooled.
	TempDir string
}

// Router serves client commands.
type Router struct {
	tree               *fstree.Tree
	policy             namespace.Policy
	nodes              map[namespace.FileType]*nodeclient.Client
	strictRemoteDelete bool
	compression        archive.Compression
	tempDir            string
	logger             *slog.Logger
	metrics            *metrics.Metrics
}

// New creates a router. Every remote type of the policy must have a
// node address. A nil m gets a private instrument set.
func New(config Config, logger *slog.Logger, m *metrics.Metrics) (*Router, error) {
	policy := config.Policy
	if !policy.LocalType.Valid() {
		policy = namespace.DefaultPolicy
	}

	nodes := make(map[namespace.FileType]*nodeclient.Client)
	for _, fileType := range policy.RemoteTypes() {
		address := config.Nodes[fileType]
		if address == "" {
			return nil, fmt.Errorf("no storage node address for %s files", fileType)
		}
		nodes[fileType] = nodeclient.New(fileType, address, config.DialTimeout, config.ForwardTimeout)
	}

	tree, err := fstree.New(config.Root)
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = metrics.New("router")
	}
	return &Router{
		tree:               tree,
		policy:             policy,
		nodes:              nodes,
		strictRemoteDelete: config.StrictRemoteDelete,
		compression:        config.Compression,
		tempDir:            config.TempDir,
		logger:             logger,
		metrics:            m,
	}, nil
}

// Tree returns the router's own store.
func (r *Router) Tree() *fstree.Tree {
	return r.tree
}

// ServeConn reads one client command from conn and dispatches it.
func (r *Router) ServeConn(ctx context.Context, conn *server.Conn) {
	started := time.Now()

	logger := r.logger.With("request_id", conn.ID, "remote", conn.RemoteAddr().String())

	verb, args, err := wire.ReadCommand(conn.Reader)
	if err != nil {
		if !netutil.IsExpectedCloseError(err) {
			logger.Debug("reading command failed", "error", err)
		}
		return
	}

	canonical, known := wire.RouterVerbs[verb]
	if !known {
		logger.Info("unknown command", "verb", verb)
		wire.WriteError(conn, wire.ReasonUnknownCommand)
		r.metrics.ObserveRequest("unknown", fmt.Errorf("unknown verb %q", verb), started)
		return
	}
	logger = logger.With("verb", canonical)

	switch canonical {
	case wire.VerbUpload:
		err = r.handleUpload(ctx, conn, logger, args)
	case wire.VerbDownload:
		err = r.handleDownload(ctx, conn, logger, args)
	case wire.VerbRemove:
		err = r.handleRemove(ctx, conn, logger, args)
	case wire.VerbArchive:
		err = r.handleArchive(ctx, conn, logger, args)
	case wire.VerbListNames:
		err = r.handleList(ctx, conn, logger, args)
	}

	r.metrics.ObserveRequest(canonical, err, started)
	if err != nil {
		logger.Info("command failed", "error", err, "duration", time.Since(started))
		return
	}
	logger.Debug("command completed", "duration", time.Since(started))
}

// node returns the client of the node holding location's files.
func (r *Router) node(location namespace.Location) (*nodeclient.Client, error) {
	client, ok := r.nodes[location.Node]
	if !ok {
		return nil, fmt.Errorf("%w: no node for %s", namespace.ErrUnsupportedType, location)
	}
	return client, nil
}
