// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package router

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/bureau-foundation/shardfs/lib/archive"
	"github.com/bureau-foundation/shardfs/lib/namespace"
	"github.com/bureau-foundation/shardfs/lib/nodeclient"
	"github.com/bureau-foundation/shardfs/lib/server"
	"github.com/bureau-foundation/shardfs/lib/wire"
)

// resolveFile validates a logical file path and locates it.
func (r *Router) resolveFile(args []string) (string, namespace.Location, error) {
	if len(args) == 0 {
		return "", namespace.Location{}, errMissingArgument
	}
	relative, fileType, err := namespace.StripFile(args[0])
	if err != nil {
		return "", namespace.Location{}, err
	}
	location, err := r.policy.Locate(fileType)
	if err != nil {
		return "", namespace.Location{}, err
	}
	return relative, location, nil
}

func (r *Router) handleDownload(ctx context.Context, conn *server.Conn, logger *slog.Logger, args []string) error {
	relative, location, err := r.resolveFile(args)
	if err != nil {
		wire.WriteError(conn, server.Reason(err, wire.ReasonInvalidPath))
		return fmt.Errorf("download: %w", err)
	}
	logical := namespace.Logical(relative)
	logger = logger.With("path", logical, "location", location.String())

	if location.Local {
		file, size, err := r.tree.Open(relative)
		if err != nil {
			wire.WriteError(conn, server.Reason(err, wire.ReasonNotFound))
			return fmt.Errorf("download %s: %w", logical, err)
		}
		defer file.Close()
		if err := wire.WriteSize(conn, size); err != nil {
			return err
		}
		sent, err := wire.CopyExactly(conn, file, size)
		r.metrics.AddBytes("out", sent)
		if err != nil {
			return fmt.Errorf("download %s: %w", logical, err)
		}
		logger.Debug("file sent", "size", sent)
		return nil
	}

	node, err := r.node(location)
	if err != nil {
		wire.WriteError(conn, wire.ReasonUnsupportedType)
		return err
	}
	sent, err := node.Fetch(ctx, logical, conn)
	r.metrics.AddBytes("out", sent)
	return r.relayResult(conn, "download "+logical, sent, err, logger)
}

// relayResult finishes a relayed transfer. Only an unreachable node
// still allows an error line: anything else has already been relayed
// or broke the frame midway.
func (r *Router) relayResult(conn io.Writer, operation string, sent int64, err error, logger *slog.Logger) error {
	if err == nil {
		logger.Debug("relay completed", "size", sent)
		return nil
	}
	if errors.Is(err, nodeclient.ErrUnreachable) {
		wire.WriteError(conn, wire.ReasonCannotConnect)
	}
	return fmt.Errorf("%s: %w", operation, err)
}

func (r *Router) handleRemove(ctx context.Context, conn *server.Conn, logger *slog.Logger, args []string) error {
	relative, location, err := r.resolveFile(args)
	if err != nil {
		wire.WriteError(conn, server.Reason(err, wire.ReasonInvalidPath))
		return fmt.Errorf("remove: %w", err)
	}
	logical := namespace.Logical(relative)
	logger = logger.With("path", logical, "location", location.String())

	if location.Local {
		if err := r.tree.Remove(relative); err != nil {
			wire.WriteError(conn, wire.ReasonCannotRemove)
			return fmt.Errorf("remove %s: %w", logical, err)
		}
		logger.Info("file removed")
		return wire.WriteOK(conn, wire.MessageRemoved)
	}

	node, err := r.node(location)
	if err != nil {
		wire.WriteError(conn, wire.ReasonUnsupportedType)
		return err
	}
	acknowledged, err := node.Remove(ctx, logical)
	if err == nil && !acknowledged {
		err = fmt.Errorf("%s node refused", node.Type.Name())
	}
	if err != nil {
		if r.strictRemoteDelete {
			reason := wire.ReasonCannotRemove
			if errors.Is(err, nodeclient.ErrUnreachable) {
				reason = wire.ReasonCannotConnect
			}
			wire.WriteError(conn, reason)
			return fmt.Errorf("remove %s: %w", logical, err)
		}
		logger.Warn("remote delete not confirmed, reporting success", "node", node.Type.Name(), "error", err)
	} else {
		logger.Info("file removed", "node", node.Type.Name())
	}
	return wire.WriteOK(conn, fmt.Sprintf("%s from %s node", wire.MessageRemoved, node.Type.Name()))
}

func (r *Router) handleArchive(ctx context.Context, conn *server.Conn, logger *slog.Logger, args []string) error {
	if len(args) == 0 {
		wire.WriteError(conn, wire.ReasonUnsupportedType)
		return fmt.Errorf("archive: %w", errMissingArgument)
	}
	fileType, err := namespace.ParseType(args[0])
	var location namespace.Location
	if err == nil {
		location, err = r.policy.Locate(fileType)
	}
	if err != nil {
		wire.WriteError(conn, wire.ReasonUnsupportedType)
		return fmt.Errorf("archive: %w", err)
	}
	logger = logger.With("type", fileType.Name(), "location", location.String())

	if location.Local {
		files, err := r.tree.Walk(fileType)
		if err != nil {
			wire.WriteError(conn, wire.ReasonArchiveFailed)
			return fmt.Errorf("archive: %w", err)
		}
		if len(files) == 0 {
			logger.Debug("archive empty")
			return wire.WriteSize(conn, 0)
		}
		spooled, err := archive.Spool(r.tempDir, r.tree.Root(), files, r.compression)
		if err != nil {
			wire.WriteError(conn, wire.ReasonArchiveFailed)
			return fmt.Errorf("archive: %w", err)
		}
		defer spooled.Close()
		sent, err := spooled.SendFrame(conn)
		r.metrics.AddBytes("out", sent)
		if err != nil {
			return fmt.Errorf("archive: %w", err)
		}
		logger.Info("archive sent", "files", len(files), "size", sent)
		return nil
	}

	node, err := r.node(location)
	if err != nil {
		wire.WriteError(conn, wire.ReasonUnsupportedType)
		return err
	}
	sent, err := node.Archive(ctx, conn)
	r.metrics.AddBytes("out", sent)
	return r.relayResult(conn, "archive "+fileType.Name(), sent, err, logger)
}

// entry is one line of a merged directory listing.
type entry struct {
	name     string
	fileType namespace.FileType
}

// handleList merges the router's own entries with each node's. Nodes
// are asked one after another; a node that cannot be reached or
// answers with an error line contributes nothing.
func (r *Router) handleList(ctx context.Context, conn *server.Conn, logger *slog.Logger, args []string) error {
	logical := namespace.Logical(namespace.Root)
	if len(args) > 0 {
		logical = args[0]
	}
	relative, err := namespace.Strip(logical)
	if err != nil {
		wire.WriteError(conn, server.Reason(err, wire.ReasonInvalidPath))
		return fmt.Errorf("list: %w", err)
	}
	logical = namespace.Logical(relative)

	var entries []entry
	local, err := r.tree.List(relative, r.policy.LocalType)
	if err != nil {
		logger.Warn("listing local directory", "path", logical, "error", err)
	}
	for _, name := range local {
		entries = append(entries, entry{name: name, fileType: r.policy.LocalType})
	}

	for _, fileType := range r.policy.RemoteTypes() {
		names, err := r.nodes[fileType].List(ctx, logical)
		if err != nil {
			logger.Warn("node listing skipped", "node", fileType.Name(), "path", logical, "error", err)
			continue
		}
		for _, name := range names {
			entries = append(entries, entry{name: name, fileType: fileType})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].name != entries[j].name {
			return entries[i].name < entries[j].name
		}
		return entries[i].fileType < entries[j].fileType
	})

	if err := wire.WriteSize(conn, int64(len(entries))); err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := fmt.Fprintf(conn, "%s (%s)\n", e.name, e.fileType.Label()); err != nil {
			return err
		}
	}
	logger.Debug("directory listed", "path", logical, "entries", len(entries))
	return nil
}
