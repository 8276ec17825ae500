// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package router

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/bureau-foundation/shardfs/lib/namespace"
	"github.com/bureau-foundation/shardfs/lib/nodeclient"
	"github.com/bureau-foundation/shardfs/lib/server"
	"github.com/bureau-foundation/shardfs/lib/wire"
)

var errMissingArgument = errors.New("missing argument")

// uploadTarget is a validated upload destination.
type uploadTarget struct {
	name      string
	directory string
	fileType  namespace.FileType
	location  namespace.Location
}

func (t uploadTarget) relative() string {
	return namespace.Join(t.directory, t.name)
}

// resolveUpload validates the file name and logical destination
// directory and decides where the file will live.
func (r *Router) resolveUpload(name, destination string) (uploadTarget, error) {
	directory, err := namespace.Strip(destination)
	if err != nil {
		return uploadTarget{}, err
	}
	if name == "" || path.Base(name) != name || name == "." || name == ".." {
		return uploadTarget{}, fmt.Errorf("%w: file name %q", namespace.ErrInvalidPath, name)
	}
	fileType, err := namespace.TypeOf(name)
	if err != nil {
		return uploadTarget{}, err
	}
	location, err := r.policy.Locate(fileType)
	if err != nil {
		return uploadTarget{}, err
	}
	return uploadTarget{name: name, directory: directory, fileType: fileType, location: location}, nil
}

// handleUpload runs the upload pipeline: validate, stage the payload in
// the router's tree, then either keep it (local type) or forward it to
// the owning node and drop the staged copy once the node acknowledges.
func (r *Router) handleUpload(ctx context.Context, conn *server.Conn, logger *slog.Logger, args []string) error {
	if len(args) < 2 {
		wire.WriteError(conn, wire.ReasonMissingArgument)
		return fmt.Errorf("upload: %w: want <name> <destination>", errMissingArgument)
	}
	name, destination := args[0], args[1]

	sizeLine, err := wire.ReadLine(conn.Reader)
	if err != nil || strings.TrimSpace(sizeLine) == "" {
		wire.WriteError(conn, wire.ReasonMissingSize)
		return fmt.Errorf("upload %s: missing size line: %v", name, err)
	}
	size, err := wire.ParseSize(sizeLine)
	if err != nil || size <= 0 {
		wire.WriteError(conn, wire.ReasonInvalidSize)
		return fmt.Errorf("upload %s: %w: %q", name, wire.ErrInvalidSize, sizeLine)
	}

	target, err := r.resolveUpload(name, destination)
	if err == nil {
		err = r.tree.CheckSpace(size)
	}
	if err != nil {
		// Consume the payload so the client reads the error line rather
		// than a reset.
		io.CopyN(io.Discard, conn.Reader, size)
		wire.WriteError(conn, server.Reason(err, wire.ReasonInvalidPath))
		return fmt.Errorf("upload %s to %s: %w", name, destination, err)
	}
	logger = logger.With("path", namespace.Logical(target.relative()), "size", size)

	receipt, err := r.tree.Receive(target.relative(), conn.Reader, size)
	r.metrics.AddBytes("in", receipt.Size)
	if err != nil {
		wire.WriteError(conn, server.Reason(err, wire.ReasonCreateFailed))
		return fmt.Errorf("upload %s: staging: %w", target.relative(), err)
	}

	if target.location.Local {
		logger.Info("file stored locally", "blake3", receipt.Digest)
		return wire.WriteOK(conn, wire.MessageStoredLocally)
	}

	node, err := r.node(target.location)
	if err != nil {
		wire.WriteError(conn, wire.ReasonUnsupportedType)
		return err
	}
	if err := r.forward(ctx, node, target, size); err != nil {
		reason, label := forwardFailure(err)
		r.metrics.ForwardFailures.WithLabelValues(node.Type.Name(), label).Inc()
		logger.Warn("forward failed, staged copy retained",
			"node", node.Type.Name(),
			"retained", receipt.Path,
			"blake3", receipt.Digest,
			"error", err,
		)
		wire.WriteError(conn, reason)
		return err
	}

	if err := r.tree.Remove(target.relative()); err != nil {
		logger.Warn("removing staged copy after forward", "error", err)
	}
	r.tree.Prune(target.directory)
	logger.Info("file stored remotely", "node", node.Type.Name(), "blake3", receipt.Digest)
	return wire.WriteOK(conn, wire.MessageStoredRemotely)
}

// forward streams the staged file to its node and waits for the
// acknowledgement.
func (r *Router) forward(ctx context.Context, node *nodeclient.Client, target uploadTarget, size int64) error {
	staged, _, err := r.tree.Open(target.relative())
	if err != nil {
		return fmt.Errorf("%w: reopening staged copy: %v", nodeclient.ErrForwarding, err)
	}
	defer staged.Close()
	return node.Upload(ctx, target.name, target.directory, staged, size)
}

// forwardFailure maps a forwarding error onto the client's error line
// and a metric label.
func forwardFailure(err error) (reason, label string) {
	switch {
	case errors.Is(err, nodeclient.ErrUnreachable):
		return wire.ReasonCannotConnect, "unreachable"
	case errors.Is(err, nodeclient.ErrRejected):
		return wire.ReasonRejected, "rejected"
	default:
		return wire.ReasonNoAck, "no_ack"
	}
}
