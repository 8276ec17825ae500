// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package storagenode

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/bureau-foundation/shardfs/lib/archive"
	"github.com/bureau-foundation/shardfs/lib/namespace"
	"github.com/bureau-foundation/shardfs/lib/server"
	"github.com/bureau-foundation/shardfs/lib/wire"
)

var errMissingArgument = errors.New("missing argument")

// handleUpload stores one file. The frame is consumed even when the
// upload is refused, so the router reads the ERR acknowledgement
// instead of a reset.
func (s *Service) handleUpload(conn *server.Conn, logger *slog.Logger, args []string) error {
	if len(args) == 0 {
		wire.WriteAck(conn, false)
		return fmt.Errorf("upload: %w", errMissingArgument)
	}
	name := args[0]
	directory := namespace.Root
	if len(args) > 1 {
		directory = args[1]
	}

	size, err := wire.ReadSize(conn.Reader)
	if err != nil {
		wire.WriteAck(conn, false)
		return fmt.Errorf("upload %s: reading size: %w", name, err)
	}
	if size <= 0 {
		wire.WriteAck(conn, false)
		return fmt.Errorf("upload %s: %w: %d", name, wire.ErrInvalidSize, size)
	}

	relative, err := s.uploadTarget(name, directory)
	if err == nil {
		err = s.tree.CheckSpace(size)
	}
	if err != nil {
		io.CopyN(io.Discard, conn.Reader, size)
		wire.WriteAck(conn, false)
		return fmt.Errorf("upload %s: %w", name, err)
	}

	receipt, err := s.tree.Receive(relative, conn.Reader, size)
	s.metrics.AddBytes("in", receipt.Size)
	if err != nil {
		wire.WriteAck(conn, false)
		return fmt.Errorf("upload %s: %w", relative, err)
	}
	logger.Info("file stored",
		"path", namespace.Logical(relative),
		"size", receipt.Size,
		"blake3", receipt.Digest,
	)
	return wire.WriteAck(conn, true)
}

// uploadTarget validates an upload's name and destination directory
// and returns the relative path to store it at.
func (s *Service) uploadTarget(name, directory string) (string, error) {
	if name == "" || path.Base(name) != name || name == "." || name == ".." {
		return "", fmt.Errorf("%w: file name %q", namespace.ErrInvalidPath, name)
	}
	fileType, err := namespace.TypeOf(name)
	if err != nil {
		return "", err
	}
	if fileType != s.fileType {
		return "", fmt.Errorf("%w: %s file on %s node", namespace.ErrUnsupportedType, fileType, s.fileType)
	}
	relativeDirectory, err := namespace.CleanRelative(directory)
	if err != nil {
		return "", err
	}
	return namespace.Join(relativeDirectory, name), nil
}

// ownedFile resolves a logical path naming a file of this node's type.
func (s *Service) ownedFile(args []string) (string, error) {
	if len(args) == 0 {
		return "", errMissingArgument
	}
	relative, fileType, err := namespace.StripFile(args[0])
	if err != nil {
		return "", err
	}
	if fileType != s.fileType {
		return "", fmt.Errorf("%w: %s file on %s node", namespace.ErrUnsupportedType, fileType, s.fileType)
	}
	return relative, nil
}

func (s *Service) handleFetch(conn *server.Conn, logger *slog.Logger, args []string) error {
	relative, err := s.ownedFile(args)
	if err != nil {
		wire.WriteError(conn, server.Reason(err, wire.ReasonInvalidPath))
		return fmt.Errorf("fetch: %w", err)
	}

	file, size, err := s.tree.Open(relative)
	if err != nil {
		wire.WriteError(conn, server.Reason(err, wire.ReasonNotFound))
		return fmt.Errorf("fetch %s: %w", relative, err)
	}
	defer file.Close()

	if err := wire.WriteSize(conn, size); err != nil {
		return fmt.Errorf("fetch %s: writing size: %w", relative, err)
	}
	sent, err := wire.CopyExactly(conn, file, size)
	s.metrics.AddBytes("out", sent)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", relative, err)
	}
	logger.Debug("file sent", "path", namespace.Logical(relative), "size", sent)
	return nil
}

func (s *Service) handleRemove(conn *server.Conn, logger *slog.Logger, args []string) error {
	relative, err := s.ownedFile(args)
	if err == nil {
		err = s.tree.Remove(relative)
	}
	if err != nil {
		wire.WriteAck(conn, false)
		return fmt.Errorf("remove: %w", err)
	}
	logger.Info("file removed", "path", namespace.Logical(relative))
	return wire.WriteAck(conn, true)
}

// handleArchive sends a tar of every file of this node's type. The tag
// argument is optional; when present it must name this node's type.
func (s *Service) handleArchive(conn *server.Conn, logger *slog.Logger, args []string) error {
	if len(args) > 0 {
		requested, err := namespace.ParseType(args[0])
		if err == nil && requested != s.fileType {
			err = fmt.Errorf("%w: %s archive from %s node", namespace.ErrUnsupportedType, requested, s.fileType)
		}
		if err != nil {
			wire.WriteError(conn, wire.ReasonUnsupportedType)
			return fmt.Errorf("archive: %w", err)
		}
	}

	files, err := s.tree.Walk(s.fileType)
	if err != nil {
		wire.WriteError(conn, wire.ReasonArchiveFailed)
		return fmt.Errorf("archive: %w", err)
	}
	if len(files) == 0 {
		logger.Debug("archive empty")
		return wire.WriteSize(conn, 0)
	}

	spooled, err := archive.Spool(s.tempDir, s.tree.Root(), files, s.compression)
	if err != nil {
		wire.WriteError(conn, wire.ReasonArchiveFailed)
		return fmt.Errorf("archive: %w", err)
	}
	defer spooled.Close()

	sent, err := spooled.SendFrame(conn)
	s.metrics.AddBytes("out", sent)
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	logger.Info("archive sent", "files", len(files), "size", sent, "compression", s.compression.String())
	return nil
}

func (s *Service) handleList(conn *server.Conn, logger *slog.Logger, args []string) error {
	logical := namespace.Logical(namespace.Root)
	if len(args) > 0 {
		logical = args[0]
	}
	relative, err := namespace.Strip(logical)
	if err != nil {
		wire.WriteError(conn, server.Reason(err, wire.ReasonInvalidPath))
		return fmt.Errorf("list: %w", err)
	}

	names, err := s.tree.List(relative, s.fileType)
	if err != nil {
		wire.WriteError(conn, wire.ReasonListFailed)
		return fmt.Errorf("list %s: %w", relative, err)
	}
	if err := wire.WriteSize(conn, int64(len(names))); err != nil {
		return err
	}
	for _, name := range names {
		if _, err := io.WriteString(conn, name+"\n"); err != nil {
			return err
		}
	}
	logger.Debug("directory listed", "path", logical, "entries", len(names))
	return nil
}
