// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/bureau-foundation/shardfs/lib/archive"
	"github.com/bureau-foundation/shardfs/lib/namespace"
	"github.com/bureau-foundation/shardfs/lib/wire"
)

// Transfer describes a file saved by Download or Archive.
type Transfer struct {
	// Path is the absolute path the file was saved under.
	Path string

	// Size is the number of bytes received.
	Size int64

	// Digest is the hex BLAKE3 digest of the received bytes.
	Digest string

	// Entries is the number of files in a saved archive.
	Entries int

	// Compression is the detected compression of a saved archive.
	Compression archive.Compression
}

// Upload sends the local file at localPath into the logical directory
// destination and returns the router's success message. A router error
// line is returned as a *wire.RemoteError.
func (c *Client) Upload(ctx context.Context, localPath, destination string) (string, error) {
	name := filepath.Base(localPath)
	if _, err := namespace.Strip(destination); err != nil {
		return "", err
	}
	if _, err := namespace.TypeOf(name); err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}

	file, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s: %w", localPath, ErrNotRegular)
	}
	size := info.Size()
	if size == 0 {
		return "", fmt.Errorf("%s: %w", localPath, ErrEmptyFile)
	}

	s, err := c.dial(ctx)
	if err != nil {
		return "", err
	}
	defer s.conn.Close()

	progress := c.track("upload "+name, size)
	writeErr := s.send(func(w io.Writer) error {
		if err := wire.WriteCommand(w, wire.VerbUpload, name, destination); err != nil {
			return err
		}
		if err := wire.WriteSize(w, size); err != nil {
			return err
		}
		_, err := wire.CopyExactly(w, progress.reader(file), size)
		return err
	})
	progress.finish()

	// The router may refuse before reading the payload, so its reply is
	// read even when sending failed.
	message, err := wire.ReadResponse(s.reader)
	if err != nil && writeErr != nil {
		return "", fmt.Errorf("sending %s: %w", name, writeErr)
	}
	if err != nil {
		return "", err
	}
	c.logger.Debug("upload completed", "file", name, "destination", destination, "size", size)
	return message, nil
}

// Download fetches the file at logical and saves it in the download
// directory under its final path segment.
func (c *Client) Download(ctx context.Context, logical string) (Transfer, error) {
	relative, _, err := namespace.StripFile(logical)
	if err != nil {
		return Transfer{}, err
	}
	name := path.Base(relative)
	return c.receive(ctx, name, "download "+name, wire.VerbDownload, logical)
}

// Archive fetches a tar bundle of every stored file of fileType and
// saves it under the type's archive name plus the suffix of its
// compression. ErrNoFiles is returned when the bundle is empty.
func (c *Client) Archive(ctx context.Context, fileType namespace.FileType) (Transfer, error) {
	if !fileType.Valid() {
		return Transfer{}, fmt.Errorf("%w: %s", namespace.ErrUnsupportedType, fileType)
	}
	name := fileType.ArchiveName()
	transfer, err := c.receive(ctx, name, "archive "+fileType.Name(), wire.VerbArchive, fileType.Tag())
	if err != nil {
		return transfer, err
	}

	file, err := os.Open(transfer.Path)
	if err != nil {
		return transfer, err
	}
	entries, compression, err := archive.Entries(file)
	file.Close()
	if err != nil {
		return transfer, fmt.Errorf("reading %s: %w", transfer.Path, err)
	}
	transfer.Entries = len(entries)
	transfer.Compression = compression

	if suffix := compression.Suffix(); suffix != "" {
		renamed := transfer.Path + suffix
		if err := os.Rename(transfer.Path, renamed); err != nil {
			return transfer, err
		}
		transfer.Path = renamed
	}
	return transfer, nil
}

// receive sends one command and saves the transfer frame it answers
// with as name in the download directory.
func (c *Client) receive(ctx context.Context, name, label, verb string, args ...string) (Transfer, error) {
	s, err := c.dial(ctx)
	if err != nil {
		return Transfer{}, err
	}
	defer s.conn.Close()

	if err := s.send(func(w io.Writer) error { return wire.WriteCommand(w, verb, args...) }); err != nil {
		return Transfer{}, err
	}
	size, err := wire.ReadSize(s.reader)
	if err != nil {
		return Transfer{}, err
	}
	if size < 0 {
		return Transfer{}, fmt.Errorf("%w: %d", wire.ErrInvalidSize, size)
	}
	if size == 0 && verb == wire.VerbArchive {
		return Transfer{}, ErrNoFiles
	}

	progress := c.track(label, size)
	receipt, err := c.downloads.Receive(name, progress.reader(s.reader), size)
	progress.finish()
	if err != nil {
		return Transfer{Size: receipt.Size}, err
	}
	c.logger.Debug("transfer saved", "path", receipt.Path, "size", receipt.Size, "blake3", receipt.Digest)
	return Transfer{Path: receipt.Path, Size: receipt.Size, Digest: receipt.Digest}, nil
}

// Delete removes the file at logical and returns the router's success
// message.
func (c *Client) Delete(ctx context.Context, logical string) (string, error) {
	if _, _, err := namespace.StripFile(logical); err != nil {
		return "", err
	}
	s, err := c.dial(ctx)
	if err != nil {
		return "", err
	}
	defer s.conn.Close()

	if err := s.send(func(w io.Writer) error { return wire.WriteCommand(w, wire.VerbRemove, logical) }); err != nil {
		return "", err
	}
	return wire.ReadResponse(s.reader)
}

// List returns the formatted "name (label)" lines of the logical
// directory, merged across every store and sorted by name.
func (c *Client) List(ctx context.Context, logical string) ([]string, error) {
	if _, err := namespace.Strip(logical); err != nil {
		return nil, err
	}
	s, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer s.conn.Close()

	if err := s.send(func(w io.Writer) error { return wire.WriteCommand(w, wire.VerbListNames, logical) }); err != nil {
		return nil, err
	}
	count, err := wire.ReadSize(s.reader)
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, fmt.Errorf("%w: count %d", wire.ErrInvalidSize, count)
	}
	lines := make([]string, 0, min(count, 1024))
	for i := int64(0); i < count; i++ {
		line, err := wire.ReadLine(s.reader)
		if err != nil {
			return lines, fmt.Errorf("reading entry %d of %d: %w", i+1, count, err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}
