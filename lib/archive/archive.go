// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive builds the per-type tar bundles served by
// archive-by-type requests.
//
// Entries are stored under their path relative to the store root, so
// extracting a bundle recreates the namespace layout. A bundle is spooled
// to a temporary file first because the transfer frame needs the total
// size before the first body byte; [Spool] returns the open file rewound
// to the start, and closing it deletes it.
package archive

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/shardfs/lib/wire"
)

// Write streams a tar of files (slash-separated paths relative to root)
// into w using compression c.
func Write(w io.Writer, root string, files []string, c Compression) error {
	compressed, err := compressor(w, c)
	if err != nil {
		return err
	}
	writer := tar.NewWriter(compressed)
	for _, name := range files {
		if err := addFile(writer, root, name); err != nil {
			compressed.Close()
			return err
		}
	}
	if err := writer.Close(); err != nil {
		compressed.Close()
		return fmt.Errorf("finishing tar: %w", err)
	}
	if err := compressed.Close(); err != nil {
		return fmt.Errorf("flushing %s stream: %w", c, err)
	}
	return nil
}

func addFile(writer *tar.Writer, root, name string) error {
	file, err := os.Open(filepath.Join(root, filepath.FromSlash(name)))
	if err != nil {
		return fmt.Errorf("opening %s: %w", name, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", name, err)
	}
	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("tar header for %s: %w", name, err)
	}
	header.Name = name
	header.Uname, header.Gname = "", ""
	if err := writer.WriteHeader(header); err != nil {
		return fmt.Errorf("writing header for %s: %w", name, err)
	}
	// The header carries the stat size; a file that shrank since would
	// corrupt the stream, so copy exactly that many bytes.
	if _, err := io.CopyN(writer, file, info.Size()); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// Spooled is a finished archive held in a temporary file.
type Spooled struct {
	*os.File

	// Size is the archive length in bytes.
	Size int64
}

// Close closes and deletes the temporary file.
func (s *Spooled) Close() error {
	closeErr := s.File.Close()
	removeErr := os.Remove(s.File.Name())
	return errors.Join(closeErr, removeErr)
}

// SendFrame writes the archive to w as a transfer frame (size line,
// then body) and returns the number of body bytes sent.
func (s *Spooled) SendFrame(w io.Writer) (int64, error) {
	if err := wire.WriteSize(w, s.Size); err != nil {
		return 0, fmt.Errorf("writing archive size: %w", err)
	}
	return wire.CopyExactly(w, s.File, s.Size)
}

// Spool writes the archive of files into a new temporary file in
// tempDir (the system default when empty) and returns it positioned at
// the start.
func Spool(tempDir, root string, files []string, c Compression) (*Spooled, error) {
	file, err := os.CreateTemp(tempDir, "shardfs-archive-*.tar")
	if err != nil {
		return nil, fmt.Errorf("creating archive file: %w", err)
	}
	spooled := &Spooled{File: file}
	if err := Write(file, root, files, c); err != nil {
		spooled.Close()
		return nil, err
	}
	size, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		spooled.Close()
		return nil, fmt.Errorf("sizing archive: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		spooled.Close()
		return nil, fmt.Errorf("rewinding archive: %w", err)
	}
	spooled.Size = size
	return spooled, nil
}

// Entries returns the entry names of an archive, detecting its
// compression from the leading bytes.
func Entries(r io.Reader) ([]string, Compression, error) {
	plain, compression, err := Decompress(r)
	if err != nil {
		return nil, compression, err
	}
	defer plain.Close()

	reader := tar.NewReader(plain)
	var names []string
	for {
		header, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return names, compression, nil
		}
		if err != nil {
			return names, compression, fmt.Errorf("reading tar: %w", err)
		}
		names = append(names, header.Name)
	}
}
