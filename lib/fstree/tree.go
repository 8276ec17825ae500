// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fstree performs the filesystem side of every shardfs
// operation against one store's root directory.
//
// The router and each storage node own one [Tree]. Relative paths come
// from package namespace already cleaned; the tree joins them onto its
// root and never interprets the marker itself.
//
// Writes are staged: [Tree.Receive] streams exactly the declared number
// of bytes into a hidden temporary file beside the destination and
// renames it into place only after the byte count matches. A failed or
// truncated upload therefore never leaves a partial file under the
// destination name, and two concurrent uploads of the same path resolve
// as last-rename-wins. Temporary names never carry a placed extension,
// so listings and archive walks do not see them.
package fstree

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/shardfs/lib/namespace"
	"github.com/bureau-foundation/shardfs/lib/wire"
)

// ErrNotRegular is returned when a path exists but is not a regular file.
var ErrNotRegular = errors.New("not a regular file")

// digestKey keys the BLAKE3 content digest of stored files. The bytes
// are the ASCII domain name zero-padded to 32 bytes.
var digestKey = [32]byte{
	's', 'h', 'a', 'r', 'd', 'f', 's', '.', 'f', 'i', 'l', 'e',
}

// Tree is one store's physical file tree.
type Tree struct {
	root string
}

// New returns the tree rooted at root, creating the directory if it
// does not exist.
func New(root string) (*Tree, error) {
	if root == "" {
		return nil, errors.New("fstree: empty root directory")
	}
	absolute, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root %s: %w", root, err)
	}
	if err := os.MkdirAll(absolute, 0o755); err != nil {
		return nil, fmt.Errorf("creating root %s: %w", absolute, err)
	}
	return &Tree{root: absolute}, nil
}

// Root returns the absolute root directory.
func (t *Tree) Root() string {
	return t.root
}

// Path returns the physical path of a relative path.
func (t *Tree) Path(relative string) string {
	return namespace.Physical(t.root, relative)
}

// Receipt describes a file stored by Receive.
type Receipt struct {
	// Path is the physical path the file was renamed to.
	Path string

	// Size is the number of bytes written.
	Size int64

	// Digest is the hex BLAKE3 keyed digest of the content.
	Digest string
}

// Receive reads exactly size bytes from r and stores them at relative.
// Intermediate directories are created. On any failure the temporary
// file is removed and the destination is left untouched; a short read
// wraps wire.ErrIncompleteTransfer or wire.ErrTimeout.
func (t *Tree) Receive(relative string, r io.Reader, size int64) (Receipt, error) {
	destination := t.Path(relative)
	directory := filepath.Dir(destination)
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return Receipt{}, fmt.Errorf("creating directory %s: %w", directory, err)
	}

	temporary := filepath.Join(directory, "."+filepath.Base(destination)+".partial-"+uuid.NewString())
	file, err := os.OpenFile(temporary, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Receipt{}, fmt.Errorf("creating %s: %w", temporary, err)
	}

	hasher, err := blake3.NewKeyed(digestKey[:])
	if err != nil {
		file.Close()
		os.Remove(temporary)
		return Receipt{}, fmt.Errorf("initializing digest: %w", err)
	}

	written, copyErr := wire.CopyExactly(io.MultiWriter(file, hasher), r, size)
	closeErr := file.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		os.Remove(temporary)
		return Receipt{Size: written}, fmt.Errorf("receiving %s: %w", relative, copyErr)
	}

	if err := os.Rename(temporary, destination); err != nil {
		os.Remove(temporary)
		return Receipt{Size: written}, fmt.Errorf("renaming into %s: %w", destination, err)
	}

	return Receipt{
		Path:   destination,
		Size:   written,
		Digest: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// Open opens the regular file at relative and returns it with its size.
// A missing file wraps fs.ErrNotExist.
func (t *Tree) Open(relative string) (*os.File, int64, error) {
	physical := t.Path(relative)
	info, err := os.Stat(physical)
	if err != nil {
		return nil, 0, err
	}
	if !info.Mode().IsRegular() {
		return nil, 0, fmt.Errorf("%s: %w", physical, ErrNotRegular)
	}
	file, err := os.Open(physical)
	if err != nil {
		return nil, 0, err
	}
	return file, info.Size(), nil
}

// Remove unlinks the file at relative.
func (t *Tree) Remove(relative string) error {
	physical := t.Path(relative)
	info, err := os.Lstat(physical)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s: %w", physical, ErrNotRegular)
	}
	return os.Remove(physical)
}

// List returns the names of regular files of fileType directly inside
// the relative directory, sorted. A missing directory yields no names
// and no error.
func (t *Tree) List(relative string, fileType namespace.FileType) ([]string, error) {
	entries, err := os.ReadDir(t.Path(relative))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && fileType.Matches(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// Walk returns the slash-separated relative paths of every regular
// file of fileType anywhere under the root, sorted.
func (t *Tree) Walk(fileType namespace.FileType) ([]string, error) {
	var files []string
	err := filepath.WalkDir(t.root, func(physical string, entry fs.DirEntry, err error) error {
		if err != nil {
			// A directory removed mid-walk by a concurrent delete is
			// not a failure of the walk.
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !entry.Type().IsRegular() || !fileType.Matches(entry.Name()) {
			return nil
		}
		relative, err := filepath.Rel(t.root, physical)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(relative))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", t.root, err)
	}
	sort.Strings(files)
	return files, nil
}

// Prune removes empty directories from the relative directory upwards,
// stopping at the first non-empty directory or the root.
func (t *Tree) Prune(relative string) {
	for relative != namespace.Root && relative != "" && relative != "/" {
		if err := os.Remove(t.Path(relative)); err != nil {
			return
		}
		relative = filepath.ToSlash(filepath.Dir(relative))
	}
}
