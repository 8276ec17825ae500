// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package namespace

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// Marker is the namespace marker every logical path starts with.
const Marker = "~S1"

// Root is the relative path of the namespace root.
const Root = "."

const markerPrefix = Marker + "/"

var (
	// ErrInvalidNamespace is returned for a path that does not start
	// with the marker, or that carries the marker more than once.
	ErrInvalidNamespace = errors.New("path must start with " + markerPrefix)

	// ErrInvalidPath is returned for a relative path that is absolute,
	// escapes the root, or names a file where a file is required but
	// the path is the root.
	ErrInvalidPath = errors.New("invalid file path")
)

// Strip removes the namespace marker from a logical path and returns
// the cleaned relative path. The namespace root ("~S1/") strips to
// [Root]. A path without the marker fails with ErrInvalidNamespace;
// Strip is therefore not idempotent: stripping an already-relative
// path is an error.
func Strip(logical string) (string, error) {
	if !strings.HasPrefix(logical, markerPrefix) {
		return "", fmt.Errorf("%w: %q", ErrInvalidNamespace, logical)
	}
	return CleanRelative(strings.TrimPrefix(logical, markerPrefix))
}

// StripFile strips a logical path that must name a file, and returns
// its relative path and type. The root, a name without an extension,
// and an unplaced extension are all rejected.
func StripFile(logical string) (string, FileType, error) {
	relative, err := Strip(logical)
	if err != nil {
		return "", 0, err
	}
	if relative == Root {
		return "", 0, fmt.Errorf("%w: %q names the root", ErrInvalidPath, logical)
	}
	fileType, err := TypeOf(relative)
	if err != nil {
		return "", 0, err
	}
	return relative, fileType, nil
}

// CleanRelative validates and cleans a relative path received without
// the marker (storage nodes receive upload destinations this way). The
// empty string and "." both mean the root. Absolute paths, paths that
// climb out of the root, and paths that start with the marker are
// rejected.
func CleanRelative(relative string) (string, error) {
	if relative == "" {
		return Root, nil
	}
	if strings.HasPrefix(relative, "/") {
		return "", fmt.Errorf("%w: %q is absolute", ErrInvalidPath, relative)
	}
	cleaned := path.Clean(relative)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q escapes the namespace root", ErrInvalidPath, relative)
	}
	if cleaned == Marker || strings.HasPrefix(cleaned, markerPrefix) {
		return "", fmt.Errorf("%w: marker repeated in %q", ErrInvalidNamespace, relative)
	}
	return cleaned, nil
}

// Logical returns the logical path for a relative path.
func Logical(relative string) string {
	if relative == "" || relative == Root {
		return markerPrefix
	}
	return markerPrefix + relative
}

// Join appends a file name to a relative directory.
func Join(directory, name string) string {
	return path.Join(directory, name)
}

// Physical maps a cleaned relative path onto a store's root directory.
func Physical(root, relative string) string {
	return filepath.Join(root, filepath.FromSlash(relative))
}
