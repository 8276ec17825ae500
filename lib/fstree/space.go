// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fstree

import (
	"errors"
	"fmt"
)

// ErrInsufficientSpace is returned by CheckSpace when the filesystem
// holding the tree cannot take an incoming file.
var ErrInsufficientSpace = errors.New("insufficient storage space")

// CheckSpace fails with ErrInsufficientSpace when fewer than size bytes
// are free under the root. When free space cannot be determined on this
// platform the check passes.
func (t *Tree) CheckSpace(size int64) error {
	free, err := t.FreeSpace()
	if err != nil {
		if errors.Is(err, errSpaceUnknown) {
			return nil
		}
		return fmt.Errorf("checking free space under %s: %w", t.root, err)
	}
	if uint64(size) > free {
		return fmt.Errorf("%w: need %d bytes, %d free", ErrInsufficientSpace, size, free)
	}
	return nil
}

var errSpaceUnknown = errors.New("free space unknown on this platform")
