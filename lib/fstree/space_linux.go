// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package fstree

import "golang.org/x/sys/unix"

// FreeSpace returns the bytes available to unprivileged writers on the
// filesystem holding the root.
func (t *Tree) FreeSpace() (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(t.root, &stat); err != nil {
		return 0, err
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}
