// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for shardfs packages.
//
// [RequireReceive], [RequireSend], and [RequireClosed] wrap the
// select-with-timeout pattern so individual tests never block forever
// on a channel when a server goroutine hangs.
//
// [ClosedAddress] returns a loopback address with no listener, for
// exercising the paths where a storage node is down.
//
// [UniqueID] generates monotonically increasing identifiers, used for
// file names that must not collide between subtests sharing a tree.
//
// All helpers call t.Fatalf on failure rather than returning errors.
//
// This package has no shardfs-internal dependencies.
package testutil
