// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package namespace translates logical shardfs paths into the relative
// paths every store shares, and decides where each file lives.
//
// A logical path is the namespace marker followed by a slash-separated
// relative path:
//
//	~S1/projects/report.pdf
//
// [Strip] removes the marker exactly once and validates what remains.
// The relative part is identical on the router and on every storage
// node; each store joins it onto its own root with [Physical]. This is
// what keeps one logical tree consistent across four physical trees.
//
// Placement is a static function of the final segment's extension.
// [TypeOf] maps a name to one of four [FileType] values and
// [DefaultPolicy] maps a type to a [Location]: the router keeps C
// sources itself, and PDF, text and ZIP files each live on the storage
// node that owns that type. The policy is the same on client, router
// and nodes, so any of them can independently decide where a path
// lives.
//
// All functions here are pure: they take and return strings and never
// touch the filesystem.
package namespace
