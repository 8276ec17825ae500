// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for shardfs
// binaries.
//
// One file configures every role: the router, a storage node, and the
// interactive client each read their own section and share the archive,
// log and metrics sections. The file is named by the --config flag or
// the SHARDFS_CONFIG environment variable ([Resolve]); with neither, the
// built-in defaults apply, which reproduce the classic four-process
// layout on localhost (router on 8080, nodes on 8081-8083, stores under
// ${HOME}/S1..S4).
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${SHARDFS_ROOT}, and ${VAR:-default} patterns are expanded.
// No other environment variables override config values; command-line
// flags do, in each binary.
//
// Key exports:
//
//   - [Config] -- master struct with Router, Node, Client, Archive, Log, Metrics
//   - [Default] -- returns a Config with localhost defaults
//   - [Load], [LoadFile] and [Resolve] -- the entry points for loading
//
// This package depends on no other shardfs packages beyond namespace.
package config
