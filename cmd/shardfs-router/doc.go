// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// shardfs-router is the client-facing node of shardfs. It serves the
// "~S1/" namespace on one TCP port, keeps C sources in its own store,
// and places PDF, text and ZIP files on the storage node configured for
// each type.
//
// Configuration comes from the file named by --config, else the file
// named by SHARDFS_CONFIG, else built-in defaults (listen on :8080,
// store under $HOME/S1, nodes on 127.0.0.1:8081-8083). Flags override
// individual settings.
//
// SIGINT or SIGTERM stops accepting connections and waits for commands
// in flight to finish.
package main
