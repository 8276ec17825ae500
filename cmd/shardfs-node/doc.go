// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// shardfs-node is a storage node holding one file type (pdf, text or
// zip) for the shardfs router. It speaks only to the router, never to
// clients, and resolves every logical "~S1/" path against its own
// store.
//
// Each type has a default port and store directory: pdf on :8081 under
// $HOME/S2, text on :8082 under $HOME/S3, zip on :8083 under $HOME/S4.
// Running one process per type with --type is the usual deployment:
//
//	shardfs-node --type pdf
//	shardfs-node --type text
//	shardfs-node --type zip
package main
