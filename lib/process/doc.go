// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides entrypoint helpers for the shardfs
// binaries: reporting a fatal error to stderr before (or instead of)
// the structured logger, and exiting.
package process
