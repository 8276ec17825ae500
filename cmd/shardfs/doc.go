// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// shardfs is the command-line client of the shardfs router.
//
// Without arguments it reads commands at a "shardfs$" prompt until
// exit, quit or end of input. With arguments it runs them as a single
// command and exits non-zero if the command failed:
//
//	shardfs uploadf report.pdf ~S1/projects
//	shardfs downlf ~S1/projects/report.pdf
//	shardfs dispfnames ~S1/projects
//	shardfs downltar p
//	shardfs removef ~S1/projects/report.pdf
//
// Arguments are checked locally before the router is contacted. An
// interrupt during a transfer cancels that transfer only; at the prompt
// it exits.
package main
