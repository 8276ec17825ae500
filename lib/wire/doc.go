// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire implements the line-and-payload protocol spoken between
// shardfs clients, the router, and storage nodes.
//
// Every request is one command line: a verb and space-separated
// arguments terminated by a line break. Payloads travel as a transfer
// frame:
//
//	<size in decimal>\n<exactly size raw bytes>
//
// The size line shares its slot with error reporting: a line starting
// with the reserved marker "ERR" carries a reason and no body follows.
// Readers must check for the marker before parsing a number, which
// [ReadSize] does. Directory listings reuse the same slot for their
// entry count.
//
// Uploads between the router and a storage node end with a 3-byte
// acknowledgement, "ACK" or "ERR", with no delimiter ([WriteAck],
// [ReadAck]). Terminal replies to clients are single lines starting
// with "OK:" or "ERR:".
//
// [CopyExactly] relays a known number of bytes in bounded chunks and
// distinguishes a peer that closed early ([ErrIncompleteTransfer]) from
// one that stalled past its read deadline ([ErrTimeout]).
//
// The codec never interprets payload bytes. Callers wrap connections
// in a *bufio.Reader once and read both command text and payload
// through it, so no buffered payload bytes are lost between the two.
package wire
