// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

// Reasons carried by error lines. Clients match on these strings, so
// they are part of the protocol.
const (
	ReasonMissingSize      = "Missing file size"
	ReasonInvalidSize      = "Invalid file size"
	ReasonInvalidNamespace = "Path must start with ~S1/"
	ReasonNoExtension      = "File has no extension"
	ReasonUnsupportedType  = "Unsupported file type"
	ReasonInvalidPath      = "Invalid file path"
	ReasonIncomplete       = "Incomplete file transfer"
	ReasonCannotConnect    = "Cannot connect to storage server"
	ReasonRejected         = "Storage server rejected file"
	ReasonNoAck            = "Storage server did not acknowledge"
	ReasonNotFound         = "File not found"
	ReasonCannotRemove     = "Could not remove file"
	ReasonCreateFailed     = "File creation failed"
	ReasonNoSpace          = "Insufficient storage space"
	ReasonUnknownCommand   = "Unknown command"
	ReasonArchiveFailed    = "Could not build archive"
	ReasonListFailed       = "Could not list directory"
	ReasonMissingArgument  = "Missing argument"
)

// Success messages carried by OK lines.
const (
	MessageStoredLocally  = "File stored locally"
	MessageStoredRemotely = "File stored remotely"
	MessageRemoved        = "File removed"
)
