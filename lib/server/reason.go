// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"errors"
	"io/fs"

	"github.com/bureau-foundation/shardfs/lib/fstree"
	"github.com/bureau-foundation/shardfs/lib/namespace"
	"github.com/bureau-foundation/shardfs/lib/wire"
)

// Reason returns the error-line reason for err, or fallback when err
// is not one of the protocol's known failures.
func Reason(err error, fallback string) string {
	var remote *wire.RemoteError
	switch {
	case errors.Is(err, namespace.ErrInvalidNamespace):
		return wire.ReasonInvalidNamespace
	case errors.Is(err, namespace.ErrInvalidPath):
		return wire.ReasonInvalidPath
	case errors.Is(err, namespace.ErrNoExtension):
		return wire.ReasonNoExtension
	case errors.Is(err, namespace.ErrUnsupportedType):
		return wire.ReasonUnsupportedType
	case errors.Is(err, fs.ErrNotExist):
		return wire.ReasonNotFound
	case errors.Is(err, fstree.ErrInsufficientSpace):
		return wire.ReasonNoSpace
	case errors.Is(err, wire.ErrIncompleteTransfer), errors.Is(err, wire.ErrTimeout):
		return wire.ReasonIncomplete
	case errors.Is(err, wire.ErrInvalidSize):
		return wire.ReasonInvalidSize
	case errors.As(err, &remote) && remote.Reason != "":
		return remote.Reason
	}
	return fallback
}
