// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package namespace

import "fmt"

// Location is where the bytes of a file physically live.
type Location struct {
	// Local is true when the router stores the file in its own tree.
	Local bool

	// Node is the type owned by the storage node holding the file.
	// Only meaningful when Local is false.
	Node FileType
}

func (l Location) String() string {
	if l.Local {
		return "local"
	}
	return "remote(" + l.Node.Name() + ")"
}

// Policy is the placement policy: one type stays on the router and
// each other type lives on the storage node named after it.
type Policy struct {
	LocalType FileType
}

// DefaultPolicy keeps C sources on the router.
var DefaultPolicy = Policy{LocalType: Source}

// Locate returns the location of files of type t.
func (p Policy) Locate(t FileType) (Location, error) {
	if !t.Valid() {
		return Location{}, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
	if t == p.LocalType {
		return Location{Local: true}, nil
	}
	return Location{Node: t}, nil
}

// RemoteTypes returns the types held by storage nodes, in tag order.
func (p Policy) RemoteTypes() []FileType {
	remote := make([]FileType, 0, len(Types)-1)
	for _, t := range Types {
		if t != p.LocalType {
			remote = append(remote, t)
		}
	}
	return remote
}
