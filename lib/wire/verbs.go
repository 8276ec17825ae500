// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

// Verbs clients send to the router.
const (
	VerbUpload    = "uploadf"
	VerbDownload  = "downlf"
	VerbRemove    = "removef"
	VerbArchive   = "downltar"
	VerbListNames = "dispfnames"
)

// Verbs the router sends to storage nodes. Uploads and deletes share
// their names with the client verbs.
const (
	VerbFetch      = "getf"
	VerbNodeTar    = "gettar"
	VerbNodeList   = "listf"
	VerbNodeUpload = VerbUpload
	VerbNodeRemove = VerbRemove
)

// RouterVerbs maps every verb the router accepts, including the
// long-form aliases, to its canonical name.
var RouterVerbs = map[string]string{
	VerbUpload:      VerbUpload,
	"upload":        VerbUpload,
	VerbDownload:    VerbDownload,
	"download":      VerbDownload,
	VerbRemove:      VerbRemove,
	"delete":        VerbRemove,
	VerbArchive:     VerbArchive,
	"archiveByType": VerbArchive,
	VerbListNames:   VerbListNames,
	"listDirectory": VerbListNames,
}

// NodeVerbs maps every verb a storage node accepts, including the
// long-form aliases, to its canonical name.
var NodeVerbs = map[string]string{
	VerbNodeUpload:  VerbNodeUpload,
	"upload":        VerbNodeUpload,
	VerbFetch:       VerbFetch,
	"fetch":         VerbFetch,
	VerbNodeRemove:  VerbNodeRemove,
	"delete":        VerbNodeRemove,
	VerbNodeTar:     VerbNodeTar,
	"archiveByType": VerbNodeTar,
	VerbNodeList:    VerbNodeList,
	"listDirectory": VerbNodeList,
}
