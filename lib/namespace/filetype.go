// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package namespace

import (
	"errors"
	"fmt"
	"path"
)

var (
	// ErrUnsupportedType is returned for a name whose extension has no
	// placement, and for an unknown type tag.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrNoExtension is returned for a name with no extension at all.
	ErrNoExtension = errors.New("file has no extension")
)

// FileType is one of the four file types shardfs places. The value is
// the single-letter tag used on the wire by archive requests.
type FileType byte

const (
	Source FileType = 'c'
	PDF    FileType = 'p'
	Text   FileType = 't'
	Zip    FileType = 'z'
)

// Types lists every placed type in tag order.
var Types = []FileType{Source, PDF, Text, Zip}

// Valid reports whether t is one of the four placed types.
func (t FileType) Valid() bool {
	switch t {
	case Source, PDF, Text, Zip:
		return true
	}
	return false
}

// Tag returns the wire tag ("c", "p", "t" or "z").
func (t FileType) Tag() string {
	return string(rune(t))
}

func (t FileType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("unknown(%d)", byte(t))
	}
	return t.Name()
}

// Extension returns the file extension including the leading dot.
func (t FileType) Extension() string {
	switch t {
	case Source:
		return ".c"
	case PDF:
		return ".pdf"
	case Text:
		return ".txt"
	case Zip:
		return ".zip"
	}
	return ""
}

// Name returns the short name used for configuration keys and logs.
func (t FileType) Name() string {
	switch t {
	case Source:
		return "source"
	case PDF:
		return "pdf"
	case Text:
		return "text"
	case Zip:
		return "zip"
	}
	return ""
}

// Label returns the human-readable label printed in listings.
func (t FileType) Label() string {
	switch t {
	case Source:
		return "C source"
	case PDF:
		return "PDF document"
	case Text:
		return "Text file"
	case Zip:
		return "ZIP archive"
	}
	return ""
}

// ArchiveName is the file name a client saves a type's archive under.
func (t FileType) ArchiveName() string {
	switch t {
	case Source:
		return "c_files.tar"
	case PDF:
		return "pdf_files.tar"
	case Text:
		return "txt_files.tar"
	case Zip:
		return "zip_files.tar"
	}
	return "files.tar"
}

// Matches reports whether name's extension is exactly t's extension.
func (t FileType) Matches(name string) bool {
	return t.Valid() && path.Ext(name) == t.Extension()
}

// ParseTag parses a single-letter wire tag.
func ParseTag(tag string) (FileType, error) {
	if len(tag) == 1 {
		if t := FileType(tag[0]); t.Valid() {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: tag %q", ErrUnsupportedType, tag)
}

// ParseType accepts either a wire tag or a type name ("pdf", "text", ...).
func ParseType(value string) (FileType, error) {
	for _, t := range Types {
		if value == t.Tag() || value == t.Name() {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedType, value)
}

// TypeOf returns the type of a file from the extension of the final
// segment of name. Matching is exact and case-sensitive.
func TypeOf(name string) (FileType, error) {
	ext := path.Ext(path.Base(name))
	if ext == "" {
		return 0, ErrNoExtension
	}
	for _, t := range Types {
		if ext == t.Extension() {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
}
