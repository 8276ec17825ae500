// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/bureau-foundation/shardfs/lib/client"
	"github.com/bureau-foundation/shardfs/lib/namespace"
	"github.com/bureau-foundation/shardfs/lib/wire"
)

const prompt = "shardfs$ "

const helpText = `Available commands:
-------------------------------------------
uploadf <filename> <destination_path>  Upload a local file
downlf <filepath>                      Download a file into the download directory
removef <filepath>                     Remove a file
downltar <filetype>                    Download every file of a type as a tar bundle
                                       where filetype is: c, p, t, or z
dispfnames <pathname>                  List the files of a directory
help                                   Show this help message
exit/quit                              Exit the client
-------------------------------------------
The long forms upload, download, delete, archiveByType and
listDirectory are accepted too.
All paths must start with ~S1/
Example: uploadf myfile.c ~S1/projects/
Example: downlf ~S1/projects/myfile.c
`

// errUsage marks a command rejected before contacting the router.
var errUsage = errors.New("usage")

// transport is the part of client.Client the shell drives.
type transport interface {
	Upload(ctx context.Context, localPath, destination string) (string, error)
	Download(ctx context.Context, logical string) (client.Transfer, error)
	Delete(ctx context.Context, logical string) (string, error)
	Archive(ctx context.Context, fileType namespace.FileType) (client.Transfer, error)
	List(ctx context.Context, logical string) ([]string, error)
}

// shell runs client commands typed as text lines.
type shell struct {
	client transport
	out    io.Writer
}

// command is one shell command, keyed by its canonical wire verb.
type command struct {
	arguments int
	usage     string
	run       func(s *shell, ctx context.Context, args []string) error
}

var commands = map[string]command{
	wire.VerbUpload:    {2, "uploadf <filename> <destination_path>", (*shell).upload},
	wire.VerbDownload:  {1, "downlf <filepath>", (*shell).download},
	wire.VerbRemove:    {1, "removef <filepath>", (*shell).remove},
	wire.VerbArchive:   {1, "downltar <filetype>\nwhere filetype is: c (C source), p (PDF), t (text), or z (ZIP)", (*shell).archive},
	wire.VerbListNames: {1, "dispfnames <pathname>", (*shell).list},
}

// execute runs one command line. It reports whether the shell should
// exit, and the command's failure if any. Failures have already been
// printed.
func (s *shell) execute(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	name, args := fields[0], fields[1:]

	switch name {
	case "help":
		fmt.Fprint(s.out, helpText)
		return false, nil
	case "exit", "quit":
		return true, nil
	}

	verb, known := wire.RouterVerbs[name]
	if !known {
		fmt.Fprintf(s.out, "Error: Unknown command '%s'\nType 'help' for available commands\n", name)
		return false, fmt.Errorf("%w: unknown command %q", errUsage, name)
	}
	cmd := commands[verb]
	if len(args) != cmd.arguments {
		fmt.Fprintf(s.out, "Usage: %s\n", cmd.usage)
		return false, fmt.Errorf("%w: %s", errUsage, name)
	}

	err := cmd.run(s, ctx, args)
	if err != nil && !errors.Is(err, errUsage) {
		s.report(err)
	}
	return false, err
}

// report prints a failure. Router error lines are shown as received.
func (s *shell) report(err error) {
	var remote *wire.RemoteError
	switch {
	case errors.As(err, &remote):
		fmt.Fprintf(s.out, "%s %s\n", wire.ErrorMarker, remote.Reason)
	case errors.Is(err, client.ErrUnreachable):
		fmt.Fprintln(s.out, "Failed to connect to server. Please try again.")
	case errors.Is(err, wire.ErrTimeout):
		fmt.Fprintln(s.out, "No response from server (timeout)")
	default:
		fmt.Fprintf(s.out, "Error: %v\n", err)
	}
}

func (s *shell) upload(ctx context.Context, args []string) error {
	message, err := s.client.Upload(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s %s\n", wire.OKMarker, message)
	return nil
}

func (s *shell) download(ctx context.Context, args []string) error {
	transfer, err := s.client.Download(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Download complete: %s (%s)\n", transfer.Path, humanize.IBytes(uint64(transfer.Size)))
	return nil
}

func (s *shell) remove(ctx context.Context, args []string) error {
	message, err := s.client.Delete(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s %s\n", wire.OKMarker, message)
	return nil
}

func (s *shell) archive(ctx context.Context, args []string) error {
	fileType, err := namespace.ParseTag(args[0])
	if err != nil {
		fmt.Fprintln(s.out, "Error: Invalid file type. Use: c (C source), p (PDF), t (text), or z (ZIP)")
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	transfer, err := s.client.Archive(ctx, fileType)
	if errors.Is(err, client.ErrNoFiles) {
		fmt.Fprintf(s.out, "No %s files stored\n", fileType.Extension())
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Archive saved: %s (%s, %d %s)\n", transfer.Path,
		humanize.IBytes(uint64(transfer.Size)), transfer.Entries, plural(transfer.Entries, "file", "files"))
	return nil
}

func (s *shell) list(ctx context.Context, args []string) error {
	lines, err := s.client.List(ctx, args[0])
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		fmt.Fprintln(s.out, "No files found in the specified path")
		return nil
	}
	fmt.Fprintf(s.out, "Files found: %d\n", len(lines))
	fmt.Fprintln(s.out, "-------------------------------------------")
	for _, line := range lines {
		fmt.Fprintln(s.out, line)
	}
	fmt.Fprintln(s.out, "-------------------------------------------")
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
