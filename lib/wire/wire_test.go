// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"
)

func TestReadCommand(t *testing.T) {
	reader := bufio.NewReader(strings.NewReader("uploadf report.pdf ~S1/proj\r\n1000\n"))

	verb, args, err := ReadCommand(reader)
	if err != nil {
		t.Fatal(err)
	}
	if verb != "uploadf" {
		t.Errorf("verb = %q, want uploadf", verb)
	}
	if len(args) != 2 || args[0] != "report.pdf" || args[1] != "~S1/proj" {
		t.Errorf("args = %q", args)
	}

	size, err := ReadSize(reader)
	if err != nil {
		t.Fatal(err)
	}
	if size != 1000 {
		t.Errorf("size = %d, want 1000", size)
	}
}

func TestReadTokenSpaceDelimited(t *testing.T) {
	reader := bufio.NewReader(strings.NewReader("downlf ~S1/a.c\n"))
	verb, err := ReadToken(reader, ' ')
	if err != nil || verb != "downlf" {
		t.Fatalf("ReadToken = (%q, %v)", verb, err)
	}
	rest, err := ReadLine(reader)
	if err != nil || rest != "~S1/a.c" {
		t.Fatalf("ReadLine = (%q, %v)", rest, err)
	}
}

func TestReadTokenErrors(t *testing.T) {
	_, err := ReadLine(bufio.NewReader(strings.NewReader("no newline")))
	if !errors.Is(err, ErrConnectionClosed) {
		t.Errorf("unterminated line: error = %v, want ErrConnectionClosed", err)
	}

	long := strings.Repeat("x", MaxTokenLength+1) + "\n"
	_, err = ReadLine(bufio.NewReader(strings.NewReader(long)))
	if !errors.Is(err, ErrFrameTooLong) {
		t.Errorf("long line: error = %v, want ErrFrameTooLong", err)
	}
}

func TestSizeLineCarriesErrors(t *testing.T) {
	var buffer bytes.Buffer
	if err := WriteError(&buffer, "File not found"); err != nil {
		t.Fatal(err)
	}
	if buffer.String() != "ERR: File not found\n" {
		t.Errorf("error line = %q", buffer.String())
	}

	_, err := ReadSize(bufio.NewReader(&buffer))
	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("ReadSize error = %v, want *RemoteError", err)
	}
	if remote.Reason != "File not found" {
		t.Errorf("reason = %q", remote.Reason)
	}

	if _, err := ParseSize("12abc"); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("ParseSize(12abc) error = %v", err)
	}
	if size, err := ParseSize("0"); err != nil || size != 0 {
		t.Errorf("ParseSize(0) = (%d, %v)", size, err)
	}
}

func TestReadResponse(t *testing.T) {
	message, err := ReadResponse(bufio.NewReader(strings.NewReader("OK: File stored remotely\n")))
	if err != nil || message != "File stored remotely" {
		t.Errorf("ReadResponse = (%q, %v)", message, err)
	}

	_, err = ReadResponse(bufio.NewReader(strings.NewReader("ERR: Incomplete file transfer\n")))
	var remote *RemoteError
	if !errors.As(err, &remote) || remote.Reason != "Incomplete file transfer" {
		t.Errorf("ReadResponse error = %v", err)
	}
}

func TestAck(t *testing.T) {
	var buffer bytes.Buffer
	WriteAck(&buffer, true)
	WriteAck(&buffer, false)
	if buffer.String() != "ACKERR" {
		t.Fatalf("acks = %q", buffer.String())
	}

	ok, err := ReadAck(&buffer)
	if err != nil || !ok {
		t.Errorf("first ack = (%v, %v), want ACK", ok, err)
	}
	ok, err = ReadAck(&buffer)
	if err != nil || ok {
		t.Errorf("second ack = (%v, %v), want ERR", ok, err)
	}
	if _, err := ReadAck(&buffer); !errors.Is(err, ErrConnectionClosed) {
		t.Errorf("empty ack error = %v, want ErrConnectionClosed", err)
	}
	if _, err := ReadAck(strings.NewReader("NAK")); !errors.Is(err, ErrBadAck) {
		t.Errorf("NAK error = %v, want ErrBadAck", err)
	}
}

func TestCopyExactly(t *testing.T) {
	payload := bytes.Repeat([]byte("0123456789"), 1000)
	source := bytes.NewReader(append(append([]byte{}, payload...), "trailing"...))

	var destination bytes.Buffer
	copied, err := CopyExactly(&destination, source, int64(len(payload)))
	if err != nil {
		t.Fatal(err)
	}
	if copied != int64(len(payload)) || !bytes.Equal(destination.Bytes(), payload) {
		t.Fatalf("copied %d bytes, content match %v", copied, bytes.Equal(destination.Bytes(), payload))
	}

	rest, _ := io.ReadAll(source)
	if string(rest) != "trailing" {
		t.Errorf("CopyExactly consumed past n: rest = %q", rest)
	}
}

func TestCopyExactlyShortSource(t *testing.T) {
	var destination bytes.Buffer
	copied, err := CopyExactly(&destination, strings.NewReader(strings.Repeat("a", 500)), 900)
	if !errors.Is(err, ErrIncompleteTransfer) {
		t.Fatalf("error = %v, want ErrIncompleteTransfer", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("short source reported as timeout")
	}
	if copied != 500 {
		t.Errorf("copied = %d, want 500", copied)
	}
}

func TestCopyExactlyTimeout(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		client.Write([]byte("partial"))
	}()

	server.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	copied, err := CopyExactly(io.Discard, server, 100)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("error = %v, want ErrTimeout", err)
	}
	if errors.Is(err, ErrIncompleteTransfer) {
		t.Error("timeout reported as closed connection")
	}
	if copied != int64(len("partial")) {
		t.Errorf("copied = %d, want %d", copied, len("partial"))
	}
}

func TestWriteCommand(t *testing.T) {
	var buffer bytes.Buffer
	if err := WriteCommand(&buffer, "uploadf", "a.pdf", "proj"); err != nil {
		t.Fatal(err)
	}
	if err := WriteCommand(&buffer, "gettar"); err != nil {
		t.Fatal(err)
	}
	if buffer.String() != "uploadf a.pdf proj\ngettar\n" {
		t.Errorf("commands = %q", buffer.String())
	}
}
