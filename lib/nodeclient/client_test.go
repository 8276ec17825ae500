// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package nodeclient

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/shardfs/lib/namespace"
	"github.com/bureau-foundation/shardfs/lib/server"
	"github.com/bureau-foundation/shardfs/lib/storagenode"
	"github.com/bureau-foundation/shardfs/lib/testutil"
	"github.com/bureau-foundation/shardfs/lib/wire"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// serve runs handler on a loopback listener for the rest of the test.
func serve(t *testing.T, handler server.Handler) string {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		server.New(handler, discardLogger(), server.Options{ReadTimeout: time.Second}).Serve(ctx, listener)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return listener.Addr().String()
}

func startNode(t *testing.T, fileType namespace.FileType) *Client {
	t.Helper()
	node, err := storagenode.New(storagenode.Config{Type: fileType, Root: t.TempDir()}, discardLogger(), nil)
	if err != nil {
		t.Fatal(err)
	}
	return New(fileType, serve(t, node), time.Second, time.Second)
}

func TestUploadFetchRemove(t *testing.T) {
	client := startNode(t, namespace.PDF)
	ctx := context.Background()
	payload := bytes.Repeat([]byte("pdf!"), 2500)

	if err := client.Upload(ctx, "report.pdf", "proj", bytes.NewReader(payload), int64(len(payload))); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	var relayed bytes.Buffer
	n, err := client.Fetch(ctx, "~S1/proj/report.pdf", &relayed)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if n != int64(len(payload)) {
		t.Errorf("relayed %d body bytes, want %d", n, len(payload))
	}
	want := "10000\n" + string(payload)
	if relayed.String() != want {
		t.Errorf("relayed frame differs (len %d, want %d)", relayed.Len(), len(want))
	}

	names, err := client.List(ctx, "~S1/proj")
	if err != nil || len(names) != 1 || names[0] != "report.pdf" {
		t.Errorf("List = (%q, %v)", names, err)
	}

	acknowledged, err := client.Remove(ctx, "~S1/proj/report.pdf")
	if err != nil || !acknowledged {
		t.Fatalf("Remove = (%v, %v)", acknowledged, err)
	}
	acknowledged, err = client.Remove(ctx, "~S1/proj/report.pdf")
	if err != nil || acknowledged {
		t.Errorf("second Remove = (%v, %v), want ERR", acknowledged, err)
	}
}

func TestFetchRelaysErrorLine(t *testing.T) {
	client := startNode(t, namespace.Text)

	var relayed bytes.Buffer
	_, err := client.Fetch(context.Background(), "~S1/missing.txt", &relayed)
	var remote *wire.RemoteError
	if !errors.As(err, &remote) || remote.Reason != wire.ReasonNotFound {
		t.Fatalf("Fetch error = %v, want remote File not found", err)
	}
	if relayed.String() != "ERR: File not found\n" {
		t.Errorf("relayed = %q", relayed.String())
	}
}

func TestArchiveEmpty(t *testing.T) {
	client := startNode(t, namespace.Zip)
	var relayed bytes.Buffer
	n, err := client.Archive(context.Background(), &relayed)
	if err != nil || n != 0 {
		t.Fatalf("Archive = (%d, %v)", n, err)
	}
	if relayed.String() != "0\n" {
		t.Errorf("relayed = %q, want 0 size line", relayed.String())
	}
}

func TestUploadRejected(t *testing.T) {
	client := startNode(t, namespace.PDF)
	err := client.Upload(context.Background(), "notes.txt", "proj", strings.NewReader("hello"), 5)
	if !errors.Is(err, ErrRejected) || !errors.Is(err, ErrForwarding) {
		t.Errorf("error = %v, want ErrRejected", err)
	}
}

func TestUploadNoAcknowledgement(t *testing.T) {
	silent := server.HandlerFunc(func(ctx context.Context, conn *server.Conn) {
		io.Copy(io.Discard, io.LimitReader(conn.Reader, 1<<20))
	})
	address := serve(t, silent)
	client := New(namespace.Zip, address, time.Second, 100*time.Millisecond)

	err := client.Upload(context.Background(), "a.zip", ".", strings.NewReader("PK"), 2)
	if !errors.Is(err, ErrNoAcknowledgement) {
		t.Errorf("error = %v, want ErrNoAcknowledgement", err)
	}
	if errors.Is(err, ErrRejected) {
		t.Error("silence reported as rejection")
	}
}

func TestUnreachable(t *testing.T) {
	client := New(namespace.PDF, testutil.ClosedAddress(t), time.Second, time.Second)
	ctx := context.Background()

	if err := client.Upload(ctx, "a.pdf", ".", strings.NewReader("x"), 1); !errors.Is(err, ErrUnreachable) {
		t.Errorf("Upload error = %v, want ErrUnreachable", err)
	}
	var relayed bytes.Buffer
	if _, err := client.Fetch(ctx, "~S1/a.pdf", &relayed); !errors.Is(err, ErrUnreachable) {
		t.Errorf("Fetch error = %v, want ErrUnreachable", err)
	}
	if relayed.Len() != 0 {
		t.Errorf("bytes relayed from an unreachable node: %q", relayed.String())
	}
	if _, err := client.List(ctx, "~S1/"); !errors.Is(err, ErrUnreachable) {
		t.Errorf("List error = %v, want ErrUnreachable", err)
	}
}

func TestListErrorLine(t *testing.T) {
	refusing := server.HandlerFunc(func(ctx context.Context, conn *server.Conn) {
		wire.ReadCommand(conn.Reader)
		wire.WriteError(conn, wire.ReasonInvalidNamespace)
	})
	client := New(namespace.Text, serve(t, refusing), time.Second, time.Second)
	_, err := client.List(context.Background(), "~S1/x")
	var remote *wire.RemoteError
	if !errors.As(err, &remote) {
		t.Errorf("List error = %v, want *wire.RemoteError", err)
	}
}

func TestContextCancelAbortsRead(t *testing.T) {
	stalled := make(chan struct{})
	hanging := server.HandlerFunc(func(ctx context.Context, conn *server.Conn) {
		bufio.NewReader(conn).ReadByte()
		<-stalled
	})
	address := serve(t, hanging)
	t.Cleanup(func() { close(stalled) })

	client := New(namespace.PDF, address, time.Second, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	var relayed bytes.Buffer
	if _, err := client.Fetch(ctx, "~S1/a.pdf", &relayed); err == nil {
		t.Fatal("Fetch succeeded against a hanging node")
	}
}
