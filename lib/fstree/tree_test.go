// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fstree

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/shardfs/lib/namespace"
	"github.com/bureau-foundation/shardfs/lib/wire"
)

func newTree(t *testing.T) *Tree {
	t.Helper()
	tree, err := New(filepath.Join(t.TempDir(), "store"))
	if err != nil {
		t.Fatal(err)
	}
	return tree
}

func TestReceiveCreatesDirectoriesAndRenames(t *testing.T) {
	tree := newTree(t)
	payload := bytes.Repeat([]byte{0x25}, 1000)

	receipt, err := tree.Receive("proj/deep/report.pdf", bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		t.Fatal(err)
	}
	if receipt.Size != 1000 {
		t.Errorf("receipt size = %d, want 1000", receipt.Size)
	}
	if len(receipt.Digest) != 64 {
		t.Errorf("digest = %q, want 64 hex characters", receipt.Digest)
	}
	if receipt.Path != filepath.Join(tree.Root(), "proj", "deep", "report.pdf") {
		t.Errorf("receipt path = %q", receipt.Path)
	}

	stored, err := os.ReadFile(receipt.Path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(stored, payload) {
		t.Error("stored bytes differ from payload")
	}
	assertNoPartials(t, tree)
}

func TestReceiveSameContentSameDigest(t *testing.T) {
	tree := newTree(t)
	first, err := tree.Receive("a.txt", strings.NewReader("hello"), 5)
	if err != nil {
		t.Fatal(err)
	}
	second, err := tree.Receive("b.txt", strings.NewReader("hello"), 5)
	if err != nil {
		t.Fatal(err)
	}
	third, err := tree.Receive("c.txt", strings.NewReader("world"), 5)
	if err != nil {
		t.Fatal(err)
	}
	if first.Digest != second.Digest {
		t.Error("identical content produced different digests")
	}
	if first.Digest == third.Digest {
		t.Error("different content produced the same digest")
	}
}

func TestReceiveShortSourceLeavesNothing(t *testing.T) {
	tree := newTree(t)
	_, err := tree.Receive("proj/notes.txt", strings.NewReader(strings.Repeat("n", 500)), 900)
	if !errors.Is(err, wire.ErrIncompleteTransfer) {
		t.Fatalf("error = %v, want ErrIncompleteTransfer", err)
	}
	if _, err := os.Stat(tree.Path("proj/notes.txt")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("destination exists after short receive: %v", err)
	}
	assertNoPartials(t, tree)
}

func TestReceiveFailureKeepsPreviousVersion(t *testing.T) {
	tree := newTree(t)
	if _, err := tree.Receive("keep.c", strings.NewReader("old"), 3); err != nil {
		t.Fatal(err)
	}
	if _, err := tree.Receive("keep.c", strings.NewReader("ne"), 3); err == nil {
		t.Fatal("short receive succeeded")
	}
	stored, err := os.ReadFile(tree.Path("keep.c"))
	if err != nil {
		t.Fatal(err)
	}
	if string(stored) != "old" {
		t.Errorf("content = %q, want the previous version", stored)
	}
}

func TestReceiveEmptyFile(t *testing.T) {
	tree := newTree(t)
	receipt, err := tree.Receive("empty.zip", strings.NewReader(""), 0)
	if err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(receipt.Path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 0 {
		t.Errorf("size = %d, want 0", info.Size())
	}
}

func TestOpen(t *testing.T) {
	tree := newTree(t)
	if _, err := tree.Receive("dir/x.c", strings.NewReader("int main;"), 9); err != nil {
		t.Fatal(err)
	}

	file, size, err := tree.Open("dir/x.c")
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	if size != 9 {
		t.Errorf("size = %d, want 9", size)
	}
	content, _ := io.ReadAll(file)
	if string(content) != "int main;" {
		t.Errorf("content = %q", content)
	}

	if _, _, err := tree.Open("dir/missing.c"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing file error = %v, want fs.ErrNotExist", err)
	}
	if _, _, err := tree.Open("dir"); !errors.Is(err, ErrNotRegular) {
		t.Errorf("directory error = %v, want ErrNotRegular", err)
	}
}

func TestRemove(t *testing.T) {
	tree := newTree(t)
	if _, err := tree.Receive("gone.pdf", strings.NewReader("x"), 1); err != nil {
		t.Fatal(err)
	}
	if err := tree.Remove("gone.pdf"); err != nil {
		t.Fatal(err)
	}
	if err := tree.Remove("gone.pdf"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("second remove error = %v, want fs.ErrNotExist", err)
	}
	if err := os.MkdirAll(tree.Path("folder.pdf"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := tree.Remove("folder.pdf"); !errors.Is(err, ErrNotRegular) {
		t.Errorf("directory remove error = %v, want ErrNotRegular", err)
	}
}

func TestListIsSingleLevelAndFiltered(t *testing.T) {
	tree := newTree(t)
	for _, name := range []string{"proj/b.txt", "proj/a.txt", "proj/c.pdf", "proj/sub/d.txt"} {
		if _, err := tree.Receive(name, strings.NewReader("x"), 1); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(tree.Path("proj/folder.txt"), 0o755); err != nil {
		t.Fatal(err)
	}

	names, err := tree.List("proj", namespace.Text)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "a.txt" || names[1] != "b.txt" {
		t.Errorf("List = %q, want [a.txt b.txt]", names)
	}

	names, err = tree.List("absent", namespace.Text)
	if err != nil || len(names) != 0 {
		t.Errorf("List(absent) = (%q, %v), want empty", names, err)
	}
}

func TestWalkIsRecursive(t *testing.T) {
	tree := newTree(t)
	for _, name := range []string{"z.c", "a/b/c.c", "a/readme.txt", "m.c"} {
		if _, err := tree.Receive(name, strings.NewReader("x"), 1); err != nil {
			t.Fatal(err)
		}
	}
	files, err := tree.Walk(namespace.Source)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a/b/c.c", "m.c", "z.c"}
	if strings.Join(files, ",") != strings.Join(want, ",") {
		t.Errorf("Walk = %q, want %q", files, want)
	}

	files, err = tree.Walk(namespace.Zip)
	if err != nil || len(files) != 0 {
		t.Errorf("Walk(zip) = (%q, %v), want empty", files, err)
	}
}

func TestPrune(t *testing.T) {
	tree := newTree(t)
	if _, err := tree.Receive("a/b/c/x.pdf", strings.NewReader("x"), 1); err != nil {
		t.Fatal(err)
	}
	if _, err := tree.Receive("a/keep.c", strings.NewReader("x"), 1); err != nil {
		t.Fatal(err)
	}
	if err := tree.Remove("a/b/c/x.pdf"); err != nil {
		t.Fatal(err)
	}

	tree.Prune("a/b/c")

	if _, err := os.Stat(tree.Path("a/b")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("a/b survived pruning: %v", err)
	}
	if _, err := os.Stat(tree.Path("a/keep.c")); err != nil {
		t.Errorf("non-empty parent was disturbed: %v", err)
	}
	if _, err := os.Stat(tree.Root()); err != nil {
		t.Errorf("root removed: %v", err)
	}
}

func TestCheckSpace(t *testing.T) {
	tree := newTree(t)
	if err := tree.CheckSpace(1); err != nil {
		t.Fatalf("CheckSpace(1): %v", err)
	}
	if err := tree.CheckSpace(1 << 62); err != nil && !errors.Is(err, ErrInsufficientSpace) {
		t.Errorf("CheckSpace(huge) error = %v, want ErrInsufficientSpace", err)
	}
}

func assertNoPartials(t *testing.T, tree *Tree) {
	t.Helper()
	filepath.WalkDir(tree.Root(), func(path string, entry fs.DirEntry, err error) error {
		if err == nil && strings.Contains(entry.Name(), ".partial-") {
			t.Errorf("temporary file left behind: %s", path)
		}
		return nil
	})
}
