// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package namespace

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestStrip(t *testing.T) {
	tests := []struct {
		logical string
		want    string
		wantErr error
	}{
		{logical: "~S1/proj", want: "proj"},
		{logical: "~S1/proj/", want: "proj"},
		{logical: "~S1/a/b/../c", want: "a/c"},
		{logical: "~S1/", want: Root},
		{logical: "~S1/./x.c", want: "x.c"},
		{logical: "proj/x.c", wantErr: ErrInvalidNamespace},
		{logical: "~S1", wantErr: ErrInvalidNamespace},
		{logical: "~S2/x.c", wantErr: ErrInvalidNamespace},
		{logical: "", wantErr: ErrInvalidNamespace},
		{logical: "~S1/~S1/x.c", wantErr: ErrInvalidNamespace},
		{logical: "~S1/../etc/passwd", wantErr: ErrInvalidPath},
		{logical: "~S1//abs", wantErr: ErrInvalidPath},
	}
	for _, test := range tests {
		t.Run(test.logical, func(t *testing.T) {
			got, err := Strip(test.logical)
			if test.wantErr != nil {
				if !errors.Is(err, test.wantErr) {
					t.Fatalf("Strip(%q) error = %v, want %v", test.logical, err, test.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Strip(%q): %v", test.logical, err)
			}
			if got != test.want {
				t.Errorf("Strip(%q) = %q, want %q", test.logical, got, test.want)
			}
		})
	}
}

func TestStripIsNotIdempotent(t *testing.T) {
	relative, err := Strip("~S1/docs/report.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Strip(relative); !errors.Is(err, ErrInvalidNamespace) {
		t.Errorf("second Strip error = %v, want ErrInvalidNamespace", err)
	}
}

func TestStripFile(t *testing.T) {
	relative, fileType, err := StripFile("~S1/proj/report.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if relative != "proj/report.pdf" || fileType != PDF {
		t.Errorf("StripFile = (%q, %s), want (proj/report.pdf, pdf)", relative, fileType)
	}

	if _, _, err := StripFile("~S1/"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("root: error = %v, want ErrInvalidPath", err)
	}
	if _, _, err := StripFile("~S1/proj/README"); !errors.Is(err, ErrNoExtension) {
		t.Errorf("no extension: error = %v, want ErrNoExtension", err)
	}
	if _, _, err := StripFile("~S1/proj/image.png"); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("png: error = %v, want ErrUnsupportedType", err)
	}
	if _, _, err := StripFile("proj/x.c"); !errors.Is(err, ErrInvalidNamespace) {
		t.Errorf("no marker: error = %v, want ErrInvalidNamespace", err)
	}
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name    string
		want    FileType
		wantErr error
	}{
		{name: "main.c", want: Source},
		{name: "dir.pdf/notes.txt", want: Text},
		{name: "bundle.tar.zip", want: Zip},
		{name: "paper.pdf", want: PDF},
		{name: "MAIN.C", wantErr: ErrUnsupportedType},
		{name: "Makefile", wantErr: ErrNoExtension},
		{name: "trailing.", wantErr: ErrUnsupportedType},
		{name: ".notes.txt.partial-1", wantErr: ErrUnsupportedType},
	}
	for _, test := range tests {
		got, err := TypeOf(test.name)
		if test.wantErr != nil {
			if !errors.Is(err, test.wantErr) {
				t.Errorf("TypeOf(%q) error = %v, want %v", test.name, err, test.wantErr)
			}
			continue
		}
		if err != nil || got != test.want {
			t.Errorf("TypeOf(%q) = (%s, %v), want %s", test.name, got, err, test.want)
		}
	}
}

func TestParseTag(t *testing.T) {
	for _, fileType := range Types {
		got, err := ParseTag(fileType.Tag())
		if err != nil || got != fileType {
			t.Errorf("ParseTag(%q) = (%s, %v)", fileType.Tag(), got, err)
		}
	}
	for _, bad := range []string{"", "x", "pdf", "cc"} {
		if _, err := ParseTag(bad); !errors.Is(err, ErrUnsupportedType) {
			t.Errorf("ParseTag(%q) error = %v, want ErrUnsupportedType", bad, err)
		}
	}
	if got, err := ParseType("text"); err != nil || got != Text {
		t.Errorf("ParseType(text) = (%s, %v)", got, err)
	}
}

func TestDefaultPolicy(t *testing.T) {
	location, err := DefaultPolicy.Locate(Source)
	if err != nil || !location.Local {
		t.Errorf("Locate(source) = (%v, %v), want local", location, err)
	}
	for _, fileType := range []FileType{PDF, Text, Zip} {
		location, err := DefaultPolicy.Locate(fileType)
		if err != nil {
			t.Fatal(err)
		}
		if location.Local || location.Node != fileType {
			t.Errorf("Locate(%s) = %v, want remote(%s)", fileType, location, fileType)
		}
	}
	if _, err := DefaultPolicy.Locate(FileType('x')); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("Locate(x) error = %v", err)
	}

	remote := DefaultPolicy.RemoteTypes()
	if len(remote) != 3 || remote[0] != PDF || remote[1] != Text || remote[2] != Zip {
		t.Errorf("RemoteTypes = %v", remote)
	}
}

func TestPhysicalSharesRelativePart(t *testing.T) {
	relative, err := Strip("~S1/proj/report.pdf")
	if err != nil {
		t.Fatal(err)
	}
	routerPath := Physical("/srv/router", relative)
	nodePath := Physical("/srv/pdf", relative)

	routerRelative, _ := filepath.Rel("/srv/router", routerPath)
	nodeRelative, _ := filepath.Rel("/srv/pdf", nodePath)
	if routerRelative != nodeRelative {
		t.Errorf("relative parts differ: %q vs %q", routerRelative, nodeRelative)
	}
	if Physical("/srv/pdf", Root) != "/srv/pdf" {
		t.Errorf("Physical(root) = %q", Physical("/srv/pdf", Root))
	}
	if Logical("proj") != "~S1/proj" || Logical(Root) != "~S1/" {
		t.Errorf("Logical round trip broken")
	}
}
