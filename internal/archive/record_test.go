// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"path/filepath"
	"testing"
)

func TestRecordRender(t *testing.T) {
	t.Parallel()

	var r Record
	r.Add(Entry{Path: "pkg/__init__.py", Hash: "sha256=abc", Size: 3})
	r.Add(Entry{Path: "pkg/with,comma.py", Hash: "sha256=def", Size: 10})

	got, err := r.Render("pkg-1.0.dist-info/RECORD")
	if err != nil {
		t.Fatal(err)
	}
	want := "pkg/__init__.py,sha256=abc,3\n\"pkg/with,comma.py\",sha256=def,10\npkg-1.0.dist-info/RECORD,,\n"
	if string(got) != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writeSource(t, dir, "mod.py", "x = 1\n", 0o644)

	z, err := NewZip(Options{Reproducible: true, Epoch: testEpoch, TempDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	var record Record
	for _, add := range []func() (Entry, error){
		func() (Entry, error) { return z.AddFile(src, "pkg/mod.py") },
		func() (Entry, error) { return z.WriteFile("pkg-1.0.dist-info/METADATA", []byte("Name: pkg\n")) },
	} {
		e, err := add()
		if err != nil {
			t.Fatal(err)
		}
		record.Add(e)
	}
	const self = "pkg-1.0.dist-info/RECORD"
	content, err := record.Render(self)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := z.WriteFile(self, content); err != nil {
		t.Fatal(err)
	}
	path, err := z.Finish(filepath.Join(dir, "pkg.whl"))
	if err != nil {
		t.Fatal(err)
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()

	members := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		members[f.Name] = data
	}

	entries, err := ParseRecord(bytes.NewReader(members[self]))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != len(members) {
		t.Fatalf("RECORD lists %d entries, archive has %d", len(entries), len(members))
	}
	for _, e := range entries {
		data, ok := members[e.Path]
		if !ok {
			t.Errorf("RECORD lists missing member %s", e.Path)
			continue
		}
		if e.Path == self {
			if e.Hash != "" || e.Size != -1 {
				t.Errorf("RECORD self entry = %+v, want empty hash and size", e)
			}
			continue
		}
		if e.Hash != HashBytes(data) || e.Size != int64(len(data)) {
			t.Errorf("%s: RECORD %s/%d, archive %s/%d", e.Path, e.Hash, e.Size, HashBytes(data), len(data))
		}
	}
}
