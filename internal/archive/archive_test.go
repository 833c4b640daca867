// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

const testEpoch = 1580601600

func writeSource(t *testing.T, dir, name, content string, mode fs.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		t.Fatal(err)
	}
	// WriteFile honours the umask; force the exact mode.
	if err := os.Chmod(path, mode); err != nil {
		t.Fatal(err)
	}
	return path
}

func buildZip(t *testing.T, opts Options, src, dest string) []byte {
	t.Helper()
	z, err := NewZip(opts)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := z.AddFile(src, "pkg/mod.py"); err != nil {
		t.Fatal(err)
	}
	if _, err := z.WriteFile("pkg-1.0.dist-info/METADATA", []byte("Name: pkg\n")); err != nil {
		t.Fatal(err)
	}
	path, err := z.Finish(dest)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestZipReproducible(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writeSource(t, dir, "mod.py", "print('hi')\n", 0o600)
	opts := Options{Reproducible: true, Epoch: testEpoch, TempDir: dir}

	first := buildZip(t, opts, src, filepath.Join(dir, "out", "a.whl"))
	// A later modification time must not change reproducible output.
	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(src, later, later); err != nil {
		t.Fatal(err)
	}
	second := buildZip(t, opts, src, filepath.Join(dir, "out", "b.whl"))

	if !bytes.Equal(first, second) {
		t.Fatal("reproducible zip archives differ")
	}

	zr, err := zip.NewReader(bytes.NewReader(first), int64(len(first)))
	if err != nil {
		t.Fatal(err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("zip has %d entries, want 2", len(zr.File))
	}
	for _, f := range zr.File {
		if f.Method != zip.Deflate {
			t.Errorf("%s: method = %d, want deflate", f.Name, f.Method)
		}
		if got := f.Mode().Perm(); got != 0o644 {
			t.Errorf("%s: mode = %o, want 644", f.Name, got)
		}
		if got := f.Modified.Unix(); got != testEpoch {
			t.Errorf("%s: modified = %d, want %d", f.Name, got, testEpoch)
		}
	}
}

func TestZipClampsEpoch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	z, err := NewZip(Options{Reproducible: true, Epoch: 0, TempDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := z.WriteFile("a.txt", []byte("a")); err != nil {
		t.Fatal(err)
	}
	path, err := z.Finish(filepath.Join(dir, "a.zip"))
	if err != nil {
		t.Fatal(err)
	}
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()
	if got := zr.File[0].Modified.UTC().Year(); got != 1980 {
		t.Errorf("modified year = %d, want 1980", got)
	}
}

func TestTarReproducible(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writeSource(t, dir, "run.sh", "#!/bin/sh\n", 0o700)

	build := func(dest string) string {
		a, err := NewTar(Options{Reproducible: true, Epoch: testEpoch, TempDir: dir})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := a.AddFile(src, "pkg-1.0/run.sh"); err != nil {
			t.Fatal(err)
		}
		if _, err := a.WriteFile("pkg-1.0/PKG-INFO", []byte("Name: pkg\n")); err != nil {
			t.Fatal(err)
		}
		path, err := a.Finish(filepath.Join(dir, dest))
		if err != nil {
			t.Fatal(err)
		}
		return path
	}

	first, second := build("a.tar.gz"), build("b.tar.gz")
	a, _ := os.ReadFile(first)
	b, _ := os.ReadFile(second)
	if !bytes.Equal(a, b) {
		t.Fatal("reproducible tar archives differ")
	}

	gz, err := gzip.NewReader(bytes.NewReader(a))
	if err != nil {
		t.Fatal(err)
	}
	if got := gz.ModTime.Unix(); got != testEpoch {
		t.Errorf("gzip mtime = %d, want %d", got, testEpoch)
	}

	wantModes := map[string]int64{"pkg-1.0/run.sh": 0o755, "pkg-1.0/PKG-INFO": 0o644}
	tr := tar.NewReader(gz)
	count := 0
	for {
		h, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		count++
		if h.ModTime.Unix() != testEpoch {
			t.Errorf("%s: mtime = %d, want %d", h.Name, h.ModTime.Unix(), testEpoch)
		}
		if h.Uid != 0 || h.Gid != 0 || h.Uname != "" || h.Gname != "" {
			t.Errorf("%s: ownership not zeroed: %d/%d %q/%q", h.Name, h.Uid, h.Gid, h.Uname, h.Gname)
		}
		if h.Mode != wantModes[h.Name] {
			t.Errorf("%s: mode = %o, want %o", h.Name, h.Mode, wantModes[h.Name])
		}
	}
	if count != 2 {
		t.Errorf("tar has %d entries, want 2", count)
	}
}

func TestEntryHash(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	content := bytes.Repeat([]byte("0123456789abcdef"), 3000)
	src := writeSource(t, dir, "big.bin", string(content), 0o644)

	z, err := NewZip(Options{TempDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	defer z.Discard()

	entry, err := z.AddFile(src, `sub\big.bin`)
	if err != nil {
		t.Fatal(err)
	}
	if entry.Hash != HashBytes(content) {
		t.Errorf("Hash = %s, want %s", entry.Hash, HashBytes(content))
	}
	if entry.Size != int64(len(content)) {
		t.Errorf("Size = %d, want %d", entry.Size, len(content))
	}
	if runtime.GOOS == "windows" && entry.Path != "sub/big.bin" {
		t.Errorf("Path = %q, want forward slashes", entry.Path)
	}
}

func TestHashBytes(t *testing.T) {
	t.Parallel()

	// sha256 of the empty string, base64url without padding.
	if got, want := HashBytes(nil), "sha256=47DEQpj8HBSa-_TImW-5JCeuQeRkm5NMpJWZG3hSuFU"; got != want {
		t.Errorf("HashBytes(nil) = %s, want %s", got, want)
	}
}

func TestNormalizeMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want fs.FileMode
	}{
		{0o600, 0o644},
		{0o644, 0o644},
		{0o666, 0o644},
		{0o777, 0o755},
		{0o700, 0o755},
		{0o744, 0o755},
		{0o400, 0o644},
		{0o011, 0o644},
	}
	for _, tt := range tests {
		if got := NormalizeMode(tt.in); got != tt.want {
			t.Errorf("NormalizeMode(%o) = %o, want %o", tt.in, got, tt.want)
		}
	}
}

func TestFinishLifecycle(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tmpDir := filepath.Join(dir, "tmp")
	if err := os.Mkdir(tmpDir, 0o755); err != nil {
		t.Fatal(err)
	}

	z, err := NewZip(Options{Reproducible: true, Epoch: testEpoch, TempDir: tmpDir})
	if err != nil {
		t.Fatal(err)
	}
	path, err := z.Finish(filepath.Join(dir, "dist", "x.whl"))
	if err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != FinalMode {
		t.Errorf("artifact mode = %o, want %o", info.Mode().Perm(), FinalMode)
	}
	if leftovers, _ := os.ReadDir(tmpDir); len(leftovers) != 0 {
		t.Errorf("temporary files left behind: %v", leftovers)
	}

	if _, err := z.WriteFile("late.txt", nil); !errors.Is(err, ErrArchiveFinished) {
		t.Errorf("WriteFile() after Finish error = %v, want ErrArchiveFinished", err)
	}
	if _, err := z.Finish(path); !errors.Is(err, ErrArchiveFinished) {
		t.Errorf("second Finish() error = %v, want ErrArchiveFinished", err)
	}
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	a, err := NewTar(Options{TempDir: tmpDir})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.WriteFile("x", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := a.Discard(); err != nil {
		t.Fatal(err)
	}
	if leftovers, _ := os.ReadDir(tmpDir); len(leftovers) != 0 {
		t.Errorf("temporary files left behind: %v", leftovers)
	}
	if _, err := a.AddFile("x", "x"); !errors.Is(err, ErrArchiveFinished) {
		t.Errorf("AddFile() after Discard error = %v, want ErrArchiveFinished", err)
	}
}

func TestMoveFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writeSource(t, dir, "src.bin", "payload", 0o644)
	dest := filepath.Join(dir, "out.bin")
	if err := moveFile(src, dest); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(dest)
	if err != nil || string(got) != "payload" {
		t.Fatalf("moved content = %q, %v", got, err)
	}
	if _, err := os.Stat(src); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("source still present: %v", err)
	}
}

func TestCopyFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writeSource(t, dir, "src.bin", "payload", 0o600)
	dest := filepath.Join(dir, "copy.bin")
	if err := copyFile(src, dest); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(dest)
	if err != nil || string(got) != "payload" {
		t.Fatalf("copied content = %q, %v", got, err)
	}
	if err := copyFile(filepath.Join(dir, "missing"), dest); err == nil {
		t.Error("copyFile() of a missing source returned no error")
	}
}
