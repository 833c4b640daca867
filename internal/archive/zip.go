// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/flate"
)

// zipEpoch is the earliest time a zip DOS timestamp can hold.
var zipEpoch = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// Zip writes a deflate-compressed zip archive.
type Zip struct {
	*tempFile
	zw *zip.Writer
}

var _ Writer = (*Zip)(nil)

// NewZip creates a zip archive backed by a temporary file.
func NewZip(opts Options) (*Zip, error) {
	t, err := newTempFile(opts, "wheelwright-*.zip")
	if err != nil {
		return nil, err
	}
	zw := zip.NewWriter(t.file)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.DefaultCompression)
	})
	return &Zip{tempFile: t, zw: zw}, nil
}

// AddFile implements Writer.
func (z *Zip) AddFile(src, name string) (Entry, error) {
	if z.finished {
		return Entry{}, ErrArchiveFinished
	}
	f, err := os.Open(src)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Entry{}, fmt.Errorf("failed to stat %s: %w", src, err)
	}
	mode := info.Mode().Perm()
	if z.opts.Reproducible {
		mode = NormalizeMode(mode)
	}
	return z.write(name, mode, info.ModTime(), f)
}

// WriteFile implements Writer.
func (z *Zip) WriteFile(name string, data []byte) (Entry, error) {
	if z.finished {
		return Entry{}, ErrArchiveFinished
	}
	return z.write(name, NormalizeMode(0o644), time.Time{}, bytes.NewReader(data))
}

func (z *Zip) write(name string, mode fs.FileMode, sourceTime time.Time, r io.Reader) (Entry, error) {
	name = filepath.ToSlash(name)
	modified := z.modTime(sourceTime)
	if modified.Before(zipEpoch) {
		modified = zipEpoch
	}

	header := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	}
	header.SetMode(mode)

	w, err := z.zw.CreateHeader(header)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to create zip entry %s: %w", name, err)
	}
	hash, size, err := copyHashed(w, r)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to write zip entry %s: %w", name, err)
	}
	return Entry{Path: name, Hash: hash, Size: size}, nil
}

// Finish implements Writer.
func (z *Zip) Finish(dest string) (string, error) {
	return z.finish(dest, z.zw.Close)
}

// Discard implements Writer.
func (z *Zip) Discard() error {
	return z.discard()
}
