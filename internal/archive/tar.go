// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"
)

// Tar writes a gzip-compressed PAX tar archive.
type Tar struct {
	*tempFile
	gz *gzip.Writer
	tw *tar.Writer
}

var _ Writer = (*Tar)(nil)

// NewTar creates a tar.gz archive backed by a temporary file. In reproducible
// mode the gzip header carries the fixed timestamp too.
func NewTar(opts Options) (*Tar, error) {
	t, err := newTempFile(opts, "wheelwright-*.tar.gz")
	if err != nil {
		return nil, err
	}
	gz, err := gzip.NewWriterLevel(t.file, gzip.BestCompression)
	if err != nil {
		_ = t.discard()
		return nil, fmt.Errorf("failed to create gzip stream: %w", err)
	}
	gz.ModTime = t.modTime(time.Time{})
	return &Tar{tempFile: t, gz: gz, tw: tar.NewWriter(gz)}, nil
}

// AddFile implements Writer.
func (a *Tar) AddFile(src, name string) (Entry, error) {
	if a.finished {
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

	var header *tar.Header
	if a.opts.Reproducible {
		header = a.header(name, int64(NormalizeMode(info.Mode())), info.Size(), info.ModTime())
	} else {
		if header, err = tar.FileInfoHeader(info, ""); err != nil {
			return Entry{}, fmt.Errorf("failed to create tar header for %s: %w", src, err)
		}
		header.Name = filepath.ToSlash(name)
		header.Format = tar.FormatPAX
	}
	return a.write(header, f)
}

// WriteFile implements Writer.
func (a *Tar) WriteFile(name string, data []byte) (Entry, error) {
	if a.finished {
		return Entry{}, ErrArchiveFinished
	}
	return a.write(a.header(name, int64(NormalizeMode(0o644)), int64(len(data)), time.Time{}), bytes.NewReader(data))
}

func (a *Tar) header(name string, mode, size int64, sourceTime time.Time) *tar.Header {
	return &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     filepath.ToSlash(name),
		Mode:     mode,
		Size:     size,
		ModTime:  a.modTime(sourceTime).Truncate(time.Second),
		Format:   tar.FormatPAX,
	}
}

func (a *Tar) write(header *tar.Header, r io.Reader) (Entry, error) {
	if err := a.tw.WriteHeader(header); err != nil {
		return Entry{}, fmt.Errorf("failed to write tar header %s: %w", header.Name, err)
	}
	hash, size, err := copyHashed(a.tw, r)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to write tar entry %s: %w", header.Name, err)
	}
	return Entry{Path: header.Name, Hash: hash, Size: size}, nil
}

// Finish implements Writer.
func (a *Tar) Finish(dest string) (string, error) {
	return a.finish(dest, func() error {
		return errors.Join(a.tw.Close(), a.gz.Close())
	})
}

// Discard implements Writer.
func (a *Tar) Discard() error {
	return a.discard()
}
