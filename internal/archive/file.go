// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const (
	// HashAlgorithm prefixes every RECORD hash.
	HashAlgorithm = "sha256"

	// chunkSize is the read size used while hashing entries.
	chunkSize = 16384

	// FinalMode is applied to finished artifacts.
	FinalMode fs.FileMode = 0o644
)

// ErrArchiveFinished is returned by any operation on an archive after Finish
// or Discard.
var ErrArchiveFinished = errors.New("archive already finished")

type (
	// Options control how entries are stamped.
	Options struct {
		// Reproducible fixes timestamps, permissions and ownership.
		Reproducible bool
		// Epoch is the fixed timestamp, in seconds since the Unix epoch,
		// applied when Reproducible is set.
		Epoch int64
		// TempDir holds the temporary file. Empty means os.TempDir().
		TempDir string
	}

	// Entry describes one written archive member.
	Entry struct {
		// Path is the slash-separated name inside the archive.
		Path string
		// Hash is "sha256=" followed by the unpadded base64url digest.
		Hash string
		// Size is the uncompressed byte count.
		Size int64
	}

	// Writer is the contract shared by the zip and tar backends.
	Writer interface {
		// AddFile copies the file at src into the archive under name.
		AddFile(src, name string) (Entry, error)
		// WriteFile stores generated content under name.
		WriteFile(name string, data []byte) (Entry, error)
		// Finish completes the archive and moves it to dest.
		Finish(dest string) (string, error)
		// Discard drops the archive and its temporary file.
		Discard() error
	}

	// tempFile is the temporary output shared by both backends.
	tempFile struct {
		file     *os.File
		opts     Options
		fixed    time.Time
		finished bool
	}
)

func newTempFile(opts Options, pattern string) (*tempFile, error) {
	f, err := os.CreateTemp(opts.TempDir, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary archive: %w", err)
	}
	return &tempFile{file: f, opts: opts, fixed: time.Unix(opts.Epoch, 0).UTC()}, nil
}

// modTime returns the timestamp of an entry whose source was modified at
// sourceTime. A zero sourceTime marks generated content.
func (t *tempFile) modTime(sourceTime time.Time) time.Time {
	switch {
	case t.opts.Reproducible:
		return t.fixed
	case sourceTime.IsZero():
		return time.Now()
	default:
		return sourceTime
	}
}

// finish closes the format writer, then the file, and moves it to dest.
func (t *tempFile) finish(dest string, closeFormat func() error) (string, error) {
	if t.finished {
		return "", ErrArchiveFinished
	}
	t.finished = true
	tmp := t.file.Name()

	if err := closeFormat(); err != nil {
		_ = t.file.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to finalize archive: %w", err)
	}
	if err := t.file.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to close archive: %w", err)
	}

	dest, err := filepath.Abs(dest)
	if err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to resolve archive path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := moveFile(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	if err := os.Chmod(dest, FinalMode); err != nil {
		return "", fmt.Errorf("failed to set archive permissions: %w", err)
	}
	return dest, nil
}

func (t *tempFile) discard() error {
	if t.finished {
		return ErrArchiveFinished
	}
	t.finished = true
	closeErr := t.file.Close()
	if err := os.Remove(t.file.Name()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove temporary archive: %w", err)
	}
	return closeErr
}

// moveFile renames src to dest. When a rename is impossible (for example
// across filesystems) it copies into a sibling of dest and renames that, so
// dest is never observed half written.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	partial := dest + ".partial"
	if err := copyFile(src, partial); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("failed to copy archive into place: %w", err)
	}
	if err := os.Rename(partial, dest); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("failed to move archive into place: %w", err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("failed to remove temporary archive: %w", err)
	}
	return nil
}

func copyFile(src, dest string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, FinalMode)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}

// NormalizeMode collapses mode to 0644, or 0755 when the owner may execute.
func NormalizeMode(mode fs.FileMode) fs.FileMode {
	perm := mode.Perm()
	normalized := (perm | 0o644) &^ 0o133
	if perm&0o100 != 0 {
		normalized |= 0o111
	}
	return normalized
}

// copyHashed streams src into dst in fixed-size chunks, hashing as it goes.
func copyHashed(dst io.Writer, src io.Reader) (string, int64, error) {
	h := sha256.New()
	buf := make([]byte, chunkSize)
	var size int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
			if _, err := dst.Write(buf[:n]); err != nil {
				return "", size, err
			}
			size += int64(n)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return "", size, readErr
		}
	}
	return FormatHash(h.Sum(nil)), size, nil
}

// FormatHash renders a sha256 digest the way RECORD expects it.
func FormatHash(digest []byte) string {
	return HashAlgorithm + "=" + base64.RawURLEncoding.EncodeToString(digest)
}

// HashBytes returns the RECORD hash of data.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return FormatHash(sum[:])
}
