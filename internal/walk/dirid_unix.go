// SPDX-License-Identifier: MPL-2.0

//go:build unix

package walk

import (
	"fmt"

	"golang.org/x/sys/unix"
)

type dirID struct {
	dev uint64
	ino uint64
}

// identify stats path, following symlinks.
func identify(path string) (dirID, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return dirID{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return dirID{dev: uint64(st.Dev), ino: uint64(st.Ino)}, nil
}
