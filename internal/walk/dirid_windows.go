// SPDX-License-Identifier: MPL-2.0

//go:build windows

package walk

import (
	"fmt"

	"golang.org/x/sys/windows"
)

type dirID struct {
	volume uint32
	index  uint64
}

// identify opens path (following reparse points) and reads its file index.
func identify(path string) (dirID, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return dirID{}, err
	}
	h, err := windows.CreateFile(p, 0,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil, windows.OPEN_EXISTING, windows.FILE_FLAG_BACKUP_SEMANTICS, 0)
	if err != nil {
		return dirID{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer windows.CloseHandle(h)

	var info windows.ByHandleFileInformation
	if err := windows.GetFileInformationByHandle(h, &info); err != nil {
		return dirID{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return dirID{
		volume: info.VolumeSerialNumber,
		index:  uint64(info.FileIndexHigh)<<32 | uint64(info.FileIndexLow),
	}, nil
}
