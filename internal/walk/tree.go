// SPDX-License-Identifier: MPL-2.0

package walk

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// visitFunc receives one directory: its absolute path, its slash-separated
// path relative to the walk top, and its sorted file and subdirectory names.
// It returns the subdirectories to descend into, and false to stop the walk.
type visitFunc func(dir, rel string, files, dirs []string) (descend []string, ok bool)

// walkTree traverses top depth-first, entering each physical directory once.
func walkTree(top string, visit visitFunc) error {
	visited := map[dirID]bool{}
	_, err := walkDir(top, "", visited, visit)
	return err
}

func walkDir(dir, rel string, visited map[dirID]bool, visit visitFunc) (bool, error) {
	id, err := identify(dir)
	if err != nil {
		return false, err
	}
	if visited[id] {
		return true, nil
	}
	visited[id] = true

	// os.ReadDir sorts by name.
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files, dirs []string
	for _, e := range entries {
		isDir := e.IsDir()
		if e.Type()&fs.ModeSymlink != 0 {
			if info, statErr := os.Stat(filepath.Join(dir, e.Name())); statErr == nil {
				isDir = info.IsDir()
			}
		}
		if isDir {
			dirs = append(dirs, e.Name())
		} else {
			files = append(files, e.Name())
		}
	}

	descend, ok := visit(dir, rel, files, dirs)
	if !ok {
		return false, nil
	}
	for _, d := range descend {
		cont, err := walkDir(filepath.Join(dir, d), path.Join(rel, d), visited, visit)
		if err != nil || !cont {
			return cont, err
		}
	}
	return true, nil
}
