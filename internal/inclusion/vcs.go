// SPDX-License-Identifier: MPL-2.0

package inclusion

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	gitIgnoreFile = ".gitignore"
	hgIgnoreFile  = ".hgignore"
)

// locateFile searches for name in root and its ancestors. The search stops at
// the first directory containing boundary (that directory is still checked).
func locateFile(root, name, boundary string) string {
	dir := root
	for {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		if _, err := os.Stat(filepath.Join(dir, boundary)); err == nil {
			return ""
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadVCSPatterns returns the exclusion patterns of the nearest .gitignore and
// .hgignore files together with the paths of the files that were read.
// Mercurial patterns are only taken from `syntax: glob` sections.
func loadVCSPatterns(root string) (patterns, files []string, err error) {
	if path := locateFile(root, gitIgnoreFile, ".git"); path != "" {
		lines, readErr := readLines(path)
		if readErr != nil {
			return nil, nil, readErr
		}
		patterns = append(patterns, lines...)
		files = append(files, path)
	}

	if path := locateFile(root, hgIgnoreFile, ".hg"); path != "" {
		lines, readErr := readLines(path)
		if readErr != nil {
			return nil, nil, readErr
		}
		glob := false
		for _, line := range lines {
			trimmed := strings.TrimSpace(line)
			switch {
			case trimmed == "syntax: glob":
				glob = true
			case strings.HasPrefix(trimmed, "syntax:"):
				glob = false
			case glob:
				patterns = append(patterns, line)
			}
		}
		files = append(files, path)
	}
	return patterns, files, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read VCS ignore file %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read VCS ignore file %s: %w", path, err)
	}
	return lines, nil
}
