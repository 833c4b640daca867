// SPDX-License-Identifier: MPL-2.0

package pyproject

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the project descriptor file name.
const FileName = "pyproject.toml"

// File is a decoded project descriptor.
type File struct {
	// Root is the absolute project root directory.
	Root string
	// Path is the absolute path of the descriptor.
	Path string
	// Data is the whole decoded document.
	Data map[string]any
	// Project is the parsed [project] table.
	Project *Project

	raw []byte
}

// Load reads and parses <root>/pyproject.toml.
func Load(root string) (*File, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	path := filepath.Join(absRoot, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoProjectFile, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(absRoot, data)
}

// Parse decodes descriptor bytes for the project rooted at root.
func Parse(root string, data []byte) (*File, error) {
	doc := map[string]any{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("%s:%d:%d: %w", FileName, row, col, err)
		}
		return nil, fmt.Errorf("%s: %w", FileName, err)
	}

	f := &File{Root: root, Path: filepath.Join(root, FileName), Data: doc, raw: data}
	project, err := parseProject(root, doc)
	if err != nil {
		return nil, err
	}
	f.Project = project
	return f, nil
}

// Tool returns the [tool.<name>] table, or nil when absent.
func (f *File) Tool(name string) map[string]any {
	tool, _ := f.Data["tool"].(map[string]any)
	if tool == nil {
		return nil
	}
	table, _ := tool[name].(map[string]any)
	return table
}
