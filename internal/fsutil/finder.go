// Package fsutil provides file system utility functions.
package fsutil

import (
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
)

// FindFiles returns root itself when it is a file with one of the given
// extensions, otherwise it recursively searches root for such files.
// Extensions are matched case-insensitively and the result is sorted.
func FindFiles(root string, extensions ...string) ([]string, error) {
	if len(extensions) == 0 {
		panic("at least one extension is required")
	}
	wanted := make([]string, len(extensions))
	for i, ext := range extensions {
		if ext == "" {
			panic("extension must not be empty")
		}
		wanted[i] = strings.ToLower(ext)
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && slices.Contains(wanted, strings.ToLower(filepath.Ext(d.Name()))) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(files)
	return files, nil
}
