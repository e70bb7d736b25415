package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"imagecluster/imageprocessor"
	"imagecluster/logging"
)

// ListImages returns the supported images directly inside dir, sorted by
// file name. Subdirectories are not descended into.
func ListImages(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSourceMissing, dir)
		}
		return nil, fmt.Errorf("cannot stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrSourceMissing, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !imageprocessor.IsImageFile(name) {
			if !imageprocessor.IsIgnoredFile(name) {
				logging.DebugLog("Skipping unsupported file: %s", name)
			}
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrEmptyInput, dir)
	}

	sort.Strings(paths)
	return paths, nil
}

// GetFileFormat returns the lowercase file extension without the dot
func GetFileFormat(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}
