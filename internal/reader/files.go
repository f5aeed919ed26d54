// Package reader loads simulation parameters and output from the files a
// PIConGPU run leaves behind: .param headers, .json dumps and .dat tables.
//
// Each reader is opened on one directory and reads every file with its
// extension in lexical order. Lookups that cannot be answered return
// errors wrapping ErrNotFound or ErrAmbiguous.
package reader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrNoFiles is returned when a directory holds no file with the
	// requested extension.
	ErrNoFiles = errors.New("no matching files")

	// ErrNotFound is returned when no file defines a parameter.
	ErrNotFound = errors.New("parameter not found")

	// ErrAmbiguous is returned when several files define a parameter
	// and nothing selects one of them.
	ErrAmbiguous = errors.New("parameter is ambiguous")
)

// listFiles returns the paths of all regular files in dir ending in ext,
// sorted by name.
func listFiles(dir, ext string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no %s files in %s", ErrNoFiles, ext, dir)
	}

	sort.Strings(files)
	return files, nil
}
