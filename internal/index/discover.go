package index

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// Discover walks dir for bibliography files (*.bib, case-insensitive) and
// returns them sorted. Dot-directories are skipped so .git and editor state
// never contribute sources. A missing dir yields no sources, not an error:
// commands run from arbitrary directories.
func Discover(dir string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(d.Name()), ".bib") {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("discover bibliographies in %s: %w", dir, err)
	}
	sort.Strings(found)
	return found, nil
}
