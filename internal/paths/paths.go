// Package paths provides canonical path handling shared by configuration,
// the candidate index, and resource deduplication: expansion of user-form
// paths (~, environment variables) and normalization to cleaned absolute
// form so that different spellings of one file compare equal.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// Expand rewrites a user-form path: a leading "~" becomes the home
// directory and $VAR / ${VAR} references are substituted. Paths that need
// no expansion come back unchanged.
func Expand(path string) string {
	if path == "" {
		return path
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	if strings.ContainsRune(path, '$') {
		path = os.ExpandEnv(path)
	}
	return path
}

// ExpandAll applies Expand to every element, preserving order.
func ExpandAll(list []string) []string {
	if list == nil {
		return nil
	}
	out := make([]string, len(list))
	for i, p := range list {
		out[i] = Expand(p)
	}
	return out
}

// Normalize returns the cleaned absolute form of path. Relative paths are
// resolved against the working directory; when that fails the cleaned
// relative path is returned so normalization never errors.
func Normalize(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// Equal reports whether two paths identify the same file after
// normalization. Symlinks are not chased; equality is lexical.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Subtract returns the members of list whose normalized form does not
// appear in exclude, preserving order.
func Subtract(list, exclude []string) []string {
	if len(list) == 0 || len(exclude) == 0 {
		return list
	}
	drop := make(map[string]bool, len(exclude))
	for _, p := range exclude {
		drop[Normalize(p)] = true
	}
	var out []string
	for _, p := range list {
		if !drop[Normalize(p)] {
			out = append(out, p)
		}
	}
	return out
}
