// Package notes locates and creates the note files attached to citation
// keys: standalone per-key files in a notes directory, or headings inside
// one combined notes file.
package notes

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
)

// DefaultExt is the note file extension when none is configured.
const DefaultExt = ".md"

// DefaultTemplate is the skeleton for freshly created notes.
const DefaultTemplate = `---
key: {{key}}
---

# {{title}}

`

// Config says where notes live.
type Config struct {
	Dir      string // per-key note directory; empty disables standalone notes
	File     string // combined notes file; empty disables heading lookup
	Ext      string // note extension, defaults to DefaultExt
	Template string // skeleton used by Create, defaults to DefaultTemplate
}

// Ref is a located note: a standalone file, or a heading inside the
// combined notes file when Line is non-zero.
type Ref struct {
	Path    string
	Line    int // 1-based line of the matching heading; 0 for standalone files
	Heading string
}

func (c Config) ext() string {
	if c.Ext == "" {
		return DefaultExt
	}
	return c.Ext
}

func (c Config) template() string {
	if c.Template == "" {
		return DefaultTemplate
	}
	return c.Template
}

// PathFor returns the standalone note path Create would write for key. The
// filename is slugged so keys like "Smith:2020" stay filesystem-safe.
func (c Config) PathFor(key string) string {
	return filepath.Join(c.Dir, slug.Make(key)+c.ext())
}

// Resolve locates the note for key: the standalone file first (exact name,
// then slugged name), then a matching heading in the combined file, then
// any standalone note whose frontmatter key matches.
func (c Config) Resolve(key string) (Ref, bool, error) {
	if c.Dir != "" {
		for _, name := range []string{key + c.ext(), slug.Make(key) + c.ext()} {
			path := filepath.Join(c.Dir, name)
			if fileExists(path) {
				return Ref{Path: path}, true, nil
			}
		}
	}
	if c.File != "" {
		ref, ok, err := scanCombined(c.File, key)
		if err != nil || ok {
			return ref, ok, err
		}
	}
	if c.Dir != "" {
		ref, ok, err := scanFrontmatter(c.Dir, c.ext(), key)
		if err != nil || ok {
			return ref, ok, err
		}
	}
	return Ref{}, false, nil
}

// Orphans returns standalone notes belonging to none of keys by any of the
// mechanisms Resolve uses: exact filename, slugged filename, or frontmatter
// key. Combined-file headings are not checked. A missing directory scans as
// empty.
func (c Config) Orphans(keys []string) ([]string, error) {
	if c.Dir == "" {
		return nil, nil
	}
	owned := make(map[string]bool, 2*len(keys))
	keySet := make(map[string]bool, len(keys))
	for _, k := range keys {
		owned[k+c.ext()] = true
		owned[slug.Make(k)+c.ext()] = true
		keySet[k] = true
	}

	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read notes directory: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), c.ext()) {
			continue
		}
		if owned[e.Name()] {
			continue
		}
		path := filepath.Join(c.Dir, e.Name())
		if k, err := frontmatterKey(path); err == nil && keySet[k] {
			continue
		}
		out = append(out, path)
	}
	return out, nil
}

// ErrExists indicates Create was asked to write a note that already exists.
var ErrExists = errors.New("note already exists")

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

func dirExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}

// Validate checks the configured locations that are supposed to exist
// already. The notes directory is created lazily by Create, so only the
// combined file is checked.
func (c Config) Validate() error {
	if c.File != "" && dirExists(c.File) {
		return fmt.Errorf("notes file %s is a directory", c.File)
	}
	return nil
}
