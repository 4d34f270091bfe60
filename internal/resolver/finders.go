package resolver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/folio-bib/folio/internal/notes"
	"github.com/folio-bib/folio/internal/record"
	"github.com/folio-bib/folio/internal/urls"
)

// LibraryFinder emits a File resource for every <dir>/<key><ext> that
// exists, in directory order then extension order.
type LibraryFinder struct {
	Dirs []string
	Exts []string
}

// Name implements Finder.
func (LibraryFinder) Name() string { return "library" }

// Find implements Finder.
func (f LibraryFinder) Find(key string, _ record.Record) []Resource {
	var out []Resource
	for _, dir := range f.Dirs {
		for _, ext := range f.Exts {
			path := filepath.Join(dir, key+ext)
			if fileExists(path) {
				out = append(out, Resource{Kind: KindFile, Display: path, Path: path})
			}
		}
	}
	return out
}

// Unclaimed scans the library directories for documents whose filename stem
// matches no key, the inverse of Find. Missing directories scan as empty.
func (f LibraryFinder) Unclaimed(keys []string) []string {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	exts := make(map[string]bool, len(f.Exts))
	for _, e := range f.Exts {
		exts[strings.ToLower(e)] = true
	}
	var out []string
	for _, dir := range f.Dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			ext := filepath.Ext(e.Name())
			if !exts[strings.ToLower(ext)] {
				continue
			}
			if !set[strings.TrimSuffix(e.Name(), ext)] {
				out = append(out, filepath.Join(dir, e.Name()))
			}
		}
	}
	return out
}

// FileFieldFinder reads document paths out of the record's file field.
// The field holds semicolon-separated entries; entries with two or more
// colons are treated as Zotero-style description:path:type triples with
// the path in the middle. Relative paths resolve against the library
// directories.
type FileFieldFinder struct {
	Field string // field name, e.g. "file"
	Dirs  []string
}

// Name implements Finder.
func (FileFieldFinder) Name() string { return "file-field" }

// Find implements Finder.
func (f FileFieldFinder) Find(_ string, rec record.Record) []Resource {
	value := rec.Get(f.Field)
	if value == "" {
		return nil
	}
	var out []Resource
	for _, entry := range splitFileField(value) {
		path, ok := f.locate(entry)
		if !ok {
			continue
		}
		out = append(out, Resource{Kind: KindFile, Display: path, Path: path})
	}
	return out
}

func (f FileFieldFinder) locate(entry string) (string, bool) {
	if filepath.IsAbs(entry) {
		return entry, fileExists(entry)
	}
	for _, dir := range f.Dirs {
		path := filepath.Join(dir, entry)
		if fileExists(path) {
			return path, true
		}
	}
	return "", false
}

// Missing returns the file-field entries that locate to no existing file, in
// field order. Find drops these silently; Missing surfaces them for
// diagnostics.
func (f FileFieldFinder) Missing(rec record.Record) []string {
	value := rec.Get(f.Field)
	if value == "" {
		return nil
	}
	var out []string
	for _, entry := range splitFileField(value) {
		if _, ok := f.locate(entry); !ok {
			out = append(out, entry)
		}
	}
	return out
}

// splitFileField splits a file field into path entries. Escaped "\;" and
// "\:" sequences survive as literal characters.
func splitFileField(value string) []string {
	var out []string
	for _, part := range splitUnescaped(value, ';') {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, unwrapZoteroEntry(part))
	}
	return out
}

// unwrapZoteroEntry extracts the path from a description:path:type triple.
// Entries without two unescaped colons are plain paths.
func unwrapZoteroEntry(entry string) string {
	parts := splitUnescaped(entry, ':')
	if len(parts) < 3 {
		return unescapeFileField(entry)
	}
	path := strings.Join(parts[1:len(parts)-1], ":")
	return unescapeFileField(path)
}

func splitUnescaped(s string, sep byte) []string {
	var parts []string
	var b strings.Builder
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			b.WriteByte('\\')
			b.WriteByte(c)
			escaped = false
		case c == '\\':
			escaped = true
		case c == sep:
			parts = append(parts, b.String())
			b.Reset()
		default:
			b.WriteByte(c)
		}
	}
	if escaped {
		b.WriteByte('\\')
	}
	parts = append(parts, b.String())
	return parts
}

func unescapeFileField(s string) string {
	s = strings.ReplaceAll(s, `\:`, ":")
	s = strings.ReplaceAll(s, `\;`, ";")
	return s
}

// NoteFinder emits the note located for the key, standalone file or
// combined-file heading.
type NoteFinder struct {
	Notes notes.Config
}

// Name implements Finder.
func (NoteFinder) Name() string { return "notes" }

// Find implements Finder.
func (f NoteFinder) Find(key string, _ record.Record) []Resource {
	ref, ok, err := f.Notes.Resolve(key)
	if err != nil || !ok {
		return nil
	}
	display := ref.Path
	if ref.Line > 0 {
		display = fmt.Sprintf("%s:%d", ref.Path, ref.Line)
	}
	return []Resource{{Kind: KindNote, Display: display, Path: ref.Path, Line: ref.Line}}
}

// LinkFinder builds URL resources from link-bearing fields. Field order is
// emission order; each value is rendered to a URL, then recognized under
// the configured policies so canonical identifier types display as
// "<name>: <id>" and deduplicate structurally.
type LinkFinder struct {
	Registry      *urls.Registry
	Fields        []string // e.g. doi, url, eprint
	Recognition   urls.Policy
	Normalization urls.Policy
}

// Name implements Finder.
func (LinkFinder) Name() string { return "links" }

// Find implements Finder.
func (f LinkFinder) Find(_ string, rec record.Record) []Resource {
	var out []Resource
	for _, field := range f.Fields {
		value := strings.TrimSpace(rec.Get(field))
		if value == "" {
			continue
		}
		url, ok := f.fieldURL(rec, field, value)
		if !ok {
			continue
		}
		display, loc := f.Registry.Recognize(url, f.Recognition, f.Normalization)
		out = append(out, Resource{Kind: KindURL, Display: display, Locator: loc})
	}
	return out
}

// fieldURL renders one field value to a URL. Values that are already URLs
// pass through; identifier fields substitute into their type's format.
func (f LinkFinder) fieldURL(rec record.Record, field, value string) (string, bool) {
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return value, true
	}
	typeTag := strings.ToLower(field)
	switch typeTag {
	case "url":
		return value, true
	case "eprint":
		typeTag = eprintType(rec)
	}
	if _, ok := f.Registry.Lookup(typeTag); !ok {
		return "", false
	}
	url, err := f.Registry.ToURL(urls.CanonicalLocator(typeTag, value))
	if err != nil {
		return "", false
	}
	return url, true
}

// eprintType maps the biblatex eprinttype/archiveprefix fields to a
// registry type tag, defaulting to arxiv.
func eprintType(rec record.Record) string {
	for _, field := range []string{"eprinttype", "archiveprefix"} {
		if v := strings.TrimSpace(rec.Get(field)); v != "" {
			return strings.ToLower(v)
		}
	}
	return "arxiv"
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}
