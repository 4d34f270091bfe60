// Package bib loads bibliographic records from BibTeX files.
package bib

import (
	"fmt"
	"os"
	"strings"

	"github.com/nickng/bibtex"

	"github.com/folio-bib/folio/internal/record"
)

// Entry is one parsed record with its citation key.
type Entry struct {
	Key    string
	Record record.Record
}

// Source yields entries from bibliography files. Entries keep file order and
// in-file order; duplicate keys across files are preserved, never collapsed.
// fields limits which field names are retained (nil keeps all); the =key=
// and =type= pseudo-fields are always present.
type Source interface {
	Load(paths []string, fields []string) ([]Entry, error)
}

// FileSource parses BibTeX files directly, without caching.
type FileSource struct{}

// Load implements Source. Parse failures abort the whole load and name the
// offending file; callers retry by calling Load again.
func (FileSource) Load(paths []string, fields []string) ([]Entry, error) {
	keep := fieldSet(fields)
	var entries []Entry
	for _, path := range paths {
		parsed, err := parseFile(path, keep)
		if err != nil {
			return nil, err
		}
		entries = append(entries, parsed...)
	}
	return entries, nil
}

func parseFile(path string, keep map[string]bool) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bibliography: %w", err)
	}
	defer f.Close()

	bt, err := bibtex.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	entries := make([]Entry, 0, len(bt.Entries))
	for _, be := range bt.Entries {
		fields := make(map[string]string, len(be.Fields)+2)
		for name, value := range be.Fields {
			name = strings.ToLower(name)
			if keep != nil && !keep[name] {
				continue
			}
			fields[name] = value.String()
		}
		fields[record.FieldKey] = be.CiteName
		fields[record.FieldType] = strings.ToLower(be.Type)
		entries = append(entries, Entry{Key: be.CiteName, Record: record.New(fields)})
	}
	return entries, nil
}

// Restrict returns a copy of entries keeping only the requested fields.
// Pseudo-fields always survive; nil fields returns entries unchanged.
func Restrict(entries []Entry, fields []string) []Entry {
	keep := fieldSet(fields)
	if keep == nil {
		return entries
	}
	out := make([]Entry, len(entries))
	for i, e := range entries {
		kept := make(map[string]string, len(fields)+2)
		for name, value := range e.Record.Map() {
			if keep[name] || name == record.FieldKey || name == record.FieldType {
				kept[name] = value
			}
		}
		out[i] = Entry{Key: e.Key, Record: record.New(kept)}
	}
	return out
}

func fieldSet(fields []string) map[string]bool {
	if fields == nil {
		return nil
	}
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[strings.ToLower(f)] = true
	}
	return set
}
