// Package check inspects a bibliography and its companion files for
// inconsistencies: unparseable sources, duplicate citation keys, entries
// missing their type's conventional fields, attached files that do not
// exist, and documents or notes no entry claims.
package check

import (
	"fmt"
	"strings"

	"github.com/folio-bib/folio/internal/bib"
	"github.com/folio-bib/folio/internal/notes"
	"github.com/folio-bib/folio/internal/resolver"
)

// Level grades an issue. Errors are things that break lookups or opens;
// warnings are untidiness a bibliography can live with.
type Level int

const (
	LevelError Level = iota
	LevelWarning
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Issue is one finding. File names the source or companion file involved;
// Key is set when a citation key is.
type Issue struct {
	Level   Level
	File    string
	Key     string
	Message string
}

// Report collects the findings of one run.
type Report struct {
	Files  int // source files inspected
	Issues []Issue
}

func (r *Report) add(level Level, file, key string, format string, args ...interface{}) {
	r.Issues = append(r.Issues, Issue{
		Level:   level,
		File:    file,
		Key:     key,
		Message: fmt.Sprintf(format, args...),
	})
}

// Errors counts error-level issues.
func (r *Report) Errors() int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Level == LevelError {
			n++
		}
	}
	return n
}

// Warnings counts warning-level issues.
func (r *Report) Warnings() int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Level == LevelWarning {
			n++
		}
	}
	return n
}

// Options wire a run. Sources must be in lookup-precedence order, local
// before global, so duplicate reports name the entry that wins.
type Options struct {
	Source  bib.Source
	Sources []string

	Library   resolver.LibraryFinder
	FileField resolver.FileFieldFinder
	Notes     notes.Config
}

// entry pairs a loaded record with the source file it came from.
type entry struct {
	file string
	bib.Entry
}

// Run inspects every source and the companion locations. A source that
// fails to parse becomes an error issue, never a failed run, so one broken
// file cannot hide findings in the others.
func Run(opts Options) *Report {
	report := &Report{}

	var entries []entry
	for _, src := range opts.Sources {
		report.Files++
		loaded, err := opts.Source.Load([]string{src}, nil)
		if err != nil {
			report.add(LevelError, src, "", "%v", err)
			continue
		}
		for _, e := range loaded {
			entries = append(entries, entry{file: src, Entry: e})
		}
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Key)
	}

	checkDuplicates(report, entries)
	checkConventionalFields(report, entries)
	checkAttachments(report, opts.FileField, entries)
	checkUnclaimed(report, opts.Library, keys)
	checkOrphanNotes(report, opts.Notes, keys)

	return report
}

// checkDuplicates flags keys defined more than once. Lookups take the first
// definition in precedence order, so every later one is dead weight.
func checkDuplicates(report *Report, entries []entry) {
	first := make(map[string]string, len(entries))
	for _, e := range entries {
		prev, seen := first[e.Key]
		if !seen {
			first[e.Key] = e.file
			continue
		}
		if prev == e.file {
			report.add(LevelWarning, e.file, e.Key,
				"duplicate key; the first entry in this file wins lookups")
			continue
		}
		report.add(LevelWarning, e.file, e.Key,
			"duplicate key; the entry in %s wins lookups", prev)
	}
}

// conventionalFields maps an entry type to its conventional field groups; a
// group is satisfied by any one member. The table follows the classic BibTeX
// requirements with the biblatex spellings admitted alongside (date for
// year, journaltitle for journal, institution for school).
var conventionalFields = map[string][][]string{
	"article":       {{"author"}, {"title"}, {"journal", "journaltitle"}, {"year", "date"}},
	"book":          {{"author", "editor"}, {"title"}, {"publisher"}, {"year", "date"}},
	"booklet":       {{"title"}},
	"inbook":        {{"author", "editor"}, {"title"}, {"publisher"}, {"year", "date"}},
	"incollection":  {{"author"}, {"title"}, {"booktitle"}, {"publisher"}, {"year", "date"}},
	"inproceedings": {{"author"}, {"title"}, {"booktitle"}, {"year", "date"}},
	"conference":    {{"author"}, {"title"}, {"booktitle"}, {"year", "date"}},
	"manual":        {{"title"}},
	"mastersthesis": {{"author"}, {"title"}, {"school", "institution"}, {"year", "date"}},
	"phdthesis":     {{"author"}, {"title"}, {"school", "institution"}, {"year", "date"}},
	"proceedings":   {{"title"}, {"year", "date"}},
	"techreport":    {{"author"}, {"title"}, {"institution"}, {"year", "date"}},
	"unpublished":   {{"author"}, {"title"}, {"note"}},
}

// checkConventionalFields warns about entries missing what their type
// conventionally carries. Types outside the table pass unchecked; BibTeX
// types are an open set.
func checkConventionalFields(report *Report, entries []entry) {
	for _, e := range entries {
		groups, known := conventionalFields[e.Record.Type()]
		if !known {
			continue
		}
		for _, group := range groups {
			if hasAny(e, group) {
				continue
			}
			report.add(LevelWarning, e.file, e.Key,
				"%s entry missing %s", e.Record.Type(), strings.Join(group, " or "))
		}
	}
}

func hasAny(e entry, names []string) bool {
	for _, name := range names {
		if e.Record.Has(name) {
			return true
		}
	}
	return false
}

// checkAttachments flags file-field entries pointing at nothing. These are
// errors: the path was recorded deliberately and opening it will fail.
func checkAttachments(report *Report, finder resolver.FileFieldFinder, entries []entry) {
	if finder.Field == "" {
		return
	}
	for _, e := range entries {
		for _, missing := range finder.Missing(e.Record) {
			report.add(LevelError, e.file, e.Key, "attached file not found: %s", missing)
		}
	}
}

// checkUnclaimed flags library documents whose filename stem matches no key,
// typically leftovers from renamed or deleted entries.
func checkUnclaimed(report *Report, finder resolver.LibraryFinder, keys []string) {
	for _, path := range finder.Unclaimed(keys) {
		report.add(LevelWarning, path, "", "document matches no citation key")
	}
}

// checkOrphanNotes flags standalone notes that resolve to no key.
func checkOrphanNotes(report *Report, cfg notes.Config, keys []string) {
	orphans, err := cfg.Orphans(keys)
	if err != nil {
		report.add(LevelError, cfg.Dir, "", "%v", err)
		return
	}
	for _, path := range orphans {
		report.add(LevelWarning, path, "", "note matches no citation key")
	}
}
