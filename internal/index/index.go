// Package index maintains the candidate caches: rendered, searchable views
// of bibliography records.
//
// Two slots exist, each refreshable on its own: the global slot loads the
// configured source list, the local slot loads sources discovered in the
// context directory minus anything already global. A slot starts out not
// loaded and is replaced wholesale on every refresh; readers always see a
// complete slot value, never a partially built one.
package index

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/folio-bib/folio/internal/bib"
	"github.com/folio-bib/folio/internal/paths"
	"github.com/folio-bib/folio/internal/record"
	"github.com/folio-bib/folio/internal/template"
)

var (
	// ErrNotConfigured indicates that neither a global source list nor any
	// locally discoverable source exists.
	ErrNotConfigured = errors.New("no bibliography sources configured")
	// ErrKeyNotFound indicates a citation key absent from both slots.
	ErrKeyNotFound = errors.New("citation key not found")
)

// Scope selects which cache slots a refresh rebuilds.
type Scope int

const (
	ScopeGlobal Scope = iota
	ScopeLocal
	ScopeBoth
)

// String returns the scope name as accepted on the command line.
func (s Scope) String() string {
	switch s {
	case ScopeGlobal:
		return "global"
	case ScopeLocal:
		return "local"
	case ScopeBoth:
		return "both"
	default:
		return "unknown"
	}
}

// ParseScope reads a scope name.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "global":
		return ScopeGlobal, nil
	case "local":
		return ScopeLocal, nil
	case "", "both":
		return ScopeBoth, nil
	default:
		return 0, fmt.Errorf("unknown refresh scope %q (expected global, local, or both)", s)
	}
}

// Availability marks which resource kinds exist for a record.
type Availability struct {
	File bool
	Note bool
	Link bool
}

// Candidate is the rendered, searchable view of one record. Display is the
// fixed-width visible text; Search is the hidden segment carried beside it:
// availability markers, the context tag, the key verbatim, and any text the
// width fitting truncated away. Substring search over Display+Search always
// finds the key and the full field values.
type Candidate struct {
	Display string
	Search  string
	Key     string
	Record  record.Record
	Avail   Availability
}

// ProbeFunc reports resource availability for one record. Probes run during
// candidate construction and should be cheap; the resolver's Availability
// method is the intended implementation.
type ProbeFunc func(key string, rec record.Record) (file, note, link bool)

// Options wire an Index. Source and Main are required; everything else has
// a workable zero value.
type Options struct {
	Source        bib.Source
	GlobalSources []string // configured bibliography files
	ContextDir    string   // local discovery root; empty disables the local slot
	ContextTag    string   // searchable tag added to local candidates
	Fields        []string // requested fields handed to the source; nil keeps all

	Engine    *template.Engine   // defaults to template.DefaultEngine
	Main      *template.Template // main display template
	Suffix    *template.Template // optional suffix template
	StarWidth int                // column count for ${...:*} placeholders

	Probe ProbeFunc // optional availability probe

	// ExportHook runs synchronously before a refresh that was asked to
	// export (e.g. re-export from a reference manager). Its error aborts the
	// refresh and reaches the caller unmodified; there is no retry.
	ExportHook func() error
}

// slot is one loaded cache value. A nil *slot pointer is the not-loaded
// state; refreshes swap in a fresh slot under the mutex and never mutate a
// published one.
type slot struct {
	candidates []Candidate
	sources    []string
}

// Index holds the two candidate caches.
type Index struct {
	opts Options

	mu     sync.Mutex
	global *slot
	local  *slot
}

// New builds an Index over opts.
func New(opts Options) *Index {
	if opts.Engine == nil {
		opts.Engine = template.DefaultEngine()
	}
	return &Index{opts: opts}
}

// Refresh rebuilds the selected slots from their sources. With export set,
// the configured export hook runs first, synchronously and to completion.
// Source parse failures propagate unmodified and leave every slot as it was.
func (ix *Index) Refresh(scope Scope, export bool) error {
	if export && ix.opts.ExportHook != nil {
		if err := ix.opts.ExportHook(); err != nil {
			return err
		}
	}
	if scope == ScopeGlobal || scope == ScopeBoth {
		if err := ix.refreshGlobal(); err != nil {
			return err
		}
	}
	if scope == ScopeLocal || scope == ScopeBoth {
		if err := ix.refreshLocal(); err != nil {
			return err
		}
	}
	return nil
}

func (ix *Index) refreshGlobal() error {
	sources := ix.opts.GlobalSources
	candidates, err := ix.build(sources, "")
	if err != nil {
		return err
	}
	ix.mu.Lock()
	ix.global = &slot{candidates: candidates, sources: sources}
	ix.mu.Unlock()
	return nil
}

func (ix *Index) refreshLocal() error {
	sources, err := ix.localSources()
	if err != nil {
		return err
	}
	candidates, err := ix.build(sources, ix.opts.ContextTag)
	if err != nil {
		return err
	}
	ix.mu.Lock()
	ix.local = &slot{candidates: candidates, sources: sources}
	ix.mu.Unlock()
	return nil
}

// localSources discovers context bibliographies and subtracts the global
// list, so a file listed globally never loads into the local slot too.
func (ix *Index) localSources() ([]string, error) {
	if ix.opts.ContextDir == "" {
		return nil, nil
	}
	discovered, err := Discover(ix.opts.ContextDir)
	if err != nil {
		return nil, err
	}
	return paths.Subtract(discovered, ix.opts.GlobalSources), nil
}

// build loads entries from sources and renders them in order. Rebuilding
// unchanged sources yields value-equal candidates.
func (ix *Index) build(sources []string, tag string) ([]Candidate, error) {
	if len(sources) == 0 {
		return nil, nil
	}
	entries, err := ix.opts.Source.Load(sources, ix.opts.Fields)
	if err != nil {
		return nil, err
	}
	candidates := make([]Candidate, 0, len(entries))
	for _, e := range entries {
		candidates = append(candidates, ix.candidate(e, tag))
	}
	return candidates, nil
}

func (ix *Index) candidate(e bib.Entry, tag string) Candidate {
	display, overflow := ix.opts.Engine.Render(e.Record, ix.opts.Main, ix.opts.StarWidth)
	if ix.opts.Suffix != nil {
		suffix, over := ix.opts.Engine.Render(e.Record, ix.opts.Suffix, ix.opts.StarWidth)
		display += suffix
		overflow = append(overflow, over...)
	}
	var avail Availability
	if ix.opts.Probe != nil {
		avail.File, avail.Note, avail.Link = ix.opts.Probe(e.Key, e.Record)
	}
	return Candidate{
		Display: display,
		Search:  searchSegment(e.Key, avail, tag, overflow),
		Key:     e.Key,
		Record:  e.Record,
		Avail:   avail,
	}
}

// searchSegment assembles the hidden searchable text. The key always
// appears verbatim; truncation overflow goes last so long values stay
// findable by substring.
func searchSegment(key string, avail Availability, tag string, overflow []string) string {
	parts := make([]string, 0, 5+len(overflow))
	if avail.File {
		parts = append(parts, "has-file")
	}
	if avail.Note {
		parts = append(parts, "has-note")
	}
	if avail.Link {
		parts = append(parts, "has-link")
	}
	if tag != "" {
		parts = append(parts, tag)
	}
	parts = append(parts, key)
	parts = append(parts, overflow...)
	return strings.Join(parts, " ")
}

// Configured reports whether any source exists to load from: a configured
// global list, or at least one discoverable local file.
func (ix *Index) Configured() (bool, error) {
	if len(ix.opts.GlobalSources) > 0 {
		return true, nil
	}
	locals, err := ix.localSources()
	if err != nil {
		return false, err
	}
	return len(locals) > 0, nil
}

// Candidates returns the local candidates followed by the global ones; the
// concatenation order is lookup precedence. Slots still not loaded are
// populated first; forceRebuild refreshes both slots unconditionally.
// ErrNotConfigured is returned when there is nothing anywhere to load.
func (ix *Index) Candidates(forceRebuild bool) ([]Candidate, error) {
	ok, err := ix.Configured()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotConfigured
	}

	if forceRebuild {
		if err := ix.Refresh(ScopeBoth, false); err != nil {
			return nil, err
		}
	}

	ix.mu.Lock()
	global, local := ix.global, ix.local
	ix.mu.Unlock()

	if global == nil {
		if err := ix.refreshGlobal(); err != nil {
			return nil, err
		}
	}
	if local == nil {
		if err := ix.refreshLocal(); err != nil {
			return nil, err
		}
	}

	ix.mu.Lock()
	global, local = ix.global, ix.local
	ix.mu.Unlock()

	out := make([]Candidate, 0, len(local.candidates)+len(global.candidates))
	out = append(out, local.candidates...)
	out = append(out, global.candidates...)
	return out, nil
}

// Entry returns the record for key: the first candidate, local before
// global, whose key matches. A miss is ErrKeyNotFound.
func (ix *Index) Entry(key string) (record.Record, error) {
	candidates, err := ix.Candidates(false)
	if err != nil {
		return record.Record{}, err
	}
	for _, c := range candidates {
		if c.Key == key {
			return c.Record, nil
		}
	}
	return record.Record{}, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
}

// SourcePaths returns the source files behind the loaded slots, local
// before global, for cache pruning and diagnostics. Slots not yet loaded
// contribute nothing.
func (ix *Index) SourcePaths() []string {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	var out []string
	if ix.local != nil {
		out = append(out, ix.local.sources...)
	}
	if ix.global != nil {
		out = append(out, ix.global.sources...)
	}
	return out
}

// SlotStats describes one cache slot.
type SlotStats struct {
	Loaded     bool
	Files      int
	Candidates int
}

// Stats reports both slots.
func (ix *Index) Stats() (global, local SlotStats) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.global != nil {
		global = SlotStats{Loaded: true, Files: len(ix.global.sources), Candidates: len(ix.global.candidates)}
	}
	if ix.local != nil {
		local = SlotStats{Loaded: true, Files: len(ix.local.sources), Candidates: len(ix.local.candidates)}
	}
	return global, local
}

// StarWidth computes the remainder column count handed to ${...:*}
// placeholders: the terminal width minus the symbol prefix column, both
// templates' fixed widths, and the margin. Clamped at zero.
func StarWidth(terminal, symbols, main, suffix, margin int) int {
	w := terminal - (symbols + main + suffix + margin)
	if w < 0 {
		return 0
	}
	return w
}
