package index

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/folio-bib/folio/internal/bib"
	"github.com/folio-bib/folio/internal/record"
	"github.com/folio-bib/folio/internal/template"
)

// stubSource serves canned entries per path and counts loads, so tests
// control record content without writing BibTeX.
type stubSource struct {
	entries map[string][]bib.Entry
	loads   int
	err     error
}

func (s *stubSource) Load(paths []string, _ []string) ([]bib.Entry, error) {
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	var out []bib.Entry
	for _, p := range paths {
		out = append(out, s.entries[p]...)
	}
	return out, nil
}

func entry(key string, fields map[string]string) bib.Entry {
	if fields == nil {
		fields = map[string]string{}
	}
	fields[record.FieldKey] = key
	fields[record.FieldType] = "article"
	return bib.Entry{Key: key, Record: record.New(fields)}
}

func writeBib(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("@article{x,}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testOptions(src bib.Source) Options {
	return Options{
		Source:    src,
		Main:      template.MustParse("${author editor:20} ${title:*}"),
		StarWidth: 30,
	}
}

func TestCandidatesLazyLoadsBothSlots(t *testing.T) {
	globalDir := t.TempDir()
	ctxDir := t.TempDir()
	a := writeBib(t, globalDir, "a.bib")
	b := writeBib(t, ctxDir, "b.bib")

	src := &stubSource{entries: map[string][]bib.Entry{
		a: {entry("g1", map[string]string{"title": "Global"})},
		b: {entry("l1", map[string]string{"title": "Local"})},
	}}
	opts := testOptions(src)
	opts.GlobalSources = []string{a}
	opts.ContextDir = ctxDir
	ix := New(opts)

	got, err := ix.Candidates(false)
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Candidates returned %d, want 2: %+v", len(got), got)
	}
	if got[0].Key != "l1" || got[1].Key != "g1" {
		t.Errorf("order = [%s %s], want local before global", got[0].Key, got[1].Key)
	}

	global, local := ix.Stats()
	if !global.Loaded || !local.Loaded {
		t.Errorf("Stats = %+v %+v, want both loaded", global, local)
	}
}

func TestCandidatesNotConfigured(t *testing.T) {
	src := &stubSource{}
	opts := testOptions(src)
	opts.ContextDir = t.TempDir() // exists but holds no .bib
	ix := New(opts)

	_, err := ix.Candidates(false)
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("Candidates error = %v, want ErrNotConfigured", err)
	}
	if src.loads != 0 {
		t.Errorf("source loaded %d times before the configuration check", src.loads)
	}
}

func TestRefreshIdempotent(t *testing.T) {
	dir := t.TempDir()
	a := writeBib(t, dir, "a.bib")
	src := &stubSource{entries: map[string][]bib.Entry{
		a: {
			entry("k1", map[string]string{"author": "Smith, A.", "title": "First"}),
			entry("k2", map[string]string{"author": "Jones, B.", "title": "Second"}),
		},
	}}
	opts := testOptions(src)
	opts.GlobalSources = []string{a}
	ix := New(opts)

	if err := ix.Refresh(ScopeGlobal, false); err != nil {
		t.Fatal(err)
	}
	first, err := ix.Candidates(false)
	if err != nil {
		t.Fatal(err)
	}
	if err := ix.Refresh(ScopeGlobal, false); err != nil {
		t.Fatal(err)
	}
	second, err := ix.Candidates(false)
	if err != nil {
		t.Fatal(err)
	}

	if len(first) != len(second) {
		t.Fatalf("candidate count changed across refreshes: %d then %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Display != second[i].Display || first[i].Search != second[i].Search ||
			first[i].Key != second[i].Key || !first[i].Record.Equal(second[i].Record) {
			t.Errorf("candidate %d not value-equal after rebuild:\n%+v\n%+v", i, first[i], second[i])
		}
	}
}

func TestSearchSegmentContainsKey(t *testing.T) {
	dir := t.TempDir()
	a := writeBib(t, dir, "a.bib")
	src := &stubSource{entries: map[string][]bib.Entry{
		a: {
			entry("smith:2020", map[string]string{"title": strings.Repeat("very long title ", 10)}),
			entry("doe2019", nil),
		},
	}}
	opts := testOptions(src)
	opts.GlobalSources = []string{a}
	opts.StarWidth = 8 // force truncation overflow into the hidden segment
	ix := New(opts)

	got, err := ix.Candidates(false)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range got {
		if !strings.Contains(c.Search, c.Key) {
			t.Errorf("hidden segment of %q does not contain the key: %q", c.Key, c.Search)
		}
	}
}

func TestTruncationOverflowStaysSearchable(t *testing.T) {
	dir := t.TempDir()
	a := writeBib(t, dir, "a.bib")
	title := "An Uncommonly Long Treatise on Candidate Construction"
	src := &stubSource{entries: map[string][]bib.Entry{
		a: {entry("k1", map[string]string{"title": title})},
	}}
	opts := testOptions(src)
	opts.GlobalSources = []string{a}
	opts.StarWidth = 10
	ix := New(opts)

	got, err := ix.Candidates(false)
	if err != nil {
		t.Fatal(err)
	}
	joined := got[0].Display + " " + got[0].Search
	if !strings.Contains(joined, "Candidate Construction") {
		t.Errorf("truncated tail not findable: display %q search %q", got[0].Display, got[0].Search)
	}
}

func TestAvailabilityMarkers(t *testing.T) {
	dir := t.TempDir()
	a := writeBib(t, dir, "a.bib")
	src := &stubSource{entries: map[string][]bib.Entry{
		a: {entry("k1", nil)},
	}}
	opts := testOptions(src)
	opts.GlobalSources = []string{a}
	opts.Probe = func(string, record.Record) (bool, bool, bool) { return true, false, true }
	ix := New(opts)

	got, err := ix.Candidates(false)
	if err != nil {
		t.Fatal(err)
	}
	c := got[0]
	if !strings.Contains(c.Search, "has-file") || !strings.Contains(c.Search, "has-link") {
		t.Errorf("Search = %q, want has-file and has-link markers", c.Search)
	}
	if strings.Contains(c.Search, "has-note") {
		t.Errorf("Search = %q carries has-note for a record without one", c.Search)
	}
	if !c.Avail.File || c.Avail.Note || !c.Avail.Link {
		t.Errorf("Avail = %+v, want file and link", c.Avail)
	}
}

func TestLocalPrecedenceForDuplicateKey(t *testing.T) {
	globalDir := t.TempDir()
	ctxDir := t.TempDir()
	a := writeBib(t, globalDir, "a.bib")
	b := writeBib(t, ctxDir, "b.bib")

	src := &stubSource{entries: map[string][]bib.Entry{
		a: {entry("k1", map[string]string{"title": "Global Title"})},
		b: {entry("k1", map[string]string{"title": "Local Title"})},
	}}
	opts := testOptions(src)
	opts.GlobalSources = []string{a}
	opts.ContextDir = ctxDir
	ix := New(opts)

	rec, err := ix.Entry("k1")
	if err != nil {
		t.Fatalf("Entry: %v", err)
	}
	if got := rec.Get("title"); got != "Local Title" {
		t.Errorf("Entry(k1) title = %q, want the local record", got)
	}
}

func TestEntryNotFound(t *testing.T) {
	dir := t.TempDir()
	a := writeBib(t, dir, "a.bib")
	src := &stubSource{entries: map[string][]bib.Entry{a: {entry("k1", nil)}}}
	opts := testOptions(src)
	opts.GlobalSources = []string{a}
	ix := New(opts)

	_, err := ix.Entry("missing")
	if !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("Entry error = %v, want ErrKeyNotFound", err)
	}
}

func TestLocalExcludesGlobalSources(t *testing.T) {
	ctxDir := t.TempDir()
	shared := writeBib(t, ctxDir, "shared.bib")
	only := writeBib(t, ctxDir, "local.bib")

	src := &stubSource{entries: map[string][]bib.Entry{
		shared: {entry("g1", nil)},
		only:   {entry("l1", nil)},
	}}
	opts := testOptions(src)
	opts.GlobalSources = []string{shared}
	opts.ContextDir = ctxDir
	ix := New(opts)

	if err := ix.Refresh(ScopeBoth, false); err != nil {
		t.Fatal(err)
	}
	global, local := ix.Stats()
	if global.Candidates != 1 {
		t.Errorf("global slot has %d candidates, want 1", global.Candidates)
	}
	if local.Candidates != 1 {
		t.Errorf("local slot has %d candidates, want 1 (shared.bib must be excluded)", local.Candidates)
	}

	got, err := ix.Candidates(false)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("Candidates = %d entries, want 2 (g1 once, l1 once)", len(got))
	}
}

func TestContextTagOnLocalCandidatesOnly(t *testing.T) {
	globalDir := t.TempDir()
	ctxDir := t.TempDir()
	a := writeBib(t, globalDir, "a.bib")
	b := writeBib(t, ctxDir, "b.bib")

	src := &stubSource{entries: map[string][]bib.Entry{
		a: {entry("g1", nil)},
		b: {entry("l1", nil)},
	}}
	opts := testOptions(src)
	opts.GlobalSources = []string{a}
	opts.ContextDir = ctxDir
	opts.ContextTag = "local:papers"
	ix := New(opts)

	got, err := ix.Candidates(false)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range got {
		tagged := strings.Contains(c.Search, "local:papers")
		if c.Key == "l1" && !tagged {
			t.Errorf("local candidate missing context tag: %q", c.Search)
		}
		if c.Key == "g1" && tagged {
			t.Errorf("global candidate carries context tag: %q", c.Search)
		}
	}
}

func TestExportHookRunsBeforeReload(t *testing.T) {
	dir := t.TempDir()
	a := writeBib(t, dir, "a.bib")
	src := &stubSource{entries: map[string][]bib.Entry{a: {entry("k1", nil)}}}

	var order []string
	opts := testOptions(src)
	opts.GlobalSources = []string{a}
	opts.ExportHook = func() error {
		if src.loads != 0 {
			t.Error("source loaded before the export hook finished")
		}
		order = append(order, "hook")
		return nil
	}
	ix := New(opts)

	if err := ix.Refresh(ScopeGlobal, true); err != nil {
		t.Fatal(err)
	}
	if len(order) != 1 {
		t.Fatalf("hook ran %d times, want 1", len(order))
	}
	if src.loads != 1 {
		t.Errorf("source loaded %d times, want 1", src.loads)
	}
}

func TestExportHookFailurePropagatesUnmodified(t *testing.T) {
	dir := t.TempDir()
	a := writeBib(t, dir, "a.bib")
	src := &stubSource{entries: map[string][]bib.Entry{a: {entry("k1", nil)}}}

	hookErr := errors.New("reference manager export failed")
	opts := testOptions(src)
	opts.GlobalSources = []string{a}
	opts.ExportHook = func() error { return hookErr }
	ix := New(opts)

	err := ix.Refresh(ScopeGlobal, true)
	if err != hookErr {
		t.Fatalf("Refresh error = %v, want the hook's error unmodified", err)
	}
	if src.loads != 0 {
		t.Errorf("source loaded %d times after hook failure, want 0", src.loads)
	}
	global, _ := ix.Stats()
	if global.Loaded {
		t.Error("global slot loaded despite hook failure")
	}
}

func TestParseFailureLeavesSlotUntouched(t *testing.T) {
	dir := t.TempDir()
	a := writeBib(t, dir, "a.bib")
	src := &stubSource{entries: map[string][]bib.Entry{a: {entry("k1", nil)}}}
	opts := testOptions(src)
	opts.GlobalSources = []string{a}
	ix := New(opts)

	if err := ix.Refresh(ScopeGlobal, false); err != nil {
		t.Fatal(err)
	}
	src.err = errors.New("parse a.bib: unexpected token")
	if err := ix.Refresh(ScopeGlobal, false); err == nil {
		t.Fatal("Refresh succeeded despite source failure")
	}

	global, _ := ix.Stats()
	if !global.Loaded || global.Candidates != 1 {
		t.Errorf("global slot = %+v, want the pre-failure value intact", global)
	}
}

func TestForceRebuildReloads(t *testing.T) {
	dir := t.TempDir()
	a := writeBib(t, dir, "a.bib")
	src := &stubSource{entries: map[string][]bib.Entry{a: {entry("k1", nil)}}}
	opts := testOptions(src)
	opts.GlobalSources = []string{a}
	ix := New(opts)

	if _, err := ix.Candidates(false); err != nil {
		t.Fatal(err)
	}
	loads := src.loads
	if _, err := ix.Candidates(false); err != nil {
		t.Fatal(err)
	}
	if src.loads != loads {
		t.Errorf("lazy access reloaded sources: %d loads, want %d", src.loads, loads)
	}
	if _, err := ix.Candidates(true); err != nil {
		t.Fatal(err)
	}
	if src.loads <= loads {
		t.Errorf("force rebuild did not reload: %d loads", src.loads)
	}
}

func TestParseScope(t *testing.T) {
	tests := []struct {
		in      string
		want    Scope
		wantErr bool
	}{
		{"global", ScopeGlobal, false},
		{"local", ScopeLocal, false},
		{"both", ScopeBoth, false},
		{"", ScopeBoth, false},
		{"GLOBAL", ScopeGlobal, false},
		{"all", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseScope(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseScope(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseScope(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	b := writeBib(t, dir, "b.bib")
	a := writeBib(t, dir, "a.bib")
	nested := writeBib(t, dir, filepath.Join("sub", "c.bib"))
	writeBib(t, dir, filepath.Join(".git", "ignored.bib"))
	upper := writeBib(t, dir, "d.BIB")
	if err := os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	want := []string{a, b, upper, nested}
	if len(got) != len(want) {
		t.Fatalf("Discover = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Discover[%d] = %q, want %q (sorted)", i, got[i], want[i])
		}
	}
}

func TestDiscoverMissingDir(t *testing.T) {
	got, err := Discover(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if got != nil {
		t.Errorf("Discover = %v, want nil for a missing directory", got)
	}
}

func TestStarWidth(t *testing.T) {
	tests := []struct {
		terminal, symbols, main, suffix, margin, want int
	}{
		{120, 5, 40, 20, 2, 53},
		{80, 5, 40, 20, 2, 13},
		{40, 5, 40, 20, 2, 0}, // clamped
	}
	for _, tt := range tests {
		if got := StarWidth(tt.terminal, tt.symbols, tt.main, tt.suffix, tt.margin); got != tt.want {
			t.Errorf("StarWidth(%d,%d,%d,%d,%d) = %d, want %d",
				tt.terminal, tt.symbols, tt.main, tt.suffix, tt.margin, got, tt.want)
		}
	}
}

func TestSymbols(t *testing.T) {
	s := DefaultSymbols()
	if got := s.Prefix(Availability{File: true, Link: true}); got != "⌘   @" {
		t.Errorf("Prefix = %q", got)
	}
	if got := s.Prefix(Availability{}); got != "     " {
		t.Errorf("Prefix(empty) = %q", got)
	}
	if got := s.Width(); got != 5 {
		t.Errorf("Width = %d, want 5", got)
	}
}
