package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/folio-bib/folio/internal/bib"
	"github.com/folio-bib/folio/internal/record"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleEntries() []bib.Entry {
	return []bib.Entry{
		{Key: "smith2020", Record: record.New(map[string]string{
			record.FieldKey:  "smith2020",
			record.FieldType: "article",
			"author":         "Smith, John",
			"title":          "A Study",
		})},
		{Key: "jones2019", Record: record.New(map[string]string{
			record.FieldKey:  "jones2019",
			record.FieldType: "book",
			"editor":         "Jones, A.",
		})},
	}
}

func TestPutLookup(t *testing.T) {
	s := openTestStore(t)
	stamp := FileStamp{MtimeNs: 12345, Size: 678}

	if err := s.Put("/refs/main.bib", stamp, sampleEntries()); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := s.Lookup("/refs/main.bib", stamp)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !ok {
		t.Fatal("Lookup missed after Put with same stamp")
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[0].Key != "smith2020" || got[1].Key != "jones2019" {
		t.Errorf("entry order not preserved: %q, %q", got[0].Key, got[1].Key)
	}
	if !got[0].Record.Equal(sampleEntries()[0].Record) {
		t.Error("cached record does not round-trip")
	}
}

func TestLookupMisses(t *testing.T) {
	s := openTestStore(t)
	stamp := FileStamp{MtimeNs: 1, Size: 2}

	if _, ok, err := s.Lookup("/refs/unknown.bib", stamp); err != nil || ok {
		t.Errorf("Lookup(unknown) = (ok=%v, err=%v), want miss", ok, err)
	}

	if err := s.Put("/refs/main.bib", stamp, sampleEntries()); err != nil {
		t.Fatalf("Put: %v", err)
	}
	stale := FileStamp{MtimeNs: 9, Size: 2}
	if _, ok, err := s.Lookup("/refs/main.bib", stale); err != nil || ok {
		t.Errorf("Lookup(stale stamp) = (ok=%v, err=%v), want miss", ok, err)
	}
}

func TestPutReplaces(t *testing.T) {
	s := openTestStore(t)

	if err := s.Put("/refs/main.bib", FileStamp{MtimeNs: 1, Size: 1}, sampleEntries()); err != nil {
		t.Fatalf("Put: %v", err)
	}
	replacement := []bib.Entry{{Key: "only", Record: record.New(map[string]string{record.FieldKey: "only"})}}
	stamp := FileStamp{MtimeNs: 2, Size: 2}
	if err := s.Put("/refs/main.bib", stamp, replacement); err != nil {
		t.Fatalf("Put(replacement): %v", err)
	}

	got, ok, err := s.Lookup("/refs/main.bib", stamp)
	if err != nil || !ok {
		t.Fatalf("Lookup after replace = (ok=%v, err=%v)", ok, err)
	}
	if len(got) != 1 || got[0].Key != "only" {
		t.Errorf("got %v, want single entry %q", got, "only")
	}
}

func TestPrune(t *testing.T) {
	s := openTestStore(t)
	stamp := FileStamp{MtimeNs: 1, Size: 1}

	if err := s.Put("/refs/keep.bib", stamp, sampleEntries()); err != nil {
		t.Fatal(err)
	}
	if err := s.Put("/refs/drop.bib", stamp, sampleEntries()); err != nil {
		t.Fatal(err)
	}

	if err := s.Prune([]string{"/refs/keep.bib"}); err != nil {
		t.Fatalf("Prune: %v", err)
	}

	if _, ok, _ := s.Lookup("/refs/keep.bib", stamp); !ok {
		t.Error("kept file was pruned")
	}
	if _, ok, _ := s.Lookup("/refs/drop.bib", stamp); ok {
		t.Error("stale file survived prune")
	}

	paths, err := s.CachedPaths()
	if err != nil {
		t.Fatalf("CachedPaths: %v", err)
	}
	if len(paths) != 1 {
		t.Errorf("CachedPaths = %v, want one entry", paths)
	}
}

// countingSource counts parse calls so cache hits are observable.
type countingSource struct {
	inner bib.Source
	calls int
}

func (c *countingSource) Load(paths []string, fields []string) ([]bib.Entry, error) {
	c.calls++
	return c.inner.Load(paths, fields)
}

func TestCachingSource(t *testing.T) {
	dir := t.TempDir()
	bibPath := filepath.Join(dir, "main.bib")
	content := "@article{smith2020,\n  author = {Smith, John},\n  title = {A Study}\n}\n"
	if err := os.WriteFile(bibPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	s := openTestStore(t)
	counting := &countingSource{inner: bib.FileSource{}}
	src := CachingSource{Store: s, Source: counting}

	first, err := src.Load([]string{bibPath}, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if counting.calls != 1 {
		t.Fatalf("parse calls = %d, want 1", counting.calls)
	}

	second, err := src.Load([]string{bibPath}, nil)
	if err != nil {
		t.Fatalf("Load(cached): %v", err)
	}
	if counting.calls != 1 {
		t.Errorf("parse calls after cached load = %d, want 1", counting.calls)
	}
	if len(first) != len(second) || !first[0].Record.Equal(second[0].Record) {
		t.Error("cached load differs from parsed load")
	}

	// A content change with a new stamp must re-parse.
	longer := content + "@misc{extra,\n  title = {More}\n}\n"
	if err := os.WriteFile(bibPath, []byte(longer), 0644); err != nil {
		t.Fatal(err)
	}
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(bibPath, future, future); err != nil {
		t.Fatal(err)
	}

	third, err := src.Load([]string{bibPath}, nil)
	if err != nil {
		t.Fatalf("Load(changed): %v", err)
	}
	if counting.calls != 2 {
		t.Errorf("parse calls after change = %d, want 2", counting.calls)
	}
	if len(third) != 2 {
		t.Errorf("got %d entries after change, want 2", len(third))
	}
}

func TestCachingSourceFieldFilter(t *testing.T) {
	dir := t.TempDir()
	bibPath := filepath.Join(dir, "main.bib")
	content := "@article{smith2020,\n  author = {Smith, John},\n  title = {A Study},\n  year = {2020}\n}\n"
	if err := os.WriteFile(bibPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	s := openTestStore(t)
	src := CachingSource{Store: s, Source: bib.FileSource{}}

	// Prime the cache with a narrow field set, then ask for a wider one;
	// the cache stores full records so both must be served.
	narrow, err := src.Load([]string{bibPath}, []string{"title"})
	if err != nil {
		t.Fatal(err)
	}
	if narrow[0].Record.Has("author") {
		t.Error("narrow load leaked unrequested field")
	}

	wide, err := src.Load([]string{bibPath}, []string{"title", "author"})
	if err != nil {
		t.Fatal(err)
	}
	if !wide[0].Record.Has("author") {
		t.Error("wide load after narrow prime lost a cached field")
	}
}

func TestOpenRecreatesOnSchemaChange(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put("/refs/main.bib", FileStamp{MtimeNs: 1, Size: 1}, sampleEntries()); err != nil {
		t.Fatal(err)
	}
	// Pretend a future folio wrote this database.
	if _, err := s.db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("Open after version bump: %v", err)
	}
	defer reopened.Close()

	if _, ok, _ := reopened.Lookup("/refs/main.bib", FileStamp{MtimeNs: 1, Size: 1}); ok {
		t.Error("entries survived schema recreation")
	}
}
