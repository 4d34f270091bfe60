// Package resolver finds and opens the resources attached to bibliographic
// records: library files, notes, and links.
//
// Resolution runs an ordered chain of finders over (key, record) and
// deduplicates the concatenated results; finder order is display and open
// precedence. Opening dispatches through an ordered chain of openers, each
// validating its own precondition, until one succeeds. Both chains are
// injected at construction; there is no global registration.
package resolver

import (
	"fmt"
	"strings"

	"github.com/folio-bib/folio/internal/paths"
	"github.com/folio-bib/folio/internal/record"
	"github.com/folio-bib/folio/internal/urls"
)

// Kind tags a resource with its type. Deduplication never merges resources
// of different kinds, and openers declare which kinds they handle.
type Kind int

const (
	KindFile Kind = iota
	KindNote
	KindURL
)

// String returns the user-facing kind name.
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindNote:
		return "note"
	case KindURL:
		return "link"
	default:
		return "unknown"
	}
}

// ParseKind reads a kind name as accepted on the command line.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "file":
		return KindFile, nil
	case "note":
		return KindNote, nil
	case "link", "url":
		return KindURL, nil
	default:
		return 0, fmt.Errorf("unknown resource kind %q (expected file, note, or link)", s)
	}
}

// Resource is one openable thing attached to a record.
type Resource struct {
	Kind    Kind
	Display string       // human-readable label shown in listings
	Path    string       // location for files and notes
	Line    int          // 1-based heading line for combined-file notes
	Locator urls.Locator // location for links
}

// Finder produces candidate resources for a record. Implementations may
// stat the filesystem but must not mutate anything; a finder that cannot
// produce resources returns an empty slice.
type Finder interface {
	Name() string
	Find(key string, rec record.Record) []Resource
}

// Opener performs the side effect of opening one resource. Open validates
// its own precondition (file still present, command configured) and reports
// whether the resource was actually handed off.
type Opener interface {
	Name() string
	Opens(kind Kind) bool
	Open(res Resource) bool
}

// EquivFunc reports whether two resources of the same kind identify the
// same underlying thing.
type EquivFunc func(a, b Resource) bool

// Resolver runs the finder chain, deduplicates, and dispatches opens.
type Resolver struct {
	registry *urls.Registry
	finders  []Finder
	openers  []Opener
	equiv    map[Kind][]EquivFunc
}

// New wires a resolver from its ordered chains. The registry drives URL
// equivalence; per-kind defaults (normalized path equality for files,
// path+line equality for notes, locator equivalence for links) are
// installed before any extra predicates registered later.
func New(registry *urls.Registry, finders []Finder, openers []Opener) *Resolver {
	r := &Resolver{
		registry: registry,
		finders:  finders,
		openers:  openers,
		equiv:    make(map[Kind][]EquivFunc),
	}
	r.RegisterEquivalence(KindFile, samePath)
	r.RegisterEquivalence(KindNote, sameNote)
	r.RegisterEquivalence(KindURL, r.sameLocator)
	return r
}

// RegisterEquivalence appends an equivalence predicate for a kind.
// Predicates are consulted in registration order.
func (r *Resolver) RegisterEquivalence(kind Kind, fn EquivFunc) {
	r.equiv[kind] = append(r.equiv[kind], fn)
}

// Registry returns the URL registry the resolver was built with.
func (r *Resolver) Registry() *urls.Registry {
	return r.registry
}

// Finders returns the configured finder chain in order.
func (r *Resolver) Finders() []Finder {
	return r.finders
}

// Resolve concatenates every finder's output in chain order and
// deduplicates. The result order is the default display and open
// precedence.
func (r *Resolver) Resolve(key string, rec record.Record) []Resource {
	var found []Resource
	for _, f := range r.finders {
		found = append(found, f.Find(key, rec)...)
	}
	return r.Dedup(found)
}

// Dedup keeps the first occurrence of each equivalence class. Two
// resources are equivalent only when their kinds match and either their
// display strings are textually equal or a registered predicate for the
// kind says they identify the same thing.
func (r *Resolver) Dedup(resources []Resource) []Resource {
	out := make([]Resource, 0, len(resources))
	for _, res := range resources {
		if !r.containsEquivalent(out, res) {
			out = append(out, res)
		}
	}
	return out
}

func (r *Resolver) containsEquivalent(kept []Resource, res Resource) bool {
	for _, k := range kept {
		if k.Kind != res.Kind {
			continue
		}
		if k.Display == res.Display {
			return true
		}
		for _, same := range r.equiv[res.Kind] {
			if same(k, res) {
				return true
			}
		}
	}
	return false
}

// Open tries each opener that handles the resource's kind, in chain order,
// until one succeeds. Exhausting the chain is reported as false, never as
// a panic or error: an unopenable resource is an expected outcome.
func (r *Resolver) Open(res Resource) bool {
	for _, o := range r.openers {
		if !o.Opens(res.Kind) {
			continue
		}
		if o.Open(res) {
			return true
		}
	}
	return false
}

// Availability is the cheap probe backing the index's candidate markers:
// it walks the finder chain only until every kind has been witnessed.
func (r *Resolver) Availability(key string, rec record.Record) (file, note, link bool) {
	for _, f := range r.finders {
		if file && note && link {
			break
		}
		for _, res := range f.Find(key, rec) {
			switch res.Kind {
			case KindFile:
				file = true
			case KindNote:
				note = true
			case KindURL:
				link = true
			}
		}
	}
	return file, note, link
}

// Target returns the underlying location of a resource: the path for files
// and notes, the rendered URL for links.
func (r *Resolver) Target(res Resource) (string, error) {
	if res.Kind == KindURL {
		return r.registry.ToURL(res.Locator)
	}
	return res.Path, nil
}

func samePath(a, b Resource) bool {
	return paths.Equal(a.Path, b.Path)
}

func sameNote(a, b Resource) bool {
	return a.Line == b.Line && paths.Equal(a.Path, b.Path)
}

func (r *Resolver) sameLocator(a, b Resource) bool {
	return r.registry.Equivalent(a.Locator, b.Locator)
}
