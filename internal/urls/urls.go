// Package urls maps raw URLs to canonical (type, identifier) pairs and back.
//
// A Registry holds an ordered table of identifier types. Each type carries a
// display name, a single-placeholder URL format, and a recognition pattern
// whose first capture group extracts the identifier. Recognition and
// canonicalization are gated by explicit policies passed per call; nothing
// in this package reads ambient state.
package urls

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnknownType indicates a canonical locator whose type tag is not in the
// registry.
var ErrUnknownType = errors.New("unknown url identifier type")

// Identifier is one recognizable URL type.
type Identifier struct {
	Type    string         // stable type tag, e.g. "doi"
	Name    string         // display name, e.g. "DOI"
	Format  string         // URL template with exactly one %s
	Pattern *regexp.Regexp // first capture group extracts the identifier
}

// Spec is the unvalidated form of an Identifier as it appears in
// configuration.
type Spec struct {
	Type    string
	Name    string
	Format  string
	Pattern string
}

// Locator is a resource location: a raw URL, or a canonical (type, id) pair
// when Type is non-empty.
type Locator struct {
	Raw  string
	Type string
	ID   string
}

// Canonical reports whether the locator carries a (type, id) pair.
func (l Locator) Canonical() bool {
	return l.Type != ""
}

// RawLocator wraps a raw URL.
func RawLocator(url string) Locator {
	return Locator{Raw: url}
}

// CanonicalLocator builds a (type, id) locator.
func CanonicalLocator(typeTag, id string) Locator {
	return Locator{Type: typeTag, ID: id}
}

// Registry is an ordered identifier table. Scan order is registration
// order; the first matching pattern wins.
type Registry struct {
	ids    []Identifier
	byType map[string]int
}

// New compiles specs into a Registry, preserving order. Duplicate type tags,
// patterns that do not compile or lack a capture group, and format strings
// without exactly one %s are errors.
func New(specs []Spec) (*Registry, error) {
	r := &Registry{byType: make(map[string]int, len(specs))}
	for _, spec := range specs {
		typeTag := strings.TrimSpace(spec.Type)
		if typeTag == "" {
			return nil, fmt.Errorf("url identifier: empty type tag")
		}
		if _, exists := r.byType[typeTag]; exists {
			return nil, fmt.Errorf("url identifier %q: duplicate type tag", typeTag)
		}
		if strings.Count(spec.Format, "%s") != 1 {
			return nil, fmt.Errorf("url identifier %q: format must contain exactly one %%s", typeTag)
		}
		re, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return nil, fmt.Errorf("url identifier %q: %w", typeTag, err)
		}
		if re.NumSubexp() < 1 {
			return nil, fmt.Errorf("url identifier %q: pattern needs a capture group for the identifier", typeTag)
		}
		name := spec.Name
		if name == "" {
			name = typeTag
		}
		r.byType[typeTag] = len(r.ids)
		r.ids = append(r.ids, Identifier{Type: typeTag, Name: name, Format: spec.Format, Pattern: re})
	}
	return r, nil
}

// DefaultSpecs is the built-in identifier table: DOI, arXiv (modern and
// legacy identifier shapes), PubMed.
func DefaultSpecs() []Spec {
	return []Spec{
		{
			Type:    "doi",
			Name:    "DOI",
			Format:  "https://doi.org/%s",
			Pattern: `(?i)^https?://(?:dx\.)?doi\.org/(10\..+)$`,
		},
		{
			Type:    "arxiv",
			Name:    "arXiv",
			Format:  "https://arxiv.org/abs/%s",
			Pattern: `(?i)^https?://arxiv\.org/(?:abs|pdf)/([0-9]{4}\.[0-9]{4,5}(?:v[0-9]+)?|[a-z-]+(?:\.[A-Za-z-]+)?/[0-9]{7}(?:v[0-9]+)?)(?:\.pdf)?$`,
		},
		{
			Type:    "pmid",
			Name:    "PubMed",
			Format:  "https://pubmed.ncbi.nlm.nih.gov/%s/",
			Pattern: `(?i)^https?://(?:www\.)?pubmed\.ncbi\.nlm\.nih\.gov/([0-9]+)/?$`,
		},
	}
}

// Default returns a registry built from DefaultSpecs.
func Default() *Registry {
	r, err := New(DefaultSpecs())
	if err != nil {
		panic(err) // static table
	}
	return r
}

// Types returns the registered type tags in scan order.
func (r *Registry) Types() []string {
	out := make([]string, len(r.ids))
	for i, id := range r.ids {
		out[i] = id.Type
	}
	return out
}

// Lookup returns the identifier registered for a type tag.
func (r *Registry) Lookup(typeTag string) (Identifier, bool) {
	i, ok := r.byType[typeTag]
	if !ok {
		return Identifier{}, false
	}
	return r.ids[i], true
}

// Recognize scans the table in order under the recognition policy. On the
// first pattern match the captured identifier is extracted: the display
// becomes "<name>: <id>" and the locator is canonical when the
// normalization policy admits the type, otherwise the raw URL is kept.
// Unmatched URLs come back unchanged as (url, raw url).
func (r *Registry) Recognize(url string, recognition, normalization Policy) (string, Locator) {
	for _, id := range r.ids {
		if !recognition.Allows(id.Type) {
			continue
		}
		m := id.Pattern.FindStringSubmatch(url)
		if m == nil || m[1] == "" {
			continue
		}
		display := id.Name + ": " + m[1]
		if normalization.Allows(id.Type) {
			return display, CanonicalLocator(id.Type, m[1])
		}
		return display, RawLocator(url)
	}
	return url, RawLocator(url)
}

// ToURL renders a locator back to a URL. Raw locators pass through
// unchanged; canonical locators substitute the identifier into the type's
// format string.
func (r *Registry) ToURL(loc Locator) (string, error) {
	if !loc.Canonical() {
		return loc.Raw, nil
	}
	id, ok := r.Lookup(loc.Type)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, loc.Type)
	}
	return fmt.Sprintf(id.Format, loc.ID), nil
}

// Equivalent reports whether two locators identify the same resource. Both
// are normalized under policy All, then compared structurally: canonical
// pairs by (type, id), raw values textually.
func (r *Registry) Equivalent(a, b Locator) bool {
	na := r.normalize(a)
	nb := r.normalize(b)
	if na.Canonical() != nb.Canonical() {
		return false
	}
	if na.Canonical() {
		return na.Type == nb.Type && na.ID == nb.ID
	}
	return na.Raw == nb.Raw
}

func (r *Registry) normalize(loc Locator) Locator {
	if loc.Canonical() {
		return loc
	}
	_, out := r.Recognize(loc.Raw, PolicyAll(), PolicyAll())
	return out
}
