package store

import (
	"fmt"

	"github.com/folio-bib/folio/internal/bib"
)

// CachingSource wraps a bib.Source with the parse cache. Each file is
// checked independently so a hit on one file survives a miss on another.
// Full records are cached; requested-field filtering happens on the way out,
// letting one cached row serve any field set.
type CachingSource struct {
	Store  *Store
	Source bib.Source
}

// Load implements bib.Source.
func (c CachingSource) Load(paths []string, fields []string) ([]bib.Entry, error) {
	var out []bib.Entry
	for _, path := range paths {
		entries, err := c.loadOne(path)
		if err != nil {
			return nil, err
		}
		out = append(out, bib.Restrict(entries, fields)...)
	}
	return out, nil
}

func (c CachingSource) loadOne(path string) ([]bib.Entry, error) {
	stamp, err := Stamp(path)
	if err != nil {
		return nil, fmt.Errorf("stat bibliography: %w", err)
	}

	cached, ok, err := c.Store.Lookup(path, stamp)
	if err != nil {
		return nil, err
	}
	if ok {
		return cached, nil
	}

	entries, err := c.Source.Load([]string{path}, nil)
	if err != nil {
		return nil, err
	}
	if err := c.Store.Put(path, stamp, entries); err != nil {
		return nil, err
	}
	return entries, nil
}
