// Package record defines the bibliographic record model shared by the index
// and the resolver: a case-insensitive field→value mapping identified by a
// citation key.
package record

import (
	"maps"
	"sort"
	"strings"
)

// Reserved pseudo-field names. BibTeX has a real "type" field (used by
// @techreport entries), so the entry type and the citation key are stored
// under names that cannot collide with fields from a source file.
const (
	FieldKey  = "=key="
	FieldType = "=type="
)

// Record maps lowercase field names to values. Records are built once and
// read-only afterwards; the zero value is an empty record.
type Record struct {
	fields map[string]string
}

// New builds a Record from raw field names, lowercasing each name.
func New(fields map[string]string) Record {
	r := Record{fields: make(map[string]string, len(fields))}
	for name, value := range fields {
		r.fields[strings.ToLower(name)] = value
	}
	return r
}

// Get returns the value for name, matching case-insensitively. Missing
// fields return the empty string.
func (r Record) Get(name string) string {
	return r.fields[strings.ToLower(name)]
}

// Has reports whether name has a non-empty value.
func (r Record) Has(name string) bool {
	return r.Get(name) != ""
}

// Key returns the citation key stored under the =key= pseudo-field.
func (r Record) Key() string {
	return r.fields[FieldKey]
}

// Type returns the entry type stored under the =type= pseudo-field.
func (r Record) Type() string {
	return r.fields[FieldType]
}

// Fields returns all field names in sorted order, pseudo-fields included.
func (r Record) Fields() []string {
	names := make([]string, 0, len(r.fields))
	for name := range r.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of fields.
func (r Record) Len() int {
	return len(r.fields)
}

// Map returns a copy of the underlying field map.
func (r Record) Map() map[string]string {
	out := make(map[string]string, len(r.fields))
	maps.Copy(out, r.fields)
	return out
}

// Equal reports whether two records carry exactly the same fields.
func (r Record) Equal(other Record) bool {
	return maps.Equal(r.fields, other.fields)
}
