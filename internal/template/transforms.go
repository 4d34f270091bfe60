package template

import "strings"

// Transform rewrites a selected field value. An empty Fields list matches
// every field; otherwise the transform applies only when the selected field
// is one of the named ones (case-insensitive).
type Transform struct {
	Fields []string
	Apply  func(string) string
}

func (tr Transform) matches(field string) bool {
	if len(tr.Fields) == 0 {
		return true
	}
	for _, f := range tr.Fields {
		if strings.EqualFold(f, field) {
			return true
		}
	}
	return false
}

// CleanValue normalizes a raw BibTeX value for display: braces and double
// quotes are dropped and whitespace runs collapse to single spaces.
func CleanValue(v string) string {
	var b strings.Builder
	b.Grow(len(v))
	for _, r := range v {
		switch r {
		case '{', '}', '"':
		default:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// ShortenNames reduces a BibTeX name list to family names joined with ", ".
// "Jones, A. and Smith, B." becomes "Jones, Smith"; names written
// first-name-first keep their final word.
func ShortenNames(v string) string {
	parts := strings.Split(v, " and ")
	out := make([]string, 0, len(parts))
	for _, name := range parts {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if i := strings.IndexByte(name, ','); i >= 0 {
			name = strings.TrimSpace(name[:i])
		} else if i := strings.LastIndexByte(name, ' '); i >= 0 {
			name = name[i+1:]
		}
		out = append(out, name)
	}
	return strings.Join(out, ", ")
}
