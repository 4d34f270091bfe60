// Package template implements the display-template language that renders
// bibliographic records into fixed-width candidate lines.
//
// A template mixes literal text with placeholders:
//
//	${author editor:36}   first non-empty field, fitted to 36 columns
//	${title:*}            fitted to the remainder ("star") width
//	${=key=}              natural width, substituted unfitted
//
// Field-name alternatives are tried left to right; the width is a literal
// column count, "*", or absent. All width arithmetic is in terminal display
// columns (East Asian wide runes count 2), so fitted segments line up
// regardless of content.
package template

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/folio-bib/folio/internal/record"
)

// WidthMode says how a placeholder's column count is determined.
type WidthMode int

const (
	// WidthNatural substitutes the value unfitted.
	WidthNatural WidthMode = iota
	// WidthFixed fits the value to the placeholder's own column count.
	WidthFixed
	// WidthStar fits the value to the remainder width supplied at render time.
	WidthStar
)

// Placeholder is one ${...} occurrence: ordered field-name alternatives plus
// a width specification.
type Placeholder struct {
	Fields []string
	Mode   WidthMode
	Width  int // column count; meaningful only when Mode is WidthFixed
}

type segment struct {
	text string // literal fragment; unused when ph is set
	ph   *Placeholder
}

// Template is a parsed display template. Parsing happens once; the fixed
// width (literal columns plus explicit placeholder widths) is cached on the
// value.
type Template struct {
	raw      string
	segments []segment
	width    int
}

// Parse compiles a template string. Malformed placeholders fail here, never
// at render time: an unterminated ${, an empty field list, and a width that
// is neither a non-negative integer nor * are all errors.
func Parse(s string) (*Template, error) {
	t := &Template{raw: s}
	rest := s
	for {
		i := strings.Index(rest, "${")
		if i < 0 {
			if rest != "" {
				t.segments = append(t.segments, segment{text: rest})
			}
			break
		}
		if i > 0 {
			t.segments = append(t.segments, segment{text: rest[:i]})
		}
		end := strings.IndexByte(rest[i:], '}')
		if end < 0 {
			return nil, fmt.Errorf("template %q: unterminated placeholder %q", s, rest[i:])
		}
		ph, err := parsePlaceholder(rest[i+2 : i+end])
		if err != nil {
			return nil, fmt.Errorf("template %q: %w", s, err)
		}
		t.segments = append(t.segments, segment{ph: ph})
		rest = rest[i+end+1:]
	}

	for _, seg := range t.segments {
		switch {
		case seg.ph == nil:
			t.width += runewidth.StringWidth(seg.text)
		case seg.ph.Mode == WidthFixed:
			t.width += seg.ph.Width
		}
	}
	return t, nil
}

// MustParse is Parse for static templates known to be well-formed.
func MustParse(s string) *Template {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

func parsePlaceholder(body string) (*Placeholder, error) {
	namePart := body
	widthPart := ""
	hasWidth := false
	if i := strings.IndexByte(body, ':'); i >= 0 {
		namePart, widthPart = body[:i], body[i+1:]
		hasWidth = true
	}

	fields := strings.Fields(namePart)
	if len(fields) == 0 {
		return nil, fmt.Errorf("placeholder ${%s}: no field names", body)
	}

	ph := &Placeholder{Fields: fields}
	switch {
	case !hasWidth:
		ph.Mode = WidthNatural
	case widthPart == "*":
		ph.Mode = WidthStar
	default:
		w, err := strconv.Atoi(widthPart)
		if err != nil || w < 0 {
			return nil, fmt.Errorf("placeholder ${%s}: width must be a non-negative integer or *", body)
		}
		ph.Mode = WidthFixed
		ph.Width = w
	}
	return ph, nil
}

// Width returns the fixed column count of the template: the display width
// of its literal text plus every explicit placeholder width. Star and
// natural placeholders contribute nothing, which matches substituting the
// empty string for every placeholder.
func (t *Template) Width() int {
	return t.width
}

// Fields returns every field name the template references, lowercased, in
// first-use order without duplicates.
func (t *Template) Fields() []string {
	seen := make(map[string]bool)
	var out []string
	for _, seg := range t.segments {
		if seg.ph == nil {
			continue
		}
		for _, f := range seg.ph.Fields {
			name := strings.ToLower(f)
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

// String returns the original template source.
func (t *Template) String() string {
	return t.raw
}

// Fit truncates or pads value to exactly width display columns: truncation
// respects multi-column runes, shorter values are right-padded with spaces.
// The second return value is the truncated remainder, empty when the value
// fits. Callers keep the remainder findable by search even though it is not
// shown.
func Fit(value string, width int) (string, string) {
	if width < 0 {
		width = 0
	}
	fitted := runewidth.Truncate(value, width, "")
	rest := value[len(fitted):]
	return runewidth.FillRight(fitted, width), rest
}

// Engine renders templates over records through an ordered transform chain.
type Engine struct {
	transforms []Transform
}

// NewEngine returns an engine with the given transform chain. Transforms
// run in the order given, each feeding the next.
func NewEngine(transforms ...Transform) *Engine {
	return &Engine{transforms: transforms}
}

// DefaultEngine returns the stock chain: CleanValue on every field, then
// ShortenNames on author and editor.
func DefaultEngine() *Engine {
	return NewEngine(
		Transform{Apply: CleanValue},
		Transform{Fields: []string{"author", "editor"}, Apply: ShortenNames},
	)
}

// SelectValue returns the first field value among alternatives that is
// non-empty in the record (case-insensitive match), passed through every
// matching transform in registration order. Records with none of the fields
// yield "".
func (e *Engine) SelectValue(rec record.Record, alternatives []string) string {
	for _, name := range alternatives {
		v := rec.Get(name)
		if v == "" {
			continue
		}
		for _, tr := range e.transforms {
			if tr.matches(name) {
				v = tr.Apply(v)
			}
		}
		return v
	}
	return ""
}

// Render substitutes a record into tpl. starWidth is the column count handed
// to ${...:*} placeholders. The overflow slice carries text truncated away
// by fitting, in placeholder order, so callers can keep full values findable
// by substring search.
func (e *Engine) Render(rec record.Record, tpl *Template, starWidth int) (string, []string) {
	var b strings.Builder
	var overflow []string
	fit := func(value string, width int) {
		fitted, rest := Fit(value, width)
		b.WriteString(fitted)
		if rest != "" {
			overflow = append(overflow, rest)
		}
	}
	for _, seg := range tpl.segments {
		if seg.ph == nil {
			b.WriteString(seg.text)
			continue
		}
		value := e.SelectValue(rec, seg.ph.Fields)
		switch seg.ph.Mode {
		case WidthNatural:
			b.WriteString(value)
		case WidthFixed:
			fit(value, seg.ph.Width)
		case WidthStar:
			fit(value, starWidth)
		}
	}
	return b.String(), overflow
}
