package ui

import (
	"strings"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// Slab sizes taken from fzf's own defaults.
const (
	slab16Size = 100 * 1024
	slab32Size = 2048
)

// Matcher scores candidates against a needle with fzf's FuzzyMatchV2,
// reusing one allocation slab across calls. Not safe for concurrent use.
type Matcher struct {
	pattern []rune
	slab    *util.Slab
}

// NewMatcher prepares a case-insensitive matcher for needle. An empty
// needle matches everything with score zero.
func NewMatcher(needle string) *Matcher {
	return &Matcher{
		pattern: []rune(strings.ToLower(needle)),
		slab:    util.MakeSlab(slab16Size, slab32Size),
	}
}

// Match scores text against the needle. ok is false when the needle's
// characters do not all appear in order.
func (m *Matcher) Match(text string) (score int, ok bool) {
	chars := util.ToChars([]byte(text))
	result, _ := algo.FuzzyMatchV2(false, false, true, &chars, m.pattern, false, m.slab)
	if result.Start < 0 {
		return 0, false
	}
	return result.Score, true
}

// FuzzyMatch is a one-shot Match for callers without a reusable matcher.
func FuzzyMatch(needle, haystack string) (score int, ok bool) {
	return NewMatcher(needle).Match(haystack)
}
