package urls

import (
	"fmt"
	"strings"
)

// Policy selects which identifier types an operation may use: all of them,
// none, or an explicit subset. The zero value is PolicyNone.
type Policy struct {
	all   bool
	types map[string]bool
}

// PolicyAll admits every type.
func PolicyAll() Policy {
	return Policy{all: true}
}

// PolicyNone admits no type.
func PolicyNone() Policy {
	return Policy{}
}

// PolicyOnly admits exactly the given type tags.
func PolicyOnly(types ...string) Policy {
	p := Policy{types: make(map[string]bool, len(types))}
	for _, t := range types {
		p.types[strings.TrimSpace(t)] = true
	}
	return p
}

// Allows reports whether the policy admits a type tag.
func (p Policy) Allows(typeTag string) bool {
	if p.all {
		return true
	}
	return p.types[typeTag]
}

// ParsePolicy reads the configuration form: "all", "none", or a
// comma-separated list of type tags.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return PolicyAll(), nil
	case "none":
		return PolicyNone(), nil
	}
	var types []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return Policy{}, fmt.Errorf("url policy %q: empty type tag", s)
		}
		types = append(types, part)
	}
	return PolicyOnly(types...), nil
}
