// Package grep implements the Grep Filter (C6), spec §4.6: regex or
// fixed-string, optionally case-insensitive and/or inverted, with a silent
// fallback to substring containment when the pattern fails to compile.
package grep

import (
	"regexp"
	"strings"
)

// SearchableItem is one candidate row for the grep pass: a rendered line
// plus the enriched search data (role, name, attributes, text snippet)
// that a match can hit even when the rendered line itself doesn't show it,
// spec §4.5 ("a match on an attribute retains the full contextual line").
type SearchableItem struct {
	Line       string
	SearchText string
}

// Pattern mirrors spec §3's grep option shape.
type Pattern struct {
	Pattern      string
	IgnoreCase   bool
	Invert       bool
	FixedStrings bool
}

// Result is the Grep Filter's output, spec §4.6.
type Result struct {
	Items      []SearchableItem
	MatchCount int
	TotalCount int
	Pattern    string
	Degraded   bool // true when regex compilation failed and fixed-string fallback was used
}

// Apply filters items against p, spec §4.6/§8.
func Apply(items []SearchableItem, p Pattern) Result {
	total := len(items)
	if strings.TrimSpace(p.Pattern) == "" {
		return Result{Items: items, MatchCount: total, TotalCount: total, Pattern: p.Pattern}
	}

	matchFn, degraded := compile(p)

	out := make([]SearchableItem, 0, len(items))
	for _, item := range items {
		matched := matchFn(item.SearchText)
		if p.Invert {
			matched = !matched
		}
		if matched {
			out = append(out, item)
		}
	}

	return Result{
		Items:      out,
		MatchCount: len(out),
		TotalCount: total,
		Pattern:    p.Pattern,
		Degraded:   degraded,
	}
}

// compile builds a matcher for p. A regex compile failure degrades
// silently to case-sensitive fixed-string containment, spec §4.6/§8.
func compile(p Pattern) (func(string) bool, bool) {
	pattern := p.Pattern
	if p.FixedStrings {
		pattern = regexp.QuoteMeta(pattern)
	}
	if p.IgnoreCase {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err == nil {
		return re.MatchString, false
	}
	// Degrade to substring containment of the raw pattern.
	needle := p.Pattern
	return func(s string) bool {
		return strings.Contains(s, needle)
	}, true
}
