// Package selector implements the Selector Resolver (C4), spec §4.4: ref /
// XPath (with top-level `|` union) / CSS resolution, with a documented
// fallback policy for absence vs error.
package selector

import (
	"strings"

	"github.com/fenwickbrowser/corebrowser/internal/dom"
	"github.com/fenwickbrowser/corebrowser/internal/refmap"
)

// Kind classifies a selector string per spec §4.4/§6 grammar.
type Kind int

const (
	KindRef Kind = iota
	KindXPath
	KindCSS
)

// Classify reports which grammar a selector string belongs to: `@ref:`
// prefix, a leading `/` for XPath, otherwise CSS.
func Classify(sel string) Kind {
	switch {
	case strings.HasPrefix(sel, refmap.Prefix):
		return KindRef
	case strings.HasPrefix(sel, "/"):
		return KindXPath
	default:
		return KindCSS
	}
}

// splitUnion splits a top-level XPath `|` union into its branches. A `|`
// nested inside `[...]` predicates is not top-level and is left intact.
func splitUnion(expr string) []string {
	var branches []string
	depth := 0
	start := 0
	for i, r := range expr {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
		case '|':
			if depth == 0 {
				branches = append(branches, expr[start:i])
				start = i + 1
			}
		}
	}
	branches = append(branches, expr[start:])
	for i := range branches {
		branches[i] = strings.TrimSpace(branches[i])
	}
	return branches
}

// Resolver resolves selectors against a Document and a RefMap.
type Resolver struct {
	doc    dom.Document
	refMap *refmap.Map
}

// New constructs a Resolver over doc and refMap.
func New(doc dom.Document, refMap *refmap.Map) *Resolver {
	return &Resolver{doc: doc, refMap: refMap}
}

// ResolveOne resolves sel to a single element. Absence is reported as
// (nil, false, nil) — it is not itself an error; callers (the Action
// Executor, the shaper) decide whether absence constitutes failure, spec
// §4.4.
func (r *Resolver) ResolveOne(sel string) (dom.Element, bool, error) {
	switch Classify(sel) {
	case KindRef:
		el, ok := r.refMap.Get(sel)
		return el, ok, nil
	case KindXPath:
		branches := splitUnion(sel)
		for _, branch := range branches {
			el, ok := r.doc.QueryXPath(branch)
			if ok {
				return el, true, nil
			}
		}
		return nil, false, nil
	default:
		el, ok := r.doc.QuerySelector(sel)
		return el, ok, nil
	}
}

// ResolveAll resolves sel to every matching element, in document order.
// XPath unions concatenate branch results in branch order.
func (r *Resolver) ResolveAll(sel string) ([]dom.Element, error) {
	switch Classify(sel) {
	case KindRef:
		el, ok := r.refMap.Get(sel)
		if !ok {
			return nil, nil
		}
		return []dom.Element{el}, nil
	case KindXPath:
		branches := splitUnion(sel)
		var all []dom.Element
		for _, branch := range branches {
			all = append(all, r.doc.QueryXPathAll(branch)...)
		}
		return all, nil
	default:
		return r.doc.QuerySelectorAll(sel), nil
	}
}
