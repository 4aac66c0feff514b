// Package refmap implements the RefMap (C3): a bidirectional, monotonic
// element<->opaque-handle mapping with clearing semantics, spec §3/§4.3.
package refmap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fenwickbrowser/corebrowser/internal/dom"
)

// Prefix is the opaque ref grammar's leading token, spec §6.
const Prefix = "@ref:"

// Map is the RefMap, owned exclusively by the core per spec §5 ("the
// RefMap is owned by the core and must not be written by external code").
type Map struct {
	next      int
	refToElem map[string]dom.Element
	elemToRef map[dom.Element]string
}

// New constructs an empty RefMap at epoch 0.
func New() *Map {
	m := &Map{}
	m.reset()
	return m
}

func (m *Map) reset() {
	m.refToElem = make(map[string]dom.Element)
	m.elemToRef = make(map[dom.Element]string)
}

// Clear discards all refs, ending the current epoch. Every snapshot
// operation begins by calling Clear, spec §4.5.
func (m *Map) Clear() {
	m.next = 0
	m.reset()
}

// Get resolves a ref to its live element, or false if the ref is unknown
// within the current epoch.
func (m *Map) Get(ref string) (dom.Element, bool) {
	el, ok := m.refToElem[ref]
	return el, ok
}

// GenerateRef returns the existing ref for el if one was already issued
// this epoch (idempotent per element), otherwise allocates and returns the
// next integer ref. Refs are never reused within an epoch.
func (m *Map) GenerateRef(el dom.Element) string {
	if ref, ok := m.elemToRef[el]; ok {
		return ref
	}
	ref := fmt.Sprintf("%s%d", Prefix, m.next)
	m.next++
	m.refToElem[ref] = el
	m.elemToRef[el] = ref
	return ref
}

// Has reports whether el already has a ref issued this epoch, without
// allocating one.
func (m *Map) Has(el dom.Element) (string, bool) {
	ref, ok := m.elemToRef[el]
	return ref, ok
}

// ParseRef reports whether s matches the ref grammar (`@ref:` followed by
// one or more decimal digits), spec §6.
func ParseRef(s string) (int, bool) {
	if !strings.HasPrefix(s, Prefix) {
		return 0, false
	}
	digits := s[len(Prefix):]
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// ValidationReason is attached to each invalid ref in validateRefs output.
type ValidationReason string

const (
	ReasonNotFound ValidationReason = "Ref not found"
	ReasonRemoved  ValidationReason = "Element has been removed from the DOM"
)

// Invalid pairs a ref with why it failed validation.
type Invalid struct {
	Ref    string
	Reason ValidationReason
}

// Validate partitions refs into disjoint valid/invalid sets, spec §4.8
// validateRefs / §8 invariant.
func (m *Map) Validate(refs []string) (valid []string, invalid []Invalid) {
	for _, ref := range refs {
		el, ok := m.Get(ref)
		if !ok {
			invalid = append(invalid, Invalid{Ref: ref, Reason: ReasonNotFound})
			continue
		}
		if !el.Connected() {
			invalid = append(invalid, Invalid{Ref: ref, Reason: ReasonRemoved})
			continue
		}
		valid = append(valid, ref)
	}
	return valid, invalid
}
