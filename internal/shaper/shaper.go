// Package shaper implements the Error Shaper (C9), spec §4.9/§7: builds
// structured CoreErrors enriched with similar-selector, nearby-element,
// and available-action recovery hints.
package shaper

import (
	"strings"

	"github.com/go-stack/stack"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/rs/zerolog"

	"github.com/fenwickbrowser/corebrowser/internal/accessible"
	"github.com/fenwickbrowser/corebrowser/internal/coretypes"
	"github.com/fenwickbrowser/corebrowser/internal/dom"
	"github.com/fenwickbrowser/corebrowser/internal/refmap"
	"github.com/fenwickbrowser/corebrowser/internal/visibility"
)

const (
	maxSimilarSelectors = 3
	maxNearbyElements   = 5
)

// Shaper builds CoreErrors from a Document/RefMap/Window, spec §4.9.
type Shaper struct {
	doc    dom.Document
	win    dom.Window
	refMap *refmap.Map
	log    zerolog.Logger
}

// New constructs a Shaper.
func New(doc dom.Document, win dom.Window, refMap *refmap.Map, log zerolog.Logger) *Shaper {
	return &Shaper{doc: doc, win: win, refMap: refMap, log: log.With().Str("component", "shaper").Logger()}
}

// ElementNotFound builds an ELEMENT_NOT_FOUND error, spec §4.9/§8 scenario 5.
func (s *Shaper) ElementNotFound(selector string) *coretypes.CoreError {
	ctx := coretypes.ErrorContext{
		Selector:         selector,
		SimilarSelectors: s.similarSelectors(selector),
		NearbyElements:   s.nearbyElements(),
	}
	return s.emit(&coretypes.CoreError{
		Code:        coretypes.ErrElementNotFound,
		Context:     ctx,
		Message:     "no element matches selector " + selector,
		Suggestions: []string{"take a fresh snapshot to refresh refs", "try one of the similarSelectors or nearbyElements"},
	})
}

// ElementNotCompatible builds an ELEMENT_NOT_COMPATIBLE error, spec §4.9.
func (s *Shaper) ElementNotCompatible(selector, expectedType string, el dom.Element) *coretypes.CoreError {
	info := accessible.Resolve(el)
	ctx := coretypes.ErrorContext{
		Selector:         selector,
		ExpectedType:     expectedType,
		ActualType:       string(info.Role),
		AvailableActions: AvailableActions(el),
	}
	return s.emit(&coretypes.CoreError{
		Code:        coretypes.ErrElementNotCompatible,
		Context:     ctx,
		Message:     "element " + selector + " is not compatible with " + expectedType,
		Suggestions: []string{"use one of availableActions instead"},
	})
}

// VerificationFailed builds a VERIFICATION_FAILED error, spec §4.9.
func (s *Shaper) VerificationFailed(selector string, expected, actual any) *coretypes.CoreError {
	ctx := coretypes.ErrorContext{Selector: selector, Expected: expected, Actual: actual}
	return s.emit(&coretypes.CoreError{
		Code:    coretypes.ErrVerificationFailed,
		Context: ctx,
		Message: "post-condition not met for " + selector,
	})
}

// Timeout builds a TIMEOUT error for the `wait` action, spec §4.8/§4.9.
func (s *Shaper) Timeout(selector string, lastState coretypes.ElementState) *coretypes.CoreError {
	ctx := coretypes.ErrorContext{Selector: selector, ElementState: &lastState}
	return s.emit(&coretypes.CoreError{
		Code:    coretypes.ErrTimeout,
		Context: ctx,
		Message: "timed out waiting for " + selector,
	})
}

// InvalidParameters builds an INVALID_PARAMETERS error, spec §4.9, from a
// list of conflicting field names.
func (s *Shaper) InvalidParameters(message string, conflicting ...string) *coretypes.CoreError {
	ctx := coretypes.ErrorContext{ConflictingFields: conflicting}
	return s.emit(&coretypes.CoreError{
		Code:    coretypes.ErrInvalidParameters,
		Context: ctx,
		Message: message,
	})
}

func (s *Shaper) emit(err *coretypes.CoreError) *coretypes.CoreError {
	s.log.Debug().
		Str("code", string(err.Code)).
		Str("callsite", stack.Caller(1).String()).
		Msg("shaped error")
	return err
}

// similarSelectors fuzzy-matches the id/class token from a failing
// selector against the document's ids and class names, spec §4.9.
func (s *Shaper) similarSelectors(selector string) []string {
	token := extractToken(selector)
	if token == "" {
		return nil
	}
	tokenLower := strings.ToLower(token)

	seen := mapset.NewSet[string]()
	var out []string
	body, ok := s.doc.Body()
	if !ok {
		return nil
	}
	s.doc.Walk(body, func(el dom.Element) bool {
		if len(out) >= maxSimilarSelectors {
			return false
		}
		if id := el.ID(); id != "" {
			considerCandidate(&out, seen, tokenLower, id, "#"+id)
		}
		for _, class := range el.ClassList() {
			if len(out) >= maxSimilarSelectors {
				break
			}
			considerCandidate(&out, seen, tokenLower, class, "."+class)
		}
		return true
	})
	return out
}

func considerCandidate(out *[]string, seen mapset.Set[string], needle, candidate, rendered string) {
	if len(*out) >= maxSimilarSelectors {
		return
	}
	candidateLower := strings.ToLower(candidate)
	if !strings.Contains(candidateLower, needle) && !strings.Contains(needle, candidateLower) {
		return
	}
	if seen.Contains(rendered) {
		return
	}
	seen.Add(rendered)
	*out = append(*out, rendered)
}

// extractToken pulls the id/class-ish token out of a CSS selector for
// fuzzy matching, e.g. "#submit-btn" -> "submit-btn", ".nav .item" -> "nav".
func extractToken(selector string) string {
	selector = strings.TrimPrefix(selector, "#")
	selector = strings.TrimPrefix(selector, ".")
	fields := strings.FieldsFunc(selector, func(r rune) bool {
		switch r {
		case '#', '.', ' ', '>', '[', ']', ':', '=', '"', '\'':
			return true
		}
		return false
	})
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// nearbyElements enumerates up to 5 visible interactive elements, spec §4.9.
func (s *Shaper) nearbyElements() []coretypes.NearbyElement {
	body, ok := s.doc.Body()
	if !ok {
		return nil
	}
	var out []coretypes.NearbyElement
	s.doc.Walk(body, func(el dom.Element) bool {
		if len(out) >= maxNearbyElements {
			return false
		}
		if !isInteractiveCandidate(el) {
			return true
		}
		if !visibility.Visible(s.win, el, visibility.Options{}) {
			return true
		}
		info := accessible.Resolve(el)
		ref := s.refMap.GenerateRef(el)
		name := info.Name
		if len(name) > 60 {
			name = name[:60]
		}
		out = append(out, coretypes.NearbyElement{Ref: ref, Role: string(info.Role), Name: name})
		return true
	})
	return out
}

func isInteractiveCandidate(el dom.Element) bool {
	tag := strings.ToLower(el.TagName())
	switch tag {
	case "button", "textarea", "select":
		return true
	case "a":
		_, hasHref := el.Attr("href")
		return hasHref
	case "input":
		return true
	}
	if role, ok := el.Attr("role"); ok {
		r := strings.ToLower(role)
		if r == "button" || r == "link" {
			return true
		}
	}
	if _, ok := el.Attr("tabindex"); ok {
		return true
	}
	return false
}

// AvailableActions computes the action set an element supports, based on
// its capability classification, spec §4.9/§9.
func AvailableActions(el dom.Element) []string {
	actions := []string{"query", "inspect"}
	caps := Classify(el)
	if caps[coretypes.CapabilityClickable] {
		actions = append(actions, "click", "dblclick", "hover")
	}
	if caps[coretypes.CapabilityEditable] {
		actions = append(actions, "fill", "clear", "focus", "blur", "type")
	}
	if caps[coretypes.CapabilityCheckable] {
		actions = append(actions, "check", "uncheck")
	}
	if isSelect(el) {
		actions = append(actions, "select")
	}
	if isFocusable(el) {
		actions = append(actions, "focus", "press", "scroll")
	}
	return actions
}

// Classify implements spec §9's capability-introspection redesign: a pure
// function deciding an element's capability set instead of dynamic
// instanceof-style duck typing.
func Classify(el dom.Element) map[coretypes.Capability]bool {
	tag := strings.ToLower(el.TagName())
	caps := map[coretypes.Capability]bool{}

	switch tag {
	case "button", "a":
		caps[coretypes.CapabilityClickable] = true
		caps[coretypes.CapabilityHoverable] = true
	case "input":
		typ, _ := el.Attr("type")
		switch strings.ToLower(typ) {
		case "checkbox", "radio":
			caps[coretypes.CapabilityCheckable] = true
			caps[coretypes.CapabilityClickable] = true
		case "submit", "button", "reset", "image":
			caps[coretypes.CapabilityClickable] = true
		default:
			caps[coretypes.CapabilityEditable] = true
		}
		caps[coretypes.CapabilityHoverable] = true
	case "textarea":
		caps[coretypes.CapabilityEditable] = true
		caps[coretypes.CapabilityHoverable] = true
	case "select":
		caps[coretypes.CapabilityClickable] = true
		caps[coretypes.CapabilityHoverable] = true
	default:
		if role, ok := el.Attr("role"); ok {
			switch strings.ToLower(role) {
			case "button", "link", "menuitem", "tab":
				caps[coretypes.CapabilityClickable] = true
				caps[coretypes.CapabilityHoverable] = true
			case "checkbox", "radio":
				caps[coretypes.CapabilityCheckable] = true
				caps[coretypes.CapabilityClickable] = true
			}
		}
		if editable, ok := el.Attr("contenteditable"); ok && editable != "false" {
			caps[coretypes.CapabilityEditable] = true
		}
		caps[coretypes.CapabilityHoverable] = true
	}
	return caps
}

func isSelect(el dom.Element) bool {
	return strings.ToLower(el.TagName()) == "select"
}

func isFocusable(el dom.Element) bool {
	tag := strings.ToLower(el.TagName())
	switch tag {
	case "button", "a", "input", "textarea", "select":
		return true
	}
	_, ok := el.Attr("tabindex")
	return ok
}
