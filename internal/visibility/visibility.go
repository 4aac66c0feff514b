// Package visibility implements the Visibility & Layout Probe (C2), spec
// §4.2, including the interactive/outline opacity-treatment unification
// decided in spec §9's open question.
package visibility

import (
	"github.com/fenwickbrowser/corebrowser/internal/dom"
)

// Options configures the visibility check, spec §3 ("mode-configurable").
type Options struct {
	IncludeHidden    bool
	RequireNonZeroRect bool
}

// Visible computes element visibility per spec §3: display != none,
// visibility != hidden, opacity > 0, no aria-hidden ancestor. Off-screen
// elements remain visible unless opts requires a non-zero bounding rect.
func Visible(win dom.Window, el dom.Element, opts Options) bool {
	style := win.ComputedStyle(el)
	if style.Display == "none" {
		return false
	}
	if style.Visibility == "hidden" {
		return false
	}
	if style.Opacity == 0 {
		return false
	}
	if win.AncestorAriaHidden(el) {
		return false
	}
	if opts.RequireNonZeroRect && !opts.IncludeHidden {
		rect := el.BoundingClientRect()
		if rect.Width == 0 && rect.Height == 0 {
			return false
		}
	}
	return true
}

// LaidOutAbsent reports whether el has a zero-area bounding rect — such
// elements are still reported in snapshot text, spec §4.2.
func LaidOutAbsent(el dom.Element) bool {
	rect := el.BoundingClientRect()
	return rect.Width == 0 && rect.Height == 0
}

// BoundingBox returns the element's client rect verbatim, spec §4.2.
func BoundingBox(el dom.Element) dom.Rect {
	return el.BoundingClientRect()
}
