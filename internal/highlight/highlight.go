// Package highlight implements the Highlight Overlay (C11), spec §4.11: an
// idle/active state machine that paints border+label nodes over the last
// snapshot's refs and keeps them aligned on scroll via a read-phase/
// write-phase update split.
package highlight

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/fenwickbrowser/corebrowser/internal/coretypes"
	"github.com/fenwickbrowser/corebrowser/internal/dom"
	"github.com/fenwickbrowser/corebrowser/internal/refmap"
)

type state int

const (
	stateIdle state = iota
	stateActive
)

// marker pairs a highlighted target element with the border/label nodes
// drawn for it, so a reposition pass can re-read the target's rect and
// write new transforms without rebuilding the DOM.
type marker struct {
	target dom.Element
	border dom.Element
	label  dom.Element
}

// Overlay owns the highlight DOM subtree and its lifecycle, spec §4.11.
type Overlay struct {
	doc   dom.Document
	win   dom.Window
	state state

	root         dom.Element
	markers      []marker
	removeScroll func()
	rafHandle    int
}

// New constructs an idle Overlay.
func New(doc dom.Document, win dom.Window) *Overlay {
	return &Overlay{doc: doc, win: win}
}

// Show paints one border+label per ref in data, replacing any prior epoch's
// overlay, spec §4.11 ("idle -> active").
func (o *Overlay) Show(data coretypes.SnapshotData, refMap *refmap.Map) {
	o.Clear()

	body, ok := o.doc.Body()
	if !ok {
		return
	}
	root := o.doc.CreateElement("div")
	root.SetAttr("id", "corebrowser-highlight-"+uuid.NewString())
	root.SetAttr("style", "position:absolute;top:0;left:0;width:0;height:0;pointer-events:none;z-index:2147483647;")
	body.AppendChild(root)
	o.root = root
	o.state = stateActive

	for ref, entry := range data.Refs {
		el, ok := refMap.Get(ref)
		if !ok || !el.Connected() {
			continue
		}
		o.markers = append(o.markers, o.paint(ref, entry, el))
	}

	o.removeScroll = o.win.AddScrollListener(func() { o.scheduleReposition() })
}

// paint creates one border+label pair positioned at el's current rect.
func (o *Overlay) paint(ref string, entry coretypes.RefEntry, el dom.Element) marker {
	rect := el.BoundingClientRect()

	border := o.doc.CreateElement("div")
	border.SetAttr("style", borderStyle(rect))
	o.root.AppendChild(border)

	label := o.doc.CreateElement("div")
	label.SetTextContent(ref + " " + entry.Role)
	label.SetAttr("style", labelStyle(rect))
	o.root.AppendChild(label)

	return marker{target: el, border: border, label: label}
}

func borderStyle(rect dom.Rect) string {
	return fmt.Sprintf(
		"position:absolute;left:%.1fpx;top:%.1fpx;width:%.1fpx;height:%.1fpx;border:2px solid #ff3366;box-sizing:border-box;",
		rect.X, rect.Y, rect.Width, rect.Height,
	)
}

func labelStyle(rect dom.Rect) string {
	return fmt.Sprintf(
		"position:absolute;left:%.1fpx;top:%.1fpx;background:#ff3366;color:#fff;font:10px monospace;padding:1px 3px;",
		rect.X, rect.Y-14,
	)
}

// scheduleReposition implements the read-phase/write-phase split: all
// target rects are read inside the rAF callback before any style is
// written, avoiding layout thrashing across markers, spec §4.11/§5.
func (o *Overlay) scheduleReposition() {
	if o.state != stateActive {
		return
	}
	o.rafHandle = o.win.RequestAnimationFrame(func() {
		rects := make([]dom.Rect, len(o.markers))
		for i, m := range o.markers {
			rects[i] = m.target.BoundingClientRect()
		}
		for i, m := range o.markers {
			m.border.SetAttr("style", borderStyle(rects[i]))
			m.label.SetAttr("style", labelStyle(rects[i]))
		}
	})
}

// Clear tears down the overlay, spec §4.11 ("active -> idle"). Idempotent.
func (o *Overlay) Clear() {
	if o.state != stateActive {
		return
	}
	if o.removeScroll != nil {
		o.removeScroll()
		o.removeScroll = nil
	}
	if o.rafHandle != 0 {
		o.win.CancelAnimationFrame(o.rafHandle)
		o.rafHandle = 0
	}
	for _, m := range o.markers {
		m.border.Remove()
		m.label.Remove()
	}
	o.markers = nil
	if o.root != nil {
		o.root.Remove()
		o.root = nil
	}
	o.state = stateIdle
}
