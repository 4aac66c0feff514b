// Package htmldom is the reference dom.Document/dom.Window/dom.Element
// implementation, spec §1 ("production hosts supply their own; this
// repository ships a reference implementation for its own tests and demo
// CLI"). It parses static HTML with golang.org/x/net/html, resolves CSS
// selectors with goquery, and XPath with antchfx, over one shared node
// tree. It has no real layout engine: computed styles are read from inline
// style attributes and bounding rects from an optional test-only override
// (zero when unset), never computed from CSS cascade/box layout.
package htmldom

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/fenwickbrowser/corebrowser/internal/dom"
)

// Document wraps a parsed HTML tree, spec §1 host boundary.
type Document struct {
	root     *html.Node
	gq       *goquery.Document
	url      string
	title    string
	registry map[*html.Node]*Element
	active   *Element

	rects  map[*Element]dom.Rect
	styles map[*Element]dom.Style
	ariaH  map[*Element]bool
	scroll map[*Element][3]float64 // top, height, clientHeight

	// lastEvent/lastEventTarget record the most recent Dispatch call for
	// test assertions; the reference implementation has no listener
	// registry to deliver events to.
	lastEvent       dom.Event
	lastEventTarget *Element
}

// LastEvent is a reference-implementation-only test hook reporting the
// most recent Element.Dispatch call.
func (d *Document) LastEvent() (dom.Event, dom.Element, bool) {
	if d.lastEventTarget == nil {
		return dom.Event{}, nil, false
	}
	return d.lastEvent, d.lastEventTarget, true
}

// NewDocument parses source as HTML and builds the reference document,
// spec §1.
func NewDocument(source, url string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	gq := goquery.NewDocumentFromNode(root)
	d := &Document{
		root:     root,
		gq:       gq,
		url:      url,
		registry: make(map[*html.Node]*Element),
		rects:    make(map[*Element]dom.Rect),
		styles:   make(map[*Element]dom.Style),
		ariaH:    make(map[*Element]bool),
		scroll:   make(map[*Element][3]float64),
	}
	if titleNode := htmlquery.FindOne(root, "//title"); titleNode != nil {
		d.title = strings.TrimSpace(htmlquery.InnerText(titleNode))
	}
	return d, nil
}

// wrap returns the singleton Element for node, registering it on first
// sight so repeated lookups of the same node compare equal, a requirement
// RefMap relies on (spec's "Element equality" note).
func (d *Document) wrap(node *html.Node) *Element {
	if node == nil {
		return nil
	}
	if el, ok := d.registry[node]; ok {
		return el
	}
	el := &Element{node: node, doc: d}
	if checked, ok := attr(node, "checked"); ok {
		el.checked = checked != "false"
	}
	if _, ok := attr(node, "selected"); ok {
		el.selected = true
	}
	d.registry[node] = el
	return el
}

func (d *Document) wrapOrNil(node *html.Node, ok bool) (dom.Element, bool) {
	if !ok || node == nil {
		return nil, false
	}
	return d.wrap(node), true
}

// Title implements dom.Document.
func (d *Document) Title() string { return d.title }

// URL implements dom.Document.
func (d *Document) URL() string { return d.url }

// Body implements dom.Document.
func (d *Document) Body() (dom.Element, bool) {
	node := htmlquery.FindOne(d.root, "//body")
	return d.wrapOrNil(node, node != nil)
}

// ActiveElement implements dom.Document.
func (d *Document) ActiveElement() (dom.Element, bool) {
	if d.active == nil {
		return nil, false
	}
	return d.active, true
}

// QuerySelector implements dom.Document using goquery.
func (d *Document) QuerySelector(css string) (dom.Element, bool) {
	sel := d.gq.Find(css)
	if sel.Length() == 0 {
		return nil, false
	}
	return d.wrap(sel.Nodes[0]), true
}

// QuerySelectorAll implements dom.Document using goquery.
func (d *Document) QuerySelectorAll(css string) []dom.Element {
	sel := d.gq.Find(css)
	out := make([]dom.Element, 0, sel.Length())
	for _, n := range sel.Nodes {
		out = append(out, d.wrap(n))
	}
	return out
}

// QueryXPath implements dom.Document using antchfx/htmlquery. A single
// invalid expression is reported as absence, mirroring the CSS path, spec
// §4.4.
func (d *Document) QueryXPath(expr string) (dom.Element, bool) {
	node, err := htmlquery.Query(d.root, expr)
	if err != nil || node == nil {
		return nil, false
	}
	return d.wrap(node), true
}

// QueryXPathAll implements dom.Document using antchfx/htmlquery.
func (d *Document) QueryXPathAll(expr string) []dom.Element {
	nodes, err := htmlquery.QueryAll(d.root, expr)
	if err != nil {
		return nil
	}
	out := make([]dom.Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, d.wrap(n))
	}
	return out
}

// Walk implements dom.Document: pre-order traversal of element nodes.
func (d *Document) Walk(root dom.Element, fn func(dom.Element) bool) {
	var start *Element
	if root == nil {
		b, ok := d.Body()
		if !ok {
			return
		}
		start = b.(*Element)
	} else {
		start = root.(*Element)
	}
	var visit func(el *Element)
	visit = func(el *Element) {
		if !fn(el) {
			return
		}
		for _, c := range el.Children() {
			visit(c.(*Element))
		}
	}
	visit(start)
}

// CreateElement implements dom.Document: builds an unattached node.
func (d *Document) CreateElement(tag string) dom.Element {
	node := &html.Node{Type: html.ElementNode, Data: strings.ToLower(tag)}
	return d.wrap(node)
}

// SetRect is a reference-implementation-only test hook: since htmldom has
// no real layout engine, fixtures set bounding rects explicitly instead of
// them being computed from CSS.
func (d *Document) SetRect(el dom.Element, rect dom.Rect) {
	d.rects[el.(*Element)] = rect
}

// SetComputedStyle is a reference-implementation-only test hook mirroring
// SetRect, for display/visibility/opacity that a real CSS cascade would
// otherwise compute.
func (d *Document) SetComputedStyle(el dom.Element, style dom.Style) {
	d.styles[el.(*Element)] = style
}

// SetAriaHiddenAncestor is a reference-implementation-only test hook used
// where computing the real ancestor-chain aria-hidden walk in a fixture is
// inconvenient.
func (d *Document) SetAriaHiddenAncestor(el dom.Element, hidden bool) {
	d.ariaH[el.(*Element)] = hidden
}

// SetScrollMetrics is a reference-implementation-only test hook for the
// outline-mode scrollable-container heuristic.
func (d *Document) SetScrollMetrics(el dom.Element, scrollTop, scrollHeight, clientHeight float64) {
	d.scroll[el.(*Element)] = [3]float64{scrollTop, scrollHeight, clientHeight}
}

func attr(node *html.Node, name string) (string, bool) {
	for _, a := range node.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// Element wraps one *html.Node, spec §1.
type Element struct {
	node *html.Node
	doc  *Document

	valueOverride *string
	checked       bool
	selected      bool
	focused       bool
}

// TagName implements dom.Element.
func (e *Element) TagName() string { return e.node.Data }

// Attr implements dom.Element.
func (e *Element) Attr(name string) (string, bool) { return attr(e.node, name) }

// SetAttr implements dom.Element.
func (e *Element) SetAttr(name, value string) {
	for i, a := range e.node.Attr {
		if a.Key == name {
			e.node.Attr[i].Val = value
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttr implements dom.Element.
func (e *Element) RemoveAttr(name string) {
	out := e.node.Attr[:0]
	for _, a := range e.node.Attr {
		if a.Key != name {
			out = append(out, a)
		}
	}
	e.node.Attr = out
}

// ID implements dom.Element.
func (e *Element) ID() string {
	v, _ := e.Attr("id")
	return v
}

// ClassList implements dom.Element.
func (e *Element) ClassList() []string {
	v, _ := e.Attr("class")
	if v == "" {
		return nil
	}
	return strings.Fields(v)
}

// TextContent implements dom.Element: concatenated text of the subtree.
func (e *Element) TextContent() string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(e.node)
	return b.String()
}

// SetTextContent implements dom.Element: replaces all children with one
// text node.
func (e *Element) SetTextContent(s string) {
	for c := e.node.FirstChild; c != nil; {
		next := c.NextSibling
		e.node.RemoveChild(c)
		c = next
	}
	e.node.AppendChild(&html.Node{Type: html.TextNode, Data: s})
}

// InnerText implements dom.Element. The reference implementation has no
// layout engine to trim visually-hidden runs, so it is TextContent with
// leading and trailing whitespace trimmed.
func (e *Element) InnerText() string { return strings.TrimSpace(e.TextContent()) }

// Value implements dom.Element.
func (e *Element) Value() string {
	if e.valueOverride != nil {
		return *e.valueOverride
	}
	v, _ := e.Attr("value")
	return v
}

// SetValue implements dom.Element.
func (e *Element) SetValue(s string) { e.valueOverride = &s }

// Checked implements dom.Element.
func (e *Element) Checked() bool { return e.checked }

// SetChecked implements dom.Element.
func (e *Element) SetChecked(b bool) { e.checked = b }

// Disabled implements dom.Element.
func (e *Element) Disabled() bool {
	_, ok := e.Attr("disabled")
	return ok
}

// Selected implements dom.Element.
func (e *Element) Selected() bool { return e.selected }

// SetSelected implements dom.Element.
func (e *Element) SetSelected(b bool) { e.selected = b }

// Parent implements dom.Element.
func (e *Element) Parent() (dom.Element, bool) {
	if e.node.Parent == nil {
		return nil, false
	}
	return e.doc.wrap(e.node.Parent), true
}

// Children implements dom.Element: element-node children only.
func (e *Element) Children() []dom.Element {
	var out []dom.Element
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, e.doc.wrap(c))
		}
	}
	return out
}

// FirstChild implements dom.Element.
func (e *Element) FirstChild() (dom.Element, bool) {
	children := e.Children()
	if len(children) == 0 {
		return nil, false
	}
	return children[0], true
}

// AppendChild implements dom.Element.
func (e *Element) AppendChild(child dom.Element) {
	e.node.AppendChild(child.(*Element).node)
}

// Remove implements dom.Element.
func (e *Element) Remove() {
	if e.node.Parent != nil {
		e.node.Parent.RemoveChild(e.node)
	}
}

// Connected implements dom.Element: true when an ancestor chain reaches
// the document root.
func (e *Element) Connected() bool {
	n := e.node
	for n != nil {
		if n == e.doc.root {
			return true
		}
		n = n.Parent
	}
	return false
}

// Focus implements dom.Element.
func (e *Element) Focus() {
	if e.doc.active != nil {
		e.doc.active.focused = false
	}
	e.doc.active = e
	e.focused = true
}

// Blur implements dom.Element.
func (e *Element) Blur() {
	if e.doc.active == e {
		e.doc.active = nil
	}
	e.focused = false
}

// Focused implements dom.Element.
func (e *Element) Focused() bool { return e.focused }

// BoundingClientRect implements dom.Element. No real layout engine backs
// this; it returns whatever Document.SetRect last assigned, or a zero
// rect.
func (e *Element) BoundingClientRect() dom.Rect {
	return e.doc.rects[e]
}

// ScrollIntoView implements dom.Element as a no-op: the reference
// implementation has no viewport/scroll-position model to mutate.
func (e *Element) ScrollIntoView() {}

// ScrollMetrics implements dom.Element.
func (e *Element) ScrollMetrics() (scrollTop, scrollHeight, clientHeight float64) {
	m := e.doc.scroll[e]
	return m[0], m[1], m[2]
}

// Options implements dom.Element: <option> children, in document order.
func (e *Element) Options() []dom.Element {
	var out []dom.Element
	for _, c := range e.Children() {
		if c.TagName() == "option" {
			out = append(out, c)
		}
	}
	return out
}

// Dispatch implements dom.Element. The reference implementation has no
// listener registry (the core synthesizes events but never itself listens
// for them); Dispatch is a recorded no-op used by tests to assert which
// events an action fired.
func (e *Element) Dispatch(evt dom.Event) {
	e.doc.lastEvent = evt
	e.doc.lastEventTarget = e
}

// Window is the reference dom.Window implementation, spec §1.
type Window struct {
	doc       *Document
	scrollX   float64
	scrollY   float64
	listeners map[int]func()
	nextID    int
	timers    map[int]*time.Timer
}

// NewWindow constructs a Window bound to doc.
func NewWindow(doc *Document) *Window {
	return &Window{doc: doc, listeners: make(map[int]func()), timers: make(map[int]*time.Timer)}
}

// ComputedStyle implements dom.Window: reads Document.SetComputedStyle
// overrides, falling back to parsing the element's inline "style"
// attribute, since this reference implementation has no CSS cascade.
func (w *Window) ComputedStyle(el dom.Element) dom.Style {
	e := el.(*Element)
	if style, ok := w.doc.styles[e]; ok {
		return style
	}
	return parseInlineStyle(e)
}

func parseInlineStyle(e *Element) dom.Style {
	style := dom.Style{Opacity: 1}
	raw, _ := e.Attr("style")
	for _, decl := range strings.Split(raw, ";") {
		parts := strings.SplitN(decl, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		switch key {
		case "display":
			style.Display = val
		case "visibility":
			style.Visibility = val
		case "opacity":
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				style.Opacity = f
			}
		}
	}
	return style
}

// AncestorAriaHidden implements dom.Window.
func (w *Window) AncestorAriaHidden(el dom.Element) bool {
	e := el.(*Element)
	if hidden, ok := w.doc.ariaH[e]; ok {
		return hidden
	}
	node := e.node
	for node != nil {
		if v, ok := attr(node, "aria-hidden"); ok && v == "true" {
			return true
		}
		node = node.Parent
	}
	return false
}

// ScrollBy implements dom.Window.
func (w *Window) ScrollBy(x, y float64) { w.scrollX += x; w.scrollY += y }

// ScrollTo implements dom.Window.
func (w *Window) ScrollTo(x, y float64) { w.scrollX = x; w.scrollY = y }

// ScrollElementBy implements dom.Window by adjusting the element's
// recorded scroll-top metric.
func (w *Window) ScrollElementBy(el dom.Element, _, y float64) {
	e := el.(*Element)
	m := w.doc.scroll[e]
	m[0] += y
	w.doc.scroll[e] = m
}

// RequestAnimationFrame implements dom.Window with a zero-delay timer, per
// spec §5's note that production hosts may supply a real rAF-backed one.
func (w *Window) RequestAnimationFrame(fn func()) int {
	w.nextID++
	id := w.nextID
	w.timers[id] = time.AfterFunc(0, fn)
	return id
}

// CancelAnimationFrame implements dom.Window.
func (w *Window) CancelAnimationFrame(handle int) {
	if t, ok := w.timers[handle]; ok {
		t.Stop()
		delete(w.timers, handle)
	}
}

// AddScrollListener implements dom.Window.
func (w *Window) AddScrollListener(fn func()) (remove func()) {
	w.nextID++
	id := w.nextID
	w.listeners[id] = fn
	return func() { delete(w.listeners, id) }
}

// FireScroll is a reference-implementation-only test hook invoking every
// installed scroll listener, since there is no real scroll event source.
func (w *Window) FireScroll() {
	for _, fn := range w.listeners {
		fn()
	}
}
