// Package dom declares the minimal Document/Window/Element surface the
// core consumes, per spec §1: "the core consumes only a Document, a
// Window-like environment for computed styles and event construction, and
// a RefMap." Production hosts (a content script, a headless-DOM bridge)
// implement these interfaces directly; internal/htmldom is the reference
// implementation used by this repository's own tests and demo CLI.
package dom

// Rect is a client bounding box, spec §4.2.
type Rect struct {
	X, Y, Width, Height float64
}

// Style is the subset of computed style the Visibility & Layout Probe
// needs, spec §3.
type Style struct {
	Display    string
	Visibility string
	Opacity    float64
}

// EventType is the closed set of synthetic events the Action Executor
// dispatches, spec §4.8.
type EventType string

const (
	EventMouseDown  EventType = "mousedown"
	EventMouseUp    EventType = "mouseup"
	EventClick      EventType = "click"
	EventDblClick   EventType = "dblclick"
	EventMouseEnter EventType = "mouseenter"
	EventMouseOver  EventType = "mouseover"
	EventFocus      EventType = "focus"
	EventBlur       EventType = "blur"
	EventKeyDown    EventType = "keydown"
	EventKeyPress   EventType = "keypress"
	EventKeyUp      EventType = "keyup"
	EventInput      EventType = "input"
	EventChange     EventType = "change"
)

// Event is a synthetic DOM event to dispatch at an Element.
type Event struct {
	Type      EventType
	Bubbles   bool
	Button    int // 0=left, 1=middle, 2=right
	ClickCount int
	Key       string
	Modifiers Modifiers
}

// Modifiers are the keyboard/mouse modifier flags carried on an Event.
type Modifiers struct {
	Alt, Ctrl, Shift, Meta bool
}

// Element is a live node in the document. Equality of two Elements
// obtained at different times for the same underlying node must hold
// (Go's == works on the concrete handle), since RefMap relies on it as a
// map key.
type Element interface {
	TagName() string
	Attr(name string) (string, bool)
	SetAttr(name, value string)
	RemoveAttr(name string)
	ID() string
	ClassList() []string

	TextContent() string
	SetTextContent(s string)
	InnerText() string

	Value() string
	SetValue(s string)

	Checked() bool
	SetChecked(b bool)
	Disabled() bool
	Selected() bool
	SetSelected(b bool)

	Parent() (Element, bool)
	Children() []Element
	FirstChild() (Element, bool)
	AppendChild(child Element)
	// Remove detaches this element from its parent, a no-op if already
	// detached or root. Used by the Highlight Overlay to tear down its
	// border/label nodes, spec §4.11.
	Remove()

	Connected() bool // still attached to the document
	Focus()
	Blur()
	Focused() bool

	BoundingClientRect() Rect
	ScrollIntoView()

	// ScrollMetrics reports scrollTop/scrollHeight/clientHeight, used by the
	// outline-mode scrollable-container heuristic. Non-scrollable elements
	// report scrollHeight == clientHeight.
	ScrollMetrics() (scrollTop, scrollHeight, clientHeight float64)

	// Options returns the <option> children when the element is a
	// <select>, in document order.
	Options() []Element

	Dispatch(Event)
}

// Document is the live page document passed into the core.
type Document interface {
	Title() string
	URL() string
	Body() (Element, bool)
	ActiveElement() (Element, bool)

	// CreateElement makes a new, unattached element of the given tag name.
	// Used by the Highlight Overlay to build its border/label nodes, spec
	// §4.11.
	CreateElement(tag string) Element

	// QuerySelector/QuerySelectorAll resolve a CSS selector, scoped to the
	// whole document.
	QuerySelector(css string) (Element, bool)
	QuerySelectorAll(css string) []Element

	// QueryXPath evaluates a single XPath expression (no top-level union
	// splitting — that's the Selector Resolver's job).
	QueryXPath(expr string) (Element, bool)
	QueryXPathAll(expr string) []Element

	// Walk visits every element in the subtree rooted at root (or the
	// document's body when root is nil) in document order.
	Walk(root Element, fn func(Element) (descend bool))
}

// Window is the environment used for computed style and event
// construction, spec §1/§3.
type Window interface {
	ComputedStyle(el Element) Style
	// AncestorAriaHidden reports whether el has an ancestor (or itself)
	// carrying aria-hidden="true", spec §3 visibility rule.
	AncestorAriaHidden(el Element) bool

	ScrollBy(x, y float64)
	ScrollTo(x, y float64)
	ScrollElementBy(el Element, x, y float64)

	// RequestAnimationFrame schedules fn to run at the next frame
	// boundary and returns a handle CancelAnimationFrame accepts.
	RequestAnimationFrame(fn func()) int
	CancelAnimationFrame(handle int)

	// AddScrollListener installs a passive scroll listener and returns a
	// remove function.
	AddScrollListener(fn func()) (remove func())
}
