// Package action implements the Action Executor (C8), spec §4.8: one
// method per action tag, synthesizing DOM events against a dom.Window and
// verifying the expected post-condition before returning.
package action

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/fenwickbrowser/corebrowser/internal/coretypes"
	"github.com/fenwickbrowser/corebrowser/internal/dom"
	"github.com/fenwickbrowser/corebrowser/internal/refmap"
	"github.com/fenwickbrowser/corebrowser/internal/selector"
	"github.com/fenwickbrowser/corebrowser/internal/shaper"
	"github.com/fenwickbrowser/corebrowser/internal/visibility"
	"github.com/fenwickbrowser/corebrowser/internal/waiter"
)

// Executor dispatches one action tag at a time against a Document/Window,
// spec §4.8.
type Executor struct {
	doc      dom.Document
	win      dom.Window
	refMap   *refmap.Map
	resolver *selector.Resolver
	shape    *shaper.Shaper
}

// New constructs an Executor.
func New(doc dom.Document, win dom.Window, refMap *refmap.Map, shape *shaper.Shaper) *Executor {
	return &Executor{doc: doc, win: win, refMap: refMap, resolver: selector.New(doc, refMap), shape: shape}
}

// Execute routes cmd to the matching action method, spec §4.8.
func (e *Executor) Execute(ctx context.Context, cmd coretypes.Command) (map[string]any, error) {
	args := cmd.Args
	switch cmd.Action {
	case coretypes.ActionClick:
		return e.clickLike(ctx, args, 1)
	case coretypes.ActionDblClick:
		return e.clickLike(ctx, args, 2)
	case coretypes.ActionType:
		return e.typeText(ctx, args)
	case coretypes.ActionFill:
		return e.fill(ctx, args)
	case coretypes.ActionClear:
		return e.clear(ctx, args)
	case coretypes.ActionCheck:
		return e.setChecked(ctx, args, true)
	case coretypes.ActionUncheck:
		return e.setChecked(ctx, args, false)
	case coretypes.ActionSelect:
		return e.selectOption(ctx, args)
	case coretypes.ActionFocus:
		return e.focus(ctx, args)
	case coretypes.ActionBlur:
		return e.blur(ctx, args)
	case coretypes.ActionHover:
		return e.hover(ctx, args)
	case coretypes.ActionScroll:
		return e.scroll(ctx, args)
	case coretypes.ActionScrollIntoView:
		return e.scrollIntoView(ctx, args)
	case coretypes.ActionPress:
		return e.press(ctx, args)
	case coretypes.ActionKeyDown:
		return e.keyEvent(ctx, args, dom.EventKeyDown)
	case coretypes.ActionKeyUp:
		return e.keyEvent(ctx, args, dom.EventKeyUp)
	case coretypes.ActionWait:
		return e.wait(ctx, args)
	case coretypes.ActionEvaluate:
		return e.evaluate(ctx, args)
	case coretypes.ActionValidateElement:
		return e.validateElement(ctx, args)
	case coretypes.ActionValidateRefs:
		return e.validateRefs(ctx, args)
	default:
		return nil, fmt.Errorf("action %s is not handled by the executor", cmd.Action)
	}
}

// resolve resolves sel to a live element. A ref-based selector whose cached
// element has been detached is looked up a second time; both lookups read
// the same RefMap entry, so an element re-rendered under the same ref is not
// recovered and the call fails with ELEMENT_NOT_FOUND.
func (e *Executor) resolve(sel string) (dom.Element, error) {
	el, ok, err := e.resolver.ResolveOne(sel)
	if err != nil {
		return nil, err
	}
	if ok && !el.Connected() && selector.Classify(sel) == selector.KindRef {
		el, ok, err = e.resolver.ResolveOne(sel)
		if err != nil {
			return nil, err
		}
	}
	if !ok || !el.Connected() {
		return nil, e.shape.ElementNotFound(sel)
	}
	return el, nil
}

func (e *Executor) requireCapability(sel string, el dom.Element, cap coretypes.Capability, expectedType string) error {
	caps := shaper.Classify(el)
	if !caps[cap] {
		return e.shape.ElementNotCompatible(sel, expectedType, el)
	}
	return nil
}

func elementState(win dom.Window, el dom.Element) coretypes.ElementState {
	return coretypes.ElementState{
		Attached: el.Connected(),
		Visible:  el.Connected() && visibility.Visible(win, el, visibility.Options{}),
		Enabled:  !el.Disabled(),
	}
}

func (e *Executor) verify(ctx context.Context, sel string, pred waiter.Predicate) error {
	result := waiter.Until(ctx, pred, waiter.DefaultTimeout, waiter.DefaultInterval)
	if result.Success {
		return nil
	}
	return e.shape.VerificationFailed(sel, result.Expected, result.Actual)
}

// clickLike implements click/dblclick, spec §4.8: mousedown/mouseup/click
// synthesized against the target, repeated twice with a dblclick event for
// the double-click tag.
func (e *Executor) clickLike(ctx context.Context, args map[string]any, clicks int) (map[string]any, error) {
	sel, err := e.requiredString(args, "selector")
	if err != nil {
		return nil, err
	}
	el, err := e.resolve(sel)
	if err != nil {
		return nil, err
	}
	if err := e.requireCapability(sel, el, coretypes.CapabilityClickable, "clickable"); err != nil {
		return nil, err
	}
	button := buttonCode(e.optionalString(args, "button"))

	el.ScrollIntoView()
	for i := 1; i <= clicks; i++ {
		el.Dispatch(dom.Event{Type: dom.EventMouseDown, Bubbles: true, Button: button, ClickCount: i})
		el.Dispatch(dom.Event{Type: dom.EventMouseUp, Bubbles: true, Button: button, ClickCount: i})
		el.Dispatch(dom.Event{Type: dom.EventClick, Bubbles: true, Button: button, ClickCount: i})
	}
	if clicks == 2 {
		el.Dispatch(dom.Event{Type: dom.EventDblClick, Bubbles: true, Button: button, ClickCount: 2})
	}
	return map[string]any{"selector": sel, "clicked": clicks}, nil
}

func buttonCode(name string) int {
	switch strings.ToLower(name) {
	case "middle":
		return 1
	case "right":
		return 2
	default:
		return 0
	}
}

// typeText implements `type`, spec §4.8: per-character keydown/keypress/
// value-append/input/keyup, pausing delayMs between characters when given.
// A contenteditable target takes a fast path that appends the whole text to
// textContent in one edit, with no per-character fallback.
func (e *Executor) typeText(ctx context.Context, args map[string]any) (map[string]any, error) {
	sel, err := e.requiredString(args, "selector")
	if err != nil {
		return nil, err
	}
	text, err := e.requiredString(args, "text")
	if err != nil {
		return nil, err
	}
	el, err := e.resolve(sel)
	if err != nil {
		return nil, err
	}
	if err := e.requireCapability(sel, el, coretypes.CapabilityEditable, "editable"); err != nil {
		return nil, err
	}
	el.Focus()

	delay := time.Duration(e.optionalInt(args, "delayMs")) * time.Millisecond
	current := el.Value
	if editable, ok := el.Attr("contenteditable"); ok && editable != "false" {
		current = el.TextContent
		el.SetTextContent(el.TextContent() + text)
		el.Dispatch(dom.Event{Type: dom.EventInput, Bubbles: true})
	} else {
		for _, r := range text {
			key := string(r)
			el.Dispatch(dom.Event{Type: dom.EventKeyDown, Bubbles: true, Key: key})
			el.Dispatch(dom.Event{Type: dom.EventKeyPress, Bubbles: true, Key: key})
			el.SetValue(el.Value() + key)
			el.Dispatch(dom.Event{Type: dom.EventInput, Bubbles: true})
			el.Dispatch(dom.Event{Type: dom.EventKeyUp, Bubbles: true, Key: key})
			if delay > 0 {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(delay):
				}
			}
		}
	}
	el.Dispatch(dom.Event{Type: dom.EventChange, Bubbles: true})

	if err := e.verify(ctx, sel, func(context.Context) waiter.PredicateResult {
		return waiter.PredicateResult{Success: strings.Contains(current(), text), Expected: text, Actual: current()}
	}); err != nil {
		return nil, err
	}
	return map[string]any{"selector": sel, "value": el.Value()}, nil
}

// fill implements `fill`, spec §4.8: replaces the value in one step rather
// than per-character synthesis.
func (e *Executor) fill(ctx context.Context, args map[string]any) (map[string]any, error) {
	sel, err := e.requiredString(args, "selector")
	if err != nil {
		return nil, err
	}
	text, err := e.requiredString(args, "value")
	if err != nil {
		return nil, err
	}
	el, err := e.resolve(sel)
	if err != nil {
		return nil, err
	}
	if err := e.requireCapability(sel, el, coretypes.CapabilityEditable, "editable"); err != nil {
		return nil, err
	}
	el.Focus()
	current := el.Value
	if editable, ok := el.Attr("contenteditable"); ok && editable != "false" {
		current = el.TextContent
		el.SetTextContent(text)
	} else {
		el.SetValue(text)
	}
	el.Dispatch(dom.Event{Type: dom.EventInput, Bubbles: true})
	el.Dispatch(dom.Event{Type: dom.EventChange, Bubbles: true})

	if err := e.verify(ctx, sel, func(context.Context) waiter.PredicateResult {
		return waiter.PredicateResult{Success: current() == text, Expected: text, Actual: current()}
	}); err != nil {
		return nil, err
	}
	return map[string]any{"selector": sel, "value": el.Value()}, nil
}

// clear implements `clear`, spec §4.8.
func (e *Executor) clear(ctx context.Context, args map[string]any) (map[string]any, error) {
	sel, err := e.requiredString(args, "selector")
	if err != nil {
		return nil, err
	}
	el, err := e.resolve(sel)
	if err != nil {
		return nil, err
	}
	if err := e.requireCapability(sel, el, coretypes.CapabilityEditable, "editable"); err != nil {
		return nil, err
	}
	el.Focus()
	if editable, ok := el.Attr("contenteditable"); ok && editable != "false" {
		el.SetTextContent("")
	} else {
		el.SetValue("")
	}
	el.Dispatch(dom.Event{Type: dom.EventInput, Bubbles: true})
	el.Dispatch(dom.Event{Type: dom.EventChange, Bubbles: true})

	if err := e.verify(ctx, sel, func(context.Context) waiter.PredicateResult {
		return waiter.PredicateResult{Success: el.Value() == "", Expected: "", Actual: el.Value()}
	}); err != nil {
		return nil, err
	}
	return map[string]any{"selector": sel}, nil
}

// setChecked implements `check`/`uncheck`, spec §4.8.
func (e *Executor) setChecked(ctx context.Context, args map[string]any, want bool) (map[string]any, error) {
	sel, err := e.requiredString(args, "selector")
	if err != nil {
		return nil, err
	}
	el, err := e.resolve(sel)
	if err != nil {
		return nil, err
	}
	if err := e.requireCapability(sel, el, coretypes.CapabilityCheckable, "checkable"); err != nil {
		return nil, err
	}
	if el.Checked() != want {
		el.Dispatch(dom.Event{Type: dom.EventMouseDown, Bubbles: true})
		el.Dispatch(dom.Event{Type: dom.EventMouseUp, Bubbles: true})
		el.Dispatch(dom.Event{Type: dom.EventClick, Bubbles: true})
		el.SetChecked(want)
		el.Dispatch(dom.Event{Type: dom.EventChange, Bubbles: true})
	}
	if err := e.verify(ctx, sel, func(context.Context) waiter.PredicateResult {
		return waiter.PredicateResult{Success: el.Checked() == want, Expected: want, Actual: el.Checked()}
	}); err != nil {
		return nil, err
	}
	return map[string]any{"selector": sel, "checked": el.Checked()}, nil
}

// selectOption implements `select`, spec §4.8: sets the <select>'s value
// to the matching <option>, by value or by visible text.
func (e *Executor) selectOption(ctx context.Context, args map[string]any) (map[string]any, error) {
	sel, err := e.requiredString(args, "selector")
	if err != nil {
		return nil, err
	}
	value := e.optionalString(args, "value")
	label := e.optionalString(args, "label")
	if value == "" && label == "" {
		return nil, e.shape.InvalidParameters("select requires value or label", "value", "label")
	}
	el, err := e.resolve(sel)
	if err != nil {
		return nil, err
	}
	if strings.ToLower(el.TagName()) != "select" {
		return nil, e.shape.ElementNotCompatible(sel, "select", el)
	}
	var match dom.Element
	for _, opt := range el.Options() {
		if value != "" && opt.Value() == value {
			match = opt
			break
		}
		if label != "" && strings.TrimSpace(opt.TextContent()) == label {
			match = opt
			break
		}
	}
	if match == nil {
		return nil, e.shape.ElementNotFound(sel + " (no matching option)")
	}
	for _, opt := range el.Options() {
		opt.SetSelected(opt == match)
	}
	el.SetValue(match.Value())
	el.Dispatch(dom.Event{Type: dom.EventInput, Bubbles: true})
	el.Dispatch(dom.Event{Type: dom.EventChange, Bubbles: true})

	expected := match.Value()
	if err := e.verify(ctx, sel, func(context.Context) waiter.PredicateResult {
		return waiter.PredicateResult{Success: el.Value() == expected, Expected: expected, Actual: el.Value()}
	}); err != nil {
		return nil, err
	}
	return map[string]any{"selector": sel, "value": el.Value()}, nil
}

func (e *Executor) focus(ctx context.Context, args map[string]any) (map[string]any, error) {
	sel, err := e.requiredString(args, "selector")
	if err != nil {
		return nil, err
	}
	el, err := e.resolve(sel)
	if err != nil {
		return nil, err
	}
	el.Focus()
	el.Dispatch(dom.Event{Type: dom.EventFocus, Bubbles: false})

	if err := e.verify(ctx, sel, func(context.Context) waiter.PredicateResult {
		return waiter.PredicateResult{Success: el.Focused(), Expected: true, Actual: el.Focused()}
	}); err != nil {
		return nil, err
	}
	return map[string]any{"selector": sel}, nil
}

func (e *Executor) blur(ctx context.Context, args map[string]any) (map[string]any, error) {
	sel, err := e.requiredString(args, "selector")
	if err != nil {
		return nil, err
	}
	el, err := e.resolve(sel)
	if err != nil {
		return nil, err
	}
	el.Blur()
	el.Dispatch(dom.Event{Type: dom.EventBlur, Bubbles: false})

	if err := e.verify(ctx, sel, func(context.Context) waiter.PredicateResult {
		return waiter.PredicateResult{Success: !el.Focused(), Expected: false, Actual: el.Focused()}
	}); err != nil {
		return nil, err
	}
	return map[string]any{"selector": sel}, nil
}

// hover implements `hover`, spec §4.8: mouseenter/mouseover only, no
// post-condition to verify (hover leaves no observable DOM property).
func (e *Executor) hover(ctx context.Context, args map[string]any) (map[string]any, error) {
	sel, err := e.requiredString(args, "selector")
	if err != nil {
		return nil, err
	}
	el, err := e.resolve(sel)
	if err != nil {
		return nil, err
	}
	el.ScrollIntoView()
	el.Dispatch(dom.Event{Type: dom.EventMouseEnter, Bubbles: false})
	el.Dispatch(dom.Event{Type: dom.EventMouseOver, Bubbles: true})
	return map[string]any{"selector": sel}, nil
}

// scroll implements `scroll`, spec §4.8: mutually-exclusive {x,y} absolute
// mode vs {direction,amount} relative mode. Conflicts are aggregated with
// multierr when both are supplied; supplying neither is a single
// INVALID_PARAMETERS error.
func (e *Executor) scroll(ctx context.Context, args map[string]any) (map[string]any, error) {
	_, hasX := args["x"]
	_, hasY := args["y"]
	_, hasDir := args["direction"]
	absolute := hasX || hasY
	relative := hasDir

	if absolute && relative {
		var errs error
		if hasX {
			errs = multierr.Append(errs, fmt.Errorf("x conflicts with direction/amount"))
		}
		if hasY {
			errs = multierr.Append(errs, fmt.Errorf("y conflicts with direction/amount"))
		}
		errs = multierr.Append(errs, fmt.Errorf("direction/amount conflicts with x/y"))
		return nil, e.shape.InvalidParameters(errs.Error(), "x", "y", "direction", "amount")
	}
	if !absolute && !relative {
		return nil, e.shape.InvalidParameters("scroll requires either {x,y} or {direction,amount}", "x", "y", "direction", "amount")
	}

	sel := e.optionalString(args, "selector")

	if absolute {
		x := e.optionalFloat(args, "x")
		y := e.optionalFloat(args, "y")
		if sel != "" {
			el, err := e.resolve(sel)
			if err != nil {
				return nil, err
			}
			e.win.ScrollElementBy(el, x, y)
		} else {
			e.win.ScrollTo(x, y)
		}
		return map[string]any{"x": x, "y": y}, nil
	}

	direction := strings.ToLower(e.optionalString(args, "direction"))
	amount := e.optionalFloat(args, "amount")
	if amount == 0 {
		amount = 600
	}
	dx, dy := 0.0, 0.0
	switch direction {
	case "up":
		dy = -amount
	case "down":
		dy = amount
	case "left":
		dx = -amount
	case "right":
		dx = amount
	default:
		return nil, e.shape.InvalidParameters("unknown scroll direction "+direction, "direction")
	}
	if sel != "" {
		el, err := e.resolve(sel)
		if err != nil {
			return nil, err
		}
		e.win.ScrollElementBy(el, dx, dy)
	} else {
		e.win.ScrollBy(dx, dy)
	}
	return map[string]any{"direction": direction, "amount": amount}, nil
}

func (e *Executor) scrollIntoView(ctx context.Context, args map[string]any) (map[string]any, error) {
	sel, err := e.requiredString(args, "selector")
	if err != nil {
		return nil, err
	}
	el, err := e.resolve(sel)
	if err != nil {
		return nil, err
	}
	el.ScrollIntoView()
	return map[string]any{"selector": sel}, nil
}

// press implements `press`, spec §4.8: a full keydown/keypress/keyup cycle
// for a single named key against the currently focused element, or the
// selector's element when one is given.
func (e *Executor) press(ctx context.Context, args map[string]any) (map[string]any, error) {
	key, err := e.requiredString(args, "key")
	if err != nil {
		return nil, err
	}
	el, err := e.targetOrActive(args)
	if err != nil {
		return nil, err
	}
	mods := modifiersFromArgs(args)
	el.Dispatch(dom.Event{Type: dom.EventKeyDown, Bubbles: true, Key: key, Modifiers: mods})
	el.Dispatch(dom.Event{Type: dom.EventKeyPress, Bubbles: true, Key: key, Modifiers: mods})
	el.Dispatch(dom.Event{Type: dom.EventKeyUp, Bubbles: true, Key: key, Modifiers: mods})
	return map[string]any{"key": key}, nil
}

func (e *Executor) keyEvent(ctx context.Context, args map[string]any, evt dom.EventType) (map[string]any, error) {
	key, err := e.requiredString(args, "key")
	if err != nil {
		return nil, err
	}
	el, err := e.targetOrActive(args)
	if err != nil {
		return nil, err
	}
	mods := modifiersFromArgs(args)
	el.Dispatch(dom.Event{Type: evt, Bubbles: true, Key: key, Modifiers: mods})
	return map[string]any{"key": key}, nil
}

func (e *Executor) targetOrActive(args map[string]any) (dom.Element, error) {
	if sel := e.optionalString(args, "selector"); sel != "" {
		return e.resolve(sel)
	}
	if el, ok := e.doc.ActiveElement(); ok {
		return el, nil
	}
	return nil, e.shape.ElementNotFound("(active element)")
}

func modifiersFromArgs(args map[string]any) dom.Modifiers {
	return dom.Modifiers{
		Alt:   optionalBool(args, "alt"),
		Ctrl:  optionalBool(args, "ctrl"),
		Shift: optionalBool(args, "shift"),
		Meta:  optionalBool(args, "meta"),
	}
}

// wait implements the `wait` action, spec §4.7/§4.8: polls until the
// selector resolves to a connected, visible element (or, with visible=false,
// until it is absent or hidden) or the timeout elapses. A timeout reports
// the last observed element state.
func (e *Executor) wait(ctx context.Context, args map[string]any) (map[string]any, error) {
	sel, err := e.requiredString(args, "selector")
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(e.optionalInt(args, "timeoutMs")) * time.Millisecond
	wantVisible := true
	if v, ok := args["visible"]; ok {
		wantVisible = optionalBool(map[string]any{"visible": v}, "visible")
	}

	var last coretypes.ElementState
	result := waiter.Until(ctx, func(context.Context) waiter.PredicateResult {
		el, ok, _ := e.resolver.ResolveOne(sel)
		last = coretypes.ElementState{}
		if ok && el.Connected() {
			last = elementState(e.win, el)
		}
		actual := last.Attached && last.Visible
		return waiter.PredicateResult{Success: actual == wantVisible, Expected: wantVisible, Actual: actual}
	}, timeout, waiter.DefaultInterval)

	if !result.Success {
		return nil, e.shape.Timeout(sel, last)
	}
	return map[string]any{"selector": sel}, nil
}

// evaluate implements `evaluate`, spec §4.8/§9: unlike a real browser
// runtime this core has no JavaScript engine, so evaluate is restricted to
// a closed set of read-only element properties rather than arbitrary
// script execution.
func (e *Executor) evaluate(ctx context.Context, args map[string]any) (map[string]any, error) {
	sel, err := e.requiredString(args, "selector")
	if err != nil {
		return nil, err
	}
	expr, err := e.requiredString(args, "expression")
	if err != nil {
		return nil, err
	}
	el, err := e.resolve(sel)
	if err != nil {
		return nil, err
	}
	var result any
	switch expr {
	case "textContent":
		result = el.TextContent()
	case "innerText":
		result = el.InnerText()
	case "value":
		result = el.Value()
	case "checked":
		result = el.Checked()
	case "disabled":
		result = el.Disabled()
	default:
		if strings.HasPrefix(expr, "attr:") {
			name := strings.TrimPrefix(expr, "attr:")
			val, _ := el.Attr(name)
			result = val
			break
		}
		return nil, e.shape.InvalidParameters("unsupported evaluate expression "+expr, "expression")
	}
	return map[string]any{"selector": sel, "result": result}, nil
}

// validateElement implements `validateElement`, spec §4.8/§9: beyond the
// bare compatible boolean, proposes the nearest compatible action name when
// a capability mismatch occurs.
func (e *Executor) validateElement(ctx context.Context, args map[string]any) (map[string]any, error) {
	sel, err := e.requiredString(args, "selector")
	if err != nil {
		return nil, err
	}
	as := e.optionalString(args, "as")

	el, ok, err := e.resolver.ResolveOne(sel)
	if err != nil {
		return nil, err
	}
	if !ok {
		return map[string]any{"selector": sel, "found": false, "compatible": false}, nil
	}

	state := elementState(e.win, el)
	out := map[string]any{
		"selector":         sel,
		"found":            true,
		"state":            state,
		"availableActions": shaper.AvailableActions(el),
	}
	if as == "" {
		out["compatible"] = true
		return out, nil
	}
	caps := shaper.Classify(el)
	compatible := compatibleWithAction(caps, el, as)
	out["compatible"] = compatible
	if !compatible {
		out["suggestion"] = suggestAction(caps, el)
	}
	return out, nil
}

func compatibleWithAction(caps map[coretypes.Capability]bool, el dom.Element, action string) bool {
	switch action {
	case "click", "dblclick":
		return caps[coretypes.CapabilityClickable]
	case "hover":
		return caps[coretypes.CapabilityHoverable]
	case "type", "fill", "clear":
		return caps[coretypes.CapabilityEditable]
	case "check", "uncheck":
		return caps[coretypes.CapabilityCheckable]
	case "select":
		return strings.ToLower(el.TagName()) == "select"
	case "focus", "blur", "press":
		return isFocusableForValidate(el)
	default:
		return true
	}
}

func isFocusableForValidate(el dom.Element) bool {
	switch strings.ToLower(el.TagName()) {
	case "button", "a", "input", "textarea", "select":
		return true
	}
	_, ok := el.Attr("tabindex")
	return ok
}

func suggestAction(caps map[coretypes.Capability]bool, el dom.Element) string {
	if caps[coretypes.CapabilityEditable] {
		return "did you mean fill?"
	}
	if caps[coretypes.CapabilityCheckable] {
		return "did you mean check?"
	}
	if caps[coretypes.CapabilityClickable] {
		return "did you mean click?"
	}
	if strings.ToLower(el.TagName()) == "select" {
		return "did you mean select?"
	}
	return "try one of availableActions"
}

// validateRefs implements `validateRefs`, spec §4.3/§4.8: partitions a ref
// list into valid/invalid with reasons, without allocating new refs.
func (e *Executor) validateRefs(ctx context.Context, args map[string]any) (map[string]any, error) {
	refs, err := e.requiredStringSlice(args, "refs")
	if err != nil {
		return nil, err
	}
	valid, invalid := e.refMap.Validate(refs)
	invalidOut := make([]map[string]any, 0, len(invalid))
	for _, inv := range invalid {
		invalidOut = append(invalidOut, map[string]any{"ref": inv.Ref, "reason": string(inv.Reason)})
	}
	return map[string]any{"valid": valid, "invalid": invalidOut}, nil
}

// --- argument helpers, in the teacher's required/optional style ---

func (e *Executor) requiredString(args map[string]any, key string) (string, error) {
	val, ok := args[key]
	if !ok {
		return "", e.shape.InvalidParameters(fmt.Sprintf("%s is required", key), key)
	}
	s, ok := val.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", e.shape.InvalidParameters(fmt.Sprintf("%s must be a non-empty string", key), key)
	}
	return s, nil
}

func (e *Executor) requiredStringSlice(args map[string]any, key string) ([]string, error) {
	val, ok := args[key]
	if !ok {
		return nil, e.shape.InvalidParameters(fmt.Sprintf("%s is required", key), key)
	}
	switch v := val.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, e.shape.InvalidParameters(fmt.Sprintf("%s must be a string array", key), key)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, e.shape.InvalidParameters(fmt.Sprintf("%s must be a string array", key), key)
	}
}

func (e *Executor) optionalString(args map[string]any, key string) string {
	return optionalString(args, key)
}

func (e *Executor) optionalInt(args map[string]any, key string) int {
	return optionalInt(args, key)
}

func (e *Executor) optionalFloat(args map[string]any, key string) float64 {
	val, ok := args[key]
	if !ok {
		return 0
	}
	switch v := val.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func optionalString(args map[string]any, key string) string {
	val, ok := args[key]
	if !ok {
		return ""
	}
	s, _ := val.(string)
	return s
}

func optionalInt(args map[string]any, key string) int {
	val, ok := args[key]
	if !ok {
		return 0
	}
	switch v := val.(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func optionalBool(args map[string]any, key string) bool {
	val, ok := args[key]
	if !ok {
		return false
	}
	b, _ := val.(bool)
	return b
}
