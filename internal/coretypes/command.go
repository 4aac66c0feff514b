// Package coretypes defines the wire-level data model shared by every
// component of the core: commands, responses, error context, and the
// closed action/capability enums. No package outside coretypes owns these
// shapes, so that the dispatcher, executor, and shaper always agree on
// what a Command or Response looks like.
package coretypes

import "fmt"

// Action is the closed tag of a Command, per spec §6.
type Action string

const (
	ActionClick            Action = "click"
	ActionDblClick         Action = "dblclick"
	ActionType             Action = "type"
	ActionFill             Action = "fill"
	ActionClear            Action = "clear"
	ActionCheck            Action = "check"
	ActionUncheck          Action = "uncheck"
	ActionSelect           Action = "select"
	ActionFocus            Action = "focus"
	ActionBlur             Action = "blur"
	ActionHover            Action = "hover"
	ActionScroll           Action = "scroll"
	ActionScrollIntoView   Action = "scrollIntoView"
	ActionPress            Action = "press"
	ActionKeyDown          Action = "keyDown"
	ActionKeyUp            Action = "keyUp"
	ActionSnapshot         Action = "snapshot"
	ActionExtract          Action = "extract"
	ActionQuerySelector    Action = "querySelector"
	ActionQuerySelectorAll Action = "querySelectorAll"
	ActionGetText          Action = "getText"
	ActionGetAttribute     Action = "getAttribute"
	ActionGetProperty      Action = "getProperty"
	ActionGetBoundingBox   Action = "getBoundingBox"
	ActionIsVisible        Action = "isVisible"
	ActionIsEnabled        Action = "isEnabled"
	ActionIsChecked        Action = "isChecked"
	ActionWait             Action = "wait"
	ActionEvaluate         Action = "evaluate"
	ActionValidateElement  Action = "validateElement"
	ActionValidateRefs     Action = "validateRefs"
	ActionHighlight        Action = "highlight"
	ActionClearHighlight   Action = "clearHighlight"
)

var validActions = map[Action]bool{
	ActionClick: true, ActionDblClick: true, ActionType: true, ActionFill: true,
	ActionClear: true, ActionCheck: true, ActionUncheck: true, ActionSelect: true,
	ActionFocus: true, ActionBlur: true, ActionHover: true, ActionScroll: true,
	ActionScrollIntoView: true, ActionPress: true, ActionKeyDown: true, ActionKeyUp: true,
	ActionSnapshot: true, ActionExtract: true, ActionQuerySelector: true,
	ActionQuerySelectorAll: true, ActionGetText: true, ActionGetAttribute: true,
	ActionGetProperty: true, ActionGetBoundingBox: true, ActionIsVisible: true,
	ActionIsEnabled: true, ActionIsChecked: true, ActionWait: true, ActionEvaluate: true,
	ActionValidateElement: true, ActionValidateRefs: true, ActionHighlight: true,
	ActionClearHighlight: true,
}

// Valid reports whether a is a member of the closed command-tag set.
func (a Action) Valid() bool { return validActions[a] }

// Command is a tagged request understood by the dispatcher. Args is the
// decoded action-specific arguments; identity is auto-assigned when ID is
// empty.
type Command struct {
	ID     string
	Action Action
	Args   map[string]any
}

// Capability is an abstract permission an element supports, used by the
// executor's compatibility check and the shaper's available-actions hint.
// See spec §9's classify(element) redesign note.
type Capability string

const (
	CapabilityClickable Capability = "clickable"
	CapabilityEditable  Capability = "editable"
	CapabilityCheckable Capability = "checkable"
	CapabilityHoverable Capability = "hoverable"
)

// ErrorCode is the closed set of structured error codes, spec §7.
type ErrorCode string

const (
	ErrElementNotFound     ErrorCode = "ELEMENT_NOT_FOUND"
	ErrElementNotCompatible ErrorCode = "ELEMENT_NOT_COMPATIBLE"
	ErrVerificationFailed  ErrorCode = "VERIFICATION_FAILED"
	ErrTimeout             ErrorCode = "TIMEOUT"
	ErrInvalidParameters   ErrorCode = "INVALID_PARAMETERS"
)

// ElementState reports the three attachment/visibility/enablement flags
// used throughout ErrorContext and validateElement/validateRefs.
type ElementState struct {
	Attached bool `json:"attached"`
	Visible  bool `json:"visible"`
	Enabled  bool `json:"enabled"`
}

// NearbyElement is one entry of ErrorContext.NearbyElements.
type NearbyElement struct {
	Ref  string `json:"ref"`
	Role string `json:"role"`
	Name string `json:"name"`
}

// ErrorContext carries optional structured recovery data, spec §3.
type ErrorContext struct {
	Selector         string          `json:"selector,omitempty"`
	ExpectedType     string          `json:"expectedType,omitempty"`
	ActualType       string          `json:"actualType,omitempty"`
	ElementState     *ElementState   `json:"elementState,omitempty"`
	AvailableActions []string        `json:"availableActions,omitempty"`
	SimilarSelectors []string        `json:"similarSelectors,omitempty"`
	NearbyElements   []NearbyElement `json:"nearbyElements,omitempty"`
	Expected         any             `json:"expected,omitempty"`
	Actual           any             `json:"actual,omitempty"`
	ConflictingFields []string       `json:"conflictingFields,omitempty"`
}

// CoreError is the only error type produced by internal/shaper, and the
// only one the dispatcher special-cases when building a failure Response.
type CoreError struct {
	Code        ErrorCode
	Context     ErrorContext
	Message     string
	Suggestions []string
}

func (e *CoreError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s", e.Code)
}

// Response is the dispatcher's output envelope, spec §6.
type Response struct {
	ID          string        `json:"id"`
	Success     bool          `json:"success"`
	Data        any           `json:"data,omitempty"`
	Error       string        `json:"error,omitempty"`
	ErrorCode   ErrorCode     `json:"errorCode,omitempty"`
	ErrorContext *ErrorContext `json:"errorContext,omitempty"`
	Suggestions []string      `json:"suggestions,omitempty"`
}

// Ok builds a successful Response.
func Ok(id string, data any) Response {
	return Response{ID: id, Success: true, Data: data}
}

// Fail builds a failure Response from any error, unwrapping a *CoreError
// into its structured fields and otherwise wrapping the plain message.
func Fail(id string, err error) Response {
	var ce *CoreError
	if asCoreError(err, &ce) {
		return Response{
			ID:           id,
			Success:      false,
			Error:        ce.Error(),
			ErrorCode:    ce.Code,
			ErrorContext: &ce.Context,
			Suggestions:  ce.Suggestions,
		}
	}
	return Response{ID: id, Success: false, Error: err.Error()}
}

func asCoreError(err error, target **CoreError) bool {
	for err != nil {
		if ce, ok := err.(*CoreError); ok {
			*target = ce
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
