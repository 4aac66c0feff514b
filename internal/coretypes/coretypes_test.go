package coretypes_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fenwickbrowser/corebrowser/internal/coretypes"
)

func TestActionValid(t *testing.T) {
	assert.True(t, coretypes.ActionClick.Valid())
	assert.False(t, coretypes.Action("not-a-real-action").Valid())
}

func TestOkBuildsSuccessResponse(t *testing.T) {
	resp := coretypes.Ok("1", map[string]any{"x": 1})
	assert.True(t, resp.Success)
	assert.Equal(t, "1", resp.ID)
	assert.Empty(t, resp.Error)
}

func TestFailUnwrapsCoreError(t *testing.T) {
	ce := &coretypes.CoreError{
		Code:    coretypes.ErrElementNotFound,
		Message: "no such element",
		Context: coretypes.ErrorContext{Selector: "#x"},
	}
	resp := coretypes.Fail("2", ce)
	assert.False(t, resp.Success)
	assert.Equal(t, coretypes.ErrElementNotFound, resp.ErrorCode)
	assert.NotNil(t, resp.ErrorContext)
	assert.Equal(t, "#x", resp.ErrorContext.Selector)
}

func TestFailWrapsPlainError(t *testing.T) {
	resp := coretypes.Fail("3", fmt.Errorf("boom"))
	assert.False(t, resp.Success)
	assert.Equal(t, "boom", resp.Error)
	assert.Empty(t, resp.ErrorCode)
	assert.Nil(t, resp.ErrorContext)
}

func TestFailUnwrapsWrappedCoreError(t *testing.T) {
	ce := &coretypes.CoreError{Code: coretypes.ErrTimeout, Message: "timed out"}
	wrapped := fmt.Errorf("during click: %w", ce)
	resp := coretypes.Fail("4", wrapped)
	assert.Equal(t, coretypes.ErrTimeout, resp.ErrorCode)
}
