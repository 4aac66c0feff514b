package dispatch_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenwickbrowser/corebrowser/internal/action"
	"github.com/fenwickbrowser/corebrowser/internal/coretypes"
	"github.com/fenwickbrowser/corebrowser/internal/dispatch"
	"github.com/fenwickbrowser/corebrowser/internal/highlight"
	"github.com/fenwickbrowser/corebrowser/internal/htmldom"
	"github.com/fenwickbrowser/corebrowser/internal/refmap"
	"github.com/fenwickbrowser/corebrowser/internal/shaper"
	"github.com/fenwickbrowser/corebrowser/internal/snapshot"
)

const fixture = `<html><body>
  <button id="submit-btn">Submit</button>
  <input id="name" type="text">
</body></html>`

func newDispatcher(t *testing.T) *dispatch.Dispatcher {
	t.Helper()
	doc, err := htmldom.NewDocument(fixture, "file://fixture")
	require.NoError(t, err)
	win := htmldom.NewWindow(doc)
	rm := refmap.New()
	shape := shaper.New(doc, win, rm, zerolog.Nop())
	executor := action.New(doc, win, rm, shape)
	snapEng := snapshot.New()
	overlay := highlight.New(doc, win)
	return dispatch.New(doc, win, rm, executor, snapEng, overlay, zerolog.Nop())
}

func TestDispatchAssignsIDWhenEmpty(t *testing.T) {
	d := newDispatcher(t)
	resp := d.Dispatch(context.Background(), coretypes.Command{Action: coretypes.ActionSnapshot})
	assert.NotEmpty(t, resp.ID)
	assert.True(t, resp.Success)
}

func TestDispatchPreservesSuppliedID(t *testing.T) {
	d := newDispatcher(t)
	resp := d.Dispatch(context.Background(), coretypes.Command{ID: "caller-1", Action: coretypes.ActionSnapshot})
	assert.Equal(t, "caller-1", resp.ID)
}

func TestDispatchUnknownActionFails(t *testing.T) {
	d := newDispatcher(t)
	resp := d.Dispatch(context.Background(), coretypes.Command{Action: coretypes.Action("bogus")})
	assert.False(t, resp.Success)
	assert.Equal(t, coretypes.ErrInvalidParameters, resp.ErrorCode)
}

func TestDispatchSnapshotThenClick(t *testing.T) {
	d := newDispatcher(t)
	resp := d.Dispatch(context.Background(), coretypes.Command{Action: coretypes.ActionSnapshot})
	require.True(t, resp.Success)

	data, ok := resp.Data.(coretypes.SnapshotData)
	require.True(t, ok)
	require.NotEmpty(t, data.Refs)

	var ref string
	for r, entry := range data.Refs {
		if entry.Role == "button" {
			ref = r
		}
	}
	require.NotEmpty(t, ref)
	resp = d.Dispatch(context.Background(), coretypes.Command{
		Action: coretypes.ActionClick,
		Args:   map[string]any{"selector": ref},
	})
	assert.True(t, resp.Success)
}

func TestDispatchClickOnMissingElementFails(t *testing.T) {
	d := newDispatcher(t)
	resp := d.Dispatch(context.Background(), coretypes.Command{
		Action: coretypes.ActionClick,
		Args:   map[string]any{"selector": "#missing"},
	})
	assert.False(t, resp.Success)
	assert.Equal(t, coretypes.ErrElementNotFound, resp.ErrorCode)
	require.NotNil(t, resp.ErrorContext)
}

func TestHighlightBeforeSnapshotFails(t *testing.T) {
	d := newDispatcher(t)
	resp := d.Dispatch(context.Background(), coretypes.Command{Action: coretypes.ActionHighlight})
	assert.False(t, resp.Success)
}

func TestHighlightAfterSnapshotSucceeds(t *testing.T) {
	d := newDispatcher(t)
	snap := d.Dispatch(context.Background(), coretypes.Command{Action: coretypes.ActionSnapshot})
	require.True(t, snap.Success)

	resp := d.Dispatch(context.Background(), coretypes.Command{Action: coretypes.ActionHighlight})
	assert.True(t, resp.Success)

	clear := d.Dispatch(context.Background(), coretypes.Command{Action: coretypes.ActionClearHighlight})
	assert.True(t, clear.Success)
}

func TestExtractActionDefaultsToExtractMode(t *testing.T) {
	d := newDispatcher(t)
	resp := d.Dispatch(context.Background(), coretypes.Command{Action: coretypes.ActionExtract})
	require.True(t, resp.Success)
	data, ok := resp.Data.(coretypes.SnapshotData)
	require.True(t, ok)
	assert.Equal(t, coretypes.ModeExtract, data.Metadata.Mode)
}
