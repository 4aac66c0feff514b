package highlight_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenwickbrowser/corebrowser/internal/coretypes"
	"github.com/fenwickbrowser/corebrowser/internal/dom"
	"github.com/fenwickbrowser/corebrowser/internal/highlight"
	"github.com/fenwickbrowser/corebrowser/internal/htmldom"
	"github.com/fenwickbrowser/corebrowser/internal/refmap"
)

const fixture = `<html><body>
  <button id="submit-btn">Submit</button>
</body></html>`

func newFixture(t *testing.T) (*htmldom.Document, *htmldom.Window, *refmap.Map) {
	t.Helper()
	doc, err := htmldom.NewDocument(fixture, "file://fixture")
	require.NoError(t, err)
	return doc, htmldom.NewWindow(doc), refmap.New()
}

func snapshotOf(t *testing.T, doc *htmldom.Document, rm *refmap.Map) coretypes.SnapshotData {
	t.Helper()
	btn, ok := doc.QuerySelector("#submit-btn")
	require.True(t, ok)
	ref := rm.GenerateRef(btn)
	return coretypes.SnapshotData{
		Refs: map[string]coretypes.RefEntry{ref: {Selector: ref, Role: "button", Name: "Submit"}},
	}
}

func TestShowPaintsOneBorderAndLabelPerRef(t *testing.T) {
	doc, win, rm := newFixture(t)
	data := snapshotOf(t, doc, rm)

	o := highlight.New(doc, win)
	o.Show(data, rm)

	body, _ := doc.Body()
	require.Len(t, body.Children(), 2, "body gains the overlay root on top of its original children")
	assert.Len(t, body.Children()[1].Children(), 2, "one border and one label for the single ref")
}

func TestClearIsIdempotentAndRemovesOverlay(t *testing.T) {
	doc, win, rm := newFixture(t)
	data := snapshotOf(t, doc, rm)

	o := highlight.New(doc, win)
	o.Show(data, rm)
	o.Clear()
	o.Clear() // must not panic or double-remove

	body, _ := doc.Body()
	assert.Len(t, body.Children(), 1, "only the original button remains after clearing")
}

func TestShowReplacesPriorOverlay(t *testing.T) {
	doc, win, rm := newFixture(t)
	data := snapshotOf(t, doc, rm)

	o := highlight.New(doc, win)
	o.Show(data, rm)
	o.Show(data, rm)

	body, _ := doc.Body()
	assert.Len(t, body.Children(), 2, "a second Show tears down the first overlay before painting a new one")
}

func TestScrollRepositionsMarkersWithoutRebuilding(t *testing.T) {
	doc, win, rm := newFixture(t)
	data := snapshotOf(t, doc, rm)
	btn, _ := doc.QuerySelector("#submit-btn")
	doc.SetRect(btn, dom.Rect{X: 0, Y: 0, Width: 10, Height: 10})

	o := highlight.New(doc, win)
	o.Show(data, rm)

	doc.SetRect(btn, dom.Rect{X: 50, Y: 60, Width: 10, Height: 10})
	win.FireScroll()
	time.Sleep(20 * time.Millisecond)

	body := mustBody(t, doc)
	require.Len(t, body.Children(), 2)
	overlayRoot := body.Children()[1]

	var border dom.Element
	for _, child := range overlayRoot.Children() {
		if style, ok := child.Attr("style"); ok && strings.Contains(style, "border:2px") {
			border = child
		}
	}
	require.NotNil(t, border)
	style, _ := border.Attr("style")
	assert.Contains(t, style, "left:50.0px")
	assert.Contains(t, style, "top:60.0px")
}

func mustBody(t *testing.T, doc *htmldom.Document) dom.Element {
	t.Helper()
	body, ok := doc.Body()
	require.True(t, ok)
	return body
}
