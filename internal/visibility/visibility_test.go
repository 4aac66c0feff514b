package visibility_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenwickbrowser/corebrowser/internal/dom"
	"github.com/fenwickbrowser/corebrowser/internal/htmldom"
	"github.com/fenwickbrowser/corebrowser/internal/visibility"
)

const fixture = `<html><body>
  <div id="plain">visible</div>
  <div id="none" style="display:none">hidden by display</div>
  <div id="invisible" style="visibility:hidden">hidden by visibility</div>
  <div id="transparent" style="opacity:0">hidden by opacity</div>
  <div id="wrapper"><div id="inside">inside hidden ancestor</div></div>
</body></html>`

func newDocWin(t *testing.T) (*htmldom.Document, *htmldom.Window) {
	t.Helper()
	doc, err := htmldom.NewDocument(fixture, "file://fixture")
	require.NoError(t, err)
	return doc, htmldom.NewWindow(doc)
}

func TestVisibleDisplayNone(t *testing.T) {
	doc, win := newDocWin(t)
	el, _ := doc.QuerySelector("#none")
	assert.False(t, visibility.Visible(win, el, visibility.Options{}))
}

func TestVisibleVisibilityHidden(t *testing.T) {
	doc, win := newDocWin(t)
	el, _ := doc.QuerySelector("#invisible")
	assert.False(t, visibility.Visible(win, el, visibility.Options{}))
}

func TestVisibleOpacityZero(t *testing.T) {
	doc, win := newDocWin(t)
	el, _ := doc.QuerySelector("#transparent")
	assert.False(t, visibility.Visible(win, el, visibility.Options{}), "opacity:0 excluded uniformly per spec's resolved open question")
}

func TestVisiblePlainElement(t *testing.T) {
	doc, win := newDocWin(t)
	el, _ := doc.QuerySelector("#plain")
	assert.True(t, visibility.Visible(win, el, visibility.Options{}))
}

func TestVisibleAriaHiddenAncestor(t *testing.T) {
	doc, win := newDocWin(t)
	wrapper, _ := doc.QuerySelector("#wrapper")
	inside, _ := doc.QuerySelector("#inside")
	assert.True(t, visibility.Visible(win, inside, visibility.Options{}))

	wrapper.SetAttr("aria-hidden", "true")
	assert.False(t, visibility.Visible(win, inside, visibility.Options{}))
}

func TestVisibleRequireNonZeroRect(t *testing.T) {
	doc, win := newDocWin(t)
	el, _ := doc.QuerySelector("#plain")

	assert.False(t, visibility.Visible(win, el, visibility.Options{RequireNonZeroRect: true}), "zero rect excluded when required and not including hidden")

	doc.SetRect(el, dom.Rect{Width: 10, Height: 10})
	assert.True(t, visibility.Visible(win, el, visibility.Options{RequireNonZeroRect: true}))
}

func TestLaidOutAbsent(t *testing.T) {
	doc, _ := newDocWin(t)
	el, _ := doc.QuerySelector("#plain")
	assert.True(t, visibility.LaidOutAbsent(el))

	doc.SetRect(el, dom.Rect{Width: 5, Height: 5})
	assert.False(t, visibility.LaidOutAbsent(el))
}
