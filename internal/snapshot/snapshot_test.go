package snapshot_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenwickbrowser/corebrowser/internal/coretypes"
	"github.com/fenwickbrowser/corebrowser/internal/htmldom"
	"github.com/fenwickbrowser/corebrowser/internal/refmap"
	"github.com/fenwickbrowser/corebrowser/internal/snapshot"
)

const fixture = `<html><body>
  <header><h1>Welcome</h1></header>
  <nav>
    <a id="home" href="/">Home</a>
    <a id="about" href="/about">About</a>
  </nav>
  <main>
    <button id="submit-btn">Submit</button>
    <input id="name" type="text" placeholder="Your name">
    <img id="logo" src="/logo.png" alt="Logo">
    <p>Some paragraph text here.</p>
    <div id="hidden-block" style="display:none"><button id="hidden-btn">Hidden</button></div>
  </main>
</body></html>`

func newFixture(t *testing.T) (*htmldom.Document, *htmldom.Window, *refmap.Map, *snapshot.Engine) {
	t.Helper()
	doc, err := htmldom.NewDocument(fixture, "file://fixture")
	require.NoError(t, err)
	win := htmldom.NewWindow(doc)
	return doc, win, refmap.New(), snapshot.New()
}

func TestInteractiveModeListsFocusableElementsWithRefs(t *testing.T) {
	doc, win, rm, eng := newFixture(t)
	data, err := eng.Create(doc, win, rm, coretypes.SnapshotOptions{Mode: coretypes.ModeInteractive})
	require.NoError(t, err)

	assert.Contains(t, data.Tree, "Submit")
	assert.NotEmpty(t, data.Refs)
	for ref := range data.Refs {
		assert.Contains(t, ref, refmap.Prefix)
	}
}

func TestInteractiveModeExcludesHiddenElementsByDefault(t *testing.T) {
	doc, win, rm, eng := newFixture(t)
	data, err := eng.Create(doc, win, rm, coretypes.SnapshotOptions{Mode: coretypes.ModeInteractive})
	require.NoError(t, err)
	assert.NotContains(t, data.Tree, "Hidden")
}

func TestInteractiveModeIncludesHiddenWhenRequested(t *testing.T) {
	doc, win, rm, eng := newFixture(t)
	data, err := eng.Create(doc, win, rm, coretypes.SnapshotOptions{Mode: coretypes.ModeInteractive, IncludeHidden: true})
	require.NoError(t, err)
	assert.Contains(t, data.Tree, "Hidden")
}

func TestOutlineModeCountsLandmarksAndHeadings(t *testing.T) {
	doc, win, rm, eng := newFixture(t)
	data, err := eng.Create(doc, win, rm, coretypes.SnapshotOptions{Mode: coretypes.ModeOutline})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, data.Metadata.Headings, 1)
	assert.GreaterOrEqual(t, data.Metadata.Landmarks, 1)
}

func TestOutlineModeCountsArticlesAndRegionsAsSections(t *testing.T) {
	doc, err := htmldom.NewDocument(`<html><body><h1>A</h1><main><article>B body text</article></main></body></html>`, "file://fixture")
	require.NoError(t, err)
	win := htmldom.NewWindow(doc)
	rm := refmap.New()
	data, err := snapshot.New().Create(doc, win, rm, coretypes.SnapshotOptions{Mode: coretypes.ModeOutline})
	require.NoError(t, err)
	assert.Equal(t, 1, data.Metadata.Sections)
	assert.Contains(t, data.Tree, "ARTICLE")
}

func TestOutlineModeDoesNotAllocateRefsForHeadingsOrLists(t *testing.T) {
	doc, err := htmldom.NewDocument(`<html><body><h1>A</h1><ul><li>one</li><li>two</li></ul></body></html>`, "file://fixture")
	require.NoError(t, err)
	win := htmldom.NewWindow(doc)
	rm := refmap.New()
	data, err := snapshot.New().Create(doc, win, rm, coretypes.SnapshotOptions{Mode: coretypes.ModeOutline})
	require.NoError(t, err)
	for _, entry := range data.Refs {
		assert.NotEqual(t, "heading", entry.Role)
		assert.NotEqual(t, "list", entry.Role)
	}
	assert.Contains(t, data.Tree, "LIST (2 items)")
}

func TestOutlineLinesCarryASemanticXPath(t *testing.T) {
	doc, win, rm, eng := newFixture(t)
	data, err := eng.Create(doc, win, rm, coretypes.SnapshotOptions{Mode: coretypes.ModeOutline})
	require.NoError(t, err)
	assert.Contains(t, data.Tree, "/main")
}

func TestTreeBeginsWithPageAndModeHeader(t *testing.T) {
	doc, win, rm, eng := newFixture(t)
	data, err := eng.Create(doc, win, rm, coretypes.SnapshotOptions{Mode: coretypes.ModeInteractive})
	require.NoError(t, err)

	lines := strings.SplitN(data.Tree, "\n", 4)
	require.GreaterOrEqual(t, len(lines), 4)
	assert.True(t, strings.HasPrefix(lines[0], `PAGE: "`))
	assert.True(t, strings.HasPrefix(lines[1], "MODE: interactive"))
	assert.Contains(t, lines[1], "captured=")
	assert.Contains(t, lines[1], "words=")
	assert.Empty(t, lines[2])
}

func TestEmptyDocumentSnapshotReturnsOnlyHeaderLines(t *testing.T) {
	doc, err := htmldom.NewDocument(`<html><body></body></html>`, "file://fixture")
	require.NoError(t, err)
	win := htmldom.NewWindow(doc)
	rm := refmap.New()
	data, err := snapshot.New().Create(doc, win, rm, coretypes.SnapshotOptions{Mode: coretypes.ModeInteractive})
	require.NoError(t, err)

	// PAGE line, MODE line, the blank line, and the empty string after the
	// blank line's trailing newline.
	lines := strings.Split(data.Tree, "\n")
	require.Len(t, lines, 4)
	assert.Empty(t, lines[2])
	assert.Empty(t, lines[3])
}

func TestGrepHeaderReportsPatternAndMatchCount(t *testing.T) {
	doc, win, rm, eng := newFixture(t)
	data, err := eng.Create(doc, win, rm, coretypes.SnapshotOptions{
		Mode: coretypes.ModeInteractive,
		Grep: &coretypes.GrepOptions{Pattern: "Submit"},
	})
	require.NoError(t, err)
	assert.Contains(t, data.Tree, "grep=Submit matches=1")
}

func TestContentModeIncludesLinksAndImagesWhenRequested(t *testing.T) {
	doc, win, rm, eng := newFixture(t)
	data, err := eng.Create(doc, win, rm, coretypes.SnapshotOptions{
		Mode: coretypes.ModeContent, IncludeLinks: true, IncludeImages: true,
	})
	require.NoError(t, err)
	assert.Contains(t, data.Tree, "[Home](/)")
	assert.Contains(t, data.Tree, "Logo")
}

func TestContentModeOmitsLinksWhenNotRequested(t *testing.T) {
	doc, win, rm, eng := newFixture(t)
	data, err := eng.Create(doc, win, rm, coretypes.SnapshotOptions{Mode: coretypes.ModeContent})
	require.NoError(t, err)
	assert.NotContains(t, data.Tree, "[Home]")
}

func TestExtractMarkdownFormat(t *testing.T) {
	doc, win, rm, eng := newFixture(t)
	data, err := eng.Create(doc, win, rm, coretypes.SnapshotOptions{Mode: coretypes.ModeExtract, Format: coretypes.FormatMarkdown})
	require.NoError(t, err)
	assert.Contains(t, data.Tree, "# Welcome")
}

func TestExtractHTMLFormatAllocatesRefs(t *testing.T) {
	doc, win, rm, eng := newFixture(t)
	data, err := eng.Create(doc, win, rm, coretypes.SnapshotOptions{Mode: coretypes.ModeExtract, Format: coretypes.FormatHTML})
	require.NoError(t, err)
	assert.NotEmpty(t, data.Refs)
}

func TestGrepFiltersTreeLines(t *testing.T) {
	doc, win, rm, eng := newFixture(t)
	data, err := eng.Create(doc, win, rm, coretypes.SnapshotOptions{
		Mode: coretypes.ModeInteractive,
		Grep: &coretypes.GrepOptions{Pattern: "Submit"},
	})
	require.NoError(t, err)
	assert.Contains(t, data.Tree, "Submit")
	assert.Equal(t, "Submit", data.Metadata.GrepPattern)
	assert.Equal(t, 1, data.Metadata.GrepMatches)
}

func TestRootScopesTheWalkToASubtree(t *testing.T) {
	doc, win, rm, eng := newFixture(t)
	data, err := eng.Create(doc, win, rm, coretypes.SnapshotOptions{Mode: coretypes.ModeInteractive, Root: "nav"})
	require.NoError(t, err)
	assert.Contains(t, data.Tree, "Home")
	assert.NotContains(t, data.Tree, "Submit")
}

func TestRootSelectorNotFoundIsAnError(t *testing.T) {
	doc, win, rm, eng := newFixture(t)
	_, err := eng.Create(doc, win, rm, coretypes.SnapshotOptions{Mode: coretypes.ModeInteractive, Root: "#does-not-exist"})
	assert.Error(t, err)
}

func TestMaxLengthTruncatesTreeAndSetsFlag(t *testing.T) {
	doc, win, rm, eng := newFixture(t)
	data, err := eng.Create(doc, win, rm, coretypes.SnapshotOptions{Mode: coretypes.ModeContent, MaxLength: 5})
	require.NoError(t, err)
	assert.True(t, data.Metadata.Truncated)
	assert.LessOrEqual(t, len(data.Tree), 5)
}

func TestEachCreateCallStartsAFreshRefEpoch(t *testing.T) {
	doc, win, rm, eng := newFixture(t)
	first, err := eng.Create(doc, win, rm, coretypes.SnapshotOptions{Mode: coretypes.ModeInteractive})
	require.NoError(t, err)
	second, err := eng.Create(doc, win, rm, coretypes.SnapshotOptions{Mode: coretypes.ModeInteractive})
	require.NoError(t, err)

	firstKeys := make([]string, 0, len(first.Refs))
	for ref := range first.Refs {
		firstKeys = append(firstKeys, ref)
	}
	secondKeys := make([]string, 0, len(second.Refs))
	for ref := range second.Refs {
		secondKeys = append(secondKeys, ref)
	}
	assert.ElementsMatch(t, firstKeys, secondKeys, "ref numbering restarts each epoch so identical snapshots allocate identical ref sets")
}
