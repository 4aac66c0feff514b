package grep_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenwickbrowser/corebrowser/internal/grep"
)

func items(texts ...string) []grep.SearchableItem {
	out := make([]grep.SearchableItem, len(texts))
	for i, s := range texts {
		out[i] = grep.SearchableItem{Line: s, SearchText: s}
	}
	return out
}

func TestApplyEmptyPatternReturnsAll(t *testing.T) {
	res := grep.Apply(items("a", "b"), grep.Pattern{})
	assert.Equal(t, 2, res.MatchCount)
	assert.Equal(t, 2, res.TotalCount)
}

func TestApplyRegexMatch(t *testing.T) {
	res := grep.Apply(items("submit button", "cancel link", "reset"), grep.Pattern{Pattern: "^sub"})
	require.Len(t, res.Items, 1)
	assert.Equal(t, "submit button", res.Items[0].Line)
	assert.Equal(t, 3, res.TotalCount)
	assert.False(t, res.Degraded)
}

func TestApplyIgnoreCase(t *testing.T) {
	res := grep.Apply(items("Submit", "cancel"), grep.Pattern{Pattern: "submit", IgnoreCase: true})
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Submit", res.Items[0].Line)
}

func TestApplyInvert(t *testing.T) {
	res := grep.Apply(items("submit", "cancel", "reset"), grep.Pattern{Pattern: "submit", Invert: true})
	require.Len(t, res.Items, 2)
	assert.Equal(t, "cancel", res.Items[0].Line)
	assert.Equal(t, "reset", res.Items[1].Line)
}

func TestApplyFixedStrings(t *testing.T) {
	res := grep.Apply(items("a.b", "axb"), grep.Pattern{Pattern: "a.b", FixedStrings: true})
	require.Len(t, res.Items, 1)
	assert.Equal(t, "a.b", res.Items[0].Line)
}

func TestApplyInvalidRegexDegradesToSubstring(t *testing.T) {
	res := grep.Apply(items("a(b", "c"), grep.Pattern{Pattern: "a(b"})
	require.True(t, res.Degraded)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "a(b", res.Items[0].Line)
}

func TestApplyDuplicateSearchTextBothSurvive(t *testing.T) {
	dup := []grep.SearchableItem{
		{Line: "line A", SearchText: "same"},
		{Line: "line B", SearchText: "same"},
	}
	res := grep.Apply(dup, grep.Pattern{Pattern: "same"})
	assert.Len(t, res.Items, 2, "identical search text across distinct elements must not be deduplicated")
}
