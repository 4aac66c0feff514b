package refmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenwickbrowser/corebrowser/internal/htmldom"
	"github.com/fenwickbrowser/corebrowser/internal/refmap"
)

const fixture = `<html><body>
  <button id="a">A</button>
  <button id="b">B</button>
</body></html>`

func newDoc(t *testing.T) *htmldom.Document {
	t.Helper()
	doc, err := htmldom.NewDocument(fixture, "file://fixture")
	require.NoError(t, err)
	return doc
}

func TestGenerateRefIsIdempotentPerEpoch(t *testing.T) {
	doc := newDoc(t)
	m := refmap.New()
	a, _ := doc.QuerySelector("#a")

	ref1 := m.GenerateRef(a)
	ref2 := m.GenerateRef(a)
	assert.Equal(t, ref1, ref2, "the same element must get the same ref within an epoch")
}

func TestGenerateRefMonotonic(t *testing.T) {
	doc := newDoc(t)
	m := refmap.New()
	a, _ := doc.QuerySelector("#a")
	b, _ := doc.QuerySelector("#b")

	refA := m.GenerateRef(a)
	refB := m.GenerateRef(b)
	nA, okA := refmap.ParseRef(refA)
	nB, okB := refmap.ParseRef(refB)
	require.True(t, okA)
	require.True(t, okB)
	assert.Less(t, nA, nB)
}

func TestClearInvalidatesPriorEpoch(t *testing.T) {
	doc := newDoc(t)
	m := refmap.New()
	a, _ := doc.QuerySelector("#a")

	ref := m.GenerateRef(a)
	_, ok := m.Get(ref)
	require.True(t, ok)

	m.Clear()
	_, ok = m.Get(ref)
	assert.False(t, ok, "refs from a cleared epoch must not resolve")

	newRef := m.GenerateRef(a)
	assert.Equal(t, refmap.Prefix+"0", newRef, "ref numbering restarts after Clear")
}

func TestParseRef(t *testing.T) {
	cases := []struct {
		in    string
		wantN int
		wantOK bool
	}{
		{"@ref:0", 0, true},
		{"@ref:42", 42, true},
		{"@ref:", 0, false},
		{"@ref:-1", 0, false},
		{"ref:1", 0, false},
		{"@ref:x", 0, false},
	}
	for _, tc := range cases {
		n, ok := refmap.ParseRef(tc.in)
		assert.Equal(t, tc.wantOK, ok, tc.in)
		if tc.wantOK {
			assert.Equal(t, tc.wantN, n, tc.in)
		}
	}
}

func TestValidatePartitionsNotFoundAndRemoved(t *testing.T) {
	doc := newDoc(t)
	m := refmap.New()
	a, _ := doc.QuerySelector("#a")
	b, _ := doc.QuerySelector("#b")

	refA := m.GenerateRef(a)
	refB := m.GenerateRef(b)

	b.Remove()

	valid, invalid := m.Validate([]string{refA, refB, "@ref:999"})
	assert.Equal(t, []string{refA}, valid)
	require.Len(t, invalid, 2)

	byRef := map[string]refmap.ValidationReason{}
	for _, iv := range invalid {
		byRef[iv.Ref] = iv.Reason
	}
	assert.Equal(t, refmap.ReasonRemoved, byRef[refB])
	assert.Equal(t, refmap.ReasonNotFound, byRef["@ref:999"])
}

func TestHasWithoutAllocating(t *testing.T) {
	doc := newDoc(t)
	m := refmap.New()
	a, _ := doc.QuerySelector("#a")

	_, ok := m.Has(a)
	assert.False(t, ok)

	ref := m.GenerateRef(a)
	got, ok := m.Has(a)
	require.True(t, ok)
	assert.Equal(t, ref, got)
}
