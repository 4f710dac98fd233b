package schedule

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractArray_Clean(t *testing.T) {
	raw, err := ExtractArray(`  [{"a":1},{"a":[2,3]}]  `)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"a":1},{"a":[2,3]}]`, string(raw))
}

func TestExtractArray_WithNoise(t *testing.T) {
	raw, err := ExtractArray("Here is the result:\n```json\n[{\"a\":1}]\n```\nThanks!")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"a":1}]`, string(raw))
}

func TestExtractArray_MultiLineCandidate(t *testing.T) {
	text := "Sure.\n[\n  {\"classNumber\": \"1\",\n   \"courseSection\": \"MATH 51-2\"}\n]\nDone."
	raw, err := ExtractArray(text)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"classNumber":"1","courseSection":"MATH 51-2"}]`, string(raw))
}

func TestExtractArray_FirstParseableCandidateWins(t *testing.T) {
	text := `See [note 1] and then [{"a":1}] or maybe [{"b":2}]`
	raw, err := ExtractArray(text)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"a":1}]`, string(raw))
}

func TestExtractArray_ObjectIsNotArray(t *testing.T) {
	_, err := ExtractArray(`{"a":1}`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExtraction))
}

func TestExtractArray_Failure(t *testing.T) {
	text := strings.Repeat("no json here ", 50)

	_, err := ExtractArray(text)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExtraction))

	var ee *ExtractionError
	require.True(t, errors.As(err, &ee))
	assert.LessOrEqual(t, utf8.RuneCountInString(ee.Snippet), 200)
	assert.True(t, strings.HasPrefix(text, ee.Snippet))
}

func TestExtractArray_ShortFailureKeepsWholeText(t *testing.T) {
	_, err := ExtractArray("[broken")
	var ee *ExtractionError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "[broken", ee.Snippet)
}

func TestExtractArray_Deterministic(t *testing.T) {
	text := "x [1] y [2]"
	a, err := ExtractArray(text)
	require.NoError(t, err)
	b, err := ExtractArray(text)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, "[1]", string(a))
}

func TestTruncate_RuneSafe(t *testing.T) {
	assert.Equal(t, "héll", truncate("héllo", 4))
	assert.Equal(t, "hi", truncate("hi", 4))
}
