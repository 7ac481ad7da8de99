package extract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_FencedBlockWithProse(t *testing.T) {
	text := "Sure! Here are the values you asked for:\n```json\n{\"email\":\"a@b.com\"}\n```\nLet me know if you need anything else."

	res, err := ExtractResult(text)
	require.NoError(t, err)
	assert.Equal(t, StrategyFenced, res.Strategy)
	assert.Equal(t, map[string]any{"email": "a@b.com"}, res.Value)
}

func TestExtract_UntaggedFenceWithNestedObject(t *testing.T) {
	text := "```\n{\"profile\": {\"name\": \"Ada\"}, \"age\": 36}\n```"

	v, err := Extract(text)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"profile": map[string]any{"name": "Ada"},
		"age":     json.Number("36"),
	}, v)
}

func TestExtract_InvalidFenceAndSpanFails(t *testing.T) {
	// The fence holds broken JSON and the brace scan lands on the same span,
	// so every strategy fails.
	text := "```json\n{\"a\": }\n```"

	_, err := Extract(text)
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestExtract_BraceScanWithSurroundingProse(t *testing.T) {
	text := `The answer is {"title": "Hello", "tags": {"a": 1}} and that is all.`

	res, err := ExtractResult(text)
	require.NoError(t, err)
	assert.Equal(t, StrategyBraceScan, res.Strategy)
	assert.Equal(t, map[string]any{
		"title": "Hello",
		"tags":  map[string]any{"a": json.Number("1")},
	}, res.Value)
}

func TestExtract_BraceScanTakesFirstSpan(t *testing.T) {
	v, err := Extract(`first {"a":"1"} then {"b":"2"}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "1"}, v)
}

func TestExtract_BraceScanIgnoresLeadingCloseBrace(t *testing.T) {
	v, err := Extract(`} stray, then {"a":"1"}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "1"}, v)
}

func TestExtract_WholeTextArray(t *testing.T) {
	res, err := ExtractResult("  [1, 2]  ")
	require.NoError(t, err)
	assert.Equal(t, StrategyWholeText, res.Strategy)
	assert.Equal(t, []any{json.Number("1"), json.Number("2")}, res.Value)
}

func TestExtract_Failures(t *testing.T) {
	cases := map[string]string{
		"empty":         "",
		"plain prose":   "I could not find any information about this page.",
		"unbalanced":    `{"a": "b"`,
		"trailing junk": `"value" extra`,
		"single quotes": `{'a': 'b'}`,
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			v, err := Extract(text)
			assert.ErrorIs(t, err, ErrNoJSON)
			assert.Nil(t, v)
		})
	}
}
