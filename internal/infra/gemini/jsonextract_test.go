package gemini

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestExtractJSONObject_SingleObject(t *testing.T) {
	text := `Here is the breakdown:
{"title": "Sunset", "scenes": [{"scene_number": 1}]}
Hope this helps!`

	span, ok := ExtractJSONObject(text)

	require.True(t, ok)
	assert.Equal(t, `{"title": "Sunset", "scenes": [{"scene_number": 1}]}`, span)
	assert.True(t, json.Valid([]byte(span)))
}

func TestExtractJSONObject_NoBrace(t *testing.T) {
	_, ok := ExtractJSONObject("I could not identify any scenes in these frames.")
	assert.False(t, ok)
}

func TestExtractJSONObject_TwoFragmentsTakesFirst(t *testing.T) {
	// A greedy first-to-last-brace regex would capture both fragments plus
	// the prose between them. The scanner must stop at the first balanced
	// object.
	text := `{"title": "first"} and unrelated trailing text {"title": "second"}`

	span, ok := ExtractJSONObject(text)

	require.True(t, ok)
	assert.Equal(t, `{"title": "first"}`, span)
}

func TestExtractJSONObject_BracesInsideStrings(t *testing.T) {
	text := `{"description": "a {nested} brace and a \"quoted\" word"} tail`

	span, ok := ExtractJSONObject(text)

	require.True(t, ok)
	assert.True(t, json.Valid([]byte(span)))
	assert.Equal(t, `{"description": "a {nested} brace and a \"quoted\" word"}`, span)
}

func TestExtractJSONObject_NestedObjects(t *testing.T) {
	text := `prefix {"a": {"b": {"c": 1}}, "d": [1, 2]} suffix`

	span, ok := ExtractJSONObject(text)

	require.True(t, ok)
	assert.Equal(t, `{"a": {"b": {"c": 1}}, "d": [1, 2]}`, span)
}

func TestExtractJSONObject_UnbalancedObject(t *testing.T) {
	_, ok := ExtractJSONObject(`{"title": "never closed"`)
	assert.False(t, ok)
}

func TestParseOutcome_ValidScenes(t *testing.T) {
	text := `Sure! {"title": "Demo", "style": "cinematic", "mood": "calm",
		"scenes": [
			{"scene_number": 1, "description": "opening", "visual_prompt": "wide shot", "duration": 8, "timing": "0:00-0:08"},
			{"scene_number": 2, "description": "closing", "visual_prompt": "close up", "duration": 8, "timing": "0:08-0:16"}
		]}`

	outcome := parseOutcome(text, zap.NewNop())

	require.NotNil(t, outcome.Analysis)
	assert.Equal(t, "Demo", outcome.Analysis.Title)
	assert.Len(t, outcome.Analysis.Scenes, 2)
	assert.Equal(t, "wide shot", outcome.Analysis.Scenes[0].VisualPrompt)
	assert.Equal(t, text, outcome.RawText)
}

func TestParseOutcome_NoJSONReturnsRawTextOnly(t *testing.T) {
	text := "The frames show a beach at sunset."

	outcome := parseOutcome(text, zap.NewNop())

	assert.Nil(t, outcome.Analysis)
	assert.Equal(t, text, outcome.RawText)
}

func TestParseOutcome_MalformedJSONReturnsRawTextOnly(t *testing.T) {
	text := `{"title": 123, "scenes": "not an array"}`

	outcome := parseOutcome(text, zap.NewNop())

	assert.Nil(t, outcome.Analysis)
	assert.Equal(t, text, outcome.RawText)
}
