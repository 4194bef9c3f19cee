package provider

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTopics_FencedJSONAndTempIDs(t *testing.T) {
	raw := "```json\n[{\"title\": \"AI Safety in Practice\", \"relevance\": 0.9}, {\"title\": \"Alignment Basics\", \"relevance\": 1.7}]\n```"

	topics, err := parseTopics(raw)
	require.NoError(t, err)
	require.Len(t, topics, 2)

	assert.True(t, strings.HasPrefix(topics[0].ID, "tmp-"))
	assert.False(t, topics[0].Durable())
	assert.Equal(t, "AI Safety in Practice", topics[0].Title)
	assert.Equal(t, 0.9, topics[0].Relevance)
	assert.Equal(t, 1.0, topics[1].Relevance, "relevance clamps to [0,1]")
}

func TestParseTopics_RejectsEmpty(t *testing.T) {
	_, err := parseTopics(`[]`)
	assert.Error(t, err)

	_, err = parseTopics(`[{"title": "  ", "relevance": 0.5}]`)
	assert.Error(t, err)

	_, err = parseTopics("not json at all")
	assert.Error(t, err)
}

func TestParseOutline(t *testing.T) {
	raw := `{
		"title": "The Article",
		"hook_summary": "Why this matters now.",
		"sections": [
			{"title": "Background", "key_points": ["history", "context"], "word_target": 300},
			{"title": "Analysis", "key_points": ["data"], "word_target": 500}
		]
	}`

	o, err := parseOutline(raw)
	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, "The Article", o.Title)
	assert.Equal(t, "Why this matters now.", o.HookSummary)
	require.Len(t, o.Sections, 2)
	assert.Equal(t, []string{"history", "context"}, o.Sections[0].KeyPoints)
	assert.Equal(t, 500, o.Sections[1].WordTarget)
}

func TestParseOutline_MissingSections(t *testing.T) {
	_, err := parseOutline(`{"title": "Empty", "sections": []}`)
	assert.Error(t, err)
}

func TestParseSuggestions_SkipsIncomplete(t *testing.T) {
	raw := `[
		{"anchor": "vector search", "target_ref": "/articles/vs", "target_title": "Vector Search", "relevance": 0.8, "rationale": "related topic"},
		{"anchor": "", "target_ref": "/articles/x"},
		{"anchor": "orphan", "target_ref": ""}
	]`

	sugs, err := parseSuggestions(raw)
	require.NoError(t, err)
	require.Len(t, sugs, 1)
	assert.Equal(t, "vector search", sugs[0].Anchor)
	assert.NotEmpty(t, sugs[0].ID)
}

func TestCleanJSONOutput(t *testing.T) {
	assert.Equal(t, `{"a":1}`, cleanJSONOutput("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanJSONOutput("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanJSONOutput(` {"a":1} `))
}
