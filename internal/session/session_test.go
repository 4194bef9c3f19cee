package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanAdvance_ForwardOnly(t *testing.T) {
	assert.True(t, CanAdvance(StageConfig, StageTopics))
	assert.True(t, CanAdvance(StageOutline, StageContent))
	assert.False(t, CanAdvance(StageConfig, StageOutline))
	assert.False(t, CanAdvance(StageTopics, StageConfig))
	assert.False(t, CanAdvance(StageDone, StageConfig))
}

func TestTo_RejectsSkippedStage(t *testing.T) {
	s := New(Config{})
	_, err := s.To(StageContent)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StageConfig, s.Stage)
}

func TestGoBack_DiscardsAbandonedState(t *testing.T) {
	s := New(Config{Keywords: []string{"ai safety"}})
	s.Stage = StageOutline
	s.TopicCandidates = []TopicCandidate{{ID: "t1", Title: "Topic"}}
	s.SelectedTopic = &s.TopicCandidates[0]
	s.Outline = &Outline{Title: "Draft"}

	back, err := s.GoBack(StageTopics)
	require.NoError(t, err)
	assert.Equal(t, StageTopics, back.Stage)
	assert.Nil(t, back.Outline, "outline belongs to the abandoned stage")
	assert.NotNil(t, back.SelectedTopic, "topic selection survives going back to topics")
}

func TestGoBack_ToConfigDropsEverything(t *testing.T) {
	s := New(Config{})
	s.Stage = StageLinking
	s.TopicCandidates = []TopicCandidate{{ID: "t1"}}
	s.Outline = &Outline{}
	s.Content = StreamedContent{Hook: "h"}
	s.FinalArticle = &FinalArticle{ID: "a1"}

	back, err := s.GoBack(StageConfig)
	require.NoError(t, err)
	assert.Nil(t, back.TopicCandidates)
	assert.Nil(t, back.Outline)
	assert.Nil(t, back.FinalArticle)
	assert.Empty(t, back.Content.Hook)
}

func TestGoBack_ForwardRejected(t *testing.T) {
	s := New(Config{})
	_, err := s.GoBack(StageTopics)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTopicCandidateDurable(t *testing.T) {
	assert.False(t, TopicCandidate{ID: "tmp-123"}.Durable())
	assert.False(t, TopicCandidate{}.Durable())
	assert.True(t, TopicCandidate{ID: "6a1f0b7e"}.Durable())
}

func TestStreamedContentMarkdown_UsesOutlineHeadings(t *testing.T) {
	sc := StreamedContent{
		Hook:       "A strong opening.",
		Sections:   []string{"First body.", "Second body."},
		Conclusion: "Wrapping up.",
	}
	outline := &Outline{
		Title: "The Article",
		Sections: []OutlineSection{
			{Title: "One"},
			{Title: "Two"},
		},
	}

	md := sc.Markdown(outline)
	assert.Contains(t, md, "# The Article")
	assert.Contains(t, md, "## One\n\nFirst body.")
	assert.Contains(t, md, "## Two\n\nSecond body.")
	assert.Contains(t, md, "Wrapping up.")
}

func TestConfigHasSelectionCriteria(t *testing.T) {
	assert.True(t, Config{Keywords: []string{"x"}}.HasSelectionCriteria())
	assert.True(t, Config{Industry: "fintech"}.HasSelectionCriteria())
	assert.True(t, Config{TopicQuery: "direct topic"}.HasSelectionCriteria())
	assert.False(t, Config{}.HasSelectionCriteria())
}
