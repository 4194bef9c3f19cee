package provider

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"inkwell/internal/session"
	"inkwell/internal/stream"
)

// wordStreamer emits one scripted response per call, token by token.
type wordStreamer struct {
	responses []string
	calls     int
	failAt    int // 1-based call index to fail on; 0 disables
}

func (w *wordStreamer) stream(ctx context.Context, prompt string, emit func(string) error) error {
	w.calls++
	if w.failAt > 0 && w.calls == w.failAt {
		return errors.New("model unavailable")
	}
	resp := w.responses[(w.calls-1)%len(w.responses)]
	for _, word := range strings.SplitAfter(resp, " ") {
		if err := emit(word); err != nil {
			return err
		}
	}
	return nil
}

func testOutline() session.Outline {
	return session.Outline{
		ID:    "outline-1",
		Title: "Streaming Articles",
		Sections: []session.OutlineSection{
			{Title: "One"},
			{Title: "Two"},
		},
	}
}

func TestStartArticleStream_ConsumableFrames(t *testing.T) {
	ws := &wordStreamer{responses: []string{"some generated text"}}
	outline := testOutline()

	body, err := startArticleStream(context.Background(), WriteRequest{Outline: outline}, &PromptBuilder{}, ws.stream)
	require.NoError(t, err)

	var createdID string
	c := stream.NewConsumer(zap.NewNop())
	art, content, err := c.Consume(context.Background(), body, &outline, stream.Callbacks{
		OnArticleCreated: func(id string) { createdID = id },
	})
	require.NoError(t, err)

	assert.NotEmpty(t, createdID)
	assert.Equal(t, createdID, art.ID)
	assert.Equal(t, "some generated text", content.Hook)
	require.Len(t, content.Sections, 2)
	assert.Equal(t, "some generated text", content.Sections[0])
	assert.Equal(t, "some generated text", content.Conclusion)
	assert.Equal(t, 4, ws.calls, "hook, two sections, conclusion")
}

func TestStartArticleStream_FailureSurfacesAsErrorFrame(t *testing.T) {
	ws := &wordStreamer{responses: []string{"text"}, failAt: 2}
	outline := testOutline()

	body, err := startArticleStream(context.Background(), WriteRequest{Outline: outline}, &PromptBuilder{}, ws.stream)
	require.NoError(t, err)

	c := stream.NewConsumer(zap.NewNop())
	_, _, err = c.Consume(context.Background(), body, &outline, stream.Callbacks{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model unavailable")
}

func TestStartArticleStream_EmptyOutlineRejected(t *testing.T) {
	_, err := startArticleStream(context.Background(), WriteRequest{}, &PromptBuilder{}, (&wordStreamer{responses: []string{"x"}}).stream)
	require.ErrorIs(t, err, ErrProvider)
}

func TestRawTokenBody_AccumulatesPlainText(t *testing.T) {
	ws := &wordStreamer{responses: []string{"a rewritten sentence"}}
	body := rawTokenBody(context.Background(), "prompt", ws.stream)

	raw, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "a rewritten sentence", string(raw))
}

func TestRawTokenBody_ErrorPropagates(t *testing.T) {
	ws := &wordStreamer{responses: []string{"x"}, failAt: 1}
	body := rawTokenBody(context.Background(), "prompt", ws.stream)

	_, err := io.ReadAll(body)
	require.ErrorIs(t, err, ErrProvider)
}
