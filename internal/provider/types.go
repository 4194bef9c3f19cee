// Package provider defines the generation-agent interfaces the pipeline
// drives, plus the Gemini and OpenAI implementations behind them.
package provider

import (
	"context"
	"errors"
	"io"

	"inkwell/internal/links"
	"inkwell/internal/session"
)

// ErrProvider wraps failures of the underlying model providers.
var ErrProvider = errors.New("provider request failed")

// TopicQuery describes the topic discovery request.
type TopicQuery struct {
	Industry    string
	Keywords    []string
	ArticleType string
	DirectQuery string
	Mode        string
}

// OutlineRequest is keyed by a durable topic id.
type OutlineRequest struct {
	TopicID     string
	TopicTitle  string
	TargetWords int
	Tone        string
}

// WriteRequest is keyed by the approved outline.
type WriteRequest struct {
	Outline session.Outline
	Tone    string
}

// EditRequest is one selection-scoped inline edit.
type EditRequest struct {
	Action    string
	Selection string
}

// TopicAgent discovers candidate topics.
type TopicAgent interface {
	DiscoverTopics(ctx context.Context, q TopicQuery) ([]session.TopicCandidate, error)
}

// OutlineAgent produces an article outline for a selected topic.
type OutlineAgent interface {
	GenerateOutline(ctx context.Context, req OutlineRequest) (session.Outline, error)
}

// WriterAgent starts the streamed article write. The returned body carries
// newline-delimited event frames (see the stream package).
type WriterAgent interface {
	StartStream(ctx context.Context, req WriteRequest) (io.ReadCloser, error)
}

// EditAgent performs one inline edit. The returned body is a raw chunked
// token stream with no framing, accumulated until EOF.
type EditAgent interface {
	Edit(ctx context.Context, req EditRequest) (io.ReadCloser, error)
}

// LinkSuggester proposes cross-references for a finished article.
type LinkSuggester interface {
	Suggest(ctx context.Context, articleText, targetID string) ([]links.Suggestion, error)
}

// Suite bundles every agent the pipeline needs.
type Suite struct {
	Topics  TopicAgent
	Outline OutlineAgent
	Writer  WriterAgent
	Editor  EditAgent
	Links   LinkSuggester
}
