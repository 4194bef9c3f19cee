package provider

import (
	"context"
	"fmt"
	"io"

	"google.golang.org/genai"

	"inkwell/internal/links"
	"inkwell/internal/session"
)

// Gemini implements the full agent suite using Gemini text generation.
type Gemini struct {
	client      *genai.Client
	model       string
	writerModel string
	prompts     *PromptBuilder
}

func NewGemini(ctx context.Context, apiKey, model, writerModel string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	if writerModel == "" {
		writerModel = model
	}
	return &Gemini{
		client:      client,
		model:       model,
		writerModel: writerModel,
		prompts:     &PromptBuilder{},
	}, nil
}

func (g *Gemini) generate(ctx context.Context, prompt string) (string, error) {
	contents := genai.Text(prompt)
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProvider, err)
	}
	return resp.Text(), nil
}

func (g *Gemini) streamText(ctx context.Context, prompt string, emit func(string) error) error {
	contents := genai.Text(prompt)
	for resp, err := range g.client.Models.GenerateContentStream(ctx, g.writerModel, contents, nil) {
		if err != nil {
			return err
		}
		if t := resp.Text(); t != "" {
			if err := emit(t); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *Gemini) DiscoverTopics(ctx context.Context, q TopicQuery) ([]session.TopicCandidate, error) {
	raw, err := g.generate(ctx, g.prompts.BuildTopicPrompt(q))
	if err != nil {
		return nil, err
	}
	return parseTopics(raw)
}

func (g *Gemini) GenerateOutline(ctx context.Context, req OutlineRequest) (session.Outline, error) {
	raw, err := g.generate(ctx, g.prompts.BuildOutlinePrompt(req))
	if err != nil {
		return session.Outline{}, err
	}
	return parseOutline(raw)
}

func (g *Gemini) StartStream(ctx context.Context, req WriteRequest) (io.ReadCloser, error) {
	return startArticleStream(ctx, req, g.prompts, g.streamText)
}

func (g *Gemini) Edit(ctx context.Context, req EditRequest) (io.ReadCloser, error) {
	return rawTokenBody(ctx, g.prompts.BuildEditPrompt(req), g.streamText), nil
}

func (g *Gemini) Suggest(ctx context.Context, articleText, targetID string) ([]links.Suggestion, error) {
	raw, err := g.generate(ctx, g.prompts.BuildLinkPrompt(articleText, targetID))
	if err != nil {
		return nil, err
	}
	return parseSuggestions(raw)
}
