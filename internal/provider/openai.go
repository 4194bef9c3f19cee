package provider

import (
	"context"
	"fmt"
	"io"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"inkwell/internal/links"
	"inkwell/internal/session"
)

// OpenAI implements the full agent suite using the official openai-go SDK
// (chat completions, streamed for the writer and editor).
type OpenAI struct {
	model       string
	writerModel string
	opts        []option.RequestOption
	prompts     *PromptBuilder
}

func NewOpenAI(apiKey, model, writerModel, baseURL string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key missing")
	}
	if model == "" {
		return nil, fmt.Errorf("openai model is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if writerModel == "" {
		writerModel = model
	}
	return &OpenAI{
		model:       model,
		writerModel: writerModel,
		opts:        opts,
		prompts:     &PromptBuilder{},
	}, nil
}

func (o *OpenAI) generate(ctx context.Context, prompt string) (string, error) {
	client := openai.NewClient(o.opts...)

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrProvider)
	}
	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAI) streamText(ctx context.Context, prompt string, emit func(string) error) error {
	client := openai.NewClient(o.opts...)

	s := client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.writerModel),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
	})
	defer s.Close()

	for s.Next() {
		chunk := s.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			if err := emit(delta); err != nil {
				return err
			}
		}
	}
	return s.Err()
}

func (o *OpenAI) DiscoverTopics(ctx context.Context, q TopicQuery) ([]session.TopicCandidate, error) {
	raw, err := o.generate(ctx, o.prompts.BuildTopicPrompt(q))
	if err != nil {
		return nil, err
	}
	return parseTopics(raw)
}

func (o *OpenAI) GenerateOutline(ctx context.Context, req OutlineRequest) (session.Outline, error) {
	raw, err := o.generate(ctx, o.prompts.BuildOutlinePrompt(req))
	if err != nil {
		return session.Outline{}, err
	}
	return parseOutline(raw)
}

func (o *OpenAI) StartStream(ctx context.Context, req WriteRequest) (io.ReadCloser, error) {
	return startArticleStream(ctx, req, o.prompts, o.streamText)
}

func (o *OpenAI) Edit(ctx context.Context, req EditRequest) (io.ReadCloser, error) {
	return rawTokenBody(ctx, o.prompts.BuildEditPrompt(req), o.streamText), nil
}

func (o *OpenAI) Suggest(ctx context.Context, articleText, targetID string) ([]links.Suggestion, error) {
	raw, err := o.generate(ctx, o.prompts.BuildLinkPrompt(articleText, targetID))
	if err != nil {
		return nil, err
	}
	return parseSuggestions(raw)
}
