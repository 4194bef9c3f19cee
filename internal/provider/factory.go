package provider

import (
	"context"
	"fmt"
	"strings"
)

type Options struct {
	Provider    string
	APIKey      string
	Model       string
	WriterModel string
	BaseURL     string
}

// New builds the agent suite for the configured provider.
func New(ctx context.Context, opts Options) (Suite, error) {
	provider := strings.ToLower(strings.TrimSpace(opts.Provider))
	if provider == "" {
		provider = "gemini"
	}

	switch provider {
	case "gemini":
		g, err := NewGemini(ctx, opts.APIKey, opts.Model, opts.WriterModel)
		if err != nil {
			return Suite{}, err
		}
		return Suite{Topics: g, Outline: g, Writer: g, Editor: g, Links: g}, nil
	case "openai":
		o, err := NewOpenAI(opts.APIKey, opts.Model, opts.WriterModel, opts.BaseURL)
		if err != nil {
			return Suite{}, err
		}
		return Suite{Topics: o, Outline: o, Writer: o, Editor: o, Links: o}, nil
	default:
		return Suite{}, fmt.Errorf("unsupported provider: %s", opts.Provider)
	}
}
