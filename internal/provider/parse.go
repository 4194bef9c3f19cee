package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"inkwell/internal/links"
	"inkwell/internal/session"
)

func cleanJSONOutput(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(text, "```")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
	}
	return strings.TrimSpace(text)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

type topicJSON struct {
	Title     string  `json:"title"`
	Relevance float64 `json:"relevance"`
}

// parseTopics decodes the model's topic JSON into candidates with temporary
// client-side ids. Durable ids are minted only when a topic is persisted.
func parseTopics(raw string) ([]session.TopicCandidate, error) {
	var items []topicJSON
	if err := json.Unmarshal([]byte(cleanJSONOutput(raw)), &items); err != nil {
		return nil, fmt.Errorf("failed to parse topic response: %w", err)
	}

	candidates := make([]session.TopicCandidate, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.Title) == "" {
			continue
		}
		candidates = append(candidates, session.TopicCandidate{
			ID:        session.TemporaryIDPrefix + uuid.NewString(),
			Title:     strings.TrimSpace(it.Title),
			Relevance: clamp01(it.Relevance),
		})
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("topic response contained no usable topics")
	}
	return candidates, nil
}

type outlineJSON struct {
	Title       string `json:"title"`
	HookSummary string `json:"hook_summary"`
	Sections    []struct {
		Title      string   `json:"title"`
		KeyPoints  []string `json:"key_points"`
		WordTarget int      `json:"word_target"`
	} `json:"sections"`
}

func parseOutline(raw string) (session.Outline, error) {
	var o outlineJSON
	if err := json.Unmarshal([]byte(cleanJSONOutput(raw)), &o); err != nil {
		return session.Outline{}, fmt.Errorf("failed to parse outline response: %w", err)
	}
	if strings.TrimSpace(o.Title) == "" || len(o.Sections) == 0 {
		return session.Outline{}, fmt.Errorf("outline response missing title or sections")
	}

	out := session.Outline{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(o.Title),
		HookSummary: strings.TrimSpace(o.HookSummary),
	}
	for _, s := range o.Sections {
		out.Sections = append(out.Sections, session.OutlineSection{
			Title:      strings.TrimSpace(s.Title),
			KeyPoints:  s.KeyPoints,
			WordTarget: s.WordTarget,
		})
	}
	return out, nil
}

type suggestionJSON struct {
	Anchor      string  `json:"anchor"`
	TargetRef   string  `json:"target_ref"`
	TargetTitle string  `json:"target_title"`
	Relevance   float64 `json:"relevance"`
	Rationale   string  `json:"rationale"`
}

func parseSuggestions(raw string) ([]links.Suggestion, error) {
	var items []suggestionJSON
	if err := json.Unmarshal([]byte(cleanJSONOutput(raw)), &items); err != nil {
		return nil, fmt.Errorf("failed to parse link suggestions: %w", err)
	}

	out := make([]links.Suggestion, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.Anchor) == "" || strings.TrimSpace(it.TargetRef) == "" {
			continue
		}
		out = append(out, links.Suggestion{
			ID:          uuid.NewString(),
			Anchor:      strings.TrimSpace(it.Anchor),
			TargetRef:   strings.TrimSpace(it.TargetRef),
			TargetTitle: strings.TrimSpace(it.TargetTitle),
			Relevance:   clamp01(it.Relevance),
			Rationale:   strings.TrimSpace(it.Rationale),
		})
	}
	return out, nil
}
