package provider

import (
	"fmt"
	"strings"

	"inkwell/internal/session"
)

// PromptBuilder constructs standardized prompts for the generation agents.
type PromptBuilder struct{}

func (pb *PromptBuilder) BuildTopicPrompt(q TopicQuery) string {
	var sb strings.Builder
	sb.WriteString("Role: Content Strategist. Task: Propose article topics.\n\n")
	if q.DirectQuery != "" {
		fmt.Fprintf(&sb, "The user already has a topic in mind: %q. Refine it into 1-3 concrete variants.\n", q.DirectQuery)
	} else {
		if q.Industry != "" {
			fmt.Fprintf(&sb, "Industry: %s\n", q.Industry)
		}
		if len(q.Keywords) > 0 {
			fmt.Fprintf(&sb, "Target keywords: %s\n", strings.Join(q.Keywords, ", "))
		}
		sb.WriteString("Propose 5 long-form article topics ranked by relevance.\n")
	}
	if q.ArticleType != "" {
		fmt.Fprintf(&sb, "Article type: %s\n", q.ArticleType)
	}
	sb.WriteString("\nRespond with a JSON array only, no prose. Each element: ")
	sb.WriteString(`{"title": string, "relevance": number between 0 and 1}` + "\n")
	return sb.String()
}

func (pb *PromptBuilder) BuildOutlinePrompt(req OutlineRequest) string {
	var sb strings.Builder
	sb.WriteString("Role: Senior Editor. Task: Plan a long-form article.\n\n")
	fmt.Fprintf(&sb, "Topic: %s\n", req.TopicTitle)
	if req.TargetWords > 0 {
		fmt.Fprintf(&sb, "Target length: about %d words total.\n", req.TargetWords)
	}
	if req.Tone != "" {
		fmt.Fprintf(&sb, "Tone: %s\n", req.Tone)
	}
	sb.WriteString("\nRespond with a JSON object only, no prose:\n")
	sb.WriteString(`{"title": string, "hook_summary": string, "sections": [{"title": string, "key_points": [string], "word_target": number}]}` + "\n")
	return sb.String()
}

func (pb *PromptBuilder) BuildHookPrompt(o session.Outline, tone string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write the opening hook for an article titled %q.\n", o.Title)
	if o.HookSummary != "" {
		fmt.Fprintf(&sb, "Hook intent: %s\n", o.HookSummary)
	}
	if tone != "" {
		fmt.Fprintf(&sb, "Tone: %s\n", tone)
	}
	sb.WriteString("Output the hook paragraph only, plain markdown, no heading.\n")
	return sb.String()
}

func (pb *PromptBuilder) BuildSectionPrompt(o session.Outline, idx int, tone string) string {
	sec := o.Sections[idx]
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write section %d of %d for the article %q.\n", idx+1, len(o.Sections), o.Title)
	fmt.Fprintf(&sb, "Section title: %s\n", sec.Title)
	if len(sec.KeyPoints) > 0 {
		fmt.Fprintf(&sb, "Cover these key points: %s\n", strings.Join(sec.KeyPoints, "; "))
	}
	if sec.WordTarget > 0 {
		fmt.Fprintf(&sb, "Target length: about %d words.\n", sec.WordTarget)
	}
	if tone != "" {
		fmt.Fprintf(&sb, "Tone: %s\n", tone)
	}
	sb.WriteString("Output the section body only, plain markdown, no heading.\n")
	return sb.String()
}

func (pb *PromptBuilder) BuildConclusionPrompt(o session.Outline, tone string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write the conclusion for the article %q.\n", o.Title)
	if tone != "" {
		fmt.Fprintf(&sb, "Tone: %s\n", tone)
	}
	sb.WriteString("Output the conclusion paragraph only, plain markdown, no heading.\n")
	return sb.String()
}

func (pb *PromptBuilder) BuildEditPrompt(req EditRequest) string {
	var sb strings.Builder
	sb.WriteString("Rewrite the selected passage below. Output the replacement text only, with no surrounding quotes or commentary.\n\n")
	fmt.Fprintf(&sb, "Instruction: %s\n\n", req.Action)
	fmt.Fprintf(&sb, "Selected passage:\n%s\n", req.Selection)
	return sb.String()
}

func (pb *PromptBuilder) BuildLinkPrompt(articleText, targetID string) string {
	var sb strings.Builder
	sb.WriteString("Role: Editor. Task: Propose internal cross-reference links for the article below.\n")
	sb.WriteString("Each suggestion names a short literal phrase from the article (the anchor) and the reference it should link to.\n\n")
	fmt.Fprintf(&sb, "Link target collection: %s\n\n", targetID)
	sb.WriteString("Respond with a JSON array only, no prose. Each element:\n")
	sb.WriteString(`{"anchor": string, "target_ref": string, "target_title": string, "relevance": number between 0 and 1, "rationale": string}` + "\n\n")
	sb.WriteString("Article:\n")
	sb.WriteString(articleText)
	return sb.String()
}
