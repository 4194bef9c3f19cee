package links

import (
	"fmt"
	"regexp"
	"sort"
)

// Suggestion proposes converting one anchor phrase into a cross-reference.
// Suggestions are immutable once produced by the upstream suggestion step.
type Suggestion struct {
	ID          string  `json:"id"`
	Anchor      string  `json:"anchor"`
	TargetRef   string  `json:"target_ref"`
	TargetTitle string  `json:"target_title"`
	Relevance   float64 `json:"relevance"`
	Rationale   string  `json:"rationale"`
}

// Result reports the rewritten document and how many suggestions were
// actually applied versus skipped.
type Result struct {
	Text    string
	Applied int
	Skipped int
}

var (
	inlineLinkRe = regexp.MustCompile(`!?\[[^\]\n]*\]\([^)\n]*\)`)
	autoLinkRe   = regexp.MustCompile(`<https?://[^>\s]+>`)
)

// existingLinkSpans returns the source spans already occupied by link or
// image markup. Anchors inside these spans are never rewritten.
func existingLinkSpans(text string) []Span {
	var spans []Span
	for _, re := range []*regexp.Regexp{inlineLinkRe, autoLinkRe} {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			spans = append(spans, Span{Start: loc[0], End: loc[1]})
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return spans
}

// Engine rewrites plain narrative text into linked text. It is a pure
// function of its inputs: identical text, suggestions, and selection always
// produce the identical result.
type Engine struct {
	matcher Matcher
}

// NewEngine returns a link insertion engine.
func NewEngine() *Engine {
	return &Engine{}
}

type acceptedLink struct {
	span Span
	ref  string
}

// Insert applies the selected suggestions to text, in the order the caller
// provides them. Each suggestion targets the first occurrence of its anchor;
// it is skipped when the anchor is absent, when that occurrence overlaps an
// already-claimed span (first claim wins, an anchor is never linked twice),
// or when it sits inside existing link markup. Offsets are resolved against
// the original text and the accepted spans are rewritten right-to-left, so
// earlier insertions never disturb later offsets.
func (e *Engine) Insert(text string, suggestions []Suggestion, selectedIDs []string) Result {
	selected := make(map[string]bool, len(selectedIDs))
	for _, id := range selectedIDs {
		selected[id] = true
	}

	linkSpans := existingLinkSpans(text)
	var claimed []Span
	var accepted []acceptedLink
	skipped := 0

	for _, sug := range suggestions {
		if !selected[sug.ID] {
			continue
		}
		sp, ok := e.matcher.First(text, sug.Anchor)
		if !ok {
			skipped++
			continue
		}
		if overlapsAny(sp, claimed) || overlapsAny(sp, linkSpans) {
			skipped++
			continue
		}
		claimed = append(claimed, sp)
		accepted = append(accepted, acceptedLink{span: sp, ref: sug.TargetRef})
	}

	// Right-to-left application keeps every accepted span's original offsets
	// valid while the buffer grows.
	sort.Slice(accepted, func(i, j int) bool { return accepted[i].span.Start > accepted[j].span.Start })
	out := text
	for _, a := range accepted {
		anchor := out[a.span.Start:a.span.End]
		out = out[:a.span.Start] + fmt.Sprintf("[%s](%s)", anchor, a.ref) + out[a.span.End:]
	}

	return Result{Text: out, Applied: len(accepted), Skipped: skipped}
}
