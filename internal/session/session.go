package session

import (
	"fmt"
	"strings"

	"inkwell/internal/links"
)

// Stage is one discrete phase of the generation pipeline.
type Stage int

const (
	StageConfig Stage = iota
	StageTopics
	StageOutline
	StageContent
	StageLinking
	StageDone
)

var stageNames = map[Stage]string{
	StageConfig:  "config",
	StageTopics:  "topics",
	StageOutline: "outline",
	StageContent: "content",
	StageLinking: "linking",
	StageDone:    "done",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// transitions is the closed set of forward stage transitions. Backward
// movement goes through GoBack, never through this table.
var transitions = map[Stage][]Stage{
	StageConfig:  {StageTopics},
	StageTopics:  {StageOutline},
	StageOutline: {StageContent},
	StageContent: {StageLinking},
	StageLinking: {StageDone},
	StageDone:    {},
}

// CanAdvance reports whether from -> to is a legal forward transition.
func CanAdvance(from, to Stage) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Config captures the user's article parameters before topic discovery.
type Config struct {
	Industry      string
	Keywords      []string
	ArticleType   string
	TopicQuery    string
	TargetWords   int
	Tone          string
	DiscoveryMode string
}

// HasSelectionCriteria reports whether the config carries enough input to
// drive topic discovery.
func (c Config) HasSelectionCriteria() bool {
	if len(c.Keywords) > 0 || strings.TrimSpace(c.Industry) != "" {
		return true
	}
	return strings.TrimSpace(c.TopicQuery) != ""
}

// TemporaryIDPrefix marks topic ids that only exist client-side. A durable
// id replaces the temporary one the first time the topic is persisted.
const TemporaryIDPrefix = "tmp-"

// TopicCandidate is one discovered topic the user may select.
type TopicCandidate struct {
	ID                 string
	Title              string
	Relevance          float64
	SimilarityWarnings []string
}

// Durable reports whether the candidate carries a persisted identifier.
func (t TopicCandidate) Durable() bool {
	return t.ID != "" && !strings.HasPrefix(t.ID, TemporaryIDPrefix)
}

// OutlineSection is one planned section with its key points and word target.
type OutlineSection struct {
	Title      string
	KeyPoints  []string
	WordTarget int
}

// Outline is the approved article plan.
type Outline struct {
	ID          string
	Title       string
	HookSummary string
	Sections    []OutlineSection
}

// StreamedContent accumulates the independently completable parts of a
// streamed article.
type StreamedContent struct {
	Hook       string
	Sections   []string
	Conclusion string
}

// Markdown assembles the streamed parts into a single markdown document.
// Section headings come from the outline when one is provided.
func (sc StreamedContent) Markdown(outline *Outline) string {
	var sb strings.Builder
	if outline != nil && outline.Title != "" {
		fmt.Fprintf(&sb, "# %s\n\n", outline.Title)
	}
	if sc.Hook != "" {
		sb.WriteString(strings.TrimSpace(sc.Hook))
		sb.WriteString("\n\n")
	}
	for i, body := range sc.Sections {
		if outline != nil && i < len(outline.Sections) {
			fmt.Fprintf(&sb, "## %s\n\n", outline.Sections[i].Title)
		}
		sb.WriteString(strings.TrimSpace(body))
		sb.WriteString("\n\n")
	}
	if sc.Conclusion != "" {
		sb.WriteString(strings.TrimSpace(sc.Conclusion))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n") + "\n"
}

// FinalArticle is the persisted result of a completed content stream.
type FinalArticle struct {
	ID     string
	Text   string
	Status string
}

// Session is the full state of one authoring attempt. It is a value: every
// pipeline advance returns an updated copy rather than mutating shared state.
type Session struct {
	Stage           Stage
	Config          Config
	TopicCandidates []TopicCandidate
	SelectedTopic   *TopicCandidate
	Outline         *Outline
	Content         StreamedContent
	FinalArticle    *FinalArticle
	Suggestions     []links.Suggestion
}

// New starts a session at the config stage.
func New(cfg Config) Session {
	return Session{Stage: StageConfig, Config: cfg}
}

// To returns the session advanced to the given stage, or ErrInvalidTransition
// when the move is not in the transition table.
func (s Session) To(to Stage) (Session, error) {
	if !CanAdvance(s.Stage, to) {
		return s, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Stage, to)
	}
	s.Stage = to
	return s, nil
}

// GoBack returns the session at an earlier stage with all state produced by
// the abandoned stages discarded.
func (s Session) GoBack(to Stage) (Session, error) {
	if to >= s.Stage {
		return s, fmt.Errorf("%w: cannot go back from %s to %s", ErrInvalidTransition, s.Stage, to)
	}
	if to < StageLinking {
		s.Suggestions = nil
	}
	if to < StageContent {
		s.FinalArticle = nil
		s.Content = StreamedContent{}
	}
	if to < StageOutline {
		s.Outline = nil
	}
	if to < StageTopics {
		s.TopicCandidates = nil
		s.SelectedTopic = nil
	}
	s.Stage = to
	return s, nil
}
