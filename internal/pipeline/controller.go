// Package pipeline drives the generation stage machine: config, topics,
// outline, content, linking, done.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"inkwell/internal/links"
	"inkwell/internal/provider"
	"inkwell/internal/session"
	"inkwell/internal/storage"
	"inkwell/internal/stream"
)

// Store is the persistence surface the controller needs.
type Store interface {
	PersistTopic(ctx context.Context, t session.TopicCandidate) (session.TopicCandidate, error)
	SaveArticle(ctx context.Context, art storage.Article, snapshot bool) (storage.Article, error)
	GetArticle(ctx context.Context, id string) (session.FinalArticle, error)
}

// Input carries the explicit external decisions an advance may need. The
// approval gates at topic selection and outline approval never auto-advance
// without it.
type Input struct {
	SelectedTopicID string
	ApproveOutline  bool
	SelectedLinkIDs []string
	Callbacks       stream.Callbacks
}

// Controller owns no session state: Advance takes a session value and
// returns the updated one.
type Controller struct {
	agents        provider.Suite
	store         Store
	consumer      *stream.Consumer
	linker        *links.Engine
	log           *zap.Logger
	recoveryDelay time.Duration
}

func NewController(agents provider.Suite, store Store, recoveryDelay time.Duration, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		agents:        agents,
		store:         store,
		consumer:      stream.NewConsumer(log),
		linker:        links.NewEngine(),
		log:           log,
		recoveryDelay: recoveryDelay,
	}
}

// Advance moves the session one stage forward. On any error the returned
// session equals the input: a failed advance never leaves partial state.
func (c *Controller) Advance(ctx context.Context, s session.Session, in Input) (session.Session, error) {
	switch s.Stage {
	case session.StageConfig:
		return c.discoverTopics(ctx, s)
	case session.StageTopics:
		return c.generateOutline(ctx, s, in)
	case session.StageOutline:
		return c.writeContent(ctx, s, in)
	case session.StageLinking:
		return c.applyLinks(ctx, s, in)
	default:
		return s, fmt.Errorf("%w: nothing to advance from %s", session.ErrInvalidTransition, s.Stage)
	}
}

// GoBack returns the session to an earlier stage, discarding the state the
// abandoned stages produced.
func (c *Controller) GoBack(s session.Session, to session.Stage) (session.Session, error) {
	back, err := s.GoBack(to)
	if err != nil {
		return s, err
	}
	c.log.Info("session moved back", zap.Stringer("from", s.Stage), zap.Stringer("to", to))
	return back, nil
}

func (c *Controller) discoverTopics(ctx context.Context, s session.Session) (session.Session, error) {
	if !s.Config.HasSelectionCriteria() {
		return s, fmt.Errorf("%w: keywords, industry, or a direct topic query is required", session.ErrValidation)
	}

	candidates, err := c.agents.Topics.DiscoverTopics(ctx, provider.TopicQuery{
		Industry:    s.Config.Industry,
		Keywords:    s.Config.Keywords,
		ArticleType: s.Config.ArticleType,
		DirectQuery: s.Config.TopicQuery,
		Mode:        s.Config.DiscoveryMode,
	})
	if err != nil {
		return s, fmt.Errorf("topic discovery: %w", err)
	}

	next, err := s.To(session.StageTopics)
	if err != nil {
		return s, err
	}
	next.TopicCandidates = candidates
	c.log.Info("topics discovered", zap.Int("count", len(candidates)))
	return next, nil
}

// generateOutline requires an explicit topic selection. A topic that only
// has a temporary identifier is persisted first; outline generation is never
// invoked against a non-durable topic reference, because the article and
// link stages need a stable foreign key.
func (c *Controller) generateOutline(ctx context.Context, s session.Session, in Input) (session.Session, error) {
	if in.SelectedTopicID == "" {
		return s, fmt.Errorf("%w: topic selection", session.ErrInputRequired)
	}

	idx := -1
	for i, t := range s.TopicCandidates {
		if t.ID == in.SelectedTopicID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s, fmt.Errorf("%w: unknown topic id %s", session.ErrValidation, in.SelectedTopicID)
	}

	selected := s.TopicCandidates[idx]
	if !selected.Durable() {
		persisted, err := c.store.PersistTopic(ctx, selected)
		if err != nil {
			return s, fmt.Errorf("persisting topic: %w", err)
		}
		selected = persisted
	}

	outline, err := c.agents.Outline.GenerateOutline(ctx, provider.OutlineRequest{
		TopicID:     selected.ID,
		TopicTitle:  selected.Title,
		TargetWords: s.Config.TargetWords,
		Tone:        s.Config.Tone,
	})
	if err != nil {
		return s, fmt.Errorf("outline generation: %w", err)
	}

	next, err := s.To(session.StageOutline)
	if err != nil {
		return s, err
	}
	next.TopicCandidates = append([]session.TopicCandidate(nil), s.TopicCandidates...)
	next.TopicCandidates[idx] = selected
	next.SelectedTopic = &next.TopicCandidates[idx]
	next.Outline = &outline
	return next, nil
}

// writeContent transitions to the content stage before starting the stream
// so a live view can render, then consumes the stream to completion. A
// stream-start failure rolls the transition back to outline.
func (c *Controller) writeContent(ctx context.Context, s session.Session, in Input) (session.Session, error) {
	if !in.ApproveOutline {
		return s, fmt.Errorf("%w: outline approval", session.ErrInputRequired)
	}
	if s.Outline == nil || s.SelectedTopic == nil {
		return s, fmt.Errorf("%w: outline and selected topic must exist", session.ErrValidation)
	}

	next, err := s.To(session.StageContent)
	if err != nil {
		return s, err
	}

	body, err := c.agents.Writer.StartStream(ctx, provider.WriteRequest{
		Outline: *next.Outline,
		Tone:    next.Config.Tone,
	})
	if err != nil {
		// Roll the stage transition back; the caller keeps the outline view.
		return s, fmt.Errorf("starting content stream: %w", err)
	}

	// Capture the article id as soon as it is announced so an interrupted
	// stream can still be recovered from persisted state.
	var announcedID string
	cb := in.Callbacks
	userCreated := cb.OnArticleCreated
	cb.OnArticleCreated = func(id string) {
		announcedID = id
		if userCreated != nil {
			userCreated(id)
		}
	}

	art, content, err := c.consumer.Consume(ctx, body, next.Outline, cb)
	if err != nil {
		if ctx.Err() != nil {
			return s, err
		}
		recovered, ok := stream.RecoverOnce(ctx, c.log, c.store, announcedID, c.recoveryDelay)
		if !ok {
			return s, fmt.Errorf("content stream: %w", err)
		}
		art = recovered
	} else {
		if _, err := c.store.SaveArticle(ctx, storage.Article{
			ID:      art.ID,
			TopicID: next.SelectedTopic.ID,
			Title:   next.Outline.Title,
			Content: art.Text,
			Status:  art.Status,
		}, false); err != nil {
			return s, fmt.Errorf("saving generated article: %w", err)
		}
	}

	next.Content = content
	next.FinalArticle = &art
	return c.collectSuggestions(ctx, next)
}

// collectSuggestions moves content -> linking, fetching link suggestions
// concurrently with the post-generation version snapshot. Failed or empty
// suggestions skip straight to done; linking is optional.
func (c *Controller) collectSuggestions(ctx context.Context, s session.Session) (session.Session, error) {
	next, err := s.To(session.StageLinking)
	if err != nil {
		return s, err
	}
	art := *next.FinalArticle

	var sugs []links.Suggestion
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sugs, err = c.agents.Links.Suggest(gctx, art.Text, art.ID)
		return err
	})
	g.Go(func() error {
		// Snapshot failure is a persistence concern, not a pipeline fault.
		if _, err := c.store.SaveArticle(gctx, storage.Article{ID: art.ID, Content: art.Text, Status: art.Status}, true); err != nil {
			c.log.Warn("version snapshot failed", zap.String("article_id", art.ID), zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		c.log.Warn("link suggestions unavailable, skipping linking", zap.Error(err))
		return next.To(session.StageDone)
	}
	if len(sugs) == 0 {
		return next.To(session.StageDone)
	}

	// Highest relevance first; ties break on id to keep runs deterministic.
	sort.SliceStable(sugs, func(i, j int) bool {
		if sugs[i].Relevance != sugs[j].Relevance {
			return sugs[i].Relevance > sugs[j].Relevance
		}
		return sugs[i].ID < sugs[j].ID
	})
	next.Suggestions = sugs
	return next, nil
}

// applyLinks rewrites the final article with the selected suggestions and
// finishes the session. Selecting none finishes without changes.
func (c *Controller) applyLinks(ctx context.Context, s session.Session, in Input) (session.Session, error) {
	if s.FinalArticle == nil {
		return s, fmt.Errorf("%w: no final article to link", session.ErrValidation)
	}

	next, err := s.To(session.StageDone)
	if err != nil {
		return s, err
	}

	if len(in.SelectedLinkIDs) == 0 {
		return next, nil
	}

	res := c.linker.Insert(s.FinalArticle.Text, s.Suggestions, in.SelectedLinkIDs)
	c.log.Info("link insertion finished", zap.Int("applied", res.Applied), zap.Int("skipped", res.Skipped))

	art := *s.FinalArticle
	art.Text = res.Text
	if _, err := c.store.SaveArticle(ctx, storage.Article{ID: art.ID, Content: art.Text, Status: art.Status}, true); err != nil {
		return s, fmt.Errorf("saving linked article: %w", err)
	}
	next.FinalArticle = &art
	return next, nil
}
