// Package stream consumes the chunked content-generation body and
// incrementally assembles the streamed article.
package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"inkwell/internal/session"
)

// EventType tags one frame of the generation stream.
type EventType string

const (
	EventToken          EventType = "token"
	EventArticleCreated EventType = "article_created"
	EventComplete       EventType = "complete"
	EventError          EventType = "error"
)

// Content stage tags carried by token events.
const (
	StageHook       = "hook"
	StageSection    = "section"
	StageConclusion = "conclusion"
)

// Event is one newline-delimited frame of the content stream.
type Event struct {
	Type      EventType `json:"type"`
	Stage     string    `json:"stage,omitempty"`
	Section   int       `json:"section,omitempty"`
	Total     int       `json:"total,omitempty"`
	Text      string    `json:"text,omitempty"`
	ArticleID string    `json:"article_id,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// Progress is a transient snapshot of the consumer's position. It exists
// only while a stream is active and is never persisted.
type Progress struct {
	Stage   string
	Message string
	Percent int
	Section int // 1-based, section stage only
	Total   int
}

// Callbacks receive consumer notifications. Nil members are skipped. After
// an abort no callback fires again.
type Callbacks struct {
	OnProgress       func(Progress)
	OnArticleCreated func(articleID string)
	OnArticleReady   func(session.FinalArticle)
}

// ErrIncomplete indicates the stream ended without a complete event. This is
// a protocol violation, never a silent success.
var ErrIncomplete = errors.New("stream ended without completion signal")

var errMalformedFrame = errors.New("malformed stream frame")

// Consumer reads a chunked response body frame by frame. Frames may be split
// across network reads; bytes are buffered until a full newline-terminated
// frame is seen.
type Consumer struct {
	log *zap.Logger
}

// NewConsumer returns a stream consumer.
func NewConsumer(log *zap.Logger) *Consumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{log: log}
}

// consumeState accumulates across frames of one stream.
type consumeState struct {
	content   session.StreamedContent
	outline   *session.Outline
	articleID string
	final     *session.FinalArticle
}

// Consume reads the body until a complete event arrives. It returns the
// final article reference plus the assembled content. On context
// cancellation the read terminates, no further callbacks fire, and the
// partial content is the caller's to discard.
func (c *Consumer) Consume(ctx context.Context, body io.ReadCloser, outline *session.Outline, cb Callbacks) (session.FinalArticle, session.StreamedContent, error) {
	defer body.Close()

	// Close the body when the context ends so a blocked read returns.
	stop := context.AfterFunc(ctx, func() { body.Close() })
	defer stop()

	st := consumeState{outline: outline}
	var buf bytes.Buffer
	chunk := make([]byte, 4096)

	for {
		n, readErr := body.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			for {
				line, ok := nextFrame(&buf)
				if !ok {
					break
				}
				if err := c.handleFrame(&st, line, cb); err != nil {
					return session.FinalArticle{}, st.content, err
				}
				if st.final != nil {
					return *st.final, st.content, nil
				}
			}
		}
		if readErr != nil {
			if ctx.Err() != nil {
				return session.FinalArticle{}, st.content, ctx.Err()
			}
			if !errors.Is(readErr, io.EOF) {
				return session.FinalArticle{}, st.content, fmt.Errorf("stream read: %w", readErr)
			}
			// A final frame may arrive without its newline. If the trailing
			// bytes do not parse, the stream was cut mid-frame: that is the
			// incomplete-stream case, not a malformed frame.
			if err := c.handleFrame(&st, bytes.TrimSpace(buf.Bytes()), cb); err != nil {
				if errors.Is(err, errMalformedFrame) {
					return session.FinalArticle{}, st.content, ErrIncomplete
				}
				return session.FinalArticle{}, st.content, err
			}
			if st.final != nil {
				return *st.final, st.content, nil
			}
			return session.FinalArticle{}, st.content, ErrIncomplete
		}
	}
}

func (c *Consumer) handleFrame(st *consumeState, line []byte, cb Callbacks) error {
	if len(line) == 0 {
		return nil
	}
	var ev Event
	if err := json.Unmarshal(line, &ev); err != nil {
		return fmt.Errorf("%w: %v", errMalformedFrame, err)
	}

	switch ev.Type {
	case EventToken:
		c.applyToken(&st.content, ev, cb)
	case EventArticleCreated:
		st.articleID = ev.ArticleID
		if cb.OnArticleCreated != nil {
			cb.OnArticleCreated(ev.ArticleID)
		}
	case EventComplete:
		if ev.ArticleID != "" {
			st.articleID = ev.ArticleID
		}
		art := session.FinalArticle{
			ID:     st.articleID,
			Text:   st.content.Markdown(st.outline),
			Status: "complete",
		}
		if cb.OnProgress != nil {
			cb.OnProgress(Progress{Stage: "complete", Message: "Article ready", Percent: 100})
		}
		if cb.OnArticleReady != nil {
			cb.OnArticleReady(art)
		}
		st.final = &art
	case EventError:
		return fmt.Errorf("generation stream reported error: %s", ev.Message)
	default:
		c.log.Warn("unknown stream event type", zap.String("type", string(ev.Type)))
	}
	return nil
}

// nextFrame pops one newline-terminated frame off the buffer, if present.
func nextFrame(buf *bytes.Buffer) ([]byte, bool) {
	data := buf.Bytes()
	i := bytes.IndexByte(data, '\n')
	if i < 0 {
		return nil, false
	}
	line := make([]byte, i)
	copy(line, data[:i])
	buf.Next(i + 1)
	return bytes.TrimSpace(line), true
}

// applyToken appends the token to the part of the content the stream is
// currently writing. Tokens for different logical sections arrive on one
// continuous byte stream, so routing follows the event's stage tag.
func (c *Consumer) applyToken(content *session.StreamedContent, ev Event, cb Callbacks) {
	switch ev.Stage {
	case StageHook:
		content.Hook += ev.Text
	case StageSection:
		for len(content.Sections) <= ev.Section {
			content.Sections = append(content.Sections, "")
		}
		content.Sections[ev.Section] += ev.Text
	case StageConclusion:
		content.Conclusion += ev.Text
	default:
		c.log.Warn("token with unknown stage tag", zap.String("stage", ev.Stage))
		return
	}
	if cb.OnProgress != nil {
		cb.OnProgress(progressFor(ev))
	}
}

// progressFor maps a token event to a 0-100 progress snapshot: hook at 10,
// sections spread across 20-80 by index, conclusion at 90.
func progressFor(ev Event) Progress {
	switch ev.Stage {
	case StageHook:
		return Progress{Stage: StageHook, Message: "Writing the hook", Percent: 10}
	case StageSection:
		total := ev.Total
		if total <= 0 {
			total = 1
		}
		pct := 20 + (60*ev.Section)/total
		return Progress{
			Stage:   StageSection,
			Message: fmt.Sprintf("Writing section %d of %d", ev.Section+1, total),
			Percent: pct,
			Section: ev.Section + 1,
			Total:   total,
		}
	case StageConclusion:
		return Progress{Stage: StageConclusion, Message: "Writing the conclusion", Percent: 90}
	}
	return Progress{}
}
