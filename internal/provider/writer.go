package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"

	"inkwell/internal/stream"
)

// streamFunc streams model output for one prompt, invoking emit per token.
// Both providers expose this shape; the framing below is shared.
type streamFunc func(ctx context.Context, prompt string, emit func(string) error) error

// startArticleStream runs the hook, each outline section, and the conclusion
// as consecutive model streams, framing every token as a newline-delimited
// event on the returned body. The consumer never sees provider boundaries,
// only stage-tagged tokens.
func startArticleStream(ctx context.Context, req WriteRequest, pb *PromptBuilder, sf streamFunc) (io.ReadCloser, error) {
	if len(req.Outline.Sections) == 0 {
		return nil, fmt.Errorf("%w: outline has no sections", ErrProvider)
	}

	pr, pw := io.Pipe()
	enc := json.NewEncoder(pw)
	articleID := uuid.NewString()

	go func() {
		emit := func(ev stream.Event) error { return enc.Encode(ev) }

		run := func() error {
			if err := emit(stream.Event{Type: stream.EventArticleCreated, ArticleID: articleID}); err != nil {
				return err
			}

			if err := sf(ctx, pb.BuildHookPrompt(req.Outline, req.Tone), func(tok string) error {
				return emit(stream.Event{Type: stream.EventToken, Stage: stream.StageHook, Text: tok})
			}); err != nil {
				return err
			}

			total := len(req.Outline.Sections)
			for i := range req.Outline.Sections {
				idx := i
				if err := sf(ctx, pb.BuildSectionPrompt(req.Outline, idx, req.Tone), func(tok string) error {
					return emit(stream.Event{Type: stream.EventToken, Stage: stream.StageSection, Section: idx, Total: total, Text: tok})
				}); err != nil {
					return err
				}
			}

			if err := sf(ctx, pb.BuildConclusionPrompt(req.Outline, req.Tone), func(tok string) error {
				return emit(stream.Event{Type: stream.EventToken, Stage: stream.StageConclusion, Text: tok})
			}); err != nil {
				return err
			}

			return emit(stream.Event{Type: stream.EventComplete, ArticleID: articleID})
		}

		if err := run(); err != nil {
			// Best effort: surface the failure as an in-band error frame.
			_ = emit(stream.Event{Type: stream.EventError, Message: err.Error()})
		}
		pw.Close()
	}()

	return pr, nil
}

// rawTokenBody streams model output for one prompt as an unframed token
// body, the shape the inline-edit endpoint returns.
func rawTokenBody(ctx context.Context, prompt string, sf streamFunc) io.ReadCloser {
	pr, pw := io.Pipe()
	go func() {
		err := sf(ctx, prompt, func(tok string) error {
			_, werr := io.WriteString(pw, tok)
			return werr
		})
		if err != nil {
			err = fmt.Errorf("%w: %v", ErrProvider, err)
		}
		pw.CloseWithError(err)
	}()
	return pr
}
