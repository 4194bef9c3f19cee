package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// EditStatus is the lifecycle state of one selection-scoped edit.
type EditStatus int

const (
	EditPending EditStatus = iota
	EditApplying
	EditDone
	EditFailed
	EditAborted
)

// ErrEmptyResult is returned when the provider produced an empty or
// whitespace-only replacement. Applying it would silently delete user
// content, so the original span is restored instead.
var ErrEmptyResult = errors.New("edit produced empty result")

// EditOperation is one in-flight selection-scoped AI edit.
type EditOperation struct {
	Range        Span
	Action       string
	OriginalText string
	ResultText   string

	mu     sync.Mutex
	status EditStatus
	err    error
	cancel context.CancelFunc
	done   chan struct{}
}

// Status returns the operation's current lifecycle state.
func (op *EditOperation) Status() EditStatus {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.status
}

// Err returns the terminal error, if any. Aborted operations carry no error.
func (op *EditOperation) Err() error {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.err
}

// Wait blocks until the operation reaches a terminal state.
func (op *EditOperation) Wait() {
	<-op.done
}

func (op *EditOperation) setStatus(s EditStatus) {
	op.mu.Lock()
	op.status = s
	op.mu.Unlock()
}

func (op *EditOperation) terminal() bool {
	switch op.Status() {
	case EditDone, EditFailed, EditAborted:
		return true
	}
	return false
}

// Editor issues one inline edit request and returns the raw chunked token
// body. The body carries no framing; it is accumulated until EOF.
type Editor interface {
	Edit(ctx context.Context, action, selection string) (io.ReadCloser, error)
}

// Engine serializes selection-scoped AI edits against a single document.
// At most one operation is pending or applying at a time; requesting a new
// edit aborts the outstanding one first.
type Engine struct {
	doc    *Document
	editor Editor
	log    *zap.Logger

	mu      sync.Mutex
	current *EditOperation
}

// NewEngine returns a mutation engine over the given document.
func NewEngine(doc *Document, editor Editor, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{doc: doc, editor: editor, log: log}
}

// RequestEdit captures the selection, marks it pending, and starts the
// provider call. Any outstanding operation is aborted first: its network
// call is cancelled and its pending marker cleared, leaving the document
// untouched.
func (e *Engine) RequestEdit(ctx context.Context, rng Span, action string) *EditOperation {
	e.mu.Lock()
	if e.current != nil && !e.current.terminal() {
		e.abortLocked(e.current)
	}

	rng = e.doc.Clamp(rng)
	op := &EditOperation{
		Range:        rng,
		Action:       action,
		OriginalText: e.doc.Slice(rng),
		done:         make(chan struct{}),
	}
	opCtx, cancel := context.WithCancel(ctx)
	op.cancel = cancel
	e.doc.Annotate(rng, KindPendingEdit)
	e.current = op
	e.mu.Unlock()

	go e.run(opCtx, op)
	return op
}

// Cancel aborts the outstanding operation, if any. This is a user-driven
// abort, not a fault: the pending marker is cleared and no error surfaces.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != nil && !e.current.terminal() {
		e.abortLocked(e.current)
	}
}

func (e *Engine) abortLocked(op *EditOperation) {
	op.cancel()
	e.doc.ClearAnnotations(KindPendingEdit)
	op.setStatus(EditAborted)
	close(op.done)
	e.current = nil
}

func (e *Engine) run(ctx context.Context, op *EditOperation) {
	body, err := e.editor.Edit(ctx, op.Action, op.OriginalText)
	if err != nil {
		e.finish(ctx, op, "", err)
		return
	}
	defer body.Close()

	// Terminate the read promptly when the operation is cancelled.
	stop := context.AfterFunc(ctx, func() { body.Close() })
	defer stop()

	raw, err := io.ReadAll(body)
	if err != nil {
		e.finish(ctx, op, "", err)
		return
	}
	e.finish(ctx, op, string(raw), nil)
}

// finish resolves the operation under the engine lock. Failure and
// cancellation both restore the document to its pre-request state; success
// applies the result against the live document bounds.
func (e *Engine) finish(ctx context.Context, op *EditOperation, result string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if op.terminal() {
		// Superseded by a newer request; its abort already cleaned up.
		return
	}

	if err == nil && strings.TrimSpace(result) == "" {
		err = ErrEmptyResult
	}

	if err != nil {
		e.doc.ClearAnnotations(KindPendingEdit)
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			op.setStatus(EditAborted)
		} else {
			op.mu.Lock()
			op.err = fmt.Errorf("inline edit: %w", err)
			op.mu.Unlock()
			op.setStatus(EditFailed)
			e.log.Error("inline edit failed", zap.Error(err))
		}
		close(op.done)
		e.current = nil
		return
	}

	op.setStatus(EditApplying)
	e.applyLocked(op, result)
	close(op.done)
	e.current = nil
}

// applyLocked re-resolves the captured range against the current document
// size before mutating. The document may have grown or shrunk from user
// typing since the edit was requested.
func (e *Engine) applyLocked(op *EditOperation, result string) {
	e.doc.ClearAnnotations(KindPendingEdit)

	rng := e.doc.Clamp(op.Range)
	if rng.Start >= rng.End {
		// The span no longer exists. Insert at the clamped start rather
		// than deleting unrelated text.
		e.log.Warn("stale edit range, inserting at best-effort position",
			zap.Int("start", op.Range.Start),
			zap.Int("end", op.Range.End),
			zap.Int("doc_len", e.doc.Len()))
		e.doc.Insert(rng.Start, result)
	} else {
		e.doc.Replace(rng, result)
	}

	op.mu.Lock()
	op.ResultText = result
	op.status = EditDone
	op.mu.Unlock()
}
