package document

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedEditor releases its response only once gate is closed, which lets
// tests mutate the document between request and apply.
type scriptedEditor struct {
	gate   chan struct{}
	result string
	err    error
}

func (s *scriptedEditor) Edit(ctx context.Context, action, selection string) (io.ReadCloser, error) {
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return io.NopCloser(strings.NewReader(s.result)), nil
}

func TestRequestEdit_ReplacesSpanAndPlacesCursor(t *testing.T) {
	doc := New("The quick brown fox jumps.")
	ed := &scriptedEditor{result: "slow red"}
	e := NewEngine(doc, ed, nil)

	op := e.RequestEdit(context.Background(), Span{Start: 4, End: 15}, "rewrite")
	op.Wait()

	require.Equal(t, EditDone, op.Status())
	assert.Equal(t, "quick brown", op.OriginalText)
	assert.Equal(t, "The slow red fox jumps.", doc.Text())
	assert.Equal(t, 4+len([]rune("slow red")), doc.Cursor())
	assert.Empty(t, doc.Annotations(KindPendingEdit))
}

func TestRequestEdit_PendingAnnotationWhileInFlight(t *testing.T) {
	doc := New("Some text to edit here.")
	gate := make(chan struct{})
	ed := &scriptedEditor{gate: gate, result: "replacement"}
	e := NewEngine(doc, ed, nil)

	op := e.RequestEdit(context.Background(), Span{Start: 5, End: 9}, "shorten")
	require.Equal(t, EditPending, op.Status())
	require.Len(t, doc.Annotations(KindPendingEdit), 1)
	assert.Equal(t, "Some text to edit here.", doc.Text(), "original text stays visible while pending")

	close(gate)
	op.Wait()
	assert.Empty(t, doc.Annotations(KindPendingEdit))
}

func TestApply_ClampsRangeWhenDocumentShrank(t *testing.T) {
	doc := New("0123456789ABCDEFGHIJ")
	gate := make(chan struct{})
	ed := &scriptedEditor{gate: gate, result: "XYZ"}
	e := NewEngine(doc, ed, nil)

	op := e.RequestEdit(context.Background(), Span{Start: 10, End: 20}, "rewrite")

	// Concurrent typing removed the tail; only five runes remain.
	doc.Replace(Span{Start: 5, End: 20}, "")
	require.Equal(t, 5, doc.Len())

	close(gate)
	op.Wait()

	require.Equal(t, EditDone, op.Status())
	assert.Equal(t, "01234XYZ", doc.Text(), "stale range collapses to an insert at the clamped start")
}

func TestApply_PartialClampStillReplaces(t *testing.T) {
	doc := New("0123456789ABCDEFGHIJ")
	gate := make(chan struct{})
	ed := &scriptedEditor{gate: gate, result: "X"}
	e := NewEngine(doc, ed, nil)

	op := e.RequestEdit(context.Background(), Span{Start: 10, End: 20}, "rewrite")

	doc.Replace(Span{Start: 15, End: 20}, "")
	require.Equal(t, 15, doc.Len())

	close(gate)
	op.Wait()

	require.Equal(t, EditDone, op.Status())
	assert.Equal(t, "0123456789X", doc.Text())
}

func TestApply_EmptyResultRestoresOriginal(t *testing.T) {
	doc := New("Keep this sentence intact.")
	ed := &scriptedEditor{result: "   \n  "}
	e := NewEngine(doc, ed, nil)

	op := e.RequestEdit(context.Background(), Span{Start: 0, End: 4}, "rewrite")
	op.Wait()

	require.Equal(t, EditFailed, op.Status())
	require.ErrorIs(t, op.Err(), ErrEmptyResult)
	assert.Equal(t, "Keep this sentence intact.", doc.Text())
	assert.Empty(t, doc.Annotations(KindPendingEdit))
}

func TestApply_ProviderFailureRestoresOriginal(t *testing.T) {
	doc := New("Untouched on failure.")
	ed := &scriptedEditor{err: errors.New("model unavailable")}
	e := NewEngine(doc, ed, nil)

	op := e.RequestEdit(context.Background(), Span{Start: 0, End: 9}, "rewrite")
	op.Wait()

	require.Equal(t, EditFailed, op.Status())
	require.Error(t, op.Err())
	assert.Equal(t, "Untouched on failure.", doc.Text())
	assert.Empty(t, doc.Annotations(KindPendingEdit))
}

// actionEditor routes each Edit call to the scripted response for its action.
type actionEditor struct {
	mu     sync.Mutex
	byName map[string]*scriptedEditor
}

func (q *actionEditor) Edit(ctx context.Context, action, selection string) (io.ReadCloser, error) {
	q.mu.Lock()
	step := q.byName[action]
	q.mu.Unlock()
	return step.Edit(ctx, action, selection)
}

func TestRequestEdit_NewRequestAbortsOutstanding(t *testing.T) {
	doc := New("0123456789 abcdefghij rest of the document")
	gateA := make(chan struct{})
	ed := &actionEditor{byName: map[string]*scriptedEditor{
		"rewrite": {gate: gateA, result: "NEVER"},
		"shorten": {result: "BBB"},
	}}
	e := NewEngine(doc, ed, nil)

	opA := e.RequestEdit(context.Background(), Span{Start: 10, End: 20}, "rewrite")
	require.Equal(t, EditPending, opA.Status())

	opB := e.RequestEdit(context.Background(), Span{Start: 5, End: 8}, "shorten")

	opA.Wait()
	opB.Wait()

	assert.Equal(t, EditAborted, opA.Status())
	assert.NoError(t, opA.Err(), "user-driven abort is not a fault")
	require.Equal(t, EditDone, opB.Status())
	assert.Equal(t, "01234BBB89 abcdefghij rest of the document", doc.Text())
	assert.NotContains(t, doc.Text(), "NEVER", "aborted result is never applied")
}

func TestCancel_RestoresAndSurfacesNoError(t *testing.T) {
	doc := New("Cancel me please.")
	gate := make(chan struct{})
	ed := &scriptedEditor{gate: gate, result: "X"}
	e := NewEngine(doc, ed, nil)

	op := e.RequestEdit(context.Background(), Span{Start: 0, End: 6}, "rewrite")
	e.Cancel()
	op.Wait()

	assert.Equal(t, EditAborted, op.Status())
	assert.NoError(t, op.Err())
	assert.Equal(t, "Cancel me please.", doc.Text())
	assert.Empty(t, doc.Annotations(KindPendingEdit))
}

func TestDocumentClamp(t *testing.T) {
	doc := New("12345")
	assert.Equal(t, Span{Start: 0, End: 5}, doc.Clamp(Span{Start: -3, End: 99}))
	assert.Equal(t, Span{Start: 5, End: 5}, doc.Clamp(Span{Start: 7, End: 9}))
}

func TestDocumentReplace_InvertedSpanInsertsAtStart(t *testing.T) {
	doc := New("12345")
	doc.Replace(Span{Start: 4, End: 2}, "X")
	assert.Equal(t, "1234X5", doc.Text(), "no runes duplicated or deleted")
	assert.Equal(t, 5, doc.Cursor())
}
