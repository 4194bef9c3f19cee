package persist

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Saver issues one write of the full document text. The snapshot flag
// requests a version snapshot alongside the canonical row.
type Saver interface {
	Save(ctx context.Context, articleID, text string, snapshot bool) error
}

// Coordinator debounces document saves. At most one save intent exists per
// quiescence window; calls during the window collapse into a single eventual
// write of the latest text. Intermediate states are never separately
// persisted.
type Coordinator struct {
	saver     Saver
	articleID string
	deb       *Debouncer
	log       *zap.Logger

	mu        sync.Mutex
	current   string
	lastSaved string
}

// NewCoordinator returns a coordinator for one article. lastSaved seeds the
// dedup state with the text most recently confirmed written.
func NewCoordinator(saver Saver, articleID, lastSaved string, window time.Duration, log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{
		saver:     saver,
		articleID: articleID,
		deb:       NewDebouncer(window),
		log:       log,
		current:   lastSaved,
		lastSaved: lastSaved,
	}
}

// Schedule records the latest text and (re)starts the quiescence timer.
// Text equal to the last confirmed write is a no-op.
func (c *Coordinator) Schedule(text string) {
	c.mu.Lock()
	if text == c.lastSaved {
		c.current = text
		c.mu.Unlock()
		return
	}
	c.current = text
	c.mu.Unlock()

	c.deb.Debounce(func() {
		c.mu.Lock()
		latest := c.current
		c.mu.Unlock()
		c.save(context.Background(), latest)
	})
}

// FlushIfDirty cancels any pending timer and, when unsaved changes exist,
// issues an immediate best-effort write. Errors are logged, not returned:
// teardown has no further opportunity to retry.
func (c *Coordinator) FlushIfDirty(ctx context.Context) {
	c.deb.Cancel()

	c.mu.Lock()
	dirty := c.current != c.lastSaved
	latest := c.current
	c.mu.Unlock()

	if dirty {
		if err := c.write(ctx, latest); err != nil {
			c.log.Error("teardown flush failed, unsaved changes lost",
				zap.String("article_id", c.articleID), zap.Error(err))
		}
	}
}

// save issues a debounced write. A failed scheduled write stays quiet; the
// next Schedule call triggered by further edits attempts again.
func (c *Coordinator) save(ctx context.Context, text string) {
	if err := c.write(ctx, text); err != nil {
		c.log.Warn("scheduled save failed, will retry on next edit",
			zap.String("article_id", c.articleID), zap.Error(err))
	}
}

func (c *Coordinator) write(ctx context.Context, text string) error {
	c.mu.Lock()
	if text == c.lastSaved {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	if err := c.saver.Save(ctx, c.articleID, text, false); err != nil {
		return err
	}

	c.mu.Lock()
	c.lastSaved = text
	c.mu.Unlock()
	return nil
}
