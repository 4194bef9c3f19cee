package stream

import (
	"context"
	"time"

	"go.uber.org/zap"

	"inkwell/internal/session"
)

// Fetcher loads the persisted article state, used after a stream failed to
// fully complete.
type Fetcher interface {
	GetArticle(ctx context.Context, id string) (session.FinalArticle, error)
}

// RecoverOnce performs exactly one best-effort re-fetch of persisted state
// after the given delay, then gives up. The single attempt avoids a livelock
// where the caller waits forever for a completion signal that will never
// arrive.
func RecoverOnce(ctx context.Context, log *zap.Logger, fetch Fetcher, articleID string, delay time.Duration) (session.FinalArticle, bool) {
	if log == nil {
		log = zap.NewNop()
	}
	if articleID == "" {
		return session.FinalArticle{}, false
	}

	select {
	case <-ctx.Done():
		return session.FinalArticle{}, false
	case <-time.After(delay):
	}

	art, err := fetch.GetArticle(ctx, articleID)
	if err != nil {
		log.Warn("post-stream recovery fetch failed", zap.String("article_id", articleID), zap.Error(err))
		return session.FinalArticle{}, false
	}
	if art.Status != "complete" || art.Text == "" {
		return session.FinalArticle{}, false
	}
	log.Info("recovered persisted article after incomplete stream", zap.String("article_id", articleID))
	return art, true
}
