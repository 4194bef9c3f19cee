package storage

import (
	"context"

	"inkwell/internal/session"
)

// Store combines topic and article persistence capabilities.
type Store interface {
	TopicStore
	ArticleStore
	Close() error
}

// TopicStore persists discovered topics and hands out durable identifiers.
type TopicStore interface {
	// PersistTopic writes the topic and returns it with a durable id. A
	// topic that already carries a durable id is upserted unchanged.
	PersistTopic(ctx context.Context, t session.TopicCandidate) (session.TopicCandidate, error)

	// GetTopic retrieves a topic by its durable id.
	GetTopic(ctx context.Context, id string) (session.TopicCandidate, error)
}

// ArticleStore persists articles and their version snapshots.
type ArticleStore interface {
	// SaveArticle upserts the canonical article row. When snapshot is set a
	// version row is written alongside. Returns the canonical stored article.
	SaveArticle(ctx context.Context, art Article, snapshot bool) (Article, error)

	// GetArticle retrieves the canonical article by id.
	GetArticle(ctx context.Context, id string) (session.FinalArticle, error)

	// ListVersions returns snapshot contents for an article, newest first.
	ListVersions(ctx context.Context, articleID string) ([]string, error)
}
