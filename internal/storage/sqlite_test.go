package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/internal/session"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPersistTopic_MintsDurableID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tmp := session.TopicCandidate{
		ID:                 "tmp-abc123",
		Title:              "The State of AI Safety",
		Relevance:          0.92,
		SimilarityWarnings: []string{"similar to article 42"},
	}
	saved, err := store.PersistTopic(ctx, tmp)
	require.NoError(t, err)
	assert.True(t, saved.Durable())
	assert.NotEqual(t, tmp.ID, saved.ID)

	loaded, err := store.GetTopic(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, tmp.Title, loaded.Title)
	assert.Equal(t, tmp.Relevance, loaded.Relevance)
	assert.Equal(t, tmp.SimilarityWarnings, loaded.SimilarityWarnings)
}

func TestPersistTopic_DurableIDKept(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	topic := session.TopicCandidate{ID: "6a1f0b7e-1111-2222-3333-444455556666", Title: "Kept"}
	saved, err := store.PersistTopic(ctx, topic)
	require.NoError(t, err)
	assert.Equal(t, topic.ID, saved.ID)
}

func TestSaveArticle_UpsertAndSnapshot(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	art, err := store.SaveArticle(ctx, Article{
		TopicID: "topic-1",
		Title:   "First Draft",
		Content: "draft one",
		Status:  "draft",
	}, false)
	require.NoError(t, err)
	require.NotEmpty(t, art.ID)

	art.Content = "draft two"
	_, err = store.SaveArticle(ctx, art, true)
	require.NoError(t, err)

	loaded, err := store.GetArticle(ctx, art.ID)
	require.NoError(t, err)
	assert.Equal(t, "draft two", loaded.Text)

	versions, err := store.ListVersions(ctx, art.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, "draft two", versions[0])
}

func TestSave_PreservesTopicAndTitle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	art, err := store.SaveArticle(ctx, Article{
		TopicID: "topic-9",
		Title:   "Keep Me",
		Content: "original",
		Status:  "complete",
	}, false)
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, art.ID, "edited body", false))

	var topicID, title string
	err = store.db.QueryRow("SELECT topic_id, title FROM articles WHERE id = ?", art.ID).Scan(&topicID, &title)
	require.NoError(t, err)
	assert.Equal(t, "topic-9", topicID)
	assert.Equal(t, "Keep Me", title)

	loaded, err := store.GetArticle(ctx, art.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited body", loaded.Text)
	assert.Equal(t, "complete", loaded.Status)
}

func TestGetArticle_Missing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetArticle(context.Background(), "missing")
	assert.Error(t, err)
}
