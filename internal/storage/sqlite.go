package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"inkwell/internal/session"
)

// Article is the canonical stored article row.
type Article struct {
	ID        string
	TopicID   string
	Title     string
	Content   string
	Status    string
	UpdatedAt time.Time
}

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS topics (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			relevance REAL,
			warnings JSON,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS articles (
			id TEXT PRIMARY KEY,
			topic_id TEXT,
			title TEXT,
			content TEXT,
			status TEXT,
			updated_at TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS article_versions (
			id TEXT PRIMARY KEY,
			article_id TEXT NOT NULL,
			content TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_articles_topic ON articles(topic_id);`,
		`CREATE INDEX IF NOT EXISTS idx_versions_article ON article_versions(article_id);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// --- TopicStore Implementation ---

// PersistTopic writes the topic, minting a durable uuid when the incoming id
// is temporary or empty. Downstream stages must only ever reference the
// returned id.
func (s *SQLiteStore) PersistTopic(ctx context.Context, t session.TopicCandidate) (session.TopicCandidate, error) {
	if !t.Durable() {
		t.ID = uuid.NewString()
	}
	warnings, _ := json.Marshal(t.SimilarityWarnings)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO topics (id, title, relevance, warnings)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title,
			relevance=excluded.relevance,
			warnings=excluded.warnings
	`, t.ID, t.Title, t.Relevance, warnings)
	if err != nil {
		return session.TopicCandidate{}, fmt.Errorf("failed to persist topic: %w", err)
	}
	return t, nil
}

func (s *SQLiteStore) GetTopic(ctx context.Context, id string) (session.TopicCandidate, error) {
	var t session.TopicCandidate
	var warnings []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT id, title, relevance, warnings FROM topics WHERE id = ?", id,
	).Scan(&t.ID, &t.Title, &t.Relevance, &warnings)
	if err != nil {
		return session.TopicCandidate{}, fmt.Errorf("failed to load topic %s: %w", id, err)
	}
	if len(warnings) > 0 {
		_ = json.Unmarshal(warnings, &t.SimilarityWarnings)
	}
	return t, nil
}

// --- ArticleStore Implementation ---

func (s *SQLiteStore) SaveArticle(ctx context.Context, art Article, snapshot bool) (Article, error) {
	if strings.TrimSpace(art.ID) == "" {
		art.ID = uuid.NewString()
	}
	if art.Status == "" {
		art.Status = "draft"
	}
	art.UpdatedAt = time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Article{}, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO articles (id, topic_id, title, content, status, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			topic_id=COALESCE(NULLIF(excluded.topic_id, ''), articles.topic_id),
			title=COALESCE(NULLIF(excluded.title, ''), articles.title),
			content=excluded.content,
			status=excluded.status,
			updated_at=excluded.updated_at
	`, art.ID, art.TopicID, art.Title, art.Content, art.Status, art.UpdatedAt)
	if err != nil {
		return Article{}, fmt.Errorf("failed to save article: %w", err)
	}

	if snapshot {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO article_versions (id, article_id, content)
			VALUES (?, ?, ?)
		`, uuid.NewString(), art.ID, art.Content)
		if err != nil {
			return Article{}, fmt.Errorf("failed to snapshot article: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Article{}, err
	}
	return art, nil
}

func (s *SQLiteStore) GetArticle(ctx context.Context, id string) (session.FinalArticle, error) {
	var art session.FinalArticle
	err := s.db.QueryRowContext(ctx,
		"SELECT id, content, status FROM articles WHERE id = ?", id,
	).Scan(&art.ID, &art.Text, &art.Status)
	if err != nil {
		return session.FinalArticle{}, fmt.Errorf("failed to load article %s: %w", id, err)
	}
	return art, nil
}

func (s *SQLiteStore) ListVersions(ctx context.Context, articleID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT content FROM article_versions WHERE article_id = ? ORDER BY created_at DESC", articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query versions: %w", err)
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		versions = append(versions, content)
	}
	return versions, rows.Err()
}

// Save implements the persist.Saver contract: a full-text write of the
// canonical article, optionally with a version snapshot.
func (s *SQLiteStore) Save(ctx context.Context, articleID, text string, snapshot bool) error {
	art, err := s.GetArticle(ctx, articleID)
	status := "draft"
	if err == nil {
		status = art.Status
	}
	_, err = s.SaveArticle(ctx, Article{ID: articleID, Content: text, Status: status}, snapshot)
	return err
}
