package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/AI-Template-SDK/story-citations/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const queryColumns = `query_id, story_id, query, query_type, generated_by, is_active, created_at`

type searchQueryRepo struct {
	db *sqlx.DB
}

func (r *searchQueryRepo) Create(ctx context.Context, q *models.SearchQuery) error {
	if q.QueryID == uuid.Nil {
		q.QueryID = uuid.New()
	}
	if q.QueryType == "" {
		q.QueryType = models.QueryTypeStoryMention
	}
	if q.GeneratedBy == "" {
		q.GeneratedBy = models.GeneratedByManual
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO search_queries (` + queryColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query,
		q.QueryID, q.StoryID, q.Query, q.QueryType, q.GeneratedBy, q.IsActive, q.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create search query: %w", err)
	}
	return nil
}

func (r *searchQueryRepo) ListByStory(ctx context.Context, storyID uuid.UUID) ([]*models.SearchQuery, error) {
	var queries []*models.SearchQuery
	query := `SELECT ` + queryColumns + ` FROM search_queries WHERE story_id = $1 ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &queries, query, storyID); err != nil {
		return nil, fmt.Errorf("failed to list queries for story %s: %w", storyID, err)
	}
	return queries, nil
}

func (r *searchQueryRepo) ListActiveByStory(ctx context.Context, storyID uuid.UUID) ([]*models.SearchQuery, error) {
	var queries []*models.SearchQuery
	query := `SELECT ` + queryColumns + ` FROM search_queries WHERE story_id = $1 AND is_active ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &queries, query, storyID); err != nil {
		return nil, fmt.Errorf("failed to list active queries for story %s: %w", storyID, err)
	}
	return queries, nil
}
