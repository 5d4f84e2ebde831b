package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/AI-Template-SDK/story-citations/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const resultColumns = `result_id, query_id, story_id, platform, model, response, cited, citation_context,
	confidence, strategy, input_tokens, output_tokens, total_cost, searched_at`

type searchResultRepo struct {
	db *sqlx.DB
}

func (r *searchResultRepo) Create(ctx context.Context, res *models.SearchResult) error {
	if res.ResultID == uuid.Nil {
		res.ResultID = uuid.New()
	}
	if res.SearchedAt.IsZero() {
		res.SearchedAt = time.Now().UTC()
	}

	query := `INSERT INTO search_results (` + resultColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.db.ExecContext(ctx, query,
		res.ResultID, res.QueryID, res.StoryID, res.Platform, res.Model, res.Response, res.Cited,
		res.CitationContext, res.Confidence, res.Strategy, res.InputTokens, res.OutputTokens,
		res.TotalCost, res.SearchedAt)
	if err != nil {
		return fmt.Errorf("failed to create search result: %w", err)
	}
	return nil
}

func (r *searchResultRepo) ListByStory(ctx context.Context, storyID uuid.UUID, limit int) ([]*models.SearchResult, error) {
	if limit <= 0 {
		limit = 100
	}
	var results []*models.SearchResult
	query := `SELECT ` + resultColumns + ` FROM search_results WHERE story_id = $1 ORDER BY searched_at DESC LIMIT $2`
	if err := r.db.SelectContext(ctx, &results, query, storyID, limit); err != nil {
		return nil, fmt.Errorf("failed to list search results for story %s: %w", storyID, err)
	}
	return results, nil
}
