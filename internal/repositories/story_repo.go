package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/AI-Template-SDK/story-citations/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const storyColumns = `story_id, title, content, category, tags, websites, status, published_at, created_at, updated_at`

type storyRepo struct {
	db *sqlx.DB
}

func (r *storyRepo) Create(ctx context.Context, story *models.Story) error {
	if story.StoryID == uuid.Nil {
		story.StoryID = uuid.New()
	}
	if story.Status == "" {
		story.Status = models.StoryStatusActive
	}
	now := time.Now().UTC()
	if story.CreatedAt.IsZero() {
		story.CreatedAt = now
	}
	story.UpdatedAt = now

	query := `INSERT INTO stories (` + storyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(ctx, query,
		story.StoryID, story.Title, story.Content, story.Category, story.Tags, story.Websites,
		story.Status, story.PublishedAt, story.CreatedAt, story.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create story: %w", err)
	}
	return nil
}

func (r *storyRepo) GetByID(ctx context.Context, storyID uuid.UUID) (*models.Story, error) {
	var story models.Story
	query := `SELECT ` + storyColumns + ` FROM stories WHERE story_id = $1`
	if err := r.db.GetContext(ctx, &story, query, storyID); err != nil {
		return nil, notFound(err, "story", storyID)
	}
	return &story, nil
}

func (r *storyRepo) ListActive(ctx context.Context) ([]*models.Story, error) {
	var stories []*models.Story
	query := `SELECT ` + storyColumns + ` FROM stories WHERE status = $1 ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &stories, query, models.StoryStatusActive); err != nil {
		return nil, fmt.Errorf("failed to list active stories: %w", err)
	}
	return stories, nil
}
