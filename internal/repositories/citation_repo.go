package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/AI-Template-SDK/story-citations/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	citationColumns = `citation_id, story_id, search_result_id, platform, query, citation_text, context,
	source_urls, confidence, strategy, found_at`
	sourceColumns = `source_id, citation_id, url, domain, type, kind, created_at`
)

type citationRepo struct {
	db *sqlx.DB
}

func (r *citationRepo) Create(ctx context.Context, c *models.Citation, sources []*models.CitationSource) error {
	if c.CitationID == uuid.Nil {
		c.CitationID = uuid.New()
	}
	if c.FoundAt.IsZero() {
		c.FoundAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO citations (`+citationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		c.CitationID, c.StoryID, c.SearchResultID, c.Platform, c.Query, c.CitationText, c.Context,
		c.SourceURLs, c.Confidence, c.Strategy, c.FoundAt)
	if err != nil {
		return fmt.Errorf("failed to create citation: %w", err)
	}

	for _, s := range sources {
		if s.SourceID == uuid.Nil {
			s.SourceID = uuid.New()
		}
		s.CitationID = c.CitationID
		if s.CreatedAt.IsZero() {
			s.CreatedAt = c.FoundAt
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO citation_sources (`+sourceColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			s.SourceID, s.CitationID, s.URL, s.Domain, s.Type, s.Kind, s.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create citation source %s: %w", s.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit citation: %w", err)
	}
	return nil
}

func (r *citationRepo) ListByStory(ctx context.Context, storyID uuid.UUID) ([]*models.Citation, error) {
	var citations []*models.Citation
	query := `SELECT ` + citationColumns + ` FROM citations WHERE story_id = $1 ORDER BY found_at DESC`
	if err := r.db.SelectContext(ctx, &citations, query, storyID); err != nil {
		return nil, fmt.Errorf("failed to list citations for story %s: %w", storyID, err)
	}
	return citations, nil
}

func (r *citationRepo) ListSources(ctx context.Context, citationID uuid.UUID) ([]*models.CitationSource, error) {
	var sources []*models.CitationSource
	query := `SELECT ` + sourceColumns + ` FROM citation_sources WHERE citation_id = $1 ORDER BY created_at, url`
	if err := r.db.SelectContext(ctx, &sources, query, citationID); err != nil {
		return nil, fmt.Errorf("failed to list sources for citation %s: %w", citationID, err)
	}
	return sources, nil
}
