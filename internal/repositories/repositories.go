// Package repositories persists stories, queries, search results and citations in Postgres.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AI-Template-SDK/story-citations/internal/config"
	"github.com/AI-Template-SDK/story-citations/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

type StoryRepository interface {
	Create(ctx context.Context, story *models.Story) error
	GetByID(ctx context.Context, storyID uuid.UUID) (*models.Story, error)
	ListActive(ctx context.Context) ([]*models.Story, error)
}

type SearchQueryRepository interface {
	Create(ctx context.Context, query *models.SearchQuery) error
	ListByStory(ctx context.Context, storyID uuid.UUID) ([]*models.SearchQuery, error)
	ListActiveByStory(ctx context.Context, storyID uuid.UUID) ([]*models.SearchQuery, error)
}

type SearchResultRepository interface {
	Create(ctx context.Context, result *models.SearchResult) error
	ListByStory(ctx context.Context, storyID uuid.UUID, limit int) ([]*models.SearchResult, error)
}

type CitationRepository interface {
	// Create stores the citation and its sources in one transaction.
	Create(ctx context.Context, citation *models.Citation, sources []*models.CitationSource) error
	ListByStory(ctx context.Context, storyID uuid.UUID) ([]*models.Citation, error)
	ListSources(ctx context.Context, citationID uuid.UUID) ([]*models.CitationSource, error)
}

// Manager manages all database repositories
type Manager struct {
	db           *sqlx.DB
	StoryRepo    StoryRepository
	QueryRepo    SearchQueryRepository
	ResultRepo   SearchResultRepository
	CitationRepo CitationRepository
}

// NewManager creates a new repository manager with all repositories
func NewManager(db *sqlx.DB) *Manager {
	return &Manager{
		db:           db,
		StoryRepo:    &storyRepo{db: db},
		QueryRepo:    &searchQueryRepo{db: db},
		ResultRepo:   &searchResultRepo{db: db},
		CitationRepo: &citationRepo{db: db},
	}
}

// Open connects to Postgres and applies the pool settings.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	return db, nil
}

// BeginTx starts a database transaction
func (m *Manager) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return m.db.BeginTxx(ctx, nil)
}

// DB exposes the underlying handle for health checks.
func (m *Manager) DB() *sqlx.DB {
	return m.db
}

func notFound(err error, what string, id uuid.UUID) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("failed to get %s %s: %w", what, id, err)
}
