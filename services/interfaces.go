// services/interfaces.go
package services

import (
	"context"

	"github.com/AI-Template-SDK/story-citations/internal/models"
	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
)

// QueryGeneratorService produces search queries for a story.
type QueryGeneratorService interface {
	GenerateQueries(ctx context.Context, story *models.Story) ([]string, error)
	GenerateAndStore(ctx context.Context, storyID uuid.UUID) ([]*models.SearchQuery, error)
}

// CitationSearchService runs a story's queries against an LLM and records citations.
type CitationSearchService interface {
	SearchStory(ctx context.Context, storyID uuid.UUID) (*models.SearchSummary, error)
	RunQuery(ctx context.Context, story *models.Story, query *models.SearchQuery) (*models.QueryRunResult, error)
}

// CitationIndexer makes citations searchable.
type CitationIndexer interface {
	EnsureCollection(ctx context.Context) error
	IndexCitation(ctx context.Context, story *models.Story, citation *models.Citation) error
}

// GenerateSchema builds a strict JSON schema for structured outputs.
func GenerateSchema[T any]() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)
	return schema
}
