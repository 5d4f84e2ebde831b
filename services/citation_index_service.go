// services/citation_index_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/AI-Template-SDK/story-citations/internal/logging"
	"github.com/AI-Template-SDK/story-citations/internal/models"
	"github.com/rs/zerolog"
	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
)

// CitationsCollection is the Typesense collection holding indexed citations.
const CitationsCollection = "citations"

type typesenseCitationIndexer struct {
	client *typesense.Client
	logger zerolog.Logger
}

func NewTypesenseCitationIndexer(client *typesense.Client, logger zerolog.Logger) CitationIndexer {
	return &typesenseCitationIndexer{
		client: client,
		logger: logging.Component(logger, "CitationIndexer"),
	}
}

func (i *typesenseCitationIndexer) EnsureCollection(ctx context.Context) error {
	facet := true
	sort := true
	optional := true
	defaultSortField := "found_at"
	schema := &api.CollectionSchema{
		Name: CitationsCollection,
		Fields: []api.Field{
			{Name: "story_id", Type: "string", Facet: &facet},
			{Name: "story_title", Type: "string"},
			{Name: "platform", Type: "string", Facet: &facet},
			{Name: "query", Type: "string"},
			{Name: "citation_text", Type: "string"},
			{Name: "source_urls", Type: "string[]", Optional: &optional},
			{Name: "strategy", Type: "string", Facet: &facet},
			{Name: "confidence", Type: "int32"},
			{Name: "found_at", Type: "int64", Sort: &sort},
		},
		DefaultSortingField: &defaultSortField,
	}

	_, err := i.client.Collections().Create(ctx, schema)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return fmt.Errorf("failed to create Typesense collection %s: %w", CitationsCollection, err)
	}
	i.logger.Info().Str("collection", CitationsCollection).Msg("Typesense collection is ready")
	return nil
}

func (i *typesenseCitationIndexer) IndexCitation(ctx context.Context, story *models.Story, citation *models.Citation) error {
	doc := map[string]interface{}{
		"id":            citation.CitationID.String(),
		"story_id":      citation.StoryID.String(),
		"story_title":   story.Title,
		"platform":      citation.Platform,
		"query":         citation.Query,
		"citation_text": citation.CitationText,
		"source_urls":   []string(citation.SourceURLs),
		"strategy":      citation.Strategy,
		"confidence":    citation.Confidence,
		"found_at":      citation.FoundAt.Unix(),
	}

	action := "upsert"
	results, err := i.client.Collection(CitationsCollection).Documents().Import(ctx, []interface{}{doc}, &api.ImportDocumentsParams{Action: &action})
	if err != nil {
		return fmt.Errorf("failed to index citation %s: %w", citation.CitationID, err)
	}
	for _, r := range results {
		if r != nil && !r.Success {
			return fmt.Errorf("typesense rejected citation %s: %s", citation.CitationID, r.Error)
		}
	}
	return nil
}

type noopCitationIndexer struct{}

// NewNoopCitationIndexer is used when no search index is configured.
func NewNoopCitationIndexer() CitationIndexer {
	return noopCitationIndexer{}
}

func (noopCitationIndexer) EnsureCollection(ctx context.Context) error { return nil }

func (noopCitationIndexer) IndexCitation(ctx context.Context, story *models.Story, citation *models.Citation) error {
	return nil
}
