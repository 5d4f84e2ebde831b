// services/citation_search_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/AI-Template-SDK/story-citations/internal/citation"
	"github.com/AI-Template-SDK/story-citations/internal/logging"
	"github.com/AI-Template-SDK/story-citations/internal/metrics"
	"github.com/AI-Template-SDK/story-citations/internal/models"
	"github.com/AI-Template-SDK/story-citations/internal/providers"
	"github.com/AI-Template-SDK/story-citations/internal/repositories"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrNoActiveQueries is returned when a story has nothing to search for.
var ErrNoActiveQueries = errors.New("story has no active search queries")

type citationSearchService struct {
	provider    providers.LLMProvider
	repos       *repositories.Manager
	indexer     CitationIndexer
	detector    *citation.Detector
	concurrency int
	logger      zerolog.Logger
}

func NewCitationSearchService(provider providers.LLMProvider, repos *repositories.Manager, indexer CitationIndexer, concurrency int, logger zerolog.Logger) CitationSearchService {
	if indexer == nil {
		indexer = NewNoopCitationIndexer()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &citationSearchService{
		provider:    provider,
		repos:       repos,
		indexer:     indexer,
		detector:    citation.NewDetector(),
		concurrency: concurrency,
		logger:      logging.Component(logger, "CitationSearch"),
	}
}

func (s *citationSearchService) SearchStory(ctx context.Context, storyID uuid.UUID) (*models.SearchSummary, error) {
	story, err := s.repos.StoryRepo.GetByID(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load story: %w", err)
	}

	queries, err := s.repos.QueryRepo.ListActiveByStory(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load queries: %w", err)
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("story %s: %w", storyID, ErrNoActiveQueries)
	}

	s.logger.Info().
		Str("story_id", storyID.String()).
		Int("queries", len(queries)).
		Str("provider", s.provider.GetProviderName()).
		Str("model", s.provider.GetModelName()).
		Msg("starting citation search")

	summary := &models.SearchSummary{StoryID: storyID, TotalQueries: len(queries)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, q := range queries {
		g.Go(func() error {
			res, err := s.RunQuery(gctx, story, q)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", q.Query, err))
				return nil
			}
			summary.SuccessfulSearches++
			summary.TotalCost += res.SearchResult.TotalCost
			if res.Citation != nil {
				summary.CitationsFound++
			}
			return nil
		})
	}
	_ = g.Wait()
	sort.Strings(summary.Errors)

	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("citation search interrupted: %w", err)
	}

	s.logger.Info().
		Str("story_id", storyID.String()).
		Int("successful", summary.SuccessfulSearches).
		Int("citations", summary.CitationsFound).
		Int("failed", len(summary.Errors)).
		Float64("cost", summary.TotalCost).
		Msg("citation search complete")
	return summary, nil
}

func (s *citationSearchService) RunQuery(ctx context.Context, story *models.Story, query *models.SearchQuery) (*models.QueryRunResult, error) {
	resp, err := s.provider.Search(ctx, query.Query)
	if err != nil {
		metrics.CitationSearchQueries.WithLabelValues(metrics.QueryStatusFailed).Inc()
		s.logger.Warn().Err(err).Str("story_id", story.StoryID.String()).Str("query", query.Query).Msg("LLM search failed")
		return nil, fmt.Errorf("search failed: %w", err)
	}

	result := s.detector.Detect(citation.Input{
		Title:    story.Title,
		Content:  story.Content,
		Query:    query.Query,
		Response: resp.Response,
	})
	metrics.RecordDetection(result.Strategy, result.Cited, result.Strategy == citation.StrategyFallback)

	searchResult := &models.SearchResult{
		QueryID:         query.QueryID,
		StoryID:         story.StoryID,
		Platform:        s.provider.GetProviderName(),
		Model:           s.provider.GetModelName(),
		Response:        resp.Response,
		Cited:           result.Cited,
		CitationContext: result.Context,
		Confidence:      result.Confidence,
		Strategy:        result.Strategy,
		InputTokens:     resp.InputTokens,
		OutputTokens:    resp.OutputTokens,
		TotalCost:       resp.Cost,
		SearchedAt:      time.Now().UTC(),
	}
	if err := s.repos.ResultRepo.Create(ctx, searchResult); err != nil {
		metrics.CitationSearchQueries.WithLabelValues(metrics.QueryStatusFailed).Inc()
		return nil, fmt.Errorf("failed to store search result: %w", err)
	}

	out := &models.QueryRunResult{SearchResult: searchResult}
	if !result.Cited {
		metrics.CitationSearchQueries.WithLabelValues(metrics.QueryStatusNotCited).Inc()
		return out, nil
	}

	c, sources := buildCitation(story, query, searchResult, result)
	if err := s.repos.CitationRepo.Create(ctx, c, sources); err != nil {
		metrics.CitationSearchQueries.WithLabelValues(metrics.QueryStatusFailed).Inc()
		return nil, fmt.Errorf("failed to store citation: %w", err)
	}

	if err := s.indexer.IndexCitation(ctx, story, c); err != nil {
		s.logger.Warn().Err(err).Str("citation_id", c.CitationID.String()).Msg("failed to index citation")
	}

	metrics.CitationSearchQueries.WithLabelValues(metrics.QueryStatusCited).Inc()
	s.logger.Info().
		Str("story_id", story.StoryID.String()).
		Str("query", query.Query).
		Int("confidence", result.Confidence).
		Str("strategy", result.Strategy).
		Int("sources", len(sources)).
		Msg("citation found")

	out.Citation = c
	return out, nil
}

func buildCitation(story *models.Story, query *models.SearchQuery, sr *models.SearchResult, result citation.Result) (*models.Citation, []*models.CitationSource) {
	text := ""
	switch {
	case result.CitationText != nil:
		text = *result.CitationText
	case result.Context != nil:
		text = *result.Context
	}

	c := &models.Citation{
		CitationID:     uuid.New(),
		StoryID:        story.StoryID,
		SearchResultID: sr.ResultID,
		Platform:       sr.Platform,
		Query:          query.Query,
		CitationText:   text,
		Context:        result.Context,
		SourceURLs:     pq.StringArray(result.SourceURLs),
		Confidence:     result.Confidence,
		Strategy:       result.Strategy,
		FoundAt:        sr.SearchedAt,
	}

	classified := citation.ClassifySources(result.SourceURLs, story.Websites)
	sources := make([]*models.CitationSource, 0, len(classified))
	for _, src := range classified {
		sources = append(sources, &models.CitationSource{
			CitationID: c.CitationID,
			URL:        src.URL,
			Domain:     src.Domain,
			Type:       src.Type,
			Kind:       src.Kind,
		})
	}
	return c, sources
}
