package services

import (
	"context"
	"errors"
	"testing"

	"github.com/AI-Template-SDK/story-citations/internal/citation"
	"github.com/AI-Template-SDK/story-citations/internal/models"
	"github.com/AI-Template-SDK/story-citations/internal/providers"
	"github.com/AI-Template-SDK/story-citations/internal/providers/testutil"
	"github.com/AI-Template-SDK/story-citations/internal/repositories"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStory(store *memStore) (*models.Story, []*models.SearchQuery) {
	story := testutil.SampleStory()
	store.stories[story.StoryID] = story
	queries := testutil.SampleQueries(story.StoryID)
	store.queries = append(store.queries, queries...)
	return story, queries
}

// scriptedSearch answers the first sample query with a citation, the second with
// nothing relevant and fails the third.
func scriptedSearch(queries []*models.SearchQuery) *testutil.MockProvider {
	provider := testutil.NewMockProvider("")
	provider.SearchFunc = func(ctx context.Context, query string) (*providers.AIResponse, error) {
		switch query {
		case queries[0].Query:
			return &providers.AIResponse{Response: testutil.SampleCitedResponse(), InputTokens: 100, OutputTokens: 50, Cost: 0.0015}, nil
		case queries[1].Query:
			return &providers.AIResponse{Response: testutil.SampleUncitedResponse(), InputTokens: 100, OutputTokens: 50, Cost: 0.0015}, nil
		default:
			return nil, errors.New("upstream 503")
		}
	}
	return provider
}

func TestSearchStorySummarizesQueries(t *testing.T) {
	store := newMemStore()
	story, queries := seedStory(store)
	indexer := &recordingIndexer{}

	svc := NewCitationSearchService(scriptedSearch(queries), store.manager(), indexer, 2, zerolog.Nop())
	summary, err := svc.SearchStory(context.Background(), story.StoryID)
	require.NoError(t, err)

	assert.Equal(t, story.StoryID, summary.StoryID)
	assert.Equal(t, 3, summary.TotalQueries)
	assert.Equal(t, 2, summary.SuccessfulSearches)
	assert.Equal(t, 1, summary.CitationsFound)
	assert.InDelta(t, 0.003, summary.TotalCost, 1e-9)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "upstream 503")

	assert.Len(t, store.results, 2)
	require.Len(t, store.citations, 1)
	require.Len(t, indexer.indexed, 1)

	c := store.citations[0]
	assert.Equal(t, story.Title, c.CitationText)
	assert.Equal(t, 90, c.Confidence)
	assert.Equal(t, citation.StrategyExactTitle, c.Strategy)
	assert.Equal(t, "mock", c.Platform)
	assert.Equal(t, []string{"https://reuters.com/tesla-battery", "https://www.tesla.com/blog/battery-day"}, []string(c.SourceURLs))

	sources := store.sources[c.CitationID]
	require.Len(t, sources, 2)
	assert.Equal(t, "reuters.com", sources[0].Domain)
	assert.Equal(t, citation.SourceSecondary, sources[0].Type)
	assert.Equal(t, citation.KindNews, sources[0].Kind)
	assert.Equal(t, "tesla.com", sources[1].Domain)
	assert.Equal(t, citation.SourcePrimary, sources[1].Type)
}

func TestSearchStoryRecordsUncitedResults(t *testing.T) {
	store := newMemStore()
	story, queries := seedStory(store)

	svc := NewCitationSearchService(scriptedSearch(queries), store.manager(), nil, 1, zerolog.Nop())
	res, err := svc.RunQuery(context.Background(), story, queries[1])
	require.NoError(t, err)

	assert.Nil(t, res.Citation)
	assert.False(t, res.SearchResult.Cited)
	assert.Equal(t, 0, res.SearchResult.Confidence)
	assert.Nil(t, res.SearchResult.CitationContext)
	assert.Equal(t, "mock-model", res.SearchResult.Model)
}

func TestSearchStoryWithoutActiveQueries(t *testing.T) {
	store := newMemStore()
	story := testutil.SampleStory()
	store.stories[story.StoryID] = story

	svc := NewCitationSearchService(testutil.NewMockProvider("x"), store.manager(), nil, 1, zerolog.Nop())
	_, err := svc.SearchStory(context.Background(), story.StoryID)

	assert.True(t, errors.Is(err, ErrNoActiveQueries))
}

func TestSearchStoryUnknownStory(t *testing.T) {
	store := newMemStore()
	svc := NewCitationSearchService(testutil.NewMockProvider("x"), store.manager(), nil, 1, zerolog.Nop())

	_, err := svc.SearchStory(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, repositories.ErrNotFound))
}

func TestIndexFailureDoesNotFailQuery(t *testing.T) {
	store := newMemStore()
	story, queries := seedStory(store)
	indexer := &recordingIndexer{err: errors.New("typesense down")}

	svc := NewCitationSearchService(scriptedSearch(queries), store.manager(), indexer, 1, zerolog.Nop())
	res, err := svc.RunQuery(context.Background(), story, queries[0])

	require.NoError(t, err)
	assert.NotNil(t, res.Citation)
	assert.Len(t, store.citations, 1)
}

func TestResultStoreFailureIsReported(t *testing.T) {
	store := newMemStore()
	story, queries := seedStory(store)
	store.failResultsFor = testutil.SampleCitedResponse()

	svc := NewCitationSearchService(scriptedSearch(queries), store.manager(), nil, 1, zerolog.Nop())
	_, err := svc.RunQuery(context.Background(), story, queries[0])

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Empty(t, store.citations)
}

func TestSearchStoryCancelledContext(t *testing.T) {
	store := newMemStore()
	story, _ := seedStory(store)

	provider := testutil.NewMockProvider("")
	provider.SearchFunc = func(ctx context.Context, query string) (*providers.AIResponse, error) {
		return nil, ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewCitationSearchService(provider, store.manager(), nil, 2, zerolog.Nop())
	summary, err := svc.SearchStory(ctx, story.StoryID)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, summary)
	assert.Equal(t, 0, summary.SuccessfulSearches)
}
