package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/AI-Template-SDK/story-citations/internal/models"
	"github.com/AI-Template-SDK/story-citations/internal/repositories"
	"github.com/google/uuid"
)

type memStore struct {
	mu        sync.Mutex
	stories   map[uuid.UUID]*models.Story
	queries   []*models.SearchQuery
	results   []*models.SearchResult
	citations []*models.Citation
	sources   map[uuid.UUID][]*models.CitationSource

	failResultsFor string
}

func newMemStore() *memStore {
	return &memStore{
		stories: make(map[uuid.UUID]*models.Story),
		sources: make(map[uuid.UUID][]*models.CitationSource),
	}
}

func (s *memStore) manager() *repositories.Manager {
	return &repositories.Manager{
		StoryRepo:    memStories{s},
		QueryRepo:    memQueries{s},
		ResultRepo:   memResults{s},
		CitationRepo: memCitations{s},
	}
}

type memStories struct{ s *memStore }

func (m memStories) Create(ctx context.Context, story *models.Story) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.stories[story.StoryID] = story
	return nil
}

func (m memStories) GetByID(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	story, ok := m.s.stories[id]
	if !ok {
		return nil, fmt.Errorf("story %s: %w", id, repositories.ErrNotFound)
	}
	return story, nil
}

func (m memStories) ListActive(ctx context.Context) ([]*models.Story, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*models.Story
	for _, st := range m.s.stories {
		if st.Status == models.StoryStatusActive {
			out = append(out, st)
		}
	}
	return out, nil
}

type memQueries struct{ s *memStore }

func (m memQueries) Create(ctx context.Context, q *models.SearchQuery) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if q.QueryID == uuid.Nil {
		q.QueryID = uuid.New()
	}
	m.s.queries = append(m.s.queries, q)
	return nil
}

func (m memQueries) ListByStory(ctx context.Context, storyID uuid.UUID) ([]*models.SearchQuery, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*models.SearchQuery
	for _, q := range m.s.queries {
		if q.StoryID == storyID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m memQueries) ListActiveByStory(ctx context.Context, storyID uuid.UUID) ([]*models.SearchQuery, error) {
	all, _ := m.ListByStory(ctx, storyID)
	var out []*models.SearchQuery
	for _, q := range all {
		if q.IsActive {
			out = append(out, q)
		}
	}
	return out, nil
}

type memResults struct{ s *memStore }

func (m memResults) Create(ctx context.Context, r *models.SearchResult) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failResultsFor != "" && r.Response == m.s.failResultsFor {
		return fmt.Errorf("disk full")
	}
	if r.ResultID == uuid.Nil {
		r.ResultID = uuid.New()
	}
	m.s.results = append(m.s.results, r)
	return nil
}

func (m memResults) ListByStory(ctx context.Context, storyID uuid.UUID, limit int) ([]*models.SearchResult, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*models.SearchResult
	for _, r := range m.s.results {
		if r.StoryID == storyID {
			out = append(out, r)
		}
	}
	return out, nil
}

type memCitations struct{ s *memStore }

func (m memCitations) Create(ctx context.Context, c *models.Citation, sources []*models.CitationSource) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.citations = append(m.s.citations, c)
	m.s.sources[c.CitationID] = sources
	return nil
}

func (m memCitations) ListByStory(ctx context.Context, storyID uuid.UUID) ([]*models.Citation, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*models.Citation
	for _, c := range m.s.citations {
		if c.StoryID == storyID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m memCitations) ListSources(ctx context.Context, citationID uuid.UUID) ([]*models.CitationSource, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.s.sources[citationID], nil
}

type recordingIndexer struct {
	mu      sync.Mutex
	indexed []*models.Citation
	err     error
}

func (r *recordingIndexer) EnsureCollection(ctx context.Context) error { return nil }

func (r *recordingIndexer) IndexCitation(ctx context.Context, story *models.Story, c *models.Citation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indexed = append(r.indexed, c)
	return r.err
}
