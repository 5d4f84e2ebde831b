// services/query_generator_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AI-Template-SDK/story-citations/internal/logging"
	"github.com/AI-Template-SDK/story-citations/internal/models"
	"github.com/AI-Template-SDK/story-citations/internal/providers"
	"github.com/AI-Template-SDK/story-citations/internal/repositories"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	maxGeneratedQueries = 10
	minQueryLength      = 5
	maxPromptContent    = 4000
)

var templateStopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true, "this": true,
}

// GeneratedQueries is the structured output requested from the model.
type GeneratedQueries struct {
	Queries []string `json:"queries" jsonschema_description:"5-8 natural questions or search terms a user might ask an assistant that would surface this story"`
}

var generatedQueriesSchema = GenerateSchema[GeneratedQueries]()

type candidateQuery struct {
	text   string
	origin string
}

type queryGeneratorService struct {
	llm    providers.StructuredCompleter
	repos  *repositories.Manager
	logger zerolog.Logger
}

// NewQueryGeneratorService builds the generator. llm may be nil, in which case only
// template queries are produced.
func NewQueryGeneratorService(llm providers.StructuredCompleter, repos *repositories.Manager, logger zerolog.Logger) QueryGeneratorService {
	return &queryGeneratorService{
		llm:    llm,
		repos:  repos,
		logger: logging.Component(logger, "QueryGenerator"),
	}
}

func (s *queryGeneratorService) GenerateQueries(ctx context.Context, story *models.Story) ([]string, error) {
	if story == nil {
		return nil, fmt.Errorf("story is nil")
	}
	candidates := s.generate(ctx, story)
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.text
	}
	return out, nil
}

func (s *queryGeneratorService) GenerateAndStore(ctx context.Context, storyID uuid.UUID) ([]*models.SearchQuery, error) {
	story, err := s.repos.StoryRepo.GetByID(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load story: %w", err)
	}

	existing, err := s.repos.QueryRepo.ListByStory(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing queries: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, q := range existing {
		known[normalizeQuery(q.Query)] = true
	}

	var created []*models.SearchQuery
	for _, c := range s.generate(ctx, story) {
		if known[normalizeQuery(c.text)] {
			continue
		}
		q := &models.SearchQuery{
			StoryID:     storyID,
			Query:       c.text,
			QueryType:   models.QueryTypeStoryMention,
			GeneratedBy: c.origin,
			IsActive:    true,
		}
		if err := s.repos.QueryRepo.Create(ctx, q); err != nil {
			return created, fmt.Errorf("failed to store query %q: %w", c.text, err)
		}
		created = append(created, q)
	}

	s.logger.Info().
		Str("story_id", storyID.String()).
		Int("created", len(created)).
		Int("existing", len(existing)).
		Msg("stored generated queries")
	return created, nil
}

// generate merges model queries with template queries, model queries first.
func (s *queryGeneratorService) generate(ctx context.Context, story *models.Story) []candidateQuery {
	var candidates []candidateQuery

	aiQueries, err := s.aiQueries(ctx, story)
	if err != nil {
		s.logger.Warn().Err(err).Str("story_id", story.StoryID.String()).Msg("AI query generation failed, falling back to template queries")
	}
	for _, q := range aiQueries {
		candidates = append(candidates, candidateQuery{text: q, origin: models.GeneratedByAI})
	}
	for _, q := range TemplateQueries(story.Title, story.Tags) {
		candidates = append(candidates, candidateQuery{text: q, origin: models.GeneratedByTemplate})
	}

	return dedupeQueries(candidates, maxGeneratedQueries)
}

func (s *queryGeneratorService) aiQueries(ctx context.Context, story *models.Story) ([]string, error) {
	if s.llm == nil {
		return nil, providers.ErrStructuredUnsupported
	}

	resp, err := s.llm.CompleteJSON(ctx, queryGenerationSystemPrompt, buildQueryPrompt(story), "search_queries", generatedQueriesSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to generate search queries: %w", err)
	}

	var parsed GeneratedQueries
	if err := json.Unmarshal([]byte(resp.Response), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse generated queries: %w", err)
	}

	var out []string
	for _, q := range parsed.Queries {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	return out, nil
}

const queryGenerationSystemPrompt = "You are an expert at generating search queries that people would naturally ask when looking for information. Generate realistic, varied queries that would lead someone to find the given news story."

func buildQueryPrompt(story *models.Story) string {
	content := story.Content
	if r := []rune(content); len(r) > maxPromptContent {
		content = string(r[:maxPromptContent])
	}
	return fmt.Sprintf(`Based on the following news story, generate 5-8 relevant search queries that people might ask a large language model when looking for information related to this story's topic. The queries should be natural questions or search terms that would likely result in this story being mentioned as a relevant source.

Story Title: %s

Story Content: %s

Tags: %s

Generate queries that are:
1. Natural and conversational
2. Likely to be asked by real users
3. Related to the main topics and themes of the story
4. Varied in specificity (some broad, some specific)`, story.Title, content, strings.Join(story.Tags, ", "))
}

// TemplateQueries builds deterministic queries from the title words and tags.
func TemplateQueries(title string, tags []string) []string {
	var words []string
	for _, w := range strings.Split(strings.ToLower(title), " ") {
		if len([]rune(w)) > 3 && !templateStopwords[w] {
			words = append(words, w)
		}
	}

	var queries []string
	if len(words) > 0 {
		queries = append(queries,
			fmt.Sprintf("What is %s?", strings.Join(words[:min(3, len(words))], " ")),
			fmt.Sprintf("%s news", words[0]),
			fmt.Sprintf("Latest %s updates", strings.Join(words[:min(2, len(words))], " ")),
		)
	}

	for _, tag := range tags {
		clean := strings.ToLower(strings.TrimSpace(tag))
		if clean == "" {
			continue
		}
		queries = append(queries,
			fmt.Sprintf("Best %s solutions", clean),
			fmt.Sprintf("%s news today", clean),
			fmt.Sprintf("What is happening with %s?", clean),
		)
	}

	out := queries[:0]
	for _, q := range queries {
		if len([]rune(q)) > minQueryLength {
			out = append(out, q)
		}
	}
	return out
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}

func dedupeQueries(candidates []candidateQuery, limit int) []candidateQuery {
	seen := make(map[string]bool, len(candidates))
	out := make([]candidateQuery, 0, min(limit, len(candidates)))
	for _, c := range candidates {
		key := normalizeQuery(c.text)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out
}
